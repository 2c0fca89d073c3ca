package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/sketchmatch/internal/adapters/http/api"
	"github.com/okian/sketchmatch/internal/adapters/http/site"
	"github.com/okian/sketchmatch/internal/adapters/http/swagger"
	"github.com/okian/sketchmatch/internal/adapters/prompts"
	"github.com/okian/sketchmatch/internal/adapters/repository"
	service "github.com/okian/sketchmatch/internal/app"
	"github.com/okian/sketchmatch/internal/config"
	"github.com/okian/sketchmatch/internal/domain/scoring"
	"github.com/okian/sketchmatch/pkg/logger"
	"github.com/okian/sketchmatch/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the scoring HTTP service",
		Long: "Run the scoring HTTP service. Configuration is layered: defaults, the YAML file " +
			"given by --config or " + config.EnvFile + ", then " + config.EnvPrefix + "* environment variables.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
				cfg.Addr = addr
			}
			if file, _ := cmd.Flags().GetString("prompts"); file != "" {
				cfg.PromptsFile = file
			}
			if !cmd.Flags().Changed("log-format") {
				if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithWriter(cmd.ErrOrStderr())); err != nil {
					return err
				}
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg)
		},
	}
	cmd.Flags().String("config", "", "YAML config file")
	cmd.Flags().String("addr", "", "Listen address, overrides the config")
	cmd.Flags().String("prompts", "", "Prompt file to load at startup (.json or .ndjson)")
	return cmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return config.LoadFile(cmd.Context(), path)
	}
	return config.Load(cmd.Context())
}

// serve runs the service until ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	var seed []prompts.Prompt
	if cfg.PromptsFile != "" {
		ps, err := prompts.LoadFile(ctx, cfg.PromptsFile)
		if err != nil {
			return err
		}
		seed = ps
	}

	opts := []service.Option{
		service.WithLogger(log.Named("service")),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithDedupeSize(cfg.DedupeSize),
		service.WithResultCacheSize(cfg.ResultCacheSize),
		service.WithPreparedCacheSize(cfg.PreparedCacheSize),
		service.WithScoringOptions(scoring.WithConfig(cfg.Scoring())),
	}
	var store repository.Store
	if cfg.StoreBackend == config.StoreRedis {
		rs, err := repository.NewRedisStore(ctx, cfg.RedisURL, repository.WithKeyPrefix(cfg.RedisKeyPrefix))
		if err != nil {
			return err
		}
		log.Info(ctx, "using redis store", logger.String("prefix", cfg.RedisKeyPrefix))
		store = rs
		opts = append(opts, service.WithStore(store))
	}
	svc := service.New(opts...)

	if len(seed) > 0 {
		n, err := svc.LoadPrompts(ctx, seed)
		if err != nil {
			if store != nil {
				_ = store.Close()
			}
			return err
		}
		log.Info(ctx, "loaded prompts", logger.String("file", cfg.PromptsFile), logger.Int("count", n))
	}

	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("failed to start service: %w", err)
	}
	defer svc.Stop()

	go startSystemMetricsUpdater(ctx)
	go startServiceMetricsUpdater(ctx, svc)

	mux := http.NewServeMux()
	site.Register(ctx, mux)
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, api.WithMaxLeaderboardLimit(cfg.MaxLeaderboardLimit)).Register(ctx, mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("HTTP server failed: %w", err)
		}
	case <-ctx.Done():
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// startSystemMetricsUpdater refreshes runtime metrics until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

// startServiceMetricsUpdater refreshes service gauges until ctx is done.
func startServiceMetricsUpdater(ctx context.Context, svc *service.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateServiceMetrics(svc)
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())

	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}

// updateServiceMetrics pushes the gauges GetStats does not already update.
func updateServiceMetrics(svc *service.Service) {
	stats := svc.GetStats()

	if n, ok := stats["prompts"].(int); ok {
		metrics.UpdatePromptsTotal(n)
	}
	if n, ok := stats["cached_results"].(int); ok {
		metrics.UpdateResultCacheSize(n)
	}
	if n, ok := stats["queue_capacity"].(int); ok {
		metrics.UpdateQueueCapacity(n)
	}
}
