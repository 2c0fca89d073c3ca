package loadgen_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/okian/sketchmatch/internal/adapters/http/api"
	"github.com/okian/sketchmatch/internal/adapters/prompts"
	service "github.com/okian/sketchmatch/internal/app"
	"github.com/okian/sketchmatch/internal/domain/sketch"
	"github.com/okian/sketchmatch/internal/loadgen"
	"github.com/okian/sketchmatch/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

func startServer(t *testing.T, ps ...prompts.Prompt) *httptest.Server {
	t.Helper()
	ctx := context.Background()
	svc := service.New(service.WithWorkerCount(4), service.WithQueueSize(1024))
	if _, err := svc.LoadPrompts(ctx, ps); err != nil {
		t.Fatalf("load prompts: %v", err)
	}
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("start service: %v", err)
	}
	mux := http.NewServeMux()
	api.NewServer(svc, svc).Register(ctx, mux)
	srv := httptest.NewServer(mux)
	t.Cleanup(func() {
		srv.Close()
		svc.Stop()
	})
	return srv
}

func config(baseURL string) *loadgen.Config {
	return &loadgen.Config{
		BaseURL:  baseURL,
		Attempts: 60,
		Players:  8,
		Workers:  4,
		TopN:     20,
		Timeout:  5 * time.Second,
		Wait:     10 * time.Second,
		Jitter:   0.03,
		Seed:     99,
	}
}

func TestRun(t *testing.T) {
	Convey("Given a running service with prompts", t, func() {
		srv := startServer(t,
			prompts.Prompt{ID: "square", Word: "square", Drawing: sketch.Drawing{
				{Xs: []float64{0, 100, 100, 0, 0}, Ys: []float64{0, 0, 100, 100, 0}},
			}},
			prompts.Prompt{ID: "tee", Word: "tee", Drawing: sketch.Drawing{
				{Xs: []float64{0, 120}, Ys: []float64{0, 0}},
				{Xs: []float64{60, 60}, Ys: []float64{0, 150}},
			}},
		)
		cfg := config(srv.URL)
		cfg.Output = filepath.Join(t.TempDir(), "out", "attempts.json")

		Convey("When a load run completes", func() {
			stats, err := loadgen.Run(context.Background(), cfg)

			Convey("Then every attempt is scored and boards are consistent", func() {
				So(err, ShouldBeNil)
				So(stats.Prompts, ShouldEqual, 2)
				So(stats.AttemptsSent, ShouldEqual, 60)
				So(stats.Accepted, ShouldEqual, 60)
				So(stats.Failed, ShouldEqual, 0)
				So(stats.Scored+stats.ScoringFailed, ShouldEqual, 60)
				So(stats.Boards, ShouldBeGreaterThan, 0)
				So(stats.RankChecks, ShouldEqual, stats.BoardEntries)
				So(stats.RankMismatches, ShouldEqual, 0)
				So(stats.Inconsistent, ShouldBeEmpty)
				So(stats.Duration, ShouldBeGreaterThan, 0)
			})

			Convey("Then the generated attempts are saved", func() {
				data, err := os.ReadFile(cfg.Output)
				So(err, ShouldBeNil)
				var saved []loadgen.AttemptRequest
				So(json.Unmarshal(data, &saved), ShouldBeNil)
				So(saved, ShouldHaveLength, 60)
			})
		})
	})

	Convey("Given a service without prompts", t, func() {
		srv := startServer(t)

		Convey("Then the run stops before submitting", func() {
			stats, err := loadgen.Run(context.Background(), config(srv.URL))
			So(errors.Is(err, loadgen.ErrNoPrompts), ShouldBeTrue)
			So(stats.AttemptsSent, ShouldEqual, 0)
		})
	})

	Convey("Given an unreachable service", t, func() {
		srv := httptest.NewServer(http.NotFoundHandler())
		srv.Close()

		Convey("Then the health check fails", func() {
			_, err := loadgen.Run(context.Background(), config(srv.URL))
			So(err, ShouldNotBeNil)
		})
	})
}
