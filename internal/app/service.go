// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/okian/sketchmatch/internal/adapters/mq/queue"
	"github.com/okian/sketchmatch/internal/adapters/mq/worker"
	"github.com/okian/sketchmatch/internal/adapters/prompts"
	"github.com/okian/sketchmatch/internal/adapters/repository"
	"github.com/okian/sketchmatch/internal/domain/dedupe"
	"github.com/okian/sketchmatch/internal/domain/model"
	"github.com/okian/sketchmatch/internal/domain/scoring"
	"github.com/okian/sketchmatch/internal/domain/sketch"
	"github.com/okian/sketchmatch/internal/domain/types"
	"github.com/okian/sketchmatch/pkg/logger"
	"github.com/okian/sketchmatch/pkg/metrics"
)

const stopTimeout = 30 * time.Second

// ErrNotRunning is returned when attempts are submitted to a stopped
// service. It satisfies errors.Is(err, queue.ErrClosed).
var ErrNotRunning = fmt.Errorf("%w: service not running", queue.ErrClosed)

// Service implements the API dependencies for the scoring system.
type Service struct {
	mu sync.RWMutex

	// Core components
	engine      *scoring.Engine
	library     *prompts.Library
	results     *repository.ResultCache
	deduper     dedupe.Deduper
	leaderboard repository.Store
	attempts    *queue.InMemoryQueue
	workerPool  *worker.Pool

	// Configuration
	workerCount       int
	queueSize         int
	dedupeSize        int
	resultCacheSize   int
	preparedCacheSize int
	scoringOpts       []scoring.Option
	store             repository.Store

	// State
	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of worker goroutines.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of attempts waiting to be scored.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the deduplication cache. Zero or less
// keeps every attempt id.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		s.dedupeSize = size
	}
}

// WithResultCacheSize sets how many attempt results stay queryable.
func WithResultCacheSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.resultCacheSize = size
		}
	}
}

// WithPreparedCacheSize sets how many prepared prompt references are cached.
func WithPreparedCacheSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.preparedCacheSize = size
		}
	}
}

// WithScoringOptions configures the similarity engine.
func WithScoringOptions(opts ...scoring.Option) Option {
	return func(s *Service) {
		s.scoringOpts = append(s.scoringOpts, opts...)
	}
}

// WithStore sets the leaderboard store. The service closes it on Stop.
// Without one an in-memory treap store is used.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service. The engine, prompt library and result cache
// are usable right away; attempts are accepted once Start has run.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     runtime.NumCPU(),
		queueSize:       10_000,
		dedupeSize:      100_000,
		resultCacheSize: 50_000,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.engine = scoring.NewEngine(s.scoringOpts...)
	s.library = prompts.NewLibrary(s.engine, prompts.WithPreparedCacheSize(s.preparedCacheSize))
	s.results = repository.NewResultCache(s.resultCacheSize)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting scoring service...")

	s.leaderboard = s.store
	if s.leaderboard == nil {
		s.leaderboard = repository.NewTreapStore()
		s.logger.Info(ctx, "using treap store")
	}
	s.attempts = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))

	// workers outlive the request that started them
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.workerPool = worker.NewPool(s.workerCount, s.attempts, worker.Deps{
		Scorer:      s.engine,
		Prompts:     s.library,
		Leaderboard: s.leaderboard,
		Results:     s.results,
	})
	s.workerPool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "scoring service started",
		logger.Int("workers", s.workerPool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
		logger.Int("prompts", s.library.Count()),
	)
	return nil
}

// Stop drains queued attempts, then shuts the workers and the store down.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping scoring service...")

	stopCtx, cancel := context.WithTimeout(ctx, stopTimeout)
	defer cancel()
	if err := s.workerPool.Shutdown(stopCtx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	s.cancel()

	if err := s.leaderboard.Close(); err != nil {
		s.logger.Error(ctx, "error closing leaderboard store", logger.Error(err))
	}

	s.started = false
	s.logger.Info(ctx, "scoring service stopped")
}

// Similarity scores candidate against reference synchronously.
func (s *Service) Similarity(ctx context.Context, reference, candidate sketch.Drawing) (scoring.Breakdown, error) {
	if err := ctx.Err(); err != nil {
		return scoring.Breakdown{}, err
	}
	return s.engine.Similarity(reference, candidate)
}

// Engine returns the similarity engine.
func (s *Service) Engine() *scoring.Engine {
	return s.engine
}

// AddPrompt adds a reference drawing to the library.
func (s *Service) AddPrompt(ctx context.Context, p prompts.Prompt) (string, error) {
	return s.library.Add(ctx, p)
}

// LoadPrompts adds prompts in order. Prompts whose id already exists are
// skipped; any other failure stops the load.
func (s *Service) LoadPrompts(ctx context.Context, ps []prompts.Prompt) (int, error) {
	added := 0
	for _, p := range ps {
		if _, err := s.library.Add(ctx, p); err != nil {
			if errors.Is(err, prompts.ErrDuplicatePrompt) {
				continue
			}
			return added, err
		}
		added++
	}
	return added, nil
}

// GetPrompt returns a prompt with its drawing.
func (s *Service) GetPrompt(ctx context.Context, id string) (prompts.Prompt, error) {
	return s.library.Get(ctx, id)
}

// ListPrompts returns every prompt without drawings.
func (s *Service) ListPrompts(ctx context.Context) []prompts.Prompt {
	return s.library.List(ctx)
}

// SeenAndRecord atomically checks if an attempt id was seen and records it
// if not.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	return s.deduper.SeenAndRecord(ctx, id)
}

// Unrecord removes an attempt id from the seen list, allowing it to be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	return s.deduper.Size()
}

// Enqueue submits an attempt for asynchronous scoring. The attempt is
// queryable as pending once accepted.
func (s *Service) Enqueue(ctx context.Context, a model.Attempt) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotRunning
	}

	// pending goes in first so a fast worker's result is never overwritten
	s.results.Put(ctx, model.PendingResult(&a))
	if err := s.attempts.Enqueue(ctx, a); err != nil {
		s.results.Remove(ctx, a.AttemptID)
		return fmt.Errorf("enqueue attempt %s: %w", a.AttemptID, err)
	}
	metrics.RecordAttemptReceived()
	s.logger.Debug(ctx, "attempt enqueued",
		logger.String("attempt_id", a.AttemptID),
		logger.String("player_id", a.PlayerID),
		logger.String("prompt_id", a.PromptID),
		logger.Int("strokes", len(a.Drawing)),
	)
	return nil
}

// AttemptResult returns the latest known state of an attempt.
func (s *Service) AttemptResult(ctx context.Context, attemptID string) (model.AttemptResult, error) {
	return s.results.Get(ctx, attemptID)
}

// TopN returns the best n entries of a prompt's leaderboard.
func (s *Service) TopN(ctx context.Context, promptID string, n int) ([]types.Entry, error) {
	if _, err := s.library.Get(ctx, promptID); err != nil {
		return nil, err
	}
	store, err := s.board()
	if err != nil {
		return nil, err
	}
	return store.TopN(ctx, promptID, n)
}

// Rank returns a player's best score and rank on a prompt.
func (s *Service) Rank(ctx context.Context, promptID, playerID string) (types.Entry, error) {
	store, err := s.board()
	if err != nil {
		return types.Entry{}, err
	}
	return store.Rank(ctx, promptID, playerID)
}

func (s *Service) board() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotRunning
	}
	return s.leaderboard, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]any{
		"started":        s.started,
		"worker_count":   s.workerCount,
		"queue_capacity": s.queueSize,
		"dedupe_size":    s.deduper.Size(),
		"prompts":        s.library.Count(),
		"cached_results": s.results.Len(),
	}

	if s.started {
		queueLen := s.attempts.Len(ctx)
		players := s.leaderboard.Count(ctx)

		stats["queue_length"] = queueLen
		stats["leaderboard_entries"] = players
		stats["processed_since_tick"] = s.workerPool.Processed()

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdatePlayersTotal(players)
	}
	return stats
}
