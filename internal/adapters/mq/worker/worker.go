// Package worker scores queued attempts and publishes the results.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/sketchmatch/internal/adapters/mq/queue"
	"github.com/okian/sketchmatch/internal/domain/model"
	"github.com/okian/sketchmatch/internal/domain/scoring"
	"github.com/okian/sketchmatch/pkg/logger"
	"github.com/okian/sketchmatch/pkg/metrics"
)

const (
	metricsUpdateInterval = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
)

// Attempt is what workers read off the queue.
type Attempt = queue.Attempt

// Queue defines how workers receive attempts.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Attempt
}

// Prompts resolves the prepared reference drawing of a prompt.
type Prompts interface {
	Prepared(ctx context.Context, promptID string) (scoring.Prepared, error)
}

// Leaderboard records a player's best score per prompt.
type Leaderboard interface {
	UpdateBest(ctx context.Context, promptID, playerID string, score float64, attemptID string) (bool, error)
}

// Results stores attempt outcomes for lookup.
type Results interface {
	Put(ctx context.Context, r model.AttemptResult)
}

// Deps groups what a worker needs besides its queue.
type Deps struct {
	Scorer      scoring.Scorer
	Prompts     Prompts
	Leaderboard Leaderboard
	Results     Results
}

// Worker processes attempts until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled or the queue closes.
	Run(ctx context.Context)

	// Shutdown stops the worker after the attempt in flight.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue       Queue
	deps        Deps
	name        string
	onProcessed func()

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, deps Deps, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		deps:     deps,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	attempts := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case a, ok := <-attempts:
			if !ok {
				return
			}
			if err := w.process(ctx, a); err != nil {
				w.logger.Error(ctx, "error processing attempt", logger.String("attempt_id", a.AttemptID), logger.Error(err))
			}
			if w.onProcessed != nil {
				w.onProcessed()
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

func (w *InMemoryWorker) process(ctx context.Context, a Attempt) error { //nolint:gocritic // value semantics on the channel
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	ref, err := w.deps.Prompts.Prepared(ctx, a.PromptID)
	if err != nil {
		w.fail(ctx, &a, "prompt_lookup", err)
		return fmt.Errorf("prompt %s: %w", a.PromptID, err)
	}

	scoreStart := time.Now()
	res, err := w.deps.Scorer.Score(ctx, scoring.Input{
		AttemptID: a.AttemptID,
		PlayerID:  a.PlayerID,
		PromptID:  a.PromptID,
		Reference: ref,
		Candidate: a.Drawing,
	})
	metrics.RecordScoringLatency(float64(time.Since(scoreStart).Milliseconds()))
	if err != nil {
		metrics.RecordScoringError()
		w.fail(ctx, &a, "scoring_error", err)
		return fmt.Errorf("score attempt %s: %w", a.AttemptID, err)
	}

	bd := res.Breakdown
	recordBreakdown(&bd)
	w.logger.Debug(ctx, "attempt scored",
		logger.String("attempt_id", a.AttemptID),
		logger.String("prompt_id", a.PromptID),
		logger.Float64("similarity", bd.Similarity),
		logger.Any("breakdown", bd),
	)

	updated, err := w.deps.Leaderboard.UpdateBest(ctx, a.PromptID, a.PlayerID, bd.Similarity, a.AttemptID)
	if err != nil {
		metrics.RecordLeaderboardError()
		w.fail(ctx, &a, "leaderboard_error", err)
		return fmt.Errorf("leaderboard update for attempt %s: %w", a.AttemptID, err)
	}
	if updated {
		metrics.RecordLeaderboardUpdate()
	}

	w.deps.Results.Put(ctx, model.AttemptResult{
		AttemptID:    a.AttemptID,
		PlayerID:     a.PlayerID,
		PromptID:     a.PromptID,
		Status:       model.StatusScored,
		Breakdown:    &bd,
		PersonalBest: updated,
		ScoredAt:     time.Now(),
	})
	return nil
}

func (w *InMemoryWorker) fail(ctx context.Context, a *Attempt, kind string, err error) {
	metrics.RecordWorkerError()
	metrics.RecordErrorByComponent("worker", kind)
	w.deps.Results.Put(ctx, model.AttemptResult{
		AttemptID: a.AttemptID,
		PlayerID:  a.PlayerID,
		PromptID:  a.PromptID,
		Status:    model.StatusFailed,
		Error:     err.Error(),
		ScoredAt:  time.Now(),
	})
}

func recordBreakdown(bd *scoring.Breakdown) {
	metrics.RecordAttemptScored(bd.Similarity)
	_ = metrics.RecordScoreComponent(metrics.ComponentStrokeCount, bd.StrokeCount)
	_ = metrics.RecordScoreComponent(metrics.ComponentStrokeMatch, bd.StrokeMatch)
	_ = metrics.RecordScoreComponent(metrics.ComponentHull, bd.Hull)
	_ = metrics.RecordScoreComponent(metrics.ComponentScaledHull, bd.ScaledHull)
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	shutdown     chan struct{}
	shutdownOnce sync.Once

	processed atomic.Int64
	lastTick  time.Time

	logger logger.Logger
}

// NewPool creates a pool of workerCount workers; < 1 means one per CPU.
func NewPool(workerCount int, q Queue, deps Deps) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	p := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    q,
		shutdown: make(chan struct{}),
		lastTick: time.Now(),
		logger:   logger.Get().Named("worker-pool"),
	}
	for i := range p.workers {
		p.workers[i] = NewInMemoryWorker(q, deps,
			WithName("worker-"+strconv.Itoa(i)),
			WithOnProcessed(func() { p.processed.Add(1) }),
		)
	}

	metrics.UpdateWorkerActiveCount(workerCount)
	metrics.UpdateWorkerMessagesPerSecond(0)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Processed returns how many attempts were handled since the last rate tick.
func (p *Pool) Processed() int64 {
	return p.processed.Load()
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	go p.metricsLoop(ctx)
}

func (p *Pool) metricsLoop(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case now := <-ticker.C:
			if secs := now.Sub(p.lastTick).Seconds(); secs > 0 {
				metrics.UpdateWorkerMessagesPerSecond(float64(p.processed.Swap(0)) / secs)
			}
			p.lastTick = now
		}
	}
}

// Shutdown closes the queue when it supports it, then waits for the workers
// to drain it.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	p.shutdownOnce.Do(func() { close(p.shutdown) })

	waitCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-waitCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	metrics.UpdateWorkerActiveCount(0)
	if timedOut {
		return fmt.Errorf("pool shutdown: %w", waitCtx.Err())
	}
	return nil
}
