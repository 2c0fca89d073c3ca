package loadgen

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/sketchmatch/internal/adapters/prompts"
	"github.com/okian/sketchmatch/internal/domain/types"
	"github.com/okian/sketchmatch/pkg/logger"
)

const (
	pollInterval        = 100 * time.Millisecond
	directoryPermission = 0o750
	percent             = 100
)

// ErrNoPrompts is returned when the service has no prompts to draw.
var ErrNoPrompts = errors.New("service has no prompts")

type promptSummary struct {
	ID   string `json:"id"`
	Word string `json:"word"`
}

// Run executes a complete load run against cfg.BaseURL.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	log := logger.Get().Named("loadgen")
	stats := &Stats{StartTime: time.Now(), TopByPrompt: map[string]types.Entry{}}
	c := newClient(cfg.BaseURL, cfg.Timeout)

	log.Info(ctx, "starting sketchmatch load run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("attempts", cfg.Attempts),
		logger.Int("players", cfg.Players),
		logger.Int("workers", cfg.Workers),
		logger.Float64("jitter", cfg.Jitter))

	if err := c.getJSON(ctx, "/healthz", nil); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	ps, err := fetchPrompts(ctx, c)
	if err != nil {
		return stats, err
	}
	stats.Prompts = len(ps)

	seed := cfg.Seed
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	attempts := NewGenerator(seed, cfg.Players, cfg.Jitter).Attempts(ps, cfg.Attempts)
	log.Info(ctx, "generated attempts", logger.Int("count", len(attempts)), logger.Int("prompts", len(ps)))

	accepted := submit(ctx, c, cfg, attempts, stats)
	awaitScoring(ctx, c, cfg, accepted, stats)

	if err := checkBoards(ctx, c, cfg, ps, stats); err != nil {
		return stats, err
	}

	if cfg.Output != "" {
		if err := saveAttempts(cfg.Output, attempts); err != nil {
			log.Warn(ctx, "failed to save attempts to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	logFinalStats(ctx, log, stats)

	if len(stats.Inconsistent) > 0 || stats.RankMismatches > 0 {
		return stats, fmt.Errorf("%w: %d boards, %d rank mismatches",
			ErrInconsistentBoard, len(stats.Inconsistent), stats.RankMismatches)
	}
	return stats, nil
}

func fetchPrompts(ctx context.Context, c *client) ([]prompts.Prompt, error) {
	var list []promptSummary
	if err := c.getJSON(ctx, "/prompts", &list); err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	if len(list) == 0 {
		return nil, ErrNoPrompts
	}
	out := make([]prompts.Prompt, 0, len(list))
	for _, s := range list {
		var p prompts.Prompt
		if err := c.getJSON(ctx, "/prompts/"+url.PathEscape(s.ID), &p); err != nil {
			return nil, fmt.Errorf("fetch prompt %s: %w", s.ID, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// submit posts attempts with cfg.Workers concurrent senders and returns the
// ids that were accepted.
func submit(ctx context.Context, c *client, cfg *Config, attempts []AttemptRequest, stats *Stats) []string {
	log := logger.Get().Named("loadgen")
	workers := max(1, min(cfg.Workers, len(attempts)))

	var (
		accepted, duplicates, rejected, failed atomic.Int64
		mu                                     sync.Mutex
		ids                                    = make([]string, 0, len(attempts))
		wg                                     sync.WaitGroup
	)
	next := make(chan int)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range next {
				a := &attempts[i]
				var ack AckResponse
				code, err := c.postJSON(ctx, "/attempts", a, &ack)
				switch {
				case code == http.StatusAccepted:
					accepted.Add(1)
					mu.Lock()
					ids = append(ids, a.AttemptID)
					mu.Unlock()
				case code == http.StatusOK:
					duplicates.Add(1)
				case code == http.StatusTooManyRequests:
					rejected.Add(1)
				default:
					failed.Add(1)
					if cfg.Verbose {
						log.Warn(ctx, "attempt submission failed", logger.String("attempt_id", a.AttemptID), logger.Error(err))
					}
				}
			}
		}()
	}

	for i := range attempts {
		select {
		case <-ctx.Done():
		case next <- i:
			continue
		}
		break
	}
	close(next)
	wg.Wait()

	stats.AttemptsSent = len(attempts)
	stats.Accepted = int(accepted.Load())
	stats.Duplicates = int(duplicates.Load())
	stats.Rejected = int(rejected.Load())
	stats.Failed = int(failed.Load())
	return ids
}

// awaitScoring polls accepted attempts until none is pending or cfg.Wait
// elapses.
func awaitScoring(ctx context.Context, c *client, cfg *Config, ids []string, stats *Stats) {
	deadline := time.Now().Add(cfg.Wait)
	pending := ids
	for len(pending) > 0 {
		still := pending[:0]
		for _, id := range pending {
			var st AttemptStatus
			if err := c.getJSON(ctx, "/attempts/"+url.PathEscape(id), &st); err != nil {
				still = append(still, id)
				continue
			}
			switch st.Status {
			case "scored":
				stats.Scored++
			case "failed":
				stats.ScoringFailed++
			default:
				still = append(still, id)
			}
		}
		pending = still
		if len(pending) == 0 || time.Now().After(deadline) {
			break
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(pollInterval):
		}
	}
}

// checkBoards fetches every prompt's leaderboard, verifies its ordering and
// cross-checks each entry against the rank endpoint.
func checkBoards(ctx context.Context, c *client, cfg *Config, ps []prompts.Prompt, stats *Stats) error {
	log := logger.Get().Named("loadgen")
	for _, p := range ps {
		var b types.Board
		path := "/leaderboard/" + url.PathEscape(p.ID) + "?limit=" + strconv.Itoa(cfg.TopN)
		if err := c.getJSON(ctx, path, &b); err != nil {
			return fmt.Errorf("leaderboard %s: %w", p.ID, err)
		}
		if len(b.Entries) == 0 {
			continue
		}
		stats.Boards++
		stats.BoardEntries += len(b.Entries)
		stats.TopByPrompt[p.ID] = b.Entries[0]

		if err := VerifyBoard(b); err != nil {
			stats.Inconsistent = append(stats.Inconsistent, p.ID)
			log.Warn(ctx, "leaderboard consistency warning", logger.Error(err))
		}
		for _, e := range b.Entries {
			var r types.Entry
			path := "/rank/" + url.PathEscape(p.ID) + "/" + url.PathEscape(e.PlayerID)
			if err := c.getJSON(ctx, path, &r); err != nil {
				return fmt.Errorf("rank %s/%s: %w", p.ID, e.PlayerID, err)
			}
			stats.RankChecks++
			// later attempts may have raised the score since the board was read
			if r.Score < e.Score || (r.Score == e.Score && r.Rank != e.Rank) {
				stats.RankMismatches++
				if cfg.Verbose {
					log.Warn(ctx, "rank mismatch",
						logger.String("prompt_id", p.ID),
						logger.Any("board", e),
						logger.Any("rank", r))
				}
			}
		}
	}
	return nil
}

func saveAttempts(path string, attempts []AttemptRequest) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(attempts, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal attempts: %w", err)
	}
	return os.WriteFile(filepath.Clean(path), data, 0o600)
}

func logFinalStats(ctx context.Context, log logger.Logger, stats *Stats) {
	var acceptRate, perSecond float64
	if stats.AttemptsSent > 0 {
		acceptRate = float64(stats.Accepted) / float64(stats.AttemptsSent) * percent
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.AttemptsSent) / stats.Duration.Seconds()
	}
	log.Info(ctx, "final statistics",
		logger.Int("prompts", stats.Prompts),
		logger.Int("attemptsSent", stats.AttemptsSent),
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicates", stats.Duplicates),
		logger.Int("rejected", stats.Rejected),
		logger.Int("failed", stats.Failed),
		logger.Int("scored", stats.Scored),
		logger.Int("scoringFailed", stats.ScoringFailed),
		logger.Int("boards", stats.Boards),
		logger.Int("boardEntries", stats.BoardEntries),
		logger.Int("rankChecks", stats.RankChecks),
		logger.Int("rankMismatches", stats.RankMismatches),
		logger.Duration("duration", stats.Duration),
		logger.Float64("acceptRate", acceptRate),
		logger.Float64("attemptsPerSecond", perSecond))
}
