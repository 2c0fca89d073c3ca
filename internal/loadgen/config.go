// Package loadgen drives a running sketchmatch service with synthetic
// attempts and checks the leaderboards it produces.
package loadgen

import (
	"time"

	"github.com/okian/sketchmatch/internal/domain/sketch"
	"github.com/okian/sketchmatch/internal/domain/types"
)

// Config holds configuration for a load run.
type Config struct {
	BaseURL  string        // Base URL of the service
	Attempts int           // Number of attempts to submit
	Players  int           // Number of distinct players
	Workers  int           // Number of concurrent submitters
	TopN     int           // Leaderboard entries fetched per prompt
	Timeout  time.Duration // HTTP request timeout
	Wait     time.Duration // How long to wait for scoring to finish
	Jitter   float64       // Point noise as a fraction of the drawing size
	Seed     uint64        // Generator seed; zero picks one from the clock
	Output   string        // Optional file receiving the generated attempts
	Verbose  bool          // Log every failure
}

// AttemptRequest is the POST /attempts body.
type AttemptRequest struct {
	AttemptID string         `json:"attempt_id"`
	PlayerID  string         `json:"player_id"`
	PromptID  string         `json:"prompt_id"`
	Drawing   sketch.Drawing `json:"drawing"`
	TS        string         `json:"ts"`
}

// AckResponse is the response to an attempt submission.
type AckResponse struct {
	Status    string `json:"status"`
	AttemptID string `json:"attempt_id"`
	Duplicate bool   `json:"duplicate"`
}

// AttemptStatus is the subset of GET /attempts/{id} the runner reads.
type AttemptStatus struct {
	AttemptID string `json:"attempt_id"`
	Status    string `json:"status"`
	Error     string `json:"error"`
}

// Stats holds run statistics.
type Stats struct {
	Prompts        int
	AttemptsSent   int
	Accepted       int
	Duplicates     int
	Rejected       int
	Failed         int
	Scored         int
	ScoringFailed  int
	Boards         int
	BoardEntries   int
	RankChecks     int
	RankMismatches int
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	TopByPrompt    map[string]types.Entry
	Inconsistent   []string
}
