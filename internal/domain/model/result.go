package model

import (
	"time"

	"github.com/okian/sketchmatch/internal/domain/scoring"
)

// Status is the lifecycle state of an attempt.
type Status string

// Attempt states.
const (
	StatusPending Status = "pending"
	StatusScored  Status = "scored"
	StatusFailed  Status = "failed"
)

// AttemptResult is what clients see when they look an attempt up.
type AttemptResult struct {
	AttemptID    string             `json:"attempt_id"`
	PlayerID     string             `json:"player_id"`
	PromptID     string             `json:"prompt_id"`
	Status       Status             `json:"status"`
	Breakdown    *scoring.Breakdown `json:"breakdown,omitempty"`
	Error        string             `json:"error,omitempty"`
	PersonalBest bool               `json:"personal_best,omitempty"`
	ScoredAt     time.Time          `json:"scored_at,omitzero"`
}

// PendingResult is the placeholder stored when an attempt is accepted.
func PendingResult(a *Attempt) AttemptResult {
	return AttemptResult{
		AttemptID: a.AttemptID,
		PlayerID:  a.PlayerID,
		PromptID:  a.PromptID,
		Status:    StatusPending,
	}
}
