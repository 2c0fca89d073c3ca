// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/okian/sketchmatch/internal/domain/sketch"
)

// ErrMissingField is returned by Validate when an identifier is empty.
var ErrMissingField = errors.New("missing field")

// Attempt is one player's drawing submitted against a prompt.
type Attempt struct {
	AttemptID string         // unique id for idempotency
	PlayerID  string         // who drew it
	PromptID  string         // reference drawing it is scored against
	Drawing   sketch.Drawing // candidate strokes in capture units
	TS        time.Time      // submission time
}

// Validate checks identifiers and the drawing.
func (a *Attempt) Validate() error {
	switch {
	case a.AttemptID == "":
		return fmt.Errorf("%w: attempt_id", ErrMissingField)
	case a.PlayerID == "":
		return fmt.Errorf("%w: player_id", ErrMissingField)
	case a.PromptID == "":
		return fmt.Errorf("%w: prompt_id", ErrMissingField)
	}
	return a.Drawing.Validate()
}
