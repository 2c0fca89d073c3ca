package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/sketchmatch/internal/adapters/prompts"
	"github.com/okian/sketchmatch/internal/domain/dedupe"
	"github.com/okian/sketchmatch/internal/domain/model"
	"github.com/okian/sketchmatch/internal/domain/sketch"
	"github.com/okian/sketchmatch/pkg/metrics"
)

// AttemptDependencies defines what attempt submission needs.
type AttemptDependencies interface {
	dedupe.Deduper

	// GetPrompt resolves the prompt an attempt is drawn against.
	GetPrompt(ctx context.Context, id string) (prompts.Prompt, error)

	// Enqueue pushes an attempt for async scoring.
	Enqueue(ctx context.Context, a model.Attempt) error

	// AttemptResult returns the latest known state of an attempt.
	AttemptResult(ctx context.Context, attemptID string) (model.AttemptResult, error)
}

// attemptRequest mirrors the OpenAPI schema for POST /attempts.
type attemptRequest struct {
	AttemptID string         `json:"attempt_id"`
	PlayerID  string         `json:"player_id"`
	PromptID  string         `json:"prompt_id"`
	Drawing   sketch.Drawing `json:"drawing"`
	TS        string         `json:"ts"`
}

func (a attemptRequest) toAttempt() (model.Attempt, error) {
	out := model.Attempt{
		AttemptID: strings.TrimSpace(a.AttemptID),
		PlayerID:  strings.TrimSpace(a.PlayerID),
		PromptID:  strings.TrimSpace(a.PromptID),
		Drawing:   a.Drawing,
		TS:        time.Now().UTC(),
	}
	if out.AttemptID == "" {
		out.AttemptID = uuid.NewString()
	}
	if a.TS != "" {
		ts, err := time.Parse(time.RFC3339, a.TS)
		if err != nil {
			return model.Attempt{}, ErrInvalidTimestamp
		}
		out.TS = ts
	}
	if err := out.Validate(); err != nil {
		return model.Attempt{}, err
	}
	return out, nil
}

type ackResponse struct {
	Status    string `json:"status"`
	AttemptID string `json:"attempt_id"`
	Duplicate bool   `json:"duplicate"`
}

// AttemptsHandler handles attempt requests.
type AttemptsHandler struct {
	deps    AttemptDependencies
	maxBody int64
}

// NewAttemptsHandler creates a new attempts handler.
func NewAttemptsHandler(deps AttemptDependencies, maxBody int64) *AttemptsHandler {
	return &AttemptsHandler{deps: deps, maxBody: maxBody}
}

// HandlePostAttempt handles POST /attempts requests.
func (h *AttemptsHandler) HandlePostAttempt(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_attempt"
	var req attemptRequest
	if err := decodeBody(w, r, h.maxBody, attemptSchemaURL, &req); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	a, err := req.toAttempt()
	if err != nil {
		if !errors.Is(err, sketch.ErrInvalidInput) {
			err = WrapKind(op, ErrBadRequest, err)
		}
		writeFailure(w, err)
		return
	}
	if _, err := h.deps.GetPrompt(r.Context(), a.PromptID); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}

	// Idempotency check - mark as seen first
	if h.deps.SeenAndRecord(r.Context(), a.AttemptID) {
		metrics.RecordAttemptDuplicate()
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", AttemptID: a.AttemptID, Duplicate: true})
		return
	}

	if err := h.deps.Enqueue(r.Context(), a); err != nil {
		// Rollback the "seen" status since enqueue failed
		h.deps.Unrecord(r.Context(), a.AttemptID)
		writeFailure(w, Wrap(op, err))
		return
	}
	w.Header().Set("Location", "/attempts/"+a.AttemptID)
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", AttemptID: a.AttemptID})
}

// HandleGetAttempt handles GET /attempts/{id} requests.
func (h *AttemptsHandler) HandleGetAttempt(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_attempt"
	res, err := h.deps.AttemptResult(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}
