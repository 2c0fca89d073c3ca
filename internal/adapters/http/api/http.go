// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/sketchmatch/internal/adapters/mq/queue"
	"github.com/okian/sketchmatch/internal/adapters/prompts"
	"github.com/okian/sketchmatch/internal/adapters/repository"
	"github.com/okian/sketchmatch/internal/domain/sketch"
	"github.com/okian/sketchmatch/internal/domain/types"
)

const (
	defaultMaxLeaderboardLimit = 100
	defaultLeaderboardLimit    = 10
	defaultMaxBodyBytes        = 8 << 20
)

// Dependencies is everything the HTTP handlers call into.
type Dependencies interface {
	SimilarityDependencies
	PromptDependencies
	AttemptDependencies
	LeaderboardDependencies
}

// Entry mirrors the read shape returned by leaderboard queries.
type Entry = types.Entry

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	similarityHandler  *SimilarityHandler
	promptsHandler     *PromptsHandler
	attemptsHandler    *AttemptsHandler
	leaderboardHandler *LeaderboardHandler
}

// Option configures a Server.
type Option func(*serverConfig)

type serverConfig struct {
	maxLimit     int
	maxBodyBytes int64
}

// WithMaxLeaderboardLimit caps the limit accepted by GET /leaderboard.
func WithMaxLeaderboardLimit(n int) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxLimit = n
		}
	}
}

// WithMaxBodyBytes caps request body sizes.
func WithMaxBodyBytes(n int64) Option {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxBodyBytes = n
		}
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, opts ...Option) *Server {
	cfg := serverConfig{maxLimit: defaultMaxLeaderboardLimit, maxBodyBytes: defaultMaxBodyBytes}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		similarityHandler:  NewSimilarityHandler(deps, cfg.maxBodyBytes),
		promptsHandler:     NewPromptsHandler(deps, cfg.maxBodyBytes),
		attemptsHandler:    NewAttemptsHandler(deps, cfg.maxBodyBytes),
		leaderboardHandler: NewLeaderboardHandler(deps, cfg.maxLimit),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", instrument("healthz", s.healthHandler.HandleHealth))
	mux.HandleFunc("GET /metrics", instrument("metrics", s.healthHandler.HandleHealth))
	mux.HandleFunc("GET /stats", instrument("stats", s.statsHandler.HandleStats))
	mux.HandleFunc("POST /similarity", instrument("similarity", s.similarityHandler.HandleSimilarity))
	mux.HandleFunc("POST /prompts", instrument("prompts", s.promptsHandler.HandleCreatePrompt))
	mux.HandleFunc("GET /prompts", instrument("prompts", s.promptsHandler.HandleListPrompts))
	mux.HandleFunc("GET /prompts/{id}", instrument("prompt", s.promptsHandler.HandleGetPrompt))
	mux.HandleFunc("POST /attempts", instrument("attempts", s.attemptsHandler.HandlePostAttempt))
	mux.HandleFunc("GET /attempts/{id}", instrument("attempt", s.attemptsHandler.HandleGetAttempt))
	mux.HandleFunc("GET /leaderboard/{prompt_id}", instrument("leaderboard", s.leaderboardHandler.HandleGetLeaderboard))
	mux.HandleFunc("GET /rank/{prompt_id}/{player_id}", instrument("rank", s.leaderboardHandler.HandleGetRank))
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps err onto a status and error code.
func writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sketch.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_drawing", err)
	case errors.Is(err, ErrBadRequest), errors.Is(err, repository.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, "bad_request", err)
	case errors.Is(err, ErrNotFound),
		errors.Is(err, prompts.ErrPromptNotFound),
		errors.Is(err, repository.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, prompts.ErrDuplicatePrompt):
		writeError(w, http.StatusConflict, "conflict", err)
	case errors.Is(err, ErrBackpressure), errors.Is(err, queue.ErrFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", err)
	case errors.Is(err, ErrUnavailable), errors.Is(err, queue.ErrClosed):
		writeError(w, http.StatusServiceUnavailable, "unavailable", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err)
	}
}
