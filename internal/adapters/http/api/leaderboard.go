package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/okian/sketchmatch/internal/domain/types"
)

// LeaderboardDependencies reads per-prompt leaderboards.
type LeaderboardDependencies interface {
	TopN(ctx context.Context, promptID string, n int) ([]Entry, error)
	Rank(ctx context.Context, promptID, playerID string) (Entry, error)
}

// LeaderboardHandler serves leaderboard pages and single-player ranks.
type LeaderboardHandler struct {
	deps     LeaderboardDependencies
	maxLimit int
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies, maxLimit int) *LeaderboardHandler {
	if maxLimit < 1 {
		maxLimit = defaultMaxLeaderboardLimit
	}
	return &LeaderboardHandler{
		deps:     deps,
		maxLimit: maxLimit,
	}
}

// HandleGetLeaderboard handles GET /leaderboard/{prompt_id}?limit=N requests.
// A missing limit means the first ten entries.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	n := min(defaultLeaderboardLimit, h.maxLimit)
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		var err error
		n, err = strconv.Atoi(limitStr)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
			return
		}
	}
	if n > h.maxLimit {
		writeError(w, http.StatusBadRequest, "limit_exceeded", NewKind(op, ErrBadRequest))
		return
	}
	promptID := r.PathValue("prompt_id")
	entries, err := h.deps.TopN(r.Context(), promptID, n)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, types.Board{PromptID: promptID, Entries: entries})
}

// HandleGetRank handles GET /rank/{prompt_id}/{player_id}.
func (h *LeaderboardHandler) HandleGetRank(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_rank"
	entry, err := h.deps.Rank(r.Context(), r.PathValue("prompt_id"), r.PathValue("player_id"))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
