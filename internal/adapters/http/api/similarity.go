package api

import (
	"context"
	"net/http"

	"github.com/okian/sketchmatch/internal/domain/scoring"
	"github.com/okian/sketchmatch/internal/domain/sketch"
)

// SimilarityDependencies scores two drawings synchronously.
type SimilarityDependencies interface {
	Similarity(ctx context.Context, reference, candidate sketch.Drawing) (scoring.Breakdown, error)
}

type similarityRequest struct {
	Reference sketch.Drawing `json:"reference"`
	Candidate sketch.Drawing `json:"candidate"`
}

// SimilarityHandler handles similarity requests.
type SimilarityHandler struct {
	deps    SimilarityDependencies
	maxBody int64
}

// NewSimilarityHandler creates a new similarity handler.
func NewSimilarityHandler(deps SimilarityDependencies, maxBody int64) *SimilarityHandler {
	return &SimilarityHandler{deps: deps, maxBody: maxBody}
}

// HandleSimilarity handles POST /similarity requests.
func (h *SimilarityHandler) HandleSimilarity(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_similarity"
	var req similarityRequest
	if err := decodeBody(w, r, h.maxBody, similaritySchemaURL, &req); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	bd, err := h.deps.Similarity(r.Context(), req.Reference, req.Candidate)
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, bd)
}
