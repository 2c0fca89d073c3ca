package api

import (
	"context"
	"net/http"

	"github.com/okian/sketchmatch/internal/adapters/prompts"
	"github.com/okian/sketchmatch/internal/domain/sketch"
)

// PromptDependencies manages the prompt catalogue.
type PromptDependencies interface {
	AddPrompt(ctx context.Context, p prompts.Prompt) (string, error)
	GetPrompt(ctx context.Context, id string) (prompts.Prompt, error)
	ListPrompts(ctx context.Context) []prompts.Prompt
}

type promptRequest struct {
	ID      string         `json:"id"`
	Word    string         `json:"word"`
	Drawing sketch.Drawing `json:"drawing"`
}

type promptCreated struct {
	ID string `json:"id"`
}

type promptSummary struct {
	ID   string `json:"id"`
	Word string `json:"word"`
}

// PromptsHandler handles prompt requests.
type PromptsHandler struct {
	deps    PromptDependencies
	maxBody int64
}

// NewPromptsHandler creates a new prompts handler.
func NewPromptsHandler(deps PromptDependencies, maxBody int64) *PromptsHandler {
	return &PromptsHandler{deps: deps, maxBody: maxBody}
}

// HandleCreatePrompt handles POST /prompts requests.
func (h *PromptsHandler) HandleCreatePrompt(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_prompt"
	var req promptRequest
	if err := decodeBody(w, r, h.maxBody, promptSchemaURL, &req); err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	id, err := h.deps.AddPrompt(r.Context(), prompts.Prompt{ID: req.ID, Word: req.Word, Drawing: req.Drawing})
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	w.Header().Set("Location", "/prompts/"+id)
	writeJSON(w, http.StatusCreated, promptCreated{ID: id})
}

// HandleListPrompts handles GET /prompts requests.
func (h *PromptsHandler) HandleListPrompts(w http.ResponseWriter, r *http.Request) {
	list := h.deps.ListPrompts(r.Context())
	out := make([]promptSummary, len(list))
	for i, p := range list {
		out[i] = promptSummary{ID: p.ID, Word: p.Word}
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGetPrompt handles GET /prompts/{id} requests.
func (h *PromptsHandler) HandleGetPrompt(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_prompt"
	p, err := h.deps.GetPrompt(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, Wrap(op, err))
		return
	}
	writeJSON(w, http.StatusOK, p)
}
