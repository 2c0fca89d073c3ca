// Package prompts holds the reference drawings players are asked to copy.
package prompts

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/okian/sketchmatch/internal/domain/scoring"
	"github.com/okian/sketchmatch/internal/domain/sketch"
	"github.com/okian/sketchmatch/pkg/metrics"
)

const defaultPreparedCacheSize = 1024

// Prompt is a named reference drawing.
type Prompt struct {
	ID      string         `json:"id"`
	Word    string         `json:"word"`
	Drawing sketch.Drawing `json:"drawing"`
}

// Preparer turns a raw drawing into a scoring reference.
type Preparer interface {
	Prepare(d sketch.Drawing) (scoring.Prepared, error)
}

// Library is a concurrency-safe prompt catalogue. Prompts keep the order
// they were added in.
type Library struct {
	mu     sync.RWMutex
	byID   map[string]*Prompt
	order  []string
	engine Preparer

	cacheSize int
	prepared  *lru.Cache[string, scoring.Prepared]
}

// NewLibrary creates an empty library that prepares references with engine.
func NewLibrary(engine Preparer, opts ...Option) *Library {
	l := &Library{
		byID:      make(map[string]*Prompt),
		engine:    engine,
		cacheSize: defaultPreparedCacheSize,
	}
	for _, opt := range opts {
		opt(l)
	}
	// only fails for a non-positive size
	l.prepared, _ = lru.New[string, scoring.Prepared](l.cacheSize)
	return l
}

// Add stores p and returns its id. An empty id gets a fresh uuid.
func (l *Library) Add(_ context.Context, p Prompt) (string, error) {
	if err := p.Drawing.Validate(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPrompt, err)
	}
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.Drawing = p.Drawing.Clone()

	l.mu.Lock()
	if _, ok := l.byID[p.ID]; ok {
		l.mu.Unlock()
		return "", fmt.Errorf("%w: %s", ErrDuplicatePrompt, p.ID)
	}
	l.byID[p.ID] = &p
	l.order = append(l.order, p.ID)
	n := len(l.order)
	l.mu.Unlock()

	metrics.UpdatePromptsTotal(n)
	return p.ID, nil
}

// Get returns a copy of the prompt with the given id.
func (l *Library) Get(_ context.Context, id string) (Prompt, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	p, ok := l.byID[id]
	if !ok {
		return Prompt{}, fmt.Errorf("%w: %s", ErrPromptNotFound, id)
	}
	return Prompt{ID: p.ID, Word: p.Word, Drawing: p.Drawing.Clone()}, nil
}

// List returns every prompt in insertion order without drawings.
func (l *Library) List(_ context.Context) []Prompt {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]Prompt, 0, len(l.order))
	for _, id := range l.order {
		p := l.byID[id]
		out = append(out, Prompt{ID: p.ID, Word: p.Word})
	}
	return out
}

// Count returns the number of prompts.
func (l *Library) Count() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.order)
}

// Prepared returns the scoring reference of a prompt, preparing it on the
// first lookup.
func (l *Library) Prepared(ctx context.Context, id string) (scoring.Prepared, error) {
	if ref, ok := l.prepared.Get(id); ok {
		metrics.RecordPreparedCacheLookup(true)
		return ref, nil
	}
	metrics.RecordPreparedCacheLookup(false)

	l.mu.RLock()
	p, ok := l.byID[id]
	l.mu.RUnlock()
	if !ok {
		return scoring.Prepared{}, fmt.Errorf("%w: %s", ErrPromptNotFound, id)
	}
	if err := ctx.Err(); err != nil {
		return scoring.Prepared{}, err
	}

	// prompts are immutable once added, so racing preparers store equal values
	ref, err := l.engine.Prepare(p.Drawing)
	if err != nil {
		return scoring.Prepared{}, fmt.Errorf("%w: %w", ErrInvalidPrompt, err)
	}
	l.prepared.Add(id, ref)
	return ref, nil
}
