package repository

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/okian/sketchmatch/internal/domain/model"
	"github.com/okian/sketchmatch/pkg/metrics"
)

const defaultResultCacheSize = 50_000

// ResultCache keeps the most recent attempt results in memory.
type ResultCache struct {
	cache *lru.Cache[string, model.AttemptResult]
}

// NewResultCache creates a cache holding up to size results; size < 1 uses
// the default.
func NewResultCache(size int) *ResultCache {
	if size < 1 {
		size = defaultResultCacheSize
	}
	// only fails for a non-positive size
	c, _ := lru.New[string, model.AttemptResult](size)
	return &ResultCache{cache: c}
}

// Put stores or replaces the result of an attempt.
func (c *ResultCache) Put(_ context.Context, r model.AttemptResult) {
	c.cache.Add(r.AttemptID, r)
	metrics.UpdateResultCacheSize(c.cache.Len())
}

// Get returns the result of an attempt, or ErrNotFound once it was evicted
// or never stored.
func (c *ResultCache) Get(_ context.Context, attemptID string) (model.AttemptResult, error) {
	r, ok := c.cache.Get(attemptID)
	if !ok {
		return model.AttemptResult{}, ErrNotFound
	}
	return r, nil
}

// Len returns the number of cached results.
func (c *ResultCache) Len() int {
	return c.cache.Len()
}

// Remove drops the result of an attempt.
func (c *ResultCache) Remove(_ context.Context, attemptID string) {
	c.cache.Remove(attemptID)
	metrics.UpdateResultCacheSize(c.cache.Len())
}
