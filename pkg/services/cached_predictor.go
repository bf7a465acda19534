package services

import (
	"context"
	"fmt"
	"sync/atomic"

	"churn-predictor-api/pkg/models"
	"churn-predictor-api/pkg/session"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CachedPredictor memoizes a deterministic predictor by snapshot.
// Failures and out-of-range answers are not cached.
type CachedPredictor struct {
	next   session.Predictor
	cache  *lru.Cache[models.FormInput, float64]
	hits   atomic.Int64
	misses atomic.Int64
}

// NewCachedPredictor wraps next with an LRU of the given size.
func NewCachedPredictor(next session.Predictor, size int) (*CachedPredictor, error) {
	cache, err := lru.New[models.FormInput, float64](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create prediction cache: %w", err)
	}
	return &CachedPredictor{next: next, cache: cache}, nil
}

// Predict implements session.Predictor.
func (c *CachedPredictor) Predict(ctx context.Context, in models.FormInput) (float64, error) {
	if p, ok := c.cache.Get(in); ok {
		c.hits.Add(1)
		return p, nil
	}
	c.misses.Add(1)

	p, err := c.next.Predict(ctx, in)
	if err != nil {
		return 0, err
	}
	if models.CheckProbability(p) == nil {
		c.cache.Add(in, p)
	}
	return p, nil
}

// CacheStats reports cache effectiveness.
type CacheStats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Entries int   `json:"entries"`
}

// Stats returns the current counters.
func (c *CachedPredictor) Stats() CacheStats {
	return CacheStats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Entries: c.cache.Len(),
	}
}

// Purge empties the cache.
func (c *CachedPredictor) Purge() {
	c.cache.Purge()
}
