package cachemanager

import (
	"context"
	"time"
)

// ReadThrough serves values from a cache, computing and storing them with fn
// on a miss. Errors from fn are never cached.
type ReadThrough[K comparable, V any, I any] struct {
	cache CacheManager[K, V]
	fn    func(ctx context.Context, input I) (V, error)
	ttl   time.Duration
	skip  bool
}

// NewReadThrough builds a read-through cache. When skip is true every call
// goes straight to fn.
func NewReadThrough[K comparable, V any, I any](
	cache CacheManager[K, V],
	fn func(ctx context.Context, input I) (V, error),
	ttl time.Duration,
	skip bool,
) *ReadThrough[K, V, I] {
	return &ReadThrough[K, V, I]{cache: cache, fn: fn, ttl: ttl, skip: skip}
}

// Get returns the cached value for key or computes it from input.
func (r *ReadThrough[K, V, I]) Get(ctx context.Context, key K, input I) (V, error) {
	if r.skip || r.cache == nil {
		return r.fn(ctx, input)
	}

	if value, ok := r.cache.GetWithRefresh(ctx, key, r.ttl); ok {
		return value, nil
	}

	value, err := r.fn(ctx, input)
	if err != nil {
		return value, err
	}
	r.cache.Set(ctx, key, value, r.ttl)
	return value, nil
}
