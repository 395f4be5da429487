// Package cachemanager wraps go-cache behind a small generic interface used
// by the gateway to avoid repeating identical model calls.
package cachemanager

import (
	"context"
	"time"
)

// CacheManager stores values by key with a per-entry TTL.
type CacheManager[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	// GetMultiple returns the entries found and the keys that were not.
	GetMultiple(ctx context.Context, keys []K) (found map[K]V, missing []K)
	GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool)
	Set(ctx context.Context, key K, value V, ttl time.Duration)
	Delete(ctx context.Context, keys ...K) error
	Flush(ctx context.Context) error
}
