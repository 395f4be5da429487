package cachemanager

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/stupidea/internal/log"
)

const (
	DefaultExpiration      = 10 * time.Minute
	DefaultCleanupInterval = 30 * time.Minute
)

// Memory is the go-cache backed CacheManager. useCase tags its log lines.
type Memory[K ~string, V any] struct {
	useCase string
	cache   *gocache.Cache
}

// NewMemory creates an in-memory cache. A zero defaultExpiration uses
// DefaultExpiration.
func NewMemory[K ~string, V any](useCase string, defaultExpiration, cleanupInterval time.Duration) *Memory[K, V] {
	if defaultExpiration == 0 {
		defaultExpiration = DefaultExpiration
	}
	if cleanupInterval == 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	return &Memory[K, V]{
		useCase: useCase,
		cache:   gocache.New(defaultExpiration, cleanupInterval),
	}
}

// Get retrieves an item from the cache by its key.
func (c *Memory[K, V]) Get(_ context.Context, key K) (V, bool) {
	v, ok := c.lookup(key)
	if ok {
		log.Debug(log.CatCache, "cache hit", "use_case", c.useCase)
	}
	return v, ok
}

// GetMultiple looks up every key, preserving the order of the missing ones.
func (c *Memory[K, V]) GetMultiple(_ context.Context, keys []K) (map[K]V, []K) {
	found := make(map[K]V, len(keys))
	var missing []K
	for _, key := range keys {
		if v, ok := c.lookup(key); ok {
			found[key] = v
			continue
		}
		missing = append(missing, key)
	}
	if len(keys) > 0 {
		log.Debug(log.CatCache, "multi lookup", "use_case", c.useCase, "hits", len(found), "misses", len(missing))
	}
	return found, missing
}

// GetWithRefresh retrieves an item and, when found, extends its ttl by
// putting it back.
func (c *Memory[K, V]) GetWithRefresh(ctx context.Context, key K, ttl time.Duration) (V, bool) {
	value, found := c.Get(ctx, key)
	if !found {
		return value, false
	}
	c.Set(ctx, key, value, ttl)
	return value, true
}

// Set stores value under key for ttl. gocache.DefaultExpiration (0) uses the
// cache default.
func (c *Memory[K, V]) Set(_ context.Context, key K, value V, ttl time.Duration) {
	c.cache.Set(string(key), value, ttl)
}

// Delete removes keys.
func (c *Memory[K, V]) Delete(_ context.Context, keys ...K) error {
	for _, key := range keys {
		c.cache.Delete(string(key))
	}
	return nil
}

// Flush drops everything.
func (c *Memory[K, V]) Flush(_ context.Context) error {
	c.cache.Flush()
	return nil
}

// Len returns the number of entries, including expired ones not yet evicted.
func (c *Memory[K, V]) Len() int {
	return c.cache.ItemCount()
}

func (c *Memory[K, V]) lookup(key K) (V, bool) {
	var zero V
	value, found := c.cache.Get(string(key))
	if !found {
		return zero, false
	}
	v, ok := value.(V)
	if !ok {
		log.Error(log.CatCache, "wrong type assertion when getting value", "use_case", c.useCase)
		return zero, false
	}
	return v, true
}
