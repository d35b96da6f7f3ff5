package cache

import (
	"context"
	"errors"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/plateful/recipe-auth/internal/config"
	"github.com/plateful/recipe-auth/internal/observability"
)

// memoryEntry wraps a cached value with its own expiry so entries stored
// with a TTL shorter than the cache-wide TTL still expire on time.
type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// memoryCache implements an in-process TTL-bounded LRU cache.
type memoryCache struct {
	logger     observability.Logger
	lru        *expirable.LRU[string, memoryEntry]
	defaultTTL time.Duration
}

// newMemoryCache creates a new in-memory cache.
func newMemoryCache(cfg *config.CacheConfig, logger observability.Logger) *memoryCache {
	maxEntries := cfg.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 10000
	}
	defaultTTL := cfg.TTL.Duration()
	if defaultTTL <= 0 {
		defaultTTL = time.Minute
	}

	c := &memoryCache{
		logger:     logger,
		lru:        expirable.NewLRU[string, memoryEntry](maxEntries, nil, defaultTTL),
		defaultTTL: defaultTTL,
	}

	logger.Info("memory cache initialized",
		observability.Int("maxEntries", maxEntries),
		observability.Duration("defaultTTL", defaultTTL))

	return c
}

// Get retrieves a value from the cache.
func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	entry, ok := c.lru.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	if time.Now().After(entry.expiresAt) {
		c.lru.Remove(key)
		return nil, ErrCacheMiss
	}
	return entry.value, nil
}

// Set stores a value in the cache. A non-positive TTL falls back to the
// cache default.
func (c *memoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}
	c.lru.Add(key, memoryEntry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	})
	return nil
}

// Delete removes a value from the cache.
func (c *memoryCache) Delete(_ context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

// Exists reports whether the key is present and not expired.
func (c *memoryCache) Exists(ctx context.Context, key string) (bool, error) {
	_, err := c.Get(ctx, key)
	if errors.Is(err, ErrCacheMiss) {
		return false, nil
	}
	return err == nil, err
}

// Close releases cache resources.
func (c *memoryCache) Close() error {
	c.lru.Purge()
	return nil
}

// Ensure memoryCache implements Cache.
var _ Cache = (*memoryCache)(nil)
