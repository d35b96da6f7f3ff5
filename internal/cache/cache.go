package cache

import (
	"context"
	"errors"
	"time"

	"github.com/plateful/recipe-auth/internal/config"
	"github.com/plateful/recipe-auth/internal/observability"
)

// Common cache errors.
var (
	// ErrCacheMiss indicates that the key was not found in the cache.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidConfig indicates that the cache configuration is invalid.
	ErrInvalidConfig = errors.New("invalid cache configuration")
)

// Cache is the interface shared by all cache backends.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns ErrCacheMiss if the key is not found.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in the cache with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value from the cache.
	Delete(ctx context.Context, key string) error

	// Exists reports whether the key is present and not expired.
	Exists(ctx context.Context, key string) (bool, error)

	// Close releases cache resources.
	Close() error
}

// New creates a cache backend based on the configuration.
func New(cfg *config.CacheConfig, logger observability.Logger) (Cache, error) {
	if cfg == nil {
		return nil, ErrInvalidConfig
	}
	if logger == nil {
		logger = observability.NopLogger()
	}

	switch cfg.Type {
	case "", "memory":
		return newMemoryCache(cfg, logger), nil
	case "redis":
		return newRedisCache(cfg, logger)
	case "none":
		return NewNoop(), nil
	default:
		return nil, ErrInvalidConfig
	}
}
