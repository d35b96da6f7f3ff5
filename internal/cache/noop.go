package cache

import (
	"context"
	"time"
)

// noopCache is a Cache that stores nothing. Used when caching is disabled.
type noopCache struct{}

// NewNoop returns a cache that always misses.
func NewNoop() Cache {
	return &noopCache{}
}

func (n *noopCache) Get(_ context.Context, _ string) ([]byte, error) {
	return nil, ErrCacheMiss
}

func (n *noopCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error {
	return nil
}

func (n *noopCache) Delete(_ context.Context, _ string) error {
	return nil
}

func (n *noopCache) Exists(_ context.Context, _ string) (bool, error) {
	return false, nil
}

func (n *noopCache) Close() error {
	return nil
}
