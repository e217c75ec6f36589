// Package cache provides a small response cache for the API.
package cache

import (
	"context"
	"time"
)

// Cache stores serialized API responses for a short TTL. Implementations are
// best-effort: lookups that fail behave like misses and writes may be dropped.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Close() error
}

// NoopCache disables caching. Used when no Redis address is configured.
type NoopCache struct{}

// NewNoopCache returns a cache that never hits.
func NewNoopCache() *NoopCache {
	return &NoopCache{}
}

func (*NoopCache) Get(context.Context, string) ([]byte, bool) { return nil, false }

func (*NoopCache) Set(context.Context, string, []byte, time.Duration) {}

func (*NoopCache) Close() error { return nil }
