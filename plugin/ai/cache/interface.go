// Package cache provides a bounded in-memory cache used to back per-user router state.
package cache

import (
	"context"
	"time"
)

// CacheService defines the cache service interface.
// Consumers: session.LRUStore
type CacheService[V any] interface {
	// Get retrieves a value from cache.
	// Returns: value, whether it exists
	Get(ctx context.Context, key string) (V, bool)

	// Set stores a value in cache.
	// ttl: expiration time (zero uses the default TTL)
	Set(ctx context.Context, key string, value V, ttl time.Duration) error

	// Delete removes the entry stored under key, matched literally.
	Delete(ctx context.Context, key string) error

	// Invalidate invalidates cache entries.
	// pattern: supports a trailing wildcard (user:123:*)
	Invalidate(ctx context.Context, pattern string) error
}
