package cache

import (
	"context"
	"sync"
	"time"
)

// ServiceConfig configures the cache service.
type ServiceConfig struct {
	Capacity        int           // Maximum number of entries (default: 1000)
	DefaultTTL      time.Duration // Default TTL for entries (default: 5 minutes)
	CleanupInterval time.Duration // Interval for expired entry cleanup (default: 1 minute)
}

// DefaultServiceConfig returns default cache service configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		Capacity:        1000,
		DefaultTTL:      5 * time.Minute,
		CleanupInterval: time.Minute,
	}
}

// Service implements CacheService with LRU eviction.
type Service[V any] struct {
	lru *LRUCache[V]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	cleanupInterval time.Duration
}

// NewService creates a new cache service.
func NewService[V any](cfg ServiceConfig) *Service[V] {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 1000
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 5 * time.Minute
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := &Service[V]{
		lru:             NewLRUCache[V](cfg.Capacity, cfg.DefaultTTL),
		ctx:             ctx,
		cancel:          cancel,
		cleanupInterval: cfg.CleanupInterval,
	}

	s.wg.Add(1)
	go s.cleanupLoop()

	return s
}

// Close stops the cache service.
func (s *Service[V]) Close() {
	s.cancel()
	s.wg.Wait()
}

// Get retrieves a value from cache.
func (s *Service[V]) Get(_ context.Context, key string) (V, bool) {
	return s.lru.Get(key)
}

// Set stores a value in cache.
func (s *Service[V]) Set(_ context.Context, key string, value V, ttl time.Duration) error {
	s.lru.Set(key, value, ttl)
	return nil
}

// Delete removes the entry stored under key.
func (s *Service[V]) Delete(_ context.Context, key string) error {
	s.lru.Delete(key)
	return nil
}

// Invalidate invalidates cache entries matching the pattern.
func (s *Service[V]) Invalidate(_ context.Context, pattern string) error {
	s.lru.Invalidate(pattern)
	return nil
}

// Range iterates over unexpired entries, most recently used first.
func (s *Service[V]) Range(fn func(key string, value V) bool) {
	s.lru.Range(fn)
}

// Size returns the number of entries in the cache.
func (s *Service[V]) Size() int {
	return s.lru.Size()
}

// Clear removes all entries from the cache.
func (s *Service[V]) Clear() {
	s.lru.Clear()
}

// cleanupLoop periodically removes expired entries.
func (s *Service[V]) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.lru.CleanupExpired()
		}
	}
}

// Ensure Service implements CacheService
var _ CacheService[string] = (*Service[string])(nil)
