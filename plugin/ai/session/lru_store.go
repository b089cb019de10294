package session

import (
	"context"
	"strings"
	"time"

	"github.com/CoworkedShawn/openclaw-skills/plugin/ai/cache"
)

const cachePrefix = "session:"

// LRUStoreConfig configures a bounded session store.
type LRUStoreConfig struct {
	Capacity        int           // Maximum number of tracked users (default: 10000)
	IdleTTL         time.Duration // Sessions expire after this much inactivity (default: 24h)
	CleanupInterval time.Duration // Interval for expired entry cleanup (default: 10 minutes)
}

// LRUStore keeps at most Capacity user contexts, evicting the least recently
// routed user first and expiring users idle for longer than IdleTTL.
type LRUStore struct {
	cache   *cache.Service[*SessionContext]
	idleTTL time.Duration
	locks   keyLock
}

// NewLRUStore creates a bounded session store.
func NewLRUStore(cfg LRUStoreConfig) *LRUStore {
	if cfg.Capacity <= 0 {
		cfg.Capacity = 10000
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultMaxIdle
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = DefaultCleanupInterval
	}

	return &LRUStore{
		cache: cache.NewService[*SessionContext](cache.ServiceConfig{
			Capacity:        cfg.Capacity,
			DefaultTTL:      cfg.IdleTTL,
			CleanupInterval: cfg.CleanupInterval,
		}),
		idleTTL: cfg.IdleTTL,
	}
}

// Close stops the background expiry loop.
func (s *LRUStore) Close() {
	s.cache.Close()
}

// Load returns a snapshot of the user's context, or nil if absent or expired.
func (s *LRUStore) Load(ctx context.Context, userID string) (*SessionContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	current, ok := s.cache.Get(ctx, cachePrefix+userID)
	if !ok {
		return nil, nil
	}
	return current.Clone(), nil
}

// Update applies fn under the user's lock and refreshes the idle TTL.
func (s *LRUStore) Update(ctx context.Context, userID string, fn func(*SessionContext)) (*SessionContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(userID)
	defer unlock()

	key := cachePrefix + userID
	current, ok := s.cache.Get(ctx, key)
	if ok {
		current = current.Clone()
	} else {
		current = NewSessionContext(userID)
	}
	fn(current)

	if err := s.cache.Set(ctx, key, current, s.idleTTL); err != nil {
		return nil, err
	}
	return current.Clone(), nil
}

// Delete removes the user's context.
func (s *LRUStore) Delete(ctx context.Context, userID string) error {
	unlock := s.locks.lock(userID)
	defer unlock()
	return s.cache.Delete(ctx, cachePrefix+userID)
}

// CleanupIdle removes contexts idle for longer than maxIdle.
func (s *LRUStore) CleanupIdle(ctx context.Context, maxIdle time.Duration) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxIdle)
	var stale []string
	s.cache.Range(func(key string, value *SessionContext) bool {
		if value.LastInteraction.Before(cutoff) {
			stale = append(stale, strings.TrimPrefix(key, cachePrefix))
		}
		return true
	})

	var removed int64
	for _, userID := range stale {
		ok, err := s.removeIfIdle(ctx, userID, cutoff)
		if err != nil {
			return removed, err
		}
		if ok {
			removed++
		}
	}
	return removed, nil
}

// removeIfIdle deletes the user's context under its lock, unless an Update
// refreshed it after the idle scan.
func (s *LRUStore) removeIfIdle(ctx context.Context, userID string, cutoff time.Time) (bool, error) {
	unlock := s.locks.lock(userID)
	defer unlock()

	key := cachePrefix + userID
	current, ok := s.cache.Get(ctx, key)
	if !ok || !current.LastInteraction.Before(cutoff) {
		return false, nil
	}
	if err := s.cache.Delete(ctx, key); err != nil {
		return false, err
	}
	return true, nil
}

// Len returns the number of tracked users, including entries not yet swept.
func (s *LRUStore) Len() int {
	return s.cache.Size()
}

// Ensure LRUStore implements Store
var _ Store = (*LRUStore)(nil)
