package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps every user's context in an unbounded map.
// Pair it with SessionCleanupJob, or use LRUStore, to cap growth.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*SessionContext
	locks    keyLock
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*SessionContext),
	}
}

// Load returns a snapshot of the user's context, or nil if absent.
func (m *MemoryStore) Load(ctx context.Context, userID string) (*SessionContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[userID].Clone(), nil
}

// Update applies fn under the user's lock.
func (m *MemoryStore) Update(ctx context.Context, userID string, fn func(*SessionContext)) (*SessionContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := m.locks.lock(userID)
	defer unlock()

	m.mu.RLock()
	current := m.sessions[userID].Clone()
	m.mu.RUnlock()

	if current == nil {
		current = NewSessionContext(userID)
	}
	fn(current)

	m.mu.Lock()
	m.sessions[userID] = current
	m.mu.Unlock()

	return current.Clone(), nil
}

// Delete removes the user's context. Deleting an unknown user is not an error.
func (m *MemoryStore) Delete(_ context.Context, userID string) error {
	unlock := m.locks.lock(userID)
	defer unlock()

	m.mu.Lock()
	delete(m.sessions, userID)
	m.mu.Unlock()
	return nil
}

// CleanupIdle removes contexts idle for longer than maxIdle.
func (m *MemoryStore) CleanupIdle(ctx context.Context, maxIdle time.Duration) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()

	var removed int64
	for userID, s := range m.sessions {
		if s.LastInteraction.Before(cutoff) {
			delete(m.sessions, userID)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of tracked users.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
