package session

import (
	"context"
	"sync"
	"time"
)

// MockStore wraps a MemoryStore and lets tests inject failures.
type MockStore struct {
	*MemoryStore

	mu         sync.Mutex
	loadErr    error
	updateErr  error
	panicOnUse bool
}

// NewMockStore creates a new MockStore with sample data.
func NewMockStore() *MockStore {
	m := &MockStore{MemoryStore: NewMemoryStore()}
	m.seedData()
	return m
}

func (m *MockStore) seedData() {
	now := time.Now()
	m.sessions["user-calendar"] = &SessionContext{
		UserID:                 "user-calendar",
		RecentIntents:          []string{"calendar_scheduling", "email_management"},
		TotalInteractions:      2,
		SuccessfulInteractions: 2,
		LastInteraction:        now.Add(-time.Minute),
	}
	m.sessions["user-stale"] = &SessionContext{
		UserID:            "user-stale",
		RecentIntents:     []string{"web_research"},
		TotalInteractions: 1,
		LastInteraction:   now.Add(-48 * time.Hour),
	}
}

// FailLoad makes subsequent Load calls return err.
func (m *MockStore) FailLoad(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loadErr = err
}

// FailUpdate makes subsequent Update calls return err.
func (m *MockStore) FailUpdate(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateErr = err
}

// PanicOnUse makes subsequent Load and Update calls panic.
func (m *MockStore) PanicOnUse() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.panicOnUse = true
}

func (m *MockStore) check(err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.panicOnUse {
		panic("session store unavailable")
	}
	return err
}

// Load implements Store.
func (m *MockStore) Load(ctx context.Context, userID string) (*SessionContext, error) {
	if err := m.check(m.loadErr); err != nil {
		return nil, err
	}
	return m.MemoryStore.Load(ctx, userID)
}

// Update implements Store.
func (m *MockStore) Update(ctx context.Context, userID string, fn func(*SessionContext)) (*SessionContext, error) {
	if err := m.check(m.updateErr); err != nil {
		return nil, err
	}
	return m.MemoryStore.Update(ctx, userID, fn)
}

// Ensure MockStore implements Store
var _ Store = (*MockStore)(nil)
