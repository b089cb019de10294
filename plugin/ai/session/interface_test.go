package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSessionContext_PushIntent(t *testing.T) {
	sc := NewSessionContext("u1")
	for i := 0; i < 8; i++ {
		sc.PushIntent(fmt.Sprintf("intent_%d", i))
	}

	require.Len(t, sc.RecentIntents, MaxRecentIntents)
	assert.Equal(t, []string{"intent_7", "intent_6", "intent_5", "intent_4", "intent_3"}, sc.RecentIntents)
	assert.True(t, sc.HasRecentIntent("intent_5"))
	assert.False(t, sc.HasRecentIntent("intent_0"))
}

func TestSessionContext_RecordOutcome(t *testing.T) {
	sc := NewSessionContext("")
	assert.Equal(t, AnonymousUserID, sc.UserID)

	now := time.Now()
	sc.RecordOutcome(true, now)
	sc.RecordOutcome(false, now.Add(time.Second))

	assert.EqualValues(t, 2, sc.TotalInteractions)
	assert.EqualValues(t, 1, sc.SuccessfulInteractions)
	assert.Equal(t, now.Add(time.Second), sc.LastInteraction)
}

func TestSessionContext_CloneIsIndependent(t *testing.T) {
	sc := NewSessionContext("u1")
	sc.PushIntent("a")

	clone := sc.Clone()
	clone.PushIntent("b")

	assert.Equal(t, []string{"a"}, sc.RecentIntents)
	assert.Equal(t, []string{"b", "a"}, clone.RecentIntents)

	var nilCtx *SessionContext
	assert.Nil(t, nilCtx.Clone())
	assert.False(t, nilCtx.HasRecentIntent("a"))
}

// TestStoreContract runs the same behavioral checks against every Store implementation.
func TestStoreContract(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemoryStore() },
		"lru": func(t *testing.T) Store {
			s := NewLRUStore(LRUStoreConfig{Capacity: 100, IdleTTL: time.Hour, CleanupInterval: time.Minute})
			t.Cleanup(s.Close)
			return s
		},
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			t.Run("Load_Missing", func(t *testing.T) {
				store := newStore(t)
				sc, err := store.Load(ctx, "nobody")
				require.NoError(t, err)
				assert.Nil(t, sc)
			})

			t.Run("Update_CreatesLazily", func(t *testing.T) {
				store := newStore(t)
				sc, err := store.Update(ctx, "u1", func(sc *SessionContext) {
					sc.PushIntent("calendar_scheduling")
					sc.RecordOutcome(true, time.Now())
				})
				require.NoError(t, err)
				assert.Equal(t, "u1", sc.UserID)
				assert.Equal(t, []string{"calendar_scheduling"}, sc.RecentIntents)

				loaded, err := store.Load(ctx, "u1")
				require.NoError(t, err)
				require.NotNil(t, loaded)
				assert.EqualValues(t, 1, loaded.TotalInteractions)
			})

			t.Run("Load_ReturnsSnapshot", func(t *testing.T) {
				store := newStore(t)
				_, err := store.Update(ctx, "u1", func(sc *SessionContext) { sc.PushIntent("a") })
				require.NoError(t, err)

				loaded, err := store.Load(ctx, "u1")
				require.NoError(t, err)
				loaded.PushIntent("mutated")

				again, err := store.Load(ctx, "u1")
				require.NoError(t, err)
				assert.Equal(t, []string{"a"}, again.RecentIntents)
			})

			t.Run("Delete", func(t *testing.T) {
				store := newStore(t)
				_, err := store.Update(ctx, "u1", func(sc *SessionContext) { sc.PushIntent("a") })
				require.NoError(t, err)

				require.NoError(t, store.Delete(ctx, "u1"))
				require.NoError(t, store.Delete(ctx, "unknown"))

				loaded, err := store.Load(ctx, "u1")
				require.NoError(t, err)
				assert.Nil(t, loaded)
			})

			t.Run("Delete_MatchesUserExactly", func(t *testing.T) {
				store := newStore(t)
				for _, user := range []string{"bob", "bobby", "bob*", "alice"} {
					_, err := store.Update(ctx, user, func(sc *SessionContext) { sc.PushIntent("a") })
					require.NoError(t, err)
				}

				require.NoError(t, store.Delete(ctx, "bob*"))
				require.NoError(t, store.Delete(ctx, "*"))

				gone, err := store.Load(ctx, "bob*")
				require.NoError(t, err)
				assert.Nil(t, gone)
				for _, user := range []string{"bob", "bobby", "alice"} {
					sc, err := store.Load(ctx, user)
					require.NoError(t, err)
					assert.NotNil(t, sc, user)
				}
			})

			t.Run("CleanupIdle", func(t *testing.T) {
				store := newStore(t)
				_, err := store.Update(ctx, "old", func(sc *SessionContext) {
					sc.RecordOutcome(true, time.Now().Add(-2*time.Hour))
				})
				require.NoError(t, err)
				_, err = store.Update(ctx, "fresh", func(sc *SessionContext) {
					sc.RecordOutcome(true, time.Now())
				})
				require.NoError(t, err)

				removed, err := store.CleanupIdle(ctx, time.Hour)
				require.NoError(t, err)
				assert.EqualValues(t, 1, removed)

				old, _ := store.Load(ctx, "old")
				assert.Nil(t, old)
				fresh, _ := store.Load(ctx, "fresh")
				assert.NotNil(t, fresh)
			})

			t.Run("CanceledContext", func(t *testing.T) {
				store := newStore(t)
				canceled, cancel := context.WithCancel(ctx)
				cancel()

				_, err := store.Update(canceled, "u1", func(sc *SessionContext) {})
				assert.ErrorIs(t, err, context.Canceled)
				_, err = store.Load(canceled, "u1")
				assert.ErrorIs(t, err, context.Canceled)
			})

			t.Run("ConcurrentUpdates", func(t *testing.T) {
				store := newStore(t)
				var wg sync.WaitGroup
				for i := 0; i < 50; i++ {
					wg.Add(1)
					go func(i int) {
						defer wg.Done()
						_, _ = store.Update(ctx, "shared", func(sc *SessionContext) {
							sc.PushIntent(fmt.Sprintf("i%d", i))
							sc.RecordOutcome(i%2 == 0, time.Now())
						})
					}(i)
				}
				wg.Wait()

				sc, err := store.Load(ctx, "shared")
				require.NoError(t, err)
				assert.EqualValues(t, 50, sc.TotalInteractions)
				assert.EqualValues(t, 25, sc.SuccessfulInteractions)
				assert.Len(t, sc.RecentIntents, MaxRecentIntents)
			})
		})
	}
}

func TestLRUStore_EvictsLeastRecentUser(t *testing.T) {
	ctx := context.Background()
	store := NewLRUStore(LRUStoreConfig{Capacity: 2, IdleTTL: time.Hour})
	defer store.Close()

	for _, user := range []string{"a", "b", "c"} {
		_, err := store.Update(ctx, user, func(sc *SessionContext) { sc.PushIntent("x") })
		require.NoError(t, err)
	}

	assert.Equal(t, 2, store.Len())
	evicted, err := store.Load(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, evicted)
}

func TestLRUStore_CleanupSkipsRefreshedUser(t *testing.T) {
	ctx := context.Background()
	store := NewLRUStore(LRUStoreConfig{Capacity: 10, IdleTTL: time.Hour})
	defer store.Close()

	_, err := store.Update(ctx, "dave", func(sc *SessionContext) {
		sc.RecordOutcome(true, time.Now().Add(-2*time.Hour))
	})
	require.NoError(t, err)
	cutoff := time.Now().Add(-time.Hour)

	// dave is seen as idle by the scan, then refreshed before removal.
	_, err = store.Update(ctx, "dave", func(sc *SessionContext) {
		sc.RecordOutcome(true, time.Now())
	})
	require.NoError(t, err)

	removed, err := store.removeIfIdle(ctx, "dave", cutoff)
	require.NoError(t, err)
	assert.False(t, removed)

	sc, err := store.Load(ctx, "dave")
	require.NoError(t, err)
	require.NotNil(t, sc)
	assert.EqualValues(t, 2, sc.TotalInteractions)

	removed, err = store.removeIfIdle(ctx, "nobody", cutoff)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestMockStore_FailureInjection(t *testing.T) {
	ctx := context.Background()
	mock := NewMockStore()

	seeded, err := mock.Load(ctx, "user-calendar")
	require.NoError(t, err)
	require.NotNil(t, seeded)
	assert.True(t, seeded.HasRecentIntent("calendar_scheduling"))

	mock.FailUpdate(assert.AnError)
	_, err = mock.Update(ctx, "u1", func(sc *SessionContext) {})
	assert.ErrorIs(t, err, assert.AnError)

	mock.PanicOnUse()
	assert.Panics(t, func() { _, _ = mock.Load(ctx, "u1") })
}
