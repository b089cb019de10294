package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUCache_BasicOperations(t *testing.T) {
	cache := NewLRUCache[string](100, time.Minute)

	t.Run("SetAndGet", func(t *testing.T) {
		cache.Set("key1", "value1", 0)

		val, ok := cache.Get("key1")
		assert.True(t, ok)
		assert.Equal(t, "value1", val)
	})

	t.Run("GetNonExistent", func(t *testing.T) {
		val, ok := cache.Get("nonexistent")
		assert.False(t, ok)
		assert.Empty(t, val)
	})

	t.Run("UpdateExisting", func(t *testing.T) {
		cache.Set("key2", "original", 0)
		cache.Set("key2", "updated", 0)

		val, ok := cache.Get("key2")
		assert.True(t, ok)
		assert.Equal(t, "updated", val)
	})
}

func TestLRUCache_Expiration(t *testing.T) {
	cache := NewLRUCache[int](100, 50*time.Millisecond)

	cache.Set("expiring", 7, 50*time.Millisecond)

	val, ok := cache.Get("expiring")
	assert.True(t, ok)
	assert.Equal(t, 7, val)

	time.Sleep(60 * time.Millisecond)

	val, ok = cache.Get("expiring")
	assert.False(t, ok)
	assert.Zero(t, val)
}

func TestLRUCache_Eviction(t *testing.T) {
	cache := NewLRUCache[int](3, time.Minute)

	cache.Set("key1", 1, 0)
	cache.Set("key2", 2, 0)
	cache.Set("key3", 3, 0)
	assert.Equal(t, 3, cache.Size())

	// Access key1 to make it recently used
	cache.Get("key1")

	// Add new entry, should evict key2 (LRU)
	cache.Set("key4", 4, 0)
	assert.Equal(t, 3, cache.Size())

	_, ok := cache.Get("key2")
	assert.False(t, ok)

	_, ok = cache.Get("key1")
	assert.True(t, ok)
}

func TestLRUCache_Invalidate(t *testing.T) {
	cache := NewLRUCache[string](100, time.Minute)

	t.Run("ExactMatch", func(t *testing.T) {
		cache.Set("user:1", "1", 0)
		cache.Set("user:2", "2", 0)

		assert.Equal(t, 1, cache.Invalidate("user:1"))

		_, ok := cache.Get("user:1")
		assert.False(t, ok)
		_, ok = cache.Get("user:2")
		assert.True(t, ok)
	})

	t.Run("WildcardPattern", func(t *testing.T) {
		cache.Clear()
		cache.Set("user:1:profile", "1", 0)
		cache.Set("user:1:settings", "2", 0)
		cache.Set("user:2:profile", "3", 0)

		assert.Equal(t, 2, cache.Invalidate("user:1:*"))

		_, ok := cache.Get("user:1:profile")
		assert.False(t, ok)
		_, ok = cache.Get("user:2:profile")
		assert.True(t, ok)
	})
}

func TestLRUCache_Delete(t *testing.T) {
	cache := NewLRUCache[string](100, time.Minute)
	for _, key := range []string{"session:bob", "session:bobby", "session:bob*"} {
		cache.Set(key, key, 0)
	}

	assert.True(t, cache.Delete("session:bob*"))
	assert.False(t, cache.Delete("session:bob*"))

	_, ok := cache.Get("session:bob")
	assert.True(t, ok, "a trailing * is part of the key, not a wildcard")
	_, ok = cache.Get("session:bobby")
	assert.True(t, ok)

	assert.False(t, cache.Delete("session:*"))
	assert.Equal(t, 2, cache.Size())

	assert.True(t, cache.Delete("session:bob"))
	_, ok = cache.Get("session:bobby")
	assert.True(t, ok)
	assert.Equal(t, 1, cache.Size())
}

func TestLRUCache_Range(t *testing.T) {
	cache := NewLRUCache[int](10, time.Minute)
	cache.Set("a", 1, 0)
	cache.Set("b", 2, 0)
	cache.Set("c", 3, time.Millisecond)
	time.Sleep(5 * time.Millisecond)

	var keys []string
	cache.Range(func(key string, _ int) bool {
		keys = append(keys, key)
		return true
	})
	// Most recently used first; expired entries are skipped.
	assert.Equal(t, []string{"b", "a"}, keys)

	var first []string
	cache.Range(func(key string, _ int) bool {
		first = append(first, key)
		return false
	})
	assert.Len(t, first, 1)
}

func TestLRUCache_ConcurrentAccess(t *testing.T) {
	cache := NewLRUCache[byte](1000, time.Minute)
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(2)
		go func(n int) {
			defer wg.Done()
			cache.Set(string(rune('a'+n%26)), byte(n), 0)
		}(i)
		go func(n int) {
			defer wg.Done()
			cache.Get(string(rune('a' + n%26)))
		}(i)
	}

	wg.Wait()
	assert.LessOrEqual(t, cache.Size(), 26)
}

func TestService_BasicOperations(t *testing.T) {
	svc := NewService[string](ServiceConfig{
		Capacity:        100,
		DefaultTTL:      time.Minute,
		CleanupInterval: time.Hour, // Disable auto cleanup for tests
	})
	defer svc.Close()

	ctx := context.Background()

	t.Run("SetAndGet", func(t *testing.T) {
		require.NoError(t, svc.Set(ctx, "key1", "value1", 0))

		val, ok := svc.Get(ctx, "key1")
		assert.True(t, ok)
		assert.Equal(t, "value1", val)
	})

	t.Run("Invalidate", func(t *testing.T) {
		require.NoError(t, svc.Set(ctx, "user:1:data", "data", 0))
		require.NoError(t, svc.Invalidate(ctx, "user:1:*"))

		_, ok := svc.Get(ctx, "user:1:data")
		assert.False(t, ok)
	})
}

func TestService_Close(t *testing.T) {
	svc := NewService[string](DefaultServiceConfig())
	svc.Close()
}

func TestService_CleanupExpired(t *testing.T) {
	svc := NewService[string](ServiceConfig{
		Capacity:        100,
		DefaultTTL:      50 * time.Millisecond,
		CleanupInterval: 30 * time.Millisecond,
	})
	defer svc.Close()

	ctx := context.Background()
	_ = svc.Set(ctx, "temp", "data", 50*time.Millisecond)

	assert.Equal(t, 1, svc.Size())

	time.Sleep(100 * time.Millisecond)

	assert.Equal(t, 0, svc.Size())
}
