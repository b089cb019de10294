package router

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigWatcher_ReloadsOnWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "router.yaml")
	require.NoError(t, os.WriteFile(path, []byte("intents:\n  greeting:\n    keywords: [hello]\n"), 0o644))

	store, err := NewConfigStore(path)
	require.NoError(t, err)

	w, err := NewConfigWatcher(store, 50*time.Millisecond)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("intents:\n  greeting:\n    keywords: [hello]\n  farewell:\n    keywords: [bye]\n"), 0o644))

	assert.Eventually(t, func() bool {
		_, ok := store.Snapshot().Catalog.Get("farewell")
		return ok
	}, 5*time.Second, 20*time.Millisecond)
	assert.EqualValues(t, 2, store.Snapshot().Version)
	assert.Equal(t, 1, w.Reloads())

	// Unrelated files in the same directory are ignored.
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(path), "other.yaml"), []byte("x: 1"), 0o644))
	time.Sleep(100 * time.Millisecond)
	assert.EqualValues(t, 2, store.Snapshot().Version)
}

func TestConfigWatcher_KeepsSnapshotOnBadWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "router.yaml")
	require.NoError(t, os.WriteFile(path, []byte("intents:\n  greeting:\n    keywords: [hello]\n"), 0o644))

	store, err := NewConfigStore(path)
	require.NoError(t, err)
	w, err := NewConfigWatcher(store, 10*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(path, []byte("intents: [broken"), 0o644))
	time.Sleep(200 * time.Millisecond)

	assert.EqualValues(t, 1, store.Snapshot().Version)
	assert.Zero(t, w.Reloads())
}

func TestNewConfigWatcher_RequiresFile(t *testing.T) {
	_, err := NewConfigWatcher(NewDefaultConfigStore(), 0)
	assert.Error(t, err)
}

func TestConfigWatcher_StopIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "router.yaml")
	store, err := NewConfigStore(path)
	require.NoError(t, err)
	w, err := NewConfigWatcher(store, 0)
	require.NoError(t, err)

	w.Stop()
	require.NoError(t, w.Start(context.Background()))
	w.Stop()
	w.Stop()
}
