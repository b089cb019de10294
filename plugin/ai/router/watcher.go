package router

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/CoworkedShawn/openclaw-skills/plugin/ai/timeout"
)

// ConfigWatcher reloads a ConfigStore when its backing file changes.
// It watches the parent directory so editors that replace the file by rename are seen.
type ConfigWatcher struct {
	store    *ConfigStore
	debounce time.Duration

	mu      sync.Mutex
	watcher *fsnotify.Watcher
	timer   *time.Timer
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
	reloads int
}

// NewConfigWatcher creates a watcher for store. A non-positive debounce uses 500ms.
func NewConfigWatcher(store *ConfigStore, debounce time.Duration) (*ConfigWatcher, error) {
	if store.Path() == "" {
		return nil, errors.New("config store has no backing file to watch")
	}
	if debounce <= 0 {
		debounce = timeout.ConfigReloadDebounce
	}
	return &ConfigWatcher{
		store:    store,
		debounce: debounce,
	}, nil
}

// Start begins watching. It is non-blocking.
func (w *ConfigWatcher) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "failed to create file watcher")
	}
	dir := filepath.Dir(w.store.Path())
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return errors.Wrapf(err, "failed to watch %s", dir)
	}

	w.watcher = fw
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})

	go w.run(ctx, fw, w.stopCh, w.doneCh)

	slog.Info("routing config watcher started", "path", w.store.Path())
	return nil
}

// Stop stops watching and waits for the event loop to exit.
func (w *ConfigWatcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	if w.timer != nil {
		w.timer.Stop()
	}
	stopCh, doneCh, fw := w.stopCh, w.doneCh, w.watcher
	w.mu.Unlock()

	close(stopCh)
	<-doneCh

	if err := fw.Close(); err != nil {
		slog.Error("failed to close config watcher", "error", err)
	}
	slog.Info("routing config watcher stopped")
}

// Reloads returns how many reloads published a new snapshot.
func (w *ConfigWatcher) Reloads() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reloads
}

func (w *ConfigWatcher) run(ctx context.Context, fw *fsnotify.Watcher, stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	target := filepath.Clean(w.store.Path())
	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case event, ok := <-fw.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			w.schedule()
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			slog.Error("config watcher error", "error", err)
		}
	}
}

// schedule coalesces bursts of events into one reload.
func (w *ConfigWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *ConfigWatcher) reload() {
	changed, err := w.store.Reload()
	if err != nil {
		slog.Warn("routing config reload failed, keeping current snapshot",
			"path", w.store.Path(),
			"error", err)
		return
	}
	if changed {
		w.mu.Lock()
		w.reloads++
		w.mu.Unlock()
	}
}
