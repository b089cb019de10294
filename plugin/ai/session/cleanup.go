package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/CoworkedShawn/openclaw-skills/plugin/ai/timeout"
)

const (
	// DefaultMaxIdle is how long a user may go without routing before their context is dropped.
	DefaultMaxIdle = timeout.SessionMaxIdle
	// DefaultCleanupInterval is the default interval between cleanup runs.
	DefaultCleanupInterval = timeout.SessionCleanupInterval
)

// CleanupConfig holds configuration for the cleanup job.
type CleanupConfig struct {
	MaxIdle         time.Duration // Idle time after which a context is removed (default: 24h)
	CleanupInterval time.Duration // Interval between cleanup runs (default: 10m)
}

// DefaultCleanupConfig returns the default cleanup configuration.
func DefaultCleanupConfig() CleanupConfig {
	return CleanupConfig{
		MaxIdle:         DefaultMaxIdle,
		CleanupInterval: DefaultCleanupInterval,
	}
}

// SessionCleanupJob periodically evicts idle user contexts from a Store.
type SessionCleanupJob struct {
	store  Store
	config CleanupConfig

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
}

// NewSessionCleanupJob creates a new cleanup job.
func NewSessionCleanupJob(store Store, config CleanupConfig) *SessionCleanupJob {
	if config.MaxIdle <= 0 {
		config.MaxIdle = DefaultMaxIdle
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultCleanupInterval
	}

	return &SessionCleanupJob{
		store:  store,
		config: config,
	}
}

// Start begins the periodic cleanup job in a goroutine.
func (j *SessionCleanupJob) Start(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.running {
		return nil // Already running
	}

	j.running = true
	j.stopChan = make(chan struct{})

	go j.run(ctx, j.stopChan)

	slog.Info("session cleanup job started",
		"max_idle", j.config.MaxIdle,
		"interval", j.config.CleanupInterval)

	return nil
}

// Stop stops the cleanup job.
func (j *SessionCleanupJob) Stop() {
	j.mu.Lock()
	defer j.mu.Unlock()

	if !j.running {
		return
	}

	close(j.stopChan)
	j.running = false

	slog.Info("session cleanup job stopped")
}

// RunOnce executes a single cleanup run immediately.
func (j *SessionCleanupJob) RunOnce(ctx context.Context) (int64, error) {
	return j.store.CleanupIdle(ctx, j.config.MaxIdle)
}

func (j *SessionCleanupJob) run(ctx context.Context, stop <-chan struct{}) {
	ticker := time.NewTicker(j.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stop:
			return
		case <-ticker.C:
			if removed, err := j.RunOnce(ctx); err != nil {
				slog.Error("session cleanup failed", "error", err)
			} else if removed > 0 {
				slog.Info("session cleanup completed", "removed", removed)
			}
		}
	}
}

// IsRunning returns whether the cleanup job is currently running.
func (j *SessionCleanupJob) IsRunning() bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.running
}
