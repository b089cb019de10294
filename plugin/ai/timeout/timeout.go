// Package timeout defines centralized timeout constants for routing operations.
package timeout

import "time"

const (
	// RouteTimeout bounds one HTTP route or analyze request, session access included.
	RouteTimeout = 5 * time.Second

	// ShutdownTimeout is how long the HTTP front-end waits for in-flight requests on shutdown.
	ShutdownTimeout = 10 * time.Second

	// ConfigReloadDebounce coalesces bursts of file events into one catalog reload.
	ConfigReloadDebounce = 500 * time.Millisecond

	// SessionCleanupInterval is the default interval between idle session sweeps.
	SessionCleanupInterval = 10 * time.Minute

	// SessionMaxIdle is the default idle time after which a user's context is dropped.
	SessionMaxIdle = 24 * time.Hour
)
