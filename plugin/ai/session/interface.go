// Package session provides per-user rolling routing context for the intent router.
package session

import (
	"context"
	"slices"
	"time"
)

const (
	// MaxRecentIntents is the length of the rolling intent history kept per user.
	MaxRecentIntents = 5
	// AnonymousUserID is used when the caller does not identify the user.
	AnonymousUserID = "anonymous"
)

// Store defines the session context storage interface.
// Consumers: router.Service
type Store interface {
	// Load returns a snapshot of the user's context, or nil if the user has none yet.
	Load(ctx context.Context, userID string) (*SessionContext, error)

	// Update applies fn to the user's context atomically, creating it on first use.
	// Returns a snapshot of the context after fn ran.
	Update(ctx context.Context, userID string, fn func(*SessionContext)) (*SessionContext, error)

	// Delete removes the user's context.
	Delete(ctx context.Context, userID string) error

	// CleanupIdle removes contexts whose last interaction is older than maxIdle.
	CleanupIdle(ctx context.Context, maxIdle time.Duration) (int64, error)
}

// SessionContext represents one user's rolling routing history.
type SessionContext struct {
	UserID                 string    `json:"user_id"`
	RecentIntents          []string  `json:"recent_intents"` // newest first
	TotalInteractions      int64     `json:"total_interactions"`
	SuccessfulInteractions int64     `json:"successful_interactions"`
	LastInteraction        time.Time `json:"last_interaction"`
}

// NewSessionContext creates an empty context for userID.
func NewSessionContext(userID string) *SessionContext {
	if userID == "" {
		userID = AnonymousUserID
	}
	return &SessionContext{
		UserID:        userID,
		RecentIntents: []string{},
	}
}

// PushIntent records intent as the most recent one, trimming the history to MaxRecentIntents.
func (s *SessionContext) PushIntent(intent string) {
	history := make([]string, 0, MaxRecentIntents)
	history = append(history, intent)
	history = append(history, s.RecentIntents...)
	if len(history) > MaxRecentIntents {
		history = history[:MaxRecentIntents]
	}
	s.RecentIntents = history
}

// RecordOutcome counts one routing attempt and stamps the interaction time.
func (s *SessionContext) RecordOutcome(success bool, at time.Time) {
	s.TotalInteractions++
	if success {
		s.SuccessfulInteractions++
	}
	s.LastInteraction = at
}

// HasRecentIntent reports whether intent is in the rolling history.
func (s *SessionContext) HasRecentIntent(intent string) bool {
	if s == nil {
		return false
	}
	return slices.Contains(s.RecentIntents, intent)
}

// Clone returns a deep copy.
func (s *SessionContext) Clone() *SessionContext {
	if s == nil {
		return nil
	}
	clone := *s
	clone.RecentIntents = slices.Clone(s.RecentIntents)
	if clone.RecentIntents == nil {
		clone.RecentIntents = []string{}
	}
	return &clone
}
