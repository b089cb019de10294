// Package router scores free-text messages against a declarative intent
// catalog and turns the best match into a routing decision for an external
// skill dispatcher.
package router

import (
	"context"
	"time"

	"github.com/CoworkedShawn/openclaw-skills/plugin/ai/metrics"
	"github.com/CoworkedShawn/openclaw-skills/plugin/ai/session"
)

// RouterService defines the intent routing service interface.
// Consumers: HTTP front-end, CLI
type RouterService interface {
	// Analyze scores a message without routing it or touching statistics.
	Analyze(ctx context.Context, message string, cc CallerContext) (*AnalysisResult, error)

	// Route analyzes a message and decides where it should go.
	// Route never returns an error; failures are reported through the decision's Action.
	Route(ctx context.Context, message string, cc CallerContext) *RoutingDecision

	// Stats returns the aggregate statistics with the topN intents and targets.
	Stats(topN int) *metrics.RoutingStatistics

	// ResetStats zeroes all statistics.
	ResetStats()

	// Session returns the user's rolling context, or nil if the user has none.
	Session(ctx context.Context, userID string) (*session.SessionContext, error)

	// ResetSession forgets the user's rolling context.
	ResetSession(ctx context.Context, userID string) error
}

// Action is what the caller should do with a message.
type Action string

const (
	ActionDispatch           Action = "dispatch"
	ActionNeedsClarification Action = "needs_clarification"
	ActionTargetUnavailable  Action = "target_unavailable"
	ActionSystemError        Action = "system_error"
)

const (
	// GenericIntent is chosen when no intent matches a message.
	GenericIntent = "general_assistance"
	// GenericTarget is the safe default target carried by every non-dispatch decision.
	GenericTarget = "general_assistant"
	// MinConfidence is the confidence reported for the generic intent on no match.
	MinConfidence = 0.1
	// MaxRankedIntents is the number of candidates kept in an AnalysisResult.
	MaxRankedIntents = 3
)

// CallerContext is the optional caller-supplied context for a message.
type CallerContext struct {
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	// RecentHistory lists intent ids the caller saw recently, newest first.
	// It feeds the recency bonus only when no session is stored for the user;
	// unknown ids are ignored and the history is never persisted.
	RecentHistory []string          `json:"recent_history,omitempty"`
	Extra         map[string]string `json:"extra,omitempty"`
}

// ResolvedUserID returns the user id, or session.AnonymousUserID if none was given.
func (c CallerContext) ResolvedUserID() string {
	if c.UserID == "" {
		return session.AnonymousUserID
	}
	return c.UserID
}

// ScoredIntent is one ranked candidate.
type ScoredIntent struct {
	Intent string  `json:"intent"`
	Score  float64 `json:"score"`
}

// AnalysisResult is the analyzer's verdict for one message.
type AnalysisResult struct {
	PrimaryIntent string            `json:"primary_intent"`
	Confidence    float64           `json:"confidence"`
	RankedIntents []ScoredIntent    `json:"ranked_intents"` // primary first, at most MaxRankedIntents
	Parameters    map[string]string `json:"parameters"`
	Context       CallerContext     `json:"context"`
	NoMatch       bool              `json:"no_match"`
	Timestamp     time.Time         `json:"timestamp"`
}

// Alternatives returns the ranked candidates after the primary intent.
func (r *AnalysisResult) Alternatives() []ScoredIntent {
	if len(r.RankedIntents) <= 1 {
		return nil
	}
	return r.RankedIntents[1:]
}

// ConfidenceTier is a human-readable confidence bucket.
type ConfidenceTier string

const (
	TierHigh    ConfidenceTier = "high"
	TierMedium  ConfidenceTier = "medium"
	TierLow     ConfidenceTier = "low"
	TierVeryLow ConfidenceTier = "very_low"
)

// TierFor buckets a confidence score.
func TierFor(confidence float64) ConfidenceTier {
	switch {
	case confidence >= 0.8:
		return TierHigh
	case confidence >= 0.6:
		return TierMedium
	case confidence >= 0.4:
		return TierLow
	default:
		return TierVeryLow
	}
}

// DecisionMetadata describes how a decision was reached.
type DecisionMetadata struct {
	ConfidenceTier ConfidenceTier `json:"confidence_tier"`
	FallbackUsed   bool           `json:"fallback_used"`
	RequestID      string         `json:"request_id"`
	ConfigVersion  uint64         `json:"config_version"`
	LatencyMs      int64          `json:"latency_ms"`
}

// RoutingDecision is the outcome of one Route call.
//
// On dispatch, Target, RequiredCapabilities and Parameters form the contract
// with the execution layer: it resolves Target against its own registry,
// provisions every capability first and passes Parameters verbatim.
type RoutingDecision struct {
	Success              bool              `json:"success"`
	Action               Action            `json:"action"`
	Intent               string            `json:"intent"`
	Confidence           float64           `json:"confidence"`
	Target               string            `json:"target,omitempty"`
	RequestedTarget      string            `json:"requested_target,omitempty"`
	RequiredCapabilities []string          `json:"required_capabilities,omitempty"`
	AvailableFallbacks   []string          `json:"available_fallbacks,omitempty"`
	ContextPreservation  bool              `json:"context_preservation"`
	Parameters           map[string]string `json:"parameters,omitempty"`
	Reason               string            `json:"reason,omitempty"`
	Suggestion           string            `json:"suggestion,omitempty"`
	Alternatives         []ScoredIntent    `json:"alternatives,omitempty"`
	FallbackTarget       string            `json:"fallback_target,omitempty"`
	Error                string            `json:"error,omitempty"`
	Metadata             DecisionMetadata  `json:"metadata"`
}
