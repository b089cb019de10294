package router

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/CoworkedShawn/openclaw-skills/plugin/ai/metrics"
	"github.com/CoworkedShawn/openclaw-skills/plugin/ai/session"
)

// MockRouterService is a mock implementation of RouterService for testing.
type MockRouterService struct {
	// DecisionOverrides allows tests to override routing results per message.
	DecisionOverrides map[string]*RoutingDecision
	// AnalyzeErr, when set, is returned by Analyze.
	AnalyzeErr error

	mu       sync.Mutex
	calls    []string
	stats    *metrics.Aggregator
	sessions *session.MemoryStore
}

// NewMockRouterService creates a new MockRouterService.
func NewMockRouterService() *MockRouterService {
	return &MockRouterService{
		DecisionOverrides: make(map[string]*RoutingDecision),
		stats:             metrics.NewAggregator(),
		sessions:          session.NewMemoryStore(),
	}
}

// Calls returns the messages passed to Route, in order.
func (m *MockRouterService) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Analyze classifies with a handful of fixed keyword rules.
func (m *MockRouterService) Analyze(ctx context.Context, message string, cc CallerContext) (*AnalysisResult, error) {
	if m.AnalyzeErr != nil {
		return nil, m.AnalyzeErr
	}
	intent, confidence := classify(message)
	return &AnalysisResult{
		PrimaryIntent: intent,
		Confidence:    confidence,
		RankedIntents: []ScoredIntent{{Intent: intent, Score: confidence}},
		Parameters:    map[string]string{},
		Context:       cc,
		NoMatch:       intent == GenericIntent,
		Timestamp:     time.Now(),
	}, nil
}

// Route returns an override when one is registered, otherwise dispatches to "<intent>-skill".
func (m *MockRouterService) Route(ctx context.Context, message string, cc CallerContext) *RoutingDecision {
	m.mu.Lock()
	m.calls = append(m.calls, message)
	m.mu.Unlock()

	decision, ok := m.DecisionOverrides[message]
	if !ok {
		intent, confidence := classify(message)
		decision = &RoutingDecision{
			Success:    true,
			Action:     ActionDispatch,
			Intent:     intent,
			Confidence: confidence,
			Target:     intent + "-skill",
			Metadata:   DecisionMetadata{ConfidenceTier: TierFor(confidence)},
		}
		if intent == GenericIntent {
			decision.Success = false
			decision.Action = ActionNeedsClarification
			decision.Target = ""
			decision.FallbackTarget = GenericTarget
		}
	}

	m.stats.Record(metrics.Sample{
		Intent:     decision.Intent,
		Action:     string(decision.Action),
		Target:     decision.Target,
		Confidence: decision.Confidence,
		MappingOK:  decision.Action == ActionDispatch || decision.Action == ActionTargetUnavailable,
		Dispatched: decision.Action == ActionDispatch,
	})
	_, _ = m.sessions.Update(ctx, cc.ResolvedUserID(), func(sc *session.SessionContext) {
		sc.PushIntent(decision.Intent)
		sc.RecordOutcome(decision.Success, time.Now())
	})
	return decision
}

// Stats implements RouterService.
func (m *MockRouterService) Stats(topN int) *metrics.RoutingStatistics {
	return m.stats.Snapshot(topN)
}

// ResetStats implements RouterService.
func (m *MockRouterService) ResetStats() {
	m.stats.Reset()
}

// Session implements RouterService.
func (m *MockRouterService) Session(ctx context.Context, userID string) (*session.SessionContext, error) {
	return m.sessions.Load(ctx, userID)
}

// ResetSession implements RouterService.
func (m *MockRouterService) ResetSession(ctx context.Context, userID string) error {
	return m.sessions.Delete(ctx, userID)
}

func classify(message string) (string, float64) {
	lower := strings.ToLower(message)
	switch {
	case containsAny(lower, []string{"meeting", "schedule", "calendar"}):
		return "calendar_scheduling", 0.9
	case containsAny(lower, []string{"email", "inbox"}):
		return "email_management", 0.85
	case containsAny(lower, []string{"search", "look up"}):
		return "web_research", 0.8
	default:
		return GenericIntent, MinConfidence
	}
}

// containsAny checks if s contains any of the patterns.
func containsAny(s string, patterns []string) bool {
	for _, p := range patterns {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

// Ensure MockRouterService implements RouterService
var _ RouterService = (*MockRouterService)(nil)
