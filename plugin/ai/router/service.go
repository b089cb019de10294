package router

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/pkg/errors"

	routererrors "github.com/CoworkedShawn/openclaw-skills/internal/errors"
	"github.com/CoworkedShawn/openclaw-skills/internal/observability"
	"github.com/CoworkedShawn/openclaw-skills/plugin/ai/metrics"
	"github.com/CoworkedShawn/openclaw-skills/plugin/ai/session"
	"github.com/CoworkedShawn/openclaw-skills/plugin/ai/skills"
)

// Service implements RouterService on top of a versioned config snapshot,
// a session store, a statistics recorder and a target registry.
type Service struct {
	config   *ConfigStore
	sessions session.Store
	stats    metrics.Recorder
	registry skills.Registry
	logger   *slog.Logger
}

// Config contains the dependencies of the router service. Nil fields get in-memory defaults.
type Config struct {
	ConfigStore *ConfigStore
	Sessions    session.Store
	Stats       metrics.Recorder
	Registry    skills.Registry
	Logger      *slog.Logger
}

// NewService creates a new router service.
func NewService(cfg Config) *Service {
	if cfg.ConfigStore == nil {
		cfg.ConfigStore = NewDefaultConfigStore()
	}
	if cfg.Sessions == nil {
		cfg.Sessions = session.NewMemoryStore()
	}
	if cfg.Stats == nil {
		cfg.Stats = metrics.NewAggregator()
	}
	if cfg.Registry == nil {
		cfg.Registry = skills.AllowAll()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Service{
		config:   cfg.ConfigStore,
		sessions: cfg.Sessions,
		stats:    cfg.Stats,
		registry: cfg.Registry,
		logger:   cfg.Logger,
	}
}

// ConfigStore returns the store the service reads configuration from.
func (s *Service) ConfigStore() *ConfigStore {
	return s.config
}

// Analyze scores a message against the current catalog using the caller's session.
func (s *Service) Analyze(ctx context.Context, message string, cc CallerContext) (*AnalysisResult, error) {
	userID := cc.ResolvedUserID()
	sc, err := s.sessions.Load(ctx, userID)
	if err != nil {
		return nil, sessionError(userID, err)
	}
	snap := s.config.Snapshot()
	if sc == nil {
		sc = historySession(userID, cc.RecentHistory, snap.Catalog)
	}
	result := snap.Analyzer.Analyze(message, sc)
	result.Context = cc
	return result, nil
}

// historySession builds a transient context from caller-supplied history.
// It returns nil when no entry names a known intent.
func historySession(userID string, history []string, catalog *Catalog) *session.SessionContext {
	var known []string
	for _, intent := range history {
		if _, ok := catalog.Get(intent); !ok {
			continue
		}
		known = append(known, intent)
		if len(known) == session.MaxRecentIntents {
			break
		}
	}
	if len(known) == 0 {
		return nil
	}
	sc := session.NewSessionContext(userID)
	sc.RecentIntents = known
	return sc
}

// routeState tracks how far a Route call got, for error reporting.
type routeState struct {
	snapshot *Snapshot
	result   *AnalysisResult
	recorded bool
}

// Route analyzes a message and decides where it should go. It never panics.
func (s *Service) Route(ctx context.Context, message string, cc CallerContext) (decision *RoutingDecision) {
	userID := cc.ResolvedUserID()
	rc := s.requestContext(ctx, userID)
	state := &routeState{snapshot: s.config.Snapshot()}

	defer func() {
		if r := recover(); r != nil {
			decision = s.systemError(rc, state, routererrors.Internal("routing panicked", fmt.Errorf("%v", r)))
		}
	}()

	decision, err := s.route(ctx, rc, state, message, cc)
	if err != nil {
		return s.systemError(rc, state, err)
	}

	rc.Info("message routed",
		slog.String(observability.LogFieldIntent, decision.Intent),
		slog.String(observability.LogFieldAction, string(decision.Action)),
		slog.String(observability.LogFieldTarget, decision.Target),
		slog.Float64("confidence", decision.Confidence),
		slog.Int(observability.LogFieldMessageLen, len(message)),
		slog.Int64(observability.LogFieldDuration, decision.Metadata.LatencyMs))
	return decision
}

func (s *Service) route(ctx context.Context, rc *observability.RequestContext, state *routeState, message string, cc CallerContext) (*RoutingDecision, error) {
	sc, err := s.sessions.Load(ctx, rc.UserID)
	if err != nil {
		return nil, sessionError(rc.UserID, err)
	}

	if sc == nil {
		sc = historySession(rc.UserID, cc.RecentHistory, state.snapshot.Catalog)
	}
	result := state.snapshot.Analyzer.Analyze(message, sc)
	result.Context = cc
	state.result = result

	rec := state.snapshot.Mappings.Recommend(result)
	decision := s.decide(result, rec)
	decision.Metadata.RequestID = rc.RequestID
	decision.Metadata.ConfigVersion = state.snapshot.Version

	rc.Debug("intent classified",
		slog.String("input", truncate(message, 50)),
		slog.String(observability.LogFieldIntent, result.PrimaryIntent),
		slog.Float64("confidence", result.Confidence),
		slog.Bool("mapping_ok", rec.Success))

	// The session is updated before statistics so a failed update is counted as a system error only.
	dispatched := decision.Action == ActionDispatch
	now := time.Now()
	if _, err := s.sessions.Update(ctx, rc.UserID, func(sc *session.SessionContext) {
		sc.PushIntent(result.PrimaryIntent)
		sc.RecordOutcome(dispatched, now)
	}); err != nil {
		return nil, sessionError(rc.UserID, err)
	}

	decision.Metadata.LatencyMs = rc.DurationMs()
	s.stats.Record(metrics.Sample{
		Intent:       result.PrimaryIntent,
		Action:       string(decision.Action),
		Target:       decision.Target,
		Confidence:   result.Confidence,
		MappingOK:    rec.Success,
		Dispatched:   dispatched,
		FallbackUsed: decision.Metadata.FallbackUsed,
		Latency:      rc.Duration(),
	})
	state.recorded = true

	return decision, nil
}

// decide turns a recommendation into a decision using target availability.
func (s *Service) decide(result *AnalysisResult, rec *Recommendation) *RoutingDecision {
	decision := &RoutingDecision{
		Intent:     result.PrimaryIntent,
		Confidence: result.Confidence,
		Parameters: maps.Clone(result.Parameters),
		Metadata: DecisionMetadata{
			ConfidenceTier: TierFor(result.Confidence),
			FallbackUsed:   result.NoMatch,
		},
	}

	if !rec.Success {
		decision.Action = ActionNeedsClarification
		decision.Reason = rec.Reason
		decision.Suggestion = rec.Suggestion
		decision.Alternatives = slices.Clone(result.Alternatives())
		decision.FallbackTarget = GenericTarget
		if rec.Fallback != nil {
			decision.AvailableFallbacks = s.available(rec.Fallback.Candidates())
			decision.RequiredCapabilities = slices.Clone(rec.Fallback.RequiredTools)
			decision.ContextPreservation = rec.Fallback.ContextPreservation
		}
		return decision
	}

	decision.RequiredCapabilities = slices.Clone(rec.RequiredTools)
	decision.ContextPreservation = rec.ContextPreservation

	fallbacks := s.available(rec.FallbackSkills)
	switch {
	case s.registry.Has(rec.PrimarySkill):
		decision.Target = rec.PrimarySkill
	case len(fallbacks) > 0:
		decision.Target = fallbacks[0]
		decision.Metadata.FallbackUsed = true
	default:
		decision.Action = ActionTargetUnavailable
		decision.RequestedTarget = rec.PrimarySkill
		decision.FallbackTarget = GenericTarget
		decision.Reason = fmt.Sprintf("target %s and its fallbacks are unavailable", rec.PrimarySkill)
		decision.Suggestion = "install or enable one of the mapped skills"
		return decision
	}

	decision.Success = true
	decision.Action = ActionDispatch
	decision.AvailableFallbacks = fallbacks
	return decision
}

// available filters names down to registered targets, keeping order.
func (s *Service) available(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name != "" && s.registry.Has(name) && !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	return out
}

// systemError builds the decision for an unexpected failure and records it once.
func (s *Service) systemError(rc *observability.RequestContext, state *routeState, err error) *RoutingDecision {
	decision := &RoutingDecision{
		Action:         ActionSystemError,
		FallbackTarget: GenericTarget,
		Reason:         "internal routing error",
		Suggestion:     "retry the request or use the generic assistant",
		Error:          err.Error(),
		Metadata: DecisionMetadata{
			ConfidenceTier: TierVeryLow,
			RequestID:      rc.RequestID,
			LatencyMs:      rc.DurationMs(),
		},
	}
	if state.snapshot != nil {
		decision.Metadata.ConfigVersion = state.snapshot.Version
	}
	if state.result != nil {
		decision.Intent = state.result.PrimaryIntent
		decision.Confidence = state.result.Confidence
		decision.Metadata.ConfidenceTier = TierFor(state.result.Confidence)
	}

	if !state.recorded {
		state.recorded = true
		s.stats.Record(metrics.Sample{
			Intent:     decision.Intent,
			Action:     string(ActionSystemError),
			Confidence: decision.Confidence,
			Latency:    rc.Duration(),
		})
	}

	rc.Error("routing failed", err,
		slog.String(observability.LogFieldErrorCode, string(routererrors.GetCodeFromError(err, routererrors.ErrCodeInternal))))
	return decision
}

// Stats returns the aggregate statistics.
func (s *Service) Stats(topN int) *metrics.RoutingStatistics {
	return s.stats.Snapshot(topN)
}

// ResetStats zeroes all statistics.
func (s *Service) ResetStats() {
	s.stats.Reset()
}

// Session returns the user's rolling context, or nil if the user has none.
func (s *Service) Session(ctx context.Context, userID string) (*session.SessionContext, error) {
	if userID == "" {
		userID = session.AnonymousUserID
	}
	sc, err := s.sessions.Load(ctx, userID)
	if err != nil {
		return nil, sessionError(userID, err)
	}
	return sc, nil
}

// ResetSession forgets the user's rolling context.
func (s *Service) ResetSession(ctx context.Context, userID string) error {
	if userID == "" {
		userID = session.AnonymousUserID
	}
	if err := s.sessions.Delete(ctx, userID); err != nil {
		return sessionError(userID, err)
	}
	return nil
}

// ListIntents returns the current catalog.
func (s *Service) ListIntents() map[string]IntentSpec {
	return s.config.Snapshot().Catalog.Specs()
}

// ListMappings returns the current mapping table.
func (s *Service) ListMappings() map[string]SkillMapping {
	return s.config.Snapshot().Mappings.All()
}

func (s *Service) requestContext(ctx context.Context, userID string) *observability.RequestContext {
	if parent, ok := observability.FromContext(ctx); ok {
		return observability.NewRequestContextWithID(s.logger, parent.RequestID, userID)
	}
	return observability.NewRequestContext(s.logger, userID)
}

func sessionError(userID string, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return routererrors.ContextCanceled(err)
	}
	return routererrors.SessionUnavailable(userID, err)
}

// truncate truncates a string to maxLen bytes.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// Ensure Service implements RouterService
var _ RouterService = (*Service)(nil)
