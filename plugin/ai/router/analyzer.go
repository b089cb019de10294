package router

import (
	"strings"
	"time"

	"github.com/CoworkedShawn/openclaw-skills/plugin/ai/session"
)

// Component weights before renormalization.
const (
	keywordWeight = 0.4
	patternWeight = 0.5
	contextWeight = 0.1
	recencyBonus  = 0.1
)

// Analyzer scores messages against a catalog. It is immutable and safe for concurrent use.
type Analyzer struct {
	catalog    *Catalog
	extractors map[string]ParamExtractor
	now        func() time.Time
}

// NewAnalyzer creates an analyzer. Extractors default to DefaultExtractors.
func NewAnalyzer(catalog *Catalog, extractors map[string]ParamExtractor) *Analyzer {
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	if extractors == nil {
		extractors = DefaultExtractors()
	}
	return &Analyzer{
		catalog:    catalog,
		extractors: extractors,
		now:        time.Now,
	}
}

// Catalog returns the catalog the analyzer scores against.
func (a *Analyzer) Catalog() *Catalog {
	return a.catalog
}

// Analyze scores message against every intent. sc may be nil.
func (a *Analyzer) Analyze(message string, sc *session.SessionContext) *AnalysisResult {
	lower := strings.ToLower(message)

	var scored []ScoredIntent
	each(a.catalog, func(def *IntentDefinition) {
		if s := score(def, message, lower, sc); s > 0 {
			scored = append(scored, ScoredIntent{Intent: def.ID, Score: s})
		}
	})

	result := &AnalysisResult{
		Parameters: map[string]string{},
		Timestamp:  a.now(),
	}

	if len(scored) == 0 {
		result.PrimaryIntent = GenericIntent
		result.Confidence = MinConfidence
		result.RankedIntents = []ScoredIntent{{Intent: GenericIntent, Score: MinConfidence}}
		result.NoMatch = true
		return result
	}

	sortScored(scored)
	if len(scored) > MaxRankedIntents {
		scored = scored[:MaxRankedIntents]
	}
	result.PrimaryIntent = scored[0].Intent
	result.Confidence = scored[0].Score
	result.RankedIntents = scored

	if extract, ok := a.extractors[result.PrimaryIntent]; ok {
		for k, v := range extract(message) {
			result.Parameters[k] = v
		}
	}
	return result
}

// score computes one intent's confidence for a message.
//
// Each component only counts toward the denominator when the intent carries
// data for it: keywords, patterns, or at least one non-empty cue list. An
// intent with no keyword and no pattern hit scores zero even when cues or
// recency would contribute.
func score(def *IntentDefinition, message, lower string, sc *session.SessionContext) float64 {
	var total, weights float64
	var kwFrac, patFrac float64

	if len(def.lowerKW) > 0 {
		kwFrac = fraction(len(def.lowerKW), func(i int) bool {
			return strings.Contains(lower, def.lowerKW[i])
		})
		total += keywordWeight * kwFrac
		weights += keywordWeight
	}

	if len(def.compiled) > 0 {
		patFrac = fraction(len(def.compiled), func(i int) bool {
			return def.compiled[i].MatchString(message)
		})
		total += patternWeight * patFrac
		weights += patternWeight
	}

	if kwFrac == 0 && patFrac == 0 {
		return 0
	}

	if len(def.lowerCues) > 0 {
		ctx := fraction(len(def.lowerCues), func(i int) bool {
			for _, cue := range def.lowerCues[i] {
				if strings.Contains(lower, cue) {
					return true
				}
			}
			return false
		})
		if sc.HasRecentIntent(def.ID) {
			ctx += recencyBonus
		}
		total += contextWeight * min(ctx, 1)
		weights += contextWeight
	}

	s := total / weights * def.Priority
	if s > 0 {
		s += def.ConfidenceBoost
	}
	return clamp01(s)
}

func fraction(n int, hit func(int) bool) float64 {
	found := 0
	for i := 0; i < n; i++ {
		if hit(i) {
			found++
		}
	}
	return float64(found) / float64(n)
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
