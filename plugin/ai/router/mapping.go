package router

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	routererrors "github.com/CoworkedShawn/openclaw-skills/internal/errors"
)

// SkillMapping routes one intent to a primary target and its fallbacks.
type SkillMapping struct {
	PrimarySkill        string   `yaml:"primary_skill" json:"primary_skill"`
	FallbackSkills      []string `yaml:"fallback_skills" json:"fallback_skills"`
	RequiredTools       []string `yaml:"required_tools" json:"required_tools"`
	ContextPreservation bool     `yaml:"context_preservation" json:"context_preservation"`
	ConfidenceThreshold float64  `yaml:"confidence_threshold" json:"confidence_threshold"`
}

// Validate checks a mapping before it is published.
func (m SkillMapping) Validate() error {
	if strings.TrimSpace(m.PrimarySkill) == "" {
		return routererrors.InvalidConfig("primary_skill is required", nil)
	}
	if m.ConfidenceThreshold < 0 || m.ConfidenceThreshold > 1 {
		return routererrors.InvalidConfig(
			fmt.Sprintf("confidence_threshold %.2f outside [0,1]", m.ConfidenceThreshold), nil)
	}
	return nil
}

// Candidates returns the primary skill followed by the fallbacks, in order.
func (m SkillMapping) Candidates() []string {
	return append([]string{m.PrimarySkill}, m.FallbackSkills...)
}

func (m SkillMapping) clone() SkillMapping {
	m.FallbackSkills = slices.Clone(m.FallbackSkills)
	m.RequiredTools = slices.Clone(m.RequiredTools)
	return m
}

// GenericMapping is used when the catalog has no mapping for the generic intent.
func GenericMapping() SkillMapping {
	return SkillMapping{
		PrimarySkill:        GenericTarget,
		ContextPreservation: true,
		ConfidenceThreshold: 0.3,
	}
}

// DefaultMappings returns the built-in skill mapping table.
func DefaultMappings() map[string]SkillMapping {
	return map[string]SkillMapping{
		"calendar_scheduling": {
			PrimarySkill:        "ms-graph-calendar",
			FallbackSkills:      []string{"google-calendar"},
			RequiredTools:       []string{"calendar_read", "calendar_write"},
			ContextPreservation: true,
			ConfidenceThreshold: 0.5,
		},
		"email_management": {
			PrimarySkill:        "ms-graph-email",
			FallbackSkills:      []string{"gmail"},
			RequiredTools:       []string{"mail_read", "mail_send"},
			ContextPreservation: true,
			ConfidenceThreshold: 0.5,
		},
		"file_operations": {
			PrimarySkill:        "file-manager",
			FallbackSkills:      []string{"shell"},
			RequiredTools:       []string{"filesystem"},
			ConfidenceThreshold: 0.5,
		},
		"web_research": {
			PrimarySkill:        "web-search",
			FallbackSkills:      []string{"browser"},
			RequiredTools:       []string{"web_fetch"},
			ConfidenceThreshold: 0.4,
		},
		"coding_assistance": {
			PrimarySkill:        "coding-agent",
			FallbackSkills:      []string{"shell"},
			RequiredTools:       []string{"filesystem", "exec"},
			ContextPreservation: true,
			ConfidenceThreshold: 0.5,
		},
		"social_media": {
			PrimarySkill:        "meta-social",
			FallbackSkills:      []string{"buffer"},
			RequiredTools:       []string{"meta_graph_api"},
			ConfidenceThreshold: 0.5,
		},
		"crm_contact": {
			PrimarySkill:        "crm",
			RequiredTools:       []string{"crm_api"},
			ContextPreservation: true,
			ConfidenceThreshold: 0.5,
		},
		"wordpress_publishing": {
			PrimarySkill:        "wordpress",
			RequiredTools:       []string{"wp_rest_api"},
			ConfidenceThreshold: 0.5,
		},
		"video_production": {
			PrimarySkill:        "video-pipeline",
			RequiredTools:       []string{"ffmpeg"},
			ConfidenceThreshold: 0.5,
		},
		GenericIntent: GenericMapping(),
	}
}

// MappingTable is an immutable intent-to-skill table.
type MappingTable struct {
	mappings map[string]SkillMapping
}

// NewMappingTable validates and copies mappings.
func NewMappingTable(mappings map[string]SkillMapping) (*MappingTable, error) {
	t := &MappingTable{mappings: make(map[string]SkillMapping, len(mappings))}
	for intent, m := range mappings {
		if err := m.Validate(); err != nil {
			return nil, routererrors.Wrap(err, routererrors.ErrCodeInvalidConfig, "mapping "+intent)
		}
		t.mappings[intent] = m.clone()
	}
	return t, nil
}

// With returns a copy of the table with m stored under intent.
func (t *MappingTable) With(intent string, m SkillMapping) *MappingTable {
	next := &MappingTable{mappings: maps.Clone(t.mappings)}
	next.mappings[intent] = m.clone()
	return next
}

// Get returns the mapping for intent.
func (t *MappingTable) Get(intent string) (SkillMapping, bool) {
	m, ok := t.mappings[intent]
	if !ok {
		return SkillMapping{}, false
	}
	return m.clone(), true
}

// Generic returns the mapping of the generic intent.
func (t *MappingTable) Generic() SkillMapping {
	if m, ok := t.Get(GenericIntent); ok {
		return m
	}
	return GenericMapping()
}

// Intents returns the mapped intent ids, sorted.
func (t *MappingTable) Intents() []string {
	return slices.Sorted(maps.Keys(t.mappings))
}

// All returns a copy of every mapping.
func (t *MappingTable) All() map[string]SkillMapping {
	out := make(map[string]SkillMapping, len(t.mappings))
	for intent, m := range t.mappings {
		out[intent] = m.clone()
	}
	return out
}

// Recommendation is the mapping verdict for one analysis.
type Recommendation struct {
	Success             bool
	Intent              string
	Confidence          float64
	PrimarySkill        string
	FallbackSkills      []string
	RequiredTools       []string
	ContextPreservation bool
	Parameters          map[string]string
	Reason              string
	Suggestion          string
	// Fallback is set on failure: the generic mapping when none exists,
	// otherwise the under-confident mapping itself.
	Fallback *SkillMapping
}

// Recommend resolves the analysis against the table. It never fails hard.
func (t *MappingTable) Recommend(result *AnalysisResult) *Recommendation {
	rec := &Recommendation{
		Intent:     result.PrimaryIntent,
		Confidence: result.Confidence,
		Parameters: result.Parameters,
	}

	m, ok := t.Get(result.PrimaryIntent)
	if !ok {
		generic := t.Generic()
		rec.Reason = fmt.Sprintf("no skill mapping for intent %s", result.PrimaryIntent)
		rec.Suggestion = "use the generic assistant or add a skill mapping"
		rec.Fallback = &generic
		return rec
	}

	if result.Confidence < m.ConfidenceThreshold {
		rec.Reason = fmt.Sprintf("confidence %.2f below threshold %.2f (gap %.2f)",
			result.Confidence, m.ConfidenceThreshold, m.ConfidenceThreshold-result.Confidence)
		rec.Suggestion = "ask the user to clarify"
		rec.Fallback = &m
		return rec
	}

	rec.Success = true
	rec.PrimarySkill = m.PrimarySkill
	rec.FallbackSkills = m.FallbackSkills
	rec.RequiredTools = m.RequiredTools
	rec.ContextPreservation = m.ContextPreservation
	return rec
}
