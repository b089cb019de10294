package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMappingTable_Recommend(t *testing.T) {
	table, err := NewMappingTable(DefaultMappings())
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		rec := table.Recommend(&AnalysisResult{
			PrimaryIntent: "calendar_scheduling",
			Confidence:    0.7,
			Parameters:    map[string]string{"time": "2pm"},
		})
		assert.True(t, rec.Success)
		assert.Equal(t, "ms-graph-calendar", rec.PrimarySkill)
		assert.Equal(t, []string{"google-calendar"}, rec.FallbackSkills)
		assert.Equal(t, []string{"calendar_read", "calendar_write"}, rec.RequiredTools)
		assert.True(t, rec.ContextPreservation)
		assert.Equal(t, "2pm", rec.Parameters["time"])
		assert.Equal(t, 0.7, rec.Confidence)
		assert.Nil(t, rec.Fallback)
	})

	t.Run("at threshold succeeds", func(t *testing.T) {
		rec := table.Recommend(&AnalysisResult{PrimaryIntent: "web_research", Confidence: 0.4})
		assert.True(t, rec.Success)
	})

	t.Run("below threshold keeps mapping as fallback", func(t *testing.T) {
		rec := table.Recommend(&AnalysisResult{PrimaryIntent: "email_management", Confidence: 0.35})
		assert.False(t, rec.Success)
		assert.Equal(t, "confidence 0.35 below threshold 0.50 (gap 0.15)", rec.Reason)
		assert.Equal(t, "ask the user to clarify", rec.Suggestion)
		require.NotNil(t, rec.Fallback)
		assert.Equal(t, "ms-graph-email", rec.Fallback.PrimarySkill)
		assert.Equal(t, []string{"gmail"}, rec.Fallback.FallbackSkills)
	})

	t.Run("missing mapping points at generic", func(t *testing.T) {
		rec := table.Recommend(&AnalysisResult{PrimaryIntent: "unknown_intent", Confidence: 0.9})
		assert.False(t, rec.Success)
		assert.Equal(t, "no skill mapping for intent unknown_intent", rec.Reason)
		require.NotNil(t, rec.Fallback)
		assert.Equal(t, GenericTarget, rec.Fallback.PrimarySkill)
	})
}

func TestMappingTable_CopyOnWrite(t *testing.T) {
	table, err := NewMappingTable(map[string]SkillMapping{
		"a": {PrimarySkill: "x", FallbackSkills: []string{"y"}},
	})
	require.NoError(t, err)

	next := table.With("b", SkillMapping{PrimarySkill: "z"})
	assert.Equal(t, []string{"a"}, table.Intents())
	assert.Equal(t, []string{"a", "b"}, next.Intents())

	m, _ := table.Get("a")
	m.FallbackSkills[0] = "mutated"
	again, _ := table.Get("a")
	assert.Equal(t, []string{"y"}, again.FallbackSkills)

	assert.Equal(t, GenericMapping(), table.Generic())
}

func TestNewMappingTable_Invalid(t *testing.T) {
	_, err := NewMappingTable(map[string]SkillMapping{"a": {ConfidenceThreshold: 0.5}})
	assert.Error(t, err)
}
