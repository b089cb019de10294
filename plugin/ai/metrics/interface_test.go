package metrics

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRecorderContract tests the Recorder contract against the aggregator.
func TestRecorderContract(t *testing.T) {
	var rec Recorder = NewAggregator()

	t.Run("Record_CountsOutcomes", func(t *testing.T) {
		rec.Reset()
		rec.Record(Sample{Intent: "calendar_scheduling", Action: "dispatch", Target: "ms-graph-calendar", Confidence: 0.8, MappingOK: true, Dispatched: true})
		rec.Record(Sample{Intent: "email_management", Action: "needs_clarification", Confidence: 0.3, FallbackUsed: true})
		rec.Record(Sample{Intent: "calendar_scheduling", Action: "target_unavailable", Confidence: 0.7, MappingOK: true})

		stats := rec.Snapshot(5)
		assert.EqualValues(t, 3, stats.TotalRequests)
		assert.EqualValues(t, 1, stats.SuccessfulRoutings)
		assert.EqualValues(t, 1, stats.FallbackUsages)
		assert.EqualValues(t, 2, stats.IntentCounts["calendar_scheduling"])
		assert.NotContains(t, stats.IntentCounts, "email_management")
		assert.EqualValues(t, 1, stats.TargetUsage["ms-graph-calendar"])
		assert.EqualValues(t, 1, stats.ActionCounts["needs_clarification"])
		assert.InDelta(t, 0.6, stats.AverageConfidence, 1e-9)
		assert.InDelta(t, 1.0/3.0, stats.SuccessRate, 1e-9)
	})

	t.Run("Snapshot_TopN", func(t *testing.T) {
		rec.Reset()
		for i, intent := range []string{"a", "b", "b", "c", "c", "c"} {
			rec.Record(Sample{Intent: intent, MappingOK: true, Dispatched: true, Target: fmt.Sprintf("t-%s", intent), Latency: time.Duration(i) * time.Millisecond})
		}

		stats := rec.Snapshot(2)
		require.Len(t, stats.TopIntents, 2)
		assert.Equal(t, RankedCount{Name: "c", Count: 3}, stats.TopIntents[0])
		assert.Equal(t, RankedCount{Name: "b", Count: 2}, stats.TopIntents[1])
		require.Len(t, stats.TopTargets, 2)
		assert.Equal(t, "t-c", stats.TopTargets[0].Name)
	})

	t.Run("Snapshot_TiesOrderedByName", func(t *testing.T) {
		rec.Reset()
		rec.Record(Sample{Intent: "zeta", MappingOK: true})
		rec.Record(Sample{Intent: "alpha", MappingOK: true})

		stats := rec.Snapshot(10)
		require.Len(t, stats.TopIntents, 2)
		assert.Equal(t, "alpha", stats.TopIntents[0].Name)
	})

	t.Run("Snapshot_IsCopy", func(t *testing.T) {
		rec.Reset()
		rec.Record(Sample{Intent: "a", MappingOK: true})

		stats := rec.Snapshot(5)
		stats.IntentCounts["a"] = 100

		assert.EqualValues(t, 1, rec.Snapshot(5).IntentCounts["a"])
	})

	t.Run("Reset_ZeroesEverything", func(t *testing.T) {
		rec.Record(Sample{Intent: "a", MappingOK: true, Dispatched: true, Target: "x", Confidence: 1})
		rec.Reset()

		stats := rec.Snapshot(5)
		assert.Zero(t, stats.TotalRequests)
		assert.Zero(t, stats.AverageConfidence)
		assert.Zero(t, stats.SuccessRate)
		assert.Empty(t, stats.IntentCounts)
		assert.Empty(t, stats.TopTargets)
		assert.NotNil(t, stats.TargetUsage)
	})

	t.Run("Snapshot_Percentiles", func(t *testing.T) {
		rec.Reset()
		for i := 1; i <= 10; i++ {
			rec.Record(Sample{Latency: time.Duration(i*10) * time.Millisecond})
		}

		stats := rec.Snapshot(0)
		assert.GreaterOrEqual(t, stats.LatencyP50, 40*time.Millisecond)
		assert.LessOrEqual(t, stats.LatencyP50, 60*time.Millisecond)
		assert.GreaterOrEqual(t, stats.LatencyP95, 80*time.Millisecond)
		assert.Empty(t, stats.TopIntents)
	})
}

func TestAggregator_Monotonic(t *testing.T) {
	agg := NewAggregator()
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			agg.Record(Sample{Intent: "a", MappingOK: true, Dispatched: i%3 == 0, Target: "x", Confidence: 0.5})
		}(i)
	}
	wg.Wait()

	stats := agg.Snapshot(5)
	assert.EqualValues(t, 100, stats.TotalRequests)
	assert.LessOrEqual(t, stats.SuccessfulRoutings, stats.TotalRequests)
	assert.EqualValues(t, 34, stats.SuccessfulRoutings)
	assert.InDelta(t, 0.5, stats.AverageConfidence, 1e-9)
}

func TestAggregator_LatencyWindowBounded(t *testing.T) {
	agg := NewAggregator()
	for i := 0; i < maxLatencySamples+250; i++ {
		agg.Record(Sample{Latency: time.Millisecond})
	}
	assert.Len(t, agg.latencies, maxLatencySamples)
	assert.Equal(t, 250, agg.next)
}
