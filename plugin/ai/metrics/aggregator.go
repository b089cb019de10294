package metrics

import (
	"maps"
	"sort"
	"sync"
	"time"
)

// maxLatencySamples bounds the latency window used for percentiles.
const maxLatencySamples = 1000

// Aggregator aggregates routing statistics in memory.
type Aggregator struct {
	mu sync.Mutex

	totalRequests      int64
	successfulRoutings int64
	fallbackUsages     int64
	averageConfidence  float64
	intentCounts       map[string]int64
	targetUsage        map[string]int64
	actionCounts       map[string]int64

	// latencies is a ring of the most recent samples, in milliseconds.
	latencies []int64
	next      int
}

// NewAggregator creates a new statistics aggregator.
func NewAggregator() *Aggregator {
	a := &Aggregator{}
	a.reset()
	return a
}

// Record folds one routing outcome into the counters.
// The running mean and every counter move together under one lock.
func (a *Aggregator) Record(s Sample) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.totalRequests++
	n := float64(a.totalRequests)
	a.averageConfidence = (a.averageConfidence*(n-1) + s.Confidence) / n

	if s.MappingOK && s.Intent != "" {
		a.intentCounts[s.Intent]++
	}
	if s.Dispatched {
		a.successfulRoutings++
		if s.Target != "" {
			a.targetUsage[s.Target]++
		}
	}
	if s.FallbackUsed {
		a.fallbackUsages++
	}
	if s.Action != "" {
		a.actionCounts[s.Action]++
	}

	ms := s.Latency.Milliseconds()
	if len(a.latencies) < maxLatencySamples {
		a.latencies = append(a.latencies, ms)
	} else {
		a.latencies[a.next] = ms
		a.next = (a.next + 1) % maxLatencySamples
	}
}

// Snapshot returns a copy of the current statistics.
func (a *Aggregator) Snapshot(topN int) *RoutingStatistics {
	a.mu.Lock()
	defer a.mu.Unlock()

	stats := &RoutingStatistics{
		TotalRequests:      a.totalRequests,
		SuccessfulRoutings: a.successfulRoutings,
		FallbackUsages:     a.fallbackUsages,
		IntentCounts:       maps.Clone(a.intentCounts),
		TargetUsage:        maps.Clone(a.targetUsage),
		ActionCounts:       maps.Clone(a.actionCounts),
		AverageConfidence:  a.averageConfidence,
		TopIntents:         topCounts(a.intentCounts, topN),
		TopTargets:         topCounts(a.targetUsage, topN),
		LatencyP50:         msToDuration(percentile(a.latencies, 50)),
		LatencyP95:         msToDuration(percentile(a.latencies, 95)),
	}
	if a.totalRequests > 0 {
		stats.SuccessRate = float64(a.successfulRoutings) / float64(a.totalRequests)
	}
	return stats
}

// Reset zeroes all counters.
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reset()
}

func (a *Aggregator) reset() {
	a.totalRequests = 0
	a.successfulRoutings = 0
	a.fallbackUsages = 0
	a.averageConfidence = 0
	a.intentCounts = make(map[string]int64)
	a.targetUsage = make(map[string]int64)
	a.actionCounts = make(map[string]int64)
	a.latencies = make([]int64, 0, 100)
	a.next = 0
}

// Ensure Aggregator implements Recorder
var _ Recorder = (*Aggregator)(nil)

// Helper functions

// topCounts returns up to n entries ordered by count descending, then name.
func topCounts(counts map[string]int64, n int) []RankedCount {
	ranked := make([]RankedCount, 0, len(counts))
	for name, count := range counts {
		ranked = append(ranked, RankedCount{Name: name, Count: count})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Count != ranked[j].Count {
			return ranked[i].Count > ranked[j].Count
		}
		return ranked[i].Name < ranked[j].Name
	})
	if n >= 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

func percentile(latencies []int64, p int) int64 {
	if len(latencies) == 0 {
		return 0
	}

	sorted := make([]int64, len(latencies))
	copy(sorted, latencies)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	idx := (len(sorted) - 1) * p / 100
	return sorted[idx]
}

func msToDuration(ms int64) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
