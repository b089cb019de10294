// Package metrics provides process-wide routing statistics for the intent router.
package metrics

import "time"

// Recorder defines the routing statistics store.
// Consumers: router.Service
type Recorder interface {
	// Record folds one routing outcome into the aggregate counters.
	Record(sample Sample)

	// Snapshot returns the current statistics with the topN intents and targets.
	Snapshot(topN int) *RoutingStatistics

	// Reset zeroes all counters.
	Reset()
}

// Sample is the outcome of a single routing call.
type Sample struct {
	Intent       string
	Action       string
	Target       string
	Confidence   float64
	MappingOK    bool // a mapping existed and the confidence met its threshold
	Dispatched   bool // the call ended in a dispatch to Target
	FallbackUsed bool
	Latency      time.Duration
}

// RoutingStatistics represents aggregated routing statistics.
type RoutingStatistics struct {
	TotalRequests      int64            `json:"total_requests"`
	SuccessfulRoutings int64            `json:"successful_routings"`
	FallbackUsages     int64            `json:"fallback_usages"`
	IntentCounts       map[string]int64 `json:"intent_counts"`
	TargetUsage        map[string]int64 `json:"target_usage"`
	ActionCounts       map[string]int64 `json:"action_counts"`
	AverageConfidence  float64          `json:"average_confidence"`
	SuccessRate        float64          `json:"success_rate"`
	TopIntents         []RankedCount    `json:"top_intents"`
	TopTargets         []RankedCount    `json:"top_targets"`
	LatencyP50         time.Duration    `json:"latency_p50"`
	LatencyP95         time.Duration    `json:"latency_p95"`
}

// RankedCount is one entry of a top-N listing.
type RankedCount struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}
