// Wayfarer - Travel Safety Compatibility Matching
// Copyright 2026 Wayfarer Travel
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfarer-travel/matchcore

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the matching core:
// - Match request throughput and latency
// - Candidate exclusions by reason
// - Cluster model training
// - Consensus verification outcomes

var (
	// Match Request Metrics
	MatchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchcore_requests_total",
			Help: "Total number of find-matches requests",
		},
		[]string{"outcome"}, // "ok", "empty", "rejected"
	)

	MatchLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matchcore_request_duration_seconds",
			Help:    "Duration of find-matches requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	MatchesReturned = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matchcore_matches_returned",
			Help:    "Number of matches returned per request",
			Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
		},
	)

	CandidatesExcluded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchcore_candidates_excluded_total",
			Help: "Candidates excluded during matching, by reason",
		},
		[]string{"reason"}, // "self", "ineligible", "no_common_language", "below_threshold"
	)

	// Training Metrics
	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchcore_training_runs_total",
			Help: "Cluster model training runs by outcome",
		},
		[]string{"outcome"}, // "ok", "error"
	)

	TrainingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matchcore_training_duration_seconds",
			Help:    "Duration of cluster model training in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)

	ModelVersion = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "matchcore_model_version",
			Help: "Version of the currently active cluster model",
		},
	)

	// Consensus Verification Metrics
	ConsensusCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "matchcore_consensus_calls_total",
			Help: "Consensus verification calls by verdict",
		},
		[]string{"verdict"}, // "PERFECT", "GREAT", "GOOD", "POOR", "degraded"
	)

	ConsensusLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "matchcore_consensus_call_duration_seconds",
			Help:    "Duration of individual consensus calls in seconds",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
	)
)

// ObserveMatchRequest records one find-matches request.
func ObserveMatchRequest(outcome string, returned int, duration time.Duration) {
	MatchRequests.WithLabelValues(outcome).Inc()
	MatchLatency.Observe(duration.Seconds())
	MatchesReturned.Observe(float64(returned))
}

// ObserveTraining records one training run.
func ObserveTraining(err error, version int, duration time.Duration) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	TrainingRuns.WithLabelValues(outcome).Inc()
	TrainingDuration.Observe(duration.Seconds())
	if err == nil {
		ModelVersion.Set(float64(version))
	}
}
