// Wayfarer - Travel Safety Compatibility Matching
// Copyright 2026 Wayfarer Travel
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfarer-travel/matchcore

/*
Package metrics provides Prometheus instrumentation for the matching core.

Metrics are registered with the default registry via promauto and cover:
  - Find-matches request throughput, latency and result counts
  - Candidate exclusions by reason (self, ineligible, no common
    language, below threshold)
  - Cluster model training runs, duration and active model version
  - Consensus verification call outcomes and latency

# Usage

Counters and histograms are package-level variables used directly by the
match and consensus packages:

	metrics.CandidatesExcluded.WithLabelValues("self").Inc()
	metrics.ObserveMatchRequest("ok", len(results), time.Since(start))

The hosting process decides how to expose them (promhttp handler or a
push gateway); this package only collects.
*/
package metrics
