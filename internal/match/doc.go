// Wayfarer - Travel Safety Compatibility Matching
// Copyright 2026 Wayfarer Travel
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfarer-travel/matchcore

// Package match implements the compatibility-matching core of the
// Wayfarer travel-safety platform.
//
// Given a requesting traveler and a pool of candidate travelers and
// verified service providers, the engine produces a ranked, filtered
// list of compatible matches with explainable per-signal scores.
//
// # Pipeline
//
//   - Eligibility filter gates both the clustering training population
//     and per-request candidates.
//   - The cluster model (internal/match/cluster) groups the eligible
//     population by coarse demographic and situational features and
//     contributes a same-cluster/cross-cluster similarity signal.
//   - Interest, language, budget and safety scorers run per pair.
//     A non-empty language intersection is mandatory; pairs without a
//     common language never appear in output in either direction.
//   - The composite ranking engine combines all signals with fixed
//     weights, drops sub-threshold pairs, sorts strictly descending
//     and truncates to the requested count.
//   - The optional consensus verifier (internal/consensus) sanity-checks
//     the surviving top matches against an external reasoning service.
//
// # Concurrency
//
// Scoring is synchronous CPU-bound work executed inline per request.
// The trained cluster model is process-wide shared state: predictions
// read a versioned immutable model snapshot, and a retrain atomically
// swaps in a fully-built replacement so in-flight reads keep the old
// model. The model is never persisted; a restart requires retraining.
package match
