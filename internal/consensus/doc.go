// Wayfarer - Travel Safety Compatibility Matching
// Copyright 2026 Wayfarer Travel
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfarer-travel/matchcore

// Package consensus implements the optional cross-validation pass over
// ranked matches using an external natural-language reasoning service.
//
// Each surviving top match gets one independent call. Calls run with
// bounded concurrency, a per-call timeout, a rate limiter and a circuit
// breaker; the batch's total latency approaches a single call rather
// than growing linearly with the match count.
//
// The service operates under a strict anti-hallucination contract: it
// judges only the structured facts supplied and answers in a fixed
// two-line format. The response is validated against the closed
// {PERFECT, GREAT, GOOD, POOR} verdict set; the line-prefix format is
// purely the upstream wire contract. A POOR verdict keeps the match but
// flips its verified flag; transport and parse failures degrade locally
// to a verified GOOD with a diagnostic note and never fail a request.
package consensus
