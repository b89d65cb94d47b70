// Wayfarer - Travel Safety Compatibility Matching
// Copyright 2026 Wayfarer Travel
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfarer-travel/matchcore

package match

// SafetyScore computes the verification-based safety signal for a pair.
// Every pair starts from the configured base; the bonus is credited
// only when both parties independently pass the eligibility filter.
// The result is capped at 1.0.
func SafetyScore(a, b *User, cfg SafetyConfig) float64 {
	score := cfg.Base
	if Eligible(a) && Eligible(b) {
		score += cfg.VerifiedBonus
	}
	if score > 1 {
		score = 1
	}
	return score
}
