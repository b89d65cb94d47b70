// Wayfarer - Travel Safety Compatibility Matching
// Copyright 2026 Wayfarer Travel
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfarer-travel/matchcore

package match

// BudgetScore computes the raw budget compatibility between two ranges.
//
// Overlapping ranges score min(overlap/widthA, overlap/widthB), the
// symmetric fairness ratio. Non-overlapping ranges whose gap is under
// NearMissGapRatio of the average width decay linearly from
// NearMissStart down to 0 as the gap approaches that bound. Everything
// else scores 0. The caller applies the configured floor afterwards;
// budget never disqualifies a pair by itself.
func BudgetScore(a, b BudgetRange, cfg BudgetConfig) float64 {
	lo := a.Min
	if b.Min > lo {
		lo = b.Min
	}
	hi := a.Max
	if b.Max < hi {
		hi = b.Max
	}

	if overlap := hi - lo; overlap >= 0 {
		sA := overlap / a.Width()
		sB := overlap / b.Width()
		if sA < sB {
			return sA
		}
		return sB
	}

	gap := lo - hi
	maxGap := cfg.NearMissGapRatio * (a.Width() + b.Width()) / 2
	if maxGap <= 0 || gap >= maxGap {
		return 0
	}
	return cfg.NearMissStart * (1 - gap/maxGap)
}

// flooredBudgetScore applies the soft-signal floor to a raw budget score.
func flooredBudgetScore(a, b BudgetRange, cfg BudgetConfig) float64 {
	s := BudgetScore(a, b, cfg)
	if s < cfg.Floor {
		return cfg.Floor
	}
	return s
}
