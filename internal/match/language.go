// Wayfarer - Travel Safety Compatibility Matching
// Copyright 2026 Wayfarer Travel
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfarer-travel/matchcore

package match

import (
	"sort"
	"strings"
)

// LanguageOverlap computes the case-insensitive intersection of two
// users' language lists and the resulting language score.
//
// An empty intersection is a hard constraint: the pair is not a
// candidate at all and the caller must short-circuit all further
// scoring. With n common languages the score is min(n / saturation, 1).
// The common list is returned sorted for deterministic output.
func LanguageOverlap(a, b *User, saturation int) ([]string, float64) {
	langsA := a.Languages()
	langsB := b.Languages()
	if len(langsA) == 0 || len(langsB) == 0 {
		return nil, 0
	}

	setA := make(map[string]struct{}, len(langsA))
	for _, l := range langsA {
		setA[strings.ToLower(strings.TrimSpace(l))] = struct{}{}
	}

	seen := make(map[string]struct{}, len(langsB))
	common := make([]string, 0, len(langsB))
	for _, l := range langsB {
		norm := strings.ToLower(strings.TrimSpace(l))
		if _, ok := setA[norm]; !ok {
			continue
		}
		if _, dup := seen[norm]; dup {
			continue
		}
		seen[norm] = struct{}{}
		common = append(common, norm)
	}

	if len(common) == 0 {
		return nil, 0
	}

	sort.Strings(common)

	score := float64(len(common)) / float64(saturation)
	if score > 1 {
		score = 1
	}
	return common, score
}
