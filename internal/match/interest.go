// Wayfarer - Travel Safety Compatibility Matching
// Copyright 2026 Wayfarer Travel
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfarer-travel/matchcore

package match

import (
	"sort"
	"strings"
)

// InterestScore computes the combined interest/bio similarity between
// two users and returns the score with the shared interest keywords.
//
// The keyword component is Jaccard similarity over the case-folded
// interest sets (travel interests for travelers, services offered for
// providers). An empty set on either side yields the configured neutral
// default rather than zero. The bio component is the fraction of shared
// whitespace tokens, saturating at the configured shared-token count;
// an empty bio on either side yields its neutral default. The two
// components combine with the configured keyword/bio weights.
func InterestScore(a, b *User, cfg InterestConfig) (float64, []string) {
	keyword, shared := jaccardInterests(a.Interests(), b.Interests(), cfg.EmptyKeywordDefault)
	bio := bioOverlap(a.Bio, b.Bio, cfg)
	return cfg.KeywordWeight*keyword + cfg.BioWeight*bio, shared
}

// jaccardInterests computes |intersection| / |union| over case-folded
// keyword sets, substituting emptyDefault when either set is empty.
func jaccardInterests(a, b []string, emptyDefault float64) (float64, []string) {
	setA := foldSet(a)
	setB := foldSet(b)

	if len(setA) == 0 || len(setB) == 0 {
		return emptyDefault, nil
	}

	shared := make([]string, 0, len(setA))
	for kw := range setA {
		if _, ok := setB[kw]; ok {
			shared = append(shared, kw)
		}
	}
	sort.Strings(shared)

	union := len(setA) + len(setB) - len(shared)
	if union == 0 {
		return emptyDefault, nil
	}
	return float64(len(shared)) / float64(union), shared
}

// bioOverlap computes the shared-whitespace-token fraction between two
// free-text bios. Tokenization is deliberately crude (no normalization
// beyond case folding, no stopwords); a smarter metric would silently
// change match outcomes.
func bioOverlap(a, b string, cfg InterestConfig) float64 {
	if strings.TrimSpace(a) == "" || strings.TrimSpace(b) == "" {
		return cfg.EmptyBioDefault
	}

	tokensA := foldSet(strings.Fields(a))
	tokensB := foldSet(strings.Fields(b))

	shared := 0
	for tok := range tokensA {
		if _, ok := tokensB[tok]; ok {
			shared++
		}
	}

	score := float64(shared) / float64(cfg.BioSaturation)
	if score > 1 {
		score = 1
	}
	return score
}

// foldSet builds a case-folded set, dropping blank entries.
func foldSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		norm := strings.ToLower(strings.TrimSpace(it))
		if norm == "" {
			continue
		}
		set[norm] = struct{}{}
	}
	return set
}
