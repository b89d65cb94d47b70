// Wayfarer - Travel Safety Compatibility Matching
// Copyright 2026 Wayfarer Travel
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfarer-travel/matchcore

package cluster

import (
	"strings"

	"github.com/wayfarer-travel/matchcore/internal/match"
)

// LanguageVocabulary is the fixed set of supported languages encoded as
// feature bits. Order is part of the feature layout and must not change
// between training and prediction.
var LanguageVocabulary = []string{
	"english",
	"spanish",
	"french",
	"german",
	"italian",
	"portuguese",
	"japanese",
	"mandarin",
	"arabic",
	"hindi",
}

const (
	// budgetCap normalizes budget bounds into [0, 1].
	budgetCap = 10000.0

	// defaultAgeMidpoint substitutes for an unknown age (age/100 scale).
	defaultAgeMidpoint = 0.3
)

// FeatureLen is the fixed length of every feature vector:
// language bits, budget min/max, age, solo, first-time, gender and the
// four accessibility bits.
var FeatureLen = len(LanguageVocabulary) + 2 + 1 + 2 + 1 + 4

// Vector maps a user record to its fixed-length numeric feature vector.
// Missing optional fields map to documented neutral values; extraction
// never fails and never produces undefined values.
func Vector(u *match.User) []float64 {
	v := make([]float64, 0, FeatureLen)

	spoken := make(map[string]struct{})
	for _, l := range u.Languages() {
		spoken[strings.ToLower(strings.TrimSpace(l))] = struct{}{}
	}
	for _, l := range LanguageVocabulary {
		v = append(v, boolBit(hasKey(spoken, l)))
	}

	v = append(v, clip01(u.Budget.Min/budgetCap))
	v = append(v, clip01(u.Budget.Max/budgetCap))

	age := defaultAgeMidpoint
	if u.Age > 0 {
		age = clip01(float64(u.Age) / 100)
	}
	v = append(v, age)

	solo, firstTime := false, false
	if u.Traveler != nil {
		solo = u.Traveler.Solo
		firstTime = u.Traveler.FirstTimeVisitor
	}
	v = append(v, boolBit(solo))
	v = append(v, boolBit(firstTime))

	v = append(v, genderFeature(u.Gender))

	v = append(v, boolBit(u.Accessibility.Wheelchair))
	v = append(v, boolBit(u.Accessibility.Visual))
	v = append(v, boolBit(u.Accessibility.Hearing))
	v = append(v, boolBit(u.Accessibility.MobilitySupport))

	return v
}

// genderFeature encodes gender as male 0.0, female 1.0, other/unknown 0.5.
func genderFeature(gender string) float64 {
	switch strings.ToLower(strings.TrimSpace(gender)) {
	case "male":
		return 0.0
	case "female":
		return 1.0
	default:
		return 0.5
	}
}

func hasKey(set map[string]struct{}, key string) bool {
	_, ok := set[key]
	return ok
}

func boolBit(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func clip01(x float64) float64 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}
