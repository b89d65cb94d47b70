// Wayfarer - Travel Safety Compatibility Matching
// Copyright 2026 Wayfarer Travel
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfarer-travel/matchcore

package match

import (
	"math"
	"sort"
)

// topNShared is how many most-frequent shared interests/languages the
// report keeps.
const topNShared = 5

// FrequencyCount pairs a value with how often it appeared across results.
type FrequencyCount struct {
	// Value is the shared interest or language.
	Value string `json:"value"`

	// Count is the number of results it appeared in.
	Count int `json:"count"`
}

// Report is an aggregate summary over a list of match results.
type Report struct {
	// Count is the number of results.
	Count int `json:"count"`

	// MeanScore is the mean composite score.
	MeanScore float64 `json:"mean_score"`

	// MaxScore is the highest composite score.
	MaxScore float64 `json:"max_score"`

	// StdDevScore is the population standard deviation of scores.
	StdDevScore float64 `json:"std_dev_score"`

	// Labels is the quality-label distribution.
	Labels map[QualityLabel]int `json:"labels"`

	// AboveHalf counts results scoring >= 0.5.
	AboveHalf int `json:"above_0_5"`

	// AboveEighty counts results scoring >= 0.8.
	AboveEighty int `json:"above_0_8"`

	// AboveNinety counts results scoring >= 0.9.
	AboveNinety int `json:"above_0_9"`

	// TopInterests are the most frequent shared interests.
	TopInterests []FrequencyCount `json:"top_interests,omitempty"`

	// TopLanguages are the most frequent shared languages.
	TopLanguages []FrequencyCount `json:"top_languages,omitempty"`

	// Clusters is the cluster-id distribution across results.
	Clusters map[int]int `json:"clusters"`
}

// Statistics aggregates a result list into a Report. Pure function,
// no side effects; an empty input yields a zero-valued report.
func Statistics(results []MatchResult) *Report {
	report := &Report{
		Count:    len(results),
		Labels:   make(map[QualityLabel]int),
		Clusters: make(map[int]int),
	}
	if len(results) == 0 {
		return report
	}

	interestFreq := make(map[string]int)
	languageFreq := make(map[string]int)

	var sum float64
	for i := range results {
		r := &results[i]
		sum += r.Score
		if r.Score > report.MaxScore {
			report.MaxScore = r.Score
		}

		report.Labels[r.Label]++
		report.Clusters[r.ClusterID]++

		if r.Score >= 0.5 {
			report.AboveHalf++
		}
		if r.Score >= 0.8 {
			report.AboveEighty++
		}
		if r.Score >= 0.9 {
			report.AboveNinety++
		}

		for _, it := range r.SharedInterests {
			interestFreq[it]++
		}
		for _, l := range r.SharedLanguages {
			languageFreq[l]++
		}
	}

	report.MeanScore = sum / float64(len(results))

	var variance float64
	for i := range results {
		d := results[i].Score - report.MeanScore
		variance += d * d
	}
	report.StdDevScore = math.Sqrt(variance / float64(len(results)))

	report.TopInterests = topFrequencies(interestFreq, topNShared)
	report.TopLanguages = topFrequencies(languageFreq, topNShared)

	return report
}

// topFrequencies returns the n most frequent entries, breaking count
// ties alphabetically for deterministic reporting.
func topFrequencies(freq map[string]int, n int) []FrequencyCount {
	if len(freq) == 0 {
		return nil
	}

	counts := make([]FrequencyCount, 0, len(freq))
	for v, c := range freq {
		counts = append(counts, FrequencyCount{Value: v, Count: c})
	}

	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Count != counts[j].Count {
			return counts[i].Count > counts[j].Count
		}
		return counts[i].Value < counts[j].Value
	})

	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}
