// Wayfarer - Travel Safety Compatibility Matching
// Copyright 2026 Wayfarer Travel
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfarer-travel/matchcore

package match

import (
	"reflect"
	"testing"
)

func TestStatisticsEmpty(t *testing.T) {
	report := Statistics(nil)

	if report.Count != 0 {
		t.Errorf("Count = %d, want 0", report.Count)
	}
	if report.MeanScore != 0 || report.MaxScore != 0 || report.StdDevScore != 0 {
		t.Errorf("empty report should be zero-valued: %+v", report)
	}
	if len(report.Labels) != 0 || len(report.Clusters) != 0 {
		t.Errorf("empty report should have empty distributions: %+v", report)
	}
}

func TestStatisticsAggregation(t *testing.T) {
	results := []MatchResult{
		{
			CandidateID:     "a",
			Score:           0.9,
			Label:           LabelPerfect,
			ClusterID:       0,
			SharedInterests: []string{"hiking", "food"},
			SharedLanguages: []string{"english"},
		},
		{
			CandidateID:     "b",
			Score:           0.7,
			Label:           LabelGreat,
			ClusterID:       1,
			SharedInterests: []string{"hiking"},
			SharedLanguages: []string{"english", "spanish"},
		},
		{
			CandidateID:     "c",
			Score:           0.5,
			Label:           LabelGood,
			ClusterID:       0,
			SharedLanguages: []string{"spanish"},
		},
	}

	report := Statistics(results)

	if report.Count != 3 {
		t.Errorf("Count = %d, want 3", report.Count)
	}
	if !almostEqual(report.MeanScore, 0.7) {
		t.Errorf("MeanScore = %v, want 0.7", report.MeanScore)
	}
	if !almostEqual(report.MaxScore, 0.9) {
		t.Errorf("MaxScore = %v, want 0.9", report.MaxScore)
	}
	// Population std dev of {0.9, 0.7, 0.5} is sqrt(0.08/3).
	if !almostEqual(report.StdDevScore, 0.16329931618554522) {
		t.Errorf("StdDevScore = %v, want ~0.1633", report.StdDevScore)
	}

	if report.AboveHalf != 3 || report.AboveEighty != 1 || report.AboveNinety != 1 {
		t.Errorf("band counts = %d/%d/%d, want 3/1/1",
			report.AboveHalf, report.AboveEighty, report.AboveNinety)
	}

	wantLabels := map[QualityLabel]int{LabelPerfect: 1, LabelGreat: 1, LabelGood: 1}
	if !reflect.DeepEqual(report.Labels, wantLabels) {
		t.Errorf("Labels = %v, want %v", report.Labels, wantLabels)
	}

	wantClusters := map[int]int{0: 2, 1: 1}
	if !reflect.DeepEqual(report.Clusters, wantClusters) {
		t.Errorf("Clusters = %v, want %v", report.Clusters, wantClusters)
	}

	wantInterests := []FrequencyCount{{Value: "hiking", Count: 2}, {Value: "food", Count: 1}}
	if !reflect.DeepEqual(report.TopInterests, wantInterests) {
		t.Errorf("TopInterests = %v, want %v", report.TopInterests, wantInterests)
	}

	wantLanguages := []FrequencyCount{
		{Value: "english", Count: 2},
		{Value: "spanish", Count: 2},
	}
	if !reflect.DeepEqual(report.TopLanguages, wantLanguages) {
		t.Errorf("TopLanguages = %v, want %v", report.TopLanguages, wantLanguages)
	}
}

func TestTopFrequenciesTruncatesAndBreaksTies(t *testing.T) {
	freq := map[string]int{
		"f": 1, "e": 1, "d": 2, "c": 2, "b": 3, "a": 3, "g": 1,
	}

	got := topFrequencies(freq, 5)
	want := []FrequencyCount{
		{Value: "a", Count: 3},
		{Value: "b", Count: 3},
		{Value: "c", Count: 2},
		{Value: "d", Count: 2},
		{Value: "e", Count: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("topFrequencies() = %v, want %v", got, want)
	}
}

func TestTopFrequenciesEmpty(t *testing.T) {
	if got := topFrequencies(nil, 5); got != nil {
		t.Errorf("topFrequencies(nil) = %v, want nil", got)
	}
}
