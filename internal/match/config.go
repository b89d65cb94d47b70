// Wayfarer - Travel Safety Compatibility Matching
// Copyright 2026 Wayfarer Travel
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfarer-travel/matchcore

package match

import (
	"fmt"
	"time"
)

// Config contains all configuration for the matching engine.
type Config struct {
	// Weights defines the relative contribution of each signal.
	// Weights are normalized at runtime, so they don't need to sum to 1.0.
	Weights SignalWeights `json:"weights" koanf:"weights"`

	// Cluster contains cluster similarity parameters.
	Cluster ClusterConfig `json:"cluster" koanf:"cluster"`

	// Interest contains interest/bio similarity parameters.
	Interest InterestConfig `json:"interest" koanf:"interest"`

	// Language contains language-overlap parameters.
	Language LanguageConfig `json:"language" koanf:"language"`

	// Budget contains budget-compatibility parameters.
	Budget BudgetConfig `json:"budget" koanf:"budget"`

	// Safety contains safety-score parameters.
	Safety SafetyConfig `json:"safety" koanf:"safety"`

	// Thresholds contains acceptance and quality-band cutoffs.
	Thresholds ThresholdConfig `json:"thresholds" koanf:"thresholds"`

	// Limits contains operational limits.
	Limits LimitsConfig `json:"limits" koanf:"limits"`

	// Seed is the random seed for deterministic clustering.
	// If zero, a fixed default seed is used.
	Seed int64 `json:"seed" koanf:"seed"`
}

// SignalWeights defines the relative contribution of each signal to the
// composite score. Interest similarity dominates by design.
type SignalWeights struct {
	// Cluster is the weight for cluster similarity.
	Cluster float64 `json:"cluster" koanf:"cluster"`

	// Interest is the weight for interest/bio similarity.
	Interest float64 `json:"interest" koanf:"interest"`

	// Language is the weight for the common-language score.
	Language float64 `json:"language" koanf:"language"`

	// Budget is the weight for budget compatibility.
	Budget float64 `json:"budget" koanf:"budget"`

	// Safety is the weight for the verification-based safety score.
	Safety float64 `json:"safety" koanf:"safety"`
}

// Normalize returns a copy with weights normalized to sum to 1.0.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (w SignalWeights) Normalize() SignalWeights {
	sum := w.Cluster + w.Interest + w.Language + w.Budget + w.Safety

	if sum == 0 {
		const equalWeight = 1.0 / 5.0
		return SignalWeights{
			Cluster: equalWeight, Interest: equalWeight, Language: equalWeight,
			Budget: equalWeight, Safety: equalWeight,
		}
	}

	return SignalWeights{
		Cluster:  w.Cluster / sum,
		Interest: w.Interest / sum,
		Language: w.Language / sum,
		Budget:   w.Budget / sum,
		Safety:   w.Safety / sum,
	}
}

// ClusterConfig contains cluster similarity parameters.
type ClusterConfig struct {
	// Count is the requested number of clusters. Automatically reduced
	// to max(2, population/2) when the eligible population is smaller.
	// Default: 5.
	Count int `json:"count" koanf:"count"`

	// SameClusterSim is the similarity credited when requester and
	// candidate share a cluster.
	// Default: 1.0.
	SameClusterSim float64 `json:"same_cluster_sim" koanf:"same_cluster_sim"`

	// CrossClusterSim is the similarity credited across clusters.
	// Default: 0.6.
	CrossClusterSim float64 `json:"cross_cluster_sim" koanf:"cross_cluster_sim"`
}

// InterestConfig contains interest/bio similarity parameters.
type InterestConfig struct {
	// KeywordWeight is the share of the combined score taken by
	// keyword Jaccard similarity.
	// Default: 0.7.
	KeywordWeight float64 `json:"keyword_weight" koanf:"keyword_weight"`

	// BioWeight is the share taken by bio token overlap.
	// Default: 0.3.
	BioWeight float64 `json:"bio_weight" koanf:"bio_weight"`

	// EmptyKeywordDefault is the neutral score used when either
	// interest set is empty. Absence is not evidence of incompatibility.
	// Default: 0.3.
	EmptyKeywordDefault float64 `json:"empty_keyword_default" koanf:"empty_keyword_default"`

	// EmptyBioDefault is the neutral score used when either bio is empty.
	// Default: 0.5.
	EmptyBioDefault float64 `json:"empty_bio_default" koanf:"empty_bio_default"`

	// BioSaturation is the shared-token count at which bio overlap
	// saturates at 1.0.
	// Default: 10.
	BioSaturation int `json:"bio_saturation" koanf:"bio_saturation"`
}

// LanguageConfig contains language-overlap parameters.
type LanguageConfig struct {
	// SaturationCount is the common-language count at which the
	// language score saturates at 1.0.
	// Default: 2.
	SaturationCount int `json:"saturation_count" koanf:"saturation_count"`
}

// BudgetConfig contains budget-compatibility parameters.
type BudgetConfig struct {
	// NearMissStart is the score at a zero gap between non-overlapping
	// ranges; the score decays linearly to 0 as the gap approaches
	// NearMissGapRatio of the average range width.
	// Default: 0.6.
	NearMissStart float64 `json:"near_miss_start" koanf:"near_miss_start"`

	// NearMissGapRatio bounds how large a gap still counts as a near miss,
	// as a fraction of the average range width.
	// Default: 0.4.
	NearMissGapRatio float64 `json:"near_miss_gap_ratio" koanf:"near_miss_gap_ratio"`

	// Floor is applied to every computed budget score before weighting.
	// Budget is a soft signal and never disqualifies a pair by itself.
	// Default: 0.3.
	Floor float64 `json:"floor" koanf:"floor"`
}

// SafetyConfig contains safety-score parameters.
type SafetyConfig struct {
	// Base is the safety score every pair starts from.
	// Default: 0.7.
	Base float64 `json:"base" koanf:"base"`

	// VerifiedBonus is added (capped at 1.0) when both parties pass
	// the eligibility filter.
	// Default: 0.3.
	VerifiedBonus float64 `json:"verified_bonus" koanf:"verified_bonus"`
}

// ThresholdConfig contains acceptance and quality-band cutoffs.
type ThresholdConfig struct {
	// Accept is the minimum composite score for a pair to be returned
	// at all. The boundary is inclusive.
	// Default: 0.50.
	Accept float64 `json:"accept" koanf:"accept"`

	// Great is the lower bound of the GREAT band.
	// Default: 0.65.
	Great float64 `json:"great" koanf:"great"`

	// Perfect is the lower bound of the PERFECT band.
	// Default: 0.80.
	Perfect float64 `json:"perfect" koanf:"perfect"`
}

// LimitsConfig contains operational limits.
type LimitsConfig struct {
	// DefaultK is the number of matches returned when the request
	// doesn't specify one.
	// Default: 10.
	DefaultK int `json:"default_k" koanf:"default_k"`

	// MaxK is the maximum allowed K value.
	// Default: 50.
	MaxK int `json:"max_k" koanf:"max_k"`

	// TrainTimeout is the maximum time allowed for a training run.
	// Default: 2m.
	TrainTimeout time.Duration `json:"train_timeout" koanf:"train_timeout"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() *Config {
	return &Config{
		Weights: SignalWeights{
			Cluster:  0.15,
			Interest: 0.40,
			Language: 0.20,
			Budget:   0.15,
			Safety:   0.10,
		},
		Cluster: ClusterConfig{
			Count:           5,
			SameClusterSim:  1.0,
			CrossClusterSim: 0.6,
		},
		Interest: InterestConfig{
			KeywordWeight:       0.7,
			BioWeight:           0.3,
			EmptyKeywordDefault: 0.3,
			EmptyBioDefault:     0.5,
			BioSaturation:       10,
		},
		Language: LanguageConfig{
			SaturationCount: 2,
		},
		Budget: BudgetConfig{
			NearMissStart:    0.6,
			NearMissGapRatio: 0.4,
			Floor:            0.3,
		},
		Safety: SafetyConfig{
			Base:          0.7,
			VerifiedBonus: 0.3,
		},
		Thresholds: ThresholdConfig{
			Accept:  0.50,
			Great:   0.65,
			Perfect: 0.80,
		},
		Limits: LimitsConfig{
			DefaultK:     10,
			MaxK:         50,
			TrainTimeout: 2 * time.Minute,
		},
		Seed: 42, // fixed seed keeps cluster assignment reproducible
	}
}

// Validate checks the configuration for errors.
//
//nolint:gocyclo // validation needs to check many fields
func (c *Config) Validate() error {
	if c.Cluster.Count < 2 {
		return fmt.Errorf("cluster.count must be at least 2, got %d", c.Cluster.Count)
	}
	if c.Cluster.SameClusterSim < 0 || c.Cluster.SameClusterSim > 1 {
		return fmt.Errorf("cluster.same_cluster_sim must be in [0, 1], got %f", c.Cluster.SameClusterSim)
	}
	if c.Cluster.CrossClusterSim < 0 || c.Cluster.CrossClusterSim > c.Cluster.SameClusterSim {
		return fmt.Errorf("cluster.cross_cluster_sim must be in [0, same_cluster_sim], got %f", c.Cluster.CrossClusterSim)
	}

	if c.Interest.KeywordWeight < 0 || c.Interest.BioWeight < 0 {
		return fmt.Errorf("interest weights must be non-negative, got %f/%f", c.Interest.KeywordWeight, c.Interest.BioWeight)
	}
	if c.Interest.BioSaturation < 1 {
		return fmt.Errorf("interest.bio_saturation must be positive, got %d", c.Interest.BioSaturation)
	}

	if c.Language.SaturationCount < 1 {
		return fmt.Errorf("language.saturation_count must be positive, got %d", c.Language.SaturationCount)
	}

	if c.Budget.NearMissGapRatio <= 0 || c.Budget.NearMissGapRatio > 1 {
		return fmt.Errorf("budget.near_miss_gap_ratio must be in (0, 1], got %f", c.Budget.NearMissGapRatio)
	}
	if c.Budget.Floor < 0 || c.Budget.Floor > 1 {
		return fmt.Errorf("budget.floor must be in [0, 1], got %f", c.Budget.Floor)
	}

	if c.Safety.Base < 0 || c.Safety.Base > 1 {
		return fmt.Errorf("safety.base must be in [0, 1], got %f", c.Safety.Base)
	}
	if c.Safety.VerifiedBonus < 0 {
		return fmt.Errorf("safety.verified_bonus must be non-negative, got %f", c.Safety.VerifiedBonus)
	}

	if c.Thresholds.Accept < 0 || c.Thresholds.Accept > 1 {
		return fmt.Errorf("thresholds.accept must be in [0, 1], got %f", c.Thresholds.Accept)
	}
	if c.Thresholds.Great < c.Thresholds.Accept || c.Thresholds.Perfect < c.Thresholds.Great {
		return fmt.Errorf("thresholds must be ordered accept <= great <= perfect, got %f/%f/%f",
			c.Thresholds.Accept, c.Thresholds.Great, c.Thresholds.Perfect)
	}

	if c.Limits.DefaultK < 1 {
		return fmt.Errorf("limits.default_k must be positive, got %d", c.Limits.DefaultK)
	}
	if c.Limits.MaxK < c.Limits.DefaultK {
		return fmt.Errorf("limits.max_k must be >= limits.default_k, got %d < %d", c.Limits.MaxK, c.Limits.DefaultK)
	}
	if c.Limits.TrainTimeout <= 0 {
		return fmt.Errorf("limits.train_timeout must be positive, got %v", c.Limits.TrainTimeout)
	}

	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	// Direct field copy - all nested structs contain only value types
	out := *c
	return &out
}

// Label returns the quality bucket for a composite score.
func (t ThresholdConfig) Label(score float64) QualityLabel {
	switch {
	case score >= t.Perfect:
		return LabelPerfect
	case score >= t.Great:
		return LabelGreat
	default:
		return LabelGood
	}
}
