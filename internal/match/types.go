// Wayfarer - Travel Safety Compatibility Matching
// Copyright 2026 Wayfarer Travel
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfarer-travel/matchcore

package match

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors returned by the engine.
var (
	// ErrNotTrained is returned when a cluster prediction is requested
	// before any model has been trained. This is a caller programming
	// error, not a recoverable condition.
	ErrNotTrained = errors.New("cluster model not trained")

	// ErrEmptyPopulation is returned when Train is called with no
	// eligible users at all.
	ErrEmptyPopulation = errors.New("no eligible users in training population")

	// ErrNilRequester is returned when FindMatches is called without a
	// requester record.
	ErrNilRequester = errors.New("requester must not be nil")
)

// AccountKind distinguishes traveler accounts from verified service providers.
type AccountKind int

const (
	// AccountTraveler is a regular traveler account.
	AccountTraveler AccountKind = iota
	// AccountProvider is a service-provider account (guide, host, operator).
	AccountProvider
)

// String returns a human-readable name for the account kind.
func (k AccountKind) String() string {
	switch k {
	case AccountTraveler:
		return "traveler"
	case AccountProvider:
		return "service_provider"
	default:
		return "unknown"
	}
}

// Accessibility holds independent accessibility-need flags.
type Accessibility struct {
	// Wheelchair indicates wheelchair accessibility is required.
	Wheelchair bool `json:"wheelchair"`

	// Visual indicates visual-impairment support is required.
	Visual bool `json:"visual"`

	// Hearing indicates hearing-impairment support is required.
	Hearing bool `json:"hearing"`

	// MobilitySupport indicates general mobility support is required.
	MobilitySupport bool `json:"mobility_support"`
}

// BudgetRange is a per-trip budget band in the platform's base currency.
type BudgetRange struct {
	// Min is the lower bound of the budget.
	Min float64 `json:"min"`

	// Max is the upper bound of the budget.
	Max float64 `json:"max"`
}

// Width returns the width of the range. Zero-width ranges are treated
// as width 1 so downstream ratios stay finite.
func (b BudgetRange) Width() float64 {
	w := b.Max - b.Min
	if w <= 0 {
		return 1
	}
	return w
}

// TravelerProfile carries traveler-specific attributes.
type TravelerProfile struct {
	// Interests are the traveler's stated travel interests.
	Interests []string `json:"interests"`

	// Languages are the languages the traveler speaks.
	Languages []string `json:"languages"`

	// Solo indicates the traveler is traveling alone.
	Solo bool `json:"solo"`

	// FirstTimeVisitor indicates this is the traveler's first visit
	// to the destination.
	FirstTimeVisitor bool `json:"first_time_visitor"`
}

// ProviderProfile carries service-provider-specific attributes.
type ProviderProfile struct {
	// Verified is the provider-profile-level verification flag.
	// Both this and the account-level flag must be set for the
	// provider to be eligible.
	Verified bool `json:"verified"`

	// Services are the services the provider offers. These play the
	// role of interests when matching against travelers.
	Services []string `json:"services"`

	// LanguagesSpoken are the languages the provider operates in.
	LanguagesSpoken []string `json:"languages_spoken"`
}

// User is a de-identified user record supplied by the data-access layer.
// The matching core treats it as read-only input.
type User struct {
	// ID is the opaque user identifier.
	ID string `json:"id"`

	// Email is the opaque contact handle (already de-identified upstream).
	Email string `json:"email,omitempty"`

	// Kind is the account kind.
	Kind AccountKind `json:"kind"`

	// Verified is the account-level verification flag.
	Verified bool `json:"verified"`

	// Traveler is set for traveler accounts.
	Traveler *TravelerProfile `json:"traveler,omitempty"`

	// Provider is set for service-provider accounts.
	Provider *ProviderProfile `json:"provider,omitempty"`

	// Budget is the per-trip budget range.
	Budget BudgetRange `json:"budget"`

	// Age in years. Zero means unknown; feature extraction substitutes
	// a neutral midpoint.
	Age int `json:"age,omitempty"`

	// Gender is one of "male", "female", "other". Empty means unknown.
	Gender string `json:"gender,omitempty"`

	// Nationality is an opaque country label, forwarded to the
	// consensus verifier as a structured fact only.
	Nationality string `json:"nationality,omitempty"`

	// Accessibility holds independent accessibility-need flags.
	Accessibility Accessibility `json:"accessibility"`

	// Bio is free text written by the user.
	Bio string `json:"bio,omitempty"`
}

// Interests returns the interest keywords for the account kind:
// travel interests for travelers, services offered for providers.
func (u *User) Interests() []string {
	switch {
	case u.Kind == AccountProvider && u.Provider != nil:
		return u.Provider.Services
	case u.Traveler != nil:
		return u.Traveler.Interests
	default:
		return nil
	}
}

// Languages returns the spoken/offered languages for the account kind.
func (u *User) Languages() []string {
	switch {
	case u.Kind == AccountProvider && u.Provider != nil:
		return u.Provider.LanguagesSpoken
	case u.Traveler != nil:
		return u.Traveler.Languages
	default:
		return nil
	}
}

// Range returns the budget range.
func (u *User) Range() BudgetRange {
	return u.Budget
}

// QualityLabel is the categorical quality bucket for a match.
type QualityLabel string

const (
	// LabelPerfect marks matches scoring at or above the perfect band.
	LabelPerfect QualityLabel = "PERFECT"
	// LabelGreat marks matches scoring at or above the great band.
	LabelGreat QualityLabel = "GREAT"
	// LabelGood marks the remaining above-threshold matches.
	LabelGood QualityLabel = "GOOD"
	// LabelPoor only appears when the consensus verifier downgrades a
	// match; sub-threshold pairs never survive ranking.
	LabelPoor QualityLabel = "POOR"
)

// Valid reports whether the label is one of the closed set.
func (l QualityLabel) Valid() bool {
	switch l {
	case LabelPerfect, LabelGreat, LabelGood, LabelPoor:
		return true
	default:
		return false
	}
}

// ComponentScores is the per-signal breakdown of a composite score.
type ComponentScores struct {
	// Cluster is the cluster similarity (1.0 same cluster, 0.6 otherwise).
	Cluster float64 `json:"cluster"`

	// Interest is the combined interest/bio similarity.
	Interest float64 `json:"interest"`

	// Language is the common-language score.
	Language float64 `json:"language"`

	// Budget is the floored budget compatibility score.
	Budget float64 `json:"budget"`

	// Safety is the verification-based safety score.
	Safety float64 `json:"safety"`
}

// ConsensusResult is the outcome of the optional consensus verification.
type ConsensusResult struct {
	// Verdict is the reasoning service's quality verdict.
	Verdict QualityLabel `json:"verdict"`

	// Verified is false only when the verdict was POOR.
	Verified bool `json:"verified"`

	// Note is the one-sentence justification, or a diagnostic note
	// when the call degraded.
	Note string `json:"note,omitempty"`
}

// MatchResult is one ranked match. Immutable once returned.
type MatchResult struct {
	// CandidateID is the opaque id of the matched user.
	CandidateID string `json:"candidate_id"`

	// Score is the composite score in [0, 1].
	Score float64 `json:"score"`

	// Label is the quality bucket derived from the score, possibly
	// replaced by the consensus verdict.
	Label QualityLabel `json:"label"`

	// Reasons are short human-readable explanations.
	Reasons []string `json:"reasons,omitempty"`

	// SharedInterests are the case-folded interest keywords both
	// sides have in common.
	SharedInterests []string `json:"shared_interests,omitempty"`

	// SharedLanguages are the languages both sides have in common.
	SharedLanguages []string `json:"shared_languages,omitempty"`

	// ClusterID is the candidate's cluster assignment.
	ClusterID int `json:"cluster_id"`

	// Components is the per-signal score breakdown.
	Components ComponentScores `json:"components"`

	// Consensus is set when consensus verification ran for this match.
	Consensus *ConsensusResult `json:"consensus,omitempty"`
}

// Request is one find-matches call.
type Request struct {
	// Requester is the user searching for matches.
	Requester *User `json:"requester"`

	// Candidates is the pool supplied by the data-access layer.
	Candidates []*User `json:"candidates"`

	// K is the number of matches to return. Zero means the configured
	// default; values are clamped to the configured bounds.
	K int `json:"k,omitempty"`

	// UseConsensus enables the external consensus verification pass
	// over the surviving top matches.
	UseConsensus bool `json:"use_consensus,omitempty"`

	// RequestID is a unique identifier for tracing. Generated when empty.
	RequestID string `json:"request_id,omitempty"`
}

// Response is the outcome of one find-matches call.
type Response struct {
	// Matches is ordered strictly descending by composite score.
	Matches []MatchResult `json:"matches"`

	// TotalCandidates is the size of the supplied pool before filtering.
	TotalCandidates int `json:"total_candidates"`

	// Metadata contains timing and diagnostic information.
	Metadata ResponseMetadata `json:"metadata"`
}

// ResponseMetadata contains timing and diagnostic information.
type ResponseMetadata struct {
	// RequestID is the unique request identifier.
	RequestID string `json:"request_id"`

	// RequesterID is the requesting user's id.
	RequesterID string `json:"requester_id"`

	// LatencyMS is the total matching latency in milliseconds.
	LatencyMS int64 `json:"latency_ms"`

	// ModelVersion is the version of the cluster model used.
	ModelVersion int `json:"model_version"`

	// TrainedAt is when the cluster model was last trained.
	TrainedAt time.Time `json:"trained_at"`

	// ConsensusUsed reports whether the consensus pass ran.
	ConsensusUsed bool `json:"consensus_used"`

	// Timestamp is when the response was generated.
	Timestamp time.Time `json:"timestamp"`
}

// ClusterModel standardizes feature vectors and partitions the eligible
// population into k groups. Implementations must make Predict
// deterministic for a fixed fitted model.
type ClusterModel interface {
	// Fit trains the model on the eligible population. The model must
	// be fully built before it is handed to the engine; the engine
	// swaps models wholesale and never mutates one in place.
	Fit(ctx context.Context, users []*User, k int) error

	// Predict returns the nearest cluster index for a user.
	Predict(u *User) (int, error)

	// Clusters returns the fitted cluster count.
	Clusters() int
}

// ModelFactory produces a fresh untrained cluster model for each
// training run, so retrains swap a fully-built replacement.
type ModelFactory func() ClusterModel

// Verifier is the optional consensus verification pass over ranked
// matches. Implementations must degrade gracefully: Verify never fails
// the request, and a cancelled context stops further external calls
// without discarding already-computed results.
type Verifier interface {
	Verify(ctx context.Context, requester *User, candidates map[string]*User, results []MatchResult) []MatchResult
}
