// Wayfarer - Travel Safety Compatibility Matching
// Copyright 2026 Wayfarer Travel
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfarer-travel/matchcore

package match

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/wayfarer-travel/matchcore/internal/metrics"
)

// Note: This package depends only on interfaces it defines (ClusterModel,
// Verifier). The cluster and consensus packages implement them and are
// wired in by the caller, keeping the import graph acyclic.

// Engine is the compatibility-matching core. It combines cluster
// similarity, interest similarity, language overlap, budget
// compatibility and the safety signal into one ranked result list.
// It is safe for concurrent use.
type Engine struct {
	config *Config
	logger zerolog.Logger

	// factory produces a fresh model per training run; verifier is the
	// optional consensus pass.
	factory  ModelFactory
	verifier Verifier

	// state is the versioned trained-model state. Retrains build a full
	// replacement and swap it here; in-flight reads keep the old model.
	state atomic.Pointer[modelState]

	// trainMu serializes training runs. Predictions never take it.
	trainMu sync.Mutex
}

// modelState is one immutable trained-model generation.
type modelState struct {
	model       ClusterModel
	version     int
	trainedAt   time.Time
	assignments map[string]int
}

// NewEngine creates a new matching engine.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(cfg *Config, logger zerolog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Engine{
		config: cfg,
		logger: logger.With().Str("component", "match").Logger(),
	}, nil
}

// SetModelFactory sets the source of fresh cluster models.
func (e *Engine) SetModelFactory(f ModelFactory) {
	e.factory = f
}

// SetVerifier sets the optional consensus verifier.
func (e *Engine) SetVerifier(v Verifier) {
	e.verifier = v
}

// GetConfig returns a copy of the current configuration.
func (e *Engine) GetConfig() *Config {
	return e.config.Clone()
}

// Train fits a fresh cluster model on the eligible subset of the given
// population and atomically swaps it in. Returns the per-user cluster
// assignments of the training population. A requested cluster count of
// zero uses the configured default; a population smaller than the
// requested count degrades the count to max(2, n/2) instead of failing.
func (e *Engine) Train(ctx context.Context, population []*User, clusterCount int) (map[string]int, error) {
	e.trainMu.Lock()
	defer e.trainMu.Unlock()

	if e.factory == nil {
		return nil, fmt.Errorf("model factory not set")
	}

	start := time.Now()

	eligible := filterEligible(population)
	if len(eligible) == 0 {
		metrics.ObserveTraining(ErrEmptyPopulation, 0, time.Since(start))
		return nil, ErrEmptyPopulation
	}

	k := e.effectiveClusterCount(clusterCount, len(eligible))

	e.logger.Info().
		Int("population", len(population)).
		Int("eligible", len(eligible)).
		Int("clusters", k).
		Msg("starting model training")

	trainCtx, cancel := context.WithTimeout(ctx, e.config.Limits.TrainTimeout)
	defer cancel()

	model := e.factory()
	if err := model.Fit(trainCtx, eligible, k); err != nil {
		metrics.ObserveTraining(err, 0, time.Since(start))
		return nil, fmt.Errorf("fit cluster model: %w", err)
	}

	assignments, err := assignClusters(model, eligible)
	if err != nil {
		metrics.ObserveTraining(err, 0, time.Since(start))
		return nil, fmt.Errorf("assign clusters: %w", err)
	}

	next := &modelState{
		model:       model,
		version:     e.nextVersion(),
		trainedAt:   time.Now(),
		assignments: assignments,
	}
	e.state.Store(next)

	metrics.ObserveTraining(nil, next.version, time.Since(start))

	e.logger.Info().
		Int("version", next.version).
		Int("clusters", model.Clusters()).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("model training complete")

	return copyAssignments(assignments), nil
}

// effectiveClusterCount resolves the requested cluster count against
// the eligible population size.
func (e *Engine) effectiveClusterCount(requested, population int) int {
	k := requested
	if k <= 0 {
		k = e.config.Cluster.Count
	}
	if population < k {
		k = population / 2
		if k < 2 {
			k = 2
		}
	}
	return k
}

// nextVersion returns the version for the next model generation.
func (e *Engine) nextVersion() int {
	if prev := e.state.Load(); prev != nil {
		return prev.version + 1
	}
	return 1
}

// ClusterOf returns the cluster assignment for a user.
// Returns ErrNotTrained when no model has been trained yet.
func (e *Engine) ClusterOf(u *User) (int, error) {
	st := e.state.Load()
	if st == nil {
		return 0, ErrNotTrained
	}
	return st.model.Predict(u)
}

// FindMatches scores the candidate pool against the requester and
// returns the ranked, filtered result. With consensus disabled, a
// fixed trained model yields identical ordering and scores on repeat
// calls with identical inputs.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) FindMatches(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()

	if req.Requester == nil {
		return nil, ErrNilRequester
	}

	req = e.prepareRequest(req)
	logger := e.createRequestLogger(req)

	st := e.state.Load()
	if st == nil {
		return nil, ErrNotTrained
	}

	// Providers are discoverable, not discoverers.
	if req.Requester.Kind == AccountProvider {
		logger.Debug().Msg("provider requester rejected by direction rule")
		metrics.ObserveMatchRequest("rejected", 0, time.Since(start))
		return e.buildResponse(req, st, nil, start, false), nil
	}

	requesterCluster, err := st.model.Predict(req.Requester)
	if err != nil {
		return nil, fmt.Errorf("predict requester cluster: %w", err)
	}

	results := e.scoreCandidates(st, req, requesterCluster, logger)
	sortMatches(results)
	if len(results) > req.K {
		results = results[:req.K]
	}

	consensusUsed := false
	if req.UseConsensus && e.verifier != nil && len(results) > 0 {
		results = e.verifier.Verify(ctx, req.Requester, candidatesByID(req.Candidates), results)
		consensusUsed = true
	}

	outcome := "ok"
	if len(results) == 0 {
		outcome = "empty"
	}
	metrics.ObserveMatchRequest(outcome, len(results), time.Since(start))

	logger.Debug().
		Int("candidates", len(req.Candidates)).
		Int("returned", len(results)).
		Int64("latency_ms", time.Since(start).Milliseconds()).
		Msg("matching complete")

	return e.buildResponse(req, st, results, start, consensusUsed), nil
}

// prepareRequest applies defaults and generates a request ID if needed.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) prepareRequest(req Request) Request {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	if req.K == 0 {
		req.K = e.config.Limits.DefaultK
	}
	if req.K < 1 {
		req.K = 1
	}
	if req.K > e.config.Limits.MaxK {
		req.K = e.config.Limits.MaxK
	}

	return req
}

// createRequestLogger creates a logger with request context.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) createRequestLogger(req Request) zerolog.Logger {
	return e.logger.With().
		Str("request_id", req.RequestID).
		Str("requester_id", req.Requester.ID).
		Logger()
}

// scoreCandidates runs the per-pair scoring pipeline over the pool.
// Hard-filtered pairs (self, ineligible, no common language) are
// silently excluded, never errors.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) scoreCandidates(st *modelState, req Request, requesterCluster int, logger zerolog.Logger) []MatchResult {
	results := make([]MatchResult, 0, len(req.Candidates))

	for _, candidate := range req.Candidates {
		if candidate == nil || candidate.ID == req.Requester.ID {
			metrics.CandidatesExcluded.WithLabelValues("self").Inc()
			continue
		}
		if !Eligible(candidate) {
			metrics.CandidatesExcluded.WithLabelValues("ineligible").Inc()
			continue
		}

		result, ok := e.scorePair(st, req.Requester, candidate, requesterCluster, logger)
		if !ok {
			continue
		}
		if result.Score < e.config.Thresholds.Accept {
			metrics.CandidatesExcluded.WithLabelValues("below_threshold").Inc()
			continue
		}

		results = append(results, result)
	}

	return results
}

// scorePair computes all signals for one requester/candidate pair.
// Returns ok=false when a hard constraint excludes the pair.
func (e *Engine) scorePair(st *modelState, requester, candidate *User, requesterCluster int, logger zerolog.Logger) (MatchResult, bool) {
	// Mandatory language intersection: empty means the pair is not a
	// candidate at all, in either direction.
	commonLangs, langScore := LanguageOverlap(requester, candidate, e.config.Language.SaturationCount)
	if len(commonLangs) == 0 {
		metrics.CandidatesExcluded.WithLabelValues("no_common_language").Inc()
		return MatchResult{}, false
	}

	candidateCluster, err := st.model.Predict(candidate)
	if err != nil {
		logger.Warn().Str("candidate_id", candidate.ID).Err(err).Msg("cluster prediction failed")
		return MatchResult{}, false
	}

	clusterSim := e.config.Cluster.CrossClusterSim
	if candidateCluster == requesterCluster {
		clusterSim = e.config.Cluster.SameClusterSim
	}

	interestScore, sharedInterests := InterestScore(requester, candidate, e.config.Interest)
	budgetScore := flooredBudgetScore(requester.Range(), candidate.Range(), e.config.Budget)
	safetyScore := SafetyScore(requester, candidate, e.config.Safety)

	components := ComponentScores{
		Cluster:  clusterSim,
		Interest: interestScore,
		Language: langScore,
		Budget:   budgetScore,
		Safety:   safetyScore,
	}

	score := e.composite(components)

	return MatchResult{
		CandidateID:     candidate.ID,
		Score:           score,
		Label:           e.config.Thresholds.Label(score),
		Reasons:         e.buildReasons(components, sharedInterests, commonLangs, candidateCluster == requesterCluster),
		SharedInterests: sharedInterests,
		SharedLanguages: commonLangs,
		ClusterID:       candidateCluster,
		Components:      components,
	}, true
}

// composite combines the component scores with the normalized weights.
// The result is clamped to [0, 1].
func (e *Engine) composite(c ComponentScores) float64 {
	w := e.config.Weights.Normalize()
	score := c.Cluster*w.Cluster +
		c.Interest*w.Interest +
		c.Language*w.Language +
		c.Budget*w.Budget +
		c.Safety*w.Safety

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// buildReasons produces short human-readable explanations for a match.
func (e *Engine) buildReasons(c ComponentScores, sharedInterests, commonLangs []string, sameCluster bool) []string {
	reasons := make([]string, 0, 4)

	if len(sharedInterests) > 0 {
		reasons = append(reasons, fmt.Sprintf("%d shared interests: %s",
			len(sharedInterests), strings.Join(sharedInterests, ", ")))
	}
	reasons = append(reasons, fmt.Sprintf("common languages: %s", strings.Join(commonLangs, ", ")))

	if c.Budget >= 0.8 {
		reasons = append(reasons, "budget ranges align closely")
	}
	if sameCluster {
		reasons = append(reasons, "similar traveler profile")
	}
	if c.Safety >= 1 {
		reasons = append(reasons, "both sides verified")
	}

	return reasons
}

// buildResponse constructs the final response.
//
//nolint:gocritic // hugeParam: req passed by value for immutability
func (e *Engine) buildResponse(req Request, st *modelState, results []MatchResult, start time.Time, consensusUsed bool) *Response {
	if results == nil {
		results = []MatchResult{}
	}
	return &Response{
		Matches:         results,
		TotalCandidates: len(req.Candidates),
		Metadata: ResponseMetadata{
			RequestID:     req.RequestID,
			RequesterID:   req.Requester.ID,
			LatencyMS:     time.Since(start).Milliseconds(),
			ModelVersion:  st.version,
			TrainedAt:     st.trainedAt,
			ConsensusUsed: consensusUsed,
			Timestamp:     time.Now(),
		},
	}
}

// sortMatches orders results strictly descending by composite score,
// breaking exact ties by candidate ID so identical inputs reproduce
// identical output byte for byte.
func sortMatches(results []MatchResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].CandidateID < results[j].CandidateID
	})
}

// filterEligible keeps the users passing the eligibility filter.
func filterEligible(users []*User) []*User {
	eligible := make([]*User, 0, len(users))
	for _, u := range users {
		if Eligible(u) {
			eligible = append(eligible, u)
		}
	}
	return eligible
}

// assignClusters predicts a cluster for every user in the population.
func assignClusters(model ClusterModel, users []*User) (map[string]int, error) {
	assignments := make(map[string]int, len(users))
	for _, u := range users {
		c, err := model.Predict(u)
		if err != nil {
			return nil, fmt.Errorf("predict %s: %w", u.ID, err)
		}
		assignments[u.ID] = c
	}
	return assignments, nil
}

// copyAssignments returns a defensive copy of the assignment map.
func copyAssignments(assignments map[string]int) map[string]int {
	out := make(map[string]int, len(assignments))
	for id, c := range assignments {
		out[id] = c
	}
	return out
}

// candidatesByID indexes the candidate pool for the consensus pass.
func candidatesByID(candidates []*User) map[string]*User {
	byID := make(map[string]*User, len(candidates))
	for _, c := range candidates {
		if c != nil {
			byID[c.ID] = c
		}
	}
	return byID
}
