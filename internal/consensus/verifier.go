// Wayfarer - Travel Safety Compatibility Matching
// Copyright 2026 Wayfarer Travel
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfarer-travel/matchcore

package consensus

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/wayfarer-travel/matchcore/internal/match"
	"github.com/wayfarer-travel/matchcore/internal/metrics"
)

// Reasoner is the external natural-language reasoning service.
// Implementations return the raw completion text for a prompt.
type Reasoner interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Config contains configuration for the consensus verifier.
type Config struct {
	// MaxConcurrent bounds how many verification calls run at once,
	// so total batch latency approaches a single call.
	// Default: 4.
	MaxConcurrent int `json:"max_concurrent" koanf:"max_concurrent"`

	// CallTimeout is the per-call deadline. A timed-out call degrades
	// locally; it never fails the overall match request.
	// Default: 15s.
	CallTimeout time.Duration `json:"call_timeout" koanf:"call_timeout"`

	// RatePerSecond caps the request rate to the reasoning service.
	// Default: 5.
	RatePerSecond float64 `json:"rate_per_second" koanf:"rate_per_second"`

	// BioExcerptLen is how many bio characters are forwarded as a
	// structured fact.
	// Default: 200.
	BioExcerptLen int `json:"bio_excerpt_len" koanf:"bio_excerpt_len"`
}

// DefaultConfig returns a Config with production defaults.
func DefaultConfig() Config {
	return Config{
		MaxConcurrent: 4,
		CallTimeout:   15 * time.Second,
		RatePerSecond: 5,
		BioExcerptLen: 200,
	}
}

// Verifier runs the optional consensus pass over ranked matches: one
// independent bounded-concurrency call per match, each judged strictly
// from the structured facts supplied. The verifier never fails a match
// request; every failure mode degrades to a per-match diagnostic note.
type Verifier struct {
	reasoner Reasoner
	config   Config
	logger   zerolog.Logger
	breaker  *gobreaker.CircuitBreaker[string]
	limiter  *rate.Limiter
	sem      chan struct{}
}

// New creates a consensus verifier around a reasoner.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func New(reasoner Reasoner, cfg Config, logger zerolog.Logger) *Verifier {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultConfig().MaxConcurrent
	}
	if cfg.CallTimeout <= 0 {
		cfg.CallTimeout = DefaultConfig().CallTimeout
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = DefaultConfig().RatePerSecond
	}
	if cfg.BioExcerptLen <= 0 {
		cfg.BioExcerptLen = DefaultConfig().BioExcerptLen
	}

	breaker := gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:    "consensus",
		Timeout: 30 * time.Second,
	})

	return &Verifier{
		reasoner: reasoner,
		config:   cfg,
		logger:   logger.With().Str("component", "consensus").Logger(),
		breaker:  breaker,
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.MaxConcurrent),
		sem:      make(chan struct{}, cfg.MaxConcurrent),
	}
}

// Verify runs one independent verification call per match. Calls share
// no state and have no ordering requirement. Context cancellation stops
// issuing further calls; already-computed algorithmic results are
// returned untouched.
func (v *Verifier) Verify(ctx context.Context, requester *match.User, candidates map[string]*match.User, results []match.MatchResult) []match.MatchResult {
	out := make([]match.MatchResult, len(results))
	copy(out, results)

	var wg sync.WaitGroup
	for i := range out {
		if ctx.Err() != nil {
			break
		}

		candidate := candidates[out[i].CandidateID]
		if candidate == nil {
			continue
		}

		v.sem <- struct{}{}
		wg.Add(1)
		go func(result *match.MatchResult) {
			defer wg.Done()
			defer func() { <-v.sem }()
			v.verifyOne(ctx, requester, candidate, result)
		}(&out[i])
	}
	wg.Wait()

	return out
}

// verifyOne issues a single verification call and applies the verdict.
func (v *Verifier) verifyOne(ctx context.Context, requester, candidate *match.User, result *match.MatchResult) {
	start := time.Now()

	verdict, note, err := v.callReasoner(ctx, requester, candidate, result)
	metrics.ConsensusLatency.Observe(time.Since(start).Seconds())

	if err != nil {
		// Failure policy: keep the match, mark it verified with the
		// base quality and attach a diagnostic note.
		metrics.ConsensusCalls.WithLabelValues("degraded").Inc()
		v.logger.Warn().
			Str("candidate_id", result.CandidateID).
			Err(err).
			Msg("consensus call degraded")

		result.Label = match.LabelGood
		result.Consensus = &match.ConsensusResult{
			Verdict:  match.LabelGood,
			Verified: true,
			Note:     fmt.Sprintf("consensus verification unavailable: %v", err),
		}
		return
	}

	metrics.ConsensusCalls.WithLabelValues(string(verdict)).Inc()

	if verdict == match.LabelPoor {
		result.Label = match.LabelPoor
		result.Consensus = &match.ConsensusResult{
			Verdict:  match.LabelPoor,
			Verified: false,
			Note:     note,
		}
		return
	}

	result.Label = verdict
	result.Consensus = &match.ConsensusResult{
		Verdict:  verdict,
		Verified: true,
		Note:     note,
	}
}

// callReasoner performs the rate-limited, breaker-guarded call with its
// own timeout and parses the response.
func (v *Verifier) callReasoner(ctx context.Context, requester, candidate *match.User, result *match.MatchResult) (match.QualityLabel, string, error) {
	callCtx, cancel := context.WithTimeout(ctx, v.config.CallTimeout)
	defer cancel()

	if err := v.limiter.Wait(callCtx); err != nil {
		return "", "", fmt.Errorf("rate limit wait: %w", err)
	}

	prompt := v.buildPrompt(requester, candidate, result)
	raw, err := v.breaker.Execute(func() (string, error) {
		return v.reasoner.Complete(callCtx, systemPrompt, prompt)
	})
	if err != nil {
		return "", "", fmt.Errorf("reasoning call: %w", err)
	}

	return parseVerdict(raw)
}

// parseVerdict extracts the verdict and justification from the fixed
// line-prefix wire format the reasoning service is contracted to emit,
// and validates the verdict against the closed label set. Anything
// outside the contract is a parse error handled by the failure policy.
func parseVerdict(raw string) (match.QualityLabel, string, error) {
	var verdict match.QualityLabel
	var note string

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "VERDICT:"):
			verdict = match.QualityLabel(strings.ToUpper(strings.TrimSpace(strings.TrimPrefix(line, "VERDICT:"))))
		case strings.HasPrefix(line, "REASON:"):
			note = strings.TrimSpace(strings.TrimPrefix(line, "REASON:"))
		}
	}

	if verdict == "" {
		return "", "", fmt.Errorf("no verdict line in response")
	}
	if !verdict.Valid() {
		return "", "", fmt.Errorf("verdict %q outside closed set", verdict)
	}

	return verdict, note, nil
}

// Ensure interface compliance.
var _ match.Verifier = (*Verifier)(nil)
