// Wayfarer - Travel Safety Compatibility Matching
// Copyright 2026 Wayfarer Travel
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfarer-travel/matchcore

package match

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

// stubModel is a hand-rolled ClusterModel with fixed assignments.
type stubModel struct {
	assignments map[string]int
	k           int
	fitErr      error
	fittedK     int
	fitCalls    int
}

func (m *stubModel) Fit(_ context.Context, _ []*User, k int) error {
	m.fitCalls++
	m.fittedK = k
	m.k = k
	return m.fitErr
}

func (m *stubModel) Predict(u *User) (int, error) {
	c, ok := m.assignments[u.ID]
	if !ok {
		return 0, fmt.Errorf("no assignment for %s", u.ID)
	}
	return c, nil
}

func (m *stubModel) Clusters() int { return m.k }

// stubVerifier records calls and optionally relabels every result.
type stubVerifier struct {
	calls   int
	relabel QualityLabel
}

func (v *stubVerifier) Verify(_ context.Context, _ *User, _ map[string]*User, results []MatchResult) []MatchResult {
	v.calls++
	if v.relabel == "" {
		return results
	}
	out := make([]MatchResult, len(results))
	copy(out, results)
	for i := range out {
		out[i].Label = v.relabel
		out[i].Consensus = &ConsensusResult{Verdict: v.relabel, Verified: v.relabel != LabelPoor}
	}
	return out
}

func fullTraveler(id string, interests, languages []string, budget BudgetRange) *User {
	u := traveler(id, interests, languages)
	u.Budget = budget
	return u
}

func newTestEngine(t *testing.T, cfg *Config, model *stubModel) *Engine {
	t.Helper()

	engine, err := NewEngine(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error: %v", err)
	}
	engine.SetModelFactory(func() ClusterModel { return model })
	return engine
}

// testPopulation builds a small pool where everyone shares a cluster
// assignment in the stub model.
func testPopulation() ([]*User, *stubModel) {
	budget := BudgetRange{Min: 100, Max: 500}
	pop := []*User{
		fullTraveler("req", []string{"hiking", "food"}, []string{"english", "spanish"}, budget),
		fullTraveler("twin", []string{"hiking", "food"}, []string{"english", "spanish"}, budget),
		fullTraveler("partial", []string{"hiking", "diving"}, []string{"english"}, BudgetRange{Min: 200, Max: 500}),
		fullTraveler("foreign", []string{"hiking"}, []string{"japanese"}, budget),
	}
	model := &stubModel{assignments: map[string]int{
		"req": 0, "twin": 0, "partial": 1, "foreign": 0,
	}}
	return pop, model
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Cluster.Count = 1

	if _, err := NewEngine(cfg, zerolog.Nop()); err == nil {
		t.Error("NewEngine() should reject invalid config")
	}
}

func TestTrainRequiresFactory(t *testing.T) {
	engine, err := NewEngine(nil, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewEngine() error: %v", err)
	}

	if _, err := engine.Train(context.Background(), []*User{traveler("a", nil, nil)}, 0); err == nil {
		t.Error("Train() without factory should fail")
	}
}

func TestTrainEmptyPopulation(t *testing.T) {
	engine := newTestEngine(t, nil, &stubModel{})

	// Only ineligible users: no travelers, providers unverified.
	pop := []*User{provider("p1", false, false), provider("p2", true, false)}
	if _, err := engine.Train(context.Background(), pop, 0); !errors.Is(err, ErrEmptyPopulation) {
		t.Errorf("Train() error = %v, want ErrEmptyPopulation", err)
	}
}

func TestTrainDegradesClusterCount(t *testing.T) {
	tests := []struct {
		name       string
		population int
		requested  int
		wantK      int
	}{
		{"small population degrades", 3, 10, 2},
		{"population six halves", 6, 10, 3},
		{"zero uses default", 20, 0, 5},
		{"explicit request honored", 20, 4, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &stubModel{assignments: map[string]int{}}
			pop := make([]*User, 0, tt.population)
			for i := 0; i < tt.population; i++ {
				id := fmt.Sprintf("u%d", i)
				pop = append(pop, traveler(id, nil, []string{"english"}))
				model.assignments[id] = 0
			}

			engine := newTestEngine(t, nil, model)
			if _, err := engine.Train(context.Background(), pop, tt.requested); err != nil {
				t.Fatalf("Train() error: %v", err)
			}
			if model.fittedK != tt.wantK {
				t.Errorf("fitted k = %d, want %d", model.fittedK, tt.wantK)
			}
		})
	}
}

func TestTrainReturnsAssignmentsCopy(t *testing.T) {
	pop, model := testPopulation()
	engine := newTestEngine(t, nil, model)

	assignments, err := engine.Train(context.Background(), pop, 0)
	if err != nil {
		t.Fatalf("Train() error: %v", err)
	}
	if len(assignments) != len(pop) {
		t.Fatalf("assignments len = %d, want %d", len(assignments), len(pop))
	}

	assignments["req"] = 99
	if c, err := engine.ClusterOf(pop[0]); err != nil || c != 0 {
		t.Errorf("ClusterOf(req) = %d, %v; want 0, nil", c, err)
	}
}

func TestTrainVersionsIncrement(t *testing.T) {
	pop, model := testPopulation()
	engine := newTestEngine(t, nil, model)

	for i := 0; i < 2; i++ {
		if _, err := engine.Train(context.Background(), pop, 0); err != nil {
			t.Fatalf("Train() error: %v", err)
		}
	}

	resp, err := engine.FindMatches(context.Background(), Request{Requester: pop[0], Candidates: pop})
	if err != nil {
		t.Fatalf("FindMatches() error: %v", err)
	}
	if resp.Metadata.ModelVersion != 2 {
		t.Errorf("ModelVersion = %d, want 2", resp.Metadata.ModelVersion)
	}
}

func TestClusterOfBeforeTrain(t *testing.T) {
	engine := newTestEngine(t, nil, &stubModel{})

	if _, err := engine.ClusterOf(traveler("a", nil, nil)); !errors.Is(err, ErrNotTrained) {
		t.Errorf("ClusterOf() error = %v, want ErrNotTrained", err)
	}
}

func TestFindMatchesBeforeTrain(t *testing.T) {
	engine := newTestEngine(t, nil, &stubModel{})

	_, err := engine.FindMatches(context.Background(), Request{Requester: traveler("a", nil, nil)})
	if !errors.Is(err, ErrNotTrained) {
		t.Errorf("FindMatches() error = %v, want ErrNotTrained", err)
	}
}

func TestFindMatchesNilRequester(t *testing.T) {
	engine := newTestEngine(t, nil, &stubModel{})

	if _, err := engine.FindMatches(context.Background(), Request{}); !errors.Is(err, ErrNilRequester) {
		t.Errorf("FindMatches() error = %v, want ErrNilRequester", err)
	}
}

func TestFindMatchesProviderRequesterEmpty(t *testing.T) {
	pop, model := testPopulation()
	p := provider("prov", true, true)
	model.assignments["prov"] = 0

	engine := newTestEngine(t, nil, model)
	if _, err := engine.Train(context.Background(), pop, 0); err != nil {
		t.Fatalf("Train() error: %v", err)
	}

	resp, err := engine.FindMatches(context.Background(), Request{Requester: p, Candidates: pop})
	if err != nil {
		t.Fatalf("FindMatches() error: %v", err)
	}
	if len(resp.Matches) != 0 {
		t.Errorf("provider requester got %d matches, want 0", len(resp.Matches))
	}
}

func TestFindMatchesExcludesSelfAndNoCommonLanguage(t *testing.T) {
	pop, model := testPopulation()
	engine := newTestEngine(t, nil, model)
	if _, err := engine.Train(context.Background(), pop, 0); err != nil {
		t.Fatalf("Train() error: %v", err)
	}

	resp, err := engine.FindMatches(context.Background(), Request{Requester: pop[0], Candidates: pop})
	if err != nil {
		t.Fatalf("FindMatches() error: %v", err)
	}

	for _, m := range resp.Matches {
		if m.CandidateID == "req" {
			t.Error("self-match returned")
		}
		if m.CandidateID == "foreign" {
			t.Error("candidate with no common language returned")
		}
	}
}

func TestFindMatchesLanguageFilterIsSymmetric(t *testing.T) {
	// The same pair excluded regardless of which side requests.
	a := fullTraveler("a", []string{"hiking"}, []string{"english"}, BudgetRange{Min: 100, Max: 500})
	b := fullTraveler("b", []string{"hiking"}, []string{"japanese"}, BudgetRange{Min: 100, Max: 500})
	model := &stubModel{assignments: map[string]int{"a": 0, "b": 0}}

	engine := newTestEngine(t, nil, model)
	if _, err := engine.Train(context.Background(), []*User{a, b}, 0); err != nil {
		t.Fatalf("Train() error: %v", err)
	}

	for _, req := range []*User{a, b} {
		resp, err := engine.FindMatches(context.Background(), Request{Requester: req, Candidates: []*User{a, b}})
		if err != nil {
			t.Fatalf("FindMatches() error: %v", err)
		}
		if len(resp.Matches) != 0 {
			t.Errorf("requester %s got %d matches, want 0", req.ID, len(resp.Matches))
		}
	}
}

func TestFindMatchesExcludesIneligibleCandidates(t *testing.T) {
	req := fullTraveler("req", []string{"hiking"}, []string{"english"}, BudgetRange{Min: 100, Max: 500})
	unverified := provider("bad", true, false)
	model := &stubModel{assignments: map[string]int{"req": 0, "bad": 0}}

	engine := newTestEngine(t, nil, model)
	if _, err := engine.Train(context.Background(), []*User{req}, 0); err != nil {
		t.Fatalf("Train() error: %v", err)
	}

	resp, err := engine.FindMatches(context.Background(), Request{Requester: req, Candidates: []*User{req, unverified}})
	if err != nil {
		t.Fatalf("FindMatches() error: %v", err)
	}
	if len(resp.Matches) != 0 {
		t.Errorf("ineligible provider returned as match")
	}
}

func TestFindMatchesOrderingAndBounds(t *testing.T) {
	pop, model := testPopulation()
	engine := newTestEngine(t, nil, model)
	if _, err := engine.Train(context.Background(), pop, 0); err != nil {
		t.Fatalf("Train() error: %v", err)
	}

	resp, err := engine.FindMatches(context.Background(), Request{Requester: pop[0], Candidates: pop})
	if err != nil {
		t.Fatalf("FindMatches() error: %v", err)
	}
	if len(resp.Matches) != 2 {
		t.Fatalf("got %d matches, want 2 (twin, partial)", len(resp.Matches))
	}

	if resp.Matches[0].CandidateID != "twin" {
		t.Errorf("top match = %s, want twin", resp.Matches[0].CandidateID)
	}

	for i, m := range resp.Matches {
		if m.Score < 0.5 || m.Score > 1 {
			t.Errorf("match %s score %v outside [0.5, 1]", m.CandidateID, m.Score)
		}
		if !m.Label.Valid() {
			t.Errorf("match %s has invalid label %q", m.CandidateID, m.Label)
		}
		if i > 0 && resp.Matches[i-1].Score < m.Score {
			t.Error("matches not in descending score order")
		}
	}
}

func TestFindMatchesClusterComponents(t *testing.T) {
	pop, model := testPopulation()
	engine := newTestEngine(t, nil, model)
	if _, err := engine.Train(context.Background(), pop, 0); err != nil {
		t.Fatalf("Train() error: %v", err)
	}

	resp, err := engine.FindMatches(context.Background(), Request{Requester: pop[0], Candidates: pop})
	if err != nil {
		t.Fatalf("FindMatches() error: %v", err)
	}

	for _, m := range resp.Matches {
		switch m.CandidateID {
		case "twin": // same cluster as requester
			if !almostEqual(m.Components.Cluster, 1.0) {
				t.Errorf("twin cluster sim = %v, want 1.0", m.Components.Cluster)
			}
		case "partial": // different cluster
			if !almostEqual(m.Components.Cluster, 0.6) {
				t.Errorf("partial cluster sim = %v, want 0.6", m.Components.Cluster)
			}
		}
	}
}

func TestFindMatchesThresholdExcludesWeakPairs(t *testing.T) {
	// Disjoint interests, dissimilar bios, distant budgets, one common
	// language: composite lands well under the acceptance threshold.
	req := fullTraveler("req", []string{"hiking"}, []string{"english", "french"}, BudgetRange{Min: 100, Max: 200})
	req.Bio = "alpine trails only"
	weak := fullTraveler("weak", []string{"opera"}, []string{"english"}, BudgetRange{Min: 5000, Max: 9000})
	weak.Bio = "luxury cruises forever"
	model := &stubModel{assignments: map[string]int{"req": 0, "weak": 1}}

	engine := newTestEngine(t, nil, model)
	if _, err := engine.Train(context.Background(), []*User{req, weak}, 0); err != nil {
		t.Fatalf("Train() error: %v", err)
	}

	resp, err := engine.FindMatches(context.Background(), Request{Requester: req, Candidates: []*User{req, weak}})
	if err != nil {
		t.Fatalf("FindMatches() error: %v", err)
	}
	if len(resp.Matches) != 0 {
		t.Errorf("sub-threshold pair returned: %+v", resp.Matches)
	}
}

func TestFindMatchesThresholdBoundaryInclusive(t *testing.T) {
	// All weight on language: one common language of a saturation of two
	// scores exactly 0.50, which must survive the filter.
	cfg := DefaultConfig()
	cfg.Weights = SignalWeights{Language: 1}

	req := fullTraveler("req", nil, []string{"english", "french"}, BudgetRange{Min: 100, Max: 200})
	cand := fullTraveler("cand", nil, []string{"english", "german"}, BudgetRange{Min: 100, Max: 200})
	model := &stubModel{assignments: map[string]int{"req": 0, "cand": 0}}

	engine := newTestEngine(t, cfg, model)
	if _, err := engine.Train(context.Background(), []*User{req, cand}, 0); err != nil {
		t.Fatalf("Train() error: %v", err)
	}

	resp, err := engine.FindMatches(context.Background(), Request{Requester: req, Candidates: []*User{req, cand}})
	if err != nil {
		t.Fatalf("FindMatches() error: %v", err)
	}
	if len(resp.Matches) != 1 {
		t.Fatalf("got %d matches, want 1 at the inclusive boundary", len(resp.Matches))
	}
	if !almostEqual(resp.Matches[0].Score, 0.5) {
		t.Errorf("score = %v, want exactly 0.5", resp.Matches[0].Score)
	}
	if resp.Matches[0].Label != LabelGood {
		t.Errorf("label = %s, want GOOD", resp.Matches[0].Label)
	}
}

func TestFindMatchesTruncatesToK(t *testing.T) {
	budget := BudgetRange{Min: 100, Max: 500}
	model := &stubModel{assignments: map[string]int{"req": 0}}
	pop := []*User{fullTraveler("req", []string{"hiking"}, []string{"english"}, budget)}
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("c%d", i)
		pop = append(pop, fullTraveler(id, []string{"hiking"}, []string{"english"}, budget))
		model.assignments[id] = 0
	}

	engine := newTestEngine(t, nil, model)
	if _, err := engine.Train(context.Background(), pop, 0); err != nil {
		t.Fatalf("Train() error: %v", err)
	}

	resp, err := engine.FindMatches(context.Background(), Request{Requester: pop[0], Candidates: pop, K: 2})
	if err != nil {
		t.Fatalf("FindMatches() error: %v", err)
	}
	if len(resp.Matches) != 2 {
		t.Errorf("got %d matches, want 2", len(resp.Matches))
	}
}

func TestFindMatchesTieBreakByCandidateID(t *testing.T) {
	budget := BudgetRange{Min: 100, Max: 500}
	model := &stubModel{assignments: map[string]int{"req": 0, "zed": 0, "amy": 0}}
	pop := []*User{
		fullTraveler("req", []string{"hiking"}, []string{"english"}, budget),
		fullTraveler("zed", []string{"hiking"}, []string{"english"}, budget),
		fullTraveler("amy", []string{"hiking"}, []string{"english"}, budget),
	}

	engine := newTestEngine(t, nil, model)
	if _, err := engine.Train(context.Background(), pop, 0); err != nil {
		t.Fatalf("Train() error: %v", err)
	}

	resp, err := engine.FindMatches(context.Background(), Request{Requester: pop[0], Candidates: pop})
	if err != nil {
		t.Fatalf("FindMatches() error: %v", err)
	}
	if len(resp.Matches) != 2 {
		t.Fatalf("got %d matches, want 2", len(resp.Matches))
	}
	if resp.Matches[0].CandidateID != "amy" || resp.Matches[1].CandidateID != "zed" {
		t.Errorf("tie order = %s, %s; want amy, zed",
			resp.Matches[0].CandidateID, resp.Matches[1].CandidateID)
	}
}

func TestFindMatchesDeterministic(t *testing.T) {
	pop, model := testPopulation()
	engine := newTestEngine(t, nil, model)
	if _, err := engine.Train(context.Background(), pop, 0); err != nil {
		t.Fatalf("Train() error: %v", err)
	}

	req := Request{Requester: pop[0], Candidates: pop, RequestID: "fixed"}
	first, err := engine.FindMatches(context.Background(), req)
	if err != nil {
		t.Fatalf("FindMatches() error: %v", err)
	}
	second, err := engine.FindMatches(context.Background(), req)
	if err != nil {
		t.Fatalf("FindMatches() error: %v", err)
	}

	if !reflect.DeepEqual(first.Matches, second.Matches) {
		t.Error("identical requests produced different matches")
	}
}

func TestFindMatchesConsensus(t *testing.T) {
	pop, model := testPopulation()
	verifier := &stubVerifier{relabel: LabelPoor}

	engine := newTestEngine(t, nil, model)
	engine.SetVerifier(verifier)
	if _, err := engine.Train(context.Background(), pop, 0); err != nil {
		t.Fatalf("Train() error: %v", err)
	}

	resp, err := engine.FindMatches(context.Background(), Request{
		Requester: pop[0], Candidates: pop, UseConsensus: true,
	})
	if err != nil {
		t.Fatalf("FindMatches() error: %v", err)
	}

	if verifier.calls != 1 {
		t.Errorf("verifier calls = %d, want 1", verifier.calls)
	}
	if !resp.Metadata.ConsensusUsed {
		t.Error("ConsensusUsed not set")
	}
	for _, m := range resp.Matches {
		if m.Label != LabelPoor || m.Consensus == nil {
			t.Errorf("match %s not relabeled by verifier: %+v", m.CandidateID, m)
		}
	}
}

func TestFindMatchesConsensusSkippedWhenDisabled(t *testing.T) {
	pop, model := testPopulation()
	verifier := &stubVerifier{}

	engine := newTestEngine(t, nil, model)
	engine.SetVerifier(verifier)
	if _, err := engine.Train(context.Background(), pop, 0); err != nil {
		t.Fatalf("Train() error: %v", err)
	}

	resp, err := engine.FindMatches(context.Background(), Request{Requester: pop[0], Candidates: pop})
	if err != nil {
		t.Fatalf("FindMatches() error: %v", err)
	}

	if verifier.calls != 0 {
		t.Errorf("verifier calls = %d, want 0", verifier.calls)
	}
	if resp.Metadata.ConsensusUsed {
		t.Error("ConsensusUsed set without consensus request")
	}
}

func TestFindMatchesReasons(t *testing.T) {
	pop, model := testPopulation()
	engine := newTestEngine(t, nil, model)
	if _, err := engine.Train(context.Background(), pop, 0); err != nil {
		t.Fatalf("Train() error: %v", err)
	}

	resp, err := engine.FindMatches(context.Background(), Request{Requester: pop[0], Candidates: pop})
	if err != nil {
		t.Fatalf("FindMatches() error: %v", err)
	}

	var twin *MatchResult
	for i := range resp.Matches {
		if resp.Matches[i].CandidateID == "twin" {
			twin = &resp.Matches[i]
		}
	}
	if twin == nil {
		t.Fatal("twin not matched")
	}

	want := []string{
		"2 shared interests: food, hiking",
		"common languages: english, spanish",
		"budget ranges align closely",
		"similar traveler profile",
		"both sides verified",
	}
	if !reflect.DeepEqual(twin.Reasons, want) {
		t.Errorf("Reasons = %v, want %v", twin.Reasons, want)
	}
}

func TestPrepareRequestDefaultsAndClamps(t *testing.T) {
	engine := newTestEngine(t, nil, &stubModel{})

	tests := []struct {
		name  string
		k     int
		wantK int
	}{
		{"zero uses default", 0, 10},
		{"negative clamps to one", -3, 1},
		{"over max clamps to max", 200, 50},
		{"in range kept", 7, 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.prepareRequest(Request{Requester: traveler("a", nil, nil), K: tt.k})
			if got.K != tt.wantK {
				t.Errorf("K = %d, want %d", got.K, tt.wantK)
			}
			if got.RequestID == "" {
				t.Error("RequestID not generated")
			}
		})
	}
}
