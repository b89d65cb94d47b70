// Wayfarer - Travel Safety Compatibility Matching
// Copyright 2026 Wayfarer Travel
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfarer-travel/matchcore

// Package main is the entry point for the matchcore command.
//
// matchcore loads a user population, trains the cluster model, and
// ranks compatible travel companions or verified providers for a
// requesting user.
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (LOG_LEVEL, MATCH_SEED, CONSENSUS_ENABLED, ...)
//   - Config file (matchcore.yaml, or MATCHCORE_CONFIG path)
//   - Built-in defaults
//
// # Consensus Verification
//
// With CONSENSUS_ENABLED=true and ANTHROPIC_API_KEY set, the top-ranked
// matches are verified by an LLM consensus pass before being returned.
//
// # Example Usage
//
//	export LOG_LEVEL=debug
//	./matchcore -population users.json -requester user-123 -k 5
//
// With consensus verification:
//
//	export CONSENSUS_ENABLED=true
//	export ANTHROPIC_API_KEY=sk-ant-...
//	./matchcore -population users.json -requester user-123
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	json "github.com/goccy/go-json"

	"github.com/wayfarer-travel/matchcore/internal/config"
	"github.com/wayfarer-travel/matchcore/internal/consensus"
	"github.com/wayfarer-travel/matchcore/internal/logging"
	"github.com/wayfarer-travel/matchcore/internal/match"
	"github.com/wayfarer-travel/matchcore/internal/match/cluster"
)

func main() {
	populationPath := flag.String("population", "", "path to a JSON file holding the user population (overrides config)")
	requesterID := flag.String("requester", "", "id of the user requesting matches")
	k := flag.Int("k", 0, "number of matches to return (0 = configured default)")
	clusterCount := flag.Int("clusters", 0, "cluster count for training (0 = configured default)")
	statsOnly := flag.Bool("stats", false, "print match statistics instead of the full response")
	flag.Parse()

	// Load configuration first to get logging settings.
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(cfg.Logging.ToLogging())

	path := cfg.Population.Path
	if *populationPath != "" {
		path = *populationPath
	}
	if path == "" {
		logging.Fatal().Msg("No population source configured (use -population or POPULATION_PATH)")
	}
	if *requesterID == "" {
		logging.Fatal().Msg("No requester given (use -requester)")
	}

	population, err := loadPopulation(path)
	if err != nil {
		logging.Fatal().Err(err).Str("path", path).Msg("Failed to load population")
	}
	logging.Info().Int("users", len(population)).Str("path", path).Msg("Population loaded")

	engine, err := match.NewEngine(&cfg.Match, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to build matching engine")
	}
	engine.SetModelFactory(cluster.Factory(cluster.KMeansConfig{
		MaxIterations: 100,
		Seed:          cfg.Match.Seed,
	}))

	useConsensus := cfg.Consensus.Enabled
	if useConsensus {
		verifier, verr := buildVerifier(cfg)
		if verr != nil {
			logging.Fatal().Err(verr).Msg("Failed to build consensus verifier")
		}
		engine.SetVerifier(verifier)
		logging.Info().Str("model", cfg.Consensus.Anthropic.Model).Msg("Consensus verification enabled")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logging.ContextWithCorrelationID(ctx, logging.GenerateCorrelationID())

	if _, err := engine.Train(ctx, population, *clusterCount); err != nil {
		logging.Fatal().Err(err).Msg("Training failed")
	}

	requester := findUser(population, *requesterID)
	if requester == nil {
		logging.Fatal().Str("requester", *requesterID).Msg("Requester not found in population")
	}

	resp, err := engine.FindMatches(ctx, match.Request{
		Requester:    requester,
		Candidates:   population,
		K:            *k,
		UseConsensus: useConsensus,
	})
	if err != nil {
		logging.Fatal().Err(err).Msg("Matching failed")
	}

	logging.Info().
		Int("matches", len(resp.Matches)).
		Int64("latency_ms", resp.Metadata.LatencyMS).
		Bool("consensus", resp.Metadata.ConsensusUsed).
		Msg("Matching complete")

	var out any = resp
	if *statsOnly {
		out = match.Statistics(resp.Matches)
	}
	if err := writeJSON(os.Stdout, out); err != nil {
		logging.Fatal().Err(err).Msg("Failed to write output")
	}
}

// loadPopulation reads a JSON array of users from path.
func loadPopulation(path string) ([]*match.User, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read population file: %w", err)
	}

	var users []*match.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("parse population file: %w", err)
	}
	if len(users) == 0 {
		return nil, fmt.Errorf("population file %s holds no users", path)
	}
	return users, nil
}

// buildVerifier wires the Anthropic-backed consensus verifier.
func buildVerifier(cfg *config.Config) (match.Verifier, error) {
	reasoner, err := consensus.NewAnthropicReasoner(cfg.Consensus.Anthropic)
	if err != nil {
		return nil, err
	}
	return consensus.New(reasoner, cfg.Consensus.Runtime, logging.WithComponent("consensus")), nil
}

func findUser(population []*match.User, id string) *match.User {
	for _, u := range population {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func writeJSON(w *os.File, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
