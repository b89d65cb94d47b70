// Wayfarer - Travel Safety Compatibility Matching
// Copyright 2026 Wayfarer Travel
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfarer-travel/matchcore

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found will be used.
var DefaultConfigPaths = []string{
	"matchcore.yaml",
	"matchcore.yml",
	"/etc/wayfarer/matchcore.yaml",
	"/etc/wayfarer/matchcore.yml",
}

// ConfigPathEnvVar is the environment variable that can override the
// config file path.
const ConfigPathEnvVar = "MATCHCORE_CONFIG"

// Load builds the configuration from layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file (if one exists)
//  3. Environment variables: override any setting
//
// Precedence is ENV > file > defaults.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Environment variable names map to koanf paths:
	// LOG_LEVEL -> logging.level, MATCH_SEED -> match.seed
	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	// The API key never lives in a config file.
	if key := os.Getenv("ANTHROPIC_API_KEY"); key != "" {
		cfg.Consensus.Anthropic.APIKey = key
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// envTransformFunc maps environment variable names to koanf config paths.
// Unmapped keys return empty string so random environment variables do
// not pollute the configuration.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)

	envMappings := map[string]string{
		// Logging mappings
		"log_level":  "logging.level",
		"log_format": "logging.format",
		"log_caller": "logging.caller",

		// Match engine mappings
		"match_seed":            "match.seed",
		"match_cluster_count":   "match.cluster.count",
		"match_default_k":       "match.limits.default_k",
		"match_max_k":           "match.limits.max_k",
		"match_train_timeout":   "match.limits.train_timeout",
		"match_accept_score":    "match.thresholds.accept",
		"match_great_score":     "match.thresholds.great",
		"match_perfect_score":   "match.thresholds.perfect",
		"match_weight_cluster":  "match.weights.cluster",
		"match_weight_interest": "match.weights.interest",
		"match_weight_language": "match.weights.language",
		"match_weight_budget":   "match.weights.budget",
		"match_weight_safety":   "match.weights.safety",

		// Consensus mappings
		"consensus_enabled":         "consensus.enabled",
		"consensus_max_concurrent":  "consensus.runtime.max_concurrent",
		"consensus_call_timeout":    "consensus.runtime.call_timeout",
		"consensus_rate_per_second": "consensus.runtime.rate_per_second",
		"consensus_model":           "consensus.anthropic.model",
		"consensus_base_url":        "consensus.anthropic.base_url",
		"consensus_max_tokens":      "consensus.anthropic.max_tokens",
		"consensus_temperature":     "consensus.anthropic.temperature",

		// Population mappings
		"population_path": "population.path",
	}

	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	return ""
}
