// Wayfarer - Travel Safety Compatibility Matching
// Copyright 2026 Wayfarer Travel
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfarer-travel/matchcore

package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/wayfarer-travel/matchcore/internal/consensus"
	"github.com/wayfarer-travel/matchcore/internal/logging"
	"github.com/wayfarer-travel/matchcore/internal/match"
)

// Config is the top-level application configuration.
type Config struct {
	// Logging configures the structured logger.
	Logging LoggingConfig `json:"logging" koanf:"logging"`

	// Match configures the compatibility matching engine.
	Match match.Config `json:"match" koanf:"match"`

	// Consensus configures the optional LLM verification stage.
	Consensus ConsensusConfig `json:"consensus" koanf:"consensus"`

	// Population configures where seed user data is loaded from.
	Population PopulationConfig `json:"population" koanf:"population"`
}

// LoggingConfig mirrors logging.Config with validation tags.
type LoggingConfig struct {
	// Level is the minimum log level.
	// Default: info
	Level string `json:"level" koanf:"level" validate:"oneof=trace debug info warn warning error fatal panic disabled"`

	// Format is json or console.
	// Default: json
	Format string `json:"format" koanf:"format" validate:"oneof=json console"`

	// Caller includes caller file and line number in logs.
	// Default: false
	Caller bool `json:"caller" koanf:"caller"`
}

// ToLogging converts the validated section into a logging.Config.
func (c LoggingConfig) ToLogging() logging.Config {
	return logging.Config{
		Level:     c.Level,
		Format:    c.Format,
		Caller:    c.Caller,
		Timestamp: true,
	}
}

// ConsensusConfig configures the consensus verification stage.
type ConsensusConfig struct {
	// Enabled turns on LLM verification of ranked matches.
	// Requires an Anthropic API key. Default: false
	Enabled bool `json:"enabled" koanf:"enabled"`

	// Runtime bounds concurrency, timeouts, and rate for verification calls.
	Runtime consensus.Config `json:"runtime" koanf:"runtime"`

	// Anthropic holds the model client settings. The API key is read from
	// the ANTHROPIC_API_KEY environment variable.
	Anthropic consensus.AnthropicConfig `json:"anthropic" koanf:"anthropic"`
}

// PopulationConfig configures the seed user population source.
type PopulationConfig struct {
	// Path is a JSON file holding an array of users.
	Path string `json:"path" koanf:"path"`
}

// defaultConfig returns a Config with all default values applied.
// These defaults are applied first, then overridden by config file and
// env vars.
func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Match: *match.DefaultConfig(),
		Consensus: ConsensusConfig{
			Enabled:   false,
			Runtime:   consensus.DefaultConfig(),
			Anthropic: consensus.DefaultAnthropicConfig(),
		},
		Population: PopulationConfig{
			Path: "",
		},
	}
}

// Validate checks the configuration for consistency. Struct tags cover
// enumerations; cross-field rules delegate to the section owners.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}
	if err := c.Match.Validate(); err != nil {
		return fmt.Errorf("match config: %w", err)
	}
	if c.Consensus.Enabled {
		if c.Consensus.Runtime.MaxConcurrent < 1 {
			return fmt.Errorf("consensus max_concurrent must be >= 1, got %d", c.Consensus.Runtime.MaxConcurrent)
		}
		if c.Consensus.Anthropic.Model == "" {
			return fmt.Errorf("consensus model must not be empty")
		}
	}
	return nil
}
