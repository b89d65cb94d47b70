// Wayfarer - Travel Safety Compatibility Matching
// Copyright 2026 Wayfarer Travel
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfarer-travel/matchcore

package consensus

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicConfig contains configuration for the Anthropic reasoner.
type AnthropicConfig struct {
	// APIKey authenticates against the Anthropic API.
	APIKey string `json:"-" koanf:"api_key"`

	// BaseURL optionally overrides the API endpoint.
	BaseURL string `json:"base_url" koanf:"base_url"`

	// Model is the model identifier.
	// Default: claude-haiku-4-5-20251001.
	Model string `json:"model" koanf:"model"`

	// MaxTokens bounds the completion length. The contracted two-line
	// response is short.
	// Default: 256.
	MaxTokens int `json:"max_tokens" koanf:"max_tokens"`

	// Temperature controls sampling variance. Verification wants
	// near-deterministic output.
	// Default: 0.
	Temperature float64 `json:"temperature" koanf:"temperature"`
}

// DefaultAnthropicConfig returns production defaults.
func DefaultAnthropicConfig() AnthropicConfig {
	return AnthropicConfig{
		Model:     "claude-haiku-4-5-20251001",
		MaxTokens: 256,
	}
}

// AnthropicReasoner implements Reasoner against the Anthropic
// Messages API.
type AnthropicReasoner struct {
	client *anthropic.Client
	config AnthropicConfig
}

// NewAnthropicReasoner creates a reasoner with the given configuration.
func NewAnthropicReasoner(cfg AnthropicConfig) (*AnthropicReasoner, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic api key not set")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultAnthropicConfig().Model
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = DefaultAnthropicConfig().MaxTokens
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	client := anthropic.NewClient(opts...)

	return &AnthropicReasoner{
		client: &client,
		config: cfg,
	}, nil
}

// Complete performs a non-streaming completion request and returns the
// concatenated text content.
func (r *AnthropicReasoner) Complete(ctx context.Context, system, prompt string) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(r.config.Model),
		MaxTokens: int64(r.config.MaxTokens),
		System: []anthropic.TextBlockParam{
			{Text: system},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
		Temperature: anthropic.Float(r.config.Temperature),
	}

	msg, err := r.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("anthropic complete: %w", err)
	}

	var content string
	for _, block := range msg.Content {
		if tb, ok := block.AsAny().(anthropic.TextBlock); ok {
			content += tb.Text
		}
	}
	return content, nil
}

// Ensure interface compliance.
var _ Reasoner = (*AnthropicReasoner)(nil)
