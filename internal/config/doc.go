// Wayfarer - Travel Safety Compatibility Matching
// Copyright 2026 Wayfarer Travel
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/wayfarer-travel/matchcore

// Package config loads and validates the application configuration.
//
// Configuration is layered with koanf: struct defaults first, then an
// optional YAML file, then environment variables. The Anthropic API key
// is only ever read from the ANTHROPIC_API_KEY environment variable and
// never from a file.
package config
