// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for tierroute.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// # Key Types
//
//   - Config: Main configuration structure with all settings
//   - RouterConfig: Classifier threshold and signal phrases
//   - TierConfig: One catalog tier with its class and pricing
//   - ArbiterConfig: Arbiter provider, model, policy and rate budget
//   - Watcher: Reloads the config file when it changes
//
// # Configuration Precedence
//
// Configuration is loaded from (in order of precedence):
//   - Environment variables (TIERROUTE_*, provider API key variables)
//   - ~/.tierroute/config.toml
//   - ~/.tierroute/config.json
//   - Built-in defaults
//
// # Usage
//
// Load configuration and build the routing components:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	catalog, _ := cfg.Catalog()
//	classifier, _ := cfg.Classifier()
//	arb, _ := cfg.NewArbiter(logger)
package config
