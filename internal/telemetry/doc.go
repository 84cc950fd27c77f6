// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package telemetry provides in-memory routing statistics.
//
// Each session owns a Stats value that counts routing cycles by tier and
// provenance, tracks arbiter health, and estimates spend against an
// all-capable-tier baseline using catalog pricing.
//
// # Key Types
//
//   - Stats: Concurrency-safe per-session counters
//   - Summary: Point-in-time copy of Stats for display and JSON
//   - DecisionCost: One routed prompt with its estimated cost
//
// # Usage
//
//	stats := telemetry.NewStats()
//	stats.RecordDecision(decision, prompt, catalog.MostCapable())
//	fmt.Println(stats.Summary().Format())
//
// # Privacy
//
// Nothing is persisted or transmitted. Prompts are kept only as short
// truncated previews for the most expensive decisions.
package telemetry
