// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package router provides the tier catalog and the local heuristic classifier
// used to route prompts between cost/capability tiers of a model service.
//
// Prompts are classified as low, high or uncertain. Low and high map directly
// onto the cheapest catalog tier serving that class; uncertain prompts are
// handed to an arbiter (see package arbiter) before any tier is chosen.
//
// # Key Types
//
//   - Catalog: ordered, read-only list of tier descriptors
//   - Tier: one cost/capability level (id, label, rank, class, pricing)
//   - Classifier: signal-phrase and length based prompt classifier
//   - Classification: low, high or uncertain
//   - RoutingDecision: resolved tier plus the provenance that produced it
//
// # Usage
//
//	catalog := router.DefaultCatalog()
//	classifier := router.MustClassifier(router.DefaultSignals(), router.DefaultShortThreshold)
//	switch classifier.Classify(prompt) {
//	case router.ClassHigh:
//	    tier, _ := catalog.ForClass(router.ClassHigh)
//	    // switch to tier.ID
//	case router.ClassUncertain:
//	    // ask the arbiter
//	}
//
// # Cost Estimation
//
// Each tier carries per-1K token pricing so hosts can estimate the spend of a
// routed prompt and the savings against always using the most capable tier.
package router
