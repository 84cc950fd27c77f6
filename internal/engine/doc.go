// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package engine runs routing cycles for a session.
//
// One cycle takes a prompt and, depending on the session mode, either
// re-asserts the pinned tier, consumes a one-shot manual override, or
// classifies the prompt (falling back to the arbiter when the heuristics are
// uncertain) and switches the host to the resolved tier.
//
// # Key Types
//
//   - Engine: Cycle, Pin, Unpin and ObserveTierSelect for one host
//   - Applier: Idempotent switch of the host to a resolved tier
//   - Switcher: Host collaborator that reports and changes the active tier
//   - StatusSink: Host collaborator for status labels and notifications
//   - CycleResult: Decision plus the action the cycle took
//
// # Usage
//
//	eng, err := engine.New(engine.Options{
//	    Catalog:    catalog,
//	    Classifier: classifier,
//	    Arbiter:    arbiterClient,
//	    Switcher:   host,
//	    Status:     host,
//	})
//	res := eng.Cycle(ctx, state, prompt)
//
// # Failure Model
//
// Nothing in a cycle is fatal. Arbiter failures default to the low tier,
// switch failures leave the session unchanged, and both are reported through
// the StatusSink.
package engine
