// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package arbiter resolves prompts the local classifier could not decide.
//
// The arbiter sends the prompt to a small, cheap model together with a fixed
// policy instruction and reads back a one-word answer naming the tier. It is
// strictly fail-open: a missing credential, an unknown model, an exhausted
// rate budget or a transport error all produce a low verdict plus a warning,
// never an error out of the routing cycle.
//
// # Key Types
//
//   - Client: Runs one single-attempt arbitration per call
//   - Verdict: Tagged outcome (resolved, defaulted, failed)
//   - Backend: Model transport (anthropic, openai, gemini, openrouter, static)
//   - KeySource: Host-owned credential lookup
//
// # Usage
//
//	backend, _ := arbiter.NewBackend("anthropic", arbiter.BackendOptions{})
//	client := arbiter.NewClient(backend, arbiter.EnvKeys{}, arbiter.Options{
//	    Model: arbiter.DefaultModel,
//	})
//	v := client.Resolve(ctx, prompt)
//	if v.Failed() {
//	    log.Warn(v.Reason)
//	}
//	// v.Class is always low or high
package arbiter
