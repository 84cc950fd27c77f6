// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package commands provides the slash command system for routing hosts.
//
// Any input starting with / is a command; everything else is a prompt that
// the host hands to the routing engine.
//
// # Key Types
//
//   - Registry: Command registry built from the tier catalog
//   - Parser: Splits input into a command and its arguments and runs it
//   - Context: Engine and session a handler acts on
//   - Completer: Tab completion for commands and tier arguments
//
// # Built-in Commands
//
//   - /pin <tier>, /pin-<tier>: Pin the session to a tier
//   - /auto: Return to automatic routing
//   - /select <tier>: Simulate a manual tier selection
//   - /status, /stats: Session mode and routing statistics
//   - /tiers: List the catalog
//   - /help, /quit
//
// # Usage
//
//	registry := commands.NewRegistry(catalog)
//	parser := commands.NewParser(registry)
//	if result := parser.Parse(input); result.IsCommand {
//	    out, err := parser.Execute(&commands.Context{Engine: eng, State: st}, result)
//	}
package commands
