// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cli implements the tierroute command line.
//
// Commands that route prompts build a catalog, classifier and arbiter from
// the config file and drive them through a local simulated host, so the
// same routing cycle used by the HTTP server can be tried from a shell.
//
// # Commands
//
//   - (none), repl: Interactive routing session with slash commands
//   - classify: Heuristic verdict for a prompt, with --arbiter to settle
//     uncertain ones
//   - route: One full routing cycle
//   - serve: HTTP API with config hot reload
//   - tiers: Tier catalog
//   - config show|init|validate|path: Configuration management
//   - version: Build information
//
// Commands that print results accept --json.
//
// # Exit Codes
//
//   - 0: success
//   - 1: general error
//   - 3: configuration error
//
// # Usage
//
//	func main() {
//		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
//		defer stop()
//		os.Exit(cli.Execute(ctx, version))
//	}
package cli
