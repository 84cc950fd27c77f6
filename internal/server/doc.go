// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server exposes routing sessions over a JSON HTTP API.
//
// Each session simulates one downstream host: an in-memory tier switcher
// and a status recorder, driven by its own routing engine. Observers read
// the active tier, the last status line and recent notifications from the
// session view.
//
// # Endpoints
//
//   - POST   /v1/sessions              - Start a session
//   - GET    /v1/sessions              - List live sessions
//   - GET    /v1/sessions/{id}         - Session view
//   - DELETE /v1/sessions/{id}         - End a session
//   - POST   /v1/sessions/{id}/prompt  - Run a routing cycle ({"prompt"})
//   - POST   /v1/sessions/{id}/pin     - Pin to a tier ({"tier"})
//   - POST   /v1/sessions/{id}/unpin   - Return to automatic routing
//   - POST   /v1/sessions/{id}/select  - Report a manual tier change ({"tier","source"})
//   - GET    /v1/tiers                 - Tier catalog
//   - GET    /health                   - Health check
//
// # Middleware
//
//   - Panic recovery with stack trace logging
//   - Security headers
//   - Request logging
//   - Optional CORS and per-IP rate limiting
//
// # Key Types
//
//   - Server: chi router, session hosts and lifecycle
//   - Routing: catalog, classifier and arbiter handed to new sessions
//   - SessionView, CycleResponse: response bodies
//
// # Usage
//
//	srv, err := server.New(server.Routing{
//		Catalog:    catalog,
//		Classifier: classifier,
//		Arbiter:    arb,
//	}, server.Options{Addr: "127.0.0.1:8787", Logger: logger})
//	if err != nil {
//		return err
//	}
//	go srv.Start()
//	defer srv.Shutdown(ctx)
package server
