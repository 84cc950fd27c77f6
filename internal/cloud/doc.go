// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides OpenRouter integration for the routing arbiter.
//
// OpenRouter provides access to multiple LLM providers through a single API.
// The arbiter only needs one short, non-streaming answer per call, so this
// client makes exactly one attempt per request and bounds the response body.
//
// # Key Types
//
//   - Client: HTTP client for the OpenRouter chat completions endpoint
//   - ChatMessage: Chat message compatible with OpenRouter API format
//   - ChatRequest: Request structure for chat completions
//   - OpenRouterError: Typed API error carrying the HTTP status
//
// # Usage
//
//	client := cloud.NewClient(apiKey).WithLogger(logger)
//	answer, err := client.Complete(ctx, "haiku", policy, prompt, 16)
//
// # Security
//
// API keys are never logged; KeyFingerprint provides a stable identifier
// instead. All requests use TLS 1.2+.
package cloud
