// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package arbiter

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Error variables for arbitration failures. Each one becomes a failed
// verdict; none is ever returned out of Resolve.
var (
	// ErrNoCredential indicates the key source had no API key for the backend.
	ErrNoCredential = errors.New("no API key for arbiter")

	// ErrUnknownModel indicates the backend does not know the arbiter model.
	ErrUnknownModel = errors.New("arbiter model not found")

	// ErrRateLimited indicates the local arbiter call budget is exhausted.
	ErrRateLimited = errors.New("arbiter rate budget exhausted")

	// ErrUnknownProvider indicates NewBackend was asked for an unsupported provider.
	ErrUnknownProvider = errors.New("unknown arbiter provider")
)

// Provider names accepted by NewBackend.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderStatic     = "static"
)

// Request is one arbitration request as seen by a backend.
type Request struct {
	// Model is the backend-specific model identifier.
	Model string
	// System is the policy instruction.
	System string
	// Prompt is the user prompt, verbatim.
	Prompt string
	// MaxTokens caps the answer length.
	MaxTokens int
	// APIKey is the credential resolved from the KeySource.
	APIKey string
}

// Backend sends one request to a model and returns its text answer.
// Implementations make exactly one attempt.
type Backend interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}

// ModelValidator is implemented by backends that know their model catalog.
type ModelValidator interface {
	ValidateModel(model string) error
}

// BackendOptions configures NewBackend.
type BackendOptions struct {
	// BaseURL overrides the provider endpoint (OpenAI-compatible vendors,
	// proxies, tests).
	BaseURL string
	// Timeout bounds the transport. Zero keeps the provider default.
	Timeout time.Duration
	// Answer is the fixed reply of the static backend.
	Answer string
	// Logger receives transport debug logs.
	Logger *zap.Logger
}

// NewBackend constructs a backend by provider name.
func NewBackend(provider string, opts BackendOptions) (Backend, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case ProviderAnthropic:
		return NewAnthropicBackend(opts), nil
	case ProviderOpenAI:
		return NewOpenAIBackend(opts), nil
	case ProviderGemini:
		return NewGeminiBackend(opts), nil
	case ProviderOpenRouter:
		return NewOpenRouterBackend(opts), nil
	case ProviderStatic:
		return &StaticBackend{Answer: opts.Answer}, nil
	default:
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownProvider, provider, strings.Join(Providers(), ", "))
	}
}

// Providers returns the supported provider names in sorted order.
func Providers() []string {
	p := []string{ProviderAnthropic, ProviderOpenAI, ProviderGemini, ProviderOpenRouter, ProviderStatic}
	sort.Strings(p)
	return p
}

// ============================================================================
// STATIC BACKEND
// ============================================================================

// StaticBackend answers every request with a fixed reply. It needs no
// credential and is used offline and in tests.
type StaticBackend struct {
	Answer string
	Err    error
	// Models restricts accepted models when non-empty.
	Models []string
}

// Name implements Backend.
func (b *StaticBackend) Name() string { return ProviderStatic }

// Complete implements Backend.
func (b *StaticBackend) Complete(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if b.Err != nil {
		return "", b.Err
	}
	return b.Answer, nil
}

// ValidateModel implements ModelValidator.
func (b *StaticBackend) ValidateModel(model string) error {
	if len(b.Models) == 0 {
		return nil
	}
	for _, m := range b.Models {
		if m == model {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownModel, model)
}
