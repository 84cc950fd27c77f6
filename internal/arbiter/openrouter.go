// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package arbiter

import (
	"context"
	"errors"
	"fmt"

	"github.com/jeranaias/tierroute/internal/cloud"
	"go.uber.org/zap"
)

// OpenRouterBackend routes the arbiter call through OpenRouter.
type OpenRouterBackend struct {
	opts BackendOptions
}

// NewOpenRouterBackend creates the backend.
func NewOpenRouterBackend(opts BackendOptions) *OpenRouterBackend {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &OpenRouterBackend{opts: opts}
}

// Name implements Backend.
func (b *OpenRouterBackend) Name() string { return ProviderOpenRouter }

// ValidateModel implements ModelValidator against the known OpenRouter models.
func (b *OpenRouterBackend) ValidateModel(model string) error {
	if err := cloud.ValidateModel(model); err != nil {
		return fmt.Errorf("%w: %v", ErrUnknownModel, err)
	}
	return nil
}

// Complete implements Backend.
func (b *OpenRouterBackend) Complete(ctx context.Context, req Request) (string, error) {
	client := cloud.NewClient(req.APIKey).
		WithBaseURL(b.opts.BaseURL).
		WithTimeout(b.opts.Timeout).
		WithSiteName("tierroute").
		WithLogger(b.opts.Logger)

	answer, err := client.Complete(ctx, req.Model, req.System, req.Prompt, req.MaxTokens)
	switch {
	case err == nil:
		return answer, nil
	case errors.Is(err, cloud.ErrNotConfigured):
		return "", ErrNoCredential
	case errors.Is(err, cloud.ErrModelNotFound), errors.Is(err, cloud.ErrUnknownModel):
		return "", fmt.Errorf("%w: %v", ErrUnknownModel, err)
	default:
		return "", fmt.Errorf("openrouter: %w", err)
	}
}
