// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package arbiter

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiBackend calls the Gemini API through the genai SDK. A client is
// built per request because the SDK binds the key at construction.
type GeminiBackend struct {
	baseURL string
	logger  *zap.Logger
}

// NewGeminiBackend creates the backend.
func NewGeminiBackend(opts BackendOptions) *GeminiBackend {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiBackend{baseURL: opts.BaseURL, logger: logger}
}

// Name implements Backend.
func (b *GeminiBackend) Name() string { return ProviderGemini }

// Complete implements Backend.
func (b *GeminiBackend) Complete(ctx context.Context, req Request) (string, error) {
	if req.APIKey == "" {
		return "", ErrNoCredential
	}

	cfg := &genai.ClientConfig{
		APIKey:  req.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if b.baseURL != "" {
		cfg.HTTPOptions = genai.HTTPOptions{BaseURL: b.baseURL}
	}
	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return "", fmt.Errorf("failed to create GenAI client: %w", err)
	}

	genCfg := &genai.GenerateContentConfig{
		MaxOutputTokens: int32(req.MaxTokens),
	}
	if req.System != "" {
		genCfg.SystemInstruction = genai.NewContentFromText(req.System, genai.RoleUser)
	}

	resp, err := client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), genCfg)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return "", fmt.Errorf("%w: %s", ErrUnknownModel, req.Model)
		}
		return "", fmt.Errorf("GenAI generate failed: %w", err)
	}

	b.logger.Debug("gemini arbiter answer", zap.String("model", req.Model))
	return resp.Text(), nil
}
