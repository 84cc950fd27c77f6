// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package arbiter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"
	"go.uber.org/zap"
)

// AnthropicBackend calls the Anthropic Messages API.
type AnthropicBackend struct {
	client anthropic.Client
	logger *zap.Logger
}

// NewAnthropicBackend creates the backend. The SDK's own retries are
// disabled; the key is supplied per request.
func NewAnthropicBackend(opts BackendOptions) *AnthropicBackend {
	reqOpts := []anthropicoption.RequestOption{anthropicoption.WithMaxRetries(0)}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, anthropicoption.WithBaseURL(opts.BaseURL))
	}
	if opts.Timeout > 0 {
		reqOpts = append(reqOpts, anthropicoption.WithRequestTimeout(opts.Timeout))
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnthropicBackend{
		client: anthropic.NewClient(reqOpts...),
		logger: logger,
	}
}

// Name implements Backend.
func (b *AnthropicBackend) Name() string { return ProviderAnthropic }

// Complete implements Backend.
func (b *AnthropicBackend) Complete(ctx context.Context, req Request) (string, error) {
	if req.APIKey == "" {
		return "", ErrNoCredential
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: int64(req.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	msg, err := b.client.Messages.New(ctx, params, anthropicoption.WithAPIKey(req.APIKey))
	if err != nil {
		var apiErr *anthropic.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return "", fmt.Errorf("%w: %s", ErrUnknownModel, req.Model)
		}
		return "", fmt.Errorf("anthropic: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	b.logger.Debug("anthropic arbiter answer",
		zap.String("model", req.Model),
		zap.Int64("output_tokens", msg.Usage.OutputTokens))
	return sb.String(), nil
}
