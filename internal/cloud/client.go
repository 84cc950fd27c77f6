// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Configuration constants for OpenRouter API.
const (
	// DefaultOpenRouterURL is the base URL for OpenRouter API.
	DefaultOpenRouterURL = "https://openrouter.ai/api/v1"

	// DefaultModel is used when no model is set on the client.
	DefaultModel = "anthropic/claude-haiku-4.5"

	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 30 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion attacks.
	MaxResponseSize = 1 * 1024 * 1024 // 1MB limit

	userAgent = "tierroute/0.1.0"
)

// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
// Shared transport for all OpenRouter requests; per-client timeouts wrap it.
var sharedTransport = &http.Transport{
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 10,
	IdleConnTimeout:     90 * time.Second,
	TLSHandshakeTimeout: 10 * time.Second,
	TLSClientConfig: &tls.Config{
		MinVersion: tls.VersionTLS12,
	},
}

// OpenRouterModels maps friendly names to full model identifiers.
var OpenRouterModels = map[string]string{
	"auto":        "openrouter/auto",
	"haiku":       "anthropic/claude-haiku-4.5",
	"sonnet":      "anthropic/claude-sonnet-4.6",
	"opus":        "anthropic/claude-opus-4.6",
	"gpt4o-mini":  "openai/gpt-4o-mini",
	"gemini-lite": "google/gemini-2.5-flash-lite",

	// Anthropic-native ids, so one config works across providers.
	"claude-haiku-4-5":  "anthropic/claude-haiku-4.5",
	"claude-sonnet-4-6": "anthropic/claude-sonnet-4.6",
	"claude-opus-4-6":   "anthropic/claude-opus-4.6",
}

// validModels is the set of known valid model identifiers for validation.
var validModels = map[string]bool{
	"openrouter/auto": true,
	// Anthropic Claude models
	"anthropic/claude-haiku-4.5":  true,
	"anthropic/claude-sonnet-4.5": true,
	"anthropic/claude-sonnet-4.6": true,
	"anthropic/claude-opus-4.5":   true,
	"anthropic/claude-opus-4.6":   true,
	"anthropic/claude-3.5-haiku":  true,
	// OpenAI GPT models
	"openai/gpt-4o":       true,
	"openai/gpt-4o-mini":  true,
	"openai/gpt-4.1-mini": true,
	// Google models
	"google/gemini-2.5-flash":      true,
	"google/gemini-2.5-flash-lite": true,
	// Meta models
	"meta-llama/llama-3.3-70b-instruct": true,
}

// Error variables for common OpenRouter errors.
var (
	// ErrNotConfigured indicates the API key is not set.
	ErrNotConfigured = errors.New("OpenRouter API key not configured")

	// ErrAuthFailed indicates authentication failed (invalid or expired API key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrModelNotFound indicates the requested model does not exist.
	ErrModelNotFound = errors.New("model not found")

	// ErrInsufficientCredits indicates the account has insufficient credits.
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrUnknownModel indicates the model is not in the validated model list.
	ErrUnknownModel = errors.New("unknown model")

	// ErrEmptyResponse indicates a successful response with no choices.
	ErrEmptyResponse = errors.New("response contained no choices")
)

// OpenRouterError represents an error from the OpenRouter API.
type OpenRouterError struct {
	Code    string
	Message string
	Status  int
}

// Error implements the error interface.
func (e *OpenRouterError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("OpenRouter error [%s] (HTTP %d): %s", e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("OpenRouter error (HTTP %d): %s", e.Status, e.Message)
}

// ChatMessage represents a single message in a chat conversation.
type ChatMessage struct {
	Role    string `json:"role"`    // "user", "assistant", or "system"
	Content string `json:"content"` // The message content
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{Role: "user", Content: content}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) ChatMessage {
	return ChatMessage{Role: "system", Content: content}
}

// ChatRequest represents a request to the chat completions endpoint.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

// ChatResponse represents a response from the chat completions endpoint.
type ChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      ChatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// GetContent returns the content of the first choice, or empty string if none.
func (r *ChatResponse) GetContent() string {
	if len(r.Choices) > 0 {
		return r.Choices[0].Message.Content
	}
	return ""
}

// apiErrorResponse represents an error response from the API.
type apiErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is a client for the OpenRouter chat completions API.
//
// Each Chat call is a single attempt: callers that need a verdict within a
// deadline get the failure immediately instead of waiting on backoff.
type Client struct {
	apiKey       string
	baseURL      string
	httpClient   *http.Client
	model        string
	siteURL      string
	siteName     string
	strictModels bool
	logger       *zap.Logger
}

// NewClient creates a new OpenRouter client with the given API key.
//
// If the API key is empty, the client will still be created but Chat requests
// will fail with ErrNotConfigured.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: DefaultOpenRouterURL,
		httpClient: &http.Client{
			Transport: sharedTransport,
			Timeout:   DefaultTimeout,
		},
		model:  DefaultModel,
		logger: zap.NewNop(),
	}
}

// WithBaseURL sets a custom base URL for the API.
func (c *Client) WithBaseURL(url string) *Client {
	if url != "" {
		c.baseURL = strings.TrimRight(url, "/")
	}
	return c
}

// WithTimeout sets the request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	if timeout > 0 {
		c.httpClient = &http.Client{Transport: c.httpClient.Transport, Timeout: timeout}
	}
	return c
}

// WithHTTPClient replaces the underlying HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	if hc != nil {
		c.httpClient = hc
	}
	return c
}

// WithSiteURL sets the site URL for rate limit categorization.
func (c *Client) WithSiteURL(url string) *Client {
	c.siteURL = url
	return c
}

// WithSiteName sets the site name for OpenRouter.
func (c *Client) WithSiteName(name string) *Client {
	c.siteName = name
	return c
}

// WithStrictModels rejects models outside the known model list.
func (c *Client) WithStrictModels(strict bool) *Client {
	c.strictModels = strict
	return c
}

// WithLogger sets the logger. A nil logger disables logging.
func (c *Client) WithLogger(logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c.logger = logger
	return c
}

// SetModel sets the default model, resolving friendly names.
func (c *Client) SetModel(model string) {
	c.model = ResolveModel(model)
}

// Model returns the current default model.
func (c *Client) Model() string {
	return c.model
}

// IsConfigured returns true if the client has an API key configured.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// KeyFingerprint returns a SHA-256 fingerprint of the API key for logging.
// SECURITY: Never exposes API key fragments.
func (c *Client) KeyFingerprint() string {
	if c.apiKey == "" {
		return "unknown"
	}
	hash := sha256.Sum256([]byte(c.apiKey))
	return fmt.Sprintf("key_sha256_%x", hash[:4])
}

// =============================================================================
// MODEL VALIDATION
// =============================================================================

// ResolveModel maps a friendly name to its full identifier. Unknown names are
// returned unchanged.
func ResolveModel(model string) string {
	model = strings.TrimSpace(model)
	if full, ok := OpenRouterModels[strings.ToLower(model)]; ok {
		return full
	}
	return model
}

// ValidateModel checks if the model is in the known valid models list.
func ValidateModel(model string) error {
	if model == "" {
		return fmt.Errorf("%w: empty model name", ErrUnknownModel)
	}
	if !validModels[ResolveModel(model)] {
		return fmt.Errorf("%w: %s", ErrUnknownModel, model)
	}
	return nil
}

// KnownModels returns the validated model identifiers in sorted order.
func KnownModels() []string {
	out := make([]string, 0, len(validModels))
	for m := range validModels {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// =============================================================================
// REQUESTS
// =============================================================================

// setHeaders sets the required headers for OpenRouter API requests.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)

	if c.siteURL != "" {
		req.Header.Set("HTTP-Referer", c.siteURL)
	}
	if c.siteName != "" {
		req.Header.Set("X-Title", c.siteName)
	}
}

// Chat performs a single non-streaming chat completion request. An empty
// req.Model selects the client's default model.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if !c.IsConfigured() {
		return nil, ErrNotConfigured
	}

	if req.Model == "" {
		req.Model = c.model
	}
	req.Model = ResolveModel(req.Model)
	req.Stream = false

	if c.strictModels {
		if err := ValidateModel(req.Model); err != nil {
			return nil, err
		}
	}

	return c.doRequest(ctx, c.baseURL+"/chat/completions", req)
}

// Complete sends a system instruction and one user message and returns the
// text of the first choice.
func (c *Client) Complete(ctx context.Context, model, system, user string, maxTokens int) (string, error) {
	messages := make([]ChatMessage, 0, 2)
	if system != "" {
		messages = append(messages, NewSystemMessage(system))
	}
	messages = append(messages, NewUserMessage(user))

	resp, err := c.Chat(ctx, ChatRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.GetContent(), nil
}

// readResponse reads the response body with size limits to prevent memory exhaustion.
func readResponse(resp *http.Response) ([]byte, error) {
	// Read one byte past the limit so an exact-size body is not mistaken for truncation
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// doRequest performs a single HTTP request to the chat completions endpoint.
// SECURITY: Headers and bodies are never logged.
func (c *Client) doRequest(ctx context.Context, requestURL string, reqBody ChatRequest) (*ChatResponse, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("openrouter request failed",
			zap.String("model", reqBody.Model),
			zap.String("key", c.KeyFingerprint()),
			zap.Error(err))
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("openrouter response",
		zap.String("model", reqBody.Model),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, handleErrorResponse(resp.StatusCode, body)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &chatResp, nil
}

// handleErrorResponse converts HTTP error responses to appropriate Go errors.
func handleErrorResponse(statusCode int, body []byte) error {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		orErr := &OpenRouterError{
			Code:    apiErr.Error.Code,
			Message: apiErr.Error.Message,
			Status:  statusCode,
		}

		switch statusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrAuthFailed, orErr.Message)
		case http.StatusPaymentRequired:
			return fmt.Errorf("%w: %s", ErrInsufficientCredits, orErr.Message)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrModelNotFound, orErr.Message)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", ErrRateLimited, orErr.Message)
		default:
			return orErr
		}
	}

	// Fallback for unparseable error responses
	switch statusCode {
	case http.StatusUnauthorized:
		return ErrAuthFailed
	case http.StatusPaymentRequired:
		return ErrInsufficientCredits
	case http.StatusNotFound:
		return ErrModelNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return &OpenRouterError{
			Message: string(body),
			Status:  statusCode,
		}
	}
}

// ValidateAPIKey checks if the API key format appears valid.
// Note: This doesn't verify the key with OpenRouter, just checks the format.
func ValidateAPIKey(apiKey string) bool {
	apiKey = strings.TrimSpace(apiKey)

	// OpenRouter keys typically start with "sk-or-"
	if !strings.HasPrefix(apiKey, "sk-or-") {
		return false
	}

	// Minimum length check (sk-or- prefix + at least 32 chars)
	if len(apiKey) < 38 {
		return false
	}

	// Count unique characters to detect obvious test keys like "sk-or-aaaaaaaaaa"
	uniqueChars := make(map[rune]bool)
	for _, char := range apiKey[6:] {
		uniqueChars[char] = true
	}
	return len(uniqueChars) >= 10
}
