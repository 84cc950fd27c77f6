// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package arbiter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/tierroute/internal/router"
)

func TestNewBackend(t *testing.T) {
	for _, p := range Providers() {
		b, err := NewBackend(strings.ToUpper(p), BackendOptions{})
		require.NoError(t, err, p)
		assert.Equal(t, p, b.Name())
	}

	_, err := NewBackend("bedrock", BackendOptions{})
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestStaticBackend(t *testing.T) {
	b := &StaticBackend{Answer: "opus"}
	got, err := b.Complete(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, "opus", got)
	assert.NoError(t, b.ValidateModel("anything"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = b.Complete(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnthropicBackend(t *testing.T) {
	var calls atomic.Int32
	var gotKey string
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		gotKey = r.Header.Get("X-Api-Key")
		assert.True(t, strings.HasSuffix(r.URL.Path, "/v1/messages"), r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg_01",
			"type": "message",
			"role": "assistant",
			"model": "claude-haiku-4-5",
			"content": [{"type": "text", "text": "Opus"}],
			"stop_reason": "end_turn",
			"stop_sequence": null,
			"usage": {"input_tokens": 120, "output_tokens": 2}
		}`))
	}))
	defer server.Close()

	b := NewAnthropicBackend(BackendOptions{BaseURL: server.URL + "/"})
	c := NewClient(b, StaticKey("sk-ant-test"), Options{})

	v := c.Resolve(context.Background(), strings.Repeat("x", 500))
	require.NoError(t, v.Err)
	assert.Equal(t, router.ClassHigh, v.Class)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "sk-ant-test", gotKey)
	assert.Equal(t, "claude-haiku-4-5", body["model"])
	assert.EqualValues(t, 16, body["max_tokens"])
}

func TestAnthropicBackend_NotFoundIsUnknownModel(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"not_found_error","message":"model: nope"}}`))
	}))
	defer server.Close()

	b := NewAnthropicBackend(BackendOptions{BaseURL: server.URL + "/"})
	_, err := b.Complete(context.Background(), Request{Model: "nope", Prompt: "x", MaxTokens: 16, APIKey: "k"})
	assert.ErrorIs(t, err, ErrUnknownModel)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOpenAIBackend(t *testing.T) {
	var gotAuth string
	var body map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"), r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "sonnet"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 100, "completion_tokens": 1, "total_tokens": 101}
		}`))
	}))
	defer server.Close()

	b := NewOpenAIBackend(BackendOptions{BaseURL: server.URL + "/"})
	c := NewClient(b, StaticKey("sk-oa"), Options{Model: "gpt-4o-mini"})

	v := c.Resolve(context.Background(), "review the module")
	require.NoError(t, v.Err)
	assert.Equal(t, VerdictResolved, v.Kind)
	assert.Equal(t, router.ClassLow, v.Class)
	assert.Equal(t, "Bearer sk-oa", gotAuth)

	msgs, ok := body["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, msgs, 2)
}

func TestOpenRouterBackend(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","choices":[{"message":{"role":"assistant","content":"opus"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	b := NewOpenRouterBackend(BackendOptions{BaseURL: server.URL})
	c := NewClient(b, StaticKey("sk-or-test"), Options{Model: "haiku"})

	v := c.Resolve(context.Background(), "x")
	require.NoError(t, v.Err)
	assert.Equal(t, router.ClassHigh, v.Class)

	unknown := NewClient(b, StaticKey("sk-or-test"), Options{Model: "vendor/made-up"})
	v = unknown.Resolve(context.Background(), "x")
	assert.ErrorIs(t, v.Err, ErrUnknownModel)
}

func TestOpenRouterBackend_MissingKey(t *testing.T) {
	_, err := NewOpenRouterBackend(BackendOptions{}).Complete(context.Background(), Request{Model: "haiku"})
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestSDKBackends_MissingKey(t *testing.T) {
	backends := []Backend{
		NewAnthropicBackend(BackendOptions{}),
		NewOpenAIBackend(BackendOptions{}),
		NewGeminiBackend(BackendOptions{}),
	}
	for _, b := range backends {
		_, err := b.Complete(context.Background(), Request{Model: "m", Prompt: "p"})
		assert.ErrorIs(t, err, ErrNoCredential, b.Name())
	}
}
