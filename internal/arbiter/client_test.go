// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package arbiter

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/jeranaias/tierroute/internal/router"
)

// recordingBackend captures requests and answers from a function.
type recordingBackend struct {
	mu       sync.Mutex
	name     string
	requests []Request
	answer   func(ctx context.Context, req Request) (string, error)
}

func (b *recordingBackend) Name() string {
	if b.name == "" {
		return "recording"
	}
	return b.name
}

func (b *recordingBackend) Complete(ctx context.Context, req Request) (string, error) {
	b.mu.Lock()
	b.requests = append(b.requests, req)
	b.mu.Unlock()
	return b.answer(ctx, req)
}

func (b *recordingBackend) calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.requests)
}

func answering(s string) *recordingBackend {
	return &recordingBackend{answer: func(context.Context, Request) (string, error) { return s, nil }}
}

func TestResolve_SendsPolicyPromptAndCap(t *testing.T) {
	b := answering("opus")
	c := NewClient(b, StaticKey("sk-test"), Options{})

	prompt := strings.Repeat("x", 500)
	v := c.Resolve(context.Background(), prompt)

	assert.Equal(t, VerdictResolved, v.Kind)
	assert.Equal(t, router.ClassHigh, v.Class)

	require.Equal(t, 1, b.calls())
	req := b.requests[0]
	assert.Equal(t, DefaultModel, req.Model)
	assert.Equal(t, DefaultPolicy, req.System)
	assert.Equal(t, prompt, req.Prompt)
	assert.Equal(t, 16, req.MaxTokens)
	assert.Equal(t, "sk-test", req.APIKey)
}

// TestResolve_FailOpen covers every failure path: each yields low, a
// failed verdict, and at most one backend call.
func TestResolve_FailOpen(t *testing.T) {
	tests := []struct {
		name      string
		backend   Backend
		keys      KeySource
		opts      Options
		wantErr   error
		wantCalls int
	}{
		{
			name:      "network_error",
			backend:   &recordingBackend{answer: func(context.Context, Request) (string, error) { return "", errors.New("dial tcp: connection refused") }},
			keys:      StaticKey("k"),
			wantCalls: 1,
		},
		{
			name:    "missing_credential",
			backend: &recordingBackend{name: ProviderAnthropic, answer: func(context.Context, Request) (string, error) { return "opus", nil }},
			keys:    EnvKeys{Getenv: func(string) string { return "" }},
			wantErr: ErrNoCredential,
		},
		{
			name:    "unknown_model",
			backend: &StaticBackend{Answer: "opus", Models: []string{"small-model"}},
			keys:    EnvKeys{},
			opts:    Options{Model: "missing-model"},
			wantErr: ErrUnknownModel,
		},
		{
			name:    "backend_reports_unknown_model",
			backend: &StaticBackend{Err: ErrUnknownModel},
			keys:    EnvKeys{},
			wantErr: ErrUnknownModel,
		},
		{
			name: "panicking_backend",
			backend: &recordingBackend{answer: func(context.Context, Request) (string, error) {
				panic("boom")
			}},
			keys:      StaticKey("k"),
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(tt.backend, tt.keys, tt.opts)

			var v Verdict
			require.NotPanics(t, func() { v = c.Resolve(context.Background(), "anything long enough") })

			assert.Equal(t, VerdictFailed, v.Kind)
			assert.Equal(t, router.ClassLow, v.Class)
			assert.True(t, v.Failed())
			require.Error(t, v.Err)
			assert.NotEmpty(t, v.Reason)
			if tt.wantErr != nil {
				assert.ErrorIs(t, v.Err, tt.wantErr)
			}
			if rb, ok := tt.backend.(*recordingBackend); ok {
				assert.Equal(t, tt.wantCalls, rb.calls(), "single attempt, no retries")
			}
		})
	}
}

func TestResolve_Timeout(t *testing.T) {
	b := &recordingBackend{answer: func(ctx context.Context, _ Request) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	c := NewClient(b, StaticKey("k"), Options{Timeout: 20 * time.Millisecond})

	start := time.Now()
	v := c.Resolve(context.Background(), "slow")

	assert.Equal(t, VerdictFailed, v.Kind)
	assert.ErrorIs(t, v.Err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestResolve_RateBudget(t *testing.T) {
	b := answering("opus")
	c := NewClient(b, StaticKey("k"), Options{RatePerMinute: 2})

	assert.Equal(t, router.ClassHigh, c.Resolve(context.Background(), "a").Class)
	assert.Equal(t, router.ClassHigh, c.Resolve(context.Background(), "b").Class)

	v := c.Resolve(context.Background(), "c")
	assert.Equal(t, VerdictFailed, v.Kind)
	assert.ErrorIs(t, v.Err, ErrRateLimited)
	assert.Equal(t, router.ClassLow, v.Class)
	assert.Equal(t, 2, b.calls(), "denied token must not reach the backend")
}

func TestResolve_DefaultedAnswer(t *testing.T) {
	c := NewClient(answering("  "), StaticKey("k"), Options{})
	v := c.Resolve(context.Background(), "x")
	assert.Equal(t, VerdictDefaulted, v.Kind)
	assert.Equal(t, router.ClassLow, v.Class)
	assert.NoError(t, v.Err)
}

func TestResolve_LogsFailureAtWarn(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	c := NewClient(&StaticBackend{Err: errors.New("503")}, EnvKeys{}, Options{Logger: zap.New(core)})

	c.Resolve(context.Background(), strings.Repeat("p", 200))

	warns := logs.FilterLevelExact(zap.WarnLevel).All()
	require.Len(t, warns, 1)
	fields := warns[0].ContextMap()
	assert.Equal(t, "static", fields["provider"])
	assert.Equal(t, "failed", fields["verdict"])
	assert.LessOrEqual(t, len([]rune(fields["prompt"].(string))), 50)
}

func TestResolve_KeepsCustomLowKeyword(t *testing.T) {
	tests := []struct {
		answer    string
		wantKind  VerdictKind
		wantClass router.Classification
	}{
		{"fast", VerdictResolved, router.ClassLow},
		{"opus", VerdictResolved, router.ClassHigh},
		{"sonnet", VerdictDefaulted, router.ClassLow},
	}

	for _, tt := range tests {
		t.Run(tt.answer, func(t *testing.T) {
			c := NewClient(answering(tt.answer), StaticKey("sk-test"), Options{Keywords: Keywords{Low: "fast"}})
			v := c.Resolve(context.Background(), "compare the two designs")
			assert.Equal(t, tt.wantKind, v.Kind)
			assert.Equal(t, tt.wantClass, v.Class)
		})
	}
}

func TestClientAccessors(t *testing.T) {
	c := NewClient(&StaticBackend{}, nil, Options{Model: "m"})
	assert.Equal(t, "m", c.Model())
	assert.Equal(t, ProviderStatic, c.Provider())
}
