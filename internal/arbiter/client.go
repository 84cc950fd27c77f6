// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package arbiter

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/tierroute/internal/util"
)

// ============================================================================
// DEFAULTS
// ============================================================================

const (
	// DefaultModel is the small model consulted for uncertain prompts.
	DefaultModel = "claude-haiku-4-5"

	// DefaultMaxTokens caps the answer. One word needs very few tokens.
	DefaultMaxTokens = 16

	// DefaultTimeout bounds one arbitration, transport included.
	DefaultTimeout = 10 * time.Second
)

// DefaultPolicy is the instruction sent with every arbitration. It asks for
// one of DefaultKeywords.
const DefaultPolicy = `You are a model router. Given a user's prompt to a coding assistant, decide which model should handle it.

Reply with ONLY one word: "sonnet" or "opus".

Use opus for:
- Complex architecture and system design
- Multi-file refactors with tricky interdependencies
- Subtle debugging (race conditions, memory leaks, flaky tests)
- Novel algorithm design
- Nuanced writing or deep analysis
- Tasks requiring long chains of reasoning

Use sonnet for everything else:
- File reads, lookups, status checks
- Simple to moderate code edits
- Running commands
- Straightforward questions
- Standard refactors
- Writing tests for existing code
- Most everyday coding tasks

When in doubt, pick sonnet. Only pick opus when the task genuinely needs deeper reasoning.`

// Options configures a Client. Zero values select the defaults.
type Options struct {
	Model     string
	MaxTokens int
	Policy    string
	Keywords  Keywords
	Timeout   time.Duration
	// RatePerMinute limits arbiter calls. Zero or negative means unlimited.
	RatePerMinute float64
	Logger        *zap.Logger
}

// ============================================================================
// CLIENT
// ============================================================================

// Client resolves uncertain prompts through a Backend. It is safe for
// concurrent use.
type Client struct {
	backend Backend
	keys    KeySource
	opts    Options
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewClient creates an arbiter client. A nil keys source behaves like EnvKeys{}.
func NewClient(backend Backend, keys KeySource, opts Options) *Client {
	if keys == nil {
		keys = EnvKeys{}
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	if opts.Policy == "" {
		opts.Policy = DefaultPolicy
	}
	switch {
	case opts.Keywords == (Keywords{}):
		opts.Keywords = DefaultKeywords
	case opts.Keywords.High == "":
		opts.Keywords.High = DefaultKeywords.High
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	c := &Client{
		backend: backend,
		keys:    keys,
		opts:    opts,
		logger:  opts.Logger,
	}
	if opts.RatePerMinute > 0 {
		burst := int(opts.RatePerMinute)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RatePerMinute/60), burst)
	}
	return c
}

// Model returns the configured arbiter model.
func (c *Client) Model() string { return c.opts.Model }

// Provider returns the backend name.
func (c *Client) Provider() string { return c.backend.Name() }

// Resolve asks the backend to settle an uncertain prompt. It makes a single
// attempt and never returns an error: every failure is a VerdictFailed whose
// Class is low.
func (c *Client) Resolve(ctx context.Context, prompt string) (v Verdict) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			v = failed(fmt.Errorf("arbiter panic: %v", r))
		}
		c.log(v, prompt, time.Since(start))
	}()

	if c.limiter != nil && !c.limiter.Allow() {
		return failed(ErrRateLimited)
	}

	if mv, ok := c.backend.(ModelValidator); ok {
		if err := mv.ValidateModel(c.opts.Model); err != nil {
			return failed(err)
		}
	}

	key, err := c.keys.APIKey(ctx, c.backend.Name())
	if err != nil {
		return failed(err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	answer, err := c.backend.Complete(ctx, Request{
		Model:     c.opts.Model,
		System:    c.opts.Policy,
		Prompt:    prompt,
		MaxTokens: c.opts.MaxTokens,
		APIKey:    key,
	})
	if err != nil {
		return failed(err)
	}
	return ParseVerdict(answer, c.opts.Keywords)
}

func (c *Client) log(v Verdict, prompt string, elapsed time.Duration) {
	fields := []zap.Field{
		zap.String("provider", c.backend.Name()),
		zap.String("model", c.opts.Model),
		zap.String("verdict", v.Kind.String()),
		zap.String("class", v.Class.String()),
		zap.String("prompt", util.TruncateRunes(prompt, 50)),
		zap.Duration("elapsed", elapsed),
	}
	if v.Failed() {
		c.logger.Warn("arbiter unavailable, defaulting to low", append(fields, zap.Error(v.Err))...)
		return
	}
	c.logger.Debug("arbiter verdict", append(fields, zap.String("answer", v.Answer))...)
}
