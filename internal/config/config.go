// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for tierroute.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.tierroute/config.toml
//   - ~/.tierroute/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"

	"github.com/jeranaias/tierroute/internal/arbiter"
	"github.com/jeranaias/tierroute/internal/router"
	"github.com/jeranaias/tierroute/internal/session"
	"github.com/jeranaias/tierroute/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete tierroute configuration.
type Config struct {
	// Version of the config file format
	Version string `toml:"version" json:"version"`

	// Router configures the heuristic classifier
	Router RouterConfig `toml:"router" json:"router"`

	// Tiers is the tier catalog, cheapest first
	Tiers []TierConfig `toml:"tiers" json:"tiers"`

	// Arbiter configures the model consulted for uncertain prompts
	Arbiter ArbiterConfig `toml:"arbiter" json:"arbiter"`

	// Keys holds per-provider API keys
	Keys KeysConfig `toml:"keys" json:"keys"`

	// Server configures the HTTP host
	Server ServerConfig `toml:"server" json:"server"`

	// Log configures structured logging
	Log LogConfig `toml:"log" json:"log"`
}

// RouterConfig contains classifier configuration.
type RouterConfig struct {
	// ShortThreshold is the length in characters below which a prompt
	// with no signal is routed low
	ShortThreshold int `toml:"short_threshold" json:"short_threshold"`

	// Signals replaces the built-in signal phrases when non-empty
	Signals []string `toml:"signals,omitempty" json:"signals,omitempty"`

	// ExtraSignals are appended to the signal set
	ExtraSignals []string `toml:"extra_signals,omitempty" json:"extra_signals,omitempty"`
}

// TierConfig describes one tier of the catalog.
type TierConfig struct {
	ID      string   `toml:"id" json:"id"`
	Label   string   `toml:"label,omitempty" json:"label,omitempty"`
	Rank    int      `toml:"rank" json:"rank"`
	Class   string   `toml:"class" json:"class"`
	Aliases []string `toml:"aliases,omitempty" json:"aliases,omitempty"`

	// Pricing in cents per 1K tokens
	InputCents  float64 `toml:"input_cents_per_1k" json:"input_cents_per_1k"`
	OutputCents float64 `toml:"output_cents_per_1k" json:"output_cents_per_1k"`
}

// ArbiterConfig contains arbiter configuration.
type ArbiterConfig struct {
	// Provider is one of anthropic, openai, gemini, openrouter, static
	Provider string `toml:"provider" json:"provider"`

	// Model is the arbiter model id
	Model string `toml:"model" json:"model"`

	// MaxTokens caps the arbiter answer
	MaxTokens int `toml:"max_tokens" json:"max_tokens"`

	// HighKeyword and LowKeyword are the answers the policy asks for
	HighKeyword string `toml:"high_keyword" json:"high_keyword"`
	LowKeyword  string `toml:"low_keyword" json:"low_keyword"`

	// Policy overrides the built-in routing instruction
	Policy string `toml:"policy,omitempty" json:"policy,omitempty"`

	// TimeoutSecs bounds one arbitration
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`

	// RatePerMinute limits arbiter calls (0 = unlimited)
	RatePerMinute float64 `toml:"rate_per_minute" json:"rate_per_minute"`

	// BaseURL overrides the provider endpoint
	BaseURL string `toml:"base_url,omitempty" json:"base_url,omitempty"`

	// StaticAnswer is the reply of the static provider
	StaticAnswer string `toml:"static_answer,omitempty" json:"static_answer,omitempty"`
}

// KeysConfig holds per-provider API keys.
// SECURITY: Never logged; String() redacts them.
type KeysConfig struct {
	Anthropic  string `toml:"anthropic,omitempty" json:"anthropic,omitempty"`
	OpenAI     string `toml:"openai,omitempty" json:"openai,omitempty"`
	Gemini     string `toml:"gemini,omitempty" json:"gemini,omitempty"`
	OpenRouter string `toml:"openrouter,omitempty" json:"openrouter,omitempty"`
}

// ServerConfig contains HTTP host configuration.
type ServerConfig struct {
	Addr            string `toml:"addr" json:"addr"`
	IdleTimeoutMins int    `toml:"idle_timeout_mins" json:"idle_timeout_mins"`
	MaxSessions     int    `toml:"max_sessions" json:"max_sessions"`
}

// LogConfig contains logging configuration.
type LogConfig struct {
	Level       string `toml:"level" json:"level"`
	Development bool   `toml:"development" json:"development"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a configuration with the built-in defaults.
func Default() *Config {
	tiers := router.DefaultTiers()
	tierCfgs := make([]TierConfig, 0, len(tiers))
	for _, t := range tiers {
		tierCfgs = append(tierCfgs, TierConfig{
			ID:          t.ID,
			Label:       t.Label,
			Rank:        t.Rank,
			Class:       t.Class.String(),
			Aliases:     t.Aliases,
			InputCents:  t.Pricing.Input,
			OutputCents: t.Pricing.Output,
		})
	}

	return &Config{
		Version: "1",
		Router: RouterConfig{
			ShortThreshold: router.DefaultShortThreshold,
		},
		Tiers: tierCfgs,
		Arbiter: ArbiterConfig{
			Provider:    arbiter.ProviderAnthropic,
			Model:       arbiter.DefaultModel,
			MaxTokens:   arbiter.DefaultMaxTokens,
			HighKeyword: arbiter.DefaultKeywords.High,
			LowKeyword:  arbiter.DefaultKeywords.Low,
			TimeoutSecs: int(arbiter.DefaultTimeout / time.Second),
		},
		Server: ServerConfig{
			Addr:            "127.0.0.1:8787",
			IdleTimeoutMins: 30,
			MaxSessions:     1000,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the tierroute configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".tierroute"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files should be 0600 (owner read/write only) to protect API keys.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the default locations.
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	if path, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}
	if path, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			return LoadFromPath(path)
		}
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file into cfg.
// SECURITY: Checks and fixes file permissions on load.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return fmt.Errorf("unknown config keys: %s", strings.Join(keys, ", "))
	}
	fillDefaults(cfg)
	return nil
}

// LoadJSON loads configuration from a JSON file into cfg.
// SECURITY: Checks and fixes file permissions on load.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	fillDefaults(cfg)
	return nil
}

// LoadFromPath loads configuration from a specific file path with full validation.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills in any missing values with defaults.
func fillDefaults(cfg *Config) {
	defaults := Default()

	if cfg.Version == "" {
		cfg.Version = defaults.Version
	}

	// Router
	if cfg.Router.ShortThreshold == 0 {
		cfg.Router.ShortThreshold = defaults.Router.ShortThreshold
	}

	// Tiers
	if len(cfg.Tiers) == 0 {
		cfg.Tiers = defaults.Tiers
	}

	// Arbiter
	if cfg.Arbiter.Provider == "" {
		cfg.Arbiter.Provider = defaults.Arbiter.Provider
	}
	if cfg.Arbiter.Model == "" {
		cfg.Arbiter.Model = defaults.Arbiter.Model
	}
	if cfg.Arbiter.MaxTokens == 0 {
		cfg.Arbiter.MaxTokens = defaults.Arbiter.MaxTokens
	}
	if cfg.Arbiter.HighKeyword == "" {
		cfg.Arbiter.HighKeyword = defaults.Arbiter.HighKeyword
	}
	if cfg.Arbiter.LowKeyword == "" {
		cfg.Arbiter.LowKeyword = defaults.Arbiter.LowKeyword
	}
	if cfg.Arbiter.TimeoutSecs == 0 {
		cfg.Arbiter.TimeoutSecs = defaults.Arbiter.TimeoutSecs
	}

	// Server
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = defaults.Server.Addr
	}
	if cfg.Server.IdleTimeoutMins == 0 {
		cfg.Server.IdleTimeoutMins = defaults.Server.IdleTimeoutMins
	}
	if cfg.Server.MaxSessions == 0 {
		cfg.Server.MaxSessions = defaults.Server.MaxSessions
	}

	// Log
	if cfg.Log.Level == "" {
		cfg.Log.Level = defaults.Log.Level
	}
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Creates config files with 0600 permissions (owner read/write only).
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := os.Chmod(path, 0600); err != nil {
		return fmt.Errorf("failed to set config file permissions: %w", err)
	}

	fmt.Fprintln(file, "# tierroute configuration file")
	fmt.Fprintln(file, "# Generated by tierroute - edit with care")
	fmt.Fprintln(file, "")

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file atomically.
// SECURITY: Writes with 0600 permissions (owner read/write only).
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration. The returned error is a
// ValidateErrors listing every problem found.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// ==========================================================================
	// Router
	// ==========================================================================

	if c.Router.ShortThreshold < 1 {
		add("router.short_threshold", "must be positive, got %d", c.Router.ShortThreshold)
	}
	if err := router.ValidateSignals(c.signals()); err != nil {
		add("router.signals", "%v", err)
	}

	// ==========================================================================
	// Tiers
	// ==========================================================================

	for i, t := range c.Tiers {
		if _, err := router.ParseClassification(t.Class); err != nil {
			add(fmt.Sprintf("tiers[%d].class", i), "%v", err)
		}
		if t.InputCents < 0 || t.OutputCents < 0 {
			add(fmt.Sprintf("tiers[%d]", i), "pricing cannot be negative")
		}
	}
	if len(errs) == 0 {
		if _, err := c.Catalog(); err != nil {
			add("tiers", "%v", err)
		}
	}

	// ==========================================================================
	// Arbiter
	// ==========================================================================

	provider := strings.ToLower(c.Arbiter.Provider)
	known := false
	for _, p := range arbiter.Providers() {
		if p == provider {
			known = true
			break
		}
	}
	if !known {
		add("arbiter.provider", "invalid provider '%s', must be one of: %s", c.Arbiter.Provider, strings.Join(arbiter.Providers(), ", "))
	}
	if strings.TrimSpace(c.Arbiter.Model) == "" {
		add("arbiter.model", "cannot be empty")
	} else if known {
		if backend, err := arbiter.NewBackend(provider, arbiter.BackendOptions{}); err == nil {
			if mv, ok := backend.(arbiter.ModelValidator); ok {
				if err := mv.ValidateModel(c.Arbiter.Model); err != nil {
					add("arbiter.model", "%v", err)
				}
			}
		}
	}
	if c.Arbiter.MaxTokens < 1 || c.Arbiter.MaxTokens > 1024 {
		add("arbiter.max_tokens", "must be 1-1024, got %d", c.Arbiter.MaxTokens)
	}
	high := strings.ToLower(strings.TrimSpace(c.Arbiter.HighKeyword))
	low := strings.ToLower(strings.TrimSpace(c.Arbiter.LowKeyword))
	if high == "" {
		add("arbiter.high_keyword", "cannot be empty")
	} else if high == low {
		add("arbiter.low_keyword", "must differ from high_keyword")
	}
	if c.Arbiter.TimeoutSecs < 1 || c.Arbiter.TimeoutSecs > 300 {
		add("arbiter.timeout_secs", "must be 1-300, got %d", c.Arbiter.TimeoutSecs)
	}
	if c.Arbiter.RatePerMinute < 0 {
		add("arbiter.rate_per_minute", "cannot be negative")
	}
	if c.Arbiter.BaseURL != "" {
		if u, err := url.Parse(c.Arbiter.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
			add("arbiter.base_url", "invalid URL '%s'", c.Arbiter.BaseURL)
		}
	}

	// ==========================================================================
	// Server and log
	// ==========================================================================

	if c.Server.Addr == "" {
		add("server.addr", "cannot be empty")
	}
	if c.Server.IdleTimeoutMins < 0 {
		add("server.idle_timeout_mins", "cannot be negative")
	}
	if c.Server.MaxSessions < 0 {
		add("server.max_sessions", "cannot be negative")
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		add("log.level", "invalid level '%s', must be one of: debug, info, warn, error", c.Log.Level)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported variables:
//   - TIERROUTE_ARBITER_PROVIDER: overrides arbiter.provider
//   - TIERROUTE_ARBITER_MODEL: overrides arbiter.model
//   - TIERROUTE_ARBITER_BASE_URL: overrides arbiter.base_url
//   - TIERROUTE_SHORT_THRESHOLD: overrides router.short_threshold
//   - TIERROUTE_ADDR: overrides server.addr
//   - TIERROUTE_LOG_LEVEL: overrides log.level
//   - ANTHROPIC_API_KEY, OPENAI_API_KEY, GEMINI_API_KEY, OPENROUTER_API_KEY
func (c *Config) ApplyEnvOverrides() {
	c.applyEnv(os.Getenv)
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("TIERROUTE_ARBITER_PROVIDER"); v != "" {
		c.Arbiter.Provider = v
	}
	if v := getenv("TIERROUTE_ARBITER_MODEL"); v != "" {
		c.Arbiter.Model = v
	}
	if v := getenv("TIERROUTE_ARBITER_BASE_URL"); v != "" {
		c.Arbiter.BaseURL = v
	}
	if v := getenv("TIERROUTE_SHORT_THRESHOLD"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Router.ShortThreshold = n
		}
	}
	if v := getenv("TIERROUTE_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := getenv("TIERROUTE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}

	keys := map[string]*string{
		arbiter.ProviderAnthropic:  &c.Keys.Anthropic,
		arbiter.ProviderOpenAI:     &c.Keys.OpenAI,
		arbiter.ProviderGemini:     &c.Keys.Gemini,
		arbiter.ProviderOpenRouter: &c.Keys.OpenRouter,
	}
	for provider, field := range keys {
		if v := strings.TrimSpace(getenv(arbiter.EnvVar(provider))); v != "" {
			*field = v
		}
	}
}

// =============================================================================
// COMPONENT BUILDERS
// =============================================================================

// signals returns the effective signal set.
func (c *Config) signals() []string {
	base := c.Router.Signals
	if len(base) == 0 {
		base = router.DefaultSignals()
	}
	out := make([]string, 0, len(base)+len(c.Router.ExtraSignals))
	out = append(out, base...)
	return append(out, c.Router.ExtraSignals...)
}

// Catalog builds the tier catalog.
func (c *Config) Catalog() (*router.Catalog, error) {
	tiers := make([]router.Tier, 0, len(c.Tiers))
	for _, t := range c.Tiers {
		class, err := router.ParseClassification(t.Class)
		if err != nil {
			return nil, fmt.Errorf("tier %q: %w", t.ID, err)
		}
		tiers = append(tiers, router.Tier{
			ID:      t.ID,
			Label:   t.Label,
			Rank:    t.Rank,
			Class:   class,
			Aliases: t.Aliases,
			Pricing: router.Pricing{Input: t.InputCents, Output: t.OutputCents},
		})
	}
	return router.NewCatalog(tiers)
}

// Classifier builds the signal classifier.
func (c *Config) Classifier() (*router.Classifier, error) {
	return router.NewClassifier(c.signals(), c.Router.ShortThreshold)
}

// KeySource returns a key source backed by [keys] and the environment.
func (c *Config) KeySource() arbiter.KeySource {
	keys := make(map[string]string)
	for provider, key := range map[string]string{
		arbiter.ProviderAnthropic:  c.Keys.Anthropic,
		arbiter.ProviderOpenAI:     c.Keys.OpenAI,
		arbiter.ProviderGemini:     c.Keys.Gemini,
		arbiter.ProviderOpenRouter: c.Keys.OpenRouter,
	} {
		if key != "" {
			keys[provider] = key
		}
	}
	return arbiter.EnvKeys{Keys: keys}
}

// NewArbiter builds the arbiter client for the configured provider.
func (c *Config) NewArbiter(logger *zap.Logger) (*arbiter.Client, error) {
	timeout := time.Duration(c.Arbiter.TimeoutSecs) * time.Second
	backend, err := arbiter.NewBackend(c.Arbiter.Provider, arbiter.BackendOptions{
		BaseURL: c.Arbiter.BaseURL,
		Timeout: timeout,
		Answer:  c.Arbiter.StaticAnswer,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	return arbiter.NewClient(backend, c.KeySource(), arbiter.Options{
		Model:         c.Arbiter.Model,
		MaxTokens:     c.Arbiter.MaxTokens,
		Policy:        c.Arbiter.Policy,
		Keywords:      arbiter.Keywords{High: c.Arbiter.HighKeyword, Low: c.Arbiter.LowKeyword},
		Timeout:       timeout,
		RatePerMinute: c.Arbiter.RatePerMinute,
		Logger:        logger,
	}), nil
}

// SessionConfig returns the session manager configuration.
func (c *Config) SessionConfig() session.Config {
	cfg := session.DefaultConfig()
	cfg.IdleTimeout = time.Duration(c.Server.IdleTimeoutMins) * time.Minute
	cfg.MaxSessions = c.Server.MaxSessions
	return cfg
}

// =============================================================================
// CLONE AND STRING
// =============================================================================

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c

	clone.Router.Signals = append([]string(nil), c.Router.Signals...)
	clone.Router.ExtraSignals = append([]string(nil), c.Router.ExtraSignals...)
	clone.Tiers = make([]TierConfig, len(c.Tiers))
	for i, t := range c.Tiers {
		t.Aliases = append([]string(nil), t.Aliases...)
		clone.Tiers[i] = t
	}
	return &clone
}

// Redacted returns a copy with API keys replaced by a marker.
func (c *Config) Redacted() *Config {
	safe := c.Clone()
	for _, key := range []*string{&safe.Keys.Anthropic, &safe.Keys.OpenAI, &safe.Keys.Gemini, &safe.Keys.OpenRouter} {
		if *key != "" {
			*key = "[REDACTED]"
		}
	}
	return safe
}

// String renders the config as TOML with API keys redacted.
func (c *Config) String() string {
	var sb strings.Builder
	if err := toml.NewEncoder(&sb).Encode(c.Redacted()); err != nil {
		return fmt.Sprintf("config: %v", err)
	}
	return sb.String()
}
