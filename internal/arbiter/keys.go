// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package arbiter

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// KeySource looks up the credential for a provider. The host owns it.
type KeySource interface {
	APIKey(ctx context.Context, provider string) (string, error)
}

// providerEnv maps providers that need a credential to their conventional
// environment variable.
var providerEnv = map[string]string{
	ProviderAnthropic:  "ANTHROPIC_API_KEY",
	ProviderOpenAI:     "OPENAI_API_KEY",
	ProviderGemini:     "GEMINI_API_KEY",
	ProviderOpenRouter: "OPENROUTER_API_KEY",
}

// EnvVar returns the environment variable consulted for provider, or "" if
// the provider needs no credential.
func EnvVar(provider string) string {
	return providerEnv[strings.ToLower(provider)]
}

// EnvKeys resolves keys from an explicit map first (typically the [keys]
// config section), then from the provider's environment variable.
// Providers without a credential requirement resolve to an empty key.
type EnvKeys struct {
	Keys map[string]string
	// Getenv defaults to os.Getenv.
	Getenv func(string) string
}

// APIKey implements KeySource.
func (e EnvKeys) APIKey(ctx context.Context, provider string) (string, error) {
	provider = strings.ToLower(provider)
	if k := strings.TrimSpace(e.Keys[provider]); k != "" {
		return k, nil
	}

	env, ok := providerEnv[provider]
	if !ok {
		return "", nil
	}

	getenv := e.Getenv
	if getenv == nil {
		getenv = os.Getenv
	}
	if k := strings.TrimSpace(getenv(env)); k != "" {
		return k, nil
	}
	return "", fmt.Errorf("%w: set %s or keys.%s", ErrNoCredential, env, provider)
}

// StaticKey returns the same key for every provider.
type StaticKey string

// APIKey implements KeySource.
func (k StaticKey) APIKey(ctx context.Context, provider string) (string, error) {
	if k == "" {
		return "", ErrNoCredential
	}
	return string(k), nil
}
