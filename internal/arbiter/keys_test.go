// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package arbiter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvKeys(t *testing.T) {
	env := map[string]string{"OPENAI_API_KEY": " sk-env "}
	keys := EnvKeys{
		Keys:   map[string]string{ProviderAnthropic: "sk-config"},
		Getenv: func(k string) string { return env[k] },
	}
	ctx := context.Background()

	k, err := keys.APIKey(ctx, "Anthropic")
	require.NoError(t, err)
	assert.Equal(t, "sk-config", k, "explicit key wins")

	k, err = keys.APIKey(ctx, ProviderOpenAI)
	require.NoError(t, err)
	assert.Equal(t, "sk-env", k)

	_, err = keys.APIKey(ctx, ProviderGemini)
	assert.ErrorIs(t, err, ErrNoCredential)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")

	k, err = keys.APIKey(ctx, ProviderStatic)
	require.NoError(t, err)
	assert.Empty(t, k)
}

func TestEnvKeys_DefaultsToProcessEnv(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-or-from-env")
	k, err := EnvKeys{}.APIKey(context.Background(), ProviderOpenRouter)
	require.NoError(t, err)
	assert.Equal(t, "sk-or-from-env", k)
}

func TestStaticKey(t *testing.T) {
	k, err := StaticKey("abc").APIKey(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, "abc", k)

	_, err = StaticKey("").APIKey(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrNoCredential)
}

func TestEnvVar(t *testing.T) {
	assert.Equal(t, "ANTHROPIC_API_KEY", EnvVar("anthropic"))
	assert.Equal(t, "", EnvVar("static"))
}
