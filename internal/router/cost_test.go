// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateTokens(t *testing.T) {
	tests := []struct {
		text     string
		expected int
	}{
		{"", 0},
		{"hello", 1},                        // (1 + 5/4) / 2
		{strings.Repeat("word ", 100), 112}, // (100 + 500/4) / 2
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, EstimateTokens(tt.text), "EstimateTokens(%q)", tt.text)
	}
}

func TestTierCostCents(t *testing.T) {
	tier := Tier{ID: "t", Pricing: Pricing{Input: 0.3, Output: 1.5}}

	assert.InDelta(t, 0.0, tier.CostCents(0, 0), 1e-9)
	assert.InDelta(t, 0.3+1.5, tier.CostCents(1000, 1000), 1e-9)
	assert.InDelta(t, 0.15, tier.CostCents(500, 0), 1e-9)
}

func TestSavingsCents(t *testing.T) {
	c := DefaultCatalog()
	low, _ := c.ForClass(ClassLow)
	high := c.MostCapable()

	prompt := strings.Repeat("refactor the handler please ", 40)

	assert.Greater(t, SavingsCents(prompt, low, high), 0.0)
	assert.InDelta(t, 0.0, SavingsCents(prompt, high, high), 1e-9)
	assert.Greater(t, EstimateCost(prompt, high), EstimateCost(prompt, low))
}
