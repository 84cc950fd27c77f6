// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"strings"
)

// ============================================================================
// TOKEN ESTIMATION
// ============================================================================

// DefaultOutputRatio is the assumed output:input token ratio for a routed
// prompt when nothing better is known.
const DefaultOutputRatio = 3.0

// EstimateTokens approximates the token count of text.
// GPT-style: ~4 chars per token on average, blended with the word count.
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	chars := len(text)
	return (words + chars/4) / 2
}

// ============================================================================
// PRICING
// ============================================================================

// Pricing holds input and output pricing per 1K tokens in cents.
type Pricing struct {
	Input  float64 `json:"input" toml:"input"`   // Cost per 1K input tokens in cents
	Output float64 `json:"output" toml:"output"` // Cost per 1K output tokens in cents
}

// CostCents returns the cost of a request on this tier in cents.
func (t Tier) CostCents(inputTokens, outputTokens int) float64 {
	inputCost := (float64(inputTokens) / 1000.0) * t.Pricing.Input
	outputCost := (float64(outputTokens) / 1000.0) * t.Pricing.Output
	return inputCost + outputCost
}

// EstimateCost estimates the cost in cents of sending prompt to tier,
// assuming DefaultOutputRatio output tokens per input token.
func EstimateCost(prompt string, tier Tier) float64 {
	in := EstimateTokens(prompt)
	return tier.CostCents(in, int(float64(in)*DefaultOutputRatio))
}

// SavingsCents returns how much cheaper actual was than baseline for the
// same prompt. Positive means money saved.
func SavingsCents(prompt string, actual, baseline Tier) float64 {
	return EstimateCost(prompt, baseline) - EstimateCost(prompt, actual)
}
