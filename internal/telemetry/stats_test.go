// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/tierroute/internal/router"
)

func decision(tier router.Tier, p router.Provenance) router.RoutingDecision {
	return router.RoutingDecision{Tier: tier, Provenance: p}
}

func TestStats_RecordDecision(t *testing.T) {
	cat := router.DefaultCatalog()
	low, _ := cat.ForClass(router.ClassLow)
	high := cat.MostCapable()
	prompt := strings.Repeat("please rename this variable ", 10)

	s := NewStats()
	s.RecordDecision(decision(low, router.ProvenanceHeuristic), prompt, high)
	s.RecordDecision(decision(high, router.ProvenanceArbiter), prompt, high)
	s.RecordDecision(decision(low, router.ProvenanceHeuristic), prompt, high)

	sum := s.Summary()
	assert.Equal(t, 3, sum.Cycles)
	assert.Equal(t, 2, sum.ByTier[low.ID])
	assert.Equal(t, 1, sum.ByTier[high.ID])
	assert.Equal(t, 2, sum.ByProvenance[router.ProvenanceHeuristic])
	assert.Equal(t, 1, sum.ByProvenance[router.ProvenanceArbiter])

	assert.Greater(t, sum.SavingsCents, 0.0)
	assert.InDelta(t, sum.BaselineCents-sum.CostCents, sum.SavingsCents, 1e-9)
	assert.Greater(t, sum.SavingsPercent(), 0.0)

	require.Len(t, sum.TopDecisions, 3)
	assert.Equal(t, high.ID, sum.TopDecisions[0].Tier, "most expensive first")
}

func TestStats_TopDecisionsBounded(t *testing.T) {
	tier := router.DefaultCatalog().MostCapable()
	s := NewStats()
	for i := 0; i < 25; i++ {
		s.RecordDecision(decision(tier, router.ProvenancePinned), strings.Repeat("w ", i+1), tier)
	}
	sum := s.Summary()
	assert.Len(t, sum.TopDecisions, maxTopDecisions)
	assert.Equal(t, 25, sum.Cycles)
	assert.InDelta(t, 0.0, sum.SavingsCents, 1e-9)
}

func TestStats_Counters(t *testing.T) {
	s := NewStats()
	s.RecordSkip()
	s.RecordOverride()
	s.RecordOverride()
	s.RecordRejected()
	s.RecordArbiter(false, false)
	s.RecordArbiter(true, false)
	s.RecordArbiter(false, true)

	sum := s.Summary()
	assert.Equal(t, 1, sum.Skipped)
	assert.Equal(t, 2, sum.OverridesConsumed)
	assert.Equal(t, 1, sum.Rejected)
	assert.Equal(t, 3, sum.ArbiterCalls)
	assert.Equal(t, 1, sum.ArbiterFailures)
	assert.Equal(t, 1, sum.ArbiterDefaulted)
	assert.Equal(t, 0.0, sum.SavingsPercent())
}

func TestStats_SummaryIsCopy(t *testing.T) {
	tier := router.DefaultCatalog().MostCapable()
	s := NewStats()
	s.RecordDecision(decision(tier, router.ProvenancePinned), "x", tier)

	sum := s.Summary()
	sum.ByTier[tier.ID] = 99
	sum.TopDecisions[0].Tier = "mutated"

	again := s.Summary()
	assert.Equal(t, 1, again.ByTier[tier.ID])
	assert.Equal(t, tier.ID, again.TopDecisions[0].Tier)
}

func TestStats_Concurrent(t *testing.T) {
	tier := router.DefaultCatalog().MostCapable()
	s := NewStats()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.RecordDecision(decision(tier, router.ProvenanceHeuristic), "prompt", tier)
			s.RecordArbiter(false, false)
			_ = s.Summary()
		}()
	}
	wg.Wait()

	assert.Equal(t, 50, s.Summary().Cycles)
	assert.Equal(t, 50, s.Summary().ArbiterCalls)
}

func TestSummaryFormat(t *testing.T) {
	cat := router.DefaultCatalog()
	low, _ := cat.ForClass(router.ClassLow)
	s := NewStats()
	s.RecordDecision(decision(low, router.ProvenanceHeuristic), "hello there", cat.MostCapable())
	s.RecordArbiter(true, false)

	out := s.Summary().Format()
	assert.Contains(t, out, "cycles: 1 routed")
	assert.Contains(t, out, low.ID)
	assert.Contains(t, out, "heuristic=1")
	assert.Contains(t, out, "arbiter: 1 calls, 1 failed")
	assert.Contains(t, out, "saved")
}
