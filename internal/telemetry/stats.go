// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package telemetry

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jeranaias/tierroute/internal/router"
	"github.com/jeranaias/tierroute/internal/util"
)

// =============================================================================
// STATS
// =============================================================================

// maxTopDecisions bounds the expensive-decision list.
const maxTopDecisions = 10

// Stats tracks routing outcomes for one session.
type Stats struct {
	mu sync.RWMutex

	started time.Time

	cycles            int
	skipped           int
	overridesConsumed int
	rejected          int

	byTier       map[string]int
	byProvenance map[router.Provenance]int

	arbiterCalls     int
	arbiterFailures  int
	arbiterDefaulted int

	costCents     float64
	baselineCents float64

	top []DecisionCost
}

// DecisionCost records one committed routing decision.
type DecisionCost struct {
	Timestamp  time.Time         `json:"timestamp"`
	Prompt     string            `json:"prompt"` // First 60 chars
	Tier       string            `json:"tier"`
	Provenance router.Provenance `json:"provenance"`
	CostCents  float64           `json:"cost_cents"`
}

// NewStats creates empty stats.
func NewStats() *Stats {
	return &Stats{
		started:      time.Now(),
		byTier:       make(map[string]int),
		byProvenance: make(map[router.Provenance]int),
	}
}

// =============================================================================
// RECORDING
// =============================================================================

// RecordDecision records a committed decision and its estimated cost
// against baseline, the most capable tier.
func (s *Stats) RecordDecision(d router.RoutingDecision, prompt string, baseline router.Tier) {
	cost := router.EstimateCost(prompt, d.Tier)
	base := router.EstimateCost(prompt, baseline)

	s.mu.Lock()
	defer s.mu.Unlock()

	s.cycles++
	s.byTier[d.Tier.ID]++
	s.byProvenance[d.Provenance]++
	s.costCents += cost
	s.baselineCents += base

	s.top = append(s.top, DecisionCost{
		Timestamp:  time.Now(),
		Prompt:     util.TruncateRunes(prompt, 60),
		Tier:       d.Tier.ID,
		Provenance: d.Provenance,
		CostCents:  cost,
	})
	sort.SliceStable(s.top, func(i, j int) bool {
		return s.top[i].CostCents > s.top[j].CostCents
	})
	if len(s.top) > maxTopDecisions {
		s.top = s.top[:maxTopDecisions]
	}
}

// RecordSkip records a cycle that took no action (empty prompt).
func (s *Stats) RecordSkip() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipped++
}

// RecordOverride records a cycle consumed by a manual override.
func (s *Stats) RecordOverride() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overridesConsumed++
}

// RecordRejected records a decision the switch collaborator refused.
func (s *Stats) RecordRejected() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rejected++
}

// RecordArbiter records one arbiter consultation.
func (s *Stats) RecordArbiter(failed, defaulted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.arbiterCalls++
	if failed {
		s.arbiterFailures++
	}
	if defaulted {
		s.arbiterDefaulted++
	}
}

// =============================================================================
// RETRIEVAL
// =============================================================================

// Summary is a point-in-time copy of Stats.
type Summary struct {
	Started           time.Time                 `json:"started"`
	Cycles            int                       `json:"cycles"`
	Skipped           int                       `json:"skipped"`
	OverridesConsumed int                       `json:"overrides_consumed"`
	Rejected          int                       `json:"rejected"`
	ByTier            map[string]int            `json:"by_tier"`
	ByProvenance      map[router.Provenance]int `json:"by_provenance"`
	ArbiterCalls      int                       `json:"arbiter_calls"`
	ArbiterFailures   int                       `json:"arbiter_failures"`
	ArbiterDefaulted  int                       `json:"arbiter_defaulted"`
	CostCents         float64                   `json:"cost_cents"`
	BaselineCents     float64                   `json:"baseline_cents"`
	SavingsCents      float64                   `json:"savings_cents"`
	TopDecisions      []DecisionCost            `json:"top_decisions"`
}

// Summary returns a copy of the current counters.
func (s *Stats) Summary() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := Summary{
		Started:           s.started,
		Cycles:            s.cycles,
		Skipped:           s.skipped,
		OverridesConsumed: s.overridesConsumed,
		Rejected:          s.rejected,
		ByTier:            make(map[string]int, len(s.byTier)),
		ByProvenance:      make(map[router.Provenance]int, len(s.byProvenance)),
		ArbiterCalls:      s.arbiterCalls,
		ArbiterFailures:   s.arbiterFailures,
		ArbiterDefaulted:  s.arbiterDefaulted,
		CostCents:         s.costCents,
		BaselineCents:     s.baselineCents,
		SavingsCents:      s.baselineCents - s.costCents,
		TopDecisions:      make([]DecisionCost, len(s.top)),
	}
	for k, v := range s.byTier {
		sum.ByTier[k] = v
	}
	for k, v := range s.byProvenance {
		sum.ByProvenance[k] = v
	}
	copy(sum.TopDecisions, s.top)
	return sum
}

// SavingsPercent returns savings as a percentage of the baseline.
func (s Summary) SavingsPercent() float64 {
	if s.BaselineCents <= 0 {
		return 0
	}
	return s.SavingsCents / s.BaselineCents * 100
}

// Format renders the summary as a short multi-line report.
func (s Summary) Format() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cycles: %d routed, %d skipped, %d overrides, %d rejected\n",
		s.Cycles, s.Skipped, s.OverridesConsumed, s.Rejected)

	tiers := make([]string, 0, len(s.ByTier))
	for id := range s.ByTier {
		tiers = append(tiers, id)
	}
	sort.Strings(tiers)
	for _, id := range tiers {
		fmt.Fprintf(&b, "  %-24s %d\n", id, s.ByTier[id])
	}

	provs := make([]string, 0, len(s.ByProvenance))
	for p := range s.ByProvenance {
		provs = append(provs, string(p))
	}
	sort.Strings(provs)
	parts := make([]string, 0, len(provs))
	for _, p := range provs {
		parts = append(parts, fmt.Sprintf("%s=%d", p, s.ByProvenance[router.Provenance(p)]))
	}
	if len(parts) > 0 {
		fmt.Fprintf(&b, "provenance: %s\n", strings.Join(parts, " "))
	}

	fmt.Fprintf(&b, "arbiter: %d calls, %d failed, %d defaulted\n",
		s.ArbiterCalls, s.ArbiterFailures, s.ArbiterDefaulted)
	fmt.Fprintf(&b, "est. cost: %.4f¢ (baseline %.4f¢, saved %.1f%%)",
		s.CostCents, s.BaselineCents, s.SavingsPercent())
	return b.String()
}
