// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"fmt"
	"strings"
)

// ============================================================================
// CLASSIFICATION
// ============================================================================

// Classification is the verdict of the heuristic classifier.
// Only ClassLow and ClassHigh can ever be applied to a session.
type Classification int

const (
	// ClassLow means the prompt belongs on the cheap tier.
	ClassLow Classification = iota
	// ClassHigh means the prompt needs the capable tier.
	ClassHigh
	// ClassUncertain means the heuristics could not decide; ask the arbiter.
	ClassUncertain
)

// String returns the lowercase name of the classification.
func (c Classification) String() string {
	switch c {
	case ClassLow:
		return "low"
	case ClassHigh:
		return "high"
	case ClassUncertain:
		return "uncertain"
	default:
		return fmt.Sprintf("Classification(%d)", int(c))
	}
}

// Concrete reports whether the classification names an applicable tier class.
func (c Classification) Concrete() bool {
	return c == ClassLow || c == ClassHigh
}

// MarshalText encodes the classification by name.
func (c Classification) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText accepts "low", "high" or "uncertain".
func (c *Classification) UnmarshalText(b []byte) error {
	if strings.EqualFold(strings.TrimSpace(string(b)), "uncertain") {
		*c = ClassUncertain
		return nil
	}
	parsed, err := ParseClassification(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseClassification parses "low" or "high" (case-insensitive).
// "uncertain" is rejected because a tier can never serve it.
func ParseClassification(s string) (Classification, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return ClassLow, nil
	case "high":
		return ClassHigh, nil
	default:
		return ClassLow, fmt.Errorf("invalid tier class %q: must be low or high", s)
	}
}

// ============================================================================
// PROVENANCE
// ============================================================================

// Provenance records which mechanism produced a routing decision.
type Provenance string

const (
	// ProvenanceHeuristic is a decision made by the local classifier.
	ProvenanceHeuristic Provenance = "heuristic"
	// ProvenanceArbiter is a decision resolved by the arbiter model.
	ProvenanceArbiter Provenance = "arbiter"
	// ProvenancePinned is a decision forced by a session pin.
	ProvenancePinned Provenance = "pinned"
	// ProvenanceManual is a tier the user selected outside the router.
	ProvenanceManual Provenance = "manual"
)

// ============================================================================
// ROUTING DECISION
// ============================================================================

// RoutingDecision is the concrete outcome of one routing cycle.
type RoutingDecision struct {
	// Tier is the resolved tier. Never empty on a committed decision.
	Tier Tier `json:"tier"`
	// Provenance is the mechanism that chose the tier.
	Provenance Provenance `json:"provenance"`
	// Classification is the heuristic verdict that started the cycle.
	// It stays ClassUncertain when the arbiter settled the decision and is
	// the pinned tier's class for pinned decisions.
	Classification Classification `json:"classification"`
	// Reason explains the decision in one line.
	Reason string `json:"reason"`
	// EstimatedCostCents is the estimated spend of the prompt on Tier.
	EstimatedCostCents float64 `json:"estimated_cost_cents"`
}

// String returns a human-readable summary of the routing decision.
func (d RoutingDecision) String() string {
	return fmt.Sprintf("%s via %s (class=%s, est_cost=%.4f cents): %s",
		d.Tier.ID, d.Provenance, d.Classification, d.EstimatedCostCents, d.Reason)
}
