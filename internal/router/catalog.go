// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ============================================================================
// TIER
// ============================================================================

// Tier describes one cost/capability level of the downstream model service.
type Tier struct {
	// ID is the service-side identifier the host switches to.
	ID string `json:"id" toml:"id"`
	// Label is the short display name used in status messages.
	Label string `json:"label" toml:"label"`
	// Rank orders tiers by cost. Lower is cheaper.
	Rank int `json:"rank" toml:"rank"`
	// Class is the classification this tier serves (low or high).
	Class Classification `json:"class" toml:"-"`
	// Aliases are alternative names accepted by Lookup (e.g. "opus").
	Aliases []string `json:"aliases,omitempty" toml:"aliases"`
	// Pricing is the per-1K token pricing in cents.
	Pricing Pricing `json:"pricing" toml:"pricing"`
}

// DisplayName returns Label, falling back to ID.
func (t Tier) DisplayName() string {
	if t.Label != "" {
		return t.Label
	}
	return t.ID
}

// clone copies the tier so callers cannot reach the catalog's alias slice.
func (t Tier) clone() Tier {
	t.Aliases = append([]string(nil), t.Aliases...)
	return t
}

// ============================================================================
// CATALOG
// ============================================================================

// Error variables for catalog construction and lookup.
var (
	// ErrEmptyCatalog indicates a catalog was built with no tiers.
	ErrEmptyCatalog = errors.New("tier catalog is empty")

	// ErrDuplicateTier indicates two tiers share an id or alias.
	ErrDuplicateTier = errors.New("duplicate tier identifier")

	// ErrMissingClass indicates no tier serves a required classification.
	ErrMissingClass = errors.New("no tier serves classification")
)

// Catalog is the ordered, read-only set of tiers known to the router.
// Tiers are sorted by Rank (cheapest first). A Catalog is safe for
// concurrent use because nothing mutates it after NewCatalog returns.
type Catalog struct {
	tiers []Tier
	index map[string]int // lowercase id or alias -> position in tiers
}

// NewCatalog validates and freezes a tier list.
//
// Every id and alias must be unique (case-insensitive), every tier must serve
// low or high, and at least one tier must serve each of them so that any
// concrete classification can be resolved.
func NewCatalog(tiers []Tier) (*Catalog, error) {
	if len(tiers) == 0 {
		return nil, ErrEmptyCatalog
	}

	sorted := make([]Tier, len(tiers))
	for i, t := range tiers {
		sorted[i] = t.clone()
	}
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Rank < sorted[j].Rank
	})

	c := &Catalog{
		tiers: sorted,
		index: make(map[string]int, len(sorted)*2),
	}

	hasClass := map[Classification]bool{}
	for i, t := range sorted {
		if strings.TrimSpace(t.ID) == "" {
			return nil, fmt.Errorf("tier at rank %d has an empty id", t.Rank)
		}
		if !t.Class.Concrete() {
			return nil, fmt.Errorf("tier %q: class must be low or high, got %s", t.ID, t.Class)
		}
		hasClass[t.Class] = true

		for _, name := range append([]string{t.ID}, t.Aliases...) {
			key := strings.ToLower(strings.TrimSpace(name))
			if key == "" {
				continue
			}
			if prev, ok := c.index[key]; ok && prev != i {
				return nil, fmt.Errorf("%w: %q used by %q and %q", ErrDuplicateTier, name, sorted[prev].ID, t.ID)
			}
			c.index[key] = i
		}
	}

	for _, class := range []Classification{ClassLow, ClassHigh} {
		if !hasClass[class] {
			return nil, fmt.Errorf("%w: %s", ErrMissingClass, class)
		}
	}

	return c, nil
}

// DefaultTiers returns the built-in two-tier setup: Sonnet for everyday work,
// Opus for the hard cases.
func DefaultTiers() []Tier {
	return []Tier{
		{
			ID:      "claude-sonnet-4-6",
			Label:   "sonnet 4.6",
			Rank:    1,
			Class:   ClassLow,
			Aliases: []string{"sonnet"},
			Pricing: Pricing{Input: 0.3, Output: 1.5}, // $3/M input, $15/M output
		},
		{
			ID:      "claude-opus-4-6",
			Label:   "opus 4.6",
			Rank:    2,
			Class:   ClassHigh,
			Aliases: []string{"opus"},
			Pricing: Pricing{Input: 0.5, Output: 2.5}, // $5/M input, $25/M output
		},
	}
}

// DefaultCatalog returns a catalog built from DefaultTiers.
func DefaultCatalog() *Catalog {
	c, err := NewCatalog(DefaultTiers())
	if err != nil {
		panic(fmt.Sprintf("router: default catalog is invalid: %v", err))
	}
	return c
}

// Lookup finds a tier by id or alias, ignoring case and surrounding space.
func (c *Catalog) Lookup(ref string) (Tier, bool) {
	i, ok := c.index[strings.ToLower(strings.TrimSpace(ref))]
	if !ok {
		return Tier{}, false
	}
	return c.tiers[i].clone(), true
}

// ForClass returns the cheapest tier serving the given classification.
// It returns false for ClassUncertain.
func (c *Catalog) ForClass(class Classification) (Tier, bool) {
	if !class.Concrete() {
		return Tier{}, false
	}
	for _, t := range c.tiers {
		if t.Class == class {
			return t.clone(), true
		}
	}
	return Tier{}, false
}

// All returns a copy of the tiers in rank order.
func (c *Catalog) All() []Tier {
	out := make([]Tier, len(c.tiers))
	for i, t := range c.tiers {
		out[i] = t.clone()
	}
	return out
}

// IDs returns the tier ids in rank order.
func (c *Catalog) IDs() []string {
	ids := make([]string, len(c.tiers))
	for i, t := range c.tiers {
		ids[i] = t.ID
	}
	return ids
}

// Len returns the number of tiers.
func (c *Catalog) Len() int {
	return len(c.tiers)
}

// MostCapable returns the highest-ranked tier, used as the savings baseline.
func (c *Catalog) MostCapable() Tier {
	return c.tiers[len(c.tiers)-1].clone()
}
