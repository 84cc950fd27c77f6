// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jeranaias/tierroute/internal/router"
	"github.com/jeranaias/tierroute/internal/telemetry"
)

// =============================================================================
// ROUTING MODE
// =============================================================================

// Mode is the routing mode of a session. Exactly one is active at a time.
type Mode int

const (
	// ModeAuto classifies every prompt and routes it.
	ModeAuto Mode = iota
	// ModePinned forces every prompt onto the pinned tier.
	ModePinned
	// ModeOverridePending skips routing for the next prompt only, because
	// the user just picked a tier by hand.
	ModeOverridePending
)

// String returns the lowercase name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModePinned:
		return "pinned"
	case ModeOverridePending:
		return "override-pending"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// =============================================================================
// STATE
// =============================================================================

// State is the routing state of one session.
type State struct {
	// cycle orders whole routing operations; mu guards the fields.
	cycle sync.Mutex
	mu    sync.RWMutex

	id           string
	mode         Mode
	pinned       router.Tier
	lastRouted   string
	createdAt    time.Time
	lastActivity time.Time

	stats *telemetry.Stats
}

// NewState creates a session in ModeAuto with a fresh UUID.
func NewState() *State {
	now := time.Now()
	return &State{
		id:           uuid.NewString(),
		mode:         ModeAuto,
		createdAt:    now,
		lastActivity: now,
		stats:        telemetry.NewStats(),
	}
}

// Serialize runs fn while holding the session's cycle lock.
func (s *State) Serialize(fn func()) {
	s.cycle.Lock()
	defer s.cycle.Unlock()
	fn()
}

// ID returns the session ID.
func (s *State) ID() string {
	return s.id
}

// Stats returns the session's routing statistics.
func (s *State) Stats() *telemetry.Stats {
	return s.stats
}

// Mode returns the current routing mode.
func (s *State) Mode() Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mode
}

// PinnedTier returns the pinned tier when the session is pinned.
func (s *State) PinnedTier() (router.Tier, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.mode != ModePinned {
		return router.Tier{}, false
	}
	return s.pinned, true
}

// LastRouted returns the id of the last committed tier, empty if none.
func (s *State) LastRouted() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastRouted
}

// =============================================================================
// TRANSITIONS
// =============================================================================

// Pin enters ModePinned on tier. A pending override is discarded.
func (s *State) Pin(tier router.Tier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = ModePinned
	s.pinned = tier
}

// Unpin returns to ModeAuto unconditionally.
func (s *State) Unpin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mode = ModeAuto
	s.pinned = router.Tier{}
}

// MarkOverridePending enters ModeOverridePending from ModeAuto. It reports
// whether the transition happened; other modes are left unchanged.
func (s *State) MarkOverridePending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeAuto {
		return false
	}
	s.mode = ModeOverridePending
	return true
}

// ConsumeOverride leaves ModeOverridePending for ModeAuto. It reports
// whether an override was pending.
func (s *State) ConsumeOverride() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mode != ModeOverridePending {
		return false
	}
	s.mode = ModeAuto
	return true
}

// SetLastRouted records the tier now in force.
func (s *State) SetLastRouted(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRouted = id
}

// Touch records activity on the session.
func (s *State) Touch() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
}

// IdleTime returns how long since last activity.
func (s *State) IdleTime() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return time.Since(s.lastActivity)
}

// =============================================================================
// SNAPSHOT
// =============================================================================

// Snapshot is a read-only copy of a State.
type Snapshot struct {
	ID           string            `json:"id"`
	Mode         string            `json:"mode"`
	PinnedTier   string            `json:"pinned_tier,omitempty"`
	LastRouted   string            `json:"last_routed,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
	LastActivity time.Time         `json:"last_activity"`
	Stats        telemetry.Summary `json:"stats"`
}

// Snapshot returns a copy of the state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	snap := Snapshot{
		ID:           s.id,
		Mode:         s.mode.String(),
		LastRouted:   s.lastRouted,
		CreatedAt:    s.createdAt,
		LastActivity: s.lastActivity,
	}
	if s.mode == ModePinned {
		snap.PinnedTier = s.pinned.ID
	}
	s.mu.RUnlock()

	snap.Stats = s.stats.Summary()
	return snap
}

// Format renders the snapshot as a one-line status.
func (snap Snapshot) Format() string {
	mode := snap.Mode
	if snap.PinnedTier != "" {
		mode += " (" + snap.PinnedTier + ")"
	}
	last := snap.LastRouted
	if last == "" {
		last = "-"
	}
	return fmt.Sprintf("session %s  mode: %s  last routed: %s  age: %s",
		snap.ID[:min(8, len(snap.ID))], mode, last, FormatDuration(time.Since(snap.CreatedAt)))
}
