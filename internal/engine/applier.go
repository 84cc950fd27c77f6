// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/jeranaias/tierroute/internal/router"
	"github.com/jeranaias/tierroute/internal/session"
)

// =============================================================================
// ERRORS
// =============================================================================

var (
	// ErrUnknownTier is returned when a decision names a tier outside the catalog.
	ErrUnknownTier = errors.New("tier not found in catalog")

	// ErrSwitchFailed is returned when the host refuses or fails a tier switch.
	ErrSwitchFailed = errors.New("tier switch failed")

	// ErrUnknownPinTarget is returned when a pin command names no known tier.
	ErrUnknownPinTarget = errors.New("unknown pin target")
)

// =============================================================================
// ACTIONS
// =============================================================================

// Action is what a cycle or apply did to the host.
type Action string

const (
	// ActionSkippedEmpty means the prompt was blank and nothing happened.
	ActionSkippedEmpty Action = "skipped-empty"
	// ActionOverrideConsumed means a manual selection suppressed routing.
	ActionOverrideConsumed Action = "override-consumed"
	// ActionApplied means the host was switched to the decided tier.
	ActionApplied Action = "applied"
	// ActionUnchanged means the decided tier was already active.
	ActionUnchanged Action = "unchanged"
	// ActionRejected means the decision could not be put in force.
	ActionRejected Action = "rejected"
)

// Committed reports whether the decision is now in force.
func (a Action) Committed() bool {
	return a == ActionApplied || a == ActionUnchanged
}

// ApplyOutcome is the result of one Apply call.
type ApplyOutcome struct {
	Action Action
	Err    error
}

// =============================================================================
// APPLIER
// =============================================================================

// Applier puts a resolved tier in force on the host.
type Applier struct {
	catalog  *router.Catalog
	switcher Switcher
	status   StatusSink
	logger   *zap.Logger
}

// NewApplier creates an applier. A nil status discards output and a nil
// logger is replaced with a no-op logger.
func NewApplier(catalog *router.Catalog, switcher Switcher, status StatusSink, logger *zap.Logger) *Applier {
	if status == nil {
		status = nopSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Applier{
		catalog:  catalog,
		switcher: switcher,
		status:   status,
		logger:   logger,
	}
}

// Apply switches the host to tier unless it is already active. Applying the
// same tier twice makes at most one switch call.
func (a *Applier) Apply(ctx context.Context, st *session.State, tier router.Tier, prov router.Provenance) ApplyOutcome {
	known, ok := a.catalog.Lookup(tier.ID)
	if !ok || known.ID != tier.ID {
		err := fmt.Errorf("%w: %q", ErrUnknownTier, tier.ID)
		a.reject(st, "model not found: "+tier.ID, err)
		return ApplyOutcome{Action: ActionRejected, Err: err}
	}

	if a.switcher.ActiveTier(ctx) == known.ID {
		st.SetLastRouted(known.ID)
		a.status.SetStatus(StatusKey, statusLabel(known, prov))
		return ApplyOutcome{Action: ActionUnchanged}
	}

	switched, err := a.switcher.SwitchTier(ctx, known.ID)
	if err != nil || !switched {
		if err != nil {
			err = fmt.Errorf("%w for %s: %w", ErrSwitchFailed, known.ID, err)
		} else {
			err = fmt.Errorf("%w for %s", ErrSwitchFailed, known.ID)
		}
		a.reject(st, "switch failed for "+known.ID, err)
		return ApplyOutcome{Action: ActionRejected, Err: err}
	}

	st.SetLastRouted(known.ID)
	a.status.SetStatus(StatusKey, statusLabel(known, prov))
	return ApplyOutcome{Action: ActionApplied}
}

func (a *Applier) reject(st *session.State, msg string, err error) {
	st.Stats().RecordRejected()
	a.status.SetStatus(StatusKey, warnLabel(msg))
	a.status.Notify(msg, LevelWarning)
	a.logger.Warn("Routing decision rejected",
		zap.String("session", st.ID()),
		zap.Error(err),
	)
}

// =============================================================================
// STATUS LABELS
// =============================================================================

const (
	labelRouting = "routing…"
	labelManual  = "✋ manual"
)

func statusLabel(tier router.Tier, prov router.Provenance) string {
	if prov == router.ProvenancePinned {
		return "📌 " + tier.DisplayName()
	}
	return "→ " + tier.DisplayName()
}

func warnLabel(msg string) string {
	return "⚠ " + msg
}
