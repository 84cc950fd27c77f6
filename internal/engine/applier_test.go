// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/tierroute/internal/router"
	"github.com/jeranaias/tierroute/internal/session"
)

// erroringSwitcher fails every switch with err.
type erroringSwitcher struct {
	active string
	err    error
}

func (s *erroringSwitcher) ActiveTier(ctx context.Context) string { return s.active }

func (s *erroringSwitcher) SwitchTier(ctx context.Context, id string) (bool, error) {
	return false, s.err
}

func mustTier(t *testing.T, ref string) router.Tier {
	t.Helper()
	tier, ok := router.DefaultCatalog().Lookup(ref)
	require.True(t, ok, "tier %q", ref)
	return tier
}

func TestApply_Idempotent(t *testing.T) {
	switcher := NewMemorySwitcher(lowID)
	status := NewRecorder()
	a := NewApplier(router.DefaultCatalog(), switcher, status, nil)
	st := session.NewState()
	opus := mustTier(t, "opus")

	first := a.Apply(context.Background(), st, opus, router.ProvenanceArbiter)
	second := a.Apply(context.Background(), st, opus, router.ProvenanceArbiter)

	assert.Equal(t, ActionApplied, first.Action)
	assert.Equal(t, ActionUnchanged, second.Action)
	assert.NoError(t, second.Err)
	assert.Equal(t, 1, switcher.Switches(), "second apply must not call the switcher")
	assert.Equal(t, 2, status.Updates(), "status is emitted on both applies")
	assert.Equal(t, "→ opus 4.6", status.Status(StatusKey))
	assert.Equal(t, highID, st.LastRouted())
}

func TestApply_UnchangedUpdatesLastRouted(t *testing.T) {
	a := NewApplier(router.DefaultCatalog(), NewMemorySwitcher(lowID), nil, nil)
	st := session.NewState()

	out := a.Apply(context.Background(), st, mustTier(t, "sonnet"), router.ProvenanceHeuristic)

	assert.Equal(t, ActionUnchanged, out.Action)
	assert.Equal(t, lowID, st.LastRouted())
}

func TestApply_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		switcher Switcher
		tier     router.Tier
		wantErr  error
		status   string
	}{
		{
			name:     "unknown_tier",
			switcher: NewMemorySwitcher(lowID),
			tier:     router.Tier{ID: "claude-haiku-4-5"},
			wantErr:  ErrUnknownTier,
			status:   "⚠ model not found: claude-haiku-4-5",
		},
		{
			name:     "alias_is_not_an_id",
			switcher: NewMemorySwitcher(lowID),
			tier:     router.Tier{ID: "opus"},
			wantErr:  ErrUnknownTier,
			status:   "⚠ model not found: opus",
		},
		{
			name:     "switch_error",
			switcher: &erroringSwitcher{active: lowID, err: errors.New("host busy")},
			tier:     router.Tier{ID: highID},
			wantErr:  ErrSwitchFailed,
			status:   "⚠ switch failed for " + highID,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status := NewRecorder()
			a := NewApplier(router.DefaultCatalog(), tt.switcher, status, nil)
			st := session.NewState()
			st.SetLastRouted(lowID)

			out := a.Apply(context.Background(), st, tt.tier, router.ProvenanceHeuristic)

			assert.Equal(t, ActionRejected, out.Action)
			assert.ErrorIs(t, out.Err, tt.wantErr)
			assert.Equal(t, tt.status, status.Status(StatusKey))
			assert.Len(t, status.Warnings(), 1)
			assert.Equal(t, lowID, st.LastRouted(), "rejection leaves LastRouted alone")
			assert.Equal(t, 1, st.Stats().Summary().Rejected)
		})
	}
}

func TestApply_SwitchErrorIsWrapped(t *testing.T) {
	cause := errors.New("host busy")
	a := NewApplier(router.DefaultCatalog(), &erroringSwitcher{err: cause}, nil, nil)

	out := a.Apply(context.Background(), session.NewState(), mustTier(t, "opus"), router.ProvenanceHeuristic)

	assert.ErrorIs(t, out.Err, cause)
	assert.ErrorIs(t, out.Err, ErrSwitchFailed)
}

func TestStatusLabel(t *testing.T) {
	opus := mustTier(t, "opus")
	assert.Equal(t, "📌 opus 4.6", statusLabel(opus, router.ProvenancePinned))
	assert.Equal(t, "→ opus 4.6", statusLabel(opus, router.ProvenanceArbiter))
	assert.Equal(t, "⚠ nope", warnLabel("nope"))
}

func TestRecorder_BoundsNotifications(t *testing.T) {
	r := NewRecorder()
	for i := 0; i < maxNotifications+5; i++ {
		r.Notify("n", LevelInfo)
	}
	assert.Len(t, r.Notifications(), maxNotifications)
	assert.Empty(t, r.Warnings())
}

func TestTierSelectEvent_UserInitiated(t *testing.T) {
	assert.True(t, TierSelectEvent{Source: SourceCycle}.UserInitiated())
	assert.True(t, TierSelectEvent{Source: SourceSet}.UserInitiated())
	assert.False(t, TierSelectEvent{Source: SourceRestore}.UserInitiated())
}
