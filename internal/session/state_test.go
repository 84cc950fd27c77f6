// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/tierroute/internal/router"
)

func TestNewState(t *testing.T) {
	st := NewState()

	_, err := uuid.Parse(st.ID())
	require.NoError(t, err, "ID should be a UUID")
	assert.Equal(t, ModeAuto, st.Mode())
	assert.Empty(t, st.LastRouted())
	assert.NotNil(t, st.Stats())

	_, pinned := st.PinnedTier()
	assert.False(t, pinned)
	assert.NotEqual(t, st.ID(), NewState().ID())
}

func TestState_Transitions(t *testing.T) {
	opus, _ := router.DefaultCatalog().Lookup("opus")
	st := NewState()

	// Auto -> OverridePending -> Auto
	assert.True(t, st.MarkOverridePending())
	assert.Equal(t, ModeOverridePending, st.Mode())
	assert.False(t, st.MarkOverridePending(), "already pending")
	assert.True(t, st.ConsumeOverride())
	assert.Equal(t, ModeAuto, st.Mode())
	assert.False(t, st.ConsumeOverride(), "nothing pending")

	// Pinned ignores overrides
	st.Pin(opus)
	assert.Equal(t, ModePinned, st.Mode())
	assert.False(t, st.MarkOverridePending())
	tier, ok := st.PinnedTier()
	require.True(t, ok)
	assert.Equal(t, opus.ID, tier.ID)

	// Unpin always returns to Auto
	st.Unpin()
	assert.Equal(t, ModeAuto, st.Mode())
	st.Unpin()
	assert.Equal(t, ModeAuto, st.Mode())

	// Pin discards a pending override
	st.MarkOverridePending()
	st.Pin(opus)
	assert.Equal(t, ModePinned, st.Mode())
	assert.False(t, st.ConsumeOverride())
}

func TestState_Snapshot(t *testing.T) {
	opus, _ := router.DefaultCatalog().Lookup("opus")
	st := NewState()
	st.SetLastRouted("claude-sonnet-4-6")
	st.Pin(opus)

	snap := st.Snapshot()
	assert.Equal(t, st.ID(), snap.ID)
	assert.Equal(t, "pinned", snap.Mode)
	assert.Equal(t, opus.ID, snap.PinnedTier)
	assert.Equal(t, "claude-sonnet-4-6", snap.LastRouted)

	line := snap.Format()
	assert.True(t, strings.HasPrefix(line, "session "+st.ID()[:8]))
	assert.Contains(t, line, "pinned (claude-opus-4-6)")
}

func TestState_Serialize(t *testing.T) {
	st := NewState()

	var wg sync.WaitGroup
	inside := 0
	maxInside := 0
	var mu sync.Mutex

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.Serialize(func() {
				mu.Lock()
				inside++
				if inside > maxInside {
					maxInside = inside
				}
				mu.Unlock()

				st.SetLastRouted("x")

				mu.Lock()
				inside--
				mu.Unlock()
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxInside)
}

func TestModeString(t *testing.T) {
	assert.Equal(t, "auto", ModeAuto.String())
	assert.Equal(t, "pinned", ModePinned.String())
	assert.Equal(t, "override-pending", ModeOverridePending.String())
	assert.Equal(t, "Mode(5)", Mode(5).String())
}
