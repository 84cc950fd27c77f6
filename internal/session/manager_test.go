// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// =============================================================================
// CONFIG TESTS
// =============================================================================

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.IdleTimeout != 30*time.Minute {
		t.Errorf("Default IdleTimeout = %v, want 30m", cfg.IdleTimeout)
	}
	if cfg.MaxSessions != 1000 {
		t.Errorf("Default MaxSessions = %d, want 1000", cfg.MaxSessions)
	}
	if cfg.SweepInterval != time.Minute {
		t.Errorf("Default SweepInterval = %v, want 1m", cfg.SweepInterval)
	}
}

// =============================================================================
// LIFECYCLE TESTS
// =============================================================================

func TestManager_CreateGetDelete(t *testing.T) {
	m := NewManager(DefaultConfig())

	st, err := m.Create()
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := m.Get(st.ID())
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != st {
		t.Error("Get returned a different state")
	}

	if m.Len() != 1 {
		t.Errorf("Len = %d, want 1", m.Len())
	}

	if err := m.Delete(st.ID()); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := m.Get(st.ID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after Delete: got %v, want ErrNotFound", err)
	}
	if err := m.Delete(st.ID()); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete: got %v, want ErrNotFound", err)
	}
}

func TestManager_MaxSessions(t *testing.T) {
	m := NewManager(Config{MaxSessions: 2})

	for i := 0; i < 2; i++ {
		if _, err := m.Create(); err != nil {
			t.Fatalf("Create %d failed: %v", i, err)
		}
	}
	if _, err := m.Create(); !errors.Is(err, ErrTooManySessions) {
		t.Errorf("Create over capacity: got %v, want ErrTooManySessions", err)
	}
}

func TestManager_List(t *testing.T) {
	m := NewManager(DefaultConfig())
	first, _ := m.Create()
	time.Sleep(2 * time.Millisecond)
	second, _ := m.Create()

	list := m.List()
	if len(list) != 2 {
		t.Fatalf("List len = %d, want 2", len(list))
	}
	if list[0].ID != first.ID() || list[1].ID != second.ID() {
		t.Error("List should be ordered oldest first")
	}
}

// =============================================================================
// EXPIRY TESTS
// =============================================================================

func TestManager_Sweep(t *testing.T) {
	m := NewManager(Config{IdleTimeout: 30 * time.Millisecond})

	var mu sync.Mutex
	var expired []string
	m.SetExpireCallback(func(st *State) {
		mu.Lock()
		defer mu.Unlock()
		expired = append(expired, st.ID())
	})

	idle, _ := m.Create()
	active, _ := m.Create()

	time.Sleep(40 * time.Millisecond)
	active.Touch()

	if n := m.Sweep(); n != 1 {
		t.Fatalf("Sweep removed %d sessions, want 1", n)
	}
	if _, err := m.Get(idle.ID()); !errors.Is(err, ErrNotFound) {
		t.Error("idle session should be gone")
	}
	if _, err := m.Get(active.ID()); err != nil {
		t.Error("active session should survive")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(expired) != 1 || expired[0] != idle.ID() {
		t.Errorf("expire callback got %v, want [%s]", expired, idle.ID())
	}
}

func TestManager_SweepDisabled(t *testing.T) {
	m := NewManager(Config{})
	m.Create()
	if n := m.Sweep(); n != 0 {
		t.Errorf("Sweep with no timeout removed %d sessions", n)
	}
}

func TestManager_RunStopsOnCancel(t *testing.T) {
	m := NewManager(Config{IdleTimeout: 10 * time.Millisecond, SweepInterval: 5 * time.Millisecond})
	m.Create()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for m.Len() != 0 {
		select {
		case <-deadline:
			t.Fatal("Run never expired the idle session")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

// =============================================================================
// FORMATTING TESTS
// =============================================================================

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0s"},
		{45 * time.Second, "45s"},
		{2 * time.Minute, "2m"},
		{2*time.Minute + 5*time.Second, "2m 5s"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.d); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}
