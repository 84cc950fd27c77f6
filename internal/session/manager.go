// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package session

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/tierroute/internal/util"
)

// =============================================================================
// SESSION MANAGER
// =============================================================================

// Error variables for session lookup.
var (
	// ErrNotFound indicates no live session has the requested ID.
	ErrNotFound = errors.New("session not found")

	// ErrTooManySessions indicates the manager is at capacity.
	ErrTooManySessions = errors.New("too many sessions")
)

// Config holds configuration for the session manager.
type Config struct {
	// IdleTimeout expires sessions with no activity (default: 30 minutes).
	// Zero disables expiry.
	IdleTimeout time.Duration

	// MaxSessions caps live sessions (default: 1000). Zero means unlimited.
	MaxSessions int

	// SweepInterval is how often Run expires idle sessions (default: 1 minute).
	SweepInterval time.Duration
}

// DefaultConfig returns the default session configuration.
func DefaultConfig() Config {
	return Config{
		IdleTimeout:   30 * time.Minute,
		MaxSessions:   1000,
		SweepInterval: time.Minute,
	}
}

// Manager tracks live sessions for multi-session hosts.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*State
	cfg      Config
	logger   *zap.Logger

	// onExpire is called outside the lock for every expired session.
	onExpire func(*State)
}

// NewManager creates a new session manager.
func NewManager(cfg Config) *Manager {
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = time.Minute
	}
	return &Manager{
		sessions: make(map[string]*State),
		cfg:      cfg,
		logger:   zap.NewNop(),
	}
}

// SetLogger sets the logger. A nil logger disables logging.
func (m *Manager) SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
}

// SetExpireCallback sets the function called when a session expires.
func (m *Manager) SetExpireCallback(fn func(*State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = fn
}

// Create starts a new session.
func (m *Manager) Create() (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg.MaxSessions > 0 && len(m.sessions) >= m.cfg.MaxSessions {
		return nil, ErrTooManySessions
	}
	st := NewState()
	m.sessions[st.ID()] = st
	m.logger.Debug("session created", zap.String("session", st.ID()))
	return st, nil
}

// Get returns a live session and records activity on it.
func (m *Manager) Get(id string) (*State, error) {
	m.mu.RLock()
	st, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	st.Touch()
	return st, nil
}

// Delete ends a session.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	m.logger.Debug("session deleted", zap.String("session", id))
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// List returns snapshots of all live sessions, oldest first.
func (m *Manager) List() []Snapshot {
	m.mu.RLock()
	states := make([]*State, 0, len(m.sessions))
	for _, st := range m.sessions {
		states = append(states, st)
	}
	m.mu.RUnlock()

	snaps := make([]Snapshot, len(states))
	for i, st := range states {
		snaps[i] = st.Snapshot()
	}
	sort.Slice(snaps, func(i, j int) bool {
		return snaps[i].CreatedAt.Before(snaps[j].CreatedAt)
	})
	return snaps
}

// =============================================================================
// EXPIRY
// =============================================================================

// Sweep removes sessions idle for at least IdleTimeout and returns how many
// were removed.
func (m *Manager) Sweep() int {
	if m.cfg.IdleTimeout <= 0 {
		return 0
	}

	m.mu.Lock()
	var expired []*State
	for id, st := range m.sessions {
		if st.IdleTime() >= m.cfg.IdleTimeout {
			expired = append(expired, st)
			delete(m.sessions, id)
		}
	}
	onExpire := m.onExpire
	logger := m.logger
	m.mu.Unlock()

	// Execute callbacks outside lock
	for _, st := range expired {
		logger.Info("session expired",
			zap.String("session", st.ID()),
			zap.String("idle", FormatDuration(st.IdleTime())))
		if onExpire != nil {
			onExpire(st)
		}
	}
	return len(expired)
}

// Run sweeps idle sessions every SweepInterval until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// FormatDuration returns a human-readable duration string.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		secs := int(d.Seconds())
		return util.IntToString(secs) + "s"
	}
	mins := int(d.Minutes())
	secs := int(d.Seconds()) % 60
	if secs == 0 {
		return util.IntToString(mins) + "m"
	}
	return util.IntToString(mins) + "m " + util.IntToString(secs) + "s"
}
