// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package engine

import (
	"context"
	"sync"
)

// =============================================================================
// HOST COLLABORATORS
// =============================================================================

// Switcher reports and changes the host's active tier.
type Switcher interface {
	// ActiveTier returns the id of the tier currently serving requests.
	ActiveTier(ctx context.Context) string
	// SwitchTier makes id the active tier. false or an error means the
	// switch did not happen.
	SwitchTier(ctx context.Context, id string) (bool, error)
}

// Level is the severity of a notification.
type Level string

// Notification levels.
const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// StatusSink receives every observable routing outcome.
type StatusSink interface {
	// SetStatus replaces the status text shown under key.
	SetStatus(key, text string)
	// Notify shows a transient message.
	Notify(msg string, level Level)
}

// StatusKey is the status slot the router writes to.
const StatusKey = "router"

// Tier selection sources. Only user-initiated sources start an override.
const (
	SourceCycle   = "cycle"
	SourceSet     = "set"
	SourceRouter  = "router"
	SourceRestore = "restore"
)

// PromptEvent carries the prompt of the task about to start.
type PromptEvent struct {
	Prompt string `json:"prompt"`
}

// TierSelectEvent reports that the active tier changed outside the router.
type TierSelectEvent struct {
	TierID string `json:"tier"`
	Source string `json:"source"`
}

// UserInitiated reports whether the selection came from the user.
func (e TierSelectEvent) UserInitiated() bool {
	return e.Source == SourceCycle || e.Source == SourceSet
}

// =============================================================================
// IN-MEMORY HOST
// =============================================================================

// MemorySwitcher is an in-memory Switcher for hosts that only simulate the
// downstream service (REPL, HTTP server, tests).
type MemorySwitcher struct {
	mu       sync.Mutex
	active   string
	switches int
	fail     bool
}

// NewMemorySwitcher creates a switcher whose active tier is initial.
func NewMemorySwitcher(initial string) *MemorySwitcher {
	return &MemorySwitcher{active: initial}
}

// ActiveTier implements Switcher.
func (m *MemorySwitcher) ActiveTier(ctx context.Context) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// SwitchTier implements Switcher.
func (m *MemorySwitcher) SwitchTier(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.switches++
	if m.fail {
		return false, nil
	}
	m.active = id
	return true, nil
}

// SetActive changes the active tier without counting a switch, the way a
// user changing tiers by hand would.
func (m *MemorySwitcher) SetActive(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.active = id
}

// SetFail makes subsequent switches report failure.
func (m *MemorySwitcher) SetFail(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fail
}

// Switches returns how many switch calls were made.
func (m *MemorySwitcher) Switches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.switches
}

// Notification is one recorded Notify call.
type Notification struct {
	Message string `json:"message"`
	Level   Level  `json:"level"`
}

// maxNotifications bounds Recorder history.
const maxNotifications = 50

// Recorder is a StatusSink that keeps the latest status per key and a
// bounded notification history.
type Recorder struct {
	mu            sync.Mutex
	status        map[string]string
	updates       int
	notifications []Notification
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{status: make(map[string]string)}
}

// SetStatus implements StatusSink.
func (r *Recorder) SetStatus(key, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.status[key] = text
	r.updates++
}

// Notify implements StatusSink.
func (r *Recorder) Notify(msg string, level Level) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notifications = append(r.notifications, Notification{Message: msg, Level: level})
	if len(r.notifications) > maxNotifications {
		r.notifications = r.notifications[len(r.notifications)-maxNotifications:]
	}
}

// Status returns the latest status text for key.
func (r *Recorder) Status(key string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status[key]
}

// Updates returns how many SetStatus calls were made.
func (r *Recorder) Updates() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updates
}

// Notifications returns a copy of the notification history.
func (r *Recorder) Notifications() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notification(nil), r.notifications...)
}

// Warnings returns the recorded warning messages.
func (r *Recorder) Warnings() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, n := range r.notifications {
		if n.Level == LevelWarning {
			out = append(out, n.Message)
		}
	}
	return out
}

// nopSink discards status output.
type nopSink struct{}

func (nopSink) SetStatus(string, string) {}
func (nopSink) Notify(string, Level)     {}
