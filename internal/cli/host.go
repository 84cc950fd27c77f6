// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/jeranaias/tierroute/internal/engine"
	"github.com/jeranaias/tierroute/internal/router"
	"github.com/jeranaias/tierroute/internal/server"
	"github.com/jeranaias/tierroute/internal/session"
	"github.com/jeranaias/tierroute/internal/util"
)

// =============================================================================
// LOCAL HOST
// =============================================================================

// localHost is a single in-process routing session with a simulated
// downstream service.
type localHost struct {
	state    *session.State
	switcher *engine.MemorySwitcher
	status   *engine.Recorder
	engine   *engine.Engine
}

// newLocalHost starts a session on active, or on the cheapest low tier when
// active is empty. Notifications are echoed to notify when it is non-nil.
func newLocalHost(routing server.Routing, active string, notify io.Writer, logger *zap.Logger) (*localHost, error) {
	if active == "" {
		low, _ := routing.Catalog.ForClass(router.ClassLow)
		active = low.ID
	} else {
		tier, ok := routing.Catalog.Lookup(active)
		if !ok {
			return nil, fmt.Errorf("%w: %q", engine.ErrUnknownTier, active)
		}
		active = tier.ID
	}

	h := &localHost{
		state:    session.NewState(),
		switcher: engine.NewMemorySwitcher(active),
		status:   engine.NewRecorder(),
	}

	var sink engine.StatusSink = h.status
	if notify != nil {
		sink = &echoSink{Recorder: h.status, w: notify, p: newPalette(notify)}
	}

	var err error
	h.engine, err = engine.New(engine.Options{
		Catalog:    routing.Catalog,
		Classifier: routing.Classifier,
		Arbiter:    routing.Arbiter,
		Switcher:   h.switcher,
		Status:     sink,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}
	return h, nil
}

// echoSink records like a Recorder and prints each notification.
type echoSink struct {
	*engine.Recorder
	mu sync.Mutex
	w  io.Writer
	p  palette
}

// Notify implements engine.StatusSink.
func (s *echoSink) Notify(msg string, level engine.Level) {
	s.Recorder.Notify(msg, level)

	style := s.p.dim
	switch level {
	case engine.LevelWarning:
		style = s.p.warn
	case engine.LevelError:
		style = s.p.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintln(s.w, style.Render("["+string(level)+"]")+" "+msg)
}

// =============================================================================
// CYCLE OUTPUT
// =============================================================================

// reasonReserve is the width kept for the arrow, tier and provenance.
const reasonReserve = 40

// formatCycle renders a cycle result as one line. The reason is shortened
// to fit width.
func formatCycle(p palette, res engine.CycleResult, active string, width int) string {
	switch res.Action {
	case engine.ActionSkippedEmpty:
		return p.dim.Render("skipped: blank prompt")
	case engine.ActionOverrideConsumed:
		return p.warn.Render("kept "+active) + p.dim.Render(" (manual selection, routing resumes next prompt)")
	case engine.ActionRejected:
		msg := "rejected"
		if res.Err != nil {
			msg += ": " + res.Err.Error()
		}
		return p.err.Render(msg)
	}

	if res.Decision == nil {
		return string(res.Action)
	}
	d := res.Decision
	line := fmt.Sprintf("%s %s  %s  %s",
		p.success.Render("→"),
		p.class(d.Tier.Class.String())+" "+p.value.Render(d.Tier.DisplayName()),
		p.label.Render("["+string(d.Provenance)+"]"),
		util.TruncateWidth(d.Reason, max(width-reasonReserve, 20)),
	)
	line += p.dim.Render(fmt.Sprintf("  ~%.4f¢", d.EstimatedCostCents))
	if res.Action == engine.ActionUnchanged {
		line += p.dim.Render(" (already active)")
	}
	return line
}

// cycleOutput is the --json form of a routing cycle.
type cycleOutput struct {
	Action        engine.Action           `json:"action"`
	Decision      *router.RoutingDecision `json:"decision,omitempty"`
	Arbiter       *verdictView            `json:"arbiter,omitempty"`
	Error         string                  `json:"error,omitempty"`
	ActiveTier    string                  `json:"active_tier"`
	Status        string                  `json:"status,omitempty"`
	Notifications []engine.Notification   `json:"notifications,omitempty"`
	Session       session.Snapshot        `json:"session"`
}

func (h *localHost) output(res engine.CycleResult, active string) cycleOutput {
	out := cycleOutput{
		Action:        res.Action,
		Decision:      res.Decision,
		ActiveTier:    active,
		Status:        h.status.Status(engine.StatusKey),
		Notifications: h.status.Notifications(),
		Session:       h.state.Snapshot(),
	}
	if res.Verdict != nil {
		out.Arbiter = newVerdictView(*res.Verdict)
	}
	if res.Err != nil {
		out.Error = res.Err.Error()
	}
	return out
}
