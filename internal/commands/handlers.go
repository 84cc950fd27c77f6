// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jeranaias/tierroute/internal/engine"
	"github.com/jeranaias/tierroute/internal/router"
	"github.com/jeranaias/tierroute/internal/session"
)

// ErrNoSession is returned when a handler needs a session and has none.
var ErrNoSession = errors.New("no active session")

// =============================================================================
// NAVIGATION
// =============================================================================

// HandleHelp lists visible commands grouped by category.
func HandleHelp(r *Registry) Handler {
	return func(ctx *Context, args []string) (Result, error) {
		groups := r.ByCategory()
		categories := make([]string, 0, len(groups))
		for c := range groups {
			categories = append(categories, c)
		}
		sort.Strings(categories)

		var sb strings.Builder
		for i, category := range categories {
			if i > 0 {
				sb.WriteString("\n")
			}
			sb.WriteString(category + ":\n")
			for _, cmd := range groups[category] {
				usage := cmd.Usage
				if usage == "" {
					usage = cmd.Name
				}
				fmt.Fprintf(&sb, "  %-22s %s\n", usage, cmd.Description)
			}
		}
		sb.WriteString("\nAnything else is submitted as a prompt.")
		return Result{Output: sb.String()}, nil
	}
}

// HandleQuit ends the session.
func HandleQuit(ctx *Context, args []string) (Result, error) {
	return Result{Output: "bye", Quit: true}, nil
}

// =============================================================================
// ROUTING
// =============================================================================

// HandlePin pins the session to the tier named by args[0].
func HandlePin(ctx *Context, args []string) (Result, error) {
	return pin(ctx, args[0])
}

func pinTo(ref string) Handler {
	return func(ctx *Context, args []string) (Result, error) {
		return pin(ctx, ref)
	}
}

func pin(ctx *Context, ref string) (Result, error) {
	if err := ctx.check(); err != nil {
		return Result{}, err
	}
	res, err := ctx.Engine.Pin(ctx.context(), ctx.State, ref)
	if err != nil {
		return Result{}, err
	}
	msg := "pinned to " + res.Decision.Tier.DisplayName()
	if res.Err != nil {
		msg += " (switch pending: " + res.Err.Error() + ")"
	}
	return Result{Output: msg}, nil
}

// HandleAuto returns the session to automatic routing.
func HandleAuto(ctx *Context, args []string) (Result, error) {
	if err := ctx.check(); err != nil {
		return Result{}, err
	}
	ctx.Engine.Unpin(ctx.State)
	return Result{Output: "automatic routing"}, nil
}

// HandleSelect switches the host to a tier as if the user picked it, which
// keeps the router out of the next cycle.
func HandleSelect(ctx *Context, args []string) (Result, error) {
	if err := ctx.check(); err != nil {
		return Result{}, err
	}
	tier, ok := ctx.Engine.Catalog().Lookup(args[0])
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", engine.ErrUnknownTier, args[0])
	}
	if ctx.Selector != nil {
		ctx.Selector.SetActive(tier.ID)
	}

	pending := ctx.Engine.ObserveTierSelect(ctx.State, engine.TierSelectEvent{
		TierID: tier.ID,
		Source: engine.SourceSet,
	})
	msg := "selected " + tier.DisplayName()
	switch {
	case pending:
		msg += "; routing skips the next prompt"
	case ctx.State.Mode() == session.ModePinned:
		msg += "; the pin still applies"
	}
	return Result{Output: msg}, nil
}

// HandleTiers lists the catalog.
func HandleTiers(catalog *router.Catalog) Handler {
	return func(ctx *Context, args []string) (Result, error) {
		var sb strings.Builder
		for _, t := range catalog.All() {
			fmt.Fprintf(&sb, "  %-20s %-6s %-12s %.2f/%.2f ¢ per 1K tokens", t.ID, t.Class, t.DisplayName(), t.Pricing.Input, t.Pricing.Output)
			if len(t.Aliases) > 0 {
				sb.WriteString("  (" + strings.Join(t.Aliases, ", ") + ")")
			}
			sb.WriteString("\n")
		}
		return Result{Output: strings.TrimRight(sb.String(), "\n")}, nil
	}
}

// =============================================================================
// INFO
// =============================================================================

// HandleStatus shows the session mode and the router status line.
func HandleStatus(ctx *Context, args []string) (Result, error) {
	if ctx.State == nil {
		return Result{}, ErrNoSession
	}
	out := ctx.State.Snapshot().Format()
	if ctx.Status != nil {
		if line := ctx.Status.Status(engine.StatusKey); line != "" {
			out += "\nrouter: " + line
		}
	}
	return Result{Output: out}, nil
}

// HandleStats shows the session's routing statistics.
func HandleStats(ctx *Context, args []string) (Result, error) {
	if ctx.State == nil {
		return Result{}, ErrNoSession
	}
	return Result{Output: ctx.State.Stats().Summary().Format()}, nil
}

// check verifies the fields routing handlers need.
func (c *Context) check() error {
	if c.State == nil {
		return ErrNoSession
	}
	if c.Engine == nil {
		return errors.New("no routing engine")
	}
	return nil
}
