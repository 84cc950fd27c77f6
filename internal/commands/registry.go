// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package commands

import (
	"context"
	"sort"
	"strings"

	"github.com/jeranaias/tierroute/internal/engine"
	"github.com/jeranaias/tierroute/internal/router"
	"github.com/jeranaias/tierroute/internal/session"
)

// =============================================================================
// COMMAND DEFINITION
// =============================================================================

// Command represents a slash command that can be executed.
type Command struct {
	// Name is the primary command name (e.g., "/help")
	Name string

	// Aliases are alternative names (e.g., "/h", "/?")
	Aliases []string

	// Description is shown in help and completion
	Description string

	// Usage shows argument syntax (e.g., "/pin <tier>")
	Usage string

	// Args defines the expected arguments
	Args []ArgDef

	// Handler is the function that executes the command
	Handler Handler

	// Hidden commands don't appear in help
	Hidden bool

	// Category for grouping in help display
	Category string
}

// Handler executes a command.
type Handler func(ctx *Context, args []string) (Result, error)

// Result is what a handler hands back to the host.
type Result struct {
	// Output is printed by the host.
	Output string
	// Quit asks the host to end the session.
	Quit bool
}

// ArgDef defines an argument for a command.
type ArgDef struct {
	// Name of the argument
	Name string

	// Required indicates if the argument must be provided
	Required bool

	// Type determines completion behavior
	Type ArgType

	// Description explains the argument
	Description string

	// Values for enum types
	Values []string
}

// ArgType indicates what kind of completion to provide.
type ArgType int

const (
	ArgTypeString ArgType = iota // Free-form string
	ArgTypeTier                  // Tier id or alias from the catalog
	ArgTypeEnum                  // One of predefined values
)

// =============================================================================
// COMMAND REGISTRY
// =============================================================================

// Registry holds all registered commands.
type Registry struct {
	catalog  *router.Catalog
	commands map[string]*Command
	aliases  map[string]*Command
}

// NewRegistry creates a registry with the built-in commands and one
// /pin-<tier> shortcut per catalog tier.
func NewRegistry(catalog *router.Catalog) *Registry {
	r := &Registry{
		catalog:  catalog,
		commands: make(map[string]*Command),
		aliases:  make(map[string]*Command),
	}
	r.registerBuiltins()
	r.registerPinShortcuts()
	return r
}

// Register adds a command to the registry.
func (r *Registry) Register(cmd *Command) {
	r.commands[cmd.Name] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[alias] = cmd
	}
}

// Get retrieves a command by name or alias. Lookup is case-insensitive.
func (r *Registry) Get(name string) *Command {
	name = strings.ToLower(name)
	if cmd, ok := r.commands[name]; ok {
		return cmd
	}
	if cmd, ok := r.aliases[name]; ok {
		return cmd
	}
	return nil
}

// All returns all registered commands sorted by name.
func (r *Registry) All() []*Command {
	cmds := make([]*Command, 0, len(r.commands))
	for _, cmd := range r.commands {
		cmds = append(cmds, cmd)
	}
	sort.Slice(cmds, func(i, j int) bool { return cmds[i].Name < cmds[j].Name })
	return cmds
}

// ByCategory returns visible commands grouped by category.
func (r *Registry) ByCategory() map[string][]*Command {
	result := make(map[string][]*Command)
	for _, cmd := range r.All() {
		if cmd.Hidden {
			continue
		}
		category := cmd.Category
		if category == "" {
			category = "General"
		}
		result[category] = append(result[category], cmd)
	}
	return result
}

// TierRefs returns every id and alias the catalog resolves.
func (r *Registry) TierRefs() []string {
	var refs []string
	for _, t := range r.catalog.All() {
		refs = append(refs, t.ID)
		refs = append(refs, t.Aliases...)
	}
	return refs
}

// =============================================================================
// BUILT-IN COMMANDS
// =============================================================================

func (r *Registry) registerBuiltins() {
	r.Register(&Command{
		Name:        "/help",
		Aliases:     []string{"/h", "/?"},
		Description: "Show available commands",
		Category:    "Navigation",
		Handler:     HandleHelp(r),
	})

	r.Register(&Command{
		Name:        "/quit",
		Aliases:     []string{"/q", "/exit"},
		Description: "End the session",
		Category:    "Navigation",
		Handler:     HandleQuit,
	})

	r.Register(&Command{
		Name:        "/pin",
		Description: "Pin the session to a tier",
		Usage:       "/pin <tier>",
		Args: []ArgDef{
			{Name: "tier", Required: true, Type: ArgTypeTier, Description: "Tier id or alias"},
		},
		Category: "Routing",
		Handler:  HandlePin,
	})

	r.Register(&Command{
		Name:        "/auto",
		Aliases:     []string{"/unpin"},
		Description: "Return to automatic routing",
		Category:    "Routing",
		Handler:     HandleAuto,
	})

	r.Register(&Command{
		Name:        "/select",
		Description: "Select a tier by hand; routing skips the next prompt",
		Usage:       "/select <tier>",
		Args: []ArgDef{
			{Name: "tier", Required: true, Type: ArgTypeTier, Description: "Tier id or alias"},
		},
		Category: "Routing",
		Handler:  HandleSelect,
	})

	r.Register(&Command{
		Name:        "/tiers",
		Description: "List the tier catalog",
		Category:    "Routing",
		Handler:     HandleTiers(r.catalog),
	})

	r.Register(&Command{
		Name:        "/status",
		Description: "Show session mode and last routed tier",
		Category:    "Info",
		Handler:     HandleStatus,
	})

	r.Register(&Command{
		Name:        "/stats",
		Aliases:     []string{"/cost"},
		Description: "Show routing statistics and estimated savings",
		Category:    "Info",
		Handler:     HandleStats,
	})
}

// registerPinShortcuts adds /pin-<alias> for every tier, named after the
// tier's first alias (falling back to its id). Other refs become aliases.
func (r *Registry) registerPinShortcuts() {
	for _, t := range r.catalog.All() {
		refs := append([]string{}, t.Aliases...)
		refs = append(refs, t.ID)

		var names []string
		for _, ref := range refs {
			name := "/pin-" + strings.ToLower(ref)
			if r.Get(name) == nil && !contains(names, name) {
				names = append(names, name)
			}
		}
		if len(names) == 0 {
			continue
		}

		r.Register(&Command{
			Name:        names[0],
			Aliases:     names[1:],
			Description: "Pin the session to " + t.DisplayName(),
			Category:    "Routing",
			Handler:     pinTo(t.ID),
		})
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// =============================================================================
// CONTEXT TYPE
// =============================================================================

// Selector changes the host's active tier on the user's behalf.
// *engine.MemorySwitcher satisfies it.
type Selector interface {
	SetActive(id string)
}

// Context gives command handlers access to the session they act on.
//
// Engine and State are required; the other fields may be nil and handlers
// check before use.
type Context struct {
	// Ctx bounds blocking work such as tier switches.
	Ctx context.Context

	// Engine runs pins, unpins and tier-select observations.
	Engine *engine.Engine

	// State is the session the command applies to.
	State *session.State

	// Selector simulates a manual tier change for /select.
	Selector Selector

	// Status exposes the latest router status line for /status.
	Status *engine.Recorder
}

// context returns the handler context, never nil.
func (c *Context) context() context.Context {
	if c.Ctx == nil {
		return context.Background()
	}
	return c.Ctx
}

// =============================================================================
// COMPLETION TYPE
// =============================================================================

// Completion represents a completion suggestion.
type Completion struct {
	// Value to insert
	Value string

	// Display text (may include formatting)
	Display string

	// Description shown alongside
	Description string

	// Score for ranking (higher = better match)
	Score int
}
