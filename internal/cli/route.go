// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jeranaias/tierroute/internal/engine"
)

// =============================================================================
// ROUTE COMMAND
// =============================================================================

func newRouteCmd(opts *globalOptions) *cobra.Command {
	var (
		asJSON bool
		active string
		pinRef string
	)

	cmd := &cobra.Command{
		Use:   "route [prompt...]",
		Short: "Run one routing cycle and show the decision",
		Long: `Run one full routing cycle for a prompt: heuristics, the arbiter when they
are uncertain, and the tier switch on a simulated host.

The prompt is taken from the arguments, or from stdin when no arguments are
given.`,
		Example: `  tierroute route "summarize this paragraph"
  tierroute route --pin opus --json "hi"
  tierroute route --active opus "fix the typo"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := readPrompt(cmd, args)
			if err != nil {
				return err
			}
			_, logger, routing, err := opts.setup(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			var notify = cmd.ErrOrStderr()
			if asJSON {
				notify = nil
			}
			h, err := newLocalHost(routing, active, notify, logger)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if pinRef != "" {
				if _, err := h.engine.Pin(ctx, h.state, pinRef); err != nil {
					return err
				}
			}

			res := h.engine.HandlePrompt(ctx, h.state, engine.PromptEvent{Prompt: prompt})
			activeTier := h.switcher.ActiveTier(ctx)

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), h.output(res, activeTier))
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, formatCycle(newPalette(w), res, activeTier, terminalWidth(w)))
			if res.Action == engine.ActionRejected {
				return res.Err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	cmd.Flags().StringVar(&active, "active", "", "tier active before the cycle (default: cheapest low tier)")
	cmd.Flags().StringVar(&pinRef, "pin", "", "pin the session to this tier first")
	return cmd
}
