// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/tierroute/internal/router"
	"github.com/jeranaias/tierroute/internal/util"
)

// =============================================================================
// TIERS COMMAND
// =============================================================================

func newTiersCmd(opts *globalOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tiers",
		Short: "List the tier catalog",
		Long:  "List the configured tiers from cheapest to most capable, with the class each one serves.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			catalog, err := cfg.Catalog()
			if err != nil {
				return &ConfigError{Path: opts.configPath, Err: err}
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]any{"tiers": catalog.All()})
			}
			printTiers(cmd, catalog)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func printTiers(cmd *cobra.Command, catalog *router.Catalog) {
	w := cmd.OutOrStdout()
	p := newPalette(w)

	fmt.Fprintln(w, p.title.Render(fmt.Sprintf("%d tiers", catalog.Len())))

	idWidth, labelWidth := 0, 0
	for _, t := range catalog.All() {
		idWidth = max(idWidth, util.StringWidth(t.ID))
		labelWidth = max(labelWidth, util.StringWidth(t.DisplayName()))
	}
	for _, class := range []router.Classification{router.ClassLow, router.ClassHigh} {
		auto, _ := catalog.ForClass(class)
		for _, t := range catalog.All() {
			if t.Class != class {
				continue
			}
			marker := " "
			if t.ID == auto.ID {
				marker = p.success.Render("*")
			}
			line := fmt.Sprintf("%s %s %s %s %s",
				marker,
				padLabel(t.ID, idWidth+1),
				p.class(padLabel(class.String(), 5)),
				padLabel(t.DisplayName(), labelWidth+1),
				p.dim.Render(fmt.Sprintf("%.2f/%.2f ¢ per 1K tokens", t.Pricing.Input, t.Pricing.Output)),
			)
			if len(t.Aliases) > 0 {
				line += p.label.Render("  (" + strings.Join(t.Aliases, ", ") + ")")
			}
			fmt.Fprintln(w, line)
		}
	}
	fmt.Fprintln(w, p.dim.Render("* chosen by automatic routing"))
}
