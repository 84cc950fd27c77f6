// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// =============================================================================
// PALETTE
// =============================================================================

// palette holds the styles for one output stream. Colors follow the
// stream's own capabilities, so piped output and tests get plain text.
type palette struct {
	title   lipgloss.Style
	label   lipgloss.Style
	value   lipgloss.Style
	success lipgloss.Style
	warn    lipgloss.Style
	err     lipgloss.Style
	dim     lipgloss.Style
	high    lipgloss.Style
	low     lipgloss.Style
}

// newPalette builds the styles for w.
func newPalette(w io.Writer) palette {
	r := lipgloss.NewRenderer(w)
	return palette{
		title:   r.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		label:   r.NewStyle().Foreground(lipgloss.Color("245")),
		value:   r.NewStyle().Foreground(lipgloss.Color("252")),
		success: r.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("214")),
		err:     r.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
		dim:     r.NewStyle().Foreground(lipgloss.Color("240")),
		high:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("213")),
		low:     r.NewStyle().Foreground(lipgloss.Color("117")),
	}
}

// class renders a classification name in its color. Padding is kept.
func (p palette) class(name string) string {
	switch strings.TrimSpace(name) {
	case "high":
		return p.high.Render(name)
	case "low":
		return p.low.Render(name)
	default:
		return p.warn.Render(name)
	}
}

// field renders "label: value" with the label padded to width.
func (p palette) field(label string, width int, value string) string {
	return p.label.Render(padLabel(label+":", width)) + " " + p.value.Render(value)
}
