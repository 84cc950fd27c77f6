// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package router

// SignalGroup is a named category of high-tier signal phrases.
type SignalGroup struct {
	Name    string
	Phrases []string
}

// defaultSignalGroups is the curated phrase set. Entries are lowercase and
// matched as plain substrings, so leading spaces (" rfc", " adr") are
// significant: they keep the phrase from firing inside unrelated words.
var defaultSignalGroups = []SignalGroup{
	{
		Name: "debugging",
		Phrases: []string{
			"flaky test",
			"intermittent",
			"heisenbug",
			"deadlock",
			"race condition",
			"memory leak",
			"segfault",
			"corruption",
			"off-by-one",
		},
	},
	{
		Name: "architecture",
		Phrases: []string{
			"design a system",
			"architect",
			"trade-off",
			"migration strategy",
			"how should i structure",
			"what's the right abstraction",
			"what is the right abstraction",
		},
	},
	{
		Name: "scope",
		Phrases: []string{
			"refactor across",
			"rename throughout",
			"move this module",
			"split this into",
			"merge these into",
			"across the codebase",
		},
	},
	{
		Name: "analysis",
		Phrases: []string{
			"explain the root cause",
			"what's wrong with this approach",
			"what is wrong with this approach",
			"review this design",
			"security audit",
			"performance analysis",
		},
	},
	{
		Name: "algorithmic",
		Phrases: []string{
			"implement an algorithm",
			"write a parser",
			"state machine",
			"lock-free",
			"backtracking",
		},
	},
	{
		Name: "writing",
		Phrases: []string{
			"write a proposal",
			" rfc",
			"design doc",
			"architecture decision record",
			" adr",
			"technical spec",
		},
	},
	{
		Name: "reasoning",
		Phrases: []string{
			"step by step",
			"walk me through",
			"debug this with me",
			"figure out why",
			"trace through",
		},
	},
}

// DefaultSignalGroups returns a copy of the built-in signal categories.
func DefaultSignalGroups() []SignalGroup {
	out := make([]SignalGroup, len(defaultSignalGroups))
	for i, g := range defaultSignalGroups {
		out[i] = SignalGroup{Name: g.Name, Phrases: append([]string(nil), g.Phrases...)}
	}
	return out
}

// DefaultSignals returns the built-in signal phrases as one flat list.
func DefaultSignals() []string {
	var out []string
	for _, g := range defaultSignalGroups {
		out = append(out, g.Phrases...)
	}
	return out
}
