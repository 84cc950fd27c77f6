// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/jeranaias/tierroute/internal/arbiter"
	"github.com/jeranaias/tierroute/internal/router"
)

// ErrNoPrompt is returned when a command needs a prompt and got none.
var ErrNoPrompt = errors.New("no prompt given (pass it as arguments or on stdin)")

// =============================================================================
// CLASSIFY COMMAND
// =============================================================================

// classifyOutput is the --json form of classify.
type classifyOutput struct {
	router.Explanation
	Reason  string       `json:"reason"`
	Arbiter *verdictView `json:"arbiter,omitempty"`
}

// verdictView is the JSON form of an arbiter verdict.
type verdictView struct {
	Kind   string `json:"kind"`
	Class  string `json:"class"`
	Answer string `json:"answer,omitempty"`
	Reason string `json:"reason"`
}

func newVerdictView(v arbiter.Verdict) *verdictView {
	return &verdictView{
		Kind:   v.Kind.String(),
		Class:  v.Class.String(),
		Answer: v.Answer,
		Reason: v.Reason,
	}
}

func newClassifyCmd(opts *globalOptions) *cobra.Command {
	var (
		asJSON  bool
		resolve bool
	)

	cmd := &cobra.Command{
		Use:   "classify [prompt...]",
		Short: "Show how the local heuristics classify a prompt",
		Long: `Classify a prompt with the signal heuristics and report which rule decided it.

The prompt is taken from the arguments, or from stdin when no arguments are
given. With --arbiter, uncertain prompts are also sent to the arbiter.`,
		Example: `  tierroute classify "refactor the auth module"
  git diff | tierroute classify --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			prompt, err := readPrompt(cmd, args)
			if err != nil {
				return err
			}

			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			classifier, err := cfg.Classifier()
			if err != nil {
				return &ConfigError{Path: opts.configPath, Err: err}
			}

			out := classifyOutput{Explanation: classifier.Explain(prompt)}
			out.Reason = out.Explanation.Reason()

			if resolve && out.Class == router.ClassUncertain {
				_, _, routing, err := opts.setup(cmd)
				if err != nil {
					return err
				}
				out.Arbiter = newVerdictView(routing.Arbiter.Resolve(cmd.Context(), prompt))
			}

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}
			printClassify(cmd.OutOrStdout(), out)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	cmd.Flags().BoolVar(&resolve, "arbiter", false, "consult the arbiter when the heuristics are uncertain")
	return cmd
}

func printClassify(w io.Writer, out classifyOutput) {
	p := newPalette(w)
	fmt.Fprintln(w, p.field("class", 8, p.class(out.Class.String())))
	fmt.Fprintln(w, p.field("reason", 8, out.Reason))
	fmt.Fprintln(w, p.field("length", 8, fmt.Sprintf("%d chars (threshold %d)", out.Length, out.Threshold)))
	if out.Arbiter != nil {
		fmt.Fprintln(w, p.field("arbiter", 8, fmt.Sprintf("%s %s: %s", out.Arbiter.Kind, p.class(out.Arbiter.Class), out.Arbiter.Reason)))
	}
}

// =============================================================================
// HELPERS
// =============================================================================

// readPrompt joins args, or reads all of stdin when there are none.
func readPrompt(cmd *cobra.Command, args []string) (string, error) {
	var prompt string
	if len(args) > 0 {
		prompt = strings.Join(args, " ")
	} else {
		if isTerminal(cmd.InOrStdin()) {
			return "", ErrNoPrompt
		}
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		prompt = string(data)
	}
	if strings.TrimSpace(prompt) == "" {
		return "", ErrNoPrompt
	}
	return prompt, nil
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
