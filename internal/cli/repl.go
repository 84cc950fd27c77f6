// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/tierroute/internal/commands"
	"github.com/jeranaias/tierroute/internal/config"
	"github.com/jeranaias/tierroute/internal/engine"
	"github.com/jeranaias/tierroute/internal/util"
)

// historyLimit caps the saved REPL history.
const historyLimit = 500

// =============================================================================
// REPL COMMAND
// =============================================================================

// replOptions controls one REPL run.
type replOptions struct {
	// history enables line editing and persistent history on a terminal.
	history bool
	// active is the tier the simulated host starts on.
	active string
}

func newREPLCmd(opts *globalOptions) *cobra.Command {
	ro := replOptions{}
	var noHistory bool

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Route prompts interactively",
		Long: `Start an interactive routing session against a simulated host.

Each line is a prompt and runs one routing cycle. Lines starting with / are
commands; type /help to list them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ro.history = !noHistory
			return runREPL(cmd, opts, ro)
		},
	}

	cmd.Flags().StringVar(&ro.active, "active", "", "tier active at start (default: cheapest low tier)")
	cmd.Flags().BoolVar(&noHistory, "no-history", false, "do not read or save input history")
	return cmd
}

// runREPL reads lines until EOF, /quit or interrupt.
func runREPL(cmd *cobra.Command, opts *globalOptions, ro replOptions) error {
	_, logger, routing, err := opts.setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	out := cmd.OutOrStdout()
	p := newPalette(out)

	h, err := newLocalHost(routing, ro.active, cmd.ErrOrStderr(), logger)
	if err != nil {
		return err
	}

	registry := commands.NewRegistry(routing.Catalog)
	parser := commands.NewParser(registry)

	reader := newLineReader(cmd.InOrStdin(), out, ro.history, commands.NewCompleter(registry), logger)
	defer reader.Close()

	ctx := cmd.Context()
	cmdCtx := &commands.Context{
		Ctx:      ctx,
		Engine:   h.engine,
		State:    h.state,
		Selector: h.switcher,
		Status:   h.status,
	}

	fmt.Fprintln(out, p.title.Render("tierroute")+p.dim.Render(fmt.Sprintf("  %d tiers, starting on %s. /help for commands.",
		routing.Catalog.Len(), h.switcher.ActiveTier(ctx))))

	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := reader.ReadLine(prompt(ctx, h))
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(out)
				fmt.Fprintln(out, h.state.Stats().Summary().Format())
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if commands.IsCommand(line) {
			res, err := parser.Execute(cmdCtx, parser.Parse(line))
			if err != nil {
				fmt.Fprintln(out, p.err.Render("[error]")+" "+err.Error())
				continue
			}
			if res.Output != "" {
				fmt.Fprintln(out, res.Output)
			}
			if res.Quit {
				return nil
			}
			continue
		}

		res := h.engine.HandlePrompt(ctx, h.state, engine.PromptEvent{Prompt: line})
		fmt.Fprintln(out, formatCycle(p, res, h.switcher.ActiveTier(ctx), terminalWidth(out)))
	}
}

// prompt renders the input prompt with the active tier.
func prompt(ctx context.Context, h *localHost) string {
	active := h.switcher.ActiveTier(ctx)
	if tier, ok := h.engine.Catalog().Lookup(active); ok {
		active = tier.DisplayName()
	}
	return "[" + active + "] > "
}

// =============================================================================
// LINE READERS
// =============================================================================

// lineReader reads one line of input per call.
type lineReader interface {
	ReadLine(prompt string) (string, error)
	Close() error
}

// newLineReader returns a liner-backed reader with history when in and out
// are a terminal and history is wanted, and a plain scanner otherwise.
func newLineReader(in io.Reader, out io.Writer, history bool, completer *commands.Completer, logger *zap.Logger) lineReader {
	if history && isTerminal(in) && isTerminal(out) {
		return newLinerReader(completer, logger)
	}
	return &scanReader{scanner: bufio.NewScanner(in), out: out}
}

// scanReader reads lines from a non-interactive stream. The prompt is
// printed only when out is a terminal.
type scanReader struct {
	scanner *bufio.Scanner
	out     io.Writer
}

func (r *scanReader) ReadLine(prompt string) (string, error) {
	if isTerminal(r.out) {
		fmt.Fprint(r.out, prompt)
	}
	if !r.scanner.Scan() {
		if err := r.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.scanner.Text(), nil
}

func (r *scanReader) Close() error { return nil }

// linerReader provides line editing, tab completion and persistent history.
type linerReader struct {
	line        *liner.State
	historyFile string
	logger      *zap.Logger
}

func newLinerReader(completer *commands.Completer, logger *zap.Logger) *linerReader {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	line.SetCompleter(completer.Lines)

	r := &linerReader{line: line, logger: logger}
	if dir, err := config.ConfigDir(); err == nil {
		r.historyFile = filepath.Join(dir, "history")
		if f, err := os.Open(r.historyFile); err == nil {
			_, _ = line.ReadHistory(f)
			f.Close()
		}
	}
	return r
}

func (r *linerReader) ReadLine(prompt string) (string, error) {
	input, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(input) != "" {
		r.line.AppendHistory(input)
	}
	return input, nil
}

// Close saves history with owner-only permissions and restores the terminal.
func (r *linerReader) Close() error {
	if r.historyFile != "" {
		var buf bytes.Buffer
		if _, err := r.line.WriteHistory(&buf); err == nil {
			if err := util.AtomicWriteFile(r.historyFile, trimHistory(buf.Bytes(), historyLimit), 0600); err != nil {
				r.logger.Warn("Could not save history", zap.Error(err))
			}
		}
	}
	return r.line.Close()
}

// trimHistory keeps the last limit lines of data.
func trimHistory(data []byte, limit int) []byte {
	lines := bytes.SplitAfter(data, []byte("\n"))
	if n := len(lines); n > 0 && len(lines[n-1]) == 0 {
		lines = lines[:n-1]
	}
	if len(lines) <= limit {
		return data
	}
	return bytes.Join(lines[len(lines)-limit:], nil)
}
