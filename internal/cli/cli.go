// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/tierroute/internal/config"
	"github.com/jeranaias/tierroute/internal/logging"
	"github.com/jeranaias/tierroute/internal/server"
)

// =============================================================================
// EXIT CODES
// =============================================================================

const (
	// ExitSuccess indicates successful execution
	ExitSuccess = 0
	// ExitGeneralError indicates a general/unknown error
	ExitGeneralError = 1
	// ExitConfigError indicates configuration file or settings error
	ExitConfigError = 3
)

// ConfigError marks failures to load or validate configuration.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("config %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("config: %v", e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ExitCode maps an error returned by a command to a process exit code.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var cfgErr *ConfigError
	if errors.As(err, &cfgErr) {
		return ExitConfigError
	}
	return ExitGeneralError
}

// =============================================================================
// ROOT COMMAND
// =============================================================================

// globalOptions are the persistent flags shared by every subcommand.
type globalOptions struct {
	configPath string
	logLevel   string
	dev        bool
	provider   string
	model      string
}

// Execute runs the CLI with os.Args and returns the process exit code.
func Execute(ctx context.Context, version string) int {
	root := NewRootCmd(version)
	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, newPalette(os.Stderr).err.Render("Error: ")+err.Error())
		return ExitCode(err)
	}
	return ExitSuccess
}

// NewRootCmd builds the tierroute command tree.
func NewRootCmd(version string) *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:   "tierroute",
		Short: "Route prompts between cheap and capable model tiers",
		Long: `tierroute classifies each prompt with local heuristics and, when they
cannot decide, asks a small arbiter model. It then switches the session to
the cheapest tier that can handle the prompt.

Running tierroute with no subcommand starts the interactive REPL.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runREPL(cmd, opts, replOptions{history: true})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file path (default ~/.tierroute/config.toml)")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error (default from config)")
	root.PersistentFlags().BoolVar(&opts.dev, "dev", false, "human-readable development logging")
	root.PersistentFlags().StringVarP(&opts.provider, "provider", "p", "", "override the arbiter provider")
	root.PersistentFlags().StringVarP(&opts.model, "model", "m", "", "override the arbiter model")

	root.AddCommand(
		newClassifyCmd(opts),
		newRouteCmd(opts),
		newREPLCmd(opts),
		newServeCmd(opts, version),
		newTiersCmd(opts),
		newConfigCmd(opts),
		newVersionCmd(version),
	)
	return root
}

// =============================================================================
// SHARED SETUP
// =============================================================================

// loadConfig loads the config named by --config, or the default locations,
// and applies flag overrides.
func (o *globalOptions) loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if o.configPath != "" {
		cfg, err = config.LoadFromPath(o.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, &ConfigError{Path: o.configPath, Err: err}
	}
	if err := o.applyOverrides(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyOverrides applies --provider, --model and --log-level to cfg.
func (o *globalOptions) applyOverrides(cfg *config.Config) error {
	if o.provider == "" && o.model == "" && o.logLevel == "" && !o.dev {
		return nil
	}
	if o.provider != "" {
		cfg.Arbiter.Provider = o.provider
	}
	if o.model != "" {
		cfg.Arbiter.Model = o.model
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	if o.dev {
		cfg.Log.Development = true
	}
	if err := cfg.Validate(); err != nil {
		return &ConfigError{Path: o.configPath, Err: err}
	}
	return nil
}

// newLogger builds the process logger. Logs go to w, never to stdout, so
// command output stays machine-readable.
func newLogger(cfg *config.Config, w io.Writer) (*zap.Logger, error) {
	return logging.New(logging.Options{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		Output:      w,
	})
}

// buildRouting assembles the catalog, classifier and arbiter from cfg.
func buildRouting(cfg *config.Config, logger *zap.Logger) (server.Routing, error) {
	catalog, err := cfg.Catalog()
	if err != nil {
		return server.Routing{}, &ConfigError{Err: err}
	}
	classifier, err := cfg.Classifier()
	if err != nil {
		return server.Routing{}, &ConfigError{Err: err}
	}
	arb, err := cfg.NewArbiter(logger)
	if err != nil {
		return server.Routing{}, &ConfigError{Err: err}
	}
	return server.Routing{
		Catalog:    catalog,
		Classifier: classifier,
		Arbiter:    arb,
	}, nil
}

// setup loads config, logger and routing for commands that route prompts.
func (o *globalOptions) setup(cmd *cobra.Command) (*config.Config, *zap.Logger, server.Routing, error) {
	cfg, err := o.loadConfig()
	if err != nil {
		return nil, nil, server.Routing{}, err
	}
	logger, err := newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, nil, server.Routing{}, &ConfigError{Path: o.configPath, Err: err}
	}
	routing, err := buildRouting(cfg, logger)
	if err != nil {
		return nil, nil, server.Routing{}, err
	}
	return cfg, logger, routing, nil
}
