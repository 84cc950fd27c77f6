// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jeranaias/tierroute/internal/config"
	"github.com/jeranaias/tierroute/internal/server"
)

// shutdownTimeout bounds graceful shutdown of the HTTP server.
const shutdownTimeout = 10 * time.Second

// =============================================================================
// SERVE COMMAND
// =============================================================================

type serveFlags struct {
	addr      string
	rateLimit int
	origins   []string
	watch     bool
}

func newServeCmd(opts *globalOptions, version string) *cobra.Command {
	flags := serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve routing sessions over HTTP",
		Long: `Start the HTTP API. Each session created through the API routes prompts
against its own simulated host.

When a config file exists it is watched, and new sessions pick up the
reloaded tiers, signals and arbiter settings.`,
		Example: `  tierroute serve
  tierroute serve --addr :9000 --cors http://localhost:3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts, flags, version)
		},
	}

	cmd.Flags().StringVar(&flags.addr, "addr", "", "listen address (default from config)")
	cmd.Flags().IntVar(&flags.rateLimit, "rate-limit", 120, "requests per minute per client IP (0 disables)")
	cmd.Flags().StringSliceVar(&flags.origins, "cors", nil, "allowed CORS origins")
	cmd.Flags().BoolVar(&flags.watch, "watch", true, "reload the config file when it changes")
	return cmd
}

func runServe(cmd *cobra.Command, opts *globalOptions, flags serveFlags, version string) error {
	cfg, logger, routing, err := opts.setup(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	addr := flags.addr
	if addr == "" {
		addr = cfg.Server.Addr
	}

	srvOpts := server.Options{
		Addr:      addr,
		Sessions:  cfg.SessionConfig(),
		RateLimit: flags.rateLimit,
		Version:   version,
		Logger:    logger,
	}
	if len(flags.origins) > 0 {
		cors := server.DefaultCORSConfig()
		cors.AllowedOrigins = flags.origins
		srvOpts.CORS = cors
	}

	srv, err := server.New(routing, srvOpts)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if flags.watch {
		if path := opts.watchPath(); path != "" {
			if err := config.Watch(ctx, path, reloadRouting(opts, srv, logger), logger); err != nil {
				logger.Warn("Config watch disabled", zap.String("path", path), zap.Error(err))
			}
		}
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	p := newPalette(cmd.OutOrStdout())
	fmt.Fprintln(cmd.OutOrStdout(), p.success.Render("listening on")+" "+p.value.Render("http://"+ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), p.dim.Render("stopped"))
	return nil
}

// watchPath returns the config file to watch, or "" when there is none.
func (o *globalOptions) watchPath() string {
	path := o.configPath
	if path == "" {
		var err error
		if path, err = config.ConfigPathTOML(); err != nil {
			return ""
		}
	}
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// reloadRouting rebuilds routing from a reloaded config and hands it to
// srv. Flag overrides are applied again so they survive reloads.
func reloadRouting(opts *globalOptions, srv *server.Server, logger *zap.Logger) config.ReloadFunc {
	return func(cfg *config.Config, err error) {
		if err != nil {
			logger.Warn("Config reload failed, keeping current routing", zap.Error(err))
			return
		}
		if err := opts.applyOverrides(cfg); err != nil {
			logger.Warn("Config reload rejected", zap.Error(err))
			return
		}
		routing, err := buildRouting(cfg, logger)
		if err != nil {
			logger.Warn("Config reload rejected", zap.Error(err))
			return
		}
		if err := srv.SetRouting(routing); err != nil {
			logger.Warn("Config reload rejected", zap.Error(err))
			return
		}
		logger.Info("Routing reloaded",
			zap.Int("tiers", routing.Catalog.Len()),
			zap.String("arbiter", cfg.Arbiter.Provider),
		)
	}
}
