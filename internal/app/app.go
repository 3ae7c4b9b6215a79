// Package app provides the top-level application lifecycle: it wires the
// optional infrastructure (journal, cache, archive, notifications, the
// operator server) and drives the selected operating mode.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/kizzybot/internal/config"
)

// Options are the per-invocation knobs from the command line.
type Options struct {
	Mode    string // "run" or "inspect"
	Account string // run a single named account; empty runs all
	Rebet   bool   // ignore existing positions and wager everything again
	Serial  bool   // force serial account execution
}

// App is the root application object. It owns the configuration, logger, and
// the cleanup functions run in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	opts    Options
	logger  *slog.Logger
	closers []func()
}

// New creates an App from the given configuration and logger.
func New(cfg *config.Config, opts Options, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		opts:   opts,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run wires dependencies, dispatches the operating mode, and blocks until
// the mode finishes or the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("mode", a.opts.Mode),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	switch strings.ToLower(a.opts.Mode) {
	case "run":
		return a.RunMode(ctx, deps)
	case "inspect":
		return a.InspectMode(ctx, deps)
	default:
		return fmt.Errorf("app: unsupported mode %q", a.opts.Mode)
	}
}

// Close tears down all resources in reverse registration order. Safe to call
// multiple times.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
