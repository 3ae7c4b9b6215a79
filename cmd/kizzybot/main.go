// Command kizzybot is the wagering bot entry point. It loads configuration,
// wires dependencies, installs signal handling, and runs the selected mode.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alanyoungcy/kizzybot/internal/app"
	"github.com/alanyoungcy/kizzybot/internal/config"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to configuration file")
	mode := flag.String("mode", "run", "operating mode: run or inspect")
	account := flag.String("account", "", "run only the named account")
	rebet := flag.Bool("rebet", false, "ignore existing positions and wager everything again")
	serial := flag.Bool("serial", false, "force serial account execution")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config",
			slog.String("path", *configPath),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	var level slog.Level
	switch cfg.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("kizzy bot starting",
		slog.String("mode", *mode),
		slog.String("config", *configPath),
	)

	application := app.New(cfg, app.Options{
		Mode:    *mode,
		Account: *account,
		Rebet:   *rebet,
		Serial:  *serial,
	}, logger)
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Info("application shut down gracefully")
		} else {
			logger.Error("application exited with error", slog.String("error", err.Error()))
			fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
			os.Exit(1)
		}
	}

	logger.Info("kizzy bot stopped")
}
