package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/kizzybot/internal/runner"
	"github.com/alanyoungcy/kizzybot/internal/server"
	"github.com/alanyoungcy/kizzybot/internal/service"
	"github.com/alanyoungcy/kizzybot/internal/session"
	"github.com/alanyoungcy/kizzybot/internal/strategy"
)

// buildRunner assembles the runner from configuration and wired
// dependencies, applying the command-line overrides.
func (a *App) buildRunner(deps *Dependencies) *runner.Runner {
	cfg := a.cfg

	platforms := make([]runner.Platform, 0, len(cfg.Runner.Platforms))
	for _, p := range cfg.Runner.Platforms {
		platforms = append(platforms, runner.Platform{Name: p.Name, Spreads: p.Spreads})
	}

	skipExisting := cfg.Betting.SkipExisting
	if a.opts.Rebet {
		skipExisting = false
	}
	parallel := cfg.Runner.Parallel
	if a.opts.Serial {
		parallel = false
	}

	runnerCfg := runner.Config{
		AppHost:     cfg.Kizzy.AppHost,
		RestHost:    cfg.Kizzy.RestHost,
		HTTPTimeout: cfg.Kizzy.HTTPTimeout.Duration,
		WarmOnStart: cfg.Session.WarmOnStart,
		Platforms:   platforms,
		Parallel:    parallel,
		Stagger:     cfg.Runner.Stagger.Duration,
		Bet: service.BetConfig{
			PoolStake:    cfg.Betting.PoolStake,
			SkipExisting: skipExisting,
			PoolDelay:    cfg.Betting.PoolDelay.Duration,
			SpreadDelay:  cfg.Betting.SpreadDelay.Duration,
			BatchDelay:   cfg.Betting.BatchDelay.Duration,
		},
		Reward: service.RewardConfig{
			Rounds:     cfg.Rewards.Rounds,
			PollDelay:  cfg.Rewards.PollDelay.Duration,
			ClaimDelay: cfg.Rewards.ClaimDelay.Duration,
		},
	}

	sessions := session.NewStore(cfg.Session.CredentialsDir, cfg.Session.VaultPassword, a.logger)
	allocator := strategy.NewAllocator(cfg.Betting.BaseStake, cfg.Betting.MaxStake)

	return runner.New(sessions, allocator, runnerCfg, runner.Deps{
		BetStore:   deps.BetStore,
		ClaimStore: deps.ClaimStore,
		Cache:      deps.Cache,
		Archiver:   deps.Archiver,
		Events:     deps.Events(),
	}, a.logger)
}

// RunMode executes the full wagering flow. The operator server and the
// WebSocket hub, when enabled, live for the duration of the run.
func (a *App) RunMode(ctx context.Context, deps *Dependencies) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var srv *server.Server
	if a.cfg.Server.Enabled {
		go func() {
			if err := deps.Hub.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("ws hub stopped", slog.String("error", err.Error()))
			}
		}()

		srv = server.NewServer(server.Config{
			Port:   a.cfg.Server.Port,
			APIKey: a.cfg.Server.APIKey,
		}, server.Stores{
			Bets:   deps.BetStore,
			Claims: deps.ClaimStore,
		}, deps.Hub, a.logger)
		go func() {
			if err := srv.Start(); err != nil {
				a.logger.Error("server stopped", slog.String("error", err.Error()))
			}
		}()
	}

	r := a.buildRunner(deps)

	var runErr error
	if a.opts.Account != "" {
		report, err := r.RunOne(runCtx, a.opts.Account)
		runErr = err
		a.logReport(report.Account, report.PoolBets, report.SpreadBets,
			report.BetFailures, report.CycleClaims+report.MissionClaims, report.ClaimFailures)
	} else {
		reports, err := r.Run(runCtx)
		runErr = err
		for _, report := range reports {
			a.logReport(report.Account, report.PoolBets, report.SpreadBets,
				report.BetFailures, report.CycleClaims+report.MissionClaims, report.ClaimFailures)
		}
	}

	if srv != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("server shutdown failed", slog.String("error", err.Error()))
		}
	}

	if runErr != nil {
		return fmt.Errorf("app: run mode: %w", runErr)
	}
	return nil
}

// InspectMode fetches and logs the market view per account without placing
// any wagers.
func (a *App) InspectMode(ctx context.Context, deps *Dependencies) error {
	r := a.buildRunner(deps)
	views, err := r.Inspect(ctx)
	if err != nil {
		return fmt.Errorf("app: inspect mode: %w", err)
	}
	a.logger.InfoContext(ctx, "inspect complete", slog.Int("views", len(views)))
	return nil
}

func (a *App) logReport(account string, poolBets, spreadBets, betFailures, claims, claimFailures int) {
	a.logger.Info("account run summary",
		slog.String("account", account),
		slog.Int("pool_bets", poolBets),
		slog.Int("spread_bets", spreadBets),
		slog.Int("bet_failures", betFailures),
		slog.Int("claims", claims),
		slog.Int("claim_failures", claimFailures),
	)
}
