// Package runner orchestrates account runs: session setup, position
// seeding, the wagering passes per platform, reward reconciliation, and the
// final report.
package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/kizzybot/internal/domain"
	"github.com/alanyoungcy/kizzybot/internal/platform/kizzy"
	"github.com/alanyoungcy/kizzybot/internal/service"
	"github.com/alanyoungcy/kizzybot/internal/session"
	"github.com/alanyoungcy/kizzybot/internal/strategy"
	"github.com/alanyoungcy/kizzybot/internal/tracker"
)

// Platform names a market platform and whether its spread markets are
// wagered on in addition to its pools.
type Platform struct {
	Name    string
	Spreads bool
}

// Config carries the runner's orchestration knobs.
type Config struct {
	AppHost     string
	RestHost    string
	HTTPTimeout time.Duration
	WarmOnStart bool
	Platforms   []Platform
	Parallel    bool
	Stagger     time.Duration
	Bet         service.BetConfig
	Reward      service.RewardConfig
}

// Deps are the optional infrastructure hooks. Any of them may be nil; the
// run degrades to in-memory behaviour.
type Deps struct {
	BetStore   domain.BetStore
	ClaimStore domain.ClaimStore
	Cache      domain.PositionCache
	Archiver   domain.ReportArchiver
	Events     domain.EventSink
}

// Runner executes the full wagering flow for every account with a session
// artifact.
type Runner struct {
	sessions  *session.Store
	allocator *strategy.Allocator
	cfg       Config
	deps      Deps
	logger    *slog.Logger
}

// New wires a Runner.
func New(sessions *session.Store, allocator *strategy.Allocator, cfg Config, deps Deps, logger *slog.Logger) *Runner {
	return &Runner{
		sessions:  sessions,
		allocator: allocator,
		cfg:       cfg,
		deps:      deps,
		logger:    logger.With(slog.String("component", "runner")),
	}
}

// Run executes every discovered account, serially or in parallel per
// configuration. One account's failure never stops the others; the returned
// error joins the per-account failures, and the reports cover every account
// that was attempted.
func (r *Runner) Run(ctx context.Context) ([]domain.RunReport, error) {
	accounts, err := r.sessions.Accounts()
	if err != nil {
		return nil, err
	}
	return r.runAccounts(ctx, accounts)
}

// RunOne executes a single named account.
func (r *Runner) RunOne(ctx context.Context, account string) (domain.RunReport, error) {
	return r.runAccount(ctx, account)
}

func (r *Runner) runAccounts(ctx context.Context, accounts []string) ([]domain.RunReport, error) {
	reports := make([]domain.RunReport, len(accounts))
	errs := make([]error, len(accounts))

	if !r.cfg.Parallel {
		for i, account := range accounts {
			reports[i], errs[i] = r.runAccount(ctx, account)
			if ctx.Err() != nil {
				break
			}
		}
		return reports, errors.Join(errs...)
	}

	// Plain errgroup.Group, not WithContext: one account failing must not
	// cancel its siblings.
	var g errgroup.Group
	var mu sync.Mutex
	for i, account := range accounts {
		i, account := i, account
		if i > 0 && r.cfg.Stagger > 0 {
			select {
			case <-ctx.Done():
				return reports, errors.Join(append(errs, ctx.Err())...)
			case <-time.After(r.cfg.Stagger):
			}
		}
		g.Go(func() error {
			report, err := r.runAccount(ctx, account)
			mu.Lock()
			reports[i], errs[i] = report, err
			mu.Unlock()
			return nil
		})
	}
	g.Wait() //nolint:errcheck
	return reports, errors.Join(errs...)
}

// runAccount is the per-account state machine: load and warm the session,
// seed the tracker, wager each platform, reconcile rewards, report.
func (r *Runner) runAccount(ctx context.Context, account string) (domain.RunReport, error) {
	report := domain.RunReport{
		RunID:     uuid.NewString(),
		Account:   account,
		StartedAt: time.Now().UTC(),
	}
	logger := r.logger.With(
		slog.String("account", account),
		slog.String("run_id", report.RunID),
	)
	r.publish(domain.RunEvent{Type: domain.EventRunStarted, Account: account, At: report.StartedAt})

	fail := func(err error) (domain.RunReport, error) {
		report.FinishedAt = time.Now().UTC()
		report.Error = err.Error()
		logger.ErrorContext(ctx, "run failed", slog.String("error", err.Error()))
		r.publish(domain.RunEvent{
			Type: domain.EventRunFailed, Account: account,
			Message: err.Error(), At: report.FinishedAt,
		})
		r.archive(ctx, logger, report)
		return report, fmt.Errorf("runner: account %s: %w", account, err)
	}

	creds, err := r.sessions.Load(account)
	if err != nil {
		return fail(err)
	}

	ch, err := session.NewChannel(creds, r.cfg.AppHost, r.cfg.RestHost, r.cfg.HTTPTimeout, logger)
	if err != nil {
		return fail(err)
	}
	defer ch.Close() //nolint:errcheck

	if r.cfg.WarmOnStart {
		if err := ch.Warm(ctx); err != nil {
			if errors.Is(err, domain.ErrAuthenticationFailed) {
				return fail(err)
			}
			// Transient warm trouble is not fatal; the first real call
			// decides whether the session is usable.
			logger.WarnContext(ctx, "session warm failed", slog.String("error", err.Error()))
		}
	}

	client := kizzy.NewClient(r.cfg.AppHost, r.cfg.RestHost, ch, logger)
	tr, err := r.seedTracker(ctx, logger, client, account)
	if err != nil {
		return fail(err)
	}

	scope := service.RunScope{RunID: report.RunID, Account: account}
	betSvc := service.NewBetService(client, r.allocator, r.deps.BetStore, r.deps.Cache, r.deps.Events, r.cfg.Bet, logger)
	rewardSvc := service.NewRewardService(client, r.deps.ClaimStore, r.deps.Events, r.cfg.Reward, logger)

	for _, platform := range r.cfg.Platforms {
		if ctx.Err() != nil {
			return fail(ctx.Err())
		}
		scope.Platform = platform.Name

		pools := client.Pools(ctx, platform.Name)
		placed, failed := betSvc.PlacePoolBets(ctx, scope, tr, pools)
		report.PoolBets += placed
		report.BetFailures += failed

		if platform.Spreads {
			spreads := client.Spreads(ctx, platform.Name)
			placed, failed := betSvc.PlaceSpreadBets(ctx, scope, tr, spreads, time.Now())
			report.SpreadBets += placed
			report.BetFailures += failed
		}
	}

	scope.Platform = ""
	claims := rewardSvc.Claim(ctx, scope)
	report.CycleClaims = claims.CycleClaims
	report.MissionClaims = claims.MissionClaims
	report.ClaimFailures = claims.Failures

	report.FinishedAt = time.Now().UTC()
	logger.InfoContext(ctx, "run finished",
		slog.Int("pool_bets", report.PoolBets),
		slog.Int("spread_bets", report.SpreadBets),
		slog.Int("bet_failures", report.BetFailures),
		slog.Int("cycle_claims", report.CycleClaims),
		slog.Int("mission_claims", report.MissionClaims),
		slog.Int("claim_failures", report.ClaimFailures),
	)
	r.publish(domain.RunEvent{
		Type: domain.EventRunDone, Account: account,
		Message: fmt.Sprintf("%d pool bets, %d spread bets, %d claims",
			report.PoolBets, report.SpreadBets, report.CycleClaims+report.MissionClaims),
		At: report.FinishedAt,
	})
	r.archive(ctx, logger, report)
	return report, nil
}

// seedTracker primes the position ledger from the platform snapshot and,
// when available, the cross-run cache. A rejected session is fatal; every
// other gap just leaves the tracker emptier.
func (r *Runner) seedTracker(ctx context.Context, logger *slog.Logger, client *kizzy.Client, account string) (*tracker.Tracker, error) {
	tr := tracker.New()

	snap, err := client.AuthSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	tr.Seed(domain.KindPool, snap.PoolBetIDs)
	tr.Seed(domain.KindSpreadRange, snap.SpreadRangeIDs)

	if r.deps.Cache != nil {
		for _, kind := range []domain.PositionKind{domain.KindPool, domain.KindSpreadRange} {
			ids, err := r.deps.Cache.Seed(ctx, account, kind)
			if err != nil {
				logger.WarnContext(ctx, "position cache seed failed",
					slog.String("kind", string(kind)),
					slog.String("error", err.Error()),
				)
				continue
			}
			tr.Seed(kind, ids)
		}
	}

	logger.InfoContext(ctx, "tracker seeded", slog.Int("positions", tr.Len()))
	return tr, nil
}

func (r *Runner) publish(event domain.RunEvent) {
	if r.deps.Events != nil {
		r.deps.Events.Publish(event)
	}
}

func (r *Runner) archive(ctx context.Context, logger *slog.Logger, report domain.RunReport) {
	if r.deps.Archiver == nil {
		return
	}
	if err := r.deps.Archiver.Archive(ctx, report); err != nil {
		logger.WarnContext(ctx, "report archive failed", slog.String("error", err.Error()))
	}
}
