// Package service implements the wagering and reward-claim flows on top of
// the platform client, the position tracker, and the optional journal,
// cache, and event infrastructure.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/kizzybot/internal/domain"
	"github.com/alanyoungcy/kizzybot/internal/strategy"
	"github.com/alanyoungcy/kizzybot/internal/tracker"
)

// BetPlacer is the slice of the platform client the bet service needs.
type BetPlacer interface {
	PlacePoolBet(ctx context.Context, poolID int64, side domain.Side, amount int) error
	PlaceSpreadBet(ctx context.Context, rangeID int64, amount int) error
}

// RunScope identifies the run a service call belongs to.
type RunScope struct {
	RunID    string
	Account  string
	Platform string
}

// BetConfig carries the sizing and pacing knobs for the bet service.
type BetConfig struct {
	PoolStake    int
	SkipExisting bool
	PoolDelay    time.Duration
	SpreadDelay  time.Duration
	BatchDelay   time.Duration
}

// BetService submits pool and spread wagers, enforcing dedup against the
// position tracker and pacing between submissions. journal, cache, and
// events may be nil; persistence failures never abort a run.
type BetService struct {
	placer    BetPlacer
	allocator *strategy.Allocator
	journal   domain.BetStore
	cache     domain.PositionCache
	events    domain.EventSink
	cfg       BetConfig
	logger    *slog.Logger
}

// NewBetService wires a BetService.
func NewBetService(
	placer BetPlacer,
	allocator *strategy.Allocator,
	journal domain.BetStore,
	cache domain.PositionCache,
	events domain.EventSink,
	cfg BetConfig,
	logger *slog.Logger,
) *BetService {
	return &BetService{
		placer:    placer,
		allocator: allocator,
		journal:   journal,
		cache:     cache,
		events:    events,
		cfg:       cfg,
		logger:    logger.With(slog.String("component", "bet_service")),
	}
}

// PlacePoolBets wagers the configured stake on the majority side of each
// pool not already held, pacing between submissions. Returns placed and
// failed counts. Only context cancellation aborts the loop.
func (s *BetService) PlacePoolBets(ctx context.Context, scope RunScope, tr *tracker.Tracker, pools []domain.Pool) (placed, failed int) {
	for _, pool := range pools {
		if ctx.Err() != nil {
			return placed, failed
		}
		if s.cfg.SkipExisting && tr.IsWagered(domain.KindPool, pool.ID) {
			s.logger.DebugContext(ctx, "pool already wagered",
				slog.String("account", scope.Account),
				slog.Int64("pool_id", pool.ID),
			)
			continue
		}

		side := strategy.PickSide(pool)
		err := s.placer.PlacePoolBet(ctx, pool.ID, side, s.cfg.PoolStake)
		s.record(ctx, scope, domain.Bet{
			Kind:     domain.KindPool,
			TargetID: pool.ID,
			Side:     side,
			Amount:   s.cfg.PoolStake,
			Success:  err == nil,
		})
		if err != nil {
			failed++
			s.logger.WarnContext(ctx, "pool bet failed",
				slog.String("account", scope.Account),
				slog.Int64("pool_id", pool.ID),
				slog.String("error", err.Error()),
			)
		} else {
			placed++
			tr.MarkWagered(domain.KindPool, pool.ID)
			s.cachePosition(ctx, scope.Account, domain.KindPool, pool.ID)
			s.logger.InfoContext(ctx, "pool bet placed",
				slog.String("account", scope.Account),
				slog.Int64("pool_id", pool.ID),
				slog.String("side", string(side)),
				slog.Int("amount", s.cfg.PoolStake),
			)
		}

		if err := sleep(ctx, s.cfg.PoolDelay); err != nil {
			return placed, failed
		}
	}
	return placed, failed
}

// PlaceSpreadBets sizes and submits wagers across each spread's ranges.
// Inert spreads (no ranges or a missing/passed deadline) are skipped whole;
// individual ranges already held are filtered out after allocation so stake
// sizing still sees the full market.
func (s *BetService) PlaceSpreadBets(ctx context.Context, scope RunScope, tr *tracker.Tracker, spreads []domain.Spread, now time.Time) (placed, failed int) {
	for _, spread := range spreads {
		if ctx.Err() != nil {
			return placed, failed
		}
		if spread.Inert(now) {
			s.logger.DebugContext(ctx, "spread inert, skipping",
				slog.String("account", scope.Account),
				slog.Int64("spread_id", spread.ID),
			)
			continue
		}

		allocs, total := s.allocator.Allocate(spread.Ranges)
		if len(allocs) == 0 {
			s.logger.DebugContext(ctx, "spread has no wagerable ranges",
				slog.String("account", scope.Account),
				slog.Int64("spread_id", spread.ID),
			)
			continue
		}
		s.logger.InfoContext(ctx, "spread allocation",
			slog.String("account", scope.Account),
			slog.Int64("spread_id", spread.ID),
			slog.Int("ranges", len(allocs)),
			slog.Int("total_stake", total),
		)

		for _, alloc := range allocs {
			if ctx.Err() != nil {
				return placed, failed
			}
			if s.cfg.SkipExisting && tr.IsWagered(domain.KindSpreadRange, alloc.RangeID) {
				s.logger.DebugContext(ctx, "range already wagered",
					slog.String("account", scope.Account),
					slog.Int64("range_id", alloc.RangeID),
				)
				continue
			}

			err := s.placer.PlaceSpreadBet(ctx, alloc.RangeID, alloc.Amount)
			s.record(ctx, scope, domain.Bet{
				Kind:     domain.KindSpreadRange,
				TargetID: alloc.RangeID,
				Amount:   alloc.Amount,
				Odds:     alloc.Odds,
				Success:  err == nil,
			})
			if err != nil {
				failed++
				s.logger.WarnContext(ctx, "spread bet failed",
					slog.String("account", scope.Account),
					slog.Int64("range_id", alloc.RangeID),
					slog.String("error", err.Error()),
				)
			} else {
				placed++
				tr.MarkWagered(domain.KindSpreadRange, alloc.RangeID)
				s.cachePosition(ctx, scope.Account, domain.KindSpreadRange, alloc.RangeID)
				s.logger.InfoContext(ctx, "spread bet placed",
					slog.String("account", scope.Account),
					slog.Int64("range_id", alloc.RangeID),
					slog.Int("amount", alloc.Amount),
					slog.Float64("odds", alloc.Odds),
				)
			}

			if err := sleep(ctx, s.cfg.SpreadDelay); err != nil {
				return placed, failed
			}
		}

		if err := sleep(ctx, s.cfg.BatchDelay); err != nil {
			return placed, failed
		}
	}
	return placed, failed
}

// record journals and broadcasts one submission. Both sinks are best-effort.
func (s *BetService) record(ctx context.Context, scope RunScope, bet domain.Bet) {
	bet.ID = uuid.NewString()
	bet.RunID = scope.RunID
	bet.Account = scope.Account
	bet.Platform = scope.Platform
	bet.PlacedAt = time.Now().UTC()

	if s.journal != nil {
		if err := s.journal.Insert(ctx, bet); err != nil {
			s.logger.WarnContext(ctx, "bet journal insert failed", slog.String("error", err.Error()))
		}
	}
	if s.events != nil {
		eventType := domain.EventBetPlaced
		if !bet.Success {
			eventType = domain.EventBetFailed
		}
		s.events.Publish(domain.RunEvent{
			Type:    eventType,
			Account: scope.Account,
			Message: fmt.Sprintf("%s %d stake %d", bet.Kind, bet.TargetID, bet.Amount),
			At:      bet.PlacedAt,
		})
	}
}

func (s *BetService) cachePosition(ctx context.Context, account string, kind domain.PositionKind, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Add(ctx, account, kind, id); err != nil {
		s.logger.WarnContext(ctx, "position cache add failed", slog.String("error", err.Error()))
	}
}

// sleep pauses for d, returning early with the context error on
// cancellation. A non-positive d only checks the context.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
