package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/kizzybot/internal/domain"
)

// RewardClient is the slice of the platform client the reward service needs.
type RewardClient interface {
	Rewards(ctx context.Context) ([]domain.Mission, domain.RewardCycle)
	ClaimCycle(ctx context.Context, cycleID int64) error
	ClaimMission(ctx context.Context, missionID, cycleID int64) error
}

// RewardConfig carries the polling and pacing knobs for reward claiming.
type RewardConfig struct {
	Rounds     int
	PollDelay  time.Duration
	ClaimDelay time.Duration
}

// ClaimResult summarises one account's claim pass.
type ClaimResult struct {
	CycleClaims   int
	MissionClaims int
	Failures      int
}

// RewardService reconciles claimable rewards over several polling rounds.
// Claim failures are counted, never fatal: the next round re-fetches and the
// platform's own claimed flags keep the pass idempotent.
type RewardService struct {
	client  RewardClient
	journal domain.ClaimStore
	events  domain.EventSink
	cfg     RewardConfig
	logger  *slog.Logger
}

// NewRewardService wires a RewardService. journal and events may be nil.
func NewRewardService(
	client RewardClient,
	journal domain.ClaimStore,
	events domain.EventSink,
	cfg RewardConfig,
	logger *slog.Logger,
) *RewardService {
	return &RewardService{
		client:  client,
		journal: journal,
		events:  events,
		cfg:     cfg,
		logger:  logger.With(slog.String("component", "reward_service")),
	}
}

// Claim runs the configured number of polling rounds for one account. Each
// round fetches the mission batch, claims the cycle once per run using the
// first mission's resolved cycle id, then claims every eligible mission
// sequentially with pacing between claims. Missions already claimed
// upstream are left alone.
//
// A mission's resolved cycle id is its own nested id when present,
// otherwise the batch cycle id once the batch is released. Mission claims
// are attempted even when that resolves to zero; the platform decides.
func (s *RewardService) Claim(ctx context.Context, scope RunScope) ClaimResult {
	var result ClaimResult
	cycleClaimed := false

	for round := 0; round < s.cfg.Rounds; round++ {
		if ctx.Err() != nil {
			return result
		}

		missions, cycle := s.client.Rewards(ctx)
		s.logger.DebugContext(ctx, "reward poll",
			slog.String("account", scope.Account),
			slog.Int("round", round+1),
			slog.Int("missions", len(missions)),
			slog.Int64("cycle_id", cycle.ID),
			slog.Bool("released", cycle.Released),
		)

		resolveCycle := func(m domain.Mission) int64 {
			if m.CycleID != 0 {
				return m.CycleID
			}
			if cycle.Released {
				return cycle.ID
			}
			return 0
		}

		if claimID := cycleClaimID(missions, resolveCycle); claimID != 0 && !cycleClaimed {
			err := s.client.ClaimCycle(ctx, claimID)
			s.record(ctx, scope, domain.Claim{
				Kind:    domain.ClaimCycle,
				CycleID: claimID,
				Success: err == nil,
			})
			if err != nil {
				result.Failures++
				s.logger.WarnContext(ctx, "cycle claim failed",
					slog.String("account", scope.Account),
					slog.Int64("cycle_id", claimID),
					slog.String("error", err.Error()),
				)
			} else {
				cycleClaimed = true
				result.CycleClaims++
				s.logger.InfoContext(ctx, "cycle claimed",
					slog.String("account", scope.Account),
					slog.Int64("cycle_id", claimID),
				)
			}
			if err := sleep(ctx, s.cfg.ClaimDelay); err != nil {
				return result
			}
		}

		for _, mission := range missions {
			if ctx.Err() != nil {
				return result
			}
			if mission.Claimed || !mission.ClaimEnabled {
				continue
			}

			cycleID := resolveCycle(mission)
			err := s.client.ClaimMission(ctx, mission.ID, cycleID)
			s.record(ctx, scope, domain.Claim{
				Kind:      domain.ClaimMission,
				MissionID: mission.ID,
				CycleID:   cycleID,
				Success:   err == nil,
			})
			if err != nil {
				result.Failures++
				s.logger.WarnContext(ctx, "mission claim failed",
					slog.String("account", scope.Account),
					slog.Int64("mission_id", mission.ID),
					slog.String("error", err.Error()),
				)
			} else {
				result.MissionClaims++
				s.logger.InfoContext(ctx, "mission claimed",
					slog.String("account", scope.Account),
					slog.Int64("mission_id", mission.ID),
					slog.String("title", mission.Title),
					slog.Float64("reward", mission.Reward),
				)
			}

			if err := sleep(ctx, s.cfg.ClaimDelay); err != nil {
				return result
			}
		}

		if round < s.cfg.Rounds-1 {
			if err := sleep(ctx, s.cfg.PollDelay); err != nil {
				return result
			}
		}
	}
	return result
}

// cycleClaimID picks the cycle to claim at batch level: the first mission's
// resolved cycle id, zero when the batch is empty or nothing resolves.
func cycleClaimID(missions []domain.Mission, resolve func(domain.Mission) int64) int64 {
	if len(missions) == 0 {
		return 0
	}
	return resolve(missions[0])
}

func (s *RewardService) record(ctx context.Context, scope RunScope, claim domain.Claim) {
	claim.ID = uuid.NewString()
	claim.RunID = scope.RunID
	claim.Account = scope.Account
	claim.ClaimedAt = time.Now().UTC()

	if s.journal != nil {
		if err := s.journal.Insert(ctx, claim); err != nil {
			s.logger.WarnContext(ctx, "claim journal insert failed", slog.String("error", err.Error()))
		}
	}
	if s.events != nil && claim.Success {
		s.events.Publish(domain.RunEvent{
			Type:    domain.EventClaimed,
			Account: scope.Account,
			Message: fmt.Sprintf("%s claim cycle %d mission %d", claim.Kind, claim.CycleID, claim.MissionID),
			At:      claim.ClaimedAt,
		})
	}
}
