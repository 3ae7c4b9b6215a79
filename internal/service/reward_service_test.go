package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/alanyoungcy/kizzybot/internal/domain"
)

type missionClaim struct {
	missionID int64
	cycleID   int64
}

type fakeRewardClient struct {
	mu            sync.Mutex
	missions      []domain.Mission
	cycle         domain.RewardCycle
	cycleClaims   []int64
	missionClaims []missionClaim
	failCycle     error
	failMissions  map[int64]error
	markClaimed   bool // flip Claimed after a successful mission claim
}

func (f *fakeRewardClient) Rewards(context.Context) ([]domain.Mission, domain.RewardCycle) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Mission, len(f.missions))
	copy(out, f.missions)
	return out, f.cycle
}

func (f *fakeRewardClient) ClaimCycle(_ context.Context, cycleID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cycleClaims = append(f.cycleClaims, cycleID)
	return f.failCycle
}

func (f *fakeRewardClient) ClaimMission(_ context.Context, missionID, cycleID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.missionClaims = append(f.missionClaims, missionClaim{missionID, cycleID})
	if err := f.failMissions[missionID]; err != nil {
		return err
	}
	if f.markClaimed {
		for i := range f.missions {
			if f.missions[i].ID == missionID {
				f.missions[i].Claimed = true
			}
		}
	}
	return nil
}

type fakeClaimStore struct {
	mu     sync.Mutex
	claims []domain.Claim
}

func (f *fakeClaimStore) Insert(_ context.Context, claim domain.Claim) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.claims = append(f.claims, claim)
	return nil
}

func (f *fakeClaimStore) ListByAccount(context.Context, string, int) ([]domain.Claim, error) {
	return nil, nil
}

func newRewardService(client RewardClient, journal domain.ClaimStore, rounds int) *RewardService {
	return NewRewardService(client, journal, nil, RewardConfig{Rounds: rounds}, discardLogger())
}

func TestClaimAllAlreadyClaimed(t *testing.T) {
	client := &fakeRewardClient{
		missions: []domain.Mission{
			{ID: 1, Claimed: true, ClaimEnabled: true, CycleID: 7},
			{ID: 2, Claimed: true, ClaimEnabled: true, CycleID: 7},
		},
		cycle: domain.RewardCycle{ID: 7, Released: true},
	}
	svc := newRewardService(client, nil, 3)

	result := svc.Claim(context.Background(), testScope())
	if result.CycleClaims != 1 {
		t.Errorf("CycleClaims = %d, want 1", result.CycleClaims)
	}
	if result.MissionClaims != 0 {
		t.Errorf("MissionClaims = %d, want 0", result.MissionClaims)
	}
	if len(client.cycleClaims) != 1 {
		t.Errorf("cycle claim attempts = %d, want 1 across rounds", len(client.cycleClaims))
	}
	if len(client.missionClaims) != 0 {
		t.Errorf("mission claim attempts = %d, want 0", len(client.missionClaims))
	}
}

func TestClaimEligibleMissionsWithPlatformIdempotence(t *testing.T) {
	client := &fakeRewardClient{
		missions: []domain.Mission{
			{ID: 1, ClaimEnabled: true, CycleID: 7},
			{ID: 2, ClaimEnabled: false, CycleID: 7}, // not yet enabled
			{ID: 3, ClaimEnabled: true, CycleID: 9},  // own cycle id wins
		},
		cycle:       domain.RewardCycle{ID: 7, Released: true},
		markClaimed: true,
	}
	journal := &fakeClaimStore{}
	svc := newRewardService(client, journal, 3)

	result := svc.Claim(context.Background(), testScope())
	if result.MissionClaims != 2 {
		t.Errorf("MissionClaims = %d, want 2", result.MissionClaims)
	}
	if result.CycleClaims != 1 {
		t.Errorf("CycleClaims = %d, want 1", result.CycleClaims)
	}
	// The platform's claimed flag makes rounds after the first no-ops.
	if len(client.missionClaims) != 2 {
		t.Fatalf("mission claim attempts = %v, want exactly 2", client.missionClaims)
	}
	if client.missionClaims[0] != (missionClaim{1, 7}) {
		t.Errorf("claim 0 = %+v", client.missionClaims[0])
	}
	if client.missionClaims[1] != (missionClaim{3, 9}) {
		t.Errorf("claim 1 = %+v, want mission cycle id preferred", client.missionClaims[1])
	}
	if len(journal.claims) != 3 {
		t.Errorf("journaled claims = %d, want 3", len(journal.claims))
	}
}

func TestClaimCycleUsesFirstMissionCycleID(t *testing.T) {
	client := &fakeRewardClient{
		missions: []domain.Mission{
			{ID: 1, Claimed: true, ClaimEnabled: true, CycleID: 9},
			{ID: 2, Claimed: true, ClaimEnabled: true},
		},
		cycle: domain.RewardCycle{ID: 7, Released: true},
	}
	svc := newRewardService(client, nil, 1)

	svc.Claim(context.Background(), testScope())
	if len(client.cycleClaims) != 1 || client.cycleClaims[0] != 9 {
		t.Errorf("cycle claims = %v, want [9]: the first mission's own cycle id wins over the batch id", client.cycleClaims)
	}
}

func TestClaimCycleAttemptedWhenBatchUnreleased(t *testing.T) {
	client := &fakeRewardClient{
		missions: []domain.Mission{
			{ID: 1, Claimed: true, ClaimEnabled: true, CycleID: 9},
		},
		cycle: domain.RewardCycle{ID: 7, Released: false},
	}
	svc := newRewardService(client, nil, 1)

	result := svc.Claim(context.Background(), testScope())
	if len(client.cycleClaims) != 1 || client.cycleClaims[0] != 9 {
		t.Errorf("cycle claims = %v, want [9]: a mission-carried cycle id is claimable before the batch releases", client.cycleClaims)
	}
	if result.CycleClaims != 1 {
		t.Errorf("CycleClaims = %d, want 1", result.CycleClaims)
	}
}

func TestClaimMissionWithoutCycleStillAttempted(t *testing.T) {
	client := &fakeRewardClient{
		missions: []domain.Mission{
			{ID: 1, ClaimEnabled: true}, // no own cycle id
		},
		cycle:       domain.RewardCycle{ID: 7, Released: false},
		markClaimed: true,
	}
	svc := newRewardService(client, nil, 1)

	result := svc.Claim(context.Background(), testScope())
	if len(client.cycleClaims) != 0 {
		t.Errorf("cycle claims = %v, want none when nothing resolves a cycle id", client.cycleClaims)
	}
	// The claim is still attempted, carrying cycle id 0; the platform
	// decides whether that is claimable.
	if len(client.missionClaims) != 1 || client.missionClaims[0] != (missionClaim{1, 0}) {
		t.Errorf("mission claims = %v, want [{1 0}]", client.missionClaims)
	}
	if result.MissionClaims != 1 {
		t.Errorf("MissionClaims = %d, want 1", result.MissionClaims)
	}
}

func TestClaimMissionInheritsReleasedBatchCycle(t *testing.T) {
	client := &fakeRewardClient{
		missions: []domain.Mission{
			{ID: 1, ClaimEnabled: true}, // no own cycle id
		},
		cycle:       domain.RewardCycle{ID: 7, Released: true},
		markClaimed: true,
	}
	svc := newRewardService(client, nil, 1)

	svc.Claim(context.Background(), testScope())
	if len(client.missionClaims) != 1 || client.missionClaims[0] != (missionClaim{1, 7}) {
		t.Errorf("mission claims = %v, want [{1 7}]", client.missionClaims)
	}
}

func TestClaimFailuresNeverAbort(t *testing.T) {
	client := &fakeRewardClient{
		missions: []domain.Mission{
			{ID: 1, ClaimEnabled: true, CycleID: 7},
			{ID: 2, ClaimEnabled: true, CycleID: 7},
		},
		cycle:        domain.RewardCycle{ID: 7, Released: true},
		failCycle:    errors.New("not ready"),
		failMissions: map[int64]error{1: errors.New("boom")},
		markClaimed:  true,
	}
	svc := newRewardService(client, nil, 1)

	result := svc.Claim(context.Background(), testScope())
	if result.MissionClaims != 1 {
		t.Errorf("MissionClaims = %d, want 1 despite earlier failures", result.MissionClaims)
	}
	if result.CycleClaims != 0 {
		t.Errorf("CycleClaims = %d, want 0", result.CycleClaims)
	}
	if result.Failures != 2 {
		t.Errorf("Failures = %d, want 2", result.Failures)
	}
}

func TestClaimCycleRetriedNextRoundAfterFailure(t *testing.T) {
	client := &fakeRewardClient{
		missions: []domain.Mission{
			{ID: 1, Claimed: true, ClaimEnabled: true, CycleID: 7},
		},
		cycle:     domain.RewardCycle{ID: 7, Released: true},
		failCycle: errors.New("not ready"),
	}
	svc := newRewardService(client, nil, 3)

	svc.Claim(context.Background(), testScope())
	if len(client.cycleClaims) != 3 {
		t.Errorf("cycle claim attempts = %d, want 3 (one per round until success)", len(client.cycleClaims))
	}
}

func TestClaimNoCycleAttemptWithoutMissions(t *testing.T) {
	client := &fakeRewardClient{
		cycle: domain.RewardCycle{ID: 7, Released: true},
	}
	svc := newRewardService(client, nil, 2)

	result := svc.Claim(context.Background(), testScope())
	if len(client.cycleClaims) != 0 {
		t.Errorf("cycle claims = %v, want none for an empty batch", client.cycleClaims)
	}
	if result.CycleClaims != 0 || result.Failures != 0 {
		t.Errorf("result = %+v, want zero", result)
	}
}
