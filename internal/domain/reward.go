package domain

import "time"

// Mission is a claimable reward task tied to a reward cycle. CycleID is the
// mission's own nested cycle id as reported by the platform; zero means the
// mission carries none, and the claim path falls back to the batch cycle.
type Mission struct {
	ID           int64
	Title        string
	Reward       float64
	ClaimEnabled bool
	Claimed      bool
	CycleID      int64
}

// RewardCycle is a time-boxed batch of missions. The platform requires the
// cycle itself to be claimed before its missions become claimable.
type RewardCycle struct {
	ID       int64
	Released bool
}

// ClaimKind distinguishes cycle-level from mission-level claims.
type ClaimKind string

const (
	ClaimCycle   ClaimKind = "cycle"
	ClaimMission ClaimKind = "mission"
)

// Claim is one claim attempt, as recorded in the journal.
type Claim struct {
	ID        string
	RunID     string
	Account   string
	Kind      ClaimKind
	MissionID int64 // zero for cycle claims
	CycleID   int64
	Success   bool
	ClaimedAt time.Time
}
