package domain

import "time"

// RunReport summarises a single account run for archiving and notification.
type RunReport struct {
	RunID         string    `json:"run_id"`
	Account       string    `json:"account"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	PoolBets      int       `json:"pool_bets"`
	SpreadBets    int       `json:"spread_bets"`
	BetFailures   int       `json:"bet_failures"`
	CycleClaims   int       `json:"cycle_claims"`
	MissionClaims int       `json:"mission_claims"`
	ClaimFailures int       `json:"claim_failures"`
	Error         string    `json:"error,omitempty"`
}
