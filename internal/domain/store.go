package domain

import "context"

// BetStore persists the wager journal.
type BetStore interface {
	Insert(ctx context.Context, bet Bet) error
	ListByAccount(ctx context.Context, account string, limit int) ([]Bet, error)
}

// ClaimStore persists the reward-claim journal.
type ClaimStore interface {
	Insert(ctx context.Context, claim Claim) error
	ListByAccount(ctx context.Context, account string, limit int) ([]Claim, error)
}

// PositionCache carries confirmed position identifiers across runs, so a
// restarted bot does not re-wager ids it already confirmed but which the
// platform snapshot has not yet caught up with.
type PositionCache interface {
	Seed(ctx context.Context, account string, kind PositionKind) ([]int64, error)
	Add(ctx context.Context, account string, kind PositionKind, id int64) error
}

// ReportArchiver stores finished run reports.
type ReportArchiver interface {
	Archive(ctx context.Context, report RunReport) error
}
