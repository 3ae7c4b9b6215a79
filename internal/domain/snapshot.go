package domain

// AuthSnapshot is the account's authentication/position snapshot: which pool
// and spread-range positions the platform already holds for this session.
// It seeds the per-run position tracker.
type AuthSnapshot struct {
	WalletAddress  string
	PoolBetIDs     []int64
	SpreadRangeIDs []int64
}
