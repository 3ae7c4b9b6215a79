package domain

import "time"

// PositionKind distinguishes the two disjoint identifier spaces the tracker
// dedups against.
type PositionKind string

const (
	KindPool        PositionKind = "pool"
	KindSpreadRange PositionKind = "spread_range"
)

// Bet is one submitted wager, successful or not, as recorded in the journal.
type Bet struct {
	ID       string
	RunID    string
	Account  string
	Platform string
	Kind     PositionKind
	TargetID int64
	Side     Side // pools only, empty for spread ranges
	Amount   int
	Odds     float64 // spread ranges only
	Success  bool
	PlacedAt time.Time
}

// SpreadAllocation is the allocator's advisory stake for one range. The
// submission path still filters allocations through the position tracker.
type SpreadAllocation struct {
	RangeID int64
	Amount  int
	Odds    float64
}
