package domain

import "time"

// Side is the outcome of a binary parimutuel pool.
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

// Pool represents a binary-outcome market instance on a platform. Pools are
// fetched fresh each run and never persisted.
type Pool struct {
	ID     int64
	Title  string
	Longs  float64
	Shorts float64
}

// SpreadRange is one discrete outcome bucket within a spread. Odds of zero
// mean the range is unusable and must be excluded from allocation.
type SpreadRange struct {
	ID   int64
	Odds float64
}

// Spread is a multi-outcome market composed of ranges with a closing
// deadline. ClosesAt is the zero time when the platform sent no deadline or
// one that could not be parsed.
type Spread struct {
	ID       int64
	Title    string
	ClosesAt time.Time
	Ranges   []SpreadRange
}

// Inert reports whether the spread must be skipped entirely: no ranges, or a
// missing/unparseable/passed closing deadline.
func (s Spread) Inert(now time.Time) bool {
	if len(s.Ranges) == 0 {
		return true
	}
	if s.ClosesAt.IsZero() {
		return true
	}
	return !s.ClosesAt.After(now)
}
