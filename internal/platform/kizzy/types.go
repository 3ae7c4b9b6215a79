package kizzy

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/kizzybot/internal/domain"
)

// flexFloat decodes a JSON number or a numeric string. The platform is not
// consistent about which it sends for pool volumes.
type flexFloat float64

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if strings.TrimSpace(s) == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return err
		}
		*f = flexFloat(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = flexFloat(v)
	return nil
}

// flexTime decodes an RFC 3339 string or integer unix seconds. A missing or
// unparseable deadline decodes to the zero time rather than failing the
// whole payload; a spread with no usable deadline is inert, not an error.
type flexTime struct {
	time.Time
}

func (t *flexTime) UnmarshalJSON(b []byte) error {
	t.Time = time.Time{}
	if string(b) == "null" {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return nil
		}
		if parsed, err := time.Parse(time.RFC3339, s); err == nil {
			t.Time = parsed
		}
		return nil
	}
	if secs, err := strconv.ParseInt(string(b), 10, 64); err == nil && secs > 0 {
		t.Time = time.Unix(secs, 0).UTC()
	}
	return nil
}

// apiAuthResponse is the authentication/position snapshot payload.
type apiAuthResponse struct {
	WalletAddress                  string  `json:"walletAddress"`
	PreMarketBetIDs                []int64 `json:"preMarketBetIDs"`
	ActiveSpreadRangesPositionsIDS []int64 `json:"activeSpreadRangesPositionsIDS"`
}

func (a apiAuthResponse) toDomain() domain.AuthSnapshot {
	return domain.AuthSnapshot{
		WalletAddress:  a.WalletAddress,
		PoolBetIDs:     a.PreMarketBetIDs,
		SpreadRangeIDs: a.ActiveSpreadRangesPositionsIDS,
	}
}

type apiPoolsResponse struct {
	PoolsData []apiPool `json:"poolsData"`
}

type apiPool struct {
	ID     int64     `json:"ID"`
	Title  string    `json:"title"`
	Longs  flexFloat `json:"longs"`
	Shorts flexFloat `json:"shorts"`
}

func (p apiPool) toDomain() domain.Pool {
	return domain.Pool{
		ID:     p.ID,
		Title:  p.Title,
		Longs:  float64(p.Longs),
		Shorts: float64(p.Shorts),
	}
}

type apiSpreadsResponse struct {
	SpreadsData []apiSpread `json:"spreadsData"`
}

type apiSpread struct {
	ID           int64            `json:"ID"`
	Title        string           `json:"title"`
	ClosesAt     flexTime         `json:"closesAt"`
	SpreadRanges []apiSpreadRange `json:"spreadRanges"`
}

type apiSpreadRange struct {
	ID   int64   `json:"id"`
	Odds float64 `json:"odds"`
}

func (s apiSpread) toDomain() domain.Spread {
	ranges := make([]domain.SpreadRange, 0, len(s.SpreadRanges))
	for _, r := range s.SpreadRanges {
		ranges = append(ranges, domain.SpreadRange{ID: r.ID, Odds: r.Odds})
	}
	return domain.Spread{
		ID:       s.ID,
		Title:    s.Title,
		ClosesAt: s.ClosesAt.Time,
		Ranges:   ranges,
	}
}

// apiPoolBetResponse carries the application-level success indicator for
// pool bets. Spread bets have no such field; their success is inferred from
// a well-formed decode alone. The asymmetry is the platform's, observed in
// production, and is preserved deliberately.
type apiPoolBetResponse struct {
	Data struct {
		Success bool `json:"success"`
	} `json:"data"`
}

// poolBetPayload is the pool wager request body.
type poolBetPayload struct {
	Side             string `json:"side"`
	Amount           int    `json:"amount"`
	ParimutuelPoolID int64  `json:"parimutuelPoolID"`
}

// spreadBetPayload is the spread wager request body (JSON candidate; the
// form-encoded candidates carry the same two fields).
type spreadBetPayload struct {
	SpreadPoolRangeID int64 `json:"spreadPoolRangeID"`
	Amount            int   `json:"amount"`
}

type apiRewardsResponse struct {
	Data struct {
		Missions  []apiMission `json:"missions"`
		CycleData apiCycle     `json:"cycleData"`
	} `json:"data"`
}

type apiMission struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Reward       flexFloat `json:"reward"`
	ClaimEnabled bool      `json:"claimEnabled"`
	Claimed      bool      `json:"claimed"`
	Metrics      struct {
		CycleID int64 `json:"cycleID"`
	} `json:"metrics"`
}

type apiCycle struct {
	ID       int64 `json:"ID"`
	Released bool  `json:"released"`
}

// claimPayload is the claim request body for both cycle and mission claims.
type claimPayload struct {
	Action        string `json:"_action"`
	MissionCredID int64  `json:"missionCredID"`
	CycleID       int64  `json:"cycleID"`
}
