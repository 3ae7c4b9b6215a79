// Package strategy holds the wager-sizing rules: how much to stake on each
// spread range and which side of a pool to back.
package strategy

import (
	"math"

	"github.com/alanyoungcy/kizzybot/internal/domain"
)

// Allocator sizes spread wagers so every range pays out roughly the same
// amount. It is stateless; one instance serves all accounts.
type Allocator struct {
	baseStake int
	maxStake  int
}

// NewAllocator creates an Allocator. baseStake anchors the target payout;
// maxStake is the per-range stake ceiling.
func NewAllocator(baseStake, maxStake int) *Allocator {
	return &Allocator{baseStake: baseStake, maxStake: maxStake}
}

// discountedIndexes are positions in the allocation order whose stake is
// reduced, spreading total exposure slightly away from the middle ranges.
var discountedIndexes = map[int]bool{3: true, 5: true}

// Allocate computes a stake per spread range. Ranges with zero or negative
// odds are excluded. The target payout is baseStake times the highest odds
// among the included ranges, so the cheapest range gets the base stake and
// every other range gets the stake that matches its payout to the target,
// clamped to [1, maxStake]. Returns the allocations in range order and the
// total staked.
func (a *Allocator) Allocate(ranges []domain.SpreadRange) ([]domain.SpreadAllocation, int) {
	maxOdds := 0.0
	for _, r := range ranges {
		if r.Odds > maxOdds {
			maxOdds = r.Odds
		}
	}
	if maxOdds <= 0 {
		return nil, 0
	}

	targetPayout := float64(a.baseStake) * maxOdds

	allocs := make([]domain.SpreadAllocation, 0, len(ranges))
	total := 0
	for i, r := range ranges {
		if r.Odds <= 0 {
			continue
		}

		stake := int(math.Ceil(targetPayout / r.Odds))
		if stake > a.maxStake {
			stake = a.maxStake
		}
		// The discount keys off the range's position in the market, so a
		// skipped zero-odds range still advances the index.
		if discountedIndexes[i] {
			stake -= 5
		}
		if stake < 1 {
			stake = 1
		}

		allocs = append(allocs, domain.SpreadAllocation{
			RangeID: r.ID,
			Amount:  stake,
			Odds:    r.Odds,
		})
		total += stake
	}
	return allocs, total
}

// PickSide chooses which side of a pool to back: long when long volume
// strictly exceeds short volume, short otherwise. Ties go short.
func PickSide(p domain.Pool) domain.Side {
	if p.Longs > p.Shorts {
		return domain.SideLong
	}
	return domain.SideShort
}
