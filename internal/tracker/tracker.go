// Package tracker keeps the per-account ledger of positions already wagered
// on, so a pool or spread range is never bet twice within or across runs.
package tracker

import (
	"sync"

	"github.com/alanyoungcy/kizzybot/internal/domain"
)

type positionKey struct {
	kind domain.PositionKind
	id   int64
}

// Tracker is one account's in-memory position ledger. Safe for concurrent
// use; the runner and the bet service both touch it.
type Tracker struct {
	mu        sync.Mutex
	positions map[positionKey]struct{}
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{positions: make(map[positionKey]struct{})}
}

// Seed records an existing position set, typically from the auth snapshot or
// the cross-run cache. Seeding is additive; repeated seeds never clear
// earlier entries.
func (t *Tracker) Seed(kind domain.PositionKind, ids []int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, id := range ids {
		t.positions[positionKey{kind: kind, id: id}] = struct{}{}
	}
}

// IsWagered reports whether a position of the given kind and id is already
// held.
func (t *Tracker) IsWagered(kind domain.PositionKind, id int64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.positions[positionKey{kind: kind, id: id}]
	return ok
}

// MarkWagered records a position as held. Marking an already held position
// is a no-op.
func (t *Tracker) MarkWagered(kind domain.PositionKind, id int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.positions[positionKey{kind: kind, id: id}] = struct{}{}
}

// Len returns the number of distinct positions held.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.positions)
}
