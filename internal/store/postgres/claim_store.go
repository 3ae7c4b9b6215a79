package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/kizzybot/internal/domain"
)

// ClaimStore implements domain.ClaimStore using PostgreSQL.
type ClaimStore struct {
	pool *pgxpool.Pool
}

// NewClaimStore creates a ClaimStore backed by the given connection pool.
func NewClaimStore(pool *pgxpool.Pool) *ClaimStore {
	return &ClaimStore{pool: pool}
}

// Insert records one claim attempt in the journal.
func (s *ClaimStore) Insert(ctx context.Context, claim domain.Claim) error {
	const query = `
		INSERT INTO claims (
			id, run_id, account, kind, mission_id, cycle_id, success, claimed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := s.pool.Exec(ctx, query,
		claim.ID, claim.RunID, claim.Account, string(claim.Kind),
		claim.MissionID, claim.CycleID, claim.Success, claim.ClaimedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert claim %s: %w", claim.ID, err)
	}
	return nil
}

// ListByAccount returns the most recent claim attempts for an account,
// newest first.
func (s *ClaimStore) ListByAccount(ctx context.Context, account string, limit int) ([]domain.Claim, error) {
	const query = `
		SELECT id, run_id, account, kind, mission_id, cycle_id, success, claimed_at
		FROM claims
		WHERE account = $1
		ORDER BY claimed_at DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, account, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list claims for %s: %w", account, err)
	}
	defer rows.Close()

	var claims []domain.Claim
	for rows.Next() {
		var c domain.Claim
		var kind string
		if err := rows.Scan(
			&c.ID, &c.RunID, &c.Account, &kind,
			&c.MissionID, &c.CycleID, &c.Success, &c.ClaimedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan claim: %w", err)
		}
		c.Kind = domain.ClaimKind(kind)
		claims = append(claims, c)
	}
	return claims, rows.Err()
}
