package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/kizzybot/internal/domain"
)

// BetStore implements domain.BetStore using PostgreSQL.
type BetStore struct {
	pool *pgxpool.Pool
}

// NewBetStore creates a BetStore backed by the given connection pool.
func NewBetStore(pool *pgxpool.Pool) *BetStore {
	return &BetStore{pool: pool}
}

// Insert records one submitted wager in the journal.
func (s *BetStore) Insert(ctx context.Context, bet domain.Bet) error {
	const query = `
		INSERT INTO bets (
			id, run_id, account, platform, kind, target_id,
			side, amount, odds, success, placed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := s.pool.Exec(ctx, query,
		bet.ID, bet.RunID, bet.Account, bet.Platform, string(bet.Kind), bet.TargetID,
		string(bet.Side), bet.Amount, bet.Odds, bet.Success, bet.PlacedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert bet %s: %w", bet.ID, err)
	}
	return nil
}

// ListByAccount returns the most recent wagers for an account, newest first.
func (s *BetStore) ListByAccount(ctx context.Context, account string, limit int) ([]domain.Bet, error) {
	const query = `
		SELECT id, run_id, account, platform, kind, target_id,
		       side, amount, odds, success, placed_at
		FROM bets
		WHERE account = $1
		ORDER BY placed_at DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, account, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list bets for %s: %w", account, err)
	}
	defer rows.Close()

	var bets []domain.Bet
	for rows.Next() {
		var b domain.Bet
		var kind, side string
		if err := rows.Scan(
			&b.ID, &b.RunID, &b.Account, &b.Platform, &kind, &b.TargetID,
			&side, &b.Amount, &b.Odds, &b.Success, &b.PlacedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan bet: %w", err)
		}
		b.Kind = domain.PositionKind(kind)
		b.Side = domain.Side(side)
		bets = append(bets, b)
	}
	return bets, rows.Err()
}
