package counter

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore keeps the counter in a single-row Postgres table.
//
// Writes go through a conditional UPDATE, so two overlapping runs cannot
// both advance the counter from the same read: the loser gets ErrConflict
// and aborts. This upgrades the historical "at most one run at a time"
// assumption into an enforced invariant.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates the counter table if needed and returns a store
// bound to the pool. The table holds one row per key; this system only
// ever uses counter.Key.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS invoice_counter (
			key   text PRIMARY KEY,
			value bigint NOT NULL
		)`)
	if err != nil {
		return nil, fmt.Errorf("failed to create counter table: %w", err)
	}

	return &PostgresStore{pool: pool}, nil
}

// Get reads the current counter value.
func (s *PostgresStore) Get(ctx context.Context) (int64, bool, error) {
	var value int64
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM invoice_counter WHERE key = $1`, Key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("failed to read counter: %w", err)
	}

	return value, true, nil
}

// Put persists the counter value unconditionally.
func (s *PostgresStore) Put(ctx context.Context, value int64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO invoice_counter (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value`,
		Key, value)
	if err != nil {
		return fmt.Errorf("failed to persist counter: %w", err)
	}

	return nil
}

// PutIf persists next only if the stored value still equals prev.
// prev == 0 also matches an absent row (first reservation ever).
func (s *PostgresStore) PutIf(ctx context.Context, prev, next int64) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE invoice_counter SET value = $1 WHERE key = $2 AND value = $3`,
		next, Key, prev)
	if err != nil {
		return fmt.Errorf("failed to persist counter: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	if prev == 0 {
		tag, err = s.pool.Exec(ctx, `
			INSERT INTO invoice_counter (key, value) VALUES ($1, $2)
			ON CONFLICT (key) DO NOTHING`,
			Key, next)
		if err != nil {
			return fmt.Errorf("failed to initialize counter: %w", err)
		}
		if tag.RowsAffected() == 1 {
			return nil
		}
	}

	return ErrConflict
}
