package settings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// settingsDDL creates the channel settings table. Idempotent.
const settingsDDL = `
CREATE TABLE IF NOT EXISTS channel_settings (
    channel_id       TEXT PRIMARY KEY,
    reasoning_effort TEXT NOT NULL,
    updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// PostgresStore persists channel settings in PostgreSQL. It shares the
// application's connection pool; the caller owns the pool's lifecycle.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore runs the idempotent schema migration and returns a store
// backed by pool.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, settingsDDL); err != nil {
		return nil, fmt.Errorf("settings: migrate: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// ReasoningEffort returns the channel's stored effort, or "" when unset.
func (s *PostgresStore) ReasoningEffort(ctx context.Context, channelID string) (string, error) {
	var effort string
	err := s.pool.QueryRow(ctx,
		`SELECT reasoning_effort FROM channel_settings WHERE channel_id = $1`,
		channelID,
	).Scan(&effort)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("settings: query effort: %w", err)
	}
	return effort, nil
}

// SetReasoningEffort upserts the channel's effort.
func (s *PostgresStore) SetReasoningEffort(ctx context.Context, channelID, effort string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO channel_settings (channel_id, reasoning_effort, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (channel_id)
		 DO UPDATE SET reasoning_effort = EXCLUDED.reasoning_effort, updated_at = now()`,
		channelID, effort,
	)
	if err != nil {
		return fmt.Errorf("settings: set effort: %w", err)
	}
	return nil
}
