package transcript

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Compile-time interface check.
var _ Store = (*PostgresStore)(nil)

// transcriptsDDL creates the transcripts table. Idempotent.
const transcriptsDDL = `
CREATE TABLE IF NOT EXISTS voice_transcripts (
    id          BIGSERIAL PRIMARY KEY,
    guild_id    TEXT        NOT NULL,
    user_id     TEXT        NOT NULL,
    text        TEXT        NOT NULL,
    duration_ms BIGINT      NOT NULL,
    spoken_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_voice_transcripts_guild_spoken
    ON voice_transcripts (guild_id, spoken_at DESC);
`

// PostgresStore persists transcripts in PostgreSQL. It shares the
// application's connection pool; the caller owns the pool's lifecycle.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore runs the idempotent schema migration and returns a store
// backed by pool.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	if _, err := pool.Exec(ctx, transcriptsDDL); err != nil {
		return nil, fmt.Errorf("transcript: migrate: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// Save persists one entry.
func (s *PostgresStore) Save(ctx context.Context, e Entry) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO voice_transcripts (guild_id, user_id, text, duration_ms, spoken_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		e.GuildID, e.UserID, e.Text, e.Duration.Milliseconds(), e.SpokenAt,
	)
	if err != nil {
		return fmt.Errorf("transcript: save: %w", err)
	}
	return nil
}

// Recent returns up to limit entries for the guild, newest first.
func (s *PostgresStore) Recent(ctx context.Context, guildID string, limit int) ([]Entry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, guild_id, user_id, text, duration_ms, spoken_at
		 FROM voice_transcripts
		 WHERE guild_id = $1
		 ORDER BY spoken_at DESC
		 LIMIT $2`,
		guildID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("transcript: query recent: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e  Entry
			ms int64
		)
		if err := rows.Scan(&e.ID, &e.GuildID, &e.UserID, &e.Text, &ms, &e.SpokenAt); err != nil {
			return nil, fmt.Errorf("transcript: scan: %w", err)
		}
		e.Duration = time.Duration(ms) * time.Millisecond
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("transcript: iterate: %w", err)
	}
	return entries, nil
}
