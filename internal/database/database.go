package database

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect creates the connection pool and verifies the database is reachable
func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("✅ Database connected successfully using PGX")
	return pool, nil
}

// schema is applied on startup. The UNIQUE pair_key on chats is load-bearing:
// it is what keeps two racing chat creations from producing two rows for
// the same participant pair.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		full_name     TEXT NOT NULL,
		number        TEXT NOT NULL,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		profile_pic   TEXT,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS contacts (
		user_id    UUID NOT NULL REFERENCES users(id),
		contact_id UUID NOT NULL REFERENCES users(id),
		added_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (user_id, contact_id)
	)`,
	`CREATE TABLE IF NOT EXISTS contact_requests (
		id         UUID PRIMARY KEY,
		from_id    UUID NOT NULL REFERENCES users(id),
		to_id      UUID NOT NULL REFERENCES users(id),
		status     TEXT NOT NULL DEFAULT 'pending',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS chats (
		id            UUID PRIMARY KEY,
		user_a        UUID NOT NULL REFERENCES users(id),
		user_b        UUID NOT NULL REFERENCES users(id),
		pair_key      TEXT NOT NULL UNIQUE,
		last_activity TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS messages (
		seq        BIGSERIAL,
		id         UUID PRIMARY KEY,
		chat_id    UUID NOT NULL REFERENCES chats(id),
		sender_id  UUID NOT NULL REFERENCES users(id),
		content    TEXT,
		image_url  TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CHECK (content IS NOT NULL OR image_url IS NOT NULL)
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_requests_active_pair
		ON contact_requests (from_id, to_id) WHERE status != 'declined'`,
	`CREATE INDEX IF NOT EXISTS idx_requests_from ON contact_requests (from_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_requests_to ON contact_requests (to_id, created_at DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_chat ON messages (chat_id, seq)`,
}

// Migrate creates the tables if they do not exist yet
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
