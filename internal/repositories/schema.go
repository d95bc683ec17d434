package repositories

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL DEFAULT '',
		email         TEXT NOT NULL DEFAULT '',
		pic           TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL DEFAULT '',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS chats (
		id                TEXT PRIMARY KEY,
		chat_name         TEXT NOT NULL,
		is_group_chat     BOOLEAN NOT NULL DEFAULT FALSE,
		users             TEXT[] NOT NULL DEFAULT '{}',
		group_admin       TEXT,
		latest_message_id TEXT,
		direct_key        TEXT UNIQUE,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS chats_users_gin ON chats USING GIN (users)`,
	`CREATE INDEX IF NOT EXISTS chats_updated_at_idx ON chats (updated_at DESC)`,

	`CREATE TABLE IF NOT EXISTS messages (
		id         TEXT PRIMARY KEY,
		seq        BIGSERIAL,
		sender_id  TEXT NOT NULL,
		chat_id    TEXT NOT NULL REFERENCES chats(id),
		content    TEXT NOT NULL CHECK (content <> ''),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS messages_chat_idx ON messages (chat_id, created_at, seq)`,
}

// EnsureSchema creates the tables and indexes if they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for _, q := range schema {
		if _, err := db.ExecContext(ctx, q); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
