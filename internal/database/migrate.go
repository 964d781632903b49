package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// migrations are applied in order at startup. Statements are idempotent so a
// restart against an existing database is a no-op.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS resources (
		id            TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		description   TEXT NOT NULL DEFAULT '',
		category      TEXT NOT NULL,
		priority      TEXT NOT NULL,
		city          TEXT NOT NULL,
		total         INTEGER NOT NULL CHECK (total >= 0),
		available     INTEGER NOT NULL CHECK (available >= 0 AND available <= total),
		min_threshold INTEGER NOT NULL DEFAULT 5 CHECK (min_threshold >= 0),
		created_by    TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL,
		last_updated  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_resources_city ON resources (city)`,
	`CREATE TABLE IF NOT EXISTS requests (
		id               TEXT PRIMARY KEY,
		resource_id      TEXT NOT NULL,
		resource_name    TEXT NOT NULL DEFAULT '',
		quantity         INTEGER NOT NULL CHECK (quantity > 0),
		user_id          TEXT NOT NULL,
		user_name        TEXT NOT NULL DEFAULT '',
		contact_number   TEXT NOT NULL DEFAULT '',
		city             TEXT NOT NULL,
		status           TEXT NOT NULL,
		priority         TEXT NOT NULL,
		urgency_note     TEXT NOT NULL DEFAULT '',
		delivery_address TEXT NOT NULL DEFAULT '',
		created_at       TIMESTAMPTZ NOT NULL,
		processed_at     TIMESTAMPTZ,
		processed_by     TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_requests_city_status ON requests (city, status)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id          TEXT PRIMARY KEY,
		user_id     TEXT NOT NULL,
		title       TEXT NOT NULL,
		message     TEXT NOT NULL,
		type        TEXT NOT NULL,
		resource_id TEXT NOT NULL,
		request_id  TEXT NOT NULL,
		city        TEXT NOT NULL,
		created_at  TIMESTAMPTZ NOT NULL,
		read        BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user ON notifications (user_id)`,
}

// Migrate creates the schema if it does not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range migrations {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return nil
}
