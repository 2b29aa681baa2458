package repository

import (
	"context"
	"fmt"
)

// links.short_code carries the UNIQUE constraint that settles allocation races.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS links (
    id                  UUID        PRIMARY KEY DEFAULT gen_random_uuid(),
    short_code          TEXT        NOT NULL,
    original_url        TEXT        NOT NULL,
    user_id             TEXT        NOT NULL,
    external_account_id TEXT,
    clicks              BIGINT      NOT NULL DEFAULT 0 CHECK (clicks >= 0),
    created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    last_clicked_at     TIMESTAMPTZ,
    CONSTRAINT links_short_code_key UNIQUE (short_code)
);

CREATE INDEX IF NOT EXISTS idx_links_user_created ON links (user_id, created_at DESC);
`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS links (
    id                  TEXT      PRIMARY KEY,
    short_code          TEXT      NOT NULL UNIQUE,
    original_url        TEXT      NOT NULL,
    user_id             TEXT      NOT NULL,
    external_account_id TEXT,
    clicks              INTEGER   NOT NULL DEFAULT 0 CHECK (clicks >= 0),
    created_at          TIMESTAMP NOT NULL,
    last_clicked_at     TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_links_user_created ON links (user_id, created_at DESC);
`

// MigratePostgres applies the links schema. Safe to run repeatedly.
func MigratePostgres(ctx context.Context, db *PostgresDB) error {
	if _, err := db.Pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to apply postgres schema: %w", err)
	}
	return nil
}

// MigrateSQLite applies the links schema. Safe to run repeatedly.
func MigrateSQLite(ctx context.Context, db *SQLiteDB) error {
	if _, err := db.DB.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to apply sqlite schema: %w", err)
	}
	return nil
}
