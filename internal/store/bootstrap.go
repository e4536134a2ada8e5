package store

import (
	"context"
	"database/sql"
	"log"
)

// Bootstrap applies the schema this service reads from. All statements are
// idempotent so repeated startups are safe. The service itself never writes
// to these tables; they are populated by the sync jobs that mirror the
// operational system and the sheet.
func Bootstrap(ctx context.Context, db *sql.DB) error {
	log.Println("ensuring database schema...")

	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			relation TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT '',
			institute_id TEXT NOT NULL DEFAULT '',
			name TEXT,
			phone_number TEXT,
			email TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_users_relation_phone ON users (relation, phone_number)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			class_id TEXT NOT NULL DEFAULT '',
			user_id TEXT NOT NULL DEFAULT '',
			meeting_status TEXT NOT NULL DEFAULT '',
			scheduled_start_time TIMESTAMPTZ,
			meeting_link TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user_start ON sessions (user_id, meeting_status, scheduled_start_time)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_class_start ON sessions (class_id, meeting_status, scheduled_start_time)`,
		`CREATE TABLE IF NOT EXISTS sheet_rows (
			id TEXT PRIMARY KEY,
			collection TEXT NOT NULL,
			airtable_id TEXT,
			fields JSONB NOT NULL DEFAULT '{}'::jsonb,
			created_time TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sheet_rows_collection_created ON sheet_rows (collection, created_time DESC)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}

	log.Println("database schema ready")
	return nil
}
