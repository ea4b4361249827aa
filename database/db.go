package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq"
)

var DB *sql.DB

// InitDB opens Postgres and creates the share table. An empty url leaves DB
// nil and sharing disabled.
func InitDB(ctx context.Context, url string) error {
	if url == "" {
		log.Println("[DB] ⚠️ DB_URL not set, sharing disabled")
		return nil
	}

	db, err := sql.Open("postgres", url)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("ping database: %w", err)
	}
	log.Println("[DB] ✓ Connected to PostgreSQL")

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return err
	}
	DB = db
	return nil
}

// Migrate creates the tables the viewer needs.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS shared_reports (
			id         TEXT PRIMARY KEY,
			kind       TEXT NOT NULL,
			payload    JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expires_at TIMESTAMPTZ NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("create shared_reports: %w", err)
	}
	_, err = db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS idx_shared_reports_expires ON shared_reports (expires_at)`)
	if err != nil {
		return fmt.Errorf("create shared_reports index: %w", err)
	}
	return nil
}
