package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

// Open abre una conexión pool a Postgres usando pgx (database/sql).
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}

	// el journal escribe poco; el pool chico alcanza
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxIdleTime(5 * time.Minute)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS gate_submissions (
		id              TEXT PRIMARY KEY,
		request_id      TEXT NOT NULL,
		approval_id     TEXT NOT NULL,
		visitor_id      TEXT NOT NULL,
		visitor_name    TEXT NOT NULL,
		apt_number      TEXT NOT NULL,
		face_detected   BOOLEAN NOT NULL,
		photo_persisted BOOLEAN NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS gate_submissions_created_at_idx ON gate_submissions (created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS gate_decisions (
		id          TEXT PRIMARY KEY,
		approval_id TEXT NOT NULL,
		resident_id TEXT NOT NULL,
		action      TEXT NOT NULL,
		valid_until TIMESTAMPTZ NULL,
		reason      TEXT NOT NULL DEFAULT '',
		created_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS gate_decisions_approval_idx ON gate_decisions (approval_id, created_at)`,
}

// EnsureSchema crea las tablas del journal si no existen. Es idempotente.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema (stmt %d): %w", i, err)
		}
	}
	return nil
}
