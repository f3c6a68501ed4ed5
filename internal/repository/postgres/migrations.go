package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

const orderNumberSequence = "order_number_seq"

// RunMigrations creates the schema if it does not exist yet.
func RunMigrations(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE SEQUENCE IF NOT EXISTS ` + orderNumberSequence + ` START 1`,

		`CREATE TABLE IF NOT EXISTS orders (
			id UUID PRIMARY KEY,
			order_number BIGINT NOT NULL UNIQUE,
			display_order_id TEXT UNIQUE,
			user_id BIGINT NOT NULL DEFAULT 0,
			user_ip TEXT NOT NULL DEFAULT '',
			currency TEXT NOT NULL,
			amount NUMERIC(18, 2) NOT NULL,
			txn1 TEXT NOT NULL DEFAULT '',
			txn2 TEXT NOT NULL DEFAULT '',
			txn_id TEXT NOT NULL DEFAULT '',
			session_id TEXT NOT NULL DEFAULT '',
			customer_first_name TEXT NOT NULL DEFAULT '',
			customer_last_name TEXT NOT NULL DEFAULT '',
			customer_email TEXT NOT NULL DEFAULT '',
			customer_phone TEXT NOT NULL DEFAULT '',
			device JSONB,
			status TEXT NOT NULL,
			payment_response_code TEXT,
			payment_response_msg TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,

		`CREATE INDEX IF NOT EXISTS orders_session_id_idx ON orders (session_id)`,
	}

	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}
