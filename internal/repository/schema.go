package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// Schema creates the tables used by the notifier. Statements are idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS notification_cursor (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    last_timestamp BIGINT NOT NULL,
    updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS notification_requests (
    id UUID PRIMARY KEY,
    ethereum_address VARCHAR(42) NOT NULL,
    delivery_method VARCHAR(32) NOT NULL,
    delivery_destination VARCHAR(320) NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
    UNIQUE (ethereum_address, delivery_method, delivery_destination)
);

CREATE INDEX IF NOT EXISTS idx_notification_requests_address
    ON notification_requests (ethereum_address);
`

// Migrate applies Schema.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
