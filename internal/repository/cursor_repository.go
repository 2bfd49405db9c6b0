package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

// CursorRepository stores the timestamp of the last completed expiry scan
// in a single-row table.
type CursorRepository struct {
	db *sqlx.DB
}

// NewCursorRepository creates a new cursor repository.
func NewCursorRepository(db *sqlx.DB) *CursorRepository {
	return &CursorRepository{db: db}
}

// GetCursor returns the stored timestamp, or nil when no scan has completed yet.
func (r *CursorRepository) GetCursor(ctx context.Context) (*int64, error) {
	var ts int64
	query := `SELECT last_timestamp FROM notification_cursor WHERE id = 1`
	err := r.db.GetContext(ctx, &ts, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ts, nil
}

// SetCursor overwrites the stored timestamp.
func (r *CursorRepository) SetCursor(ctx context.Context, timestamp int64) error {
	query := `
		INSERT INTO notification_cursor (id, last_timestamp, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE
		SET last_timestamp = EXCLUDED.last_timestamp, updated_at = NOW()`
	_, err := r.db.ExecContext(ctx, query, timestamp)
	return err
}
