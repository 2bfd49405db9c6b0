package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/nftpawnshop/backend/internal/model"
)

var ErrNotificationRequestNotFound = errors.New("notification request not found")

// NotificationRequestRepository persists per-address delivery subscriptions.
type NotificationRequestRepository struct {
	db *sqlx.DB
}

// NewNotificationRequestRepository creates a new notification request repository.
func NewNotificationRequestRepository(db *sqlx.DB) *NotificationRequestRepository {
	return &NotificationRequestRepository{db: db}
}

// Create stores req, assigning its ID and CreatedAt. Subscribing the same
// destination twice keeps the existing row.
func (r *NotificationRequestRepository) Create(ctx context.Context, req *model.NotificationRequest) error {
	query := `
		INSERT INTO notification_requests (id, ethereum_address, delivery_method, delivery_destination, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (ethereum_address, delivery_method, delivery_destination)
		DO UPDATE SET delivery_destination = EXCLUDED.delivery_destination
		RETURNING id, created_at`

	req.ID = uuid.New()
	return r.db.QueryRowxContext(ctx, query,
		req.ID, req.EthereumAddress, req.DeliveryMethod, req.DeliveryDestination,
	).Scan(&req.ID, &req.CreatedAt)
}

// ListByAddress returns the requests for a lowercase address, oldest first.
func (r *NotificationRequestRepository) ListByAddress(ctx context.Context, address string) ([]model.NotificationRequest, error) {
	var requests []model.NotificationRequest
	query := `
		SELECT id, ethereum_address, delivery_method, delivery_destination, created_at
		FROM notification_requests
		WHERE ethereum_address = $1
		ORDER BY created_at ASC`
	if err := r.db.SelectContext(ctx, &requests, query, address); err != nil {
		return nil, err
	}
	return requests, nil
}

// Delete removes a request owned by address.
func (r *NotificationRequestRepository) Delete(ctx context.Context, id uuid.UUID, address string) error {
	query := `DELETE FROM notification_requests WHERE id = $1 AND ethereum_address = $2`
	result, err := r.db.ExecContext(ctx, query, id, address)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotificationRequestNotFound
	}
	return nil
}
