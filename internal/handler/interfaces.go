package handler

import (
	"context"

	"github.com/google/uuid"
	"github.com/nftpawnshop/backend/internal/model"
	"github.com/nftpawnshop/backend/internal/service"
)

// EventServiceInterface for handler testing
type EventServiceInterface interface {
	HandleEvent(ctx context.Context, ev model.Event, now int64) (*service.DeliveryReport, error)
}

// NotificationRequestServiceInterface for handler testing
type NotificationRequestServiceInterface interface {
	Subscribe(ctx context.Context, address, email string) (*model.NotificationRequest, error)
	Unsubscribe(ctx context.Context, address string, id uuid.UUID) error
	ListRequests(ctx context.Context, address string) ([]model.NotificationRequest, error)
}

// ScanTriggerInterface for handler testing
type ScanTriggerInterface interface {
	RunNow()
}
