//go:build integration
// +build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/nftpawnshop/backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupPostgres starts a PostgreSQL container and applies Schema.
func setupPostgres(t *testing.T) *sqlx.DB {
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = pgContainer.Terminate(context.Background())
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := sqlx.Connect("postgres", connStr)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, Migrate(ctx, db))
	// Applying twice must be harmless.
	require.NoError(t, Migrate(ctx, db))
	return db
}

func TestPostgres_CursorRoundTrip(t *testing.T) {
	db := setupPostgres(t)
	repo := NewCursorRepository(db)
	ctx := context.Background()

	cursor, err := repo.GetCursor(ctx)
	require.NoError(t, err)
	assert.Nil(t, cursor)

	require.NoError(t, repo.SetCursor(ctx, 1647357808))
	require.NoError(t, repo.SetCursor(ctx, 1647361408))

	cursor, err = repo.GetCursor(ctx)
	require.NoError(t, err)
	require.NotNil(t, cursor)
	assert.Equal(t, int64(1647361408), *cursor)

	var count int
	require.NoError(t, db.GetContext(ctx, &count, `SELECT COUNT(*) FROM notification_cursor`))
	assert.Equal(t, 1, count)
}

func TestPostgres_NotificationRequests(t *testing.T) {
	db := setupPostgres(t)
	repo := NewNotificationRequestRepository(db)
	ctx := context.Background()

	req := &model.NotificationRequest{
		EthereumAddress:     testAddress,
		DeliveryMethod:      model.DeliveryMethodEmail,
		DeliveryDestination: "borrower@example.com",
	}
	require.NoError(t, repo.Create(ctx, req))
	assert.NotEqual(t, uuid.Nil, req.ID)
	assert.False(t, req.CreatedAt.IsZero())

	dup := &model.NotificationRequest{
		EthereumAddress:     testAddress,
		DeliveryMethod:      model.DeliveryMethodEmail,
		DeliveryDestination: "borrower@example.com",
	}
	require.NoError(t, repo.Create(ctx, dup))
	assert.Equal(t, req.ID, dup.ID)

	requests, err := repo.ListByAddress(ctx, testAddress)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, "borrower@example.com", requests[0].DeliveryDestination)

	err = repo.Delete(ctx, req.ID, "0x10359616ab170c1bd6c478a40c6715a49ba25efc")
	assert.ErrorIs(t, err, ErrNotificationRequestNotFound)

	require.NoError(t, repo.Delete(ctx, req.ID, testAddress))

	requests, err = repo.ListByAddress(ctx, testAddress)
	require.NoError(t, err)
	assert.Empty(t, requests)
}
