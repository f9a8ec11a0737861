package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/freelance/backend/internal/domain/activity"
	"github.com/freelance/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormActivityLogRepository(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewGormActivityLogRepository(db)
	ctx := context.Background()
	userID := uuid.New()
	invoiceID := uuid.New()

	for i, action := range []string{"invoice_created", "invoice_sent", "payment_added"} {
		require.NoError(t, repo.Save(ctx, &activity.Log{
			ID:          uuid.New(),
			UserID:      userID,
			Action:      action,
			Entity:      activity.Invoice(invoiceID),
			Description: action,
			IPAddress:   "198.51.100.4",
			CreatedAt:   testNow.Add(time.Duration(i) * time.Minute),
		}))
	}
	// A row written by a newer release with an entity type this build does not know
	require.NoError(t, db.Create(&models.ActivityLogModel{
		ID:         uuid.New(),
		UserID:     userID,
		Action:     "contract_signed",
		EntityType: "contract",
		EntityID:   uuid.New(),
		CreatedAt:  testNow.Add(time.Hour),
	}).Error)

	logs, err := repo.FindRecentForUser(ctx, userID, 10)

	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "payment_added", logs[0].Action)
	assert.Equal(t, activity.EntityInvoice, logs[0].Entity.Type())
	assert.Equal(t, invoiceID, logs[0].Entity.EntityID())

	limited, err := repo.FindRecentForUser(ctx, userID, 2)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := repo.FindRecentForUser(ctx, uuid.New(), 10)
	require.NoError(t, err)
	assert.Empty(t, none)
}
