package persistence

import (
	"context"
	"errors"
	"testing"

	billingapp "github.com/freelance/backend/internal/application/billing"
	"github.com/freelance/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormTransactionScope_Execute(t *testing.T) {
	db := setupBillingTestDB(t)
	scope := NewGormTransactionScope(db)
	quotes := NewGormQuoteRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	t.Run("commits every repository write", func(t *testing.T) {
		quote := buildQuote(t, userID, "QUO-202410-001", lineItem("A", "1", "10"))
		err := scope.Execute(ctx, func(repos billingapp.TransactionalRepositories) error {
			seq, err := repos.SequenceRepo().Next(ctx, "QUO", "202410")
			if err != nil {
				return err
			}
			assert.Equal(t, int64(1), seq)
			return repos.QuoteRepo().Save(ctx, quote)
		})
		require.NoError(t, err)

		_, err = quotes.FindByIDForUser(ctx, userID, quote.ID)
		assert.NoError(t, err)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		quote := buildQuote(t, userID, "QUO-202410-002", lineItem("A", "1", "10"))
		errBoom := errors.New("boom")
		err := scope.Execute(ctx, func(repos billingapp.TransactionalRepositories) error {
			if _, err := repos.SequenceRepo().Next(ctx, "QUO", "202410"); err != nil {
				return err
			}
			if err := repos.QuoteRepo().Save(ctx, quote); err != nil {
				return err
			}
			return errBoom
		})
		require.ErrorIs(t, err, errBoom)

		_, err = quotes.FindByIDForUser(ctx, userID, quote.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)

		seq, err := NewGormNumberSequenceRepository(db).Next(ctx, "QUO", "202410")
		require.NoError(t, err)
		assert.Equal(t, int64(2), seq)
	})
}
