package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/freelance/backend/internal/domain/billing"
	"github.com/freelance/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func completedPayment(amount string) billing.PaymentInput {
	return billing.PaymentInput{
		PaymentMethod: "bank_transfer",
		Amount:        decimal.RequireFromString(amount),
		PaymentDate:   time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC),
		Status:        billing.PaymentStatusCompleted,
	}
}

func TestGormInvoiceRepository_SaveWithPayments(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	inv := buildInvoice(t, userID, "INV-202410-001", lineItem("Work", "5", "100"))
	require.NoError(t, inv.Send(testNow))
	_, err := inv.RecordPayment(uuid.New(), completedPayment("200"), testNow)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, inv))

	got, err := repo.FindByIDForUser(ctx, userID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.InvoiceStatusPartial, got.Status)
	assert.Equal(t, "500.00", got.TotalAmount.StringFixed(2))
	assert.Equal(t, "200.00", got.AmountPaid.StringFixed(2))
	assert.Equal(t, "300.00", got.BalanceDue.StringFixed(2))
	assert.Equal(t, time.Date(2024, 10, 31, 0, 0, 0, 0, time.UTC), got.DueDate)
	require.Len(t, got.Items, 1)
	require.Len(t, got.Payments, 1)
	assert.Equal(t, "{}", got.Payments[0].Metadata)
	assert.Equal(t, inv.ID, got.Payments[0].InvoiceID)

	t.Run("removing a payment deletes its row", func(t *testing.T) {
		failed := completedPayment("50")
		failed.Status = billing.PaymentStatusFailed
		p, err := got.RecordPayment(uuid.New(), failed, testNow)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, got))

		reloaded, err := repo.FindByIDForUpdate(ctx, userID, inv.ID)
		require.NoError(t, err)
		require.Len(t, reloaded.Payments, 2)

		require.NoError(t, reloaded.RemovePayment(p.ID, testNow))
		require.NoError(t, repo.Save(ctx, reloaded))

		final, err := repo.FindByIDForUser(ctx, userID, inv.ID)
		require.NoError(t, err)
		assert.Len(t, final.Payments, 1)
		assert.Equal(t, "300.00", final.BalanceDue.StringFixed(2))
	})
}

func TestGormInvoiceRepository_DuplicateTransactionID(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	userID := uuid.New()
	txn := "txn_123"

	first := buildInvoice(t, userID, "INV-202410-001", lineItem("Work", "1", "100"))
	second := buildInvoice(t, userID, "INV-202410-002", lineItem("Work", "1", "100"))
	for _, inv := range []*billing.Invoice{first, second} {
		require.NoError(t, inv.Send(testNow))
		input := completedPayment("10")
		input.TransactionID = &txn
		_, err := inv.RecordPayment(uuid.New(), input, testNow)
		require.NoError(t, err)
	}

	require.NoError(t, repo.Save(ctx, first))
	err := repo.Save(ctx, second)

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrConflict)

	// The failed save leaves nothing behind
	_, err = repo.FindByIDForUser(ctx, userID, second.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGormInvoiceRepository_Queries(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	draft := buildInvoice(t, userID, "INV-202410-001", lineItem("Draft work", "1", "100"))

	partial := buildInvoice(t, userID, "INV-202410-002", lineItem("Work", "5", "100"))
	require.NoError(t, partial.Send(testNow))
	_, err := partial.RecordPayment(uuid.New(), completedPayment("200"), testNow)
	require.NoError(t, err)

	paid := buildInvoice(t, userID, "INV-202410-003", lineItem("Work", "1", "80"))
	require.NoError(t, paid.Send(testNow))
	_, err = paid.RecordPayment(uuid.New(), completedPayment("80"), testNow)
	require.NoError(t, err)

	cancelled := buildInvoice(t, userID, "INV-202410-004", lineItem("Work", "1", "50"))
	require.NoError(t, cancelled.Send(testNow))
	require.NoError(t, cancelled.Cancel(testNow))

	foreign := buildInvoice(t, uuid.New(), "INV-202410-005", lineItem("Work", "1", "999"))
	require.NoError(t, foreign.Send(testNow))

	for _, inv := range []*billing.Invoice{draft, partial, paid, cancelled, foreign} {
		require.NoError(t, repo.Save(ctx, inv))
	}

	t.Run("stats exclude drafts and cancelled from outstanding", func(t *testing.T) {
		stats, err := repo.StatsForUser(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, int64(4), stats.Count)
		assert.Equal(t, int64(1), stats.CountByStatus[billing.InvoiceStatusPartial])
		assert.Equal(t, int64(1), stats.CountByStatus[billing.InvoiceStatusCancelled])
		assert.Equal(t, "730.00", stats.TotalInvoiced.StringFixed(2))
		assert.Equal(t, "280.00", stats.TotalPaid.StringFixed(2))
		assert.Equal(t, "300.00", stats.TotalOutstanding.StringFixed(2))
	})

	t.Run("overdue lists unpaid sent invoices past due", func(t *testing.T) {
		overdue, err := repo.FindOverdue(ctx, userID, time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		require.Len(t, overdue, 1)
		assert.Equal(t, partial.ID, overdue[0].ID)

		none, err := repo.FindOverdue(ctx, userID, time.Date(2024, 10, 20, 0, 0, 0, 0, time.UTC))
		require.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("outstanding skips drafts and cancelled", func(t *testing.T) {
		outstanding, err := repo.FindOutstanding(ctx, userID)
		require.NoError(t, err)
		ids := make([]uuid.UUID, len(outstanding))
		for i, inv := range outstanding {
			ids[i] = inv.ID
		}
		assert.ElementsMatch(t, []uuid.UUID{partial.ID, paid.ID}, ids)
	})

	t.Run("filters and counts", func(t *testing.T) {
		status := billing.InvoiceStatusPaid
		invoices, err := repo.FindAllForUser(ctx, userID, billing.InvoiceFilter{Filter: shared.DefaultFilter(), Status: &status})
		require.NoError(t, err)
		require.Len(t, invoices, 1)
		assert.Equal(t, paid.ID, invoices[0].ID)

		from := time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)
		count, err := repo.CountForUser(ctx, userID, billing.InvoiceFilter{IssueFrom: &from})
		require.NoError(t, err)
		assert.Equal(t, int64(4), count)
	})

	t.Run("recent honours the limit", func(t *testing.T) {
		recent, err := repo.FindRecent(ctx, userID, 2)
		require.NoError(t, err)
		assert.Len(t, recent, 2)
	})
}

func TestGormInvoiceRepository_DeleteForUser(t *testing.T) {
	db := setupBillingTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	inv := buildInvoice(t, userID, "INV-202410-001", lineItem("Work", "1", "100"))
	require.NoError(t, repo.Save(ctx, inv))

	assert.ErrorIs(t, repo.DeleteForUser(ctx, uuid.New(), inv.ID), shared.ErrNotFound)
	require.NoError(t, repo.DeleteForUser(ctx, userID, inv.ID))

	_, err := repo.FindByIDForUser(ctx, userID, inv.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, "Invoice not found", err.Error())
}
