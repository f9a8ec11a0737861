package billing

import (
	"context"
	"testing"

	"github.com/freelance/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineItemService_QuoteItems(t *testing.T) {
	f := newFixture(t)
	quotes := NewQuoteService(f.cfg)
	svc := NewLineItemService(f.cfg)
	q, err := quotes.Create(context.Background(), f.userID, CreateQuoteRequest{ClientID: f.clientID, Title: "Q"}, browser)
	require.NoError(t, err)
	parent := QuoteParent(q.ID)

	first, err := svc.Add(context.Background(), f.userID, parent, LineItemRequest{
		Description: "Design",
		Quantity:    decPtr("2"),
		UnitPrice:   decPtr("100"),
		TaxRate:     decPtr("10"),
	}, browser)
	require.NoError(t, err)
	assert.Equal(t, "220.00", first.Total.StringFixed(2))
	assert.Equal(t, 0, first.SortOrder)

	second, err := svc.Add(context.Background(), f.userID, parent, LineItemRequest{Description: "Consulting"}, browser)
	require.NoError(t, err)
	assert.Equal(t, 1, second.SortOrder)
	assert.Equal(t, "1", second.Quantity.String())
	assert.True(t, second.Total.IsZero())

	price := decPtr("80")
	updated, err := svc.Update(context.Background(), f.userID, parent, second.ID, UpdateLineItemRequest{UnitPrice: price}, browser)
	require.NoError(t, err)
	assert.Equal(t, "80.00", updated.Total.StringFixed(2))

	got, err := quotes.GetByID(context.Background(), f.userID, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "300.00", got.Subtotal.StringFixed(2))
	assert.Equal(t, "300.00", got.TotalAmount.StringFixed(2))

	items, err := svc.Reorder(context.Background(), f.userID, parent, []uuid.UUID{second.ID, uuid.New(), first.ID})
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, second.ID, items[0].ID)
	assert.Equal(t, 0, items[0].SortOrder)
	assert.Equal(t, first.ID, items[1].ID)
	assert.Equal(t, 2, items[1].SortOrder)

	require.NoError(t, svc.Delete(context.Background(), f.userID, parent, first.ID, browser))
	got, _ = quotes.GetByID(context.Background(), f.userID, q.ID)
	assert.Equal(t, "80.00", got.TotalAmount.StringFixed(2))

	listed, err := svc.List(context.Background(), f.userID, parent)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestLineItemService_DraftGuards(t *testing.T) {
	f := newFixture(t)
	quotes := NewQuoteService(f.cfg)
	invoices := NewInvoiceService(f.cfg)
	svc := NewLineItemService(f.cfg)

	q := createSentQuote(t, f, quotes, nil)
	inv := createSentInvoice(t, f, invoices, itemReq("Work", "1", "100"))

	tests := []struct {
		name    string
		parent  Parent
		itemID  uuid.UUID
		noun    string
	}{
		{name: "quote", parent: QuoteParent(q.ID), itemID: q.Items[0].ID, noun: "quote"},
		{name: "invoice", parent: InvoiceParent(inv.ID), itemID: inv.Items[0].ID, noun: "invoice"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()

			_, err := svc.Add(ctx, f.userID, tt.parent, LineItemRequest{Description: "Extra"}, browser)
			assert.ErrorIs(t, err, shared.ErrInvalidState)
			assert.Equal(t, "Cannot add items to a non-draft "+tt.noun, err.Error())

			desc := "Changed"
			_, err = svc.Update(ctx, f.userID, tt.parent, tt.itemID, UpdateLineItemRequest{Description: &desc}, browser)
			assert.Equal(t, "Cannot modify items of a non-draft "+tt.noun, err.Error())

			err = svc.Delete(ctx, f.userID, tt.parent, tt.itemID, browser)
			assert.Equal(t, "Cannot delete items from a non-draft "+tt.noun, err.Error())

			_, err = svc.Reorder(ctx, f.userID, tt.parent, []uuid.UUID{tt.itemID})
			assert.Equal(t, "Cannot reorder items of a non-draft "+tt.noun, err.Error())

			items, err := svc.List(ctx, f.userID, tt.parent)
			require.NoError(t, err)
			require.Len(t, items, 1)
			assert.NotEqual(t, "Changed", items[0].Description)
		})
	}
}

func TestLineItemService_InvoiceItemRecomputesBalance(t *testing.T) {
	f := newFixture(t)
	invoices := NewInvoiceService(f.cfg)
	svc := NewLineItemService(f.cfg)
	inv, err := invoices.Create(context.Background(), f.userID, invoiceReq(f), browser)
	require.NoError(t, err)

	_, err = svc.Add(context.Background(), f.userID, InvoiceParent(inv.ID), itemReq("Audit", "3", "150"), browser)
	require.NoError(t, err)

	got, err := invoices.GetByID(context.Background(), f.userID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, "450.00", got.TotalAmount.StringFixed(2))
	assert.Equal(t, "450.00", got.BalanceDue.StringFixed(2))
	assert.Equal(t, "draft", got.Status)
}

func TestLineItemService_UnknownItem(t *testing.T) {
	f := newFixture(t)
	quotes := NewQuoteService(f.cfg)
	svc := NewLineItemService(f.cfg)
	q, err := quotes.Create(context.Background(), f.userID, CreateQuoteRequest{ClientID: f.clientID, Title: "Q"}, browser)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), f.userID, QuoteParent(q.ID), uuid.New(), browser)

	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, "Quote item does not belong to the specified quote", err.Error())
}
