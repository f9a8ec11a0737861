package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type seqIDs struct{ n int }

func (s *seqIDs) NewID() uuid.UUID {
	s.n++
	var id uuid.UUID
	id[15] = byte(s.n)
	id[14] = byte(s.n >> 8)
	return id
}

var testNow = time.Date(2024, 10, 15, 9, 30, 0, 0, time.UTC)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decp(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func item(desc, qty, price, tax, discount string) LineItemInput {
	return LineItemInput{
		Description:  desc,
		Quantity:     decp(qty),
		UnitPrice:    decp(price),
		TaxRate:      decp(tax),
		DiscountRate: decp(discount),
	}
}

func newTestQuote(t *testing.T, items ...LineItemInput) *Quote {
	t.Helper()
	q, err := NewQuote(&seqIDs{}, NewQuoteParams{
		ID:         uuid.New(),
		UserID:     uuid.New(),
		Number:     "QUO-202410-001",
		PublicHash: "0123456789abcdef0123456789abcdef",
		Details: QuoteDetails{
			ClientID: uuid.New(),
			Title:    "Website redesign",
		},
		Items: items,
	}, testNow)
	require.NoError(t, err)
	return q
}

func newTestInvoice(t *testing.T, items ...LineItemInput) *Invoice {
	t.Helper()
	inv, err := NewInvoice(&seqIDs{}, NewInvoiceParams{
		ID:         uuid.New(),
		UserID:     uuid.New(),
		Number:     "INV-202410-001",
		PublicHash: "fedcba9876543210fedcba9876543210",
		Details: InvoiceDetails{
			ClientID:  uuid.New(),
			Title:     "October retainer",
			IssueDate: testNow,
			DueDate:   testNow.AddDate(0, 0, 30),
		},
		Items: items,
	}, testNow)
	require.NoError(t, err)
	return inv
}
