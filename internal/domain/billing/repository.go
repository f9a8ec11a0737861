package billing

import (
	"context"
	"time"

	"github.com/freelance/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuoteFilter narrows quote listings
type QuoteFilter struct {
	shared.Filter
	Status    *QuoteStatus
	ClientID  *uuid.UUID
	ProjectID *uuid.UUID
}

// InvoiceFilter narrows invoice listings
type InvoiceFilter struct {
	shared.Filter
	Status    *InvoiceStatus
	ClientID  *uuid.UUID
	ProjectID *uuid.UUID
	QuoteID   *uuid.UUID
	IssueFrom *time.Time
	IssueTo   *time.Time
	DueFrom   *time.Time
	DueTo     *time.Time
}

// CountsAsOutstanding reports whether balances in status are still owed.
// Drafts were never sent and cancelled invoices are written off.
func CountsAsOutstanding(s InvoiceStatus) bool {
	return s != InvoiceStatusDraft && s != InvoiceStatusCancelled
}

// InvoiceStats aggregates a user's invoicing. TotalOutstanding only sums
// statuses for which CountsAsOutstanding holds.
type InvoiceStats struct {
	Count            int64
	CountByStatus    map[InvoiceStatus]int64
	TotalInvoiced    decimal.Decimal
	TotalPaid        decimal.Decimal
	TotalOutstanding decimal.Decimal
}

// QuoteRepository defines the interface for quote persistence.
// Lookups return shared NOT_FOUND errors for missing or foreign quotes.
type QuoteRepository interface {
	// FindByIDForUser loads a quote with its items
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*Quote, error)

	// FindByIDForUpdate loads a quote and holds a row lock until the transaction ends
	FindByIDForUpdate(ctx context.Context, userID, id uuid.UUID) (*Quote, error)

	// FindByPublicHash loads a quote by its share token
	FindByPublicHash(ctx context.Context, hash string) (*Quote, error)

	// FindByPublicHashForUpdate is FindByPublicHash with a row lock
	FindByPublicHashForUpdate(ctx context.Context, hash string) (*Quote, error)

	// FindAllForUser lists quotes without items
	FindAllForUser(ctx context.Context, userID uuid.UUID, filter QuoteFilter) ([]Quote, error)

	// CountForUser counts quotes matching the filter
	CountForUser(ctx context.Context, userID uuid.UUID, filter QuoteFilter) (int64, error)

	// FindExpired lists sent quotes whose validity ended before the given day
	FindExpired(ctx context.Context, userID uuid.UUID, today time.Time) ([]Quote, error)

	// Save creates or updates a quote and synchronizes its items
	Save(ctx context.Context, quote *Quote) error

	// DeleteForUser removes a quote and its items
	DeleteForUser(ctx context.Context, userID, id uuid.UUID) error
}

// QuoteHistoryRepository stores the append-only quote audit trail
type QuoteHistoryRepository interface {
	Append(ctx context.Context, entry *QuoteHistory) error
	// FindByQuote returns entries newest first
	FindByQuote(ctx context.Context, quoteID uuid.UUID) ([]QuoteHistory, error)
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByIDForUser loads an invoice with its items and payments
	FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*Invoice, error)

	// FindByIDForUpdate loads an invoice and holds a row lock until the transaction ends
	FindByIDForUpdate(ctx context.Context, userID, id uuid.UUID) (*Invoice, error)

	// FindByPublicHash loads an invoice by its share token
	FindByPublicHash(ctx context.Context, hash string) (*Invoice, error)

	// FindByPublicHashForUpdate is FindByPublicHash with a row lock
	FindByPublicHashForUpdate(ctx context.Context, hash string) (*Invoice, error)

	// FindAllForUser lists invoices without items
	FindAllForUser(ctx context.Context, userID uuid.UUID, filter InvoiceFilter) ([]Invoice, error)

	// CountForUser counts invoices matching the filter
	CountForUser(ctx context.Context, userID uuid.UUID, filter InvoiceFilter) (int64, error)

	// FindOverdue lists unpaid, sent invoices due before the given day
	FindOverdue(ctx context.Context, userID uuid.UUID, today time.Time) ([]Invoice, error)

	// FindOutstanding lists every invoice that is neither draft nor cancelled
	FindOutstanding(ctx context.Context, userID uuid.UUID) ([]Invoice, error)

	// FindRecent lists the most recently created invoices
	FindRecent(ctx context.Context, userID uuid.UUID, limit int) ([]Invoice, error)

	// StatsForUser aggregates counts and sums
	StatsForUser(ctx context.Context, userID uuid.UUID) (*InvoiceStats, error)

	// Save creates or updates an invoice and synchronizes its items and payments
	Save(ctx context.Context, invoice *Invoice) error

	// DeleteForUser removes an invoice, its items and payments
	DeleteForUser(ctx context.Context, userID, id uuid.UUID) error
}

// PaymentRepository answers payment queries that span invoices
type PaymentRepository interface {
	// ExistsByTransactionID checks every payment of every invoice
	ExistsByTransactionID(ctx context.Context, transactionID string) (bool, error)

	// FindByStatusForUser lists a user's payments in a status
	FindByStatusForUser(ctx context.Context, userID uuid.UUID, status PaymentStatus) ([]InvoicePayment, error)

	// SumCompletedForUser totals a user's completed payments
	SumCompletedForUser(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error)
}

// NumberSequenceRepository hands out durable per-period sequence values
type NumberSequenceRepository interface {
	// Next increments and returns the sequence for prefix and period, starting at 1
	Next(ctx context.Context, prefix, period string) (int64, error)
}
