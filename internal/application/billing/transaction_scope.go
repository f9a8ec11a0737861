package billing

import (
	"context"

	"github.com/freelance/backend/internal/domain/billing"
)

// TransactionScope provides transactional access to billing repositories.
// All repository operations inside fn share one database transaction and
// are committed or rolled back together.
type TransactionScope interface {
	// Execute runs fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the billing repositories bound to one transaction.
//
// Aggregate boundary notes:
//   - QuoteRepo and InvoiceRepo persist their line items (and invoice payments)
//     together with the aggregate root on Save.
//   - PaymentRepo only answers cross-invoice queries such as transaction id lookups.
//   - SequenceRepo increments under the transaction's row lock.
type TransactionalRepositories interface {
	QuoteRepo() billing.QuoteRepository
	QuoteHistoryRepo() billing.QuoteHistoryRepository
	InvoiceRepo() billing.InvoiceRepository
	PaymentRepo() billing.PaymentRepository
	SequenceRepo() billing.NumberSequenceRepository
}

// NoOpTransactionScope runs functions without a real transaction.
// Used in tests and for read-only paths.
type NoOpTransactionScope struct {
	quoteRepo    billing.QuoteRepository
	historyRepo  billing.QuoteHistoryRepository
	invoiceRepo  billing.InvoiceRepository
	paymentRepo  billing.PaymentRepository
	sequenceRepo billing.NumberSequenceRepository
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(
	quoteRepo billing.QuoteRepository,
	historyRepo billing.QuoteHistoryRepository,
	invoiceRepo billing.InvoiceRepository,
	paymentRepo billing.PaymentRepository,
	sequenceRepo billing.NumberSequenceRepository,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		quoteRepo:    quoteRepo,
		historyRepo:  historyRepo,
		invoiceRepo:  invoiceRepo,
		paymentRepo:  paymentRepo,
		sequenceRepo: sequenceRepo,
	}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos TransactionalRepositories) error) error {
	return fn(s)
}

func (s *NoOpTransactionScope) QuoteRepo() billing.QuoteRepository               { return s.quoteRepo }
func (s *NoOpTransactionScope) QuoteHistoryRepo() billing.QuoteHistoryRepository { return s.historyRepo }
func (s *NoOpTransactionScope) InvoiceRepo() billing.InvoiceRepository           { return s.invoiceRepo }
func (s *NoOpTransactionScope) PaymentRepo() billing.PaymentRepository           { return s.paymentRepo }
func (s *NoOpTransactionScope) SequenceRepo() billing.NumberSequenceRepository   { return s.sequenceRepo }

var _ TransactionScope = (*NoOpTransactionScope)(nil)
var _ TransactionalRepositories = (*NoOpTransactionScope)(nil)
