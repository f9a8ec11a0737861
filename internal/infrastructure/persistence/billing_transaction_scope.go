package persistence

import (
	"context"

	billingapp "github.com/freelance/backend/internal/application/billing"
	"github.com/freelance/backend/internal/domain/billing"
	"gorm.io/gorm"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
// Every repository handed to fn shares the same transaction.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction.
// If fn returns an error, the transaction is rolled back.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos billingapp.TransactionalRepositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	})
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

// QuoteRepo returns the quote repository scoped to the current transaction.
func (r *gormTransactionalRepositories) QuoteRepo() billing.QuoteRepository {
	return NewGormQuoteRepository(r.tx)
}

// QuoteHistoryRepo returns the quote history repository scoped to the current transaction.
func (r *gormTransactionalRepositories) QuoteHistoryRepo() billing.QuoteHistoryRepository {
	return NewGormQuoteHistoryRepository(r.tx)
}

// InvoiceRepo returns the invoice repository scoped to the current transaction.
func (r *gormTransactionalRepositories) InvoiceRepo() billing.InvoiceRepository {
	return NewGormInvoiceRepository(r.tx)
}

// PaymentRepo returns the payment repository scoped to the current transaction.
func (r *gormTransactionalRepositories) PaymentRepo() billing.PaymentRepository {
	return NewGormPaymentRepository(r.tx)
}

// SequenceRepo returns the number sequence repository scoped to the current transaction.
func (r *gormTransactionalRepositories) SequenceRepo() billing.NumberSequenceRepository {
	return NewGormNumberSequenceRepository(r.tx)
}

// Ensure GormTransactionScope implements TransactionScope
var _ billingapp.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ billingapp.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
