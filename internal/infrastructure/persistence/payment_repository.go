package persistence

import (
	"context"

	"github.com/freelance/backend/internal/domain/billing"
	"github.com/freelance/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormPaymentRepository answers payment queries that span invoices
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// ExistsByTransactionID checks the transaction id across all invoices
func (r *GormPaymentRepository) ExistsByTransactionID(ctx context.Context, transactionID string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.InvoicePaymentModel{}).
		Where("transaction_id = ?", transactionID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// FindByStatusForUser lists a user's payments in one status, newest first
func (r *GormPaymentRepository) FindByStatusForUser(ctx context.Context, userID uuid.UUID, status billing.PaymentStatus) ([]billing.InvoicePayment, error) {
	var rows []models.InvoicePaymentModel
	if err := r.ownedPayments(ctx, userID).
		Where("invoice_payments.status = ?", status).
		Order("invoice_payments.payment_date DESC, invoice_payments.created_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	payments := make([]billing.InvoicePayment, len(rows))
	for i := range rows {
		payments[i] = rows[i].ToDomain()
	}
	return payments, nil
}

// SumCompletedForUser totals a user's completed payments
func (r *GormPaymentRepository) SumCompletedForUser(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	var result struct{ Total decimal.Decimal }
	if err := r.ownedPayments(ctx, userID).
		Where("invoice_payments.status = ?", billing.PaymentStatusCompleted).
		Select("COALESCE(SUM(invoice_payments.amount), 0) AS total").
		Scan(&result).Error; err != nil {
		return decimal.Zero, err
	}
	return result.Total, nil
}

func (r *GormPaymentRepository) ownedPayments(ctx context.Context, userID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.InvoicePaymentModel{}).
		Joins("JOIN invoices ON invoices.id = invoice_payments.invoice_id").
		Where("invoices.user_id = ?", userID)
}

// Ensure GormPaymentRepository implements PaymentRepository
var _ billing.PaymentRepository = (*GormPaymentRepository)(nil)
