package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/freelance/backend/internal/domain/billing"
	"github.com/freelance/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const invoiceNotFound = "Invoice not found"

// InvoiceSortFields contains allowed sort fields for invoices
var InvoiceSortFields = map[string]bool{
	"created_at":     true,
	"updated_at":     true,
	"invoice_number": true,
	"title":          true,
	"status":         true,
	"issue_date":     true,
	"due_date":       true,
	"total_amount":   true,
	"balance_due":    true,
}

// GormInvoiceRepository implements InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByIDForUser loads an invoice with its items and payments
func (r *GormInvoiceRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*billing.Invoice, error) {
	return r.findOne(ctx, r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id))
}

// FindByIDForUpdate loads an invoice and locks its row until the transaction ends
func (r *GormInvoiceRepository) FindByIDForUpdate(ctx context.Context, userID, id uuid.UUID) (*billing.Invoice, error) {
	return r.findOne(ctx, r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND id = ?", userID, id))
}

// FindByPublicHash loads an invoice by its share token
func (r *GormInvoiceRepository) FindByPublicHash(ctx context.Context, hash string) (*billing.Invoice, error) {
	return r.findOne(ctx, r.db.WithContext(ctx).Where("public_hash = ?", hash))
}

// FindByPublicHashForUpdate loads an invoice by its share token with a row lock
func (r *GormInvoiceRepository) FindByPublicHashForUpdate(ctx context.Context, hash string) (*billing.Invoice, error) {
	return r.findOne(ctx, r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("public_hash = ?", hash))
}

func (r *GormInvoiceRepository) findOne(ctx context.Context, query *gorm.DB) (*billing.Invoice, error) {
	var model models.InvoiceModel
	if err := query.First(&model).Error; err != nil {
		return nil, notFound(err, invoiceNotFound)
	}
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", model.ID).
		Order("sort_order ASC, created_at ASC").
		Find(&model.Items).Error; err != nil {
		return nil, fmt.Errorf("load invoice items: %w", err)
	}
	if err := r.db.WithContext(ctx).
		Where("invoice_id = ?", model.ID).
		Order("payment_date ASC, created_at ASC").
		Find(&model.Payments).Error; err != nil {
		return nil, fmt.Errorf("load invoice payments: %w", err)
	}
	return model.ToDomain(), nil
}

// FindAllForUser lists invoices without items and payments
func (r *GormInvoiceRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter billing.InvoiceFilter) ([]billing.Invoice, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Where("user_id = ?", userID), filter)

	query = query.Order(orderBy(filter.Filter, InvoiceSortFields, "created_at"))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var rows []models.InvoiceModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return toInvoices(rows), nil
}

// CountForUser counts invoices matching the filter
func (r *GormInvoiceRepository) CountForUser(ctx context.Context, userID uuid.UUID, filter billing.InvoiceFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Where("user_id = ?", userID), filter).
		Count(&count).Error
	return count, err
}

func (r *GormInvoiceRepository) applyFilter(query *gorm.DB, filter billing.InvoiceFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}
	if filter.QuoteID != nil {
		query = query.Where("quote_id = ?", *filter.QuoteID)
	}
	if filter.IssueFrom != nil {
		query = query.Where("issue_date >= ?", *filter.IssueFrom)
	}
	if filter.IssueTo != nil {
		query = query.Where("issue_date <= ?", *filter.IssueTo)
	}
	if filter.DueFrom != nil {
		query = query.Where("due_date >= ?", *filter.DueFrom)
	}
	if filter.DueTo != nil {
		query = query.Where("due_date <= ?", *filter.DueTo)
	}
	return query
}

// FindOverdue lists sent, unpaid invoices due before today
func (r *GormInvoiceRepository) FindOverdue(ctx context.Context, userID uuid.UUID, today time.Time) ([]billing.Invoice, error) {
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND cancelled = ? AND balance_due > 0 AND due_date < ?", userID, false, today).
		Where("status NOT IN ?", []billing.InvoiceStatus{
			billing.InvoiceStatusDraft, billing.InvoiceStatusPaid, billing.InvoiceStatusCancelled,
		}).
		Order("due_date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toInvoices(rows), nil
}

// FindOutstanding lists every invoice that is neither draft nor cancelled
func (r *GormInvoiceRepository) FindOutstanding(ctx context.Context, userID uuid.UUID) ([]billing.Invoice, error) {
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND cancelled = ?", userID, false).
		Where("status NOT IN ?", []billing.InvoiceStatus{billing.InvoiceStatusDraft, billing.InvoiceStatusCancelled}).
		Order("due_date ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toInvoices(rows), nil
}

// FindRecent lists the most recently created invoices
func (r *GormInvoiceRepository) FindRecent(ctx context.Context, userID uuid.UUID, limit int) ([]billing.Invoice, error) {
	var rows []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return toInvoices(rows), nil
}

type invoiceStatusTotals struct {
	Status     billing.InvoiceStatus
	Count      int64
	Invoiced   decimal.Decimal
	Paid       decimal.Decimal
	BalanceDue decimal.Decimal
}

// StatsForUser aggregates counts and sums per status in one query
func (r *GormInvoiceRepository) StatsForUser(ctx context.Context, userID uuid.UUID) (*billing.InvoiceStats, error) {
	var rows []invoiceStatusTotals
	if err := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).
		Select("status, COUNT(*) AS count, " +
			"COALESCE(SUM(total_amount), 0) AS invoiced, " +
			"COALESCE(SUM(amount_paid), 0) AS paid, " +
			"COALESCE(SUM(balance_due), 0) AS balance_due").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	stats := &billing.InvoiceStats{
		CountByStatus:    make(map[billing.InvoiceStatus]int64, len(rows)),
		TotalInvoiced:    decimal.Zero,
		TotalPaid:        decimal.Zero,
		TotalOutstanding: decimal.Zero,
	}
	for _, row := range rows {
		stats.Count += row.Count
		stats.CountByStatus[row.Status] = row.Count
		stats.TotalInvoiced = stats.TotalInvoiced.Add(row.Invoiced)
		stats.TotalPaid = stats.TotalPaid.Add(row.Paid)
		if billing.CountsAsOutstanding(row.Status) {
			stats.TotalOutstanding = stats.TotalOutstanding.Add(row.BalanceDue)
		}
	}
	return stats, nil
}

// Save creates or updates the invoice and synchronizes its items and payments
func (r *GormInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	model := models.InvoiceModelFromDomain(invoice)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}

		itemIDs := make([]uuid.UUID, len(model.Items))
		for i, item := range model.Items {
			itemIDs[i] = item.ID
		}
		if err := deleteMissing(tx, &models.InvoiceItemModel{}, invoice.ID, itemIDs); err != nil {
			return err
		}
		if len(model.Items) > 0 {
			if err := upsert(tx, &model.Items); err != nil {
				return err
			}
		}

		paymentIDs := make([]uuid.UUID, len(model.Payments))
		for i, p := range model.Payments {
			paymentIDs[i] = p.ID
		}
		if err := deleteMissing(tx, &models.InvoicePaymentModel{}, invoice.ID, paymentIDs); err != nil {
			return err
		}
		if len(model.Payments) > 0 {
			return upsert(tx, &model.Payments)
		}
		return nil
	})
	return translateError(err)
}

// deleteMissing removes the children of invoiceID whose ids are not in keep
func deleteMissing(tx *gorm.DB, model interface{}, invoiceID uuid.UUID, keep []uuid.UUID) error {
	query := tx.Where("invoice_id = ?", invoiceID)
	if len(keep) > 0 {
		query = query.Where("id NOT IN ?", keep)
	}
	return query.Delete(model).Error
}

func upsert(tx *gorm.DB, rows interface{}) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(rows).Error
}

// DeleteForUser removes an invoice with its items and payments
func (r *GormInvoiceRepository) DeleteForUser(ctx context.Context, userID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ?", id).Delete(&models.InvoicePaymentModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ?", id).Delete(&models.InvoiceItemModel{}).Error; err != nil {
			return err
		}
		result := tx.Where("user_id = ? AND id = ?", userID, id).Delete(&models.InvoiceModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return notFound(gorm.ErrRecordNotFound, invoiceNotFound)
		}
		return nil
	})
}

func toInvoices(rows []models.InvoiceModel) []billing.Invoice {
	invoices := make([]billing.Invoice, len(rows))
	for i := range rows {
		invoices[i] = *rows[i].ToDomain()
	}
	return invoices
}

// Ensure GormInvoiceRepository implements InvoiceRepository
var _ billing.InvoiceRepository = (*GormInvoiceRepository)(nil)
