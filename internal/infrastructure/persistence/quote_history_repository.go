package persistence

import (
	"context"

	"github.com/freelance/backend/internal/domain/billing"
	"github.com/freelance/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormQuoteHistoryRepository stores the quote audit trail
type GormQuoteHistoryRepository struct {
	db *gorm.DB
}

// NewGormQuoteHistoryRepository creates a new GormQuoteHistoryRepository
func NewGormQuoteHistoryRepository(db *gorm.DB) *GormQuoteHistoryRepository {
	return &GormQuoteHistoryRepository{db: db}
}

// Append inserts one entry. Entries are never updated.
func (r *GormQuoteHistoryRepository) Append(ctx context.Context, entry *billing.QuoteHistory) error {
	return r.db.WithContext(ctx).Create(models.QuoteHistoryModelFromDomain(entry)).Error
}

// FindByQuote returns the entries of a quote, newest first
func (r *GormQuoteHistoryRepository) FindByQuote(ctx context.Context, quoteID uuid.UUID) ([]billing.QuoteHistory, error) {
	var rows []models.QuoteHistoryModel
	if err := r.db.WithContext(ctx).
		Where("quote_id = ?", quoteID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]billing.QuoteHistory, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries, nil
}

// Ensure GormQuoteHistoryRepository implements QuoteHistoryRepository
var _ billing.QuoteHistoryRepository = (*GormQuoteHistoryRepository)(nil)
