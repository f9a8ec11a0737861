package persistence

import (
	"context"
	"fmt"
	"time"

	"github.com/freelance/backend/internal/domain/billing"
	"github.com/freelance/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const quoteNotFound = "Quote not found"

// QuoteSortFields contains allowed sort fields for quotes
var QuoteSortFields = map[string]bool{
	"created_at":   true,
	"updated_at":   true,
	"quote_number": true,
	"title":        true,
	"status":       true,
	"valid_until":  true,
	"total_amount": true,
}

// GormQuoteRepository implements QuoteRepository using GORM
type GormQuoteRepository struct {
	db *gorm.DB
}

// NewGormQuoteRepository creates a new GormQuoteRepository
func NewGormQuoteRepository(db *gorm.DB) *GormQuoteRepository {
	return &GormQuoteRepository{db: db}
}

// FindByIDForUser loads a quote with its items
func (r *GormQuoteRepository) FindByIDForUser(ctx context.Context, userID, id uuid.UUID) (*billing.Quote, error) {
	return r.findOne(ctx, r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id))
}

// FindByIDForUpdate loads a quote and locks its row until the transaction ends
func (r *GormQuoteRepository) FindByIDForUpdate(ctx context.Context, userID, id uuid.UUID) (*billing.Quote, error) {
	return r.findOne(ctx, r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND id = ?", userID, id))
}

// FindByPublicHash loads a quote by its share token
func (r *GormQuoteRepository) FindByPublicHash(ctx context.Context, hash string) (*billing.Quote, error) {
	return r.findOne(ctx, r.db.WithContext(ctx).Where("public_hash = ?", hash))
}

// FindByPublicHashForUpdate loads a quote by its share token with a row lock
func (r *GormQuoteRepository) FindByPublicHashForUpdate(ctx context.Context, hash string) (*billing.Quote, error) {
	return r.findOne(ctx, r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("public_hash = ?", hash))
}

func (r *GormQuoteRepository) findOne(ctx context.Context, query *gorm.DB) (*billing.Quote, error) {
	var model models.QuoteModel
	if err := query.First(&model).Error; err != nil {
		return nil, notFound(err, quoteNotFound)
	}
	if err := r.db.WithContext(ctx).
		Where("quote_id = ?", model.ID).
		Order("sort_order ASC, created_at ASC").
		Find(&model.Items).Error; err != nil {
		return nil, fmt.Errorf("load quote items: %w", err)
	}
	return model.ToDomain(), nil
}

// FindAllForUser lists quotes without items
func (r *GormQuoteRepository) FindAllForUser(ctx context.Context, userID uuid.UUID, filter billing.QuoteFilter) ([]billing.Quote, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.QuoteModel{}).Where("user_id = ?", userID), filter)

	query = query.Order(orderBy(filter.Filter, QuoteSortFields, "created_at"))
	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	var rows []models.QuoteModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	quotes := make([]billing.Quote, len(rows))
	for i := range rows {
		quotes[i] = *rows[i].ToDomain()
	}
	return quotes, nil
}

// CountForUser counts quotes matching the filter
func (r *GormQuoteRepository) CountForUser(ctx context.Context, userID uuid.UUID, filter billing.QuoteFilter) (int64, error) {
	var count int64
	err := r.applyFilter(r.db.WithContext(ctx).Model(&models.QuoteModel{}).Where("user_id = ?", userID), filter).
		Count(&count).Error
	return count, err
}

func (r *GormQuoteRepository) applyFilter(query *gorm.DB, filter billing.QuoteFilter) *gorm.DB {
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.ProjectID != nil {
		query = query.Where("project_id = ?", *filter.ProjectID)
	}
	return query
}

// FindExpired lists sent quotes whose validity ended before today
func (r *GormQuoteRepository) FindExpired(ctx context.Context, userID uuid.UUID, today time.Time) ([]billing.Quote, error) {
	var rows []models.QuoteModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND status = ? AND valid_until IS NOT NULL AND valid_until < ?",
			userID, billing.QuoteStatusSent, today).
		Order("valid_until ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	quotes := make([]billing.Quote, len(rows))
	for i := range rows {
		quotes[i] = *rows[i].ToDomain()
	}
	return quotes, nil
}

// Save creates or updates the quote and synchronizes its items
func (r *GormQuoteRepository) Save(ctx context.Context, quote *billing.Quote) error {
	model := models.QuoteModelFromDomain(quote)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(model).Error; err != nil {
			return err
		}

		// Delete items that are no longer part of the quote
		ids := make([]uuid.UUID, len(model.Items))
		for i, item := range model.Items {
			ids[i] = item.ID
		}
		remove := tx.Where("quote_id = ?", quote.ID)
		if len(ids) > 0 {
			remove = remove.Where("id NOT IN ?", ids)
		}
		if err := remove.Delete(&models.QuoteItemModel{}).Error; err != nil {
			return err
		}

		if len(model.Items) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).Create(&model.Items).Error
	})
	return translateError(err)
}

// DeleteForUser removes a quote with its items and history
func (r *GormQuoteRepository) DeleteForUser(ctx context.Context, userID, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("quote_id = ?", id).Delete(&models.QuoteItemModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("quote_id = ?", id).Delete(&models.QuoteHistoryModel{}).Error; err != nil {
			return err
		}
		// A foreign or missing quote rolls the child deletes back
		result := tx.Where("user_id = ? AND id = ?", userID, id).Delete(&models.QuoteModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return notFound(gorm.ErrRecordNotFound, quoteNotFound)
		}
		return nil
	})
}

// Ensure GormQuoteRepository implements QuoteRepository
var _ billing.QuoteRepository = (*GormQuoteRepository)(nil)
