package persistence

import (
	"context"

	"github.com/freelance/backend/internal/domain/activity"
	"github.com/freelance/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormActivityLogRepository implements activity.Repository using GORM
type GormActivityLogRepository struct {
	db *gorm.DB
}

// NewGormActivityLogRepository creates a new GormActivityLogRepository
func NewGormActivityLogRepository(db *gorm.DB) *GormActivityLogRepository {
	return &GormActivityLogRepository{db: db}
}

// Save inserts one activity log entry
func (r *GormActivityLogRepository) Save(ctx context.Context, log *activity.Log) error {
	return r.db.WithContext(ctx).Create(models.ActivityLogModelFromDomain(log)).Error
}

// FindRecentForUser returns the newest entries first. Rows with an unknown
// entity type are skipped.
func (r *GormActivityLogRepository) FindRecentForUser(ctx context.Context, userID uuid.UUID, limit int) ([]activity.Log, error) {
	var rows []models.ActivityLogModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	logs := make([]activity.Log, 0, len(rows))
	for i := range rows {
		l, err := rows[i].ToDomain()
		if err != nil {
			continue
		}
		logs = append(logs, *l)
	}
	return logs, nil
}

// Ensure GormActivityLogRepository implements Repository
var _ activity.Repository = (*GormActivityLogRepository)(nil)
