package activity

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Log is one recorded user action
type Log struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Action      string
	Entity      RelatedEntity
	Description string
	IPAddress   string
	UserAgent   string
	CreatedAt   time.Time
}

// Repository persists activity logs
type Repository interface {
	Save(ctx context.Context, log *Log) error
	// FindRecentForUser returns the newest entries first
	FindRecentForUser(ctx context.Context, userID uuid.UUID, limit int) ([]Log, error)
}
