package models

import (
	"time"

	"github.com/freelance/backend/internal/domain/activity"
	"github.com/google/uuid"
)

// ActivityLogModel is the persistence model for activity log entries
type ActivityLogModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index"`
	Action      string    `gorm:"type:varchar(100);not null"`
	EntityType  string    `gorm:"type:varchar(20);not null"`
	EntityID    uuid.UUID `gorm:"type:uuid;not null"`
	Description string    `gorm:"type:text"`
	IPAddress   string    `gorm:"type:varchar(45)"`
	UserAgent   string    `gorm:"type:text"`
	CreatedAt   time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (ActivityLogModel) TableName() string {
	return "activity_logs"
}

// ToDomain converts the model to a domain Log. Rows with an unknown entity
// type are reported as an error.
func (m *ActivityLogModel) ToDomain() (*activity.Log, error) {
	entity, err := activity.ParseRelatedEntity(m.EntityType, m.EntityID)
	if err != nil {
		return nil, err
	}
	return &activity.Log{
		ID:          m.ID,
		UserID:      m.UserID,
		Action:      m.Action,
		Entity:      entity,
		Description: m.Description,
		IPAddress:   m.IPAddress,
		UserAgent:   m.UserAgent,
		CreatedAt:   m.CreatedAt,
	}, nil
}

// ActivityLogModelFromDomain creates a persistence model from a domain Log
func ActivityLogModelFromDomain(l *activity.Log) *ActivityLogModel {
	return &ActivityLogModel{
		ID:          l.ID,
		UserID:      l.UserID,
		Action:      l.Action,
		EntityType:  string(l.Entity.Type()),
		EntityID:    l.Entity.EntityID(),
		Description: l.Description,
		IPAddress:   l.IPAddress,
		UserAgent:   l.UserAgent,
		CreatedAt:   l.CreatedAt,
	}
}
