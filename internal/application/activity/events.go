package activity

import (
	"time"

	"github.com/freelance/backend/internal/domain/activity"
	"github.com/freelance/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// EventTypeActivityRecorded is published for every audited action
const EventTypeActivityRecorded = "ActivityRecorded"

// ActivityRecordedEvent carries one audit entry to the activity log
type ActivityRecordedEvent struct {
	shared.BaseDomainEvent
	UserID      uuid.UUID           `json:"user_id"`
	Action      string              `json:"action"`
	EntityType  activity.EntityType `json:"entity_type"`
	EntityID    uuid.UUID           `json:"entity_id"`
	Description string              `json:"description"`
	IPAddress   string              `json:"ip_address,omitempty"`
	UserAgent   string              `json:"user_agent,omitempty"`
}

// NewActivityRecordedEvent creates the event for one action on entity
func NewActivityRecordedEvent(userID uuid.UUID, action string, entity activity.RelatedEntity, description, ip, userAgent string, at time.Time) *ActivityRecordedEvent {
	return &ActivityRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeActivityRecorded, string(entity.Type()), entity.EntityID(), userID, at),
		UserID:          userID,
		Action:          action,
		EntityType:      entity.Type(),
		EntityID:        entity.EntityID(),
		Description:     description,
		IPAddress:       ip,
		UserAgent:       userAgent,
	}
}
