package billing

import (
	"context"
	"time"

	"github.com/freelance/backend/internal/domain/activity"
	"github.com/freelance/backend/internal/domain/billing"
	"github.com/google/uuid"
)

// UserDirectory resolves users owned by the identity context
type UserDirectory interface {
	Exists(ctx context.Context, userID uuid.UUID) (bool, error)
}

// ClientDirectory checks client ownership
type ClientDirectory interface {
	BelongsTo(ctx context.Context, clientID, userID uuid.UUID) (bool, error)
}

// ProjectDirectory checks project ownership
type ProjectDirectory interface {
	BelongsTo(ctx context.Context, projectID, userID uuid.UUID) (bool, error)
}

// ReminderDirectory finds the open reminders attached to a record
type ReminderDirectory interface {
	// NextFor returns the earliest upcoming reminder date, or nil when none is due
	NextFor(ctx context.Context, userID uuid.UUID, entity activity.RelatedEntity, today time.Time) (*time.Time, error)
}

// AuditEntry is one action reported to the activity log
type AuditEntry struct {
	UserID      uuid.UUID
	Action      string
	Entity      activity.RelatedEntity
	Description string
	Requester   billing.Requester
}

// AuditSink records actions without affecting the caller.
// Implementations log their own failures.
type AuditSink interface {
	Record(ctx context.Context, entry AuditEntry)
}

// NopAuditSink discards every entry
type NopAuditSink struct{}

// Record does nothing
func (NopAuditSink) Record(context.Context, AuditEntry) {}
