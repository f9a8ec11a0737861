package activity

import (
	"context"

	billingapp "github.com/freelance/backend/internal/application/billing"
	"github.com/freelance/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Recorder is the AuditSink of the billing services. It publishes entries
// on the event bus and never fails the caller.
type Recorder struct {
	publisher shared.EventPublisher
	clock     shared.Clock
	logger    *zap.Logger
}

// NewRecorder creates a Recorder publishing through publisher
func NewRecorder(publisher shared.EventPublisher, clock shared.Clock, logger *zap.Logger) *Recorder {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Recorder{publisher: publisher, clock: clock, logger: logger}
}

// Record publishes entry. Entries without an entity are dropped.
func (r *Recorder) Record(ctx context.Context, entry billingapp.AuditEntry) {
	if entry.Entity == nil {
		r.logger.Warn("audit entry without entity dropped", zap.String("action", entry.Action))
		return
	}
	event := NewActivityRecordedEvent(entry.UserID, entry.Action, entry.Entity, entry.Description,
		entry.Requester.IPAddress, entry.Requester.UserAgent, r.clock.Now())
	if err := r.publisher.Publish(ctx, event); err != nil {
		r.logger.Error("failed to publish activity",
			zap.String("action", entry.Action),
			zap.String("entity_id", entry.Entity.EntityID().String()),
			zap.Error(err))
	}
}

var _ billingapp.AuditSink = (*Recorder)(nil)
