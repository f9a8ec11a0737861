package activity

import (
	"context"
	"fmt"

	"github.com/freelance/backend/internal/domain/activity"
	"github.com/freelance/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// ActivityLogHandler persists ActivityRecordedEvent into the activity log
type ActivityLogHandler struct {
	repo      activity.Repository
	resolvers activity.ResolverTable
	ids       shared.IDGenerator
	logger    *zap.Logger
}

// NewActivityLogHandler creates a new handler. resolvers may be nil; it is
// only used to describe entries recorded without a description.
func NewActivityLogHandler(repo activity.Repository, resolvers activity.ResolverTable, ids shared.IDGenerator, logger *zap.Logger) *ActivityLogHandler {
	if ids == nil {
		ids = shared.UUIDGenerator{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityLogHandler{repo: repo, resolvers: resolvers, ids: ids, logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *ActivityLogHandler) EventTypes() []string {
	return []string{EventTypeActivityRecorded}
}

// Handle writes one activity log row
func (h *ActivityLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	recorded, ok := event.(*ActivityRecordedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s", EventTypeActivityRecorded, event.EventType())
	}

	entity, err := activity.ParseRelatedEntity(string(recorded.EntityType), recorded.EntityID)
	if err != nil {
		return fmt.Errorf("activity %s: %w", recorded.Action, err)
	}

	description := recorded.Description
	if description == "" {
		description = h.describe(ctx, recorded, entity)
	}

	log := &activity.Log{
		ID:          h.ids.NewID(),
		UserID:      recorded.UserID,
		Action:      recorded.Action,
		Entity:      entity,
		Description: description,
		IPAddress:   recorded.IPAddress,
		UserAgent:   recorded.UserAgent,
		CreatedAt:   recorded.OccurredAt(),
	}
	if err := h.repo.Save(ctx, log); err != nil {
		h.logger.Error("failed to save activity log",
			zap.String("action", recorded.Action),
			zap.String("user_id", recorded.UserID.String()),
			zap.Error(err))
		return fmt.Errorf("save activity log: %w", err)
	}
	return nil
}

func (h *ActivityLogHandler) describe(ctx context.Context, e *ActivityRecordedEvent, entity activity.RelatedEntity) string {
	name := activity.UnknownEntityName
	if h.resolvers != nil {
		resolved, err := h.resolvers.Resolve(ctx, e.UserID, entity)
		if err != nil {
			h.logger.Warn("failed to resolve activity entity", zap.Error(err))
		} else {
			name = resolved
		}
	}
	return fmt.Sprintf("%s %s", e.Action, name)
}

var _ shared.EventHandler = (*ActivityLogHandler)(nil)
