package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	billingapp "github.com/freelance/backend/internal/application/billing"
	"github.com/freelance/backend/internal/domain/activity"
	"github.com/freelance/backend/internal/domain/reminder"
	"github.com/freelance/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormUserDirectory checks users against the users table
type GormUserDirectory struct {
	db *gorm.DB
}

// NewGormUserDirectory creates a new GormUserDirectory
func NewGormUserDirectory(db *gorm.DB) *GormUserDirectory {
	return &GormUserDirectory{db: db}
}

// Exists reports whether the user exists
func (d *GormUserDirectory) Exists(ctx context.Context, userID uuid.UUID) (bool, error) {
	return exists(ctx, d.db.Model(&models.UserModel{}).Where("id = ?", userID))
}

// GormClientDirectory checks client ownership against the clients table
type GormClientDirectory struct {
	db *gorm.DB
}

// NewGormClientDirectory creates a new GormClientDirectory
func NewGormClientDirectory(db *gorm.DB) *GormClientDirectory {
	return &GormClientDirectory{db: db}
}

// BelongsTo reports whether the client is owned by the user
func (d *GormClientDirectory) BelongsTo(ctx context.Context, clientID, userID uuid.UUID) (bool, error) {
	return exists(ctx, d.db.Model(&models.ClientModel{}).Where("id = ? AND user_id = ?", clientID, userID))
}

// GormProjectDirectory checks project ownership against the projects table
type GormProjectDirectory struct {
	db *gorm.DB
}

// NewGormProjectDirectory creates a new GormProjectDirectory
func NewGormProjectDirectory(db *gorm.DB) *GormProjectDirectory {
	return &GormProjectDirectory{db: db}
}

// BelongsTo reports whether the project is owned by the user
func (d *GormProjectDirectory) BelongsTo(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	return exists(ctx, d.db.Model(&models.ProjectModel{}).Where("id = ? AND user_id = ?", projectID, userID))
}

// GormReminderDirectory reads reminder schedules from the reminders table
type GormReminderDirectory struct {
	db *gorm.DB
}

// NewGormReminderDirectory creates a new GormReminderDirectory
func NewGormReminderDirectory(db *gorm.DB) *GormReminderDirectory {
	return &GormReminderDirectory{db: db}
}

// NextFor returns the earliest due date among the open reminders of the entity
func (d *GormReminderDirectory) NextFor(ctx context.Context, userID uuid.UUID, entity activity.RelatedEntity, today time.Time) (*time.Time, error) {
	var rows []models.ReminderModel
	if err := d.db.WithContext(ctx).
		Select("id", "reminder_date", "is_recurring", "recurrence_pattern", "is_completed").
		Where("user_id = ? AND related_type = ? AND related_id = ? AND is_completed = ?",
			userID, string(entity.Type()), entity.EntityID(), false).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	var next *time.Time
	for _, m := range rows {
		schedule, err := reminder.NewSchedule(m.ReminderDate, m.IsRecurring, m.RecurrencePattern, m.IsCompleted)
		if err != nil {
			// stored data, not caller input
			return nil, fmt.Errorf("reminder %s: %v", m.ID, err)
		}
		due, ok := schedule.NextDue(today)
		if ok && (next == nil || due.Before(*next)) {
			next = &due
		}
	}
	return next, nil
}

func exists(ctx context.Context, query *gorm.DB) (bool, error) {
	var count int64
	if err := query.WithContext(ctx).Limit(1).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// NewResolverTable builds display-name lookups for every activity entity type
func NewResolverTable(db *gorm.DB) activity.ResolverTable {
	return activity.ResolverTable{
		activity.EntityUser: func(ctx context.Context, _, id uuid.UUID) (string, error) {
			var m models.UserModel
			if err := db.WithContext(ctx).Select("first_name", "last_name").First(&m, "id = ?", id).Error; err != nil {
				return "", notFound(err, "User not found")
			}
			return strings.TrimSpace(m.FirstName + " " + m.LastName), nil
		},
		activity.EntityClient: func(ctx context.Context, userID, id uuid.UUID) (string, error) {
			var m models.ClientModel
			if err := db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&m).Error; err != nil {
				return "", notFound(err, "Client not found")
			}
			return m.DisplayName(), nil
		},
		activity.EntityProject: func(ctx context.Context, userID, id uuid.UUID) (string, error) {
			var m models.ProjectModel
			if err := db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&m).Error; err != nil {
				return "", notFound(err, "Project not found")
			}
			return m.Name, nil
		},
		activity.EntityQuote: func(ctx context.Context, userID, id uuid.UUID) (string, error) {
			var m models.QuoteModel
			if err := db.WithContext(ctx).Select("title", "quote_number").
				Where("user_id = ? AND id = ?", userID, id).First(&m).Error; err != nil {
				return "", notFound(err, quoteNotFound)
			}
			return fmt.Sprintf("%s (%s)", m.Title, m.QuoteNumber), nil
		},
		activity.EntityInvoice: func(ctx context.Context, userID, id uuid.UUID) (string, error) {
			var m models.InvoiceModel
			if err := db.WithContext(ctx).Select("title", "invoice_number").
				Where("user_id = ? AND id = ?", userID, id).First(&m).Error; err != nil {
				return "", notFound(err, invoiceNotFound)
			}
			return fmt.Sprintf("%s (%s)", m.Title, m.InvoiceNumber), nil
		},
		activity.EntityPayment: func(ctx context.Context, userID, id uuid.UUID) (string, error) {
			var m models.InvoicePaymentModel
			if err := db.WithContext(ctx).Model(&models.InvoicePaymentModel{}).
				Joins("JOIN invoices ON invoices.id = invoice_payments.invoice_id").
				Where("invoices.user_id = ? AND invoice_payments.id = ?", userID, id).
				Select("invoice_payments.amount", "invoice_payments.currency").
				First(&m).Error; err != nil {
				return "", notFound(err, "Payment not found")
			}
			return fmt.Sprintf("Payment: %s %s", m.Amount.StringFixed(2), m.Currency), nil
		},
		activity.EntityReminder: func(ctx context.Context, userID, id uuid.UUID) (string, error) {
			var m models.ReminderModel
			if err := db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).First(&m).Error; err != nil {
				return "", notFound(err, "Reminder not found")
			}
			return m.Title, nil
		},
	}
}

var (
	_ billingapp.UserDirectory     = (*GormUserDirectory)(nil)
	_ billingapp.ClientDirectory   = (*GormClientDirectory)(nil)
	_ billingapp.ProjectDirectory  = (*GormProjectDirectory)(nil)
	_ billingapp.ReminderDirectory = (*GormReminderDirectory)(nil)
)
