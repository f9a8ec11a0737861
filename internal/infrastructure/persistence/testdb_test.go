package persistence

import (
	"testing"
	"time"

	"github.com/freelance/backend/internal/domain/billing"
	"github.com/freelance/backend/internal/domain/shared"
	"github.com/freelance/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testNow = time.Date(2024, 10, 15, 9, 30, 0, 0, time.UTC)

// setupBillingTestDB opens an in-memory SQLite database with every billing table
func setupBillingTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	// Every connection to :memory: is a separate database
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.QuoteModel{},
		&models.QuoteItemModel{},
		&models.QuoteHistoryModel{},
		&models.InvoiceModel{},
		&models.InvoiceItemModel{},
		&models.InvoicePaymentModel{},
		&models.NumberSequenceModel{},
		&models.ActivityLogModel{},
		&models.UserModel{},
		&models.ClientModel{},
		&models.ProjectModel{},
		&models.ReminderModel{},
	))
	return db
}

func decp(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func lineItem(desc, qty, price string) billing.LineItemInput {
	return billing.LineItemInput{Description: desc, Quantity: decp(qty), UnitPrice: decp(price)}
}

func buildQuote(t *testing.T, userID uuid.UUID, number string, items ...billing.LineItemInput) *billing.Quote {
	t.Helper()
	q, err := billing.NewQuote(shared.UUIDGenerator{}, billing.NewQuoteParams{
		ID:         uuid.New(),
		UserID:     userID,
		Number:     number,
		PublicHash: uuid.NewString(),
		Details: billing.QuoteDetails{
			ClientID: uuid.New(),
			Title:    "Website redesign",
			Currency: "USD",
		},
		Items: items,
	}, testNow)
	require.NoError(t, err)
	return q
}

func buildInvoice(t *testing.T, userID uuid.UUID, number string, items ...billing.LineItemInput) *billing.Invoice {
	t.Helper()
	inv, err := billing.NewInvoice(shared.UUIDGenerator{}, billing.NewInvoiceParams{
		ID:         uuid.New(),
		UserID:     userID,
		Number:     number,
		PublicHash: uuid.NewString(),
		Details: billing.InvoiceDetails{
			ClientID:  uuid.New(),
			Title:     "October retainer",
			IssueDate: time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC),
			DueDate:   time.Date(2024, 10, 31, 0, 0, 0, 0, time.UTC),
			Currency:  "USD",
		},
		Items: items,
	}, testNow)
	require.NoError(t, err)
	return inv
}
