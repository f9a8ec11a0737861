package billing

import (
	"context"
	"time"

	"github.com/freelance/backend/internal/domain/activity"
	"github.com/freelance/backend/internal/domain/billing"
	"github.com/freelance/backend/internal/domain/shared"
	"github.com/freelance/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Settings are the configurable billing defaults
type Settings struct {
	DefaultCurrency valueobject.Currency
	DefaultDueDays  int
	QuotePrefix     string
	InvoicePrefix   string
}

// DefaultSettings returns USD, 30 day terms and the QUO/INV prefixes
func DefaultSettings() Settings {
	return Settings{
		DefaultCurrency: valueobject.DefaultCurrency,
		DefaultDueDays:  billing.DefaultPaymentTermDays,
		QuotePrefix:     billing.QuoteNumberPrefix,
		InvoicePrefix:   billing.InvoiceNumberPrefix,
	}
}

// ServiceConfig holds the dependencies shared by the billing services
type ServiceConfig struct {
	// Scope runs every mutation in one transaction
	Scope TransactionScope

	// Read-side repositories used outside transactions
	Quotes   billing.QuoteRepository
	History  billing.QuoteHistoryRepository
	Invoices billing.InvoiceRepository
	Payments billing.PaymentRepository

	Users     UserDirectory
	Clients   ClientDirectory
	Projects  ProjectDirectory
	Reminders ReminderDirectory
	Audit     AuditSink

	Clock    shared.Clock
	IDs      shared.IDGenerator
	Settings Settings
	Logger   *zap.Logger
}

// service is the common base of the billing services
type service struct {
	scope     TransactionScope
	quotes    billing.QuoteRepository
	history   billing.QuoteHistoryRepository
	invoices  billing.InvoiceRepository
	payments  billing.PaymentRepository
	users     UserDirectory
	clients   ClientDirectory
	projects  ProjectDirectory
	reminders ReminderDirectory
	audit     AuditSink
	clock     shared.Clock
	ids       shared.IDGenerator
	sequencer *NumberSequencer
	settings  Settings
	logger    *zap.Logger
}

func newService(cfg ServiceConfig) service {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = shared.SystemClock{}
	}
	ids := cfg.IDs
	if ids == nil {
		ids = shared.UUIDGenerator{}
	}
	audit := cfg.Audit
	if audit == nil {
		audit = NopAuditSink{}
	}
	settings := cfg.Settings
	defaults := DefaultSettings()
	if settings.DefaultCurrency == "" {
		settings.DefaultCurrency = defaults.DefaultCurrency
	}
	if settings.DefaultDueDays <= 0 {
		settings.DefaultDueDays = defaults.DefaultDueDays
	}
	if settings.QuotePrefix == "" {
		settings.QuotePrefix = defaults.QuotePrefix
	}
	if settings.InvoicePrefix == "" {
		settings.InvoicePrefix = defaults.InvoicePrefix
	}
	return service{
		scope:     cfg.Scope,
		quotes:    cfg.Quotes,
		history:   cfg.History,
		invoices:  cfg.Invoices,
		payments:  cfg.Payments,
		users:     cfg.Users,
		clients:   cfg.Clients,
		projects:  cfg.Projects,
		reminders: cfg.Reminders,
		audit:     audit,
		clock:     clock,
		ids:       ids,
		sequencer: NewNumberSequencer(clock, settings.QuotePrefix, settings.InvoicePrefix),
		settings:  settings,
		logger:    logger,
	}
}

func (s *service) now() time.Time {
	return s.clock.Now()
}

// ensureUser rejects callers whose account no longer exists
func (s *service) ensureUser(ctx context.Context, userID uuid.UUID) error {
	if s.users == nil {
		return nil
	}
	ok, err := s.users.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return shared.NotFound("User not found")
	}
	return nil
}

func (s *service) ensureClient(ctx context.Context, userID, clientID uuid.UUID) error {
	if clientID == uuid.Nil {
		return shared.InvalidArgument("Client ID is required")
	}
	ok, err := s.clients.BelongsTo(ctx, clientID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return shared.NotFound("Client not found")
	}
	return nil
}

func (s *service) ensureProject(ctx context.Context, userID uuid.UUID, projectID *uuid.UUID) error {
	if projectID == nil {
		return nil
	}
	ok, err := s.projects.BelongsTo(ctx, *projectID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return shared.NotFound("Project not found")
	}
	return nil
}

// record hands entries to the audit sink once the transaction committed
func (s *service) record(ctx context.Context, entries ...AuditEntry) {
	for _, e := range entries {
		s.audit.Record(ctx, e)
	}
}

func auditEntry(userID uuid.UUID, action string, entity activity.RelatedEntity, description string, requester billing.Requester) AuditEntry {
	return AuditEntry{
		UserID:      userID,
		Action:      action,
		Entity:      entity,
		Description: description,
		Requester:   requester,
	}
}

func (s *service) appendHistory(ctx context.Context, repos TransactionalRepositories, quoteID uuid.UUID, action, description string, requester billing.Requester) error {
	entry := billing.NewQuoteHistory(s.ids.NewID(), quoteID, action, description, requester, s.now())
	return repos.QuoteHistoryRepo().Append(ctx, entry)
}

func (s *service) parseCurrency(code string) (valueobject.Currency, error) {
	c, err := valueobject.ParseCurrency(code, s.settings.DefaultCurrency)
	if err != nil {
		return "", shared.InvalidArgument("Invalid currency: " + code)
	}
	return c, nil
}

// nonNegative reads an optional document-level amount
func nonNegative(field string, v *decimal.Decimal, current decimal.Decimal) (decimal.Decimal, error) {
	if v == nil {
		return current, nil
	}
	if v.IsNegative() {
		return decimal.Zero, shared.InvalidArgument(field + " cannot be negative")
	}
	return *v, nil
}

// optionalLink parses a link field where "" clears it and nil keeps the current value
func optionalLink(field string, raw *string, current *uuid.UUID) (*uuid.UUID, error) {
	if raw == nil {
		return current, nil
	}
	if *raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*raw)
	if err != nil {
		return nil, shared.InvalidArgument("Invalid " + field)
	}
	return &id, nil
}

func normalizeListFilter(page, pageSize int, orderBy, orderDir string) shared.Filter {
	return shared.Filter{Page: page, PageSize: pageSize, OrderBy: orderBy, OrderDir: orderDir}.Normalized()
}
