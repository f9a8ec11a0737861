package billing

import (
	"context"
	"fmt"

	"github.com/freelance/backend/internal/domain/activity"
	"github.com/freelance/backend/internal/domain/billing"
	"github.com/freelance/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// recentInvoicesLimit caps the recent invoices listing
const recentInvoicesLimit = 50

// InvoiceService handles the invoice lifecycle
type InvoiceService struct {
	service
}

// NewInvoiceService creates a new InvoiceService
func NewInvoiceService(cfg ServiceConfig) *InvoiceService {
	return &InvoiceService{service: newService(cfg)}
}

// Create creates a draft invoice
func (s *InvoiceService) Create(ctx context.Context, userID uuid.UUID, req CreateInvoiceRequest, requester billing.Requester) (*InvoiceResponse, error) {
	var invoice *billing.Invoice
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		invoice, err = s.create(ctx, repos, userID, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("invoice created",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
		zap.String("user_id", userID.String()))
	s.record(ctx, auditEntry(userID, "invoice_created", activity.Invoice(invoice.ID),
		fmt.Sprintf("Created invoice %s", invoice.InvoiceNumber), requester))

	resp := ToInvoiceResponse(invoice, s.now())
	return &resp, nil
}

// create validates the request and stores a new invoice on the given transaction
func (s *InvoiceService) create(ctx context.Context, repos TransactionalRepositories, userID uuid.UUID, req CreateInvoiceRequest) (*billing.Invoice, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	if req.ClientID == nil {
		return nil, shared.InvalidArgument("Client ID is required")
	}
	if err := s.ensureClient(ctx, userID, *req.ClientID); err != nil {
		return nil, err
	}
	if err := s.ensureProject(ctx, userID, req.ProjectID); err != nil {
		return nil, err
	}
	if req.QuoteID != nil {
		if _, err := repos.QuoteRepo().FindByIDForUser(ctx, userID, *req.QuoteID); err != nil {
			return nil, err
		}
	}
	issue, due := req.IssueDate.ptr(), req.DueDate.ptr()
	if issue == nil || due == nil {
		return nil, shared.InvalidArgument("Issue date and due date are required")
	}
	currency, err := s.parseCurrency(req.Currency)
	if err != nil {
		return nil, err
	}
	tax, err := nonNegative("Tax amount", req.TaxAmount, decimal.Zero)
	if err != nil {
		return nil, err
	}
	discount, err := nonNegative("Discount amount", req.DiscountAmount, decimal.Zero)
	if err != nil {
		return nil, err
	}

	number, err := s.sequencer.NextInvoiceNumber(ctx, repos.SequenceRepo())
	if err != nil {
		return nil, err
	}
	hash, err := s.sequencer.NextPublicHash()
	if err != nil {
		return nil, err
	}

	invoice, err := billing.NewInvoice(s.ids, billing.NewInvoiceParams{
		ID:         s.ids.NewID(),
		UserID:     userID,
		Number:     number,
		PublicHash: hash,
		Details: billing.InvoiceDetails{
			ClientID:       *req.ClientID,
			ProjectID:      req.ProjectID,
			QuoteID:        req.QuoteID,
			Title:          req.Title,
			Description:    req.Description,
			IssueDate:      *issue,
			DueDate:        *due,
			PaymentTerms:   req.PaymentTerms,
			TaxAmount:      tax,
			DiscountAmount: discount,
			Currency:       currency,
			Notes:          req.Notes,
			Terms:          req.Terms,
			PaymentLink:    req.PaymentLink,
		},
		Items: toLineItemInputs(req.Items),
	}, s.now())
	if err != nil {
		return nil, err
	}
	if err := repos.InvoiceRepo().Save(ctx, invoice); err != nil {
		return nil, err
	}
	return invoice, nil
}

// GetByID retrieves an invoice owned by the user
func (s *InvoiceService) GetByID(ctx context.Context, userID, invoiceID uuid.UUID) (*InvoiceResponse, error) {
	invoice, err := s.invoices.FindByIDForUser(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(invoice, s.now())
	return &resp, nil
}

// Summary returns the condensed view of one invoice
func (s *InvoiceService) Summary(ctx context.Context, userID, invoiceID uuid.UUID) (*InvoiceSummaryResponse, error) {
	invoice, err := s.invoices.FindByIDForUser(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	resp := ToInvoiceSummaryResponse(invoice, now)
	if s.reminders != nil {
		next, err := s.reminders.NextFor(ctx, userID, activity.Invoice(invoice.ID), now)
		if err != nil {
			return nil, err
		}
		resp.NextReminderDate = NewDate(next)
	}
	return &resp, nil
}

// List retrieves a page of the user's invoices
func (s *InvoiceService) List(ctx context.Context, userID uuid.UUID, filter InvoiceListFilter) ([]InvoiceResponse, int64, error) {
	domainFilter := billing.InvoiceFilter{
		Filter:    normalizeListFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir),
		ClientID:  filter.ClientID,
		ProjectID: filter.ProjectID,
		QuoteID:   filter.QuoteID,
		IssueFrom: filter.IssueFrom,
		IssueTo:   filter.IssueTo,
		DueFrom:   filter.DueFrom,
		DueTo:     filter.DueTo,
	}
	if filter.Status != "" {
		status, err := billing.ParseInvoiceStatus(filter.Status)
		if err != nil {
			return nil, 0, err
		}
		domainFilter.Status = &status
	}

	invoices, err := s.invoices.FindAllForUser(ctx, userID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.invoices.CountForUser(ctx, userID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return s.toResponses(invoices), total, nil
}

func (s *InvoiceService) toResponses(invoices []billing.Invoice) []InvoiceResponse {
	now := s.now()
	out := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		out[i] = ToInvoiceResponse(&invoices[i], now)
	}
	return out
}

// Update modifies a draft invoice
func (s *InvoiceService) Update(ctx context.Context, userID, invoiceID uuid.UUID, req UpdateInvoiceRequest, requester billing.Requester) (*InvoiceResponse, error) {
	var invoice *billing.Invoice
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		invoice, err = repos.InvoiceRepo().FindByIDForUpdate(ctx, userID, invoiceID)
		if err != nil {
			return err
		}
		if invoice.Status != billing.InvoiceStatusDraft {
			return shared.InvalidState("Only draft invoices can be modified")
		}
		details, err := s.mergeInvoiceDetails(ctx, repos, userID, invoice.Details(), req)
		if err != nil {
			return err
		}
		if err := invoice.Update(s.ids, details, toLineItemInputs(req.Items), s.now()); err != nil {
			return err
		}
		return repos.InvoiceRepo().Save(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, auditEntry(userID, "invoice_updated", activity.Invoice(invoice.ID),
		fmt.Sprintf("Updated invoice %s", invoice.InvoiceNumber), requester))
	resp := ToInvoiceResponse(invoice, s.now())
	return &resp, nil
}

func (s *InvoiceService) mergeInvoiceDetails(ctx context.Context, repos TransactionalRepositories, userID uuid.UUID, d billing.InvoiceDetails, req UpdateInvoiceRequest) (billing.InvoiceDetails, error) {
	if req.ClientID != nil && *req.ClientID != d.ClientID {
		if err := s.ensureClient(ctx, userID, *req.ClientID); err != nil {
			return d, err
		}
		d.ClientID = *req.ClientID
	}

	projectID, err := optionalLink("project ID", req.ProjectID, d.ProjectID)
	if err != nil {
		return d, err
	}
	if req.ProjectID != nil {
		if err := s.ensureProject(ctx, userID, projectID); err != nil {
			return d, err
		}
	}
	d.ProjectID = projectID

	quoteID, err := optionalLink("quote ID", req.QuoteID, d.QuoteID)
	if err != nil {
		return d, err
	}
	if req.QuoteID != nil && quoteID != nil {
		if _, err := repos.QuoteRepo().FindByIDForUser(ctx, userID, *quoteID); err != nil {
			return d, err
		}
	}
	d.QuoteID = quoteID

	if req.Title != nil {
		d.Title = *req.Title
	}
	if req.Description != nil {
		d.Description = *req.Description
	}
	if t := req.IssueDate.ptr(); t != nil {
		d.IssueDate = *t
	}
	if t := req.DueDate.ptr(); t != nil {
		d.DueDate = *t
	}
	if req.PaymentTerms != nil {
		d.PaymentTerms = *req.PaymentTerms
	}
	if req.Currency != nil {
		c, err := s.parseCurrency(*req.Currency)
		if err != nil {
			return d, err
		}
		d.Currency = c
	}
	if d.TaxAmount, err = nonNegative("Tax amount", req.TaxAmount, d.TaxAmount); err != nil {
		return d, err
	}
	if d.DiscountAmount, err = nonNegative("Discount amount", req.DiscountAmount, d.DiscountAmount); err != nil {
		return d, err
	}
	if req.Notes != nil {
		d.Notes = *req.Notes
	}
	if req.Terms != nil {
		d.Terms = *req.Terms
	}
	if req.PaymentLink != nil {
		d.PaymentLink = *req.PaymentLink
	}
	return d, nil
}

// Delete removes a draft invoice
func (s *InvoiceService) Delete(ctx context.Context, userID, invoiceID uuid.UUID, requester billing.Requester) error {
	var number string
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, userID, invoiceID)
		if err != nil {
			return err
		}
		if err := invoice.EnsureDeletable(); err != nil {
			return err
		}
		number = invoice.InvoiceNumber
		return repos.InvoiceRepo().DeleteForUser(ctx, userID, invoiceID)
	})
	if err != nil {
		return err
	}
	s.record(ctx, auditEntry(userID, "invoice_deleted", activity.Invoice(invoiceID),
		fmt.Sprintf("Deleted invoice %s", number), requester))
	return nil
}

// Send marks a draft invoice with items as sent
func (s *InvoiceService) Send(ctx context.Context, userID, invoiceID uuid.UUID, requester billing.Requester) (*InvoiceResponse, error) {
	invoice, err := s.mutate(ctx, userID, invoiceID, func(inv *billing.Invoice) error {
		return inv.Send(s.now())
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, auditEntry(userID, "invoice_sent", activity.Invoice(invoice.ID),
		fmt.Sprintf("Sent invoice %s", invoice.InvoiceNumber), requester))
	resp := ToInvoiceResponse(invoice, s.now())
	return &resp, nil
}

// Cancel cancels an invoice that is neither paid nor cancelled
func (s *InvoiceService) Cancel(ctx context.Context, userID, invoiceID uuid.UUID, requester billing.Requester) (*InvoiceResponse, error) {
	invoice, err := s.mutate(ctx, userID, invoiceID, func(inv *billing.Invoice) error {
		return inv.Cancel(s.now())
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("invoice cancelled", zap.String("invoice_id", invoice.ID.String()))
	s.record(ctx, auditEntry(userID, "invoice_cancelled", activity.Invoice(invoice.ID),
		fmt.Sprintf("Cancelled invoice %s", invoice.InvoiceNumber), requester))
	resp := ToInvoiceResponse(invoice, s.now())
	return &resp, nil
}

// UpdateStatus is the administrative status override
func (s *InvoiceService) UpdateStatus(ctx context.Context, userID, invoiceID uuid.UUID, raw string, requester billing.Requester) (*InvoiceResponse, error) {
	status, err := billing.ParseInvoiceStatus(raw)
	if err != nil {
		return nil, err
	}
	invoice, err := s.mutate(ctx, userID, invoiceID, func(inv *billing.Invoice) error {
		return inv.ChangeStatus(status, s.now())
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, auditEntry(userID, "invoice_status_changed", activity.Invoice(invoice.ID),
		fmt.Sprintf("Changed invoice %s status to %s", invoice.InvoiceNumber, status), requester))
	resp := ToInvoiceResponse(invoice, s.now())
	return &resp, nil
}

func (s *InvoiceService) mutate(ctx context.Context, userID, invoiceID uuid.UUID, fn func(*billing.Invoice) error) (*billing.Invoice, error) {
	var invoice *billing.Invoice
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		invoice, err = repos.InvoiceRepo().FindByIDForUpdate(ctx, userID, invoiceID)
		if err != nil {
			return err
		}
		if err := fn(invoice); err != nil {
			return err
		}
		return repos.InvoiceRepo().Save(ctx, invoice)
	})
	return invoice, err
}

// View returns an invoice through its public link and stamps the first view
func (s *InvoiceService) View(ctx context.Context, hash string) (*InvoiceResponse, error) {
	var invoice *billing.Invoice
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		invoice, err = repos.InvoiceRepo().FindByPublicHashForUpdate(ctx, hash)
		if err != nil {
			return err
		}
		if invoice.MarkViewed(s.now()) {
			return repos.InvoiceRepo().Save(ctx, invoice)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := ToInvoiceResponse(invoice, s.now())
	return &resp, nil
}

// Duplicate copies an invoice into a new draft issued today
func (s *InvoiceService) Duplicate(ctx context.Context, userID, invoiceID uuid.UUID, requester billing.Requester) (*InvoiceResponse, error) {
	var dup *billing.Invoice
	var sourceNumber string
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		source, err := repos.InvoiceRepo().FindByIDForUser(ctx, userID, invoiceID)
		if err != nil {
			return err
		}
		sourceNumber = source.InvoiceNumber
		number, err := s.sequencer.NextInvoiceNumber(ctx, repos.SequenceRepo())
		if err != nil {
			return err
		}
		hash, err := s.sequencer.NextPublicHash()
		if err != nil {
			return err
		}
		dup = source.Duplicate(s.ids, number, hash, s.now())
		return repos.InvoiceRepo().Save(ctx, dup)
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, auditEntry(userID, "invoice_duplicated", activity.Invoice(dup.ID),
		fmt.Sprintf("Duplicated invoice %s as %s", sourceNumber, dup.InvoiceNumber), requester))
	resp := ToInvoiceResponse(dup, s.now())
	return &resp, nil
}

// Overdue lists sent, unpaid invoices past their due date
func (s *InvoiceService) Overdue(ctx context.Context, userID uuid.UUID) ([]InvoiceResponse, error) {
	invoices, err := s.invoices.FindOverdue(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}
	return s.toResponses(invoices), nil
}

// Recent lists the newest invoices
func (s *InvoiceService) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]InvoiceResponse, error) {
	if limit <= 0 || limit > recentInvoicesLimit {
		limit = 10
	}
	invoices, err := s.invoices.FindRecent(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return s.toResponses(invoices), nil
}

// Stats aggregates the user's invoicing
func (s *InvoiceService) Stats(ctx context.Context, userID uuid.UUID) (*InvoiceStatsResponse, error) {
	stats, err := s.invoices.StatsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	overdue, err := s.invoices.FindOverdue(ctx, userID, s.now())
	if err != nil {
		return nil, err
	}

	resp := &InvoiceStatsResponse{
		Count:            stats.Count,
		CountByStatus:    make(map[string]int64, len(stats.CountByStatus)),
		TotalInvoiced:    stats.TotalInvoiced,
		TotalPaid:        stats.TotalPaid,
		TotalOutstanding: stats.TotalOutstanding,
		OverdueCount:     len(overdue),
		OverdueAmount:    decimal.Zero,
	}
	for status, n := range stats.CountByStatus {
		resp.CountByStatus[string(status)] = n
	}
	for _, inv := range overdue {
		resp.OverdueAmount = resp.OverdueAmount.Add(inv.BalanceDue)
	}
	return resp, nil
}
