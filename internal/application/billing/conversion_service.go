package billing

import (
	"context"
	"fmt"

	"github.com/freelance/backend/internal/domain/activity"
	"github.com/freelance/backend/internal/domain/billing"
	"github.com/freelance/backend/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConversionService turns accepted quotes into invoices
type ConversionService struct {
	invoices *InvoiceService
}

// NewConversionService creates a ConversionService on top of the invoice service
func NewConversionService(invoices *InvoiceService) *ConversionService {
	return &ConversionService{invoices: invoices}
}

// CreateInvoiceFromQuote creates a draft invoice from an accepted quote.
// Without an override the invoice copies the quote's financials and items.
// An override is used as given, except that the quote link is forced and
// the client defaults to the quote's.
func (s *ConversionService) CreateInvoiceFromQuote(ctx context.Context, userID, quoteID uuid.UUID, override *CreateInvoiceRequest, requester billing.Requester) (*InvoiceResponse, error) {
	svc := s.invoices
	var invoice *billing.Invoice
	var quoteNumber string
	err := svc.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		quote, err := repos.QuoteRepo().FindByIDForUpdate(ctx, userID, quoteID)
		if err != nil {
			return err
		}
		if quote.Status != billing.QuoteStatusAccepted {
			return shared.InvalidState("Cannot create invoice from a non-accepted quote")
		}
		quoteNumber = quote.QuoteNumber

		var req CreateInvoiceRequest
		if override != nil {
			req = *override
		} else {
			req = svc.invoiceRequestFromQuote(quote)
		}
		req.QuoteID = &quote.ID
		if req.ClientID == nil {
			clientID := quote.ClientID
			req.ClientID = &clientID
		}
		invoice, err = svc.create(ctx, repos, userID, req)
		return err
	})
	if err != nil {
		return nil, err
	}

	svc.logger.Info("invoice created from quote",
		zap.String("quote_id", quoteID.String()),
		zap.String("invoice_id", invoice.ID.String()))
	svc.record(ctx, auditEntry(userID, "invoice_created", activity.Invoice(invoice.ID),
		fmt.Sprintf("Created invoice %s from quote %s", invoice.InvoiceNumber, quoteNumber), requester))

	resp := ToInvoiceResponse(invoice, svc.now())
	return &resp, nil
}

// invoiceRequestFromQuote synthesizes the default conversion request
func (s *InvoiceService) invoiceRequestFromQuote(q *billing.Quote) CreateInvoiceRequest {
	now := s.now()
	issue := Date{Time: shared.StartOfDay(now.UTC())}
	due := Date{Time: issue.AddDate(0, 0, s.settings.DefaultDueDays)}
	tax, discount := q.TaxAmount, q.DiscountAmount
	clientID := q.ClientID

	items := make([]LineItemRequest, 0, len(q.Items))
	for _, item := range q.Items.Sorted() {
		in := billing.InputFromItem(item)
		items = append(items, LineItemRequest{
			Description:  in.Description,
			Quantity:     in.Quantity,
			UnitPrice:    in.UnitPrice,
			TaxRate:      in.TaxRate,
			DiscountRate: in.DiscountRate,
			SortOrder:    in.SortOrder,
		})
	}

	return CreateInvoiceRequest{
		ClientID:       &clientID,
		ProjectID:      q.ProjectID,
		Title:          "Invoice for " + q.Title,
		Description:    q.Description,
		IssueDate:      &issue,
		DueDate:        &due,
		TaxAmount:      &tax,
		DiscountAmount: &discount,
		Currency:       q.Currency.String(),
		Notes:          "Invoice created from quote: " + q.QuoteNumber,
		Terms:          q.Terms,
		Items:          items,
	}
}
