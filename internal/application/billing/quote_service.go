package billing

import (
	"context"
	"fmt"

	"github.com/freelance/backend/internal/domain/activity"
	"github.com/freelance/backend/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// QuoteService handles the quote lifecycle
type QuoteService struct {
	service
}

// NewQuoteService creates a new QuoteService
func NewQuoteService(cfg ServiceConfig) *QuoteService {
	return &QuoteService{service: newService(cfg)}
}

// Create creates a draft quote with a fresh number and share hash
func (s *QuoteService) Create(ctx context.Context, userID uuid.UUID, req CreateQuoteRequest, requester billing.Requester) (*QuoteResponse, error) {
	if err := s.ensureUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.ensureClient(ctx, userID, req.ClientID); err != nil {
		return nil, err
	}
	if err := s.ensureProject(ctx, userID, req.ProjectID); err != nil {
		return nil, err
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

	details := billing.QuoteDetails{
		ClientID:       req.ClientID,
		ProjectID:      req.ProjectID,
		Title:          req.Title,
		Description:    req.Description,
		ValidUntil:     req.ValidUntil.ptr(),
		TaxAmount:      tax,
		DiscountAmount: discount,
		Currency:       currency,
		Notes:          req.Notes,
		Terms:          req.Terms,
	}

	var quote *billing.Quote
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		number, err := s.sequencer.NextQuoteNumber(ctx, repos.SequenceRepo())
		if err != nil {
			return err
		}
		hash, err := s.sequencer.NextPublicHash()
		if err != nil {
			return err
		}
		quote, err = billing.NewQuote(s.ids, billing.NewQuoteParams{
			ID:         s.ids.NewID(),
			UserID:     userID,
			Number:     number,
			PublicHash: hash,
			Details:    details,
			Items:      toLineItemInputs(req.Items),
		}, s.now())
		if err != nil {
			return err
		}
		if err := repos.QuoteRepo().Save(ctx, quote); err != nil {
			return err
		}
		return s.appendHistory(ctx, repos, quote.ID, billing.HistoryActionCreated, "Quote created", requester)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("quote created",
		zap.String("quote_id", quote.ID.String()),
		zap.String("quote_number", quote.QuoteNumber),
		zap.String("user_id", userID.String()))
	s.record(ctx, auditEntry(userID, "quote_created", activity.Quote(quote.ID),
		fmt.Sprintf("Created quote %s", quote.QuoteNumber), requester))

	resp := ToQuoteResponse(quote, s.now())
	return &resp, nil
}

// GetByID retrieves a quote owned by the user
func (s *QuoteService) GetByID(ctx context.Context, userID, quoteID uuid.UUID) (*QuoteResponse, error) {
	quote, err := s.quotes.FindByIDForUser(ctx, userID, quoteID)
	if err != nil {
		return nil, err
	}
	resp := ToQuoteResponse(quote, s.now())
	return &resp, nil
}

// List retrieves a page of the user's quotes
func (s *QuoteService) List(ctx context.Context, userID uuid.UUID, filter QuoteListFilter) ([]QuoteResponse, int64, error) {
	domainFilter := billing.QuoteFilter{
		Filter:    normalizeListFilter(filter.Page, filter.PageSize, filter.OrderBy, filter.OrderDir),
		ClientID:  filter.ClientID,
		ProjectID: filter.ProjectID,
	}
	if filter.Status != "" {
		status, err := billing.ParseQuoteStatus(filter.Status)
		if err != nil {
			return nil, 0, err
		}
		domainFilter.Status = &status
	}

	quotes, err := s.quotes.FindAllForUser(ctx, userID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.quotes.CountForUser(ctx, userID, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	now := s.now()
	out := make([]QuoteResponse, len(quotes))
	for i := range quotes {
		out[i] = ToQuoteResponse(&quotes[i], now)
	}
	return out, total, nil
}

// Update modifies a draft quote. Present items replace the existing ones.
func (s *QuoteService) Update(ctx context.Context, userID, quoteID uuid.UUID, req UpdateQuoteRequest, requester billing.Requester) (*QuoteResponse, error) {
	var quote *billing.Quote
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		quote, err = repos.QuoteRepo().FindByIDForUpdate(ctx, userID, quoteID)
		if err != nil {
			return err
		}
		details, err := s.mergeQuoteDetails(ctx, userID, quote.Details(), req)
		if err != nil {
			return err
		}
		if err := quote.Update(s.ids, details, toLineItemInputs(req.Items), s.now()); err != nil {
			return err
		}
		if err := repos.QuoteRepo().Save(ctx, quote); err != nil {
			return err
		}
		return s.appendHistory(ctx, repos, quote.ID, billing.HistoryActionUpdated, "Quote updated", requester)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, auditEntry(userID, "quote_updated", activity.Quote(quote.ID),
		fmt.Sprintf("Updated quote %s", quote.QuoteNumber), requester))
	resp := ToQuoteResponse(quote, s.now())
	return &resp, nil
}

func (s *QuoteService) mergeQuoteDetails(ctx context.Context, userID uuid.UUID, d billing.QuoteDetails, req UpdateQuoteRequest) (billing.QuoteDetails, error) {
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

	if req.Title != nil {
		d.Title = *req.Title
	}
	if req.Description != nil {
		d.Description = *req.Description
	}
	if req.ValidUntil != nil {
		d.ValidUntil = req.ValidUntil.ptr()
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
	return d, nil
}

// Delete removes a draft quote
func (s *QuoteService) Delete(ctx context.Context, userID, quoteID uuid.UUID, requester billing.Requester) error {
	var number string
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		quote, err := repos.QuoteRepo().FindByIDForUpdate(ctx, userID, quoteID)
		if err != nil {
			return err
		}
		if err := quote.EnsureDeletable(); err != nil {
			return err
		}
		number = quote.QuoteNumber
		return repos.QuoteRepo().DeleteForUser(ctx, userID, quoteID)
	})
	if err != nil {
		return err
	}
	s.record(ctx, auditEntry(userID, "quote_deleted", activity.Quote(quoteID),
		fmt.Sprintf("Deleted quote %s", number), requester))
	return nil
}

// Send marks a draft quote with items as sent
func (s *QuoteService) Send(ctx context.Context, userID, quoteID uuid.UUID, requester billing.Requester) (*QuoteResponse, error) {
	quote, err := s.mutate(ctx, userID, quoteID, func(q *billing.Quote) error {
		return q.Send(s.now())
	}, billing.HistoryActionSent, "Quote sent to client", requester)
	if err != nil {
		return nil, err
	}
	s.record(ctx, auditEntry(userID, "quote_sent", activity.Quote(quote.ID),
		fmt.Sprintf("Sent quote %s", quote.QuoteNumber), requester))
	resp := ToQuoteResponse(quote, s.now())
	return &resp, nil
}

// UpdateStatus is the administrative status override
func (s *QuoteService) UpdateStatus(ctx context.Context, userID, quoteID uuid.UUID, raw string, requester billing.Requester) (*QuoteResponse, error) {
	status, err := billing.ParseQuoteStatus(raw)
	if err != nil {
		return nil, err
	}
	quote, err := s.mutate(ctx, userID, quoteID, func(q *billing.Quote) error {
		return q.ChangeStatus(status, s.now())
	}, billing.HistoryActionStatusChanged, fmt.Sprintf("Quote status changed to %s", status), requester)
	if err != nil {
		return nil, err
	}
	s.record(ctx, auditEntry(userID, "quote_status_changed", activity.Quote(quote.ID),
		fmt.Sprintf("Changed quote %s status to %s", quote.QuoteNumber, status), requester))
	resp := ToQuoteResponse(quote, s.now())
	return &resp, nil
}

// mutate locks a quote, applies fn, saves it and appends a history entry
func (s *QuoteService) mutate(ctx context.Context, userID, quoteID uuid.UUID, fn func(*billing.Quote) error, action, description string, requester billing.Requester) (*billing.Quote, error) {
	var quote *billing.Quote
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		quote, err = repos.QuoteRepo().FindByIDForUpdate(ctx, userID, quoteID)
		if err != nil {
			return err
		}
		if err := fn(quote); err != nil {
			return err
		}
		if err := repos.QuoteRepo().Save(ctx, quote); err != nil {
			return err
		}
		return s.appendHistory(ctx, repos, quote.ID, action, description, requester)
	})
	return quote, err
}

// View returns a quote through its public link and records the view
func (s *QuoteService) View(ctx context.Context, hash string, requester billing.Requester) (*QuoteResponse, error) {
	var quote *billing.Quote
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		quote, err = repos.QuoteRepo().FindByPublicHashForUpdate(ctx, hash)
		if err != nil {
			return err
		}
		if quote.MarkViewed(s.now()) {
			if err := repos.QuoteRepo().Save(ctx, quote); err != nil {
				return err
			}
		}
		return s.appendHistory(ctx, repos, quote.ID, billing.HistoryActionViewed, "Quote viewed by client", requester)
	})
	if err != nil {
		return nil, err
	}
	resp := ToQuoteResponse(quote, s.now())
	return &resp, nil
}

// Accept records the client's acceptance through the public link
func (s *QuoteService) Accept(ctx context.Context, hash string, requester billing.Requester) (*QuoteResponse, error) {
	quote, err := s.respond(ctx, hash, func(q *billing.Quote) error {
		return q.Accept(s.now())
	}, billing.HistoryActionAccepted, "Quote accepted by client", requester)
	if err != nil {
		return nil, err
	}
	s.logger.Info("quote accepted",
		zap.String("quote_id", quote.ID.String()),
		zap.String("ip", requester.IPAddress))
	s.record(ctx, auditEntry(quote.UserID, "quote_accepted", activity.Quote(quote.ID),
		fmt.Sprintf("Quote %s accepted by client", quote.QuoteNumber), requester))
	resp := ToQuoteResponse(quote, s.now())
	return &resp, nil
}

// Reject records the client's refusal through the public link
func (s *QuoteService) Reject(ctx context.Context, hash, reason string, requester billing.Requester) (*QuoteResponse, error) {
	description := "Quote rejected by client"
	if reason != "" {
		description = fmt.Sprintf("%s: %s", description, reason)
	}
	quote, err := s.respond(ctx, hash, func(q *billing.Quote) error {
		return q.Reject(s.now())
	}, billing.HistoryActionRejected, description, requester)
	if err != nil {
		return nil, err
	}
	s.record(ctx, auditEntry(quote.UserID, "quote_rejected", activity.Quote(quote.ID),
		fmt.Sprintf("Quote %s rejected by client", quote.QuoteNumber), requester))
	resp := ToQuoteResponse(quote, s.now())
	return &resp, nil
}

func (s *QuoteService) respond(ctx context.Context, hash string, fn func(*billing.Quote) error, action, description string, requester billing.Requester) (*billing.Quote, error) {
	var quote *billing.Quote
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		quote, err = repos.QuoteRepo().FindByPublicHashForUpdate(ctx, hash)
		if err != nil {
			return err
		}
		if err := fn(quote); err != nil {
			return err
		}
		if err := repos.QuoteRepo().Save(ctx, quote); err != nil {
			return err
		}
		return s.appendHistory(ctx, repos, quote.ID, action, description, requester)
	})
	return quote, err
}

// Duplicate copies a quote into a new draft
func (s *QuoteService) Duplicate(ctx context.Context, userID, quoteID uuid.UUID, requester billing.Requester) (*QuoteResponse, error) {
	var dup *billing.Quote
	var sourceNumber string
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		source, err := repos.QuoteRepo().FindByIDForUser(ctx, userID, quoteID)
		if err != nil {
			return err
		}
		sourceNumber = source.QuoteNumber
		number, err := s.sequencer.NextQuoteNumber(ctx, repos.SequenceRepo())
		if err != nil {
			return err
		}
		hash, err := s.sequencer.NextPublicHash()
		if err != nil {
			return err
		}
		dup = source.Duplicate(s.ids, number, hash, s.now())
		if err := repos.QuoteRepo().Save(ctx, dup); err != nil {
			return err
		}
		return s.appendHistory(ctx, repos, dup.ID, billing.HistoryActionCreated,
			fmt.Sprintf("Quote duplicated from %s", sourceNumber), requester)
	})
	if err != nil {
		return nil, err
	}
	s.record(ctx, auditEntry(userID, "quote_duplicated", activity.Quote(dup.ID),
		fmt.Sprintf("Duplicated quote %s as %s", sourceNumber, dup.QuoteNumber), requester))
	resp := ToQuoteResponse(dup, s.now())
	return &resp, nil
}

// History returns the quote's audit trail, newest first
func (s *QuoteService) History(ctx context.Context, userID, quoteID uuid.UUID) ([]QuoteHistoryResponse, error) {
	if _, err := s.quotes.FindByIDForUser(ctx, userID, quoteID); err != nil {
		return nil, err
	}
	entries, err := s.history.FindByQuote(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	out := make([]QuoteHistoryResponse, len(entries))
	for i, e := range entries {
		out[i] = ToQuoteHistoryResponse(e)
	}
	return out, nil
}

// Expired lists sent quotes whose validity date has passed
func (s *QuoteService) Expired(ctx context.Context, userID uuid.UUID) ([]QuoteResponse, error) {
	now := s.now()
	quotes, err := s.quotes.FindExpired(ctx, userID, now)
	if err != nil {
		return nil, err
	}
	out := make([]QuoteResponse, len(quotes))
	for i := range quotes {
		out[i] = ToQuoteResponse(&quotes[i], now)
	}
	return out, nil
}
