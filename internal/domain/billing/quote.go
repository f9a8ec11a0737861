package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/freelance/backend/internal/domain/shared"
	"github.com/freelance/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuoteStatus represents the status of a quote
type QuoteStatus string

const (
	QuoteStatusDraft    QuoteStatus = "draft"
	QuoteStatusSent     QuoteStatus = "sent"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRejected QuoteStatus = "rejected"
	QuoteStatusExpired  QuoteStatus = "expired"
)

// IsValid checks if the status is a valid QuoteStatus
func (s QuoteStatus) IsValid() bool {
	switch s {
	case QuoteStatusDraft, QuoteStatusSent, QuoteStatusAccepted, QuoteStatusRejected, QuoteStatusExpired:
		return true
	}
	return false
}

// IsTerminal reports whether no further lifecycle transition is possible
func (s QuoteStatus) IsTerminal() bool {
	return s == QuoteStatusAccepted || s == QuoteStatusRejected || s == QuoteStatusExpired
}

// String returns the string representation of QuoteStatus
func (s QuoteStatus) String() string {
	return string(s)
}

// ParseQuoteStatus validates a status coming from a client
func ParseQuoteStatus(raw string) (QuoteStatus, error) {
	s := QuoteStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", shared.InvalidArgument(fmt.Sprintf("Invalid quote status: %s", raw))
	}
	return s, nil
}

// Quote is the aggregate root for a priced proposal
type Quote struct {
	shared.OwnedAggregateRoot
	ClientID       uuid.UUID
	ProjectID      *uuid.UUID
	QuoteNumber    string
	Title          string
	Description    string
	Status         QuoteStatus
	ValidUntil     *time.Time
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
	Currency       valueobject.Currency
	Notes          string
	Terms          string
	SentAt         *time.Time
	AcceptedAt     *time.Time
	ViewedAt       *time.Time
	PublicHash     string
	Items          LineItems
}

// QuoteDetails holds the editable header fields of a quote
type QuoteDetails struct {
	ClientID       uuid.UUID
	ProjectID      *uuid.UUID
	Title          string
	Description    string
	ValidUntil     *time.Time
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	Currency       valueobject.Currency
	Notes          string
	Terms          string
}

// NewQuoteParams carries everything needed to create a quote
type NewQuoteParams struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Number     string
	PublicHash string
	Details    QuoteDetails
	Items      []LineItemInput
}

// NewQuote creates a draft quote with its initial items
func NewQuote(ids shared.IDGenerator, p NewQuoteParams, now time.Time) (*Quote, error) {
	if p.Number == "" {
		return nil, shared.InvalidArgument("Quote number cannot be empty")
	}
	if _, err := ParseDocumentNumber(p.Number); err != nil {
		return nil, shared.InvalidArgument("Invalid quote number: " + p.Number)
	}
	if p.PublicHash == "" {
		return nil, shared.InvalidArgument("Public hash cannot be empty")
	}
	if err := validateDetails(p.Details.Title, p.Details.ClientID); err != nil {
		return nil, err
	}

	q := &Quote{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(p.ID, p.UserID, now),
		QuoteNumber:        p.Number,
		PublicHash:         p.PublicHash,
		Status:             QuoteStatusDraft,
	}
	q.applyDetails(p.Details)

	items, err := buildItems(ids, q.ID, p.Items, now)
	if err != nil {
		return nil, err
	}
	q.Items = items
	q.RecalculateTotals()
	return q, nil
}

func validateDetails(title string, clientID uuid.UUID) error {
	if strings.TrimSpace(title) == "" {
		return shared.InvalidArgument("Title is required")
	}
	if len(title) > 255 {
		return shared.InvalidArgument("Title cannot exceed 255 characters")
	}
	if clientID == uuid.Nil {
		return shared.InvalidArgument("Client ID is required")
	}
	return nil
}

func (q *Quote) applyDetails(d QuoteDetails) {
	q.ClientID = d.ClientID
	q.ProjectID = d.ProjectID
	q.Title = d.Title
	q.Description = d.Description
	if d.ValidUntil != nil {
		v := dateOnly(*d.ValidUntil)
		q.ValidUntil = &v
	} else {
		q.ValidUntil = nil
	}
	q.TaxAmount = Round2(d.TaxAmount)
	q.DiscountAmount = Round2(d.DiscountAmount)
	q.Currency = d.Currency
	if q.Currency == "" {
		q.Currency = valueobject.DefaultCurrency
	}
	q.Notes = d.Notes
	q.Terms = d.Terms
}

// Details returns the current header fields, used as the base of partial updates
func (q *Quote) Details() QuoteDetails {
	return QuoteDetails{
		ClientID:       q.ClientID,
		ProjectID:      q.ProjectID,
		Title:          q.Title,
		Description:    q.Description,
		ValidUntil:     q.ValidUntil,
		TaxAmount:      q.TaxAmount,
		DiscountAmount: q.DiscountAmount,
		Currency:       q.Currency,
		Notes:          q.Notes,
		Terms:          q.Terms,
	}
}

// Update replaces the header fields. A non-nil items slice replaces all items.
func (q *Quote) Update(ids shared.IDGenerator, d QuoteDetails, items []LineItemInput, now time.Time) error {
	if q.Status != QuoteStatusDraft {
		return shared.InvalidState("Only draft quotes can be modified")
	}
	if err := validateDetails(d.Title, d.ClientID); err != nil {
		return err
	}
	if items != nil {
		replaced, err := buildItems(ids, q.ID, items, now)
		if err != nil {
			return err
		}
		q.Items = replaced
	}
	q.applyDetails(d)
	q.RecalculateTotals()
	q.UpdatedAt = now
	return nil
}

// RecalculateTotals derives subtotal and total from the items
func (q *Quote) RecalculateTotals() {
	agg := ComputeAggregate(q.Items.Totals(), q.TaxAmount, q.DiscountAmount)
	q.Subtotal = agg.Subtotal
	q.TotalAmount = agg.TotalAmount
}

func (q *Quote) ensureDraftItems(message string) error {
	if q.Status != QuoteStatusDraft {
		return shared.InvalidState(message)
	}
	return nil
}

// AddItem appends an item. Only allowed in draft.
func (q *Quote) AddItem(id uuid.UUID, input LineItemInput, now time.Time) (*LineItem, error) {
	if err := q.ensureDraftItems("Cannot add items to a non-draft quote"); err != nil {
		return nil, err
	}
	item, err := q.Items.add(id, q.ID, input, now)
	if err != nil {
		return nil, err
	}
	q.RecalculateTotals()
	q.UpdatedAt = now
	return item, nil
}

// UpdateItem patches one item. Only allowed in draft.
func (q *Quote) UpdateItem(itemID uuid.UUID, patch LineItemPatch, now time.Time) (*LineItem, error) {
	if err := q.ensureDraftItems("Cannot modify items of a non-draft quote"); err != nil {
		return nil, err
	}
	item, err := q.Items.update(itemID, patch, now, "Quote item does not belong to the specified quote")
	if err != nil {
		return nil, err
	}
	q.RecalculateTotals()
	q.UpdatedAt = now
	return item, nil
}

// RemoveItem deletes one item. Only allowed in draft.
func (q *Quote) RemoveItem(itemID uuid.UUID, now time.Time) error {
	if err := q.ensureDraftItems("Cannot delete items from a non-draft quote"); err != nil {
		return err
	}
	if err := q.Items.remove(itemID, "Quote item does not belong to the specified quote"); err != nil {
		return err
	}
	q.RecalculateTotals()
	q.UpdatedAt = now
	return nil
}

// ReorderItems sets sort orders from the list position. Unknown ids are ignored.
func (q *Quote) ReorderItems(orderedIDs []uuid.UUID, now time.Time) error {
	if err := q.ensureDraftItems("Cannot reorder items of a non-draft quote"); err != nil {
		return err
	}
	q.Items.Reorder(orderedIDs, now)
	q.UpdatedAt = now
	return nil
}

// Send moves a draft quote with items to sent
func (q *Quote) Send(now time.Time) error {
	if q.Status != QuoteStatusDraft {
		return shared.InvalidState("Only draft quotes can be sent")
	}
	if len(q.Items) == 0 {
		return shared.InvalidState("Cannot send quote without items")
	}
	q.Status = QuoteStatusSent
	q.SentAt = &now
	q.UpdatedAt = now
	return nil
}

// Accept records the client's acceptance through the public link
func (q *Quote) Accept(now time.Time) error {
	if q.Status != QuoteStatusSent {
		return shared.InvalidState("Only sent quotes can be accepted")
	}
	if q.validityLapsed(now) {
		return shared.InvalidState("Quote has expired")
	}
	q.Status = QuoteStatusAccepted
	q.AcceptedAt = &now
	q.markViewed(now)
	q.UpdatedAt = now
	return nil
}

// Reject records the client's refusal through the public link
func (q *Quote) Reject(now time.Time) error {
	if q.Status != QuoteStatusSent {
		return shared.InvalidState("Only sent quotes can be rejected")
	}
	q.Status = QuoteStatusRejected
	q.markViewed(now)
	q.UpdatedAt = now
	return nil
}

// MarkViewed stamps the first view. Returns false when it was already viewed.
func (q *Quote) MarkViewed(now time.Time) bool {
	if !q.markViewed(now) {
		return false
	}
	q.UpdatedAt = now
	return true
}

func (q *Quote) markViewed(now time.Time) bool {
	if q.ViewedAt != nil {
		return false
	}
	q.ViewedAt = &now
	return true
}

func (q *Quote) validityLapsed(now time.Time) bool {
	return q.ValidUntil != nil && dateOnly(*q.ValidUntil).Before(dateOnly(now))
}

// IsExpired reports a sent quote whose validity date has passed
func (q *Quote) IsExpired(now time.Time) bool {
	return q.Status == QuoteStatusSent && q.validityLapsed(now)
}

// ChangeStatus is an administrative override of the status with its timestamp side effects.
// Terminal quotes are closed to overrides and a sent quote never returns to draft.
func (q *Quote) ChangeStatus(status QuoteStatus, now time.Time) error {
	if !status.IsValid() {
		return shared.InvalidArgument(fmt.Sprintf("Invalid quote status: %s", status))
	}
	if q.Status.IsTerminal() {
		return shared.InvalidState(fmt.Sprintf("Cannot change the status of a quote that is %s", q.Status))
	}
	if status == QuoteStatusDraft && q.SentAt != nil {
		return shared.InvalidState("Cannot return a sent quote to draft")
	}
	q.Status = status
	switch status {
	case QuoteStatusSent:
		q.SentAt = &now
	case QuoteStatusAccepted:
		q.AcceptedAt = &now
	case QuoteStatusExpired:
		if q.ValidUntil == nil {
			today := dateOnly(now)
			q.ValidUntil = &today
		}
	}
	q.UpdatedAt = now
	return nil
}

// EnsureDeletable rejects deletion outside draft
func (q *Quote) EnsureDeletable() error {
	if q.Status != QuoteStatusDraft {
		return shared.InvalidState("Only draft quotes can be deleted")
	}
	return nil
}

// Duplicate copies the quote into a new draft with a fresh number and hash
func (q *Quote) Duplicate(ids shared.IDGenerator, number, publicHash string, now time.Time) *Quote {
	dup := &Quote{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(ids.NewID(), q.UserID, now),
		QuoteNumber:        number,
		PublicHash:         publicHash,
		Status:             QuoteStatusDraft,
	}
	details := q.Details()
	details.Title = q.Title + " - Copy"
	dup.applyDetails(details)
	dup.Items = q.Items.clone(ids, dup.ID, now)
	dup.RecalculateTotals()
	return dup
}
