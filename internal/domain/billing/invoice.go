package billing

import (
	"time"

	"github.com/freelance/backend/internal/domain/shared"
	"github.com/freelance/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultPaymentTermDays is the gap between issue and due date for
// invoices created by duplication or quote conversion
const DefaultPaymentTermDays = 30

// Invoice is the aggregate root for a billable document.
// Status is derived by Recompute except when the invoice is cancelled.
type Invoice struct {
	shared.OwnedAggregateRoot
	ClientID       uuid.UUID
	ProjectID      *uuid.UUID
	QuoteID        *uuid.UUID
	InvoiceNumber  string
	Title          string
	Description    string
	Status         InvoiceStatus
	IssueDate      time.Time
	DueDate        time.Time
	PaidDate       *time.Time
	PaymentTerms   string
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
	AmountPaid     decimal.Decimal
	BalanceDue     decimal.Decimal
	Currency       valueobject.Currency
	Notes          string
	Terms          string
	SentAt         *time.Time
	ViewedAt       *time.Time
	PublicHash     string
	PaymentLink    string
	Cancelled      bool
	Items          LineItems
	Payments       []InvoicePayment
}

// InvoiceDetails holds the editable header fields of an invoice
type InvoiceDetails struct {
	ClientID       uuid.UUID
	ProjectID      *uuid.UUID
	QuoteID        *uuid.UUID
	Title          string
	Description    string
	IssueDate      time.Time
	DueDate        time.Time
	PaymentTerms   string
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	Currency       valueobject.Currency
	Notes          string
	Terms          string
	PaymentLink    string
}

// NewInvoiceParams carries everything needed to create an invoice
type NewInvoiceParams struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	Number     string
	PublicHash string
	Details    InvoiceDetails
	Items      []LineItemInput
}

func validateInvoiceDetails(d InvoiceDetails) error {
	if err := validateDetails(d.Title, d.ClientID); err != nil {
		return err
	}
	if d.IssueDate.IsZero() || d.DueDate.IsZero() {
		return shared.InvalidArgument("Issue date and due date are required")
	}
	if dateOnly(d.DueDate).Before(dateOnly(d.IssueDate)) {
		return shared.InvalidArgument("Due date cannot be before issue date")
	}
	return nil
}

// NewInvoice creates a draft invoice. Status is derived once items are supplied.
func NewInvoice(ids shared.IDGenerator, p NewInvoiceParams, now time.Time) (*Invoice, error) {
	if p.Number == "" {
		return nil, shared.InvalidArgument("Invoice number cannot be empty")
	}
	if _, err := ParseDocumentNumber(p.Number); err != nil {
		return nil, shared.InvalidArgument("Invalid invoice number: " + p.Number)
	}
	if p.PublicHash == "" {
		return nil, shared.InvalidArgument("Public hash cannot be empty")
	}
	if err := validateInvoiceDetails(p.Details); err != nil {
		return nil, err
	}

	inv := &Invoice{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(p.ID, p.UserID, now),
		InvoiceNumber:      p.Number,
		PublicHash:         p.PublicHash,
		Status:             InvoiceStatusDraft,
		Payments:           make([]InvoicePayment, 0),
	}
	inv.applyDetails(p.Details)

	items, err := buildItems(ids, inv.ID, p.Items, now)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	inv.Recompute(now)
	return inv, nil
}

func (i *Invoice) applyDetails(d InvoiceDetails) {
	i.ClientID = d.ClientID
	i.ProjectID = d.ProjectID
	i.QuoteID = d.QuoteID
	i.Title = d.Title
	i.Description = d.Description
	i.IssueDate = dateOnly(d.IssueDate)
	i.DueDate = dateOnly(d.DueDate)
	i.PaymentTerms = d.PaymentTerms
	i.TaxAmount = Round2(d.TaxAmount)
	i.DiscountAmount = Round2(d.DiscountAmount)
	i.Currency = d.Currency
	if i.Currency == "" {
		i.Currency = valueobject.DefaultCurrency
	}
	i.Notes = d.Notes
	i.Terms = d.Terms
	i.PaymentLink = d.PaymentLink
}

// Details returns the current header fields, used as the base of partial updates
func (i *Invoice) Details() InvoiceDetails {
	return InvoiceDetails{
		ClientID:       i.ClientID,
		ProjectID:      i.ProjectID,
		QuoteID:        i.QuoteID,
		Title:          i.Title,
		Description:    i.Description,
		IssueDate:      i.IssueDate,
		DueDate:        i.DueDate,
		PaymentTerms:   i.PaymentTerms,
		TaxAmount:      i.TaxAmount,
		DiscountAmount: i.DiscountAmount,
		Currency:       i.Currency,
		Notes:          i.Notes,
		Terms:          i.Terms,
		PaymentLink:    i.PaymentLink,
	}
}

// Update replaces the header fields of a draft. A non-nil items slice replaces all items.
func (i *Invoice) Update(ids shared.IDGenerator, d InvoiceDetails, items []LineItemInput, now time.Time) error {
	if i.Status != InvoiceStatusDraft {
		return shared.InvalidState("Only draft invoices can be modified")
	}
	if err := validateInvoiceDetails(d); err != nil {
		return err
	}
	if items != nil {
		replaced, err := buildItems(ids, i.ID, items, now)
		if err != nil {
			return err
		}
		i.Items = replaced
	}
	i.applyDetails(d)
	i.Recompute(now)
	i.UpdatedAt = now
	return nil
}

func (i *Invoice) recalculateAmounts() {
	agg := ComputeAggregate(i.Items.Totals(), i.TaxAmount, i.DiscountAmount)
	paid := decimal.Zero
	for _, p := range i.Payments {
		if p.CountsTowardBalance() {
			paid = paid.Add(p.Amount)
		}
	}
	i.Subtotal = agg.Subtotal
	i.TotalAmount = agg.TotalAmount
	i.AmountPaid = Round2(paid)
	i.BalanceDue = i.TotalAmount.Sub(i.AmountPaid)
}

// Recompute refreshes every derived amount and the derived status.
// A draft without items or payments stays draft. Reaching paid stamps PaidDate once.
func (i *Invoice) Recompute(now time.Time) {
	i.recalculateAmounts()
	if i.isEmptyDraft() {
		return
	}
	i.Status = DeriveStatus(i.statusInput(), now)
	if i.Status == InvoiceStatusPaid && i.PaidDate == nil {
		paid := dateOnly(now)
		i.PaidDate = &paid
	}
}

func (i *Invoice) isEmptyDraft() bool {
	return i.Status == InvoiceStatusDraft && !i.Cancelled && i.SentAt == nil &&
		len(i.Items) == 0 && len(i.Payments) == 0
}

func (i *Invoice) statusInput() StatusInput {
	return StatusInput{
		BalanceDue: i.BalanceDue,
		AmountPaid: i.AmountPaid,
		DueDate:    i.DueDate,
		SentAt:     i.SentAt,
		Cancelled:  i.Cancelled,
	}
}

func (i *Invoice) hasCompletedPayments() bool {
	for idx := range i.Payments {
		if i.Payments[idx].CountsTowardBalance() {
			return true
		}
	}
	return false
}

// RemainingBalance is what can still be paid
func (i *Invoice) RemainingBalance() decimal.Decimal {
	return i.TotalAmount.Sub(i.AmountPaid)
}

// IsOverdue reports an unpaid balance past its due date
func (i *Invoice) IsOverdue(now time.Time) bool {
	return dateOnly(i.DueDate).Before(dateOnly(now)) && i.BalanceDue.IsPositive()
}

// IsPartiallyPaid reports a payment that did not settle the total
func (i *Invoice) IsPartiallyPaid() bool {
	return i.AmountPaid.IsPositive() && i.AmountPaid.LessThan(i.TotalAmount)
}

func (i *Invoice) ensureDraftItems(message string) error {
	if i.Status != InvoiceStatusDraft {
		return shared.InvalidState(message)
	}
	return nil
}

// AddItem appends an item. Only allowed in draft.
func (i *Invoice) AddItem(id uuid.UUID, input LineItemInput, now time.Time) (*LineItem, error) {
	if err := i.ensureDraftItems("Cannot add items to a non-draft invoice"); err != nil {
		return nil, err
	}
	item, err := i.Items.add(id, i.ID, input, now)
	if err != nil {
		return nil, err
	}
	i.Recompute(now)
	i.UpdatedAt = now
	return item, nil
}

// UpdateItem patches one item. Only allowed in draft.
func (i *Invoice) UpdateItem(itemID uuid.UUID, patch LineItemPatch, now time.Time) (*LineItem, error) {
	if err := i.ensureDraftItems("Cannot modify items of a non-draft invoice"); err != nil {
		return nil, err
	}
	item, err := i.Items.update(itemID, patch, now, "Invoice item does not belong to the specified invoice")
	if err != nil {
		return nil, err
	}
	i.Recompute(now)
	i.UpdatedAt = now
	return item, nil
}

// RemoveItem deletes one item. Only allowed in draft.
func (i *Invoice) RemoveItem(itemID uuid.UUID, now time.Time) error {
	if err := i.ensureDraftItems("Cannot delete items from a non-draft invoice"); err != nil {
		return err
	}
	if err := i.Items.remove(itemID, "Invoice item does not belong to the specified invoice"); err != nil {
		return err
	}
	i.Recompute(now)
	i.UpdatedAt = now
	return nil
}

// ReorderItems sets sort orders from the list position. Unknown ids are ignored.
func (i *Invoice) ReorderItems(orderedIDs []uuid.UUID, now time.Time) error {
	if err := i.ensureDraftItems("Cannot reorder items of a non-draft invoice"); err != nil {
		return err
	}
	i.Items.Reorder(orderedIDs, now)
	i.UpdatedAt = now
	return nil
}

// Send moves a draft invoice with items to sent
func (i *Invoice) Send(now time.Time) error {
	if i.Status != InvoiceStatusDraft {
		return shared.InvalidState("Only draft invoices can be sent")
	}
	if len(i.Items) == 0 {
		return shared.InvalidState("Cannot send invoice without items")
	}
	i.Status = InvoiceStatusSent
	i.SentAt = &now
	i.UpdatedAt = now
	return nil
}

// Cancel marks the invoice cancelled. The flag survives every later recompute.
func (i *Invoice) Cancel(now time.Time) error {
	if i.Status == InvoiceStatusPaid || i.Status == InvoiceStatusCancelled || i.Cancelled {
		return shared.InvalidState("Cannot cancel a paid or already cancelled invoice")
	}
	i.Cancelled = true
	i.Status = InvoiceStatusCancelled
	i.UpdatedAt = now
	return nil
}

// MarkViewed stamps the first view. Returns false when it was already viewed.
func (i *Invoice) MarkViewed(now time.Time) bool {
	if i.ViewedAt != nil {
		return false
	}
	i.ViewedAt = &now
	i.UpdatedAt = now
	return true
}

// EnsureDeletable rejects deletion outside draft
func (i *Invoice) EnsureDeletable() error {
	if i.Status != InvoiceStatusDraft {
		return shared.InvalidState("Only draft invoices can be deleted")
	}
	return nil
}

// ChangeStatus is an administrative override with timestamp side effects.
// Paid and cancelled invoices are closed to overrides, and an invoice that
// was sent or holds completed payments never returns to draft.
func (i *Invoice) ChangeStatus(status InvoiceStatus, now time.Time) error {
	if !status.IsValid() {
		return shared.InvalidArgument("Invalid invoice status: " + string(status))
	}
	if i.Cancelled || i.Status == InvoiceStatusPaid || i.Status == InvoiceStatusCancelled {
		return shared.InvalidState("Cannot change the status of a paid or cancelled invoice")
	}
	if status == InvoiceStatusDraft && (i.SentAt != nil || i.hasCompletedPayments()) {
		return shared.InvalidState("Cannot return a sent or paid invoice to draft")
	}
	i.Status = status
	i.Cancelled = status == InvoiceStatusCancelled
	switch status {
	case InvoiceStatusSent:
		if i.SentAt == nil {
			i.SentAt = &now
		}
	case InvoiceStatusPaid:
		if i.PaidDate == nil {
			paid := dateOnly(now)
			i.PaidDate = &paid
		}
	case InvoiceStatusViewed:
		if i.ViewedAt == nil {
			i.ViewedAt = &now
		}
	}
	i.UpdatedAt = now
	return nil
}

// Duplicate copies the invoice into a new draft issued today and due in 30 days
func (i *Invoice) Duplicate(ids shared.IDGenerator, number, publicHash string, now time.Time) *Invoice {
	dup := &Invoice{
		OwnedAggregateRoot: shared.NewOwnedAggregateRoot(ids.NewID(), i.UserID, now),
		InvoiceNumber:      number,
		PublicHash:         publicHash,
		Status:             InvoiceStatusDraft,
		Payments:           make([]InvoicePayment, 0),
	}
	details := i.Details()
	details.Title = i.Title + " - Copy"
	details.IssueDate = now
	details.DueDate = now.AddDate(0, 0, DefaultPaymentTermDays)
	dup.applyDetails(details)
	dup.Items = i.Items.clone(ids, dup.ID, now)
	dup.recalculateAmounts()
	return dup
}
