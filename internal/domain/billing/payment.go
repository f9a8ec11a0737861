package billing

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/freelance/backend/internal/domain/shared"
	"github.com/freelance/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentStatus represents the status of an invoice payment
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// IsValid checks if the status is a valid PaymentStatus
func (s PaymentStatus) IsValid() bool {
	switch s {
	case PaymentStatusPending, PaymentStatusCompleted, PaymentStatusFailed, PaymentStatusRefunded:
		return true
	}
	return false
}

// ParsePaymentStatus validates a status; empty means completed
func ParsePaymentStatus(raw string) (PaymentStatus, error) {
	if strings.TrimSpace(raw) == "" {
		return PaymentStatusCompleted, nil
	}
	s := PaymentStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", shared.InvalidArgument(fmt.Sprintf("Invalid payment status: %s", raw))
	}
	return s, nil
}

// InvoicePayment is a payment applied against an invoice
type InvoicePayment struct {
	ID            uuid.UUID
	InvoiceID     uuid.UUID
	PaymentMethod string
	TransactionID *string
	Amount        decimal.Decimal
	Currency      valueobject.Currency
	PaymentDate   time.Time
	Status        PaymentStatus
	Notes         string
	Metadata      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// CountsTowardBalance reports whether the payment reduces the balance due
func (p *InvoicePayment) CountsTowardBalance() bool {
	return p.Status == PaymentStatusCompleted
}

// Money returns the amount in the payment currency
func (p *InvoicePayment) Money() valueobject.Money {
	return valueobject.NewMoney(p.Amount, p.Currency)
}

// PaymentInput describes a new payment
type PaymentInput struct {
	PaymentMethod string
	TransactionID *string
	Amount        decimal.Decimal
	Currency      valueobject.Currency
	PaymentDate   time.Time
	Status        PaymentStatus
	Notes         string
	Metadata      string
}

// PaymentPatch carries a partial payment update
type PaymentPatch struct {
	PaymentMethod *string
	TransactionID *string
	Amount        *decimal.Decimal
	Currency      *valueobject.Currency
	PaymentDate   *time.Time
	Status        *PaymentStatus
	Notes         *string
	Metadata      *string
}

// NormalizeTransactionID trims the id and maps blank to nil
func NormalizeTransactionID(id *string) *string {
	if id == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*id)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// EnsureAcceptsPayments rejects payments on cancelled invoices
func (i *Invoice) EnsureAcceptsPayments() error {
	if i.Cancelled || i.Status == InvoiceStatusCancelled {
		return shared.InvalidState("Cannot add payment to a cancelled invoice")
	}
	return nil
}

// paymentMoney rounds the amount to cents, then requires it to be positive
// and in the invoice currency
func (i *Invoice) paymentMoney(amount decimal.Decimal, currency valueobject.Currency) (valueobject.Money, error) {
	paid := valueobject.NewMoney(amount, currency).Rounded()
	if !paid.Amount().IsPositive() {
		return valueobject.Money{}, shared.InvalidArgument("Payment amount must be greater than zero")
	}
	if _, err := valueobject.Zero(i.Currency).Add(paid); errors.Is(err, valueobject.ErrCurrencyMismatch) {
		return valueobject.Money{}, shared.InvalidArgument(
			fmt.Sprintf("Payment currency %s does not match invoice currency %s", currency, i.Currency))
	}
	return paid, nil
}

// RecordPayment applies a new payment and recomputes the invoice.
// Transaction id uniqueness is checked by the caller against storage.
func (i *Invoice) RecordPayment(id uuid.UUID, input PaymentInput, now time.Time) (*InvoicePayment, error) {
	if err := i.EnsureAcceptsPayments(); err != nil {
		return nil, err
	}
	currency := input.Currency
	if currency == "" {
		currency = i.Currency
	}
	paid, err := i.paymentMoney(input.Amount, currency)
	if err != nil {
		return nil, err
	}
	remaining, err := valueobject.NewMoney(i.RemainingBalance(), i.Currency).Subtract(paid)
	if err != nil {
		return nil, err
	}
	if remaining.Amount().IsNegative() {
		return nil, shared.InvalidArgument("Payment amount exceeds remaining balance")
	}

	status := input.Status
	if status == "" {
		status = PaymentStatusCompleted
	}
	metadata := input.Metadata
	if strings.TrimSpace(metadata) == "" {
		metadata = "{}"
	}

	payment := InvoicePayment{
		ID:            id,
		InvoiceID:     i.ID,
		PaymentMethod: input.PaymentMethod,
		TransactionID: NormalizeTransactionID(input.TransactionID),
		Amount:        paid.Amount(),
		Currency:      paid.Currency(),
		PaymentDate:   input.PaymentDate,
		Status:        status,
		Notes:         input.Notes,
		Metadata:      metadata,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	i.Payments = append(i.Payments, payment)
	i.Recompute(now)
	i.UpdatedAt = now
	return &payment, nil
}

// FindPayment returns the payment with the id, when it belongs to this invoice
func (i *Invoice) FindPayment(paymentID uuid.UUID) (*InvoicePayment, bool) {
	for idx := range i.Payments {
		if i.Payments[idx].ID == paymentID {
			return &i.Payments[idx], true
		}
	}
	return nil, false
}

// UpdatePayment patches a payment and recomputes the invoice.
// The change is rolled back when it would overpay the invoice.
func (i *Invoice) UpdatePayment(paymentID uuid.UUID, patch PaymentPatch, now time.Time) (*InvoicePayment, error) {
	p, ok := i.FindPayment(paymentID)
	if !ok {
		return nil, shared.NotFound("Payment not found")
	}
	amount, currency := p.Amount, p.Currency
	if patch.Amount != nil {
		amount = *patch.Amount
	}
	if patch.Currency != nil {
		currency = *patch.Currency
	}
	paid, err := i.paymentMoney(amount, currency)
	if err != nil {
		return nil, err
	}
	previous := *p

	if patch.PaymentMethod != nil {
		p.PaymentMethod = *patch.PaymentMethod
	}
	if patch.TransactionID != nil {
		p.TransactionID = NormalizeTransactionID(patch.TransactionID)
	}
	p.Amount = paid.Amount()
	p.Currency = paid.Currency()
	if patch.PaymentDate != nil {
		p.PaymentDate = *patch.PaymentDate
	}
	if patch.Status != nil {
		p.Status = *patch.Status
	}
	if patch.Notes != nil {
		p.Notes = *patch.Notes
	}
	if patch.Metadata != nil {
		p.Metadata = *patch.Metadata
	}
	p.UpdatedAt = now

	i.recalculateAmounts()
	if i.BalanceDue.IsNegative() {
		*p = previous
		i.recalculateAmounts()
		return nil, shared.InvalidArgument("Payment amount exceeds remaining balance")
	}
	i.Recompute(now)
	i.UpdatedAt = now

	updated := *p
	return &updated, nil
}

// RemovePayment deletes a payment that is not completed
func (i *Invoice) RemovePayment(paymentID uuid.UUID, now time.Time) error {
	p, ok := i.FindPayment(paymentID)
	if !ok {
		return shared.NotFound("Payment not found")
	}
	if p.Status == PaymentStatusCompleted {
		return shared.InvalidState("Cannot delete a completed payment")
	}
	for idx := range i.Payments {
		if i.Payments[idx].ID == paymentID {
			i.Payments = append(i.Payments[:idx], i.Payments[idx+1:]...)
			break
		}
	}
	i.Recompute(now)
	i.UpdatedAt = now
	return nil
}
