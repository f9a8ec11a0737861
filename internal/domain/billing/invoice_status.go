package billing

import (
	"fmt"
	"strings"
	"time"

	"github.com/freelance/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// InvoiceStatus represents the status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusSent      InvoiceStatus = "sent"
	InvoiceStatusViewed    InvoiceStatus = "viewed"
	InvoiceStatusPartial   InvoiceStatus = "partial"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusSent, InvoiceStatusViewed, InvoiceStatusPartial,
		InvoiceStatusPaid, InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// ParseInvoiceStatus validates a status coming from a client
func ParseInvoiceStatus(raw string) (InvoiceStatus, error) {
	s := InvoiceStatus(strings.ToLower(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", shared.InvalidArgument(fmt.Sprintf("Invalid invoice status: %s", raw))
	}
	return s, nil
}

// StatusInput is everything the derived invoice status depends on
type StatusInput struct {
	BalanceDue decimal.Decimal
	AmountPaid decimal.Decimal
	DueDate    time.Time
	SentAt     *time.Time
	Cancelled  bool
}

// DeriveStatus applies the priority rule:
// cancelled > paid > partial > overdue > sent > draft.
func DeriveStatus(in StatusInput, now time.Time) InvoiceStatus {
	switch {
	case in.Cancelled:
		return InvoiceStatusCancelled
	case !in.BalanceDue.IsPositive():
		return InvoiceStatusPaid
	case in.AmountPaid.IsPositive():
		return InvoiceStatusPartial
	case dateOnly(in.DueDate).Before(dateOnly(now)):
		return InvoiceStatusOverdue
	case in.SentAt != nil:
		return InvoiceStatusSent
	default:
		return InvoiceStatusDraft
	}
}
