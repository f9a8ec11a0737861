package billing

import (
	"time"
)

// AgingBucket classifies an outstanding invoice by how late it is
type AgingBucket string

const (
	AgingPaid    AgingBucket = "Paid"
	AgingCurrent AgingBucket = "Current"
	Aging1To30   AgingBucket = "1-30 Days"
	Aging31To60  AgingBucket = "31-60 Days"
	Aging61To90  AgingBucket = "61-90 Days"
	AgingOver90  AgingBucket = "Over 90 Days"
)

const hoursPerDay = 24

// AgingBuckets lists the buckets in report order
var AgingBuckets = []AgingBucket{AgingPaid, AgingCurrent, Aging1To30, Aging31To60, Aging61To90, AgingOver90}

// AgingClassification is the result of classifying one invoice
type AgingClassification struct {
	Bucket      AgingBucket
	DaysOverdue int
}

// ClassifyAging buckets an invoice. ok is false for drafts and cancelled invoices.
func ClassifyAging(inv *Invoice, now time.Time) (AgingClassification, bool) {
	if inv.Status == InvoiceStatusDraft || inv.Status == InvoiceStatusCancelled || inv.Cancelled {
		return AgingClassification{}, false
	}
	if !inv.BalanceDue.IsPositive() {
		return AgingClassification{Bucket: AgingPaid}, true
	}

	today := dateOnly(now)
	due := dateOnly(inv.DueDate)
	if !due.Before(today) {
		return AgingClassification{Bucket: AgingCurrent}, true
	}

	days := int(today.Sub(due).Hours() / hoursPerDay)
	c := AgingClassification{DaysOverdue: days}
	switch {
	case days <= 30:
		c.Bucket = Aging1To30
	case days <= 60:
		c.Bucket = Aging31To60
	case days <= 90:
		c.Bucket = Aging61To90
	default:
		c.Bucket = AgingOver90
	}
	return c, true
}
