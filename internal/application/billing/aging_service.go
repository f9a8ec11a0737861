package billing

import (
	"context"

	"github.com/freelance/backend/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AgingService builds the receivables aging report
type AgingService struct {
	service
}

// NewAgingService creates a new AgingService
func NewAgingService(cfg ServiceConfig) *AgingService {
	return &AgingService{service: newService(cfg)}
}

// Report classifies every outstanding invoice and totals each bucket
func (s *AgingService) Report(ctx context.Context, userID uuid.UUID) (*AgingReportResponse, error) {
	invoices, err := s.invoices.FindOutstanding(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	totals := make(map[billing.AgingBucket]*AgingBucketTotal, len(billing.AgingBuckets))
	buckets := make([]AgingBucketTotal, len(billing.AgingBuckets))
	for i, b := range billing.AgingBuckets {
		buckets[i] = AgingBucketTotal{Bucket: string(b), Balance: decimal.Zero}
		totals[b] = &buckets[i]
	}

	entries := make([]AgingEntryResponse, 0, len(invoices))
	for i := range invoices {
		inv := &invoices[i]
		c, ok := billing.ClassifyAging(inv, now)
		if !ok {
			continue
		}
		entries = append(entries, AgingEntryResponse{
			InvoiceID:     inv.ID,
			InvoiceNumber: inv.InvoiceNumber,
			ClientID:      inv.ClientID,
			DueDate:       Date{Time: inv.DueDate},
			TotalAmount:   inv.TotalAmount,
			BalanceDue:    inv.BalanceDue,
			Bucket:        string(c.Bucket),
			DaysOverdue:   c.DaysOverdue,
		})
		t := totals[c.Bucket]
		t.Count++
		t.Balance = t.Balance.Add(inv.BalanceDue)
	}

	return &AgingReportResponse{
		AsOf:    Date{Time: now},
		Entries: entries,
		Buckets: buckets,
	}, nil
}
