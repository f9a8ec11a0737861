package billing

import (
	"context"
	"fmt"

	"github.com/freelance/backend/internal/domain/billing"
	"github.com/freelance/backend/internal/domain/shared"
)

// NumberSequencer issues quote and invoice numbers and public share hashes.
// Numbers come from the durable sequence table so they survive restarts
// and stay unique across instances.
type NumberSequencer struct {
	clock         shared.Clock
	quotePrefix   string
	invoicePrefix string
}

// NewNumberSequencer creates a sequencer. Empty prefixes fall back to QUO and INV.
func NewNumberSequencer(clock shared.Clock, quotePrefix, invoicePrefix string) *NumberSequencer {
	if quotePrefix == "" {
		quotePrefix = billing.QuoteNumberPrefix
	}
	if invoicePrefix == "" {
		invoicePrefix = billing.InvoiceNumberPrefix
	}
	return &NumberSequencer{clock: clock, quotePrefix: quotePrefix, invoicePrefix: invoicePrefix}
}

// NextQuoteNumber returns QUO-YYYYMM-NNN using the transaction's sequence repository
func (s *NumberSequencer) NextQuoteNumber(ctx context.Context, repo billing.NumberSequenceRepository) (string, error) {
	return s.next(ctx, repo, s.quotePrefix)
}

// NextInvoiceNumber returns INV-YYYYMM-NNN using the transaction's sequence repository
func (s *NumberSequencer) NextInvoiceNumber(ctx context.Context, repo billing.NumberSequenceRepository) (string, error) {
	return s.next(ctx, repo, s.invoicePrefix)
}

// NextPublicHash returns a fresh 128-bit share token
func (s *NumberSequencer) NextPublicHash() (string, error) {
	return billing.NewPublicHash()
}

func (s *NumberSequencer) next(ctx context.Context, repo billing.NumberSequenceRepository, prefix string) (string, error) {
	period := billing.SequencePeriod(s.clock.Now())
	seq, err := repo.Next(ctx, prefix, period)
	if err != nil {
		return "", fmt.Errorf("next %s sequence for %s: %w", prefix, period, err)
	}
	number := billing.FormatDocumentNumber(prefix, period, seq)
	if !billing.IsValidDocumentNumber(number, prefix) {
		return "", fmt.Errorf("number prefix %q must be 2 to 10 uppercase letters", prefix)
	}
	return number, nil
}
