// Package billing provides the domain model for quotes, invoices and payments.
//
// Key Aggregates:
//   - Quote: priced proposal sent to a client, accepted or rejected through its public link
//   - Invoice: billable document whose status is derived from its balance and dates
//
// Entities owned by the aggregates:
//   - LineItem: one billable row; its total is always computed, never assigned
//   - InvoicePayment: a payment applied against an invoice balance
//   - QuoteHistory: append-only audit trail of quote transitions and public views
//
// Money is held in shopspring/decimal. Intermediate percentage factors are
// rounded half-up to 4 places and stored amounts to 2 places.
package billing
