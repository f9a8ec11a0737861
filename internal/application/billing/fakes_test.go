package billing

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/freelance/backend/internal/domain/activity"
	"github.com/freelance/backend/internal/domain/billing"
	"github.com/freelance/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// ==================== Mocks ====================

type mockUserDirectory struct {
	mock.Mock
}

func (m *mockUserDirectory) Exists(ctx context.Context, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

type mockClientDirectory struct {
	mock.Mock
}

func (m *mockClientDirectory) BelongsTo(ctx context.Context, clientID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, clientID, userID)
	return args.Bool(0), args.Error(1)
}

type mockProjectDirectory struct {
	mock.Mock
}

func (m *mockProjectDirectory) BelongsTo(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	args := m.Called(ctx, projectID, userID)
	return args.Bool(0), args.Error(1)
}

type mockReminderDirectory struct {
	mock.Mock
}

func (m *mockReminderDirectory) NextFor(ctx context.Context, userID uuid.UUID, entity activity.RelatedEntity, today time.Time) (*time.Time, error) {
	args := m.Called(ctx, userID, entity, today)
	next, _ := args.Get(0).(*time.Time)
	return next, args.Error(1)
}

type mockAuditSink struct {
	mock.Mock
}

func (m *mockAuditSink) Record(ctx context.Context, entry AuditEntry) {
	m.Called(ctx, entry)
}

// ==================== In-memory store ====================

// memStore keeps copies of aggregates so that a failed operation never
// leaks partial changes into later reads
type memStore struct {
	mu        sync.Mutex
	quotes    map[uuid.UUID]billing.Quote
	invoices  map[uuid.UUID]billing.Invoice
	history   []billing.QuoteHistory
	sequences map[string]int64
	saveErr   error
}

func newMemStore() *memStore {
	return &memStore{
		quotes:    make(map[uuid.UUID]billing.Quote),
		invoices:  make(map[uuid.UUID]billing.Invoice),
		sequences: make(map[string]int64),
	}
}

func cloneQuote(q billing.Quote) billing.Quote {
	q.Items = append(billing.LineItems(nil), q.Items...)
	return q
}

func cloneInvoice(inv billing.Invoice) billing.Invoice {
	inv.Items = append(billing.LineItems(nil), inv.Items...)
	inv.Payments = append([]billing.InvoicePayment(nil), inv.Payments...)
	return inv
}

type memQuoteRepo struct{ s *memStore }

func (r memQuoteRepo) FindByIDForUser(_ context.Context, userID, id uuid.UUID) (*billing.Quote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	q, ok := r.s.quotes[id]
	if !ok || q.UserID != userID {
		return nil, shared.NotFound("Quote not found")
	}
	c := cloneQuote(q)
	return &c, nil
}

func (r memQuoteRepo) FindByIDForUpdate(ctx context.Context, userID, id uuid.UUID) (*billing.Quote, error) {
	return r.FindByIDForUser(ctx, userID, id)
}

func (r memQuoteRepo) FindByPublicHash(_ context.Context, hash string) (*billing.Quote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, q := range r.s.quotes {
		if q.PublicHash == hash {
			c := cloneQuote(q)
			return &c, nil
		}
	}
	return nil, shared.NotFound("Quote not found")
}

func (r memQuoteRepo) FindByPublicHashForUpdate(ctx context.Context, hash string) (*billing.Quote, error) {
	return r.FindByPublicHash(ctx, hash)
}

func (r memQuoteRepo) FindAllForUser(_ context.Context, userID uuid.UUID, filter billing.QuoteFilter) ([]billing.Quote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []billing.Quote
	for _, q := range r.s.quotes {
		if q.UserID != userID {
			continue
		}
		if filter.Status != nil && q.Status != *filter.Status {
			continue
		}
		if filter.ClientID != nil && q.ClientID != *filter.ClientID {
			continue
		}
		out = append(out, cloneQuote(q))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].QuoteNumber < out[j].QuoteNumber })
	return out, nil
}

func (r memQuoteRepo) CountForUser(ctx context.Context, userID uuid.UUID, filter billing.QuoteFilter) (int64, error) {
	all, err := r.FindAllForUser(ctx, userID, filter)
	return int64(len(all)), err
}

func (r memQuoteRepo) FindExpired(_ context.Context, userID uuid.UUID, today time.Time) ([]billing.Quote, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []billing.Quote
	for _, q := range r.s.quotes {
		if q.UserID == userID && q.IsExpired(today) {
			out = append(out, cloneQuote(q))
		}
	}
	return out, nil
}

func (r memQuoteRepo) Save(_ context.Context, q *billing.Quote) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.saveErr != nil {
		return r.s.saveErr
	}
	r.s.quotes[q.ID] = cloneQuote(*q)
	return nil
}

func (r memQuoteRepo) DeleteForUser(_ context.Context, userID, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if q, ok := r.s.quotes[id]; !ok || q.UserID != userID {
		return shared.NotFound("Quote not found")
	}
	delete(r.s.quotes, id)
	return nil
}

type memHistoryRepo struct{ s *memStore }

func (r memHistoryRepo) Append(_ context.Context, entry *billing.QuoteHistory) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.history = append(r.s.history, *entry)
	return nil
}

func (r memHistoryRepo) FindByQuote(_ context.Context, quoteID uuid.UUID) ([]billing.QuoteHistory, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []billing.QuoteHistory
	for i := len(r.s.history) - 1; i >= 0; i-- {
		if r.s.history[i].QuoteID == quoteID {
			out = append(out, r.s.history[i])
		}
	}
	return out, nil
}

type memInvoiceRepo struct{ s *memStore }

func (r memInvoiceRepo) FindByIDForUser(_ context.Context, userID, id uuid.UUID) (*billing.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	inv, ok := r.s.invoices[id]
	if !ok || inv.UserID != userID {
		return nil, shared.NotFound("Invoice not found")
	}
	c := cloneInvoice(inv)
	return &c, nil
}

func (r memInvoiceRepo) FindByIDForUpdate(ctx context.Context, userID, id uuid.UUID) (*billing.Invoice, error) {
	return r.FindByIDForUser(ctx, userID, id)
}

func (r memInvoiceRepo) FindByPublicHash(_ context.Context, hash string) (*billing.Invoice, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, inv := range r.s.invoices {
		if inv.PublicHash == hash {
			c := cloneInvoice(inv)
			return &c, nil
		}
	}
	return nil, shared.NotFound("Invoice not found")
}

func (r memInvoiceRepo) FindByPublicHashForUpdate(ctx context.Context, hash string) (*billing.Invoice, error) {
	return r.FindByPublicHash(ctx, hash)
}

func (r memInvoiceRepo) all(userID uuid.UUID, keep func(billing.Invoice) bool) []billing.Invoice {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []billing.Invoice
	for _, inv := range r.s.invoices {
		if inv.UserID == userID && keep(inv) {
			out = append(out, cloneInvoice(inv))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InvoiceNumber < out[j].InvoiceNumber })
	return out
}

func (r memInvoiceRepo) FindAllForUser(_ context.Context, userID uuid.UUID, filter billing.InvoiceFilter) ([]billing.Invoice, error) {
	return r.all(userID, func(inv billing.Invoice) bool {
		return filter.Status == nil || inv.Status == *filter.Status
	}), nil
}

func (r memInvoiceRepo) CountForUser(ctx context.Context, userID uuid.UUID, filter billing.InvoiceFilter) (int64, error) {
	all, err := r.FindAllForUser(ctx, userID, filter)
	return int64(len(all)), err
}

func (r memInvoiceRepo) FindOverdue(_ context.Context, userID uuid.UUID, today time.Time) ([]billing.Invoice, error) {
	return r.all(userID, func(inv billing.Invoice) bool {
		switch inv.Status {
		case billing.InvoiceStatusDraft, billing.InvoiceStatusPaid, billing.InvoiceStatusCancelled:
			return false
		}
		return inv.IsOverdue(today)
	}), nil
}

func (r memInvoiceRepo) FindOutstanding(_ context.Context, userID uuid.UUID) ([]billing.Invoice, error) {
	return r.all(userID, func(inv billing.Invoice) bool {
		return inv.Status != billing.InvoiceStatusDraft && inv.Status != billing.InvoiceStatusCancelled
	}), nil
}

func (r memInvoiceRepo) FindRecent(_ context.Context, userID uuid.UUID, limit int) ([]billing.Invoice, error) {
	out := r.all(userID, func(billing.Invoice) bool { return true })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memInvoiceRepo) StatsForUser(_ context.Context, userID uuid.UUID) (*billing.InvoiceStats, error) {
	stats := &billing.InvoiceStats{CountByStatus: make(map[billing.InvoiceStatus]int64)}
	for _, inv := range r.all(userID, func(billing.Invoice) bool { return true }) {
		stats.Count++
		stats.CountByStatus[inv.Status]++
		stats.TotalInvoiced = stats.TotalInvoiced.Add(inv.TotalAmount)
		stats.TotalPaid = stats.TotalPaid.Add(inv.AmountPaid)
		if billing.CountsAsOutstanding(inv.Status) {
			stats.TotalOutstanding = stats.TotalOutstanding.Add(inv.BalanceDue)
		}
	}
	return stats, nil
}

func (r memInvoiceRepo) Save(_ context.Context, inv *billing.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.saveErr != nil {
		return r.s.saveErr
	}
	r.s.invoices[inv.ID] = cloneInvoice(*inv)
	return nil
}

func (r memInvoiceRepo) DeleteForUser(_ context.Context, userID, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if inv, ok := r.s.invoices[id]; !ok || inv.UserID != userID {
		return shared.NotFound("Invoice not found")
	}
	delete(r.s.invoices, id)
	return nil
}

type memPaymentRepo struct{ s *memStore }

func (r memPaymentRepo) ExistsByTransactionID(_ context.Context, transactionID string) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, inv := range r.s.invoices {
		for _, p := range inv.Payments {
			if p.TransactionID != nil && *p.TransactionID == transactionID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r memPaymentRepo) FindByStatusForUser(_ context.Context, userID uuid.UUID, status billing.PaymentStatus) ([]billing.InvoicePayment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []billing.InvoicePayment
	for _, inv := range r.s.invoices {
		if inv.UserID != userID {
			continue
		}
		for _, p := range inv.Payments {
			if p.Status == status {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (r memPaymentRepo) SumCompletedForUser(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	payments, err := r.FindByStatusForUser(ctx, userID, billing.PaymentStatusCompleted)
	total := decimal.Zero
	for _, p := range payments {
		total = total.Add(p.Amount)
	}
	return total, err
}

type memSequenceRepo struct{ s *memStore }

func (r memSequenceRepo) Next(_ context.Context, prefix, period string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := prefix + "-" + period
	r.s.sequences[key]++
	return r.s.sequences[key], nil
}

// ==================== Fixture ====================

var fixtureNow = time.Date(2024, 10, 15, 9, 30, 0, 0, time.UTC)

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) NewID() uuid.UUID {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", g.n))
}

type fixture struct {
	store    *memStore
	users    *mockUserDirectory
	clients  *mockClientDirectory
	projects *mockProjectDirectory
	audit    *mockAuditSink
	cfg      ServiceConfig

	userID   uuid.UUID
	clientID uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	f := &fixture{
		store:    store,
		users:    new(mockUserDirectory),
		clients:  new(mockClientDirectory),
		projects: new(mockProjectDirectory),
		audit:    new(mockAuditSink),
		userID:   uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		clientID: uuid.MustParse("22222222-2222-2222-2222-222222222222"),
	}
	f.users.On("Exists", mock.Anything, f.userID).Return(true, nil).Maybe()
	f.clients.On("BelongsTo", mock.Anything, f.clientID, f.userID).Return(true, nil).Maybe()
	f.audit.On("Record", mock.Anything, mock.Anything).Return().Maybe()

	quotes, history := memQuoteRepo{store}, memHistoryRepo{store}
	invoices, payments := memInvoiceRepo{store}, memPaymentRepo{store}
	f.cfg = ServiceConfig{
		Scope:    NewNoOpTransactionScope(quotes, history, invoices, payments, memSequenceRepo{store}),
		Quotes:   quotes,
		History:  history,
		Invoices: invoices,
		Payments: payments,
		Users:    f.users,
		Clients:  f.clients,
		Projects: f.projects,
		Audit:    f.audit,
		Clock:    shared.FixedClock{At: fixtureNow},
		IDs:      &seqIDs{},
	}
	return f
}

func (f *fixture) at(now time.Time) {
	f.cfg.Clock = shared.FixedClock{At: now}
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func itemReq(desc, qty, price string) LineItemRequest {
	return LineItemRequest{Description: desc, Quantity: decPtr(qty), UnitPrice: decPtr(price)}
}

func datePtr(y int, m time.Month, d int) *Date {
	return &Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}
