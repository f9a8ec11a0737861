package billing

import (
	"context"
	"testing"
	"time"

	"github.com/freelance/backend/internal/domain/billing"
	"github.com/freelance/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var browser = billing.Requester{IPAddress: "203.0.113.7", UserAgent: "Mozilla/5.0"}

func createSentQuote(t *testing.T, f *fixture, svc *QuoteService, validUntil *Date) *QuoteResponse {
	t.Helper()
	ctx := context.Background()
	q, err := svc.Create(ctx, f.userID, CreateQuoteRequest{
		ClientID:   f.clientID,
		Title:      "Website redesign",
		ValidUntil: validUntil,
		Items: []LineItemRequest{
			{Description: "Design", Quantity: decPtr("2"), UnitPrice: decPtr("100"), TaxRate: decPtr("10")},
		},
	}, billing.Requester{})
	require.NoError(t, err)
	sent, err := svc.Send(ctx, f.userID, q.ID, billing.Requester{})
	require.NoError(t, err)
	return sent
}

func TestQuoteService_Create(t *testing.T) {
	f := newFixture(t)
	svc := NewQuoteService(f.cfg)

	resp, err := svc.Create(context.Background(), f.userID, CreateQuoteRequest{
		ClientID: f.clientID,
		Title:    "Website redesign",
		Items: []LineItemRequest{
			{Description: "Design", Quantity: decPtr("2"), UnitPrice: decPtr("100"), TaxRate: decPtr("10")},
			itemReq("Hosting", "1", "50"),
		},
	}, browser)

	require.NoError(t, err)
	assert.Equal(t, "QUO-202410-001", resp.QuoteNumber)
	assert.Equal(t, "draft", resp.Status)
	assert.Equal(t, "USD", resp.Currency)
	assert.Len(t, resp.PublicHash, 32)
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "220.00", resp.Items[0].Total.StringFixed(2))
	assert.Equal(t, 0, resp.Items[0].SortOrder)
	assert.Equal(t, 1, resp.Items[1].SortOrder)
	assert.Equal(t, "270.00", resp.Subtotal.StringFixed(2))
	assert.Equal(t, "270.00", resp.TotalAmount.StringFixed(2))

	history, err := svc.History(context.Background(), f.userID, resp.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, billing.HistoryActionCreated, history[0].Action)
	assert.Equal(t, "Quote created", history[0].Description)
	assert.Equal(t, "203.0.113.7", history[0].IPAddress)

	f.audit.AssertCalled(t, "Record", mock.Anything, mock.MatchedBy(func(e AuditEntry) bool {
		return e.Action == "quote_created" && e.UserID == f.userID && e.Entity.EntityID() == resp.ID
	}))
}

func TestQuoteService_Create_NumbersIncrease(t *testing.T) {
	f := newFixture(t)
	svc := NewQuoteService(f.cfg)
	req := CreateQuoteRequest{ClientID: f.clientID, Title: "Retainer"}

	first, err := svc.Create(context.Background(), f.userID, req, browser)
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), f.userID, req, browser)
	require.NoError(t, err)

	assert.Equal(t, "QUO-202410-001", first.QuoteNumber)
	assert.Equal(t, "QUO-202410-002", second.QuoteNumber)
	assert.NotEqual(t, first.PublicHash, second.PublicHash)
}

func TestQuoteService_Create_ForeignClient(t *testing.T) {
	f := newFixture(t)
	foreign := uuid.New()
	f.clients.On("BelongsTo", mock.Anything, foreign, f.userID).Return(false, nil)
	svc := NewQuoteService(f.cfg)

	_, err := svc.Create(context.Background(), f.userID, CreateQuoteRequest{ClientID: foreign, Title: "x"}, browser)

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	assert.Equal(t, "Client not found", err.Error())
	assert.Empty(t, f.store.quotes)
	f.audit.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
}

func TestQuoteService_Create_NegativeTax(t *testing.T) {
	f := newFixture(t)
	svc := NewQuoteService(f.cfg)

	_, err := svc.Create(context.Background(), f.userID, CreateQuoteRequest{
		ClientID:  f.clientID,
		Title:     "x",
		TaxAmount: decPtr("-1"),
	}, browser)

	assert.ErrorIs(t, err, shared.ErrInvalidArgument)
}

func TestQuoteService_Send_WithoutItems(t *testing.T) {
	f := newFixture(t)
	svc := NewQuoteService(f.cfg)
	q, err := svc.Create(context.Background(), f.userID, CreateQuoteRequest{ClientID: f.clientID, Title: "Empty"}, browser)
	require.NoError(t, err)

	_, err = svc.Send(context.Background(), f.userID, q.ID, browser)

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	assert.Equal(t, "Cannot send quote without items", err.Error())
	stored, _ := svc.GetByID(context.Background(), f.userID, q.ID)
	assert.Equal(t, "draft", stored.Status)
}

func TestQuoteService_AcceptFlow(t *testing.T) {
	f := newFixture(t)
	svc := NewQuoteService(f.cfg)
	sent := createSentQuote(t, f, svc, nil)
	require.NotNil(t, sent.SentAt)

	accepted, err := svc.Accept(context.Background(), sent.PublicHash, browser)
	require.NoError(t, err)
	assert.Equal(t, "accepted", accepted.Status)
	assert.NotNil(t, accepted.AcceptedAt)
	assert.NotNil(t, accepted.ViewedAt)

	_, err = svc.Accept(context.Background(), sent.PublicHash, browser)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInvalidState)
	assert.Equal(t, "Only sent quotes can be accepted", err.Error())

	history, err := svc.History(context.Background(), f.userID, sent.ID)
	require.NoError(t, err)
	assert.Equal(t, billing.HistoryActionAccepted, history[0].Action)
	assert.Equal(t, "Mozilla/5.0", history[0].UserAgent)

	f.audit.AssertCalled(t, "Record", mock.Anything, mock.MatchedBy(func(e AuditEntry) bool {
		return e.Action == "quote_accepted" && e.UserID == f.userID
	}))
}

func TestQuoteService_Accept_Expired(t *testing.T) {
	f := newFixture(t)
	svc := NewQuoteService(f.cfg)
	sent := createSentQuote(t, f, svc, datePtr(2024, 10, 14))

	_, err := svc.Accept(context.Background(), sent.PublicHash, browser)

	require.Error(t, err)
	assert.Equal(t, "Quote has expired", err.Error())

	expired, err := svc.Expired(context.Background(), f.userID)
	require.NoError(t, err)
	require.Len(t, expired, 1)
	assert.True(t, expired[0].IsExpired)
}

func TestQuoteService_Accept_ValidUntilToday(t *testing.T) {
	f := newFixture(t)
	svc := NewQuoteService(f.cfg)
	sent := createSentQuote(t, f, svc, datePtr(2024, 10, 15))

	accepted, err := svc.Accept(context.Background(), sent.PublicHash, browser)

	require.NoError(t, err)
	assert.Equal(t, "accepted", accepted.Status)
}

func TestQuoteService_Reject_WithReason(t *testing.T) {
	f := newFixture(t)
	svc := NewQuoteService(f.cfg)
	sent := createSentQuote(t, f, svc, nil)

	rejected, err := svc.Reject(context.Background(), sent.PublicHash, "Budget cut", browser)
	require.NoError(t, err)
	assert.Equal(t, "rejected", rejected.Status)
	assert.NotNil(t, rejected.ViewedAt)

	history, _ := svc.History(context.Background(), f.userID, sent.ID)
	assert.Equal(t, "Quote rejected by client: Budget cut", history[0].Description)

	_, err = svc.Reject(context.Background(), sent.PublicHash, "", browser)
	assert.Equal(t, "Only sent quotes can be rejected", err.Error())
}

func TestQuoteService_View_RecordsEveryView(t *testing.T) {
	f := newFixture(t)
	svc := NewQuoteService(f.cfg)
	sent := createSentQuote(t, f, svc, nil)

	first, err := svc.View(context.Background(), sent.PublicHash, browser)
	require.NoError(t, err)
	second, err := svc.View(context.Background(), sent.PublicHash, browser)
	require.NoError(t, err)

	require.NotNil(t, first.ViewedAt)
	assert.Equal(t, *first.ViewedAt, *second.ViewedAt)

	history, _ := svc.History(context.Background(), f.userID, sent.ID)
	views := 0
	for _, h := range history {
		if h.Action == billing.HistoryActionViewed {
			views++
		}
	}
	assert.Equal(t, 2, views)
}

func TestQuoteService_View_UnknownHash(t *testing.T) {
	f := newFixture(t)
	svc := NewQuoteService(f.cfg)

	_, err := svc.View(context.Background(), "deadbeef", browser)

	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestQuoteService_UpdateAndDelete_DraftOnly(t *testing.T) {
	f := newFixture(t)
	svc := NewQuoteService(f.cfg)
	sent := createSentQuote(t, f, svc, nil)
	title := "New title"

	_, err := svc.Update(context.Background(), f.userID, sent.ID, UpdateQuoteRequest{Title: &title}, browser)
	require.Error(t, err)
	assert.Equal(t, "Only draft quotes can be modified", err.Error())

	err = svc.Delete(context.Background(), f.userID, sent.ID, browser)
	require.Error(t, err)
	assert.Equal(t, "Only draft quotes can be deleted", err.Error())
}

func TestQuoteService_Update_ReplacesItems(t *testing.T) {
	f := newFixture(t)
	svc := NewQuoteService(f.cfg)
	q, err := svc.Create(context.Background(), f.userID, CreateQuoteRequest{
		ClientID: f.clientID,
		Title:    "Draft",
		Items:    []LineItemRequest{itemReq("Old", "1", "10")},
	}, browser)
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), f.userID, q.ID, UpdateQuoteRequest{
		DiscountAmount: decPtr("5"),
		Items:          []LineItemRequest{itemReq("New", "3", "20")},
	}, browser)

	require.NoError(t, err)
	require.Len(t, updated.Items, 1)
	assert.Equal(t, "New", updated.Items[0].Description)
	assert.Equal(t, "60.00", updated.Subtotal.StringFixed(2))
	assert.Equal(t, "55.00", updated.TotalAmount.StringFixed(2))
	assert.Equal(t, "Draft", updated.Title)
}

func TestQuoteService_Duplicate(t *testing.T) {
	f := newFixture(t)
	svc := NewQuoteService(f.cfg)
	sent := createSentQuote(t, f, svc, datePtr(2024, 12, 31))

	dup, err := svc.Duplicate(context.Background(), f.userID, sent.ID, browser)

	require.NoError(t, err)
	assert.Equal(t, "Website redesign - Copy", dup.Title)
	assert.Equal(t, "QUO-202410-002", dup.QuoteNumber)
	assert.Equal(t, "draft", dup.Status)
	assert.Nil(t, dup.SentAt)
	assert.Len(t, dup.Items, 1)
	assert.True(t, sent.TotalAmount.Equal(dup.TotalAmount))
	require.NotNil(t, dup.ValidUntil)

	history, _ := svc.History(context.Background(), f.userID, dup.ID)
	require.Len(t, history, 1)
	assert.Equal(t, "Quote duplicated from QUO-202410-001", history[0].Description)
}

func TestQuoteService_UpdateStatus(t *testing.T) {
	f := newFixture(t)
	svc := NewQuoteService(f.cfg)
	sent := createSentQuote(t, f, svc, nil)

	expired, err := svc.UpdateStatus(context.Background(), f.userID, sent.ID, "expired", browser)
	require.NoError(t, err)
	assert.Equal(t, "expired", expired.Status)
	require.NotNil(t, expired.ValidUntil)
	assert.True(t, expired.ValidUntil.Equal(time.Date(2024, 10, 15, 0, 0, 0, 0, time.UTC)))

	_, err = svc.UpdateStatus(context.Background(), f.userID, sent.ID, "archived", browser)
	assert.ErrorIs(t, err, shared.ErrInvalidArgument)
}

func TestQuoteService_UpdateStatus_AcceptedQuoteStaysClosed(t *testing.T) {
	f := newFixture(t)
	svc := NewQuoteService(f.cfg)
	sent := createSentQuote(t, f, svc, nil)
	_, err := svc.Accept(context.Background(), sent.PublicHash, browser)
	require.NoError(t, err)

	for _, target := range []string{"draft", "sent", "rejected"} {
		_, err = svc.UpdateStatus(context.Background(), f.userID, sent.ID, target, browser)
		assert.ErrorIs(t, err, shared.ErrInvalidState, target)
	}
	assert.ErrorIs(t, svc.Delete(context.Background(), f.userID, sent.ID, browser), shared.ErrInvalidState)

	got, err := svc.GetByID(context.Background(), f.userID, sent.ID)
	require.NoError(t, err)
	assert.Equal(t, "accepted", got.Status)
}

func TestQuoteService_UpdateStatus_SentQuoteCannotReturnToDraft(t *testing.T) {
	f := newFixture(t)
	svc := NewQuoteService(f.cfg)
	sent := createSentQuote(t, f, svc, nil)

	_, err := svc.UpdateStatus(context.Background(), f.userID, sent.ID, "draft", browser)

	assert.ErrorIs(t, err, shared.ErrInvalidState)
	assert.Equal(t, "Cannot return a sent quote to draft", err.Error())
}

func TestQuoteService_GetByID_OtherUser(t *testing.T) {
	f := newFixture(t)
	svc := NewQuoteService(f.cfg)
	sent := createSentQuote(t, f, svc, nil)

	_, err := svc.GetByID(context.Background(), uuid.New(), sent.ID)

	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestQuoteService_List_FiltersByStatus(t *testing.T) {
	f := newFixture(t)
	svc := NewQuoteService(f.cfg)
	createSentQuote(t, f, svc, nil)
	_, err := svc.Create(context.Background(), f.userID, CreateQuoteRequest{ClientID: f.clientID, Title: "Draft"}, browser)
	require.NoError(t, err)

	quotes, total, err := svc.List(context.Background(), f.userID, QuoteListFilter{Status: "sent"})

	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, quotes, 1)
	assert.Equal(t, "sent", quotes[0].Status)

	_, _, err = svc.List(context.Background(), f.userID, QuoteListFilter{Status: "bogus"})
	assert.ErrorIs(t, err, shared.ErrInvalidArgument)
}
