package handler

import (
	"context"

	billingapp "github.com/freelance/backend/internal/application/billing"
	"github.com/freelance/backend/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

func result[T any](args mock.Arguments) (*T, error) {
	if v := args.Get(0); v != nil {
		return v.(*T), args.Error(1)
	}
	return nil, args.Error(1)
}

func results[T any](args mock.Arguments, at int) []T {
	if v := args.Get(at); v != nil {
		return v.([]T)
	}
	return nil
}

type MockQuoteUseCases struct{ mock.Mock }

func (m *MockQuoteUseCases) Create(ctx context.Context, userID uuid.UUID, req billingapp.CreateQuoteRequest, r billing.Requester) (*billingapp.QuoteResponse, error) {
	return result[billingapp.QuoteResponse](m.Called(ctx, userID, req, r))
}

func (m *MockQuoteUseCases) GetByID(ctx context.Context, userID, quoteID uuid.UUID) (*billingapp.QuoteResponse, error) {
	return result[billingapp.QuoteResponse](m.Called(ctx, userID, quoteID))
}

func (m *MockQuoteUseCases) List(ctx context.Context, userID uuid.UUID, filter billingapp.QuoteListFilter) ([]billingapp.QuoteResponse, int64, error) {
	args := m.Called(ctx, userID, filter)
	return results[billingapp.QuoteResponse](args, 0), args.Get(1).(int64), args.Error(2)
}

func (m *MockQuoteUseCases) Update(ctx context.Context, userID, quoteID uuid.UUID, req billingapp.UpdateQuoteRequest, r billing.Requester) (*billingapp.QuoteResponse, error) {
	return result[billingapp.QuoteResponse](m.Called(ctx, userID, quoteID, req, r))
}

func (m *MockQuoteUseCases) Delete(ctx context.Context, userID, quoteID uuid.UUID, r billing.Requester) error {
	return m.Called(ctx, userID, quoteID, r).Error(0)
}

func (m *MockQuoteUseCases) Send(ctx context.Context, userID, quoteID uuid.UUID, r billing.Requester) (*billingapp.QuoteResponse, error) {
	return result[billingapp.QuoteResponse](m.Called(ctx, userID, quoteID, r))
}

func (m *MockQuoteUseCases) UpdateStatus(ctx context.Context, userID, quoteID uuid.UUID, status string, r billing.Requester) (*billingapp.QuoteResponse, error) {
	return result[billingapp.QuoteResponse](m.Called(ctx, userID, quoteID, status, r))
}

func (m *MockQuoteUseCases) Duplicate(ctx context.Context, userID, quoteID uuid.UUID, r billing.Requester) (*billingapp.QuoteResponse, error) {
	return result[billingapp.QuoteResponse](m.Called(ctx, userID, quoteID, r))
}

func (m *MockQuoteUseCases) History(ctx context.Context, userID, quoteID uuid.UUID) ([]billingapp.QuoteHistoryResponse, error) {
	args := m.Called(ctx, userID, quoteID)
	return results[billingapp.QuoteHistoryResponse](args, 0), args.Error(1)
}

func (m *MockQuoteUseCases) Expired(ctx context.Context, userID uuid.UUID) ([]billingapp.QuoteResponse, error) {
	args := m.Called(ctx, userID)
	return results[billingapp.QuoteResponse](args, 0), args.Error(1)
}

func (m *MockQuoteUseCases) View(ctx context.Context, hash string, r billing.Requester) (*billingapp.QuoteResponse, error) {
	return result[billingapp.QuoteResponse](m.Called(ctx, hash, r))
}

func (m *MockQuoteUseCases) Accept(ctx context.Context, hash string, r billing.Requester) (*billingapp.QuoteResponse, error) {
	return result[billingapp.QuoteResponse](m.Called(ctx, hash, r))
}

func (m *MockQuoteUseCases) Reject(ctx context.Context, hash, reason string, r billing.Requester) (*billingapp.QuoteResponse, error) {
	return result[billingapp.QuoteResponse](m.Called(ctx, hash, reason, r))
}

type MockConversionUseCases struct{ mock.Mock }

func (m *MockConversionUseCases) CreateInvoiceFromQuote(ctx context.Context, userID, quoteID uuid.UUID, override *billingapp.CreateInvoiceRequest, r billing.Requester) (*billingapp.InvoiceResponse, error) {
	return result[billingapp.InvoiceResponse](m.Called(ctx, userID, quoteID, override, r))
}

type MockInvoiceUseCases struct{ mock.Mock }

func (m *MockInvoiceUseCases) Create(ctx context.Context, userID uuid.UUID, req billingapp.CreateInvoiceRequest, r billing.Requester) (*billingapp.InvoiceResponse, error) {
	return result[billingapp.InvoiceResponse](m.Called(ctx, userID, req, r))
}

func (m *MockInvoiceUseCases) GetByID(ctx context.Context, userID, invoiceID uuid.UUID) (*billingapp.InvoiceResponse, error) {
	return result[billingapp.InvoiceResponse](m.Called(ctx, userID, invoiceID))
}

func (m *MockInvoiceUseCases) Summary(ctx context.Context, userID, invoiceID uuid.UUID) (*billingapp.InvoiceSummaryResponse, error) {
	return result[billingapp.InvoiceSummaryResponse](m.Called(ctx, userID, invoiceID))
}

func (m *MockInvoiceUseCases) List(ctx context.Context, userID uuid.UUID, filter billingapp.InvoiceListFilter) ([]billingapp.InvoiceResponse, int64, error) {
	args := m.Called(ctx, userID, filter)
	return results[billingapp.InvoiceResponse](args, 0), args.Get(1).(int64), args.Error(2)
}

func (m *MockInvoiceUseCases) Update(ctx context.Context, userID, invoiceID uuid.UUID, req billingapp.UpdateInvoiceRequest, r billing.Requester) (*billingapp.InvoiceResponse, error) {
	return result[billingapp.InvoiceResponse](m.Called(ctx, userID, invoiceID, req, r))
}

func (m *MockInvoiceUseCases) Delete(ctx context.Context, userID, invoiceID uuid.UUID, r billing.Requester) error {
	return m.Called(ctx, userID, invoiceID, r).Error(0)
}

func (m *MockInvoiceUseCases) Send(ctx context.Context, userID, invoiceID uuid.UUID, r billing.Requester) (*billingapp.InvoiceResponse, error) {
	return result[billingapp.InvoiceResponse](m.Called(ctx, userID, invoiceID, r))
}

func (m *MockInvoiceUseCases) Cancel(ctx context.Context, userID, invoiceID uuid.UUID, r billing.Requester) (*billingapp.InvoiceResponse, error) {
	return result[billingapp.InvoiceResponse](m.Called(ctx, userID, invoiceID, r))
}

func (m *MockInvoiceUseCases) UpdateStatus(ctx context.Context, userID, invoiceID uuid.UUID, status string, r billing.Requester) (*billingapp.InvoiceResponse, error) {
	return result[billingapp.InvoiceResponse](m.Called(ctx, userID, invoiceID, status, r))
}

func (m *MockInvoiceUseCases) Duplicate(ctx context.Context, userID, invoiceID uuid.UUID, r billing.Requester) (*billingapp.InvoiceResponse, error) {
	return result[billingapp.InvoiceResponse](m.Called(ctx, userID, invoiceID, r))
}

func (m *MockInvoiceUseCases) Overdue(ctx context.Context, userID uuid.UUID) ([]billingapp.InvoiceResponse, error) {
	args := m.Called(ctx, userID)
	return results[billingapp.InvoiceResponse](args, 0), args.Error(1)
}

func (m *MockInvoiceUseCases) Recent(ctx context.Context, userID uuid.UUID, limit int) ([]billingapp.InvoiceResponse, error) {
	args := m.Called(ctx, userID, limit)
	return results[billingapp.InvoiceResponse](args, 0), args.Error(1)
}

func (m *MockInvoiceUseCases) Stats(ctx context.Context, userID uuid.UUID) (*billingapp.InvoiceStatsResponse, error) {
	return result[billingapp.InvoiceStatsResponse](m.Called(ctx, userID))
}

func (m *MockInvoiceUseCases) View(ctx context.Context, hash string) (*billingapp.InvoiceResponse, error) {
	return result[billingapp.InvoiceResponse](m.Called(ctx, hash))
}

type MockAgingUseCases struct{ mock.Mock }

func (m *MockAgingUseCases) Report(ctx context.Context, userID uuid.UUID) (*billingapp.AgingReportResponse, error) {
	return result[billingapp.AgingReportResponse](m.Called(ctx, userID))
}

type MockLineItemUseCases struct{ mock.Mock }

func (m *MockLineItemUseCases) List(ctx context.Context, userID uuid.UUID, parent billingapp.Parent) ([]billingapp.LineItemResponse, error) {
	args := m.Called(ctx, userID, parent)
	return results[billingapp.LineItemResponse](args, 0), args.Error(1)
}

func (m *MockLineItemUseCases) Add(ctx context.Context, userID uuid.UUID, parent billingapp.Parent, req billingapp.LineItemRequest, r billing.Requester) (*billingapp.LineItemResponse, error) {
	return result[billingapp.LineItemResponse](m.Called(ctx, userID, parent, req, r))
}

func (m *MockLineItemUseCases) Update(ctx context.Context, userID uuid.UUID, parent billingapp.Parent, itemID uuid.UUID, req billingapp.UpdateLineItemRequest, r billing.Requester) (*billingapp.LineItemResponse, error) {
	return result[billingapp.LineItemResponse](m.Called(ctx, userID, parent, itemID, req, r))
}

func (m *MockLineItemUseCases) Delete(ctx context.Context, userID uuid.UUID, parent billingapp.Parent, itemID uuid.UUID, r billing.Requester) error {
	return m.Called(ctx, userID, parent, itemID, r).Error(0)
}

func (m *MockLineItemUseCases) Reorder(ctx context.Context, userID uuid.UUID, parent billingapp.Parent, itemIDs []uuid.UUID) ([]billingapp.LineItemResponse, error) {
	args := m.Called(ctx, userID, parent, itemIDs)
	return results[billingapp.LineItemResponse](args, 0), args.Error(1)
}

type MockPaymentUseCases struct{ mock.Mock }

func (m *MockPaymentUseCases) Add(ctx context.Context, userID, invoiceID uuid.UUID, req billingapp.CreatePaymentRequest, r billing.Requester) (*billingapp.PaymentResponse, error) {
	return result[billingapp.PaymentResponse](m.Called(ctx, userID, invoiceID, req, r))
}

func (m *MockPaymentUseCases) Update(ctx context.Context, userID, invoiceID, paymentID uuid.UUID, req billingapp.UpdatePaymentRequest, r billing.Requester) (*billingapp.PaymentResponse, error) {
	return result[billingapp.PaymentResponse](m.Called(ctx, userID, invoiceID, paymentID, req, r))
}

func (m *MockPaymentUseCases) Delete(ctx context.Context, userID, invoiceID, paymentID uuid.UUID, r billing.Requester) error {
	return m.Called(ctx, userID, invoiceID, paymentID, r).Error(0)
}

func (m *MockPaymentUseCases) List(ctx context.Context, userID, invoiceID uuid.UUID) ([]billingapp.PaymentResponse, error) {
	args := m.Called(ctx, userID, invoiceID)
	return results[billingapp.PaymentResponse](args, 0), args.Error(1)
}

func (m *MockPaymentUseCases) Get(ctx context.Context, userID, invoiceID, paymentID uuid.UUID) (*billingapp.PaymentResponse, error) {
	return result[billingapp.PaymentResponse](m.Called(ctx, userID, invoiceID, paymentID))
}

func (m *MockPaymentUseCases) ListByStatus(ctx context.Context, userID uuid.UUID, status string) ([]billingapp.PaymentResponse, error) {
	args := m.Called(ctx, userID, status)
	return results[billingapp.PaymentResponse](args, 0), args.Error(1)
}

func (m *MockPaymentUseCases) TotalCompleted(ctx context.Context, userID uuid.UUID) (*billingapp.PaymentTotalResponse, error) {
	return result[billingapp.PaymentTotalResponse](m.Called(ctx, userID))
}

var (
	_ QuoteUseCases         = (*MockQuoteUseCases)(nil)
	_ PublicQuoteUseCases   = (*MockQuoteUseCases)(nil)
	_ ConversionUseCases    = (*MockConversionUseCases)(nil)
	_ InvoiceUseCases       = (*MockInvoiceUseCases)(nil)
	_ PublicInvoiceUseCases = (*MockInvoiceUseCases)(nil)
	_ AgingUseCases         = (*MockAgingUseCases)(nil)
	_ LineItemUseCases      = (*MockLineItemUseCases)(nil)
	_ PaymentUseCases       = (*MockPaymentUseCases)(nil)
)
