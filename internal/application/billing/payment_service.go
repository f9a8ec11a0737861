package billing

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/freelance/backend/internal/domain/activity"
	"github.com/freelance/backend/internal/domain/billing"
	"github.com/freelance/backend/internal/domain/shared"
	"github.com/freelance/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PaymentService records payments against invoices
type PaymentService struct {
	service
}

// NewPaymentService creates a new PaymentService
func NewPaymentService(cfg ServiceConfig) *PaymentService {
	return &PaymentService{service: newService(cfg)}
}

// Add records a payment. The invoice row stays locked until commit so
// concurrent payments cannot overpay it.
func (s *PaymentService) Add(ctx context.Context, userID, invoiceID uuid.UUID, req CreatePaymentRequest, requester billing.Requester) (*PaymentResponse, error) {
	input, err := s.paymentInput(req)
	if err != nil {
		return nil, err
	}

	var payment *billing.InvoicePayment
	var invoice *billing.Invoice
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		invoice, err = repos.InvoiceRepo().FindByIDForUpdate(ctx, userID, invoiceID)
		if err != nil {
			return err
		}
		if err := invoice.EnsureAcceptsPayments(); err != nil {
			return err
		}
		if err := s.ensureUniqueTransaction(ctx, repos, input.TransactionID); err != nil {
			return err
		}
		payment, err = invoice.RecordPayment(s.ids.NewID(), input, s.now())
		if err != nil {
			return err
		}
		return repos.InvoiceRepo().Save(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment recorded",
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("amount", payment.Amount.StringFixed(2)),
		zap.String("invoice_status", string(invoice.Status)))
	s.record(ctx, auditEntry(userID, "payment_added", activity.Payment(payment.ID),
		fmt.Sprintf("Recorded payment of %s on invoice %s", payment.Money(), invoice.InvoiceNumber), requester))

	resp := ToPaymentResponse(*payment)
	return &resp, nil
}

func (s *PaymentService) paymentInput(req CreatePaymentRequest) (billing.PaymentInput, error) {
	status, err := billing.ParsePaymentStatus(req.Status)
	if err != nil {
		return billing.PaymentInput{}, err
	}
	var currency valueobject.Currency
	if req.Currency != "" {
		if currency, err = s.parseCurrency(req.Currency); err != nil {
			return billing.PaymentInput{}, err
		}
	}
	metadata, err := metadataString(req.Metadata)
	if err != nil {
		return billing.PaymentInput{}, err
	}
	paymentDate := s.now()
	if t := req.PaymentDate.ptr(); t != nil {
		paymentDate = *t
	}
	return billing.PaymentInput{
		PaymentMethod: req.PaymentMethod,
		TransactionID: req.TransactionID,
		Amount:        req.Amount,
		Currency:      currency,
		PaymentDate:   shared.StartOfDay(paymentDate.UTC()),
		Status:        status,
		Notes:         req.Notes,
		Metadata:      metadata,
	}, nil
}

func (s *PaymentService) ensureUniqueTransaction(ctx context.Context, repos TransactionalRepositories, transactionID *string) error {
	id := billing.NormalizeTransactionID(transactionID)
	if id == nil {
		return nil
	}
	exists, err := repos.PaymentRepo().ExistsByTransactionID(ctx, *id)
	if err != nil {
		return err
	}
	if exists {
		return shared.Conflict("Payment with this transaction ID already exists")
	}
	return nil
}

// Update patches a payment and recomputes the invoice
func (s *PaymentService) Update(ctx context.Context, userID, invoiceID, paymentID uuid.UUID, req UpdatePaymentRequest, requester billing.Requester) (*PaymentResponse, error) {
	patch, err := s.paymentPatch(req)
	if err != nil {
		return nil, err
	}

	var payment *billing.InvoicePayment
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, userID, invoiceID)
		if err != nil {
			return err
		}
		current, ok := invoice.FindPayment(paymentID)
		if !ok {
			return shared.NotFound("Payment not found")
		}
		if next := billing.NormalizeTransactionID(patch.TransactionID); next != nil {
			if current.TransactionID == nil || *current.TransactionID != *next {
				if err := s.ensureUniqueTransaction(ctx, repos, next); err != nil {
					return err
				}
			}
		}
		payment, err = invoice.UpdatePayment(paymentID, patch, s.now())
		if err != nil {
			return err
		}
		return repos.InvoiceRepo().Save(ctx, invoice)
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, auditEntry(userID, "payment_updated", activity.Payment(payment.ID),
		fmt.Sprintf("Updated payment of %s", payment.Money()), requester))
	resp := ToPaymentResponse(*payment)
	return &resp, nil
}

func (s *PaymentService) paymentPatch(req UpdatePaymentRequest) (billing.PaymentPatch, error) {
	patch := billing.PaymentPatch{
		PaymentMethod: req.PaymentMethod,
		TransactionID: req.TransactionID,
		Amount:        req.Amount,
		Notes:         req.Notes,
	}
	if req.Status != nil {
		status, err := billing.ParsePaymentStatus(*req.Status)
		if err != nil {
			return patch, err
		}
		patch.Status = &status
	}
	if req.Currency != nil {
		c, err := s.parseCurrency(*req.Currency)
		if err != nil {
			return patch, err
		}
		patch.Currency = &c
	}
	if t := req.PaymentDate.ptr(); t != nil {
		d := shared.StartOfDay(t.UTC())
		patch.PaymentDate = &d
	}
	if len(req.Metadata) > 0 {
		m, err := metadataString(req.Metadata)
		if err != nil {
			return patch, err
		}
		patch.Metadata = &m
	}
	return patch, nil
}

// Delete removes a payment that is not completed
func (s *PaymentService) Delete(ctx context.Context, userID, invoiceID, paymentID uuid.UUID, requester billing.Requester) error {
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		invoice, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, userID, invoiceID)
		if err != nil {
			return err
		}
		if err := invoice.RemovePayment(paymentID, s.now()); err != nil {
			return err
		}
		return repos.InvoiceRepo().Save(ctx, invoice)
	})
	if err != nil {
		return err
	}
	s.record(ctx, auditEntry(userID, "payment_deleted", activity.Payment(paymentID), "Deleted a payment", requester))
	return nil
}

// List returns the payments of one invoice
func (s *PaymentService) List(ctx context.Context, userID, invoiceID uuid.UUID) ([]PaymentResponse, error) {
	invoice, err := s.invoices.FindByIDForUser(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	out := make([]PaymentResponse, len(invoice.Payments))
	for i, p := range invoice.Payments {
		out[i] = ToPaymentResponse(p)
	}
	return out, nil
}

// Get returns one payment of an invoice
func (s *PaymentService) Get(ctx context.Context, userID, invoiceID, paymentID uuid.UUID) (*PaymentResponse, error) {
	invoice, err := s.invoices.FindByIDForUser(ctx, userID, invoiceID)
	if err != nil {
		return nil, err
	}
	p, ok := invoice.FindPayment(paymentID)
	if !ok {
		return nil, shared.NotFound("Payment not found")
	}
	resp := ToPaymentResponse(*p)
	return &resp, nil
}

// ListByStatus returns the user's payments in one status
func (s *PaymentService) ListByStatus(ctx context.Context, userID uuid.UUID, raw string) ([]PaymentResponse, error) {
	status, err := billing.ParsePaymentStatus(raw)
	if err != nil {
		return nil, err
	}
	payments, err := s.payments.FindByStatusForUser(ctx, userID, status)
	if err != nil {
		return nil, err
	}
	out := make([]PaymentResponse, len(payments))
	for i, p := range payments {
		out[i] = ToPaymentResponse(p)
	}
	return out, nil
}

// TotalCompleted sums the user's completed payments
func (s *PaymentService) TotalCompleted(ctx context.Context, userID uuid.UUID) (*PaymentTotalResponse, error) {
	total, err := s.payments.SumCompletedForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &PaymentTotalResponse{TotalCompleted: billing.Round2(total)}, nil
}

// metadataString stores payment metadata as compact JSON text
func metadataString(raw json.RawMessage) (string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return "{}", nil
	}
	if !json.Valid(raw) {
		return "", shared.InvalidArgument("Payment metadata must be valid JSON")
	}
	return string(raw), nil
}
