package handler

import (
	"context"

	billingapp "github.com/freelance/backend/internal/application/billing"
	"github.com/freelance/backend/internal/domain/billing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// PaymentUseCases is the payment ledger as seen by the HTTP layer
type PaymentUseCases interface {
	Add(ctx context.Context, userID, invoiceID uuid.UUID, req billingapp.CreatePaymentRequest, r billing.Requester) (*billingapp.PaymentResponse, error)
	Update(ctx context.Context, userID, invoiceID, paymentID uuid.UUID, req billingapp.UpdatePaymentRequest, r billing.Requester) (*billingapp.PaymentResponse, error)
	Delete(ctx context.Context, userID, invoiceID, paymentID uuid.UUID, r billing.Requester) error
	List(ctx context.Context, userID, invoiceID uuid.UUID) ([]billingapp.PaymentResponse, error)
	Get(ctx context.Context, userID, invoiceID, paymentID uuid.UUID) (*billingapp.PaymentResponse, error)
	ListByStatus(ctx context.Context, userID uuid.UUID, status string) ([]billingapp.PaymentResponse, error)
	TotalCompleted(ctx context.Context, userID uuid.UUID) (*billingapp.PaymentTotalResponse, error)
}

// PaymentHandler handles payments recorded against invoices
type PaymentHandler struct {
	BaseHandler
	payments PaymentUseCases
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments PaymentUseCases) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// List handles GET /invoices/:id/payments
func (h *PaymentHandler) List(c *gin.Context) {
	userID, invoiceID, ok := h.invoiceScope(c)
	if !ok {
		return
	}
	payments, err := h.payments.List(c.Request.Context(), userID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payments)
}

// Add handles POST /invoices/:id/payments
func (h *PaymentHandler) Add(c *gin.Context) {
	userID, invoiceID, ok := h.invoiceScope(c)
	if !ok {
		return
	}
	var req billingapp.CreatePaymentRequest
	if !h.bindJSON(c, &req, false) {
		return
	}
	payment, err := h.payments.Add(c.Request.Context(), userID, invoiceID, req, requester(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, payment)
}

// Get handles GET /invoices/:id/payments/:paymentId
func (h *PaymentHandler) Get(c *gin.Context) {
	userID, invoiceID, paymentID, ok := h.paymentScope(c)
	if !ok {
		return
	}
	payment, err := h.payments.Get(c.Request.Context(), userID, invoiceID, paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payment)
}

// Update handles PUT /invoices/:id/payments/:paymentId
func (h *PaymentHandler) Update(c *gin.Context) {
	userID, invoiceID, paymentID, ok := h.paymentScope(c)
	if !ok {
		return
	}
	var req billingapp.UpdatePaymentRequest
	if !h.bindJSON(c, &req, false) {
		return
	}
	payment, err := h.payments.Update(c.Request.Context(), userID, invoiceID, paymentID, req, requester(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payment)
}

// Delete handles DELETE /invoices/:id/payments/:paymentId
func (h *PaymentHandler) Delete(c *gin.Context) {
	userID, invoiceID, paymentID, ok := h.paymentScope(c)
	if !ok {
		return
	}
	if err := h.payments.Delete(c.Request.Context(), userID, invoiceID, paymentID, requester(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListByStatus handles GET /payments?status=
func (h *PaymentHandler) ListByStatus(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	status := c.DefaultQuery("status", string(billing.PaymentStatusCompleted))
	payments, err := h.payments.ListByStatus(c.Request.Context(), userID, status)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, payments)
}

// Total handles GET /payments/total
func (h *PaymentHandler) Total(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	total, err := h.payments.TotalCompleted(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, total)
}

func (h *PaymentHandler) invoiceScope(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := h.currentUser(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	invoiceID, ok := h.uuidParam(c, "id")
	return userID, invoiceID, ok
}

func (h *PaymentHandler) paymentScope(c *gin.Context) (uuid.UUID, uuid.UUID, uuid.UUID, bool) {
	userID, invoiceID, ok := h.invoiceScope(c)
	if !ok {
		return uuid.Nil, uuid.Nil, uuid.Nil, false
	}
	paymentID, ok := h.uuidParam(c, "paymentId")
	return userID, invoiceID, paymentID, ok
}
