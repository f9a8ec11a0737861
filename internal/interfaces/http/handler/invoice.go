package handler

import (
	"context"
	"strconv"

	billingapp "github.com/freelance/backend/internal/application/billing"
	"github.com/freelance/backend/internal/domain/billing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// defaultRecentLimit and maxRecentLimit bound GET /invoices/recent
const (
	defaultRecentLimit = 5
	maxRecentLimit     = 50
)

// InvoiceUseCases is the invoice service as seen by the HTTP layer
type InvoiceUseCases interface {
	Create(ctx context.Context, userID uuid.UUID, req billingapp.CreateInvoiceRequest, r billing.Requester) (*billingapp.InvoiceResponse, error)
	GetByID(ctx context.Context, userID, invoiceID uuid.UUID) (*billingapp.InvoiceResponse, error)
	Summary(ctx context.Context, userID, invoiceID uuid.UUID) (*billingapp.InvoiceSummaryResponse, error)
	List(ctx context.Context, userID uuid.UUID, filter billingapp.InvoiceListFilter) ([]billingapp.InvoiceResponse, int64, error)
	Update(ctx context.Context, userID, invoiceID uuid.UUID, req billingapp.UpdateInvoiceRequest, r billing.Requester) (*billingapp.InvoiceResponse, error)
	Delete(ctx context.Context, userID, invoiceID uuid.UUID, r billing.Requester) error
	Send(ctx context.Context, userID, invoiceID uuid.UUID, r billing.Requester) (*billingapp.InvoiceResponse, error)
	Cancel(ctx context.Context, userID, invoiceID uuid.UUID, r billing.Requester) (*billingapp.InvoiceResponse, error)
	UpdateStatus(ctx context.Context, userID, invoiceID uuid.UUID, status string, r billing.Requester) (*billingapp.InvoiceResponse, error)
	Duplicate(ctx context.Context, userID, invoiceID uuid.UUID, r billing.Requester) (*billingapp.InvoiceResponse, error)
	Overdue(ctx context.Context, userID uuid.UUID) ([]billingapp.InvoiceResponse, error)
	Recent(ctx context.Context, userID uuid.UUID, limit int) ([]billingapp.InvoiceResponse, error)
	Stats(ctx context.Context, userID uuid.UUID) (*billingapp.InvoiceStatsResponse, error)
}

// AgingUseCases builds the receivables aging report
type AgingUseCases interface {
	Report(ctx context.Context, userID uuid.UUID) (*billingapp.AgingReportResponse, error)
}

// InvoiceHandler handles the invoice and reporting endpoints
type InvoiceHandler struct {
	BaseHandler
	invoices InvoiceUseCases
	aging    AgingUseCases
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(invoices InvoiceUseCases, aging AgingUseCases) *InvoiceHandler {
	return &InvoiceHandler{invoices: invoices, aging: aging}
}

// Create handles POST /invoices
func (h *InvoiceHandler) Create(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req billingapp.CreateInvoiceRequest
	if !h.bindJSON(c, &req, false) {
		return
	}
	invoice, err := h.invoices.Create(c.Request.Context(), userID, req, requester(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

// List handles GET /invoices
func (h *InvoiceHandler) List(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var filter billingapp.InvoiceListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	invoices, total, err := h.invoices.List(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := pagination(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, invoices, total, page, pageSize)
}

// Overdue handles GET /invoices/overdue
func (h *InvoiceHandler) Overdue(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	invoices, err := h.invoices.Overdue(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoices)
}

// Recent handles GET /invoices/recent?limit=n
func (h *InvoiceHandler) Recent(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	limit := defaultRecentLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxRecentLimit {
			h.BadRequest(c, "limit must be between 1 and "+strconv.Itoa(maxRecentLimit))
			return
		}
		limit = n
	}
	invoices, err := h.invoices.Recent(c.Request.Context(), userID, limit)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoices)
}

// Stats handles GET /invoices/stats
func (h *InvoiceHandler) Stats(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	stats, err := h.invoices.Stats(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// Aging handles GET /invoices/aging
func (h *InvoiceHandler) Aging(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	report, err := h.aging.Report(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// Get handles GET /invoices/:id
func (h *InvoiceHandler) Get(c *gin.Context) {
	userID, invoiceID, ok := h.ownedInvoice(c)
	if !ok {
		return
	}
	invoice, err := h.invoices.GetByID(c.Request.Context(), userID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// Summary handles GET /invoices/:id/summary
func (h *InvoiceHandler) Summary(c *gin.Context) {
	userID, invoiceID, ok := h.ownedInvoice(c)
	if !ok {
		return
	}
	summary, err := h.invoices.Summary(c.Request.Context(), userID, invoiceID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// Update handles PUT /invoices/:id
func (h *InvoiceHandler) Update(c *gin.Context) {
	userID, invoiceID, ok := h.ownedInvoice(c)
	if !ok {
		return
	}
	var req billingapp.UpdateInvoiceRequest
	if !h.bindJSON(c, &req, false) {
		return
	}
	invoice, err := h.invoices.Update(c.Request.Context(), userID, invoiceID, req, requester(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// Delete handles DELETE /invoices/:id
func (h *InvoiceHandler) Delete(c *gin.Context) {
	userID, invoiceID, ok := h.ownedInvoice(c)
	if !ok {
		return
	}
	if err := h.invoices.Delete(c.Request.Context(), userID, invoiceID, requester(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Send handles POST /invoices/:id/send
func (h *InvoiceHandler) Send(c *gin.Context) {
	h.transition(c, h.invoices.Send)
}

// Cancel handles POST /invoices/:id/cancel
func (h *InvoiceHandler) Cancel(c *gin.Context) {
	h.transition(c, h.invoices.Cancel)
}

// Duplicate handles POST /invoices/:id/duplicate
func (h *InvoiceHandler) Duplicate(c *gin.Context) {
	userID, invoiceID, ok := h.ownedInvoice(c)
	if !ok {
		return
	}
	invoice, err := h.invoices.Duplicate(c.Request.Context(), userID, invoiceID, requester(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

// UpdateStatus handles PATCH /invoices/:id/status
func (h *InvoiceHandler) UpdateStatus(c *gin.Context) {
	userID, invoiceID, ok := h.ownedInvoice(c)
	if !ok {
		return
	}
	var req billingapp.UpdateStatusRequest
	if !h.bindJSON(c, &req, false) {
		return
	}
	invoice, err := h.invoices.UpdateStatus(c.Request.Context(), userID, invoiceID, req.Status, requester(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

func (h *InvoiceHandler) transition(c *gin.Context, fn func(context.Context, uuid.UUID, uuid.UUID, billing.Requester) (*billingapp.InvoiceResponse, error)) {
	userID, invoiceID, ok := h.ownedInvoice(c)
	if !ok {
		return
	}
	invoice, err := fn(c.Request.Context(), userID, invoiceID, requester(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

func (h *InvoiceHandler) ownedInvoice(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := h.currentUser(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	invoiceID, ok := h.uuidParam(c, "id")
	return userID, invoiceID, ok
}
