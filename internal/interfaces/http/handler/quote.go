package handler

import (
	"context"
	"errors"
	"io"

	billingapp "github.com/freelance/backend/internal/application/billing"
	"github.com/freelance/backend/internal/domain/billing"
	"github.com/freelance/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// QuoteUseCases is the quote service as seen by the HTTP layer
type QuoteUseCases interface {
	Create(ctx context.Context, userID uuid.UUID, req billingapp.CreateQuoteRequest, r billing.Requester) (*billingapp.QuoteResponse, error)
	GetByID(ctx context.Context, userID, quoteID uuid.UUID) (*billingapp.QuoteResponse, error)
	List(ctx context.Context, userID uuid.UUID, filter billingapp.QuoteListFilter) ([]billingapp.QuoteResponse, int64, error)
	Update(ctx context.Context, userID, quoteID uuid.UUID, req billingapp.UpdateQuoteRequest, r billing.Requester) (*billingapp.QuoteResponse, error)
	Delete(ctx context.Context, userID, quoteID uuid.UUID, r billing.Requester) error
	Send(ctx context.Context, userID, quoteID uuid.UUID, r billing.Requester) (*billingapp.QuoteResponse, error)
	UpdateStatus(ctx context.Context, userID, quoteID uuid.UUID, status string, r billing.Requester) (*billingapp.QuoteResponse, error)
	Duplicate(ctx context.Context, userID, quoteID uuid.UUID, r billing.Requester) (*billingapp.QuoteResponse, error)
	History(ctx context.Context, userID, quoteID uuid.UUID) ([]billingapp.QuoteHistoryResponse, error)
	Expired(ctx context.Context, userID uuid.UUID) ([]billingapp.QuoteResponse, error)
}

// ConversionUseCases turns accepted quotes into invoices
type ConversionUseCases interface {
	CreateInvoiceFromQuote(ctx context.Context, userID, quoteID uuid.UUID, override *billingapp.CreateInvoiceRequest, r billing.Requester) (*billingapp.InvoiceResponse, error)
}

// QuoteHandler handles the quote endpoints
type QuoteHandler struct {
	BaseHandler
	quotes     QuoteUseCases
	conversion ConversionUseCases
}

// NewQuoteHandler creates a new QuoteHandler
func NewQuoteHandler(quotes QuoteUseCases, conversion ConversionUseCases) *QuoteHandler {
	return &QuoteHandler{quotes: quotes, conversion: conversion}
}

// Create handles POST /quotes
func (h *QuoteHandler) Create(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var req billingapp.CreateQuoteRequest
	if !h.bindJSON(c, &req, false) {
		return
	}
	quote, err := h.quotes.Create(c.Request.Context(), userID, req, requester(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, quote)
}

// List handles GET /quotes
func (h *QuoteHandler) List(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	var filter billingapp.QuoteListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	quotes, total, err := h.quotes.List(c.Request.Context(), userID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := pagination(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, quotes, total, page, pageSize)
}

// Expired handles GET /quotes/expired
func (h *QuoteHandler) Expired(c *gin.Context) {
	userID, ok := h.currentUser(c)
	if !ok {
		return
	}
	quotes, err := h.quotes.Expired(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quotes)
}

// Get handles GET /quotes/:id
func (h *QuoteHandler) Get(c *gin.Context) {
	userID, quoteID, ok := h.ownedQuote(c)
	if !ok {
		return
	}
	quote, err := h.quotes.GetByID(c.Request.Context(), userID, quoteID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

// Update handles PUT /quotes/:id
func (h *QuoteHandler) Update(c *gin.Context) {
	userID, quoteID, ok := h.ownedQuote(c)
	if !ok {
		return
	}
	var req billingapp.UpdateQuoteRequest
	if !h.bindJSON(c, &req, false) {
		return
	}
	quote, err := h.quotes.Update(c.Request.Context(), userID, quoteID, req, requester(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

// Delete handles DELETE /quotes/:id
func (h *QuoteHandler) Delete(c *gin.Context) {
	userID, quoteID, ok := h.ownedQuote(c)
	if !ok {
		return
	}
	if err := h.quotes.Delete(c.Request.Context(), userID, quoteID, requester(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Send handles POST /quotes/:id/send
func (h *QuoteHandler) Send(c *gin.Context) {
	h.transition(c, h.quotes.Send)
}

// Duplicate handles POST /quotes/:id/duplicate
func (h *QuoteHandler) Duplicate(c *gin.Context) {
	userID, quoteID, ok := h.ownedQuote(c)
	if !ok {
		return
	}
	quote, err := h.quotes.Duplicate(c.Request.Context(), userID, quoteID, requester(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, quote)
}

// UpdateStatus handles PATCH /quotes/:id/status
func (h *QuoteHandler) UpdateStatus(c *gin.Context) {
	userID, quoteID, ok := h.ownedQuote(c)
	if !ok {
		return
	}
	var req billingapp.UpdateStatusRequest
	if !h.bindJSON(c, &req, false) {
		return
	}
	quote, err := h.quotes.UpdateStatus(c.Request.Context(), userID, quoteID, req.Status, requester(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

// History handles GET /quotes/:id/history
func (h *QuoteHandler) History(c *gin.Context) {
	userID, quoteID, ok := h.ownedQuote(c)
	if !ok {
		return
	}
	history, err := h.quotes.History(c.Request.Context(), userID, quoteID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, history)
}

// ConvertToInvoice handles POST /quotes/:id/invoice. The optional body
// overrides fields copied from the quote.
func (h *QuoteHandler) ConvertToInvoice(c *gin.Context) {
	userID, quoteID, ok := h.ownedQuote(c)
	if !ok {
		return
	}
	var override *billingapp.CreateInvoiceRequest
	var req billingapp.CreateInvoiceRequest
	switch err := c.ShouldBindJSON(&req); {
	case err == nil:
		override = &req
	case !errors.Is(err, io.EOF):
		h.bindError(c, err)
		return
	}
	invoice, err := h.conversion.CreateInvoiceFromQuote(c.Request.Context(), userID, quoteID, override, requester(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

func (h *QuoteHandler) transition(c *gin.Context, fn func(context.Context, uuid.UUID, uuid.UUID, billing.Requester) (*billingapp.QuoteResponse, error)) {
	userID, quoteID, ok := h.ownedQuote(c)
	if !ok {
		return
	}
	quote, err := fn(c.Request.Context(), userID, quoteID, requester(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

func (h *QuoteHandler) ownedQuote(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := h.currentUser(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	quoteID, ok := h.uuidParam(c, "id")
	return userID, quoteID, ok
}

func pagination(page, pageSize int) (int, int) {
	f := shared.Filter{Page: page, PageSize: pageSize}.Normalized()
	return f.Page, f.PageSize
}
