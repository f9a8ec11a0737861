package handler

import (
	"context"

	billingapp "github.com/freelance/backend/internal/application/billing"
	"github.com/freelance/backend/internal/domain/billing"
	"github.com/freelance/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// PublicQuoteUseCases are the quote operations open to the client holding the link
type PublicQuoteUseCases interface {
	View(ctx context.Context, hash string, r billing.Requester) (*billingapp.QuoteResponse, error)
	Accept(ctx context.Context, hash string, r billing.Requester) (*billingapp.QuoteResponse, error)
	Reject(ctx context.Context, hash, reason string, r billing.Requester) (*billingapp.QuoteResponse, error)
}

// PublicInvoiceUseCases are the invoice operations open to the client holding the link
type PublicInvoiceUseCases interface {
	View(ctx context.Context, hash string) (*billingapp.InvoiceResponse, error)
}

// PublicHandler serves documents addressed by their public hash. These
// routes carry no authentication.
type PublicHandler struct {
	BaseHandler
	quotes   PublicQuoteUseCases
	invoices PublicInvoiceUseCases
}

// NewPublicHandler creates a new PublicHandler
func NewPublicHandler(quotes PublicQuoteUseCases, invoices PublicInvoiceUseCases) *PublicHandler {
	return &PublicHandler{quotes: quotes, invoices: invoices}
}

// ViewQuote handles GET /public/quotes/:hash
func (h *PublicHandler) ViewQuote(c *gin.Context) {
	hash, ok := h.hashParam(c)
	if !ok {
		return
	}
	quote, err := h.quotes.View(c.Request.Context(), hash, requester(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

// AcceptQuote handles POST /public/quotes/:hash/accept
func (h *PublicHandler) AcceptQuote(c *gin.Context) {
	hash, ok := h.hashParam(c)
	if !ok {
		return
	}
	quote, err := h.quotes.Accept(c.Request.Context(), hash, requester(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

// RejectQuote handles POST /public/quotes/:hash/reject with an optional reason
func (h *PublicHandler) RejectQuote(c *gin.Context) {
	hash, ok := h.hashParam(c)
	if !ok {
		return
	}
	var req billingapp.RejectQuoteRequest
	if !h.bindJSON(c, &req, true) {
		return
	}
	quote, err := h.quotes.Reject(c.Request.Context(), hash, req.Reason, requester(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, quote)
}

// ViewInvoice handles GET /public/invoices/:hash
func (h *PublicHandler) ViewInvoice(c *gin.Context) {
	hash, ok := h.hashParam(c)
	if !ok {
		return
	}
	invoice, err := h.invoices.View(c.Request.Context(), hash)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// hashParam rejects values that cannot be a public hash without a lookup
func (h *PublicHandler) hashParam(c *gin.Context) (string, bool) {
	hash := c.Param("hash")
	if !billing.IsValidPublicHash(hash) {
		h.ErrorWithCode(c, dto.ErrCodeNotFound, "Document not found")
		return "", false
	}
	return hash, true
}
