package handler

import (
	"context"

	billingapp "github.com/freelance/backend/internal/application/billing"
	"github.com/freelance/backend/internal/domain/billing"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// LineItemUseCases is the line item service as seen by the HTTP layer
type LineItemUseCases interface {
	List(ctx context.Context, userID uuid.UUID, parent billingapp.Parent) ([]billingapp.LineItemResponse, error)
	Add(ctx context.Context, userID uuid.UUID, parent billingapp.Parent, req billingapp.LineItemRequest, r billing.Requester) (*billingapp.LineItemResponse, error)
	Update(ctx context.Context, userID uuid.UUID, parent billingapp.Parent, itemID uuid.UUID, req billingapp.UpdateLineItemRequest, r billing.Requester) (*billingapp.LineItemResponse, error)
	Delete(ctx context.Context, userID uuid.UUID, parent billingapp.Parent, itemID uuid.UUID, r billing.Requester) error
	Reorder(ctx context.Context, userID uuid.UUID, parent billingapp.Parent, itemIDs []uuid.UUID) ([]billingapp.LineItemResponse, error)
}

// LineItemHandler serves the item routes of one parent kind
type LineItemHandler struct {
	BaseHandler
	items  LineItemUseCases
	parent func(uuid.UUID) billingapp.Parent
}

// NewQuoteItemHandler serves /quotes/:id/items
func NewQuoteItemHandler(items LineItemUseCases) *LineItemHandler {
	return &LineItemHandler{items: items, parent: billingapp.QuoteParent}
}

// NewInvoiceItemHandler serves /invoices/:id/items
func NewInvoiceItemHandler(items LineItemUseCases) *LineItemHandler {
	return &LineItemHandler{items: items, parent: billingapp.InvoiceParent}
}

// List handles GET .../:id/items
func (h *LineItemHandler) List(c *gin.Context) {
	userID, parent, ok := h.scope(c)
	if !ok {
		return
	}
	items, err := h.items.List(c.Request.Context(), userID, parent)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

// Add handles POST .../:id/items
func (h *LineItemHandler) Add(c *gin.Context) {
	userID, parent, ok := h.scope(c)
	if !ok {
		return
	}
	var req billingapp.LineItemRequest
	if !h.bindJSON(c, &req, false) {
		return
	}
	item, err := h.items.Add(c.Request.Context(), userID, parent, req, requester(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// Update handles PUT .../:id/items/:itemId
func (h *LineItemHandler) Update(c *gin.Context) {
	userID, parent, ok := h.scope(c)
	if !ok {
		return
	}
	itemID, ok := h.uuidParam(c, "itemId")
	if !ok {
		return
	}
	var req billingapp.UpdateLineItemRequest
	if !h.bindJSON(c, &req, false) {
		return
	}
	item, err := h.items.Update(c.Request.Context(), userID, parent, itemID, req, requester(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// Delete handles DELETE .../:id/items/:itemId
func (h *LineItemHandler) Delete(c *gin.Context) {
	userID, parent, ok := h.scope(c)
	if !ok {
		return
	}
	itemID, ok := h.uuidParam(c, "itemId")
	if !ok {
		return
	}
	if err := h.items.Delete(c.Request.Context(), userID, parent, itemID, requester(c)); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Reorder handles PUT .../:id/items/reorder
func (h *LineItemHandler) Reorder(c *gin.Context) {
	userID, parent, ok := h.scope(c)
	if !ok {
		return
	}
	var req billingapp.ReorderItemsRequest
	if !h.bindJSON(c, &req, false) {
		return
	}
	items, err := h.items.Reorder(c.Request.Context(), userID, parent, req.ItemIDs)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, items)
}

func (h *LineItemHandler) scope(c *gin.Context) (uuid.UUID, billingapp.Parent, bool) {
	userID, ok := h.currentUser(c)
	if !ok {
		return uuid.Nil, billingapp.Parent{}, false
	}
	parentID, ok := h.uuidParam(c, "id")
	if !ok {
		return uuid.Nil, billingapp.Parent{}, false
	}
	return userID, h.parent(parentID), true
}
