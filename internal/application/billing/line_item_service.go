package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/freelance/backend/internal/domain/activity"
	"github.com/freelance/backend/internal/domain/billing"
	"github.com/freelance/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ParentKind tells which document owns a line item
type ParentKind string

const (
	ParentQuote   ParentKind = "quote"
	ParentInvoice ParentKind = "invoice"
)

// Parent identifies the quote or invoice whose items are edited
type Parent struct {
	Kind ParentKind
	ID   uuid.UUID
}

// QuoteParent refers to a quote's items
func QuoteParent(id uuid.UUID) Parent { return Parent{Kind: ParentQuote, ID: id} }

// InvoiceParent refers to an invoice's items
func InvoiceParent(id uuid.UUID) Parent { return Parent{Kind: ParentInvoice, ID: id} }

// itemHolder is implemented by Quote and Invoice. Each method applies the
// draft guard and refreshes the document totals.
type itemHolder interface {
	AddItem(id uuid.UUID, input billing.LineItemInput, now time.Time) (*billing.LineItem, error)
	UpdateItem(itemID uuid.UUID, patch billing.LineItemPatch, now time.Time) (*billing.LineItem, error)
	RemoveItem(itemID uuid.UUID, now time.Time) error
	ReorderItems(orderedIDs []uuid.UUID, now time.Time) error
}

// LineItemService edits the items of quotes and invoices
type LineItemService struct {
	service
}

// NewLineItemService creates a new LineItemService
func NewLineItemService(cfg ServiceConfig) *LineItemService {
	return &LineItemService{service: newService(cfg)}
}

// List returns the parent's items by sort order
func (s *LineItemService) List(ctx context.Context, userID uuid.UUID, parent Parent) ([]LineItemResponse, error) {
	switch parent.Kind {
	case ParentQuote:
		q, err := s.quotes.FindByIDForUser(ctx, userID, parent.ID)
		if err != nil {
			return nil, err
		}
		return ToLineItemResponses(q.Items), nil
	case ParentInvoice:
		inv, err := s.invoices.FindByIDForUser(ctx, userID, parent.ID)
		if err != nil {
			return nil, err
		}
		return ToLineItemResponses(inv.Items), nil
	}
	return nil, unknownParent(parent)
}

// Add appends an item to a draft document
func (s *LineItemService) Add(ctx context.Context, userID uuid.UUID, parent Parent, req LineItemRequest, requester billing.Requester) (*LineItemResponse, error) {
	var item *billing.LineItem
	err := s.withParent(ctx, userID, parent, func(h itemHolder) error {
		var err error
		item, err = h.AddItem(s.ids.NewID(), toLineItemInput(req), s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	s.recordItem(ctx, userID, parent, "item_added", fmt.Sprintf("Added item %q", item.Description), requester)
	resp := ToLineItemResponse(*item)
	return &resp, nil
}

// Update patches one item of a draft document
func (s *LineItemService) Update(ctx context.Context, userID uuid.UUID, parent Parent, itemID uuid.UUID, req UpdateLineItemRequest, requester billing.Requester) (*LineItemResponse, error) {
	var item *billing.LineItem
	err := s.withParent(ctx, userID, parent, func(h itemHolder) error {
		var err error
		item, err = h.UpdateItem(itemID, toLineItemPatch(req), s.now())
		return err
	})
	if err != nil {
		return nil, err
	}
	s.recordItem(ctx, userID, parent, "item_updated", fmt.Sprintf("Updated item %q", item.Description), requester)
	resp := ToLineItemResponse(*item)
	return &resp, nil
}

// Delete removes one item from a draft document
func (s *LineItemService) Delete(ctx context.Context, userID uuid.UUID, parent Parent, itemID uuid.UUID, requester billing.Requester) error {
	err := s.withParent(ctx, userID, parent, func(h itemHolder) error {
		return h.RemoveItem(itemID, s.now())
	})
	if err != nil {
		return err
	}
	s.recordItem(ctx, userID, parent, "item_deleted", "Deleted an item", requester)
	return nil
}

// Reorder assigns sort orders from the position of each id
func (s *LineItemService) Reorder(ctx context.Context, userID uuid.UUID, parent Parent, itemIDs []uuid.UUID) ([]LineItemResponse, error) {
	var items billing.LineItems
	err := s.withParent(ctx, userID, parent, func(h itemHolder) error {
		if err := h.ReorderItems(itemIDs, s.now()); err != nil {
			return err
		}
		switch doc := h.(type) {
		case *billing.Quote:
			items = doc.Items
		case *billing.Invoice:
			items = doc.Items
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ToLineItemResponses(items), nil
}

// withParent locks the parent document, applies fn and saves the document
// with its recomputed totals in the same transaction
func (s *LineItemService) withParent(ctx context.Context, userID uuid.UUID, parent Parent, fn func(itemHolder) error) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		switch parent.Kind {
		case ParentQuote:
			q, err := repos.QuoteRepo().FindByIDForUpdate(ctx, userID, parent.ID)
			if err != nil {
				return err
			}
			if err := fn(q); err != nil {
				return err
			}
			return repos.QuoteRepo().Save(ctx, q)
		case ParentInvoice:
			inv, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, userID, parent.ID)
			if err != nil {
				return err
			}
			if err := fn(inv); err != nil {
				return err
			}
			return repos.InvoiceRepo().Save(ctx, inv)
		}
		return unknownParent(parent)
	})
}

func (s *LineItemService) recordItem(ctx context.Context, userID uuid.UUID, parent Parent, action, description string, requester billing.Requester) {
	entity := activity.Quote(parent.ID)
	if parent.Kind == ParentInvoice {
		entity = activity.Invoice(parent.ID)
	}
	s.record(ctx, auditEntry(userID, string(parent.Kind)+"_"+action, entity, description, requester))
}

func unknownParent(p Parent) error {
	return shared.InvalidArgument(fmt.Sprintf("Unknown item parent: %s", p.Kind))
}
