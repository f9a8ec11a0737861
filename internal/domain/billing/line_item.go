package billing

import (
	"sort"
	"strings"
	"time"

	"github.com/freelance/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LineItem is one billable row of a quote or an invoice.
// Total is derived from the other amount fields on every change.
type LineItem struct {
	ID           uuid.UUID
	ParentID     uuid.UUID
	Description  string
	Quantity     decimal.Decimal
	UnitPrice    decimal.Decimal
	TaxRate      decimal.Decimal
	DiscountRate decimal.Decimal
	Total        decimal.Decimal
	SortOrder    int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// LineItemInput describes a new item. Nil amounts take neutral defaults.
type LineItemInput struct {
	Description  string
	Quantity     *decimal.Decimal
	UnitPrice    *decimal.Decimal
	TaxRate      *decimal.Decimal
	DiscountRate *decimal.Decimal
	SortOrder    *int
}

// LineItemPatch carries a partial update; nil fields are left unchanged
type LineItemPatch struct {
	Description  *string
	Quantity     *decimal.Decimal
	UnitPrice    *decimal.Decimal
	TaxRate      *decimal.Decimal
	DiscountRate *decimal.Decimal
	SortOrder    *int
}

// InputFromItem copies an existing item into an input, used when
// duplicating documents or converting a quote into an invoice.
func InputFromItem(item LineItem) LineItemInput {
	q, p, tax, disc, order := item.Quantity, item.UnitPrice, item.TaxRate, item.DiscountRate, item.SortOrder
	return LineItemInput{
		Description:  item.Description,
		Quantity:     &q,
		UnitPrice:    &p,
		TaxRate:      &tax,
		DiscountRate: &disc,
		SortOrder:    &order,
	}
}

// NewLineItem builds an item for parentID. defaultSortOrder is used when
// the input carries no sort order.
func NewLineItem(id, parentID uuid.UUID, input LineItemInput, defaultSortOrder int, now time.Time) (*LineItem, error) {
	if strings.TrimSpace(input.Description) == "" {
		return nil, shared.InvalidArgument("Item description is required")
	}
	if len(input.Description) > 500 {
		return nil, shared.InvalidArgument("Item description cannot exceed 500 characters")
	}

	sortOrder := defaultSortOrder
	if input.SortOrder != nil {
		sortOrder = *input.SortOrder
	}

	item := &LineItem{
		ID:           id,
		ParentID:     parentID,
		Description:  input.Description,
		Quantity:     valueOr(input.Quantity, decimal.NewFromInt(1)),
		UnitPrice:    valueOr(input.UnitPrice, decimal.Zero),
		TaxRate:      valueOr(input.TaxRate, decimal.Zero),
		DiscountRate: valueOr(input.DiscountRate, decimal.Zero),
		SortOrder:    sortOrder,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	item.recalculate()
	return item, nil
}

// Apply merges a patch into the item and recomputes its total
func (i *LineItem) Apply(patch LineItemPatch, now time.Time) error {
	if patch.Description != nil {
		if strings.TrimSpace(*patch.Description) == "" {
			return shared.InvalidArgument("Item description is required")
		}
		i.Description = *patch.Description
	}
	if patch.Quantity != nil {
		i.Quantity = *patch.Quantity
	}
	if patch.UnitPrice != nil {
		i.UnitPrice = *patch.UnitPrice
	}
	if patch.TaxRate != nil {
		i.TaxRate = *patch.TaxRate
	}
	if patch.DiscountRate != nil {
		i.DiscountRate = *patch.DiscountRate
	}
	if patch.SortOrder != nil {
		i.SortOrder = *patch.SortOrder
	}
	i.recalculate()
	i.UpdatedAt = now
	return nil
}

func (i *LineItem) recalculate() {
	i.Total = ComputeItemTotal(&i.Quantity, &i.UnitPrice, &i.TaxRate, &i.DiscountRate)
}

// LineItems is the ordered item list of one document
type LineItems []LineItem

// Totals returns every item total in list order
func (l LineItems) Totals() []decimal.Decimal {
	totals := make([]decimal.Decimal, 0, len(l))
	for _, item := range l {
		totals = append(totals, item.Total)
	}
	return totals
}

// IndexOf returns the position of the item or -1
func (l LineItems) IndexOf(id uuid.UUID) int {
	for idx := range l {
		if l[idx].ID == id {
			return idx
		}
	}
	return -1
}

// Sorted returns a copy ordered by SortOrder, stable for equal orders
func (l LineItems) Sorted() LineItems {
	out := make(LineItems, len(l))
	copy(out, l)
	sort.SliceStable(out, func(a, b int) bool {
		return out[a].SortOrder < out[b].SortOrder
	})
	return out
}

// Reorder assigns SortOrder = position for each listed id.
// Ids that are not part of the list are skipped.
func (l LineItems) Reorder(orderedIDs []uuid.UUID, now time.Time) {
	for position, id := range orderedIDs {
		if idx := l.IndexOf(id); idx >= 0 {
			l[idx].SortOrder = position
			l[idx].UpdatedAt = now
		}
	}
}

// buildItems creates items for a new document in input order
func buildItems(ids shared.IDGenerator, parentID uuid.UUID, inputs []LineItemInput, now time.Time) (LineItems, error) {
	items := make(LineItems, 0, len(inputs))
	for idx, input := range inputs {
		item, err := NewLineItem(ids.NewID(), parentID, input, idx, now)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

func (l *LineItems) add(id, parentID uuid.UUID, input LineItemInput, now time.Time) (*LineItem, error) {
	item, err := NewLineItem(id, parentID, input, len(*l), now)
	if err != nil {
		return nil, err
	}
	*l = append(*l, *item)
	return item, nil
}

func (l LineItems) update(itemID uuid.UUID, patch LineItemPatch, now time.Time, notFound string) (*LineItem, error) {
	idx := l.IndexOf(itemID)
	if idx < 0 {
		return nil, shared.NotFound(notFound)
	}
	if err := l[idx].Apply(patch, now); err != nil {
		return nil, err
	}
	updated := l[idx]
	return &updated, nil
}

func (l *LineItems) remove(itemID uuid.UUID, notFound string) error {
	idx := l.IndexOf(itemID)
	if idx < 0 {
		return shared.NotFound(notFound)
	}
	*l = append((*l)[:idx], (*l)[idx+1:]...)
	return nil
}

// clone deep-copies items onto a new parent with fresh ids
func (l LineItems) clone(ids shared.IDGenerator, parentID uuid.UUID, now time.Time) LineItems {
	out := make(LineItems, 0, len(l))
	for _, item := range l.Sorted() {
		item.ID = ids.NewID()
		item.ParentID = parentID
		item.CreatedAt = now
		item.UpdatedAt = now
		out = append(out, item)
	}
	return out
}

// dateOnly strips the clock part of a calendar date in UTC
func dateOnly(t time.Time) time.Time {
	return shared.StartOfDay(t.UTC())
}
