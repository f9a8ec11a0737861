package models

import (
	"time"

	"github.com/freelance/backend/internal/domain/billing"
	"github.com/freelance/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Line items ====================

// LineItemColumns holds the columns shared by quote_items and invoice_items.
// It is exported so GORM picks up the embedded fields.
type LineItemColumns struct {
	ID           uuid.UUID       `gorm:"type:uuid;primary_key"`
	Description  string          `gorm:"type:text;not null"`
	Quantity     decimal.Decimal `gorm:"type:numeric(10,2);not null;default:1"`
	UnitPrice    decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	TaxRate      decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`
	DiscountRate decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`
	Total        decimal.Decimal `gorm:"type:numeric(12,2);not null;default:0"`
	SortOrder    int             `gorm:"not null;default:0"`
	CreatedAt    time.Time       `gorm:"not null"`
	UpdatedAt    time.Time       `gorm:"not null"`
}

func (c LineItemColumns) toDomain(parentID uuid.UUID) billing.LineItem {
	return billing.LineItem{
		ID:           c.ID,
		ParentID:     parentID,
		Description:  c.Description,
		Quantity:     c.Quantity,
		UnitPrice:    c.UnitPrice,
		TaxRate:      c.TaxRate,
		DiscountRate: c.DiscountRate,
		Total:        c.Total,
		SortOrder:    c.SortOrder,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func LineItemColumnsFromDomain(i billing.LineItem) LineItemColumns {
	return LineItemColumns{
		ID:           i.ID,
		Description:  i.Description,
		Quantity:     i.Quantity,
		UnitPrice:    i.UnitPrice,
		TaxRate:      i.TaxRate,
		DiscountRate: i.DiscountRate,
		Total:        i.Total,
		SortOrder:    i.SortOrder,
		CreatedAt:    i.CreatedAt,
		UpdatedAt:    i.UpdatedAt,
	}
}

// QuoteItemModel is the persistence model for quote line items
type QuoteItemModel struct {
	LineItemColumns
	QuoteID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (QuoteItemModel) TableName() string {
	return "quote_items"
}

// ToDomain converts the persistence model to a domain LineItem
func (m *QuoteItemModel) ToDomain() billing.LineItem {
	return m.toDomain(m.QuoteID)
}

// QuoteItemModelFromDomain creates a persistence model from a domain LineItem
func QuoteItemModelFromDomain(quoteID uuid.UUID, i billing.LineItem) QuoteItemModel {
	return QuoteItemModel{LineItemColumns: LineItemColumnsFromDomain(i), QuoteID: quoteID}
}

// InvoiceItemModel is the persistence model for invoice line items
type InvoiceItemModel struct {
	LineItemColumns
	InvoiceID uuid.UUID `gorm:"type:uuid;not null;index"`
}

// TableName returns the table name for GORM
func (InvoiceItemModel) TableName() string {
	return "invoice_items"
}

// ToDomain converts the persistence model to a domain LineItem
func (m *InvoiceItemModel) ToDomain() billing.LineItem {
	return m.toDomain(m.InvoiceID)
}

// InvoiceItemModelFromDomain creates a persistence model from a domain LineItem
func InvoiceItemModelFromDomain(invoiceID uuid.UUID, i billing.LineItem) InvoiceItemModel {
	return InvoiceItemModel{LineItemColumns: LineItemColumnsFromDomain(i), InvoiceID: invoiceID}
}

// ==================== Quotes ====================

// QuoteModel is the persistence model for the Quote aggregate root
type QuoteModel struct {
	OwnedAggregateModel
	ClientID       uuid.UUID            `gorm:"type:uuid;not null;index"`
	ProjectID      *uuid.UUID           `gorm:"type:uuid;index"`
	QuoteNumber    string               `gorm:"type:varchar(50);not null;uniqueIndex"`
	Title          string               `gorm:"type:varchar(255);not null"`
	Description    string               `gorm:"type:text"`
	Status         billing.QuoteStatus  `gorm:"type:varchar(20);not null;default:'draft';index"`
	ValidUntil     *time.Time           `gorm:"type:date"`
	Subtotal       decimal.Decimal      `gorm:"type:numeric(12,2);not null;default:0"`
	TaxAmount      decimal.Decimal      `gorm:"type:numeric(12,2);not null;default:0"`
	DiscountAmount decimal.Decimal      `gorm:"type:numeric(12,2);not null;default:0"`
	TotalAmount    decimal.Decimal      `gorm:"type:numeric(12,2);not null;default:0"`
	Currency       valueobject.Currency `gorm:"type:varchar(3);not null;default:'USD'"`
	Notes          string               `gorm:"type:text"`
	Terms          string               `gorm:"type:text"`
	SentAt         *time.Time
	AcceptedAt     *time.Time
	ViewedAt       *time.Time
	PublicHash     string           `gorm:"type:varchar(64);not null;uniqueIndex"`
	Items          []QuoteItemModel `gorm:"foreignKey:QuoteID;references:ID"`
}

// TableName returns the table name for GORM
func (QuoteModel) TableName() string {
	return "quotes"
}

// ToDomain converts the persistence model to a domain Quote
func (m *QuoteModel) ToDomain() *billing.Quote {
	q := &billing.Quote{
		OwnedAggregateRoot: m.ToDomainOwnedAggregateRoot(),
		ClientID:           m.ClientID,
		ProjectID:          m.ProjectID,
		QuoteNumber:        m.QuoteNumber,
		Title:              m.Title,
		Description:        m.Description,
		Status:             m.Status,
		ValidUntil:         utcDate(m.ValidUntil),
		Subtotal:           m.Subtotal,
		TaxAmount:          m.TaxAmount,
		DiscountAmount:     m.DiscountAmount,
		TotalAmount:        m.TotalAmount,
		Currency:           m.Currency,
		Notes:              m.Notes,
		Terms:              m.Terms,
		SentAt:             m.SentAt,
		AcceptedAt:         m.AcceptedAt,
		ViewedAt:           m.ViewedAt,
		PublicHash:         m.PublicHash,
		Items:              make(billing.LineItems, len(m.Items)),
	}
	for i := range m.Items {
		q.Items[i] = m.Items[i].ToDomain()
	}
	return q
}

// QuoteModelFromDomain creates a persistence model from a domain Quote, items included
func QuoteModelFromDomain(q *billing.Quote) *QuoteModel {
	m := &QuoteModel{
		ClientID:       q.ClientID,
		ProjectID:      q.ProjectID,
		QuoteNumber:    q.QuoteNumber,
		Title:          q.Title,
		Description:    q.Description,
		Status:         q.Status,
		ValidUntil:     q.ValidUntil,
		Subtotal:       q.Subtotal,
		TaxAmount:      q.TaxAmount,
		DiscountAmount: q.DiscountAmount,
		TotalAmount:    q.TotalAmount,
		Currency:       q.Currency,
		Notes:          q.Notes,
		Terms:          q.Terms,
		SentAt:         q.SentAt,
		AcceptedAt:     q.AcceptedAt,
		ViewedAt:       q.ViewedAt,
		PublicHash:     q.PublicHash,
		Items:          make([]QuoteItemModel, len(q.Items)),
	}
	m.FromDomainOwnedAggregateRoot(q.OwnedAggregateRoot)
	for i, item := range q.Items {
		m.Items[i] = QuoteItemModelFromDomain(q.ID, item)
	}
	return m
}

// QuoteHistoryModel is the persistence model for quote history entries
type QuoteHistoryModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	QuoteID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Action      string    `gorm:"type:varchar(50);not null"`
	Description string    `gorm:"type:text"`
	IPAddress   string    `gorm:"type:varchar(45)"`
	UserAgent   string    `gorm:"type:text"`
	Metadata    string    `gorm:"type:text;not null;default:'{}'"`
	CreatedAt   time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (QuoteHistoryModel) TableName() string {
	return "quote_history"
}

// ToDomain converts the persistence model to a domain QuoteHistory
func (m *QuoteHistoryModel) ToDomain() billing.QuoteHistory {
	return billing.QuoteHistory{
		ID:          m.ID,
		QuoteID:     m.QuoteID,
		Action:      m.Action,
		Description: m.Description,
		IPAddress:   m.IPAddress,
		UserAgent:   m.UserAgent,
		Metadata:    m.Metadata,
		CreatedAt:   m.CreatedAt,
	}
}

// QuoteHistoryModelFromDomain creates a persistence model from a history entry
func QuoteHistoryModelFromDomain(h *billing.QuoteHistory) *QuoteHistoryModel {
	metadata := h.Metadata
	if metadata == "" {
		metadata = "{}"
	}
	return &QuoteHistoryModel{
		ID:          h.ID,
		QuoteID:     h.QuoteID,
		Action:      h.Action,
		Description: h.Description,
		IPAddress:   h.IPAddress,
		UserAgent:   h.UserAgent,
		Metadata:    metadata,
		CreatedAt:   h.CreatedAt,
	}
}

// ==================== Invoices ====================

// InvoiceModel is the persistence model for the Invoice aggregate root
type InvoiceModel struct {
	OwnedAggregateModel
	ClientID       uuid.UUID             `gorm:"type:uuid;not null;index"`
	ProjectID      *uuid.UUID            `gorm:"type:uuid;index"`
	QuoteID        *uuid.UUID            `gorm:"type:uuid;index"`
	InvoiceNumber  string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	Title          string                `gorm:"type:varchar(255);not null"`
	Description    string                `gorm:"type:text"`
	Status         billing.InvoiceStatus `gorm:"type:varchar(20);not null;default:'draft';index"`
	IssueDate      time.Time             `gorm:"type:date;not null"`
	DueDate        time.Time             `gorm:"type:date;not null;index"`
	PaidDate       *time.Time            `gorm:"type:date"`
	PaymentTerms   string                `gorm:"type:varchar(100)"`
	Subtotal       decimal.Decimal       `gorm:"type:numeric(12,2);not null;default:0"`
	TaxAmount      decimal.Decimal       `gorm:"type:numeric(12,2);not null;default:0"`
	DiscountAmount decimal.Decimal       `gorm:"type:numeric(12,2);not null;default:0"`
	TotalAmount    decimal.Decimal       `gorm:"type:numeric(12,2);not null;default:0"`
	AmountPaid     decimal.Decimal       `gorm:"type:numeric(12,2);not null;default:0"`
	BalanceDue     decimal.Decimal       `gorm:"type:numeric(12,2);not null;default:0"`
	Currency       valueobject.Currency  `gorm:"type:varchar(3);not null;default:'USD'"`
	Notes          string                `gorm:"type:text"`
	Terms          string                `gorm:"type:text"`
	SentAt         *time.Time
	ViewedAt       *time.Time
	PublicHash     string                `gorm:"type:varchar(64);not null;uniqueIndex"`
	PaymentLink    string                `gorm:"type:varchar(500)"`
	Cancelled      bool                  `gorm:"not null;default:false"`
	Items          []InvoiceItemModel    `gorm:"foreignKey:InvoiceID;references:ID"`
	Payments       []InvoicePaymentModel `gorm:"foreignKey:InvoiceID;references:ID"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	inv := &billing.Invoice{
		OwnedAggregateRoot: m.ToDomainOwnedAggregateRoot(),
		ClientID:           m.ClientID,
		ProjectID:          m.ProjectID,
		QuoteID:            m.QuoteID,
		InvoiceNumber:      m.InvoiceNumber,
		Title:              m.Title,
		Description:        m.Description,
		Status:             m.Status,
		IssueDate:          *utcDate(&m.IssueDate),
		DueDate:            *utcDate(&m.DueDate),
		PaidDate:           utcDate(m.PaidDate),
		PaymentTerms:       m.PaymentTerms,
		Subtotal:           m.Subtotal,
		TaxAmount:          m.TaxAmount,
		DiscountAmount:     m.DiscountAmount,
		TotalAmount:        m.TotalAmount,
		AmountPaid:         m.AmountPaid,
		BalanceDue:         m.BalanceDue,
		Currency:           m.Currency,
		Notes:              m.Notes,
		Terms:              m.Terms,
		SentAt:             m.SentAt,
		ViewedAt:           m.ViewedAt,
		PublicHash:         m.PublicHash,
		PaymentLink:        m.PaymentLink,
		Cancelled:          m.Cancelled,
		Items:              make(billing.LineItems, len(m.Items)),
		Payments:           make([]billing.InvoicePayment, len(m.Payments)),
	}
	for i := range m.Items {
		inv.Items[i] = m.Items[i].ToDomain()
	}
	for i := range m.Payments {
		inv.Payments[i] = m.Payments[i].ToDomain()
	}
	return inv
}

// InvoiceModelFromDomain creates a persistence model from a domain Invoice,
// items and payments included
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{
		ClientID:       inv.ClientID,
		ProjectID:      inv.ProjectID,
		QuoteID:        inv.QuoteID,
		InvoiceNumber:  inv.InvoiceNumber,
		Title:          inv.Title,
		Description:    inv.Description,
		Status:         inv.Status,
		IssueDate:      inv.IssueDate,
		DueDate:        inv.DueDate,
		PaidDate:       inv.PaidDate,
		PaymentTerms:   inv.PaymentTerms,
		Subtotal:       inv.Subtotal,
		TaxAmount:      inv.TaxAmount,
		DiscountAmount: inv.DiscountAmount,
		TotalAmount:    inv.TotalAmount,
		AmountPaid:     inv.AmountPaid,
		BalanceDue:     inv.BalanceDue,
		Currency:       inv.Currency,
		Notes:          inv.Notes,
		Terms:          inv.Terms,
		SentAt:         inv.SentAt,
		ViewedAt:       inv.ViewedAt,
		PublicHash:     inv.PublicHash,
		PaymentLink:    inv.PaymentLink,
		Cancelled:      inv.Cancelled,
		Items:          make([]InvoiceItemModel, len(inv.Items)),
		Payments:       make([]InvoicePaymentModel, len(inv.Payments)),
	}
	m.FromDomainOwnedAggregateRoot(inv.OwnedAggregateRoot)
	for i, item := range inv.Items {
		m.Items[i] = InvoiceItemModelFromDomain(inv.ID, item)
	}
	for i := range inv.Payments {
		m.Payments[i] = InvoicePaymentModelFromDomain(&inv.Payments[i])
	}
	return m
}

// InvoicePaymentModel is the persistence model for invoice payments
type InvoicePaymentModel struct {
	ID            uuid.UUID             `gorm:"type:uuid;primary_key"`
	InvoiceID     uuid.UUID             `gorm:"type:uuid;not null;index"`
	PaymentMethod string                `gorm:"type:varchar(50);not null"`
	TransactionID *string               `gorm:"type:varchar(255);uniqueIndex"`
	Amount        decimal.Decimal       `gorm:"type:numeric(12,2);not null"`
	Currency      valueobject.Currency  `gorm:"type:varchar(3);not null;default:'USD'"`
	PaymentDate   time.Time             `gorm:"type:date;not null"`
	Status        billing.PaymentStatus `gorm:"type:varchar(20);not null;default:'completed';index"`
	Notes         string                `gorm:"type:text"`
	Metadata      string                `gorm:"type:text;not null;default:'{}'"`
	CreatedAt     time.Time             `gorm:"not null"`
	UpdatedAt     time.Time             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoicePaymentModel) TableName() string {
	return "invoice_payments"
}

// ToDomain converts the persistence model to a domain InvoicePayment
func (m *InvoicePaymentModel) ToDomain() billing.InvoicePayment {
	return billing.InvoicePayment{
		ID:            m.ID,
		InvoiceID:     m.InvoiceID,
		PaymentMethod: m.PaymentMethod,
		TransactionID: m.TransactionID,
		Amount:        m.Amount,
		Currency:      m.Currency,
		PaymentDate:   *utcDate(&m.PaymentDate),
		Status:        m.Status,
		Notes:         m.Notes,
		Metadata:      m.Metadata,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

// InvoicePaymentModelFromDomain creates a persistence model from a payment
func InvoicePaymentModelFromDomain(p *billing.InvoicePayment) InvoicePaymentModel {
	return InvoicePaymentModel{
		ID:            p.ID,
		InvoiceID:     p.InvoiceID,
		PaymentMethod: p.PaymentMethod,
		TransactionID: p.TransactionID,
		Amount:        p.Amount,
		Currency:      p.Currency,
		PaymentDate:   p.PaymentDate,
		Status:        p.Status,
		Notes:         p.Notes,
		Metadata:      p.Metadata,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

// ==================== Sequences ====================

// NumberSequenceModel stores the last issued number per prefix and period
type NumberSequenceModel struct {
	BaseModel
	Prefix       string `gorm:"type:varchar(10);not null;uniqueIndex:idx_number_sequences_prefix_period,priority:1"`
	Period       string `gorm:"type:varchar(6);not null;uniqueIndex:idx_number_sequences_prefix_period,priority:2"`
	LastSequence int64  `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (NumberSequenceModel) TableName() string {
	return "number_sequences"
}

// utcDate normalizes a DATE column to midnight UTC. Drivers differ in the
// location they attach to dates.
func utcDate(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	y, m, d := t.Date()
	out := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return &out
}
