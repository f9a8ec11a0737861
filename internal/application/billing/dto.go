package billing

import (
	"encoding/json"
	"time"

	"github.com/freelance/backend/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ==================== Line Item DTOs ====================

// LineItemRequest describes one item in create, update and add requests.
// Omitted amounts default to quantity 1 and zero price, tax and discount.
type LineItemRequest struct {
	Description  string           `json:"description" binding:"required,max=500"`
	Quantity     *decimal.Decimal `json:"quantity"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
	TaxRate      *decimal.Decimal `json:"tax_rate"`
	DiscountRate *decimal.Decimal `json:"discount_rate"`
	SortOrder    *int             `json:"sort_order" binding:"omitempty,min=0"`
}

// UpdateLineItemRequest carries a partial item update
type UpdateLineItemRequest struct {
	Description  *string          `json:"description" binding:"omitempty,min=1,max=500"`
	Quantity     *decimal.Decimal `json:"quantity"`
	UnitPrice    *decimal.Decimal `json:"unit_price"`
	TaxRate      *decimal.Decimal `json:"tax_rate"`
	DiscountRate *decimal.Decimal `json:"discount_rate"`
	SortOrder    *int             `json:"sort_order" binding:"omitempty,min=0"`
}

// ReorderItemsRequest lists item ids in their new order
type ReorderItemsRequest struct {
	ItemIDs []uuid.UUID `json:"item_ids" binding:"required"`
}

// LineItemResponse represents a line item in API responses
type LineItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	ParentID     uuid.UUID       `json:"parent_id"`
	Description  string          `json:"description"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	TaxRate      decimal.Decimal `json:"tax_rate"`
	DiscountRate decimal.Decimal `json:"discount_rate"`
	Total        decimal.Decimal `json:"total"`
	SortOrder    int             `json:"sort_order"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// ==================== Quote DTOs ====================

// CreateQuoteRequest represents a request to create a quote
type CreateQuoteRequest struct {
	ClientID       uuid.UUID         `json:"client_id" binding:"required"`
	ProjectID      *uuid.UUID        `json:"project_id"`
	Title          string            `json:"title" binding:"required,min=1,max=255"`
	Description    string            `json:"description"`
	ValidUntil     *Date             `json:"valid_until"`
	TaxAmount      *decimal.Decimal  `json:"tax_amount"`
	DiscountAmount *decimal.Decimal  `json:"discount_amount"`
	Currency       string            `json:"currency" binding:"omitempty,len=3"`
	Notes          string            `json:"notes"`
	Terms          string            `json:"terms"`
	Items          []LineItemRequest `json:"items" binding:"omitempty,dive"`
}

// UpdateQuoteRequest represents a partial quote update (draft only).
// A present items array replaces every item.
type UpdateQuoteRequest struct {
	ClientID       *uuid.UUID        `json:"client_id"`
	ProjectID      *string           `json:"project_id"`
	Title          *string           `json:"title" binding:"omitempty,min=1,max=255"`
	Description    *string           `json:"description"`
	ValidUntil     *Date             `json:"valid_until"`
	TaxAmount      *decimal.Decimal  `json:"tax_amount"`
	DiscountAmount *decimal.Decimal  `json:"discount_amount"`
	Currency       *string           `json:"currency" binding:"omitempty,len=3"`
	Notes          *string           `json:"notes"`
	Terms          *string           `json:"terms"`
	Items          []LineItemRequest `json:"items" binding:"omitempty,dive"`
}

// UpdateStatusRequest is the administrative status override body
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// RejectQuoteRequest carries the client's optional reason
type RejectQuoteRequest struct {
	Reason string `json:"reason" binding:"max=1000"`
}

// QuoteListFilter represents filter options for quote lists
type QuoteListFilter struct {
	Status    string     `form:"status"`
	ClientID  *uuid.UUID `form:"client_id"`
	ProjectID *uuid.UUID `form:"project_id"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy   string     `form:"order_by"`
	OrderDir  string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// QuoteResponse represents a quote in API responses
type QuoteResponse struct {
	ID             uuid.UUID          `json:"id"`
	UserID         uuid.UUID          `json:"user_id"`
	ClientID       uuid.UUID          `json:"client_id"`
	ProjectID      *uuid.UUID         `json:"project_id,omitempty"`
	QuoteNumber    string             `json:"quote_number"`
	Title          string             `json:"title"`
	Description    string             `json:"description,omitempty"`
	Status         string             `json:"status"`
	ValidUntil     *Date              `json:"valid_until,omitempty"`
	Subtotal       decimal.Decimal    `json:"subtotal"`
	TaxAmount      decimal.Decimal    `json:"tax_amount"`
	DiscountAmount decimal.Decimal    `json:"discount_amount"`
	TotalAmount    decimal.Decimal    `json:"total_amount"`
	Currency       string             `json:"currency"`
	Notes          string             `json:"notes,omitempty"`
	Terms          string             `json:"terms,omitempty"`
	SentAt         *time.Time         `json:"sent_at,omitempty"`
	AcceptedAt     *time.Time         `json:"accepted_at,omitempty"`
	ViewedAt       *time.Time         `json:"viewed_at,omitempty"`
	PublicHash     string             `json:"public_hash"`
	IsExpired      bool               `json:"is_expired"`
	Items          []LineItemResponse `json:"items"`
	ItemCount      int                `json:"item_count"`
	CreatedAt      time.Time          `json:"created_at"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// QuoteHistoryResponse represents one history entry
type QuoteHistoryResponse struct {
	ID          uuid.UUID       `json:"id"`
	QuoteID     uuid.UUID       `json:"quote_id"`
	Action      string          `json:"action"`
	Description string          `json:"description"`
	IPAddress   string          `json:"ip_address,omitempty"`
	UserAgent   string          `json:"user_agent,omitempty"`
	Metadata    json.RawMessage `json:"metadata"`
	CreatedAt   time.Time       `json:"created_at"`
}

// ==================== Invoice DTOs ====================

// CreateInvoiceRequest represents a request to create an invoice.
// ClientID is optional only when the invoice is created from a quote.
type CreateInvoiceRequest struct {
	ClientID       *uuid.UUID        `json:"client_id"`
	ProjectID      *uuid.UUID        `json:"project_id"`
	QuoteID        *uuid.UUID        `json:"quote_id"`
	Title          string            `json:"title" binding:"required,min=1,max=255"`
	Description    string            `json:"description"`
	IssueDate      *Date             `json:"issue_date" binding:"required"`
	DueDate        *Date             `json:"due_date" binding:"required"`
	PaymentTerms   string            `json:"payment_terms" binding:"max=255"`
	TaxAmount      *decimal.Decimal  `json:"tax_amount"`
	DiscountAmount *decimal.Decimal  `json:"discount_amount"`
	Currency       string            `json:"currency" binding:"omitempty,len=3"`
	Notes          string            `json:"notes"`
	Terms          string            `json:"terms"`
	PaymentLink    string            `json:"payment_link" binding:"omitempty,url"`
	Items          []LineItemRequest `json:"items" binding:"omitempty,dive"`
}

// UpdateInvoiceRequest represents a partial invoice update (draft only).
// An empty project_id or quote_id clears the link.
type UpdateInvoiceRequest struct {
	ClientID       *uuid.UUID        `json:"client_id"`
	ProjectID      *string           `json:"project_id"`
	QuoteID        *string           `json:"quote_id"`
	Title          *string           `json:"title" binding:"omitempty,min=1,max=255"`
	Description    *string           `json:"description"`
	IssueDate      *Date             `json:"issue_date"`
	DueDate        *Date             `json:"due_date"`
	PaymentTerms   *string           `json:"payment_terms" binding:"omitempty,max=255"`
	TaxAmount      *decimal.Decimal  `json:"tax_amount"`
	DiscountAmount *decimal.Decimal  `json:"discount_amount"`
	Currency       *string           `json:"currency" binding:"omitempty,len=3"`
	Notes          *string           `json:"notes"`
	Terms          *string           `json:"terms"`
	PaymentLink    *string           `json:"payment_link"`
	Items          []LineItemRequest `json:"items" binding:"omitempty,dive"`
}

// InvoiceListFilter represents filter options for invoice lists
type InvoiceListFilter struct {
	Status    string     `form:"status"`
	ClientID  *uuid.UUID `form:"client_id"`
	ProjectID *uuid.UUID `form:"project_id"`
	QuoteID   *uuid.UUID `form:"quote_id"`
	IssueFrom *time.Time `form:"issue_from" time_format:"2006-01-02"`
	IssueTo   *time.Time `form:"issue_to" time_format:"2006-01-02"`
	DueFrom   *time.Time `form:"due_from" time_format:"2006-01-02"`
	DueTo     *time.Time `form:"due_to" time_format:"2006-01-02"`
	Page      int        `form:"page" binding:"omitempty,min=1"`
	PageSize  int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy   string     `form:"order_by"`
	OrderDir  string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID              uuid.UUID          `json:"id"`
	UserID          uuid.UUID          `json:"user_id"`
	ClientID        uuid.UUID          `json:"client_id"`
	ProjectID       *uuid.UUID         `json:"project_id,omitempty"`
	QuoteID         *uuid.UUID         `json:"quote_id,omitempty"`
	InvoiceNumber   string             `json:"invoice_number"`
	Title           string             `json:"title"`
	Description     string             `json:"description,omitempty"`
	Status          string             `json:"status"`
	IssueDate       Date               `json:"issue_date"`
	DueDate         Date               `json:"due_date"`
	PaidDate        *Date              `json:"paid_date,omitempty"`
	PaymentTerms    string             `json:"payment_terms,omitempty"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	TaxAmount       decimal.Decimal    `json:"tax_amount"`
	DiscountAmount  decimal.Decimal    `json:"discount_amount"`
	TotalAmount     decimal.Decimal    `json:"total_amount"`
	AmountPaid      decimal.Decimal    `json:"amount_paid"`
	BalanceDue      decimal.Decimal    `json:"balance_due"`
	Currency        string             `json:"currency"`
	Notes           string             `json:"notes,omitempty"`
	Terms           string             `json:"terms,omitempty"`
	SentAt          *time.Time         `json:"sent_at,omitempty"`
	ViewedAt        *time.Time         `json:"viewed_at,omitempty"`
	PublicHash      string             `json:"public_hash"`
	PaymentLink     string             `json:"payment_link,omitempty"`
	IsOverdue       bool               `json:"is_overdue"`
	IsPartiallyPaid bool               `json:"is_partially_paid"`
	Items           []LineItemResponse `json:"items"`
	Payments        []PaymentResponse  `json:"payments"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// InvoiceSummaryResponse is the condensed per-invoice view
type InvoiceSummaryResponse struct {
	ID               uuid.UUID       `json:"id"`
	InvoiceNumber    string          `json:"invoice_number"`
	Status           string          `json:"status"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	AmountPaid       decimal.Decimal `json:"amount_paid"`
	BalanceDue       decimal.Decimal `json:"balance_due"`
	Currency         string          `json:"currency"`
	DueDate          Date            `json:"due_date"`
	IsOverdue        bool            `json:"is_overdue"`
	IsPartiallyPaid  bool            `json:"is_partially_paid"`
	ItemCount        int             `json:"item_count"`
	PaymentCount     int             `json:"payment_count"`
	NextReminderDate *Date           `json:"next_reminder_date,omitempty"`
}

// InvoiceStatsResponse aggregates every invoice of a user
type InvoiceStatsResponse struct {
	Count            int64            `json:"count"`
	CountByStatus    map[string]int64 `json:"count_by_status"`
	TotalInvoiced    decimal.Decimal  `json:"total_invoiced"`
	TotalPaid        decimal.Decimal  `json:"total_paid"`
	TotalOutstanding decimal.Decimal  `json:"total_outstanding"`
	OverdueCount     int              `json:"overdue_count"`
	OverdueAmount    decimal.Decimal  `json:"overdue_amount"`
}

// ==================== Payment DTOs ====================

// CreatePaymentRequest represents a payment recorded against an invoice
type CreatePaymentRequest struct {
	PaymentMethod string          `json:"payment_method" binding:"required,max=50"`
	TransactionID *string         `json:"transaction_id" binding:"omitempty,max=255"`
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	Currency      string          `json:"currency" binding:"omitempty,len=3"`
	PaymentDate   *Date           `json:"payment_date"`
	Status        string          `json:"status" binding:"omitempty,oneof=pending completed failed refunded"`
	Notes         string          `json:"notes"`
	Metadata      json.RawMessage `json:"metadata"`
}

// UpdatePaymentRequest carries a partial payment update
type UpdatePaymentRequest struct {
	PaymentMethod *string          `json:"payment_method" binding:"omitempty,min=1,max=50"`
	TransactionID *string          `json:"transaction_id" binding:"omitempty,max=255"`
	Amount        *decimal.Decimal `json:"amount"`
	Currency      *string          `json:"currency" binding:"omitempty,len=3"`
	PaymentDate   *Date            `json:"payment_date"`
	Status        *string          `json:"status" binding:"omitempty,oneof=pending completed failed refunded"`
	Notes         *string          `json:"notes"`
	Metadata      json.RawMessage  `json:"metadata"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	PaymentMethod string          `json:"payment_method"`
	TransactionID *string         `json:"transaction_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	PaymentDate   Date            `json:"payment_date"`
	Status        string          `json:"status"`
	Notes         string          `json:"notes,omitempty"`
	Metadata      json.RawMessage `json:"metadata"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// PaymentTotalResponse is the sum of a user's completed payments
type PaymentTotalResponse struct {
	TotalCompleted decimal.Decimal `json:"total_completed"`
}

// ==================== Aging DTOs ====================

// AgingEntryResponse is one classified invoice
type AgingEntryResponse struct {
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	ClientID      uuid.UUID       `json:"client_id"`
	DueDate       Date            `json:"due_date"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	BalanceDue    decimal.Decimal `json:"balance_due"`
	Bucket        string          `json:"bucket"`
	DaysOverdue   int             `json:"days_overdue"`
}

// AgingBucketTotal sums one bucket
type AgingBucketTotal struct {
	Bucket  string          `json:"bucket"`
	Count   int             `json:"count"`
	Balance decimal.Decimal `json:"balance"`
}

// AgingReportResponse is the receivables aging report
type AgingReportResponse struct {
	AsOf    Date                 `json:"as_of"`
	Entries []AgingEntryResponse `json:"entries"`
	Buckets []AgingBucketTotal   `json:"buckets"`
}

// ==================== Mappers ====================

// ToLineItemResponse converts a domain item to a response
func ToLineItemResponse(item billing.LineItem) LineItemResponse {
	return LineItemResponse{
		ID:           item.ID,
		ParentID:     item.ParentID,
		Description:  item.Description,
		Quantity:     item.Quantity,
		UnitPrice:    item.UnitPrice,
		TaxRate:      item.TaxRate,
		DiscountRate: item.DiscountRate,
		Total:        item.Total,
		SortOrder:    item.SortOrder,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
}

// ToLineItemResponses converts items ordered by sort order
func ToLineItemResponses(items billing.LineItems) []LineItemResponse {
	sorted := items.Sorted()
	out := make([]LineItemResponse, len(sorted))
	for i, item := range sorted {
		out[i] = ToLineItemResponse(item)
	}
	return out
}

// ToQuoteResponse converts a domain quote to a response
func ToQuoteResponse(q *billing.Quote, now time.Time) QuoteResponse {
	return QuoteResponse{
		ID:             q.ID,
		UserID:         q.UserID,
		ClientID:       q.ClientID,
		ProjectID:      q.ProjectID,
		QuoteNumber:    q.QuoteNumber,
		Title:          q.Title,
		Description:    q.Description,
		Status:         string(q.Status),
		ValidUntil:     NewDate(q.ValidUntil),
		Subtotal:       q.Subtotal,
		TaxAmount:      q.TaxAmount,
		DiscountAmount: q.DiscountAmount,
		TotalAmount:    q.TotalAmount,
		Currency:       q.Currency.String(),
		Notes:          q.Notes,
		Terms:          q.Terms,
		SentAt:         q.SentAt,
		AcceptedAt:     q.AcceptedAt,
		ViewedAt:       q.ViewedAt,
		PublicHash:     q.PublicHash,
		IsExpired:      q.IsExpired(now),
		Items:          ToLineItemResponses(q.Items),
		ItemCount:      len(q.Items),
		CreatedAt:      q.CreatedAt,
		UpdatedAt:      q.UpdatedAt,
	}
}

// ToQuoteHistoryResponse converts a history entry to a response
func ToQuoteHistoryResponse(h billing.QuoteHistory) QuoteHistoryResponse {
	return QuoteHistoryResponse{
		ID:          h.ID,
		QuoteID:     h.QuoteID,
		Action:      h.Action,
		Description: h.Description,
		IPAddress:   h.IPAddress,
		UserAgent:   h.UserAgent,
		Metadata:    rawMetadata(h.Metadata),
		CreatedAt:   h.CreatedAt,
	}
}

// ToInvoiceResponse converts a domain invoice to a response
func ToInvoiceResponse(inv *billing.Invoice, now time.Time) InvoiceResponse {
	payments := make([]PaymentResponse, len(inv.Payments))
	for i, p := range inv.Payments {
		payments[i] = ToPaymentResponse(p)
	}
	return InvoiceResponse{
		ID:              inv.ID,
		UserID:          inv.UserID,
		ClientID:        inv.ClientID,
		ProjectID:       inv.ProjectID,
		QuoteID:         inv.QuoteID,
		InvoiceNumber:   inv.InvoiceNumber,
		Title:           inv.Title,
		Description:     inv.Description,
		Status:          string(inv.Status),
		IssueDate:       Date{Time: inv.IssueDate},
		DueDate:         Date{Time: inv.DueDate},
		PaidDate:        NewDate(inv.PaidDate),
		PaymentTerms:    inv.PaymentTerms,
		Subtotal:        inv.Subtotal,
		TaxAmount:       inv.TaxAmount,
		DiscountAmount:  inv.DiscountAmount,
		TotalAmount:     inv.TotalAmount,
		AmountPaid:      inv.AmountPaid,
		BalanceDue:      inv.BalanceDue,
		Currency:        inv.Currency.String(),
		Notes:           inv.Notes,
		Terms:           inv.Terms,
		SentAt:          inv.SentAt,
		ViewedAt:        inv.ViewedAt,
		PublicHash:      inv.PublicHash,
		PaymentLink:     inv.PaymentLink,
		IsOverdue:       inv.IsOverdue(now),
		IsPartiallyPaid: inv.IsPartiallyPaid(),
		Items:           ToLineItemResponses(inv.Items),
		Payments:        payments,
		CreatedAt:       inv.CreatedAt,
		UpdatedAt:       inv.UpdatedAt,
	}
}

// ToInvoiceSummaryResponse condenses an invoice
func ToInvoiceSummaryResponse(inv *billing.Invoice, now time.Time) InvoiceSummaryResponse {
	return InvoiceSummaryResponse{
		ID:              inv.ID,
		InvoiceNumber:   inv.InvoiceNumber,
		Status:          string(inv.Status),
		TotalAmount:     inv.TotalAmount,
		AmountPaid:      inv.AmountPaid,
		BalanceDue:      inv.BalanceDue,
		Currency:        inv.Currency.String(),
		DueDate:         Date{Time: inv.DueDate},
		IsOverdue:       inv.IsOverdue(now),
		IsPartiallyPaid: inv.IsPartiallyPaid(),
		ItemCount:       len(inv.Items),
		PaymentCount:    len(inv.Payments),
	}
}

// ToPaymentResponse converts a domain payment to a response
func ToPaymentResponse(p billing.InvoicePayment) PaymentResponse {
	return PaymentResponse{
		ID:            p.ID,
		InvoiceID:     p.InvoiceID,
		PaymentMethod: p.PaymentMethod,
		TransactionID: p.TransactionID,
		Amount:        p.Amount,
		Currency:      p.Currency.String(),
		PaymentDate:   Date{Time: p.PaymentDate},
		Status:        string(p.Status),
		Notes:         p.Notes,
		Metadata:      rawMetadata(p.Metadata),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func rawMetadata(s string) json.RawMessage {
	if s == "" || !json.Valid([]byte(s)) {
		return json.RawMessage("{}")
	}
	return json.RawMessage(s)
}

func toLineItemInput(r LineItemRequest) billing.LineItemInput {
	return billing.LineItemInput{
		Description:  r.Description,
		Quantity:     r.Quantity,
		UnitPrice:    r.UnitPrice,
		TaxRate:      r.TaxRate,
		DiscountRate: r.DiscountRate,
		SortOrder:    r.SortOrder,
	}
}

// toLineItemInputs keeps nil distinct from empty so updates can tell
// "leave items alone" from "remove every item"
func toLineItemInputs(reqs []LineItemRequest) []billing.LineItemInput {
	if reqs == nil {
		return nil
	}
	out := make([]billing.LineItemInput, len(reqs))
	for i, r := range reqs {
		out[i] = toLineItemInput(r)
	}
	return out
}

func toLineItemPatch(r UpdateLineItemRequest) billing.LineItemPatch {
	return billing.LineItemPatch{
		Description:  r.Description,
		Quantity:     r.Quantity,
		UnitPrice:    r.UnitPrice,
		TaxRate:      r.TaxRate,
		DiscountRate: r.DiscountRate,
		SortOrder:    r.SortOrder,
	}
}
