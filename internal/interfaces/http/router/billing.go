package router

import (
	"github.com/freelance/backend/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
)

// Handlers bundles the HTTP handlers served under /api/v1
type Handlers struct {
	Quotes       *handler.QuoteHandler
	Invoices     *handler.InvoiceHandler
	QuoteItems   *handler.LineItemHandler
	InvoiceItems *handler.LineItemHandler
	Payments     *handler.PaymentHandler
	Public       *handler.PublicHandler
	Health       *handler.HealthHandler
}

// Guards are the middleware applied per group or per route. Nil guards are
// skipped.
type Guards struct {
	// Auth runs on every authenticated group
	Auth []gin.HandlerFunc
	// Idempotency runs on non-repeatable writes (payments, public accept/reject)
	Idempotency gin.HandlerFunc
	// PublicRateLimit runs on the client-facing public routes
	PublicRateLimit gin.HandlerFunc
}

// BillingRoutes returns the route groups of the billing API
func BillingRoutes(h Handlers, g Guards) []*DomainGroup {
	quotes := NewDomainGroup("quotes", "/quotes").Use(g.Auth...)
	quotes.POST("", h.Quotes.Create).
		GET("", h.Quotes.List).
		GET("/expired", h.Quotes.Expired).
		GET("/:id", h.Quotes.Get).
		PUT("/:id", h.Quotes.Update).
		DELETE("/:id", h.Quotes.Delete).
		POST("/:id/send", h.Quotes.Send).
		POST("/:id/duplicate", h.Quotes.Duplicate).
		PATCH("/:id/status", h.Quotes.UpdateStatus).
		GET("/:id/history", h.Quotes.History).
		POST("/:id/invoice", g.Idempotency, h.Quotes.ConvertToInvoice)
	lineItemRoutes(quotes.Group("quote-items", "/:id/items"), h.QuoteItems)

	invoices := NewDomainGroup("invoices", "/invoices").Use(g.Auth...)
	invoices.POST("", h.Invoices.Create).
		GET("", h.Invoices.List).
		GET("/overdue", h.Invoices.Overdue).
		GET("/recent", h.Invoices.Recent).
		GET("/stats", h.Invoices.Stats).
		GET("/aging", h.Invoices.Aging).
		GET("/:id", h.Invoices.Get).
		GET("/:id/summary", h.Invoices.Summary).
		PUT("/:id", h.Invoices.Update).
		DELETE("/:id", h.Invoices.Delete).
		POST("/:id/send", h.Invoices.Send).
		POST("/:id/cancel", h.Invoices.Cancel).
		POST("/:id/duplicate", h.Invoices.Duplicate).
		PATCH("/:id/status", h.Invoices.UpdateStatus)
	lineItemRoutes(invoices.Group("invoice-items", "/:id/items"), h.InvoiceItems)
	invoices.Group("invoice-payments", "/:id/payments").
		GET("", h.Payments.List).
		POST("", g.Idempotency, h.Payments.Add).
		GET("/:paymentId", h.Payments.Get).
		PUT("/:paymentId", h.Payments.Update).
		DELETE("/:paymentId", h.Payments.Delete)

	payments := NewDomainGroup("payments", "/payments").Use(g.Auth...)
	payments.GET("", h.Payments.ListByStatus).
		GET("/total", h.Payments.Total)

	public := NewDomainGroup("public", "/public").Use(g.PublicRateLimit)
	public.GET("/quotes/:hash", h.Public.ViewQuote).
		POST("/quotes/:hash/accept", g.Idempotency, h.Public.AcceptQuote).
		POST("/quotes/:hash/reject", g.Idempotency, h.Public.RejectQuote).
		GET("/invoices/:hash", h.Public.ViewInvoice)

	health := NewDomainGroup("health", "")
	health.GET("/health", h.Health.Live).
		GET("/ready", h.Health.Ready)

	return []*DomainGroup{quotes, invoices, payments, public, health}
}

func lineItemRoutes(dg *DomainGroup, items *handler.LineItemHandler) {
	dg.GET("", items.List).
		POST("", items.Add).
		PUT("/reorder", items.Reorder).
		PUT("/:itemId", items.Update).
		DELETE("/:itemId", items.Delete)
}
