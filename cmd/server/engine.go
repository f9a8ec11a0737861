package main

import (
	"context"
	"fmt"
	"time"

	activityapp "github.com/freelance/backend/internal/application/activity"
	billingapp "github.com/freelance/backend/internal/application/billing"
	"github.com/freelance/backend/internal/domain/shared"
	"github.com/freelance/backend/internal/infrastructure/auth"
	"github.com/freelance/backend/internal/infrastructure/config"
	"github.com/freelance/backend/internal/infrastructure/logger"
	"github.com/freelance/backend/internal/infrastructure/persistence"
	"github.com/freelance/backend/internal/interfaces/http/handler"
	"github.com/freelance/backend/internal/interfaces/http/middleware"
	"github.com/freelance/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type billingServices struct {
	quotes     *billingapp.QuoteService
	invoices   *billingapp.InvoiceService
	items      *billingapp.LineItemService
	payments   *billingapp.PaymentService
	aging      *billingapp.AgingService
	conversion *billingapp.ConversionService
}

// newBillingServices wires the billing services over db. Audit entries go
// through publisher.
func newBillingServices(db *gorm.DB, publisher shared.EventPublisher, settings billingapp.Settings, log *zap.Logger) billingServices {
	clock := shared.SystemClock{}
	cfg := billingapp.ServiceConfig{
		Scope:     persistence.NewGormTransactionScope(db),
		Quotes:    persistence.NewGormQuoteRepository(db),
		History:   persistence.NewGormQuoteHistoryRepository(db),
		Invoices:  persistence.NewGormInvoiceRepository(db),
		Payments:  persistence.NewGormPaymentRepository(db),
		Users:     persistence.NewGormUserDirectory(db),
		Clients:   persistence.NewGormClientDirectory(db),
		Projects:  persistence.NewGormProjectDirectory(db),
		Reminders: persistence.NewGormReminderDirectory(db),
		Audit:     activityapp.NewRecorder(publisher, clock, log),
		Clock:     clock,
		IDs:       shared.UUIDGenerator{},
		Settings:  settings,
		Logger:    log,
	}
	svc := billingServices{
		quotes:   billingapp.NewQuoteService(cfg),
		invoices: billingapp.NewInvoiceService(cfg),
		items:    billingapp.NewLineItemService(cfg),
		payments: billingapp.NewPaymentService(cfg),
		aging:    billingapp.NewAgingService(cfg),
	}
	svc.conversion = billingapp.NewConversionService(svc.invoices)
	return svc
}

type engineDeps struct {
	cfg         *config.Config
	log         *zap.Logger
	tracing     bool
	services    billingServices
	verifier    middleware.TokenVerifier
	blacklist   auth.TokenBlacklist
	idempotency shared.IdempotencyStore
	apiLimiter  middleware.Limiter
	pubLimiter  middleware.Limiter
	checks      []handler.HealthCheck
}

// newEngine builds the gin engine with the global middleware chain and the
// billing routes under /api/v1.
func newEngine(d engineDeps) (*gin.Engine, error) {
	httpCfg := d.cfg.HTTP
	engine := gin.New()
	if err := engine.SetTrustedProxies(httpCfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("set trusted proxies: %w", err)
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(d.log))
	engine.Use(logger.GinMiddleware(d.log))
	if d.tracing {
		engine.Use(middleware.Tracing(d.cfg.Telemetry.ServiceName), middleware.SpanErrorMarker())
	}
	engine.Use(middleware.Secure(d.cfg.App.Env == "production"))

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = httpCfg.CORSAllowOrigins
	corsCfg.AllowMethods = httpCfg.CORSAllowMethods
	corsCfg.AllowHeaders = httpCfg.CORSAllowHeaders
	engine.Use(middleware.CORS(corsCfg))
	engine.Use(middleware.BodyLimit(httpCfg.MaxBodySize))

	middleware.SetupValidator()

	svc := d.services
	handlers := router.Handlers{
		Quotes:       handler.NewQuoteHandler(svc.quotes, svc.conversion),
		Invoices:     handler.NewInvoiceHandler(svc.invoices, svc.aging),
		QuoteItems:   handler.NewQuoteItemHandler(svc.items),
		InvoiceItems: handler.NewInvoiceItemHandler(svc.items),
		Payments:     handler.NewPaymentHandler(svc.payments),
		Public:       handler.NewPublicHandler(svc.quotes, svc.invoices),
		Health:       handler.NewHealthHandler(d.checks...),
	}

	guards := router.Guards{
		Auth: []gin.HandlerFunc{
			middleware.JWTAuth(middleware.JWTConfig{Verifier: d.verifier, Blacklist: d.blacklist, Logger: d.log}),
			middleware.SpanAttributes(),
		},
		Idempotency: middleware.Idempotency(d.idempotency, httpCfg.IdempotencyTTL),
	}
	if httpCfg.RateLimitEnabled {
		guards.Auth = append(guards.Auth, middleware.RateLimit(d.apiLimiter, middleware.ByUserOrIP))
		guards.PublicRateLimit = middleware.RateLimit(d.pubLimiter, middleware.ByClientIP)
	}

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	for _, group := range router.BillingRoutes(handlers, guards) {
		r.Register(group)
	}
	r.Setup()

	return engine, nil
}

// rateLimiter shares counters through redis when available. The returned
// func stops the in-memory limiter's sweeper.
func rateLimiter(client redis.UniversalClient, limit int, window time.Duration, name string) (middleware.Limiter, func()) {
	if client != nil {
		return middleware.NewRedisRateLimiter(client, limit, window, name+":"), func() {}
	}
	limiter := middleware.NewRateLimiter(limit, window)
	return limiter, limiter.Stop
}

func healthChecks(db *persistence.Database, client redis.UniversalClient) []handler.HealthCheck {
	checks := []handler.HealthCheck{{
		Name: "database",
		Check: func(ctx context.Context) error {
			return db.DB.WithContext(ctx).Exec("SELECT 1").Error
		},
	}}
	if client != nil {
		checks = append(checks, handler.HealthCheck{
			Name: "redis",
			Check: func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			},
		})
	}
	return checks
}
