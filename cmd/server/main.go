package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	activityapp "github.com/freelance/backend/internal/application/activity"
	billingapp "github.com/freelance/backend/internal/application/billing"
	"github.com/freelance/backend/internal/domain/shared"
	"github.com/freelance/backend/internal/domain/shared/valueobject"
	"github.com/freelance/backend/internal/infrastructure/auth"
	"github.com/freelance/backend/internal/infrastructure/cache"
	"github.com/freelance/backend/internal/infrastructure/config"
	"github.com/freelance/backend/internal/infrastructure/event"
	"github.com/freelance/backend/internal/infrastructure/logger"
	"github.com/freelance/backend/internal/infrastructure/migration"
	"github.com/freelance/backend/internal/infrastructure/persistence"
	"github.com/freelance/backend/internal/infrastructure/telemetry"
	"github.com/freelance/backend/migrations"
	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	migrate bool
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:           "server",
		Short:         "Serve the freelance billing API",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return run(ctx, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.migrate, "migrate", false, "apply the embedded migrations before serving")
	return cmd
}

func run(ctx context.Context, opts *options) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting freelance backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	tp, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return fmt.Errorf("initialize telemetry: %w", err)
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	if opts.migrate {
		if err := applyMigrations(&cfg.Database, log); err != nil {
			return err
		}
	}

	db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{
		LogLevel: cfg.Log.Level,
		Logger:   log,
		Tracing: telemetry.DBTracingConfig{
			Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
			LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
			SlowQueryThresh: cfg.Database.SlowQueryThresh,
			DBName:          cfg.Database.DBName,
		},
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// redisClient stays a nil interface when redis is not configured
	var redisClient redis.UniversalClient
	if cfg.Redis.Enabled() {
		client, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer func() {
			if err := client.Close(); err != nil {
				log.Error("Error closing redis", zap.Error(err))
			}
		}()
		redisClient = client
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	resolvers := persistence.NewResolverTable(db.DB)
	if err := resolvers.Validate(); err != nil {
		return fmt.Errorf("activity resolvers: %w", err)
	}

	// Activity log subscribers
	eventBus := event.NewInMemoryEventBus(log)
	activityHandler := activityapp.NewActivityLogHandler(persistence.NewGormActivityLogRepository(db.DB), resolvers, shared.UUIDGenerator{}, log)
	eventBus.Subscribe(activityHandler)
	if err := eventBus.Start(ctx); err != nil {
		return fmt.Errorf("start event bus: %w", err)
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()
	log.Info("Event handlers registered", zap.Strings("activity_log_events", activityHandler.EventTypes()))

	settings, err := billingSettings(cfg.Billing)
	if err != nil {
		return err
	}
	svc := newBillingServices(db.DB, eventBus, settings, log)

	blacklist := tokenBlacklist(redisClient, log)
	idempotencyStore := cache.NewIdempotencyStore(redisClient, log)
	defer func() {
		_ = idempotencyStore.Close()
	}()

	apiLimiter, stopAPI := rateLimiter(redisClient, cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow, "api")
	defer stopAPI()
	publicLimiter, stopPublic := rateLimiter(redisClient, cfg.HTTP.PublicRateLimitRequests, cfg.HTTP.PublicRateLimitWindow, "public")
	defer stopPublic()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine, err := newEngine(engineDeps{
		cfg:         cfg,
		log:         log,
		tracing:     tp.IsEnabled(),
		services:    svc,
		verifier:    auth.NewJWTService(cfg.JWT),
		blacklist:   blacklist,
		idempotency: idempotencyStore,
		apiLimiter:  apiLimiter,
		pubLimiter:  publicLimiter,
		checks:      healthChecks(db, redisClient),
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve http: %w", err)
	case <-ctx.Done():
	}
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("Server exited gracefully")
	return nil
}

// applyMigrations runs the embedded migrations over a dedicated connection,
// which the migrator closes.
func applyMigrations(cfg *config.DatabaseConfig, log *zap.Logger) error {
	conn, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return fmt.Errorf("open migration connection: %w", err)
	}
	m, err := migration.New(conn, migration.Source{FS: migrations.FS}, log)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer func() {
		if err := m.Close(); err != nil {
			log.Warn("Error closing migrator", zap.Error(err))
		}
	}()
	return m.Up()
}

func billingSettings(cfg config.BillingConfig) (billingapp.Settings, error) {
	currency, err := valueobject.ParseCurrency(cfg.DefaultCurrency, valueobject.DefaultCurrency)
	if err != nil {
		return billingapp.Settings{}, fmt.Errorf("billing.default_currency: %w", err)
	}
	return billingapp.Settings{
		DefaultCurrency: currency,
		DefaultDueDays:  cfg.DefaultDueDays,
		QuotePrefix:     cfg.QuotePrefix,
		InvoicePrefix:   cfg.InvoicePrefix,
	}, nil
}

func tokenBlacklist(client redis.UniversalClient, log *zap.Logger) auth.TokenBlacklist {
	if client != nil {
		return auth.NewRedisTokenBlacklist(client)
	}
	log.Warn("redis not configured, token revocations are only tracked per process")
	return auth.NewInMemoryTokenBlacklist()
}
