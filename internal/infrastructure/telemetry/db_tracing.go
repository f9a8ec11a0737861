package telemetry

import (
	"errors"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DBTracingConfig holds configuration for database tracing.
type DBTracingConfig struct {
	Enabled         bool
	LogFullSQL      bool          // Keep bound variables in db.statement (dev only)
	SlowQueryThresh time.Duration // Queries above this get db.slow_query=true
	DBName          string
	// TracerProvider overrides the global provider, mainly for tests
	TracerProvider trace.TracerProvider
}

const startTimeKey = "telemetry:query_start"

// RegisterDBTracing installs the otelgorm plugin plus a callback that tags
// slow statements. It does nothing when tracing is disabled.
func RegisterDBTracing(db *gorm.DB, cfg DBTracingConfig, logger *zap.Logger) error {
	if !cfg.Enabled {
		logger.Debug("Database tracing disabled, skipping otelgorm registration")
		return nil
	}

	opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
	if !cfg.LogFullSQL {
		opts = append(opts, otelgorm.WithoutQueryVariables())
	}
	if cfg.TracerProvider != nil {
		opts = append(opts, otelgorm.WithTracerProvider(cfg.TracerProvider))
	}
	if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
		return err
	}
	if cfg.SlowQueryThresh > 0 {
		if err := registerSlowQueryCallbacks(db, cfg.SlowQueryThresh); err != nil {
			return err
		}
	}

	logger.Info("Database tracing enabled",
		zap.Bool("log_full_sql", cfg.LogFullSQL),
		zap.Duration("slow_query_threshold", cfg.SlowQueryThresh),
	)
	return nil
}

func registerSlowQueryCallbacks(db *gorm.DB, threshold time.Duration) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(startTimeKey, time.Now())
	}
	after := func(tx *gorm.DB) {
		markSlowQuery(tx, threshold)
	}

	cb := db.Callback()
	registrations := []func() error{
		func() error { return cb.Create().Before("gorm:create").Register("telemetry:before_create", before) },
		func() error { return cb.Create().After("gorm:create").Register("telemetry:after_create", after) },
		func() error { return cb.Query().Before("gorm:query").Register("telemetry:before_query", before) },
		func() error { return cb.Query().After("gorm:query").Register("telemetry:after_query", after) },
		func() error { return cb.Update().Before("gorm:update").Register("telemetry:before_update", before) },
		func() error { return cb.Update().After("gorm:update").Register("telemetry:after_update", after) },
		func() error { return cb.Delete().Before("gorm:delete").Register("telemetry:before_delete", before) },
		func() error { return cb.Delete().After("gorm:delete").Register("telemetry:after_delete", after) },
		func() error { return cb.Row().Before("gorm:row").Register("telemetry:before_row", before) },
		func() error { return cb.Row().After("gorm:row").Register("telemetry:after_row", after) },
		func() error { return cb.Raw().Before("gorm:raw").Register("telemetry:before_raw", before) },
		func() error { return cb.Raw().After("gorm:raw").Register("telemetry:after_raw", after) },
	}
	for _, register := range registrations {
		if err := register(); err != nil {
			return err
		}
	}
	return nil
}

func markSlowQuery(tx *gorm.DB, threshold time.Duration) {
	if tx.Statement.Context == nil {
		return
	}
	span := trace.SpanFromContext(tx.Statement.Context)
	if !span.IsRecording() {
		return
	}
	v, ok := tx.InstanceGet(startTimeKey)
	if !ok {
		return
	}
	start, _ := v.(time.Time)
	elapsed := time.Since(start)
	if elapsed <= threshold {
		return
	}
	span.SetAttributes(
		attribute.Bool("db.slow_query", true),
		attribute.Int64("db.query_duration_ms", elapsed.Milliseconds()),
	)
	if tx.Error != nil && !errors.Is(tx.Error, gorm.ErrRecordNotFound) {
		span.SetAttributes(attribute.String("db.slow_query_error", tx.Error.Error()))
	}
}
