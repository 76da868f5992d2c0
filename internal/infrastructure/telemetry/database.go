package telemetry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// DatabaseConfig selects the database instrumentation
type DatabaseConfig struct {
	// Tracing adds a span per statement through otelgorm
	Tracing bool
	// FullSQL keeps bound values in spans and slow query logs
	FullSQL bool
	// SlowQuery is the duration above which a statement is logged and counted
	SlowQuery time.Duration
	DBName    string
}

const startedAtKey = "ech:telemetry_started_at"

var (
	attrDBOperation = attribute.Key("db.operation")
	attrDBTable     = attribute.Key("db.table")
	attrPoolState   = attribute.Key("state")
)

// InstrumentDatabase registers tracing and metrics on db. A nil meter skips
// the metrics.
func InstrumentDatabase(db *gorm.DB, cfg DatabaseConfig, meter metric.Meter, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Tracing {
		opts := []otelgorm.Option{otelgorm.WithDBName(cfg.DBName)}
		if !cfg.FullSQL {
			opts = append(opts, otelgorm.WithoutQueryVariables())
		}
		if err := db.Use(otelgorm.NewPlugin(opts...)); err != nil {
			return fmt.Errorf("register otelgorm: %w", err)
		}
	}
	if meter == nil {
		return nil
	}

	q := &queryMetrics{cfg: cfg, log: log}
	var err error
	if q.duration, err = meter.Float64Histogram("ech_db_query_duration_seconds",
		metric.WithDescription("Duration of database statements"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5),
	); err != nil {
		return err
	}
	if q.slow, err = meter.Int64Counter("ech_db_slow_query_total",
		metric.WithDescription("Statements slower than the configured threshold"),
	); err != nil {
		return err
	}
	if err := q.register(db); err != nil {
		return err
	}
	return registerPoolGauges(db, meter)
}

type queryMetrics struct {
	cfg      DatabaseConfig
	log      *zap.Logger
	duration metric.Float64Histogram
	slow     metric.Int64Counter
}

func (q *queryMetrics) register(db *gorm.DB) error {
	cb := db.Callback()
	return errors.Join(
		cb.Create().Before("gorm:create").Register("ech:metrics_before_create", q.before),
		cb.Create().After("gorm:create").Register("ech:metrics_after_create", q.after("create")),
		cb.Query().Before("gorm:query").Register("ech:metrics_before_query", q.before),
		cb.Query().After("gorm:query").Register("ech:metrics_after_query", q.after("query")),
		cb.Update().Before("gorm:update").Register("ech:metrics_before_update", q.before),
		cb.Update().After("gorm:update").Register("ech:metrics_after_update", q.after("update")),
		cb.Delete().Before("gorm:delete").Register("ech:metrics_before_delete", q.before),
		cb.Delete().After("gorm:delete").Register("ech:metrics_after_delete", q.after("delete")),
		cb.Row().Before("gorm:row").Register("ech:metrics_before_row", q.before),
		cb.Row().After("gorm:row").Register("ech:metrics_after_row", q.after("row")),
		cb.Raw().Before("gorm:raw").Register("ech:metrics_before_raw", q.before),
		cb.Raw().After("gorm:raw").Register("ech:metrics_after_raw", q.after("raw")),
	)
}

func (q *queryMetrics) before(tx *gorm.DB) {
	tx.InstanceSet(startedAtKey, time.Now())
}

func (q *queryMetrics) after(op string) func(*gorm.DB) {
	return func(tx *gorm.DB) {
		v, ok := tx.InstanceGet(startedAtKey)
		if !ok {
			return
		}
		started, ok := v.(time.Time)
		if !ok {
			return
		}
		elapsed := time.Since(started)
		ctx := tx.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		attrs := metric.WithAttributes(attrDBOperation.String(op), attrDBTable.String(tx.Statement.Table))
		q.duration.Record(ctx, elapsed.Seconds(), attrs)

		if q.cfg.SlowQuery <= 0 || elapsed < q.cfg.SlowQuery {
			return
		}
		q.slow.Add(ctx, 1, attrs)
		fields := []zap.Field{
			zap.String("operation", op),
			zap.String("table", tx.Statement.Table),
			zap.Duration("elapsed", elapsed),
			zap.Int64("rows", tx.RowsAffected),
		}
		if q.cfg.FullSQL {
			fields = append(fields, zap.String("sql", tx.Dialector.Explain(tx.Statement.SQL.String(), tx.Statement.Vars...)))
		}
		q.log.Warn("Slow database query", fields...)
	}
}

func registerPoolGauges(db *gorm.DB, meter metric.Meter) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	conns, err := meter.Int64ObservableGauge("ech_db_pool_connections",
		metric.WithDescription("Pooled connections by state"),
	)
	if err != nil {
		return err
	}
	maxOpen, err := meter.Int64ObservableGauge("ech_db_pool_connections_max",
		metric.WithDescription("Maximum number of open connections"),
	)
	if err != nil {
		return err
	}
	_, err = meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(conns, int64(stats.InUse), metric.WithAttributes(attrPoolState.String("in_use")))
		o.ObserveInt64(conns, int64(stats.Idle), metric.WithAttributes(attrPoolState.String("idle")))
		o.ObserveInt64(maxOpen, int64(stats.MaxOpenConnections))
		return nil
	}, conns, maxOpen)
	return err
}
