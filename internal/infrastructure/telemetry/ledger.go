package telemetry

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ErrNilMeter is returned by NewLedgerMetrics without a meter
var ErrNilMeter = errors.New("telemetry: nil meter")

// LedgerSnapshot reads the state observed by the ledger gauges
type LedgerSnapshot interface {
	CashBalance(ctx context.Context) (decimal.Decimal, error)
	ActiveDebtCount(ctx context.Context) (int64, error)
}

// LedgerMetrics counts committed and rejected cash movements. The balance
// and open debt gauges are read from the snapshot at collection time.
// A nil *LedgerMetrics records nothing.
type LedgerMetrics struct {
	movements  metric.Int64Counter
	moved      metric.Int64Counter
	rejections metric.Int64Counter
}

// NewLedgerMetrics creates the ledger instruments on meter. snapshot may be
// nil, in which case no gauge is registered.
func NewLedgerMetrics(meter metric.Meter, snapshot LedgerSnapshot, log *zap.Logger) (*LedgerMetrics, error) {
	if meter == nil {
		return nil, ErrNilMeter
	}
	if log == nil {
		log = zap.NewNop()
	}

	lm := &LedgerMetrics{}
	var err error
	if lm.movements, err = meter.Int64Counter("ech_cash_movement_total",
		metric.WithDescription("Committed cash movements"),
		metric.WithUnit("{movement}"),
	); err != nil {
		return nil, err
	}
	if lm.moved, err = meter.Int64Counter("ech_cash_movement_amount_total",
		metric.WithDescription("Moved amount in centimes"),
		metric.WithUnit("{centime}"),
	); err != nil {
		return nil, err
	}
	if lm.rejections, err = meter.Int64Counter("ech_cash_rejection_total",
		metric.WithDescription("Cash requests refused with a domain error"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}
	if snapshot == nil {
		return lm, nil
	}

	if _, err = meter.Float64ObservableGauge("ech_cash_balance",
		metric.WithDescription("Current cash register balance"),
		metric.WithUnit("{DA}"),
		metric.WithFloat64Callback(func(ctx context.Context, o metric.Float64Observer) error {
			balance, err := snapshot.CashBalance(ctx)
			if err != nil {
				log.Warn("Failed to read cash balance for metrics", zap.Error(err))
				return nil
			}
			o.Observe(balance.InexactFloat64())
			return nil
		}),
	); err != nil {
		return nil, err
	}
	if _, err = meter.Int64ObservableGauge("ech_debt_active_count",
		metric.WithDescription("Debts with a remaining amount"),
		metric.WithUnit("{debt}"),
		metric.WithInt64Callback(func(ctx context.Context, o metric.Int64Observer) error {
			n, err := snapshot.ActiveDebtCount(ctx)
			if err != nil {
				log.Warn("Failed to count active debts for metrics", zap.Error(err))
				return nil
			}
			o.Observe(n)
			return nil
		}),
	); err != nil {
		return nil, err
	}
	return lm, nil
}

// RecordMovement counts one committed movement of kind (credit, debit,
// debt_payment, balance_adjustment) and its absolute amount.
func (lm *LedgerMetrics) RecordMovement(ctx context.Context, kind string, amount decimal.Decimal) {
	if lm == nil {
		return
	}
	attrs := metric.WithAttributes(AttrMovementKind.String(kind))
	lm.movements.Add(ctx, 1, attrs)
	lm.moved.Add(ctx, amount.Abs().Shift(2).IntPart(), attrs)
}

// RecordRejection counts a request refused with a domain error code
func (lm *LedgerMetrics) RecordRejection(ctx context.Context, kind, code string) {
	if lm == nil {
		return
	}
	lm.rejections.Add(ctx, 1, metric.WithAttributes(AttrMovementKind.String(kind), AttrErrorCode.String(code)))
}

// GormLedgerSnapshot reads the gauges straight from the cash_accounts and
// debts tables.
type GormLedgerSnapshot struct {
	db *gorm.DB
}

// NewGormLedgerSnapshot creates a snapshot reader on db
func NewGormLedgerSnapshot(db *gorm.DB) *GormLedgerSnapshot {
	return &GormLedgerSnapshot{db: db}
}

// CashBalance returns the register balance, zero before the account exists
func (s *GormLedgerSnapshot) CashBalance(ctx context.Context) (decimal.Decimal, error) {
	var balance decimal.NullDecimal
	if err := s.db.WithContext(ctx).Table("cash_accounts").Select("SUM(balance)").Scan(&balance).Error; err != nil {
		return decimal.Zero, err
	}
	if !balance.Valid {
		return decimal.Zero, nil
	}
	return balance.Decimal, nil
}

// ActiveDebtCount returns the number of debts still being repaid
func (s *GormLedgerSnapshot) ActiveDebtCount(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Table("debts").Where("status = ?", "active").Count(&n).Error
	return n, err
}
