package telemetry_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ech/backend/internal/domain/debt"
	"github.com/ech/backend/internal/infrastructure/persistence/models"
	"github.com/ech/backend/internal/infrastructure/telemetry"
	"github.com/ech/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fixedSnapshot struct {
	balance decimal.Decimal
	debts   int64
	err     error
}

func (s fixedSnapshot) CashBalance(context.Context) (decimal.Decimal, error) {
	return s.balance, s.err
}

func (s fixedSnapshot) ActiveDebtCount(context.Context) (int64, error) {
	return s.debts, s.err
}

func TestNewLedgerMetrics_NilMeter(t *testing.T) {
	lm, err := telemetry.NewLedgerMetrics(nil, nil, nil)
	assert.ErrorIs(t, err, telemetry.ErrNilMeter)
	assert.Nil(t, lm)
}

func TestLedgerMetrics_NilReceiver(t *testing.T) {
	var lm *telemetry.LedgerMetrics
	assert.NotPanics(t, func() {
		lm.RecordMovement(context.Background(), "credit", decimal.NewFromInt(10))
		lm.RecordRejection(context.Background(), "debit", "INSUFFICIENT_FUNDS")
	})
}

func TestLedgerMetrics_Counters(t *testing.T) {
	meter, reader := newManualMeter(t)
	lm, err := telemetry.NewLedgerMetrics(meter, nil, nil)
	require.NoError(t, err)

	ctx := context.Background()
	lm.RecordMovement(ctx, "credit", decimal.RequireFromString("12.34"))
	lm.RecordMovement(ctx, "credit", decimal.RequireFromString("0.66"))
	lm.RecordMovement(ctx, "balance_adjustment", decimal.RequireFromString("-5.00"))
	lm.RecordRejection(ctx, "debit", "INSUFFICIENT_FUNDS")

	metrics := collect(t, reader)
	credit := map[string]string{"cash.movement": "credit"}
	assert.Equal(t, int64(2), int64Value(t, metrics["ech_cash_movement_total"], credit))
	assert.Equal(t, int64(1300), int64Value(t, metrics["ech_cash_movement_amount_total"], credit))
	assert.Equal(t, int64(500), int64Value(t, metrics["ech_cash_movement_amount_total"], map[string]string{"cash.movement": "balance_adjustment"}))
	assert.Equal(t, int64(1), int64Value(t, metrics["ech_cash_rejection_total"], map[string]string{
		"cash.movement": "debit",
		"error.code":    "INSUFFICIENT_FUNDS",
	}))

	_, hasGauge := metrics["ech_cash_balance"]
	assert.False(t, hasGauge)
}

func TestLedgerMetrics_Gauges(t *testing.T) {
	meter, reader := newManualMeter(t)
	_, err := telemetry.NewLedgerMetrics(meter, fixedSnapshot{balance: decimal.RequireFromString("1500.25"), debts: 3}, nil)
	require.NoError(t, err)

	metrics := collect(t, reader)

	balance, ok := metrics["ech_cash_balance"].Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	require.Len(t, balance.DataPoints, 1)
	assert.InDelta(t, 1500.25, balance.DataPoints[0].Value, 0.001)
	assert.Equal(t, int64(3), int64Value(t, metrics["ech_debt_active_count"], nil))
}

func TestLedgerMetrics_GaugeReadFailure(t *testing.T) {
	meter, reader := newManualMeter(t)
	core, logs := observer.New(zapcore.WarnLevel)
	_, err := telemetry.NewLedgerMetrics(meter, fixedSnapshot{err: errors.New("database is closed")}, zap.New(core))
	require.NoError(t, err)

	collect(t, reader)

	assert.Equal(t, 1, logs.FilterMessage("Failed to read cash balance for metrics").Len())
	assert.Equal(t, 1, logs.FilterMessage("Failed to count active debts for metrics").Len())
}

func TestGormLedgerSnapshot(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	snap := telemetry.NewGormLedgerSnapshot(db)
	ctx := context.Background()

	balance, err := snap.CashBalance(ctx)
	require.NoError(t, err)
	assert.True(t, balance.IsZero())

	now := time.Now()
	require.NoError(t, db.Create(&models.CashAccountModel{
		ID: uuid.New(), Balance: decimal.RequireFromString("1250.50"), Version: 1, CreatedAt: now, UpdatedAt: now,
	}).Error)
	for _, status := range []debt.Status{debt.StatusActive, debt.StatusActive, debt.StatusCompleted} {
		m := &models.DebtModel{
			CreditorName:    "Fournisseur",
			OriginalAmount:  decimal.NewFromInt(100),
			RemainingAmount: decimal.NewFromInt(100),
			Status:          status,
			DateCreated:     now,
		}
		m.ID = uuid.New()
		m.Version = 1
		m.CreatedAt = now
		m.UpdatedAt = now
		require.NoError(t, db.Create(m).Error)
	}

	balance, err = snap.CashBalance(ctx)
	require.NoError(t, err)
	assert.True(t, balance.Equal(decimal.RequireFromString("1250.5")), balance.String())

	n, err := snap.ActiveDebtCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}
