package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ech/backend/internal/domain/shared"
	"github.com/ech/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func useSpanRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return sr
}

func TestStartSpan(t *testing.T) {
	sr := useSpanRecorder(t)

	_, span := telemetry.StartSpan(context.Background(), "cash_ledger", "credit",
		telemetry.AttrAmount.String("150.00"),
		telemetry.AttrIncomeSource.String("collaborator"),
	)
	span.End()

	ended := sr.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "cash_ledger.credit", ended[0].Name())
	assert.True(t, hasAttributes(ended[0].Attributes(), map[string]string{
		"cash.amount":        "150.00",
		"cash.income_source": "collaborator",
	}))
}

func TestRecordFailure(t *testing.T) {
	t.Run("rejection is an event", func(t *testing.T) {
		sr := useSpanRecorder(t)

		ctx, span := telemetry.StartSpan(context.Background(), "cash_ledger", "debit")
		telemetry.RecordFailure(ctx, shared.NewDomainError(shared.CodeInsufficientFunds, "Solde insuffisant"))
		span.End()

		got := sr.Ended()[0]
		assert.Equal(t, codes.Unset, got.Status().Code)
		require.Len(t, got.Events(), 1)
		assert.Equal(t, "rejected", got.Events()[0].Name)
		assert.True(t, hasAttributes(got.Events()[0].Attributes, map[string]string{"error.code": shared.CodeInsufficientFunds}))
	})

	t.Run("fault sets error status", func(t *testing.T) {
		sr := useSpanRecorder(t)

		ctx, span := telemetry.StartSpan(context.Background(), "cash_ledger", "pay_debt")
		telemetry.RecordFailure(ctx, errors.New("connection reset"))
		span.End()

		got := sr.Ended()[0]
		assert.Equal(t, codes.Error, got.Status().Code)
		assert.Equal(t, "connection reset", got.Status().Description)
	})

	t.Run("nil error and missing span", func(t *testing.T) {
		assert.NotPanics(t, func() {
			telemetry.RecordFailure(context.Background(), errors.New("boom"))
			telemetry.RecordFailure(context.Background(), nil)
		})
	})
}
