package telemetry

import (
	"context"
	"errors"

	"github.com/ech/backend/internal/domain/shared"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/ech/backend"

// Attribute keys of the business spans and metrics
const (
	AttrAmount       = attribute.Key("cash.amount")
	AttrIncomeSource = attribute.Key("cash.income_source")
	AttrMovementKind = attribute.Key("cash.movement")
	AttrDebtID       = attribute.Key("debt.id")
	AttrProjectID    = attribute.Key("project.id")
	AttrErrorCode    = attribute.Key("error.code")
)

// StartSpan starts an internal span named component.operation on the
// global tracer provider.
func StartSpan(ctx context.Context, component, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(instrumentationName).Start(ctx, component+"."+operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// RecordFailure marks the span of ctx with err. Business rejections carry a
// domain error code and are added as a "rejected" event; the span status
// stays unset for them so error rates only count faults.
func RecordFailure(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if err == nil || !span.IsRecording() {
		return
	}
	var de *shared.DomainError
	if errors.As(err, &de) {
		span.AddEvent("rejected", trace.WithAttributes(AttrErrorCode.String(de.Code)))
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
