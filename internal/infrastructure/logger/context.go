package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type ctxKey int

const (
	loggerKey ctxKey = iota
	requestIDKey
	operatorKey
)

// Operator is the authenticated cashier or administrator behind a request
type Operator struct {
	UserID   string
	Username string
}

// WithContext attaches log to ctx
func WithContext(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, log)
}

// FromContext returns the logger attached to ctx, or a no-op logger. Inside
// a sampled span the entries carry trace_id and span_id.
func FromContext(ctx context.Context) *zap.Logger {
	log, ok := ctx.Value(loggerKey).(*zap.Logger)
	if !ok {
		return zap.NewNop()
	}
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		log = log.With(zap.String("trace_id", sc.TraceID().String()), zap.String("span_id", sc.SpanID().String()))
	}
	return log
}

// WithRequestID records the request id in ctx and attaches log tagged with it
func WithRequestID(ctx context.Context, log *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	log = log.With(zap.String("request_id", requestID))
	return WithContext(context.WithValue(ctx, requestIDKey, requestID), log), log
}

// RequestID returns the id recorded by WithRequestID
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithOperator records who is acting and tags the context logger with it
func WithOperator(ctx context.Context, op Operator) context.Context {
	ctx = context.WithValue(ctx, operatorKey, op)
	log, ok := ctx.Value(loggerKey).(*zap.Logger)
	if !ok {
		return ctx
	}
	return WithContext(ctx, log.With(zap.String("user_id", op.UserID), zap.String("username", op.Username)))
}

// OperatorFrom returns the operator recorded by WithOperator
func OperatorFrom(ctx context.Context) (Operator, bool) {
	op, ok := ctx.Value(operatorKey).(Operator)
	return op, ok
}
