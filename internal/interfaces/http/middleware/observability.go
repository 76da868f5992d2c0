package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/ech/backend/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Tracing starts a server span per request through otelgin and decorates it
// once the handlers returned: request id, caller, and an error status for
// rejected requests. otelgin owns the status of 5xx responses.
func Tracing(serviceName string) gin.HandlersChain {
	return gin.HandlersChain{otelgin.Middleware(serviceName), decorateSpan}
}

func decorateSpan(c *gin.Context) {
	c.Next()

	span := trace.SpanFromContext(c.Request.Context())
	if !span.IsRecording() {
		return
	}
	if id := GetRequestID(c); id != "" {
		span.SetAttributes(attribute.String("request_id", id))
	}
	if claims := GetJWTClaims(c); claims != nil {
		span.SetAttributes(
			attribute.String("enduser.id", claims.UserID),
			attribute.String("enduser.name", claims.Username),
		)
	}
	if status := c.Writer.Status(); status >= http.StatusBadRequest && status < http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(status))
	}
}

// HTTPMetrics counts requests and measures their latency by method, route
// and status. A nil meter disables it.
func HTTPMetrics(meter metric.Meter) gin.HandlerFunc {
	if meter == nil {
		return passthrough
	}
	requests, err := meter.Int64Counter("http_server_request_total",
		metric.WithDescription("HTTP requests served"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return passthrough
	}
	latency, err := meter.Float64Histogram("http_server_request_duration_seconds",
		metric.WithDescription("HTTP request latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	)
	if err != nil {
		return passthrough
	}
	inFlight, err := meter.Int64UpDownCounter("http_server_active_requests",
		metric.WithDescription("Requests being served"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return passthrough
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		start := time.Now()
		inFlight.Add(ctx, 1)
		defer inFlight.Add(ctx, -1)

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := attribute.String("http.method", c.Request.Method)
		path := attribute.String("http.route", route)
		requests.Add(ctx, 1, metric.WithAttributes(method, path, attribute.Int("http.status_code", c.Writer.Status())))
		latency.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(method, path))
	}
}

// ProfileLabels tags the CPU samples of each request with its method, route
// and resource (the first segment after /api/vN). Requests on a skipped
// path, or under a skipped entry ending in "/", run unlabeled.
func ProfileLabels(skip ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		p := c.Request.URL.Path
		if slices.ContainsFunc(skip, func(s string) bool { return p == s || (strings.HasSuffix(s, "/") && strings.HasPrefix(p, s)) }) {
			c.Next()
			return
		}
		route := c.FullPath()
		telemetry.Profile(c.Request.Context(), func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		}, "method", c.Request.Method, "route", route, "resource", resourceOf(route))
	}
}

// resourceOf returns "dettes" for "/api/v1/dettes/:id"
func resourceOf(route string) string {
	for _, seg := range strings.Split(route, "/") {
		if seg == "" || seg == "api" || strings.HasPrefix(seg, ":") || strings.HasPrefix(seg, "*") || isAPIVersion(seg) {
			continue
		}
		return seg
	}
	return ""
}

func isAPIVersion(seg string) bool {
	if len(seg) < 2 || seg[0] != 'v' {
		return false
	}
	for _, r := range seg[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func passthrough(c *gin.Context) { c.Next() }
