package telemetry_test

import (
	"context"
	"testing"

	"github.com/ech/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

func TestSetup_NothingEnabled(t *testing.T) {
	p, err := telemetry.Setup(context.Background(), telemetry.Config{ServiceName: "ech-test"}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, p.MetricsEnabled())

	counter, err := p.Meter("ech/test").Int64Counter("ech_test_total")
	require.NoError(t, err)
	assert.NotPanics(t, func() { counter.Add(context.Background(), 1) })

	base := zap.NewNop()
	assert.Same(t, base, p.BridgeLogger(base, zapcore.InfoLevel))
	assert.NoError(t, p.Shutdown(context.Background()))
}

func TestProviders_NilIsSafe(t *testing.T) {
	var p *telemetry.Providers

	assert.False(t, p.MetricsEnabled())
	assert.NotNil(t, p.Meter("ech/test"))
	assert.NoError(t, p.Shutdown(context.Background()))
}

// newManualMeter returns a meter whose measurements are read on demand
func newManualMeter(t *testing.T) (metric.Meter, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return mp.Meter("ech/test"), reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

// int64Value sums the points of an int64 sum or gauge whose attributes
// contain every wanted key/value pair.
func int64Value(t *testing.T, m metricdata.Metrics, want map[string]string) int64 {
	t.Helper()
	var points []metricdata.DataPoint[int64]
	switch data := m.Data.(type) {
	case metricdata.Sum[int64]:
		points = data.DataPoints
	case metricdata.Gauge[int64]:
		points = data.DataPoints
	default:
		require.Failf(t, "unexpected data type", "%s is %T", m.Name, m.Data)
	}
	var total int64
	for _, dp := range points {
		if hasAttributes(dp.Attributes.ToSlice(), want) {
			total += dp.Value
		}
	}
	return total
}

func hasAttributes(attrs []attribute.KeyValue, want map[string]string) bool {
	for k, v := range want {
		found := false
		for _, kv := range attrs {
			if string(kv.Key) == k && kv.Value.Emit() == v {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
