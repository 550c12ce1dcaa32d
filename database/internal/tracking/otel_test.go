package tracking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTestTracerProvider installs an in-memory tracer provider for the test
func setupTestTracerProvider(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()

	original := otel.GetTracerProvider()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	otel.SetTracerProvider(tp)

	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(original)
	})
	return exporter
}

// setupTestMeterProvider installs a manual reader and recreates the instruments against it
func setupTestMeterProvider(t *testing.T) *sdkmetric.ManualReader {
	t.Helper()

	original := otel.GetMeterProvider()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(mp)
	resetMeter()

	t.Cleanup(func() {
		_ = mp.Shutdown(context.Background())
		otel.SetMeterProvider(original)
		resetMeter()
	})
	return reader
}

func spanAttr(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestCreateDBSpan(t *testing.T) {
	exporter := setupTestTracerProvider(t)
	tc, _ := newTrackingContext(nil)
	start := time.Now().Add(-50 * time.Millisecond)

	Track(context.Background(), tc, Operation{Query: testQuery, Placeholders: 2, Start: start})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	span := spans[0]
	assert.Equal(t, "db.select", span.Name)
	assert.Equal(t, codes.Unset, span.Status.Code)
	assert.WithinDuration(t, start, span.StartTime, time.Millisecond)

	system, ok := spanAttr(span.Attributes, attrDBSystem)
	require.True(t, ok)
	assert.Equal(t, dbVendorPostgreSQL, system.AsString())

	text, ok := spanAttr(span.Attributes, "db.query.text")
	require.True(t, ok)
	assert.Equal(t, testQuery, text.AsString())

	placeholders, ok := spanAttr(span.Attributes, attrPlaceholderCount)
	require.True(t, ok)
	assert.Equal(t, int64(2), placeholders.AsInt64())
}

func TestCreateDBSpanRecordsErrors(t *testing.T) {
	exporter := setupTestTracerProvider(t)
	tc, _ := newTrackingContext(nil)

	Track(context.Background(), tc, Operation{Query: testQuery, Start: time.Now(), Err: errors.New("deadlock detected")})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "deadlock detected", spans[0].Status.Description)
	require.Len(t, spans[0].Events, 1)
	assert.Equal(t, "exception", spans[0].Events[0].Name)
}

func TestRecordDBMetrics(t *testing.T) {
	reader := setupTestMeterProvider(t)
	tc, _ := newTrackingContext(nil)
	ctx := context.Background()

	Track(ctx, tc, Operation{Query: testQuery, Start: time.Now()})
	Track(ctx, tc, Operation{Query: testQuery, Start: time.Now(), Err: errors.New("boom")})
	Track(ctx, tc, Operation{Query: "UPDATE orders SET status = $1", Start: time.Now(), RowsAffected: 4})

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	calls := findSum(t, rm, metricDBCalls)
	var total, failed int64
	for _, dp := range calls.DataPoints {
		total += dp.Value
		if v, ok := dp.Attributes.Value("error"); ok && v.AsBool() {
			failed += dp.Value
		}
	}
	assert.Equal(t, int64(3), total)
	assert.Equal(t, int64(1), failed)

	rows := findSum(t, rm, metricRowsAffected)
	require.Len(t, rows.DataPoints, 1)
	assert.Equal(t, int64(4), rows.DataPoints[0].Value)
}

func findSum(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.Sum[int64] {
	t.Helper()

	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "metric %s is not an int64 sum", name)
			return sum
		}
	}
	require.Failf(t, "metric not found", "%s", name)
	return metricdata.Sum[int64]{}
}

func TestNormalizeDBVendor(t *testing.T) {
	assert.Equal(t, dbVendorPostgreSQL, normalizeDBVendor("postgres"))
	assert.Equal(t, dbVendorPostgreSQL, normalizeDBVendor("PostgreSQL"))
	assert.Equal(t, dbVendorOracle, normalizeDBVendor("oracle"))
	assert.Equal(t, dbVendorSQLite, normalizeDBVendor("sqlite3"))
	assert.Equal(t, "duckdb", normalizeDBVendor("duckdb"))
}
