package tracking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	semconv "go.opentelemetry.io/otel/semconv/v1.32.0"
	"go.opentelemetry.io/otel/trace"
)

const (
	instrumentationName = "github.com/gaborage/sqlbricks/database"

	// Maximum length for the db.query.text attribute
	maxDBQueryAttrLen = 2000

	metricDBCalls        = "db.client.calls"
	metricDBDuration     = "db.client.operation.duration"
	metricRowsAffected   = "db.rows.affected"
	attrPlaceholderCount = "db.query.placeholder.count"
	attrDBSystem         = "db.system"

	dbVendorPostgreSQL = "postgresql"
	dbVendorOracle     = "oracle"
	dbVendorSQLite     = "sqlite"
)

var (
	meterOnce sync.Once

	dbCallsCounter        metric.Int64Counter
	dbDurationHistogram   metric.Float64Histogram
	dbRowsAffectedCounter metric.Int64Counter
)

// logMetricError reports an instrument creation failure without failing the caller.
func logMetricError(metricName string, err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "WARNING: Failed to initialize metric %s: %v\n", metricName, err)
	}
}

// initDBMeter creates the instruments from the global meter provider.
func initDBMeter() {
	meter := otel.Meter(instrumentationName)

	var err error
	dbCallsCounter, err = meter.Int64Counter(
		metricDBCalls,
		metric.WithDescription("Total number of statements executed"),
	)
	logMetricError(metricDBCalls, err)

	dbDurationHistogram, err = meter.Float64Histogram(
		metricDBDuration,
		metric.WithDescription("Duration of statement executions in milliseconds"),
		metric.WithUnit("ms"),
	)
	logMetricError(metricDBDuration, err)

	dbRowsAffectedCounter, err = meter.Int64Counter(
		metricRowsAffected,
		metric.WithDescription("Number of rows affected by executed statements"),
	)
	logMetricError(metricRowsAffected, err)
}

// resetMeter forces instruments to be recreated from the current global provider.
func resetMeter() {
	meterOnce = sync.Once{}
}

// createDBSpan records a client span covering the operation, starting at op.Start.
func createDBSpan(ctx context.Context, tc *Context, operation string, op Operation) {
	tracer := otel.Tracer(instrumentationName)

	_, span := tracer.Start(ctx, "db."+operation,
		trace.WithTimestamp(op.Start),
		trace.WithSpanKind(trace.SpanKindClient),
	)

	attrs := []attribute.KeyValue{
		attribute.String(attrDBSystem, normalizeDBVendor(tc.Vendor)),
		semconv.DBQueryText(TruncateString(op.Query, maxDBQueryAttrLen)),
		attribute.Int(attrPlaceholderCount, op.Placeholders),
	}
	if operation != defaultOperation {
		attrs = append(attrs, semconv.DBOperationName(operation))
	}
	span.SetAttributes(attrs...)

	// sql.ErrNoRows is an empty result, not a failure
	if op.Err != nil && !errors.Is(op.Err, sql.ErrNoRows) {
		span.RecordError(op.Err)
		span.SetStatus(codes.Error, op.Err.Error())
	}

	span.End()
}

// recordDBMetrics records the call counter, the duration histogram and, for
// successful writes, the rows affected counter.
func recordDBMetrics(ctx context.Context, tc *Context, operation string, elapsed time.Duration, rowsAffected int64, err error) {
	meterOnce.Do(initDBMeter)

	isError := err != nil && !errors.Is(err, sql.ErrNoRows)
	commonAttrs := []attribute.KeyValue{
		attribute.String(attrDBSystem, normalizeDBVendor(tc.Vendor)),
		semconv.DBOperationName(operation),
	}

	if dbCallsCounter != nil {
		counterAttrs := make([]attribute.KeyValue, 0, len(commonAttrs)+1)
		counterAttrs = append(counterAttrs, commonAttrs...)
		counterAttrs = append(counterAttrs, attribute.Bool("error", isError))
		dbCallsCounter.Add(ctx, 1, metric.WithAttributes(counterAttrs...))
	}

	if dbDurationHistogram != nil {
		dbDurationHistogram.Record(ctx, float64(elapsed.Nanoseconds())/1e6, metric.WithAttributes(commonAttrs...))
	}

	if dbRowsAffectedCounter != nil && rowsAffected > 0 && !isError {
		dbRowsAffectedCounter.Add(ctx, rowsAffected, metric.WithAttributes(commonAttrs...))
	}
}

// normalizeDBVendor maps vendor aliases to their OpenTelemetry db.system values.
func normalizeDBVendor(vendor string) string {
	vendor = strings.ToLower(vendor)
	switch vendor {
	case "postgres", dbVendorPostgreSQL:
		return dbVendorPostgreSQL
	case dbVendorOracle:
		return dbVendorOracle
	case dbVendorSQLite, "sqlite3":
		return dbVendorSQLite
	default:
		return vendor
	}
}
