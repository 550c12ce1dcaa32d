package tracking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const defaultOperation = "query"

// Operation describes one executed statement.
type Operation struct {
	// Query is the vendor-formatted SQL text that was sent to the driver.
	Query string
	// Params maps each bound parameter name to its driver value.
	Params map[string]any
	// Placeholders is the number of positional placeholders in Query.
	Placeholders int
	Start        time.Time
	RowsAffected int64
	Err          error
}

// Track emits a log entry, a span and call metrics for a completed operation.
//
// Track is a no-op if tc or its Logger is nil. Failures are logged at error level
// (sql.ErrNoRows at debug), executions slower than the configured threshold at warn,
// everything else at debug. Parameters are logged by name when enabled so the
// logger's sensitive field filter can mask them.
func Track(ctx context.Context, tc *Context, op Operation) {
	if tc == nil || tc.Logger == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}

	elapsed := time.Since(op.Start)
	operation := extractDBOperation(op.Query)

	createDBSpan(ctx, tc, operation, op)
	recordDBMetrics(ctx, tc, operation, elapsed, op.RowsAffected, op.Err)

	fields := map[string]any{
		"operation_id": uuid.NewString(),
		"vendor":       tc.Vendor,
		"operation":    operation,
		"duration_ms":  elapsed.Milliseconds(),
		"placeholders": op.Placeholders,
		"query":        TruncateString(op.Query, tc.Settings.MaxQueryLength),
	}
	if tc.Settings.LogParameters && len(op.Params) > 0 {
		fields["params"] = SanitizeParams(op.Params, tc.Settings.MaxQueryLength)
	}
	logEvent := tc.Logger.WithContext(ctx).WithFields(fields)

	switch {
	case op.Err != nil && errors.Is(op.Err, sql.ErrNoRows):
		logEvent.Debug().Msg("Statement returned no rows")
	case op.Err != nil:
		logEvent.Error().Err(op.Err).Msg("Statement execution failed")
	case tc.Settings.slow(elapsed):
		logEvent.Warn().Msgf("Slow statement detected (%s)", elapsed)
	default:
		logEvent.Debug().Msg("Statement executed")
	}
}

// RowsAffected safely extracts the number of rows affected from a sql.Result.
// Returns 0 if the result is nil, err is non-nil, or the driver cannot report it.
func RowsAffected(result sql.Result, err error) int64 {
	if result == nil || err != nil {
		return 0
	}

	affected, affErr := result.RowsAffected()
	if affErr != nil {
		return 0
	}
	return affected
}

// TruncateString truncates value to at most maxLen runes, ending in "..." when space allows.
// If maxLen <= 0 the original value is returned unchanged.
func TruncateString(value string, maxLen int) string {
	if maxLen <= 0 {
		return value
	}
	r := []rune(value)
	if len(r) <= maxLen {
		return value
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// SanitizeParams returns a copy of params suitable for logging. Strings are truncated
// to maxLen runes, byte slices are replaced with "<bytes len=N>", time values are
// formatted as RFC 3339 and other values are formatted with "%v" and truncated.
func SanitizeParams(params map[string]any, maxLen int) map[string]any {
	if len(params) == 0 {
		return nil
	}
	sanitized := make(map[string]any, len(params))
	for name, value := range params {
		switch v := value.(type) {
		case nil:
			sanitized[name] = nil
		case string:
			sanitized[name] = TruncateString(v, maxLen)
		case []byte:
			sanitized[name] = fmt.Sprintf("<bytes len=%d>", len(v))
		case time.Time:
			sanitized[name] = v.Format(time.RFC3339Nano)
		case int, int32, int64:
			sanitized[name] = v
		default:
			sanitized[name] = TruncateString(fmt.Sprintf("%v", v), maxLen)
		}
	}
	return sanitized
}

// extractDBOperation returns the lowercased leading keyword of query.
// Statements with a WITH preamble report "with".
func extractDBOperation(query string) string {
	fields := strings.Fields(query)
	if len(fields) == 0 {
		return defaultOperation
	}
	switch op := strings.ToLower(fields[0]); op {
	case "select", "insert", "update", "delete", "merge", "with":
		return op
	default:
		return defaultOperation
	}
}
