package testing

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

// AssertQueryExecuted fails t unless some Query or QueryRow call matched
// sqlPattern. Matching is by substring unless StrictSQLMatching was set.
//
//	AssertQueryExecuted(t, db, "WITH recent as (")
func AssertQueryExecuted(t *testing.T, db *TestQuerier, sqlPattern string) {
	t.Helper()
	if len(db.matching(db.QueryLog(), sqlPattern)) == 0 {
		t.Errorf("expected query not executed: %q\nActual queries:\n%s", sqlPattern, formatLog(db.QueryLog(), "queries"))
	}
}

// AssertQueryArgs fails t unless some query matching sqlPattern was sent with
// exactly args, in ordinal order.
//
//	AssertQueryArgs(t, db, "WHERE owner = $1 AND status = $2", int64(7), "OPEN")
func AssertQueryArgs(t *testing.T, db *TestQuerier, sqlPattern string, args ...any) {
	t.Helper()
	calls := db.matching(db.QueryLog(), sqlPattern)
	for _, call := range calls {
		if reflect.DeepEqual(call.Args, args) {
			return
		}
	}
	t.Errorf("no query matching %q was sent with args %v\nActual queries:\n%s", sqlPattern, args, formatLog(calls, "matching queries"))
}

// AssertExecExecuted fails t unless some Exec call matched sqlPattern.
func AssertExecExecuted(t *testing.T, db *TestQuerier, sqlPattern string) {
	t.Helper()
	if len(db.matching(db.ExecLog(), sqlPattern)) == 0 {
		t.Errorf("expected exec not executed: %q\nActual execs:\n%s", sqlPattern, formatLog(db.ExecLog(), "execs"))
	}
}

// AssertExecCount fails t unless exactly expected Exec calls matched sqlPattern.
func AssertExecCount(t *testing.T, db *TestQuerier, sqlPattern string, expected int) {
	t.Helper()
	if n := len(db.matching(db.ExecLog(), sqlPattern)); n != expected {
		t.Errorf("expected %d execs matching %q, got %d\nActual execs:\n%s",
			expected, sqlPattern, n, formatLog(db.ExecLog(), "execs"))
	}
}

func (q *TestQuerier) matching(log []Call, sqlPattern string) []Call {
	var out []Call
	for _, call := range log {
		if q.matchSQL(sqlPattern, call.SQL) {
			out = append(out, call)
		}
	}
	return out
}

func formatLog(log []Call, what string) string {
	if len(log) == 0 {
		return fmt.Sprintf("  (no %s)", what)
	}

	var sb strings.Builder
	for i, call := range log {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, call.SQL)
		if len(call.Args) > 0 {
			fmt.Fprintf(&sb, "     args: %v\n", call.Args)
		}
	}
	return sb.String()
}
