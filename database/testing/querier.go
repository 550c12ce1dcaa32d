// Package testing provides utilities for testing code that composes and runs
// statements with sqlbricks.
//
// TestQuerier implements types.Querier with expectation-based fakes, so an
// Executor can be exercised without a database. RecordingSink captures every
// setter call a statement makes while binding, so ordinal coverage can be asserted.
//
// Rows returned by Query are backed by a go-sqlmock connection. Callers MUST close
// them, and tests should defer TestQuerier.Close to release the mock connections:
//
//	db := NewTestQuerier(dbtypes.PostgreSQL)
//	defer db.Close()
//
//	rows, err := db.Query(ctx, "SELECT ...")
//	if err != nil {
//	    return err
//	}
//	defer rows.Close()
package testing

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	dbtypes "github.com/gaborage/sqlbricks/database/types"
)

// TestQuerier is an in-memory fake implementing types.Querier.
// It records every call and answers from the first matching expectation.
//
// TestQuerier supports two SQL matching modes:
//   - Partial matching (default): matches if the expected SQL is a substring of the actual SQL
//   - Strict matching: requires an exact match (enable with StrictSQLMatching())
//
// Usage example:
//
//	db := NewTestQuerier(dbtypes.PostgreSQL).
//	    ExpectQuery("SELECT id FROM users").
//	        WillReturnRows(NewRowSet("id").AddRow(int64(1))).
//	    ExpectExec("DELETE FROM users").
//	        WillReturnRowsAffected(1)
type TestQuerier struct {
	vendor      string
	queries     []*QueryExpectation
	execs       []*ExecExpectation
	queryLog    []Call
	execLog     []Call
	strictMatch bool
	backing     []*sql.DB
	mu          sync.RWMutex
}

// Ensure TestQuerier implements the interface
var _ dbtypes.Querier = (*TestQuerier)(nil)

// Call represents a single Query, QueryRow or Exec invocation.
type Call struct {
	SQL  string
	Args []any
}

// QueryExpectation defines what should happen when a matching query is executed.
type QueryExpectation struct {
	parent *TestQuerier
	sql    string
	rows   *RowSet
	err    error
}

// ExecExpectation defines what should happen when a matching Exec is executed.
type ExecExpectation struct {
	parent       *TestQuerier
	sql          string
	rowsAffected int64
	err          error
}

// NewTestQuerier creates a fake querier reporting vendor from DatabaseType.
func NewTestQuerier(vendor string) *TestQuerier {
	return &TestQuerier{vendor: vendor}
}

// StrictSQLMatching enables exact SQL matching instead of partial substring matching.
func (q *TestQuerier) StrictSQLMatching() *TestQuerier {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.strictMatch = true
	return q
}

// ExpectQuery sets up an expectation for Query or QueryRow calls.
func (q *TestQuerier) ExpectQuery(sqlPattern string) *QueryExpectation {
	exp := &QueryExpectation{parent: q, sql: sqlPattern}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.queries = append(q.queries, exp)
	return exp
}

// ExpectExec sets up an expectation for Exec calls.
func (q *TestQuerier) ExpectExec(sqlPattern string) *ExecExpectation {
	exp := &ExecExpectation{parent: q, sql: sqlPattern}
	q.mu.Lock()
	defer q.mu.Unlock()
	q.execs = append(q.execs, exp)
	return exp
}

// WillReturnRows sets the rows returned by the matching query.
func (e *QueryExpectation) WillReturnRows(rows *RowSet) *TestQuerier {
	e.rows = rows
	return e.parent
}

// WillReturnError makes the matching query fail with err.
func (e *QueryExpectation) WillReturnError(err error) *TestQuerier {
	e.err = err
	return e.parent
}

// WillReturnRowsAffected sets the RowsAffected reported by the matching Exec.
func (e *ExecExpectation) WillReturnRowsAffected(n int64) *TestQuerier {
	e.rowsAffected = n
	return e.parent
}

// WillReturnError makes the matching Exec fail with err.
func (e *ExecExpectation) WillReturnError(err error) *TestQuerier {
	e.err = err
	return e.parent
}

// QueryLog returns all Query/QueryRow calls made so far.
func (q *TestQuerier) QueryLog() []Call {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return append([]Call{}, q.queryLog...)
}

// ExecLog returns all Exec calls made so far.
func (q *TestQuerier) ExecLog() []Call {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return append([]Call{}, q.execLog...)
}

// Query implements types.Querier.
func (q *TestQuerier) Query(_ context.Context, query string, args ...any) (*sql.Rows, error) {
	q.logQuery(query, args)

	exp, err := q.queryExpectation(query)
	if err != nil {
		return nil, err
	}

	db, err := exp.rows.open()
	if err != nil {
		return nil, err
	}
	q.track(db)
	return db.Query(rowSetQuery)
}

// QueryRow implements types.Querier. Errors are deferred to the returned row.
func (q *TestQuerier) QueryRow(_ context.Context, query string, args ...any) dbtypes.Row {
	q.logQuery(query, args)

	exp, err := q.queryExpectation(query)
	if err != nil {
		return errRow{err: err}
	}

	db, err := exp.rows.open()
	if err != nil {
		return errRow{err: err}
	}
	q.track(db)
	return dbtypes.NewRowFromSQL(db.QueryRow(rowSetQuery))
}

// Exec implements types.Querier.
func (q *TestQuerier) Exec(_ context.Context, query string, args ...any) (sql.Result, error) {
	q.mu.Lock()
	q.execLog = append(q.execLog, Call{SQL: query, Args: args})
	q.mu.Unlock()

	exp := q.findExec(query)
	if exp == nil {
		return nil, fmt.Errorf("unexpected exec: %s (no matching expectation)", query)
	}
	if exp.err != nil {
		return nil, exp.err
	}
	return testResult{rowsAffected: exp.rowsAffected}, nil
}

// DatabaseType implements types.Querier.
func (q *TestQuerier) DatabaseType() string {
	return q.vendor
}

// Close releases the mock connections backing returned rows.
func (q *TestQuerier) Close() error {
	q.mu.Lock()
	backing := q.backing
	q.backing = nil
	q.mu.Unlock()

	var firstErr error
	for _, db := range backing {
		if err := db.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (q *TestQuerier) logQuery(query string, args []any) {
	q.mu.Lock()
	q.queryLog = append(q.queryLog, Call{SQL: query, Args: args})
	q.mu.Unlock()
}

func (q *TestQuerier) track(db *sql.DB) {
	q.mu.Lock()
	q.backing = append(q.backing, db)
	q.mu.Unlock()
}

func (q *TestQuerier) queryExpectation(query string) (*QueryExpectation, error) {
	exp := q.findQuery(query)
	if exp == nil {
		return nil, fmt.Errorf("unexpected query: %s (no matching expectation)", query)
	}
	if exp.err != nil {
		return nil, exp.err
	}
	if exp.rows == nil {
		return nil, fmt.Errorf("query expectation for %q has no rows configured (use WillReturnRows)", query)
	}
	return exp, nil
}

// matchSQL uses partial matching by default and exact matching after StrictSQLMatching.
func (q *TestQuerier) matchSQL(expected, actual string) bool {
	if q.strictMatch {
		return strings.TrimSpace(expected) == strings.TrimSpace(actual)
	}
	return strings.Contains(actual, expected)
}

// findQuery returns the first matching expectation in insertion order.
func (q *TestQuerier) findQuery(actual string) *QueryExpectation {
	q.mu.RLock()
	defer q.mu.RUnlock()
	for _, exp := range q.queries {
		if q.matchSQL(exp.sql, actual) {
			return exp
		}
	}
	return nil
}

func (q *TestQuerier) findExec(actual string) *ExecExpectation {
	q.mu.RLock()
	defer q.mu.RUnlock()
	for _, exp := range q.execs {
		if q.matchSQL(exp.sql, actual) {
			return exp
		}
	}
	return nil
}

type testResult struct {
	rowsAffected int64
}

func (r testResult) LastInsertId() (int64, error) {
	return 0, fmt.Errorf("LastInsertId is not supported by TestQuerier")
}

func (r testResult) RowsAffected() (int64, error) {
	return r.rowsAffected, nil
}

type errRow struct {
	err error
}

func (r errRow) Scan(...any) error { return r.err }
func (r errRow) Err() error        { return r.err }
