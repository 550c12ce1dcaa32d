package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/gaborage/sqlbricks/config"
	"github.com/gaborage/sqlbricks/database/internal/tracking"
	"github.com/gaborage/sqlbricks/database/types"
	"github.com/gaborage/sqlbricks/logger"
)

// Executor runs composed statements against a Querier. Every call compiles the
// statement, binds its values with the vendor sink and is tracked with a log
// entry, a span and call metrics.
//
// Executor is safe for concurrent use with distinct statements.
type Executor struct {
	querier  types.Querier
	builder  *QueryBuilder
	tracking *tracking.Context
	maxDepth int
}

// NewExecutor creates an executor for q. A nil cfg uses default tracking settings.
func NewExecutor(q types.Querier, log logger.Logger, cfg *config.DatabaseConfig) *Executor {
	vendor := q.DatabaseType()
	e := &Executor{
		querier: q,
		builder: NewQueryBuilder(vendor),
		tracking: &tracking.Context{
			Logger:   log,
			Vendor:   vendor,
			Settings: tracking.NewSettings(cfg),
		},
	}
	if cfg != nil {
		e.maxDepth = cfg.MaxNestingDepth
	}
	return e
}

// NewStatement creates an empty statement honoring the configured nesting depth.
func (e *Executor) NewStatement() *Statement {
	return NewStatement().WithMaxNestingDepth(e.maxDepth)
}

// QueryBuilder returns the vendor query builder used by the executor.
func (e *Executor) QueryBuilder() *QueryBuilder {
	return e.builder
}

// Query executes stmt and returns its rows. The caller must close them.
func (e *Executor) Query(ctx context.Context, stmt *Statement) (*sql.Rows, error) {
	start := time.Now()
	query, args, err := e.build(stmt)
	op := e.operation(stmt, query, start)
	if err != nil {
		e.finish(ctx, op, 0, err)
		return nil, err
	}

	rows, err := e.querier.Query(ctx, query, args...)
	e.finish(ctx, op, 0, err)
	return rows, err
}

// QueryRow executes stmt expecting at most one row. Compilation and binding errors
// are deferred to the returned row's Scan and Err. The call is tracked once the row
// is scanned, so sql.ErrNoRows is reported with it.
func (e *Executor) QueryRow(ctx context.Context, stmt *Statement) types.Row {
	start := time.Now()
	query, args, err := e.build(stmt)
	op := e.operation(stmt, query, start)
	if err != nil {
		e.finish(ctx, op, 0, err)
		return errRow{err: err}
	}

	row := e.querier.QueryRow(ctx, query, args...)
	if row == nil {
		e.finish(ctx, op, 0, sql.ErrNoRows)
		return errRow{err: sql.ErrNoRows}
	}
	return tracking.TrackRow(ctx, e.tracking, op, row)
}

// Exec executes stmt without returning rows.
func (e *Executor) Exec(ctx context.Context, stmt *Statement) (sql.Result, error) {
	start := time.Now()
	query, args, err := e.build(stmt)
	op := e.operation(stmt, query, start)
	if err != nil {
		e.finish(ctx, op, 0, err)
		return nil, err
	}

	result, err := e.querier.Exec(ctx, query, args...)
	e.finish(ctx, op, tracking.RowsAffected(result, err), err)
	return result, err
}

func (e *Executor) build(stmt *Statement) (query string, args []any, err error) {
	if stmt == nil {
		return "", nil, ErrNilStatement
	}
	return e.builder.Build(stmt)
}

// operation captures the statement's parameters at call time.
func (e *Executor) operation(stmt *Statement, query string, start time.Time) tracking.Operation {
	op := tracking.Operation{Query: query, Start: start}
	if stmt != nil {
		op.Params = boundParams(stmt)
		op.Placeholders = stmt.Registry().Count()
	}
	return op
}

func (e *Executor) finish(ctx context.Context, op tracking.Operation, rowsAffected int64, err error) {
	op.RowsAffected = rowsAffected
	op.Err = err
	tracking.Track(ctx, e.tracking, op)
}

// boundParams maps each recorded parameter name to its bound Go value.
func boundParams(stmt *Statement) map[string]any {
	reg := stmt.Registry()
	names := reg.Names()
	if len(names) == 0 {
		return nil
	}
	out := make(map[string]any, len(names))
	for _, name := range names {
		if v, ok := reg.Value(name); ok {
			out[name] = v.Native()
		}
	}
	return out
}

// errRow is a types.Row that reports a deferred error.
type errRow struct {
	err error
}

func (r errRow) Scan(...any) error { return r.err }
func (r errRow) Err() error        { return r.err }
