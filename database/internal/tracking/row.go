package tracking

import (
	"context"
	"sync"

	"github.com/gaborage/sqlbricks/database/types"
)

// TrackRow returns row wrapped so that op is tracked when the row is consumed
// rather than when the query is sent. The outcome then includes scan failures
// such as sql.ErrNoRows. A nil row is returned as is.
func TrackRow(ctx context.Context, tc *Context, op Operation, row types.Row) types.Row {
	return deferRow(row, func(err error) {
		op.Err = err
		Track(ctx, tc, op)
	})
}

// deferRow calls finish exactly once: with the result of the first Scan, or
// earlier with a non-nil Err.
func deferRow(row types.Row, finish func(error)) types.Row {
	if row == nil || finish == nil {
		return row
	}
	return &pendingRow{Row: row, finish: finish}
}

type pendingRow struct {
	types.Row
	finish func(error)
	once   sync.Once
}

func (r *pendingRow) Scan(dest ...any) error {
	err := r.Row.Scan(dest...)
	r.once.Do(func() { r.finish(err) })
	return err
}

// Err leaves the row pending when the query itself succeeded.
func (r *pendingRow) Err() error {
	err := r.Row.Err()
	if err != nil {
		r.once.Do(func() { r.finish(err) })
	}
	return err
}
