package database

import (
	"context"
	"database/sql"

	"github.com/gaborage/sqlbricks/database/types"
)

// Connection adapts a *sql.DB to types.Querier for one vendor.
type Connection struct {
	db     *sql.DB
	vendor string
}

// Ensure Connection implements the interface
var _ types.Querier = (*Connection)(nil)

// NewConnection wraps an opened *sql.DB. vendor selects placeholder syntax and value binding.
func NewConnection(db *sql.DB, vendor string) *Connection {
	return &Connection{db: db, vendor: vendor}
}

// Query executes a query that returns rows
func (c *Connection) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return c.db.QueryContext(ctx, query, args...)
}

// QueryRow executes a query that returns at most one row
func (c *Connection) QueryRow(ctx context.Context, query string, args ...any) types.Row {
	return types.NewRowFromSQL(c.db.QueryRowContext(ctx, query, args...))
}

// Exec executes a query without returning any rows
func (c *Connection) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.db.ExecContext(ctx, query, args...)
}

// DatabaseType returns the vendor identifier
func (c *Connection) DatabaseType() string {
	return c.vendor
}

// Health checks database connectivity
func (c *Connection) Health(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// DB returns the underlying handle.
func (c *Connection) DB() *sql.DB {
	return c.db
}

// Close closes the database connection
func (c *Connection) Close() error {
	return c.db.Close()
}
