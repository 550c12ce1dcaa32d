// Package types holds the vendor identifiers, sentinel errors and execution
// interfaces shared by database and its vendor subpackages, which cannot import
// database itself.
//
//nolint:revive // the generic name is shared by every vendor subpackage
package types

import (
	"context"
	"database/sql"
	"errors"
	"slices"
)

// Vendor names a database dialect. It decides placeholder syntax and how bound
// values are converted before they reach the driver.
type Vendor = string

const (
	PostgreSQL Vendor = "postgresql" // $1, $2, ...
	Oracle     Vendor = "oracle"     // :1, :2, ...
	SQLite     Vendor = "sqlite"     // ?
)

// Vendors lists every supported vendor.
var Vendors = []Vendor{PostgreSQL, Oracle, SQLite}

var (
	ErrUnsupportedVendor = errors.New("unsupported database vendor")
	ErrNilStatement      = errors.New("statement cannot be nil")
	ErrNilRow            = errors.New("row is nil")
)

// IsSupportedVendor reports whether vendor is one of Vendors.
func IsSupportedVendor(vendor Vendor) bool {
	return slices.Contains(Vendors, vendor)
}

// Querier runs compiled SQL. The query text already carries the placeholders of
// DatabaseType, and args are ordered by ordinal.
type Querier interface {
	Query(ctx context.Context, query string, args ...any) (*sql.Rows, error)

	// QueryRow never returns nil; errors surface from Row.Scan.
	QueryRow(ctx context.Context, query string, args ...any) Row

	Exec(ctx context.Context, query string, args ...any) (sql.Result, error)

	// DatabaseType is the Vendor the query text is rendered for.
	DatabaseType() string
}

// Row is the single-row result of QueryRow.
type Row interface {
	Scan(dest ...any) error
	Err() error
}

type sqlRow struct {
	row *sql.Row
}

// NewRowFromSQL adapts row to Row, or returns nil for a nil row.
func NewRowFromSQL(row *sql.Row) Row {
	if row == nil {
		return nil
	}
	return &sqlRow{row: row}
}

func (r *sqlRow) Scan(dest ...any) error {
	if r == nil || r.row == nil {
		return ErrNilRow
	}
	return r.row.Scan(dest...)
}

func (r *sqlRow) Err() error {
	if r == nil || r.row == nil {
		return ErrNilRow
	}
	return r.row.Err()
}
