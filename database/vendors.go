package database

import "github.com/gaborage/sqlbricks/database/types"

// Re-export database vendor identifiers so callers of the database package do not
// need to import types while the single source of truth lives there.
const (
	PostgreSQL = types.PostgreSQL
	Oracle     = types.Oracle
	SQLite     = types.SQLite
)

// Re-export the sentinel errors shared with the vendor packages.
var (
	ErrUnsupportedVendor = types.ErrUnsupportedVendor
	ErrNilStatement      = types.ErrNilStatement
)
