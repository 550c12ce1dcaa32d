package builder

import (
	"strconv"

	"github.com/Masterminds/squirrel"

	dbtypes "github.com/gaborage/sqlbricks/database/types"
)

// Positional writes the placeholder for a 1-based ordinal.
type Positional func(ordinal int) string

// PositionalFor returns the placeholder writer of vendor: $n for PostgreSQL,
// :n for Oracle and ? for everything else.
func PositionalFor(vendor dbtypes.Vendor) Positional {
	switch vendor {
	case dbtypes.PostgreSQL:
		return func(ordinal int) string { return "$" + strconv.Itoa(ordinal) }
	case dbtypes.Oracle:
		return func(ordinal int) string { return ":" + strconv.Itoa(ordinal) }
	default:
		return Question
	}
}

// Question writes ? for every ordinal.
func Question(int) string { return "?" }

// PlaceholderFormat returns the squirrel placeholder format used by vendor, for
// statements assembled with squirrel builders.
func PlaceholderFormat(vendor dbtypes.Vendor) squirrel.PlaceholderFormat {
	switch vendor {
	case dbtypes.PostgreSQL:
		// PostgreSQL uses $1, $2, ... placeholders
		return squirrel.Dollar
	case dbtypes.Oracle:
		// Oracle uses :1, :2, ... placeholders
		return squirrel.Colon
	default:
		// Default to question mark placeholders
		return squirrel.Question
	}
}
