package database

import (
	"github.com/Masterminds/squirrel"

	"github.com/gaborage/sqlbricks/database/internal/builder"
	"github.com/gaborage/sqlbricks/database/internal/sqllex"
	"github.com/gaborage/sqlbricks/database/oracle"
	"github.com/gaborage/sqlbricks/database/params"
	"github.com/gaborage/sqlbricks/database/postgresql"
	"github.com/gaborage/sqlbricks/database/types"
)

// ArgSink is a params.Sink that materialises the bound values as driver arguments.
type ArgSink interface {
	params.Sink
	Args() []any
}

// QueryBuilder turns composed statements into vendor-specific SQL and arguments.
type QueryBuilder struct {
	vendor      string
	positional  builder.Positional
	placeholder squirrel.PlaceholderFormat
}

// NewQueryBuilder creates a new query builder for the specified database vendor.
// Unknown vendors keep `?` placeholders and plain Go argument values.
func NewQueryBuilder(vendor string) *QueryBuilder {
	return &QueryBuilder{
		vendor:      vendor,
		positional:  builder.PositionalFor(vendor),
		placeholder: builder.PlaceholderFormat(vendor),
	}
}

// Vendor returns the database vendor
func (qb *QueryBuilder) Vendor() string {
	return qb.vendor
}

// NewSink returns the vendor's argument sink sized for count placeholders.
func (qb *QueryBuilder) NewSink(count int) ArgSink {
	switch qb.vendor {
	case types.PostgreSQL:
		return postgresql.NewArgSink(count)
	case types.Oracle:
		return oracle.NewArgSink(count)
	default:
		return params.NewArgList(count)
	}
}

// Build compiles stmt with the vendor's placeholders ($1 for PostgreSQL, :1 for
// Oracle, ? otherwise) and binds every recorded parameter through the vendor sink.
// Text inside quoted literals and comments is never rewritten.
// For Oracle, sub-statement names that are reserved words fail with
// ErrReservedSubStatementName.
func (qb *QueryBuilder) Build(stmt *Statement) (query string, args []any, err error) {
	if stmt == nil {
		return "", nil, ErrNilStatement
	}
	if err = qb.checkNames(stmt); err != nil {
		return "", nil, err
	}

	query = stmt.compile(qb.positional)

	sink := qb.NewSink(stmt.Registry().Count())
	if err = stmt.Apply(sink); err != nil {
		return "", nil, err
	}
	return query, sink.Args(), nil
}

// Select starts a squirrel SELECT using the vendor's placeholder format.
// A *Statement is a squirrel.Sqlizer, so it can be nested into the result:
//
//	qb.Select("*").From("orders").Where(squirrel.Expr("id IN (?)", stmt))
func (qb *QueryBuilder) Select(columns ...string) squirrel.SelectBuilder {
	return squirrel.StatementBuilder.PlaceholderFormat(qb.placeholder).Select(columns...)
}

func (qb *QueryBuilder) checkNames(stmt *Statement) error {
	if stmt == nil || qb.vendor != types.Oracle {
		return nil
	}
	return stmt.walkNames(func(name string) error {
		if sqllex.IsOracleReservedWord(name) {
			return subStatementError(name, ErrReservedSubStatementName)
		}
		return nil
	})
}
