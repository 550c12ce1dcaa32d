package testing

import (
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/DATA-DOG/go-sqlmock"
)

// rowSetQuery is the fixed text used against the mock connection backing a RowSet.
const rowSetQuery = "rowset"

// RowSet represents the rows a TestQuerier returns for a matching query.
//
// Usage example:
//
//	rows := NewRowSet("id", "name").
//	    AddRow(int64(1), "Alice").
//	    AddRow(int64(2), "Bob")
//
//	db.ExpectQuery("SELECT").WillReturnRows(rows)
type RowSet struct {
	columns []string
	rows    [][]driver.Value
}

// NewRowSet creates an empty RowSet with the given column names.
func NewRowSet(columns ...string) *RowSet {
	return &RowSet{columns: columns}
}

// AddRow adds a single row of values.
// Panics if the number of values doesn't match the number of columns.
func (rs *RowSet) AddRow(values ...any) *RowSet {
	if len(values) != len(rs.columns) {
		panic(fmt.Sprintf("AddRow: expected %d values for columns %v, got %d",
			len(rs.columns), rs.columns, len(values)))
	}
	row := make([]driver.Value, len(values))
	for i, v := range values {
		row[i] = v
	}
	rs.rows = append(rs.rows, row)
	return rs
}

// RowCount returns the number of rows in the RowSet.
func (rs *RowSet) RowCount() int {
	return len(rs.rows)
}

// Columns returns the column names for this RowSet.
func (rs *RowSet) Columns() []string {
	return append([]string{}, rs.columns...)
}

// open returns a mock connection that answers rowSetQuery once with the rows
// and then expects to be closed.
func (rs *RowSet) open() (*sql.DB, error) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	if err != nil {
		return nil, fmt.Errorf("failed to create row set connection: %w", err)
	}

	rows := sqlmock.NewRows(rs.columns)
	for _, row := range rs.rows {
		rows.AddRow(row...)
	}
	mock.ExpectQuery(rowSetQuery).WillReturnRows(rows)
	mock.ExpectClose()
	return db, nil
}
