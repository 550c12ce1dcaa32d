package testing

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/sqlbricks/database/params"
	dbtypes "github.com/gaborage/sqlbricks/database/types"
)

const selectUsers = "SELECT id, name FROM users WHERE id = $1"

func TestTestQuerierQueryReturnsRows(t *testing.T) {
	db := NewTestQuerier(dbtypes.PostgreSQL).
		ExpectQuery("FROM users").
		WillReturnRows(NewRowSet("id", "name").AddRow(int64(1), "Alice").AddRow(int64(2), "Bob"))
	defer func() { require.NoError(t, db.Close()) }()

	rows, err := db.Query(context.Background(), selectUsers, int64(1))
	require.NoError(t, err)

	var names []string
	for rows.Next() {
		var id int64
		var name string
		require.NoError(t, rows.Scan(&id, &name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	require.NoError(t, rows.Close())

	assert.Equal(t, []string{"Alice", "Bob"}, names)
	assert.Equal(t, []Call{{SQL: selectUsers, Args: []any{int64(1)}}}, db.QueryLog())
	AssertQueryExecuted(t, db, "FROM users")
	AssertQueryArgs(t, db, "FROM users", int64(1))
}

func TestTestQuerierQueryRow(t *testing.T) {
	db := NewTestQuerier(dbtypes.PostgreSQL).
		ExpectQuery("FROM users").
		WillReturnRows(NewRowSet("name").AddRow("Alice"))
	defer func() { require.NoError(t, db.Close()) }()

	var name string
	require.NoError(t, db.QueryRow(context.Background(), selectUsers, int64(1)).Scan(&name))
	assert.Equal(t, "Alice", name)
}

func TestTestQuerierQueryRowNoRows(t *testing.T) {
	db := NewTestQuerier(dbtypes.PostgreSQL).
		ExpectQuery("FROM users").
		WillReturnRows(NewRowSet("name"))
	defer func() { require.NoError(t, db.Close()) }()

	var name string
	err := db.QueryRow(context.Background(), selectUsers).Scan(&name)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestTestQuerierUnexpectedCalls(t *testing.T) {
	db := NewTestQuerier(dbtypes.SQLite)

	_, err := db.Query(context.Background(), "SELECT 1")
	assert.ErrorContains(t, err, "unexpected query")

	row := db.QueryRow(context.Background(), "SELECT 1")
	assert.ErrorContains(t, row.Err(), "unexpected query")

	_, err = db.Exec(context.Background(), "DELETE FROM t")
	assert.ErrorContains(t, err, "unexpected exec")
}

func TestTestQuerierExpectationErrors(t *testing.T) {
	boom := errors.New("boom")
	db := NewTestQuerier(dbtypes.Oracle)
	db.ExpectQuery("SELECT").WillReturnError(boom)
	db.ExpectExec("UPDATE").WillReturnError(boom)
	db.ExpectQuery("FROM empty")

	_, err := db.Query(context.Background(), "SELECT 1 FROM dual")
	assert.ErrorIs(t, err, boom)

	_, err = db.Exec(context.Background(), "UPDATE t SET a = :1")
	assert.ErrorIs(t, err, boom)

	// ExpectQuery matches in insertion order, so "SELECT" wins over "FROM empty"
	_, err = db.Query(context.Background(), "SELECT * FROM empty")
	assert.ErrorIs(t, err, boom)
}

func TestTestQuerierMissingRows(t *testing.T) {
	db := NewTestQuerier(dbtypes.PostgreSQL)
	db.ExpectQuery("SELECT")

	_, err := db.Query(context.Background(), "SELECT 1")
	assert.ErrorContains(t, err, "no rows configured")
}

func TestTestQuerierExec(t *testing.T) {
	db := NewTestQuerier(dbtypes.PostgreSQL).
		ExpectExec("DELETE FROM users").
		WillReturnRowsAffected(3)

	result, err := db.Exec(context.Background(), "DELETE FROM users WHERE id = $1", 7)
	require.NoError(t, err)

	n, err := result.RowsAffected()
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = result.LastInsertId()
	assert.Error(t, err)

	AssertExecExecuted(t, db, "DELETE FROM users")
	AssertExecCount(t, db, "DELETE", 1)
	assert.Equal(t, dbtypes.PostgreSQL, db.DatabaseType())
}

func TestTestQuerierStrictMatching(t *testing.T) {
	db := NewTestQuerier(dbtypes.PostgreSQL).
		StrictSQLMatching().
		ExpectExec("DELETE FROM users").
		WillReturnRowsAffected(1)

	_, err := db.Exec(context.Background(), "DELETE FROM users WHERE id = $1")
	assert.Error(t, err)

	_, err = db.Exec(context.Background(), "  DELETE FROM users ")
	assert.NoError(t, err)
}

func TestRowSetAddRowPanicsOnColumnMismatch(t *testing.T) {
	rs := NewRowSet("id", "name")
	assert.Panics(t, func() { rs.AddRow(1) })
	assert.Equal(t, 0, rs.RowCount())
	assert.Equal(t, []string{"id", "name"}, rs.Columns())
}

func TestRecordingSink(t *testing.T) {
	at := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	sink := NewRecordingSink()

	require.NoError(t, sink.SetInt(1, 5))
	require.NoError(t, sink.SetLong(2, 6))
	require.NoError(t, sink.SetText(3, "x"))
	require.NoError(t, sink.SetTimestamp(4, at))
	require.NoError(t, sink.SetDate(5, at))
	require.NoError(t, sink.SetAny(6, true))

	calls := sink.Calls()
	require.Len(t, calls, 6)
	assert.Equal(t, SetCall{Ordinal: 3, Kind: params.KindText, Value: "x"}, calls[2])

	v, ok := sink.ValueAt(6)
	assert.True(t, ok)
	assert.Equal(t, true, v)

	_, ok = sink.ValueAt(7)
	assert.False(t, ok)

	AssertOrdinalsSetOnce(t, sink, 6)
}

func TestAssertOrdinalsSetOnceReportsGapsAndRepeats(t *testing.T) {
	sink := NewRecordingSink()
	require.NoError(t, sink.SetInt(1, 1))
	require.NoError(t, sink.SetInt(1, 1))
	require.NoError(t, sink.SetInt(4, 1))

	assert.Equal(t, []string{
		"ordinal 1 was set 2 times",
		"ordinal 2 was never set",
		"unexpected ordinal 4 was set",
	}, ordinalProblems(sink, 2))
}
