package cli

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/gaborage/sqlbricks/config"
	"github.com/gaborage/sqlbricks/database"
	"github.com/gaborage/sqlbricks/internal/cli/commands"
)

const reportDefinition = `
with:
  - name: big_orders
    select: [id, owner, total]
    from: [orders]
    where: ["total >= :min_total"]
select: [owner, "count(*) AS orders"]
from: [big_orders]
where: ["owner <> :skip"]
group_by: [owner]
order_by: [owner]
params:
  min_total: 100
  skip: {type: text, value: carol}
`

type runResult struct {
	stdout string
	stderr string
	err    error
}

func run(t *testing.T, args ...string) runResult {
	t.Helper()
	cmd := NewRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)

	// Keep a stray sqlbricks.yaml in the working directory out of the test. The
	// flag goes first so it never follows --help as a positional argument.
	configFlag := "--config=" + filepath.Join(t.TempDir(), "absent.yaml")
	cmd.SetArgs(append([]string{configFlag}, args...))

	err := cmd.Execute()
	return runResult{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// newOrdersDB creates a SQLite file with four orders.
func newOrdersDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "orders.db")

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE orders (id INTEGER PRIMARY KEY, owner TEXT NOT NULL, total INTEGER NOT NULL)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO orders (owner, total) VALUES ('alice', 150), ('alice', 250), ('bob', 50), ('carol', 500)`)
	require.NoError(t, err)
	return path
}

func TestVersionCommand(t *testing.T) {
	res := run(t, "version")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "sqlbricks v"+Version)
}

func TestHelpListsCommands(t *testing.T) {
	for _, args := range [][]string{{"--help"}, {"help"}} {
		res := run(t, args...)
		require.NoError(t, res.err)
		assert.Contains(t, res.stdout, "Available Commands:")
		for _, name := range []string{"render", "query", "exec", "version"} {
			assert.Contains(t, res.stdout, name)
		}
	}
}

func TestRenderText(t *testing.T) {
	path := writeFile(t, t.TempDir(), "report.yaml", reportDefinition)

	res := run(t, "render", path)
	require.NoError(t, res.err)

	assert.Contains(t, res.stdout, "WITH big_orders as (\nSELECT id, owner, total\nFROM orders\nWHERE total >= $1\n)")
	assert.Contains(t, res.stdout, "WHERE owner <> $2")
	assert.Contains(t, res.stdout, "min_total")
	assert.Contains(t, res.stdout, "carol")
}

func TestRenderJSONForOracle(t *testing.T) {
	path := writeFile(t, t.TempDir(), "report.yaml", reportDefinition)

	res := run(t, "render", path, "--vendor", database.Oracle, "-o", "json")
	require.NoError(t, res.err)

	var out struct {
		Vendor string `json:"vendor"`
		SQL    string `json:"sql"`
		Args   []struct {
			Ordinal int    `json:"ordinal"`
			Name    string `json:"name"`
			Kind    string `json:"kind"`
		} `json:"args"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))

	assert.Equal(t, database.Oracle, out.Vendor)
	assert.Contains(t, out.SQL, "WHERE total >= :1")
	assert.Contains(t, out.SQL, "WHERE owner <> :2")
	require.Len(t, out.Args, 2)
	assert.Equal(t, 1, out.Args[0].Ordinal)
	assert.Equal(t, "min_total", out.Args[0].Name)
	assert.Equal(t, "long", out.Args[0].Kind)
	assert.Equal(t, "skip", out.Args[1].Name)
	assert.Equal(t, "text", out.Args[1].Kind)
}

func TestRenderVendorFromDatabaseFlag(t *testing.T) {
	path := writeFile(t, t.TempDir(), "report.yaml", reportDefinition)

	res := run(t, "render", path, "--database-type", database.SQLite, "--database-database", "unused.db")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "WHERE total >= ?")
}

func TestRenderErrors(t *testing.T) {
	dir := t.TempDir()
	report := writeFile(t, dir, "report.yaml", reportDefinition)
	reserved := writeFile(t, dir, "reserved.yaml", `
with:
  - name: level
    select: ["1"]
select: ["*"]
from: [level]
`)
	unbound := writeFile(t, dir, "unbound.yaml", `select: ["*"]
from: [t]
where: ["id = :id"]
`)

	tests := []struct {
		name string
		args []string
		want error
	}{
		{name: "unknown vendor", args: []string{"render", report, "--vendor", "mongodb"}, want: database.ErrUnsupportedVendor},
		{name: "unknown output", args: []string{"render", report, "-o", "xml"}, want: commands.ErrUnknownOutput},
		{name: "oracle reserved name", args: []string{"render", reserved, "--vendor", database.Oracle}, want: database.ErrReservedSubStatementName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := run(t, tt.args...)
			assert.ErrorIs(t, res.err, tt.want)
		})
	}

	res := run(t, "render", unbound)
	require.Error(t, res.err)
	assert.Contains(t, res.err.Error(), "parameter not bound")

	res = run(t, "render", filepath.Join(dir, "absent.yaml"))
	assert.Error(t, res.err)
}

func TestQueryAgainstSQLite(t *testing.T) {
	dbPath := newOrdersDB(t)
	path := writeFile(t, t.TempDir(), "report.yaml", reportDefinition)

	res := run(t, "query", path, "--database-type", database.SQLite, "--database-database", dbPath,
		"-o", "json", "--log-level", "debug")
	require.NoError(t, res.err)

	var rows []map[string]any
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, "alice", rows[0]["owner"])
	assert.InDelta(t, 2, rows[0]["orders"], 0)

	assert.Contains(t, res.stderr, "Statement executed")
}

func TestQueryTableOutput(t *testing.T) {
	dbPath := newOrdersDB(t)
	path := writeFile(t, t.TempDir(), "report.yaml", reportDefinition)

	res := run(t, "query", path, "--database-type", database.SQLite, "--database-database", dbPath)
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "alice")
	assert.Contains(t, res.stdout, "(1 rows)")
}

func TestQueryWithObservabilityEnabled(t *testing.T) {
	tp := otel.GetTracerProvider()
	mp := otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(tp)
		otel.SetMeterProvider(mp)
	})

	dbPath := newOrdersDB(t)
	path := writeFile(t, t.TempDir(), "report.yaml", reportDefinition)

	res := run(t, "query", path, "--database-type", database.SQLite, "--database-database", dbPath,
		"--observability-enabled")
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "db.query.placeholder.count")
}

func TestExecAgainstSQLite(t *testing.T) {
	dbPath := newOrdersDB(t)
	path := writeFile(t, t.TempDir(), "purge.yaml", `
text: "DELETE FROM orders WHERE owner = :owner"
params:
  owner: alice
`)

	res := run(t, "exec", path, "--database-type", database.SQLite, "--database-database", dbPath)
	require.NoError(t, res.err)
	assert.Equal(t, "2 rows affected\n", res.stdout)
}

func TestQueryWithoutDatabase(t *testing.T) {
	path := writeFile(t, t.TempDir(), "report.yaml", reportDefinition)

	res := run(t, "query", path)
	require.Error(t, res.err)
	assert.True(t, config.IsNotConfigured(res.err))
}
