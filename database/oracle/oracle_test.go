package oracle

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	go_ora "github.com/sijms/go-ora/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gaborage/sqlbricks/config"
	"github.com/gaborage/sqlbricks/database/params"
	"github.com/gaborage/sqlbricks/logger"
)

const (
	testHost = "db.internal"
	testPort = 1521
)

func TestArgSinkConvertsKinds(t *testing.T) {
	ts := time.Date(2024, 5, 17, 9, 30, 0, 123000000, time.UTC)
	sink := NewArgSink(5)

	require.NoError(t, sink.SetInt(1, 42))
	require.NoError(t, sink.SetLong(2, 7))
	require.NoError(t, sink.SetText(3, "open"))
	require.NoError(t, sink.SetTimestamp(4, ts))
	require.NoError(t, sink.SetDate(5, ts))

	args := sink.Args()
	assert.Equal(t, int64(42), args[0])
	assert.Equal(t, int64(7), args[1])
	assert.Equal(t, "open", args[2])
	assert.Equal(t, go_ora.TimeStamp(ts), args[3])
	assert.Equal(t, ts, args[4])
}

func TestArgSinkThroughRegistry(t *testing.T) {
	reg := params.NewRegistry()
	reg.Record("id")
	reg.Record("id")
	reg.Bind("id", params.Int(9))

	sink := NewArgSink(reg.Count())
	require.NoError(t, reg.Apply(sink))
	assert.Equal(t, []any{int64(9), int64(9)}, sink.Args())
}

func TestBuildDSN(t *testing.T) {
	base := config.DatabaseConfig{
		Host:     testHost,
		Port:     testPort,
		Username: "scott",
		Password: "tiger",
	}

	tests := []struct {
		name     string
		mutate   func(*config.DatabaseConfig)
		contains []string
	}{
		{
			name:     "service name",
			mutate:   func(c *config.DatabaseConfig) { c.Oracle.Service.Name = "FREEPDB1" },
			contains: []string{"oracle://", "db.internal:1521", "/FREEPDB1"},
		},
		{
			name:     "sid",
			mutate:   func(c *config.DatabaseConfig) { c.Oracle.Service.SID = "XE" },
			contains: []string{"db.internal:1521", "SID=XE"},
		},
		{
			name:     "database fallback",
			mutate:   func(c *config.DatabaseConfig) { c.Database = "ORCL" },
			contains: []string{"/ORCL"},
		},
		{
			name:     "connection string wins",
			mutate:   func(c *config.DatabaseConfig) { c.ConnectionString = "oracle://u:p@h:1/S" },
			contains: []string{"oracle://u:p@h:1/S"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)

			dsn := BuildDSN(&cfg)
			for _, part := range tt.contains {
				assert.Contains(t, dsn, part)
			}
		})
	}
}

func stubOpen(t *testing.T, db *sql.DB, openErr, pingErr error) {
	t.Helper()

	origOpen, origPing := openOracleDB, pingOracleDB
	openOracleDB = func(string) (*sql.DB, error) { return db, openErr }
	pingOracleDB = func(context.Context, *sql.DB) error { return pingErr }
	t.Cleanup(func() {
		openOracleDB, pingOracleDB = origOpen, origPing
	})
}

func TestOpen(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	stubOpen(t, db, nil, nil)

	cfg := &config.DatabaseConfig{Type: config.Oracle, Host: testHost, Port: testPort}
	cfg.Oracle.Service.Name = "FREEPDB1"
	cfg.Pool.Max.Connections = 3

	opened, err := Open(context.Background(), cfg, logger.New("disabled", false))
	require.NoError(t, err)
	assert.Equal(t, 3, opened.Stats().MaxOpenConnections)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenFailures(t *testing.T) {
	cfg := &config.DatabaseConfig{Type: config.Oracle, Host: testHost, Port: testPort, Database: "ORCL"}

	t.Run("open error", func(t *testing.T) {
		stubOpen(t, nil, errors.New("bad dsn"), nil)

		_, err := Open(context.Background(), cfg, logger.New("disabled", false))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open Oracle connection")
	})

	t.Run("ping error", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		mock.ExpectClose()
		stubOpen(t, db, nil, errors.New("ORA-12541: no listener"))

		_, err = Open(context.Background(), cfg, logger.New("disabled", false))
		var cfgErr *config.ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Equal(t, config.CategoryConnection, cfgErr.Category)
		assert.Contains(t, err.Error(), "ORA-12541")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
