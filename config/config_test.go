package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	envDatabaseType = "SQLBRICKS_DATABASE_TYPE"
	envDatabaseName = "SQLBRICKS_DATABASE_DATABASE"
	envSlowQuery    = "SQLBRICKS_DATABASE_QUERY_SLOW_THRESHOLD"
	envLogLevel     = "SQLBRICKS_LOG_LEVEL"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Log.Pretty)

	// Database should be disabled by default
	assert.False(t, IsDatabaseConfigured(&cfg.Database))
	assert.Equal(t, 16, cfg.Database.MaxNestingDepth)
	assert.Equal(t, int32(25), cfg.Database.Pool.Max.Connections)
	assert.Equal(t, int32(2), cfg.Database.Pool.Idle.Connections)
	assert.Equal(t, 5*time.Minute, cfg.Database.Pool.Idle.Time)
	assert.Equal(t, 30*time.Minute, cfg.Database.Pool.Lifetime.Max)
	assert.Equal(t, 200*time.Millisecond, cfg.Database.Query.Slow.Threshold)
	assert.True(t, cfg.Database.Query.Slow.Enabled)
	assert.False(t, cfg.Database.Query.Log.Parameters)
	assert.Equal(t, 1000, cfg.Database.Query.Log.MaxLength)
}

func TestLoadSkipsMissingFiles(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadFromFiles(t *testing.T) {
	dir := t.TempDir()
	base := filepath.Join(dir, "config.yaml")
	override := filepath.Join(dir, "config.production.yaml")

	require.NoError(t, os.WriteFile(base, []byte(`
log:
  level: debug
database:
  type: postgresql
  host: db.internal
  port: 5432
  database: reports
  query:
    slow:
      threshold: 1s
`), 0o600))
	require.NoError(t, os.WriteFile(override, []byte(`
database:
  host: replica.internal
  maxnestingdepth: 4
`), 0o600))

	cfg, err := Load(base, override)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, PostgreSQL, cfg.Database.Type)
	assert.Equal(t, "replica.internal", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 4, cfg.Database.MaxNestingDepth)
	assert.Equal(t, time.Second, cfg.Database.Query.Slow.Threshold)
	assert.Equal(t, "replica.internal", cfg.GetString("database.host"))
}

func TestLoadMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log: [unterminated"), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadBytesWithEnvironmentOverrides(t *testing.T) {
	t.Setenv(envDatabaseType, SQLite)
	t.Setenv(envDatabaseName, "file::memory:")
	t.Setenv(envSlowQuery, "50ms")
	t.Setenv(envLogLevel, "warn")

	cfg, err := LoadBytes([]byte(`
log:
  level: debug
database:
  query:
    log:
      parameters: true
`))
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, SQLite, cfg.Database.Type)
	assert.Equal(t, "file::memory:", cfg.Database.Database)
	assert.Equal(t, 50*time.Millisecond, cfg.Database.Query.Slow.Threshold)
	assert.True(t, cfg.Database.Query.Log.Parameters)
}

func TestLoadBytesInvalidConfiguration(t *testing.T) {
	_, err := LoadBytes([]byte(`
database:
  type: postgresql
`))
	require.Error(t, err)

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, CategoryMissing, cfgErr.Category)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestEnvKey(t *testing.T) {
	assert.Equal(t, "database.query.slow.threshold", envKey(envSlowQuery))
	assert.Equal(t, "log.level", envKey(envLogLevel))
}

func TestLoadObservabilitySection(t *testing.T) {
	cfg, err := LoadBytes([]byte(`
observability:
  enabled: true
  service:
    name: reports
  trace:
    endpoint: collector:4317
    protocol: grpc
    insecure: true
    sample:
      rate: 0.25
  metrics:
    endpoint: collector:4317
    interval: 30s
`))
	require.NoError(t, err)

	obs := cfg.Observability
	assert.True(t, obs.Enabled)
	assert.Equal(t, "reports", obs.Service.Name)
	assert.Equal(t, "grpc", obs.Trace.Protocol)
	assert.True(t, obs.Trace.Insecure)
	require.NotNil(t, obs.Trace.Sample.Rate)
	assert.InDelta(t, 0.25, *obs.Trace.Sample.Rate, 0.0001)
	assert.Equal(t, 30*time.Second, obs.Metrics.Interval)
}

func TestLoadObservabilityDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.False(t, cfg.Observability.Enabled)
	assert.Equal(t, "sqlbricks", cfg.Observability.Service.Name)
}

func TestLoadWithFlagsOverridesEnvironment(t *testing.T) {
	t.Setenv(envLogLevel, "warn")
	t.Setenv(envDatabaseType, SQLite)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "", "")
	flags.String("database-database", "", "")
	flags.Int("database-maxnestingdepth", 0, "")
	flags.String("output", "", "")
	require.NoError(t, flags.Parse([]string{
		"--log-level=error",
		"--database-database=file::memory:",
		"--database-maxnestingdepth=4",
		"--output=json",
	}))

	cfg, err := LoadWithFlags(flags)
	require.NoError(t, err)

	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, SQLite, cfg.Database.Type)
	assert.Equal(t, "file::memory:", cfg.Database.Database)
	assert.Equal(t, 4, cfg.Database.MaxNestingDepth)
	assert.False(t, cfg.Exists("output"))
}

func TestLoadWithFlagsIgnoresUnchangedFlags(t *testing.T) {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "trace", "")
	require.NoError(t, flags.Parse(nil))

	cfg, err := LoadWithFlags(flags)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
}
