package config

import (
	"time"

	"github.com/knadh/koanf/v2"

	"github.com/gaborage/sqlbricks/observability"
)

// Config is the root configuration of an application that composes and runs
// statements through sqlbricks.
type Config struct {
	Log      LogConfig      `koanf:"log" json:"log" yaml:"log" mapstructure:"log"`
	Database DatabaseConfig `koanf:"database" json:"database" yaml:"database" mapstructure:"database"`

	// Observability configures where statement spans and metrics are exported.
	Observability observability.Config `koanf:"observability" json:"observability" yaml:"observability" mapstructure:"observability"`

	// k holds the underlying Koanf instance for flexible access to custom configurations
	k *koanf.Koanf `json:"-" yaml:"-" mapstructure:"-"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level" mapstructure:"level" validate:"oneof=trace debug info warn error fatal disabled"`
	Pretty bool   `koanf:"pretty" json:"pretty" yaml:"pretty" mapstructure:"pretty"`
}

// DatabaseConfig holds connection and statement settings.
// The database is considered configured once Type or ConnectionString is set.
type DatabaseConfig struct {
	Type     string `koanf:"type" json:"type" yaml:"type" mapstructure:"type" validate:"omitempty,oneof=postgresql oracle sqlite"`
	Host     string `koanf:"host" json:"host" yaml:"host" mapstructure:"host"`
	Port     int    `koanf:"port" json:"port" yaml:"port" mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Database string `koanf:"database" json:"database" yaml:"database" mapstructure:"database"`
	Username string `koanf:"username" json:"username" yaml:"username" mapstructure:"username"`
	Password string `koanf:"password" json:"password" yaml:"password" mapstructure:"password"`

	// ConnectionString overrides the individual connection fields.
	// For SQLite it is the data source name passed to the driver.
	ConnectionString string `koanf:"connectionstring" json:"connectionstring" yaml:"connectionstring" mapstructure:"connectionstring"`

	// MaxNestingDepth bounds how deep sub-statements may nest. 0 uses the library default.
	MaxNestingDepth int `koanf:"maxnestingdepth" json:"maxnestingdepth" yaml:"maxnestingdepth" mapstructure:"maxnestingdepth" validate:"gte=0,lte=256"`

	Pool   PoolConfig   `koanf:"pool" json:"pool" yaml:"pool" mapstructure:"pool"`
	Query  QueryConfig  `koanf:"query" json:"query" yaml:"query" mapstructure:"query"`
	Oracle OracleConfig `koanf:"oracle" json:"oracle" yaml:"oracle" mapstructure:"oracle"`
}

// PoolConfig holds connection pool settings applied to the opened *sql.DB.
type PoolConfig struct {
	Max      PoolMaxConfig  `koanf:"max" json:"max" yaml:"max" mapstructure:"max"`
	Idle     PoolIdleConfig `koanf:"idle" json:"idle" yaml:"idle" mapstructure:"idle"`
	Lifetime LifetimeConfig `koanf:"lifetime" json:"lifetime" yaml:"lifetime" mapstructure:"lifetime"`
}

// PoolMaxConfig holds maximum connections settings.
type PoolMaxConfig struct {
	// Connections is the maximum number of open connections to the database.
	Connections int32 `koanf:"connections" json:"connections" yaml:"connections" mapstructure:"connections" validate:"gte=0"`
}

// PoolIdleConfig holds idle connections settings.
type PoolIdleConfig struct {
	Connections int32         `koanf:"connections" json:"connections" yaml:"connections" mapstructure:"connections" validate:"gte=0"`
	Time        time.Duration `koanf:"time" json:"time" yaml:"time" mapstructure:"time" validate:"gte=0"`
}

// LifetimeConfig holds maximum lifetime settings for connections.
type LifetimeConfig struct {
	Max time.Duration `koanf:"max" json:"max" yaml:"max" mapstructure:"max" validate:"gte=0"`
}

// QueryConfig holds settings related to query logging and slow query detection.
type QueryConfig struct {
	Slow SlowQueryConfig `koanf:"slow" json:"slow" yaml:"slow" mapstructure:"slow"`
	Log  QueryLogConfig  `koanf:"log" json:"log" yaml:"log" mapstructure:"log"`
}

// SlowQueryConfig holds settings for slow query detection.
type SlowQueryConfig struct {
	Threshold time.Duration `koanf:"threshold" json:"threshold" yaml:"threshold" mapstructure:"threshold" validate:"gte=0"`
	Enabled   bool          `koanf:"enabled" json:"enabled" yaml:"enabled" mapstructure:"enabled"`
}

// QueryLogConfig holds settings for query logging.
// Parameters enables logging bound values by name; sensitive names are masked.
type QueryLogConfig struct {
	Parameters bool `koanf:"parameters" json:"parameters" yaml:"parameters" mapstructure:"parameters"`
	MaxLength  int  `koanf:"max" json:"max" yaml:"max" mapstructure:"max" validate:"gte=0"`
}

// OracleConfig holds Oracle-specific database settings.
type OracleConfig struct {
	Service ServiceConfig `koanf:"service" json:"service" yaml:"service" mapstructure:"service"`
}

// ServiceConfig holds Oracle service connection settings.
type ServiceConfig struct {
	Name string `koanf:"name" json:"name" yaml:"name" mapstructure:"name"`
	SID  string `koanf:"sid" json:"sid" yaml:"sid" mapstructure:"sid"`
}
