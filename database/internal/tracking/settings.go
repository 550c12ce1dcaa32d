// Package tracking records executed statements: a structured log entry, an
// OpenTelemetry span and call metrics per execution, with slow query detection.
package tracking

import (
	"time"

	"github.com/gaborage/sqlbricks/config"
	"github.com/gaborage/sqlbricks/logger"
)

const (
	DefaultSlowQueryThreshold = 200 * time.Millisecond
	DefaultMaxQueryLength     = 1000
)

// Settings controls how executions are logged.
type Settings struct {
	// SlowThreshold is the duration above which an execution logs at warn level
	// when SlowEnabled is set.
	SlowThreshold time.Duration
	SlowEnabled   bool

	// MaxQueryLength caps logged query text and string parameter values, in runes.
	MaxQueryLength int

	// LogParameters adds bound values, keyed by parameter name, to each entry.
	LogParameters bool
}

// NewSettings reads the query section of cfg. Non-positive durations and
// lengths keep their defaults, and a nil cfg keeps slow query detection on.
func NewSettings(cfg *config.DatabaseConfig) Settings {
	s := Settings{
		SlowThreshold:  DefaultSlowQueryThreshold,
		SlowEnabled:    true,
		MaxQueryLength: DefaultMaxQueryLength,
	}
	if cfg == nil {
		return s
	}

	q := cfg.Query
	if q.Slow.Threshold > 0 {
		s.SlowThreshold = q.Slow.Threshold
	}
	if q.Log.MaxLength > 0 {
		s.MaxQueryLength = q.Log.MaxLength
	}
	s.SlowEnabled = q.Slow.Enabled
	s.LogParameters = q.Log.Parameters
	return s
}

func (s Settings) slow(elapsed time.Duration) bool {
	return s.SlowEnabled && elapsed > s.SlowThreshold
}

// Context is what every tracked call of one executor shares.
type Context struct {
	Logger   logger.Logger
	Vendor   string
	Settings Settings
}
