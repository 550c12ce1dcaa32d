package tracking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gaborage/sqlbricks/config"
)

func TestNewSettings(t *testing.T) {
	tests := []struct {
		name string
		cfg  *config.DatabaseConfig
		want Settings
	}{
		{
			name: "nil config uses defaults",
			want: Settings{SlowThreshold: DefaultSlowQueryThreshold, SlowEnabled: true, MaxQueryLength: DefaultMaxQueryLength},
		},
		{
			name: "configured values",
			cfg: &config.DatabaseConfig{Query: config.QueryConfig{
				Slow: config.SlowQueryConfig{Threshold: time.Second, Enabled: true},
				Log:  config.QueryLogConfig{Parameters: true, MaxLength: 64},
			}},
			want: Settings{SlowThreshold: time.Second, SlowEnabled: true, MaxQueryLength: 64, LogParameters: true},
		},
		{
			name: "non positive values fall back to defaults",
			cfg:  &config.DatabaseConfig{},
			want: Settings{SlowThreshold: DefaultSlowQueryThreshold, MaxQueryLength: DefaultMaxQueryLength},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewSettings(tt.cfg))
		})
	}
}

func TestSettingsSlow(t *testing.T) {
	s := Settings{SlowThreshold: 100 * time.Millisecond, SlowEnabled: true}
	assert.True(t, s.slow(150*time.Millisecond))
	assert.False(t, s.slow(100*time.Millisecond))

	s.SlowEnabled = false
	assert.False(t, s.slow(time.Hour))
}
