package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	envprovider "github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// flagSections are the top-level keys a command-line flag may override.
// --database-type maps to database.type.
var flagSections = []string{"log", "database", "observability"}

// EnvPrefix is the prefix of environment variables read by Load and LoadBytes.
// SQLBRICKS_DATABASE_QUERY_SLOW_THRESHOLD maps to database.query.slow.threshold.
const EnvPrefix = "SQLBRICKS_"

// Load loads configuration from multiple sources with priority:
// 1. Environment variables (highest priority, below flags for LoadWithFlags)
// 2. YAML configuration files, later files overriding earlier ones
// 3. Default values (lowest priority)
//
// Missing files are skipped; unreadable or malformed files are errors.
func Load(paths ...string) (*Config, error) {
	return LoadWithFlags(nil, paths...)
}

// LoadWithFlags is Load with explicitly set command-line flags layered above the
// environment. Only flags named after a config section are read, with dashes
// standing for dots. A nil flag set is ignored.
func LoadWithFlags(flags *pflag.FlagSet, paths ...string) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	for _, path := range paths {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
	}

	return finish(k, flags)
}

// LoadBytes loads configuration from an in-memory YAML document layered between
// the defaults and the environment.
func LoadBytes(data []byte) (*Config, error) {
	k := koanf.New(".")

	if err := loadDefaults(k); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if err := k.Load(rawbytes.Provider(data), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return finish(k, nil)
}

func finish(k *koanf.Koanf, flags *pflag.FlagSet) (*Config, error) {
	if err := k.Load(envprovider.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	// Flags win over everything else
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, flagKey(flags)), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Store the Koanf instance for flexible access
	cfg.k = k

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// envKey converts SQLBRICKS_UPPER_CASE to upper.case for koanf.
func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
}

// flagKey maps an explicitly set flag to its config key, skipping the rest.
func flagKey(flags *pflag.FlagSet) func(*pflag.Flag) (string, any) {
	return func(f *pflag.Flag) (string, any) {
		if !f.Changed {
			return "", nil
		}
		key := strings.ReplaceAll(f.Name, "-", ".")
		for _, section := range flagSections {
			if strings.HasPrefix(key, section+".") {
				return key, posflag.FlagVal(flags, f)
			}
		}
		return "", nil
	}
}

func loadDefaults(k *koanf.Koanf) error {
	defaults := map[string]any{
		"log.level":  "info",
		"log.pretty": false,

		// Connection fields have no defaults; the database is enabled only when configured
		"database.maxnestingdepth":       16,
		"database.pool.max.connections":  25,
		"database.pool.idle.connections": 2,
		"database.pool.idle.time":        "5m",
		"database.pool.lifetime.max":     "30m",
		"database.query.slow.threshold":  "200ms",
		"database.query.slow.enabled":    true,
		"database.query.log.parameters":  false,
		"database.query.log.max":         1000,

		"observability.enabled":      false,
		"observability.service.name": "sqlbricks",
	}

	return k.Load(confmap.Provider(defaults, "."), nil)
}
