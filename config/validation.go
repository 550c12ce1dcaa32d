package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Database type constants
const (
	PostgreSQL = "postgresql"
	Oracle     = "oracle"
	SQLite     = "sqlite"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	// Report fields by their koanf key so errors match config file paths
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("koanf"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return v
}

// Validate checks cfg with its struct tags and the cross-field database rules.
// Failures are reported as *ConfigError.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return convertValidationErrors(err)
	}

	if err := validateDatabase(&cfg.Database); err != nil {
		return fmt.Errorf("database config: %w", err)
	}

	if err := cfg.Observability.Validate(); err != nil {
		return WrapValidationError("observability", err)
	}

	return nil
}

// IsDatabaseConfigured determines if database is intentionally configured.
func IsDatabaseConfigured(cfg *DatabaseConfig) bool {
	return cfg.Type != "" || cfg.ConnectionString != ""
}

func validateDatabase(cfg *DatabaseConfig) error {
	if !IsDatabaseConfigured(cfg) {
		return nil
	}

	if cfg.Type == "" {
		return NewMissingFieldError("database.type")
	}

	// A connection string replaces every connection field
	if cfg.ConnectionString != "" {
		return nil
	}

	switch cfg.Type {
	case SQLite:
		return requireField("database.database", cfg.Database)
	case Oracle:
		if cfg.Oracle.Service.Name == "" && cfg.Oracle.Service.SID == "" && cfg.Database == "" {
			return NewMissingFieldError("database.oracle.service.name")
		}
	default:
		if err := requireField("database.database", cfg.Database); err != nil {
			return err
		}
	}

	if err := requireField("database.host", cfg.Host); err != nil {
		return err
	}
	if cfg.Port == 0 {
		return NewMissingFieldError("database.port")
	}
	return nil
}

func requireField(key, value string) error {
	if value == "" {
		return NewMissingFieldError(key)
	}
	return nil
}

// convertValidationErrors turns the first validator failure into a ConfigError.
func convertValidationErrors(err error) error {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return err
	}

	fe := validationErrors[0]
	field := fe.Namespace()
	// Drop the root struct name
	if i := strings.IndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "oneof":
		return NewInvalidFieldError(field, fmt.Sprintf("invalid value %v", fe.Value()), strings.Fields(fe.Param()))
	case "min", "gte":
		return NewValidationError(field, fmt.Sprintf("must be at least %s", fe.Param()))
	case "max", "lte":
		return NewValidationError(field, fmt.Sprintf("must be at most %s", fe.Param()))
	default:
		return NewValidationError(field, fmt.Sprintf("failed %s validation", fe.Tag()))
	}
}
