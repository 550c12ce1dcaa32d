package config

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotConfigured marks an optional feature left out of the configuration.
var ErrNotConfigured = errors.New("not configured")

// Category classifies a ConfigError.
type Category string

const (
	CategoryMissing       Category = "missing"
	CategoryInvalid       Category = "invalid"
	CategoryNotConfigured Category = "not_configured"
	CategoryConnection    Category = "connection"
)

// ConfigError describes a configuration problem together with the key that
// caused it and what to change. Messages are lowercase.
//
//nolint:revive // ConfigError reads better than config.Error at call sites
type ConfigError struct {
	Category Category
	Field    string // dotted config key, e.g. "database.query.slow.threshold"
	Message  string
	Action   string
	Details  []string
	Cause    error
}

// Error renders "config_<category>: <field> <message> <action> <details>",
// skipping empty parts.
func (e *ConfigError) Error() string {
	var b strings.Builder
	write := func(s string) {
		if s == "" {
			return
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(s)
	}

	if e.Category != "" {
		write("config_" + string(e.Category) + ":")
	}
	write(e.Field)
	write(e.Message)
	write(e.Action)
	write(strings.Join(e.Details, "; "))
	return b.String()
}

// Unwrap exposes the underlying failure, if any.
func (e *ConfigError) Unwrap() error {
	return e.Cause
}

// NewMissingFieldError reports a required key that has no value. The action
// names both the environment variable and the YAML path that set it.
func NewMissingFieldError(key string) *ConfigError {
	return &ConfigError{
		Category: CategoryMissing,
		Field:    key,
		Message:  "required",
		Action:   fmt.Sprintf("set %s env var or add %s to the config file", envName(key), key),
	}
}

// NewInvalidFieldError reports a value outside validOptions.
func NewInvalidFieldError(field, message string, validOptions []string) *ConfigError {
	err := &ConfigError{
		Category: CategoryInvalid,
		Field:    field,
		Message:  message,
	}
	if len(validOptions) > 0 {
		err.Action = "must be one of: " + strings.Join(validOptions, ", ")
	}
	return err
}

// NewNotConfiguredError reports an optional feature that key would enable.
// IsNotConfigured recognizes it.
func NewNotConfiguredError(feature, key string) *ConfigError {
	err := &ConfigError{
		Category: CategoryNotConfigured,
		Field:    feature,
		Message:  "(optional)",
		Cause:    ErrNotConfigured,
	}
	if key != "" {
		err.Action = fmt.Sprintf("to enable: set %s env var or add %s to the config file", envName(key), key)
	}
	return err
}

// NewConnectionError reports that a configured resource could not be reached.
func NewConnectionError(resource string, cause error, troubleshooting ...string) *ConfigError {
	return &ConfigError{
		Category: CategoryConnection,
		Field:    resource,
		Message:  cause.Error(),
		Details:  troubleshooting,
		Cause:    cause,
	}
}

// NewValidationError reports an invalid value with a free-form message.
func NewValidationError(field, message string) *ConfigError {
	return &ConfigError{
		Category: CategoryInvalid,
		Field:    field,
		Message:  message,
	}
}

// WrapValidationError reports an invalid section whose own validation failed
// with cause. errors.Is still matches the sentinel inside cause.
func WrapValidationError(field string, cause error) *ConfigError {
	err := NewValidationError(field, cause.Error())
	err.Cause = cause
	return err
}

// IsNotConfigured reports whether err means a feature was left unconfigured.
func IsNotConfigured(err error) bool {
	if errors.Is(err, ErrNotConfigured) {
		return true
	}
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr) && cfgErr.Category == CategoryNotConfigured
}

// envName returns the environment variable that overrides key.
func envName(key string) string {
	return EnvPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}
