package params

import (
	"errors"
	"fmt"
)

// Sentinel errors for the binding phase.
// These can be used with errors.Is() for programmatic error checking.
var (
	// ErrParameterNotFound is returned by Lookup when a name was never recorded.
	ErrParameterNotFound = errors.New("parameter not found")

	// ErrParameterNotBound is returned when a recorded parameter has no bound value.
	ErrParameterNotBound = errors.New("parameter not bound")

	// ErrOrdinalOutOfRange is returned by sinks asked to set an ordinal they were not sized for.
	ErrOrdinalOutOfRange = errors.New("ordinal out of range")
)

// ParameterError names the parameter a binding-phase failure refers to.
type ParameterError struct {
	Name string
	Err  error
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err, e.Name)
}

// Unwrap exposes the sentinel for errors.Is.
func (e *ParameterError) Unwrap() error {
	return e.Err
}

func notFound(name string) error {
	return &ParameterError{Name: name, Err: ErrParameterNotFound}
}

func notBound(name string) error {
	return &ParameterError{Name: name, Err: ErrParameterNotBound}
}
