package database

import (
	"errors"
	"fmt"
)

// Sentinel errors for sub-statement declaration.
// These can be used with errors.Is() for programmatic error checking.
var (
	// ErrDuplicateSubStatement is returned when a sub-statement name is declared twice.
	ErrDuplicateSubStatement = errors.New("sub-statement already exists")

	// ErrCyclicSubStatement is returned when attaching a statement would make it its own ancestor.
	ErrCyclicSubStatement = errors.New("sub-statement would create a cycle")

	// ErrAlreadyAttached is returned when a statement is attached under a second parent.
	ErrAlreadyAttached = errors.New("statement is already a sub-statement")

	// ErrNestingTooDeep is returned when sub-statements nest deeper than the configured limit.
	ErrNestingTooDeep = errors.New("sub-statement nesting too deep")

	// ErrEmptySubStatementName is returned when a sub-statement is declared without a name.
	ErrEmptySubStatementName = errors.New("sub-statement name cannot be empty")

	// ErrReservedSubStatementName is returned when building for a vendor that reserves a sub-statement name.
	ErrReservedSubStatementName = errors.New("sub-statement name is a reserved word")
)

// SubStatementError names the sub-statement a declaration failure refers to.
type SubStatementError struct {
	Name string
	Err  error
}

func (e *SubStatementError) Error() string {
	return fmt.Sprintf("%s: %s", e.Err, e.Name)
}

// Unwrap exposes the sentinel for errors.Is.
func (e *SubStatementError) Unwrap() error {
	return e.Err
}

func subStatementError(name string, err error) error {
	return &SubStatementError{Name: name, Err: err}
}
