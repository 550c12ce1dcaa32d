package params

import (
	"fmt"
	"time"
)

// Sink receives bound values at 1-based ordinals, one setter per value kind.
// It plays the role of a prepared statement's parameter setters.
type Sink interface {
	SetInt(ordinal int, v int) error
	SetLong(ordinal int, v int64) error
	SetText(ordinal int, v string) error
	SetTimestamp(ordinal int, v time.Time) error
	SetDate(ordinal int, v time.Time) error
	SetAny(ordinal int, v any) error
}

// ArgList is a Sink that collects plain Go values into a positional argument slice,
// ready to be passed to database/sql.
type ArgList struct {
	args []any
	set  []bool
}

// Ensure ArgList implements the interface
var _ Sink = (*ArgList)(nil)

// NewArgList creates an ArgList sized for count ordinals.
func NewArgList(count int) *ArgList {
	return &ArgList{
		args: make([]any, count),
		set:  make([]bool, count),
	}
}

func (a *ArgList) SetInt(ordinal int, v int) error             { return a.put(ordinal, v) }
func (a *ArgList) SetLong(ordinal int, v int64) error          { return a.put(ordinal, v) }
func (a *ArgList) SetText(ordinal int, v string) error         { return a.put(ordinal, v) }
func (a *ArgList) SetTimestamp(ordinal int, v time.Time) error { return a.put(ordinal, v) }
func (a *ArgList) SetDate(ordinal int, v time.Time) error      { return a.put(ordinal, v) }
func (a *ArgList) SetAny(ordinal int, v any) error             { return a.put(ordinal, v) }

// Args returns the collected values in ordinal order.
func (a *ArgList) Args() []any {
	return a.args
}

// IsSet reports whether ordinal has received a value.
func (a *ArgList) IsSet(ordinal int) bool {
	if ordinal < 1 || ordinal > len(a.set) {
		return false
	}
	return a.set[ordinal-1]
}

func (a *ArgList) put(ordinal int, v any) error {
	if ordinal < 1 || ordinal > len(a.args) {
		return fmt.Errorf("%w: %d (have %d)", ErrOrdinalOutOfRange, ordinal, len(a.args))
	}
	a.args[ordinal-1] = v
	a.set[ordinal-1] = true
	return nil
}
