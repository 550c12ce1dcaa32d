package params

import (
	"fmt"
	"time"
)

// Kind identifies which setter a bound Value is applied with.
type Kind int

const (
	KindAny Kind = iota
	KindInt
	KindLong
	KindText
	KindTimestamp
	KindDate
	KindEnum
)

var kindNames = map[Kind]string{
	KindAny:       "any",
	KindInt:       "int",
	KindLong:      "long",
	KindText:      "text",
	KindTimestamp: "timestamp",
	KindDate:      "date",
	KindEnum:      "enum",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Value is a bound parameter value tagged with its kind.
// Construct it with Int, Long, Text, Timestamp, Date, Enum or Any.
type Value struct {
	kind Kind
	i    int64
	s    string
	t    time.Time
	v    any
}

// Int binds a platform integer.
func Int(v int) Value { return Value{kind: KindInt, i: int64(v)} }

// Long binds a 64-bit integer.
func Long(v int64) Value { return Value{kind: KindLong, i: v} }

// Text binds a string.
func Text(v string) Value { return Value{kind: KindText, s: v} }

// Timestamp binds a point in time with full precision.
func Timestamp(v time.Time) Value { return Value{kind: KindTimestamp, t: v} }

// Date binds a calendar date. The time of day is discarded.
func Date(v time.Time) Value {
	y, m, d := v.Date()
	return Value{kind: KindDate, t: time.Date(y, m, d, 0, 0, 0, 0, v.Location())}
}

// Enum binds an enumerated value by its name, as text.
func Enum(v fmt.Stringer) Value { return Value{kind: KindEnum, s: v.String()} }

// Any binds a value the driver is expected to understand as-is.
func Any(v any) Value { return Value{kind: KindAny, v: v} }

// Kind reports the setter this value is applied with.
func (v Value) Kind() Kind { return v.kind }

// Native returns the plain Go representation of the value.
func (v Value) Native() any {
	switch v.kind {
	case KindInt:
		return int(v.i)
	case KindLong:
		return v.i
	case KindText, KindEnum:
		return v.s
	case KindTimestamp, KindDate:
		return v.t
	default:
		return v.v
	}
}

func (v Value) String() string {
	return fmt.Sprintf("%s(%v)", v.kind, v.Native())
}

// ApplyTo sets the value at ordinal on sink using the setter for its kind.
// Enums are bound as text.
func (v Value) ApplyTo(sink Sink, ordinal int) error {
	switch v.kind {
	case KindInt:
		return sink.SetInt(ordinal, int(v.i))
	case KindLong:
		return sink.SetLong(ordinal, v.i)
	case KindText, KindEnum:
		return sink.SetText(ordinal, v.s)
	case KindTimestamp:
		return sink.SetTimestamp(ordinal, v.t)
	case KindDate:
		return sink.SetDate(ordinal, v.t)
	default:
		return sink.SetAny(ordinal, v.v)
	}
}
