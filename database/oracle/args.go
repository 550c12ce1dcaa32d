package oracle

import (
	"time"

	go_ora "github.com/sijms/go-ora/v2"

	"github.com/gaborage/sqlbricks/database/params"
)

// ArgSink binds values the way go-ora maps them onto Oracle types: integers as
// NUMBER, text as VARCHAR2, timestamps as TIMESTAMP and dates as DATE.
type ArgSink struct {
	*params.ArgList
}

// Ensure ArgSink implements the interface
var _ params.Sink = (*ArgSink)(nil)

// NewArgSink creates a sink sized for count placeholders.
func NewArgSink(count int) *ArgSink {
	return &ArgSink{ArgList: params.NewArgList(count)}
}

// SetInt binds v as NUMBER.
func (s *ArgSink) SetInt(ordinal int, v int) error {
	return s.SetAny(ordinal, int64(v))
}

// SetTimestamp binds v as TIMESTAMP, keeping fractional seconds.
func (s *ArgSink) SetTimestamp(ordinal int, v time.Time) error {
	return s.SetAny(ordinal, go_ora.TimeStamp(v))
}

// SetDate binds v as DATE.
func (s *ArgSink) SetDate(ordinal int, v time.Time) error {
	return s.SetAny(ordinal, v)
}
