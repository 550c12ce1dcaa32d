package postgresql

import (
	"fmt"
	"math"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/gaborage/sqlbricks/database/params"
)

// ArgSink binds values as pgtype values so the pgx driver encodes each one with
// its exact PostgreSQL type: int4, int8, text, timestamptz and date.
type ArgSink struct {
	*params.ArgList
}

// Ensure ArgSink implements the interface
var _ params.Sink = (*ArgSink)(nil)

// NewArgSink creates a sink sized for count placeholders.
func NewArgSink(count int) *ArgSink {
	return &ArgSink{ArgList: params.NewArgList(count)}
}

// SetInt binds v as int4. Values outside the int4 range are rejected.
func (s *ArgSink) SetInt(ordinal int, v int) error {
	if v < math.MinInt32 || v > math.MaxInt32 {
		return fmt.Errorf("value %d overflows int4 at ordinal %d", v, ordinal)
	}
	return s.SetAny(ordinal, pgtype.Int4{Int32: int32(v), Valid: true})
}

// SetLong binds v as int8.
func (s *ArgSink) SetLong(ordinal int, v int64) error {
	return s.SetAny(ordinal, pgtype.Int8{Int64: v, Valid: true})
}

// SetText binds v as text.
func (s *ArgSink) SetText(ordinal int, v string) error {
	return s.SetAny(ordinal, pgtype.Text{String: v, Valid: true})
}

// SetTimestamp binds v as timestamptz. The zero time binds NULL.
func (s *ArgSink) SetTimestamp(ordinal int, v time.Time) error {
	return s.SetAny(ordinal, pgtype.Timestamptz{Time: v, Valid: !v.IsZero()})
}

// SetDate binds v as date. The zero time binds NULL.
func (s *ArgSink) SetDate(ordinal int, v time.Time) error {
	return s.SetAny(ordinal, pgtype.Date{Time: v, Valid: !v.IsZero()})
}
