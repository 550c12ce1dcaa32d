package testing

import (
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/gaborage/sqlbricks/database/params"
)

// SetCall is one setter invocation captured by RecordingSink.
type SetCall struct {
	Ordinal int
	Kind    params.Kind
	Value   any
}

// RecordingSink is a params.Sink that records every setter call in call order.
// It accepts any ordinal; use AssertOrdinalsSetOnce to check coverage.
type RecordingSink struct {
	calls []SetCall
}

// Ensure RecordingSink implements the interface
var _ params.Sink = (*RecordingSink)(nil)

// NewRecordingSink creates an empty RecordingSink.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{}
}

func (s *RecordingSink) SetInt(ordinal int, v int) error {
	return s.record(ordinal, params.KindInt, v)
}

func (s *RecordingSink) SetLong(ordinal int, v int64) error {
	return s.record(ordinal, params.KindLong, v)
}

func (s *RecordingSink) SetText(ordinal int, v string) error {
	return s.record(ordinal, params.KindText, v)
}

func (s *RecordingSink) SetTimestamp(ordinal int, v time.Time) error {
	return s.record(ordinal, params.KindTimestamp, v)
}

func (s *RecordingSink) SetDate(ordinal int, v time.Time) error {
	return s.record(ordinal, params.KindDate, v)
}

func (s *RecordingSink) SetAny(ordinal int, v any) error {
	return s.record(ordinal, params.KindAny, v)
}

// Calls returns the recorded setter calls in call order.
func (s *RecordingSink) Calls() []SetCall {
	return append([]SetCall{}, s.calls...)
}

// ValueAt returns the value of the last setter call for ordinal.
func (s *RecordingSink) ValueAt(ordinal int) (any, bool) {
	for i := len(s.calls) - 1; i >= 0; i-- {
		if s.calls[i].Ordinal == ordinal {
			return s.calls[i].Value, true
		}
	}
	return nil, false
}

func (s *RecordingSink) record(ordinal int, kind params.Kind, v any) error {
	s.calls = append(s.calls, SetCall{Ordinal: ordinal, Kind: kind, Value: v})
	return nil
}

// AssertOrdinalsSetOnce asserts that ordinals 1..count each received exactly one
// setter call and that no other ordinal was set.
//
// Example:
//
//	sink := NewRecordingSink()
//	require.NoError(t, stmt.Apply(sink))
//	AssertOrdinalsSetOnce(t, sink, stmt.Registry().Count())
func AssertOrdinalsSetOnce(t *testing.T, sink *RecordingSink, count int) {
	t.Helper()
	if problems := ordinalProblems(sink, count); len(problems) > 0 {
		t.Errorf("ordinal coverage mismatch:\n  %s", strings.Join(problems, "\n  "))
	}
}

func ordinalProblems(sink *RecordingSink, count int) []string {
	seen := make(map[int]int, count)
	for _, call := range sink.calls {
		seen[call.Ordinal]++
	}

	var problems []string
	for ord := 1; ord <= count; ord++ {
		switch n := seen[ord]; n {
		case 1:
		case 0:
			problems = append(problems, fmt.Sprintf("ordinal %d was never set", ord))
		default:
			problems = append(problems, fmt.Sprintf("ordinal %d was set %d times", ord, n))
		}
		delete(seen, ord)
	}

	extra := make([]int, 0, len(seen))
	for ord := range seen {
		extra = append(extra, ord)
	}
	sort.Ints(extra)
	for _, ord := range extra {
		problems = append(problems, fmt.Sprintf("unexpected ordinal %d was set", ord))
	}
	return problems
}
