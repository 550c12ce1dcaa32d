// Package logger is the structured logging facade used across sqlbricks.
// Events are built with chained field setters and written by zerolog. String
// and arbitrary values pass through a SensitiveDataFilter first, so bound
// parameter values such as passwords or tokens are masked before they reach
// the output.
package logger

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Logger creates leveled events and derived loggers.
type Logger interface {
	Debug() LogEvent
	Info() LogEvent
	Warn() LogEvent
	Error() LogEvent
	WithContext(ctx context.Context) Logger
	WithFields(fields map[string]any) Logger
}

// LogEvent accumulates fields until Msg or Msgf writes it. Events for a
// disabled level accept fields and write nothing.
type LogEvent interface {
	Msg(msg string)
	Msgf(format string, args ...any)
	Err(err error) LogEvent
	Str(key, value string) LogEvent
	Int(key string, value int) LogEvent
	Int64(key string, value int64) LogEvent
	Bool(key string, value bool) LogEvent
	Dur(key string, d time.Duration) LogEvent
	Any(key string, v any) LogEvent
}

// ZeroLogger implements Logger on top of zerolog.
type ZeroLogger struct {
	zlog   *zerolog.Logger
	filter *SensitiveDataFilter
}

var _ Logger = (*ZeroLogger)(nil)

var callerMarshalOnce sync.Once

// New writes JSON lines (or console output when pretty) to stdout with the
// default filter. Unknown levels fall back to info.
func New(level string, pretty bool) *ZeroLogger {
	return NewWithWriter(os.Stdout, level, pretty, DefaultFilterConfig())
}

// NewWithWriter is New with an explicit destination. A nil filterConfig uses
// DefaultFilterConfig.
func NewWithWriter(w io.Writer, level string, pretty bool, filterConfig *FilterConfig) *ZeroLogger {
	callerMarshalOnce.Do(func() {
		// "package/file.go:42" instead of the absolute path
		zerolog.CallerMarshalFunc = func(_ uintptr, file string, line int) string {
			name := filepath.Base(file)
			if dir := filepath.Base(filepath.Dir(file)); dir != "." && dir != "" {
				name = dir + "/" + name
			}
			return name + ":" + strconv.Itoa(line)
		}
	})

	out := w
	if pretty {
		out = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zl := zerolog.New(out).Level(lvl).With().Timestamp().Logger()

	return &ZeroLogger{zlog: &zl, filter: NewSensitiveDataFilter(filterConfig)}
}

// WithContext switches to the zerolog logger carried by ctx, keeping this
// logger's filter. Without an enabled logger in ctx it returns l.
func (l *ZeroLogger) WithContext(ctx context.Context) Logger {
	if ctx == nil {
		return l
	}
	zl := zerolog.Ctx(ctx)
	if zl == nil || zl.GetLevel() == zerolog.Disabled {
		return l
	}
	return &ZeroLogger{zlog: zl, filter: l.filter}
}

// WithFields returns a logger that adds the filtered fields to every event.
func (l *ZeroLogger) WithFields(fields map[string]any) Logger {
	if l.filter != nil {
		fields = l.filter.FilterFields(fields)
	}
	zl := l.zlog.With().Fields(fields).Logger()
	return &ZeroLogger{zlog: &zl, filter: l.filter}
}

func (l *ZeroLogger) Debug() LogEvent { return l.event(l.zlog.Debug()) }
func (l *ZeroLogger) Info() LogEvent  { return l.event(l.zlog.Info()) }
func (l *ZeroLogger) Warn() LogEvent  { return l.event(l.zlog.Warn()) }
func (l *ZeroLogger) Error() LogEvent { return l.event(l.zlog.Error()) }

func (l *ZeroLogger) event(e *zerolog.Event) LogEvent {
	return &event{e: e, filter: l.filter}
}

// event wraps a zerolog event. A nil e (level disabled) is safe: zerolog
// ignores calls on it.
type event struct {
	e      *zerolog.Event
	filter *SensitiveDataFilter
}

func (ev *event) Msg(msg string)                  { ev.e.Msg(msg) }
func (ev *event) Msgf(format string, args ...any) { ev.e.Msgf(format, args...) }

func (ev *event) Err(err error) LogEvent                   { ev.e = ev.e.Err(err); return ev }
func (ev *event) Int(key string, value int) LogEvent       { ev.e = ev.e.Int(key, value); return ev }
func (ev *event) Int64(key string, value int64) LogEvent   { ev.e = ev.e.Int64(key, value); return ev }
func (ev *event) Bool(key string, value bool) LogEvent     { ev.e = ev.e.Bool(key, value); return ev }
func (ev *event) Dur(key string, d time.Duration) LogEvent { ev.e = ev.e.Dur(key, d); return ev }

func (ev *event) Str(key, value string) LogEvent {
	if ev.filter != nil {
		value = ev.filter.FilterString(key, value)
	}
	ev.e = ev.e.Str(key, value)
	return ev
}

func (ev *event) Any(key string, v any) LogEvent {
	if ev.filter != nil {
		v = ev.filter.FilterValue(key, v)
	}
	ev.e = ev.e.Interface(key, v)
	return ev
}
