package database

import (
	"strings"

	"github.com/gaborage/sqlbricks/database/internal/builder"
	"github.com/gaborage/sqlbricks/database/internal/sqllex"
	"github.com/gaborage/sqlbricks/database/params"
)

const (
	withKeyword     = "WITH "
	subSeparator    = "\n, "
	subOpen         = " as ("
	subClose        = ")"
	preambleNewline = "\n"
)

// Compile renders the statement to SQL text with `?` placeholders and rebuilds the
// index registry. Sub-statements are compiled first in declaration order, so the
// ordinal of every placeholder equals its position in the returned text.
//
// Compile may be called repeatedly; each call renumbers from 1.
func (s *Statement) Compile() (string, error) {
	if s == nil {
		return "", ErrNilStatement
	}
	return s.compile(builder.Question), nil
}

// ToSql compiles the statement and binds its values into positional arguments.
// It satisfies squirrel.Sqlizer, so a Statement can be used wherever squirrel
// accepts a nested expression.
//
//nolint:revive // ToSql is required by squirrel.Sqlizer interface (lowercase 's')
func (s *Statement) ToSql() (query string, args []any, err error) {
	query, err = s.Compile()
	if err != nil {
		return "", nil, err
	}
	args, err = s.registry.Args()
	if err != nil {
		return "", nil, err
	}
	return query, args, nil
}

// Apply binds every recorded parameter of the last compilation into sink.
// Each ordinal receives exactly one setter call, typed by the bound value's kind.
func (s *Statement) Apply(sink params.Sink) error {
	if s == nil {
		return ErrNilStatement
	}
	return s.registry.Apply(sink)
}

// Args binds every recorded parameter of the last compilation into a positional slice.
func (s *Statement) Args() ([]any, error) {
	if s == nil {
		return nil, ErrNilStatement
	}
	return s.registry.Args()
}

func (s *Statement) compile(write builder.Positional) string {
	return s.compileFrom(write, 0)
}

// compileFrom renders the statement whose first ordinal follows base, so that
// placeholders written inside a sub-statement already carry the ordinals they
// take after merging into the parent.
func (s *Statement) compileFrom(write builder.Positional, base int) string {
	s.registry.Reset()

	var sb strings.Builder
	if len(s.subs) > 0 {
		sb.WriteString(withKeyword)
		for i, sub := range s.subs {
			if i > 0 {
				sb.WriteString(subSeparator)
			}
			sb.WriteString(sub.name)
			sb.WriteString(subOpen)
			if sub.stmt != nil {
				body := sub.stmt.compileFrom(write, base+s.registry.Count())
				s.registry.Merge(sub.stmt.registry)
				sb.WriteString("\n")
				sb.WriteString(body)
				sb.WriteString("\n")
			} else {
				sb.WriteString(s.rewrite(sub.text, write, base))
			}
			sb.WriteString(subClose)
		}
	}

	body := s.rewrite(s.clauses.Render(), write, base)
	if len(s.subs) > 0 && body != "" {
		sb.WriteString(preambleNewline)
	}
	sb.WriteString(body)
	return sb.String()
}

func (s *Statement) rewrite(text string, write builder.Positional, base int) string {
	return sqllex.RewriteNamed(text, func(name string) string {
		return write(base + s.registry.Record(name))
	})
}
