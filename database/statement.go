// Package database composes SQL statements from textual fragments and resolves the
// named parameters they contain into positional placeholders.
//
// A Statement accumulates clause fragments, may declare named sub-statements that are
// rendered as common table expressions, and carries the registries that map each
// `:name` to its placeholder ordinals and bound value:
//
//	stmt := database.NewStatement()
//	recent, _ := stmt.With("recent")
//	recent.Select("id").From("orders").Where("created_at > :since")
//
//	stmt.Select("count(*)").From("recent").Where("id <> :skip").
//		Bind("since", params.Timestamp(since)).
//		Bind("skip", params.Long(42))
//
//	sql, args, err := database.NewQueryBuilder(database.PostgreSQL).Build(stmt)
package database

import (
	"github.com/Masterminds/squirrel"

	"github.com/gaborage/sqlbricks/database/internal/builder"
	"github.com/gaborage/sqlbricks/database/params"
)

// DefaultMaxNestingDepth bounds how deep sub-statements may nest.
const DefaultMaxNestingDepth = 16

type subStatement struct {
	name string
	stmt *Statement
	text string
}

// Statement is one composable unit of SQL text. It exclusively owns its parameter
// registry and its named sub-statements, each of which is a full Statement.
//
// Statement is builder state: it is not safe for concurrent use.
type Statement struct {
	clauses  builder.Clauses
	subs     []subStatement
	subNames map[string]int
	registry *params.Registry
	parent   *Statement
	maxDepth int
}

// Ensure Statement can be nested in squirrel builders
var _ squirrel.Sqlizer = (*Statement)(nil)

// NewStatement creates an empty statement.
func NewStatement() *Statement {
	return &Statement{
		subNames: make(map[string]int),
		registry: params.NewRegistry(),
		maxDepth: DefaultMaxNestingDepth,
	}
}

// WithMaxNestingDepth sets how many levels of sub-statements may hang below this one.
// Values below 1 restore DefaultMaxNestingDepth.
func (s *Statement) WithMaxNestingDepth(depth int) *Statement {
	if depth < 1 {
		depth = DefaultMaxNestingDepth
	}
	s.maxDepth = depth
	return s
}

// Select appends a select-list fragment.
func (s *Statement) Select(columns string) *Statement {
	s.clauses.Select(columns)
	return s
}

// SelectDistinct appends a select-list fragment and makes the statement SELECT DISTINCT.
func (s *Statement) SelectDistinct(columns string) *Statement {
	s.clauses.SelectDistinct(columns)
	return s
}

// From appends a source table.
func (s *Statement) From(table string) *Statement {
	s.clauses.From(table)
	return s
}

// Join adds a JOIN clause to the query
func (s *Statement) Join(join string) *Statement {
	s.clauses.AddJoin(builder.Join, join)
	return s
}

// InnerJoin adds an INNER JOIN clause to the query
func (s *Statement) InnerJoin(join string) *Statement {
	s.clauses.AddJoin(builder.InnerJoin, join)
	return s
}

// LeftJoin adds a LEFT JOIN clause to the query
func (s *Statement) LeftJoin(join string) *Statement {
	s.clauses.AddJoin(builder.LeftJoin, join)
	return s
}

// RightJoin adds a RIGHT JOIN clause to the query
func (s *Statement) RightJoin(join string) *Statement {
	s.clauses.AddJoin(builder.RightJoin, join)
	return s
}

// OuterJoin adds an OUTER JOIN clause to the query
func (s *Statement) OuterJoin(join string) *Statement {
	s.clauses.AddJoin(builder.OuterJoin, join)
	return s
}

// CrossJoin adds a CROSS JOIN clause to the query
func (s *Statement) CrossJoin(join string) *Statement {
	s.clauses.AddJoin(builder.CrossJoin, join)
	return s
}

// Where appends a predicate. Predicates are combined with AND.
func (s *Statement) Where(conditions string) *Statement {
	s.clauses.Where(conditions)
	return s
}

// GroupBy appends a grouping expression.
func (s *Statement) GroupBy(columns string) *Statement {
	s.clauses.GroupBy(columns)
	return s
}

// Having appends a HAVING predicate. Predicates are combined with AND.
func (s *Statement) Having(conditions string) *Statement {
	s.clauses.Having(conditions)
	return s
}

// OrderBy appends an ordering expression.
func (s *Statement) OrderBy(columns string) *Statement {
	s.clauses.OrderBy(columns)
	return s
}

// Limit sets the LIMIT clause. The text may itself be a named parameter.
func (s *Statement) Limit(limit string) *Statement {
	s.clauses.Limit(limit)
	return s
}

// Offset sets the OFFSET clause. The text may itself be a named parameter.
func (s *Statement) Offset(offset string) *Statement {
	s.clauses.Offset(offset)
	return s
}

// Text sets a literal body that is rendered instead of the clause fragments, for
// statements the clause methods cannot express such as INSERT, UPDATE or DELETE.
// Named parameters and sub-statements work as for clause-built bodies.
func (s *Statement) Text(body string) *Statement {
	s.clauses.SetText(body)
	return s
}

// Bind stores the value for the named parameter, replacing any previous value.
// Binding a name the statement never references is allowed.
func (s *Statement) Bind(name string, value params.Value) *Statement {
	s.registry.Bind(name, value)
	return s
}

// With declares a named sub-statement and returns it for building.
// The sub-statement is rendered as `name as (...)` in the WITH preamble.
// Declaring a name twice fails with ErrDuplicateSubStatement.
func (s *Statement) With(name string) (*Statement, error) {
	if err := s.checkName(name); err != nil {
		return nil, err
	}
	if s.depth()+1 > s.rootMaxDepth() {
		return nil, subStatementError(name, ErrNestingTooDeep)
	}

	sub := NewStatement()
	sub.parent = s
	s.addSub(subStatement{name: name, stmt: sub})
	return sub, nil
}

// WithText declares a named sub-statement whose body is literal SQL text.
// Named parameters inside text are resolved like any other fragment.
func (s *Statement) WithText(name, text string) error {
	if err := s.checkName(name); err != nil {
		return err
	}
	s.addSub(subStatement{name: name, text: text})
	return nil
}

// Attach declares sub, built independently, as a named sub-statement.
// It fails when sub is already attached elsewhere or is this statement or one of its
// ancestors.
func (s *Statement) Attach(name string, sub *Statement) error {
	if sub == nil {
		return subStatementError(name, ErrNilStatement)
	}
	if err := s.checkName(name); err != nil {
		return err
	}
	for a := s; a != nil; a = a.parent {
		if a == sub {
			return subStatementError(name, ErrCyclicSubStatement)
		}
	}
	if sub.parent != nil {
		return subStatementError(name, ErrAlreadyAttached)
	}
	if s.depth()+1+sub.height() > s.rootMaxDepth() {
		return subStatementError(name, ErrNestingTooDeep)
	}

	sub.parent = s
	s.addSub(subStatement{name: name, stmt: sub})
	return nil
}

// SubStatement returns the built sub-statement declared under name.
// Literal sub-statements declared with WithText are not returned.
func (s *Statement) SubStatement(name string) (*Statement, bool) {
	i, ok := s.subNames[name]
	if !ok || s.subs[i].stmt == nil {
		return nil, false
	}
	return s.subs[i].stmt, true
}

// SubStatementNames returns the declared sub-statement names in declaration order.
func (s *Statement) SubStatementNames() []string {
	names := make([]string, len(s.subs))
	for i, sub := range s.subs {
		names[i] = sub.name
	}
	return names
}

// Registry exposes the statement's parameter registry. After Compile it holds the
// ordinals of this statement and of every sub-statement below it.
func (s *Statement) Registry() *params.Registry {
	return s.registry
}

// Lookup returns the ordinals the named parameter occupies in the compiled text.
func (s *Statement) Lookup(name string) ([]int, error) {
	return s.registry.Lookup(name)
}

// String renders this statement's own clauses without the WITH preamble and without
// resolving named parameters.
func (s *Statement) String() string {
	return s.clauses.Render()
}

// walkNames calls fn with every sub-statement name at every level, depth first in
// declaration order. It stops at the first error.
func (s *Statement) walkNames(fn func(name string) error) error {
	for _, sub := range s.subs {
		if err := fn(sub.name); err != nil {
			return err
		}
		if sub.stmt == nil {
			continue
		}
		if err := sub.stmt.walkNames(fn); err != nil {
			return err
		}
	}
	return nil
}

func (s *Statement) checkName(name string) error {
	if name == "" {
		return subStatementError(name, ErrEmptySubStatementName)
	}
	if _, exists := s.subNames[name]; exists {
		return subStatementError(name, ErrDuplicateSubStatement)
	}
	return nil
}

func (s *Statement) addSub(sub subStatement) {
	s.subNames[sub.name] = len(s.subs)
	s.subs = append(s.subs, sub)
}

// depth counts the ancestors of s.
func (s *Statement) depth() int {
	d := 0
	for a := s.parent; a != nil; a = a.parent {
		d++
	}
	return d
}

// height counts the levels of built sub-statements below s.
func (s *Statement) height() int {
	h := 0
	for _, sub := range s.subs {
		if sub.stmt == nil {
			continue
		}
		if sh := sub.stmt.height() + 1; sh > h {
			h = sh
		}
	}
	return h
}

func (s *Statement) rootMaxDepth() int {
	root := s
	for root.parent != nil {
		root = root.parent
	}
	return root.maxDepth
}
