// Package builder holds the clause store behind a composed statement and renders it
// to SQL text. Fragments are kept verbatim; nothing here looks inside them.
package builder

import "strings"

// JoinType selects the keyword a join fragment is rendered with.
type JoinType int

const (
	Join JoinType = iota
	InnerJoin
	LeftJoin
	RightJoin
	OuterJoin
	CrossJoin
)

var joinKeywords = map[JoinType]string{
	Join:      "JOIN",
	InnerJoin: "INNER JOIN",
	LeftJoin:  "LEFT JOIN",
	RightJoin: "RIGHT JOIN",
	OuterJoin: "OUTER JOIN",
	CrossJoin: "CROSS JOIN",
}

// Keyword returns the SQL keyword for the join type.
func (j JoinType) Keyword() string {
	if kw, ok := joinKeywords[j]; ok {
		return kw
	}
	return joinKeywords[Join]
}

const (
	listSeparator = ", "
	predicateAnd  = " AND "
	lineSeparator = "\n"
)

type joinClause struct {
	kind JoinType
	text string
}

// Clauses accumulates the fragments of one SELECT statement in declaration order.
// The zero value is ready to use.
type Clauses struct {
	text     string
	distinct bool
	columns  []string
	tables   []string
	joins    []joinClause
	where    []string
	groupBy  []string
	having   []string
	orderBy  []string
	limit    string
	offset   string
}

// Select appends a select-list fragment.
func (c *Clauses) Select(columns string) {
	c.columns = append(c.columns, columns)
}

// SelectDistinct appends a select-list fragment and marks the statement DISTINCT.
func (c *Clauses) SelectDistinct(columns string) {
	c.distinct = true
	c.Select(columns)
}

// From appends a source table fragment.
func (c *Clauses) From(table string) {
	c.tables = append(c.tables, table)
}

// AddJoin appends a join fragment rendered with the keyword of kind.
func (c *Clauses) AddJoin(kind JoinType, join string) {
	c.joins = append(c.joins, joinClause{kind: kind, text: join})
}

// Where appends a predicate; predicates are combined with AND.
func (c *Clauses) Where(condition string) {
	c.where = append(c.where, condition)
}

// GroupBy appends a grouping fragment.
func (c *Clauses) GroupBy(columns string) {
	c.groupBy = append(c.groupBy, columns)
}

// Having appends a HAVING predicate; predicates are combined with AND.
func (c *Clauses) Having(condition string) {
	c.having = append(c.having, condition)
}

// OrderBy appends an ordering fragment.
func (c *Clauses) OrderBy(columns string) {
	c.orderBy = append(c.orderBy, columns)
}

// Limit sets the LIMIT fragment, replacing any previous one.
func (c *Clauses) Limit(limit string) {
	c.limit = limit
}

// Offset sets the OFFSET fragment, replacing any previous one.
func (c *Clauses) Offset(offset string) {
	c.offset = offset
}

// SetText sets a literal body that replaces every other fragment when rendering.
func (c *Clauses) SetText(text string) {
	c.text = text
}

// IsEmpty reports whether no fragment has been added.
func (c *Clauses) IsEmpty() bool {
	return c.text == "" && len(c.columns) == 0 && len(c.tables) == 0 && len(c.joins) == 0 &&
		len(c.where) == 0 && len(c.groupBy) == 0 && len(c.having) == 0 &&
		len(c.orderBy) == 0 && c.limit == "" && c.offset == ""
}

// Render writes the clauses in SQL order, one clause per line.
// Clauses without fragments produce no output. A literal body set with SetText is
// returned as is.
func (c *Clauses) Render() string {
	if c.text != "" {
		return c.text
	}

	var sb strings.Builder

	selectKeyword := "SELECT"
	if c.distinct {
		selectKeyword = "SELECT DISTINCT"
	}
	writeClause(&sb, selectKeyword, c.columns, listSeparator)
	writeClause(&sb, "FROM", c.tables, listSeparator)
	for _, j := range c.joins {
		writeClause(&sb, j.kind.Keyword(), []string{j.text}, "")
	}
	writeClause(&sb, "WHERE", c.where, predicateAnd)
	writeClause(&sb, "GROUP BY", c.groupBy, listSeparator)
	writeClause(&sb, "HAVING", c.having, predicateAnd)
	writeClause(&sb, "ORDER BY", c.orderBy, listSeparator)
	if c.limit != "" {
		writeClause(&sb, "LIMIT", []string{c.limit}, "")
	}
	if c.offset != "" {
		writeClause(&sb, "OFFSET", []string{c.offset}, "")
	}

	return sb.String()
}

func writeClause(sb *strings.Builder, keyword string, parts []string, conjunction string) {
	if len(parts) == 0 {
		return
	}
	if sb.Len() > 0 {
		sb.WriteString(lineSeparator)
	}
	sb.WriteString(keyword)
	sb.WriteByte(' ')
	sb.WriteString(strings.Join(parts, conjunction))
}
