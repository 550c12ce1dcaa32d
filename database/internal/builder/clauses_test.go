package builder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClausesRender(t *testing.T) {
	tests := []struct {
		name     string
		build    func(*Clauses)
		expected string
	}{
		{
			name:     "zero value",
			build:    func(*Clauses) {},
			expected: "",
		},
		{
			name: "where without select",
			build: func(c *Clauses) {
				c.Where("a = 1")
				c.Where("b = 2")
			},
			expected: "WHERE a = 1 AND b = 2",
		},
		{
			name: "distinct keeps columns in order",
			build: func(c *Clauses) {
				c.Select("a")
				c.SelectDistinct("b")
				c.From("t1")
				c.From("t2")
			},
			expected: "SELECT DISTINCT a, b\nFROM t1, t2",
		},
		{
			name: "having and order",
			build: func(c *Clauses) {
				c.Select("a")
				c.GroupBy("a")
				c.GroupBy("b")
				c.Having("count(*) > 1")
				c.Having("sum(x) < 10")
				c.OrderBy("a DESC")
				c.OrderBy("b")
			},
			expected: "SELECT a\nGROUP BY a, b\nHAVING count(*) > 1 AND sum(x) < 10\nORDER BY a DESC, b",
		},
		{
			name: "offset without limit",
			build: func(c *Clauses) {
				c.Select("a")
				c.Offset("5")
			},
			expected: "SELECT a\nOFFSET 5",
		},
		{
			name: "text replaces fragments",
			build: func(c *Clauses) {
				c.Select("a")
				c.SetText("DELETE FROM t")
			},
			expected: "DELETE FROM t",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var c Clauses
			tt.build(&c)
			assert.Equal(t, tt.expected, c.Render())
		})
	}
}

func TestClausesIsEmpty(t *testing.T) {
	var c Clauses
	assert.True(t, c.IsEmpty())

	c.Limit("1")
	assert.False(t, c.IsEmpty())

	var text Clauses
	text.SetText("SELECT 1")
	assert.False(t, text.IsEmpty())
}

func TestJoinTypeKeyword(t *testing.T) {
	assert.Equal(t, "LEFT JOIN", LeftJoin.Keyword())
	assert.Equal(t, "CROSS JOIN", CrossJoin.Keyword())
	assert.Equal(t, "JOIN", JoinType(99).Keyword())
}
