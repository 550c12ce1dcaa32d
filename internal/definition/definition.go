// Package definition reads statement definitions from YAML and builds them into
// composed statements.
//
// A definition lists clause fragments by name, declares sub-statements under
// `with` and binds parameters under `params`:
//
//	with:
//	  - name: recent
//	    select: [id, total]
//	    from: [orders]
//	    where: ["created_at > :since"]
//	  - name: vip
//	    literal: "SELECT id FROM customers WHERE tier = :tier"
//	select: ["count(*)"]
//	from: [recent]
//	where: ["total > :min"]
//	params:
//	  since: {type: timestamp, value: "2024-01-01T00:00:00Z"}
//	  tier: gold
//	  min: 100
//
// A scalar param takes its kind from the YAML tag: integers bind as long, strings as
// text and timestamps as timestamp. The mapping form names any kind explicitly.
package definition

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gaborage/sqlbricks/database"
	"github.com/gaborage/sqlbricks/database/params"
)

const (
	dateLayout = "2006-01-02"
	typeNull   = "null"
)

var (
	// ErrUnknownParamType is returned for a param type outside the supported kinds.
	ErrUnknownParamType = errors.New("unknown param type")

	// ErrUnknownJoinKind is returned for a join kind outside the supported joins.
	ErrUnknownJoinKind = errors.New("unknown join kind")

	// ErrMissingName is returned for a sub-statement declared without a name.
	ErrMissingName = errors.New("sub-statement definition has no name")

	// ErrAmbiguousSubStatement is returned when a sub-statement has both a literal body
	// and clause fragments.
	ErrAmbiguousSubStatement = errors.New("sub-statement definition mixes literal and clauses")
)

// Definition describes one statement and, recursively, its sub-statements.
type Definition struct {
	Select         []string        `yaml:"select"`
	SelectDistinct []string        `yaml:"select_distinct"`
	From           []string        `yaml:"from"`
	Joins          []Join          `yaml:"joins"`
	Where          []string        `yaml:"where"`
	GroupBy        []string        `yaml:"group_by"`
	Having         []string        `yaml:"having"`
	OrderBy        []string        `yaml:"order_by"`
	Limit          string          `yaml:"limit"`
	Offset         string          `yaml:"offset"`
	Text           string          `yaml:"text"`
	With           []SubDefinition `yaml:"with"`
	Params         Params          `yaml:"params"`
}

// SubDefinition is a named sub-statement. Literal declares a literal sub-statement;
// otherwise the inline definition is built as a full statement.
type SubDefinition struct {
	Name       string `yaml:"name"`
	Literal    string `yaml:"literal"`
	Definition `yaml:",inline"`
}

// Join is one join clause. Kind is one of join, inner, left, right, outer or cross.
type Join struct {
	Kind  string `yaml:"kind"`
	Table string `yaml:"table"`
}

// Param is a bound value. Type is one of int, long, text, timestamp, date, enum,
// any or null.
type Param struct {
	Type  string `yaml:"type"`
	Value string `yaml:"value"`
}

// UnmarshalYAML accepts either a {type, value} mapping or a bare scalar whose kind
// follows its YAML tag.
func (p *Param) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		type plain Param
		return node.Decode((*plain)(p))
	}

	p.Value = node.Value
	switch node.ShortTag() {
	case "!!int":
		p.Type = params.KindLong.String()
	case "!!timestamp":
		p.Type = params.KindTimestamp.String()
	case "!!str":
		p.Type = params.KindText.String()
	case "!!null":
		p.Type = typeNull
	default:
		p.Type = params.KindAny.String()
	}
	return nil
}

// Params maps parameter names to their values.
type Params map[string]Param

// UnmarshalYAML decodes every entry through Param.UnmarshalYAML, so a null entry
// becomes a null param instead of being skipped by the decoder.
func (ps *Params) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: params must be a mapping", node.Line)
	}

	out := make(Params, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, value := node.Content[i], node.Content[i+1]
		if value.Kind == yaml.AliasNode {
			value = value.Alias
		}
		if _, dup := out[key.Value]; dup {
			return fmt.Errorf("line %d: param %q defined twice", key.Line, key.Value)
		}

		var p Param
		if err := p.UnmarshalYAML(value); err != nil {
			return fmt.Errorf("param %s: %w", key.Value, err)
		}
		out[key.Value] = p
	}
	*ps = out
	return nil
}

// enumName binds an enum param by its name.
type enumName string

func (e enumName) String() string { return string(e) }

// ToValue converts the param into a typed value. The null type binds SQL NULL.
func (p Param) ToValue() (params.Value, error) {
	switch p.Type {
	case params.KindInt.String():
		i, err := strconv.ParseInt(p.Value, 10, 32)
		if err != nil {
			return params.Value{}, err
		}
		return params.Int(int(i)), nil
	case params.KindLong.String():
		i, err := strconv.ParseInt(p.Value, 10, 64)
		if err != nil {
			return params.Value{}, err
		}
		return params.Long(i), nil
	case params.KindText.String():
		return params.Text(p.Value), nil
	case params.KindTimestamp.String():
		t, err := parseTimestamp(p.Value)
		if err != nil {
			return params.Value{}, err
		}
		return params.Timestamp(t), nil
	case params.KindDate.String():
		t, err := time.Parse(dateLayout, p.Value)
		if err != nil {
			return params.Value{}, err
		}
		return params.Date(t), nil
	case params.KindEnum.String():
		return params.Enum(enumName(p.Value)), nil
	case params.KindAny.String(), "":
		return params.Any(p.Value), nil
	case typeNull:
		return params.Any(nil), nil
	default:
		return params.Value{}, fmt.Errorf("%w: %s", ErrUnknownParamType, p.Type)
	}
}

// parseTimestamp accepts RFC 3339 and the space-separated form YAML also tags as a
// timestamp.
func parseTimestamp(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range []string{"2006-01-02 15:04:05.999999999Z07:00", "2006-01-02 15:04:05", dateLayout} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// Parse decodes a definition. Unknown keys are errors.
func Parse(r io.Reader) (*Definition, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var def Definition
	if err := dec.Decode(&def); err != nil {
		if errors.Is(err, io.EOF) {
			return &def, nil
		}
		return nil, fmt.Errorf("failed to decode statement definition: %w", err)
	}
	return &def, nil
}

// Load reads and decodes the definition file at path.
func Load(path string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open statement definition: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Build applies the definition to stmt: clauses, sub-statements in declaration order,
// then bindings in name order.
func (d *Definition) Build(stmt *database.Statement) error {
	d.applyClauses(stmt)
	for i := range d.Joins {
		if err := applyJoin(stmt, d.Joins[i]); err != nil {
			return err
		}
	}

	for i := range d.With {
		if err := d.With[i].build(stmt); err != nil {
			return err
		}
	}

	names := make([]string, 0, len(d.Params))
	for name := range d.Params {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value, err := d.Params[name].ToValue()
		if err != nil {
			return fmt.Errorf("param %s: %w", name, err)
		}
		stmt.Bind(name, value)
	}
	return nil
}

func (s *SubDefinition) build(parent *database.Statement) error {
	if s.Name == "" {
		return ErrMissingName
	}

	if s.Literal != "" {
		if !s.Definition.isEmpty() {
			return fmt.Errorf("%w: %s", ErrAmbiguousSubStatement, s.Name)
		}
		return parent.WithText(s.Name, s.Literal)
	}

	sub, err := parent.With(s.Name)
	if err != nil {
		return err
	}
	if err := s.Definition.Build(sub); err != nil {
		return fmt.Errorf("sub-statement %s: %w", s.Name, err)
	}
	return nil
}

func (d *Definition) applyClauses(stmt *database.Statement) {
	for _, v := range d.Select {
		stmt.Select(v)
	}
	for _, v := range d.SelectDistinct {
		stmt.SelectDistinct(v)
	}
	for _, v := range d.From {
		stmt.From(v)
	}
	for _, v := range d.Where {
		stmt.Where(v)
	}
	for _, v := range d.GroupBy {
		stmt.GroupBy(v)
	}
	for _, v := range d.Having {
		stmt.Having(v)
	}
	for _, v := range d.OrderBy {
		stmt.OrderBy(v)
	}
	if d.Limit != "" {
		stmt.Limit(d.Limit)
	}
	if d.Offset != "" {
		stmt.Offset(d.Offset)
	}
	if d.Text != "" {
		stmt.Text(d.Text)
	}
}

func applyJoin(stmt *database.Statement, j Join) error {
	switch j.Kind {
	case "", "join":
		stmt.Join(j.Table)
	case "inner":
		stmt.InnerJoin(j.Table)
	case "left":
		stmt.LeftJoin(j.Table)
	case "right":
		stmt.RightJoin(j.Table)
	case "outer":
		stmt.OuterJoin(j.Table)
	case "cross":
		stmt.CrossJoin(j.Table)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownJoinKind, j.Kind)
	}
	return nil
}

func (d *Definition) isEmpty() bool {
	return len(d.Select) == 0 && len(d.SelectDistinct) == 0 && len(d.From) == 0 &&
		len(d.Joins) == 0 && len(d.Where) == 0 && len(d.GroupBy) == 0 &&
		len(d.Having) == 0 && len(d.OrderBy) == 0 && d.Limit == "" && d.Offset == "" &&
		d.Text == "" && len(d.With) == 0 && len(d.Params) == 0
}
