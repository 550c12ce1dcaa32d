package commands

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/gaborage/sqlbricks/database"
)

// renderedArg is the value bound at one placeholder ordinal.
type renderedArg struct {
	Ordinal int    `json:"ordinal"`
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Value   any    `json:"value"`
}

type renderedStatement struct {
	Vendor string        `json:"vendor"`
	SQL    string        `json:"sql"`
	Args   []renderedArg `json:"args"`
}

// newRenderedStatement lists the arguments of a built statement in ordinal order.
func newRenderedStatement(vendor, query string, stmt *database.Statement) renderedStatement {
	reg := stmt.Registry()
	args := make([]renderedArg, reg.Count())
	for _, name := range reg.Names() {
		ords, err := reg.Lookup(name)
		if err != nil {
			continue
		}
		value, _ := reg.Value(name)
		for _, ord := range ords {
			args[ord-1] = renderedArg{
				Ordinal: ord,
				Name:    name,
				Kind:    value.Kind().String(),
				Value:   value.Native(),
			}
		}
	}
	return renderedStatement{Vendor: vendor, SQL: query, Args: args}
}

func writeRenderedText(w io.Writer, r renderedStatement) error {
	_, _ = fmt.Fprintln(w, r.SQL)
	_, _ = fmt.Fprintln(w)

	if len(r.Args) == 0 {
		_, _ = fmt.Fprintln(w, "(no parameters)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"#", "name", "kind", "value"})
	for _, arg := range r.Args {
		t.AppendRow(table.Row{arg.Ordinal, arg.Name, arg.Kind, formatValue(arg.Value)})
	}
	t.Render()
	return nil
}

// writeRows renders every row of rows as a table or a JSON array of objects.
func writeRows(w io.Writer, rows *sql.Rows, format string) error {
	cols, err := rows.Columns()
	if err != nil {
		return err
	}

	var results []map[string]any
	for rows.Next() {
		values := make([]any, len(cols))
		valuePtrs := make([]any, len(cols))
		for i := range values {
			valuePtrs[i] = &values[i]
		}

		if err := rows.Scan(valuePtrs...); err != nil {
			return err
		}

		row := make(map[string]any, len(cols))
		for i, col := range cols {
			val := values[i]
			// Drivers may return text columns as bytes
			if b, ok := val.([]byte); ok {
				val = string(b)
			}
			row[col] = val
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	if format == outputJSON {
		if results == nil {
			results = []map[string]any{}
		}
		return writeJSON(w, results)
	}
	return writeTable(w, cols, results)
}

func writeTable(w io.Writer, cols []string, results []map[string]any) error {
	if len(results) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)

	header := make(table.Row, len(cols))
	for i, col := range cols {
		header[i] = col
	}
	t.AppendHeader(header)

	for _, result := range results {
		row := make(table.Row, len(cols))
		for i, col := range cols {
			row[i] = formatValue(result[col])
		}
		t.AppendRow(row)
	}

	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(results))
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func formatValue(v any) string {
	if v == nil {
		return "NULL"
	}
	return fmt.Sprintf("%v", v)
}
