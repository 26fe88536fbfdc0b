// Package internal holds helpers shared by the SQL credential store backends.
package internal

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrNoTable is returned when the credential table has not been created.
var ErrNoTable = errors.New("table does not exist")

// Column describes one column of a live or expected table.
type Column struct {
	Name     string
	Type     string
	Nullable bool
}

// UsersColumns is the credential table layout: name and password, both nullable text.
var UsersColumns = []Column{
	{Name: "name", Type: "text", Nullable: true},
	{Name: "password", Type: "text", Nullable: true},
}

// SchemaError lists every difference between the expected and live columns.
type SchemaError struct {
	Table      string
	Missing    []string
	Unexpected []string
	Mismatched []string
}

func (e *SchemaError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing columns: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Unexpected) > 0 {
		parts = append(parts, "unexpected columns: "+strings.Join(e.Unexpected, ", "))
	}
	parts = append(parts, e.Mismatched...)
	return fmt.Sprintf("table %s does not match the credential layout: %s", e.Table, strings.Join(parts, "; "))
}

// CompareColumns checks live against want by column name. An empty live set means
// the table is absent and yields ErrNoTable. Type names compare case-insensitively.
func CompareColumns(table string, want, live []Column) error {
	if len(live) == 0 {
		return fmt.Errorf("%w: %s", ErrNoTable, table)
	}

	found := make(map[string]Column, len(live))
	for _, c := range live {
		found[c.Name] = c
	}

	e := &SchemaError{Table: table}
	for _, w := range want {
		got, ok := found[w.Name]
		if !ok {
			e.Missing = append(e.Missing, w.Name)
			continue
		}
		delete(found, w.Name)

		if gotType := strings.ToLower(got.Type); gotType != w.Type {
			e.Mismatched = append(e.Mismatched, fmt.Sprintf("%s: expected %s, got %s", w.Name, w.Type, gotType))
		}
		if got.Nullable != w.Nullable {
			e.Mismatched = append(e.Mismatched, fmt.Sprintf("%s: expected nullable=%v, got nullable=%v", w.Name, w.Nullable, got.Nullable))
		}
	}
	for name := range found {
		e.Unexpected = append(e.Unexpected, name)
	}
	slices.Sort(e.Unexpected)

	if len(e.Missing) == 0 && len(e.Unexpected) == 0 && len(e.Mismatched) == 0 {
		return nil
	}
	return e
}
