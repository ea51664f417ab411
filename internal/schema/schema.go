// Package schema provides the normalized database schema model used as LLM context.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Schema is an ordered set of tables, in introspection order.
type Schema struct {
	Tables []Table
}

// Table represents a database table and its columns in introspection order.
type Table struct {
	Name    string
	Columns []Column
}

// Column represents a table column.
type Column struct {
	Name     string  `json:"column"`
	Type     string  `json:"type"`
	Nullable bool    `json:"nullable"`
	IsPK     bool    `json:"primary_key"`
	Default  *string `json:"default"`
	Extra    *string `json:"extra"`
}

// Empty reports whether the schema has no tables.
func (s Schema) Empty() bool {
	return len(s.Tables) == 0
}

// TableCount returns the number of tables.
func (s Schema) TableCount() int {
	return len(s.Tables)
}

// TableNames returns table names in schema order.
func (s Schema) TableNames() []string {
	names := make([]string, len(s.Tables))
	for i, t := range s.Tables {
		names[i] = t.Name
	}
	return names
}

// Table looks up a table by exact name.
func (s Schema) Table(name string) (Table, bool) {
	for _, t := range s.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return Table{}, false
}

// ToText serializes the schema to the text block embedded in generation prompts.
func (s Schema) ToText() string {
	var sb strings.Builder
	for i, table := range s.Tables {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(tableToText(table))
	}
	return sb.String()
}

func tableToText(t Table) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("=== Table: `%s` ===\n", t.Name))
	for _, col := range t.Columns {
		sb.WriteString(fmt.Sprintf("  %s: %s", col.Name, col.Type))
		if col.Nullable {
			sb.WriteString(" NULL")
		} else {
			sb.WriteString(" NOT NULL")
		}
		if col.IsPK {
			sb.WriteString(" (PRIMARY KEY)")
		}
		if col.Default != nil && *col.Default != "" {
			sb.WriteString(" DEFAULT " + *col.Default)
		}
		if col.Extra != nil && *col.Extra != "" {
			sb.WriteString(" " + *col.Extra)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// MarshalJSON encodes the schema as an object keyed by table name, keeping
// table order.
func (s Schema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, t := range s.Tables {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(t.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')

		cols := t.Columns
		if cols == nil {
			cols = []Column{}
		}
		body, err := json.Marshal(cols)
		if err != nil {
			return nil, fmt.Errorf("marshal table %s: %w", t.Name, err)
		}
		buf.Write(body)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes the object form produced by MarshalJSON, keeping key order.
func (s *Schema) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		s.Tables = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("schema: expected object, got %v", tok)
	}

	var tables []Table
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("schema: expected table name, got %v", keyTok)
		}
		var cols []Column
		if err := dec.Decode(&cols); err != nil {
			return fmt.Errorf("schema: decode table %s: %w", name, err)
		}
		tables = append(tables, Table{Name: name, Columns: cols})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	s.Tables = tables
	return nil
}
