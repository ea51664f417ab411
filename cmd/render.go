package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"

	"github.com/JonMunkholm/nlquery/internal/database"
	"github.com/JonMunkholm/nlquery/internal/schema"
)

func schemaTree(title string, s schema.Schema) pterm.TreeNode {
	root := pterm.TreeNode{Text: title}
	for _, t := range s.Tables {
		node := pterm.TreeNode{Text: t.Name}
		for _, c := range t.Columns {
			node.Children = append(node.Children, pterm.TreeNode{Text: columnLabel(c)})
		}
		root.Children = append(root.Children, node)
	}
	return root
}

func columnLabel(c schema.Column) string {
	parts := []string{c.Name, c.Type}
	if c.IsPK {
		parts = append(parts, "PK")
	}
	if !c.Nullable {
		parts = append(parts, "NOT NULL")
	}
	if c.Default != nil {
		parts = append(parts, "default="+*c.Default)
	}
	if c.Extra != nil {
		parts = append(parts, *c.Extra)
	}
	return strings.Join(parts, " ")
}

// resultTable lays out r with a header row, in column order.
func resultTable(r database.Result) pterm.TableData {
	data := pterm.TableData{append([]string(nil), r.Columns...)}
	for _, rec := range r.Records {
		row := make([]string, len(r.Columns))
		for i, col := range r.Columns {
			row[i] = formatCell(rec[col])
		}
		data = append(data, row)
	}
	return data
}

func formatCell(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}

// writeCSV writes r with a header row; NULL becomes an empty field.
func writeCSV(w io.Writer, r database.Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(r.Columns); err != nil {
		return err
	}
	for _, rec := range r.Records {
		row := make([]string, len(r.Columns))
		for i, col := range r.Columns {
			if v := rec[col]; v != nil {
				row[i] = formatCell(v)
			}
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
