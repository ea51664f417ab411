package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/JonMunkholm/nlquery/internal/dsn"
	"github.com/JonMunkholm/nlquery/internal/schema"
)

// queryer is satisfied by *sql.DB, *sql.Conn and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// dialect captures the engine-specific parts of opening a connection and
// introspecting its schema.
type dialect interface {
	Name() dsn.Dialect
	Open(desc dsn.Descriptor) (*sql.DB, error)
	ListTables(ctx context.Context, q queryer) ([]string, error)
	ListColumns(ctx context.Context, q queryer, table string) ([]schema.Column, error)
}

func dialectFor(d dsn.Dialect) (dialect, error) {
	switch d {
	case dsn.MySQL:
		return mysqlDialect{}, nil
	case dsn.PostgreSQL:
		return postgresDialect{}, nil
	case dsn.SQLite:
		return sqliteDialect{}, nil
	case dsn.DuckDB:
		return duckdbDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported dialect %q", d)
	}
}

// introspect lists every table and then each table's columns. Any failure
// aborts the whole call; partial schemas are never returned.
func introspect(ctx context.Context, q queryer, d dialect) (schema.Schema, error) {
	names, err := d.ListTables(ctx, q)
	if err != nil {
		return schema.Schema{}, fmt.Errorf("list tables: %w", err)
	}

	tables := make([]schema.Table, 0, len(names))
	for _, name := range names {
		columns, err := d.ListColumns(ctx, q, name)
		if err != nil {
			return schema.Schema{}, fmt.Errorf("list columns for %s: %w", name, err)
		}
		tables = append(tables, schema.Table{Name: name, Columns: columns})
	}
	return schema.Schema{Tables: tables}, nil
}

func queryStrings(ctx context.Context, q queryer, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func nullableString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func quoteBacktick(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

func quoteIdent(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}
