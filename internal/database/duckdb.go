package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"

	"github.com/JonMunkholm/nlquery/internal/dsn"
	"github.com/JonMunkholm/nlquery/internal/schema"
)

type duckdbDialect struct{}

func (duckdbDialect) Name() dsn.Dialect { return dsn.DuckDB }

func (duckdbDialect) Open(desc dsn.Descriptor) (*sql.DB, error) {
	path := desc.Database
	if path == dsn.MemoryDatabase {
		path = ""
	}
	connector, err := duckdb.NewConnector(fileDSN(path, desc.Params), nil)
	if err != nil {
		return nil, fmt.Errorf("duckdb connector: %w", err)
	}
	return sql.OpenDB(connector), nil
}

const duckdbColumnsQuery = `
		SELECT
			c.column_name,
			c.data_type,
			c.is_nullable = 'YES' AS nullable,
			EXISTS (
				SELECT 1
				FROM duckdb_constraints() k
				WHERE k.constraint_type = 'PRIMARY KEY'
				  AND k.schema_name = c.table_schema
				  AND k.table_name = c.table_name
				  AND list_contains(k.constraint_column_names, c.column_name)
			) AS is_pk,
			c.column_default
		FROM information_schema.columns c
		WHERE c.table_schema = current_schema()
		  AND c.table_name = ?
		ORDER BY c.ordinal_position`

func (duckdbDialect) ListTables(ctx context.Context, q queryer) ([]string, error) {
	return queryStrings(ctx, q, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = current_schema()
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name`)
}

func (duckdbDialect) ListColumns(ctx context.Context, q queryer, table string) ([]schema.Column, error) {
	rows, err := q.QueryContext(ctx, duckdbColumnsQuery, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var (
			col schema.Column
			def sql.NullString
		)
		if err := rows.Scan(&col.Name, &col.Type, &col.Nullable, &col.IsPK, &def); err != nil {
			return nil, err
		}
		col.Default = nullableString(def)
		columns = append(columns, col)
	}
	return columns, rows.Err()
}
