package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"

	_ "github.com/mattn/go-sqlite3"

	"github.com/JonMunkholm/nlquery/internal/dsn"
	"github.com/JonMunkholm/nlquery/internal/schema"
)

type sqliteDialect struct{}

func (sqliteDialect) Name() dsn.Dialect { return dsn.SQLite }

func (sqliteDialect) Open(desc dsn.Descriptor) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", fileDSN(desc.Database, desc.Params))
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	return db, nil
}

func fileDSN(path string, params map[string]string) string {
	if len(params) == 0 {
		return path
	}
	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	return path + "?" + values.Encode()
}

func (sqliteDialect) ListTables(ctx context.Context, q queryer) ([]string, error) {
	return queryStrings(ctx, q, `
		SELECT name
		FROM sqlite_master
		WHERE type = 'table'
		  AND name NOT LIKE 'sqlite_%'
		ORDER BY name`)
}

func (sqliteDialect) ListColumns(ctx context.Context, q queryer, table string) ([]schema.Column, error) {
	rows, err := q.QueryContext(ctx, "PRAGMA table_info("+quoteIdent(table)+")")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var (
			cid, notNull, pk int
			name, colType    string
			def              sql.NullString
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &def, &pk); err != nil {
			return nil, err
		}
		columns = append(columns, schema.Column{
			Name:     name,
			Type:     colType,
			Nullable: notNull == 0 && pk == 0,
			IsPK:     pk > 0,
			Default:  nullableString(def),
		})
	}
	return columns, rows.Err()
}
