package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/lib/pq"

	"github.com/JonMunkholm/nlquery/internal/dsn"
	"github.com/JonMunkholm/nlquery/internal/schema"
)

type postgresDialect struct{}

func (postgresDialect) Name() dsn.Dialect { return dsn.PostgreSQL }

func (postgresDialect) Open(desc dsn.Descriptor) (*sql.DB, error) {
	connector, err := pq.NewConnector(postgresDSN(desc))
	if err != nil {
		return nil, fmt.Errorf("postgres connector: %w", err)
	}
	return sql.OpenDB(connector), nil
}

// postgresDSN defaults sslmode to disable and the client encoding to UTF8.
func postgresDSN(desc dsn.Descriptor) string {
	params := url.Values{}
	params.Set("sslmode", "disable")
	params.Set("client_encoding", "UTF8")
	for k, v := range desc.Params {
		params.Set(k, v)
	}

	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(desc.Host, strconv.Itoa(desc.Port)),
		Path:     "/" + desc.Database,
		RawQuery: params.Encode(),
	}
	if desc.User != "" {
		if desc.Password != "" {
			u.User = url.UserPassword(desc.User, desc.Password)
		} else {
			u.User = url.User(desc.User)
		}
	}
	return u.String()
}

const postgresTablesQuery = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = current_schema()
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name`

const postgresColumnsQuery = `
		SELECT
			c.column_name,
			CASE
				WHEN c.character_maximum_length IS NOT NULL
					THEN c.data_type || '(' || c.character_maximum_length || ')'
				ELSE c.data_type
			END AS column_type,
			c.is_nullable = 'YES' AS nullable,
			EXISTS (
				SELECT 1
				FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu
					ON tc.constraint_name = kcu.constraint_name
					AND tc.table_schema = kcu.table_schema
					AND tc.table_name = kcu.table_name
				WHERE tc.constraint_type = 'PRIMARY KEY'
				  AND tc.table_schema = c.table_schema
				  AND tc.table_name = c.table_name
				  AND kcu.column_name = c.column_name
			) AS is_pk,
			c.column_default,
			CASE
				WHEN c.is_identity = 'YES' THEN 'identity'
				WHEN c.is_generated = 'ALWAYS' THEN 'generated'
				ELSE ''
			END AS extra
		FROM information_schema.columns c
		WHERE c.table_schema = current_schema()
		  AND c.table_name = $1
		ORDER BY c.ordinal_position`

func (postgresDialect) ListTables(ctx context.Context, q queryer) ([]string, error) {
	return queryStrings(ctx, q, postgresTablesQuery)
}

func (postgresDialect) ListColumns(ctx context.Context, q queryer, table string) ([]schema.Column, error) {
	rows, err := q.QueryContext(ctx, postgresColumnsQuery, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var (
			col   schema.Column
			def   sql.NullString
			extra string
		)
		if err := rows.Scan(&col.Name, &col.Type, &col.Nullable, &col.IsPK, &def, &extra); err != nil {
			return nil, err
		}
		col.Default = nullableString(def)
		col.Extra = nonEmpty(extra)
		columns = append(columns, col)
	}
	return columns, rows.Err()
}
