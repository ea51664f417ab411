package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/JonMunkholm/nlquery/internal/dsn"
	"github.com/JonMunkholm/nlquery/internal/schema"
)

type mysqlDialect struct{}

func (mysqlDialect) Name() dsn.Dialect { return dsn.MySQL }

// Open builds a driver config with utf8mb4 and parsed DATETIME values.
// Autocommit is the server default and no transaction is ever started.
func (mysqlDialect) Open(desc dsn.Descriptor) (*sql.DB, error) {
	cfg, err := mysqlConfig(desc)
	if err != nil {
		return nil, fmt.Errorf("mysql config: %w", err)
	}
	connector, err := mysql.NewConnector(cfg)
	if err != nil {
		return nil, fmt.Errorf("mysql connector: %w", err)
	}
	return sql.OpenDB(connector), nil
}

// mysqlConfig maps a descriptor onto a driver config. The driver settings
// tls, timeout, parseTime and collation are honoured from the query string;
// any other parameter is passed through as a session variable.
func mysqlConfig(desc dsn.Descriptor) (*mysql.Config, error) {
	cfg := mysql.NewConfig()
	cfg.User = desc.User
	cfg.Passwd = desc.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(desc.Host, strconv.Itoa(desc.Port))
	cfg.DBName = desc.Database
	cfg.ParseTime = true
	cfg.Params = map[string]string{"charset": "utf8mb4"}

	for key, value := range desc.Params {
		switch key {
		case "tls":
			cfg.TLSConfig = value
		case "timeout":
			d, err := time.ParseDuration(value)
			if err != nil {
				return nil, fmt.Errorf("invalid timeout %q: %w", value, err)
			}
			cfg.Timeout = d
		case "parseTime":
			b, err := strconv.ParseBool(value)
			if err != nil {
				return nil, fmt.Errorf("invalid parseTime %q: %w", value, err)
			}
			cfg.ParseTime = b
		case "collation":
			cfg.Collation = value
		default:
			cfg.Params[key] = value
		}
	}
	return cfg, nil
}

func (mysqlDialect) ListTables(ctx context.Context, q queryer) ([]string, error) {
	return queryStrings(ctx, q, "SHOW TABLES")
}

func (mysqlDialect) ListColumns(ctx context.Context, q queryer, table string) ([]schema.Column, error) {
	rows, err := q.QueryContext(ctx, "SHOW COLUMNS FROM "+quoteBacktick(table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var columns []schema.Column
	for rows.Next() {
		var (
			field, colType, null, key, extra string
			def                              sql.NullString
		)
		if err := rows.Scan(&field, &colType, &null, &key, &def, &extra); err != nil {
			return nil, err
		}
		columns = append(columns, schema.Column{
			Name:     field,
			Type:     colType,
			Nullable: null == "YES",
			IsPK:     key == "PRI",
			Default:  nullableString(def),
			Extra:    &extra,
		})
	}
	return columns, rows.Err()
}
