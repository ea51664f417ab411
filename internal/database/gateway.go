// Package database owns the single live database connection and exposes
// schema introspection and statement execution on top of it.
package database

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/JonMunkholm/nlquery/internal/dsn"
	apperr "github.com/JonMunkholm/nlquery/internal/errors"
	"github.com/JonMunkholm/nlquery/internal/schema"
)

const (
	msgNoConnection  = "No database connection"
	msgConnectFailed = "Failed to connect to database"
	msgSchemaFailed  = "Failed to retrieve schema"
)

// Gateway owns at most one open connection. All operations are serialized;
// concurrent Connect calls resolve last-writer-wins.
type Gateway struct {
	mu      sync.Mutex
	db      *sql.DB
	dialect dialect
	desc    dsn.Descriptor

	logger       *slog.Logger
	queryTimeout time.Duration
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithLogger sets the logger used for connection and execution failures.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gateway) {
		if logger != nil {
			g.logger = logger
		}
	}
}

// WithQueryTimeout bounds each Execute call. Zero disables the bound.
func WithQueryTimeout(d time.Duration) Option {
	return func(g *Gateway) {
		g.queryTimeout = d
	}
}

// NewGateway creates a disconnected gateway.
func NewGateway(opts ...Option) *Gateway {
	g := &Gateway{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Connect opens a connection for descriptor and replaces the current one.
// When opening fails the current connection is left untouched.
func (g *Gateway) Connect(ctx context.Context, descriptor string) error {
	desc, err := dsn.Parse(descriptor)
	if err != nil {
		g.logger.WarnContext(ctx, "database connect rejected", slog.Any("error", err))
		return apperr.Wrap(apperr.KindConnectivity, msgConnectFailed, err)
	}
	d, err := dialectFor(desc.Dialect)
	if err != nil {
		return apperr.Wrap(apperr.KindConnectivity, msgConnectFailed, err)
	}

	db, err := d.Open(desc)
	if err != nil {
		g.logger.WarnContext(ctx, "database open failed",
			slog.String("descriptor", desc.String()),
			slog.String("error", dsn.Mask(err.Error())),
		)
		return apperr.Wrap(apperr.KindConnectivity, msgConnectFailed, err)
	}
	// One connection, never pooled.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		g.logger.WarnContext(ctx, "database ping failed",
			slog.String("descriptor", desc.String()),
			slog.String("error", dsn.Mask(err.Error())),
		)
		return apperr.Wrap(apperr.KindConnectivity, msgConnectFailed, err)
	}

	g.mu.Lock()
	prev := g.db
	g.db, g.dialect, g.desc = db, d, desc
	g.mu.Unlock()

	if prev != nil {
		if err := prev.Close(); err != nil {
			g.logger.WarnContext(ctx, "closing replaced connection failed", slog.Any("error", err))
		}
	}
	g.logger.InfoContext(ctx, "database connected",
		slog.String("dialect", string(desc.Dialect)),
		slog.String("descriptor", desc.String()),
	)
	return nil
}

// Schema introspects the connected database. The returned schema is never
// partial: any failure yields an error and no schema.
func (g *Gateway) Schema(ctx context.Context) (schema.Schema, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.db == nil {
		return schema.Schema{}, apperr.New(apperr.KindConnectivity, msgNoConnection)
	}

	s, err := introspect(ctx, g.db, g.dialect)
	if err != nil {
		g.logger.ErrorContext(ctx, "schema introspection failed",
			slog.String("dialect", string(g.desc.Dialect)),
			slog.Any("error", err),
		)
		return schema.Schema{}, apperr.Wrap(apperr.KindIntrospection, msgSchemaFailed, err)
	}
	return s, nil
}

// Execute runs query and materializes every row. Statements are never
// retried and no partial rows are returned.
func (g *Gateway) Execute(ctx context.Context, query string) (Result, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.db == nil {
		return Result{}, apperr.New(apperr.KindConnectivity, msgNoConnection)
	}

	if g.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.queryTimeout)
		defer cancel()
	}

	rows, err := g.db.QueryContext(ctx, query)
	if err != nil {
		g.logger.WarnContext(ctx, "query execution failed", slog.Any("error", err))
		return Result{}, apperr.Wrap(apperr.KindExecution, err.Error(), err)
	}
	defer rows.Close()

	result, err := collectRows(rows)
	if err != nil {
		g.logger.WarnContext(ctx, "query execution failed", slog.Any("error", err))
		return Result{}, apperr.Wrap(apperr.KindExecution, err.Error(), err)
	}
	return result, nil
}

// Ping reports whether the connection is alive. database/sql re-dials a
// dropped session on the next use, so a successful ping also reconnects.
func (g *Gateway) Ping(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.db == nil {
		return false
	}
	if err := g.db.PingContext(ctx); err != nil {
		g.logger.WarnContext(ctx, "database ping failed", slog.String("error", dsn.Mask(err.Error())))
		return false
	}
	return true
}

// Close closes and discards the connection. It is a no-op when disconnected.
func (g *Gateway) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.db == nil {
		return nil
	}
	err := g.db.Close()
	g.db, g.dialect, g.desc = nil, nil, dsn.Descriptor{}
	if err != nil {
		g.logger.Warn("database close failed", slog.Any("error", err))
		return apperr.Wrap(apperr.KindInternal, "Disconnect failed", err)
	}
	g.logger.Info("database disconnected")
	return nil
}

// Connected reports whether a connection is held. It does not probe it.
func (g *Gateway) Connected() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.db != nil
}

// Dialect returns the dialect of the current connection, or "" when disconnected.
func (g *Gateway) Dialect() dsn.Dialect {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.desc.Dialect
}
