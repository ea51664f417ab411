// Package api exposes the gateway and synthesizer as a JSON HTTP API.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/JonMunkholm/nlquery/internal/config"
	"github.com/JonMunkholm/nlquery/internal/database"
	"github.com/JonMunkholm/nlquery/internal/dsn"
	apperr "github.com/JonMunkholm/nlquery/internal/errors"
	"github.com/JonMunkholm/nlquery/internal/llm"
	"github.com/JonMunkholm/nlquery/internal/observability"
	"github.com/JonMunkholm/nlquery/internal/schema"
)

const maxBodyBytes = 1 << 20

// Gateway is the database session the handlers operate on.
type Gateway interface {
	Connect(ctx context.Context, descriptor string) error
	Schema(ctx context.Context) (schema.Schema, error)
	Execute(ctx context.Context, query string) (database.Result, error)
	Ping(ctx context.Context) bool
	Close() error
	Connected() bool
	Dialect() dsn.Dialect
}

// Synthesizer turns a question into a statement.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string, s schema.Schema, dialect dsn.Dialect) (llm.Synthesis, error)
	ProviderName() string
}

type Dependencies struct {
	Logger  *slog.Logger
	Gateway Gateway
	// Synthesizer may be nil when no generation provider is configured;
	// /api/query then answers 503.
	Synthesizer Synthesizer
}

type handler struct {
	gateway     Gateway
	synthesizer Synthesizer
	logger      *slog.Logger
}

func NewHandler(cfg config.Config, deps Dependencies) http.Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	h := &handler{
		gateway:     deps.Gateway,
		synthesizer: deps.Synthesizer,
		logger:      logger,
	}

	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(observability.TraceMiddleware)
	r.Use(observability.MetricsMiddleware)
	if deps.Logger != nil {
		r.Use(observability.LoggingMiddleware(deps.Logger))
	}
	r.Use(recoverJSON(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.HTTP.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Trace-ID"},
		ExposedHeaders: []string{"X-Trace-ID"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestSize(maxBodyBytes))

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Endpoint not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/connect", h.handleConnect)
		r.Post("/query", h.handleQuery)
		r.Get("/schema", h.handleSchema)
		r.Post("/execute-sql", h.handleExecuteSQL)
		r.Post("/disconnect", h.handleDisconnect)
		r.Get("/health", h.handleHealth)
	})
	r.Method(http.MethodGet, "/metrics", observability.MetricsHandler())

	return r
}

type errorResponse struct {
	Error        string `json:"error"`
	GeneratedSQL string `json:"generated_sql,omitempty"`
	SQLQuery     string `json:"sql_query,omitempty"`
}

type statusResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Schema  *schema.Schema `json:"schema,omitempty"`
}

// recoverJSON is the last-resort net for panics that escape a handler's own
// guard, e.g. from middleware.
func recoverJSON(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.ErrorContext(r.Context(), "unhandled panic",
					slog.String("trace_id", observability.TraceIDFromContext(r.Context())),
					slog.String("path", r.URL.Path),
					slog.Any("panic", rec),
				)
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// guard converts a panic inside a handler into a 500 whose message starts
// with prefix. Call it deferred.
func (h *handler) guard(w http.ResponseWriter, r *http.Request, prefix string, body func(msg string) any) {
	rec := recover()
	if rec == nil {
		return
	}
	if rec == http.ErrAbortHandler {
		panic(rec)
	}
	h.logger.ErrorContext(r.Context(), "handler panic",
		slog.String("trace_id", observability.TraceIDFromContext(r.Context())),
		slog.String("path", r.URL.Path),
		slog.Any("panic", rec),
	)
	writeJSON(w, http.StatusInternalServerError, body(fmt.Sprintf("%s%v", prefix, rec)))
}

// logFailure records an expected failure of one request stage, tagged with
// its error kind.
func (h *handler) logFailure(r *http.Request, stage string, err error) {
	h.logger.WarnContext(r.Context(), stage+" failed",
		slog.String("trace_id", observability.TraceIDFromContext(r.Context())),
		slog.String("kind", string(apperr.KindOf(err))),
		slog.String("error", dsn.Mask(err.Error())),
	)
}

func errorBody(msg string) any { return errorResponse{Error: msg} }

func failureBody(msg string) any { return statusResponse{Success: false, Message: msg} }

// decodeJSON decodes the request body into dst. Malformed or missing bodies
// leave dst zero so the caller's required-field check answers them.
func decodeJSON(r *http.Request, dst any) {
	if r.Body == nil {
		return
	}
	_ = json.NewDecoder(r.Body).Decode(dst)
}

// writeJSON encodes payload before committing status, so an unencodable
// payload still yields a JSON 500.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	body, err := json.Marshal(payload)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Error: "Internal server error"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n'))
}

// causeOf returns the underlying driver or provider message of a kind-tagged error.
func causeOf(err error) string {
	var e *apperr.E
	if errors.As(err, &e) && e.Err != nil {
		return e.Err.Error()
	}
	return err.Error()
}
