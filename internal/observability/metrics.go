package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlquery_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	httpRequestDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nlquery_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	synthesisTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlquery_synthesis_total",
			Help: "Total number of SQL generation attempts by provider and outcome.",
		},
		[]string{"provider", "outcome"},
	)
	synthesisDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nlquery_synthesis_duration_seconds",
			Help:    "SQL generation latency including the provider call.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 60},
		},
		[]string{"provider"},
	)
	synthesisTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlquery_synthesis_tokens_total",
			Help: "Tokens reported by the generation provider.",
		},
		[]string{"provider"},
	)

	executionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "nlquery_query_executions_total",
			Help: "Total number of executed statements by dialect and outcome.",
		},
		[]string{"dialect", "outcome"},
	)
	executionDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "nlquery_query_execution_duration_seconds",
			Help:    "Statement execution latency including row materialization.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"dialect"},
	)
	executionRows = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "nlquery_query_result_rows",
			Help:    "Rows returned per successful statement.",
			Buckets: []float64{0, 1, 10, 100, 1000, 10000, 100000},
		},
	)

	databaseConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "nlquery_database_connected",
			Help: "1 when a database connection is held, 0 otherwise.",
		},
	)
	schemaTables = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "nlquery_schema_tables",
			Help: "Tables in the most recently introspected schema.",
		},
	)
	schemaLastRefresh = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "nlquery_schema_last_refresh_timestamp_seconds",
			Help: "Unix time of the last successful schema introspection.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDurationSeconds,
		synthesisTotal,
		synthesisDurationSeconds,
		synthesisTokensTotal,
		executionTotal,
		executionDurationSeconds,
		executionRows,
		databaseConnected,
		schemaTables,
		schemaLastRefresh,
	)
}

// MetricsHandler serves the default registry in the Prometheus text format.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}

// ObserveSynthesis records one SQL generation attempt. Tokens are added only
// when the provider reported a usage count.
func ObserveSynthesis(provider string, tokens int, elapsed time.Duration, err error) {
	synthesisTotal.WithLabelValues(provider, outcome(err)).Inc()
	synthesisDurationSeconds.WithLabelValues(provider).Observe(elapsed.Seconds())
	if tokens > 0 {
		synthesisTokensTotal.WithLabelValues(provider).Add(float64(tokens))
	}
}

// ObserveExecution records one statement run. An empty dialect is labelled
// "none"; row counts are observed for successful runs only.
func ObserveExecution(dialect string, rows int, elapsed time.Duration, err error) {
	if dialect == "" {
		dialect = "none"
	}
	executionTotal.WithLabelValues(dialect, outcome(err)).Inc()
	executionDurationSeconds.WithLabelValues(dialect).Observe(elapsed.Seconds())
	if err == nil {
		executionRows.Observe(float64(rows))
	}
}

// ObserveSchema records a successful introspection.
func ObserveSchema(tables int) {
	schemaTables.Set(float64(tables))
	schemaLastRefresh.SetToCurrentTime()
}

// SetDatabaseConnected sets the connection gauge.
func SetDatabaseConnected(connected bool) {
	if connected {
		databaseConnected.Set(1)
		return
	}
	databaseConnected.Set(0)
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
