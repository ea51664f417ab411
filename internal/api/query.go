package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/JonMunkholm/nlquery/internal/database"
	apperr "github.com/JonMunkholm/nlquery/internal/errors"
	"github.com/JonMunkholm/nlquery/internal/observability"
)

type queryRequest struct {
	Query string `json:"query"`
}

type executeRequest struct {
	SQLQuery string `json:"sql_query"`
}

type queryResponse struct {
	Success  bool              `json:"success"`
	SQLQuery string            `json:"sql_query,omitempty"`
	Results  []database.Record `json:"results"`
	Count    int               `json:"count"`
	Columns  []string          `json:"columns"`
}

func newQueryResponse(sql string, result database.Result) queryResponse {
	resp := queryResponse{
		Success:  true,
		SQLQuery: sql,
		Results:  result.Records,
		Count:    result.Count(),
		Columns:  result.Columns,
	}
	if resp.Results == nil {
		resp.Results = []database.Record{}
	}
	if resp.Columns == nil {
		resp.Columns = []string{}
	}
	return resp
}

func (h *handler) handleQuery(w http.ResponseWriter, r *http.Request) {
	defer h.guard(w, r, "Server error: ", errorBody)

	var req queryRequest
	decodeJSON(r, &req)
	question := strings.TrimSpace(req.Query)
	if question == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Query is required"})
		return
	}

	ctx := r.Context()
	if !h.gateway.Ping(ctx) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Database connection lost. Please reconnect."})
		return
	}

	s, err := h.loadSchema(r)
	if err != nil || s.Empty() {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "No database schema available"})
		return
	}

	if h.synthesizer == nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "SQL generation is not configured"})
		return
	}

	start := time.Now()
	synthesis, err := h.synthesizer.Synthesize(ctx, question, s, h.gateway.Dialect())
	observability.ObserveSynthesis(h.synthesizer.ProviderName(), synthesis.Tokens, time.Since(start), err)
	if err != nil {
		h.logFailure(r, "synthesize", err)
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: apperr.MessageOf(err)})
		return
	}
	if synthesis.SQL == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Failed to generate SQL query"})
		return
	}

	result, err := h.execute(r, synthesis.SQL)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:        "SQL execution error: " + apperr.MessageOf(err),
			GeneratedSQL: synthesis.SQL,
		})
		return
	}
	writeJSON(w, http.StatusOK, newQueryResponse(synthesis.SQL, result))
}

func (h *handler) handleExecuteSQL(w http.ResponseWriter, r *http.Request) {
	defer h.guard(w, r, "Server error: ", errorBody)

	var req executeRequest
	decodeJSON(r, &req)
	query := strings.TrimSpace(req.SQLQuery)
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "SQL query is required"})
		return
	}

	if !h.gateway.Ping(r.Context()) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Database connection lost"})
		return
	}

	result, err := h.execute(r, query)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:    "SQL execution error: " + apperr.MessageOf(err),
			SQLQuery: query,
		})
		return
	}
	writeJSON(w, http.StatusOK, newQueryResponse("", result))
}

func (h *handler) execute(r *http.Request, query string) (database.Result, error) {
	start := time.Now()
	result, err := h.gateway.Execute(r.Context(), query)
	observability.ObserveExecution(string(h.gateway.Dialect()), result.Count(), time.Since(start), err)
	if err != nil {
		h.logFailure(r, "execute", err)
	}
	return result, err
}
