package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/JonMunkholm/nlquery/internal/observability"
	"github.com/JonMunkholm/nlquery/internal/schema"
)

type connectRequest struct {
	ConnectionString string `json:"connection_string"`
}

type schemaResponse struct {
	Schema schema.Schema `json:"schema"`
}

type healthResponse struct {
	Status            string `json:"status"`
	DatabaseConnected bool   `json:"database_connected"`
}

func (h *handler) handleConnect(w http.ResponseWriter, r *http.Request) {
	defer h.guard(w, r, "Connection error: ", failureBody)

	var req connectRequest
	decodeJSON(r, &req)
	descriptor := strings.TrimSpace(req.ConnectionString)
	if descriptor == "" {
		writeJSON(w, http.StatusBadRequest, statusResponse{Message: "Connection string is required"})
		return
	}

	ctx := r.Context()
	err := h.gateway.Connect(ctx, descriptor)
	observability.SetDatabaseConnected(h.gateway.Connected())
	if err != nil {
		h.logFailure(r, "connect", err)
		writeJSON(w, http.StatusBadRequest, statusResponse{Message: "Failed to connect to database"})
		return
	}

	s, err := h.loadSchema(r)
	if err != nil || s.Empty() {
		writeJSON(w, http.StatusInternalServerError, statusResponse{Message: "Connected but failed to retrieve schema"})
		return
	}

	h.logger.InfoContext(ctx, "schema loaded",
		slog.String("dialect", string(h.gateway.Dialect())),
		slog.Any("tables", s.TableNames()),
	)
	writeJSON(w, http.StatusOK, statusResponse{
		Success: true,
		Message: fmt.Sprintf("Connected to %s database successfully", h.gateway.Dialect().DisplayName()),
		Schema:  &s,
	})
}

func (h *handler) handleSchema(w http.ResponseWriter, r *http.Request) {
	defer h.guard(w, r, "Schema error: ", errorBody)

	ctx := r.Context()
	if !h.gateway.Ping(ctx) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Database connection lost"})
		return
	}

	s, err := h.loadSchema(r)
	if err != nil || s.Empty() {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Failed to retrieve schema"})
		return
	}
	writeJSON(w, http.StatusOK, schemaResponse{Schema: s})
}

func (h *handler) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	defer h.guard(w, r, "Disconnect error: ", failureBody)

	err := h.gateway.Close()
	observability.SetDatabaseConnected(false)
	if err != nil {
		h.logFailure(r, "disconnect", err)
		writeJSON(w, http.StatusInternalServerError, statusResponse{Message: "Disconnect error: " + causeOf(err)})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Success: true, Message: "Disconnected from database"})
}

// loadSchema introspects the current connection and records the table count.
func (h *handler) loadSchema(r *http.Request) (schema.Schema, error) {
	s, err := h.gateway.Schema(r.Context())
	if err != nil {
		h.logFailure(r, "introspect", err)
		return s, err
	}
	observability.ObserveSchema(s.TableCount())
	return s, nil
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	connected := h.gateway.Ping(r.Context())
	observability.SetDatabaseConnected(connected)
	writeJSON(w, http.StatusOK, healthResponse{Status: "healthy", DatabaseConnected: connected})
}
