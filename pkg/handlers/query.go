package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/datahub-inc/datahub-engine/pkg/database"
	"github.com/datahub-inc/datahub-engine/pkg/services"
)

// QueryHandler serves collection queries and the per-delivery flag report.
type QueryHandler struct {
	router  *database.Router
	queries *services.QueryService
	logger  *zap.Logger
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(router *database.Router, queries *services.QueryService, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{router: router, queries: queries, logger: logger}
}

// Records handles GET /api/v1/{tenant}/tables/{table_type}/records.
func (h *QueryHandler) Records(w http.ResponseWriter, r *http.Request) {
	p, ok := resolvePartition(w, r, h.router, h.logger)
	if !ok {
		return
	}

	req, err := ParseCollectionQuery(r)
	if err != nil {
		BadRequest(w, err.Error(), h.logger)
		return
	}

	col, err := h.queries.Query(r.Context(), p, req)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteCollection(w, col, h.logger)
}

// FlagReport handles GET /api/v1/{tenant}/deliveries/{delivery_id}/flags.
func (h *QueryHandler) FlagReport(w http.ResponseWriter, r *http.Request) {
	p, ok := resolvePartition(w, r, h.router, h.logger)
	if !ok {
		return
	}

	report, err := h.queries.FlagReport(r.Context(), p, r.PathValue("delivery_id"), r.URL.Query().Get("language"))
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteData(w, http.StatusOK, map[string]any{"flags": report}, h.logger)
}
