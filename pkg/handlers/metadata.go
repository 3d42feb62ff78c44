package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/datahub-inc/datahub-engine/pkg/database"
	"github.com/datahub-inc/datahub-engine/pkg/models"
	"github.com/datahub-inc/datahub-engine/pkg/services"
)

// MetadataHandler serves the resolved table metadata the dashboard renders
// its controls from.
type MetadataHandler struct {
	router  *database.Router
	schemas *services.MetadataEngine
	logger  *zap.Logger
}

// NewMetadataHandler creates a new MetadataHandler.
func NewMetadataHandler(router *database.Router, schemas *services.MetadataEngine, logger *zap.Logger) *MetadataHandler {
	return &MetadataHandler{router: router, schemas: schemas, logger: logger}
}

// ListTables handles GET /api/v1/{tenant}/tables.
func (h *MetadataHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	p, ok := resolvePartition(w, r, h.router, h.logger)
	if !ok {
		return
	}

	tables, err := h.schemas.ListActiveTables(r.Context(), p)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}

	names := make([]string, 0, len(tables))
	for _, t := range tables {
		names = append(names, t.Name)
	}
	WriteData(w, http.StatusOK, map[string]any{"tables": names}, h.logger)
}

// schemaResponse renders an effective schema with the row key the dashboard
// identifies records by.
type schemaResponse struct {
	*models.EffectiveSchema
	PrimaryKey string `json:"primary_key"`
}

func newSchemaResponse(schema *models.EffectiveSchema) schemaResponse {
	return schemaResponse{EffectiveSchema: schema, PrimaryKey: schema.PrimaryKey()}
}

// GetSchema handles GET /api/v1/{tenant}/tables/{table_type}.
func (h *MetadataHandler) GetSchema(w http.ResponseWriter, r *http.Request) {
	p, ok := resolvePartition(w, r, h.router, h.logger)
	if !ok {
		return
	}

	schema, _, err := h.schemas.ResolveSchema(r.Context(), p, r.PathValue("table_type"), r.URL.Query().Get("language"))
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteData(w, http.StatusOK, newSchemaResponse(schema), h.logger)
}
