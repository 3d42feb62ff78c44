package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/datahub-inc/datahub-engine/pkg/database"
	"github.com/datahub-inc/datahub-engine/pkg/services"
)

// IngestHandler accepts events from the edge pipeline. Redelivered events
// answer 200 instead of 201 so the pipeline can tell dedup from storage.
type IngestHandler struct {
	router *database.Router
	ingest *services.IngestService
	logger *zap.Logger
}

// NewIngestHandler creates a new IngestHandler.
func NewIngestHandler(router *database.Router, ingest *services.IngestService, logger *zap.Logger) *IngestHandler {
	return &IngestHandler{router: router, ingest: ingest, logger: logger}
}

// Deliveries handles POST /api/v1/{tenant}/ingest/deliveries.
func (h *IngestHandler) Deliveries(w http.ResponseWriter, r *http.Request) {
	p, ok := resolvePartition(w, r, h.router, h.logger)
	if !ok {
		return
	}

	var ev services.DeliveryEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		BadRequest(w, "invalid delivery event: "+err.Error(), h.logger)
		return
	}

	created, err := h.ingest.IngestDelivery(r.Context(), p, ev)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteData(w, storedStatus(created), map[string]any{"delivery_id": ev.DeliveryID, "created": created}, h.logger)
}

// Alarms handles POST /api/v1/{tenant}/ingest/alarms.
func (h *IngestHandler) Alarms(w http.ResponseWriter, r *http.Request) {
	p, ok := resolvePartition(w, r, h.router, h.logger)
	if !ok {
		return
	}

	var ev services.AlarmEvent
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		BadRequest(w, "invalid alarm event: "+err.Error(), h.logger)
		return
	}

	created, err := h.ingest.IngestAlarm(r.Context(), p, ev)
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteData(w, storedStatus(created), map[string]any{"created": created}, h.logger)
}

func storedStatus(created bool) int {
	if created {
		return http.StatusCreated
	}
	return http.StatusOK
}
