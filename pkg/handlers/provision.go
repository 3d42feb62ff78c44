package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/datahub-inc/datahub-engine/pkg/database"
	"github.com/datahub-inc/datahub-engine/pkg/services"
)

// ProvisionHandler is the administrative surface for creating tenants. It is
// mounted on its own path and expected to sit behind infrastructure-level
// access control, not the tenant read path.
type ProvisionHandler struct {
	provisioner *services.Provisioner
	logger      *zap.Logger
}

// NewProvisionHandler creates a new ProvisionHandler.
func NewProvisionHandler(provisioner *services.Provisioner, logger *zap.Logger) *ProvisionHandler {
	return &ProvisionHandler{provisioner: provisioner, logger: logger}
}

type provisionRequest struct {
	TenantID        string `json:"tenant_id"`
	TenantName      string `json:"tenant_name"`
	Location        string `json:"location,omitempty"`
	Domain          string `json:"domain"`
	DefaultLanguage string `json:"default_language,omitempty"`
	Timezone        string `json:"timezone,omitempty"`
}

// Provision handles POST /api/v1/admin/tenants.
func (h *ProvisionHandler) Provision(w http.ResponseWriter, r *http.Request) {
	var req provisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid provisioning request: "+err.Error(), h.logger)
		return
	}

	tenant, err := h.provisioner.Provision(r.Context(), database.ProvisionRequest{
		TenantID:        req.TenantID,
		TenantName:      req.TenantName,
		Location:        req.Location,
		Domain:          req.Domain,
		DefaultLanguage: req.DefaultLanguage,
		Timezone:        req.Timezone,
	})
	if err != nil {
		WriteError(w, err, h.logger)
		return
	}
	WriteData(w, http.StatusCreated, tenant, h.logger)
}
