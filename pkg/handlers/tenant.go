package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/datahub-inc/datahub-engine/pkg/database"
)

// resolvePartition maps the {tenant} path value (the tenant's domain) to its
// partition handle. On failure the error envelope has already been written.
func resolvePartition(w http.ResponseWriter, r *http.Request, router *database.Router, logger *zap.Logger) (*database.Partition, bool) {
	domain := r.PathValue("tenant")
	if domain == "" {
		BadRequest(w, "missing tenant domain", logger)
		return nil, false
	}

	p, err := router.Resolve(r.Context(), domain)
	if err != nil {
		WriteError(w, err, logger)
		return nil, false
	}
	return p, true
}
