package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/datahub-inc/datahub-engine/pkg/apperrors"
	"github.com/datahub-inc/datahub-engine/pkg/database"
	"github.com/datahub-inc/datahub-engine/pkg/metrics"
	"github.com/datahub-inc/datahub-engine/pkg/models"
)

// Provisioner validates administrative provisioning requests and drives the
// storage router. Tenant defaults (language, timezone) are applied here so
// the router only ever sees complete requests.
type Provisioner struct {
	router          *database.Router
	defaultTimezone string
	logger          *zap.Logger
}

// NewProvisioner creates a new Provisioner.
func NewProvisioner(router *database.Router, defaultTimezone string, logger *zap.Logger) *Provisioner {
	return &Provisioner{router: router, defaultTimezone: defaultTimezone, logger: logger}
}

// Provision creates or refreshes the tenant's partition and returns its
// control-plane record. Idempotent per the router contract.
func (s *Provisioner) Provision(ctx context.Context, req database.ProvisionRequest) (*models.Tenant, error) {
	if req.TenantID == "" {
		return nil, apperrors.NewValidation("tenant_id", "required")
	}
	if req.TenantName == "" {
		return nil, apperrors.NewValidation("tenant_name", "required")
	}
	if req.Domain == "" {
		return nil, apperrors.NewValidation("domain", "required")
	}
	if req.DefaultLanguage == "" {
		req.DefaultLanguage = fallbackLanguage
	}
	if req.Timezone == "" {
		req.Timezone = s.defaultTimezone
	}
	if err := models.ValidatePartitionName(models.PartitionNameFor(req.TenantName)); err != nil {
		return nil, apperrors.NewValidation("tenant_name", err.Error())
	}

	p, err := s.router.Provision(ctx, req)
	if err != nil {
		metrics.ProvisionsTotal.WithLabelValues("failed").Inc()
		var perr *apperrors.ProvisioningError
		if errors.As(err, &perr) {
			s.logger.Error("Provisioning failed",
				zap.String("tenant_id", req.TenantID),
				zap.String("step", perr.Step),
				zap.Error(perr.Err))
		}
		return nil, err
	}

	metrics.ProvisionsTotal.WithLabelValues("ok").Inc()
	return p.Tenant, nil
}
