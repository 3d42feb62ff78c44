package database

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/datahub-inc/datahub-engine/pkg/models"
)

// Partition is the resolved handle to one tenant's physical data store: the
// open connection pool plus the owning tenant's control-plane row. It is
// passed explicitly through the call chain for the duration of one request,
// never stored in ambient mutable state, so pooled workers serving different
// tenants can never read through a stale binding.
type Partition struct {
	Name   string
	Tenant *models.Tenant
	Pool   *pgxpool.Pool
}

// Close releases the partition's connection pool. Only the router closes
// partitions; request handlers just drop the handle.
func (p *Partition) Close() {
	if p.Pool != nil {
		p.Pool.Close()
	}
}
