package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/datahub-inc/datahub-engine/pkg/database"
	"github.com/datahub-inc/datahub-engine/pkg/models"
)

// TenantRepository provides control-plane access to tenant rows.
type TenantRepository interface {
	GetByDomain(ctx context.Context, domain string) (*models.Tenant, error)
	GetByTenantID(ctx context.Context, tenantID string) (*models.Tenant, error)
	ListDomains(ctx context.Context) ([]string, error)
	ListActive(ctx context.Context) ([]*models.Tenant, error)
	Upsert(ctx context.Context, tenant *models.Tenant) error
}

type tenantRepository struct {
	db *database.DB
}

// NewTenantRepository creates a TenantRepository over the control-plane
// database.
func NewTenantRepository(db *database.DB) TenantRepository {
	return &tenantRepository{db: db}
}

var _ TenantRepository = (*tenantRepository)(nil)
var _ database.TenantStore = (*tenantRepository)(nil)

func (r *tenantRepository) GetByDomain(ctx context.Context, domain string) (*models.Tenant, error) {
	query := `
		SELECT id, tenant_id, tenant_name, location, domain, default_language,
		       timezone, is_active, created_at, meta_info
		FROM wa_tenant
		WHERE domain = $1`

	return scanTenant(r.db.QueryRow(ctx, query, domain))
}

func (r *tenantRepository) GetByTenantID(ctx context.Context, tenantID string) (*models.Tenant, error) {
	query := `
		SELECT id, tenant_id, tenant_name, location, domain, default_language,
		       timezone, is_active, created_at, meta_info
		FROM wa_tenant
		WHERE tenant_id = $1`

	return scanTenant(r.db.QueryRow(ctx, query, tenantID))
}

func (r *tenantRepository) ListDomains(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT domain FROM wa_tenant ORDER BY domain`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenant domains: %w", err)
	}
	defer rows.Close()

	var domains []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan tenant domain: %w", err)
		}
		domains = append(domains, d)
	}
	return domains, rows.Err()
}

func (r *tenantRepository) ListActive(ctx context.Context) ([]*models.Tenant, error) {
	query := `
		SELECT id, tenant_id, tenant_name, location, domain, default_language,
		       timezone, is_active, created_at, meta_info
		FROM wa_tenant
		WHERE is_active
		ORDER BY tenant_id`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list active tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*models.Tenant
	for rows.Next() {
		tenant, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	return tenants, rows.Err()
}

// Upsert records the tenant in the control plane, keyed by the unique
// tenant_id. Re-provisioning an existing tenant refreshes its metadata and
// re-activates it without creating a second row.
func (r *tenantRepository) Upsert(ctx context.Context, tenant *models.Tenant) error {
	var metaInfo []byte
	if tenant.MetaInfo != nil {
		var err error
		metaInfo, err = json.Marshal(tenant.MetaInfo)
		if err != nil {
			return fmt.Errorf("failed to marshal tenant meta_info: %w", err)
		}
	}

	query := `
		INSERT INTO wa_tenant (
			tenant_id, tenant_name, location, domain, default_language,
			timezone, is_active, created_at, meta_info
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (tenant_id) DO UPDATE SET
			tenant_name = EXCLUDED.tenant_name,
			location = EXCLUDED.location,
			domain = EXCLUDED.domain,
			default_language = EXCLUDED.default_language,
			timezone = EXCLUDED.timezone,
			is_active = EXCLUDED.is_active,
			meta_info = EXCLUDED.meta_info
		RETURNING id, created_at`

	err := r.db.QueryRow(ctx, query,
		tenant.TenantID,
		tenant.TenantName,
		tenant.Location,
		tenant.Domain,
		tenant.DefaultLanguage,
		tenant.Timezone,
		tenant.IsActive,
		time.Now().UTC(),
		metaInfo,
	).Scan(&tenant.ID, &tenant.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert tenant: %w", err)
	}
	return nil
}

func scanTenant(row pgx.Row) (*models.Tenant, error) {
	var t models.Tenant
	var metaInfo []byte

	err := row.Scan(
		&t.ID,
		&t.TenantID,
		&t.TenantName,
		&t.Location,
		&t.Domain,
		&t.DefaultLanguage,
		&t.Timezone,
		&t.IsActive,
		&t.CreatedAt,
		&metaInfo,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil // tenant not found
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan tenant: %w", err)
	}

	if len(metaInfo) > 0 && string(metaInfo) != "null" {
		if err := json.Unmarshal(metaInfo, &t.MetaInfo); err != nil {
			return nil, fmt.Errorf("failed to unmarshal tenant meta_info: %w", err)
		}
	}

	return &t, nil
}
