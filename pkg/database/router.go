package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	_ "github.com/jackc/pgx/v5/stdlib" // database/sql driver for migrations
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/datahub-inc/datahub-engine/pkg/apperrors"
	"github.com/datahub-inc/datahub-engine/pkg/config"
	"github.com/datahub-inc/datahub-engine/pkg/models"
)

const tenantCacheTTL = 5 * time.Minute

// TenantStore is the control-plane persistence the router depends on.
// Implemented by repositories.TenantRepository.
type TenantStore interface {
	GetByDomain(ctx context.Context, domain string) (*models.Tenant, error)
	ListDomains(ctx context.Context) ([]string, error)
	ListActive(ctx context.Context) ([]*models.Tenant, error)
	Upsert(ctx context.Context, tenant *models.Tenant) error
}

// SeedFunc populates the global catalog of a freshly migrated partition.
// Must be idempotent; provisioning re-runs it on every call.
type SeedFunc func(ctx context.Context, p *Partition) error

// ProvisionRequest describes the tenant to provision.
type ProvisionRequest struct {
	TenantID        string
	TenantName      string
	Location        string
	Domain          string
	DefaultLanguage string
	Timezone        string
}

// Router resolves the physical partition for a tenant and provisions new
// partitions on demand. The registry of open partitions is shared mutable
// state; all access is synchronized, and provisioning is deduplicated with a
// per-partition-name lock so two concurrent calls for the same tenant cannot
// double-create.
type Router struct {
	mu         sync.RWMutex
	partitions map[string]*Partition

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex

	control    *DB
	dbCfg      *config.DatabaseConfig
	tenants    TenantStore
	cache      *redis.Client // nil disables tenant-lookup caching
	seed       SeedFunc      // nil disables catalog seeding
	tenantMigr string
	logger     *zap.Logger
}

// NewRouter creates a storage router over the given control-plane database.
func NewRouter(control *DB, dbCfg *config.DatabaseConfig, tenants TenantStore, cache *redis.Client, seed SeedFunc, tenantMigrationsDir string, logger *zap.Logger) *Router {
	return &Router{
		partitions: make(map[string]*Partition),
		locks:      make(map[string]*sync.Mutex),
		control:    control,
		dbCfg:      dbCfg,
		tenants:    tenants,
		cache:      cache,
		seed:       seed,
		tenantMigr: tenantMigrationsDir,
		logger:     logger,
	}
}

// Resolve returns the partition handle for the tenant owning the given
// domain. Resolving an unknown domain is a NotFound error, never an implicit
// provision. Safe for concurrent use across and within tenants.
func (r *Router) Resolve(ctx context.Context, domain string) (*Partition, error) {
	tenant, err := r.lookupTenant(ctx, domain)
	if err != nil {
		return nil, err
	}

	name := tenant.PartitionName()

	r.mu.RLock()
	p, ok := r.partitions[name]
	r.mu.RUnlock()
	if ok {
		return p, nil
	}

	// Partition not open in this process yet: attach to the existing
	// database. This is not provisioning - a missing database stays NotFound.
	return r.attach(ctx, tenant)
}

// Provision creates the tenant's partition, migrates it to the latest schema
// version, records the tenant in the control plane, seeds the catalog and
// finally registers the open partition. Idempotent: an existing database is
// only re-migrated and re-registered. A failure before registration leaves
// no dangling registry entry.
func (r *Router) Provision(ctx context.Context, req ProvisionRequest) (*Partition, error) {
	tenant := &models.Tenant{
		TenantID:        req.TenantID,
		TenantName:      req.TenantName,
		Location:        req.Location,
		Domain:          req.Domain,
		DefaultLanguage: req.DefaultLanguage,
		Timezone:        req.Timezone,
		IsActive:        true,
	}

	name := tenant.PartitionName()
	if err := models.ValidatePartitionName(name); err != nil {
		return nil, &apperrors.ProvisioningError{Step: "create", Tenant: req.TenantID, Err: err}
	}

	lock := r.partitionLock(name)
	lock.Lock()
	defer lock.Unlock()

	exists, err := r.databaseExists(ctx, name)
	if err != nil {
		return nil, &apperrors.ProvisioningError{Step: "create", Tenant: req.TenantID, Err: err}
	}
	if !exists {
		if err := r.createDatabase(ctx, name); err != nil {
			return nil, &apperrors.ProvisioningError{Step: "create", Tenant: req.TenantID, Err: err}
		}
		r.logger.Info("Created partition database", zap.String("partition", name))
	} else {
		r.logger.Info("Partition database already exists, skipping creation", zap.String("partition", name))
	}

	// Schema migration runs synchronously before first use; failures are
	// surfaced to the administrative caller, not retried.
	if err := r.migratePartition(name); err != nil {
		return nil, &apperrors.ProvisioningError{Step: "migrate", Tenant: req.TenantID, Err: err}
	}

	p, reused, err := r.openPartition(ctx, name, tenant)
	if err != nil {
		return nil, &apperrors.ProvisioningError{Step: "register", Tenant: req.TenantID, Err: err}
	}

	// The control row is written before seeding so the seed sees the
	// tenant's assigned id. A seed failure leaves the row behind; the next
	// Provision call repairs the partition.
	if err := r.tenants.Upsert(ctx, tenant); err != nil {
		if !reused {
			p.Close()
		}
		return nil, &apperrors.ProvisioningError{Step: "register", Tenant: req.TenantID, Err: err}
	}
	r.invalidateTenant(ctx, tenant.Domain)

	if r.seed != nil {
		if err := r.seed(ctx, p); err != nil {
			if !reused {
				p.Close()
			}
			return nil, &apperrors.ProvisioningError{Step: "seed", Tenant: req.TenantID, Err: err}
		}
	}

	r.mu.Lock()
	r.partitions[name] = p
	r.mu.Unlock()

	r.logger.Info("Provisioned tenant",
		zap.String("tenant_id", tenant.TenantID),
		zap.String("domain", tenant.Domain),
		zap.String("partition", name))
	return p, nil
}

// OpenActive attaches all active tenants' partitions at startup so the first
// request does not pay the connection cost.
func (r *Router) OpenActive(ctx context.Context) error {
	tenants, err := r.tenants.ListActive(ctx)
	if err != nil {
		return fmt.Errorf("failed to list active tenants: %w", err)
	}

	for _, tenant := range tenants {
		if _, err := r.attach(ctx, tenant); err != nil {
			r.logger.Warn("Failed to open tenant partition",
				zap.String("tenant_id", tenant.TenantID), zap.Error(err))
		}
	}
	return nil
}

// OpenPartitions reports how many partition pools are currently open.
func (r *Router) OpenPartitions() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.partitions)
}

// Close closes every open partition pool.
func (r *Router) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, p := range r.partitions {
		p.Close()
		delete(r.partitions, name)
	}
}

// attach opens the pool for an already-provisioned partition and registers
// it. The database must exist; attach never creates or migrates.
func (r *Router) attach(ctx context.Context, tenant *models.Tenant) (*Partition, error) {
	name := tenant.PartitionName()

	lock := r.partitionLock(name)
	lock.Lock()
	defer lock.Unlock()

	r.mu.RLock()
	p, ok := r.partitions[name]
	r.mu.RUnlock()
	if ok {
		return p, nil
	}

	exists, err := r.databaseExists(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to check partition %s: %w", name, err)
	}
	if !exists {
		return nil, apperrors.NewNotFound("partition", name)
	}

	p, _, err = r.openPartition(ctx, name, tenant)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.partitions[name] = p
	r.mu.Unlock()
	return p, nil
}

// openPartition returns the registered partition if one exists, otherwise
// opens a fresh pool. reused reports whether the pool was already open, so
// callers know not to close it on a later failure.
func (r *Router) openPartition(ctx context.Context, name string, tenant *models.Tenant) (p *Partition, reused bool, err error) {
	r.mu.RLock()
	p, ok := r.partitions[name]
	r.mu.RUnlock()
	if ok {
		p.Tenant = tenant
		return p, true, nil
	}

	db, err := NewConnection(ctx, &PoolConfig{
		URL:            r.dbCfg.ConnectionStringFor(name),
		MaxConnections: r.dbCfg.MaxConnections,
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to open partition %s: %w", name, err)
	}

	return &Partition{Name: name, Tenant: tenant, Pool: db.Pool}, false, nil
}

func (r *Router) partitionLock(name string) *sync.Mutex {
	r.lockMu.Lock()
	defer r.lockMu.Unlock()
	lock, ok := r.locks[name]
	if !ok {
		lock = &sync.Mutex{}
		r.locks[name] = lock
	}
	return lock
}

func (r *Router) databaseExists(ctx context.Context, name string) (bool, error) {
	var one int
	err := r.control.QueryRow(ctx, "SELECT 1 FROM pg_database WHERE datname = $1", name).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *Router) createDatabase(ctx context.Context, name string) error {
	// CREATE DATABASE cannot be parameterized; the name has been validated
	// against the identifier pattern and is quoted here.
	_, err := r.control.Exec(ctx, fmt.Sprintf("CREATE DATABASE %s", pgx.Identifier{name}.Sanitize()))
	return err
}

func (r *Router) migratePartition(name string) error {
	db, err := sql.Open("pgx", r.dbCfg.ConnectionStringFor(name))
	if err != nil {
		return fmt.Errorf("failed to open partition for migration: %w", err)
	}
	defer db.Close()

	return RunMigrations(db, r.tenantMigr, r.logger)
}

// lookupTenant finds the tenant by domain, consulting the Redis cache first
// when configured. Tenants are created once and rarely mutated, so a short
// TTL cache of the control row is safe; effective schemas are never cached.
func (r *Router) lookupTenant(ctx context.Context, domain string) (*models.Tenant, error) {
	if tenant := r.cachedTenant(ctx, domain); tenant != nil {
		return tenant, nil
	}

	tenant, err := r.tenants.GetByDomain(ctx, domain)
	if err != nil {
		return nil, fmt.Errorf("failed to look up tenant %s: %w", domain, err)
	}
	if tenant == nil || !tenant.IsActive {
		domains, listErr := r.tenants.ListDomains(ctx)
		if listErr != nil {
			r.logger.Warn("Failed to list tenant domains", zap.Error(listErr))
		}
		return nil, apperrors.NewNotFound("tenant", domain, domains...)
	}

	r.cacheTenant(ctx, tenant)
	return tenant, nil
}

func tenantCacheKey(domain string) string {
	return "tenant:domain:" + domain
}

func (r *Router) cachedTenant(ctx context.Context, domain string) *models.Tenant {
	if r.cache == nil {
		return nil
	}
	raw, err := r.cache.Get(ctx, tenantCacheKey(domain)).Bytes()
	if err != nil {
		return nil
	}
	var tenant models.Tenant
	if err := json.Unmarshal(raw, &tenant); err != nil {
		return nil
	}
	return &tenant
}

func (r *Router) cacheTenant(ctx context.Context, tenant *models.Tenant) {
	if r.cache == nil {
		return
	}
	raw, err := json.Marshal(tenant)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, tenantCacheKey(tenant.Domain), raw, tenantCacheTTL).Err(); err != nil {
		r.logger.Warn("Failed to cache tenant", zap.String("domain", tenant.Domain), zap.Error(err))
	}
}

func (r *Router) invalidateTenant(ctx context.Context, domain string) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Del(ctx, tenantCacheKey(domain)).Err(); err != nil {
		r.logger.Warn("Failed to invalidate tenant cache", zap.String("domain", domain), zap.Error(err))
	}
}
