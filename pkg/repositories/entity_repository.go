package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/datahub-inc/datahub-engine/pkg/database"
	"github.com/datahub-inc/datahub-engine/pkg/models"
)

// EntityRepository provides access to plant entities inside a partition.
type EntityRepository interface {
	// GetByUID finds the entity by its UID, scoped to the tenant. Entities
	// belonging to other tenants are invisible here.
	GetByUID(ctx context.Context, p *database.Partition, tenantID int64, entityUID string) (*models.PlantEntity, error)
	GetLocalization(ctx context.Context, p *database.Partition, entityID, languageID int64) (*models.Localization, error)
	EnsureEntity(ctx context.Context, p *database.Partition, tenantID int64, entityType, entityUID string) (*models.PlantEntity, error)
}

type entityRepository struct{}

// NewEntityRepository creates a new EntityRepository.
func NewEntityRepository() EntityRepository {
	return &entityRepository{}
}

var _ EntityRepository = (*entityRepository)(nil)

func (r *entityRepository) GetByUID(ctx context.Context, p *database.Partition, tenantID int64, entityUID string) (*models.PlantEntity, error) {
	query := `
		SELECT pe.id, pe.entity_type_id, pe.entity_uid, COALESCE(pe.description, '')
		FROM plant_entity pe
		JOIN entity_type et ON et.id = pe.entity_type_id
		WHERE pe.entity_uid = $1 AND et.tenant_id = $2`

	var e models.PlantEntity
	err := p.Pool.QueryRow(ctx, query, entityUID, tenantID).Scan(
		&e.ID, &e.EntityTypeID, &e.EntityUID, &e.Description,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get entity %s: %w", entityUID, err)
	}
	return &e, nil
}

func (r *entityRepository) GetLocalization(ctx context.Context, p *database.Partition, entityID, languageID int64) (*models.Localization, error) {
	return scanLocalization(p.Pool.QueryRow(ctx, `
		SELECT title, COALESCE(description, ''), ''
		FROM plant_entity_localization
		WHERE plant_entity_id = $1 AND language_id = $2`,
		entityID, languageID))
}

// EnsureEntity returns the entity with the given UID, creating it (and its
// entity type) on first reference. Ingestion uses this so events for a new
// gate do not fail.
func (r *entityRepository) EnsureEntity(ctx context.Context, p *database.Partition, tenantID int64, entityType, entityUID string) (*models.PlantEntity, error) {
	if existing, err := r.GetByUID(ctx, p, tenantID, entityUID); err != nil || existing != nil {
		return existing, err
	}

	var typeID int64
	err := p.Pool.QueryRow(ctx, `
		INSERT INTO entity_type (tenant_id, entity_type)
		VALUES ($1, $2)
		ON CONFLICT (tenant_id, entity_type) DO UPDATE SET entity_type = EXCLUDED.entity_type
		RETURNING id`,
		tenantID, entityType,
	).Scan(&typeID)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure entity type %s: %w", entityType, err)
	}

	var e models.PlantEntity
	err = p.Pool.QueryRow(ctx, `
		INSERT INTO plant_entity (entity_type_id, entity_uid, description)
		VALUES ($1, $2, '')
		ON CONFLICT (entity_type_id, entity_uid) DO UPDATE SET entity_uid = EXCLUDED.entity_uid
		RETURNING id, entity_type_id, entity_uid, COALESCE(description, '')`,
		typeID, entityUID,
	).Scan(&e.ID, &e.EntityTypeID, &e.EntityUID, &e.Description)
	if err != nil {
		return nil, fmt.Errorf("failed to ensure entity %s: %w", entityUID, err)
	}
	return &e, nil
}
