package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/datahub-inc/datahub-engine/pkg/database"
	"github.com/datahub-inc/datahub-engine/pkg/models"
)

// CatalogRepository reads the global catalog and per-tenant table
// configuration inside one partition. Every method takes the resolved
// partition explicitly; lookups that find nothing return nil rather than an
// error so the resolution engine can shape its own NotFound messages.
type CatalogRepository interface {
	GetLanguage(ctx context.Context, p *database.Partition, code string) (*models.Language, error)
	ListLanguages(ctx context.Context, p *database.Partition) ([]models.Language, error)
	GetTableType(ctx context.Context, p *database.Partition, name string) (*models.TableType, error)
	ListTableTypes(ctx context.Context, p *database.Partition) ([]models.TableType, error)
	GetTenantTable(ctx context.Context, p *database.Partition, tenantID, tableTypeID int64) (*models.TenantTable, error)

	ListTenantTableFields(ctx context.Context, p *database.Partition, tenantTableID int64) ([]models.TenantTableField, error)
	ListTenantTableFilters(ctx context.Context, p *database.Partition, tenantTableID int64) ([]models.TenantTableFilter, error)
	ListTenantTableAssets(ctx context.Context, p *database.Partition, tenantTableID int64) ([]models.TenantTableAsset, error)
	ListFilterItems(ctx context.Context, p *database.Partition, filterID int64) ([]models.FilterItem, error)

	GetFieldLocalization(ctx context.Context, p *database.Partition, fieldID, languageID int64) (*models.Localization, error)
	GetFilterLocalization(ctx context.Context, p *database.Partition, filterID, languageID int64) (*models.Localization, error)
	GetFilterItemLocalization(ctx context.Context, p *database.Partition, itemID, languageID int64) (*models.Localization, error)
	GetAssetLocalization(ctx context.Context, p *database.Partition, assetID, languageID int64) (*models.Localization, error)

	GetFlagType(ctx context.Context, p *database.Partition, name string) (*models.FlagType, error)
	ListFlagTypes(ctx context.Context, p *database.Partition) ([]models.FlagType, error)
	GetFlagTypeLocalization(ctx context.Context, p *database.Partition, flagTypeID, languageID int64) (*models.Localization, error)
}

type catalogRepository struct{}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository() CatalogRepository {
	return &catalogRepository{}
}

var _ CatalogRepository = (*catalogRepository)(nil)

func (r *catalogRepository) GetLanguage(ctx context.Context, p *database.Partition, code string) (*models.Language, error) {
	var l models.Language
	err := p.Pool.QueryRow(ctx,
		`SELECT id, code, name FROM language WHERE code = $1`, code,
	).Scan(&l.ID, &l.Code, &l.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get language %s: %w", code, err)
	}
	return &l, nil
}

func (r *catalogRepository) ListLanguages(ctx context.Context, p *database.Partition) ([]models.Language, error) {
	rows, err := p.Pool.Query(ctx, `SELECT id, code, name FROM language ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("failed to list languages: %w", err)
	}
	defer rows.Close()

	var langs []models.Language
	for rows.Next() {
		var l models.Language
		if err := rows.Scan(&l.ID, &l.Code, &l.Name); err != nil {
			return nil, fmt.Errorf("failed to scan language: %w", err)
		}
		langs = append(langs, l)
	}
	return langs, rows.Err()
}

func (r *catalogRepository) GetTableType(ctx context.Context, p *database.Partition, name string) (*models.TableType, error) {
	var t models.TableType
	var description *string
	err := p.Pool.QueryRow(ctx,
		`SELECT id, name, description FROM table_type WHERE name = $1`, name,
	).Scan(&t.ID, &t.Name, &description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get table type %s: %w", name, err)
	}
	if description != nil {
		t.Description = *description
	}
	return &t, nil
}

func (r *catalogRepository) ListTableTypes(ctx context.Context, p *database.Partition) ([]models.TableType, error) {
	rows, err := p.Pool.Query(ctx, `SELECT id, name FROM table_type ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list table types: %w", err)
	}
	defer rows.Close()

	var types []models.TableType
	for rows.Next() {
		var t models.TableType
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("failed to scan table type: %w", err)
		}
		types = append(types, t)
	}
	return types, rows.Err()
}

func (r *catalogRepository) GetTenantTable(ctx context.Context, p *database.Partition, tenantID, tableTypeID int64) (*models.TenantTable, error) {
	var t models.TenantTable
	var description *string
	err := p.Pool.QueryRow(ctx, `
		SELECT id, tenant_id, table_type_id, is_active, description
		FROM tenant_table
		WHERE tenant_id = $1 AND table_type_id = $2`,
		tenantID, tableTypeID,
	).Scan(&t.ID, &t.TenantID, &t.TableTypeID, &t.IsActive, &description)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant table: %w", err)
	}
	if description != nil {
		t.Description = *description
	}
	return &t, nil
}

func (r *catalogRepository) ListTenantTableFields(ctx context.Context, p *database.Partition, tenantTableID int64) ([]models.TenantTableField, error) {
	query := `
		SELECT ttf.id, ttf.is_active, ttf.is_hidden, ttf.position,
		       f.id, f.name, f.type_id, dt.type, COALESCE(f.description, '')
		FROM tenant_table_field ttf
		JOIN table_field f ON f.id = ttf.field_id
		JOIN data_type dt ON dt.id = f.type_id
		WHERE ttf.tenant_table_id = $1 AND ttf.is_active
		ORDER BY ttf.position`

	rows, err := p.Pool.Query(ctx, query, tenantTableID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenant table fields: %w", err)
	}
	defer rows.Close()

	var fields []models.TenantTableField
	for rows.Next() {
		var f models.TenantTableField
		if err := rows.Scan(
			&f.ID, &f.IsActive, &f.IsHidden, &f.Position,
			&f.Field.ID, &f.Field.Name, &f.Field.TypeID, &f.Field.TypeName, &f.Field.Description,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tenant table field: %w", err)
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

func (r *catalogRepository) ListTenantTableFilters(ctx context.Context, p *database.Partition, tenantTableID int64) ([]models.TenantTableFilter, error) {
	query := `
		SELECT ttf.id, ttf.is_active, ttf.position, COALESCE(ttf.default_key, ''),
		       tf.id, tf.filter_name, tf.type, tf.is_active, tf.is_external, COALESCE(tf.url, '')
		FROM tenant_table_filter ttf
		JOIN table_filter tf ON tf.id = ttf.filter_id
		WHERE ttf.tenant_table_id = $1 AND ttf.is_active
		ORDER BY ttf.position`

	rows, err := p.Pool.Query(ctx, query, tenantTableID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenant table filters: %w", err)
	}
	defer rows.Close()

	var filters []models.TenantTableFilter
	for rows.Next() {
		var f models.TenantTableFilter
		if err := rows.Scan(
			&f.ID, &f.IsActive, &f.Position, &f.DefaultKey,
			&f.Filter.ID, &f.Filter.Name, &f.Filter.Type, &f.Filter.IsActive, &f.Filter.IsExternal, &f.Filter.URL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tenant table filter: %w", err)
		}
		filters = append(filters, f)
	}
	return filters, rows.Err()
}

func (r *catalogRepository) ListTenantTableAssets(ctx context.Context, p *database.Partition, tenantTableID int64) ([]models.TenantTableAsset, error) {
	query := `
		SELECT tta.id, tta.is_active, tta.position,
		       a.id, a.asset_key, a.media_kind
		FROM tenant_table_asset tta
		JOIN table_asset a ON a.id = tta.asset_id
		WHERE tta.tenant_table_id = $1 AND tta.is_active
		ORDER BY tta.position`

	rows, err := p.Pool.Query(ctx, query, tenantTableID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tenant table assets: %w", err)
	}
	defer rows.Close()

	var assets []models.TenantTableAsset
	for rows.Next() {
		var a models.TenantTableAsset
		if err := rows.Scan(
			&a.ID, &a.IsActive, &a.Position,
			&a.Asset.ID, &a.Asset.Key, &a.Asset.MediaKind,
		); err != nil {
			return nil, fmt.Errorf("failed to scan tenant table asset: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

func (r *catalogRepository) ListFilterItems(ctx context.Context, p *database.Partition, filterID int64) ([]models.FilterItem, error) {
	query := `
		SELECT id, filter_id, item_key, is_active, position
		FROM filter_item
		WHERE filter_id = $1 AND is_active
		ORDER BY position`

	rows, err := p.Pool.Query(ctx, query, filterID)
	if err != nil {
		return nil, fmt.Errorf("failed to list filter items: %w", err)
	}
	defer rows.Close()

	var items []models.FilterItem
	for rows.Next() {
		var it models.FilterItem
		if err := rows.Scan(&it.ID, &it.FilterID, &it.Key, &it.IsActive, &it.Position); err != nil {
			return nil, fmt.Errorf("failed to scan filter item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *catalogRepository) GetFieldLocalization(ctx context.Context, p *database.Partition, fieldID, languageID int64) (*models.Localization, error) {
	return scanLocalization(p.Pool.QueryRow(ctx, `
		SELECT title, COALESCE(description, ''), ''
		FROM table_field_localization
		WHERE field_id = $1 AND language_id = $2`,
		fieldID, languageID))
}

func (r *catalogRepository) GetFilterLocalization(ctx context.Context, p *database.Partition, filterID, languageID int64) (*models.Localization, error) {
	return scanLocalization(p.Pool.QueryRow(ctx, `
		SELECT title, COALESCE(description, ''), placeholder
		FROM filter_localization
		WHERE filter_id = $1 AND language_id = $2`,
		filterID, languageID))
}

func (r *catalogRepository) GetFilterItemLocalization(ctx context.Context, p *database.Partition, itemID, languageID int64) (*models.Localization, error) {
	return scanLocalization(p.Pool.QueryRow(ctx, `
		SELECT item_value, '', ''
		FROM filter_item_localization
		WHERE filter_item_id = $1 AND language_id = $2`,
		itemID, languageID))
}

func (r *catalogRepository) GetAssetLocalization(ctx context.Context, p *database.Partition, assetID, languageID int64) (*models.Localization, error) {
	return scanLocalization(p.Pool.QueryRow(ctx, `
		SELECT title, COALESCE(description, ''), ''
		FROM table_asset_localization
		WHERE asset_id = $1 AND language_id = $2`,
		assetID, languageID))
}

func (r *catalogRepository) GetFlagType(ctx context.Context, p *database.Partition, name string) (*models.FlagType, error) {
	var ft models.FlagType
	err := p.Pool.QueryRow(ctx,
		`SELECT id, name, created_at FROM flag_type WHERE name = $1`, name,
	).Scan(&ft.ID, &ft.Name, &ft.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get flag type %s: %w", name, err)
	}
	return &ft, nil
}

func (r *catalogRepository) ListFlagTypes(ctx context.Context, p *database.Partition) ([]models.FlagType, error) {
	rows, err := p.Pool.Query(ctx, `SELECT id, name, created_at FROM flag_type ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list flag types: %w", err)
	}
	defer rows.Close()

	var types []models.FlagType
	for rows.Next() {
		var ft models.FlagType
		if err := rows.Scan(&ft.ID, &ft.Name, &ft.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan flag type: %w", err)
		}
		types = append(types, ft)
	}
	return types, rows.Err()
}

func (r *catalogRepository) GetFlagTypeLocalization(ctx context.Context, p *database.Partition, flagTypeID, languageID int64) (*models.Localization, error) {
	return scanLocalization(p.Pool.QueryRow(ctx, `
		SELECT title, COALESCE(description, ''), ''
		FROM flag_type_localization
		WHERE flag_type_id = $1 AND language_id = $2`,
		flagTypeID, languageID))
}

// scanLocalization maps a localization row, returning nil on no row so
// callers decide between strict failure and canonical-key fallback.
func scanLocalization(row pgx.Row) (*models.Localization, error) {
	var l models.Localization
	err := row.Scan(&l.Title, &l.Description, &l.Placeholder)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan localization: %w", err)
	}
	return &l, nil
}
