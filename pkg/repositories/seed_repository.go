package repositories

import (
	"context"
	"fmt"

	"github.com/datahub-inc/datahub-engine/pkg/database"
	"github.com/datahub-inc/datahub-engine/pkg/models"
)

// SeedRepository applies a catalog seed document to a partition. Every
// statement upserts on the natural key, so applying the same document twice
// converges instead of duplicating.
type SeedRepository interface {
	Apply(ctx context.Context, p *database.Partition, doc *models.CatalogSeed) error
}

type seedRepository struct{}

// NewSeedRepository creates a new SeedRepository.
func NewSeedRepository() SeedRepository {
	return &seedRepository{}
}

var _ SeedRepository = (*seedRepository)(nil)

func (r *seedRepository) Apply(ctx context.Context, p *database.Partition, doc *models.CatalogSeed) error {
	langIDs, err := r.applyLanguages(ctx, p, doc.Languages)
	if err != nil {
		return err
	}
	typeIDs, err := r.applyDataTypes(ctx, p, doc.DataTypes)
	if err != nil {
		return err
	}
	for _, tt := range doc.TableTypes {
		if err := r.applyTableType(ctx, p, tt, langIDs, typeIDs); err != nil {
			return fmt.Errorf("table type %s: %w", tt.Name, err)
		}
	}
	for _, ft := range doc.FlagTypes {
		if err := r.applyFlagType(ctx, p, ft, langIDs); err != nil {
			return fmt.Errorf("flag type %s: %w", ft.Name, err)
		}
	}
	return nil
}

func (r *seedRepository) applyLanguages(ctx context.Context, p *database.Partition, langs []models.SeedLanguage) (map[string]int64, error) {
	ids := make(map[string]int64, len(langs))
	for _, l := range langs {
		var id int64
		err := p.Pool.QueryRow(ctx, `
			INSERT INTO language (code, name) VALUES ($1, $2)
			ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name
			RETURNING id`,
			l.Code, l.Name,
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("failed to seed language %s: %w", l.Code, err)
		}
		ids[l.Code] = id
	}
	return ids, nil
}

func (r *seedRepository) applyDataTypes(ctx context.Context, p *database.Partition, types []string) (map[string]int64, error) {
	ids := make(map[string]int64, len(types))
	for _, t := range types {
		var id int64
		err := p.Pool.QueryRow(ctx, `
			INSERT INTO data_type (type) VALUES ($1)
			ON CONFLICT (type) DO UPDATE SET type = EXCLUDED.type
			RETURNING id`,
			t,
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("failed to seed data type %s: %w", t, err)
		}
		ids[t] = id
	}
	return ids, nil
}

func (r *seedRepository) applyTableType(ctx context.Context, p *database.Partition, tt models.SeedTableType, langIDs, typeIDs map[string]int64) error {
	var tableTypeID int64
	err := p.Pool.QueryRow(ctx, `
		INSERT INTO table_type (name, description) VALUES ($1, NULLIF($2, ''))
		ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description
		RETURNING id`,
		tt.Name, tt.Description,
	).Scan(&tableTypeID)
	if err != nil {
		return fmt.Errorf("failed to seed table type: %w", err)
	}

	var tenantTableID int64
	err = p.Pool.QueryRow(ctx, `
		INSERT INTO tenant_table (tenant_id, table_type_id, is_active)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (tenant_id, table_type_id) DO UPDATE SET is_active = TRUE
		RETURNING id`,
		p.Tenant.ID, tableTypeID,
	).Scan(&tenantTableID)
	if err != nil {
		return fmt.Errorf("failed to activate table: %w", err)
	}

	for pos, f := range tt.Fields {
		if err := r.applyField(ctx, p, tenantTableID, pos, f, langIDs, typeIDs); err != nil {
			return fmt.Errorf("field %s: %w", f.Name, err)
		}
	}
	for pos, f := range tt.Filters {
		if err := r.applyFilter(ctx, p, tenantTableID, pos, f, langIDs); err != nil {
			return fmt.Errorf("filter %s: %w", f.Name, err)
		}
	}
	for pos, a := range tt.Assets {
		if err := r.applyAsset(ctx, p, tenantTableID, pos, a, langIDs); err != nil {
			return fmt.Errorf("asset %s: %w", a.Key, err)
		}
	}
	return nil
}

func (r *seedRepository) applyField(ctx context.Context, p *database.Partition, tenantTableID int64, pos int, f models.SeedField, langIDs, typeIDs map[string]int64) error {
	typeID, ok := typeIDs[f.Type]
	if !ok {
		return fmt.Errorf("undeclared data type %q", f.Type)
	}

	var fieldID int64
	err := p.Pool.QueryRow(ctx, `
		INSERT INTO table_field (name, type_id) VALUES ($1, $2)
		ON CONFLICT (name) DO UPDATE SET type_id = EXCLUDED.type_id
		RETURNING id`,
		f.Name, typeID,
	).Scan(&fieldID)
	if err != nil {
		return err
	}

	_, err = p.Pool.Exec(ctx, `
		INSERT INTO tenant_table_field (tenant_table_id, field_id, is_active, is_hidden, position)
		VALUES ($1, $2, TRUE, $3, $4)
		ON CONFLICT (tenant_table_id, field_id)
		DO UPDATE SET is_active = TRUE, is_hidden = EXCLUDED.is_hidden, position = EXCLUDED.position`,
		tenantTableID, fieldID, f.Hidden, pos)
	if err != nil {
		return err
	}

	for code, loc := range f.Localizations {
		langID, ok := langIDs[code]
		if !ok {
			return fmt.Errorf("undeclared language %q", code)
		}
		_, err := p.Pool.Exec(ctx, `
			INSERT INTO table_field_localization (field_id, language_id, title, description)
			VALUES ($1, $2, $3, NULLIF($4, ''))
			ON CONFLICT (field_id, language_id)
			DO UPDATE SET title = EXCLUDED.title, description = EXCLUDED.description`,
			fieldID, langID, loc.Title, loc.Description)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *seedRepository) applyFilter(ctx context.Context, p *database.Partition, tenantTableID int64, pos int, f models.SeedFilter, langIDs map[string]int64) error {
	var filterID int64
	err := p.Pool.QueryRow(ctx, `
		INSERT INTO table_filter (filter_name, type, is_active, is_external, url)
		VALUES ($1, $2, TRUE, $3, NULLIF($4, ''))
		ON CONFLICT (filter_name)
		DO UPDATE SET type = EXCLUDED.type, is_active = TRUE,
		              is_external = EXCLUDED.is_external, url = EXCLUDED.url
		RETURNING id`,
		f.Name, f.Type, f.External, f.URL,
	).Scan(&filterID)
	if err != nil {
		return err
	}

	_, err = p.Pool.Exec(ctx, `
		INSERT INTO tenant_table_filter (tenant_table_id, filter_id, is_active, position, default_key)
		VALUES ($1, $2, TRUE, $3, NULLIF($4, ''))
		ON CONFLICT (tenant_table_id, filter_id)
		DO UPDATE SET is_active = TRUE, position = EXCLUDED.position, default_key = EXCLUDED.default_key`,
		tenantTableID, filterID, pos, f.Default)
	if err != nil {
		return err
	}

	for ipos, item := range f.Items {
		var itemID int64
		err := p.Pool.QueryRow(ctx, `
			INSERT INTO filter_item (filter_id, item_key, is_active, position)
			VALUES ($1, $2, TRUE, $3)
			ON CONFLICT (filter_id, item_key)
			DO UPDATE SET is_active = TRUE, position = EXCLUDED.position
			RETURNING id`,
			filterID, item.Key, ipos,
		).Scan(&itemID)
		if err != nil {
			return err
		}
		for code, loc := range item.Localizations {
			langID, ok := langIDs[code]
			if !ok {
				return fmt.Errorf("undeclared language %q", code)
			}
			_, err := p.Pool.Exec(ctx, `
				INSERT INTO filter_item_localization (filter_item_id, language_id, item_value)
				VALUES ($1, $2, $3)
				ON CONFLICT (filter_item_id, language_id)
				DO UPDATE SET item_value = EXCLUDED.item_value`,
				itemID, langID, loc.Title)
			if err != nil {
				return err
			}
		}
	}

	for code, loc := range f.Localizations {
		langID, ok := langIDs[code]
		if !ok {
			return fmt.Errorf("undeclared language %q", code)
		}
		_, err := p.Pool.Exec(ctx, `
			INSERT INTO filter_localization (filter_id, language_id, title, description, placeholder)
			VALUES ($1, $2, $3, NULLIF($4, ''), $5)
			ON CONFLICT (filter_id, language_id)
			DO UPDATE SET title = EXCLUDED.title, description = EXCLUDED.description,
			              placeholder = EXCLUDED.placeholder`,
			filterID, langID, loc.Title, loc.Description, loc.Placeholder)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *seedRepository) applyAsset(ctx context.Context, p *database.Partition, tenantTableID int64, pos int, a models.SeedAsset, langIDs map[string]int64) error {
	var assetID int64
	err := p.Pool.QueryRow(ctx, `
		INSERT INTO table_asset (asset_key, media_kind) VALUES ($1, $2)
		ON CONFLICT (asset_key) DO UPDATE SET media_kind = EXCLUDED.media_kind
		RETURNING id`,
		a.Key, a.MediaKind,
	).Scan(&assetID)
	if err != nil {
		return err
	}

	_, err = p.Pool.Exec(ctx, `
		INSERT INTO tenant_table_asset (tenant_table_id, asset_id, is_active, position)
		VALUES ($1, $2, TRUE, $3)
		ON CONFLICT (tenant_table_id, asset_id)
		DO UPDATE SET is_active = TRUE, position = EXCLUDED.position`,
		tenantTableID, assetID, pos)
	if err != nil {
		return err
	}

	for code, loc := range a.Localizations {
		langID, ok := langIDs[code]
		if !ok {
			return fmt.Errorf("undeclared language %q", code)
		}
		_, err := p.Pool.Exec(ctx, `
			INSERT INTO table_asset_localization (asset_id, language_id, title, description)
			VALUES ($1, $2, $3, NULLIF($4, ''))
			ON CONFLICT (asset_id, language_id)
			DO UPDATE SET title = EXCLUDED.title, description = EXCLUDED.description`,
			assetID, langID, loc.Title, loc.Description)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *seedRepository) applyFlagType(ctx context.Context, p *database.Partition, ft models.SeedFlagType, langIDs map[string]int64) error {
	var flagTypeID int64
	err := p.Pool.QueryRow(ctx, `
		INSERT INTO flag_type (name) VALUES ($1)
		ON CONFLICT (name) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`,
		ft.Name,
	).Scan(&flagTypeID)
	if err != nil {
		return err
	}

	for _, sev := range ft.Severities {
		_, err := p.Pool.Exec(ctx, `
			INSERT INTO severity (flag_type_id, level, color_code, glyph)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (flag_type_id, level)
			DO UPDATE SET color_code = EXCLUDED.color_code, glyph = EXCLUDED.glyph`,
			flagTypeID, sev.Level, sev.Color, sev.Glyph)
		if err != nil {
			return err
		}
	}

	_, err = p.Pool.Exec(ctx, `
		INSERT INTO tenant_flag_deployment (tenant_id, flag_type_id)
		VALUES ($1, $2)
		ON CONFLICT (tenant_id, flag_type_id) DO NOTHING`,
		p.Tenant.ID, flagTypeID)
	if err != nil {
		return err
	}

	for code, loc := range ft.Localizations {
		langID, ok := langIDs[code]
		if !ok {
			return fmt.Errorf("undeclared language %q", code)
		}
		_, err := p.Pool.Exec(ctx, `
			INSERT INTO flag_type_localization (flag_type_id, language_id, title, description)
			VALUES ($1, $2, $3, NULLIF($4, ''))
			ON CONFLICT (flag_type_id, language_id)
			DO UPDATE SET title = EXCLUDED.title, description = EXCLUDED.description`,
			flagTypeID, langID, loc.Title, loc.Description)
		if err != nil {
			return err
		}
	}
	return nil
}
