package services

import (
	"context"

	"go.uber.org/zap"

	"github.com/datahub-inc/datahub-engine/pkg/apperrors"
	"github.com/datahub-inc/datahub-engine/pkg/database"
	"github.com/datahub-inc/datahub-engine/pkg/models"
	"github.com/datahub-inc/datahub-engine/pkg/repositories"
)

// fallbackLanguage is used when neither the request nor the tenant names a
// display language.
const fallbackLanguage = "de"

// MetadataEngine materializes the effective schema of a table type for one
// tenant and language: active columns, filters and asset categories in
// tenant-configured order with localized labels. Schemas are recomputed on
// every request so catalog edits take effect immediately; nothing here is
// cached.
type MetadataEngine struct {
	catalog repositories.CatalogRepository
	logger  *zap.Logger
}

// NewMetadataEngine creates a new MetadataEngine.
func NewMetadataEngine(catalog repositories.CatalogRepository, logger *zap.Logger) *MetadataEngine {
	return &MetadataEngine{catalog: catalog, logger: logger}
}

// ResolveLanguage maps a requested language code to its catalog row. An empty
// code falls back to the tenant's default language, then to the global
// fallback. Unknown codes fail with the supported codes in the error detail.
func (e *MetadataEngine) ResolveLanguage(ctx context.Context, p *database.Partition, code string) (*models.Language, error) {
	if code == "" {
		code = p.Tenant.DefaultLanguage
	}
	if code == "" {
		code = fallbackLanguage
	}

	lang, err := e.catalog.GetLanguage(ctx, p, code)
	if err != nil {
		return nil, err
	}
	if lang == nil {
		known, err := e.catalog.ListLanguages(ctx, p)
		if err != nil {
			return nil, err
		}
		options := make([]string, 0, len(known))
		for _, l := range known {
			options = append(options, l.Code)
		}
		return nil, apperrors.NewNotFound("language", code, options...)
	}
	return lang, nil
}

// ResolveSchema builds the effective schema of tableType for the partition's
// tenant in the requested language.
//
// Localization is asymmetric on purpose: column and filter titles are
// required and their absence fails the whole resolution, because the
// dashboard cannot render an unlabeled control. Filter choice labels and
// asset labels degrade to their canonical keys instead, so one untranslated
// dropdown entry never takes the table down.
func (e *MetadataEngine) ResolveSchema(ctx context.Context, p *database.Partition, tableType, langCode string) (*models.EffectiveSchema, *models.Language, error) {
	lang, err := e.ResolveLanguage(ctx, p, langCode)
	if err != nil {
		return nil, nil, err
	}

	tt, err := e.catalog.GetTableType(ctx, p, tableType)
	if err != nil {
		return nil, nil, err
	}
	if tt == nil {
		known, err := e.catalog.ListTableTypes(ctx, p)
		if err != nil {
			return nil, nil, err
		}
		options := make([]string, 0, len(known))
		for _, t := range known {
			options = append(options, t.Name)
		}
		return nil, nil, apperrors.NewNotFound("table type", tableType, options...)
	}

	table, err := e.catalog.GetTenantTable(ctx, p, p.Tenant.ID, tt.ID)
	if err != nil {
		return nil, nil, err
	}
	if table == nil || !table.IsActive {
		return nil, nil, apperrors.NewNotFound("table", tableType)
	}

	schema := &models.EffectiveSchema{
		TableType: tt.Name,
		Language:  lang.Code,
	}

	if schema.Columns, err = e.resolveColumns(ctx, p, table.ID, lang); err != nil {
		return nil, nil, err
	}
	if schema.Filters, err = e.resolveFilters(ctx, p, table.ID, lang); err != nil {
		return nil, nil, err
	}
	if schema.Assets, err = e.resolveAssets(ctx, p, table.ID, lang); err != nil {
		return nil, nil, err
	}

	return schema, lang, nil
}

func (e *MetadataEngine) resolveColumns(ctx context.Context, p *database.Partition, tableID int64, lang *models.Language) ([]models.Column, error) {
	fields, err := e.catalog.ListTenantTableFields(ctx, p, tableID)
	if err != nil {
		return nil, err
	}

	columns := make([]models.Column, 0, len(fields))
	for _, f := range fields {
		loc, err := e.catalog.GetFieldLocalization(ctx, p, f.Field.ID, lang.ID)
		if err != nil {
			return nil, err
		}
		if loc == nil {
			return nil, &apperrors.NotLocalizedError{Subject: f.Field.Name, Language: lang.Code}
		}
		columns = append(columns, models.Column{
			Name:        models.CleanFieldName(f.Field.Name),
			Title:       loc.Title,
			Type:        f.Field.TypeName,
			Description: loc.Description,
			Hidden:      f.IsHidden,
		})
	}
	return columns, nil
}

func (e *MetadataEngine) resolveFilters(ctx context.Context, p *database.Partition, tableID int64, lang *models.Language) ([]models.FilterSpec, error) {
	filters, err := e.catalog.ListTenantTableFilters(ctx, p, tableID)
	if err != nil {
		return nil, err
	}

	specs := make([]models.FilterSpec, 0, len(filters))
	for _, f := range filters {
		loc, err := e.catalog.GetFilterLocalization(ctx, p, f.Filter.ID, lang.ID)
		if err != nil {
			return nil, err
		}
		if loc == nil {
			return nil, &apperrors.NotLocalizedError{Subject: f.Filter.Name, Language: lang.Code}
		}

		spec := models.FilterSpec{
			Name:        f.Filter.Name,
			Title:       loc.Title,
			Type:        f.Filter.Type,
			Description: loc.Description,
			Placeholder: loc.Placeholder,
			Default:     f.DefaultKey,
		}

		// External filters publish their choices through a URL, so there are
		// no catalog items to resolve.
		if !f.Filter.IsExternal {
			items, err := e.catalog.ListFilterItems(ctx, p, f.Filter.ID)
			if err != nil {
				return nil, err
			}
			for _, item := range items {
				itemLoc, err := e.catalog.GetFilterItemLocalization(ctx, p, item.ID, lang.ID)
				if err != nil {
					return nil, err
				}
				spec.Choices = append(spec.Choices, models.FilterChoice{
					Key:   item.Key,
					Label: TitleOrKey(itemLoc, item.Key),
				})
			}
			if spec.Default == "" && len(spec.Choices) > 0 {
				spec.Default = spec.Choices[0].Key
			}
		}

		specs = append(specs, spec)
	}
	return specs, nil
}

func (e *MetadataEngine) resolveAssets(ctx context.Context, p *database.Partition, tableID int64, lang *models.Language) ([]models.AssetCategory, error) {
	assets, err := e.catalog.ListTenantTableAssets(ctx, p, tableID)
	if err != nil {
		return nil, err
	}

	categories := make([]models.AssetCategory, 0, len(assets))
	for _, a := range assets {
		loc, err := e.catalog.GetAssetLocalization(ctx, p, a.Asset.ID, lang.ID)
		if err != nil {
			return nil, err
		}
		categories = append(categories, models.AssetCategory{
			Key:       a.Asset.Key,
			Label:     TitleOrKey(loc, a.Asset.Key),
			MediaKind: a.Asset.MediaKind,
		})
	}
	return categories, nil
}

// ListActiveTables returns the table types activated for the partition's
// tenant, in catalog order. Backs the table discovery endpoint.
func (e *MetadataEngine) ListActiveTables(ctx context.Context, p *database.Partition) ([]models.TableType, error) {
	types, err := e.catalog.ListTableTypes(ctx, p)
	if err != nil {
		return nil, err
	}

	var active []models.TableType
	for _, tt := range types {
		table, err := e.catalog.GetTenantTable(ctx, p, p.Tenant.ID, tt.ID)
		if err != nil {
			return nil, err
		}
		if table != nil && table.IsActive {
			active = append(active, tt)
		}
	}
	return active, nil
}
