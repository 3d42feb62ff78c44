package services

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/datahub-inc/datahub-engine/pkg/apperrors"
	"github.com/datahub-inc/datahub-engine/pkg/models"
)

const (
	langDE = int64(1)
	langEN = int64(2)
)

// newCatalogFixture builds a catalog with one active delivery table: two
// fields, one enum filter with two items, one asset. German is fully
// localized; English is missing the second field's label and one item label.
func newCatalogFixture() *fakeCatalog {
	return &fakeCatalog{
		languages: []models.Language{
			{ID: langDE, Code: "de", Name: "Deutsch"},
			{ID: langEN, Code: "en", Name: "English"},
		},
		tableTypes: []models.TableType{{ID: 5, Name: "delivery"}},
		tenantTables: map[int64]*models.TenantTable{
			5: {ID: 10, TenantID: 1, TableTypeID: 5, IsActive: true},
		},
		fields: map[int64][]models.TenantTableField{
			10: {
				{ID: 1, Field: models.TableField{ID: 100, Name: "delivery_id", TypeName: "string"}, IsActive: true, Position: 0},
				{ID: 2, Field: models.TableField{ID: 101, Name: "status", TypeName: "status"}, IsActive: true, IsHidden: true, Position: 1},
			},
		},
		filters: map[int64][]models.TenantTableFilter{
			10: {
				{ID: 1, Filter: models.TableFilter{ID: 200, Name: "severity_level", Type: "enum"}, IsActive: true, Position: 0},
			},
		},
		assets: map[int64][]models.TenantTableAsset{
			10: {
				{ID: 1, Asset: models.TableAsset{ID: 300, Key: "delivery_images", MediaKind: "image"}, IsActive: true},
			},
		},
		items: map[int64][]models.FilterItem{
			200: {
				{ID: 400, FilterID: 200, Key: "1", Position: 0},
				{ID: 401, FilterID: 200, Key: "2", Position: 1},
			},
		},
		fieldLoc: map[[2]int64]*models.Localization{
			{100, langDE}: {Title: "Lieferung"},
			{101, langDE}: {Title: "Status"},
			{100, langEN}: {Title: "Delivery"},
			// field 101 has no English label
		},
		filterLoc: map[[2]int64]*models.Localization{
			{200, langDE}: {Title: "Schweregrad", Placeholder: "Alle"},
			{200, langEN}: {Title: "Severity"},
		},
		itemLoc: map[[2]int64]*models.Localization{
			{400, langDE}: {Title: "Niedrig"},
			{401, langDE}: {Title: "Mittel"},
			{400, langEN}: {Title: "Low"},
			// item 401 has no English label
		},
		assetLoc: map[[2]int64]*models.Localization{
			{300, langDE}: {Title: "Bilder"},
		},
	}
}

func TestResolveSchemaLocalizedOrdering(t *testing.T) {
	e := NewMetadataEngine(newCatalogFixture(), zap.NewNop())
	p := testPartition()

	schema, lang, err := e.ResolveSchema(context.Background(), p, "delivery", "de")
	if err != nil {
		t.Fatalf("ResolveSchema() error = %v", err)
	}
	if lang.Code != "de" {
		t.Errorf("language = %s, want de", lang.Code)
	}

	if len(schema.Columns) != 2 {
		t.Fatalf("columns = %d, want 2", len(schema.Columns))
	}
	if schema.Columns[0].Name != "delivery_id" || schema.Columns[0].Title != "Lieferung" {
		t.Errorf("column 0 = %+v, want delivery_id/Lieferung", schema.Columns[0])
	}
	if !schema.Columns[1].Hidden {
		t.Error("column 1 should carry the hidden flag")
	}
	if schema.PrimaryKey() != "delivery_id" {
		t.Errorf("PrimaryKey() = %s, want delivery_id", schema.PrimaryKey())
	}

	if len(schema.Filters) != 1 {
		t.Fatalf("filters = %d, want 1", len(schema.Filters))
	}
	f := schema.Filters[0]
	if f.Title != "Schweregrad" || f.Placeholder != "Alle" {
		t.Errorf("filter = %+v, want Schweregrad/Alle", f)
	}
	if len(f.Choices) != 2 || f.Choices[0].Label != "Niedrig" {
		t.Errorf("choices = %+v, want two localized items", f.Choices)
	}
	// No tenant default declared: first item key wins.
	if f.Default != "1" {
		t.Errorf("default = %q, want first item key", f.Default)
	}

	if len(schema.Assets) != 1 || schema.Assets[0].Label != "Bilder" {
		t.Errorf("assets = %+v, want localized Bilder", schema.Assets)
	}
}

func TestResolveSchemaMissingColumnTitleFailsHard(t *testing.T) {
	e := NewMetadataEngine(newCatalogFixture(), zap.NewNop())

	_, _, err := e.ResolveSchema(context.Background(), testPartition(), "delivery", "en")
	if !errors.Is(err, apperrors.ErrNotLocalized) {
		t.Fatalf("ResolveSchema(en) error = %v, want not-localized", err)
	}

	var nle *apperrors.NotLocalizedError
	if !errors.As(err, &nle) {
		t.Fatalf("error %v does not name the offending subject", err)
	}
	if nle.Subject != "status" || nle.Language != "en" {
		t.Errorf("NotLocalized subject=%s language=%s, want status/en", nle.Subject, nle.Language)
	}
}

func TestResolveSchemaItemLabelFallsBack(t *testing.T) {
	catalog := newCatalogFixture()
	// Give the second field an English label so resolution reaches filters.
	catalog.fieldLoc[[2]int64{101, langEN}] = &models.Localization{Title: "Status"}

	e := NewMetadataEngine(catalog, zap.NewNop())
	schema, _, err := e.ResolveSchema(context.Background(), testPartition(), "delivery", "en")
	if err != nil {
		t.Fatalf("ResolveSchema() error = %v", err)
	}

	choices := schema.Filters[0].Choices
	if choices[0].Label != "Low" {
		t.Errorf("localized choice label = %q, want Low", choices[0].Label)
	}
	// Missing item label degrades to the canonical key instead of failing.
	if choices[1].Label != "2" {
		t.Errorf("fallback choice label = %q, want canonical key 2", choices[1].Label)
	}
	// Missing asset label degrades the same way.
	if schema.Assets[0].Label != "delivery_images" {
		t.Errorf("fallback asset label = %q, want delivery_images", schema.Assets[0].Label)
	}
}

func TestResolveSchemaUnknownTableType(t *testing.T) {
	e := NewMetadataEngine(newCatalogFixture(), zap.NewNop())

	_, _, err := e.ResolveSchema(context.Background(), testPartition(), "invoice", "de")
	if !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("ResolveSchema(invoice) error = %v, want not-found", err)
	}

	var nfe *apperrors.NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("error %v is not a NotFoundError", err)
	}
	if len(nfe.Options) != 1 || nfe.Options[0] != "delivery" {
		t.Errorf("options = %v, want the known table types", nfe.Options)
	}
}

func TestResolveLanguageFallbacks(t *testing.T) {
	e := NewMetadataEngine(newCatalogFixture(), zap.NewNop())
	p := testPartition()

	// Empty code falls back to the tenant default.
	lang, err := e.ResolveLanguage(context.Background(), p, "")
	if err != nil {
		t.Fatalf("ResolveLanguage() error = %v", err)
	}
	if lang.Code != "de" {
		t.Errorf("language = %s, want tenant default de", lang.Code)
	}

	// Unknown codes carry the supported codes in the error.
	_, err = e.ResolveLanguage(context.Background(), p, "fr")
	var nfe *apperrors.NotFoundError
	if !errors.As(err, &nfe) {
		t.Fatalf("ResolveLanguage(fr) error = %v, want NotFoundError", err)
	}
	if len(nfe.Options) != 2 {
		t.Errorf("options = %v, want the two supported codes", nfe.Options)
	}
}

func TestListActiveTables(t *testing.T) {
	catalog := newCatalogFixture()
	catalog.tableTypes = append(catalog.tableTypes, models.TableType{ID: 6, Name: "alarm"})
	// alarm has no tenant_table row, so it must not appear.

	e := NewMetadataEngine(catalog, zap.NewNop())
	tables, err := e.ListActiveTables(context.Background(), testPartition())
	if err != nil {
		t.Fatalf("ListActiveTables() error = %v", err)
	}
	if len(tables) != 1 || tables[0].Name != "delivery" {
		t.Errorf("tables = %+v, want only delivery", tables)
	}
}
