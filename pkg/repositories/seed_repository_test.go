package repositories_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datahub-inc/datahub-engine/pkg/models"
	"github.com/datahub-inc/datahub-engine/pkg/repositories"
	"github.com/datahub-inc/datahub-engine/pkg/testhelpers"
)

func seedDocument() *models.CatalogSeed {
	return &models.CatalogSeed{
		Languages: []models.SeedLanguage{
			{Code: "de", Name: "Deutsch"},
			{Code: "en", Name: "English"},
		},
		DataTypes: []string{"string", "status"},
		TableTypes: []models.SeedTableType{
			{
				Name: "delivery",
				Fields: []models.SeedField{
					{
						Name: "delivery_id",
						Type: "string",
						Localizations: map[string]models.SeedLocalization{
							"de": {Title: "Lieferung"},
							"en": {Title: "Delivery"},
						},
					},
					{
						Name:   "status",
						Type:   "status",
						Hidden: true,
						Localizations: map[string]models.SeedLocalization{
							"de": {Title: "Status"},
							"en": {Title: "Status"},
						},
					},
				},
				Filters: []models.SeedFilter{
					{
						Name: "severity_level",
						Type: "enum",
						Items: []models.SeedFilterItem{
							{Key: "1", Localizations: map[string]models.SeedLocalization{"de": {Title: "Niedrig"}}},
							{Key: "2", Localizations: map[string]models.SeedLocalization{"de": {Title: "Mittel"}}},
						},
						Localizations: map[string]models.SeedLocalization{
							"de": {Title: "Schweregrad", Placeholder: "Alle"},
						},
					},
				},
			},
		},
		FlagTypes: []models.SeedFlagType{
			{
				Name: "impurity",
				Severities: []models.SeedSeverity{
					{Level: 1, Color: "#FFFF00", Glyph: "🟨"},
					{Level: 3, Color: "#FF0000", Glyph: "🟥"},
				},
				Localizations: map[string]models.SeedLocalization{
					"de": {Title: "Verunreinigung"},
				},
			},
		},
	}
}

func TestSeedApplyRoundTrip(t *testing.T) {
	p := testhelpers.GetPartition(t)
	ctx := context.Background()

	seeds := repositories.NewSeedRepository()
	require.NoError(t, seeds.Apply(ctx, p, seedDocument()))

	catalog := repositories.NewCatalogRepository()

	de, err := catalog.GetLanguage(ctx, p, "de")
	require.NoError(t, err)
	require.NotNil(t, de)

	tableType, err := catalog.GetTableType(ctx, p, "delivery")
	require.NoError(t, err)
	require.NotNil(t, tableType)

	tenantTable, err := catalog.GetTenantTable(ctx, p, p.Tenant.ID, tableType.ID)
	require.NoError(t, err)
	require.NotNil(t, tenantTable)
	assert.True(t, tenantTable.IsActive, "seeded activation must be active")

	fields, err := catalog.ListTenantTableFields(ctx, p, tenantTable.ID)
	require.NoError(t, err)
	require.Len(t, fields, 2)
	// Document order becomes position order.
	assert.Equal(t, "delivery_id", fields[0].Field.Name)
	assert.Equal(t, "status", fields[1].Field.Name)
	assert.True(t, fields[1].IsHidden, "status field lost its hidden flag")

	loc, err := catalog.GetFieldLocalization(ctx, p, fields[0].Field.ID, de.ID)
	require.NoError(t, err)
	require.NotNil(t, loc)
	assert.Equal(t, "Lieferung", loc.Title)

	filters, err := catalog.ListTenantTableFilters(ctx, p, tenantTable.ID)
	require.NoError(t, err)
	require.Len(t, filters, 1)
	items, err := catalog.ListFilterItems(ctx, p, filters[0].Filter.ID)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	impurity, err := catalog.GetFlagType(ctx, p, "impurity")
	require.NoError(t, err)
	require.NotNil(t, impurity)

	flags := repositories.NewFlagRepository()
	sev, err := flags.GetSeverity(ctx, p, impurity.ID, 3)
	require.NoError(t, err)
	require.NotNil(t, sev)
	assert.Equal(t, "#FF0000", sev.ColorCode)
	assert.Equal(t, "🟥", sev.Glyph)

	deployments, err := flags.ListDeployments(ctx, p, p.Tenant.ID)
	require.NoError(t, err)
	assert.Len(t, deployments, 1, "seeding must deploy the flag type for the tenant")
}

func TestSeedApplyIsIdempotent(t *testing.T) {
	p := testhelpers.GetPartition(t)
	ctx := context.Background()

	seeds := repositories.NewSeedRepository()
	require.NoError(t, seeds.Apply(ctx, p, seedDocument()))
	require.NoError(t, seeds.Apply(ctx, p, seedDocument()))

	catalog := repositories.NewCatalogRepository()
	languages, err := catalog.ListLanguages(ctx, p)
	require.NoError(t, err)
	assert.Len(t, languages, 2, "re-applying must not duplicate languages")

	tableType, err := catalog.GetTableType(ctx, p, "delivery")
	require.NoError(t, err)
	require.NotNil(t, tableType)
	tenantTable, err := catalog.GetTenantTable(ctx, p, p.Tenant.ID, tableType.ID)
	require.NoError(t, err)
	require.NotNil(t, tenantTable)
	fields, err := catalog.ListTenantTableFields(ctx, p, tenantTable.ID)
	require.NoError(t, err)
	assert.Len(t, fields, 2, "re-applying must not duplicate field activations")
}

func TestSeedApplyRejectsUndeclaredLanguage(t *testing.T) {
	p := testhelpers.GetPartition(t)

	doc := seedDocument()
	doc.TableTypes[0].Fields[0].Localizations["fr"] = models.SeedLocalization{Title: "Livraison"}

	err := repositories.NewSeedRepository().Apply(context.Background(), p, doc)
	assert.Error(t, err, "localizations must reference declared languages")
}
