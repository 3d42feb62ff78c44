package services

import (
	"context"
	"time"

	"github.com/datahub-inc/datahub-engine/pkg/database"
	"github.com/datahub-inc/datahub-engine/pkg/models"
	"github.com/datahub-inc/datahub-engine/pkg/repositories"
)

// fakeCatalog is an in-memory CatalogRepository for engine tests.
// Localization maps are keyed by (subject id, language id).
type fakeCatalog struct {
	languages    []models.Language
	tableTypes   []models.TableType
	tenantTables map[int64]*models.TenantTable // by table type id
	fields       map[int64][]models.TenantTableField
	filters      map[int64][]models.TenantTableFilter
	assets       map[int64][]models.TenantTableAsset
	items        map[int64][]models.FilterItem
	flagTypes    []models.FlagType

	fieldLoc  map[[2]int64]*models.Localization
	filterLoc map[[2]int64]*models.Localization
	itemLoc   map[[2]int64]*models.Localization
	assetLoc  map[[2]int64]*models.Localization
	flagLoc   map[[2]int64]*models.Localization
}

var _ repositories.CatalogRepository = (*fakeCatalog)(nil)

func (f *fakeCatalog) GetLanguage(_ context.Context, _ *database.Partition, code string) (*models.Language, error) {
	for _, l := range f.languages {
		if l.Code == code {
			lang := l
			return &lang, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) ListLanguages(_ context.Context, _ *database.Partition) ([]models.Language, error) {
	return f.languages, nil
}

func (f *fakeCatalog) GetTableType(_ context.Context, _ *database.Partition, name string) (*models.TableType, error) {
	for _, t := range f.tableTypes {
		if t.Name == name {
			tt := t
			return &tt, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) ListTableTypes(_ context.Context, _ *database.Partition) ([]models.TableType, error) {
	return f.tableTypes, nil
}

func (f *fakeCatalog) GetTenantTable(_ context.Context, _ *database.Partition, _ int64, tableTypeID int64) (*models.TenantTable, error) {
	return f.tenantTables[tableTypeID], nil
}

func (f *fakeCatalog) ListTenantTableFields(_ context.Context, _ *database.Partition, tenantTableID int64) ([]models.TenantTableField, error) {
	return f.fields[tenantTableID], nil
}

func (f *fakeCatalog) ListTenantTableFilters(_ context.Context, _ *database.Partition, tenantTableID int64) ([]models.TenantTableFilter, error) {
	return f.filters[tenantTableID], nil
}

func (f *fakeCatalog) ListTenantTableAssets(_ context.Context, _ *database.Partition, tenantTableID int64) ([]models.TenantTableAsset, error) {
	return f.assets[tenantTableID], nil
}

func (f *fakeCatalog) ListFilterItems(_ context.Context, _ *database.Partition, filterID int64) ([]models.FilterItem, error) {
	return f.items[filterID], nil
}

func (f *fakeCatalog) GetFieldLocalization(_ context.Context, _ *database.Partition, fieldID, languageID int64) (*models.Localization, error) {
	return f.fieldLoc[[2]int64{fieldID, languageID}], nil
}

func (f *fakeCatalog) GetFilterLocalization(_ context.Context, _ *database.Partition, filterID, languageID int64) (*models.Localization, error) {
	return f.filterLoc[[2]int64{filterID, languageID}], nil
}

func (f *fakeCatalog) GetFilterItemLocalization(_ context.Context, _ *database.Partition, itemID, languageID int64) (*models.Localization, error) {
	return f.itemLoc[[2]int64{itemID, languageID}], nil
}

func (f *fakeCatalog) GetAssetLocalization(_ context.Context, _ *database.Partition, assetID, languageID int64) (*models.Localization, error) {
	return f.assetLoc[[2]int64{assetID, languageID}], nil
}

func (f *fakeCatalog) GetFlagType(_ context.Context, _ *database.Partition, name string) (*models.FlagType, error) {
	for _, ft := range f.flagTypes {
		if ft.Name == name {
			found := ft
			return &found, nil
		}
	}
	return nil, nil
}

func (f *fakeCatalog) ListFlagTypes(_ context.Context, _ *database.Partition) ([]models.FlagType, error) {
	return f.flagTypes, nil
}

func (f *fakeCatalog) GetFlagTypeLocalization(_ context.Context, _ *database.Partition, flagTypeID, languageID int64) (*models.Localization, error) {
	return f.flagLoc[[2]int64{flagTypeID, languageID}], nil
}

// fakeEntities is an in-memory EntityRepository.
type fakeEntities struct {
	byUID map[string]*models.PlantEntity
	loc   map[[2]int64]*models.Localization
}

var _ repositories.EntityRepository = (*fakeEntities)(nil)

func (f *fakeEntities) GetByUID(_ context.Context, _ *database.Partition, _ int64, entityUID string) (*models.PlantEntity, error) {
	return f.byUID[entityUID], nil
}

func (f *fakeEntities) GetLocalization(_ context.Context, _ *database.Partition, entityID, languageID int64) (*models.Localization, error) {
	return f.loc[[2]int64{entityID, languageID}], nil
}

func (f *fakeEntities) EnsureEntity(_ context.Context, _ *database.Partition, _ int64, entityType, entityUID string) (*models.PlantEntity, error) {
	if e, ok := f.byUID[entityUID]; ok {
		return e, nil
	}
	e := &models.PlantEntity{ID: int64(len(f.byUID) + 1), EntityUID: entityUID}
	if f.byUID == nil {
		f.byUID = map[string]*models.PlantEntity{}
	}
	f.byUID[entityUID] = e
	return e, nil
}

// fakeDeliveries is an in-memory DeliveryRepository keyed by delivery_id.
type fakeDeliveries struct {
	byDeliveryID map[string]*models.Delivery
	nextID       int64
}

var _ repositories.DeliveryRepository = (*fakeDeliveries)(nil)

func (f *fakeDeliveries) Query(_ context.Context, _ *database.Partition, _ int64, _ models.PredicateSet, _, _ time.Time) ([]models.Delivery, error) {
	var out []models.Delivery
	for _, d := range f.byDeliveryID {
		out = append(out, *d)
	}
	return out, nil
}

func (f *fakeDeliveries) GetByDeliveryID(_ context.Context, _ *database.Partition, deliveryID string) (*models.Delivery, error) {
	return f.byDeliveryID[deliveryID], nil
}

func (f *fakeDeliveries) Insert(_ context.Context, _ *database.Partition, d *models.Delivery) (bool, error) {
	if _, ok := f.byDeliveryID[d.DeliveryID]; ok {
		return false, nil
	}
	if f.byDeliveryID == nil {
		f.byDeliveryID = map[string]*models.Delivery{}
	}
	f.nextID++
	d.ID = f.nextID
	f.byDeliveryID[d.DeliveryID] = d
	return true, nil
}

// fakeAlarms is an in-memory AlarmRepository keyed by event_uid.
type fakeAlarms struct {
	byEventUID map[string]*models.Alarm
	nextID     int64
}

var _ repositories.AlarmRepository = (*fakeAlarms)(nil)

func (f *fakeAlarms) Query(_ context.Context, _ *database.Partition, _ int64, _ models.PredicateSet, _, _ time.Time, _, _ int) ([]models.Alarm, error) {
	var out []models.Alarm
	for _, a := range f.byEventUID {
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeAlarms) Count(_ context.Context, _ *database.Partition, _ int64, _ models.PredicateSet, _, _ time.Time) (int, error) {
	return len(f.byEventUID), nil
}

func (f *fakeAlarms) Insert(_ context.Context, _ *database.Partition, a *models.Alarm) (bool, error) {
	if _, ok := f.byEventUID[a.EventUID]; ok {
		return false, nil
	}
	if f.byEventUID == nil {
		f.byEventUID = map[string]*models.Alarm{}
	}
	f.nextID++
	a.ID = f.nextID
	f.byEventUID[a.EventUID] = a
	return true, nil
}

// fakeFlags is an in-memory FlagRepository. Severities are keyed by
// (flag type id, level); recorded flags by delivery row id.
type fakeFlags struct {
	deployments []models.TenantFlagDeployment
	severities  map[[2]int64]*models.Severity
	byDelivery  map[int64][]models.SeverityRecord
	seenEvents  map[string]bool
}

var _ repositories.FlagRepository = (*fakeFlags)(nil)

func (f *fakeFlags) ListDeployments(_ context.Context, _ *database.Partition, _ int64) ([]models.TenantFlagDeployment, error) {
	return f.deployments, nil
}

func (f *fakeFlags) ListDeliveryFlags(_ context.Context, _ *database.Partition, deliveryRowID, flagTypeID int64) ([]models.SeverityRecord, error) {
	var out []models.SeverityRecord
	for _, rec := range f.byDelivery[deliveryRowID] {
		if rec.FlagTypeID == flagTypeID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeFlags) GetSeverity(_ context.Context, _ *database.Partition, flagTypeID int64, level int) (*models.Severity, error) {
	return f.severities[[2]int64{flagTypeID, int64(level)}], nil
}

func (f *fakeFlags) InsertFlag(_ context.Context, _ *database.Partition, deliveryRowID int64, rec *models.SeverityRecord) (bool, error) {
	if f.seenEvents[rec.EventUID] {
		return false, nil
	}
	if f.seenEvents == nil {
		f.seenEvents = map[string]bool{}
	}
	if f.byDelivery == nil {
		f.byDelivery = map[int64][]models.SeverityRecord{}
	}
	f.seenEvents[rec.EventUID] = true
	f.byDelivery[deliveryRowID] = append(f.byDelivery[deliveryRowID], *rec)
	return true, nil
}

// testPartition returns a partition handle for a fake tenant. The pool is
// nil; fakes never touch it.
func testPartition() *database.Partition {
	return &database.Partition{
		Name: "tenant_testwerk",
		Tenant: &models.Tenant{
			ID:              1,
			TenantID:        "testwerk",
			TenantName:      "testwerk",
			Domain:          "testwerk.example.com",
			DefaultLanguage: "de",
			Timezone:        "Europe/Berlin",
			IsActive:        true,
		},
	}
}
