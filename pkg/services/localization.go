package services

import (
	"context"

	"github.com/datahub-inc/datahub-engine/pkg/database"
	"github.com/datahub-inc/datahub-engine/pkg/models"
	"github.com/datahub-inc/datahub-engine/pkg/repositories"
)

// TitleOrKey resolves a display string from an optional localization row,
// degrading to the subject's canonical key. Never fails; strict callers
// (column and filter titles) check for the missing row themselves before
// calling this.
func TitleOrKey(loc *models.Localization, canonical string) string {
	if loc == nil || loc.Title == "" {
		return canonical
	}
	return loc.Title
}

// Localizer resolves display labels for partition-scoped subjects with
// canonical-key fallback.
type Localizer struct {
	catalog  repositories.CatalogRepository
	entities repositories.EntityRepository
}

// NewLocalizer creates a Localizer over the given repositories.
func NewLocalizer(catalog repositories.CatalogRepository, entities repositories.EntityRepository) *Localizer {
	return &Localizer{catalog: catalog, entities: entities}
}

// EntityTitle returns the localized label of a plant entity, falling back to
// the given canonical value (typically the recorded location string).
func (l *Localizer) EntityTitle(ctx context.Context, p *database.Partition, entityID, languageID int64, canonical string) string {
	loc, err := l.entities.GetLocalization(ctx, p, entityID, languageID)
	if err != nil {
		return canonical
	}
	return TitleOrKey(loc, canonical)
}

// FlagTypeTitle returns the localized label of a flag type, falling back to
// its catalog name.
func (l *Localizer) FlagTypeTitle(ctx context.Context, p *database.Partition, ft models.FlagType, languageID int64) string {
	loc, err := l.catalog.GetFlagTypeLocalization(ctx, p, ft.ID, languageID)
	if err != nil {
		return ft.Name
	}
	return TitleOrKey(loc, ft.Name)
}
