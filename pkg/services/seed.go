package services

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/datahub-inc/datahub-engine/pkg/database"
	"github.com/datahub-inc/datahub-engine/pkg/models"
	"github.com/datahub-inc/datahub-engine/pkg/repositories"
)

// LoadCatalogSeed reads and parses the catalog seed document.
func LoadCatalogSeed(path string) (*models.CatalogSeed, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog seed: %w", err)
	}
	var doc models.CatalogSeed
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog seed %s: %w", path, err)
	}
	return &doc, nil
}

// CatalogSeeder wraps a parsed seed document as the provisioning seed hook.
func CatalogSeeder(doc *models.CatalogSeed, repo repositories.SeedRepository, logger *zap.Logger) database.SeedFunc {
	return func(ctx context.Context, p *database.Partition) error {
		if err := repo.Apply(ctx, p, doc); err != nil {
			return err
		}
		logger.Info("Applied catalog seed",
			zap.String("partition", p.Name),
			zap.Int("table_types", len(doc.TableTypes)),
			zap.Int("flag_types", len(doc.FlagTypes)))
		return nil
	}
}
