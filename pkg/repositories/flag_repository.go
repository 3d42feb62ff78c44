package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/datahub-inc/datahub-engine/pkg/database"
	"github.com/datahub-inc/datahub-engine/pkg/models"
)

// FlagRepository provides access to flag deployments and recorded severity
// flags inside a partition.
type FlagRepository interface {
	ListDeployments(ctx context.Context, p *database.Partition, tenantID int64) ([]models.TenantFlagDeployment, error)
	// ListDeliveryFlags returns the dashboard-visible severity records of one
	// delivery for one flag type.
	ListDeliveryFlags(ctx context.Context, p *database.Partition, deliveryRowID, flagTypeID int64) ([]models.SeverityRecord, error)
	GetSeverity(ctx context.Context, p *database.Partition, flagTypeID int64, level int) (*models.Severity, error)
	// InsertFlag records one detection, short-circuiting on the unique
	// event_uid so repeated delivery of the same event is idempotent.
	InsertFlag(ctx context.Context, p *database.Partition, deliveryRowID int64, rec *models.SeverityRecord) (bool, error)
}

type flagRepository struct{}

// NewFlagRepository creates a new FlagRepository.
func NewFlagRepository() FlagRepository {
	return &flagRepository{}
}

var _ FlagRepository = (*flagRepository)(nil)

func (r *flagRepository) ListDeployments(ctx context.Context, p *database.Partition, tenantID int64) ([]models.TenantFlagDeployment, error) {
	query := `
		SELECT d.id, d.tenant_id, ft.id, ft.name, ft.created_at
		FROM tenant_flag_deployment d
		JOIN flag_type ft ON ft.id = d.flag_type_id
		WHERE d.tenant_id = $1
		ORDER BY ft.name`

	rows, err := p.Pool.Query(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to list flag deployments: %w", err)
	}
	defer rows.Close()

	var deployments []models.TenantFlagDeployment
	for rows.Next() {
		var d models.TenantFlagDeployment
		if err := rows.Scan(&d.ID, &d.TenantID, &d.FlagType.ID, &d.FlagType.Name, &d.FlagType.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan flag deployment: %w", err)
		}
		deployments = append(deployments, d)
	}
	return deployments, rows.Err()
}

func (r *flagRepository) ListDeliveryFlags(ctx context.Context, p *database.Partition, deliveryRowID, flagTypeID int64) ([]models.SeverityRecord, error) {
	query := `
		SELECT df.id, df.flag_type_id, ft.name, df.event_uid, df.value, df.exclude_from_dashboard,
		       s.id, s.flag_type_id, s.level, s.color_code, s.glyph
		FROM delivery_flag df
		JOIN flag_type ft ON ft.id = df.flag_type_id
		JOIN severity s ON s.id = df.severity_id
		WHERE df.delivery_row_id = $1 AND df.flag_type_id = $2
		  AND NOT df.exclude_from_dashboard`

	rows, err := p.Pool.Query(ctx, query, deliveryRowID, flagTypeID)
	if err != nil {
		return nil, fmt.Errorf("failed to list delivery flags: %w", err)
	}
	defer rows.Close()

	var records []models.SeverityRecord
	for rows.Next() {
		var rec models.SeverityRecord
		if err := rows.Scan(
			&rec.ID, &rec.FlagTypeID, &rec.FlagTypeName, &rec.EventUID, &rec.Value, &rec.ExcludeFromDashboard,
			&rec.Severity.ID, &rec.Severity.FlagTypeID, &rec.Severity.Level, &rec.Severity.ColorCode, &rec.Severity.Glyph,
		); err != nil {
			return nil, fmt.Errorf("failed to scan delivery flag: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (r *flagRepository) GetSeverity(ctx context.Context, p *database.Partition, flagTypeID int64, level int) (*models.Severity, error) {
	var s models.Severity
	err := p.Pool.QueryRow(ctx, `
		SELECT id, flag_type_id, level, color_code, glyph
		FROM severity
		WHERE flag_type_id = $1 AND level = $2`,
		flagTypeID, level,
	).Scan(&s.ID, &s.FlagTypeID, &s.Level, &s.ColorCode, &s.Glyph)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get severity: %w", err)
	}
	return &s, nil
}

func (r *flagRepository) InsertFlag(ctx context.Context, p *database.Partition, deliveryRowID int64, rec *models.SeverityRecord) (bool, error) {
	query := `
		INSERT INTO delivery_flag (
			delivery_row_id, flag_type_id, severity_id, event_uid, value,
			exclude_from_dashboard
		) VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_uid) DO NOTHING
		RETURNING id`

	err := p.Pool.QueryRow(ctx, query,
		deliveryRowID, rec.FlagTypeID, rec.Severity.ID, rec.EventUID, rec.Value, rec.ExcludeFromDashboard,
	).Scan(&rec.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil // event already recorded
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert delivery flag: %w", err)
	}
	return true, nil
}
