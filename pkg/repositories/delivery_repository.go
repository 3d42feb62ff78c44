package repositories

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/datahub-inc/datahub-engine/pkg/database"
	"github.com/datahub-inc/datahub-engine/pkg/models"
)

// columnPattern guards pass-through equality predicates: only plain
// lower-case identifiers may be interpolated as column names. Values are
// always bound as parameters.
var columnPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// DeliveryRepository provides access to delivery rows inside a partition.
type DeliveryRepository interface {
	// Query returns all deliveries matching the compiled predicates within
	// the time window, newest first. Pagination happens in the query service
	// after the noise filter, so no limit is applied here.
	Query(ctx context.Context, p *database.Partition, tenantID int64, set models.PredicateSet, from, to time.Time) ([]models.Delivery, error)
	GetByDeliveryID(ctx context.Context, p *database.Partition, deliveryID string) (*models.Delivery, error)
	// Insert stores the delivery, short-circuiting on the unique natural
	// delivery_id so at-least-once ingestion stays idempotent. Returns false
	// when the row already existed.
	Insert(ctx context.Context, p *database.Partition, d *models.Delivery) (bool, error)
}

type deliveryRepository struct{}

// NewDeliveryRepository creates a new DeliveryRepository.
func NewDeliveryRepository() DeliveryRepository {
	return &deliveryRepository{}
}

var _ DeliveryRepository = (*deliveryRepository)(nil)

func (r *deliveryRepository) Query(ctx context.Context, p *database.Partition, tenantID int64, set models.PredicateSet, from, to time.Time) ([]models.Delivery, error) {
	query := `
		SELECT DISTINCT d.id, d.tenant_id, d.entity_id, d.delivery_id,
		       d.delivery_start, d.delivery_end, d.delivery_location, d.created_at
		FROM delivery d
		WHERE d.tenant_id = $1 AND d.created_at BETWEEN $2 AND $3`
	args := []any{tenantID, from, to}

	for _, pred := range set.Predicates {
		clause, predArgs, err := deliveryPredicateSQL(pred, len(args))
		if err != nil {
			return nil, err
		}
		query += " AND " + clause
		args = append(args, predArgs...)
	}

	query += " ORDER BY d.created_at DESC"

	rows, err := p.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query deliveries: %w", err)
	}
	defer rows.Close()

	var deliveries []models.Delivery
	for rows.Next() {
		d, err := scanDelivery(rows)
		if err != nil {
			return nil, err
		}
		deliveries = append(deliveries, *d)
	}
	return deliveries, rows.Err()
}

// deliveryPredicateSQL renders one compiled predicate as a WHERE clause.
// argOffset is the number of placeholders already consumed.
func deliveryPredicateSQL(pred models.Predicate, argOffset int) (string, []any, error) {
	n := func(i int) string { return fmt.Sprintf("$%d", argOffset+i) }

	switch pred.Kind {
	case models.PredicateEntity:
		return "d.entity_id = " + n(1), []any{pred.EntityID}, nil

	case models.PredicateMinSeverity:
		clause := `EXISTS (
			SELECT 1 FROM delivery_flag df
			JOIN severity s ON s.id = df.severity_id
			WHERE df.delivery_row_id = d.id AND NOT df.exclude_from_dashboard
			  AND s.level >= ` + n(1) + `)`
		return clause, []any{pred.MinLevel}, nil

	case models.PredicateFlagType:
		clause := `EXISTS (
			SELECT 1 FROM delivery_flag df
			WHERE df.delivery_row_id = d.id AND NOT df.exclude_from_dashboard
			  AND df.flag_type_id = ` + n(1) + `)`
		return clause, []any{pred.FlagTypeID}, nil

	case models.PredicateValueRange:
		clause := `EXISTS (
			SELECT 1 FROM delivery_flag df
			WHERE df.delivery_row_id = d.id AND NOT df.exclude_from_dashboard`
		var args []any
		i := 0
		if pred.Range.Lower != nil {
			i++
			op := ">="
			if pred.Range.LowerStrict {
				op = ">"
			}
			clause += fmt.Sprintf(" AND df.value %s %s", op, n(i))
			args = append(args, *pred.Range.Lower)
		}
		if pred.Range.Upper != nil {
			i++
			op := "<="
			if pred.Range.UpperStrict {
				op = "<"
			}
			clause += fmt.Sprintf(" AND df.value %s %s", op, n(i))
			args = append(args, *pred.Range.Upper)
		}
		clause += ")"
		return clause, args, nil

	case models.PredicateEquality:
		if !columnPattern.MatchString(pred.Key) {
			return "", nil, fmt.Errorf("invalid filter column %q", pred.Key)
		}
		return fmt.Sprintf("d.%s = %s", pred.Key, n(1)), []any{pred.Text}, nil

	default:
		return "", nil, fmt.Errorf("unsupported predicate kind %d", pred.Kind)
	}
}

func (r *deliveryRepository) GetByDeliveryID(ctx context.Context, p *database.Partition, deliveryID string) (*models.Delivery, error) {
	row := p.Pool.QueryRow(ctx, `
		SELECT id, tenant_id, entity_id, delivery_id,
		       delivery_start, delivery_end, delivery_location, created_at
		FROM delivery
		WHERE delivery_id = $1`,
		deliveryID)

	d, err := scanDelivery(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *deliveryRepository) Insert(ctx context.Context, p *database.Partition, d *models.Delivery) (bool, error) {
	query := `
		INSERT INTO delivery (
			tenant_id, entity_id, delivery_id, delivery_start, delivery_end,
			delivery_location, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (delivery_id) DO NOTHING
		RETURNING id`

	createdAt := d.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	err := p.Pool.QueryRow(ctx, query,
		d.TenantID, d.EntityID, d.DeliveryID, d.Start, d.End, d.Location, createdAt,
	).Scan(&d.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil // already ingested, idempotent no-op
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert delivery: %w", err)
	}
	d.CreatedAt = createdAt
	return true, nil
}

func scanDelivery(row pgx.Row) (*models.Delivery, error) {
	var d models.Delivery
	err := row.Scan(
		&d.ID, &d.TenantID, &d.EntityID, &d.DeliveryID,
		&d.Start, &d.End, &d.Location, &d.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan delivery: %w", err)
	}
	return &d, nil
}
