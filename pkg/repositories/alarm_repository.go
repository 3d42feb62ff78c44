package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/datahub-inc/datahub-engine/pkg/database"
	"github.com/datahub-inc/datahub-engine/pkg/models"
)

// AlarmRepository provides access to alarm rows inside a partition.
type AlarmRepository interface {
	// Query returns one page of alarms matching the compiled predicates
	// within the time window, newest first, restricted to alarms carrying at
	// least one image. Tags and the first image preview are loaded per row.
	Query(ctx context.Context, p *database.Partition, tenantID int64, set models.PredicateSet, from, to time.Time, limit, offset int) ([]models.Alarm, error)
	// Count runs the same filtered, deduplicated query without the page
	// bounds, keeping pagination metadata consistent with the page slice.
	Count(ctx context.Context, p *database.Partition, tenantID int64, set models.PredicateSet, from, to time.Time) (int, error)
	// Insert stores the alarm, short-circuiting on the unique natural
	// event_uid so at-least-once ingestion stays idempotent.
	Insert(ctx context.Context, p *database.Partition, a *models.Alarm) (bool, error)
}

type alarmRepository struct{}

// NewAlarmRepository creates a new AlarmRepository.
func NewAlarmRepository() AlarmRepository {
	return &alarmRepository{}
}

var _ AlarmRepository = (*alarmRepository)(nil)

// alarmFilterSQL renders the shared WHERE tail for Query and Count.
func alarmFilterSQL(set models.PredicateSet, argOffset int) (string, []any, error) {
	var clause string
	var args []any

	for _, pred := range set.Predicates {
		n := func(i int) string { return fmt.Sprintf("$%d", argOffset+len(args)+i) }

		switch pred.Kind {
		case models.PredicateEntity:
			clause += " AND a.entity_id = " + n(1)
			args = append(args, pred.EntityID)

		case models.PredicateMinSeverity:
			clause += " AND s.level >= " + n(1)
			args = append(args, pred.MinLevel)

		case models.PredicateFlagType:
			clause += " AND a.flag_type_id = " + n(1)
			args = append(args, pred.FlagTypeID)

		case models.PredicateValueRange:
			if pred.Range.Lower != nil {
				op := ">="
				if pred.Range.LowerStrict {
					op = ">"
				}
				clause += fmt.Sprintf(" AND a.value %s %s", op, n(1))
				args = append(args, *pred.Range.Lower)
			}
			if pred.Range.Upper != nil {
				op := "<="
				if pred.Range.UpperStrict {
					op = "<"
				}
				clause += fmt.Sprintf(" AND a.value %s %s", op, n(1))
				args = append(args, *pred.Range.Upper)
			}

		case models.PredicateEquality:
			if !columnPattern.MatchString(pred.Key) {
				return "", nil, fmt.Errorf("invalid filter column %q", pred.Key)
			}
			clause += fmt.Sprintf(" AND a.%s = %s", pred.Key, n(1))
			args = append(args, pred.Text)

		default:
			return "", nil, fmt.Errorf("unsupported predicate kind %d", pred.Kind)
		}
	}

	return clause, args, nil
}

const alarmBaseSQL = `
	FROM alarm a
	JOIN flag_type ft ON ft.id = a.flag_type_id
	JOIN severity s ON s.id = a.severity_id
	JOIN plant_entity pe ON pe.id = a.entity_id
	WHERE a.tenant_id = $1 AND NOT a.exclude_from_dashboard
	  AND a.created_at BETWEEN $2 AND $3
	  AND EXISTS (
		SELECT 1 FROM alarm_media am
		JOIN media m ON m.id = am.media_id
		WHERE am.alarm_id = a.id AND m.media_type = 'image')`

func (r *alarmRepository) Query(ctx context.Context, p *database.Partition, tenantID int64, set models.PredicateSet, from, to time.Time, limit, offset int) ([]models.Alarm, error) {
	args := []any{tenantID, from, to}
	filterSQL, filterArgs, err := alarmFilterSQL(set, len(args))
	if err != nil {
		return nil, err
	}
	args = append(args, filterArgs...)

	query := `
		SELECT DISTINCT a.id, a.tenant_id, a.entity_id, a.flag_type_id, ft.name,
		       a.event_uid, a.timestamp, a.value, a.ack_status, a.feedback_provided,
		       a.exclude_from_dashboard, a.created_at, pe.entity_uid,
		       s.id, s.flag_type_id, s.level, s.color_code, s.glyph` +
		alarmBaseSQL + filterSQL + `
		ORDER BY a.created_at DESC
		LIMIT ` + fmt.Sprintf("$%d", len(args)+1) + ` OFFSET ` + fmt.Sprintf("$%d", len(args)+2)
	args = append(args, limit, offset)

	rows, err := p.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query alarms: %w", err)
	}
	defer rows.Close()

	var alarms []models.Alarm
	for rows.Next() {
		var a models.Alarm
		if err := rows.Scan(
			&a.ID, &a.TenantID, &a.EntityID, &a.FlagTypeID, &a.FlagTypeName,
			&a.EventUID, &a.Timestamp, &a.Value, &a.AckStatus, &a.FeedbackProvided,
			&a.ExcludeFromDashboard, &a.CreatedAt, &a.EntityUID,
			&a.Severity.ID, &a.Severity.FlagTypeID, &a.Severity.Level, &a.Severity.ColorCode, &a.Severity.Glyph,
		); err != nil {
			return nil, fmt.Errorf("failed to scan alarm: %w", err)
		}
		alarms = append(alarms, a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range alarms {
		if err := r.loadAttachments(ctx, p, &alarms[i]); err != nil {
			return nil, err
		}
	}
	return alarms, nil
}

func (r *alarmRepository) Count(ctx context.Context, p *database.Partition, tenantID int64, set models.PredicateSet, from, to time.Time) (int, error) {
	args := []any{tenantID, from, to}
	filterSQL, filterArgs, err := alarmFilterSQL(set, len(args))
	if err != nil {
		return 0, err
	}
	args = append(args, filterArgs...)

	var count int
	query := `SELECT COUNT(DISTINCT a.id)` + alarmBaseSQL + filterSQL
	if err := p.Pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count alarms: %w", err)
	}
	return count, nil
}

func (r *alarmRepository) Insert(ctx context.Context, p *database.Partition, a *models.Alarm) (bool, error) {
	query := `
		INSERT INTO alarm (
			tenant_id, entity_id, flag_type_id, severity_id, event_uid,
			timestamp, value, ack_status, feedback_provided,
			exclude_from_dashboard, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (event_uid) DO NOTHING
		RETURNING id`

	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	err := p.Pool.QueryRow(ctx, query,
		a.TenantID, a.EntityID, a.FlagTypeID, a.Severity.ID, a.EventUID,
		a.Timestamp, a.Value, a.AckStatus, a.FeedbackProvided,
		a.ExcludeFromDashboard, createdAt,
	).Scan(&a.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil // already ingested, idempotent no-op
	}
	if err != nil {
		return false, fmt.Errorf("failed to insert alarm: %w", err)
	}
	a.CreatedAt = createdAt
	return true, nil
}

func (r *alarmRepository) loadAttachments(ctx context.Context, p *database.Partition, a *models.Alarm) error {
	rows, err := p.Pool.Query(ctx, `
		SELECT t.name
		FROM alarm_tag at
		JOIN tag t ON t.id = at.tag_id
		WHERE at.alarm_id = $1
		ORDER BY t.name`,
		a.ID)
	if err != nil {
		return fmt.Errorf("failed to load alarm tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("failed to scan alarm tag: %w", err)
		}
		a.Tags = append(a.Tags, name)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	var m models.Media
	err = p.Pool.QueryRow(ctx, `
		SELECT m.id, m.media_type, m.media_url
		FROM alarm_media am
		JOIN media m ON m.id = am.media_id
		WHERE am.alarm_id = $1 AND m.media_type = 'image'
		ORDER BY m.id
		LIMIT 1`,
		a.ID,
	).Scan(&m.ID, &m.MediaType, &m.MediaURL)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load alarm preview: %w", err)
	}
	a.Preview = &m
	return nil
}
