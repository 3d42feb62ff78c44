package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/datahub-inc/datahub-engine/pkg/apperrors"
	"github.com/datahub-inc/datahub-engine/pkg/database"
	"github.com/datahub-inc/datahub-engine/pkg/metrics"
	"github.com/datahub-inc/datahub-engine/pkg/models"
	"github.com/datahub-inc/datahub-engine/pkg/repositories"
)

// FlagEvent is one detection attached to an ingested delivery.
type FlagEvent struct {
	EventUID string   `json:"event_uid,omitempty"` // generated when absent
	FlagType string   `json:"flag_type"`
	Level    int      `json:"severity_level"`
	Value    *float64 `json:"value,omitempty"`
}

// DeliveryEvent is one delivery as reported by the edge pipeline.
type DeliveryEvent struct {
	DeliveryID string      `json:"delivery_id"`
	EntityType string      `json:"entity_type"`
	EntityUID  string      `json:"entity_uid"`
	Start      time.Time   `json:"delivery_start"`
	End        *time.Time  `json:"delivery_end,omitempty"`
	Location   string      `json:"delivery_location,omitempty"`
	Flags      []FlagEvent `json:"flags,omitempty"`
}

// AlarmEvent is one alarm as reported by the edge pipeline.
type AlarmEvent struct {
	EventUID   string    `json:"event_uid,omitempty"`
	EntityType string    `json:"entity_type"`
	EntityUID  string    `json:"entity_uid"`
	FlagType   string    `json:"flag_type"`
	Level      int       `json:"severity_level"`
	Timestamp  time.Time `json:"timestamp"`
	Value      *float64  `json:"value,omitempty"`
}

// IngestService stores events delivered at-least-once by the edge pipeline.
// Every write is keyed on a natural unique id, so redelivery of the same
// event is a no-op and the service never double-counts.
type IngestService struct {
	deliveries repositories.DeliveryRepository
	alarms     repositories.AlarmRepository
	flags      repositories.FlagRepository
	entities   repositories.EntityRepository
	catalog    repositories.CatalogRepository
	logger     *zap.Logger
}

// NewIngestService creates a new IngestService.
func NewIngestService(
	deliveries repositories.DeliveryRepository,
	alarms repositories.AlarmRepository,
	flags repositories.FlagRepository,
	entities repositories.EntityRepository,
	catalog repositories.CatalogRepository,
	logger *zap.Logger,
) *IngestService {
	return &IngestService{
		deliveries: deliveries,
		alarms:     alarms,
		flags:      flags,
		entities:   entities,
		catalog:    catalog,
		logger:     logger,
	}
}

// IngestDelivery stores a delivery event and its flags. Returns true when
// the delivery was new; a redelivered event still gets its flags attached,
// each itself idempotent on event_uid.
func (s *IngestService) IngestDelivery(ctx context.Context, p *database.Partition, ev DeliveryEvent) (bool, error) {
	if ev.DeliveryID == "" {
		return false, apperrors.NewValidation("delivery_id", "required")
	}
	if ev.EntityUID == "" {
		return false, apperrors.NewValidation("entity_uid", "required")
	}
	if ev.EntityType == "" {
		ev.EntityType = "gate"
	}

	entity, err := s.entities.EnsureEntity(ctx, p, p.Tenant.ID, ev.EntityType, ev.EntityUID)
	if err != nil {
		return false, s.failed("delivery", err)
	}

	d := &models.Delivery{
		TenantID:   p.Tenant.ID,
		EntityID:   entity.ID,
		DeliveryID: ev.DeliveryID,
		Start:      ev.Start,
		End:        ev.End,
		Location:   ev.Location,
	}
	created, err := s.deliveries.Insert(ctx, p, d)
	if err != nil {
		return false, s.failed("delivery", err)
	}
	if !created {
		existing, err := s.deliveries.GetByDeliveryID(ctx, p, ev.DeliveryID)
		if err != nil {
			return false, s.failed("delivery", err)
		}
		if existing == nil {
			return false, s.failed("delivery", fmt.Errorf("delivery %s vanished after conflict", ev.DeliveryID))
		}
		d = existing
	}

	for _, fe := range ev.Flags {
		if err := s.attachFlag(ctx, p, d.ID, fe); err != nil {
			return created, s.failed("delivery", err)
		}
	}

	outcome := "stored"
	if !created {
		outcome = "duplicate"
	}
	metrics.IngestsTotal.WithLabelValues("delivery", outcome).Inc()
	return created, nil
}

func (s *IngestService) attachFlag(ctx context.Context, p *database.Partition, deliveryRowID int64, fe FlagEvent) error {
	ft, err := s.catalog.GetFlagType(ctx, p, fe.FlagType)
	if err != nil {
		return err
	}
	if ft == nil {
		return apperrors.NewNotFound("flag type", fe.FlagType)
	}

	sev, err := s.flags.GetSeverity(ctx, p, ft.ID, fe.Level)
	if err != nil {
		return err
	}
	if sev == nil {
		return apperrors.NewValidation("severity_level",
			fmt.Sprintf("level %d not defined for flag type %s", fe.Level, fe.FlagType))
	}

	rec := models.SeverityRecord{
		FlagTypeID: ft.ID,
		Severity:   *sev,
		Value:      fe.Value,
		EventUID:   orNewUID(fe.EventUID),
	}
	_, err = s.flags.InsertFlag(ctx, p, deliveryRowID, &rec)
	return err
}

// IngestAlarm stores an alarm event. Returns true when the alarm was new.
func (s *IngestService) IngestAlarm(ctx context.Context, p *database.Partition, ev AlarmEvent) (bool, error) {
	if ev.EntityUID == "" {
		return false, apperrors.NewValidation("entity_uid", "required")
	}
	if ev.EntityType == "" {
		ev.EntityType = "gate"
	}

	entity, err := s.entities.EnsureEntity(ctx, p, p.Tenant.ID, ev.EntityType, ev.EntityUID)
	if err != nil {
		return false, s.failed("alarm", err)
	}

	ft, err := s.catalog.GetFlagType(ctx, p, ev.FlagType)
	if err != nil {
		return false, s.failed("alarm", err)
	}
	if ft == nil {
		return false, apperrors.NewNotFound("flag type", ev.FlagType)
	}

	sev, err := s.flags.GetSeverity(ctx, p, ft.ID, ev.Level)
	if err != nil {
		return false, s.failed("alarm", err)
	}
	if sev == nil {
		return false, apperrors.NewValidation("severity_level",
			fmt.Sprintf("level %d not defined for flag type %s", ev.Level, ev.FlagType))
	}

	a := &models.Alarm{
		TenantID:     p.Tenant.ID,
		EntityID:     entity.ID,
		FlagTypeID:   ft.ID,
		FlagTypeName: ft.Name,
		Severity:     *sev,
		EventUID:     orNewUID(ev.EventUID),
		Timestamp:    ev.Timestamp,
		Value:        ev.Value,
	}
	created, err := s.alarms.Insert(ctx, p, a)
	if err != nil {
		return false, s.failed("alarm", err)
	}

	outcome := "stored"
	if !created {
		outcome = "duplicate"
	}
	metrics.IngestsTotal.WithLabelValues("alarm", outcome).Inc()
	return created, nil
}

func (s *IngestService) failed(kind string, err error) error {
	metrics.IngestsTotal.WithLabelValues(kind, "failed").Inc()
	return err
}

func orNewUID(uid string) string {
	if uid != "" {
		return uid
	}
	return uuid.NewString()
}
