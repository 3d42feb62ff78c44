package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/datahub-inc/datahub-engine/pkg/apperrors"
	"github.com/datahub-inc/datahub-engine/pkg/database"
	"github.com/datahub-inc/datahub-engine/pkg/metrics"
	"github.com/datahub-inc/datahub-engine/pkg/models"
	"github.com/datahub-inc/datahub-engine/pkg/repositories"
)

// Table type names the query service knows how to shape rows for.
const (
	TableDelivery = "delivery"
	TableAlarm    = "alarm"
)

// TimeWindow bounds a collection query, UTC inclusive.
type TimeWindow struct {
	From time.Time
	To   time.Time
}

// DayWindow computes the query window from optional calendar dates in the
// tenant's timezone. A missing start date means today; a missing end date
// means the start date. The window spans local midnight to one nanosecond
// before the next midnight, converted to UTC.
func DayWindow(from, to *time.Time, loc *time.Location, now time.Time) TimeWindow {
	start := now.In(loc)
	if from != nil {
		start = from.In(loc)
	}
	startDay := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, loc)

	endDay := startDay
	if to != nil {
		end := to.In(loc)
		endDay = time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, loc)
	}

	return TimeWindow{
		From: startDay.UTC(),
		To:   endDay.AddDate(0, 0, 1).Add(-time.Nanosecond).UTC(),
	}
}

// PageCount returns the number of pages needed for total items. Zero items
// means zero pages.
func PageCount(total, pageSize int) int {
	if total <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// pageBounds returns the half-open slice bounds of one page. Pages past the
// end come out empty rather than failing, so clients can probe past the last
// page.
func pageBounds(total, page, pageSize int) (int, int) {
	lo := (page - 1) * pageSize
	if lo > total {
		return total, total
	}
	hi := lo + pageSize
	if hi > total {
		hi = total
	}
	return lo, hi
}

// QueryRequest is one collection query as it arrives from the API: a table
// type, display language, the raw filter map, an optional calendar window
// and pagination.
type QueryRequest struct {
	TableType string
	Language  string
	Filters   map[string]string
	From      *time.Time
	To        *time.Time
	Page      int
	PageSize  int
}

// Collection is one shaped result page plus the pagination metadata the
// envelope carries. TotalRecord counts all matches, not just this page.
type Collection struct {
	Language    string
	Tenant      string
	TotalRecord int
	Pages       int
	Items       []map[string]any
}

// FlagReportEntry is the effective state of one deployed flag type on a
// single delivery.
type FlagReportEntry struct {
	Flag  string `json:"flag"`
	Glyph string `json:"severity"`
	Color string `json:"color"`
	Value string `json:"value,omitempty"`
}

// QueryService executes collection queries end to end: schema resolution,
// filter compilation, the repository query, severity reduction and row
// shaping. One service instance is shared across requests; all tenant state
// travels in the partition handle.
type QueryService struct {
	schemas    *MetadataEngine
	filters    *FilterCompiler
	deliveries repositories.DeliveryRepository
	alarms     repositories.AlarmRepository
	flags      repositories.FlagRepository
	localizer  *Localizer

	defaultTimezone string
	now             func() time.Time
	logger          *zap.Logger
}

// NewQueryService creates a new QueryService.
func NewQueryService(
	schemas *MetadataEngine,
	filters *FilterCompiler,
	deliveries repositories.DeliveryRepository,
	alarms repositories.AlarmRepository,
	flags repositories.FlagRepository,
	localizer *Localizer,
	defaultTimezone string,
	logger *zap.Logger,
) *QueryService {
	return &QueryService{
		schemas:         schemas,
		filters:         filters,
		deliveries:      deliveries,
		alarms:          alarms,
		flags:           flags,
		localizer:       localizer,
		defaultTimezone: defaultTimezone,
		now:             time.Now,
		logger:          logger,
	}
}

// Query dispatches on the requested table type. The table type is both the
// schema lookup key and the row-shaping strategy.
func (s *QueryService) Query(ctx context.Context, p *database.Partition, req QueryRequest) (*Collection, error) {
	start := time.Now()
	var (
		col *Collection
		err error
	)
	switch req.TableType {
	case TableDelivery:
		col, err = s.queryDeliveries(ctx, p, req)
	case TableAlarm:
		col, err = s.queryAlarms(ctx, p, req)
	default:
		// Unknown table types still go through schema resolution so the
		// caller gets the catalog's NotFound with the known options.
		_, _, err = s.schemas.ResolveSchema(ctx, p, req.TableType, req.Language)
		if err == nil {
			err = apperrors.NewNotFound("table type", req.TableType)
		}
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.QueriesTotal.WithLabelValues(req.TableType, outcome).Inc()
	metrics.QueryDuration.WithLabelValues(req.TableType).Observe(time.Since(start).Seconds())
	return col, err
}

// validatePage normalizes pagination input: a non-positive page size is a
// client error, a page below one silently becomes the first page.
func validatePage(req *QueryRequest) error {
	if req.PageSize <= 0 {
		return apperrors.NewValidation("page_size", "must be positive")
	}
	if req.Page < 1 {
		req.Page = 1
	}
	return nil
}

// window resolves the tenant-local query window. An unknown tenant timezone
// is logged and degrades to UTC instead of failing the query.
func (s *QueryService) window(p *database.Partition, req QueryRequest) TimeWindow {
	tz := p.Tenant.TimezoneOrDefault(s.defaultTimezone)
	loc, err := time.LoadLocation(tz)
	if err != nil {
		s.logger.Warn("unknown tenant timezone, using UTC",
			zap.String("tenant", p.Tenant.TenantID),
			zap.String("timezone", tz))
		loc = time.UTC
	}
	return DayWindow(req.From, req.To, loc, s.now())
}

func (s *QueryService) queryDeliveries(ctx context.Context, p *database.Partition, req QueryRequest) (*Collection, error) {
	if err := validatePage(&req); err != nil {
		return nil, err
	}

	schema, lang, err := s.schemas.ResolveSchema(ctx, p, req.TableType, req.Language)
	if err != nil {
		return nil, err
	}
	set, err := s.filters.Compile(ctx, p, schema, req.Filters)
	if err != nil {
		return nil, err
	}

	window := s.window(p, req)
	all, err := s.deliveries.Query(ctx, p, p.Tenant.ID, set, window.From, window.To)
	if err != nil {
		return nil, err
	}

	// Spurious short recordings are dropped before pagination so page counts
	// and total_record agree with what the client can actually page through.
	kept := all[:0]
	for _, d := range all {
		if !d.IsNoise() {
			kept = append(kept, d)
		}
	}

	total := len(kept)
	lo, hi := pageBounds(total, req.Page, req.PageSize)

	deployments, err := s.flags.ListDeployments(ctx, p, p.Tenant.ID)
	if err != nil {
		return nil, err
	}

	items := make([]map[string]any, 0, hi-lo)
	for i := lo; i < hi; i++ {
		item, err := s.shapeDelivery(ctx, p, &kept[i], deployments, lang)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return &Collection{
		Language:    lang.Code,
		Tenant:      p.Tenant.TenantID,
		TotalRecord: total,
		Pages:       PageCount(total, req.PageSize),
		Items:       items,
	}, nil
}

// shapeDelivery renders one delivery row. Beyond the fixed columns it adds
// one glyph and one color column per deployed flag type, reduced to the
// effective severity of that delivery.
func (s *QueryService) shapeDelivery(ctx context.Context, p *database.Partition, d *models.Delivery, deployments []models.TenantFlagDeployment, lang *models.Language) (map[string]any, error) {
	item := map[string]any{
		"delivery_id":    d.DeliveryID,
		"delivery_start": d.Start,
		"delivery_end":   d.End,
		"location":       s.localizer.EntityTitle(ctx, p, d.EntityID, lang.ID, d.Location),
		"status":         d.Status(),
	}

	for _, dep := range deployments {
		records, err := s.flags.ListDeliveryFlags(ctx, p, d.ID, dep.FlagType.ID)
		if err != nil {
			return nil, err
		}
		eff := ResolveSeverity(records)
		item[dep.FlagType.Name] = eff.Glyph
		item[dep.FlagType.Name+"_color"] = eff.ColorCode
	}
	return item, nil
}

func (s *QueryService) queryAlarms(ctx context.Context, p *database.Partition, req QueryRequest) (*Collection, error) {
	if err := validatePage(&req); err != nil {
		return nil, err
	}

	schema, lang, err := s.schemas.ResolveSchema(ctx, p, req.TableType, req.Language)
	if err != nil {
		return nil, err
	}
	set, err := s.filters.Compile(ctx, p, schema, req.Filters)
	if err != nil {
		return nil, err
	}

	window := s.window(p, req)
	total, err := s.alarms.Count(ctx, p, p.Tenant.ID, set, window.From, window.To)
	if err != nil {
		return nil, err
	}

	offset := (req.Page - 1) * req.PageSize
	var alarms []models.Alarm
	if offset < total {
		alarms, err = s.alarms.Query(ctx, p, p.Tenant.ID, set, window.From, window.To, req.PageSize, offset)
		if err != nil {
			return nil, err
		}
	}

	items := make([]map[string]any, 0, len(alarms))
	for i := range alarms {
		items = append(items, s.shapeAlarm(ctx, p, &alarms[i], lang))
	}

	return &Collection{
		Language:    lang.Code,
		Tenant:      p.Tenant.TenantID,
		TotalRecord: total,
		Pages:       PageCount(total, req.PageSize),
		Items:       items,
	}, nil
}

func (s *QueryService) shapeAlarm(ctx context.Context, p *database.Partition, a *models.Alarm, lang *models.Language) map[string]any {
	item := map[string]any{
		"event_uid":         a.EventUID,
		"timestamp":         a.Timestamp,
		"flag_type":         s.localizer.FlagTypeTitle(ctx, p, models.FlagType{ID: a.FlagTypeID, Name: a.FlagTypeName}, lang.ID),
		"severity":          a.Severity.Glyph,
		"color":             a.Severity.ColorCode,
		"value":             FormatFlagValue(a.Value, a.FlagTypeName),
		"ack_status":        a.AckStatus,
		"feedback_provided": a.FeedbackProvided,
		"location":          s.localizer.EntityTitle(ctx, p, a.EntityID, lang.ID, a.EntityUID),
	}
	if len(a.Tags) > 0 {
		item["tags"] = a.Tags
	}
	if a.Preview != nil {
		item["preview"] = a.Preview.MediaURL
	}
	return item
}

// FlagReport resolves the effective severity of every deployed flag type for
// one delivery, identified by its natural delivery id.
func (s *QueryService) FlagReport(ctx context.Context, p *database.Partition, deliveryID, langCode string) ([]FlagReportEntry, error) {
	d, err := s.deliveries.GetByDeliveryID(ctx, p, deliveryID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apperrors.NewNotFound("delivery", deliveryID)
	}
	if d.TenantID != p.Tenant.ID {
		return nil, apperrors.NewNotFound("delivery", deliveryID)
	}

	lang, err := s.schemas.ResolveLanguage(ctx, p, langCode)
	if err != nil {
		return nil, err
	}

	deployments, err := s.flags.ListDeployments(ctx, p, p.Tenant.ID)
	if err != nil {
		return nil, err
	}

	report := make([]FlagReportEntry, 0, len(deployments))
	for _, dep := range deployments {
		records, err := s.flags.ListDeliveryFlags(ctx, p, d.ID, dep.FlagType.ID)
		if err != nil {
			return nil, err
		}

		entry := FlagReportEntry{
			Flag:  s.localizer.FlagTypeTitle(ctx, p, dep.FlagType, lang.ID),
			Glyph: models.AllClear.Glyph,
			Color: models.AllClear.ColorCode,
		}
		if rec := ResolveSeverityRecord(records); rec != nil {
			entry.Glyph = rec.Severity.Glyph
			entry.Color = rec.Severity.ColorCode
			entry.Value = FormatFlagValue(rec.Value, dep.FlagType.Name)
		}
		report = append(report, entry)
	}
	return report, nil
}
