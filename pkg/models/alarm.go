package models

import "time"

// Media kinds attached to alarms and deliveries.
const (
	MediaImage    = "image"
	MediaVideo    = "video"
	MediaDocument = "document"
)

// Alarm is one recorded alarm event, carrying its flag type and severity
// directly. Stored in alarm, keyed by the unique natural event_uid so
// repeated ingestion is idempotent.
type Alarm struct {
	ID                   int64     `json:"id"`
	TenantID             int64     `json:"tenant_id"`
	EntityID             int64     `json:"entity_id"`
	FlagTypeID           int64     `json:"flag_type_id"`
	FlagTypeName         string    `json:"flag_type_name"`
	Severity             Severity  `json:"severity"`
	EventUID             string    `json:"event_uid"`
	Timestamp            time.Time `json:"timestamp"`
	Value                *float64  `json:"value,omitempty"`
	AckStatus            bool      `json:"ack_status"`
	FeedbackProvided     bool      `json:"feedback_provided"`
	ExcludeFromDashboard bool      `json:"exclude_from_dashboard"`
	CreatedAt            time.Time `json:"created_at"`

	EntityUID string   `json:"entity_uid"`
	Tags      []string `json:"tags,omitempty"`
	Preview   *Media   `json:"preview,omitempty"` // first attached image
}

// Media is one stored media object referenced by alarms or deliveries.
// Stored in media.
type Media struct {
	ID        int64  `json:"id"`
	MediaType string `json:"media_type"`
	MediaURL  string `json:"media_url"`
}

// Tag is a free-form alarm label. Stored in tag, attached via alarm_tag.
type Tag struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
