package models

import "time"

// Delivery status values derived from the delivery duration.
const (
	DeliveryStatusDone    = "done"
	DeliveryStatusOngoing = "ongoing"
)

// Durations bounding the delivery status heuristic: anything shorter than
// ongoingThreshold is still being recorded; between the two thresholds the
// record is sensor noise and dropped from listings.
const (
	ongoingThreshold = 3 * time.Second
	noiseThreshold   = 30 * time.Second
)

// Delivery is one recorded material delivery. Stored in delivery, keyed by
// the unique natural delivery_id so repeated ingestion is idempotent.
type Delivery struct {
	ID         int64      `json:"id"`
	TenantID   int64      `json:"tenant_id"`
	EntityID   int64      `json:"entity_id"`
	DeliveryID string     `json:"delivery_id"`
	Start      time.Time  `json:"delivery_start"`
	End        *time.Time `json:"delivery_end,omitempty"`
	Location   string     `json:"delivery_location"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Status classifies the delivery as done or ongoing from its duration.
func (d *Delivery) Status() string {
	if d.End == nil || d.End.Sub(d.Start) < ongoingThreshold {
		return DeliveryStatusOngoing
	}
	return DeliveryStatusDone
}

// IsNoise reports whether the delivery is a spurious short recording that
// listings drop (3s to 30s long).
func (d *Delivery) IsNoise() bool {
	if d.End == nil {
		return false
	}
	dur := d.End.Sub(d.Start)
	return dur >= ongoingThreshold && dur < noiseThreshold
}
