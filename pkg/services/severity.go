package services

import (
	"fmt"
	"math"

	"github.com/datahub-inc/datahub-engine/pkg/models"
)

// ResolveSeverityRecord reduces the recorded detections of one subject and
// flag type to the single effective record: maximum severity level wins.
// Returns nil when no dashboard-visible record exists. The scan is an
// explicit max-reduction so the winner's level never depends on input
// ordering; among records sharing the maximum level any one may win and
// callers must only rely on its level.
func ResolveSeverityRecord(records []models.SeverityRecord) *models.SeverityRecord {
	var effective *models.SeverityRecord
	for i := range records {
		rec := &records[i]
		if rec.ExcludeFromDashboard {
			continue
		}
		if effective == nil || rec.Severity.Level > effective.Severity.Level {
			effective = rec
		}
	}
	return effective
}

// ResolveSeverity is ResolveSeverityRecord collapsed to the severity itself,
// with the all-clear sentinel standing in for "nothing recorded".
func ResolveSeverity(records []models.SeverityRecord) models.Severity {
	if rec := ResolveSeverityRecord(records); rec != nil {
		return rec.Severity
	}
	return models.AllClear
}

// FormatFlagValue renders a flag measurement for display. Impurity values
// are stored in meters and shown in centimeters; hotspot values are degrees
// Celsius. Other flag types have no displayable measurement.
func FormatFlagValue(value *float64, flagType string) string {
	if value == nil {
		return ""
	}
	switch flagType {
	case "impurity":
		return fmt.Sprintf("%d cm", int(math.Round(*value*100)))
	case "hotspot":
		return fmt.Sprintf("%g °C", *value)
	default:
		return ""
	}
}
