package models

// Severity is an ordered escalation level scoped to a flag type, higher
// level = more severe. Stored in severity.
type Severity struct {
	ID         int64  `json:"id"`
	FlagTypeID int64  `json:"flag_type_id"`
	Level      int    `json:"level"`
	ColorCode  string `json:"color_code"`
	Glyph      string `json:"glyph"` // display glyph shown in dashboard cells
}

// AllClear is the distinguished "no flag recorded" severity. It is a
// sentinel, not a database row: callers render it as a green glyph instead
// of treating the absence of flags as an error.
var AllClear = Severity{
	Level:     0,
	ColorCode: "#00FF00",
	Glyph:     "🟩",
}

// IsAllClear reports whether s is the all-clear sentinel.
func (s Severity) IsAllClear() bool {
	return s.ID == 0 && s.Level == 0
}

// SeverityRecord is one recorded detection for an entity: a flag instance
// carrying its severity. A delivery or alarm may carry any number of these
// per flag type. Stored in delivery_flag.
type SeverityRecord struct {
	ID                   int64    `json:"id"`
	FlagTypeID           int64    `json:"flag_type_id"`
	FlagTypeName         string   `json:"flag_type_name"`
	Severity             Severity `json:"severity"`
	Value                *float64 `json:"value,omitempty"` // measurement, unit depends on flag type
	EventUID             string   `json:"event_uid"`
	ExcludeFromDashboard bool     `json:"exclude_from_dashboard"`
}
