package models

import (
	"strings"
	"time"
)

// Language is a supported display language. Stored in language.
type Language struct {
	ID   int64  `json:"id"`
	Code string `json:"code"` // ISO 639-1, e.g. "en", "de"
	Name string `json:"name"` // e.g. "English", "German"
}

// TableType is a logical record category ("delivery", "alarm") with a
// catalog-defined set of possible fields, filters and assets. Stored in
// table_type.
type TableType struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// DataType names the wire type of a table field ("string", "datetime",
// "number", ...). Stored in data_type.
type DataType struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}

// TableField is a global catalog column definition. Stored in table_field.
type TableField struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	TypeID      int64  `json:"type_id"`
	TypeName    string `json:"type_name"`
	Description string `json:"description,omitempty"`
}

// TableFilter is a global catalog filter definition. Stored in table_filter.
type TableFilter struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"` // internal key, e.g. "severity_level"
	Type       string `json:"type"` // e.g. "enum", "text"
	IsActive   bool   `json:"is_active"`
	IsExternal bool   `json:"is_external"` // items come from an external URL
	URL        string `json:"url,omitempty"`
}

// FilterItem is one choice value of an enum filter. Stored in filter_item.
type FilterItem struct {
	ID       int64  `json:"id"`
	FilterID int64  `json:"filter_id"`
	Key      string `json:"key"` // canonical key, e.g. "impurity"
	IsActive bool   `json:"is_active"`
	Position int    `json:"position"`
}

// TableAsset is a global catalog asset-category definition (media attached
// to rows of a table type). Stored in table_asset.
type TableAsset struct {
	ID        int64  `json:"id"`
	Key       string `json:"key"`
	MediaKind string `json:"media_kind"` // "image", "video", "document"
}

// FlagType is a global detection category ("impurity", "hotspot"). Stored in
// flag_type.
type FlagType struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Localization is one localized label row: title plus optional description
// and placeholder. Unique per (subject, language).
type Localization struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
}

// CleanFieldName collapses punctuation runs in a catalog field name into
// single underscores, so admin-entered names are safe column keys.
func CleanFieldName(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r == '_' {
			b.WriteRune(r)
			continue
		}
		if isPunct(r) {
			if b.Len() > 0 && b.String()[b.Len()-1] == '_' {
				continue
			}
			b.WriteRune('_')
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func isPunct(r rune) bool {
	return strings.ContainsRune("!\"#$%&'()*+,-./:;<=>?@[\\]^`{|}~", r)
}
