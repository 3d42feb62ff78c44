package models

// Column is one resolved dashboard column of an effective schema, with its
// localized title.
type Column struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Hidden      bool   `json:"hidden,omitempty"`
}

// FilterChoice is one selectable value of a resolved filter. The label falls
// back to the canonical key when no localization exists.
type FilterChoice struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// FilterSpec is one resolved filter of an effective schema.
type FilterSpec struct {
	Name        string         `json:"name"`
	Title       string         `json:"title"`
	Type        string         `json:"type"`
	Description string         `json:"description,omitempty"`
	Placeholder string         `json:"placeholder,omitempty"`
	Default     string         `json:"default,omitempty"`
	Choices     []FilterChoice `json:"items,omitempty"`
}

// AssetCategory is one resolved asset category of an effective schema.
type AssetCategory struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	MediaKind string `json:"media_kind"`
}

// EffectiveSchema is the per-tenant, per-language materialization of which
// columns, filters and asset categories are active for one table type, in
// tenant-configured order, with localized labels. It is recomputed per
// request and never cached.
type EffectiveSchema struct {
	TableType string          `json:"table_type"`
	Language  string          `json:"language"`
	Columns   []Column        `json:"columns"`
	Filters   []FilterSpec    `json:"filters"`
	Assets    []AssetCategory `json:"assets,omitempty"`
}

// PrimaryKey returns the name of the first column, which the dashboard uses
// as the row key. Empty when the schema has no columns.
func (s *EffectiveSchema) PrimaryKey() string {
	if len(s.Columns) == 0 {
		return ""
	}
	return s.Columns[0].Name
}

// Filter returns the declared filter with the given name.
func (s *EffectiveSchema) Filter(name string) (FilterSpec, bool) {
	for _, f := range s.Filters {
		if f.Name == name {
			return f, true
		}
	}
	return FilterSpec{}, false
}

// FilterNames returns the declared filter names in schema order.
func (s *EffectiveSchema) FilterNames() []string {
	names := make([]string, 0, len(s.Filters))
	for _, f := range s.Filters {
		names = append(names, f.Name)
	}
	return names
}
