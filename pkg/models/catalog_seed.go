package models

// CatalogSeed is the declarative catalog document applied to every freshly
// provisioned partition. Application is idempotent: re-provisioning a tenant
// re-applies the document without duplicating rows.
type CatalogSeed struct {
	Languages  []SeedLanguage  `yaml:"languages"`
	DataTypes  []string        `yaml:"data_types"`
	TableTypes []SeedTableType `yaml:"table_types"`
	FlagTypes  []SeedFlagType  `yaml:"flag_types"`
}

// SeedLanguage declares one supported display language.
type SeedLanguage struct {
	Code string `yaml:"code"`
	Name string `yaml:"name"`
}

// SeedLocalization is one localized label, keyed by language code in the
// enclosing map.
type SeedLocalization struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description,omitempty"`
	Placeholder string `yaml:"placeholder,omitempty"`
}

// SeedTableType declares a table type with its full default configuration.
// Provisioning activates the table, its fields, filters and assets for the
// new tenant in document order.
type SeedTableType struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description,omitempty"`
	Fields      []SeedField  `yaml:"fields"`
	Filters     []SeedFilter `yaml:"filters,omitempty"`
	Assets      []SeedAsset  `yaml:"assets,omitempty"`
}

// SeedField declares one catalog column.
type SeedField struct {
	Name          string                      `yaml:"name"`
	Type          string                      `yaml:"type"` // must name a declared data type
	Hidden        bool                        `yaml:"hidden,omitempty"`
	Localizations map[string]SeedLocalization `yaml:"localizations"`
}

// SeedFilter declares one catalog filter with its choice items.
type SeedFilter struct {
	Name          string                      `yaml:"name"`
	Type          string                      `yaml:"type"`
	External      bool                        `yaml:"external,omitempty"`
	URL           string                      `yaml:"url,omitempty"`
	Default       string                      `yaml:"default,omitempty"`
	Items         []SeedFilterItem            `yaml:"items,omitempty"`
	Localizations map[string]SeedLocalization `yaml:"localizations"`
}

// SeedFilterItem declares one choice of an enum filter.
type SeedFilterItem struct {
	Key           string                      `yaml:"key"`
	Localizations map[string]SeedLocalization `yaml:"localizations,omitempty"`
}

// SeedAsset declares one asset category.
type SeedAsset struct {
	Key           string                      `yaml:"key"`
	MediaKind     string                      `yaml:"media_kind"`
	Localizations map[string]SeedLocalization `yaml:"localizations,omitempty"`
}

// SeedFlagType declares a detection category, its severity scale and its
// deployment for the provisioned tenant.
type SeedFlagType struct {
	Name          string                      `yaml:"name"`
	Severities    []SeedSeverity              `yaml:"severities"`
	Localizations map[string]SeedLocalization `yaml:"localizations,omitempty"`
}

// SeedSeverity declares one level of a flag type's severity scale.
type SeedSeverity struct {
	Level int    `yaml:"level"`
	Color string `yaml:"color"`
	Glyph string `yaml:"glyph"`
}
