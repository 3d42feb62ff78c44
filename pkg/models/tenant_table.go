package models

// TenantTable activates a table type for a tenant. Stored in tenant_table.
type TenantTable struct {
	ID          int64  `json:"id"`
	TenantID    int64  `json:"tenant_id"`
	TableTypeID int64  `json:"table_type_id"`
	IsActive    bool   `json:"is_active"`
	Description string `json:"description,omitempty"`
}

// TenantTableField activates and orders one catalog field for a tenant
// table. Stored in tenant_table_field, unique per (field, tenant_table).
type TenantTableField struct {
	ID       int64      `json:"id"`
	Field    TableField `json:"field"`
	IsActive bool       `json:"is_active"`
	IsHidden bool       `json:"is_hidden"`
	Position int        `json:"position"`
}

// TenantTableFilter activates and orders one catalog filter for a tenant
// table, optionally overriding the default choice. Stored in
// tenant_table_filter.
type TenantTableFilter struct {
	ID         int64       `json:"id"`
	Filter     TableFilter `json:"filter"`
	IsActive   bool        `json:"is_active"`
	Position   int         `json:"position"`
	DefaultKey string      `json:"default_key,omitempty"` // per-tenant default item
}

// TenantTableAsset activates one catalog asset category for a tenant table.
// Stored in tenant_table_asset.
type TenantTableAsset struct {
	ID       int64      `json:"id"`
	Asset    TableAsset `json:"asset"`
	IsActive bool       `json:"is_active"`
	Position int        `json:"position"`
}

// TenantFlagDeployment records that a flag type is deployed for a tenant,
// i.e. its detections appear as a severity column on the dashboard. Stored
// in tenant_flag_deployment.
type TenantFlagDeployment struct {
	ID       int64    `json:"id"`
	TenantID int64    `json:"tenant_id"`
	FlagType FlagType `json:"flag_type"`
}
