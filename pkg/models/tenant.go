package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Tenant is a control-plane row describing one customer account. Each tenant
// owns exactly one storage partition (a dedicated database on the shared
// server). Stored in wa_tenant.
type Tenant struct {
	ID              int64          `json:"id"`
	TenantID        string         `json:"tenant_id"` // natural key, e.g. "gml-luh"
	TenantName      string         `json:"tenant_name"`
	Location        string         `json:"location"`
	Domain          string         `json:"domain"`
	DefaultLanguage string         `json:"default_language"`
	Timezone        string         `json:"timezone"`
	IsActive        bool           `json:"is_active"`
	CreatedAt       time.Time      `json:"created_at"`
	MetaInfo        map[string]any `json:"meta_info,omitempty"`
}

var partitionNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// PartitionName derives the physical database name for this tenant.
func (t *Tenant) PartitionName() string {
	return PartitionNameFor(t.TenantName)
}

// PartitionNameFor derives the partition database name for a tenant name.
func PartitionNameFor(tenantName string) string {
	return "tenant_" + strings.ToLower(tenantName)
}

// ValidatePartitionName rejects names that cannot be used safely as a
// PostgreSQL identifier in CREATE DATABASE.
func ValidatePartitionName(name string) error {
	if !partitionNamePattern.MatchString(name) {
		return fmt.Errorf("invalid partition name %q", name)
	}
	return nil
}

// TimezoneOrDefault returns the tenant's IANA timezone, falling back to the
// given default when unset.
func (t *Tenant) TimezoneOrDefault(def string) string {
	if t.Timezone != "" {
		return t.Timezone
	}
	return def
}
