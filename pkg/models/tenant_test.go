package models

import "testing"

func TestPartitionName(t *testing.T) {
	tests := []struct {
		tenantName string
		want       string
	}{
		{tenantName: "gml", want: "tenant_gml"},
		{tenantName: "GML", want: "tenant_gml"},
		{tenantName: "werk_sued", want: "tenant_werk_sued"},
	}

	for _, tt := range tests {
		tenant := Tenant{TenantName: tt.tenantName}
		if got := tenant.PartitionName(); got != tt.want {
			t.Errorf("PartitionName(%q) = %q, want %q", tt.tenantName, got, tt.want)
		}
	}
}

func TestSpacedTenantNameFailsPartitionValidation(t *testing.T) {
	// Derivation only lowercases; a display name with spaces produces a name
	// CREATE DATABASE cannot take, so provisioning must reject it.
	name := PartitionNameFor("Werk 7")
	if name != "tenant_werk 7" {
		t.Fatalf("PartitionNameFor(Werk 7) = %q", name)
	}
	if err := ValidatePartitionName(name); err == nil {
		t.Error("ValidatePartitionName accepted a name containing a space")
	}
}

func TestValidatePartitionName(t *testing.T) {
	valid := []string{"tenant_gml", "tenant_werk_sued", "tenant_a1"}
	for _, name := range valid {
		if err := ValidatePartitionName(name); err != nil {
			t.Errorf("ValidatePartitionName(%q) = %v, want nil", name, err)
		}
	}

	invalid := []string{
		"",
		"Tenant_GML",
		"tenant-gml",
		"tenant gml",
		`tenant";DROP DATABASE x;--`,
		"1tenant",
	}
	for _, name := range invalid {
		if err := ValidatePartitionName(name); err == nil {
			t.Errorf("ValidatePartitionName(%q) = nil, want error", name)
		}
	}
}

func TestTimezoneOrDefault(t *testing.T) {
	tenant := Tenant{Timezone: "Europe/Vienna"}
	if got := tenant.TimezoneOrDefault("Europe/Berlin"); got != "Europe/Vienna" {
		t.Errorf("TimezoneOrDefault() = %q, want Europe/Vienna", got)
	}

	tenant.Timezone = ""
	if got := tenant.TimezoneOrDefault("Europe/Berlin"); got != "Europe/Berlin" {
		t.Errorf("TimezoneOrDefault() = %q, want Europe/Berlin", got)
	}
}
