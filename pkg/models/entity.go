package models

// EntityType groups plant entities by kind ("gate", "bunker", ...). Stored
// in entity_type.
type EntityType struct {
	ID       int64  `json:"id"`
	TenantID int64  `json:"tenant_id"`
	Name     string `json:"name"`
}

// PlantEntity is a physical location inside the plant (a gate, a hopper)
// that deliveries and alarms are attributed to. Stored in plant_entity.
type PlantEntity struct {
	ID           int64  `json:"id"`
	EntityTypeID int64  `json:"entity_type_id"`
	EntityUID    string `json:"entity_uid"`
	Description  string `json:"description,omitempty"`
}
