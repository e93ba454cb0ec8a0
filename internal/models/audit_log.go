package models

import "gorm.io/datatypes"

// AuditLog records who changed a transaction, category, obligation or rule.
// ActorID is a student ID, or "admin" for API-key requests.
type AuditLog struct {
	Base
	ActorID      string         `gorm:"not null;index" json:"actor_id"`
	Action       string         `gorm:"not null;index" json:"action"`
	ResourceType string         `gorm:"not null" json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	IPAddress    string         `json:"ip_address"`
	Changes      datatypes.JSON `json:"changes,omitempty"`
}
