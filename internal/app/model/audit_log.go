package model

import (
	"time"

	"github.com/lib/pq"
)

// AuditLog records one admin action at the entity level: who did what to
// which entity, with a before/after diff. Insert-only.
type AuditLog struct {
	ID         uint   `gorm:"primarykey" json:"id"`
	AdminID    uint   `gorm:"not null;index" json:"admin_id"`
	AdminEmail string `gorm:"type:varchar(200);not null" json:"admin_email"`
	Action     string `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityType string `gorm:"type:varchar(30);not null;index" json:"entity_type"`
	EntityID   string `gorm:"type:varchar(40);not null;index" json:"entity_id"`

	// ChangedFields lists the field names touched by the action; Changes is
	// the JSON before/after payload.
	ChangedFields pq.StringArray `gorm:"type:text[]" json:"changed_fields,omitempty"`
	Changes       string         `gorm:"type:text" json:"changes,omitempty"`

	IPAddress string    `gorm:"type:varchar(45)" json:"ip_address,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}
