package model

import (
	"time"
)

type TagStatus string
type TagType string

const (
	// TagStatusInactive: created, in stock, assignable.
	TagStatusInactive TagStatus = "inactive"
	// TagStatusPending: assigned to a business, awaiting activation.
	TagStatusPending TagStatus = "pending"
	// TagStatusActive: in use at a business location.
	TagStatusActive TagStatus = "active"
	// TagStatusScrapped: taken out of circulation; only reset revives it.
	TagStatusScrapped TagStatus = "scrapped"

	TagTypeQR  TagType = "qr"
	TagTypeNFC TagType = "nfc"
)

// Tag is a single physical QR or NFC code unit. TagID is the human-readable
// business key printed on the unit (e.g. QR-A1B2C3D4), distinct from the
// database id. Tags are never deleted; scrapped units stay in inventory for
// audit.
type Tag struct {
	ID      uint      `gorm:"primarykey" json:"id"`
	TagID   string    `gorm:"type:varchar(40);uniqueIndex;not null" json:"tag_id"`
	TagType TagType   `gorm:"type:varchar(10);not null" json:"tag_type"`
	Status  TagStatus `gorm:"type:varchar(20);default:'inactive';index" json:"status"`

	BusinessID  *uint      `gorm:"index" json:"business_id,omitempty"`
	Location    *string    `gorm:"type:varchar(200)" json:"location,omitempty"`
	AssignedAt  *time.Time `json:"assigned_at,omitempty"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
	ExpiresAt   *time.Time `gorm:"index" json:"expires_at,omitempty"`

	ScrapReason *string    `gorm:"type:text" json:"scrap_reason,omitempty"`
	ScrappedAt  *time.Time `json:"scrapped_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Tag) TableName() string {
	return "tags"
}

// Valid reports whether t is a known tag type.
func (t TagType) Valid() bool {
	return t == TagTypeQR || t == TagTypeNFC
}

// TagHistory is the append-only event log of a tag, keyed by the printed
// tag id. Entries are inserted on every transition and never touched again.
type TagHistory struct {
	ID         uint   `gorm:"primarykey" json:"id"`
	TagID      string `gorm:"type:varchar(40);not null;index" json:"tag_id"`
	Action     string `gorm:"type:varchar(30);not null" json:"action"`
	BusinessID *uint  `json:"business_id,omitempty"`
	AdminID    uint   `gorm:"not null" json:"admin_id"`
	AdminEmail string `gorm:"type:varchar(200);not null" json:"admin_email"`
	// Details is a JSON object with action-specific context (location,
	// previous status, scrap reason, ...).
	Details   string    `gorm:"type:text" json:"details,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (TagHistory) TableName() string {
	return "tag_history"
}
