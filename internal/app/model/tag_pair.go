package model

import (
	"time"
)

type TagPairStatus string

const (
	TagPairStatusUnassigned TagPairStatus = "unassigned"
	TagPairStatusAssigned   TagPairStatus = "assigned"
	TagPairStatusActive     TagPairStatus = "active"
	TagPairStatusInactive   TagPairStatus = "inactive"
	// TagPairStatusDeleted is a terminal soft-delete; deleted pairs are
	// excluded from listings but kept for audit. There is no undelete.
	TagPairStatusDeleted TagPairStatus = "deleted"
)

// TagPair is a QR+NFC pair bound together as one inventory unit deployed at a
// single business location. Both qr_id and nfc_id are unique across live
// pairs; the partial indexes skip deleted rows so the components of a deleted
// pair can be bound into a new one. Business name and location are
// denormalized snapshots taken at assignment time for display.
type TagPair struct {
	ID     uint          `gorm:"primarykey" json:"id"`
	PairID string        `gorm:"type:varchar(40);uniqueIndex;not null" json:"pair_id"`
	QRID   string        `gorm:"column:qr_id;type:varchar(40);index;uniqueIndex:uniq_tag_pairs_qr_id,where:status <> 'deleted';not null" json:"qr_id"`
	NFCID  string        `gorm:"column:nfc_id;type:varchar(40);index;uniqueIndex:uniq_tag_pairs_nfc_id,where:status <> 'deleted';not null" json:"nfc_id"`
	Status TagPairStatus `gorm:"type:varchar(20);default:'unassigned';index" json:"status"`

	BusinessID       *uint   `gorm:"index" json:"business_id,omitempty"`
	BusinessName     *string `gorm:"type:varchar(200)" json:"business_name,omitempty"`
	BusinessLocation *string `gorm:"type:varchar(300)" json:"business_location,omitempty"`

	AssignedAt    *time.Time `json:"assigned_at,omitempty"`
	AssignedBy    *string    `gorm:"type:varchar(200)" json:"assigned_by,omitempty"`
	ActivatedAt   *time.Time `json:"activated_at,omitempty"`
	DeactivatedAt *time.Time `json:"deactivated_at,omitempty"`

	Notes     *string   `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (TagPair) TableName() string {
	return "tag_pairs"
}

// TagPairActivity is the append-only activity log for a pair. PreviousState
// and NewState hold JSON snapshots; on delete the full prior document is
// captured so the pair can be reconstructed for audit.
type TagPairActivity struct {
	ID            uint      `gorm:"primarykey" json:"id"`
	PairID        string    `gorm:"type:varchar(40);not null;index" json:"pair_id"`
	Action        string    `gorm:"type:varchar(30);not null" json:"action"`
	PerformedBy   string    `gorm:"type:varchar(200);not null" json:"performed_by"`
	PreviousState string    `gorm:"type:text" json:"previous_state,omitempty"`
	NewState      string    `gorm:"type:text" json:"new_state,omitempty"`
	Notes         string    `gorm:"type:text" json:"notes,omitempty"`
	IPAddress     string    `gorm:"type:varchar(45)" json:"ip_address,omitempty"`
	CreatedAt     time.Time `gorm:"index" json:"timestamp"`
}

func (TagPairActivity) TableName() string {
	return "tag_pair_activities"
}
