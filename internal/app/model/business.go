package model

import (
	"time"
)

type BusinessStatus string

const (
	BusinessStatusInactive  BusinessStatus = "inactive"
	BusinessStatusActive    BusinessStatus = "active"
	BusinessStatusExpired   BusinessStatus = "expired"
	BusinessStatusTrial     BusinessStatus = "trial"
	BusinessStatusSuspended BusinessStatus = "suspended"
)

// Business is a tenant. Businesses are never hard-deleted; deactivation is a
// status transition to suspended/expired.
type Business struct {
	ID            uint   `gorm:"primarykey" json:"id"`
	Name          string `gorm:"type:varchar(200);not null;index" json:"name"`
	Email         string `gorm:"type:varchar(200);not null;index" json:"email"`
	Phone         string `gorm:"type:varchar(30)" json:"phone"`
	Address       string `gorm:"type:text" json:"address"`
	City          string `gorm:"type:varchar(100);index" json:"city"`
	Category      string `gorm:"type:varchar(100)" json:"category"`
	GooglePlaceID string `gorm:"type:varchar(200)" json:"google_place_id"`
	OwnerEmail    string `gorm:"type:varchar(200)" json:"owner_email"`
	Verified      bool   `gorm:"default:false" json:"verified"`

	// Denormalized entitlement snapshot, maintained by the subscription service.
	SubscriptionStatus    BusinessStatus `gorm:"type:varchar(20);default:'inactive';index" json:"subscription_status"`
	SubscriptionExpiresAt *time.Time     `json:"subscription_expires_at,omitempty"`
	TrialEndsAt           *time.Time     `json:"trial_ends_at,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Business) TableName() string {
	return "businesses"
}
