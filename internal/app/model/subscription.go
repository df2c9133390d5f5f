package model

import (
	"time"
)

type SubscriptionStatus string
type PlanType string
type Currency string

const (
	SubscriptionStatusTrial     SubscriptionStatus = "trial"
	SubscriptionStatusActive    SubscriptionStatus = "active"
	SubscriptionStatusExpired   SubscriptionStatus = "expired"
	SubscriptionStatusCancelled SubscriptionStatus = "cancelled"

	PlanMonthly PlanType = "monthly"
	PlanYearly  PlanType = "yearly"

	CurrencyCAD Currency = "CAD"
	CurrencyINR Currency = "INR"
)

// Duration in days of each plan period.
const (
	MonthlyDurationDays = 30
	YearlyDurationDays  = 365
)

// Subscription is one paid period for a business. A business accumulates rows
// over time; the row with the latest expiry date is the authoritative one.
// Rows are inserted and status-corrected in place, never deleted.
type Subscription struct {
	ID         uint               `gorm:"primarykey" json:"id"`
	BusinessID uint               `gorm:"not null;index" json:"business_id"`
	PlanType   PlanType           `gorm:"type:varchar(20);not null" json:"plan_type"`
	Currency   Currency           `gorm:"type:varchar(3);not null" json:"currency"`
	Amount     float64            `gorm:"not null" json:"amount"`
	StartDate  time.Time          `gorm:"not null" json:"start_date"`
	ExpiryDate time.Time          `gorm:"not null;index" json:"expiry_date"`
	Status     SubscriptionStatus `gorm:"type:varchar(20);default:'active';index" json:"status"`

	AutoRenewal bool `gorm:"default:false" json:"auto_renewal"`
	TrialUsed   bool `gorm:"default:false" json:"trial_used"`
	// Set once the 7-day expiry warning has gone out, so the sweep does not
	// notify the same subscription twice.
	Notified7Days bool `gorm:"column:notified_7_days;default:false" json:"notified_7days"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

// DurationDays returns the period length for the plan.
func (p PlanType) DurationDays() int {
	if p == PlanYearly {
		return YearlyDurationDays
	}
	return MonthlyDurationDays
}

// Valid reports whether p is a known plan type.
func (p PlanType) Valid() bool {
	return p == PlanMonthly || p == PlanYearly
}

// Valid reports whether c is a supported currency.
func (c Currency) Valid() bool {
	return c == CurrencyCAD || c == CurrencyINR
}
