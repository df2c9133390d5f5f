package model

import (
	"time"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

// Coupon is a discount code. Codes are stored upper-cased and must be unique.
// UsageLimit 0 means unlimited.
type Coupon struct {
	ID            uint         `gorm:"primarykey" json:"id"`
	Code          string       `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	DiscountType  DiscountType `gorm:"type:varchar(20);not null" json:"discount_type"`
	DiscountValue float64      `gorm:"not null" json:"discount_value"`
	ValidFrom     time.Time    `gorm:"not null" json:"valid_from"`
	ValidUntil    time.Time    `gorm:"not null" json:"valid_until"`
	UsageLimit    int          `gorm:"default:0" json:"usage_limit"`
	UsedCount     int          `gorm:"default:0" json:"used_count"`
	Active        bool         `gorm:"not null" json:"active"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

func (Coupon) TableName() string {
	return "coupons"
}

// ValidAt reports whether the coupon can be applied at the given instant:
// active, inside its validity window, and under its usage limit.
func (c *Coupon) ValidAt(now time.Time) bool {
	if !c.Active {
		return false
	}
	if now.Before(c.ValidFrom) || now.After(c.ValidUntil) {
		return false
	}
	if c.UsageLimit > 0 && c.UsedCount >= c.UsageLimit {
		return false
	}
	return true
}

// CouponUsage is an append-only record of one coupon application. It exists
// for audit and to keep discounts traceable to the subscription they funded.
type CouponUsage struct {
	ID             uint      `gorm:"primarykey" json:"id"`
	CouponID       uint      `gorm:"not null;index" json:"coupon_id"`
	BusinessID     uint      `gorm:"not null;index" json:"business_id"`
	SubscriptionID uint      `gorm:"not null" json:"subscription_id"`
	DiscountAmount float64   `gorm:"not null" json:"discount_amount"`
	CreatedAt      time.Time `json:"used_at"`
}

func (CouponUsage) TableName() string {
	return "coupon_usages"
}
