package model

import (
	"time"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
	PaymentStatusRefunded  PaymentStatus = "refunded"
)

// Payment is one payment attempt. A row is created pending at order creation
// and finalized exactly once at verification; after completion it is immutable
// apart from the subscription linkage written in the same verification flow.
type Payment struct {
	ID             uint     `gorm:"primarykey" json:"id"`
	BusinessID     uint     `gorm:"not null;index" json:"business_id"`
	SubscriptionID *uint    `gorm:"index" json:"subscription_id,omitempty"`
	Amount         float64  `gorm:"not null" json:"amount"`
	Currency       Currency `gorm:"type:varchar(3);not null" json:"currency"`

	ProviderOrderID   string `gorm:"type:varchar(100);uniqueIndex" json:"provider_order_id"`
	ProviderPaymentID string `gorm:"type:varchar(100)" json:"provider_payment_id,omitempty"`
	ProviderSignature string `gorm:"type:varchar(200)" json:"-"`

	Status      PaymentStatus `gorm:"type:varchar(20);default:'pending';index" json:"status"`
	CompletedAt *time.Time    `json:"completed_at,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}
