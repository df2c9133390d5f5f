package model

import (
	"time"
)

type NotificationType string

const (
	NotificationTypeNewBusiness          NotificationType = "NEW_BUSINESS"
	NotificationTypeSubscriptionExpiring NotificationType = "SUBSCRIPTION_EXPIRING"
	NotificationTypeSubscriptionExpired  NotificationType = "SUBSCRIPTION_EXPIRED"
	NotificationTypeTagPending           NotificationType = "TAG_PENDING"
	NotificationTypeLowStock             NotificationType = "LOW_STOCK"
	NotificationTypeSystemAlert          NotificationType = "SYSTEM_ALERT"
)

type NotificationPriority string

const (
	PriorityLow      NotificationPriority = "low"
	PriorityMedium   NotificationPriority = "medium"
	PriorityHigh     NotificationPriority = "high"
	PriorityCritical NotificationPriority = "critical"
)

// AdminNotification is a materialized alert for the admin console, created by
// the periodic sweep with an existence check per type+business to prevent
// duplicate spam.
type AdminNotification struct {
	ID       uint                 `gorm:"primarykey" json:"id"`
	Type     NotificationType     `gorm:"type:varchar(40);not null;index" json:"type"`
	Title    string               `gorm:"type:varchar(200);not null" json:"title"`
	Message  string               `gorm:"type:text;not null" json:"message"`
	Priority NotificationPriority `gorm:"type:varchar(20);default:'medium'" json:"priority"`

	BusinessID *uint  `gorm:"index" json:"business_id,omitempty"`
	RelatedID  string `gorm:"type:varchar(40)" json:"related_id,omitempty"`

	IsRead    bool      `gorm:"default:false;index" json:"is_read"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (AdminNotification) TableName() string {
	return "admin_notifications"
}
