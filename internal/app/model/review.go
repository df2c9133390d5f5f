package model

import (
	"time"
)

// Review is a customer review collected through a tag scan. Review access is
// a paid feature gated by the business's subscription.
type Review struct {
	ID         uint   `gorm:"primarykey" json:"id"`
	BusinessID uint   `gorm:"not null;index" json:"business_id"`
	AuthorName string `gorm:"type:varchar(100)" json:"author_name"`
	Rating     int    `gorm:"not null" json:"rating"`
	Content    string `gorm:"type:text;not null" json:"content"`
	// Source records which channel produced the review: qr, nfc or web.
	Source    string    `gorm:"type:varchar(10);default:'qr'" json:"source"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (Review) TableName() string {
	return "reviews"
}
