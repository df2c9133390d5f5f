package repository

import (
	"time"

	"github.com/tapreview/tapreview-backend/internal/app/model"

	"gorm.io/gorm"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

// Create inserts a new subscription
func (r *SubscriptionRepository) Create(sub *model.Subscription) error {
	return r.db.Create(sub).Error
}

// GetByID fetches a subscription by id
func (r *SubscriptionRepository) GetByID(id uint) (*model.Subscription, error) {
	var sub model.Subscription
	if err := r.db.First(&sub, id).Error; err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetCurrentByBusinessID returns the business's most recent live subscription
// (trial or active), or gorm.ErrRecordNotFound when there is none.
func (r *SubscriptionRepository) GetCurrentByBusinessID(businessID uint) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Where("business_id = ? AND status IN ?", businessID,
		[]model.SubscriptionStatus{model.SubscriptionStatusTrial, model.SubscriptionStatusActive}).
		Order("expiry_date DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetLatestByBusinessID returns the newest subscription regardless of status
func (r *SubscriptionRepository) GetLatestByBusinessID(businessID uint) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.Where("business_id = ?", businessID).
		Order("expiry_date DESC").
		First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListByBusinessID returns the full subscription history, newest first
func (r *SubscriptionRepository) ListByBusinessID(businessID uint) ([]model.Subscription, error) {
	var subs []model.Subscription
	err := r.db.Where("business_id = ?", businessID).
		Order("created_at DESC").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// Update saves the whole subscription record
func (r *SubscriptionRepository) Update(sub *model.Subscription) error {
	return r.db.Save(sub).Error
}

// MarkExpiredIfDue flips a live subscription to expired only when its expiry
// date has actually passed. The WHERE clause carries the whole check, so
// concurrent readers cannot double-flip or flip a renewed record.
func (r *SubscriptionRepository) MarkExpiredIfDue(id uint, now time.Time) (bool, error) {
	result := r.db.Model(&model.Subscription{}).
		Where("id = ? AND status IN ? AND expiry_date <= ?", id,
			[]model.SubscriptionStatus{model.SubscriptionStatusTrial, model.SubscriptionStatusActive}, now).
		Update("status", model.SubscriptionStatusExpired)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// GetExpiringBetween returns live subscriptions whose expiry falls in the
// window and that have not been notified yet.
func (r *SubscriptionRepository) GetExpiringBetween(start, end time.Time) ([]model.Subscription, error) {
	var subs []model.Subscription
	err := r.db.Where("status IN ? AND expiry_date > ? AND expiry_date <= ? AND notified_7_days = ?",
		[]model.SubscriptionStatus{model.SubscriptionStatusTrial, model.SubscriptionStatusActive},
		start, end, false).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// GetDueForExpiry returns live subscriptions whose expiry date has passed
func (r *SubscriptionRepository) GetDueForExpiry(now time.Time) ([]model.Subscription, error) {
	var subs []model.Subscription
	err := r.db.Where("status IN ? AND expiry_date <= ?",
		[]model.SubscriptionStatus{model.SubscriptionStatusTrial, model.SubscriptionStatusActive}, now).
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}

// MarkNotified records that the expiry warning went out for this subscription
func (r *SubscriptionRepository) MarkNotified(id uint) error {
	return r.db.Model(&model.Subscription{}).
		Where("id = ?", id).
		Update("notified_7_days", true).Error
}

// CountActive returns the number of live subscriptions
func (r *SubscriptionRepository) CountActive(now time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&model.Subscription{}).
		Where("status IN ? AND expiry_date > ?",
			[]model.SubscriptionStatus{model.SubscriptionStatusTrial, model.SubscriptionStatusActive}, now).
		Count(&count).Error
	return count, err
}
