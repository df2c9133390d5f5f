package repository

import (
	"time"

	"github.com/tapreview/tapreview-backend/internal/app/model"

	"gorm.io/gorm"
)

type NotificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts a notification
func (r *NotificationRepository) Create(notification *model.AdminNotification) error {
	return r.db.Create(notification).Error
}

// List returns notifications, optionally unread only, newest first
func (r *NotificationRepository) List(unreadOnly bool, offset, limit int) ([]model.AdminNotification, int64, error) {
	var notifications []model.AdminNotification
	var total int64

	query := r.db.Model(&model.AdminNotification{})
	if unreadOnly {
		query = query.Where("is_read = ?", false)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&notifications).Error
	if err != nil {
		return nil, 0, err
	}

	return notifications, total, nil
}

// MarkRead marks one notification read
func (r *NotificationRepository) MarkRead(id uint) error {
	return r.db.Model(&model.AdminNotification{}).
		Where("id = ?", id).
		Update("is_read", true).Error
}

// MarkAllRead marks every notification read
func (r *NotificationRepository) MarkAllRead() error {
	return r.db.Model(&model.AdminNotification{}).
		Where("is_read = ?", false).
		Update("is_read", true).Error
}

// CountUnread returns the number of unread notifications
func (r *NotificationRepository) CountUnread() (int64, error) {
	var count int64
	err := r.db.Model(&model.AdminNotification{}).
		Where("is_read = ?", false).
		Count(&count).Error
	return count, err
}

// Exists reports whether a notification of this type already exists for the
// business, used to dedupe the sweep.
func (r *NotificationRepository) Exists(notificationType model.NotificationType, businessID uint) (bool, error) {
	var count int64
	err := r.db.Model(&model.AdminNotification{}).
		Where("type = ? AND business_id = ?", notificationType, businessID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ExistsSince reports whether a notification of this type was created for the
// business after the given time. The expiry warning dedupes per day with this.
func (r *NotificationRepository) ExistsSince(notificationType model.NotificationType, businessID uint, since time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&model.AdminNotification{}).
		Where("type = ? AND business_id = ? AND created_at > ?", notificationType, businessID, since).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
