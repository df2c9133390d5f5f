package repository

import (
	"time"

	"github.com/tapreview/tapreview-backend/internal/app/model"

	"gorm.io/gorm"
)

type BusinessRepository struct {
	db *gorm.DB
}

func NewBusinessRepository(db *gorm.DB) *BusinessRepository {
	return &BusinessRepository{db: db}
}

// Create inserts a new business
func (r *BusinessRepository) Create(business *model.Business) error {
	return r.db.Create(business).Error
}

// GetByID fetches a business by database id
func (r *BusinessRepository) GetByID(id uint) (*model.Business, error) {
	var business model.Business
	if err := r.db.First(&business, id).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

// GetByEmail fetches a business by owner email
func (r *BusinessRepository) GetByEmail(email string) (*model.Business, error) {
	var business model.Business
	if err := r.db.Where("email = ?", email).First(&business).Error; err != nil {
		return nil, err
	}
	return &business, nil
}

// List returns businesses filtered by status, city and search term, newest first
func (r *BusinessRepository) List(status, search, city string, offset, limit int) ([]model.Business, int64, error) {
	var businesses []model.Business
	var total int64

	query := r.db.Model(&model.Business{})
	if status != "" {
		query = query.Where("subscription_status = ?", status)
	}
	if city != "" {
		query = query.Where("city = ?", city)
	}
	if search != "" {
		like := "%" + search + "%"
		query = query.Where("name LIKE ? OR email LIKE ?", like, like)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&businesses).Error
	if err != nil {
		return nil, 0, err
	}

	return businesses, total, nil
}

// Update saves the whole business record
func (r *BusinessRepository) Update(business *model.Business) error {
	return r.db.Save(business).Error
}

// UpdateFields applies a partial update to a business
func (r *BusinessRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	return r.db.Model(&model.Business{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// UpdateSubscriptionSnapshot mirrors the subscription state onto the business
// row so listings do not have to join subscriptions.
func (r *BusinessRepository) UpdateSubscriptionSnapshot(businessID uint, status model.BusinessStatus, expiresAt *time.Time) error {
	return r.db.Model(&model.Business{}).
		Where("id = ?", businessID).
		Updates(map[string]interface{}{
			"subscription_status":     status,
			"subscription_expires_at": expiresAt,
		}).Error
}

// CountByStatus returns the number of businesses per subscription status
func (r *BusinessRepository) CountByStatus() (map[string]int64, error) {
	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.Model(&model.Business{}).
		Select("subscription_status AS status, COUNT(*) AS count").
		Group("subscription_status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// GetCreatedAfter returns businesses registered after the given time
func (r *BusinessRepository) GetCreatedAfter(after time.Time) ([]model.Business, error) {
	var businesses []model.Business
	err := r.db.Where("created_at > ?", after).
		Order("created_at DESC").
		Find(&businesses).Error
	if err != nil {
		return nil, err
	}
	return businesses, nil
}

// GetByStatuses returns all businesses whose snapshot status is in the set
func (r *BusinessRepository) GetByStatuses(statuses []model.BusinessStatus) ([]model.Business, error) {
	var businesses []model.Business
	err := r.db.Where("subscription_status IN ?", statuses).Find(&businesses).Error
	if err != nil {
		return nil, err
	}
	return businesses, nil
}
