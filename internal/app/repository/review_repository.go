package repository

import (
	"github.com/tapreview/tapreview-backend/internal/app/model"

	"gorm.io/gorm"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create inserts a review
func (r *ReviewRepository) Create(review *model.Review) error {
	return r.db.Create(review).Error
}

// ListByBusinessID returns a business's reviews, newest first
func (r *ReviewRepository) ListByBusinessID(businessID uint, offset, limit int) ([]model.Review, int64, error) {
	var reviews []model.Review
	var total int64

	query := r.db.Model(&model.Review{}).Where("business_id = ?", businessID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&reviews).Error
	if err != nil {
		return nil, 0, err
	}

	return reviews, total, nil
}

// AverageRating returns the average rating and review count for a business
func (r *ReviewRepository) AverageRating(businessID uint) (float64, int64, error) {
	var count int64
	if err := r.db.Model(&model.Review{}).Where("business_id = ?", businessID).Count(&count).Error; err != nil {
		return 0, 0, err
	}

	var avg float64
	if count > 0 {
		err := r.db.Model(&model.Review{}).
			Where("business_id = ?", businessID).
			Select("AVG(rating)").
			Scan(&avg).Error
		if err != nil {
			return 0, 0, err
		}
	}
	return avg, count, nil
}
