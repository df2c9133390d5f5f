package service

import (
	"errors"
	"fmt"

	"github.com/tapreview/tapreview-backend/internal/app/model"
	"github.com/tapreview/tapreview-backend/internal/app/repository"
	"gorm.io/gorm"
)

var ErrInvalidRating = errors.New("rating must be between 1 and 5")

// ReviewStats summarizes a business's reviews
type ReviewStats struct {
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int64   `json:"review_count"`
}

type ReviewService struct {
	reviewRepo   *repository.ReviewRepository
	businessRepo *repository.BusinessRepository
}

func NewReviewService(reviewRepo *repository.ReviewRepository, businessRepo *repository.BusinessRepository) *ReviewService {
	return &ReviewService{
		reviewRepo:   reviewRepo,
		businessRepo: businessRepo,
	}
}

// CreateReview records a review collected through a tag scan
func (s *ReviewService) CreateReview(review *model.Review) (*model.Review, error) {
	if review.Rating < 1 || review.Rating > 5 {
		return nil, ErrInvalidRating
	}

	if _, err := s.businessRepo.GetByID(review.BusinessID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, fmt.Errorf("failed to get business: %w", err)
	}

	if err := s.reviewRepo.Create(review); err != nil {
		return nil, fmt.Errorf("failed to create review: %w", err)
	}
	return review, nil
}

// ListReviews returns a business's reviews. Access is gated upstream by the
// subscription middleware; reviews are the paid surface.
func (s *ReviewService) ListReviews(businessID uint, offset, limit int) ([]model.Review, int64, error) {
	return s.reviewRepo.ListByBusinessID(businessID, offset, limit)
}

// GetStats returns the rating summary for a business
func (s *ReviewService) GetStats(businessID uint) (*ReviewStats, error) {
	avg, count, err := s.reviewRepo.AverageRating(businessID)
	if err != nil {
		return nil, err
	}
	return &ReviewStats{AverageRating: avg, ReviewCount: count}, nil
}
