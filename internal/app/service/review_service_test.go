package service

import (
	"testing"

	"github.com/tapreview/tapreview-backend/internal/app/model"
	"github.com/tapreview/tapreview-backend/internal/app/repository"
	"github.com/tapreview/tapreview-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupReviewServiceTest(t *testing.T) (*ReviewService, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	svc := NewReviewService(
		repository.NewReviewRepository(testDB),
		repository.NewBusinessRepository(testDB),
	)
	return svc, testDB
}

func TestReviewService_CreateReview(t *testing.T) {
	svc, testDB := setupReviewServiceTest(t)
	business := createTestBusiness(t, testDB, "reviewed")

	review, err := svc.CreateReview(&model.Review{
		BusinessID: business.ID,
		AuthorName: "Dana",
		Rating:     5,
		Content:    "Great espresso",
		Source:     "qr",
	})
	require.NoError(t, err)
	assert.NotZero(t, review.ID)

	tests := []struct {
		name   string
		rating int
	}{
		{"Rating below range", 0},
		{"Rating above range", 6},
		{"Negative rating", -3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateReview(&model.Review{
				BusinessID: business.ID,
				Rating:     tt.rating,
			})
			assert.ErrorIs(t, err, ErrInvalidRating)
		})
	}

	_, err = svc.CreateReview(&model.Review{BusinessID: 99999, Rating: 4})
	assert.ErrorIs(t, err, ErrBusinessNotFound)
}

func TestReviewService_StatsAndList(t *testing.T) {
	svc, testDB := setupReviewServiceTest(t)
	business := createTestBusiness(t, testDB, "rated")

	for _, rating := range []int{5, 4, 3} {
		_, err := svc.CreateReview(&model.Review{
			BusinessID: business.ID,
			AuthorName: "guest",
			Rating:     rating,
		})
		require.NoError(t, err)
	}

	stats, err := svc.GetStats(business.ID)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, stats.AverageRating, 0.001)
	assert.EqualValues(t, 3, stats.ReviewCount)

	reviews, total, err := svc.ListReviews(business.ID, 0, 2)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	assert.Len(t, reviews, 2)
}
