package controller

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tapreview/tapreview-backend/internal/app/model"
	"github.com/tapreview/tapreview-backend/internal/app/repository"
	"github.com/tapreview/tapreview-backend/internal/app/service"
	"github.com/tapreview/tapreview-backend/internal/db"
	"github.com/tapreview/tapreview-backend/internal/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupReviewControllerTest(t *testing.T) (*gin.Engine, *gorm.DB) {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	businessRepo := repository.NewBusinessRepository(testDB)
	subService := service.NewSubscriptionService(
		businessRepo,
		repository.NewSubscriptionRepository(testDB),
		repository.NewCouponRepository(testDB),
		testDB,
	)
	reviewService := service.NewReviewService(repository.NewReviewRepository(testDB), businessRepo)
	ctrl := NewReviewController(reviewService)

	router := gin.New()
	router.POST("/public/businesses/:id/reviews", ctrl.Create)
	router.GET("/businesses/:id/reviews",
		middleware.RequireActiveSubscription(subService),
		ctrl.List,
	)
	return router, testDB
}

func createControllerTestBusiness(t *testing.T, testDB *gorm.DB) *model.Business {
	business := &model.Business{
		Name:               "Corner Cafe",
		Email:              "cafe@example.com",
		SubscriptionStatus: model.BusinessStatusInactive,
	}
	require.NoError(t, testDB.Create(business).Error)
	return business
}

func TestReviewController_PublicCreate(t *testing.T) {
	router, testDB := setupReviewControllerTest(t)
	business := createControllerTestBusiness(t, testDB)

	body := `{"author_name":"Dana","rating":5,"content":"great"}`
	req := httptest.NewRequest("POST", "/public/businesses/1/reviews", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var count int64
	require.NoError(t, testDB.Model(&model.Review{}).
		Where("business_id = ?", business.ID).
		Count(&count).Error)
	assert.EqualValues(t, 1, count)

	// Out-of-range rating is rejected.
	req = httptest.NewRequest("POST", "/public/businesses/1/reviews",
		strings.NewReader(`{"rating":9}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReviewController_ListGatedBySubscription(t *testing.T) {
	router, testDB := setupReviewControllerTest(t)
	business := createControllerTestBusiness(t, testDB)

	// Reading reviews without a subscription is refused.
	req := httptest.NewRequest("GET", "/businesses/1/reviews", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Contains(t, w.Body.String(), "SUBSCRIPTION_REQUIRED")

	require.NoError(t, testDB.Create(&model.Subscription{
		BusinessID: business.ID,
		PlanType:   model.PlanMonthly,
		Currency:   model.CurrencyCAD,
		Amount:     1.99,
		StartDate:  time.Now(),
		ExpiryDate: time.Now().AddDate(0, 0, 30),
		Status:     model.SubscriptionStatusActive,
	}).Error)

	req = httptest.NewRequest("GET", "/businesses/1/reviews", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}
