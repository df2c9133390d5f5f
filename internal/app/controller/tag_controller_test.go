package controller

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tapreview/tapreview-backend/config"
	"github.com/tapreview/tapreview-backend/internal/app/model"
	"github.com/tapreview/tapreview-backend/internal/app/repository"
	"github.com/tapreview/tapreview-backend/internal/app/service"
	"github.com/tapreview/tapreview-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTagControllerTest(t *testing.T) (*gin.Engine, *service.TagService, *gorm.DB) {
	gin.SetMode(gin.TestMode)

	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	tagService := service.NewTagService(
		repository.NewTagRepository(testDB),
		repository.NewBusinessRepository(testDB),
	)
	adminService := service.NewAdminService(
		repository.NewAdminRepository(testDB),
		repository.NewAuditLogRepository(testDB),
		repository.NewBusinessRepository(testDB),
		repository.NewSubscriptionRepository(testDB),
		repository.NewTagRepository(testDB),
		repository.NewTagPairRepository(testDB),
		repository.NewNotificationRepository(testDB),
		config.JWTConfig{Secret: "test-secret", AccessTokenExpiry: time.Hour},
	)
	ctrl := NewTagController(tagService, adminService)

	router := gin.New()
	router.POST("/tags", ctrl.Create)
	router.POST("/tags/:tag_id/assign", ctrl.Assign)
	return router, tagService, testDB
}

func TestTagController_TransitionsWriteAuditLog(t *testing.T) {
	router, _, testDB := setupTagControllerTest(t)
	createControllerTestBusiness(t, testDB)

	req := httptest.NewRequest("POST", "/tags",
		strings.NewReader(`{"tag_type":"qr","tag_id":"QR-AUDIT001"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	req = httptest.NewRequest("POST", "/tags/QR-AUDIT001/assign",
		strings.NewReader(`{"business_id":1}`))
	req.Header.Set("Content-Type", "application/json")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	// Every transition lands in the audit log, on top of the tag history.
	var logs []model.AuditLog
	require.NoError(t, testDB.Where("entity_type = ? AND entity_id = ?", "tag", "QR-AUDIT001").
		Order("id ASC").Find(&logs).Error)
	require.Len(t, logs, 2)
	assert.Equal(t, "create", logs[0].Action)
	assert.Equal(t, "assign", logs[1].Action)
	assert.Contains(t, logs[1].Changes, "pending")
}

func TestTagController_AssignConflictNamesCurrentStatus(t *testing.T) {
	router, tagService, testDB := setupTagControllerTest(t)
	createControllerTestBusiness(t, testDB)

	actor := service.Actor{AdminID: 1, Email: "ops@example.com"}
	tag, err := tagService.CreateTag(model.TagTypeQR, "", actor)
	require.NoError(t, err)
	_, err = tagService.AssignTag(tag.TagID, 1, "counter", 0, actor)
	require.NoError(t, err)

	// Assigning again reports the tag's current status, not a generic refusal.
	req := httptest.NewRequest("POST", "/tags/"+tag.TagID+"/assign",
		strings.NewReader(`{"business_id":1}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "tag is pending")
}
