package service

import (
	"context"
	"testing"
	"time"

	"github.com/tapreview/tapreview-backend/config"
	"github.com/tapreview/tapreview-backend/internal/app/model"
	"github.com/tapreview/tapreview-backend/internal/app/repository"
	"github.com/tapreview/tapreview-backend/internal/db"
	"github.com/tapreview/tapreview-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupAdminServiceTest(t *testing.T) (*AdminService, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	svc := NewAdminService(
		repository.NewAdminRepository(testDB),
		repository.NewAuditLogRepository(testDB),
		repository.NewBusinessRepository(testDB),
		repository.NewSubscriptionRepository(testDB),
		repository.NewTagRepository(testDB),
		repository.NewTagPairRepository(testDB),
		repository.NewNotificationRepository(testDB),
		config.JWTConfig{
			Secret:            "test-secret",
			AccessTokenExpiry: time.Hour,
		},
	)
	return svc, testDB
}

func createTestAdmin(t *testing.T, svc *AdminService, email, password string) *model.Admin {
	admin, err := svc.CreateAdmin(email, password, "Test Admin", model.AdminRoleAdmin)
	require.NoError(t, err)
	return admin
}

func TestAdminService_Login(t *testing.T) {
	svc, _ := setupAdminServiceTest(t)
	ctx := context.Background()
	createTestAdmin(t, svc, "ops@example.com", "correct-horse")

	result, err := svc.Login(ctx, "ops@example.com", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.True(t, result.ExpiresAt.After(time.Now()))
	assert.Equal(t, "ops@example.com", result.Admin.Email)

	// The issued token carries a jti that resolves to a live session.
	claims, err := util.ValidateToken(result.Token, "test-secret")
	require.NoError(t, err)
	admin, err := svc.VerifySession(ctx, claims.ID)
	require.NoError(t, err)
	assert.Equal(t, result.Admin.ID, admin.ID)
}

func TestAdminService_LoginFailures(t *testing.T) {
	svc, testDB := setupAdminServiceTest(t)
	ctx := context.Background()
	admin := createTestAdmin(t, svc, "ops@example.com", "correct-horse")

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  error
	}{
		{"Wrong password", "ops@example.com", "battery-staple", ErrInvalidCredentials},
		{"Unknown email", "ghost@example.com", "correct-horse", ErrInvalidCredentials},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(ctx, tt.email, tt.password)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	require.NoError(t, testDB.Model(admin).Update("active", false).Error)
	_, err := svc.Login(ctx, "ops@example.com", "correct-horse")
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestAdminService_LogoutRevokesSession(t *testing.T) {
	svc, _ := setupAdminServiceTest(t)
	ctx := context.Background()
	createTestAdmin(t, svc, "ops@example.com", "correct-horse")

	result, err := svc.Login(ctx, "ops@example.com", "correct-horse")
	require.NoError(t, err)
	claims, err := util.ValidateToken(result.Token, "test-secret")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, claims.ID))

	_, err = svc.VerifySession(ctx, claims.ID)
	assert.ErrorIs(t, err, ErrSessionRevoked)
}

func TestAdminService_VerifySession(t *testing.T) {
	svc, testDB := setupAdminServiceTest(t)
	ctx := context.Background()
	admin := createTestAdmin(t, svc, "ops@example.com", "correct-horse")

	// Unknown jti behaves the same as a revoked one.
	_, err := svc.VerifySession(ctx, "no-such-token")
	assert.ErrorIs(t, err, ErrSessionRevoked)

	result, err := svc.Login(ctx, "ops@example.com", "correct-horse")
	require.NoError(t, err)
	claims, err := util.ValidateToken(result.Token, "test-secret")
	require.NoError(t, err)

	// An expired session is rejected even though the row exists.
	require.NoError(t, testDB.Model(&model.AdminSession{}).
		Where("token_id = ?", claims.ID).
		Update("expires_at", time.Now().Add(-time.Minute)).Error)
	_, err = svc.VerifySession(ctx, claims.ID)
	assert.ErrorIs(t, err, ErrSessionExpired)

	// A disabled admin cannot ride an otherwise valid session.
	require.NoError(t, testDB.Model(&model.AdminSession{}).
		Where("token_id = ?", claims.ID).
		Update("expires_at", time.Now().Add(time.Hour)).Error)
	require.NoError(t, testDB.Model(admin).Update("active", false).Error)
	_, err = svc.VerifySession(ctx, claims.ID)
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestAdminService_LogActionAndList(t *testing.T) {
	svc, _ := setupAdminServiceTest(t)

	actor := Actor{AdminID: 7, Email: "ops@example.com"}
	svc.LogAction(actor, "assign", "tag", "QR-ABCD1234",
		[]string{"status", "business_id"},
		map[string]interface{}{"status": "pending"},
		"10.0.0.9")

	logs, total, err := svc.ListAuditLogs(nil, "tag", "", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	entry := logs[0]
	assert.Equal(t, "assign", entry.Action)
	assert.Equal(t, "QR-ABCD1234", entry.EntityID)
	assert.ElementsMatch(t, []string{"status", "business_id"}, []string(entry.ChangedFields))
	assert.Contains(t, entry.Changes, "pending")
	assert.Equal(t, "10.0.0.9", entry.IPAddress)

	adminID := uint(999)
	_, total, err = svc.ListAuditLogs(&adminID, "", "", 0, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 0, total)
}

func TestAdminService_GetDashboardStats(t *testing.T) {
	svc, testDB := setupAdminServiceTest(t)
	business := createTestBusiness(t, testDB, "dashboard")

	require.NoError(t, testDB.Create(&model.Subscription{
		BusinessID: business.ID,
		PlanType:   model.PlanMonthly,
		Currency:   model.CurrencyCAD,
		Amount:     1.99,
		StartDate:  time.Now(),
		ExpiryDate: time.Now().AddDate(0, 0, 30),
		Status:     model.SubscriptionStatusActive,
	}).Error)
	require.NoError(t, testDB.Create(&model.Tag{
		TagID:   "QR-DASH0001",
		TagType: model.TagTypeQR,
		Status:  model.TagStatusInactive,
	}).Error)

	stats, err := svc.GetDashboardStats()
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Businesses[string(model.BusinessStatusInactive)])
	assert.EqualValues(t, 1, stats.Tags[string(model.TagStatusInactive)])
	assert.EqualValues(t, 1, stats.ActiveSubscriptions)
	assert.EqualValues(t, 0, stats.UnreadNotifications)
}
