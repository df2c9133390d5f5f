package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tapreview/tapreview-backend/config"
	"github.com/tapreview/tapreview-backend/internal/app/model"
	"github.com/tapreview/tapreview-backend/internal/app/repository"
	"github.com/tapreview/tapreview-backend/pkg/logger"
	"github.com/tapreview/tapreview-backend/pkg/redis"
	"github.com/tapreview/tapreview-backend/pkg/util"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountDisabled    = errors.New("admin account is disabled")
	ErrSessionRevoked     = errors.New("session has been revoked")
	ErrSessionExpired     = errors.New("session has expired")
	ErrAdminNotFound      = errors.New("admin not found")
)

// LoginResult carries the issued token and the admin profile
type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	Admin     *model.Admin `json:"admin"`
}

// DashboardStats is the admin console landing payload
type DashboardStats struct {
	Businesses          map[string]int64 `json:"businesses"`
	Tags                map[string]int64 `json:"tags"`
	TagPairs            map[string]int64 `json:"tag_pairs"`
	ActiveSubscriptions int64            `json:"active_subscriptions"`
	UnreadNotifications int64            `json:"unread_notifications"`
}

type AdminService struct {
	adminRepo        *repository.AdminRepository
	auditRepo        *repository.AuditLogRepository
	businessRepo     *repository.BusinessRepository
	subRepo          *repository.SubscriptionRepository
	tagRepo          *repository.TagRepository
	pairRepo         *repository.TagPairRepository
	notificationRepo *repository.NotificationRepository
	jwtCfg           config.JWTConfig
}

func NewAdminService(
	adminRepo *repository.AdminRepository,
	auditRepo *repository.AuditLogRepository,
	businessRepo *repository.BusinessRepository,
	subRepo *repository.SubscriptionRepository,
	tagRepo *repository.TagRepository,
	pairRepo *repository.TagPairRepository,
	notificationRepo *repository.NotificationRepository,
	jwtCfg config.JWTConfig,
) *AdminService {
	return &AdminService{
		adminRepo:        adminRepo,
		auditRepo:        auditRepo,
		businessRepo:     businessRepo,
		subRepo:          subRepo,
		tagRepo:          tagRepo,
		pairRepo:         pairRepo,
		notificationRepo: notificationRepo,
		jwtCfg:           jwtCfg,
	}
}

// Login verifies credentials, opens a session and issues a token whose jti
// points at the session row.
func (s *AdminService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	log := logger.Get()

	admin, err := s.adminRepo.GetByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}

	if !util.VerifyPassword(admin.PasswordHash, password) {
		log.Warn("Admin login failed", map[string]interface{}{
			"email": email,
		})
		return nil, ErrInvalidCredentials
	}

	if !admin.Active {
		return nil, ErrAccountDisabled
	}

	token, tokenID, err := util.GenerateToken(admin.ID, admin.Email, string(admin.Role), s.jwtCfg.Secret, s.jwtCfg.AccessTokenExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	expiresAt := time.Now().Add(s.jwtCfg.AccessTokenExpiry)
	session := &model.AdminSession{
		AdminID:   admin.ID,
		TokenID:   tokenID,
		ExpiresAt: expiresAt,
	}
	if err := s.adminRepo.CreateSession(session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	// Session cache is an optimization; a miss falls back to the database.
	if err := redis.CacheSession(ctx, tokenID, admin.ID, s.jwtCfg.AccessTokenExpiry); err != nil {
		log.Warn("Failed to cache session", map[string]interface{}{
			"admin_id": admin.ID,
		})
	}

	if err := s.adminRepo.UpdateLastLogin(admin.ID, time.Now()); err != nil {
		log.Error("Failed to stamp last login", err, map[string]interface{}{
			"admin_id": admin.ID,
		})
	}

	log.Info("Admin logged in", map[string]interface{}{
		"admin_id": admin.ID,
		"email":    admin.Email,
		"role":     admin.Role,
	})

	return &LoginResult{
		Token:     token,
		ExpiresAt: expiresAt,
		Admin:     admin,
	}, nil
}

// Logout revokes the session behind a token
func (s *AdminService) Logout(ctx context.Context, tokenID string) error {
	now := time.Now()
	if err := s.adminRepo.RevokeSession(tokenID, now); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	if err := redis.InvalidateSession(ctx, tokenID); err != nil {
		logger.Warn("Failed to drop cached session", map[string]interface{}{
			"token_id": tokenID,
		})
	}
	return nil
}

// VerifySession checks that the session behind a validated token is still
// alive: not revoked and not past its expiry.
func (s *AdminService) VerifySession(ctx context.Context, tokenID string) (*model.Admin, error) {
	// Fast path through the cache.
	if adminID, found, err := redis.GetCachedSession(ctx, tokenID); err == nil && found {
		admin, err := s.adminRepo.GetByID(adminID)
		if err == nil && admin.Active {
			return admin, nil
		}
	}

	session, err := s.adminRepo.GetSessionByTokenID(tokenID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSessionRevoked
		}
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	if session.RevokedAt != nil {
		return nil, ErrSessionRevoked
	}
	if time.Now().After(session.ExpiresAt) {
		return nil, ErrSessionExpired
	}

	admin, err := s.adminRepo.GetByID(session.AdminID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	if !admin.Active {
		return nil, ErrAccountDisabled
	}

	return admin, nil
}

// CreateAdmin registers a new console admin
func (s *AdminService) CreateAdmin(email, password, name string, role model.AdminRole) (*model.Admin, error) {
	hash, err := util.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &model.Admin{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         role,
		Active:       true,
	}
	if err := s.adminRepo.Create(admin); err != nil {
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}
	return admin, nil
}

// LogAction writes an audit entry for an admin operation. Best-effort: audit
// failures are logged and swallowed so they never fail the operation itself.
func (s *AdminService) LogAction(actor Actor, action, entityType, entityID string, changedFields []string, changes map[string]interface{}, ip string) {
	entry := &model.AuditLog{
		AdminID:       actor.AdminID,
		AdminEmail:    actor.Email,
		Action:        action,
		EntityType:    entityType,
		EntityID:      entityID,
		ChangedFields: pq.StringArray(changedFields),
		IPAddress:     ip,
	}
	if changes != nil {
		if raw, err := json.Marshal(changes); err == nil {
			entry.Changes = string(raw)
		}
	}
	if err := s.auditRepo.Create(entry); err != nil {
		logger.Error("Failed to write audit log", err, map[string]interface{}{
			"action":      action,
			"entity_type": entityType,
			"entity_id":   entityID,
		})
	}
}

// ListAuditLogs returns the audit trail with filters
func (s *AdminService) ListAuditLogs(adminID *uint, entityType, entityID string, offset, limit int) ([]model.AuditLog, int64, error) {
	return s.auditRepo.List(adminID, entityType, entityID, offset, limit)
}

// GetDashboardStats aggregates the console landing numbers
func (s *AdminService) GetDashboardStats() (*DashboardStats, error) {
	businesses, err := s.businessRepo.CountByStatus()
	if err != nil {
		return nil, fmt.Errorf("failed to count businesses: %w", err)
	}
	tags, err := s.tagRepo.CountByStatus()
	if err != nil {
		return nil, fmt.Errorf("failed to count tags: %w", err)
	}
	pairs, err := s.pairRepo.CountByStatus()
	if err != nil {
		return nil, fmt.Errorf("failed to count pairs: %w", err)
	}
	activeSubs, err := s.subRepo.CountActive(time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to count subscriptions: %w", err)
	}
	unread, err := s.notificationRepo.CountUnread()
	if err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}

	return &DashboardStats{
		Businesses:          businesses,
		Tags:                tags,
		TagPairs:            pairs,
		ActiveSubscriptions: activeSubs,
		UnreadNotifications: unread,
	}, nil
}
