package repository

import (
	"time"

	"github.com/tapreview/tapreview-backend/internal/app/model"

	"gorm.io/gorm"
)

type AdminRepository struct {
	db *gorm.DB
}

func NewAdminRepository(db *gorm.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// Create inserts a new admin
func (r *AdminRepository) Create(admin *model.Admin) error {
	return r.db.Create(admin).Error
}

// GetByID fetches an admin by id
func (r *AdminRepository) GetByID(id uint) (*model.Admin, error) {
	var admin model.Admin
	if err := r.db.First(&admin, id).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

// GetByEmail fetches an admin by email
func (r *AdminRepository) GetByEmail(email string) (*model.Admin, error) {
	var admin model.Admin
	if err := r.db.Where("email = ?", email).First(&admin).Error; err != nil {
		return nil, err
	}
	return &admin, nil
}

// Update saves the whole admin record
func (r *AdminRepository) Update(admin *model.Admin) error {
	return r.db.Save(admin).Error
}

// UpdateLastLogin stamps the admin's last login time
func (r *AdminRepository) UpdateLastLogin(id uint, at time.Time) error {
	return r.db.Model(&model.Admin{}).
		Where("id = ?", id).
		Update("last_login_at", at).Error
}

// CreateSession inserts a new session
func (r *AdminRepository) CreateSession(session *model.AdminSession) error {
	return r.db.Create(session).Error
}

// GetSessionByTokenID fetches a session by its token id (jti)
func (r *AdminRepository) GetSessionByTokenID(tokenID string) (*model.AdminSession, error) {
	var session model.AdminSession
	err := r.db.Where("token_id = ?", tokenID).First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// RevokeSession marks a session revoked
func (r *AdminRepository) RevokeSession(tokenID string, at time.Time) error {
	return r.db.Model(&model.AdminSession{}).
		Where("token_id = ? AND revoked_at IS NULL", tokenID).
		Update("revoked_at", at).Error
}

// RevokeSessionsForAdmin revokes every live session of an admin
func (r *AdminRepository) RevokeSessionsForAdmin(adminID uint, at time.Time) error {
	return r.db.Model(&model.AdminSession{}).
		Where("admin_id = ? AND revoked_at IS NULL", adminID).
		Update("revoked_at", at).Error
}
