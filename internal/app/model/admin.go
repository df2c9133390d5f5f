package model

import (
	"time"
)

type AdminRole string

const (
	AdminRoleSuperAdmin AdminRole = "super_admin"
	AdminRoleAdmin      AdminRole = "admin"
	AdminRoleManager    AdminRole = "manager"
)

// Admin is an internal console user.
type Admin struct {
	ID           uint      `gorm:"primarykey" json:"id"`
	Email        string    `gorm:"type:varchar(200);uniqueIndex;not null" json:"email"`
	PasswordHash string    `gorm:"type:varchar(100);not null" json:"-"`
	Name         string    `gorm:"type:varchar(100);not null" json:"name"`
	Role         AdminRole `gorm:"type:varchar(20);default:'admin'" json:"role"`
	Active       bool      `gorm:"not null" json:"active"`
	LastLoginAt  *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

func (Admin) TableName() string {
	return "admins"
}

// AdminSession is the server-side record behind an issued admin token. The
// token's jti points at TokenID; a session can be revoked independently of
// the token's own expiry.
type AdminSession struct {
	ID        uint       `gorm:"primarykey" json:"id"`
	AdminID   uint       `gorm:"not null;index" json:"admin_id"`
	TokenID   string     `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func (AdminSession) TableName() string {
	return "admin_sessions"
}
