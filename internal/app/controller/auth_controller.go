package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tapreview/tapreview-backend/internal/app/model"
	"github.com/tapreview/tapreview-backend/internal/app/service"
	apperrors "github.com/tapreview/tapreview-backend/internal/errors"
	"github.com/tapreview/tapreview-backend/internal/middleware"
)

type AuthController struct {
	adminService *service.AdminService
}

func NewAuthController(adminService *service.AdminService) *AuthController {
	return &AuthController{adminService: adminService}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login handles admin login
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "email and password are required")
		return
	}

	result, err := ctrl.adminService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			log.Warn("Login failed: invalid credentials", map[string]interface{}{
				"email": req.Email,
			})
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthInvalidCredentials, "invalid email or password")
		case errors.Is(err, service.ErrAccountDisabled):
			apperrors.RespondWithError(c, http.StatusForbidden, apperrors.AuthAccountDisabled, "account is disabled")
		default:
			log.Error("Login failed", err, map[string]interface{}{
				"email": req.Email,
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      result.Token,
		"expires_at": result.ExpiresAt,
		"admin":      result.Admin,
	})
}

// Logout revokes the current session
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	tokenID, ok := middleware.GetTokenID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	if err := ctrl.adminService.Logout(c.Request.Context(), tokenID); err != nil {
		log.Error("Logout failed", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

// GetMe returns the authenticated admin's profile
// GET /api/v1/auth/me
func (ctrl *AuthController) GetMe(c *gin.Context) {
	tokenID, ok := middleware.GetTokenID(c)
	if !ok {
		apperrors.Unauthorized(c, "")
		return
	}

	admin, err := ctrl.adminService.VerifySession(c.Request.Context(), tokenID)
	if err != nil {
		apperrors.Unauthorized(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"admin": admin})
}

type CreateAdminRequest struct {
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required,min=8"`
	Name     string          `json:"name" binding:"required"`
	Role     model.AdminRole `json:"role" binding:"required"`
}

// CreateAdmin registers a new console admin (super admin only)
// POST /api/v1/admins
func (ctrl *AuthController) CreateAdmin(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreateAdminRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid admin details")
		return
	}

	if req.Role != model.AdminRoleSuperAdmin && req.Role != model.AdminRoleAdmin && req.Role != model.AdminRoleManager {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "unknown role")
		return
	}

	admin, err := ctrl.adminService.CreateAdmin(req.Email, req.Password, req.Name, req.Role)
	if err != nil {
		info := apperrors.ParseError(err, "admin")
		if info.Code == apperrors.AuthEmailAlreadyExists || info.Code == apperrors.ResourceAlreadyExists {
			apperrors.Conflict(c, apperrors.AuthEmailAlreadyExists, "an admin with this email already exists")
			return
		}
		log.Error("Failed to create admin", err, map[string]interface{}{
			"email": req.Email,
		})
		apperrors.InternalError(c, "")
		return
	}

	ctrl.adminService.LogAction(middleware.GetActor(c), "create", "admin", admin.Email, nil, nil, c.ClientIP())

	c.JSON(http.StatusCreated, gin.H{"admin": admin})
}
