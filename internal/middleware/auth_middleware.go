package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tapreview/tapreview-backend/internal/app/model"
	"github.com/tapreview/tapreview-backend/internal/app/service"
	apperrors "github.com/tapreview/tapreview-backend/internal/errors"
	"github.com/tapreview/tapreview-backend/pkg/util"
)

// Context keys for admin information
const (
	AdminIDKey    = "admin_id"
	AdminEmailKey = "admin_email"
	AdminRoleKey  = "admin_role"
	TokenIDKey    = "token_id"
)

type AuthMiddleware struct {
	jwtSecret    string
	adminService *service.AdminService
}

func NewAuthMiddleware(jwtSecret string, adminService *service.AdminService) *AuthMiddleware {
	return &AuthMiddleware{
		jwtSecret:    jwtSecret,
		adminService: adminService,
	}
}

// Authenticate validates the bearer token and checks that the session behind
// its jti is still alive. A token that parses fine but whose session was
// revoked by logout is rejected here.
func (m *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			apperrors.Unauthorized(c, "authentication required")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			log.Warn("Invalid authorization header format", map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "invalid authorization header")
			c.Abort()
			return
		}

		claims, err := util.ValidateToken(parts[1], m.jwtSecret)
		if err != nil {
			log.Warn("Token validation failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			if errors.Is(err, util.ErrExpiredToken) {
				apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenExpired, "session expired, please log in again")
			} else {
				apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenInvalid, "invalid authentication token")
			}
			c.Abort()
			return
		}

		admin, err := m.adminService.VerifySession(c.Request.Context(), claims.ID)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrSessionRevoked):
				apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenRevoked, "session revoked, please log in again")
			case errors.Is(err, service.ErrSessionExpired):
				apperrors.RespondWithError(c, http.StatusUnauthorized, apperrors.AuthTokenExpired, "session expired, please log in again")
			case errors.Is(err, service.ErrAccountDisabled):
				apperrors.RespondWithError(c, http.StatusForbidden, apperrors.AuthAccountDisabled, "account is disabled")
			default:
				log.Error("Session verification failed", err, map[string]interface{}{
					"path": c.Request.URL.Path,
				})
				apperrors.InternalError(c, "")
			}
			c.Abort()
			return
		}

		c.Set(AdminIDKey, admin.ID)
		c.Set(AdminEmailKey, admin.Email)
		c.Set(AdminRoleKey, admin.Role)
		c.Set(TokenIDKey, claims.ID)

		c.Next()
	}
}

// RequireRole checks that the authenticated admin holds one of the roles
func (m *AuthMiddleware) RequireRole(roles ...model.AdminRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		value, exists := c.Get(AdminRoleKey)
		if !exists {
			apperrors.RespondWithError(c, http.StatusForbidden, apperrors.AuthzForbidden, "role information missing")
			c.Abort()
			return
		}

		role := value.(model.AdminRole)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}

		adminID, _ := GetAdminID(c)
		log.Warn("Insufficient permissions", map[string]interface{}{
			"admin_id":       adminID,
			"admin_role":     role,
			"required_roles": roles,
			"path":           c.Request.URL.Path,
		})
		apperrors.Forbidden(c, "insufficient permissions")
		c.Abort()
	}
}

// GetAdminID extracts the admin id from context
func GetAdminID(c *gin.Context) (uint, bool) {
	adminID, exists := c.Get(AdminIDKey)
	if !exists {
		return 0, false
	}
	return adminID.(uint), true
}

// GetTokenID extracts the session token id from context
func GetTokenID(c *gin.Context) (string, bool) {
	tokenID, exists := c.Get(TokenIDKey)
	if !exists {
		return "", false
	}
	return tokenID.(string), true
}

// GetActor builds the audit actor for the authenticated admin
func GetActor(c *gin.Context) service.Actor {
	adminID, _ := GetAdminID(c)
	email, _ := c.Get(AdminEmailKey)
	actor := service.Actor{AdminID: adminID}
	if s, ok := email.(string); ok {
		actor.Email = s
	}
	return actor
}
