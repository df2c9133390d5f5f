package controller

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tapreview/tapreview-backend/internal/app/service"
	apperrors "github.com/tapreview/tapreview-backend/internal/errors"
	"github.com/tapreview/tapreview-backend/internal/middleware"
)

type AdminController struct {
	adminService *service.AdminService
}

func NewAdminController(adminService *service.AdminService) *AdminController {
	return &AdminController{adminService: adminService}
}

// GetDashboard returns the console landing numbers
// GET /api/v1/admin/dashboard
func (ctrl *AdminController) GetDashboard(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	stats, err := ctrl.adminService.GetDashboardStats()
	if err != nil {
		log.Error("Failed to build dashboard stats", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, stats)
}

// ListAuditLogs returns the audit trail
// GET /api/v1/admin/audit-logs
func (ctrl *AdminController) ListAuditLogs(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	offset, limit := parsePagination(c)

	var adminID *uint
	if raw := c.Query("admin_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid admin_id")
			return
		}
		id := uint(parsed)
		adminID = &id
	}

	logs, total, err := ctrl.adminService.ListAuditLogs(
		adminID,
		c.Query("entity_type"),
		c.Query("entity_id"),
		offset,
		limit,
	)
	if err != nil {
		log.Error("Failed to list audit logs", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"audit_logs": logs,
		"total":      total,
	})
}
