package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tapreview/tapreview-backend/internal/app/service"
	apperrors "github.com/tapreview/tapreview-backend/internal/errors"
	"github.com/tapreview/tapreview-backend/internal/middleware"
)

type NotificationController struct {
	notificationService *service.NotificationService
}

func NewNotificationController(notificationService *service.NotificationService) *NotificationController {
	return &NotificationController{notificationService: notificationService}
}

// List returns admin notifications, optionally unread only
// GET /api/v1/notifications
func (ctrl *NotificationController) List(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	offset, limit := parsePagination(c)

	unreadOnly := c.Query("unread") == "true"
	notifications, total, err := ctrl.notificationService.List(unreadOnly, offset, limit)
	if err != nil {
		log.Error("Failed to list notifications", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": notifications,
		"total":         total,
	})
}

// UnreadCount returns the badge number for the console header
// GET /api/v1/notifications/unread-count
func (ctrl *NotificationController) UnreadCount(c *gin.Context) {
	count, err := ctrl.notificationService.UnreadCount()
	if err != nil {
		apperrors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

// MarkRead marks one notification read
// PUT /api/v1/notifications/:id/read
func (ctrl *NotificationController) MarkRead(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid notification id")
		return
	}

	if err := ctrl.notificationService.MarkRead(id); err != nil {
		apperrors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "marked read"})
}

// MarkAllRead clears the badge
// PUT /api/v1/notifications/read-all
func (ctrl *NotificationController) MarkAllRead(c *gin.Context) {
	if err := ctrl.notificationService.MarkAllRead(); err != nil {
		apperrors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "all marked read"})
}

// BusinessAlerts returns the per-business alert strip for the console
// GET /api/v1/notifications/business-alerts
func (ctrl *NotificationController) BusinessAlerts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	alerts, err := ctrl.notificationService.BusinessAlerts()
	if err != nil {
		log.Error("Failed to derive business alerts", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

// RunSweep triggers the notification sweep on demand
// POST /api/v1/notifications/sweep
func (ctrl *NotificationController) RunSweep(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if err := ctrl.notificationService.CheckAndCreateAlerts(); err != nil {
		log.Error("Manual alert sweep failed", err, nil)
		apperrors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "sweep completed"})
}
