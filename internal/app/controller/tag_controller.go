package controller

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tapreview/tapreview-backend/internal/app/model"
	"github.com/tapreview/tapreview-backend/internal/app/service"
	apperrors "github.com/tapreview/tapreview-backend/internal/errors"
	"github.com/tapreview/tapreview-backend/internal/middleware"
)

type TagController struct {
	tagService   *service.TagService
	adminService *service.AdminService
}

func NewTagController(tagService *service.TagService, adminService *service.AdminService) *TagController {
	return &TagController{
		tagService:   tagService,
		adminService: adminService,
	}
}

type CreateTagRequest struct {
	TagType model.TagType `json:"tag_type" binding:"required"`
	TagID   string        `json:"tag_id"`
}

// Create mints a single tag
// POST /api/v1/tags
func (ctrl *TagController) Create(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreateTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "tag_type is required")
		return
	}

	tag, err := ctrl.tagService.CreateTag(req.TagType, req.TagID, middleware.GetActor(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidTagType):
			apperrors.BadRequest(c, apperrors.TagInvalidType, "tag_type must be qr or nfc")
		case errors.Is(err, service.ErrTagIDExists):
			apperrors.Conflict(c, apperrors.TagIDExists, "a tag with this id already exists")
		default:
			log.Error("Failed to create tag", err, nil)
			apperrors.InternalError(c, "")
		}
		return
	}

	ctrl.adminService.LogAction(middleware.GetActor(c), "create", "tag", tag.TagID, nil, nil, c.ClientIP())

	c.JSON(http.StatusCreated, gin.H{"tag": tag})
}

type BulkCreateTagsRequest struct {
	TagType model.TagType `json:"tag_type" binding:"required"`
	Count   int           `json:"count" binding:"required,min=1,max=1000"`
}

// BulkCreate mints a batch of tags for a production run
// POST /api/v1/tags/bulk
func (ctrl *TagController) BulkCreate(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req BulkCreateTagsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "tag_type and count (1-1000) are required")
		return
	}

	tags, err := ctrl.tagService.BulkCreateTags(req.TagType, req.Count, middleware.GetActor(c))
	if err != nil {
		if errors.Is(err, service.ErrInvalidTagType) {
			apperrors.BadRequest(c, apperrors.TagInvalidType, "tag_type must be qr or nfc")
			return
		}
		log.Error("Failed to bulk create tags", err, map[string]interface{}{
			"count": req.Count,
		})
		apperrors.InternalError(c, "")
		return
	}

	ctrl.adminService.LogAction(middleware.GetActor(c), "bulk_create", "tag", string(req.TagType),
		nil, map[string]interface{}{"count": len(tags)}, c.ClientIP())

	c.JSON(http.StatusCreated, gin.H{
		"tags":  tags,
		"count": len(tags),
	})
}

// Get returns one tag
// GET /api/v1/tags/:tag_id
func (ctrl *TagController) Get(c *gin.Context) {
	tag, err := ctrl.tagService.GetTag(c.Param("tag_id"))
	if err != nil {
		if errors.Is(err, service.ErrTagNotFound) {
			apperrors.NotFound(c, apperrors.TagNotFound, "tag not found")
			return
		}
		apperrors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tag": tag})
}

type AssignTagRequest struct {
	BusinessID    uint   `json:"business_id" binding:"required"`
	Location      string `json:"location"`
	ExpiresInDays int    `json:"expires_in_days"`
}

// Assign puts an inactive tag into a business's hands
// POST /api/v1/tags/:tag_id/assign
func (ctrl *TagController) Assign(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req AssignTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "business_id is required")
		return
	}

	tag, err := ctrl.tagService.AssignTag(c.Param("tag_id"), req.BusinessID, req.Location, req.ExpiresInDays, middleware.GetActor(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTagNotFound):
			apperrors.NotFound(c, apperrors.TagNotFound, "tag not found")
		case errors.Is(err, service.ErrBusinessNotFound):
			apperrors.NotFound(c, apperrors.BusinessNotFound, "business not found")
		case errors.Is(err, service.ErrTagNotInactive):
			msg := "can only assign inactive tags"
			if current, lookupErr := ctrl.tagService.GetTag(c.Param("tag_id")); lookupErr == nil {
				msg = fmt.Sprintf("tag is %s, can only assign inactive tags", current.Status)
			}
			apperrors.Conflict(c, apperrors.TagNotAssignable, msg)
		default:
			log.Error("Failed to assign tag", err, map[string]interface{}{
				"tag_id": c.Param("tag_id"),
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	ctrl.adminService.LogAction(middleware.GetActor(c), "assign", "tag", tag.TagID,
		[]string{"status", "business_id", "location"},
		map[string]interface{}{"status": tag.Status, "business_id": req.BusinessID}, c.ClientIP())

	c.JSON(http.StatusOK, gin.H{"tag": tag})
}

// Unassign takes an assigned tag back into stock
// POST /api/v1/tags/:tag_id/unassign
func (ctrl *TagController) Unassign(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	tag, err := ctrl.tagService.UnassignTag(c.Param("tag_id"), middleware.GetActor(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTagNotFound):
			apperrors.NotFound(c, apperrors.TagNotFound, "tag not found")
		case errors.Is(err, service.ErrTagNotAssigned):
			apperrors.Conflict(c, apperrors.TagNotAssigned, "tag is not assigned to a business")
		default:
			log.Error("Failed to unassign tag", err, map[string]interface{}{
				"tag_id": c.Param("tag_id"),
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	ctrl.adminService.LogAction(middleware.GetActor(c), "unassign", "tag", tag.TagID,
		[]string{"status", "business_id"},
		map[string]interface{}{"status": tag.Status}, c.ClientIP())

	c.JSON(http.StatusOK, gin.H{"tag": tag})
}

// Activate flips a pending tag to active
// POST /api/v1/tags/:tag_id/activate
func (ctrl *TagController) Activate(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	tag, err := ctrl.tagService.ActivateTag(c.Param("tag_id"), middleware.GetActor(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTagNotFound):
			apperrors.NotFound(c, apperrors.TagNotFound, "tag not found")
		case errors.Is(err, service.ErrTagNotPending):
			apperrors.Conflict(c, apperrors.TagNotPending, "only pending tags can be activated")
		default:
			log.Error("Failed to activate tag", err, map[string]interface{}{
				"tag_id": c.Param("tag_id"),
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	ctrl.adminService.LogAction(middleware.GetActor(c), "activate", "tag", tag.TagID,
		[]string{"status"}, map[string]interface{}{"status": tag.Status}, c.ClientIP())

	c.JSON(http.StatusOK, gin.H{"tag": tag})
}

type ScrapTagRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// Scrap takes a tag out of circulation
// POST /api/v1/tags/:tag_id/scrap
func (ctrl *TagController) Scrap(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req ScrapTagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "reason is required")
		return
	}

	tag, err := ctrl.tagService.ScrapTag(c.Param("tag_id"), req.Reason, middleware.GetActor(c))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrTagNotFound):
			apperrors.NotFound(c, apperrors.TagNotFound, "tag not found")
		case errors.Is(err, service.ErrTagConflict):
			apperrors.Conflict(c, apperrors.ResourceConflict, "tag is already scrapped")
		default:
			log.Error("Failed to scrap tag", err, map[string]interface{}{
				"tag_id": c.Param("tag_id"),
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	ctrl.adminService.LogAction(middleware.GetActor(c), "scrap", "tag", tag.TagID,
		[]string{"status", "scrap_reason"},
		map[string]interface{}{"status": tag.Status, "reason": req.Reason}, c.ClientIP())

	c.JSON(http.StatusOK, gin.H{"tag": tag})
}

// Reset wipes a tag back to factory state
// POST /api/v1/tags/:tag_id/reset
func (ctrl *TagController) Reset(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	tag, err := ctrl.tagService.ResetTag(c.Param("tag_id"), middleware.GetActor(c))
	if err != nil {
		if errors.Is(err, service.ErrTagNotFound) {
			apperrors.NotFound(c, apperrors.TagNotFound, "tag not found")
			return
		}
		log.Error("Failed to reset tag", err, map[string]interface{}{
			"tag_id": c.Param("tag_id"),
		})
		apperrors.InternalError(c, "")
		return
	}

	ctrl.adminService.LogAction(middleware.GetActor(c), "reset", "tag", tag.TagID,
		[]string{"status"}, map[string]interface{}{"status": tag.Status}, c.ClientIP())

	c.JSON(http.StatusOK, gin.H{"tag": tag})
}

// List returns tags matching the filters
// GET /api/v1/tags
func (ctrl *TagController) List(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	offset, limit := parsePagination(c)

	var businessID *uint
	if raw := c.Query("business_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid business_id")
			return
		}
		id := uint(parsed)
		businessID = &id
	}

	tags, total, err := ctrl.tagService.ListTags(c.Query("status"), c.Query("type"), businessID, offset, limit)
	if err != nil {
		log.Error("Failed to list tags", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tags":  tags,
		"total": total,
	})
}

// History returns a tag's audit trail
// GET /api/v1/tags/:tag_id/history
func (ctrl *TagController) History(c *gin.Context) {
	history, err := ctrl.tagService.GetHistory(c.Param("tag_id"))
	if err != nil {
		if errors.Is(err, service.ErrTagNotFound) {
			apperrors.NotFound(c, apperrors.TagNotFound, "tag not found")
			return
		}
		apperrors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"history": history})
}

// Stats returns the inventory counts by status
// GET /api/v1/tags/stats
func (ctrl *TagController) Stats(c *gin.Context) {
	stats, err := ctrl.tagService.InventoryStats()
	if err != nil {
		apperrors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// Export streams the inventory as an xlsx download
// GET /api/v1/tags/export
func (ctrl *TagController) Export(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	f, err := ctrl.tagService.ExportInventory(c.Query("status"), c.Query("type"))
	if err != nil {
		log.Error("Failed to export inventory", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	filename := fmt.Sprintf("tag-inventory-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if err := f.Write(c.Writer); err != nil {
		log.Error("Failed to stream inventory export", err, nil)
	}
}
