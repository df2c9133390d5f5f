package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/tapreview/tapreview-backend/internal/app/model"
	"github.com/tapreview/tapreview-backend/internal/app/service"
	apperrors "github.com/tapreview/tapreview-backend/internal/errors"
	"github.com/tapreview/tapreview-backend/internal/middleware"
)

type TagPairController struct {
	pairService  *service.TagPairService
	adminService *service.AdminService
}

func NewTagPairController(pairService *service.TagPairService, adminService *service.AdminService) *TagPairController {
	return &TagPairController{
		pairService:  pairService,
		adminService: adminService,
	}
}

// respondPairError maps the pair transition errors onto HTTP codes
func respondPairError(c *gin.Context, err error) bool {
	switch {
	case errors.Is(err, service.ErrPairNotFound):
		apperrors.NotFound(c, apperrors.PairNotFound, "tag pair not found")
	case errors.Is(err, service.ErrPairDeleted):
		apperrors.RespondWithError(c, http.StatusGone, apperrors.PairDeleted, "tag pair has been deleted")
	case errors.Is(err, service.ErrPairComponentInUse):
		apperrors.Conflict(c, apperrors.PairComponentInUse, "qr or nfc id is already bound to another pair")
	case errors.Is(err, service.ErrPairNotAssignable):
		apperrors.Conflict(c, apperrors.PairNotAssignable, "pair cannot be assigned in its current state")
	case errors.Is(err, service.ErrPairAlreadyActive):
		apperrors.Conflict(c, apperrors.PairAlreadyActive, "pair is already active")
	case errors.Is(err, service.ErrPairNotActive):
		apperrors.Conflict(c, apperrors.PairNotActive, "pair is not active")
	case errors.Is(err, service.ErrPairConflict):
		apperrors.Conflict(c, apperrors.ResourceConflict, "pair changed state, please retry")
	case errors.Is(err, service.ErrBusinessNotFound):
		apperrors.NotFound(c, apperrors.BusinessNotFound, "business not found")
	default:
		return false
	}
	return true
}

type CreatePairRequest struct {
	QRID  string `json:"qr_id" binding:"required"`
	NFCID string `json:"nfc_id" binding:"required"`
	Notes string `json:"notes"`
}

// Create binds a QR and NFC tag into a pair
// POST /api/v1/tag-pairs
func (ctrl *TagPairController) Create(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreatePairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "qr_id and nfc_id are required")
		return
	}

	pair, err := ctrl.pairService.CreatePair(req.QRID, req.NFCID, req.Notes, middleware.GetActor(c))
	if err != nil {
		if !respondPairError(c, err) {
			log.Error("Failed to create pair", err, nil)
			apperrors.InternalError(c, "")
		}
		return
	}

	ctrl.adminService.LogAction(middleware.GetActor(c), "create", "tag_pair", pair.PairID,
		nil, map[string]interface{}{"qr_id": pair.QRID, "nfc_id": pair.NFCID}, c.ClientIP())

	c.JSON(http.StatusCreated, gin.H{"pair": pair})
}

type BulkCreatePairsRequest struct {
	Count int `json:"count" binding:"required,min=1,max=500"`
}

// BulkCreate mints a batch of pairs with generated component ids
// POST /api/v1/tag-pairs/bulk
func (ctrl *TagPairController) BulkCreate(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req BulkCreatePairsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "count (1-500) is required")
		return
	}

	pairs, err := ctrl.pairService.BulkCreatePairs(req.Count, middleware.GetActor(c))
	if err != nil {
		log.Error("Failed to bulk create pairs", err, map[string]interface{}{
			"count": req.Count,
		})
		apperrors.InternalError(c, "")
		return
	}

	ctrl.adminService.LogAction(middleware.GetActor(c), "bulk_create", "tag_pair", "batch",
		nil, map[string]interface{}{"count": len(pairs)}, c.ClientIP())

	c.JSON(http.StatusCreated, gin.H{
		"pairs": pairs,
		"count": len(pairs),
	})
}

// Get returns one pair
// GET /api/v1/tag-pairs/:pair_id
func (ctrl *TagPairController) Get(c *gin.Context) {
	pair, err := ctrl.pairService.GetPair(c.Param("pair_id"))
	if err != nil {
		if !respondPairError(c, err) {
			apperrors.InternalError(c, "")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"pair": pair})
}

type AssignPairRequest struct {
	BusinessID uint `json:"business_id" binding:"required"`
}

// Assign hands a pair to a business
// POST /api/v1/tag-pairs/:pair_id/assign
func (ctrl *TagPairController) Assign(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req AssignPairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "business_id is required")
		return
	}

	pair, err := ctrl.pairService.AssignPair(c.Param("pair_id"), req.BusinessID, middleware.GetActor(c), c.ClientIP())
	if err != nil {
		if !respondPairError(c, err) {
			log.Error("Failed to assign pair", err, map[string]interface{}{
				"pair_id": c.Param("pair_id"),
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	ctrl.adminService.LogAction(middleware.GetActor(c), "assign", "tag_pair", pair.PairID,
		[]string{"status", "business_id"},
		map[string]interface{}{"status": pair.Status, "business_id": req.BusinessID}, c.ClientIP())

	c.JSON(http.StatusOK, gin.H{"pair": pair})
}

// Reassign moves a pair to a different business without touching its status
// POST /api/v1/tag-pairs/:pair_id/reassign
func (ctrl *TagPairController) Reassign(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req AssignPairRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "business_id is required")
		return
	}

	pair, err := ctrl.pairService.ReassignPair(c.Param("pair_id"), req.BusinessID, middleware.GetActor(c), c.ClientIP())
	if err != nil {
		if !respondPairError(c, err) {
			log.Error("Failed to reassign pair", err, map[string]interface{}{
				"pair_id": c.Param("pair_id"),
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	ctrl.adminService.LogAction(middleware.GetActor(c), "reassign", "tag_pair", pair.PairID,
		[]string{"business_id"},
		map[string]interface{}{"business_id": req.BusinessID}, c.ClientIP())

	c.JSON(http.StatusOK, gin.H{"pair": pair})
}

// Activate turns a pair live
// POST /api/v1/tag-pairs/:pair_id/activate
func (ctrl *TagPairController) Activate(c *gin.Context) {
	pair, err := ctrl.pairService.ActivatePair(c.Param("pair_id"), middleware.GetActor(c), c.ClientIP())
	if err != nil {
		if !respondPairError(c, err) {
			apperrors.InternalError(c, "")
		}
		return
	}

	ctrl.adminService.LogAction(middleware.GetActor(c), "activate", "tag_pair", pair.PairID,
		[]string{"status"}, map[string]interface{}{"status": pair.Status}, c.ClientIP())

	c.JSON(http.StatusOK, gin.H{"pair": pair})
}

// Deactivate pauses a live pair
// POST /api/v1/tag-pairs/:pair_id/deactivate
func (ctrl *TagPairController) Deactivate(c *gin.Context) {
	pair, err := ctrl.pairService.DeactivatePair(c.Param("pair_id"), middleware.GetActor(c), c.ClientIP())
	if err != nil {
		if !respondPairError(c, err) {
			apperrors.InternalError(c, "")
		}
		return
	}

	ctrl.adminService.LogAction(middleware.GetActor(c), "deactivate", "tag_pair", pair.PairID,
		[]string{"status"}, map[string]interface{}{"status": pair.Status}, c.ClientIP())

	c.JSON(http.StatusOK, gin.H{"pair": pair})
}

// Delete retires a pair permanently
// DELETE /api/v1/tag-pairs/:pair_id
func (ctrl *TagPairController) Delete(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	if err := ctrl.pairService.DeletePair(c.Param("pair_id"), middleware.GetActor(c), c.ClientIP()); err != nil {
		if !respondPairError(c, err) {
			log.Error("Failed to delete pair", err, map[string]interface{}{
				"pair_id": c.Param("pair_id"),
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	ctrl.adminService.LogAction(middleware.GetActor(c), "delete", "tag_pair", c.Param("pair_id"),
		[]string{"status"}, map[string]interface{}{"status": model.TagPairStatusDeleted}, c.ClientIP())

	c.JSON(http.StatusOK, gin.H{"message": "pair deleted"})
}

type UpdateNotesRequest struct {
	Notes string `json:"notes"`
}

// UpdateNotes edits the free-form notes on a pair
// PUT /api/v1/tag-pairs/:pair_id/notes
func (ctrl *TagPairController) UpdateNotes(c *gin.Context) {
	var req UpdateNotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid notes payload")
		return
	}

	pair, err := ctrl.pairService.UpdatePairNotes(c.Param("pair_id"), req.Notes, middleware.GetActor(c), c.ClientIP())
	if err != nil {
		if !respondPairError(c, err) {
			apperrors.InternalError(c, "")
		}
		return
	}

	ctrl.adminService.LogAction(middleware.GetActor(c), "update_notes", "tag_pair", pair.PairID,
		[]string{"notes"}, nil, c.ClientIP())

	c.JSON(http.StatusOK, gin.H{"pair": pair})
}

// List returns pairs matching the filters
// GET /api/v1/tag-pairs
func (ctrl *TagPairController) List(c *gin.Context) {
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

	pairs, total, err := ctrl.pairService.ListPairs(c.Query("status"), businessID, c.Query("search"), offset, limit)
	if err != nil {
		log.Error("Failed to list pairs", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"pairs": pairs,
		"total": total,
	})
}

// Stats returns pair counts by status
// GET /api/v1/tag-pairs/stats
func (ctrl *TagPairController) Stats(c *gin.Context) {
	stats, err := ctrl.pairService.PairStats()
	if err != nil {
		apperrors.InternalError(c, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}

// ActivityLog returns a pair's activity trail
// GET /api/v1/tag-pairs/:pair_id/activity
func (ctrl *TagPairController) ActivityLog(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	activities, err := ctrl.pairService.GetActivityLog(c.Param("pair_id"), limit)
	if err != nil {
		if !respondPairError(c, err) {
			apperrors.InternalError(c, "")
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": activities})
}
