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

type BusinessController struct {
	businessService *service.BusinessService
	adminService    *service.AdminService
}

func NewBusinessController(businessService *service.BusinessService, adminService *service.AdminService) *BusinessController {
	return &BusinessController{
		businessService: businessService,
		adminService:    adminService,
	}
}

type RegisterBusinessRequest struct {
	Name          string `json:"name" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	City          string `json:"city"`
	Category      string `json:"category"`
	GooglePlaceID string `json:"google_place_id"`
	OwnerEmail    string `json:"owner_email"`
}

// Register creates a new business tenant
// POST /api/v1/businesses
func (ctrl *BusinessController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid business details")
		return
	}

	business, err := ctrl.businessService.RegisterBusiness(&model.Business{
		Name:          req.Name,
		Email:         req.Email,
		Phone:         req.Phone,
		Address:       req.Address,
		City:          req.City,
		Category:      req.Category,
		GooglePlaceID: req.GooglePlaceID,
		OwnerEmail:    req.OwnerEmail,
	})
	if err != nil {
		if errors.Is(err, service.ErrBusinessEmailExists) {
			apperrors.Conflict(c, apperrors.BusinessEmailExists, "a business with this email already exists")
			return
		}
		log.Error("Failed to register business", err, map[string]interface{}{
			"email": req.Email,
		})
		apperrors.InternalError(c, "")
		return
	}

	ctrl.adminService.LogAction(middleware.GetActor(c), "register", "business", business.Email, nil, nil, c.ClientIP())

	c.JSON(http.StatusCreated, gin.H{"business": business})
}

// List returns businesses matching the filters
// GET /api/v1/businesses
func (ctrl *BusinessController) List(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	offset, limit := parsePagination(c)

	businesses, total, err := ctrl.businessService.ListBusinesses(
		c.Query("status"),
		c.Query("search"),
		c.Query("city"),
		offset,
		limit,
	)
	if err != nil {
		log.Error("Failed to list businesses", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"businesses": businesses,
		"total":      total,
	})
}

// Get returns one business with its entitlement and deployed pairs
// GET /api/v1/businesses/:id
func (ctrl *BusinessController) Get(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid business id")
		return
	}

	detail, err := ctrl.businessService.GetBusiness(id)
	if err != nil {
		if errors.Is(err, service.ErrBusinessNotFound) {
			apperrors.NotFound(c, apperrors.BusinessNotFound, "business not found")
			return
		}
		log.Error("Failed to get business", err, map[string]interface{}{
			"business_id": id,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, detail)
}

// Update edits a business's profile fields
// PUT /api/v1/businesses/:id
func (ctrl *BusinessController) Update(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid business id")
		return
	}

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid update payload")
		return
	}

	business, err := ctrl.businessService.UpdateBusiness(id, updates)
	if err != nil {
		if errors.Is(err, service.ErrBusinessNotFound) {
			apperrors.NotFound(c, apperrors.BusinessNotFound, "business not found")
			return
		}
		log.Error("Failed to update business", err, map[string]interface{}{
			"business_id": id,
		})
		apperrors.InternalError(c, "")
		return
	}

	fields := make([]string, 0, len(updates))
	for k := range updates {
		fields = append(fields, k)
	}
	ctrl.adminService.LogAction(middleware.GetActor(c), "update", "business", business.Email, fields, updates, c.ClientIP())

	c.JSON(http.StatusOK, gin.H{"business": business})
}

// Delete suspends a business. Tenants are never hard-deleted.
// DELETE /api/v1/businesses/:id
func (ctrl *BusinessController) Delete(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid business id")
		return
	}

	business, err := ctrl.businessService.SuspendBusiness(id)
	if err != nil {
		if errors.Is(err, service.ErrBusinessNotFound) {
			apperrors.NotFound(c, apperrors.BusinessNotFound, "business not found")
			return
		}
		log.Error("Failed to suspend business", err, map[string]interface{}{
			"business_id": id,
		})
		apperrors.InternalError(c, "")
		return
	}

	ctrl.adminService.LogAction(middleware.GetActor(c), "suspend", "business", business.Email, nil, nil, c.ClientIP())

	c.JSON(http.StatusOK, gin.H{"business": business})
}
