package controller

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tapreview/tapreview-backend/internal/app/model"
	"github.com/tapreview/tapreview-backend/internal/app/service"
	apperrors "github.com/tapreview/tapreview-backend/internal/errors"
	"github.com/tapreview/tapreview-backend/internal/middleware"
)

type SubscriptionController struct {
	subService   *service.SubscriptionService
	adminService *service.AdminService
}

func NewSubscriptionController(subService *service.SubscriptionService, adminService *service.AdminService) *SubscriptionController {
	return &SubscriptionController{
		subService:   subService,
		adminService: adminService,
	}
}

type PriceQuoteRequest struct {
	PlanType   model.PlanType `json:"plan_type" binding:"required"`
	Currency   model.Currency `json:"currency" binding:"required"`
	CouponCode string         `json:"coupon_code"`
}

// ListPlans returns the purchasable plans with their list prices
// GET /api/v1/subscriptions/plans
func (ctrl *SubscriptionController) ListPlans(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"plans": ctrl.subService.ListPlans()})
}

// CalculatePrice quotes a plan with an optional coupon
// POST /api/v1/subscriptions/calculate-price
func (ctrl *SubscriptionController) CalculatePrice(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req PriceQuoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "plan_type and currency are required")
		return
	}

	quote, err := ctrl.subService.CalculatePrice(req.PlanType, req.Currency, req.CouponCode)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPlan) || errors.Is(err, service.ErrInvalidCurrency) {
			apperrors.BadRequest(c, apperrors.SubscriptionInvalidPlan, "unknown plan or currency")
			return
		}
		log.Error("Failed to quote price", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, quote)
}

// GetStatus returns the live entitlement for a business
// GET /api/v1/businesses/:id/subscription
func (ctrl *SubscriptionController) GetStatus(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid business id")
		return
	}

	status, history, err := ctrl.subService.GetSubscriptionDetails(id)
	if err != nil {
		log.Error("Failed to get subscription details", err, map[string]interface{}{
			"business_id": id,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  status,
		"history": history,
	})
}

type CreateCouponRequest struct {
	Code          string             `json:"code" binding:"required"`
	DiscountType  model.DiscountType `json:"discount_type" binding:"required"`
	DiscountValue float64            `json:"discount_value" binding:"required,gt=0"`
	ValidFrom     time.Time          `json:"valid_from" binding:"required"`
	ValidUntil    time.Time          `json:"valid_until" binding:"required"`
	UsageLimit    int                `json:"usage_limit"`
}

// CreateCoupon registers a new discount code
// POST /api/v1/coupons
func (ctrl *SubscriptionController) CreateCoupon(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreateCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid coupon details")
		return
	}

	if req.DiscountType != model.DiscountPercentage && req.DiscountType != model.DiscountFixed {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "discount_type must be percentage or fixed")
		return
	}
	if !req.ValidUntil.After(req.ValidFrom) {
		apperrors.BadRequest(c, apperrors.ValidationInvalidRange, "valid_until must be after valid_from")
		return
	}

	coupon, err := ctrl.subService.CreateCoupon(&model.Coupon{
		Code:          req.Code,
		DiscountType:  req.DiscountType,
		DiscountValue: req.DiscountValue,
		ValidFrom:     req.ValidFrom,
		ValidUntil:    req.ValidUntil,
		UsageLimit:    req.UsageLimit,
		Active:        true,
	})
	if err != nil {
		if errors.Is(err, service.ErrCouponCodeExists) {
			apperrors.Conflict(c, apperrors.CouponExists, "a coupon with this code already exists")
			return
		}
		log.Error("Failed to create coupon", err, map[string]interface{}{
			"code": req.Code,
		})
		apperrors.InternalError(c, "")
		return
	}

	ctrl.adminService.LogAction(middleware.GetActor(c), "create", "coupon", coupon.Code, nil, nil, c.ClientIP())

	c.JSON(http.StatusCreated, gin.H{"coupon": coupon})
}

// ListCoupons returns all coupons
// GET /api/v1/coupons
func (ctrl *SubscriptionController) ListCoupons(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	coupons, err := ctrl.subService.ListCoupons()
	if err != nil {
		log.Error("Failed to list coupons", err, nil)
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"coupons": coupons})
}

type SetCouponActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// SetCouponActive toggles a coupon
// PUT /api/v1/coupons/:code/active
func (ctrl *SubscriptionController) SetCouponActive(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req SetCouponActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "active is required")
		return
	}

	coupon, err := ctrl.subService.SetCouponActive(c.Param("code"), *req.Active)
	if err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			apperrors.NotFound(c, apperrors.CouponNotFound, "coupon not found")
			return
		}
		log.Error("Failed to toggle coupon", err, map[string]interface{}{
			"code": c.Param("code"),
		})
		apperrors.InternalError(c, "")
		return
	}

	ctrl.adminService.LogAction(middleware.GetActor(c), "toggle", "coupon", coupon.Code,
		[]string{"active"}, map[string]interface{}{"active": coupon.Active}, c.ClientIP())

	c.JSON(http.StatusOK, gin.H{"coupon": coupon})
}

// ListCouponUsages returns a coupon's redemption trail
// GET /api/v1/coupons/:code/usages
func (ctrl *SubscriptionController) ListCouponUsages(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	usages, err := ctrl.subService.ListCouponUsages(c.Param("code"))
	if err != nil {
		if errors.Is(err, service.ErrCouponNotFound) {
			apperrors.NotFound(c, apperrors.CouponNotFound, "coupon not found")
			return
		}
		log.Error("Failed to list coupon usages", err, map[string]interface{}{
			"code": c.Param("code"),
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{"usages": usages})
}
