package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tapreview/tapreview-backend/internal/app/model"
	"github.com/tapreview/tapreview-backend/internal/app/service"
	apperrors "github.com/tapreview/tapreview-backend/internal/errors"
	"github.com/tapreview/tapreview-backend/internal/middleware"
	"github.com/tapreview/tapreview-backend/pkg/payment/razorpay"
)

type PaymentController struct {
	paymentService *service.PaymentService
}

func NewPaymentController(paymentService *service.PaymentService) *PaymentController {
	return &PaymentController{paymentService: paymentService}
}

type CreateOrderRequest struct {
	BusinessID uint           `json:"business_id" binding:"required"`
	PlanType   model.PlanType `json:"plan_type" binding:"required"`
	Currency   model.Currency `json:"currency" binding:"required"`
	CouponCode string         `json:"coupon_code"`
}

// CreateOrder opens a gateway order for a subscription purchase
// POST /api/v1/payments/orders
func (ctrl *PaymentController) CreateOrder(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid order details")
		return
	}

	order, err := ctrl.paymentService.CreateOrder(c.Request.Context(), req.BusinessID, req.PlanType, req.Currency, req.CouponCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidPlan), errors.Is(err, service.ErrInvalidCurrency):
			apperrors.BadRequest(c, apperrors.SubscriptionInvalidPlan, "unknown plan or currency")
		case errors.Is(err, razorpay.ErrUnauthorized):
			log.Error("Gateway rejected credentials", err, nil)
			apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.PaymentGatewayError, "payment gateway unavailable")
		default:
			log.Error("Failed to create payment order", err, map[string]interface{}{
				"business_id": req.BusinessID,
			})
			apperrors.RespondWithError(c, http.StatusBadGateway, apperrors.PaymentGatewayError, "failed to create payment order")
		}
		return
	}

	c.JSON(http.StatusCreated, order)
}

type VerifyPaymentRequest struct {
	service.VerifyRequest
	PlanType   model.PlanType `json:"plan_type" binding:"required"`
	CouponCode string         `json:"coupon_code"`
}

// Verify is the checkout callback: it verifies the gateway signature and
// activates the subscription the payment was for
// POST /api/v1/payments/verify
func (ctrl *PaymentController) Verify(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req VerifyPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "invalid verification payload")
		return
	}

	result, err := ctrl.paymentService.VerifyAndActivate(c.Request.Context(), req.VerifyRequest, req.PlanType, req.CouponCode)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSignature):
			apperrors.RespondWithError(c, http.StatusBadRequest, apperrors.PaymentInvalidSignature, "payment signature verification failed")
		case errors.Is(err, service.ErrPaymentNotFound):
			apperrors.NotFound(c, apperrors.PaymentNotFound, "no payment found for this order")
		case errors.Is(err, service.ErrPaymentAlreadyProcessed):
			apperrors.Conflict(c, apperrors.PaymentAlreadyProcessed, "payment has already been processed")
		case errors.Is(err, service.ErrPaymentNotCaptured):
			apperrors.RespondWithError(c, http.StatusUnprocessableEntity, apperrors.PaymentNotCaptured, "payment was not captured by the gateway")
		default:
			log.Error("Payment verification failed", err, map[string]interface{}{
				"order_id": req.OrderID,
			})
			apperrors.InternalError(c, "")
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// ListPayments returns a business's payment history
// GET /api/v1/businesses/:id/payments
func (ctrl *PaymentController) ListPayments(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, ok := parseIDParam(c, "id")
	if !ok {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "invalid business id")
		return
	}
	offset, limit := parsePagination(c)

	payments, total, err := ctrl.paymentService.ListPayments(id, offset, limit)
	if err != nil {
		log.Error("Failed to list payments", err, map[string]interface{}{
			"business_id": id,
		})
		apperrors.InternalError(c, "")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payments": payments,
		"total":    total,
	})
}
