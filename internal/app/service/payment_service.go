package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/tapreview/tapreview-backend/config"
	"github.com/tapreview/tapreview-backend/internal/app/model"
	"github.com/tapreview/tapreview-backend/internal/app/repository"
	"github.com/tapreview/tapreview-backend/pkg/logger"
	"github.com/tapreview/tapreview-backend/pkg/payment/razorpay"
	"gorm.io/gorm"
)

var (
	ErrPaymentNotFound         = errors.New("payment not found")
	ErrPaymentAlreadyProcessed = errors.New("payment already processed")
	ErrInvalidSignature        = errors.New("invalid payment signature")
	ErrPaymentNotCaptured      = errors.New("payment not captured by gateway")
	ErrInvalidPaymentAmount    = errors.New("invalid payment amount")
)

// OrderResponse is returned to the checkout widget
type OrderResponse struct {
	OrderID   string  `json:"order_id"`
	Amount    float64 `json:"amount"`
	Currency  string  `json:"currency"`
	KeyID     string  `json:"key_id"`
	PaymentID uint    `json:"payment_id"`
}

// VerifyRequest is the checkout callback payload
type VerifyRequest struct {
	OrderID   string `json:"razorpay_order_id" binding:"required"`
	PaymentID string `json:"razorpay_payment_id" binding:"required"`
	Signature string `json:"razorpay_signature" binding:"required"`
}

// VerifyResponse reports the outcome of verification and activation
type VerifyResponse struct {
	PaymentID    uint                `json:"payment_id"`
	Status       model.PaymentStatus `json:"status"`
	Subscription *model.Subscription `json:"subscription,omitempty"`
}

type PaymentService struct {
	paymentRepo *repository.PaymentRepository
	subService  *SubscriptionService
	client      *razorpay.Client
	keySecret   string
	db          *gorm.DB
}

func NewPaymentService(
	paymentRepo *repository.PaymentRepository,
	subService *SubscriptionService,
	cfg *config.Config,
	db *gorm.DB,
) (*PaymentService, error) {
	client, err := razorpay.NewClient(razorpay.Config{
		KeyID:     cfg.Payment.Razorpay.KeyID,
		KeySecret: cfg.Payment.Razorpay.KeySecret,
		BaseURL:   cfg.Payment.Razorpay.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create razorpay client: %w", err)
	}

	return &PaymentService{
		paymentRepo: paymentRepo,
		subService:  subService,
		client:      client,
		keySecret:   cfg.Payment.Razorpay.KeySecret,
		db:          db,
	}, nil
}

// CreateOrder quotes the plan, creates a gateway order for the final price
// and records a pending payment against it.
func (s *PaymentService) CreateOrder(ctx context.Context, businessID uint, plan model.PlanType, currency model.Currency, couponCode string) (*OrderResponse, error) {
	log := logger.Get()

	quote, err := s.subService.CalculatePrice(plan, currency, couponCode)
	if err != nil {
		return nil, err
	}
	if quote.FinalPrice < 0 {
		return nil, ErrInvalidPaymentAmount
	}

	// Gateway amounts are integers in the smallest currency unit.
	amountMinor := int64(math.Round(quote.FinalPrice * 100))

	order, err := s.client.CreateOrder(ctx, razorpay.CreateOrderRequest{
		Amount:   amountMinor,
		Currency: string(currency),
		Receipt:  fmt.Sprintf("sub-%d-%d", businessID, time.Now().Unix()),
		Notes: map[string]string{
			"business_id": fmt.Sprintf("%d", businessID),
			"plan_type":   string(plan),
			"coupon_code": couponCode,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gateway order: %w", err)
	}

	payment := &model.Payment{
		BusinessID:      businessID,
		Amount:          quote.FinalPrice,
		Currency:        currency,
		ProviderOrderID: order.ID,
		Status:          model.PaymentStatusPending,
	}
	if err := s.paymentRepo.Create(payment); err != nil {
		return nil, fmt.Errorf("failed to record payment: %w", err)
	}

	log.Info("Payment order created", map[string]interface{}{
		"business_id": businessID,
		"order_id":    order.ID,
		"amount":      quote.FinalPrice,
		"currency":    currency,
		"plan_type":   plan,
	})

	return &OrderResponse{
		OrderID:   order.ID,
		Amount:    quote.FinalPrice,
		Currency:  string(currency),
		KeyID:     s.client.GetConfig().KeyID,
		PaymentID: payment.ID,
	}, nil
}

// VerifyAndActivate is the checkout callback handler. Order of checks:
// signature first, then the local payment record, then idempotency, then the
// gateway's own capture state. Only after all four pass does the subscription
// activate and the payment flip to completed.
func (s *PaymentService) VerifyAndActivate(ctx context.Context, req VerifyRequest, plan model.PlanType, couponCode string) (*VerifyResponse, error) {
	log := logger.Get()

	// 1. Signature check before any database work. Fails closed when the
	// secret is not configured.
	if !razorpay.VerifySignature(req.OrderID, req.PaymentID, req.Signature, s.keySecret) {
		log.Warn("Payment signature verification failed", map[string]interface{}{
			"order_id": req.OrderID,
		})
		return nil, ErrInvalidSignature
	}

	// 2. The order must belong to a payment we created.
	payment, err := s.paymentRepo.GetByProviderOrderID(req.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, fmt.Errorf("failed to get payment: %w", err)
	}

	// 3. A replayed callback must not activate a second period.
	if payment.Status == model.PaymentStatusCompleted {
		return nil, ErrPaymentAlreadyProcessed
	}

	// 4. The gateway must report the payment as captured; a valid signature
	// over an authorized-but-uncaptured payment is not money in the bank.
	entity, err := s.client.FetchPayment(ctx, req.PaymentID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment from gateway: %w", err)
	}
	if entity.Status != razorpay.PaymentStatusCaptured {
		log.Warn("Gateway payment not captured", map[string]interface{}{
			"order_id":       req.OrderID,
			"payment_id":     req.PaymentID,
			"gateway_status": entity.Status,
		})
		if err := s.markFailed(payment, req); err != nil {
			log.Error("Failed to mark payment failed", err, map[string]interface{}{
				"payment_id": payment.ID,
			})
		}
		return nil, ErrPaymentNotCaptured
	}

	// 5. Complete the payment with one conditional update: only the caller
	// that flips pending to completed proceeds to activation. A concurrent
	// duplicate callback matches zero rows and is rejected as a replay.
	now := time.Now()
	result := s.db.Model(&model.Payment{}).
		Where("provider_order_id = ? AND status = ?", req.OrderID, model.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":              model.PaymentStatusCompleted,
			"provider_payment_id": req.PaymentID,
			"provider_signature":  req.Signature,
			"completed_at":        now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to complete payment: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, ErrPaymentAlreadyProcessed
	}
	payment.Status = model.PaymentStatusCompleted
	payment.ProviderPaymentID = req.PaymentID
	payment.ProviderSignature = req.Signature
	payment.CompletedAt = &now

	// 6. Activate the entitlement the money paid for.
	sub, err := s.subService.CreateSubscription(payment.BusinessID, plan, payment.Currency, couponCode)
	if err != nil {
		// The payment is captured and completed; surface the activation
		// failure loudly instead of rolling the money back.
		log.Error("Payment completed but activation failed", err, map[string]interface{}{
			"payment_id":  payment.ID,
			"business_id": payment.BusinessID,
		})
		return nil, fmt.Errorf("payment completed but subscription activation failed: %w", err)
	}

	// 7. Link the subscription back onto the payment record.
	payment.SubscriptionID = &sub.ID
	if err := s.paymentRepo.Update(payment); err != nil {
		log.Error("Failed to link subscription to payment", err, map[string]interface{}{
			"payment_id":      payment.ID,
			"subscription_id": sub.ID,
		})
	}

	log.Info("Payment verified and subscription activated", map[string]interface{}{
		"payment_id":      payment.ID,
		"business_id":     payment.BusinessID,
		"subscription_id": sub.ID,
		"order_id":        req.OrderID,
	})

	return &VerifyResponse{
		PaymentID:    payment.ID,
		Status:       payment.Status,
		Subscription: sub,
	}, nil
}

func (s *PaymentService) markFailed(payment *model.Payment, req VerifyRequest) error {
	payment.Status = model.PaymentStatusFailed
	payment.ProviderPaymentID = req.PaymentID
	return s.paymentRepo.Update(payment)
}

// GetPayment fetches a payment by id
func (s *PaymentService) GetPayment(id uint) (*model.Payment, error) {
	payment, err := s.paymentRepo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

// ListPayments returns a business's payment history
func (s *PaymentService) ListPayments(businessID uint, offset, limit int) ([]model.Payment, int64, error) {
	return s.paymentRepo.ListByBusinessID(businessID, offset, limit)
}
