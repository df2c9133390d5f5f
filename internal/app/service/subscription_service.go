package service

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/tapreview/tapreview-backend/internal/app/model"
	"github.com/tapreview/tapreview-backend/internal/app/repository"
	"github.com/tapreview/tapreview-backend/pkg/logger"
	"gorm.io/gorm"
)

var (
	ErrBusinessNotFound     = errors.New("business not found")
	ErrInvalidPlan          = errors.New("invalid plan type")
	ErrInvalidCurrency      = errors.New("unsupported currency")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrCouponCodeExists     = errors.New("coupon code already exists")
	ErrCouponNotFound       = errors.New("coupon not found")
)

// planPricing is the price table per currency and plan.
var planPricing = map[model.Currency]map[model.PlanType]float64{
	model.CurrencyCAD: {
		model.PlanMonthly: 1.99,
		model.PlanYearly:  14.99,
	},
	model.CurrencyINR: {
		model.PlanMonthly: 99,
		model.PlanYearly:  799,
	},
}

// PlanOption is one purchasable plan with its list price
type PlanOption struct {
	PlanType     model.PlanType `json:"plan_type"`
	Currency     model.Currency `json:"currency"`
	Price        float64        `json:"price"`
	DurationDays int            `json:"duration_days"`
}

// PriceQuote is the result of a price calculation
type PriceQuote struct {
	PlanType      model.PlanType `json:"plan_type"`
	Currency      model.Currency `json:"currency"`
	BasePrice     float64        `json:"base_price"`
	Discount      float64        `json:"discount"`
	FinalPrice    float64        `json:"final_price"`
	CouponApplied bool           `json:"coupon_applied"`
	CouponCode    string         `json:"coupon_code,omitempty"`
}

// SubscriptionStatusResult is the entitlement check result
type SubscriptionStatusResult struct {
	Active       bool                `json:"active"`
	Subscription *model.Subscription `json:"subscription,omitempty"`
	DaysLeft     int                 `json:"days_left"`
}

type SubscriptionService struct {
	businessRepo *repository.BusinessRepository
	subRepo      *repository.SubscriptionRepository
	couponRepo   *repository.CouponRepository
	db           *gorm.DB
}

func NewSubscriptionService(
	businessRepo *repository.BusinessRepository,
	subRepo *repository.SubscriptionRepository,
	couponRepo *repository.CouponRepository,
	db *gorm.DB,
) *SubscriptionService {
	return &SubscriptionService{
		businessRepo: businessRepo,
		subRepo:      subRepo,
		couponRepo:   couponRepo,
		db:           db,
	}
}

// BasePrice returns the list price for a plan in a currency
func (s *SubscriptionService) BasePrice(plan model.PlanType, currency model.Currency) (float64, error) {
	if !plan.Valid() {
		return 0, ErrInvalidPlan
	}
	prices, ok := planPricing[currency]
	if !ok {
		return 0, ErrInvalidCurrency
	}
	return prices[plan], nil
}

// ListPlans returns every purchasable plan across currencies
func (s *SubscriptionService) ListPlans() []PlanOption {
	plans := make([]PlanOption, 0, 4)
	for _, currency := range []model.Currency{model.CurrencyCAD, model.CurrencyINR} {
		for _, plan := range []model.PlanType{model.PlanMonthly, model.PlanYearly} {
			plans = append(plans, PlanOption{
				PlanType:     plan,
				Currency:     currency,
				Price:        planPricing[currency][plan],
				DurationDays: plan.DurationDays(),
			})
		}
	}
	return plans
}

// CalculatePrice quotes the final price for a plan, applying the coupon when
// it is valid. An unknown, inactive, expired or exhausted coupon is not an
// error: the quote simply carries no discount.
func (s *SubscriptionService) CalculatePrice(plan model.PlanType, currency model.Currency, couponCode string) (*PriceQuote, error) {
	basePrice, err := s.BasePrice(plan, currency)
	if err != nil {
		return nil, err
	}

	quote := &PriceQuote{
		PlanType:   plan,
		Currency:   currency,
		BasePrice:  basePrice,
		FinalPrice: basePrice,
	}

	couponCode = strings.ToUpper(strings.TrimSpace(couponCode))
	if couponCode == "" {
		return quote, nil
	}

	coupon, err := s.couponRepo.GetByCode(couponCode)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return quote, nil
		}
		return nil, fmt.Errorf("failed to look up coupon: %w", err)
	}

	if !coupon.ValidAt(time.Now()) {
		return quote, nil
	}

	quote.Discount = couponDiscount(coupon, basePrice)
	quote.FinalPrice = basePrice - quote.Discount
	if quote.FinalPrice < 0 {
		quote.FinalPrice = 0
	}
	quote.CouponApplied = true
	quote.CouponCode = coupon.Code
	return quote, nil
}

// couponDiscount computes the discount amount a coupon takes off the price.
// Fixed discounts are not clamped here; the final price clamp handles a
// discount larger than the price.
func couponDiscount(coupon *model.Coupon, price float64) float64 {
	if coupon.DiscountType == model.DiscountPercentage {
		return price * coupon.DiscountValue / 100
	}
	return coupon.DiscountValue
}

// CreateSubscription starts or extends a business's subscription. When a live
// subscription still has time left, the new period stacks on top of the
// existing expiry rather than replacing it.
func (s *SubscriptionService) CreateSubscription(businessID uint, plan model.PlanType, currency model.Currency, couponCode string) (*model.Subscription, error) {
	log := logger.Get()

	business, err := s.businessRepo.GetByID(businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrBusinessNotFound
		}
		return nil, fmt.Errorf("failed to get business: %w", err)
	}

	quote, err := s.CalculatePrice(plan, currency, couponCode)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	// Extension baseline: a live future expiry pushes the new period out,
	// anything else starts from now.
	baseline := now
	current, err := s.subRepo.GetCurrentByBusinessID(businessID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get current subscription: %w", err)
	}
	if current != nil && current.ExpiryDate.After(now) {
		baseline = current.ExpiryDate
	}

	var coupon *model.Coupon
	if quote.CouponApplied {
		coupon, err = s.couponRepo.GetByCode(quote.CouponCode)
		if err != nil {
			return nil, fmt.Errorf("failed to reload coupon: %w", err)
		}
	}

	sub := &model.Subscription{
		BusinessID: businessID,
		PlanType:   plan,
		Currency:   currency,
		Amount:     quote.FinalPrice,
		StartDate:  now,
		ExpiryDate: baseline.AddDate(0, 0, plan.DurationDays()),
		Status:     model.SubscriptionStatusActive,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		// The coupon slot is consumed inside the transaction so a failed
		// activation rolls it back with everything else. Losing the race
		// for the last slot downgrades the quote to the undiscounted price.
		if coupon != nil {
			consumed, err := s.couponRepo.ConsumeUseTx(tx, coupon.ID)
			if err != nil {
				return fmt.Errorf("failed to consume coupon: %w", err)
			}
			if !consumed {
				log.Warn("Coupon exhausted during checkout", map[string]interface{}{
					"coupon_code": coupon.Code,
					"business_id": businessID,
				})
				quote.CouponApplied = false
				quote.Discount = 0
				quote.FinalPrice = quote.BasePrice
				sub.Amount = quote.BasePrice
				coupon = nil
			}
		}

		if err := tx.Create(sub).Error; err != nil {
			return fmt.Errorf("failed to create subscription: %w", err)
		}

		if coupon != nil {
			usage := &model.CouponUsage{
				CouponID:       coupon.ID,
				BusinessID:     businessID,
				SubscriptionID: sub.ID,
				DiscountAmount: quote.Discount,
			}
			if err := tx.Create(usage).Error; err != nil {
				return fmt.Errorf("failed to record coupon usage: %w", err)
			}
		}

		return tx.Model(&model.Business{}).
			Where("id = ?", businessID).
			Updates(map[string]interface{}{
				"subscription_status":     model.BusinessStatusActive,
				"subscription_expires_at": sub.ExpiryDate,
			}).Error
	})
	if err != nil {
		return nil, err
	}

	log.Info("Subscription created", map[string]interface{}{
		"business_id":     business.ID,
		"subscription_id": sub.ID,
		"plan_type":       plan,
		"currency":        currency,
		"amount":          quote.FinalPrice,
		"expiry_date":     sub.ExpiryDate,
		"coupon_applied":  quote.CouponApplied,
	})

	return sub, nil
}

// CheckSubscriptionActive is the entitlement read path. It corrects a stale
// active record whose expiry has passed (lazy expiry) before answering, so a
// caller never sees a subscription that is both active and past due.
func (s *SubscriptionService) CheckSubscriptionActive(businessID uint) (*SubscriptionStatusResult, error) {
	now := time.Now()

	sub, err := s.subRepo.GetCurrentByBusinessID(businessID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &SubscriptionStatusResult{Active: false}, nil
		}
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	if !sub.ExpiryDate.After(now) {
		if err := s.expireSubscription(sub, now); err != nil {
			return nil, err
		}
		return &SubscriptionStatusResult{Active: false, Subscription: sub}, nil
	}

	daysLeft := int(time.Until(sub.ExpiryDate).Hours() / 24)
	return &SubscriptionStatusResult{
		Active:       true,
		Subscription: sub,
		DaysLeft:     daysLeft,
	}, nil
}

// expireSubscription flips a past-due record to expired and mirrors the state
// onto the business. The conditional update tolerates a concurrent renewal.
func (s *SubscriptionService) expireSubscription(sub *model.Subscription, now time.Time) error {
	flipped, err := s.subRepo.MarkExpiredIfDue(sub.ID, now)
	if err != nil {
		return fmt.Errorf("failed to expire subscription: %w", err)
	}
	if !flipped {
		return nil
	}
	sub.Status = model.SubscriptionStatusExpired

	if err := s.businessRepo.UpdateSubscriptionSnapshot(sub.BusinessID, model.BusinessStatusExpired, &sub.ExpiryDate); err != nil {
		// Snapshot drift is self-healing on the next check; log and move on.
		logger.Get().Error("Failed to mirror expiry onto business", err, map[string]interface{}{
			"business_id":     sub.BusinessID,
			"subscription_id": sub.ID,
		})
	}
	return nil
}

// GetSubscriptionDetails returns the current entitlement plus history
func (s *SubscriptionService) GetSubscriptionDetails(businessID uint) (*SubscriptionStatusResult, []model.Subscription, error) {
	status, err := s.CheckSubscriptionActive(businessID)
	if err != nil {
		return nil, nil, err
	}

	history, err := s.subRepo.ListByBusinessID(businessID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	return status, history, nil
}

// CheckExpiringSubscriptions returns live subscriptions expiring within the
// window that have not been warned about yet.
func (s *SubscriptionService) CheckExpiringSubscriptions(days int) ([]model.Subscription, error) {
	now := time.Now()
	return s.subRepo.GetExpiringBetween(now, now.AddDate(0, 0, days))
}

// MarkNotificationSent records that the expiry warning for a subscription
// went out, so the next window scan skips it.
func (s *SubscriptionService) MarkNotificationSent(subscriptionID uint) error {
	return s.subRepo.MarkNotified(subscriptionID)
}

// CreateCoupon registers a new discount code. Codes are stored upper-cased.
func (s *SubscriptionService) CreateCoupon(coupon *model.Coupon) (*model.Coupon, error) {
	coupon.Code = strings.ToUpper(strings.TrimSpace(coupon.Code))

	if _, err := s.couponRepo.GetByCode(coupon.Code); err == nil {
		return nil, ErrCouponCodeExists
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check coupon code: %w", err)
	}

	if err := s.couponRepo.Create(coupon); err != nil {
		return nil, fmt.Errorf("failed to create coupon: %w", err)
	}

	logger.Info("Coupon created", map[string]interface{}{
		"code":           coupon.Code,
		"discount_type":  coupon.DiscountType,
		"discount_value": coupon.DiscountValue,
		"usage_limit":    coupon.UsageLimit,
	})
	return coupon, nil
}

// ListCoupons returns all coupons
func (s *SubscriptionService) ListCoupons() ([]model.Coupon, error) {
	return s.couponRepo.List()
}

// SetCouponActive toggles a coupon on or off
func (s *SubscriptionService) SetCouponActive(code string, active bool) (*model.Coupon, error) {
	coupon, err := s.couponRepo.GetByCode(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}
	coupon.Active = active
	if err := s.couponRepo.Update(coupon); err != nil {
		return nil, fmt.Errorf("failed to update coupon: %w", err)
	}
	return coupon, nil
}

// ListCouponUsages returns the redemption trail of a coupon
func (s *SubscriptionService) ListCouponUsages(code string) ([]model.CouponUsage, error) {
	coupon, err := s.couponRepo.GetByCode(strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCouponNotFound
		}
		return nil, err
	}
	return s.couponRepo.ListUsages(coupon.ID)
}

// SweepExpired flips every past-due live subscription and mirrors the state
// onto the owning business. Returns the number flipped.
func (s *SubscriptionService) SweepExpired() (int, error) {
	now := time.Now()
	due, err := s.subRepo.GetDueForExpiry(now)
	if err != nil {
		return 0, fmt.Errorf("failed to list due subscriptions: %w", err)
	}

	flipped := 0
	for i := range due {
		if err := s.expireSubscription(&due[i], now); err != nil {
			logger.Get().Error("Failed to expire subscription during sweep", err, map[string]interface{}{
				"subscription_id": due[i].ID,
			})
			continue
		}
		flipped++
	}
	return flipped, nil
}
