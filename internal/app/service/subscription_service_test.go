package service

import (
	"testing"
	"time"

	"github.com/tapreview/tapreview-backend/internal/app/model"
	"github.com/tapreview/tapreview-backend/internal/app/repository"
	"github.com/tapreview/tapreview-backend/internal/db"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupSubscriptionServiceTest(t *testing.T) (*SubscriptionService, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	svc := NewSubscriptionService(
		repository.NewBusinessRepository(testDB),
		repository.NewSubscriptionRepository(testDB),
		repository.NewCouponRepository(testDB),
		testDB,
	)
	return svc, testDB
}

func createTestBusiness(t *testing.T, testDB *gorm.DB, name string) *model.Business {
	business := &model.Business{
		Name:               name,
		Email:              name + "@example.com",
		SubscriptionStatus: model.BusinessStatusInactive,
	}
	require.NoError(t, testDB.Create(business).Error)
	return business
}

func createTestCoupon(t *testing.T, testDB *gorm.DB, coupon *model.Coupon) *model.Coupon {
	now := time.Now()
	if coupon.ValidFrom.IsZero() {
		coupon.ValidFrom = now.Add(-time.Hour)
	}
	if coupon.ValidUntil.IsZero() {
		coupon.ValidUntil = now.Add(24 * time.Hour)
	}
	require.NoError(t, testDB.Create(coupon).Error)
	return coupon
}

func TestSubscriptionService_BasePrice(t *testing.T) {
	svc, _ := setupSubscriptionServiceTest(t)

	tests := []struct {
		name     string
		plan     model.PlanType
		currency model.Currency
		want     float64
		wantErr  error
	}{
		{name: "CAD monthly", plan: model.PlanMonthly, currency: model.CurrencyCAD, want: 1.99},
		{name: "CAD yearly", plan: model.PlanYearly, currency: model.CurrencyCAD, want: 14.99},
		{name: "INR monthly", plan: model.PlanMonthly, currency: model.CurrencyINR, want: 99},
		{name: "INR yearly", plan: model.PlanYearly, currency: model.CurrencyINR, want: 799},
		{name: "Unknown plan", plan: "weekly", currency: model.CurrencyCAD, wantErr: ErrInvalidPlan},
		{name: "Unknown currency", plan: model.PlanMonthly, currency: "USD", wantErr: ErrInvalidCurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			price, err := svc.BasePrice(tt.plan, tt.currency)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, price)
			}
		})
	}
}

func TestSubscriptionService_ListPlans(t *testing.T) {
	svc, _ := setupSubscriptionServiceTest(t)

	plans := svc.ListPlans()
	require.Len(t, plans, 4)

	byKey := make(map[string]PlanOption, len(plans))
	for _, plan := range plans {
		byKey[string(plan.Currency)+"/"+string(plan.PlanType)] = plan
	}
	assert.Equal(t, 1.99, byKey["CAD/monthly"].Price)
	assert.Equal(t, 799.0, byKey["INR/yearly"].Price)
	assert.Equal(t, 30, byKey["CAD/monthly"].DurationDays)
	assert.Equal(t, 365, byKey["INR/yearly"].DurationDays)
}

func TestSubscriptionService_CalculatePrice_Coupons(t *testing.T) {
	svc, testDB := setupSubscriptionServiceTest(t)
	now := time.Now()

	createTestCoupon(t, testDB, &model.Coupon{
		Code:          "LAUNCH50",
		DiscountType:  model.DiscountPercentage,
		DiscountValue: 50,
		Active:        true,
	})
	createTestCoupon(t, testDB, &model.Coupon{
		Code:          "FLAT10",
		DiscountType:  model.DiscountFixed,
		DiscountValue: 10,
		Active:        true,
	})
	createTestCoupon(t, testDB, &model.Coupon{
		Code:          "INACTIVE",
		DiscountType:  model.DiscountPercentage,
		DiscountValue: 50,
		Active:        false,
	})
	createTestCoupon(t, testDB, &model.Coupon{
		Code:          "EXPIRED",
		DiscountType:  model.DiscountPercentage,
		DiscountValue: 50,
		Active:        true,
		ValidFrom:     now.Add(-48 * time.Hour),
		ValidUntil:    now.Add(-24 * time.Hour),
	})

	tests := []struct {
		name        string
		plan        model.PlanType
		currency    model.Currency
		coupon      string
		wantFinal   float64
		wantApplied bool
	}{
		{
			name:        "Half off CAD monthly",
			plan:        model.PlanMonthly,
			currency:    model.CurrencyCAD,
			coupon:      "LAUNCH50",
			wantFinal:   0.995,
			wantApplied: true,
		},
		{
			name:        "Fixed discount larger than price clamps to zero",
			plan:        model.PlanMonthly,
			currency:    model.CurrencyCAD,
			coupon:      "FLAT10",
			wantFinal:   0,
			wantApplied: true,
		},
		{
			name:        "Fixed discount on INR yearly",
			plan:        model.PlanYearly,
			currency:    model.CurrencyINR,
			coupon:      "FLAT10",
			wantFinal:   789,
			wantApplied: true,
		},
		{
			name:      "Unknown coupon is silently ignored",
			plan:      model.PlanMonthly,
			currency:  model.CurrencyCAD,
			coupon:    "NOPE",
			wantFinal: 1.99,
		},
		{
			name:      "Inactive coupon gives no discount",
			plan:      model.PlanMonthly,
			currency:  model.CurrencyCAD,
			coupon:    "INACTIVE",
			wantFinal: 1.99,
		},
		{
			name:      "Expired coupon gives no discount",
			plan:      model.PlanMonthly,
			currency:  model.CurrencyCAD,
			coupon:    "EXPIRED",
			wantFinal: 1.99,
		},
		{
			name:      "No coupon",
			plan:      model.PlanYearly,
			currency:  model.CurrencyCAD,
			wantFinal: 14.99,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			quote, err := svc.CalculatePrice(tt.plan, tt.currency, tt.coupon)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantFinal, quote.FinalPrice, 0.0001)
			assert.Equal(t, tt.wantApplied, quote.CouponApplied)
			assert.GreaterOrEqual(t, quote.FinalPrice, 0.0)
		})
	}
}

func TestSubscriptionService_CreateSubscription_Extends(t *testing.T) {
	svc, testDB := setupSubscriptionServiceTest(t)
	business := createTestBusiness(t, testDB, "extender")

	first, err := svc.CreateSubscription(business.ID, model.PlanMonthly, model.CurrencyCAD, "")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 30), first.ExpiryDate, 2*time.Second)

	// A second purchase while the first is live stacks on top of the first
	// expiry instead of restarting from now.
	second, err := svc.CreateSubscription(business.ID, model.PlanMonthly, model.CurrencyCAD, "")
	require.NoError(t, err)
	assert.WithinDuration(t, first.ExpiryDate.AddDate(0, 0, 30), second.ExpiryDate, 2*time.Second)

	// The business snapshot mirrors the newest expiry.
	var reloaded model.Business
	require.NoError(t, testDB.First(&reloaded, business.ID).Error)
	assert.Equal(t, model.BusinessStatusActive, reloaded.SubscriptionStatus)
	require.NotNil(t, reloaded.SubscriptionExpiresAt)
	assert.WithinDuration(t, second.ExpiryDate, *reloaded.SubscriptionExpiresAt, time.Second)
}

func TestSubscriptionService_CreateSubscription_ExpiredBaseline(t *testing.T) {
	svc, testDB := setupSubscriptionServiceTest(t)
	business := createTestBusiness(t, testDB, "lapsed")

	// An old subscription that ran out last week must not push the new
	// period into the past.
	old := &model.Subscription{
		BusinessID: business.ID,
		PlanType:   model.PlanMonthly,
		Currency:   model.CurrencyCAD,
		Amount:     1.99,
		StartDate:  time.Now().AddDate(0, 0, -37),
		ExpiryDate: time.Now().AddDate(0, 0, -7),
		Status:     model.SubscriptionStatusExpired,
	}
	require.NoError(t, testDB.Create(old).Error)

	sub, err := svc.CreateSubscription(business.ID, model.PlanYearly, model.CurrencyCAD, "")
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().AddDate(0, 0, 365), sub.ExpiryDate, 2*time.Second)
}

func TestSubscriptionService_CouponUsageLimit(t *testing.T) {
	svc, testDB := setupSubscriptionServiceTest(t)

	createTestCoupon(t, testDB, &model.Coupon{
		Code:          "LIMIT5",
		DiscountType:  model.DiscountPercentage,
		DiscountValue: 50,
		UsageLimit:    5,
		Active:        true,
	})

	// Six businesses redeem a five-slot coupon; the sixth pays full price.
	var discounted, full int
	for i := 0; i < 6; i++ {
		business := createTestBusiness(t, testDB, string(rune('a'+i))+"-coupon-user")
		sub, err := svc.CreateSubscription(business.ID, model.PlanMonthly, model.CurrencyINR, "LIMIT5")
		require.NoError(t, err)
		if sub.Amount == 49.5 {
			discounted++
		} else if sub.Amount == 99 {
			full++
		}
	}
	assert.Equal(t, 5, discounted)
	assert.Equal(t, 1, full)

	var coupon model.Coupon
	require.NoError(t, testDB.Where("code = ?", "LIMIT5").First(&coupon).Error)
	assert.Equal(t, 5, coupon.UsedCount)

	var usages int64
	require.NoError(t, testDB.Model(&model.CouponUsage{}).Count(&usages).Error)
	assert.EqualValues(t, 5, usages)
}

func TestSubscriptionService_CreateCoupon_InactivePersists(t *testing.T) {
	svc, testDB := setupSubscriptionServiceTest(t)
	now := time.Now()

	// A coupon registered disabled must stay disabled in the database.
	_, err := svc.CreateCoupon(&model.Coupon{
		Code:          "paused10",
		DiscountType:  model.DiscountPercentage,
		DiscountValue: 10,
		ValidFrom:     now.Add(-time.Hour),
		ValidUntil:    now.Add(24 * time.Hour),
		Active:        false,
	})
	require.NoError(t, err)

	var reloaded model.Coupon
	require.NoError(t, testDB.Where("code = ?", "PAUSED10").First(&reloaded).Error)
	assert.False(t, reloaded.Active)

	quote, err := svc.CalculatePrice(model.PlanMonthly, model.CurrencyCAD, "PAUSED10")
	require.NoError(t, err)
	assert.False(t, quote.CouponApplied)
	assert.InDelta(t, 1.99, quote.FinalPrice, 0.0001)
}

func TestSubscriptionService_FailedActivationReleasesCouponSlot(t *testing.T) {
	svc, testDB := setupSubscriptionServiceTest(t)
	business := createTestBusiness(t, testDB, "unlucky")

	createTestCoupon(t, testDB, &model.Coupon{
		Code:          "ONESLOT",
		DiscountType:  model.DiscountPercentage,
		DiscountValue: 50,
		UsageLimit:    1,
		Active:        true,
	})

	// Force the activation transaction to fail after the slot is taken.
	require.NoError(t, testDB.Migrator().DropTable(&model.CouponUsage{}))

	_, err := svc.CreateSubscription(business.ID, model.PlanMonthly, model.CurrencyCAD, "ONESLOT")
	require.Error(t, err)

	// The rollback returns the slot and leaves no subscription behind.
	var coupon model.Coupon
	require.NoError(t, testDB.Where("code = ?", "ONESLOT").First(&coupon).Error)
	assert.Equal(t, 0, coupon.UsedCount)

	var subCount int64
	require.NoError(t, testDB.Model(&model.Subscription{}).
		Where("business_id = ?", business.ID).
		Count(&subCount).Error)
	assert.EqualValues(t, 0, subCount)
}

func TestSubscriptionService_CheckSubscriptionActive_LazyExpiry(t *testing.T) {
	svc, testDB := setupSubscriptionServiceTest(t)
	business := createTestBusiness(t, testDB, "stale")

	// Stored as active but past due.
	stale := &model.Subscription{
		BusinessID: business.ID,
		PlanType:   model.PlanMonthly,
		Currency:   model.CurrencyCAD,
		Amount:     1.99,
		StartDate:  time.Now().AddDate(0, 0, -31),
		ExpiryDate: time.Now().Add(-time.Hour),
		Status:     model.SubscriptionStatusActive,
	}
	require.NoError(t, testDB.Create(stale).Error)

	result, err := svc.CheckSubscriptionActive(business.ID)
	require.NoError(t, err)
	assert.False(t, result.Active)

	// The read corrected the stored record, not just the response.
	var reloaded model.Subscription
	require.NoError(t, testDB.First(&reloaded, stale.ID).Error)
	assert.Equal(t, model.SubscriptionStatusExpired, reloaded.Status)

	var reloadedBusiness model.Business
	require.NoError(t, testDB.First(&reloadedBusiness, business.ID).Error)
	assert.Equal(t, model.BusinessStatusExpired, reloadedBusiness.SubscriptionStatus)
}

func TestSubscriptionService_CheckSubscriptionActive_Live(t *testing.T) {
	svc, testDB := setupSubscriptionServiceTest(t)
	business := createTestBusiness(t, testDB, "live")

	_, err := svc.CreateSubscription(business.ID, model.PlanMonthly, model.CurrencyCAD, "")
	require.NoError(t, err)

	result, err := svc.CheckSubscriptionActive(business.ID)
	require.NoError(t, err)
	assert.True(t, result.Active)
	assert.Equal(t, 29, result.DaysLeft)
}

func TestSubscriptionService_CheckSubscriptionActive_None(t *testing.T) {
	svc, testDB := setupSubscriptionServiceTest(t)
	business := createTestBusiness(t, testDB, "fresh")

	result, err := svc.CheckSubscriptionActive(business.ID)
	require.NoError(t, err)
	assert.False(t, result.Active)
	assert.Nil(t, result.Subscription)
}

func TestSubscriptionService_SweepExpired(t *testing.T) {
	svc, testDB := setupSubscriptionServiceTest(t)

	for i := 0; i < 3; i++ {
		business := createTestBusiness(t, testDB, string(rune('x'+i))+"-due")
		sub := &model.Subscription{
			BusinessID: business.ID,
			PlanType:   model.PlanMonthly,
			Currency:   model.CurrencyCAD,
			Amount:     1.99,
			StartDate:  time.Now().AddDate(0, 0, -40),
			ExpiryDate: time.Now().Add(-time.Hour),
			Status:     model.SubscriptionStatusActive,
		}
		require.NoError(t, testDB.Create(sub).Error)
	}

	flipped, err := svc.SweepExpired()
	require.NoError(t, err)
	assert.Equal(t, 3, flipped)

	var stillActive int64
	require.NoError(t, testDB.Model(&model.Subscription{}).
		Where("status = ?", model.SubscriptionStatusActive).
		Count(&stillActive).Error)
	assert.EqualValues(t, 0, stillActive)

	// A second sweep finds nothing to do.
	flipped, err = svc.SweepExpired()
	require.NoError(t, err)
	assert.Equal(t, 0, flipped)
}
