package service

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/tapreview/tapreview-backend/config"
	"github.com/tapreview/tapreview-backend/internal/app/model"
	"github.com/tapreview/tapreview-backend/internal/app/repository"
	"github.com/tapreview/tapreview-backend/internal/db"
	"github.com/tapreview/tapreview-backend/pkg/payment/razorpay"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testKeySecret = "test_key_secret"

// sign produces the checkout signature the gateway would send back.
func sign(orderID, paymentID, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

// fakeGateway stands in for the Razorpay API: it issues order ids and
// reports a configurable status for fetched payments.
func fakeGateway(t *testing.T, paymentStatus string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/orders":
			var req razorpay.CreateOrderRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			json.NewEncoder(w).Encode(razorpay.Order{
				ID:       "order_test123",
				Amount:   req.Amount,
				Currency: req.Currency,
				Status:   "created",
			})
		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/payments/"):
			json.NewEncoder(w).Encode(razorpay.PaymentEntity{
				ID:      strings.TrimPrefix(r.URL.Path, "/payments/"),
				OrderID: "order_test123",
				Status:  paymentStatus,
			})
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":{"code":"NOT_FOUND","description":"no route"}}`))
		}
	}))
}

func setupPaymentServiceTest(t *testing.T, gatewayURL string) (*PaymentService, *SubscriptionService, *gorm.DB) {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { db.CleanupTestDB(testDB) })

	subService := NewSubscriptionService(
		repository.NewBusinessRepository(testDB),
		repository.NewSubscriptionRepository(testDB),
		repository.NewCouponRepository(testDB),
		testDB,
	)

	cfg := &config.Config{}
	cfg.Payment.Razorpay = config.RazorpayConfig{
		KeyID:     "rzp_test_key",
		KeySecret: testKeySecret,
		BaseURL:   gatewayURL,
	}

	svc, err := NewPaymentService(repository.NewPaymentRepository(testDB), subService, cfg, testDB)
	require.NoError(t, err)
	return svc, subService, testDB
}

func TestPaymentService_CreateOrder(t *testing.T) {
	gateway := fakeGateway(t, razorpay.PaymentStatusCaptured)
	defer gateway.Close()

	svc, _, testDB := setupPaymentServiceTest(t, gateway.URL)
	business := createTestBusiness(t, testDB, "orderer")

	resp, err := svc.CreateOrder(context.Background(), business.ID, model.PlanMonthly, model.CurrencyCAD, "")
	require.NoError(t, err)
	assert.Equal(t, "order_test123", resp.OrderID)
	assert.Equal(t, 1.99, resp.Amount)
	assert.Equal(t, "rzp_test_key", resp.KeyID)

	var payment model.Payment
	require.NoError(t, testDB.Where("provider_order_id = ?", resp.OrderID).First(&payment).Error)
	assert.Equal(t, model.PaymentStatusPending, payment.Status)
	assert.Equal(t, business.ID, payment.BusinessID)
}

func TestPaymentService_VerifyAndActivate(t *testing.T) {
	gateway := fakeGateway(t, razorpay.PaymentStatusCaptured)
	defer gateway.Close()

	svc, _, testDB := setupPaymentServiceTest(t, gateway.URL)
	business := createTestBusiness(t, testDB, "payer")
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, business.ID, model.PlanMonthly, model.CurrencyCAD, "")
	require.NoError(t, err)

	req := VerifyRequest{
		OrderID:   order.OrderID,
		PaymentID: "pay_test456",
		Signature: sign(order.OrderID, "pay_test456", testKeySecret),
	}

	resp, err := svc.VerifyAndActivate(ctx, req, model.PlanMonthly, "")
	require.NoError(t, err)
	assert.Equal(t, model.PaymentStatusCompleted, resp.Status)
	require.NotNil(t, resp.Subscription)
	assert.Equal(t, business.ID, resp.Subscription.BusinessID)

	// Payment row is completed and linked to the subscription.
	var payment model.Payment
	require.NoError(t, testDB.Where("provider_order_id = ?", order.OrderID).First(&payment).Error)
	assert.Equal(t, model.PaymentStatusCompleted, payment.Status)
	require.NotNil(t, payment.SubscriptionID)
	assert.Equal(t, resp.Subscription.ID, *payment.SubscriptionID)
	assert.NotNil(t, payment.CompletedAt)

	// Replay of the same callback is rejected and must not add a period.
	_, err = svc.VerifyAndActivate(ctx, req, model.PlanMonthly, "")
	assert.ErrorIs(t, err, ErrPaymentAlreadyProcessed)

	var subCount int64
	require.NoError(t, testDB.Model(&model.Subscription{}).
		Where("business_id = ?", business.ID).
		Count(&subCount).Error)
	assert.EqualValues(t, 1, subCount)
}

func TestPaymentService_VerifyAndActivate_BadSignature(t *testing.T) {
	gateway := fakeGateway(t, razorpay.PaymentStatusCaptured)
	defer gateway.Close()

	svc, _, testDB := setupPaymentServiceTest(t, gateway.URL)
	business := createTestBusiness(t, testDB, "victim")
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, business.ID, model.PlanMonthly, model.CurrencyCAD, "")
	require.NoError(t, err)

	tests := []struct {
		name      string
		signature string
	}{
		{name: "Garbage signature", signature: "deadbeef"},
		{name: "Signature for another order", signature: sign("order_other", "pay_test456", testKeySecret)},
		{name: "Signature under wrong secret", signature: sign(order.OrderID, "pay_test456", "not-the-secret")},
		{name: "Empty signature", signature: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.VerifyAndActivate(ctx, VerifyRequest{
				OrderID:   order.OrderID,
				PaymentID: "pay_test456",
				Signature: tt.signature,
			}, model.PlanMonthly, "")
			assert.ErrorIs(t, err, ErrInvalidSignature)
		})
	}

	// No state changed and nothing activated.
	var payment model.Payment
	require.NoError(t, testDB.Where("provider_order_id = ?", order.OrderID).First(&payment).Error)
	assert.Equal(t, model.PaymentStatusPending, payment.Status)
}

func TestPaymentService_VerifyAndActivate_UnknownOrder(t *testing.T) {
	gateway := fakeGateway(t, razorpay.PaymentStatusCaptured)
	defer gateway.Close()

	svc, _, _ := setupPaymentServiceTest(t, gateway.URL)

	_, err := svc.VerifyAndActivate(context.Background(), VerifyRequest{
		OrderID:   "order_never_created",
		PaymentID: "pay_test456",
		Signature: sign("order_never_created", "pay_test456", testKeySecret),
	}, model.PlanMonthly, "")
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestPaymentService_VerifyAndActivate_NotCaptured(t *testing.T) {
	gateway := fakeGateway(t, razorpay.PaymentStatusAuthorized)
	defer gateway.Close()

	svc, _, testDB := setupPaymentServiceTest(t, gateway.URL)
	business := createTestBusiness(t, testDB, "authorized-only")
	ctx := context.Background()

	order, err := svc.CreateOrder(ctx, business.ID, model.PlanMonthly, model.CurrencyCAD, "")
	require.NoError(t, err)

	_, err = svc.VerifyAndActivate(ctx, VerifyRequest{
		OrderID:   order.OrderID,
		PaymentID: "pay_test456",
		Signature: sign(order.OrderID, "pay_test456", testKeySecret),
	}, model.PlanMonthly, "")
	assert.ErrorIs(t, err, ErrPaymentNotCaptured)

	// An authorized-but-uncaptured payment is recorded as failed and no
	// subscription exists.
	var payment model.Payment
	require.NoError(t, testDB.Where("provider_order_id = ?", order.OrderID).First(&payment).Error)
	assert.Equal(t, model.PaymentStatusFailed, payment.Status)

	var subCount int64
	require.NoError(t, testDB.Model(&model.Subscription{}).Count(&subCount).Error)
	assert.EqualValues(t, 0, subCount)
}

func TestPaymentService_VerifyAndActivate_CouponFlow(t *testing.T) {
	gateway := fakeGateway(t, razorpay.PaymentStatusCaptured)
	defer gateway.Close()

	svc, _, testDB := setupPaymentServiceTest(t, gateway.URL)
	business := createTestBusiness(t, testDB, "discounted")
	ctx := context.Background()

	createTestCoupon(t, testDB, &model.Coupon{
		Code:          "LAUNCH50",
		DiscountType:  model.DiscountPercentage,
		DiscountValue: 50,
		Active:        true,
		ValidFrom:     time.Now().Add(-time.Hour),
		ValidUntil:    time.Now().Add(24 * time.Hour),
	})

	order, err := svc.CreateOrder(ctx, business.ID, model.PlanMonthly, model.CurrencyCAD, "LAUNCH50")
	require.NoError(t, err)
	assert.InDelta(t, 0.995, order.Amount, 0.0001)

	resp, err := svc.VerifyAndActivate(ctx, VerifyRequest{
		OrderID:   order.OrderID,
		PaymentID: "pay_test789",
		Signature: sign(order.OrderID, "pay_test789", testKeySecret),
	}, model.PlanMonthly, "LAUNCH50")
	require.NoError(t, err)
	require.NotNil(t, resp.Subscription)
	assert.InDelta(t, 0.995, resp.Subscription.Amount, 0.0001)

	var usage model.CouponUsage
	require.NoError(t, testDB.Where("business_id = ?", business.ID).First(&usage).Error)
	assert.Equal(t, resp.Subscription.ID, usage.SubscriptionID)
}
