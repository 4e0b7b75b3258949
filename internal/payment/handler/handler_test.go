package handler_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/midtrans/midtrans-go"
	"github.com/midtrans/midtrans-go/snap"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	jwttoken "campus/internal/jwt_token"
	"campus/internal/payment/commission"
	"campus/internal/payment/coupon"
	"campus/internal/payment/gateway"
	"campus/internal/payment/handler"
	"campus/internal/payment/models"
	"campus/internal/payment/service"
	"campus/internal/payment/store"
	"campus/internal/settings"
	"campus/pkg/requestcontext"
)

const serverKey = "server-key"

type hostedCheckout struct{}

func (hostedCheckout) CreateTransaction(req *snap.Request) (*snap.Response, *midtrans.Error) {
	return &snap.Response{Token: "tok-" + req.TransactionDetails.OrderID, RedirectURL: "https://pay.example.com/" + req.TransactionDetails.OrderID}, nil
}

type HandlerSuite struct {
	suite.Suite
	store       *store.InMemoryStore
	permissions []string
	router      http.Handler
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.permissions = jwttoken.AllPermissions
	s.store = store.NewInMemoryStore()
	s.router = s.newRouter(gateway.NewSimulated(0, 1))
}

func (s *HandlerSuite) newRouter(gw gateway.Gateway) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	settingsSvc := settings.NewService(settings.NewInMemoryStore(), settings.DefaultCertificateSettings(), settings.CommissionSettings{
		DefaultRate:     decimal.NewFromInt(70),
		MinimumPayout:   decimal.NewFromInt(50),
		PaymentSchedule: settings.ScheduleMonthly,
		PaymentMethod:   settings.MethodBankTransfer,
		TaxHandling:     settings.TaxCreatorResponsible,
	})
	coupons := coupon.New(s.store)
	commissions := commission.New(s.store, settingsSvc)
	payments := service.New(s.store, gw, coupons, commissions)
	_, err := payments.SeedDefaultPlans(context.Background())
	s.Require().NoError(err)

	h := handler.New(coupons, payments, commissions, logger,
		handler.WithNotificationVerifier(gateway.NewMidtrans(hostedCheckout{}, serverKey)))

	r := chi.NewRouter()
	h.RegisterPublic(r)
	r.Group(func(r chi.Router) {
		r.Use(s.principal("user-1", nil))
		h.RegisterCheckout(r)
	})
	r.Route("/admin", func(r chi.Router) {
		r.Use(s.principal("admin-1", func() []string { return s.permissions }))
		h.Register(r)
	})
	return r
}

func (s *HandlerSuite) principal(subject string, permissions func() []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			p := requestcontext.Principal{Subject: subject}
			if permissions != nil {
				p.Permissions = permissions()
			}
			next.ServeHTTP(w, req.WithContext(requestcontext.WithPrincipal(req.Context(), p)))
		})
	}
}

func (s *HandlerSuite) do(method, path, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(method, path, reader))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func (s *HandlerSuite) createCoupon(body string) models.Coupon {
	rec := s.do(http.MethodPost, "/admin/coupons", body)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	return decode[models.Coupon](s.T(), rec)
}

func (s *HandlerSuite) TestCouponValidateAndApply() {
	s.createCoupon(`{"code":"SAVE10","type":"percentage","value":10,"scope":"course","applicable_items":["course-1"],"usage_limit":1}`)

	rec := s.do(http.MethodPost, "/checkout/coupons/validate", `{"code":"save10","scope":"course","item_id":"course-1"}`)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.True(decode[models.CouponValidation](s.T(), rec).Valid)

	rec = s.do(http.MethodPost, "/checkout/coupons/validate", `{"code":"SAVE10","scope":"course","item_id":"course-2"}`)
	v := decode[models.CouponValidation](s.T(), rec)
	s.False(v.Valid)
	s.Equal(models.ReasonCouponNotApplicable, v.Error)

	rec = s.do(http.MethodPost, "/checkout/coupons/apply", `{"code":"SAVE10","price":"200","scope":"course","item_id":"course-1"}`)
	s.Require().Equal(http.StatusOK, rec.Code)
	app := decode[models.CouponApplication](s.T(), rec)
	s.True(app.Success)
	s.True(decimal.NewFromInt(20).Equal(app.Discount))
	s.True(decimal.NewFromInt(180).Equal(app.FinalPrice))

	rec = s.do(http.MethodPost, "/checkout/coupons/apply", `{"code":"SAVE10","price":"200","scope":"course","item_id":"course-1"}`)
	app = decode[models.CouponApplication](s.T(), rec)
	s.False(app.Success)
	s.Equal(models.ReasonCouponLimitReached, app.Error)
}

func (s *HandlerSuite) TestCouponRequestValidation() {
	rec := s.do(http.MethodPost, "/admin/coupons", `{"code":" ","type":"percentage","value":10,"scope":"all"}`)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/admin/coupons", `{"code":"X","type":"bogus","value":10,"scope":"all"}`)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/admin/coupons", `{"code":"X","type":"percentage","value":10,"scope":"all","usage_limit":0}`)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/admin/coupons", `{"code":"X","type":"percentage","value":10,"scope":"all","expiry_date":"next week"}`)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/checkout/coupons/apply", `{"code":"X","price":"-1","scope":"all"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestCouponCRUD() {
	c := s.createCoupon(`{"code":"LAUNCH","type":"fixed","value":"5","scope":"all","expiry_date":"2030-01-31"}`)
	s.True(c.IsActive)
	s.Require().NotNil(c.ExpiryDate)
	s.Equal(31, c.ExpiryDate.Day())

	rec := s.do(http.MethodPost, "/admin/coupons", `{"code":"launch","type":"fixed","value":"5","scope":"all"}`)
	s.Equal(http.StatusConflict, rec.Code)

	rec = s.do(http.MethodPut, "/admin/coupons/"+c.ID, `{"code":"LAUNCH","type":"fixed","value":"7.5","scope":"all","is_active":false}`)
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[models.Coupon](s.T(), rec)
	s.False(updated.IsActive)
	s.Nil(updated.ExpiryDate)

	rec = s.do(http.MethodGet, "/admin/coupons", "")
	s.Equal(1, decode[handler.CouponsResponse](s.T(), rec).Total)

	rec = s.do(http.MethodDelete, "/admin/coupons/"+c.ID, "")
	s.Equal(http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodGet, "/admin/coupons/"+c.ID, "")
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestCheckoutPlanPurchase() {
	s.createCoupon(`{"code":"HALF","type":"percentage","value":50,"scope":"platform"}`)

	rec := s.do(http.MethodPost, "/checkout/payments", `{"subscription_plan_id":"basic-monthly","coupon_code":"HALF","creator_id":"creator-1"}`)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	result := decode[service.PaymentResult](s.T(), rec)
	s.Equal("user-1", result.Payment.UserID)
	s.Equal(models.PaymentCompleted, result.Payment.Status)
	s.True(decimal.RequireFromString("14.995").Equal(result.Payment.Amount), result.Payment.Amount.String())
	s.Require().NotNil(result.Coupon)
	s.Require().NotNil(result.Subscription)
	s.Equal("basic-monthly", result.Subscription.PlanID)
	s.Require().NotNil(result.Commission)

	rec = s.do(http.MethodGet, "/admin/payments/"+result.Payment.ID, "")
	s.Equal(http.StatusOK, rec.Code)
	rec = s.do(http.MethodGet, "/admin/subscriptions", "")
	s.Equal(1, decode[handler.SubscriptionsResponse](s.T(), rec).Total)
	rec = s.do(http.MethodGet, "/admin/payments/analytics", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(1, decode[models.PaymentAnalytics](s.T(), rec).SuccessfulPayments)
}

func (s *HandlerSuite) TestCheckoutRejectsUnknownCouponAndBadAmount() {
	rec := s.do(http.MethodPost, "/checkout/payments", `{"amount":"10","coupon_code":"NOPE","scope":"course","item_id":"c"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(rec.Body.String(), models.ReasonCouponNotFound)

	rec = s.do(http.MethodPost, "/checkout/payments", `{"amount":"0"}`)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/checkout/payments", `{"amount":"10","unexpected":true}`)
	s.Equal(http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/admin/payments", "")
	s.Zero(decode[handler.PaymentsResponse](s.T(), rec).Total)
}

func (s *HandlerSuite) TestActivePlansOnlyAtCheckout() {
	rec := s.do(http.MethodPost, "/admin/plans", `{"name":"Retired","type":"course","price":"5","interval":"month","is_active":false}`)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	plan := decode[models.SubscriptionPlan](s.T(), rec)
	s.Equal(1, plan.IntervalCount)

	rec = s.do(http.MethodGet, "/checkout/plans", "")
	s.Equal(3, decode[handler.PlansResponse](s.T(), rec).Total)
	rec = s.do(http.MethodGet, "/admin/plans", "")
	s.Equal(4, decode[handler.PlansResponse](s.T(), rec).Total)

	rec = s.do(http.MethodPut, "/admin/plans/"+plan.ID, `{"name":"Retired","type":"course","price":"5","interval":"week"}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	rec = s.do(http.MethodDelete, "/admin/plans/"+plan.ID, "")
	s.Equal(http.StatusNoContent, rec.Code)
	rec = s.do(http.MethodGet, "/admin/plans/"+plan.ID, "")
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestPayoutRoutes() {
	for i, amount := range []string{"100", "50"} {
		body := fmt.Sprintf(`{"amount":"%s","creator_id":"creator-%d"}`, amount, i)
		rec := s.do(http.MethodPost, "/checkout/payments", body)
		s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	}

	rec := s.do(http.MethodGet, "/admin/commissions/analytics", "")
	a := decode[models.CommissionAnalytics](s.T(), rec)
	s.Equal(1, a.EligibleCount)

	rec = s.do(http.MethodPost, "/admin/commissions/payouts/process-eligible", "")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(1, decode[handler.ProcessedResponse](s.T(), rec).Processed)

	rec = s.do(http.MethodGet, "/admin/commissions/payouts?status=pending", "")
	pending := decode[handler.PayoutsResponse](s.T(), rec)
	s.Require().Equal(1, pending.Total)
	s.Equal("creator-1", pending.Payouts[0].CreatorID)

	rec = s.do(http.MethodPost, "/admin/commissions/payouts/process", fmt.Sprintf(`{"payout_ids":[%q]}`, pending.Payouts[0].ID))
	s.Equal(1, decode[handler.ProcessedResponse](s.T(), rec).Processed)

	rec = s.do(http.MethodPost, "/admin/commissions/payouts/process", `{"payout_ids":[]}`)
	s.Equal(http.StatusBadRequest, rec.Code)
	rec = s.do(http.MethodGet, "/admin/commissions/payouts?status=cancelled", "")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestPermissions() {
	s.permissions = []string{jwttoken.PermPaymentsRead}

	s.Equal(http.StatusOK, s.do(http.MethodGet, "/admin/payments", "").Code)
	s.Equal(http.StatusForbidden, s.do(http.MethodGet, "/admin/coupons", "").Code)
	s.Equal(http.StatusForbidden, s.do(http.MethodPost, "/admin/plans", `{}`).Code)
	s.Equal(http.StatusForbidden, s.do(http.MethodPost, "/admin/commissions/payouts/process-eligible", "").Code)
}

func (s *HandlerSuite) notification(orderID, status, gross string, key string) string {
	n := gateway.Notification{
		OrderID:           orderID,
		StatusCode:        "200",
		GrossAmount:       gross,
		TransactionStatus: status,
		TransactionID:     "trx-1",
		SignatureKey:      gateway.Signature(orderID, "200", gross, key),
	}
	b, err := json.Marshal(n)
	s.Require().NoError(err)
	// Gateways add fields outside the signed set.
	return strings.Replace(string(b), "{", `{"merchant_id":"M1",`, 1)
}

func (s *HandlerSuite) TestHostedCheckoutNotification() {
	s.router = s.newRouter(gateway.NewMidtrans(hostedCheckout{}, serverKey))

	rec := s.do(http.MethodPost, "/checkout/payments", `{"amount":"49.99","creator_id":"creator-1"}`)
	s.Require().Equal(http.StatusCreated, rec.Code, rec.Body.String())
	pending := decode[service.PaymentResult](s.T(), rec)
	s.Equal(models.PaymentPending, pending.Payment.Status)
	s.NotEmpty(pending.Payment.RedirectURL)
	id := pending.Payment.ID

	rec = s.do(http.MethodPost, "/payments/notifications", s.notification(id, "settlement", "50.00", "wrong-key"))
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/payments/notifications", s.notification(id, "pending", "50.00", serverKey))
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Empty(decode[handler.NotificationResponse](s.T(), rec).Status)

	rec = s.do(http.MethodPost, "/payments/notifications", s.notification(id, "settlement", "50.00", serverKey))
	s.Require().Equal(http.StatusOK, rec.Code, rec.Body.String())
	s.Equal(models.PaymentCompleted, decode[handler.NotificationResponse](s.T(), rec).Status)

	rec = s.do(http.MethodPost, "/payments/notifications", s.notification(id, "expire", "50.00", serverKey))
	s.Equal(models.PaymentCompleted, decode[handler.NotificationResponse](s.T(), rec).Status)

	rec = s.do(http.MethodPost, "/payments/notifications", s.notification("missing", "settlement", "50.00", serverKey))
	s.Equal(http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/admin/commissions/payouts", "")
	s.Equal(1, decode[handler.PayoutsResponse](s.T(), rec).Total)
}
