package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Coupons,Commissions

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"campus/internal/payment/commission"
	"campus/internal/payment/coupon"
	"campus/internal/payment/gateway"
	"campus/internal/payment/metrics"
	"campus/internal/payment/models"
	"campus/internal/payment/service/mocks"
	"campus/internal/payment/store"
	"campus/internal/settings"
	dErrors "campus/pkg/domain-errors"
	"campus/pkg/platform/middleware/requesttime"
	"campus/pkg/platform/sentinel"
)

var fixedNow = time.Date(2024, 6, 15, 9, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// stubGateway returns a fixed verdict and records what it was asked to charge.
type stubGateway struct {
	mu      sync.Mutex
	result  gateway.ChargeResult
	err     error
	charged []gateway.ChargeRequest
}

func (g *stubGateway) Name() string { return "stub" }

func (g *stubGateway) Charge(_ context.Context, req gateway.ChargeRequest) (gateway.ChargeResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.charged = append(g.charged, req)
	return g.result, g.err
}

type ServiceSuite struct {
	suite.Suite
	ctx         context.Context
	store       *store.InMemoryStore
	gateway     *stubGateway
	coupons     *coupon.Engine
	commissions *commission.Engine
	metrics     *metrics.Metrics
	service     *Service
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = requesttime.WithTime(context.Background(), fixedNow)
	s.store = store.NewInMemoryStore()
	s.gateway = &stubGateway{result: gateway.ChargeResult{Status: models.PaymentCompleted, Reference: "ref-1"}}
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.coupons = coupon.New(s.store)
	settingsSvc := settings.NewService(settings.NewInMemoryStore(), settings.DefaultCertificateSettings(), settings.CommissionSettings{
		DefaultRate:     dec("70"),
		MinimumPayout:   dec("50"),
		PaymentSchedule: settings.ScheduleMonthly,
		PaymentMethod:   settings.MethodBankTransfer,
		TaxHandling:     settings.TaxCreatorResponsible,
	})
	s.commissions = commission.New(s.store, settingsSvc)
	s.service = New(s.store, s.gateway, s.coupons, s.commissions, WithMetrics(s.metrics))

	n, err := s.service.SeedDefaultPlans(s.ctx)
	s.Require().NoError(err)
	s.Require().Equal(3, n)
}

func (s *ServiceSuite) TestPlanPurchaseCreatesSubscription() {
	res, err := s.service.ProcessPayment(s.ctx, PaymentRequest{UserID: "user-1", SubscriptionPlanID: "basic-monthly"})
	s.Require().NoError(err)

	p := res.Payment
	s.Equal(models.PaymentCompleted, p.Status)
	s.True(dec("29.99").Equal(p.Amount))
	s.Equal("USD", p.Currency)
	s.Equal("Basic Monthly", p.Description)
	s.Equal("ref-1", p.GatewayReference)
	s.Require().NotNil(p.CompletedAt)
	s.Equal(fixedNow, *p.CompletedAt)

	s.Require().NotNil(res.Subscription)
	s.Equal("basic-monthly", res.Subscription.PlanID)
	s.Equal(models.SubscriptionActive, res.Subscription.Status)
	s.Equal(fixedNow.AddDate(0, 1, 0), res.Subscription.EndDate)
	s.True(res.Subscription.AutoRenew)
	s.Equal(p.ID, res.Subscription.PaymentID)
	s.Nil(res.Commission)

	stored, err := s.service.GetPayment(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(models.PaymentCompleted, stored.Status)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Payments.WithLabelValues("completed", "stub")))
}

func (s *ServiceSuite) TestYearlyPlanEndsAYearLater() {
	res, err := s.service.ProcessPayment(s.ctx, PaymentRequest{UserID: "user-1", SubscriptionPlanID: "enterprise-yearly"})
	s.Require().NoError(err)
	s.Require().NotNil(res.Subscription)
	s.Equal(fixedNow.AddDate(1, 0, 0), res.Subscription.EndDate)
}

func (s *ServiceSuite) TestUnknownPlanCompletesWithoutSubscription() {
	res, err := s.service.ProcessPayment(s.ctx, PaymentRequest{UserID: "user-1", Amount: dec("10"), SubscriptionPlanID: "retired"})
	s.Require().NoError(err)
	s.Equal(models.PaymentCompleted, res.Payment.Status)
	s.Nil(res.Subscription)
}

func (s *ServiceSuite) TestDeclinedChargeIsAFailedPayment() {
	s.gateway.result = gateway.ChargeResult{Status: models.PaymentFailed, FailureReason: models.ReasonDeclined}

	res, err := s.service.ProcessPayment(s.ctx, PaymentRequest{UserID: "user-1", SubscriptionPlanID: "pro-monthly", CreatorID: "creator-1"})
	s.Require().NoError(err)
	s.Equal(models.PaymentFailed, res.Payment.Status)
	s.Equal(models.ReasonDeclined, res.Payment.FailureReason)
	s.Nil(res.Payment.CompletedAt)
	s.Nil(res.Subscription)
	s.Nil(res.Commission)

	subs, err := s.service.ListSubscriptions(s.ctx)
	s.Require().NoError(err)
	s.Empty(subs)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Payments.WithLabelValues("failed", "stub")))
}

func (s *ServiceSuite) TestCreatorPaymentRecordsCommission() {
	res, err := s.service.ProcessPayment(s.ctx, PaymentRequest{UserID: "user-1", Amount: dec("100"), CreatorID: "creator-1", Description: "Go course"})
	s.Require().NoError(err)
	s.Require().NotNil(res.Commission)
	s.True(dec("70").Equal(res.Commission.Amount))
	s.True(dec("30").Equal(res.Commission.PlatformFee))
	s.Equal(res.Payment.ID, res.Commission.PaymentID)
}

func (s *ServiceSuite) TestCouponIsAppliedBeforeCharge() {
	_, err := s.coupons.Create(s.ctx, coupon.Input{Code: "SAVE10", Type: models.CouponPercentage, Value: dec("10"), Scope: models.ScopeCourse, IsActive: true})
	s.Require().NoError(err)

	res, err := s.service.ProcessPayment(s.ctx, PaymentRequest{
		UserID: "user-1", Amount: dec("200"), CouponCode: "save10", Scope: models.ScopeCourse, ItemID: "course-1",
	})
	s.Require().NoError(err)
	s.True(dec("180").Equal(res.Payment.Amount))
	s.Require().NotNil(res.Coupon)
	s.True(dec("20").Equal(res.Coupon.Discount))
	s.Require().Len(s.gateway.charged, 1)
	s.True(dec("180").Equal(s.gateway.charged[0].Amount))
	s.Equal(res.Payment.ID, s.gateway.charged[0].PaymentID)
}

func (s *ServiceSuite) TestFullyDiscountedPaymentSkipsGateway() {
	_, err := s.coupons.Create(s.ctx, coupon.Input{Code: "FREE", Type: models.CouponFixed, Value: dec("500"), Scope: models.ScopeAll, IsActive: true})
	s.Require().NoError(err)

	res, err := s.service.ProcessPayment(s.ctx, PaymentRequest{UserID: "user-1", Amount: dec("100"), CouponCode: "FREE"})
	s.Require().NoError(err)
	s.Equal(models.PaymentCompleted, res.Payment.Status)
	s.True(res.Payment.Amount.IsZero())
	s.Empty(s.gateway.charged)
}

func (s *ServiceSuite) TestRejectedCouponStopsCheckout() {
	res, err := s.service.ProcessPayment(s.ctx, PaymentRequest{UserID: "user-1", Amount: dec("100"), CouponCode: "NOPE"})
	s.Nil(res)
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	s.Contains(err.Error(), models.ReasonCouponNotFound)

	payments, err := s.service.ListPayments(s.ctx)
	s.Require().NoError(err)
	s.Empty(payments)
	s.Empty(s.gateway.charged)
}

func (s *ServiceSuite) TestGatewayErrorLeavesFailedPayment() {
	s.gateway.err = errors.New("connection refused")

	_, err := s.service.ProcessPayment(s.ctx, PaymentRequest{UserID: "user-1", Amount: dec("10")})
	s.True(dErrors.HasCode(err, dErrors.CodeUnavailable))

	payments, err := s.service.ListPayments(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(payments, 1)
	s.Equal(models.PaymentFailed, payments[0].Status)
	s.Equal(ReasonGatewayUnavailable, payments[0].FailureReason)
}

func (s *ServiceSuite) TestHostedCheckoutSettlesLater() {
	s.gateway.result = gateway.ChargeResult{Status: models.PaymentPending, Reference: "snap-token", RedirectURL: "https://pay.example/snap-token"}

	res, err := s.service.ProcessPayment(s.ctx, PaymentRequest{UserID: "user-1", SubscriptionPlanID: "pro-monthly", CreatorID: "creator-1"})
	s.Require().NoError(err)
	s.Equal(models.PaymentPending, res.Payment.Status)
	s.Equal("https://pay.example/snap-token", res.Payment.RedirectURL)
	s.Nil(res.Subscription)

	settled, err := s.service.Settle(s.ctx, res.Payment.ID, models.PaymentCompleted, "", "txn-9")
	s.Require().NoError(err)
	s.Equal(models.PaymentCompleted, settled.Payment.Status)
	s.Equal("txn-9", settled.Payment.GatewayReference)
	s.NotNil(settled.Subscription)
	s.NotNil(settled.Commission)

	again, err := s.service.Settle(s.ctx, res.Payment.ID, models.PaymentFailed, "Payment expired", "")
	s.Require().NoError(err)
	s.Equal(models.PaymentCompleted, again.Payment.Status, "settled payments are left untouched")
	s.Nil(again.Commission)

	payouts, err := s.commissions.List(s.ctx, models.PayoutFilter{})
	s.Require().NoError(err)
	s.Len(payouts, 1)
}

func (s *ServiceSuite) TestSettleRejectsBadInput() {
	_, err := s.service.Settle(s.ctx, "pay-1", models.PaymentRefunded, "", "")
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	_, err = s.service.Settle(s.ctx, "missing", models.PaymentCompleted, "", "")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func (s *ServiceSuite) TestRequestValidation() {
	_, err := s.service.ProcessPayment(s.ctx, PaymentRequest{Amount: dec("10")})
	s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))

	_, err = s.service.ProcessPayment(s.ctx, PaymentRequest{UserID: "user-1"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = s.service.ProcessPayment(s.ctx, PaymentRequest{UserID: "user-1", Amount: dec("-5")})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

func (s *ServiceSuite) TestAnalytics() {
	lastMonth := requesttime.WithTime(context.Background(), fixedNow.AddDate(0, -1, 0))
	_, err := s.service.ProcessPayment(lastMonth, PaymentRequest{UserID: "user-1", Amount: dec("100"), CreatorID: "creator-1"})
	s.Require().NoError(err)
	_, err = s.service.ProcessPayment(s.ctx, PaymentRequest{UserID: "user-2", SubscriptionPlanID: "basic-monthly"})
	s.Require().NoError(err)
	s.gateway.result = gateway.ChargeResult{Status: models.PaymentFailed, FailureReason: models.ReasonDeclined}
	_, err = s.service.ProcessPayment(s.ctx, PaymentRequest{UserID: "user-3", Amount: dec("40")})
	s.Require().NoError(err)

	a, err := s.service.Analytics(s.ctx)
	s.Require().NoError(err)
	s.Equal(3, a.TotalPayments)
	s.Equal(2, a.SuccessfulPayments)
	s.True(dec("129.99").Equal(a.TotalRevenue), a.TotalRevenue.String())
	s.True(dec("70").Equal(a.TotalCommissions))
	s.True(dec("59.99").Equal(a.PlatformRevenue))
	s.True(dec("29.99").Equal(a.MonthlyRevenue), a.MonthlyRevenue.String())
	s.Equal(1, a.ActiveSubscriptions)
}

func (s *ServiceSuite) TestPlans() {
	_, err := s.service.SeedDefaultPlans(s.ctx)
	s.Require().NoError(err)
	plans, err := s.service.ListPlans(s.ctx)
	s.Require().NoError(err)
	s.Len(plans, 3, "seeding twice adds nothing")

	created, err := s.service.CreatePlan(s.ctx, PlanInput{
		Name: "Path Yearly", Type: models.ScopePath, Price: dec("99"), Interval: models.IntervalYear,
		IntervalCount: 1, Features: []string{"All paths"}, IsActive: true,
	})
	s.Require().NoError(err)
	s.Equal("USD", created.Currency)

	updated, err := s.service.UpdatePlan(s.ctx, created.ID, PlanInput{
		Name: "Path Yearly", Type: models.ScopePath, Price: dec("89"), Interval: models.IntervalYear, IntervalCount: 1,
	})
	s.Require().NoError(err)
	s.True(dec("89").Equal(updated.Price))
	s.False(updated.IsActive)

	_, err = s.service.CreatePlan(s.ctx, PlanInput{Name: "Bad", Type: models.ScopeAll, Interval: models.IntervalMonth, IntervalCount: 1})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	_, err = s.service.CreatePlan(s.ctx, PlanInput{Name: "Bad", Type: models.ScopeCourse, Interval: "week", IntervalCount: 1})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	s.Require().NoError(s.service.DeletePlan(s.ctx, created.ID))
	_, err = s.service.GetPlan(s.ctx, created.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	_, err = s.service.UpdatePlan(s.ctx, created.ID, PlanInput{Name: "X", Type: models.ScopeCourse, Interval: models.IntervalMonth, IntervalCount: 1})
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

func TestCommissionFailureDoesNotFailPayment(t *testing.T) {
	ctrl := gomock.NewController(t)
	commissions := mocks.NewMockCommissions(ctrl)
	commissions.EXPECT().ProcessCommission(gomock.Any(), gomock.Any()).Return(nil, errors.New("pg down"))

	m := metrics.New(prometheus.NewRegistry())
	gw := &stubGateway{result: gateway.ChargeResult{Status: models.PaymentCompleted}}
	svc := New(store.NewInMemoryStore(), gw, nil, commissions, WithMetrics(m))

	res, err := svc.ProcessPayment(context.Background(), PaymentRequest{UserID: "user-1", Amount: dec("100"), CreatorID: "creator-1"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, res.Payment.Status)
	assert.Nil(t, res.Commission)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CommissionFailures))
}

func TestStoreFailures(t *testing.T) {
	gw := &stubGateway{result: gateway.ChargeResult{Status: models.PaymentCompleted}}

	t.Run("save payment failure is internal and skips the gateway", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		st := mocks.NewMockStore(ctrl)
		st.EXPECT().SavePayment(gomock.Any(), gomock.Any()).Return(errors.New("disk full"))

		_, err := New(st, gw, nil, nil).ProcessPayment(context.Background(), PaymentRequest{UserID: "u", Amount: dec("1")})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
		assert.Empty(t, gw.charged)
	})

	t.Run("concurrent settlement returns the stored payment", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		st := mocks.NewMockStore(ctrl)
		pending := models.Payment{ID: "p1", UserID: "u", Amount: dec("1"), Status: models.PaymentPending}
		done := pending
		done.Status = models.PaymentFailed
		gomock.InOrder(
			st.EXPECT().FindPayment(gomock.Any(), "p1").Return(pending, nil),
			st.EXPECT().UpdatePendingPayment(gomock.Any(), gomock.Any()).Return(sentinel.ErrInvalidState),
			st.EXPECT().FindPayment(gomock.Any(), "p1").Return(done, nil),
		)

		res, err := New(st, gw, nil, nil).Settle(context.Background(), "p1", models.PaymentCompleted, "", "")
		require.NoError(t, err)
		assert.Equal(t, models.PaymentFailed, res.Payment.Status)
		assert.Nil(t, res.Subscription)
	})

	t.Run("plan lookup failure is internal", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		st := mocks.NewMockStore(ctrl)
		st.EXPECT().FindPlan(gomock.Any(), "basic-monthly").Return(models.SubscriptionPlan{}, errors.New("timeout"))

		_, err := New(st, gw, nil, nil).ProcessPayment(context.Background(), PaymentRequest{UserID: "u", SubscriptionPlanID: "basic-monthly"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})
}
