package commission

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"campus/internal/payment/metrics"
	"campus/internal/payment/models"
	"campus/internal/payment/store"
	"campus/internal/settings"
	dErrors "campus/pkg/domain-errors"
	"campus/pkg/platform/middleware/requesttime"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func defaultCommission() settings.CommissionSettings {
	return settings.CommissionSettings{
		DefaultRate:     dec("70"),
		MinimumPayout:   dec("50"),
		PaymentSchedule: settings.ScheduleMonthly,
		PaymentMethod:   settings.MethodBankTransfer,
		TaxHandling:     settings.TaxCreatorResponsible,
	}
}

type EngineSuite struct {
	suite.Suite
	ctx      context.Context
	store    *store.InMemoryStore
	settings *settings.Service
	metrics  *metrics.Metrics
	engine   *Engine
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.ctx = requesttime.WithTime(context.Background(), fixedNow)
	s.store = store.NewInMemoryStore()
	s.settings = settings.NewService(settings.NewInMemoryStore(), settings.DefaultCertificateSettings(), defaultCommission())
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.engine = New(s.store, s.settings, WithMetrics(s.metrics))
}

func (s *EngineSuite) payment(id, amount string) models.Payment {
	return models.Payment{
		ID: id, UserID: "user-1", CreatorID: "creator-1", Amount: dec(amount),
		Currency: "USD", Status: models.PaymentCompleted, CreatedAt: fixedNow,
	}
}

func (s *EngineSuite) TestProcessCommissionSplit() {
	payout, err := s.engine.ProcessCommission(s.ctx, s.payment("pay-1", "100"))
	s.Require().NoError(err)
	s.Require().NotNil(payout)
	s.True(dec("70").Equal(payout.Amount))
	s.True(dec("30").Equal(payout.PlatformFee))
	s.True(payout.Amount.Add(payout.PlatformFee).Equal(payout.OriginalAmount))
	s.True(dec("70").Equal(payout.Rate))
	s.Equal(models.PayoutPending, payout.Status)
	s.Equal(fixedNow, payout.CreatedAt)
	s.Nil(payout.PaidAt)
}

func (s *EngineSuite) TestSplitIsExactForAwkwardAmounts() {
	for _, amount := range []string{"29.99", "49.99", "499.99", "0.01", "1234.567"} {
		creator, fee := Split(dec(amount), dec("66.6"))
		s.True(creator.Add(fee).Equal(dec(amount)), amount)
	}
}

func (s *EngineSuite) TestRateSnapshotFollowsSettings() {
	next := defaultCommission()
	next.DefaultRate = dec("80")
	_, err := s.settings.UpdateCommission(s.ctx, next)
	s.Require().NoError(err)

	payout, err := s.engine.ProcessCommission(s.ctx, s.payment("pay-1", "49.99"))
	s.Require().NoError(err)
	s.True(dec("39.992").Equal(payout.Amount))
	s.True(dec("9.998").Equal(payout.PlatformFee))
	s.True(dec("80").Equal(payout.Rate))
}

func (s *EngineSuite) TestProcessCommissionSkips() {
	noCreator := s.payment("pay-1", "100")
	noCreator.CreatorID = ""
	pending := s.payment("pay-2", "100")
	pending.Status = models.PaymentPending

	for _, p := range []models.Payment{noCreator, pending} {
		payout, err := s.engine.ProcessCommission(s.ctx, p)
		s.Require().NoError(err)
		s.Nil(payout)
	}
	all, err := s.engine.List(s.ctx, models.PayoutFilter{})
	s.Require().NoError(err)
	s.Empty(all)
}

func (s *EngineSuite) TestProcessCommissionTwiceConflicts() {
	_, err := s.engine.ProcessCommission(s.ctx, s.payment("pay-1", "100"))
	s.Require().NoError(err)
	_, err = s.engine.ProcessCommission(s.ctx, s.payment("pay-1", "100"))
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

func (s *EngineSuite) TestProcessPayoutsOnlyTouchesPendingInSet() {
	a, err := s.engine.ProcessCommission(s.ctx, s.payment("pay-1", "100"))
	s.Require().NoError(err)
	b, err := s.engine.ProcessCommission(s.ctx, s.payment("pay-2", "200"))
	s.Require().NoError(err)
	c, err := s.engine.ProcessCommission(s.ctx, s.payment("pay-3", "300"))
	s.Require().NoError(err)

	n, err := s.engine.ProcessPayouts(s.ctx, []string{a.ID, b.ID})
	s.Require().NoError(err)
	s.Equal(2, n)

	later := requesttime.WithTime(context.Background(), fixedNow.Add(24*time.Hour))
	n, err = s.engine.ProcessPayouts(later, []string{a.ID, c.ID, "unknown"})
	s.Require().NoError(err)
	s.Equal(1, n)

	paid, err := s.engine.List(s.ctx, models.PayoutFilter{Status: models.PayoutPaid})
	s.Require().NoError(err)
	s.Require().Len(paid, 3)
	s.Equal(fixedNow, *paid[0].PaidAt, "first payout keeps its original paidAt")
	s.Equal(fixedNow.Add(24*time.Hour), *paid[2].PaidAt)
	s.Equal(3.0, testutil.ToFloat64(s.metrics.PayoutsPaid.WithLabelValues(TriggerManual)))

	n, err = s.engine.ProcessPayouts(s.ctx, nil)
	s.Require().NoError(err)
	s.Zero(n)
}

func (s *EngineSuite) TestEligibilityAndAnalytics() {
	// creator shares at 70%: 35, 49.98, 140, 70
	for i, amount := range []string{"50", "71.4", "200", "100"} {
		_, err := s.engine.ProcessCommission(s.ctx, s.payment(fmt.Sprintf("pay-%d", i), amount))
		s.Require().NoError(err)
	}

	a, err := s.engine.Analytics(s.ctx)
	s.Require().NoError(err)
	s.True(dec("50").Equal(a.MinimumPayout))
	s.True(a.TotalPaid.IsZero())
	s.True(dec("294.98").Equal(a.TotalPending), a.TotalPending.String())
	s.Equal(2, a.EligibleCount)
	s.True(dec("210").Equal(a.EligibleTotal))

	n, err := s.engine.ProcessEligible(s.ctx, TriggerScheduled)
	s.Require().NoError(err)
	s.Equal(2, n)

	a, err = s.engine.Analytics(s.ctx)
	s.Require().NoError(err)
	s.Zero(a.EligibleCount)
	s.True(a.EligibleTotal.IsZero())
	s.True(dec("210").Equal(a.TotalPaid), a.TotalPaid.String())
	s.True(dec("84.98").Equal(a.TotalPending), a.TotalPending.String())
	s.Equal(2.0, testutil.ToFloat64(s.metrics.PayoutsPaid.WithLabelValues(TriggerScheduled)))

	pending, err := s.engine.List(s.ctx, models.PayoutFilter{Status: models.PayoutPending})
	s.Require().NoError(err)
	s.Len(pending, 2)
}

func (s *EngineSuite) TestMinimumPayoutIsInclusive() {
	_, err := s.engine.ProcessCommission(s.ctx, s.payment("pay-1", "100"))
	s.Require().NoError(err)
	next := defaultCommission()
	next.MinimumPayout = dec("70")
	_, err = s.settings.UpdateCommission(s.ctx, next)
	s.Require().NoError(err)

	a, err := s.engine.Analytics(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, a.EligibleCount)
	s.True(dec("70").Equal(a.EligibleTotal))
}

type failingSettings struct{}

func (failingSettings) Commission(context.Context) (settings.CommissionSettings, error) {
	return settings.CommissionSettings{}, dErrors.Wrap(errors.New("redis down"), dErrors.CodeInternal, "failed to read commission settings")
}

func TestSettingsFailurePropagates(t *testing.T) {
	e := New(store.NewInMemoryStore(), failingSettings{})
	_, err := e.ProcessCommission(context.Background(), models.Payment{
		ID: "p", CreatorID: "c", Amount: dec("10"), Status: models.PaymentCompleted,
	})
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))

	_, err = e.ProcessEligible(context.Background(), TriggerManual)
	assert.Error(t, err)
}
