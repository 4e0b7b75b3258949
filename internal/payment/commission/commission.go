// Package commission splits completed payments between creators and the
// platform and pays the creator share out.
package commission

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"campus/internal/payment/metrics"
	"campus/internal/payment/models"
	"campus/internal/settings"
	dErrors "campus/pkg/domain-errors"
	"campus/pkg/platform/middleware/requesttime"
	"campus/pkg/platform/sentinel"
	"campus/pkg/platform/tracer"
)

// Store is the payout persistence the engine needs.
// Error Contract:
// - SavePayout returns sentinel.ErrConflict when the payment already has a payout
type Store interface {
	SavePayout(ctx context.Context, p models.CommissionPayout) error
	ListPayouts(ctx context.Context, filter models.PayoutFilter) ([]models.CommissionPayout, error)
	MarkPayoutsPaid(ctx context.Context, ids []string, paidAt time.Time) (int, error)
}

// Settings supplies the current commission rate and payout minimum.
type Settings interface {
	Commission(ctx context.Context) (settings.CommissionSettings, error)
}

// Payout triggers, used as a metric label.
const (
	TriggerManual    = "manual"
	TriggerEligible  = "eligible"
	TriggerScheduled = "scheduled"
)

var hundred = decimal.NewFromInt(100)

type Option func(*Engine)

type Engine struct {
	store    Store
	settings Settings
	logger   *slog.Logger
	metrics  *metrics.Metrics
	tracer   tracer.Tracer
}

func New(store Store, settings Settings, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		settings: settings,
		logger:   slog.New(slog.DiscardHandler),
		tracer:   tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(e *Engine) {
		e.tracer = t
	}
}

// Split returns the creator share of amount at rate percent and the
// platform fee. The two always sum to amount.
func Split(amount, rate decimal.Decimal) (creator, platformFee decimal.Decimal) {
	creator = amount.Mul(rate).Div(hundred)
	return creator, amount.Sub(creator)
}

// ProcessCommission records the pending payout for a completed payment
// with a creator. Other payments produce no payout and a nil result.
func (e *Engine) ProcessCommission(ctx context.Context, payment models.Payment) (*models.CommissionPayout, error) {
	if payment.Status != models.PaymentCompleted || payment.CreatorID == "" {
		return nil, nil
	}
	cs, err := e.settings.Commission(ctx)
	if err != nil {
		return nil, err
	}

	amount, fee := Split(payment.Amount, cs.DefaultRate)
	payout := models.CommissionPayout{
		ID:             uuid.NewString(),
		PaymentID:      payment.ID,
		CreatorID:      payment.CreatorID,
		Amount:         amount,
		PlatformFee:    fee,
		OriginalAmount: payment.Amount,
		Rate:           cs.DefaultRate,
		Status:         models.PayoutPending,
		CreatedAt:      requesttime.Now(ctx).UTC(),
	}
	if err := e.store.SavePayout(ctx, payout); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "commission already recorded for payment")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save commission payout")
	}
	e.logger.InfoContext(ctx, "commission recorded",
		"payment_id", payment.ID,
		"creator_id", payment.CreatorID,
		"amount", amount.String(),
	)
	return &payout, nil
}

// ProcessPayouts marks the pending payouts among ids as paid. Paid and
// unknown IDs are skipped. It returns how many changed.
func (e *Engine) ProcessPayouts(ctx context.Context, ids []string) (int, error) {
	return e.pay(ctx, ids, TriggerManual)
}

// ProcessEligible pays every pending payout at or above the minimum payout.
func (e *Engine) ProcessEligible(ctx context.Context, trigger string) (int, error) {
	cs, err := e.settings.Commission(ctx)
	if err != nil {
		return 0, err
	}
	pending, err := e.store.ListPayouts(ctx, models.PayoutFilter{Status: models.PayoutPending})
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list payouts")
	}
	var ids []string
	for _, p := range pending {
		if eligible(p, cs.MinimumPayout) {
			ids = append(ids, p.ID)
		}
	}
	return e.pay(ctx, ids, trigger)
}

func (e *Engine) pay(ctx context.Context, ids []string, trigger string) (n int, err error) {
	ctx, span := e.tracer.Start(ctx, tracer.SpanProcessPayouts)
	defer func() { span.End(err) }()

	if len(ids) == 0 {
		return 0, nil
	}
	n, err = e.store.MarkPayoutsPaid(ctx, ids, requesttime.Now(ctx).UTC())
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to mark payouts paid")
	}
	span.SetAttributes(tracer.Int64(tracer.AttrPayoutCount, int64(n)))
	e.metrics.AddPayoutsPaid(trigger, n)
	e.logger.InfoContext(ctx, "payouts paid", "requested", len(ids), "paid", n, "trigger", trigger)
	return n, nil
}

func eligible(p models.CommissionPayout, minimum decimal.Decimal) bool {
	return p.Status == models.PayoutPending && p.Amount.GreaterThanOrEqual(minimum)
}

func (e *Engine) List(ctx context.Context, filter models.PayoutFilter) ([]models.CommissionPayout, error) {
	payouts, err := e.store.ListPayouts(ctx, filter)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list payouts")
	}
	return payouts, nil
}

func (e *Engine) Analytics(ctx context.Context) (models.CommissionAnalytics, error) {
	cs, err := e.settings.Commission(ctx)
	if err != nil {
		return models.CommissionAnalytics{}, err
	}
	payouts, err := e.List(ctx, models.PayoutFilter{})
	if err != nil {
		return models.CommissionAnalytics{}, err
	}
	a := models.CommissionAnalytics{
		TotalPaid:     decimal.Zero,
		TotalPending:  decimal.Zero,
		EligibleTotal: decimal.Zero,
		MinimumPayout: cs.MinimumPayout,
	}
	for _, p := range payouts {
		switch p.Status {
		case models.PayoutPaid:
			a.TotalPaid = a.TotalPaid.Add(p.Amount)
		case models.PayoutPending:
			a.TotalPending = a.TotalPending.Add(p.Amount)
		}
		if eligible(p, cs.MinimumPayout) {
			a.EligibleCount++
			a.EligibleTotal = a.EligibleTotal.Add(p.Amount)
		}
	}
	return a, nil
}
