// Package coupon validates discount codes, computes discounts and manages
// the coupon catalogue.
package coupon

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"campus/internal/payment/metrics"
	"campus/internal/payment/models"
	dErrors "campus/pkg/domain-errors"
	"campus/pkg/platform/middleware/requesttime"
	"campus/pkg/platform/sentinel"
	"campus/pkg/platform/tracer"
)

// Store is the coupon persistence the engine needs.
// Error Contract:
// - FindCoupon, UpdateCoupon, DeleteCoupon and IncrementCouponUsage return sentinel.ErrNotFound for unknown IDs
// - FindCouponByCode returns sentinel.ErrNotFound when no code matches
// - SaveCoupon and UpdateCoupon return sentinel.ErrConflict when the code is taken
// - IncrementCouponUsage returns sentinel.ErrInvalidState when the usage limit is reached
type Store interface {
	SaveCoupon(ctx context.Context, c models.Coupon) error
	FindCoupon(ctx context.Context, id string) (models.Coupon, error)
	FindCouponByCode(ctx context.Context, code string) (models.Coupon, error)
	ListCoupons(ctx context.Context) ([]models.Coupon, error)
	UpdateCoupon(ctx context.Context, c models.Coupon) error
	DeleteCoupon(ctx context.Context, id string) error
	IncrementCouponUsage(ctx context.Context, id string, at time.Time) (models.Coupon, error)
}

// Operation labels for metrics.
const (
	opValidate = "validate"
	opApply    = "apply"
)

var outcomeLabels = map[string]string{
	"":                               "ok",
	models.ReasonCouponNotFound:      "not_found",
	models.ReasonCouponExpired:       "expired",
	models.ReasonCouponLimitReached:  "limit_reached",
	models.ReasonCouponNotApplicable: "not_applicable",
	models.ReasonCouponInvalidType:   "invalid_type",
}

var hundred = decimal.NewFromInt(100)

type Option func(*Engine)

type Engine struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
	tracer  tracer.Tracer
}

func New(store Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		logger: slog.New(slog.DiscardHandler),
		tracer: tracer.NewNoop(),
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

// Validate checks code against the catalogue for an item. Rejections are
// returned as a result with a reason; only storage failures are errors.
func (e *Engine) Validate(ctx context.Context, code string, scope models.Scope, itemID string) (models.CouponValidation, error) {
	v, err := e.validate(ctx, code, scope, itemID)
	if err != nil {
		return models.CouponValidation{}, err
	}
	e.metrics.IncrementCoupon(opValidate, outcomeLabels[v.Error])
	return v, nil
}

func (e *Engine) validate(ctx context.Context, code string, scope models.Scope, itemID string) (models.CouponValidation, error) {
	c, err := e.store.FindCouponByCode(ctx, strings.TrimSpace(code))
	if errors.Is(err, sentinel.ErrNotFound) || (err == nil && !c.IsActive) {
		return rejected(models.ReasonCouponNotFound), nil
	}
	if err != nil {
		return models.CouponValidation{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up coupon")
	}
	if reason := check(c, requesttime.Now(ctx), scope, itemID); reason != "" {
		return rejected(reason), nil
	}
	return models.CouponValidation{Valid: true, Coupon: &c}, nil
}

// check applies the usability rules in order: expiry, usage, scope, items.
func check(c models.Coupon, now time.Time, scope models.Scope, itemID string) string {
	switch {
	case c.Expired(now):
		return models.ReasonCouponExpired
	case c.Exhausted():
		return models.ReasonCouponLimitReached
	case !c.AppliesTo(scope, itemID):
		return models.ReasonCouponNotApplicable
	}
	return ""
}

func rejected(reason string) models.CouponValidation {
	return models.CouponValidation{Valid: false, Error: reason}
}

// Discount is what c takes off price. ok is false for an unknown type.
func Discount(c models.Coupon, price decimal.Decimal) (discount decimal.Decimal, ok bool) {
	switch c.Type {
	case models.CouponPercentage:
		return price.Mul(c.Value).Div(hundred), true
	case models.CouponFixed:
		return decimal.Min(c.Value, price), true
	case models.CouponFreeTrial:
		return price, true
	}
	return decimal.Zero, false
}

// Apply validates code and consumes one use. The increment is conditional
// on the usage limit, so concurrent applications never exceed it.
func (e *Engine) Apply(ctx context.Context, code string, price decimal.Decimal, scope models.Scope, itemID string) (app models.CouponApplication, err error) {
	if price.IsNegative() {
		return models.CouponApplication{}, dErrors.New(dErrors.CodeBadRequest, "price must not be negative")
	}
	ctx, span := e.tracer.Start(ctx, tracer.SpanApplyCoupon, tracer.String(tracer.AttrCouponCode, code))
	defer func() { span.End(err) }()

	app, err = e.apply(ctx, code, price, scope, itemID)
	if err != nil {
		return models.CouponApplication{}, err
	}
	e.metrics.IncrementCoupon(opApply, outcomeLabels[app.Error])
	return app, nil
}

func (e *Engine) apply(ctx context.Context, code string, price decimal.Decimal, scope models.Scope, itemID string) (models.CouponApplication, error) {
	v, err := e.validate(ctx, code, scope, itemID)
	if err != nil {
		return models.CouponApplication{}, err
	}
	if !v.Valid {
		return failed(v.Error), nil
	}

	discount, ok := Discount(*v.Coupon, price)
	if !ok {
		return failed(models.ReasonCouponInvalidType), nil
	}

	used, err := e.store.IncrementCouponUsage(ctx, v.Coupon.ID, requesttime.Now(ctx))
	switch {
	case errors.Is(err, sentinel.ErrInvalidState):
		return failed(models.ReasonCouponLimitReached), nil
	case errors.Is(err, sentinel.ErrNotFound):
		return failed(models.ReasonCouponNotFound), nil
	case err != nil:
		return models.CouponApplication{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record coupon usage")
	}

	return models.CouponApplication{
		Success:       true,
		OriginalPrice: price,
		Discount:      discount,
		FinalPrice:    decimal.Max(decimal.Zero, price.Sub(discount)),
		Coupon:        &used,
	}, nil
}

func failed(reason string) models.CouponApplication {
	return models.CouponApplication{Success: false, Error: reason}
}
