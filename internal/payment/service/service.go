// Package service processes payments through a gateway and applies the
// completion side effects: subscriptions for plan purchases and creator
// commissions.
package service

import (
	"cmp"
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"campus/internal/payment/gateway"
	"campus/internal/payment/metrics"
	"campus/internal/payment/models"
	dErrors "campus/pkg/domain-errors"
	"campus/pkg/platform/middleware/requesttime"
	"campus/pkg/platform/sentinel"
	"campus/pkg/platform/tracer"
)

// Store is the payment persistence the service needs.
// Error Contract:
// - FindPlan, UpdatePlan, DeletePlan, FindPayment and UpdatePendingPayment return sentinel.ErrNotFound for unknown IDs
// - UpdatePendingPayment returns sentinel.ErrInvalidState when the payment is no longer pending
type Store interface {
	SavePlan(ctx context.Context, p models.SubscriptionPlan) error
	FindPlan(ctx context.Context, id string) (models.SubscriptionPlan, error)
	ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error)
	UpdatePlan(ctx context.Context, p models.SubscriptionPlan) error
	DeletePlan(ctx context.Context, id string) error

	SavePayment(ctx context.Context, p models.Payment) error
	FindPayment(ctx context.Context, id string) (models.Payment, error)
	ListPayments(ctx context.Context) ([]models.Payment, error)
	UpdatePendingPayment(ctx context.Context, p models.Payment) error

	SaveSubscription(ctx context.Context, s models.Subscription) error
	ListSubscriptions(ctx context.Context) ([]models.Subscription, error)
}

type Coupons interface {
	Apply(ctx context.Context, code string, price decimal.Decimal, scope models.Scope, itemID string) (models.CouponApplication, error)
}

type Commissions interface {
	ProcessCommission(ctx context.Context, payment models.Payment) (*models.CommissionPayout, error)
	List(ctx context.Context, filter models.PayoutFilter) ([]models.CommissionPayout, error)
}

// ReasonGatewayUnavailable is recorded when the gateway cannot be reached.
const ReasonGatewayUnavailable = "Payment gateway unavailable"

type Option func(*Service)

type Service struct {
	store       Store
	gateway     gateway.Gateway
	coupons     Coupons
	commissions Commissions
	currency    string
	logger      *slog.Logger
	metrics     *metrics.Metrics
	tracer      tracer.Tracer
}

func New(store Store, gw gateway.Gateway, coupons Coupons, commissions Commissions, opts ...Option) *Service {
	s := &Service{
		store:       store,
		gateway:     gw,
		coupons:     coupons,
		commissions: commissions,
		currency:    "USD",
		logger:      slog.New(slog.DiscardHandler),
		tracer:      tracer.NewNoop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithCurrency sets the currency used when a request names none.
func WithCurrency(currency string) Option {
	return func(s *Service) {
		if currency != "" {
			s.currency = currency
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(t tracer.Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// PaymentRequest is a checkout. Amount may be zero for a plan purchase, in
// which case the plan price is charged. CouponCode is applied before the
// charge against Scope and ItemID.
type PaymentRequest struct {
	UserID             string
	Email              string
	Amount             decimal.Decimal
	Currency           string
	SubscriptionPlanID string
	CreatorID          string
	Description        string
	CouponCode         string
	Scope              models.Scope
	ItemID             string
}

// PaymentResult is the payment as persisted plus the side effects of its
// completion, when it completed.
type PaymentResult struct {
	Payment      models.Payment            `json:"payment"`
	Coupon       *models.CouponApplication `json:"coupon,omitempty"`
	Subscription *models.Subscription      `json:"subscription,omitempty"`
	Commission   *models.CommissionPayout  `json:"commission,omitempty"`
}

// ProcessPayment records a pending payment, charges it and persists the
// outcome. A declined charge is a failed payment in the result, not an
// error. Coupon usage is consumed before the charge.
func (s *Service) ProcessPayment(ctx context.Context, req PaymentRequest) (result *PaymentResult, err error) {
	ctx, span := s.tracer.Start(ctx, tracer.SpanProcessPayment, tracer.String(tracer.AttrGateway, s.gateway.Name()))
	defer func() { span.End(err) }()

	if strings.TrimSpace(req.UserID) == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "user id is required")
	}
	plan, err := s.lookupPlan(ctx, req.SubscriptionPlanID)
	if err != nil {
		return nil, err
	}
	amount := req.Amount
	if amount.IsZero() && plan != nil {
		amount = plan.Price
	}
	if !amount.IsPositive() {
		return nil, dErrors.New(dErrors.CodeValidation, "amount must be positive")
	}

	result = &PaymentResult{}
	if req.CouponCode != "" {
		scope, itemID := req.Scope, req.ItemID
		if scope == "" && plan != nil {
			scope, itemID = plan.Type, plan.ID
		}
		app, err := s.coupons.Apply(ctx, req.CouponCode, amount, scope, itemID)
		if err != nil {
			return nil, err
		}
		if !app.Success {
			return nil, dErrors.New(dErrors.CodeValidation, app.Error)
		}
		result.Coupon = &app
		amount = app.FinalPrice
	}

	now := requesttime.Now(ctx).UTC()
	payment := models.Payment{
		ID:                 uuid.NewString(),
		UserID:             req.UserID,
		Amount:             amount,
		Currency:           cmp.Or(req.Currency, s.currency),
		SubscriptionPlanID: req.SubscriptionPlanID,
		CreatorID:          req.CreatorID,
		Description:        req.Description,
		Status:             models.PaymentPending,
		CreatedAt:          now,
	}
	if payment.Description == "" && plan != nil {
		payment.Description = plan.Name
	}
	span.SetAttributes(tracer.String(tracer.AttrPaymentID, payment.ID))
	if err := s.store.SavePayment(ctx, payment); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save payment")
	}

	charge, err := s.charge(ctx, payment, req.Email)
	if err != nil {
		s.failUnreachable(ctx, payment, err)
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "payment gateway unavailable")
	}

	if charge.Status == models.PaymentPending {
		payment.GatewayReference = charge.Reference
		payment.RedirectURL = charge.RedirectURL
		if err := s.store.UpdatePendingPayment(ctx, payment); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save payment")
		}
		s.metrics.IncrementPayment(string(models.PaymentPending), s.gateway.Name())
		result.Payment = payment
		return result, nil
	}

	settled, err := s.settle(ctx, payment, charge.Status, charge.FailureReason, charge.Reference)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(tracer.String(tracer.AttrPaymentStatus, string(settled.Payment.Status)))
	settled.Coupon = result.Coupon
	return settled, nil
}

// charge sends the payment to the gateway. Fully discounted payments never
// reach it.
func (s *Service) charge(ctx context.Context, p models.Payment, email string) (gateway.ChargeResult, error) {
	if p.Amount.IsZero() {
		return gateway.ChargeResult{Status: models.PaymentCompleted, Reference: "free"}, nil
	}
	ctx, span := s.tracer.Start(ctx, tracer.SpanGatewayCharge, tracer.String(tracer.AttrGateway, s.gateway.Name()))
	start := time.Now()
	res, err := s.gateway.Charge(ctx, gateway.ChargeRequest{
		PaymentID:   p.ID,
		UserID:      p.UserID,
		Email:       email,
		Amount:      p.Amount,
		Currency:    p.Currency,
		Description: p.Description,
	})
	s.metrics.ObserveGateway(s.gateway.Name(), start)
	span.End(err)
	return res, err
}

// failUnreachable marks the payment failed after a gateway error. It runs
// detached from ctx so a cancelled request still leaves a final status.
func (s *Service) failUnreachable(ctx context.Context, p models.Payment, cause error) {
	p.Status = models.PaymentFailed
	p.FailureReason = ReasonGatewayUnavailable
	if err := s.store.UpdatePendingPayment(context.WithoutCancel(ctx), p); err != nil {
		s.logger.ErrorContext(ctx, "failed to record gateway failure",
			"payment_id", p.ID,
			"error", err,
		)
	}
	s.metrics.IncrementPayment(string(models.PaymentFailed), s.gateway.Name())
	s.logger.WarnContext(ctx, "payment gateway call failed",
		"payment_id", p.ID,
		"gateway", s.gateway.Name(),
		"error", cause,
	)
}

// Settle moves a pending payment to completed or failed, as reported by a
// gateway notification, and applies the completion side effects. A payment
// that is no longer pending is returned unchanged.
func (s *Service) Settle(ctx context.Context, paymentID string, status models.PaymentStatus, reason, reference string) (*PaymentResult, error) {
	if status != models.PaymentCompleted && status != models.PaymentFailed {
		return nil, dErrors.New(dErrors.CodeBadRequest, "settlement status must be completed or failed")
	}
	p, err := s.store.FindPayment(ctx, paymentID)
	if err != nil {
		return nil, translate(err, "payment not found", "failed to load payment")
	}
	if p.Status != models.PaymentPending {
		return &PaymentResult{Payment: p}, nil
	}
	return s.settle(ctx, p, status, reason, reference)
}

func (s *Service) settle(ctx context.Context, p models.Payment, status models.PaymentStatus, reason, reference string) (*PaymentResult, error) {
	p.Status = status
	if reference != "" {
		p.GatewayReference = reference
	}
	if status == models.PaymentCompleted {
		at := requesttime.Now(ctx).UTC()
		p.CompletedAt = &at
		p.FailureReason = ""
	} else {
		p.FailureReason = cmp.Or(reason, models.ReasonDeclined)
	}

	err := s.store.UpdatePendingPayment(ctx, p)
	if errors.Is(err, sentinel.ErrInvalidState) {
		current, findErr := s.store.FindPayment(ctx, p.ID)
		if findErr != nil {
			return nil, dErrors.Wrap(findErr, dErrors.CodeInternal, "failed to load payment")
		}
		return &PaymentResult{Payment: current}, nil
	}
	if err != nil {
		return nil, translate(err, "payment not found", "failed to save payment")
	}
	s.metrics.IncrementPayment(string(status), s.gateway.Name())

	result := &PaymentResult{Payment: p}
	if status != models.PaymentCompleted {
		s.logger.InfoContext(ctx, "payment failed", "payment_id", p.ID, "reason", p.FailureReason)
		return result, nil
	}
	s.logger.InfoContext(ctx, "payment completed", "payment_id", p.ID, "amount", p.Amount.String())
	result.Subscription = s.subscribe(ctx, p)
	result.Commission = s.commission(ctx, p)
	return result, nil
}

// subscribe starts the subscription for a completed plan purchase. Unknown
// plans produce no subscription.
func (s *Service) subscribe(ctx context.Context, p models.Payment) *models.Subscription {
	if p.SubscriptionPlanID == "" {
		return nil
	}
	plan, err := s.store.FindPlan(ctx, p.SubscriptionPlanID)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			s.logger.ErrorContext(ctx, "failed to load plan for subscription", "payment_id", p.ID, "error", err)
		}
		return nil
	}
	start := requesttime.Now(ctx).UTC()
	sub := models.Subscription{
		ID:        uuid.NewString(),
		UserID:    p.UserID,
		PlanID:    plan.ID,
		Status:    models.SubscriptionActive,
		StartDate: start,
		EndDate:   plan.PeriodEnd(start),
		AutoRenew: true,
		PaymentID: p.ID,
		CreatedAt: start,
	}
	if err := s.store.SaveSubscription(ctx, sub); err != nil {
		s.logger.ErrorContext(ctx, "failed to save subscription", "payment_id", p.ID, "error", err)
		return nil
	}
	return &sub
}

func (s *Service) commission(ctx context.Context, p models.Payment) *models.CommissionPayout {
	if p.CreatorID == "" || s.commissions == nil {
		return nil
	}
	payout, err := s.commissions.ProcessCommission(ctx, p)
	if err != nil {
		s.metrics.IncrementCommissionFailure()
		s.logger.ErrorContext(ctx, "failed to record commission",
			"payment_id", p.ID,
			"creator_id", p.CreatorID,
			"error", err,
		)
		return nil
	}
	return payout
}

func (s *Service) lookupPlan(ctx context.Context, id string) (*models.SubscriptionPlan, error) {
	if id == "" {
		return nil, nil
	}
	plan, err := s.store.FindPlan(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load plan")
	}
	return &plan, nil
}

func (s *Service) GetPayment(ctx context.Context, id string) (*models.Payment, error) {
	p, err := s.store.FindPayment(ctx, id)
	if err != nil {
		return nil, translate(err, "payment not found", "failed to load payment")
	}
	return &p, nil
}

func (s *Service) ListPayments(ctx context.Context) ([]models.Payment, error) {
	payments, err := s.store.ListPayments(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list payments")
	}
	return payments, nil
}

func (s *Service) ListSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	subs, err := s.store.ListSubscriptions(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list subscriptions")
	}
	return subs, nil
}

// Analytics summarises revenue. Monthly revenue counts completed payments
// created in the current calendar month.
func (s *Service) Analytics(ctx context.Context) (models.PaymentAnalytics, error) {
	payments, err := s.ListPayments(ctx)
	if err != nil {
		return models.PaymentAnalytics{}, err
	}
	subs, err := s.ListSubscriptions(ctx)
	if err != nil {
		return models.PaymentAnalytics{}, err
	}
	var payouts []models.CommissionPayout
	if s.commissions != nil {
		if payouts, err = s.commissions.List(ctx, models.PayoutFilter{}); err != nil {
			return models.PaymentAnalytics{}, err
		}
	}

	now := requesttime.Now(ctx).UTC()
	a := models.PaymentAnalytics{
		TotalRevenue:     decimal.Zero,
		TotalCommissions: decimal.Zero,
		MonthlyRevenue:   decimal.Zero,
		TotalPayments:    len(payments),
	}
	for _, p := range payments {
		if p.Status != models.PaymentCompleted {
			continue
		}
		a.SuccessfulPayments++
		a.TotalRevenue = a.TotalRevenue.Add(p.Amount)
		if created := p.CreatedAt.UTC(); created.Year() == now.Year() && created.Month() == now.Month() {
			a.MonthlyRevenue = a.MonthlyRevenue.Add(p.Amount)
		}
	}
	for _, p := range payouts {
		a.TotalCommissions = a.TotalCommissions.Add(p.Amount)
	}
	a.PlatformRevenue = a.TotalRevenue.Sub(a.TotalCommissions)
	for _, sub := range subs {
		if sub.Status == models.SubscriptionActive {
			a.ActiveSubscriptions++
		}
	}
	return a, nil
}

func translate(err error, notFound, internal string) error {
	return dErrors.FromStore(err, dErrors.StoreMessages{NotFound: notFound, Internal: internal})
}
