package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	jwttoken "campus/internal/jwt_token"
	"campus/internal/payment/commission"
	"campus/internal/payment/coupon"
	"campus/internal/payment/gateway"
	"campus/internal/payment/models"
	"campus/internal/payment/service"
	dErrors "campus/pkg/domain-errors"
	"campus/pkg/platform/httputil"
	"campus/pkg/platform/middleware/auth"
	"campus/pkg/requestcontext"
)

// Coupons is the coupon engine and catalogue.
type Coupons interface {
	Validate(ctx context.Context, code string, scope models.Scope, itemID string) (models.CouponValidation, error)
	Apply(ctx context.Context, code string, price decimal.Decimal, scope models.Scope, itemID string) (models.CouponApplication, error)
	Create(ctx context.Context, in coupon.Input) (*models.Coupon, error)
	Update(ctx context.Context, id string, in coupon.Input) (*models.Coupon, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*models.Coupon, error)
	List(ctx context.Context) ([]models.Coupon, error)
}

// Payments is the checkout and plan catalogue.
type Payments interface {
	ProcessPayment(ctx context.Context, req service.PaymentRequest) (*service.PaymentResult, error)
	Settle(ctx context.Context, paymentID string, status models.PaymentStatus, reason, reference string) (*service.PaymentResult, error)
	GetPayment(ctx context.Context, id string) (*models.Payment, error)
	ListPayments(ctx context.Context) ([]models.Payment, error)
	ListSubscriptions(ctx context.Context) ([]models.Subscription, error)
	Analytics(ctx context.Context) (models.PaymentAnalytics, error)
	ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error)
	GetPlan(ctx context.Context, id string) (*models.SubscriptionPlan, error)
	CreatePlan(ctx context.Context, in service.PlanInput) (*models.SubscriptionPlan, error)
	UpdatePlan(ctx context.Context, id string, in service.PlanInput) (*models.SubscriptionPlan, error)
	DeletePlan(ctx context.Context, id string) error
}

// Commissions is the payout side of the commission engine.
type Commissions interface {
	List(ctx context.Context, filter models.PayoutFilter) ([]models.CommissionPayout, error)
	ProcessPayouts(ctx context.Context, ids []string) (int, error)
	ProcessEligible(ctx context.Context, trigger string) (int, error)
	Analytics(ctx context.Context) (models.CommissionAnalytics, error)
}

// NotificationVerifier authenticates gateway callbacks.
type NotificationVerifier interface {
	VerifySignature(n gateway.Notification) bool
}

type Option func(*Handler)

type Handler struct {
	coupons     Coupons
	payments    Payments
	commissions Commissions
	verifier    NotificationVerifier
	logger      *slog.Logger
}

func New(coupons Coupons, payments Payments, commissions Commissions, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{coupons: coupons, payments: payments, commissions: commissions, logger: logger}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// WithNotificationVerifier enables the gateway notification endpoint.
func WithNotificationVerifier(v NotificationVerifier) Option {
	return func(h *Handler) {
		h.verifier = v
	}
}

// RegisterPublic mounts the gateway callback. It is only mounted when a
// verifier is configured.
func (h *Handler) RegisterPublic(r chi.Router) {
	if h.verifier == nil {
		return
	}
	r.Post("/payments/notifications", h.HandleNotification)
}

// RegisterCheckout mounts the routes any authenticated user may call.
func (h *Handler) RegisterCheckout(r chi.Router) {
	r.Route("/checkout", func(r chi.Router) {
		r.Get("/plans", h.HandleListActivePlans)
		r.Post("/coupons/validate", h.HandleValidateCoupon)
		r.Post("/coupons/apply", h.HandleApplyCoupon)
		r.Post("/payments", h.HandleCheckout)
	})
}

// Register mounts the admin routes. The router must already require authentication.
func (h *Handler) Register(r chi.Router) {
	read := auth.RequirePermission(jwttoken.PermPaymentsRead, h.logger)
	write := auth.RequirePermission(jwttoken.PermPaymentsWrite, h.logger)
	coupons := auth.RequirePermission(jwttoken.PermCouponsWrite, h.logger)
	commissions := auth.RequirePermission(jwttoken.PermCommissionsWrite, h.logger)

	r.Route("/coupons", func(r chi.Router) {
		r.Use(coupons)
		r.Get("/", h.HandleListCoupons)
		r.Post("/", h.HandleCreateCoupon)
		r.Get("/{id}", h.HandleGetCoupon)
		r.Put("/{id}", h.HandleUpdateCoupon)
		r.Delete("/{id}", h.HandleDeleteCoupon)
	})

	r.Route("/plans", func(r chi.Router) {
		r.With(read).Get("/", h.HandleListPlans)
		r.With(write).Post("/", h.HandleCreatePlan)
		r.With(read).Get("/{id}", h.HandleGetPlan)
		r.With(write).Put("/{id}", h.HandleUpdatePlan)
		r.With(write).Delete("/{id}", h.HandleDeletePlan)
	})

	r.Route("/payments", func(r chi.Router) {
		r.Use(read)
		r.Get("/", h.HandleListPayments)
		r.Get("/analytics", h.HandlePaymentAnalytics)
		r.Get("/{id}", h.HandleGetPayment)
	})
	r.With(read).Get("/subscriptions", h.HandleListSubscriptions)

	r.Route("/commissions", func(r chi.Router) {
		r.With(read).Get("/payouts", h.HandleListPayouts)
		r.With(read).Get("/analytics", h.HandleCommissionAnalytics)
		r.With(commissions).Post("/payouts/process", h.HandleProcessPayouts)
		r.With(commissions).Post("/payouts/process-eligible", h.HandleProcessEligible)
	})
}

func (h *Handler) HandleValidateCoupon(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[ValidateCouponRequest](w, r, h.logger)
	if !ok {
		return
	}
	result, err := h.coupons.Validate(r.Context(), req.Code, req.Scope, req.ItemID)
	if err != nil {
		h.fail(w, r, "coupon validation failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleApplyCoupon(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[ApplyCouponRequest](w, r, h.logger)
	if !ok {
		return
	}
	result, err := h.coupons.Apply(r.Context(), req.Code, req.Price, req.Scope, req.ItemID)
	if err != nil {
		h.fail(w, r, "coupon application failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	principal, err := httputil.RequirePrincipal(ctx, h.logger)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndPrepare[CheckoutRequest](w, r, h.logger)
	if !ok {
		return
	}
	result, err := h.payments.ProcessPayment(ctx, req.PaymentRequest(principal.Subject))
	if err != nil {
		h.fail(w, r, "payment failed", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, result)
}

func (h *Handler) HandleListActivePlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.payments.ListPlans(r.Context())
	if err != nil {
		h.fail(w, r, "failed to list plans", err)
		return
	}
	active := make([]models.SubscriptionPlan, 0, len(plans))
	for _, p := range plans {
		if p.IsActive {
			active = append(active, p)
		}
	}
	httputil.WriteJSON(w, http.StatusOK, PlansResponse{Plans: active, Total: len(active)})
}

func (h *Handler) HandleNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	// Gateways send more fields than the signature covers.
	var n gateway.Notification
	if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
		h.fail(w, r, "failed to decode gateway notification", dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if !h.verifier.VerifySignature(n) {
		h.logger.WarnContext(ctx, "rejected gateway notification",
			"request_id", requestcontext.RequestID(ctx),
			"order_id", n.OrderID,
		)
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "invalid notification signature"))
		return
	}
	status, reason, settled := n.Outcome()
	if !settled {
		httputil.WriteJSON(w, http.StatusOK, NotificationResponse{Received: true})
		return
	}
	result, err := h.payments.Settle(ctx, n.OrderID, status, reason, n.TransactionID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			h.logger.WarnContext(ctx, "notification for unknown payment", "order_id", n.OrderID)
			httputil.WriteJSON(w, http.StatusOK, NotificationResponse{Received: true})
			return
		}
		h.fail(w, r, "failed to settle payment", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, NotificationResponse{Received: true, Status: result.Payment.Status})
}

func (h *Handler) HandleListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.coupons.List(r.Context())
	if err != nil {
		h.fail(w, r, "failed to list coupons", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, CouponsResponse{Coupons: coupons, Total: len(coupons)})
}

func (h *Handler) HandleCreateCoupon(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[CouponRequest](w, r, h.logger)
	if !ok {
		return
	}
	in, err := req.Input()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.coupons.Create(r.Context(), in)
	if err != nil {
		h.fail(w, r, "failed to create coupon", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, c)
}

func (h *Handler) HandleGetCoupon(w http.ResponseWriter, r *http.Request) {
	c, err := h.coupons.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "failed to load coupon", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) HandleUpdateCoupon(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[CouponRequest](w, r, h.logger)
	if !ok {
		return
	}
	in, err := req.Input()
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	c, err := h.coupons.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		h.fail(w, r, "failed to update coupon", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, c)
}

func (h *Handler) HandleDeleteCoupon(w http.ResponseWriter, r *http.Request) {
	if err := h.coupons.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "failed to delete coupon", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.payments.ListPlans(r.Context())
	if err != nil {
		h.fail(w, r, "failed to list plans", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, PlansResponse{Plans: plans, Total: len(plans)})
}

func (h *Handler) HandleGetPlan(w http.ResponseWriter, r *http.Request) {
	p, err := h.payments.GetPlan(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "failed to load plan", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) HandleCreatePlan(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[PlanRequest](w, r, h.logger)
	if !ok {
		return
	}
	p, err := h.payments.CreatePlan(r.Context(), req.Input())
	if err != nil {
		h.fail(w, r, "failed to create plan", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) HandleUpdatePlan(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[PlanRequest](w, r, h.logger)
	if !ok {
		return
	}
	p, err := h.payments.UpdatePlan(r.Context(), chi.URLParam(r, "id"), req.Input())
	if err != nil {
		h.fail(w, r, "failed to update plan", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) HandleDeletePlan(w http.ResponseWriter, r *http.Request) {
	if err := h.payments.DeletePlan(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, "failed to delete plan", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleListPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.payments.ListPayments(r.Context())
	if err != nil {
		h.fail(w, r, "failed to list payments", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, PaymentsResponse{Payments: payments, Total: len(payments)})
}

func (h *Handler) HandleGetPayment(w http.ResponseWriter, r *http.Request) {
	p, err := h.payments.GetPayment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, "failed to load payment", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) HandlePaymentAnalytics(w http.ResponseWriter, r *http.Request) {
	a, err := h.payments.Analytics(r.Context())
	if err != nil {
		h.fail(w, r, "failed to compute payment analytics", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) HandleListSubscriptions(w http.ResponseWriter, r *http.Request) {
	subs, err := h.payments.ListSubscriptions(r.Context())
	if err != nil {
		h.fail(w, r, "failed to list subscriptions", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, SubscriptionsResponse{Subscriptions: subs, Total: len(subs)})
}

func (h *Handler) HandleListPayouts(w http.ResponseWriter, r *http.Request) {
	filter, err := parsePayoutFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	payouts, err := h.commissions.List(r.Context(), filter)
	if err != nil {
		h.fail(w, r, "failed to list payouts", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, PayoutsResponse{Payouts: payouts, Total: len(payouts)})
}

func parsePayoutFilter(r *http.Request) (models.PayoutFilter, error) {
	q := r.URL.Query()
	filter := models.PayoutFilter{CreatorID: strings.TrimSpace(q.Get("creator_id"))}
	switch s := models.PayoutStatus(q.Get("status")); s {
	case "", models.PayoutPending, models.PayoutPaid:
		filter.Status = s
	default:
		return models.PayoutFilter{}, dErrors.New(dErrors.CodeBadRequest, "status must be one of [pending paid]")
	}
	return filter, nil
}

func (h *Handler) HandleProcessPayouts(w http.ResponseWriter, r *http.Request) {
	req, ok := httputil.DecodeAndPrepare[ProcessPayoutsRequest](w, r, h.logger)
	if !ok {
		return
	}
	n, err := h.commissions.ProcessPayouts(r.Context(), req.PayoutIDs)
	if err != nil {
		h.fail(w, r, "failed to process payouts", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ProcessedResponse{Processed: n})
}

func (h *Handler) HandleProcessEligible(w http.ResponseWriter, r *http.Request) {
	n, err := h.commissions.ProcessEligible(r.Context(), commission.TriggerEligible)
	if err != nil {
		h.fail(w, r, "failed to process eligible payouts", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, ProcessedResponse{Processed: n})
}

func (h *Handler) HandleCommissionAnalytics(w http.ResponseWriter, r *http.Request) {
	a, err := h.commissions.Analytics(r.Context())
	if err != nil {
		h.fail(w, r, "failed to compute commission analytics", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, a)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	ctx := r.Context()
	h.logger.WarnContext(ctx, msg,
		"request_id", requestcontext.RequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
