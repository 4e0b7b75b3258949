// Package store persists coupons, plans, payments, subscriptions and
// commission payouts. Implementations return sentinel.ErrNotFound for
// unknown IDs and sentinel.ErrConflict for duplicate keys.
package store

import (
	"context"
	"time"

	"campus/internal/payment/models"
)

type Coupons interface {
	SaveCoupon(ctx context.Context, c models.Coupon) error
	FindCoupon(ctx context.Context, id string) (models.Coupon, error)
	// FindCouponByCode matches code ignoring case.
	FindCouponByCode(ctx context.Context, code string) (models.Coupon, error)
	ListCoupons(ctx context.Context) ([]models.Coupon, error)
	UpdateCoupon(ctx context.Context, c models.Coupon) error
	DeleteCoupon(ctx context.Context, id string) error
	// IncrementCouponUsage adds one use unless the usage limit is reached,
	// in which case it returns sentinel.ErrInvalidState.
	IncrementCouponUsage(ctx context.Context, id string, at time.Time) (models.Coupon, error)
}

type Plans interface {
	SavePlan(ctx context.Context, p models.SubscriptionPlan) error
	FindPlan(ctx context.Context, id string) (models.SubscriptionPlan, error)
	ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error)
	UpdatePlan(ctx context.Context, p models.SubscriptionPlan) error
	DeletePlan(ctx context.Context, id string) error
}

type Payments interface {
	SavePayment(ctx context.Context, p models.Payment) error
	FindPayment(ctx context.Context, id string) (models.Payment, error)
	ListPayments(ctx context.Context) ([]models.Payment, error)
	// UpdatePendingPayment writes p only while the stored payment is still
	// pending, returning sentinel.ErrInvalidState otherwise.
	UpdatePendingPayment(ctx context.Context, p models.Payment) error
}

type Subscriptions interface {
	SaveSubscription(ctx context.Context, s models.Subscription) error
	ListSubscriptions(ctx context.Context) ([]models.Subscription, error)
}

type Payouts interface {
	SavePayout(ctx context.Context, p models.CommissionPayout) error
	ListPayouts(ctx context.Context, filter models.PayoutFilter) ([]models.CommissionPayout, error)
	// MarkPayoutsPaid moves the pending payouts among ids to paid and
	// returns how many changed. Paid and unknown IDs are ignored.
	MarkPayoutsPaid(ctx context.Context, ids []string, paidAt time.Time) (int, error)
}

// Store is the full payment persistence surface.
type Store interface {
	Coupons
	Plans
	Payments
	Subscriptions
	Payouts
}
