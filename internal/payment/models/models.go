package models

import (
	"slices"
	"time"

	"github.com/shopspring/decimal"
)

type CouponType string

const (
	CouponPercentage CouponType = "percentage"
	CouponFixed      CouponType = "fixed"
	CouponFreeTrial  CouponType = "free_trial"
)

// Scope is what a coupon or plan applies to.
type Scope string

const (
	ScopeCourse   Scope = "course"
	ScopePath     Scope = "path"
	ScopePlatform Scope = "platform"
	ScopeAll      Scope = "all"
)

// Coupon is a discount code. Codes are unique ignoring case.
// A nil UsageLimit or ExpiryDate means unlimited.
type Coupon struct {
	ID              string          `json:"id"`
	Code            string          `json:"code"`
	Type            CouponType      `json:"type"`
	Value           decimal.Decimal `json:"value"`
	Scope           Scope           `json:"scope"`
	ApplicableItems []string        `json:"applicable_items"`
	UsageLimit      *int            `json:"usage_limit"`
	UsageCount      int             `json:"usage_count"`
	ExpiryDate      *time.Time      `json:"expiry_date"`
	IsActive        bool            `json:"is_active"`
	Description     string          `json:"description"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (c Coupon) Expired(now time.Time) bool {
	return c.ExpiryDate != nil && c.ExpiryDate.Before(now)
}

func (c Coupon) Exhausted() bool {
	return c.UsageLimit != nil && c.UsageCount >= *c.UsageLimit
}

// AppliesTo matches scope and, for scoped coupons, the applicable items.
func (c Coupon) AppliesTo(scope Scope, itemID string) bool {
	if c.Scope == ScopeAll {
		return true
	}
	if c.Scope != scope {
		return false
	}
	return len(c.ApplicableItems) == 0 || slices.Contains(c.ApplicableItems, itemID)
}

// Coupon rejection reasons.
const (
	ReasonCouponNotFound      = "Coupon not found"
	ReasonCouponExpired       = "Coupon has expired"
	ReasonCouponLimitReached  = "Coupon usage limit reached"
	ReasonCouponNotApplicable = "Coupon not applicable to this item"
	ReasonCouponInvalidType   = "Invalid coupon type"
)

type CouponValidation struct {
	Valid  bool    `json:"valid"`
	Error  string  `json:"error,omitempty"`
	Coupon *Coupon `json:"coupon,omitempty"`
}

type CouponApplication struct {
	Success       bool            `json:"success"`
	Error         string          `json:"error,omitempty"`
	OriginalPrice decimal.Decimal `json:"original_price"`
	Discount      decimal.Decimal `json:"discount"`
	FinalPrice    decimal.Decimal `json:"final_price"`
	Coupon        *Coupon         `json:"coupon,omitempty"`
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// ReasonDeclined is the simulated gateway's failure reason.
const ReasonDeclined = "Payment declined by bank"

type Payment struct {
	ID                 string          `json:"id"`
	UserID             string          `json:"user_id"`
	Amount             decimal.Decimal `json:"amount"`
	Currency           string          `json:"currency"`
	SubscriptionPlanID string          `json:"subscription_plan_id,omitempty"`
	CreatorID          string          `json:"creator_id,omitempty"`
	Description        string          `json:"description"`
	Status             PaymentStatus   `json:"status"`
	FailureReason      string          `json:"failure_reason,omitempty"`
	GatewayReference   string          `json:"gateway_reference,omitempty"`
	RedirectURL        string          `json:"redirect_url,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	CompletedAt        *time.Time      `json:"completed_at,omitempty"`
}

type Interval string

const (
	IntervalMonth Interval = "month"
	IntervalYear  Interval = "year"
)

type SubscriptionPlan struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Type          Scope           `json:"type"`
	Price         decimal.Decimal `json:"price"`
	Currency      string          `json:"currency"`
	Interval      Interval        `json:"interval"`
	IntervalCount int             `json:"interval_count"`
	Features      []string        `json:"features"`
	IsActive      bool            `json:"is_active"`
	TrialDays     int             `json:"trial_days"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// PeriodEnd is start advanced by the plan's billing period.
func (p SubscriptionPlan) PeriodEnd(start time.Time) time.Time {
	if p.Interval == IntervalYear {
		return start.AddDate(p.IntervalCount, 0, 0)
	}
	return start.AddDate(0, p.IntervalCount, 0)
}

// DefaultPlans are seeded into an empty plan store.
func DefaultPlans(now time.Time) []SubscriptionPlan {
	plan := func(id, name, price string, interval Interval, trial int, features ...string) SubscriptionPlan {
		return SubscriptionPlan{
			ID: id, Name: name, Type: ScopePlatform,
			Price: decimal.RequireFromString(price), Currency: "USD",
			Interval: interval, IntervalCount: 1, Features: features,
			IsActive: true, TrialDays: trial, CreatedAt: now, UpdatedAt: now,
		}
	}
	return []SubscriptionPlan{
		plan("basic-monthly", "Basic Monthly", "29.99", IntervalMonth, 7,
			"Access to all courses", "Basic support", "Certificate generation", "Mobile access"),
		plan("pro-monthly", "Pro Monthly", "49.99", IntervalMonth, 14,
			"Access to all courses", "Priority support", "Advanced analytics",
			"Certificate generation", "Mobile access", "Download content"),
		plan("enterprise-yearly", "Enterprise Yearly", "499.99", IntervalYear, 30,
			"Access to all courses", "Dedicated support", "Advanced analytics",
			"Custom branding", "API access", "Bulk user management"),
	}
}

const SubscriptionActive = "active"

type Subscription struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	PlanID    string    `json:"plan_id"`
	Status    string    `json:"status"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	AutoRenew bool      `json:"auto_renew"`
	PaymentID string    `json:"payment_id"`
	CreatedAt time.Time `json:"created_at"`
}

type PayoutStatus string

const (
	PayoutPending PayoutStatus = "pending"
	PayoutPaid    PayoutStatus = "paid"
)

// CommissionPayout is a creator's share of one completed payment.
// Amount + PlatformFee == OriginalAmount exactly.
type CommissionPayout struct {
	ID             string          `json:"id"`
	PaymentID      string          `json:"payment_id"`
	CreatorID      string          `json:"creator_id"`
	Amount         decimal.Decimal `json:"amount"`
	PlatformFee    decimal.Decimal `json:"platform_fee"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	Rate           decimal.Decimal `json:"rate"`
	Status         PayoutStatus    `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	PaidAt         *time.Time      `json:"paid_at,omitempty"`
}

type PayoutFilter struct {
	Status    PayoutStatus
	CreatorID string
}

func (f PayoutFilter) Matches(p CommissionPayout) bool {
	return (f.Status == "" || p.Status == f.Status) &&
		(f.CreatorID == "" || p.CreatorID == f.CreatorID)
}

type CommissionAnalytics struct {
	TotalPaid     decimal.Decimal `json:"total_paid"`
	TotalPending  decimal.Decimal `json:"total_pending"`
	EligibleCount int             `json:"eligible_count"`
	EligibleTotal decimal.Decimal `json:"eligible_total"`
	MinimumPayout decimal.Decimal `json:"minimum_payout"`
}

type PaymentAnalytics struct {
	TotalRevenue        decimal.Decimal `json:"total_revenue"`
	TotalCommissions    decimal.Decimal `json:"total_commissions"`
	PlatformRevenue     decimal.Decimal `json:"platform_revenue"`
	MonthlyRevenue      decimal.Decimal `json:"monthly_revenue"`
	TotalPayments       int             `json:"total_payments"`
	SuccessfulPayments  int             `json:"successful_payments"`
	ActiveSubscriptions int             `json:"active_subscriptions"`
}
