package handler

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"campus/internal/payment/coupon"
	"campus/internal/payment/models"
	"campus/internal/payment/service"
	dErrors "campus/pkg/domain-errors"
	platformstrings "campus/pkg/platform/strings"
	"campus/pkg/platform/validation"
)

const (
	maxApplicableItems = 200
	maxFeatures        = 50
)

type ValidateCouponRequest struct {
	Code   string       `json:"code" validate:"notblank,max=64"`
	Scope  models.Scope `json:"scope" validate:"required,oneof=course path platform all"`
	ItemID string       `json:"item_id" validate:"max=64"`
}

func (r *ValidateCouponRequest) Normalize() {
	r.Code = strings.TrimSpace(r.Code)
	r.ItemID = strings.TrimSpace(r.ItemID)
}

func (r *ValidateCouponRequest) Validate() error { return validation.Validate(r) }

type ApplyCouponRequest struct {
	Code   string          `json:"code" validate:"notblank,max=64"`
	Price  decimal.Decimal `json:"price" validate:"gte=0"`
	Scope  models.Scope    `json:"scope" validate:"required,oneof=course path platform all"`
	ItemID string          `json:"item_id" validate:"max=64"`
}

func (r *ApplyCouponRequest) Normalize() {
	r.Code = strings.TrimSpace(r.Code)
	r.ItemID = strings.TrimSpace(r.ItemID)
}

func (r *ApplyCouponRequest) Validate() error { return validation.Validate(r) }

// CheckoutRequest is a payment by the authenticated user. Amount may be
// omitted for plan purchases.
type CheckoutRequest struct {
	Email              string          `json:"email" validate:"omitempty,email"`
	Amount             decimal.Decimal `json:"amount" validate:"gte=0"`
	Currency           string          `json:"currency" validate:"omitempty,len=3"`
	SubscriptionPlanID string          `json:"subscription_plan_id" validate:"max=64"`
	CreatorID          string          `json:"creator_id" validate:"max=64"`
	Description        string          `json:"description" validate:"max=500"`
	CouponCode         string          `json:"coupon_code" validate:"max=64"`
	Scope              models.Scope    `json:"scope" validate:"omitempty,oneof=course path platform all"`
	ItemID             string          `json:"item_id" validate:"max=64"`
}

func (r *CheckoutRequest) Sanitize() {
	for _, f := range []*string{&r.Email, &r.SubscriptionPlanID, &r.CreatorID, &r.Description, &r.CouponCode, &r.ItemID} {
		*f = strings.TrimSpace(*f)
	}
}

func (r *CheckoutRequest) Normalize() {
	r.Currency = platformstrings.UpperTrim(r.Currency)
}

func (r *CheckoutRequest) Validate() error { return validation.Validate(r) }

func (r *CheckoutRequest) PaymentRequest(userID string) service.PaymentRequest {
	return service.PaymentRequest{
		UserID:             userID,
		Email:              r.Email,
		Amount:             r.Amount,
		Currency:           r.Currency,
		SubscriptionPlanID: r.SubscriptionPlanID,
		CreatorID:          r.CreatorID,
		Description:        r.Description,
		CouponCode:         r.CouponCode,
		Scope:              r.Scope,
		ItemID:             r.ItemID,
	}
}

// CouponRequest creates or replaces a coupon. ExpiryDate accepts RFC 3339
// or a bare date, which expires at the end of that day in UTC.
type CouponRequest struct {
	Code            string            `json:"code" validate:"notblank,max=64"`
	Type            models.CouponType `json:"type" validate:"required,oneof=percentage fixed free_trial"`
	Value           decimal.Decimal   `json:"value" validate:"gte=0"`
	Scope           models.Scope      `json:"scope" validate:"required,oneof=course path platform all"`
	ApplicableItems []string          `json:"applicable_items" validate:"dive,notblank"`
	UsageLimit      *int              `json:"usage_limit" validate:"omitempty,min=1"`
	ExpiryDate      string            `json:"expiry_date"`
	IsActive        *bool             `json:"is_active"`
	Description     string            `json:"description" validate:"max=500"`
}

func (r *CouponRequest) Normalize() {
	r.Code = strings.TrimSpace(r.Code)
	r.ExpiryDate = strings.TrimSpace(r.ExpiryDate)
	r.Description = strings.TrimSpace(r.Description)
	r.ApplicableItems = platformstrings.DedupeAndTrim(r.ApplicableItems)
}

func (r *CouponRequest) Validate() error {
	if err := validation.CheckSliceCount("applicable_items", len(r.ApplicableItems), maxApplicableItems); err != nil {
		return err
	}
	return validation.Validate(r)
}

func (r *CouponRequest) Input() (coupon.Input, error) {
	in := coupon.Input{
		Code:            r.Code,
		Type:            r.Type,
		Value:           r.Value,
		Scope:           r.Scope,
		ApplicableItems: r.ApplicableItems,
		UsageLimit:      r.UsageLimit,
		IsActive:        r.IsActive == nil || *r.IsActive,
		Description:     r.Description,
	}
	if r.ExpiryDate != "" {
		expiry, err := parseExpiry(r.ExpiryDate)
		if err != nil {
			return coupon.Input{}, err
		}
		in.ExpiryDate = &expiry
	}
	return in, nil
}

func parseExpiry(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t.UTC(), nil
	}
	d, err := time.Parse(time.DateOnly, v)
	if err != nil {
		return time.Time{}, dErrors.New(dErrors.CodeValidation, "expiry_date must be RFC 3339 or a date in format 2006-01-02")
	}
	return d.Add(24*time.Hour - time.Nanosecond), nil
}

type PlanRequest struct {
	Name          string          `json:"name" validate:"notblank,max=200"`
	Type          models.Scope    `json:"type" validate:"required,oneof=course path platform"`
	Price         decimal.Decimal `json:"price" validate:"gte=0"`
	Currency      string          `json:"currency" validate:"omitempty,len=3"`
	Interval      models.Interval `json:"interval" validate:"required,oneof=month year"`
	IntervalCount int             `json:"interval_count" validate:"omitempty,min=1"`
	Features      []string        `json:"features"`
	IsActive      *bool           `json:"is_active"`
	TrialDays     int             `json:"trial_days" validate:"gte=0"`
}

func (r *PlanRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Currency = platformstrings.UpperTrim(r.Currency)
	r.Features = platformstrings.DedupeAndTrim(r.Features)
	if r.IntervalCount == 0 {
		r.IntervalCount = 1
	}
}

func (r *PlanRequest) Validate() error {
	if err := validation.CheckSliceCount("features", len(r.Features), maxFeatures); err != nil {
		return err
	}
	return validation.Validate(r)
}

func (r *PlanRequest) Input() service.PlanInput {
	return service.PlanInput{
		Name:          r.Name,
		Type:          r.Type,
		Price:         r.Price,
		Currency:      r.Currency,
		Interval:      r.Interval,
		IntervalCount: r.IntervalCount,
		Features:      r.Features,
		IsActive:      r.IsActive == nil || *r.IsActive,
		TrialDays:     r.TrialDays,
	}
}

type ProcessPayoutsRequest struct {
	PayoutIDs []string `json:"payout_ids" validate:"required,min=1,max=500,dive,notblank"`
}

func (r *ProcessPayoutsRequest) Validate() error { return validation.Validate(r) }
