package coupon

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"campus/internal/payment/models"
	dErrors "campus/pkg/domain-errors"
	"campus/pkg/platform/middleware/requesttime"
)

// Input carries the editable fields of a coupon. UsageCount is never
// taken from callers.
type Input struct {
	Code            string
	Type            models.CouponType
	Value           decimal.Decimal
	Scope           models.Scope
	ApplicableItems []string
	UsageLimit      *int
	ExpiryDate      *time.Time
	IsActive        bool
	Description     string
}

func (in Input) validate() error {
	if strings.TrimSpace(in.Code) == "" {
		return dErrors.New(dErrors.CodeValidation, "code is required")
	}
	switch in.Type {
	case models.CouponPercentage, models.CouponFixed, models.CouponFreeTrial:
	default:
		return dErrors.New(dErrors.CodeValidation, "unknown coupon type")
	}
	switch in.Scope {
	case models.ScopeCourse, models.ScopePath, models.ScopePlatform, models.ScopeAll:
	default:
		return dErrors.New(dErrors.CodeValidation, "unknown coupon scope")
	}
	if in.Value.IsNegative() {
		return dErrors.New(dErrors.CodeValidation, "value must not be negative")
	}
	if in.Type == models.CouponPercentage && in.Value.GreaterThan(hundred) {
		return dErrors.New(dErrors.CodeValidation, "percentage must not exceed 100")
	}
	if in.UsageLimit != nil && *in.UsageLimit < 1 {
		return dErrors.New(dErrors.CodeValidation, "usage limit must be at least 1")
	}
	return nil
}

func (in Input) apply(c *models.Coupon) {
	c.Code = strings.TrimSpace(in.Code)
	c.Type = in.Type
	c.Value = in.Value
	c.Scope = in.Scope
	c.ApplicableItems = in.ApplicableItems
	c.UsageLimit = in.UsageLimit
	c.ExpiryDate = in.ExpiryDate
	c.IsActive = in.IsActive
	c.Description = in.Description
}

func (e *Engine) Create(ctx context.Context, in Input) (*models.Coupon, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	now := requesttime.Now(ctx)
	c := models.Coupon{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	in.apply(&c)
	if err := e.store.SaveCoupon(ctx, c); err != nil {
		return nil, translate(err, "failed to save coupon")
	}
	e.logger.InfoContext(ctx, "coupon created", "coupon_id", c.ID, "code", c.Code)
	return &c, nil
}

// Update replaces the editable fields. The usage count is kept.
func (e *Engine) Update(ctx context.Context, id string, in Input) (*models.Coupon, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	c, err := e.store.FindCoupon(ctx, id)
	if err != nil {
		return nil, translate(err, "failed to load coupon")
	}
	in.apply(&c)
	c.UpdatedAt = requesttime.Now(ctx)
	if err := e.store.UpdateCoupon(ctx, c); err != nil {
		return nil, translate(err, "failed to update coupon")
	}
	return &c, nil
}

func (e *Engine) Delete(ctx context.Context, id string) error {
	if err := e.store.DeleteCoupon(ctx, id); err != nil {
		return translate(err, "failed to delete coupon")
	}
	return nil
}

func (e *Engine) Get(ctx context.Context, id string) (*models.Coupon, error) {
	c, err := e.store.FindCoupon(ctx, id)
	if err != nil {
		return nil, translate(err, "failed to load coupon")
	}
	return &c, nil
}

func (e *Engine) List(ctx context.Context) ([]models.Coupon, error) {
	coupons, err := e.store.ListCoupons(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list coupons")
	}
	return coupons, nil
}

func translate(err error, msg string) error {
	return dErrors.FromStore(err, dErrors.StoreMessages{
		NotFound: "coupon not found",
		Conflict: "coupon code already exists",
		Internal: msg,
	})
}
