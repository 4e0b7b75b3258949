package service

import (
	"cmp"
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"campus/internal/payment/models"
	dErrors "campus/pkg/domain-errors"
	"campus/pkg/platform/middleware/requesttime"
)

// PlanInput carries the editable fields of a subscription plan.
type PlanInput struct {
	Name          string
	Type          models.Scope
	Price         decimal.Decimal
	Currency      string
	Interval      models.Interval
	IntervalCount int
	Features      []string
	IsActive      bool
	TrialDays     int
}

func (in PlanInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	switch in.Type {
	case models.ScopeCourse, models.ScopePath, models.ScopePlatform:
	default:
		return dErrors.New(dErrors.CodeValidation, "type must be one of [course path platform]")
	}
	if in.Interval != models.IntervalMonth && in.Interval != models.IntervalYear {
		return dErrors.New(dErrors.CodeValidation, "interval must be one of [month year]")
	}
	if in.Price.IsNegative() {
		return dErrors.New(dErrors.CodeValidation, "price must not be negative")
	}
	if in.IntervalCount < 1 {
		return dErrors.New(dErrors.CodeValidation, "interval_count must be at least 1")
	}
	if in.TrialDays < 0 {
		return dErrors.New(dErrors.CodeValidation, "trial_days must not be negative")
	}
	return nil
}

func (in PlanInput) apply(p *models.SubscriptionPlan, currency string) {
	p.Name = strings.TrimSpace(in.Name)
	p.Type = in.Type
	p.Price = in.Price
	p.Currency = cmp.Or(in.Currency, currency)
	p.Interval = in.Interval
	p.IntervalCount = in.IntervalCount
	p.Features = in.Features
	p.IsActive = in.IsActive
	p.TrialDays = in.TrialDays
}

func (s *Service) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	plans, err := s.store.ListPlans(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list plans")
	}
	return plans, nil
}

func (s *Service) GetPlan(ctx context.Context, id string) (*models.SubscriptionPlan, error) {
	p, err := s.store.FindPlan(ctx, id)
	if err != nil {
		return nil, translate(err, "plan not found", "failed to load plan")
	}
	return &p, nil
}

func (s *Service) CreatePlan(ctx context.Context, in PlanInput) (*models.SubscriptionPlan, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	now := requesttime.Now(ctx).UTC()
	p := models.SubscriptionPlan{ID: uuid.NewString(), CreatedAt: now, UpdatedAt: now}
	in.apply(&p, s.currency)
	if err := s.store.SavePlan(ctx, p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save plan")
	}
	return &p, nil
}

func (s *Service) UpdatePlan(ctx context.Context, id string, in PlanInput) (*models.SubscriptionPlan, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p, err := s.store.FindPlan(ctx, id)
	if err != nil {
		return nil, translate(err, "plan not found", "failed to load plan")
	}
	in.apply(&p, s.currency)
	p.UpdatedAt = requesttime.Now(ctx).UTC()
	if err := s.store.UpdatePlan(ctx, p); err != nil {
		return nil, translate(err, "plan not found", "failed to update plan")
	}
	return &p, nil
}

func (s *Service) DeletePlan(ctx context.Context, id string) error {
	if err := s.store.DeletePlan(ctx, id); err != nil {
		return translate(err, "plan not found", "failed to delete plan")
	}
	return nil
}

// SeedDefaultPlans stores the default plans when no plan exists yet and
// reports how many were added.
func (s *Service) SeedDefaultPlans(ctx context.Context) (int, error) {
	existing, err := s.ListPlans(ctx)
	if err != nil {
		return 0, err
	}
	if len(existing) > 0 {
		return 0, nil
	}
	defaults := models.DefaultPlans(requesttime.Now(ctx).UTC())
	for _, p := range defaults {
		p.Currency = s.currency
		if err := s.store.SavePlan(ctx, p); err != nil {
			return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to seed plans")
		}
	}
	s.logger.InfoContext(ctx, "default plans seeded", "count", len(defaults))
	return len(defaults), nil
}
