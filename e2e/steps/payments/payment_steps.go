package payments

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/cucumber/godog"
	"github.com/google/uuid"
)

// TestContext interface defines the methods needed from the main test context
type TestContext interface {
	AdminDo(method, path string, body any) error
	UserDo(method, path string, body any) error
	GetResponseField(field string) (any, error)
	GetLastResponseStatus() int
	GetUserID() string
	Save(name, value string)
	Saved(name string) string
}

// RegisterSteps registers coupon, checkout and payout steps
func RegisterSteps(ctx *godog.ScenarioContext, tc TestContext) {
	steps := &paymentSteps{tc: tc}

	// Coupon steps
	ctx.Step(`^a "([^"]*)" coupon "([^"]*)" worth "([^"]*)" for scope "([^"]*)"$`, steps.createCoupon)
	ctx.Step(`^a "([^"]*)" coupon "([^"]*)" worth "([^"]*)" for scope "([^"]*)" limited to (\d+) uses?$`, steps.createLimitedCoupon)
	ctx.Step(`^I validate coupon "([^"]*)" for scope "([^"]*)" item "([^"]*)"$`, steps.validateCoupon)
	ctx.Step(`^I apply coupon "([^"]*)" to price "([^"]*)" for scope "([^"]*)" item "([^"]*)"$`, steps.applyCoupon)

	// Checkout steps
	ctx.Step(`^I check out plan "([^"]*)"$`, steps.checkoutPlan)
	ctx.Step(`^I check out plan "([^"]*)" with coupon "([^"]*)"$`, steps.checkoutPlanWithCoupon)
	ctx.Step(`^I pay "([^"]*)" to creator "([^"]*)"$`, steps.payCreator)
	ctx.Step(`^the payment should belong to me$`, steps.paymentBelongsToMe)

	// Payout steps
	ctx.Step(`^I list payouts for creator "([^"]*)"$`, steps.listPayouts)
	ctx.Step(`^I process eligible payouts$`, steps.processEligible)
}

type paymentSteps struct {
	tc TestContext
}

// Coupon codes are unique per scenario so features can run against a
// long-lived server.
func (s *paymentSteps) uniqueCode(name string) string {
	code := strings.ToUpper(name + "-" + uuid.NewString()[:8])
	s.tc.Save(name, code)
	return code
}

func (s *paymentSteps) createCoupon(ctx context.Context, couponType, name, value, scope string) error {
	return s.create(couponType, name, value, scope, nil)
}

func (s *paymentSteps) createLimitedCoupon(ctx context.Context, couponType, name, value, scope string, limit int) error {
	return s.create(couponType, name, value, scope, &limit)
}

func (s *paymentSteps) create(couponType, name, value, scope string, limit *int) error {
	body := map[string]any{
		"code":  s.uniqueCode(name),
		"type":  couponType,
		"value": value,
		"scope": scope,
	}
	if limit != nil {
		body["usage_limit"] = *limit
	}
	if err := s.tc.AdminDo(http.MethodPost, "/admin/coupons", body); err != nil {
		return err
	}
	if status := s.tc.GetLastResponseStatus(); status != http.StatusCreated {
		return fmt.Errorf("create coupon: status %d", status)
	}
	return nil
}

func (s *paymentSteps) validateCoupon(ctx context.Context, name, scope, itemID string) error {
	return s.tc.UserDo(http.MethodPost, "/checkout/coupons/validate", map[string]any{
		"code":    s.tc.Saved(name),
		"scope":   scope,
		"item_id": itemID,
	})
}

func (s *paymentSteps) applyCoupon(ctx context.Context, name, price, scope, itemID string) error {
	return s.tc.UserDo(http.MethodPost, "/checkout/coupons/apply", map[string]any{
		"code":    s.tc.Saved(name),
		"price":   price,
		"scope":   scope,
		"item_id": itemID,
	})
}

func (s *paymentSteps) checkoutPlan(ctx context.Context, planID string) error {
	return s.tc.UserDo(http.MethodPost, "/checkout/payments", map[string]any{
		"subscription_plan_id": planID,
	})
}

func (s *paymentSteps) checkoutPlanWithCoupon(ctx context.Context, planID, coupon string) error {
	return s.tc.UserDo(http.MethodPost, "/checkout/payments", map[string]any{
		"subscription_plan_id": planID,
		"coupon_code":          s.tc.Saved(coupon),
	})
}

func (s *paymentSteps) payCreator(ctx context.Context, amount, creator string) error {
	if creator == "a new creator" {
		creator = "creator-" + uuid.NewString()[:8]
	}
	s.tc.Save("creator", creator)
	return s.tc.UserDo(http.MethodPost, "/checkout/payments", map[string]any{
		"amount":      amount,
		"creator_id":  creator,
		"description": "e2e payment",
	})
}

func (s *paymentSteps) paymentBelongsToMe(ctx context.Context) error {
	owner, err := s.tc.GetResponseField("payment.user_id")
	if err != nil {
		return err
	}
	if owner != s.tc.GetUserID() {
		return fmt.Errorf("payment belongs to %v, expected %s", owner, s.tc.GetUserID())
	}
	return nil
}

func (s *paymentSteps) listPayouts(ctx context.Context, creator string) error {
	return s.tc.AdminDo(http.MethodGet, "/admin/commissions/payouts?creator_id="+s.tc.Saved(creator), nil)
}

func (s *paymentSteps) processEligible(ctx context.Context) error {
	return s.tc.AdminDo(http.MethodPost, "/admin/commissions/payouts/process-eligible", nil)
}
