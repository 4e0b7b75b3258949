package store

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"campus/internal/payment/models"
	"campus/pkg/platform/sentinel"
)

// table is an insertion-ordered map. Callers hold the store lock.
type table[T any] struct {
	order []string
	rows  map[string]T
}

func newTable[T any]() table[T] {
	return table[T]{rows: make(map[string]T)}
}

func (t *table[T]) insert(id string, v T) error {
	if _, ok := t.rows[id]; ok {
		return sentinel.ErrConflict
	}
	t.rows[id] = v
	t.order = append(t.order, id)
	return nil
}

func (t *table[T]) get(id string) (T, error) {
	v, ok := t.rows[id]
	if !ok {
		var zero T
		return zero, sentinel.ErrNotFound
	}
	return v, nil
}

func (t *table[T]) replace(id string, v T) error {
	if _, ok := t.rows[id]; !ok {
		return sentinel.ErrNotFound
	}
	t.rows[id] = v
	return nil
}

func (t *table[T]) remove(id string) error {
	if _, ok := t.rows[id]; !ok {
		return sentinel.ErrNotFound
	}
	delete(t.rows, id)
	t.order = slices.DeleteFunc(t.order, func(v string) bool { return v == id })
	return nil
}

func (t *table[T]) all(keep func(T) bool) []T {
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		if v := t.rows[id]; keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	return out
}

// InMemoryStore is the process-local payment store.
type InMemoryStore struct {
	mu            sync.RWMutex
	coupons       table[models.Coupon]
	plans         table[models.SubscriptionPlan]
	payments      table[models.Payment]
	subscriptions table[models.Subscription]
	payouts       table[models.CommissionPayout]
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		coupons:       newTable[models.Coupon](),
		plans:         newTable[models.SubscriptionPlan](),
		payments:      newTable[models.Payment](),
		subscriptions: newTable[models.Subscription](),
		payouts:       newTable[models.CommissionPayout](),
	}
}

func (s *InMemoryStore) codeTaken(code, exceptID string) bool {
	for _, c := range s.coupons.rows {
		if c.ID != exceptID && strings.EqualFold(c.Code, code) {
			return true
		}
	}
	return false
}

func (s *InMemoryStore) SaveCoupon(_ context.Context, c models.Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.codeTaken(c.Code, "") {
		return sentinel.ErrConflict
	}
	return s.coupons.insert(c.ID, c)
}

func (s *InMemoryStore) FindCoupon(_ context.Context, id string) (models.Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.coupons.get(id)
}

func (s *InMemoryStore) FindCouponByCode(_ context.Context, code string) (models.Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.coupons.rows {
		if strings.EqualFold(c.Code, code) {
			return c, nil
		}
	}
	return models.Coupon{}, sentinel.ErrNotFound
}

func (s *InMemoryStore) ListCoupons(_ context.Context) ([]models.Coupon, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.coupons.all(nil), nil
}

func (s *InMemoryStore) UpdateCoupon(_ context.Context, c models.Coupon) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, err := s.coupons.get(c.ID)
	if err != nil {
		return err
	}
	if s.codeTaken(c.Code, c.ID) {
		return sentinel.ErrConflict
	}
	c.UsageCount = existing.UsageCount
	c.CreatedAt = existing.CreatedAt
	return s.coupons.replace(c.ID, c)
}

func (s *InMemoryStore) DeleteCoupon(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.coupons.remove(id)
}

func (s *InMemoryStore) IncrementCouponUsage(_ context.Context, id string, at time.Time) (models.Coupon, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, err := s.coupons.get(id)
	if err != nil {
		return models.Coupon{}, err
	}
	if c.Exhausted() {
		return models.Coupon{}, sentinel.ErrInvalidState
	}
	c.UsageCount++
	c.UpdatedAt = at
	s.coupons.rows[id] = c
	return c, nil
}

func (s *InMemoryStore) SavePlan(_ context.Context, p models.SubscriptionPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plans.insert(p.ID, p)
}

func (s *InMemoryStore) FindPlan(_ context.Context, id string) (models.SubscriptionPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.plans.get(id)
}

func (s *InMemoryStore) ListPlans(_ context.Context) ([]models.SubscriptionPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.plans.all(nil), nil
}

func (s *InMemoryStore) UpdatePlan(_ context.Context, p models.SubscriptionPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plans.replace(p.ID, p)
}

func (s *InMemoryStore) DeletePlan(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plans.remove(id)
}

func (s *InMemoryStore) SavePayment(_ context.Context, p models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payments.insert(p.ID, p)
}

func (s *InMemoryStore) FindPayment(_ context.Context, id string) (models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.payments.get(id)
}

func (s *InMemoryStore) ListPayments(_ context.Context) ([]models.Payment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.payments.all(nil), nil
}

func (s *InMemoryStore) UpdatePendingPayment(_ context.Context, p models.Payment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, err := s.payments.get(p.ID)
	if err != nil {
		return err
	}
	if current.Status != models.PaymentPending {
		return sentinel.ErrInvalidState
	}
	s.payments.rows[p.ID] = p
	return nil
}

func (s *InMemoryStore) SaveSubscription(_ context.Context, sub models.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.subscriptions.insert(sub.ID, sub)
}

func (s *InMemoryStore) ListSubscriptions(_ context.Context) ([]models.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subscriptions.all(nil), nil
}

func (s *InMemoryStore) SavePayout(_ context.Context, p models.CommissionPayout) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.payouts.rows {
		if existing.PaymentID == p.PaymentID {
			return sentinel.ErrConflict
		}
	}
	return s.payouts.insert(p.ID, p)
}

func (s *InMemoryStore) ListPayouts(_ context.Context, filter models.PayoutFilter) ([]models.CommissionPayout, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.payouts.all(filter.Matches), nil
}

func (s *InMemoryStore) MarkPayoutsPaid(_ context.Context, ids []string, paidAt time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := 0
	for _, id := range ids {
		p, ok := s.payouts.rows[id]
		if !ok || p.Status != models.PayoutPending {
			continue
		}
		at := paidAt
		p.Status = models.PayoutPaid
		p.PaidAt = &at
		s.payouts.rows[id] = p
		changed++
	}
	return changed, nil
}

var _ Store = (*InMemoryStore)(nil)
