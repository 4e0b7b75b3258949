package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"campus/internal/payment/models"
	"campus/pkg/platform/sentinel"
)

const uniqueViolation = "23505"

// PostgresStore keeps payment data in the tables of migration 002.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func translateWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, sentinel.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// conditionalMiss tells a missing row from one whose guard failed.
func (s *PostgresStore) conditionalMiss(ctx context.Context, table, id string) error {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM ` + table + ` WHERE id = $1)`
	if err := s.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return fmt.Errorf("check %s existence: %w", table, err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return sentinel.ErrInvalidState
}

// Coupons

const couponColumns = `id, code, type, value, scope, applicable_items, usage_limit, usage_count,
	expiry_date, is_active, description, created_at, updated_at`

func couponArgs(c models.Coupon) ([]any, error) {
	items, err := json.Marshal(nonNil(c.ApplicableItems))
	if err != nil {
		return nil, fmt.Errorf("encode applicable items: %w", err)
	}
	var limit sql.NullInt64
	if c.UsageLimit != nil {
		limit = sql.NullInt64{Int64: int64(*c.UsageLimit), Valid: true}
	}
	return []any{
		c.ID, c.Code, string(c.Type), c.Value, string(c.Scope), string(items), limit, c.UsageCount,
		nullTime(c.ExpiryDate), c.IsActive, c.Description, c.CreatedAt, c.UpdatedAt,
	}, nil
}

func scanCoupon(row rowScanner) (models.Coupon, error) {
	var (
		c                 models.Coupon
		couponType, scope string
		items             []byte
		limit             sql.NullInt64
		expiry            sql.NullTime
	)
	err := row.Scan(&c.ID, &c.Code, &couponType, &c.Value, &scope, &items, &limit, &c.UsageCount,
		&expiry, &c.IsActive, &c.Description, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return models.Coupon{}, err
	}
	c.Type, c.Scope = models.CouponType(couponType), models.Scope(scope)
	if err := json.Unmarshal(items, &c.ApplicableItems); err != nil {
		return models.Coupon{}, fmt.Errorf("decode applicable items: %w", err)
	}
	if limit.Valid {
		n := int(limit.Int64)
		c.UsageLimit = &n
	}
	c.ExpiryDate = timePtr(expiry)
	return c, nil
}

func (s *PostgresStore) SaveCoupon(ctx context.Context, c models.Coupon) error {
	args, err := couponArgs(c)
	if err != nil {
		return err
	}
	query := `INSERT INTO coupons (` + couponColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return translateWriteError("save coupon", err)
	}
	return nil
}

func (s *PostgresStore) FindCoupon(ctx context.Context, id string) (models.Coupon, error) {
	return s.findCoupon(ctx, `id = $1`, id)
}

func (s *PostgresStore) FindCouponByCode(ctx context.Context, code string) (models.Coupon, error) {
	return s.findCoupon(ctx, `LOWER(code) = LOWER($1)`, code)
}

func (s *PostgresStore) findCoupon(ctx context.Context, where, arg string) (models.Coupon, error) {
	c, err := scanCoupon(s.db.QueryRowContext(ctx, `SELECT `+couponColumns+` FROM coupons WHERE `+where, arg))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Coupon{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Coupon{}, fmt.Errorf("find coupon: %w", err)
	}
	return c, nil
}

func (s *PostgresStore) ListCoupons(ctx context.Context) ([]models.Coupon, error) {
	return list(ctx, s.db, `SELECT `+couponColumns+` FROM coupons ORDER BY created_at, id`, nil, scanCoupon)
}

// UpdateCoupon rewrites the editable fields. usage_count is only changed by
// IncrementCouponUsage.
func (s *PostgresStore) UpdateCoupon(ctx context.Context, c models.Coupon) error {
	args, err := couponArgs(c)
	if err != nil {
		return err
	}
	query := `
		UPDATE coupons SET
			code = $2, type = $3, value = $4, scope = $5, applicable_items = $6,
			usage_limit = $7, expiry_date = $8, is_active = $9, description = $10, updated_at = $11
		WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query,
		args[0], args[1], args[2], args[3], args[4], args[5], args[6], args[8], args[9], args[10], c.UpdatedAt)
	if err != nil {
		return translateWriteError("update coupon", err)
	}
	return requireOneRow(res)
}

func (s *PostgresStore) DeleteCoupon(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM coupons WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete coupon: %w", err)
	}
	return requireOneRow(res)
}

func (s *PostgresStore) IncrementCouponUsage(ctx context.Context, id string, at time.Time) (models.Coupon, error) {
	query := `
		UPDATE coupons SET usage_count = usage_count + 1, updated_at = $2
		WHERE id = $1 AND (usage_limit IS NULL OR usage_count < usage_limit)
		RETURNING ` + couponColumns
	c, err := scanCoupon(s.db.QueryRowContext(ctx, query, id, at))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Coupon{}, s.conditionalMiss(ctx, "coupons", id)
	}
	if err != nil {
		return models.Coupon{}, fmt.Errorf("increment coupon usage: %w", err)
	}
	return c, nil
}

// Plans

const planColumns = `id, name, type, price, currency, interval, interval_count, features,
	is_active, trial_days, created_at, updated_at`

func planArgs(p models.SubscriptionPlan) ([]any, error) {
	features, err := json.Marshal(nonNil(p.Features))
	if err != nil {
		return nil, fmt.Errorf("encode plan features: %w", err)
	}
	return []any{
		p.ID, p.Name, string(p.Type), p.Price, p.Currency, string(p.Interval), p.IntervalCount,
		string(features), p.IsActive, p.TrialDays, p.CreatedAt, p.UpdatedAt,
	}, nil
}

func scanPlan(row rowScanner) (models.SubscriptionPlan, error) {
	var (
		p                  models.SubscriptionPlan
		planType, interval string
		features           []byte
	)
	err := row.Scan(&p.ID, &p.Name, &planType, &p.Price, &p.Currency, &interval, &p.IntervalCount,
		&features, &p.IsActive, &p.TrialDays, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return models.SubscriptionPlan{}, err
	}
	p.Type, p.Interval = models.Scope(planType), models.Interval(interval)
	if err := json.Unmarshal(features, &p.Features); err != nil {
		return models.SubscriptionPlan{}, fmt.Errorf("decode plan features: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) SavePlan(ctx context.Context, p models.SubscriptionPlan) error {
	args, err := planArgs(p)
	if err != nil {
		return err
	}
	query := `INSERT INTO subscription_plans (` + planColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return translateWriteError("save plan", err)
	}
	return nil
}

func (s *PostgresStore) FindPlan(ctx context.Context, id string) (models.SubscriptionPlan, error) {
	p, err := scanPlan(s.db.QueryRowContext(ctx, `SELECT `+planColumns+` FROM subscription_plans WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.SubscriptionPlan{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.SubscriptionPlan{}, fmt.Errorf("find plan: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	return list(ctx, s.db, `SELECT `+planColumns+` FROM subscription_plans ORDER BY created_at, id`, nil, scanPlan)
}

func (s *PostgresStore) UpdatePlan(ctx context.Context, p models.SubscriptionPlan) error {
	args, err := planArgs(p)
	if err != nil {
		return err
	}
	query := `
		UPDATE subscription_plans SET
			name = $2, type = $3, price = $4, currency = $5, interval = $6, interval_count = $7,
			features = $8, is_active = $9, trial_days = $10, updated_at = $11
		WHERE id = $1`
	res, err := s.db.ExecContext(ctx, query, append(args[:10], p.UpdatedAt)...)
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}
	return requireOneRow(res)
}

func (s *PostgresStore) DeletePlan(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM subscription_plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	return requireOneRow(res)
}

// Payments

const paymentColumns = `id, user_id, amount, currency, subscription_plan_id, creator_id, description,
	status, failure_reason, gateway_reference, redirect_url, created_at, completed_at`

func scanPayment(row rowScanner) (models.Payment, error) {
	var (
		p               models.Payment
		planID, creator sql.NullString
		status          string
		completedAt     sql.NullTime
	)
	err := row.Scan(&p.ID, &p.UserID, &p.Amount, &p.Currency, &planID, &creator, &p.Description,
		&status, &p.FailureReason, &p.GatewayReference, &p.RedirectURL, &p.CreatedAt, &completedAt)
	if err != nil {
		return models.Payment{}, err
	}
	p.SubscriptionPlanID, p.CreatorID = planID.String, creator.String
	p.Status = models.PaymentStatus(status)
	p.CompletedAt = timePtr(completedAt)
	return p, nil
}

func (s *PostgresStore) SavePayment(ctx context.Context, p models.Payment) error {
	query := `INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.UserID, p.Amount, p.Currency, nullString(p.SubscriptionPlanID), nullString(p.CreatorID),
		p.Description, string(p.Status), p.FailureReason, p.GatewayReference, p.RedirectURL,
		p.CreatedAt, nullTime(p.CompletedAt),
	)
	if err != nil {
		return translateWriteError("save payment", err)
	}
	return nil
}

func (s *PostgresStore) FindPayment(ctx context.Context, id string) (models.Payment, error) {
	p, err := scanPayment(s.db.QueryRowContext(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Payment{}, sentinel.ErrNotFound
	}
	if err != nil {
		return models.Payment{}, fmt.Errorf("find payment: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) ListPayments(ctx context.Context) ([]models.Payment, error) {
	return list(ctx, s.db, `SELECT `+paymentColumns+` FROM payments ORDER BY created_at, id`, nil, scanPayment)
}

func (s *PostgresStore) UpdatePendingPayment(ctx context.Context, p models.Payment) error {
	query := `
		UPDATE payments SET
			amount = $2, status = $3, failure_reason = $4, gateway_reference = $5,
			redirect_url = $6, completed_at = $7
		WHERE id = $1 AND status = 'pending'`
	res, err := s.db.ExecContext(ctx, query,
		p.ID, p.Amount, string(p.Status), p.FailureReason, p.GatewayReference, p.RedirectURL, nullTime(p.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("rows affected: %w", err)
	} else if n == 0 {
		return s.conditionalMiss(ctx, "payments", p.ID)
	}
	return nil
}

// Subscriptions

const subscriptionColumns = `id, user_id, plan_id, status, start_date, end_date, auto_renew, payment_id, created_at`

func (s *PostgresStore) SaveSubscription(ctx context.Context, sub models.Subscription) error {
	query := `INSERT INTO subscriptions (` + subscriptionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := s.db.ExecContext(ctx, query,
		sub.ID, sub.UserID, sub.PlanID, sub.Status, sub.StartDate, sub.EndDate, sub.AutoRenew, sub.PaymentID, sub.CreatedAt)
	if err != nil {
		return translateWriteError("save subscription", err)
	}
	return nil
}

func (s *PostgresStore) ListSubscriptions(ctx context.Context) ([]models.Subscription, error) {
	return list(ctx, s.db, `SELECT `+subscriptionColumns+` FROM subscriptions ORDER BY created_at, id`, nil,
		func(row rowScanner) (models.Subscription, error) {
			var sub models.Subscription
			err := row.Scan(&sub.ID, &sub.UserID, &sub.PlanID, &sub.Status, &sub.StartDate, &sub.EndDate,
				&sub.AutoRenew, &sub.PaymentID, &sub.CreatedAt)
			return sub, err
		})
}

// Payouts

const payoutColumns = `id, payment_id, creator_id, amount, platform_fee, original_amount, rate, status, created_at, paid_at`

func scanPayout(row rowScanner) (models.CommissionPayout, error) {
	var (
		p      models.CommissionPayout
		status string
		paidAt sql.NullTime
	)
	err := row.Scan(&p.ID, &p.PaymentID, &p.CreatorID, &p.Amount, &p.PlatformFee, &p.OriginalAmount,
		&p.Rate, &status, &p.CreatedAt, &paidAt)
	if err != nil {
		return models.CommissionPayout{}, err
	}
	p.Status = models.PayoutStatus(status)
	p.PaidAt = timePtr(paidAt)
	return p, nil
}

func (s *PostgresStore) SavePayout(ctx context.Context, p models.CommissionPayout) error {
	query := `INSERT INTO commission_payouts (` + payoutColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.PaymentID, p.CreatorID, p.Amount, p.PlatformFee, p.OriginalAmount, p.Rate,
		string(p.Status), p.CreatedAt, nullTime(p.PaidAt))
	if err != nil {
		return translateWriteError("save payout", err)
	}
	return nil
}

func (s *PostgresStore) ListPayouts(ctx context.Context, filter models.PayoutFilter) ([]models.CommissionPayout, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}
	if filter.CreatorID != "" {
		args = append(args, filter.CreatorID)
		where = append(where, "creator_id = $"+strconv.Itoa(len(args)))
	}
	query := `SELECT ` + payoutColumns + ` FROM commission_payouts`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at, id`
	return list(ctx, s.db, query, args, scanPayout)
}

func (s *PostgresStore) MarkPayoutsPaid(ctx context.Context, ids []string, paidAt time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE commission_payouts SET status = 'paid', paid_at = $2 WHERE id = ANY($1) AND status = 'pending'`,
		ids, paidAt)
	if err != nil {
		return 0, fmt.Errorf("mark payouts paid: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

func list[T any](ctx context.Context, db *sql.DB, query string, args []any, scan func(rowScanner) (T, error)) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	defer rows.Close()

	out := make([]T, 0)
	for rows.Next() {
		v, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time.UTC()
	return &v
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

var _ Store = (*PostgresStore)(nil)
