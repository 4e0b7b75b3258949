// Package settings holds the administrator-tunable rules for certificate
// auto-issuance and creator commissions.
package settings

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"campus/internal/platform/config"
	dErrors "campus/pkg/domain-errors"
	"campus/pkg/platform/middleware/requesttime"
	"campus/pkg/platform/sentinel"
)

// CertificateSettings gates the auto-issuance triggers.
type CertificateSettings struct {
	AutoIssueAttendance    bool      `json:"auto_issue_attendance"`
	AutoIssueExam          bool      `json:"auto_issue_exam"`
	AutoIssuePath          bool      `json:"auto_issue_path"`
	AttendanceThreshold    float64   `json:"attendance_threshold"`
	ExamPassingScore       float64   `json:"exam_passing_score"`
	PathCompletionRequired float64   `json:"path_completion_required"`
	UpdatedAt              time.Time `json:"updated_at,omitzero"`
}

// DefaultCertificateSettings are the built-in thresholds, used when neither
// configuration nor the store can supply settings.
func DefaultCertificateSettings() CertificateSettings {
	return CertificateSettings{
		AutoIssueAttendance:    true,
		AutoIssueExam:          true,
		AutoIssuePath:          true,
		AttendanceThreshold:    80,
		ExamPassingScore:       70,
		PathCompletionRequired: 100,
	}
}

func (s CertificateSettings) Validate() error {
	for name, v := range map[string]float64{
		"attendance_threshold":     s.AttendanceThreshold,
		"exam_passing_score":       s.ExamPassingScore,
		"path_completion_required": s.PathCompletionRequired,
	} {
		if v < 0 || v > 100 {
			return dErrors.New(dErrors.CodeValidation, name+" must be between 0 and 100")
		}
	}
	return nil
}

type Schedule string

const (
	ScheduleWeekly    Schedule = "weekly"
	ScheduleMonthly   Schedule = "monthly"
	ScheduleQuarterly Schedule = "quarterly"
)

// CronSpec is the standard five-field schedule payouts run on.
func (s Schedule) CronSpec() (string, bool) {
	switch s {
	case ScheduleWeekly:
		return "0 0 * * 1", true
	case ScheduleMonthly:
		return "0 0 1 * *", true
	case ScheduleQuarterly:
		return "0 0 1 1,4,7,10 *", true
	default:
		return "", false
	}
}

type PaymentMethod string

const (
	MethodBankTransfer PaymentMethod = "bank_transfer"
	MethodPayPal       PaymentMethod = "paypal"
	MethodStripe       PaymentMethod = "stripe"
)

type TaxHandling string

const (
	TaxCreatorResponsible TaxHandling = "creator_responsible"
	TaxPlatformWithholds  TaxHandling = "platform_withholds"
)

// CommissionSettings decides the creator share and when payouts are made.
// DefaultRate is the creator's percentage of each payment.
type CommissionSettings struct {
	DefaultRate     decimal.Decimal `json:"default_rate"`
	MinimumPayout   decimal.Decimal `json:"minimum_payout"`
	PaymentSchedule Schedule        `json:"payment_schedule"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	TaxHandling     TaxHandling     `json:"tax_handling"`
	UpdatedAt       time.Time       `json:"updated_at,omitzero"`
}

func (s CommissionSettings) Validate() error {
	if s.DefaultRate.IsNegative() || s.DefaultRate.GreaterThan(decimal.NewFromInt(100)) {
		return dErrors.New(dErrors.CodeValidation, "default_rate must be between 0 and 100")
	}
	if s.MinimumPayout.IsNegative() {
		return dErrors.New(dErrors.CodeValidation, "minimum_payout must not be negative")
	}
	if _, ok := s.PaymentSchedule.CronSpec(); !ok {
		return dErrors.New(dErrors.CodeValidation, "payment_schedule must be one of [weekly monthly quarterly]")
	}
	switch s.PaymentMethod {
	case MethodBankTransfer, MethodPayPal, MethodStripe:
	default:
		return dErrors.New(dErrors.CodeValidation, "payment_method must be one of [bank_transfer paypal stripe]")
	}
	switch s.TaxHandling {
	case TaxCreatorResponsible, TaxPlatformWithholds:
	default:
		return dErrors.New(dErrors.CodeValidation, "tax_handling must be one of [creator_responsible platform_withholds]")
	}
	return nil
}

// Defaults builds the initial settings from configuration.
func Defaults(certs config.Certificates, commission config.Commission) (CertificateSettings, CommissionSettings) {
	return CertificateSettings{
			AutoIssueAttendance:    certs.AutoIssueAttendance,
			AutoIssueExam:          certs.AutoIssueExam,
			AutoIssuePath:          certs.AutoIssuePath,
			AttendanceThreshold:    float64(certs.AttendanceThreshold),
			ExamPassingScore:       float64(certs.ExamPassingScore),
			PathCompletionRequired: float64(certs.PathCompletionRequired),
		}, CommissionSettings{
			DefaultRate:     decimal.NewFromFloat(commission.DefaultRate),
			MinimumPayout:   decimal.NewFromFloat(commission.MinimumPayout),
			PaymentSchedule: Schedule(commission.PaymentSchedule),
			PaymentMethod:   PaymentMethod(commission.PaymentMethod),
			TaxHandling:     TaxHandling(commission.TaxHandling),
		}
}

// Store persists the two settings documents. Unset documents return
// sentinel.ErrNotFound.
type Store interface {
	Certificate(ctx context.Context) (CertificateSettings, error)
	SaveCertificate(ctx context.Context, s CertificateSettings) error
	Commission(ctx context.Context) (CommissionSettings, error)
	SaveCommission(ctx context.Context, s CommissionSettings) error
}

// CommissionListener is told about every saved commission settings change.
type CommissionListener func(ctx context.Context, s CommissionSettings)

type Option func(*Service)

// Service reads settings with configured fallbacks and validates updates.
type Service struct {
	store               Store
	certificateDefaults CertificateSettings
	commissionDefaults  CommissionSettings
	logger              *slog.Logger

	mu        sync.RWMutex
	listeners []CommissionListener
}

func NewService(store Store, certDefaults CertificateSettings, commissionDefaults CommissionSettings, opts ...Option) *Service {
	s := &Service{
		store:               store,
		certificateDefaults: certDefaults,
		commissionDefaults:  commissionDefaults,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// OnCommissionChange registers fn to run after each commission update.
func (s *Service) OnCommissionChange(fn CommissionListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// Certificate returns the stored settings or the defaults when none are stored.
func (s *Service) Certificate(ctx context.Context) (CertificateSettings, error) {
	stored, err := s.store.Certificate(ctx)
	if errors.Is(err, sentinel.ErrNotFound) {
		return s.certificateDefaults, nil
	}
	if err != nil {
		return CertificateSettings{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read certificate settings")
	}
	return stored, nil
}

func (s *Service) UpdateCertificate(ctx context.Context, next CertificateSettings) (CertificateSettings, error) {
	if err := next.Validate(); err != nil {
		return CertificateSettings{}, err
	}
	next.UpdatedAt = requesttime.Now(ctx).UTC()
	if err := s.store.SaveCertificate(ctx, next); err != nil {
		return CertificateSettings{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save certificate settings")
	}
	s.log(ctx, "certificate settings updated")
	return next, nil
}

// Commission returns the stored settings or the defaults when none are stored.
func (s *Service) Commission(ctx context.Context) (CommissionSettings, error) {
	stored, err := s.store.Commission(ctx)
	if errors.Is(err, sentinel.ErrNotFound) {
		return s.commissionDefaults, nil
	}
	if err != nil {
		return CommissionSettings{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to read commission settings")
	}
	return stored, nil
}

func (s *Service) UpdateCommission(ctx context.Context, next CommissionSettings) (CommissionSettings, error) {
	if err := next.Validate(); err != nil {
		return CommissionSettings{}, err
	}
	next.UpdatedAt = requesttime.Now(ctx).UTC()
	if err := s.store.SaveCommission(ctx, next); err != nil {
		return CommissionSettings{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save commission settings")
	}
	s.log(ctx, "commission settings updated", "payment_schedule", next.PaymentSchedule)

	s.mu.RLock()
	listeners := append([]CommissionListener(nil), s.listeners...)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(ctx, next)
	}
	return next, nil
}

func (s *Service) log(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, msg, args...)
	}
}
