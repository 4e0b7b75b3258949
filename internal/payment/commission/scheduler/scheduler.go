// Package scheduler pays eligible commission payouts on the schedule set in
// the commission settings.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"campus/internal/payment/commission"
	"campus/internal/settings"
)

// Payer pays every eligible payout.
type Payer interface {
	ProcessEligible(ctx context.Context, trigger string) (int, error)
}

// Scheduler wraps a cron runner holding a single payout job.
type Scheduler struct {
	payer    Payer
	cron     *cron.Cron
	timeout  time.Duration
	location *time.Location
	logger   *slog.Logger

	mu       sync.Mutex
	entry    cron.EntryID
	schedule settings.Schedule
}

type Option func(*Scheduler)

// WithTimeout bounds a single payout run when greater than zero.
func WithTimeout(d time.Duration) Option {
	return func(s *Scheduler) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithLocation sets the zone cron specs are read in. Defaults to UTC.
func WithLocation(loc *time.Location) Option {
	return func(s *Scheduler) {
		if loc != nil {
			s.location = loc
		}
	}
}

func New(payer Payer, opts ...Option) *Scheduler {
	s := &Scheduler{
		payer:    payer,
		timeout:  5 * time.Minute,
		location: time.UTC,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.cron = newCron(s.location, s.logger)
	return s
}

func newCron(loc *time.Location, logger *slog.Logger) *cron.Cron {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelError))
	return cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
}

// Reload replaces the payout job with one running on schedule.
func (s *Scheduler) Reload(schedule settings.Schedule) error {
	spec, ok := schedule.CronSpec()
	if !ok {
		return fmt.Errorf("unknown payment schedule %q", schedule)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entry != 0 && s.schedule == schedule {
		return nil
	}
	id, err := s.cron.AddFunc(spec, s.run)
	if err != nil {
		return fmt.Errorf("schedule payouts %q: %w", spec, err)
	}
	if s.entry != 0 {
		s.cron.Remove(s.entry)
	}
	s.entry = id
	s.schedule = schedule
	s.logger.Info("payout schedule set", "payment_schedule", schedule, "cron", spec)
	return nil
}

// OnCommissionChange follows settings updates. It matches
// settings.CommissionListener.
func (s *Scheduler) OnCommissionChange(ctx context.Context, cs settings.CommissionSettings) {
	if err := s.Reload(cs.PaymentSchedule); err != nil {
		s.logger.ErrorContext(ctx, "failed to reload payout schedule", "error", err)
	}
}

// Next is the next time the payout job fires, zero before Start or Reload.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entry == 0 {
		return time.Time{}
	}
	return s.cron.Entry(s.entry).Next
}

// Start runs the cron loop until ctx is cancelled, then waits for a
// running payout job to finish.
func (s *Scheduler) Start(ctx context.Context) error {
	s.cron.Start()
	<-ctx.Done()
	<-s.cron.Stop().Done()
	return ctx.Err()
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.ErrorContext(ctx, "scheduled payout run failed", "error", err)
	}
}

// RunOnce pays the currently eligible payouts.
func (s *Scheduler) RunOnce(ctx context.Context) (int, error) {
	return s.payer.ProcessEligible(ctx, commission.TriggerScheduled)
}
