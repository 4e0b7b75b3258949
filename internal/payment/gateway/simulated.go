package gateway

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"campus/internal/payment/models"
)

// Simulated waits out a fixed delay and then succeeds with probability
// successRate.
type Simulated struct {
	delay       time.Duration
	successRate float64
	draw        func() float64
}

type SimulatedOption func(*Simulated)

// WithDraw replaces the uniform [0,1) source.
func WithDraw(fn func() float64) SimulatedOption {
	return func(s *Simulated) {
		s.draw = fn
	}
}

func NewSimulated(delay time.Duration, successRate float64, opts ...SimulatedOption) *Simulated {
	s := &Simulated{delay: delay, successRate: successRate, draw: rand.Float64}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Simulated) Name() string { return NameSimulated }

func (s *Simulated) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if s.delay > 0 {
		timer := time.NewTimer(s.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ChargeResult{}, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return ChargeResult{}, err
	}

	if s.draw() < s.successRate {
		return ChargeResult{Status: models.PaymentCompleted, Reference: "sim_" + uuid.NewString()}, nil
	}
	return ChargeResult{Status: models.PaymentFailed, FailureReason: models.ReasonDeclined}, nil
}
