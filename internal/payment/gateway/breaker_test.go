package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campus/internal/payment/models"
	"campus/pkg/platform/circuit"
)

type flakyGateway struct {
	calls int
	err   error
}

func (f *flakyGateway) Name() string { return "flaky" }

func (f *flakyGateway) Charge(context.Context, ChargeRequest) (ChargeResult, error) {
	f.calls++
	if f.err != nil {
		return ChargeResult{}, f.err
	}
	return ChargeResult{Status: models.PaymentFailed, FailureReason: "declined"}, nil
}

func TestGuardedFailsFastOnceOpen(t *testing.T) {
	next := &flakyGateway{err: errors.New("connection refused")}
	g := NewGuarded(next, circuit.New("payments", circuit.WithFailureThreshold(2)), nil)
	ctx := context.Background()

	for range 2 {
		_, err := g.Charge(ctx, charge("10"))
		require.Error(t, err)
	}
	_, err := g.Charge(ctx, charge("10"))
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, next.calls)
	assert.Equal(t, "flaky", g.Name())
}

func TestGuardedDeclinesDoNotTrip(t *testing.T) {
	next := &flakyGateway{}
	g := NewGuarded(next, circuit.New("payments", circuit.WithFailureThreshold(1)), nil)

	for range 3 {
		res, err := g.Charge(context.Background(), charge("10"))
		require.NoError(t, err)
		assert.Equal(t, models.PaymentFailed, res.Status)
	}
	assert.Equal(t, 3, next.calls)
}

type scriptedGateway struct {
	errs []error
}

func (g *scriptedGateway) Name() string { return "scripted" }

func (g *scriptedGateway) Charge(context.Context, ChargeRequest) (ChargeResult, error) {
	err := g.errs[0]
	if len(g.errs) > 1 {
		g.errs = g.errs[1:]
	}
	if err != nil {
		return ChargeResult{}, err
	}
	return ChargeResult{Status: models.PaymentCompleted, Reference: "ok"}, nil
}

func TestGuardedCancelledProbeDoesNotWedgeCircuit(t *testing.T) {
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	b := circuit.New("payments",
		circuit.WithFailureThreshold(1),
		circuit.WithCooldown(time.Second),
		circuit.WithClock(func() time.Time { return now }),
	)
	g := NewGuarded(&scriptedGateway{errs: []error{errors.New("connection refused"), context.Canceled, nil}}, b, nil)
	ctx := context.Background()

	_, err := g.Charge(ctx, charge("10"))
	require.Error(t, err)
	require.Equal(t, circuit.StateOpen, b.State())

	now = now.Add(2 * time.Second)
	_, err = g.Charge(ctx, charge("10"))
	require.ErrorIs(t, err, context.Canceled)

	now = now.Add(time.Hour)
	res, err := g.Charge(ctx, charge("10"))
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, res.Status)
	assert.Equal(t, circuit.StateClosed, b.State())
}

func TestGuardedIgnoresCancellation(t *testing.T) {
	next := &flakyGateway{err: context.Canceled}
	b := circuit.New("payments", circuit.WithFailureThreshold(1))
	g := NewGuarded(next, b, nil)

	_, err := g.Charge(context.Background(), charge("10"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, circuit.StateClosed, b.State())
}
