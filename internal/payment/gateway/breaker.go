package gateway

import (
	"context"
	"errors"
	"log/slog"

	"campus/pkg/platform/circuit"
)

// ErrCircuitOpen is returned without contacting the gateway while the
// breaker is open.
var ErrCircuitOpen = errors.New("gateway circuit open")

// Guarded fails fast once the wrapped gateway has errored repeatedly.
// Declined charges count as successes: only unreachable gateways trip it.
type Guarded struct {
	next    Gateway
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewGuarded(next Gateway, breaker *circuit.Breaker, logger *slog.Logger) *Guarded {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Guarded{next: next, breaker: breaker, logger: logger}
}

func (g *Guarded) Name() string { return g.next.Name() }

func (g *Guarded) Charge(ctx context.Context, req ChargeRequest) (ChargeResult, error) {
	if !g.breaker.Allow() {
		return ChargeResult{}, ErrCircuitOpen
	}
	res, err := g.next.Charge(ctx, req)
	if err != nil {
		// A cancelled caller says nothing about gateway health.
		if errors.Is(err, context.Canceled) {
			g.breaker.Release()
			return res, err
		}
		if change := g.breaker.RecordFailure(); change.Opened {
			g.logger.WarnContext(ctx, "payment gateway circuit opened",
				"gateway", g.next.Name(),
				"breaker", g.breaker.Name(),
				"error", err,
			)
		}
		return res, err
	}
	if change := g.breaker.RecordSuccess(); change.Closed {
		g.logger.InfoContext(ctx, "payment gateway circuit closed", "gateway", g.next.Name())
	}
	return res, nil
}
