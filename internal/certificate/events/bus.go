package events

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"campus/internal/certificate/metrics"
)

// ErrClosed is returned by Publish once the bus is closed.
var ErrClosed = errors.New("event bus is closed")

const drainTimeout = 10 * time.Second

type Option func(*Bus)

// Bus delivers each event to every subscriber. Synchronous by default; with
// WithAsync, Publish enqueues and Run delivers on a single worker.
type Bus struct {
	logger  *slog.Logger
	metrics *metrics.Metrics

	subsMu      sync.RWMutex
	subscribers []Subscriber

	// mu guards closed; Publish holds it shared while sending so Close
	// never closes the queue under a sender.
	mu     sync.RWMutex
	closed bool

	queue     chan Event
	done      chan struct{}
	closeOnce sync.Once
}

func NewBus(opts ...Option) *Bus {
	b := &Bus{done: make(chan struct{})}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// WithAsync queues up to buffer events for Run. Zero keeps delivery inline.
func WithAsync(buffer int) Option {
	return func(b *Bus) {
		if buffer > 0 {
			b.queue = make(chan Event, buffer)
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(b *Bus) {
		b.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Bus) {
		b.metrics = m
	}
}

func (b *Bus) Subscribe(subscribers ...Subscriber) {
	b.subsMu.Lock()
	defer b.subsMu.Unlock()
	b.subscribers = append(b.subscribers, subscribers...)
}

// Publish delivers e, or enqueues it in async mode. It blocks while the queue
// is full until ctx ends or the bus closes.
func (b *Bus) Publish(ctx context.Context, e Event) error {
	if b.queue == nil {
		b.mu.RLock()
		closed := b.closed
		b.mu.RUnlock()
		if closed {
			return ErrClosed
		}
		b.dispatch(ctx, e)
		return nil
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.closed {
		return ErrClosed
	}
	select {
	case b.queue <- e:
		return nil
	case <-b.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run delivers queued events until ctx ends, then closes the bus and drains
// what is left. In synchronous mode it only waits for ctx.
func (b *Bus) Run(ctx context.Context) error {
	if b.queue == nil {
		<-ctx.Done()
		b.Close()
		return nil
	}
	for {
		select {
		case e, ok := <-b.queue:
			if !ok {
				return nil
			}
			b.dispatch(context.WithoutCancel(ctx), e)
		case <-ctx.Done():
			b.Close()
			b.drain(context.WithoutCancel(ctx))
			return nil
		}
	}
}

// Close stops accepting events. Queued events are still delivered by Run.
func (b *Bus) Close() {
	b.closeOnce.Do(func() {
		close(b.done)
		b.mu.Lock()
		b.closed = true
		if b.queue != nil {
			close(b.queue)
		}
		b.mu.Unlock()
	})
}

func (b *Bus) drain(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, drainTimeout)
	defer cancel()
	for e := range b.queue {
		if ctx.Err() != nil {
			b.warn(ctx, "dropping queued event after drain timeout", e, ctx.Err())
			continue
		}
		b.dispatch(ctx, e)
	}
}

func (b *Bus) dispatch(ctx context.Context, e Event) {
	b.subsMu.RLock()
	subscribers := append([]Subscriber(nil), b.subscribers...)
	b.subsMu.RUnlock()

	for _, s := range subscribers {
		if err := s.Handle(ctx, e); err != nil {
			b.metrics.IncrementSubscriberFailure(s.Name())
			b.warn(ctx, "event subscriber failed", e, err, "subscriber", s.Name())
		}
	}
}

func (b *Bus) warn(ctx context.Context, msg string, e Event, err error, args ...any) {
	if b.logger == nil {
		return
	}
	args = append(args,
		"event_id", e.ID,
		"event_type", e.Type,
		"certificate_id", e.Certificate.CertificateID,
		"error", err,
	)
	b.logger.WarnContext(ctx, msg, args...)
}
