// Package requesttime pins a single "now" per request so every timestamp a
// request produces (issue dates, audit attempts, payment completion) agrees.
package requesttime

import (
	"context"
	"net/http"
	"time"
)

type contextKeyRequestTime struct{}

// Middleware captures the request start time.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		next.ServeHTTP(w, r.WithContext(WithTime(r.Context(), time.Now())))
	})
}

// Now returns the request-scoped time, or time.Now outside a request
// (scheduled jobs, event subscribers, CLI).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(contextKeyRequestTime{}).(time.Time); ok {
		return t
	}
	return time.Now()
}

// Today returns the UTC calendar date of Now with the clock zeroed.
func Today(ctx context.Context) time.Time {
	y, m, d := Now(ctx).UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WithTime fixes "now" for tests and batch jobs.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, contextKeyRequestTime{}, t)
}
