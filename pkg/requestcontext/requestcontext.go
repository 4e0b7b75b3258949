// Package requestcontext carries request-scoped values (request ID, client
// metadata, authenticated principal) through context.Context.
package requestcontext

import (
	"context"
	"slices"
)

type (
	contextKeyRequestID struct{}
	contextKeyClientIP  struct{}
	contextKeyUserAgent struct{}
	contextKeyClient    struct{}
	contextKeyPrincipal struct{}
)

// Principal is the authenticated caller extracted from a bearer token.
type Principal struct {
	Subject     string
	Permissions []string
}

// Can reports whether the principal holds the given permission.
func (p Principal) Can(permission string) bool {
	return slices.Contains(p.Permissions, permission)
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID{}, requestID)
}

// RequestID returns the request correlation ID, or "" outside HTTP requests.
func RequestID(ctx context.Context) string {
	if v, ok := ctx.Value(contextKeyRequestID{}).(string); ok {
		return v
	}
	return ""
}

// WithClientMetadata stores the caller's network origin and user agent.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, contextKeyClientIP{}, clientIP)
	return context.WithValue(ctx, contextKeyUserAgent{}, userAgent)
}

func ClientIP(ctx context.Context) string {
	if v, ok := ctx.Value(contextKeyClientIP{}).(string); ok {
		return v
	}
	return ""
}

func UserAgent(ctx context.Context) string {
	if v, ok := ctx.Value(contextKeyUserAgent{}).(string); ok {
		return v
	}
	return ""
}

// WithClientDescriptor stores a display form of the caller's user agent,
// such as "Chrome on Linux".
func WithClientDescriptor(ctx context.Context, descriptor string) context.Context {
	return context.WithValue(ctx, contextKeyClient{}, descriptor)
}

func ClientDescriptor(ctx context.Context) string {
	if v, ok := ctx.Value(contextKeyClient{}).(string); ok {
		return v
	}
	return ""
}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, contextKeyPrincipal{}, p)
}

// PrincipalFrom returns the authenticated principal and whether one is present.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(contextKeyPrincipal{}).(Principal)
	return p, ok
}
