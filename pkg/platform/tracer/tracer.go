// Package tracer is the span abstraction used by the certificate and payment
// services. OTelTracer backs it with OpenTelemetry; NoopTracer serves tests.
package tracer

import (
	"context"
	"time"
)

// Span is an in-flight operation. End must be called exactly once.
type Span interface {
	End(err error)
	SetAttributes(attrs ...Attribute)
	AddEvent(name string, attrs ...Attribute)
}

// Tracer starts spans. Implementations are safe for concurrent use.
//
//	ctx, span := t.Start(ctx, tracer.SpanVerify, tracer.String(tracer.AttrCertificateID, id))
//	defer func() { span.End(err) }()
type Tracer interface {
	Start(ctx context.Context, name string, attrs ...Attribute) (context.Context, Span)
}

type Attribute struct {
	Key   string
	Value any
}

func String(key, value string) Attribute          { return Attribute{Key: key, Value: value} }
func Bool(key string, value bool) Attribute       { return Attribute{Key: key, Value: value} }
func Int64(key string, value int64) Attribute     { return Attribute{Key: key, Value: value} }
func Float64(key string, value float64) Attribute { return Attribute{Key: key, Value: value} }

// Duration records value in milliseconds.
func Duration(key string, value time.Duration) Attribute {
	return Attribute{Key: key, Value: value.Milliseconds()}
}

const (
	SpanVerify         = "certificate.verify"
	SpanIssue          = "certificate.issue"
	SpanProcessPayment = "payment.process"
	SpanGatewayCharge  = "payment.gateway.charge"
	SpanProcessPayouts = "commission.payouts"
	SpanApplyCoupon    = "coupon.apply"
)

const (
	AttrCertificateID   = "certificate.id"
	AttrCertificateType = "certificate.type"
	AttrVerifyValid     = "verify.valid"
	AttrIssued          = "issuance.issued"
	AttrPaymentID       = "payment.id"
	AttrPaymentStatus   = "payment.status"
	AttrGateway         = "payment.gateway"
	AttrPayoutCount     = "payout.count"
	AttrCouponCode      = "coupon.code"
)

const (
	EventAuditRecorded = "audit.recorded"
	EventAuditFailed   = "audit.failed"
	EventPersistFailed = "persist.failed"
)
