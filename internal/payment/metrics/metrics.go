package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the payment domain collectors. Methods are nil-safe.
type Metrics struct {
	Payments           *prometheus.CounterVec
	GatewayDuration    *prometheus.HistogramVec
	CouponApplications *prometheus.CounterVec
	PayoutsPaid        *prometheus.CounterVec
	CommissionFailures prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Payments: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_payments_total",
			Help: "Processed payments by final status and gateway",
		}, []string{"status", "gateway"}),
		GatewayDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "campus_payment_gateway_duration_seconds",
			Help:    "Duration of gateway charge calls",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"gateway"}),
		CouponApplications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_coupon_applications_total",
			Help: "Coupon validations and applications by outcome",
		}, []string{"operation", "outcome"}),
		PayoutsPaid: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_commission_payouts_paid_total",
			Help: "Commission payouts moved to paid by trigger",
		}, []string{"trigger"}),
		CommissionFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "campus_commission_failures_total",
			Help: "Completed payments whose commission could not be recorded",
		}),
	}
}

func (m *Metrics) IncrementPayment(status, gateway string) {
	if m == nil {
		return
	}
	m.Payments.WithLabelValues(status, gateway).Inc()
}

func (m *Metrics) ObserveGateway(gateway string, start time.Time) {
	if m == nil {
		return
	}
	m.GatewayDuration.WithLabelValues(gateway).Observe(time.Since(start).Seconds())
}

// IncrementCoupon counts one coupon operation. outcome is "ok" or the
// rejection reason label.
func (m *Metrics) IncrementCoupon(operation, outcome string) {
	if m == nil {
		return
	}
	m.CouponApplications.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) AddPayoutsPaid(trigger string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.PayoutsPaid.WithLabelValues(trigger).Add(float64(n))
}

func (m *Metrics) IncrementCommissionFailure() {
	if m == nil {
		return
	}
	m.CommissionFailures.Inc()
}
