package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics are the certificate domain collectors. Methods are nil-safe so
// tests can construct services without a registry.
type Metrics struct {
	Verifications        *prometheus.CounterVec
	VerificationDuration prometheus.Histogram
	AuditFailures        prometheus.Counter
	Issued               *prometheus.CounterVec
	IssuanceSkipped      *prometheus.CounterVec
	PersistFailures      prometheus.Counter
	SubscriberFailures   *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Verifications: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_certificate_verifications_total",
			Help: "Certificate verification lookups by outcome",
		}, []string{"outcome", "well_formed"}),
		VerificationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "campus_certificate_verification_duration_seconds",
			Help:    "Duration of certificate verification including the audit write",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		AuditFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "campus_certificate_audit_failures_total",
			Help: "Verification attempts that could not be written to the audit log",
		}),
		Issued: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_certificates_issued_total",
			Help: "Certificates issued by type and origin",
		}, []string{"type", "origin"}),
		IssuanceSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_certificate_issuance_skipped_total",
			Help: "Auto-issuance triggers that produced no certificate",
		}, []string{"type", "reason"}),
		PersistFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "campus_certificate_persist_failures_total",
			Help: "Issued certificates that could not be saved",
		}),
		SubscriberFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "campus_certificate_event_subscriber_failures_total",
			Help: "Event subscriber errors by subscriber",
		}, []string{"subscriber"}),
	}
}

func (m *Metrics) ObserveVerification(outcome string, wellFormed bool, start time.Time) {
	if m == nil {
		return
	}
	m.Verifications.WithLabelValues(outcome, strconv.FormatBool(wellFormed)).Inc()
	m.VerificationDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementAuditFailure() {
	if m == nil {
		return
	}
	m.AuditFailures.Inc()
}

func (m *Metrics) IncrementIssued(certType, origin string) {
	if m == nil {
		return
	}
	m.Issued.WithLabelValues(certType, origin).Inc()
}

func (m *Metrics) IncrementSkipped(certType, reason string) {
	if m == nil {
		return
	}
	m.IssuanceSkipped.WithLabelValues(certType, reason).Inc()
}

func (m *Metrics) IncrementPersistFailure() {
	if m == nil {
		return
	}
	m.PersistFailures.Inc()
}

func (m *Metrics) IncrementSubscriberFailure(subscriber string) {
	if m == nil {
		return
	}
	m.SubscriberFailures.WithLabelValues(subscriber).Inc()
}
