package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveVerification("valid", true, time.Now())
	m.ObserveVerification("not_found", false, time.Now())
	m.ObserveVerification("not_found", false, time.Now())
	m.IncrementIssued("attendance", "auto")
	m.IncrementSkipped("exam", "below_threshold")
	m.IncrementAuditFailure()
	m.IncrementPersistFailure()
	m.IncrementSubscriberFailure("kafka")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Verifications.WithLabelValues("valid", "true")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Verifications.WithLabelValues("not_found", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Issued.WithLabelValues("attendance", "auto")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.IssuanceSkipped.WithLabelValues("exam", "below_threshold")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AuditFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.PersistFailures))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SubscriberFailures.WithLabelValues("kafka")))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveVerification("valid", true, time.Now())
		m.IncrementIssued("exam", "manual")
		m.IncrementSkipped("exam", "disabled")
		m.IncrementAuditFailure()
		m.IncrementPersistFailure()
		m.IncrementSubscriberFailure("email")
	})
}
