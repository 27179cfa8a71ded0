package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// IntakeMetrics records deposit order intake outcomes.
type IntakeMetrics struct {
	duration *prometheus.HistogramVec
	started  *prometheus.CounterVec
	refused  *prometheus.CounterVec
}

// NewIntakeMetrics registers the intake metrics on the provided registerer.
func NewIntakeMetrics(reg prometheus.Registerer) *IntakeMetrics {
	if reg == nil {
		return &IntakeMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "intake_duration_seconds",
		Help:    "Duration of deposit order intake in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})
	started := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "intake_orders_started",
		Help: "Deposit orders created with the payment provider.",
	}, []string{"provider"})
	refused := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "intake_orders_refused",
		Help: "Intake attempts refused before an order was created.",
	}, []string{"reason"})
	reg.MustRegister(duration, started, refused)
	return &IntakeMetrics{
		duration: duration,
		started:  started,
		refused:  refused,
	}
}

// ObserveDuration records how long the intake request took end to end.
func (m *IntakeMetrics) ObserveDuration(provider string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(provider)).Observe(d.Seconds())
}

// IncStarted increments the created-order counter for the provider.
func (m *IntakeMetrics) IncStarted(provider string) {
	if m == nil || m.started == nil {
		return
	}
	m.started.WithLabelValues(normalizeLabel(provider)).Inc()
}

// IncRefused increments the refusal counter with the given reason.
func (m *IntakeMetrics) IncRefused(reason string) {
	if m == nil || m.refused == nil {
		return
	}
	m.refused.WithLabelValues(normalizeLabel(reason)).Inc()
}
