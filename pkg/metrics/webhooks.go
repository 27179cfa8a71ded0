package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// WebhookMetrics records ingest outcomes per payment provider.
type WebhookMetrics struct {
	duration   *prometheus.HistogramVec
	processed  *prometheus.CounterVec
	duplicates *prometheus.CounterVec
	rejected   *prometheus.CounterVec
	anomalies  *prometheus.CounterVec
}

// NewWebhookMetrics registers the webhook ingest metrics on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "webhook_ingest_duration_seconds",
		Help:    "Duration of webhook ingest handling in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"provider"})
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_processed",
		Help: "Webhook events that committed a state change.",
	}, []string{"provider", "event_type"})
	duplicates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_duplicate",
		Help: "Webhook deliveries skipped as already-seen.",
	}, []string{"provider"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_rejected",
		Help: "Webhook deliveries rejected before processing.",
	}, []string{"provider", "reason"})
	anomalies := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_transition_anomalies",
		Help: "Webhook events that arrived against a terminal reservation.",
	}, []string{"provider"})
	reg.MustRegister(duration, processed, duplicates, rejected, anomalies)
	return &WebhookMetrics{
		duration:   duration,
		processed:  processed,
		duplicates: duplicates,
		rejected:   rejected,
		anomalies:  anomalies,
	}
}

// ObserveDuration records the handling time for the provider's delivery.
func (m *WebhookMetrics) ObserveDuration(provider string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(provider)).Observe(d.Seconds())
}

// IncProcessed increments the processed counter for a provider/event pair.
func (m *WebhookMetrics) IncProcessed(provider, eventType string) {
	if m == nil || m.processed == nil {
		return
	}
	m.processed.WithLabelValues(normalizeLabel(provider), normalizeLabel(eventType)).Inc()
}

// IncDuplicate increments the duplicate-delivery counter.
func (m *WebhookMetrics) IncDuplicate(provider string) {
	if m == nil || m.duplicates == nil {
		return
	}
	m.duplicates.WithLabelValues(normalizeLabel(provider)).Inc()
}

// IncRejected increments the rejection counter with the given reason.
func (m *WebhookMetrics) IncRejected(provider, reason string) {
	if m == nil || m.rejected == nil {
		return
	}
	m.rejected.WithLabelValues(normalizeLabel(provider), normalizeLabel(reason)).Inc()
}

// IncAnomaly increments the terminal-state anomaly counter.
func (m *WebhookMetrics) IncAnomaly(provider string) {
	if m == nil || m.anomalies == nil {
		return
	}
	m.anomalies.WithLabelValues(normalizeLabel(provider)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
