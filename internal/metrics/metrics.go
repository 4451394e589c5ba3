// Package metrics holds the prometheus collectors for id generation and
// event publishing.
package metrics

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for IDGenerationTotal.
const (
	OutcomeSuccess   = "success"
	OutcomeRetry     = "retry"
	OutcomeExhausted = "exhausted"
	OutcomeError     = "error"
)

// Metrics holds the application collectors.
type Metrics struct {
	// Id generation, labeled by outcome.
	IDGenerationTotal    *prometheus.CounterVec
	IDGenerationDuration prometheus.Histogram
	IDGenerationAttempts prometheus.Histogram

	// Sequence counter advances, labeled by inventory.
	SequenceAdvances *prometheus.CounterVec

	// Event publishing, labeled by topic and status.
	EventPublishTotal *prometheus.CounterVec

	// Export runs, labeled by destination and status.
	ExportTotal    *prometheus.CounterVec
	ExportDuration prometheus.Histogram
}

// New creates the collectors and registers them with reg. Collectors that are
// already registered (for example by an earlier New against the same
// registry) are reused. A nil reg leaves the collectors unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		IDGenerationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invtrack",
			Name:      "id_generation_total",
			Help:      "Custom id generation attempts by outcome.",
		}, []string{"outcome"}),

		IDGenerationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "invtrack",
			Name:      "id_generation_duration_seconds",
			Help:      "Time to generate and persist an id, retries included.",
			Buckets:   prometheus.DefBuckets,
		}),

		IDGenerationAttempts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "invtrack",
			Name:      "id_generation_attempts",
			Help:      "Transactions needed per generated id.",
			Buckets:   []float64{1, 2, 3},
		}),

		SequenceAdvances: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invtrack",
			Name:      "sequence_advances_total",
			Help:      "Committed sequence counter advances.",
		}, []string{"inventory_id"}),

		EventPublishTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invtrack",
			Name:      "event_publish_total",
			Help:      "Event publish operations by topic and status.",
		}, []string{"topic", "status"}),

		ExportTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "invtrack",
			Name:      "export_total",
			Help:      "Export runs by destination and status.",
		}, []string{"destination", "status"}),

		ExportDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "invtrack",
			Name:      "export_duration_seconds",
			Help:      "Export run duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}),
	}

	if reg != nil {
		m.IDGenerationTotal = registerOrGet(reg, m.IDGenerationTotal)
		m.IDGenerationDuration = registerOrGet(reg, m.IDGenerationDuration)
		m.IDGenerationAttempts = registerOrGet(reg, m.IDGenerationAttempts)
		m.SequenceAdvances = registerOrGet(reg, m.SequenceAdvances)
		m.EventPublishTotal = registerOrGet(reg, m.EventPublishTotal)
		m.ExportTotal = registerOrGet(reg, m.ExportTotal)
		m.ExportDuration = registerOrGet(reg, m.ExportDuration)
	}
	return m
}

// registerOrGet registers c, returning the existing collector if one with the
// same description is already registered.
func registerOrGet[C prometheus.Collector](reg prometheus.Registerer, c C) C {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing
			}
		}
		panic(err)
	}
	return c
}

// ObserveIDGeneration records the end of one id generation call.
func (m *Metrics) ObserveIDGeneration(outcome string, attempts int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.IDGenerationTotal.WithLabelValues(outcome).Inc()
	if attempts > 0 {
		m.IDGenerationAttempts.Observe(float64(attempts))
	}
	m.IDGenerationDuration.Observe(elapsed.Seconds())
}

// RecordRetry counts an attempt that failed and will be retried.
func (m *Metrics) RecordRetry() {
	if m == nil {
		return
	}
	m.IDGenerationTotal.WithLabelValues(OutcomeRetry).Inc()
}

// RecordSequenceAdvance counts committed counter advances for an inventory.
func (m *Metrics) RecordSequenceAdvance(inventoryID string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.SequenceAdvances.WithLabelValues(inventoryID).Add(float64(n))
}

// RecordPublish counts one event publish.
func (m *Metrics) RecordPublish(topic string, err error) {
	if m == nil {
		return
	}
	m.EventPublishTotal.WithLabelValues(topic, status(err)).Inc()
}

// ObserveExport records one export run.
func (m *Metrics) ObserveExport(destination string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.ExportTotal.WithLabelValues(destination, status(err)).Inc()
	m.ExportDuration.Observe(elapsed.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
