// Package metrics exposes prometheus counters for event processing, delivery
// and the expiry scan.
package metrics

import (
	"net/http"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "loan_notifier"

type notifierMetrics struct {
	events         *prometheus.CounterVec
	deliveries     *prometheus.CounterVec
	scanDispatches *prometheus.CounterVec
	scanRejected   *prometheus.CounterVec
	scanRuns       *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	registry    *notifierMetrics
)

// Notifier returns the process-wide metrics registry.
func Notifier() *notifierMetrics {
	metricsOnce.Do(func() {
		registry = &notifierMetrics{
			events: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Loan events handled, segmented by event type and outcome.",
			}, []string{"event_type", "outcome"}),
			deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "deliveries_total",
				Help:      "Notification deliveries attempted, segmented by channel and outcome.",
			}, []string{"channel", "outcome"}),
			scanDispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "expiry_scan",
				Name:      "dispatches_total",
				Help:      "Expiry events dispatched by the scanner.",
			}, []string{"event_type"}),
			scanRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "expiry_scan",
				Name:      "rejected_total",
				Help:      "Expiry events skipped because the loan record cannot be notified.",
			}, []string{"event_type"}),
			scanRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "expiry_scan",
				Name:      "runs_total",
				Help:      "Expiry scan runs, segmented by outcome.",
			}, []string{"outcome"}),
		}
		prometheus.MustRegister(registry.events, registry.deliveries, registry.scanDispatches, registry.scanRejected, registry.scanRuns)
	})
	return registry
}

// RecordEvent counts one handled event.
func (m *notifierMetrics) RecordEvent(eventType, outcome string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(normalize(eventType), normalize(outcome)).Inc()
}

// RecordDelivery counts one delivery attempt on channel.
func (m *notifierMetrics) RecordDelivery(channel, outcome string) {
	if m == nil {
		return
	}
	m.deliveries.WithLabelValues(normalize(channel), normalize(outcome)).Inc()
}

// RecordScanDispatch counts one event dispatched by the scanner.
func (m *notifierMetrics) RecordScanDispatch(eventType string) {
	if m == nil {
		return
	}
	m.scanDispatches.WithLabelValues(normalize(eventType)).Inc()
}

// RecordScanRejected counts one expiry event skipped as malformed.
func (m *notifierMetrics) RecordScanRejected(eventType string) {
	if m == nil {
		return
	}
	m.scanRejected.WithLabelValues(normalize(eventType)).Inc()
}

// RecordScanRun counts one scanner run.
func (m *notifierMetrics) RecordScanRun(outcome string) {
	if m == nil {
		return
	}
	m.scanRuns.WithLabelValues(normalize(outcome)).Inc()
}

// Handler serves the default prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func normalize(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return "unknown"
	}
	return v
}
