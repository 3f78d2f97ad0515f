package pipeline

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles Prometheus collectors for the normalization pipeline.
type Metrics struct {
	registry         *prometheus.Registry
	eventsReceived   *prometheus.CounterVec
	eventsNormalized *prometheus.CounterVec
	decodeErrors     prometheus.Counter
	writeErrors      prometheus.Counter
}

func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	m := &Metrics{
		registry: registry,
		eventsReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flatcast",
			Name:      "events_received_total",
			Help:      "Raw event envelopes received, by event type",
		}, []string{"type"}),
		eventsNormalized: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "flatcast",
			Name:      "events_normalized_total",
			Help:      "Events normalized and handed to a sink, by event type",
		}, []string{"type"}),
		decodeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flatcast",
			Name:      "decode_errors_total",
			Help:      "Envelope lines that failed to decode",
		}),
		writeErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "flatcast",
			Name:      "sink_write_errors_total",
			Help:      "Normalized records the sink rejected",
		}),
	}

	registry.MustRegister(
		m.eventsReceived,
		m.eventsNormalized,
		m.decodeErrors,
		m.writeErrors,
	)

	return m
}

// Handler returns an HTTP handler exposing the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncReceived(eventType string) {
	if m == nil {
		return
	}
	m.eventsReceived.WithLabelValues(eventType).Inc()
}

func (m *Metrics) IncNormalized(eventType string) {
	if m == nil {
		return
	}
	m.eventsNormalized.WithLabelValues(eventType).Inc()
}

func (m *Metrics) IncDecodeErrors() {
	if m == nil {
		return
	}
	m.decodeErrors.Inc()
}

func (m *Metrics) IncWriteErrors() {
	if m == nil {
		return
	}
	m.writeErrors.Inc()
}
