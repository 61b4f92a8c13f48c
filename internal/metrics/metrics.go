// Package metrics holds the Prometheus collectors of the API process.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "marketplace"

type ServerMetrics struct {
	Requests  *prometheus.CounterVec
	LatencyMS *prometheus.HistogramVec
}

// NewServerMetrics registers the HTTP collectors on reg. Tests pass a fresh
// prometheus.NewRegistry() to avoid duplicate registration.
func NewServerMetrics(reg prometheus.Registerer, service string) *ServerMetrics {
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"handler", "method", "status"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: service,
		Name:      "http_request_duration_ms",
		Help:      "HTTP request latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"handler"})

	reg.MustRegister(requests, latency)
	return &ServerMetrics{Requests: requests, LatencyMS: latency}
}

// OrderMetrics counts order workflow outcomes. A nil *OrderMetrics is valid
// and records nothing.
type OrderMetrics struct {
	Placed          prometheus.Counter
	Delivered       prometheus.Counter
	PublishFailures *prometheus.CounterVec
	EventsHandled   *prometheus.CounterVec
}

func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	m := &OrderMetrics{
		Placed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_placed_total",
			Help:      "Orders committed at checkout.",
		}),
		Delivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_delivered_total",
			Help:      "Orders marked delivered and removed.",
		}),
		PublishFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_event_publish_failures_total",
			Help:      "Order events that could not be handed to the broker.",
		}, []string{"type"}),
		EventsHandled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "order_events_handled_total",
			Help:      "Order events consumed by the worker, by outcome.",
		}, []string{"type", "outcome"}),
	}
	reg.MustRegister(m.Placed, m.Delivered, m.PublishFailures, m.EventsHandled)
	return m
}

func (m *OrderMetrics) OrderPlaced() {
	if m != nil {
		m.Placed.Inc()
	}
}

func (m *OrderMetrics) OrderDelivered() {
	if m != nil {
		m.Delivered.Inc()
	}
}

func (m *OrderMetrics) PublishFailed(eventType string) {
	if m != nil {
		m.PublishFailures.WithLabelValues(eventType).Inc()
	}
}

func (m *OrderMetrics) EventHandled(eventType, outcome string) {
	if m != nil {
		m.EventsHandled.WithLabelValues(eventType, outcome).Inc()
	}
}

// NewRegistry returns a registry preloaded with the Go runtime and process
// collectors.
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
