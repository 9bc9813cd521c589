// Package metrics defines the Prometheus collectors of the service. All
// methods are safe to call on a nil *Metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups the service collectors.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	ContentMutations *prometheus.CounterVec
	Notifications    *prometheus.CounterVec
	OutboxMessages   *prometheus.CounterVec
	FilterCache      *prometheus.CounterVec
}

// New registers every collector on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,

		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "regpulse_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),

		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "regpulse_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"method", "route"}),

		ContentMutations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "regpulse_content_mutations_total",
			Help: "Committed content mutations by kind and action",
		}, []string{"kind", "action"}),

		Notifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "regpulse_notifications_total",
			Help: "Notification emails by kind and outcome (sent, failed)",
		}, []string{"kind", "outcome"}),

		OutboxMessages: f.NewCounterVec(prometheus.CounterOpts{
			Name: "regpulse_outbox_messages_total",
			Help: "Processed outbox messages by outcome (dispatched, released, dead_letter)",
		}, []string{"outcome"}),

		FilterCache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "regpulse_filter_cache_lookups_total",
			Help: "Filter-value cache lookups by result (hit, miss, error)",
		}, []string{"result"}),
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) IncMutation(kind, action string) {
	if m != nil {
		m.ContentMutations.WithLabelValues(kind, action).Inc()
	}
}

func (m *Metrics) AddNotifications(kind, outcome string, n int) {
	if m != nil && n > 0 {
		m.Notifications.WithLabelValues(kind, outcome).Add(float64(n))
	}
}

func (m *Metrics) IncOutbox(outcome string) {
	if m != nil {
		m.OutboxMessages.WithLabelValues(outcome).Inc()
	}
}

func (m *Metrics) IncFilterCache(result string) {
	if m != nil {
		m.FilterCache.WithLabelValues(result).Inc()
	}
}
