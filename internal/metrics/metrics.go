// Package metrics provides the Prometheus collectors of the API (RED + session events).
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "recipen"

// Metrics groups the collectors registered for one server instance.
type Metrics struct {
	// HTTPRequestTotal counts requests by method, route template and status.
	HTTPRequestTotal *prometheus.CounterVec
	// HTTPRequestDurationSeconds is request latency by method and route template.
	HTTPRequestDurationSeconds *prometheus.HistogramVec
	// SessionEventsTotal counts session protocol outcomes (login_ok, login_fail, refresh_ok, ...).
	SessionEventsTotal *prometheus.CounterVec
	// RateLimitedTotal counts requests rejected by the per-IP limiter.
	RateLimitedTotal prometheus.Counter
}

// New registers the collectors on reg. Pass prometheus.NewRegistry() in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		HTTPRequestTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests by method, path, and status.",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDurationSeconds: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2.5, 10), // 1ms to ~9.3s
			},
			[]string{"method", "path"},
		),
		SessionEventsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "session_events_total",
				Help:      "Session protocol outcomes by event.",
			},
			[]string{"event"},
		),
		RateLimitedTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "rate_limited_total",
				Help:      "Requests rejected by the per-IP rate limiter.",
			},
		),
	}
}

// Session records one session protocol outcome. Safe on a nil receiver.
func (m *Metrics) Session(event string) {
	if m == nil {
		return
	}
	m.SessionEventsTotal.WithLabelValues(event).Inc()
}
