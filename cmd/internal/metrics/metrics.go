// Package metrics holds ozran's Prometheus collectors.
//
// A nil *Metrics is valid and records nothing, so components can take one
// unconditionally and tests can pass nil.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ozran"

// Metrics is the set of collectors registered for one process.
type Metrics struct {
	reg *prometheus.Registry

	httpDuration *prometheus.HistogramVec
	authEvents   *prometheus.CounterVec
	rateLimited  *prometheus.CounterVec
	phishing     *prometheus.CounterVec
}

// New registers all collectors on a fresh registry, plus Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		reg: reg,
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and status class.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "status_class"}),
		authEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "events_total",
			Help:      "Auth operations by action and outcome.",
		}, []string{"action", "outcome"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ratelimit",
			Name:      "rejections_total",
			Help:      "Requests rejected by the rate limiter, by route group.",
		}, []string{"group"}),
		phishing: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "phishing",
			Name:      "events_total",
			Help:      "Phishing simulation events (sent, send_failed, clicked).",
		}, []string{"event"}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpDuration,
		m.authEvents,
		m.rateLimited,
		m.phishing,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry (tests).
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// ObserveHTTP records one request.
func (m *Metrics) ObserveHTTP(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpDuration.WithLabelValues(method, strconv.Itoa(status/100)+"xx").Observe(d.Seconds())
}

// AuthEvent counts an auth action ("register", "login", "logout", "auth_status") with its outcome.
func (m *Metrics) AuthEvent(action, outcome string) {
	if m == nil {
		return
	}
	m.authEvents.WithLabelValues(action, outcome).Inc()
}

// RateLimited counts a rejection in group.
func (m *Metrics) RateLimited(group string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(group).Inc()
}

// PhishingEvent counts a phishing simulation event.
func (m *Metrics) PhishingEvent(event string) {
	if m == nil {
		return
	}
	m.phishing.WithLabelValues(event).Inc()
}
