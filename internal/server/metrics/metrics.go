// Package metrics holds the server's Prometheus collectors.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cardkeeper"

// Metrics groups every collector the server updates. Each instance owns its
// registry, so tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	AuthRequests *prometheus.CounterVec

	ActiveCollections prometheus.Gauge
	CollectionOpens   *prometheus.CounterVec

	SessionsCreated prometheus.Counter
	SessionsRevoked prometheus.Counter
	SessionsSwept   prometheus.Counter
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),

		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),

		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),

		AuthRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "requests_total",
			Help:      "Authentication attempts by mode (required, optional) and result (ok, rejected, error, anonymous)",
		}, []string{"mode", "result"}),

		ActiveCollections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "collections",
			Name:      "active",
			Help:      "Collections currently open",
		}),

		CollectionOpens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "collections",
			Name:      "opens_total",
			Help:      "Collection open attempts by result",
		}, []string{"result"}),

		SessionsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "created_total",
			Help:      "Sessions created at login or registration",
		}),

		SessionsRevoked: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "revoked_total",
			Help:      "Sessions deleted by logout or revocation",
		}),

		SessionsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sessions",
			Name:      "swept_total",
			Help:      "Expired sessions removed by the sweeper",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.HTTPRequests,
		m.HTTPDuration,
		m.AuthRequests,
		m.ActiveCollections,
		m.CollectionOpens,
		m.SessionsCreated,
		m.SessionsRevoked,
		m.SessionsSwept,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
