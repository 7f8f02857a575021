package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
	"time"
)

// Metrics groups the prometheus collectors for fetches and notifications.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry      *prometheus.Registry
	fetches       *prometheus.CounterVec
	fetchDuration *prometheus.HistogramVec
	notifications *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracking_fetch_total",
			Help: "Tracking fetches by adapter and resulting status kind.",
		}, []string{"adapter", "kind"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tracking_fetch_duration_seconds",
			Help:    "Latency of tracking fetches.",
			Buckets: prometheus.DefBuckets,
		}, []string{"adapter"}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "tracking_notifications_total",
			Help: "Status change notifications by dispatch result.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.fetches, m.fetchDuration, m.notifications)
	return m
}

func (m *Metrics) RecordFetch(adapter, kind string, duration time.Duration) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(adapter, kind).Inc()
	m.fetchDuration.WithLabelValues(adapter).Observe(duration.Seconds())
}

func (m *Metrics) RecordNotification(err error) {
	if m == nil {
		return
	}
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.notifications.WithLabelValues(result).Inc()
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

