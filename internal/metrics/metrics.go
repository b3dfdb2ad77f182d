// Package metrics exposes Prometheus counters for the list store server.
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

const namespace = "list42"

type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	MutationsTotal  *prometheus.CounterVec
	RedeemsTotal    *prometheus.CounterVec
	RateLimited     *prometheus.CounterVec

	registry *prometheus.Registry
}

// New registers the server metrics, plus the Go and process collectors, on
// a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		MutationsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "items",
			Name:      "mutations_total",
			Help:      "Item mutations by operation and result.",
		}, []string{"op", "result"}),
		RedeemsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "share",
			Name:      "redeems_total",
			Help:      "Share code redemptions by result.",
		}, []string{"result"}),
		RateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter, by route.",
		}, []string{"route"}),
		registry: reg,
	}
}

// HubStats reports live-update connections.
type HubStats interface {
	ClientCount() int
	UserCount() int
}

// WatchHub exports the hub's connection and user counts as gauges.
func (m *Metrics) WatchHub(h HubStats) {
	f := promauto.With(m.registry)
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ws",
		Name:      "clients",
		Help:      "Connected live-update clients.",
	}, func() float64 { return float64(h.ClientCount()) })
	f.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "ws",
		Name:      "users",
		Help:      "Users with at least one live-update client.",
	}, func() float64 { return float64(h.UserCount()) })
}

func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func (m *Metrics) RecordMutation(op string, err error) {
	m.MutationsTotal.WithLabelValues(op, result(err)).Inc()
}

func (m *Metrics) RecordRedeem(err error) {
	m.RedeemsTotal.WithLabelValues(result(err)).Inc()
}

func (m *Metrics) RecordRateLimited(route string) {
	m.RateLimited.WithLabelValues(route).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
