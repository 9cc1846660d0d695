// Package metrics exposes Prometheus instrumentation for the HTTP layer,
// domain writes and the database pool.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"orgstruct/internal/core/apperror"
	"orgstruct/internal/domain/orgstructure"
	"orgstruct/internal/infrastructure/storage/postgres"
)

const namespace = "orgstruct"

var _ orgstructure.MutationRecorder = (*Metrics)(nil)

// Metrics owns a registry and every collector registered on it.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	mutations   *prometheus.CounterVec
	rowsTouched *prometheus.CounterVec
}

// New creates the collectors on a fresh registry, plus the Go runtime and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by route, method and status class.",
		}, []string{"route", "method", "result"}),
		httpLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "latency_seconds",
			Help:      "Latency distribution of HTTP requests.",
			Buckets: []float64{
				0.001, 0.002, 0.005,
				0.01, 0.02, 0.05,
				0.1, 0.2, 0.5,
				1, 2, 5,
			},
		}, []string{"route", "method"}),
		mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "domain",
			Name:      "mutations_total",
			Help:      "Write operations by entity, operation and error code.",
		}, []string{"entity", "op", "result"}),
		rowsTouched: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "domain",
			Name:      "rows_touched_total",
			Help:      "Rows inserted or updated by successful writes.",
		}, []string{"entity", "op"}),
	}
}

// RecordMutation implements orgstructure.MutationRecorder.
// result is "ok", the application error code, or "error".
func (m *Metrics) RecordMutation(entity, op string, touched int, err error) {
	m.mutations.WithLabelValues(entity, op, resultOf(err)).Inc()
	if err == nil && touched > 0 {
		m.rowsTouched.WithLabelValues(entity, op).Add(float64(touched))
	}
}

func resultOf(err error) string {
	if err == nil {
		return "ok"
	}
	if appErr, ok := apperror.AsAppError(err); ok {
		return appErr.Code
	}
	return "error"
}

// PoolStatsSource reports database pool counters.
type PoolStatsSource interface {
	Stats() postgres.PoolStats
}

// RegisterPool exports pool gauges read on every scrape.
func (m *Metrics) RegisterPool(pool PoolStatsSource) {
	factory := promauto.With(m.registry)
	gauge := func(name, help string, read func(postgres.PoolStats) float64) {
		factory.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "db_pool",
			Name:      name,
			Help:      help,
		}, func() float64 { return read(pool.Stats()) })
	}

	gauge("total_conns", "Connections currently open.", func(s postgres.PoolStats) float64 { return float64(s.TotalConns) })
	gauge("acquired_conns", "Connections currently in use.", func(s postgres.PoolStats) float64 { return float64(s.AcquiredConns) })
	gauge("idle_conns", "Idle connections.", func(s postgres.PoolStats) float64 { return float64(s.IdleConns) })
	gauge("max_conns", "Configured pool size.", func(s postgres.PoolStats) float64 { return float64(s.MaxConns) })
}

// Middleware records request count and latency per route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.httpRequests.WithLabelValues(route, c.Request.Method, statusClass(c.Writer.Status())).Inc()
		m.httpLatency.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

func statusClass(status int) string {
	return strconv.Itoa(status/100) + "xx"
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Gatherer exposes the registry (used by tests).
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}
