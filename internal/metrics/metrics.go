// Package metrics exposes Prometheus collectors for the API and its
// domain cascades.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "task_manager"

// Metrics owns a private registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	inFlight  prometheus.Gauge
	requests  *prometheus.CounterVec
	durations *prometheus.HistogramVec
	cascades  *prometheus.CounterVec
	jobs      *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		}, []string{"method", "path", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10),
		}, []string{"method", "path"}),
		cascades: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "cascade_rows_total",
			Help:      "Rows touched by cascading deletes, by affected entity.",
		}, []string{"entity"}),
		jobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Scheduled job runs by job name and outcome.",
		}, []string{"job", "success"}),
	}

	m.registry.MustRegister(
		m.inFlight,
		m.requests,
		m.durations,
		m.cascades,
		m.jobs,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncrementInFlight() { m.inFlight.Inc() }

func (m *Metrics) DecrementInFlight() { m.inFlight.Dec() }

func (m *Metrics) RecordHTTPRequest(method, path, status string, d time.Duration) {
	m.requests.WithLabelValues(method, path, status).Inc()
	m.durations.WithLabelValues(method, path).Observe(d.Seconds())
}

// RecordCascade counts rows changed by a cascading delete.
func (m *Metrics) RecordCascade(entity string, affected int64) {
	if affected <= 0 {
		return
	}
	m.cascades.WithLabelValues(entity).Add(float64(affected))
}

func (m *Metrics) RecordJob(name string, err error) {
	success := "true"
	if err != nil {
		success = "false"
	}
	m.jobs.WithLabelValues(name, success).Inc()
}
