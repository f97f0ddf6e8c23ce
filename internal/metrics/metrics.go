// Package metrics counts sync and tracker activity in a Prometheus registry.
// The CLI flushes it to a node-exporter textfile; the feed server exposes it
// over HTTP.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ibadah"

// Metrics owns a private registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	reconcileRuns     *prometheus.CounterVec
	reconcileDuration prometheus.Histogram
	daysPulled        prometheus.Counter
	daysSeeded        prometheus.Counter
	daysPushed        prometheus.Counter
	pushFailures      prometheus.Counter
	taskToggles       prometheus.Counter
	fastingToggles    *prometheus.CounterVec
	staleSaves        prometheus.Counter
	currentStreak     prometheus.Gauge
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		reconcileRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_runs_total",
			Help:      "Reconciliation runs by outcome",
		}, []string{"outcome"}),
		reconcileDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconcile_duration_seconds",
			Help:      "Duration of reconciliation runs",
			Buckets:   prometheus.DefBuckets,
		}),
		daysPulled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_days_pulled_total",
			Help:      "Summary values raised from remote daily logs",
		}),
		daysSeeded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_days_seeded_total",
			Help:      "Local day records seeded from remote daily logs",
		}),
		daysPushed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconcile_days_pushed_total",
			Help:      "Local day records pushed as remote daily logs",
		}),
		pushFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "remote_push_failures_total",
			Help:      "Remote writes that failed and were skipped",
		}),
		taskToggles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "task_toggles_total",
			Help:      "Committed worship task toggles",
		}),
		fastingToggles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fasting_toggles_total",
			Help:      "Committed fasting toggles by direction",
		}, []string{"fasted"}),
		staleSaves: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stale_saves_total",
			Help:      "Saves rejected because another date was loaded",
		}),
		currentStreak: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "fasting_streak_days",
			Help:      "Current fasting streak",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"path", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "method"}),
	}

	m.registry.MustRegister(
		m.reconcileRuns, m.reconcileDuration,
		m.daysPulled, m.daysSeeded, m.daysPushed, m.pushFailures,
		m.taskToggles, m.fastingToggles, m.staleSaves, m.currentStreak,
		m.httpRequests, m.httpDuration,
	)
	return m
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return prometheus.NewRegistry()
	}
	return m.registry
}

// ObserveReconcile records one reconciliation run. err marks the run failed.
func (m *Metrics) ObserveReconcile(d time.Duration, pulled, seeded, pushed, failures, streak int, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.reconcileRuns.WithLabelValues(outcome).Inc()
	m.reconcileDuration.Observe(d.Seconds())
	if err != nil {
		return
	}
	m.daysPulled.Add(float64(pulled))
	m.daysSeeded.Add(float64(seeded))
	m.daysPushed.Add(float64(pushed))
	m.pushFailures.Add(float64(failures))
	m.currentStreak.Set(float64(streak))
}

func (m *Metrics) TaskToggled() {
	if m == nil {
		return
	}
	m.taskToggles.Inc()
}

func (m *Metrics) FastingToggled(fasted bool, streak int) {
	if m == nil {
		return
	}
	m.fastingToggles.WithLabelValues(strconv.FormatBool(fasted)).Inc()
	m.currentStreak.Set(float64(streak))
}

func (m *Metrics) StaleSave() {
	if m == nil {
		return
	}
	m.staleSaves.Inc()
}

func (m *Metrics) PushFailed() {
	if m == nil {
		return
	}
	m.pushFailures.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry(), promhttp.HandlerOpts{})
}

// Middleware records request counts and latency. path should be a route
// template so ids do not explode the label set.
func (m *Metrics) Middleware(path func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m == nil {
				next.ServeHTTP(w, r)
				return
			}
			start := time.Now()
			ww := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(ww, r)

			p := path(r)
			m.httpRequests.WithLabelValues(p, r.Method, strconv.Itoa(ww.statusCode)).Inc()
			m.httpDuration.WithLabelValues(p, r.Method).Observe(time.Since(start).Seconds())
		})
	}
}

// WriteTextfile writes the registry to path for the node exporter textfile
// collector. The write is atomic.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
