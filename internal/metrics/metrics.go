// Package metrics holds the Prometheus collectors of the console.
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/ignite/customer-console/internal/pkg/hooks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "customer_console"

// Metrics holds all console collectors.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec
	HookEvents      *prometheus.CounterVec
	ImportRows      *prometheus.CounterVec
	ExportRows      *prometheus.CounterVec
	CopiedRows      prometheus.Counter

	gatherer prometheus.Gatherer
}

// New registers the collectors with reg. Pass prometheus.NewRegistry() in
// tests to avoid duplicate registration on the default registry.
func New(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of console API requests by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		HookEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hooks",
			Name:      "events_total",
			Help:      "Controller save and delete events by outcome.",
		}, []string{"controller", "action", "success"}),
		ImportRows: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "csv",
			Name:      "import_rows_total",
			Help:      "Imported CSV rows by kind and result.",
		}, []string{"kind", "result"}), // result: imported, failed
		ExportRows: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "csv",
			Name:      "export_rows_total",
			Help:      "Exported CSV rows by kind.",
		}, []string{"kind"}),
		CopiedRows: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lists",
			Name:      "copied_subscribers_total",
			Help:      "Subscribers copied between lists.",
		}),
		gatherer: reg,
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// Middleware records request durations labeled by chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}

// Listener counts controller events.
func (m *Metrics) Listener() hooks.Listener {
	return func(_ context.Context, e hooks.Event) {
		m.HookEvents.WithLabelValues(e.Controller, e.Action, strconv.FormatBool(e.Success)).Inc()
	}
}

// Imported records the outcome of a CSV import.
func (m *Metrics) Imported(kind string, imported, failed int) {
	m.ImportRows.WithLabelValues(kind, "imported").Add(float64(imported))
	m.ImportRows.WithLabelValues(kind, "failed").Add(float64(failed))
}

// Exported records rows written by a CSV export.
func (m *Metrics) Exported(kind string, rows int) {
	m.ExportRows.WithLabelValues(kind).Add(float64(rows))
}
