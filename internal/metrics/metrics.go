// Package metrics exposes xswitcher counters in Prometheus format.
//
// Every method is safe to call on a nil *Metrics, so components can take an
// optional collector without guarding each call site.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "xswitcher"

// Metrics holds the collectors registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	snapshotBuilds   *prometheus.CounterVec
	snapshotDuration prometheus.Histogram
	snapshotWindows  prometheus.Gauge
	cacheLookups     *prometheus.CounterVec
	iconResolutions  *prometheus.CounterVec
	actions          *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		snapshotBuilds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_builds_total",
			Help:      "Window snapshot builds by result.",
		}, []string{"result"}),
		snapshotDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "snapshot_build_seconds",
			Help:      "Time spent enumerating windows and materializing icons.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		snapshotWindows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_windows",
			Help:      "Visible windows in the most recent snapshot.",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_cache_lookups_total",
			Help:      "Snapshot cache lookups by outcome (hit or miss).",
		}, []string{"outcome"}),
		iconResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "icon_resolutions_total",
			Help:      "Icon store resolutions by outcome (cached, written, placeholder).",
		}, []string{"outcome"}),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "window_actions_total",
			Help:      "Window actions by kind and result.",
		}, []string{"kind", "result"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.snapshotBuilds,
		m.snapshotDuration,
		m.snapshotWindows,
		m.cacheLookups,
		m.iconResolutions,
		m.actions,
	)
	return m
}

// Registry returns the private registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// SnapshotBuilt records one builder run.
func (m *Metrics) SnapshotBuilt(d time.Duration, windows int, err error) {
	if m == nil {
		return
	}
	m.snapshotBuilds.WithLabelValues(result(err)).Inc()
	m.snapshotDuration.Observe(d.Seconds())
	if err == nil {
		m.snapshotWindows.Set(float64(windows))
	}
}

// CacheLookup records a snapshot cache hit or miss.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cacheLookups.WithLabelValues(outcome).Inc()
}

// IconResolved records how an icon reference was produced.
func (m *Metrics) IconResolved(outcome string) {
	if m == nil {
		return
	}
	m.iconResolutions.WithLabelValues(outcome).Inc()
}

// ActionDone records a gateway action.
func (m *Metrics) ActionDone(kind string, err error) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(kind, result(err)).Inc()
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
