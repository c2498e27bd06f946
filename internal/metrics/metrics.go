// Package metrics exposes automation counters in Prometheus format. Metrics
// implements events.Observer, so it is fed from the same event stream as the
// logs.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"edefter/internal/events"
	"edefter/internal/ledger"
)

type Metrics struct {
	registry *prometheus.Registry

	events         *prometheus.CounterVec
	actionFailures *prometheus.CounterVec
	scanPeriods    *prometheus.GaugeVec
	scanCompanies  prometheus.Gauge
	watcherRunning prometheus.Gauge
}

// New registers the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "edefter",
			Name:      "events_total",
			Help:      "Automation events by type.",
		}, []string{"type"}),
		actionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "edefter",
			Name:      "action_failures_total",
			Help:      "Failed automation actions by action.",
		}, []string{"action"}),
		scanPeriods: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "edefter",
			Name:      "scan_periods",
			Help:      "Periods found by the last full scan, by state.",
		}, []string{"state"}),
		scanCompanies: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "edefter",
			Name:      "scan_companies",
			Help:      "Companies found by the last full scan.",
		}),
		watcherRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "edefter",
			Name:      "watcher_running",
			Help:      "1 while the folder watcher is running.",
		}),
	}
	m.registry.MustRegister(m.events, m.actionFailures, m.scanPeriods, m.scanCompanies, m.watcherRunning)
	return m
}

// Notify counts e.
func (m *Metrics) Notify(e events.Event) {
	m.events.WithLabelValues(string(e.Type)).Inc()
	switch e.Type {
	case events.WatcherStarted:
		m.watcherRunning.Set(1)
	case events.WatcherStopped:
		m.watcherRunning.Set(0)
	case events.Error:
		if e.Action != "" {
			m.actionFailures.WithLabelValues(e.Action).Inc()
		}
	}
}

// ObserveScan records the totals of a full scan.
func (m *Metrics) ObserveScan(scan *ledger.ScanResult) {
	if scan == nil {
		return
	}
	m.scanCompanies.Set(float64(scan.TotalCompanies))
	m.scanPeriods.WithLabelValues("complete").Set(float64(scan.CompletePeriods))
	m.scanPeriods.WithLabelValues("incomplete").Set(float64(scan.IncompletePeriods))
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
