package analytics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metric names as constants for consistency.
const (
	MetricReportsTotal         = "analytics_reports_total"
	MetricReportDuration       = "analytics_report_duration_seconds"
	MetricFetchFailures        = "analytics_fetch_failures_total"
	MetricLiveSessionsReturned = "analytics_live_sessions_returned"
)

// Metrics contains Prometheus metrics for report generation.
// All operations are thread-safe.
type Metrics struct {
	reportsTotal         *prometheus.CounterVec
	reportDuration       *prometheus.HistogramVec
	fetchFailures        *prometheus.CounterVec
	liveSessionsReturned prometheus.Histogram
}

// NewMetrics creates and returns a new Metrics instance with all collectors
// initialized. The metrics are not registered; call Register to register them
// with a registry.
func NewMetrics() *Metrics {
	return &Metrics{
		reportsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricReportsTotal,
				Help: "Total number of analytics reports generated by range and outcome",
			},
			[]string{"range", "outcome"},
		),
		reportDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    MetricReportDuration,
				Help:    "Analytics report generation duration in seconds",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"range"},
		),
		fetchFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: MetricFetchFailures,
				Help: "Total number of store fetch failures during report generation by phase",
			},
			[]string{"phase"},
		),
		liveSessionsReturned: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    MetricLiveSessionsReturned,
				Help:    "Number of sessions returned per live sessions request",
				Buckets: []float64{0, 1, 5, 10, 25, 50, 100, 250, 500},
			},
		),
	}
}

// Register registers all metrics with the provided registry.
func (m *Metrics) Register(registry *prometheus.Registry) error {
	for _, collector := range m.Collectors() {
		if err := registry.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

// Collectors returns all collectors for registration.
func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.reportsTotal,
		m.reportDuration,
		m.fetchFailures,
		m.liveSessionsReturned,
	}
}

// ObserveReport records one report generation with its range, outcome and
// duration.
func (m *Metrics) ObserveReport(rangeLabel, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.reportsTotal.WithLabelValues(rangeLabel, outcome).Inc()
	m.reportDuration.WithLabelValues(rangeLabel).Observe(duration.Seconds())
}

// RecordFetchFailure counts one store fetch failure for the given phase
// ("upstream" or "dependent").
func (m *Metrics) RecordFetchFailure(phase string) {
	if m == nil {
		return
	}
	m.fetchFailures.WithLabelValues(phase).Inc()
}

// ObserveLiveSessions records how many sessions a live feed request returned.
func (m *Metrics) ObserveLiveSessions(count int) {
	if m == nil {
		return
	}
	m.liveSessionsReturned.Observe(float64(count))
}
