package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "mapmaker"

// Metrics holds the Prometheus counters, histograms, and gauges for the map pipeline.
type Metrics struct {
	Runs        *prometheus.CounterVec   // labels: operation={plot,inspect}, outcome={success,error}
	RunErrors   *prometheus.CounterVec   // labels: kind (domain error taxonomy)
	RunDuration *prometheus.HistogramVec // labels: operation={plot,inspect}
	TableRows   prometheus.Histogram
	Unmatched   prometheus.Histogram

	// Boundary source metrics.
	BoundaryFetches       *prometheus.CounterVec // labels: outcome={success,error,empty}
	BoundaryCache         *prometheus.CounterVec // labels: result={hit,miss}
	BoundaryFetchDuration prometheus.Histogram
	BoundaryRegions       prometheus.Gauge
	BoundaryEnabled       prometheus.Gauge
}

func newMetrics() *Metrics {
	return &Metrics{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by operation and outcome.",
		}, []string{"operation", "outcome"}),
		RunErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "run_errors_total",
			Help:      "Failed pipeline runs by error kind.",
		}, []string{"kind"}),
		RunDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a read, validate and build cycle.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"operation"}),
		TableRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "table_rows",
			Help:      "Number of rows per uploaded table.",
			Buckets:   []float64{1, 10, 50, 100, 250, 500, 1000, 5000},
		}),
		Unmatched: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "unmatched_regions",
			Help:      "Boundary regions without a table row, per plot.",
			Buckets:   []float64{0, 1, 5, 10, 50, 100, 300, 600},
		}),
		BoundaryFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "boundary_fetches_total",
			Help:      "Boundary dataset downloads by outcome.",
		}, []string{"outcome"}),
		BoundaryCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "boundary_cache_total",
			Help:      "Boundary code cache lookups by result.",
		}, []string{"result"}),
		BoundaryFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "boundary_fetch_duration_seconds",
			Help:      "Boundary dataset download duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		BoundaryRegions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "boundary_regions",
			Help:      "Number of regions in the most recently loaded boundary dataset.",
		}),
		BoundaryEnabled: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "boundary_enabled",
			Help:      "1 when boundary coverage checks are enabled, 0 otherwise.",
		}),
	}
}

// NewMetrics creates and registers all pipeline metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Runs,
		m.RunErrors,
		m.RunDuration,
		m.TableRows,
		m.Unmatched,
		m.BoundaryFetches,
		m.BoundaryCache,
		m.BoundaryFetchDuration,
		m.BoundaryRegions,
		m.BoundaryEnabled,
	)
	return m
}

// NewUnregisteredMetrics creates Metrics that are never exported, for
// one-shot commands that have no /metrics endpoint.
func NewUnregisteredMetrics() *Metrics {
	return newMetrics()
}

// NewMetricsForTesting creates Metrics with no registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}
