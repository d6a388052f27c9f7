package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hab_etl"

// Metrics holds the Prometheus counters, histograms, and gauges for the
// chlorophyll job and the read-side API.
type Metrics struct {
	// Bulk job metrics.
	Pairs           *prometheus.CounterVec // labels: outcome={written,existing,skipped_cursor,no_data,failed}
	SamplesWritten  prometheus.Counter
	FetchDuration   prometheus.Histogram
	FetchRetries    prometheus.Counter
	JobRunning      prometheus.Gauge
	EventsPublished *prometheus.CounterVec // labels: outcome={success,error}

	// Read-side metrics.
	BuoyFetches   *prometheus.CounterVec // labels: outcome={success,error}
	BuoyCache     *prometheus.CounterVec // labels: result={hit,miss}
	ArtifactCache *prometheus.CounterVec // labels: result={hit,miss}
}

// NewMetrics creates and registers all metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		Pairs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pairs_total",
			Help:      "Region/month pairs processed, by outcome.",
		}, []string{"outcome"}),
		SamplesWritten: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_written_total",
			Help:      "Chlorophyll samples persisted to artifacts.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fetch_duration_seconds",
			Help:      "Duration of one griddap request.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		FetchRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_retries_total",
			Help:      "Griddap requests retried after a retryable failure.",
		}),
		JobRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "job_running",
			Help:      "1 while the bulk job is iterating, 0 otherwise.",
		}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifact_events_total",
			Help:      "Artifact notifications published, by outcome.",
		}, []string{"outcome"}),
		BuoyFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buoy_fetches_total",
			Help:      "NDBC station feed requests, by outcome.",
		}, []string{"outcome"}),
		BuoyCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "buoy_cache_total",
			Help:      "Buoy reading cache lookups, by result.",
		}, []string{"result"}),
		ArtifactCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "artifact_cache_total",
			Help:      "Artifact cache lookups, by result.",
		}, []string{"result"}),
	}

	prometheus.MustRegister(
		m.Pairs,
		m.SamplesWritten,
		m.FetchDuration,
		m.FetchRetries,
		m.JobRunning,
		m.EventsPublished,
		m.BuoyFetches,
		m.BuoyCache,
		m.ArtifactCache,
	)

	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		Pairs:           prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "pairs_total"}, []string{"outcome"}),
		SamplesWritten:  prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "samples_written_total"}),
		FetchDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: namespace, Name: "fetch_duration_seconds"}),
		FetchRetries:    prometheus.NewCounter(prometheus.CounterOpts{Namespace: namespace, Name: "fetch_retries_total"}),
		JobRunning:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: namespace, Name: "job_running"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "artifact_events_total"}, []string{"outcome"}),
		BuoyFetches:     prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "buoy_fetches_total"}, []string{"outcome"}),
		BuoyCache:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "buoy_cache_total"}, []string{"result"}),
		ArtifactCache:   prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: namespace, Name: "artifact_cache_total"}, []string{"result"}),
	}
}
