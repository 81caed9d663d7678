package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Drop reasons used as the "reason" label on RecordsDropped.
const (
	DropReasonBadDate      = "bad_date"
	DropReasonNoZipMatch   = "no_zip_match"
	DropReasonOutOfState   = "out_of_state"
	DropReasonOutOfBorough = "out_of_borough"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// report pipeline. Silent data loss is the main observable risk of this job,
// so every per-record drop and join-miss is counted by cause.
type Metrics struct {
	RecordsFetched    prometheus.Counter
	FetchRetries      prometheus.Counter
	RecordsNormalized prometheus.Counter
	RecordsDropped    *prometheus.CounterVec // labels: reason={bad_date,no_zip_match,out_of_state,out_of_borough}
	AgeLookupMisses   prometheus.Counter
	FinalRecords      prometheus.Gauge
	RunDuration       prometheus.Histogram
	PipelineRunning   prometheus.Gauge
}

// NewMetrics creates and registers all pipeline metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.RecordsFetched,
		m.FetchRetries,
		m.RecordsNormalized,
		m.RecordsDropped,
		m.AgeLookupMisses,
		m.FinalRecords,
		m.RunDuration,
		m.PipelineRunning,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		RecordsFetched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dogbite",
			Name:      "records_fetched_total",
			Help:      "Raw records returned by the Socrata export endpoint.",
		}),
		FetchRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dogbite",
			Name:      "fetch_retries_total",
			Help:      "Retries of the upstream fetch after transient failures.",
		}),
		RecordsNormalized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dogbite",
			Name:      "records_normalized_total",
			Help:      "Records that survived date parsing and projection.",
		}),
		RecordsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dogbite",
			Name:      "records_dropped_total",
			Help:      "Records dropped during normalization or the geographic filter, by reason.",
		}, []string{"reason"}),
		AgeLookupMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "dogbite",
			Name:      "age_lookup_misses_total",
			Help:      "Age texts with no exact match in the curated lookup table.",
		}),
		FinalRecords: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dogbite",
			Name:      "final_records",
			Help:      "Incidents in the final filtered collection.",
		}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "dogbite",
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete fetch-normalize-enrich run.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "dogbite",
			Name:      "pipeline_running",
			Help:      "1 while the pipeline is active, 0 once finished.",
		}),
	}
}
