package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for forecast ingestion.
type Metrics struct {
	Invocations        *prometheus.CounterVec   // labels: outcome={success,fetch_error,decode_error,store_error,panic}
	PhaseDuration      *prometheus.HistogramVec // labels: phase={fetch,decode,store}
	InvocationDuration prometheus.Histogram
	LastSuccess        prometheus.Gauge

	// Fetch metrics.
	FetchResponses *prometheus.CounterVec // labels: code
	PayloadBytes   prometheus.Histogram

	RecordsStored    prometheus.Counter
	SchedulerRunning prometheus.Gauge
}

// NewMetrics creates and registers all ingest metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.Invocations,
		m.PhaseDuration,
		m.InvocationDuration,
		m.LastSuccess,
		m.FetchResponses,
		m.PayloadBytes,
		m.RecordsStored,
		m.SchedulerRunning,
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
		Invocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forecast_ingest",
			Name:      "invocations_total",
			Help:      "Invocations by outcome.",
		}, []string{"outcome"}),
		PhaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "forecast_ingest",
			Name:      "phase_duration_seconds",
			Help:      "Duration of each invocation phase.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"phase"}),
		InvocationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "forecast_ingest",
			Name:      "invocation_duration_seconds",
			Help:      "Duration of a complete fetch-decode-store invocation.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
		LastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "forecast_ingest",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last invocation that stored a record.",
		}),
		FetchResponses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "forecast_ingest",
			Name:      "fetch_responses_total",
			Help:      "Forecast API responses by HTTP status code.",
		}, []string{"code"}),
		PayloadBytes: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "forecast_ingest",
			Name:      "payload_bytes",
			Help:      "Size of forecast response bodies.",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		}),
		RecordsStored: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "forecast_ingest",
			Name:      "records_stored_total",
			Help:      "Forecast records written to the target table.",
		}),
		SchedulerRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "forecast_ingest",
			Name:      "scheduler_running",
			Help:      "1 when the in-process scheduler is active, 0 otherwise.",
		}),
	}
}
