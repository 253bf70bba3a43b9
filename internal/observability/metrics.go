// Package observability holds the Prometheus instrumentation for the station.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters and histograms for the weather station.
type Metrics struct {
	ReadingsIngested prometheus.Counter
	IngestErrors     prometheus.Counter

	CombineRequests prometheus.Counter
	CombineDuration prometheus.Histogram

	// UpstreamDegraded counts merge-engine sources that contributed their
	// empty default instead of live data. Labels: source={sensor,api_current,
	// api_forecast,model,trends}.
	UpstreamDegraded *prometheus.CounterVec

	ModelRetrains     prometheus.Counter
	ModelRetrainFails prometheus.Counter
}

// NewMetrics creates and registers all station metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.ReadingsIngested,
		m.IngestErrors,
		m.CombineRequests,
		m.CombineDuration,
		m.UpstreamDegraded,
		m.ModelRetrains,
		m.ModelRetrainFails,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them, so tests can
// construct components repeatedly without "already registered" panics.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		ReadingsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_station",
			Name:      "readings_ingested_total",
			Help:      "Total sensor readings persisted from the serial port.",
		}),
		IngestErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_station",
			Name:      "ingest_errors_total",
			Help:      "Total readings that failed to persist.",
		}),
		CombineRequests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_station",
			Name:      "combine_requests_total",
			Help:      "Total combined-weather responses assembled.",
		}),
		CombineDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "weather_station",
			Name:      "combine_duration_seconds",
			Help:      "Duration of a full combined-weather assembly including upstream calls.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		UpstreamDegraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "weather_station",
			Name:      "upstream_degraded_total",
			Help:      "Merge-engine sources that fell back to their empty default.",
		}, []string{"source"}),
		ModelRetrains: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_station",
			Name:      "model_retrains_total",
			Help:      "Successful forecast model fits.",
		}),
		ModelRetrainFails: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "weather_station",
			Name:      "model_retrain_failures_total",
			Help:      "Forecast model fits that failed or lacked data.",
		}),
	}
}
