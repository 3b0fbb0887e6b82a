// Package metrics exposes Prometheus instrumentation for the pipeline.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Pipeline carries the pipeline's counters and timers. Zero-abundance
// organisms, skipped samples and solver failures all surface here so a long
// cohort run can be watched without scraping logs.
type Pipeline struct {
	SamplesBuilt     prometheus.Counter
	SamplesSkipped   prometheus.Counter
	SamplesFailed    prometheus.Counter
	SamplesSimulated prometheus.Counter

	BuildDuration      prometheus.Histogram
	SimulationDuration prometheus.Histogram
}

// NewPipeline registers the pipeline metrics on reg. Pass a fresh registry in
// tests to avoid duplicate-registration panics.
func NewPipeline(reg prometheus.Registerer) *Pipeline {
	factory := promauto.With(reg)
	return &Pipeline{
		SamplesBuilt: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "gutcom", Subsystem: "build", Name: "samples_built_total",
			Help: "Sample community models assembled and persisted.",
		}),
		SamplesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "gutcom", Subsystem: "build", Name: "samples_skipped_total",
			Help: "Samples skipped because their model artifact already existed.",
		}),
		SamplesFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "gutcom", Subsystem: "pipeline", Name: "samples_failed_total",
			Help: "Samples that failed in either phase.",
		}),
		SamplesSimulated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "gutcom", Subsystem: "simulate", Name: "samples_simulated_total",
			Help: "Samples with a completed net flux profile.",
		}),
		BuildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gutcom", Subsystem: "build", Name: "sample_duration_seconds",
			Help:    "Wall time to assemble one sample model.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		SimulationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gutcom", Subsystem: "simulate", Name: "sample_duration_seconds",
			Help:    "Wall time to solve and analyze one sample.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
}

// Handler serves the registry in Prometheus exposition format.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}
