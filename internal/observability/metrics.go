// Package observability provides Prometheus metrics for the DermaScan application.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry *prometheus.Registry

	// Analysis pipeline
	AnalysisTotal     *prometheus.CounterVec
	AnalysisErrors    *prometheus.CounterVec
	InferenceDuration prometheus.Histogram
	PipelineDuration  prometheus.Histogram

	// Current state
	ModelLoadedGauge prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with its own registry.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()
	m := &Metrics{registry: registry}

	m.AnalysisTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dermascan_analyses_total",
			Help: "Total number of completed analyses partitioned by predicted class code.",
		},
		[]string{"class_code"},
	)

	m.AnalysisErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dermascan_analysis_errors_total",
			Help: "Total number of failed analyses partitioned by error category.",
		},
		[]string{"category"},
	)

	m.InferenceDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dermascan_inference_duration_seconds",
			Help:    "Time spent in classifier inference.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
	)

	m.PipelineDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dermascan_pipeline_duration_seconds",
			Help:    "End-to-end time for one analysis including persistence.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
	)

	m.ModelLoadedGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "dermascan_model_loaded",
			Help: "Whether the classifier model is loaded (1) or not (0).",
		},
	)

	collectors := []prometheus.Collector{
		m.AnalysisTotal,
		m.AnalysisErrors,
		m.InferenceDuration,
		m.PipelineDuration,
		m.ModelLoadedGauge,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metrics collector: %w", err)
		}
	}

	return m, nil
}

// Handler returns an HTTP handler serving the metrics registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
