// Package telemetry records evaluation runs as Prometheus metrics.
package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/baditaflorin/go_length_eval/internal/core/domain"
	"github.com/baditaflorin/go_length_eval/internal/ports"
)

const namespace = "lengtheval"

// Recorder implements ports.RunRecorder on a private registry.
type Recorder struct {
	registry *prometheus.Registry

	trialsTotal        *prometheus.CounterVec
	generationDuration *prometheus.HistogramVec
	generationErrors   *prometheus.CounterVec
	degenerateTotal    *prometheus.CounterVec
	lengthRatio        *prometheus.HistogramVec
	similarity         *prometheus.HistogramVec
}

var _ ports.RunRecorder = (*Recorder)(nil)

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		trialsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trials_total",
			Help:      "Completed trials by operation.",
		}, []string{"operation"}),
		generationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Time spent in the generation model per trial.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}, []string{"model"}),
		generationErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_errors_total",
			Help:      "Failed generation calls.",
		}, []string{"model"}),
		degenerateTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "degenerate_metrics_total",
			Help:      "Metric computations that fell back to their empty-input sentinel.",
		}, []string{"metric"}),
		lengthRatio: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "length_ratio",
			Help:      "Generated length divided by target length.",
			Buckets:   []float64{0.25, 0.5, 0.75, 0.9, 1, 1.1, 1.25, 1.5, 2, 4},
		}, []string{"operation"}),
		similarity: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "similarity",
			Help:      "Similarity scores in [0, 1] by metric.",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10),
		}, []string{"metric"}),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// ObserveGeneration records one generation call.
func (r *Recorder) ObserveGeneration(model string, d time.Duration, err error) {
	if err != nil {
		r.generationErrors.WithLabelValues(model).Inc()
		return
	}
	r.generationDuration.WithLabelValues(model).Observe(d.Seconds())
}

// ObserveTrial records a completed trial.
func (r *Recorder) ObserveTrial(result domain.TrialResult) {
	op := result.Direction.String()
	r.trialsTotal.WithLabelValues(op).Inc()
	if result.TargetLength > 0 {
		r.lengthRatio.WithLabelValues(op).Observe(float64(result.GeneratedLength) / float64(result.TargetLength))
	}
	r.similarity.WithLabelValues("levenshtein").Observe(result.LevenshteinSimilarity)
	r.similarity.WithLabelValues("jaccard").Observe(result.JaccardSimilarity)
	r.similarity.WithLabelValues("cosine").Observe(result.CosineSimilarity)
	r.similarity.WithLabelValues("length_adherence").Observe(result.LengthAdherence)
}

// ObserveDegenerate records a metric that returned its sentinel.
func (r *Recorder) ObserveDegenerate(metric string) {
	r.degenerateTotal.WithLabelValues(metric).Inc()
}

// WriteTextfile writes the registry to path for the node_exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}
