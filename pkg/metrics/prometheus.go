package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	forecasts      *prometheus.CounterVec
	trainDuration  *prometheus.HistogramVec
	backendR2      *prometheus.GaugeVec
	ensembleWeight *prometheus.GaugeVec
	errorsTotal    *prometheus.CounterVec
	latency        *prometheus.HistogramVec
	cache          *prometheus.CounterVec
	jobs           *prometheus.CounterVec
}

// New registers the collectors on the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry registers the collectors on reg; tests pass a fresh registry.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		forecasts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smef_forecasts_total",
				Help: "Forecast calls by requested model and outcome",
			},
			[]string{"model", "outcome"},
		),
		trainDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "smef_backend_training_duration_seconds",
				Help:    "Time spent fitting one backend, holdout scoring and refit included",
				Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"backend"},
		),
		backendR2: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "smef_backend_r2",
				Help: "Holdout R² of the most recent training per backend",
			},
			[]string{"backend"},
		),
		ensembleWeight: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "smef_ensemble_weight",
				Help: "Normalised weight of each backend in the latest ensemble",
			},
			[]string{"backend"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smef_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "smef_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		cache: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smef_cache_requests_total",
				Help: "Result cache lookups by result (hit, miss, error)",
			},
			[]string{"result"},
		),
		jobs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "smef_jobs_total",
				Help: "Asynchronous forecast jobs by outcome",
			},
			[]string{"outcome"},
		),
	}
}

func (r *Recorder) RecordForecast(model, outcome string) {
	if model == "" {
		model = "auto"
	}
	r.forecasts.WithLabelValues(model, outcome).Inc()
}

func (r *Recorder) RecordBackendTraining(backend string, seconds, r2 float64) {
	r.trainDuration.WithLabelValues(backend).Observe(seconds)
	r.backendR2.WithLabelValues(backend).Set(r2)
}

func (r *Recorder) RecordEnsembleWeight(backend string, weight float64) {
	r.ensembleWeight.WithLabelValues(backend).Set(weight)
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

func (r *Recorder) RecordCache(result string) {
	r.cache.WithLabelValues(result).Inc()
}

func (r *Recorder) RecordJob(outcome string) {
	r.jobs.WithLabelValues(outcome).Inc()
}
