package forecast

import (
	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"
	domrepo "github.com/IanaraFer/dataSite-sub000/internal/domain/repository"
	applogger "github.com/IanaraFer/dataSite-sub000/pkg/logger"

	"go.opentelemetry.io/otel/trace"
)

const (
	// DefaultHorizon applies when a caller does not specify a horizon.
	DefaultHorizon = 30
	// DefaultTrainRatio is the positional train/holdout boundary.
	DefaultTrainRatio = 0.8
)

// EngineOption configures Engine.
type EngineOption func(*EngineConfig)

// EngineConfig holds engine settings.
type EngineConfig struct {
	TrainRatio float64
	// Refit retrains each backend on the full history after scoring the
	// holdout. Off by default so the stored model is the scored one.
	Refit    bool
	Disabled []models.BackendTag
	Logger   *applogger.Logger
	Metrics  domrepo.Metrics
	Tracer   trace.Tracer
}

func defaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		TrainRatio: DefaultTrainRatio,
	}
}

// WithTrainRatio sets the fraction of rows used for training.
func WithTrainRatio(ratio float64) EngineOption {
	return func(c *EngineConfig) {
		if ratio > 0 && ratio <= 1 {
			c.TrainRatio = ratio
		}
	}
}

// WithRefit toggles retraining on the full history.
func WithRefit(refit bool) EngineOption {
	return func(c *EngineConfig) {
		c.Refit = refit
	}
}

// WithDisabledBackends hides backends even when they are compiled in.
func WithDisabledBackends(tags ...models.BackendTag) EngineOption {
	return func(c *EngineConfig) {
		c.Disabled = append(c.Disabled, tags...)
	}
}

// WithLogger sets the engine logger.
func WithLogger(l *applogger.Logger) EngineOption {
	return func(c *EngineConfig) {
		c.Logger = l
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m domrepo.Metrics) EngineOption {
	return func(c *EngineConfig) {
		c.Metrics = m
	}
}

// WithTracer sets the tracer used for engine spans.
func WithTracer(t trace.Tracer) EngineOption {
	return func(c *EngineConfig) {
		c.Tracer = t
	}
}

type nopMetrics struct{}

func (nopMetrics) RecordForecast(string, string)                  {}
func (nopMetrics) RecordBackendTraining(string, float64, float64) {}
func (nopMetrics) RecordEnsembleWeight(string, float64)           {}
func (nopMetrics) RecordError(string)                             {}
func (nopMetrics) RecordLatency(string, float64)                  {}
func (nopMetrics) RecordCache(string)                             {}
func (nopMetrics) RecordJob(string)                               {}
