package repository

import (
	"context"

	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"
)

// ResultPublisher fans finished forecasts out to downstream consumers.
type ResultPublisher interface {
	PublishResult(ctx context.Context, result *models.JobResult) error
	Close() error
}

// JobQueue accepts async forecast jobs.
type JobQueue interface {
	Enqueue(ctx context.Context, job *models.ForecastJob) error
}

type Metrics interface {
	RecordForecast(model, outcome string)
	RecordBackendTraining(backend string, seconds float64, r2 float64)
	RecordEnsembleWeight(backend string, weight float64)
	RecordError(kind string)
	RecordLatency(op string, seconds float64)
	RecordCache(result string)
	RecordJob(outcome string)
}
