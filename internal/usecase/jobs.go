package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"
	domrepo "github.com/IanaraFer/dataSite-sub000/internal/domain/repository"
	"github.com/IanaraFer/dataSite-sub000/internal/service/cache"
	applogger "github.com/IanaraFer/dataSite-sub000/pkg/logger"
	"github.com/IanaraFer/dataSite-sub000/pkg/tracing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// Submit records a pending job and hands it to the job backend.
func (uc *ForecastUsecase) Submit(ctx context.Context, req models.JobRequest) (*models.JobResult, error) {
	if uc.cfg.MaxRows > 0 && len(req.Rows) > uc.cfg.MaxRows {
		return nil, fmt.Errorf("%w: %d rows, limit is %d", ErrTooManyRows, len(req.Rows), uc.cfg.MaxRows)
	}
	job := &models.ForecastJob{
		ID:          uuid.NewString(),
		Request:     req,
		SubmittedAt: uc.now().UTC(),
	}
	status := &models.JobResult{ID: job.ID, Status: models.JobPending, UpdatedAt: job.SubmittedAt}
	if err := uc.saveStatus(ctx, status); err != nil {
		return nil, err
	}

	if err := uc.jobs.Enqueue(ctx, job); err != nil {
		uc.metrics.RecordJob("enqueue_error")
		status.Status = models.JobFailed
		status.Error = err.Error()
		status.UpdatedAt = uc.now().UTC()
		_ = uc.saveStatus(ctx, status)
		return nil, fmt.Errorf("enqueue job: %w", err)
	}
	uc.metrics.RecordJob("submitted")
	uc.log.Info("forecast job submitted",
		applogger.String("job_id", job.ID),
		applogger.String("series_id", req.SeriesID),
		applogger.Int("rows", len(req.Rows)),
	)
	return status, nil
}

// JobStatus returns the last recorded state of a job.
func (uc *ForecastUsecase) JobStatus(ctx context.Context, id string) (*models.JobResult, error) {
	b, ok, err := uc.cache.GetBytes(ctx, cache.JobKey(id))
	if err != nil {
		return nil, fmt.Errorf("read job %s: %w", id, err)
	}
	if !ok {
		return nil, ErrJobNotFound
	}
	var res models.JobResult
	if err := json.Unmarshal(b, &res); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &res, nil
}

// Process runs one job to completion. Only failures worth retrying are
// returned: a missing series or an engine error record finish the job as failed.
func (uc *ForecastUsecase) Process(ctx context.Context, job *models.ForecastJob) error {
	ctx, span := uc.tracer.Start(ctx, "usecase.process_job", trace.WithAttributes(
		tracing.AttrJobID.String(job.ID),
		tracing.AttrSeriesID.String(job.Request.SeriesID),
	))
	defer span.End()
	start := uc.now()

	_ = uc.saveStatus(ctx, &models.JobResult{ID: job.ID, Status: models.JobRunning, UpdatedAt: start.UTC()})

	req := job.Request.Forecast()
	if job.Request.SeriesID != "" {
		rows, err := uc.seriesRows(ctx, job.Request.SeriesID, job.Request.Limit)
		if err != nil {
			if !errors.Is(err, domrepo.ErrSeriesNotFound) {
				tracing.RecordError(span, err)
				uc.metrics.RecordJob("retry")
				return err
			}
			return uc.finish(ctx, job, nil, err)
		}
		req.Rows = rows
		req.DateCol = SeriesDateCol
		req.TargetCol = SeriesTargetCol
	}

	rec, err := uc.Forecast(ctx, req)
	uc.metrics.RecordLatency("job_process", uc.now().Sub(start).Seconds())
	return uc.finish(ctx, job, rec, err)
}

func (uc *ForecastUsecase) finish(ctx context.Context, job *models.ForecastJob, rec *models.Forecast, err error) error {
	res := &models.JobResult{ID: job.ID, Status: models.JobDone, Result: rec, UpdatedAt: uc.now().UTC()}
	switch {
	case err != nil:
		res.Status = models.JobFailed
		res.Error = err.Error()
	case rec.Failed():
		res.Status = models.JobFailed
		res.Error = rec.Error
	}
	uc.metrics.RecordJob(string(res.Status))

	if serr := uc.saveStatus(ctx, res); serr != nil {
		return serr
	}
	if perr := uc.publisher.PublishResult(ctx, res); perr != nil {
		uc.log.Warn("publish job result failed", applogger.String("job_id", job.ID), applogger.Error(perr))
	}
	uc.log.Info("forecast job finished",
		applogger.String("job_id", job.ID),
		applogger.String("status", string(res.Status)),
		applogger.Duration("latency", time.Since(job.SubmittedAt)),
	)
	return nil
}

func (uc *ForecastUsecase) saveStatus(ctx context.Context, res *models.JobResult) error {
	b, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", res.ID, err)
	}
	if err := uc.cache.SetBytes(ctx, cache.JobKey(res.ID), b, uc.cfg.JobTTL); err != nil {
		uc.log.Warn("job status write failed", applogger.String("job_id", res.ID), applogger.Error(err))
		return fmt.Errorf("store job %s: %w", res.ID, err)
	}
	return nil
}
