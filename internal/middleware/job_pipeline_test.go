package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopMetrics struct{}

func (nopMetrics) RecordForecast(string, string)                  {}
func (nopMetrics) RecordBackendTraining(string, float64, float64) {}
func (nopMetrics) RecordEnsembleWeight(string, float64)           {}
func (nopMetrics) RecordError(string)                             {}
func (nopMetrics) RecordLatency(string, float64)                  {}
func (nopMetrics) RecordCache(string)                             {}
func (nopMetrics) RecordJob(string)                               {}

type procFunc func(ctx context.Context, job *models.ForecastJob) error

func (f procFunc) Process(ctx context.Context, job *models.ForecastJob) error { return f(ctx, job) }

func seriesJob(id, series string) *models.ForecastJob {
	return &models.ForecastJob{ID: id, Request: models.JobRequest{SeriesID: series}}
}

func TestJobPipelineSpacesSameSeries(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	var waits []time.Duration
	var seen []string

	p := NewJobPipeline(procFunc(func(_ context.Context, job *models.ForecastJob) error {
		seen = append(seen, job.ID)
		return nil
	}), nopMetrics{}, WithThrottle(2*time.Second))
	p.now = func() time.Time { return now }
	p.sleep = func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}

	ctx := context.Background()
	require.NoError(t, p.Process(ctx, seriesJob("a1", "shop")))
	require.NoError(t, p.Process(ctx, seriesJob("a2", "shop")))
	require.NoError(t, p.Process(ctx, seriesJob("a3", "shop")))
	require.NoError(t, p.Process(ctx, seriesJob("b1", "bakery")))
	require.NoError(t, p.Process(ctx, &models.ForecastJob{ID: "inline", Request: models.JobRequest{Rows: []models.Row{{}}}}))

	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, waits)
	assert.Equal(t, []string{"a1", "a2", "a3", "b1", "inline"}, seen)

	now = now.Add(10 * time.Second)
	waits = nil
	require.NoError(t, p.Process(ctx, seriesJob("a4", "shop")))
	assert.Empty(t, waits)
}

func TestJobPipelineRejectsInvalidJobs(t *testing.T) {
	called := false
	p := NewJobPipeline(procFunc(func(context.Context, *models.ForecastJob) error {
		called = true
		return nil
	}), nopMetrics{})

	for _, job := range []*models.ForecastJob{nil, {}, {ID: "x"}} {
		assert.ErrorIs(t, p.Process(context.Background(), job), ErrInvalidJob)
	}
	assert.False(t, called)
}

func TestJobPipelineWrapsDownstreamErrors(t *testing.T) {
	boom := errors.New("store down")
	p := NewJobPipeline(procFunc(func(context.Context, *models.ForecastJob) error { return boom }), nopMetrics{}, WithThrottle(0))
	err := p.Process(context.Background(), seriesJob("a", "shop"))
	assert.ErrorIs(t, err, boom)
}

func TestJobPipelineHonoursCancellation(t *testing.T) {
	p := NewJobPipeline(procFunc(func(context.Context, *models.ForecastJob) error { return nil }), nopMetrics{}, WithThrottle(time.Hour))
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, p.Process(ctx, seriesJob("a", "shop")))
	cancel()
	assert.ErrorIs(t, p.Process(ctx, seriesJob("b", "shop")), context.Canceled)
}
