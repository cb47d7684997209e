package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"
	domrepo "github.com/IanaraFer/dataSite-sub000/internal/domain/repository"
)

// ErrInvalidJob marks payloads that can never succeed.
var ErrInvalidJob = errors.New("invalid forecast job")

// JobProcessor is the downstream the pipeline feeds.
type JobProcessor interface {
	Process(ctx context.Context, job *models.ForecastJob) error
}

// JobPipeline sits between the job consumers and the usecase. It validates
// jobs and spaces out jobs for the same series by the throttle window, so a
// burst becomes one computation followed by result cache hits.
type JobPipeline struct {
	proc     JobProcessor
	metrics  domrepo.Metrics
	throttle time.Duration

	mu   sync.Mutex
	next map[string]time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

type PipelineOption func(*JobPipeline)

// WithThrottle sets the minimum spacing between jobs for one series.
func WithThrottle(d time.Duration) PipelineOption {
	return func(p *JobPipeline) {
		if d >= 0 {
			p.throttle = d
		}
	}
}

func NewJobPipeline(proc JobProcessor, metrics domrepo.Metrics, opts ...PipelineOption) *JobPipeline {
	p := &JobPipeline{
		proc:     proc,
		metrics:  metrics,
		throttle: 2 * time.Second,
		next:     make(map[string]time.Time),
		now:      time.Now,
		sleep:    sleepCtx,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process validates, throttles and forwards job downstream.
func (p *JobPipeline) Process(ctx context.Context, job *models.ForecastJob) error {
	start := p.now()
	if err := validateJob(job); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return err
	}

	if wait := p.reserve(throttleKey(job), start); wait > 0 {
		p.metrics.RecordLatency("pipeline_throttle_wait", wait.Seconds())
		if err := p.sleep(ctx, wait); err != nil {
			return err
		}
	}

	if err := p.proc.Process(ctx, job); err != nil {
		p.metrics.RecordError("pipeline_process")
		return fmt.Errorf("pipeline downstream: %w", err)
	}
	p.metrics.RecordLatency("pipeline_process", p.now().Sub(start).Seconds())
	return nil
}

// reserve books the next slot for key and returns how long to wait for it.
func (p *JobPipeline) reserve(key string, now time.Time) time.Duration {
	if key == "" || p.throttle <= 0 {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.next) > 4096 {
		for k, t := range p.next {
			if t.Before(now) {
				delete(p.next, k)
			}
		}
	}

	slot, ok := p.next[key]
	if !ok || !slot.After(now) {
		p.next[key] = now.Add(p.throttle)
		return 0
	}
	p.next[key] = slot.Add(p.throttle)
	return slot.Sub(now)
}

// throttleKey groups jobs over the same stored series; inline jobs are never throttled.
func throttleKey(job *models.ForecastJob) string {
	return job.Request.SeriesID
}

func validateJob(job *models.ForecastJob) error {
	switch {
	case job == nil:
		return fmt.Errorf("%w: nil job", ErrInvalidJob)
	case job.ID == "":
		return fmt.Errorf("%w: empty id", ErrInvalidJob)
	case job.Request.SeriesID == "" && len(job.Request.Rows) == 0:
		return fmt.Errorf("%w: job %s has neither series_id nor rows", ErrInvalidJob, job.ID)
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
