package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"
	"github.com/IanaraFer/dataSite-sub000/internal/middleware"
	"github.com/IanaraFer/dataSite-sub000/internal/repository"
	pkghttp "github.com/IanaraFer/dataSite-sub000/pkg/http"
	pkgkafka "github.com/IanaraFer/dataSite-sub000/pkg/kafka"
	"github.com/IanaraFer/dataSite-sub000/pkg/queue"
)

// decodeJob applies request defaults and validation to a job that arrived
// from a broker rather than through the HTTP handler.
func decodeJob(ctx context.Context, job *models.ForecastJob) error {
	if errs := pkghttp.DefaultAndValidate(ctx, &job.Request); errs != nil {
		return fmt.Errorf("%w: %v", middleware.ErrInvalidJob, pkghttp.ValidationFailure(errs))
	}
	return nil
}

// KafkaForecastHandler consumes forecast jobs from the jobs topic.
type KafkaForecastHandler struct {
	topic string
	proc  middleware.JobProcessor
}

func NewKafkaForecastHandler(topic string, proc middleware.JobProcessor) *KafkaForecastHandler {
	return &KafkaForecastHandler{topic: topic, proc: proc}
}

func (h *KafkaForecastHandler) Topic() string { return h.topic }

// Handle decodes a models.ForecastJob. Malformed jobs are permanent failures
// and go straight to the DLQ.
func (h *KafkaForecastHandler) Handle(ctx context.Context, b []byte) error {
	var job models.ForecastJob
	if err := json.Unmarshal(b, &job); err != nil {
		return fmt.Errorf("%w: decode job: %v", pkgkafka.ErrPermanent, err)
	}
	if err := decodeJob(ctx, &job); err != nil {
		return fmt.Errorf("%w: %v", pkgkafka.ErrPermanent, err)
	}
	err := h.proc.Process(ctx, &job)
	if errors.Is(err, middleware.ErrInvalidJob) {
		return fmt.Errorf("%w: %v", pkgkafka.ErrPermanent, err)
	}
	return err
}

var _ pkgkafka.MessageHandler = (*KafkaForecastHandler)(nil)

// ForecastJob runs forecast jobs from the Redis queue.
type ForecastJob struct {
	proc middleware.JobProcessor
}

func NewForecastJob(proc middleware.JobProcessor) *ForecastJob {
	return &ForecastJob{proc: proc}
}

func (j *ForecastJob) Name() string { return "forecast" }
func (j *ForecastJob) Type() string { return repository.ForecastJobType }

func (j *ForecastJob) Handle(ctx context.Context, payload interface{}) error {
	job, err := queue.ParsePayload[models.ForecastJob](payload)
	if err != nil {
		return fmt.Errorf("%w: %v", queue.ErrSkipRetry, err)
	}
	if err := decodeJob(ctx, job); err != nil {
		return fmt.Errorf("%w: %v", queue.ErrSkipRetry, err)
	}
	err = j.proc.Process(ctx, job)
	if errors.Is(err, middleware.ErrInvalidJob) {
		return fmt.Errorf("%w: %v", queue.ErrSkipRetry, err)
	}
	return err
}

var _ queue.Job = (*ForecastJob)(nil)
