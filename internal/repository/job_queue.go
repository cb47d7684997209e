package repository

import (
	"context"
	"errors"

	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"
	domrepo "github.com/IanaraFer/dataSite-sub000/internal/domain/repository"
	pkgkafka "github.com/IanaraFer/dataSite-sub000/pkg/kafka"
	"github.com/IanaraFer/dataSite-sub000/pkg/queue"
)

// ForecastJobType routes forecast jobs on the Redis queue.
const ForecastJobType = "forecast.run"

// ErrJobsDisabled is returned when no job backend is configured.
var ErrJobsDisabled = errors.New("async jobs are disabled")

// KafkaJobQueue writes jobs to a topic keyed by series id, so jobs for one
// series land on one partition in order.
type KafkaJobQueue struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaJobQueue(producer *pkgkafka.Producer, topic string) domrepo.JobQueue {
	return &KafkaJobQueue{producer: producer, topic: topic}
}

func (q *KafkaJobQueue) Enqueue(ctx context.Context, job *models.ForecastJob) error {
	key := job.Request.SeriesID
	if key == "" {
		key = job.ID
	}
	return q.producer.Publish(ctx, q.topic, []byte(key), job)
}

// RedisJobQueue pushes jobs onto the Redis list queue.
type RedisJobQueue struct {
	svc queue.QueueService
}

func NewRedisJobQueue(svc queue.QueueService) domrepo.JobQueue {
	return &RedisJobQueue{svc: svc}
}

func (q *RedisJobQueue) Enqueue(ctx context.Context, job *models.ForecastJob) error {
	return q.svc.PublishMessage(ctx, ForecastJobType, job)
}

// DisabledJobQueue rejects every job.
type DisabledJobQueue struct{}

func (DisabledJobQueue) Enqueue(context.Context, *models.ForecastJob) error {
	return ErrJobsDisabled
}
