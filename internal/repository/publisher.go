package repository

import (
	"context"

	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"
	domrepo "github.com/IanaraFer/dataSite-sub000/internal/domain/repository"
	pkgkafka "github.com/IanaraFer/dataSite-sub000/pkg/kafka"
)

// KafkaResultPublisher publishes finished jobs keyed by job id.
type KafkaResultPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaResultPublisher(producer *pkgkafka.Producer, topic string) domrepo.ResultPublisher {
	return &KafkaResultPublisher{producer: producer, topic: topic}
}

func (p *KafkaResultPublisher) PublishResult(ctx context.Context, result *models.JobResult) error {
	return p.producer.Publish(ctx, p.topic, []byte(result.ID), result)
}

func (p *KafkaResultPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// NopPublisher drops results; used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) PublishResult(context.Context, *models.JobResult) error { return nil }
func (NopPublisher) Close() error                                          { return nil }
