package di

import (
	"context"
	"fmt"
	"time"

	"github.com/IanaraFer/dataSite-sub000/internal/domain/models"
	domrepo "github.com/IanaraFer/dataSite-sub000/internal/domain/repository"
	domsvc "github.com/IanaraFer/dataSite-sub000/internal/domain/service"
	"github.com/IanaraFer/dataSite-sub000/internal/handler/api"
	mid "github.com/IanaraFer/dataSite-sub000/internal/middleware"
	internalrepo "github.com/IanaraFer/dataSite-sub000/internal/repository"
	"github.com/IanaraFer/dataSite-sub000/internal/service/cache"
	"github.com/IanaraFer/dataSite-sub000/internal/service/ratelimit"
	"github.com/IanaraFer/dataSite-sub000/internal/services/forecast"
	"github.com/IanaraFer/dataSite-sub000/internal/usecase"
	pkgch "github.com/IanaraFer/dataSite-sub000/pkg/clickhouse"
	"github.com/IanaraFer/dataSite-sub000/pkg/config"
	xhttp "github.com/IanaraFer/dataSite-sub000/pkg/http"
	"github.com/IanaraFer/dataSite-sub000/pkg/http/middleware"
	pkgkafka "github.com/IanaraFer/dataSite-sub000/pkg/kafka"
	applogger "github.com/IanaraFer/dataSite-sub000/pkg/logger"
	"github.com/IanaraFer/dataSite-sub000/pkg/metrics"
	pkgpg "github.com/IanaraFer/dataSite-sub000/pkg/postgres"
	"github.com/IanaraFer/dataSite-sub000/pkg/queue"
	"github.com/IanaraFer/dataSite-sub000/pkg/server"
	"github.com/IanaraFer/dataSite-sub000/pkg/tracing"

	"github.com/redis/go-redis/v9"
)

const initTimeout = 10 * time.Second

// ProvideLogger builds the process logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	l, err := applogger.New(&cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(applogger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() domrepo.Metrics {
	return metrics.New()
}

// ProvideTracing installs the OTLP exporter when tracing is enabled.
func ProvideTracing(cfg *config.Config, l *applogger.Logger) (*tracing.Provider, error) {
	if !cfg.Tracing.Enabled {
		return tracing.Disabled(), nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	tp, err := tracing.Init(ctx, tracing.Config{
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.Environment,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}
	l.Info("tracing enabled", applogger.String("endpoint", cfg.Tracing.Endpoint))
	return tp, nil
}

// ProvideSeriesStore opens the configured series storage and makes sure its schema exists.
func ProvideSeriesStore(cfg *config.Config, l *applogger.Logger) (domrepo.SeriesStore, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	switch cfg.Storage.Driver {
	case "clickhouse":
		client, err := pkgch.NewClient(
			pkgch.WithHost(cfg.ClickHouse.Host),
			pkgch.WithPort(cfg.ClickHouse.Port),
			pkgch.WithDatabase(cfg.ClickHouse.Database),
			pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
			pkgch.WithMaxConnections(10, 5),
			pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
			pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
			pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("clickhouse client: %w", err)
		}
		if err := client.InitSchema(ctx, pkgch.SeriesSchema); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("clickhouse schema: %w", err)
		}
		l.Info("series storage ready", applogger.String("driver", "clickhouse"), applogger.String("db", cfg.ClickHouse.Database))
		cleanup := func() {
			if err := client.Close(); err != nil {
				l.Warn("clickhouse close error", applogger.Error(err))
			}
		}
		return internalrepo.NewCHSeriesStore(client, l), cleanup, nil

	case "postgres":
		client, err := pkgpg.NewClient(ctx,
			pkgpg.WithDSN(cfg.Postgres.DSN),
			pkgpg.WithPoolSize(cfg.Postgres.MinConns, cfg.Postgres.MaxConns),
			pkgpg.WithMaxConnLifetime(cfg.Postgres.MaxConnLifetime),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("postgres client: %w", err)
		}
		if err := client.InitSchema(ctx, pkgpg.SeriesSchema); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("postgres schema: %w", err)
		}
		l.Info("series storage ready", applogger.String("driver", "postgres"))
		cleanup := func() {
			if err := client.Close(); err != nil {
				l.Warn("postgres close error", applogger.Error(err))
			}
		}
		return internalrepo.NewPGSeriesStore(client, l), cleanup, nil

	default:
		l.Info("series storage ready", applogger.String("driver", "memory"))
		return internalrepo.NewMemorySeriesStore(), func() {}, nil
	}
}

// ProvideRedisClient connects to Redis when the cache or the job queue needs it.
// It returns a nil client otherwise.
func ProvideRedisClient(cfg *config.Config, l *applogger.Logger) (redis.UniversalClient, func(), error) {
	if !cfg.Cache.Redis.Enabled && cfg.Jobs.Backend != "redis" {
		return nil, func() {}, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	cli, err := cache.NewRedisClient(ctx, cache.RedisConfig{
		Addr:     cfg.Cache.Redis.Addr,
		Password: cfg.Cache.Redis.Password,
		DB:       cfg.Cache.Redis.DB,
		Prefix:   cfg.Cache.Redis.Prefix,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	l.Info("redis connected", applogger.String("addr", cfg.Cache.Redis.Addr))
	cleanup := func() {
		if err := cli.Close(); err != nil {
			l.Warn("redis close error", applogger.Error(err))
		}
	}
	return cli, cleanup, nil
}

// ProvideCache builds the in-process LRU, layered over Redis when enabled.
func ProvideCache(cfg *config.Config, rc redis.UniversalClient) (cache.BytesCache, error) {
	l1, err := cache.NewLRUCache(cfg.Cache.LRUSize)
	if err != nil {
		return nil, fmt.Errorf("lru cache: %w", err)
	}
	if !cfg.Cache.Redis.Enabled || rc == nil {
		return l1, nil
	}
	l2 := cache.NewRedisCache(rc, cfg.Cache.Redis.Prefix)
	return cache.NewLayeredCache(l1, l2, cfg.Cache.TTL), nil
}

// ProvideKafkaProducer creates the producer for job and result topics.
// It returns nil unless jobs run over Kafka.
func ProvideKafkaProducer(cfg *config.Config, l *applogger.Logger) (*pkgkafka.Producer, func(), error) {
	if cfg.Jobs.Backend != "kafka" {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.BatchTimeout),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	cleanup := func() {
		if err := producer.Close(); err != nil {
			l.Warn("kafka producer close error", applogger.Error(err))
		}
	}
	return producer, cleanup, nil
}

// ProvideRedisQueue creates the Redis work queue. It returns nil unless jobs run over Redis.
func ProvideRedisQueue(cfg *config.Config, l *applogger.Logger, rc redis.UniversalClient) *queue.RedisQueue {
	if cfg.Jobs.Backend != "redis" || rc == nil {
		return nil
	}
	return queue.NewRedisQueue(l, &queue.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		RetryLimit: cfg.Kafka.Consumer.RetryMax,
		RetryDelay: cfg.Kafka.Consumer.BackoffMax,
	}, rc, queue.ModeProducerConsumer,
		queue.WithKeyPrefix(cfg.Cache.Redis.Prefix+"queue:"+cfg.Jobs.Queue),
	)
}

// ProvideJobQueue picks the job backend.
func ProvideJobQueue(cfg *config.Config, producer *pkgkafka.Producer, rq *queue.RedisQueue) domrepo.JobQueue {
	switch {
	case cfg.Jobs.Backend == "kafka" && producer != nil:
		return internalrepo.NewKafkaJobQueue(producer, cfg.Kafka.JobsTopic)
	case cfg.Jobs.Backend == "redis" && rq != nil:
		return internalrepo.NewRedisJobQueue(rq)
	default:
		return internalrepo.DisabledJobQueue{}
	}
}

// ProvideResultPublisher publishes finished jobs to Kafka when available.
func ProvideResultPublisher(cfg *config.Config, producer *pkgkafka.Producer) domrepo.ResultPublisher {
	if producer == nil || cfg.Kafka.ResultTopic == "" {
		return internalrepo.NopPublisher{}
	}
	return internalrepo.NewKafkaResultPublisher(producer, cfg.Kafka.ResultTopic)
}

// ProvideForecasterFactory hands out fresh engines built from config.
// The tracing provider is taken so the global tracer is installed first.
func ProvideForecasterFactory(cfg *config.Config, l *applogger.Logger, m domrepo.Metrics, _ *tracing.Provider) domsvc.ForecasterFactory {
	disabled := make([]models.BackendTag, 0, len(cfg.Forecast.DisabledBackends))
	for _, b := range cfg.Forecast.DisabledBackends {
		disabled = append(disabled, models.BackendTag(b))
	}
	engineLog := l.With(applogger.String("component", "engine"))
	return func() domsvc.Forecaster {
		return forecast.NewEngine(
			forecast.WithTrainRatio(cfg.Forecast.TrainRatio),
			forecast.WithRefit(cfg.Forecast.Refit),
			forecast.WithDisabledBackends(disabled...),
			forecast.WithLogger(engineLog),
			forecast.WithMetrics(m),
		)
	}
}

// ProvideForecastConfig maps config onto usecase limits.
func ProvideForecastConfig(cfg *config.Config) usecase.ForecastConfig {
	return usecase.ForecastConfig{
		DefaultHorizon: cfg.Forecast.DefaultHorizon,
		MaxRows:        cfg.Forecast.MaxRows,
		Timeout:        cfg.Forecast.RequestTimeout,
		CacheTTL:       cfg.Cache.TTL,
		JobTTL:         cfg.Cache.JobTTL,
	}
}

// ProvideJobPipeline wraps the usecase with validation and per-series throttling.
func ProvideJobPipeline(cfg *config.Config, uc *usecase.ForecastUsecase, m domrepo.Metrics) *mid.JobPipeline {
	return mid.NewJobPipeline(uc, m, mid.WithThrottle(cfg.Jobs.Throttle))
}

// ProvideKafkaConsumer creates the job consumer. It returns nil unless jobs run over Kafka.
func ProvideKafkaConsumer(cfg *config.Config, l *applogger.Logger, pipe *mid.JobPipeline) (*pkgkafka.Consumer, error) {
	if cfg.Jobs.Backend != "kafka" {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerLogger(l.With(applogger.String("component", "kafka-consumer"))),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.RegisterHandler(usecase.NewKafkaForecastHandler(cfg.Kafka.JobsTopic, pipe))
	return consumer, nil
}

// ProvideLimiter returns nil when rate limiting is off.
func ProvideLimiter(cfg *config.Config) middleware.Limiter {
	if !cfg.RateLimit.Enabled {
		return nil
	}
	return ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
}

// ProvideForecastHandler exposes the usecase over HTTP.
func ProvideForecastHandler(l *applogger.Logger, uc *usecase.ForecastUsecase, limiter middleware.Limiter) *api.ForecastEchoHandler {
	return api.NewForecastEchoHandler(l, uc, limiter)
}

// ProvideHTTPServer builds the Echo server with health and metrics routes.
func ProvideHTTPServer(cfg *config.Config, l *applogger.Logger, h *api.ForecastEchoHandler) *xhttp.Server {
	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(h,
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithBodyLimit(cfg.Server.BodyLimit),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(l),
	)
}

// ProvideApp creates the application and registers the Redis job when that backend is active.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	srv *xhttp.Server,
	tp *tracing.Provider,
	consumer *pkgkafka.Consumer,
	rq *queue.RedisQueue,
	pipe *mid.JobPipeline,
) *server.App {
	if rq != nil {
		rq.RegisterJob(usecase.NewForecastJob(pipe))
	}
	return server.New(cfg, l, srv, tp, consumer, rq)
}
