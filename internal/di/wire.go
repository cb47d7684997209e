//go:build wireinject
// +build wireinject

package di

import (
	"github.com/IanaraFer/dataSite-sub000/internal/usecase"
	"github.com/IanaraFer/dataSite-sub000/pkg/config"
	"github.com/IanaraFer/dataSite-sub000/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// The cleanup closes storage, Redis and Kafka clients in reverse order.
func InitializeApp(cfg *config.Config) (*server.App, func(), error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideTracing,

		// Infrastructure clients
		ProvideSeriesStore,
		ProvideRedisClient,
		ProvideCache,
		ProvideKafkaProducer,
		ProvideRedisQueue,

		// Repositories
		ProvideJobQueue,
		ProvideResultPublisher,

		// Use cases
		ProvideForecasterFactory,
		ProvideForecastConfig,
		usecase.NewForecastUsecase,
		ProvideJobPipeline,
		ProvideKafkaConsumer,

		// HTTP
		ProvideLimiter,
		ProvideForecastHandler,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return nil, nil, nil
}
