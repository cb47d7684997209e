package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/IanaraFer/dataSite-sub000/pkg/config"
	xhttp "github.com/IanaraFer/dataSite-sub000/pkg/http"
	pkgkafka "github.com/IanaraFer/dataSite-sub000/pkg/kafka"
	applogger "github.com/IanaraFer/dataSite-sub000/pkg/logger"
	"github.com/IanaraFer/dataSite-sub000/pkg/queue"
	"github.com/IanaraFer/dataSite-sub000/pkg/tracing"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	tracing    *tracing.Provider
	consumer   *pkgkafka.Consumer
	worker     *queue.RedisQueue
}

// New creates a new App. consumer and worker are nil unless the matching job
// backend is configured.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	httpServer *xhttp.Server,
	tp *tracing.Provider,
	consumer *pkgkafka.Consumer,
	worker *queue.RedisQueue,
) *App {
	if log == nil {
		log = applogger.Nop()
	}
	return &App{
		cfg:        cfg,
		log:        log,
		httpServer: httpServer,
		tracing:    tp,
		consumer:   consumer,
		worker:     worker,
	}
}

// Start launches the HTTP server and any job workers without blocking.
func (a *App) Start() error {
	if a.consumer != nil {
		if err := a.consumer.Start(); err != nil {
			return err
		}
		a.log.Info("kafka job consumer started", applogger.String("topic", a.cfg.Kafka.JobsTopic))
	}
	if a.worker != nil {
		if err := a.worker.Start(); err != nil {
			return err
		}
		a.log.Info("redis job worker started", applogger.Int("workers", a.cfg.Jobs.Workers))
	}
	return a.httpServer.Start()
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	if err := a.Start(); err != nil {
		a.log.Error("app start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	sig := <-sigCh
	a.log.Info("shutdown signal received", applogger.String("signal", sig.String()))

	timeout := a.cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return a.Shutdown(ctx)
}

// Shutdown stops intake first, then workers, then flushes traces.
// Infrastructure clients are closed by the DI cleanup.
func (a *App) Shutdown(ctx context.Context) error {
	a.log.Info("shutting down")

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	if a.worker != nil {
		if err := a.worker.Stop(ctx); err != nil {
			a.log.Warn("redis worker stop error", applogger.Error(err))
		}
	}
	if err := a.tracing.Shutdown(ctx); err != nil {
		a.log.Warn("tracing shutdown error", applogger.Error(err))
	}

	a.log.Info("shutdown complete")
	return nil
}
