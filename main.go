package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"syscall"

	"github.com/mahirjain10/s3-thumbnailer/config"
	"github.com/mahirjain10/s3-thumbnailer/internal/api"
	"github.com/mahirjain10/s3-thumbnailer/internal/aws"
	"github.com/mahirjain10/s3-thumbnailer/internal/logger"
	"github.com/mahirjain10/s3-thumbnailer/internal/queue"
	"github.com/mahirjain10/s3-thumbnailer/internal/thumbnail"
	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	_ "go.uber.org/automaxprocs"
)

var version = "dev"

type App struct {
	config          *config.Config
	log             *slog.Logger
	rabbitMqService *queue.RabbitMqService
	opsServer       *api.OpsServer
}

// NewApp creates and initializes a new App instance with all dependencies
func NewApp(ctx context.Context) (*App, error) {
	envConfig, err := config.InitializeEnvs()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize environment config: %w", err)
	}
	if err := envConfig.ValidateWorker(); err != nil {
		return nil, err
	}

	l := logger.New(envConfig.LogLevel, envConfig.LogFormat)

	awsConfig, err := config.InitializeAws(ctx, envConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize AWS config: %w", err)
	}

	metricRegistry := prometheus.NewRegistry()
	metricRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s3Client := aws.NewS3Client(awsConfig, envConfig.AwsEndpoint, envConfig.AwsForcePathStyle)
	store := aws.NewStoreWithMetrics(aws.NewS3Service(s3Client, l), metricRegistry)

	thumbnailer, err := thumbnail.New(l, store, envConfig.TargetWidth)
	if err != nil {
		return nil, err
	}

	rabbitMqService := queue.NewRabbitMqService(l, thumbnailer, queue.Config{
		URL:            envConfig.RabbitMqURL,
		Queue:          envConfig.RabbitMqQueue,
		StatusExchange: envConfig.RabbitMqStatusExchange,
		Workers:        envConfig.WorkerCount,
	}, metricRegistry)

	return &App{
		config:          envConfig,
		log:             l,
		rabbitMqService: rabbitMqService,
		opsServer:       api.New(l, envConfig.OpsAddr, version, metricRegistry),
	}, nil
}

// Run blocks until a termination signal arrives or an actor fails.
func (a *App) Run(ctx context.Context) error {
	var g run.Group

	g.Add(run.SignalHandler(ctx, syscall.SIGINT, syscall.SIGTERM))

	consumerCtx, consumerCancel := context.WithCancel(ctx)
	g.Add(
		func() error {
			return a.rabbitMqService.Start(consumerCtx)
		},
		func(error) {
			a.log.Info("shutting down consumers")
			consumerCancel()
		},
	)

	g.Add(
		func() error {
			return a.opsServer.ListenAndServe()
		},
		func(error) {
			if err := a.opsServer.Shutdown(); err != nil {
				a.log.Error("ops api shutdown failed", logger.ErrorKey, err)
			}
		},
	)

	return g.Run()
}

func main() {
	ctx := context.Background()

	app, err := NewApp(ctx)
	if err != nil {
		slog.Error("failed to initialize application", logger.ErrorKey, err)
		os.Exit(1)
	}
	app.log.Info("application initialized", "version", version, "queue", app.config.RabbitMqQueue, "target_width", app.config.TargetWidth)

	if err := app.Run(ctx); err != nil {
		app.log.Info("application stopped", "reason", err.Error())
	}
}
