package main

import (
	"context"
	"os"
	"time"

	"budget/internal/amqp"
	"budget/internal/backend"
	"budget/internal/cache"
	"budget/internal/cli"
	"budget/internal/log"
	"budget/internal/policy"
	"budget/internal/services"
	"budget/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker, os.Stdout)

	logger.Info("Starting budget-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid report backend", log.FieldError, err)
		os.Exit(1)
	}
	res, err := backend.NewFactory(logger.Logger).CreateBackend(context.Background(), bcfg)
	if err != nil {
		logger.Error("Failed to initialize report backend", log.FieldError, err)
		os.Exit(1)
	}

	// The worker only consumes; publishing is done by the CLI.
	var consumer worker.Consumer
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, relying on the schedule", log.FieldError, err)
		} else {
			consumer = amqpClient
			logger.Info("AMQP client initialized", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	} else {
		logger.Info("AMQP disabled - reports refresh on schedule only", "interval", cfg.RecomputeInterval)
	}

	snapshots := cache.NewLRUCache[*services.Snapshot](cfg.CacheSize, cfg.CacheTTL)
	svc := services.NewBudgetService(repo, nil, snapshots, cfg.TrendWindow)
	w := worker.NewRecomputeWorker(svc, res.Backend, services.Query{Filters: policy.DefaultFilters()})

	janitor := cache.NewJanitor(func(n int) {
		logger.Debug("Expired snapshots removed", log.FieldCount, n)
	}, snapshots)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	runErr := w.Run(ctx, consumer, worker.RunConfig{
		Interval:        cfg.RecomputeInterval,
		JanitorInterval: cfg.CacheTTL,
		Janitor:         janitor,
	})

	if amqpClient != nil {
		if err := amqpClient.Close(); err != nil {
			logger.Warn("Failed to close AMQP client", log.FieldError, err)
		}
	}
	if err := svc.Close(); err != nil {
		logger.Warn("Failed to close budget service", log.FieldError, err)
	}
	if res.Cleanup != nil {
		if err := res.Cleanup(); err != nil {
			logger.Warn("Backend cleanup failed", log.FieldError, err)
		}
	}

	if runErr != nil {
		logger.Error("Worker stopped", log.FieldError, runErr)
		os.Exit(1)
	}
	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
