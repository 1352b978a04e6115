package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/example/desk-booking/internal/application"
	"github.com/example/desk-booking/internal/config"
	"github.com/example/desk-booking/internal/mq"
	"github.com/example/desk-booking/internal/outbox"
	"github.com/example/desk-booking/internal/persistence/sqlite"
	"github.com/example/desk-booking/internal/persistence/sqlite/migration"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	pool, err := sqlite.NewConnectionPool(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open storage", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := migration.NewManager(pool.DB(), logger).Run(context.Background()); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	publisher, err := mq.NewPublisher(cfg.AMQPURL, cfg.AMQPQueue)
	if err != nil {
		logger.Error("failed to connect to message broker", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := publisher.Close(); cerr != nil {
			logger.Error("failed to close message broker connection", "error", cerr)
		}
	}()

	// The API server sweeps lazily on availability reads; this loop keeps
	// no-show marking current during quiet hours as well.
	sweeper := application.NewNoShowSweeperWithLogger(sqlite.NewReservationRepository(pool), time.Now, logger)
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := sweeper.Sweep(ctx); err != nil {
					logger.Error("no-show sweep failed", "error", err)
				}
			}
		}
	}()

	worker := outbox.NewWorker(sqlite.NewOutboxRepository(pool), publisher, outbox.Options{
		PollInterval: cfg.OutboxPollInterval,
		BatchSize:    cfg.OutboxBatchSize,
		MaxAttempts:  cfg.OutboxMaxAttempts,
		Logger:       logger,
	})

	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("outbox worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("outbox worker stopped")
}
