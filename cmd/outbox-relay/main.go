package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/scorecast/platform/internal/infra"
	"github.com/scorecast/platform/internal/repository"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	if err := run(logger); err != nil {
		logger.Error("outbox relay failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := infra.LoadDotenv(); err != nil {
		return err
	}
	cfg, err := infra.LoadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	pool, err := infra.NewPostgresPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pool.Close()
	logger.Info("outbox-relay connected to postgres")

	producer := infra.NewKafkaProducer(cfg.KafkaBrokers, cfg.KafkaEnabled, logger)
	defer producer.Close()

	var pub infra.Publisher = producer
	if !producer.Enabled() {
		pub = logPublisher{logger: logger}
	}

	store := repository.OutboxStore{DB: pool, Repo: repository.NewOutboxRepository()}
	infra.NewOutboxPoller(store, pub, logger).WithInterval(2 * time.Second).Run(ctx)
	return nil
}

// logPublisher stands in for Kafka when it is disabled so rows still drain.
type logPublisher struct {
	logger *slog.Logger
}

func (p logPublisher) Publish(_ context.Context, topic string, key, value []byte) error {
	p.logger.Info("outbox event", "topic", topic, "key", string(key), "payload", string(value))
	return nil
}
