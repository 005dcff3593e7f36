// Package main runs the notification worker. It consumes request.published
// and quote.received events from Kafka and emails the affected operators and
// requesters. Delivery is at least once; the email step is currently logged
// through notify.LogSender.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pkordes/charter-broker/internal/config"
	"github.com/pkordes/charter-broker/internal/notify"
	"github.com/pkordes/charter-broker/internal/repo"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("configuration error", "error", err)
		os.Exit(1)
	}
	if len(cfg.KafkaBrokers) == 0 {
		slog.Error("configuration error", "error", "KAFKA_BROKERS must be set for the notifier")
		os.Exit(1)
	}

	var logLevel slog.Level
	if err := logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})).
		With("component", "notifier")
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	dispatcher := notify.NewDispatcher(repo.NewOperatorRepo(pool), notify.NewLogSender(logger), logger)
	consumer := notify.NewConsumer(cfg.KafkaBrokers, cfg.KafkaGroupID, cfg.NotificationsTopic, logger)
	defer consumer.Close()

	slog.Info("notifier starting", "brokers", cfg.KafkaBrokers, "topic", cfg.NotificationsTopic, "group", cfg.KafkaGroupID)
	if err := consumer.Consume(ctx, dispatcher.Handle); err != nil {
		slog.Error("consumer stopped", "error", err)
		os.Exit(1)
	}
	slog.Info("notifier stopped")
}
