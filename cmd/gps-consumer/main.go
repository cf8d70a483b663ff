package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"vehicle-accounting/gps/internal/bus"
	"vehicle-accounting/gps/internal/config"
	"vehicle-accounting/gps/internal/consume"
	"vehicle-accounting/gps/internal/logging"
	"vehicle-accounting/gps/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("gps-consumer", "info", false)
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}
	log := logging.New("gps-consumer", cfg.Log.Level, cfg.Log.Pretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := store.NewPostgresStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Bounded bootstrap budget: a dedicated consumer that cannot reach
	// the broker should exit non-zero so the supervisor restarts it.
	sub, err := bus.NewSubscriber(ctx, bus.Config{
		URL:         cfg.Broker.URL,
		RetryDelay:  cfg.Broker.RetryDelay,
		MaxAttempts: cfg.Broker.ConsumerAttempts,
	}, "gps-consumer", log)
	if err != nil {
		log.Fatal().Err(err).Msg("broker unreachable, giving up")
	}
	defer sub.Close()

	consumer := consume.NewPositionConsumer(db, db, log)

	log.Info().Msg("gps consumer started, waiting for messages")
	if err := sub.Consume(ctx, bus.TopicPositions, consumer.Handle); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("consume loop failed")
	}
	log.Info().Msg("gps consumer stopped")
}
