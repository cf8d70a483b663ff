package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"vehicle-accounting/gps/internal/bus"
	"vehicle-accounting/gps/internal/config"
	"vehicle-accounting/gps/internal/logging"
	"vehicle-accounting/gps/internal/notify"
	"vehicle-accounting/gps/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("alert-notifier", "info", false)
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}
	log := logging.New("alert-notifier", cfg.Log.Level, cfg.Log.Pretty)

	if cfg.Telegram.APIKey == "" {
		log.Fatal().Msg("TELEGRAM_API_KEY is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Sessions live in memory unless Redis is configured, in which case
	// they survive notifier restarts.
	var sessions notify.SessionStore
	if cfg.Redis.Addr != "" {
		redisStore, err := store.NewRedisStore(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisStore.Close()
		sessions = notify.NewRedisSessionStore(redisStore.Client())
	} else {
		sessions = notify.NewMemorySessionStore()
	}

	tg := notify.NewTelegramClient(cfg.Telegram.APIKey)
	authClient := notify.NewAuthClient(cfg.Auth.APIURL)
	notifier := notify.NewNotifier(sessions, authClient, tg, cfg.Auth.APIURL, log)

	sub, err := bus.NewSubscriber(ctx, bus.Config{
		URL:         cfg.Broker.URL,
		RetryDelay:  cfg.Broker.RetryDelay,
		MaxAttempts: cfg.Broker.ConsumerAttempts,
	}, "alert-notifier", log)
	if err != nil {
		log.Fatal().Err(err).Msg("broker unreachable, giving up")
	}
	defer sub.Close()

	bot := notify.NewBot(tg, notifier, cfg.Telegram.PollTimeout, log)

	// The alert fan-out loop and the interactive command loop run side
	// by side; neither may block the other.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Msg("alert subscription started")
		return sub.Consume(gctx, bus.TopicAlerts, notifier.HandleAlert)
	})
	g.Go(func() error {
		log.Info().Msg("bot command loop started")
		return bot.Run(gctx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("alert notifier failed")
	}
	log.Info().Msg("alert notifier stopped")
}
