package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"vehicle-accounting/gps/internal/auth"
	"vehicle-accounting/gps/internal/bus"
	"vehicle-accounting/gps/internal/cache"
	"vehicle-accounting/gps/internal/config"
	"vehicle-accounting/gps/internal/ingest"
	"vehicle-accounting/gps/internal/logging"
	"vehicle-accounting/gps/internal/store"
	transporthttp "vehicle-accounting/gps/internal/transport/http"
	"vehicle-accounting/gps/internal/transport/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("gps-service", "info", false)
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}
	log := logging.New("gps-service", cfg.Log.Level, cfg.Log.Pretty)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pub, err := bus.NewPublisher(ctx, bus.Config{
		URL:         cfg.Broker.URL,
		RetryDelay:  cfg.Broker.RetryDelay,
		MaxAttempts: cfg.Broker.ProducerAttempts,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("broker unreachable, giving up")
	}
	defer pub.Close()

	var keyLookup auth.KeyLookup
	if cfg.Redis.Addr != "" {
		redisStore, err := store.NewRedisStore(ctx, cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisStore.Close()
		keyLookup = redisStore
	}
	authn := auth.NewAuthenticator(cfg, keyLookup)

	hub := ws.NewHub(log)
	defer hub.Close()

	svc := ingest.NewService(
		cache.NewLastPositionCache(),
		pub,
		cfg.Speed.LimitKmh,
		log,
		ingest.WithBroadcaster(hub),
	)

	handler := transporthttp.NewHandler(svc, log)
	router := transporthttp.NewRouter(handler, authn, hub)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().Str("port", cfg.HTTP.Port).Float64("speed_limit_kmh", cfg.Speed.LimitKmh).Msg("gps service listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("gps service failed")
	}
	log.Info().Msg("gps service stopped")
}
