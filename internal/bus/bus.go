package bus

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

// Topic names shared by the producer and both consumer processes.
const (
	TopicPositions = "gps_points"
	TopicAlerts    = "speed_alerts"
)

// Config holds broker connection settings for one client. MaxAttempts is
// the bootstrap budget: the ingest-side producer passes a near-unbounded
// count, dedicated consumers a small one.
type Config struct {
	URL         string
	RetryDelay  time.Duration
	MaxAttempts uint64
}

// connectWithRetry runs connect until it succeeds, waiting a fixed delay
// between attempts, up to cfg.MaxAttempts. Cancelling ctx stops the loop
// and returns its error.
func connectWithRetry(ctx context.Context, cfg Config, connect func() error, log zerolog.Logger) error {
	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(cfg.RetryDelay), cfg.MaxAttempts-1),
		ctx,
	)

	attempt := 0
	return backoff.RetryNotify(connect, policy, func(err error, next time.Duration) {
		attempt++
		log.Warn().
			Err(err).
			Int("attempt", attempt).
			Dur("retry_in", next).
			Str("url", cfg.URL).
			Msg("broker connection failed")
	})
}
