package bus

import (
	"context"
	"fmt"

	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"vehicle-accounting/gps/internal/logging"
)

// Handler processes one decoded message. A non-nil error is logged by the
// consume loop and the message is acked anyway: this pipeline's policy for
// bad messages is skip-and-continue, not retry or dead-letter.
type Handler func(ctx context.Context, payload []byte) error

// Subscriber consumes topics one message at a time in a long-running loop.
type Subscriber struct {
	sub message.Subscriber
	log zerolog.Logger
}

// NewSubscriber establishes the broker connection, retrying with a fixed
// delay up to cfg.MaxAttempts. Consumer processes treat a returned error
// as fatal and exit non-zero.
func NewSubscriber(ctx context.Context, cfg Config, durable string, log zerolog.Logger) (*Subscriber, error) {
	wmLog := logging.NewWatermillAdapter(log)

	var sub message.Subscriber
	connect := func() error {
		s, err := wmnats.NewSubscriber(wmnats.SubscriberConfig{
			URL: cfg.URL,
			NatsOptions: []natsgo.Option{
				natsgo.Timeout(cfg.RetryDelay),
				natsgo.MaxReconnects(-1),
			},
			Unmarshaler: &wmnats.NATSMarshaler{},
			JetStream: wmnats.JetStreamConfig{
				AutoProvision: true,
				DurablePrefix: durable,
			},
		}, wmLog)
		if err != nil {
			return err
		}
		sub = s
		return nil
	}

	if err := connectWithRetry(ctx, cfg, connect, log); err != nil {
		return nil, fmt.Errorf("connect broker subscriber: %w", err)
	}

	log.Info().Str("url", cfg.URL).Str("durable", durable).Msg("broker subscriber connected")
	return newSubscriber(sub, log), nil
}

func newSubscriber(sub message.Subscriber, log zerolog.Logger) *Subscriber {
	return &Subscriber{sub: sub, log: log}
}

// Consume handles messages from topic sequentially until ctx is cancelled
// or the subscription closes. Handler errors never stop the loop.
func (s *Subscriber) Consume(ctx context.Context, topic string, h Handler) error {
	msgs, err := s.sub.Subscribe(ctx, topic)
	if err != nil {
		return fmt.Errorf("subscribe to %s: %w", topic, err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return nil
			}
			if err := h(ctx, msg.Payload); err != nil {
				s.log.Error().
					Err(err).
					Str("topic", topic).
					Str("message_id", msg.UUID).
					Msg("message handling failed, skipping")
			}
			msg.Ack()
		}
	}
}

func (s *Subscriber) Close() error {
	return s.sub.Close()
}
