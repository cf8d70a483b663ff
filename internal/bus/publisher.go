package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	wmnats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"vehicle-accounting/gps/internal/logging"
)

// Publisher publishes JSON payloads to named topics. Publish blocks until
// the broker acknowledges the message, so a returned nil means the event
// is durably queued.
type Publisher struct {
	pub message.Publisher
	log zerolog.Logger
}

// NewPublisher establishes the broker connection, retrying with a fixed
// delay up to cfg.MaxAttempts before giving up.
func NewPublisher(ctx context.Context, cfg Config, log zerolog.Logger) (*Publisher, error) {
	wmLog := logging.NewWatermillAdapter(log)

	var pub message.Publisher
	connect := func() error {
		p, err := wmnats.NewPublisher(wmnats.PublisherConfig{
			URL: cfg.URL,
			NatsOptions: []natsgo.Option{
				natsgo.Timeout(cfg.RetryDelay),
				natsgo.MaxReconnects(-1),
			},
			Marshaler: &wmnats.NATSMarshaler{},
			JetStream: wmnats.JetStreamConfig{
				AutoProvision: true,
				PublishOptions: []natsgo.PubOpt{
					natsgo.RetryAttempts(3),
					natsgo.RetryWait(100 * time.Millisecond),
				},
			},
		}, wmLog)
		if err != nil {
			return err
		}
		pub = p
		return nil
	}

	if err := connectWithRetry(ctx, cfg, connect, log); err != nil {
		return nil, fmt.Errorf("connect broker publisher: %w", err)
	}

	log.Info().Str("url", cfg.URL).Msg("broker publisher connected")
	return &Publisher{pub: pub, log: log}, nil
}

// Publish serializes payload as JSON and publishes it to topic. Failures
// are returned to the caller unretried; silent redelivery here would make
// duplicate publishes ambiguous.
func (p *Publisher) Publish(topic string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}

	msg := message.NewMessage(uuid.NewString(), data)
	if err := p.pub.Publish(topic, msg); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.pub.Close()
}
