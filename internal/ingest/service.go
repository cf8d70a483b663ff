package ingest

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"vehicle-accounting/gps/internal/bus"
	"vehicle-accounting/gps/internal/cache"
	"vehicle-accounting/gps/internal/domain"
	"vehicle-accounting/gps/internal/geo"
	"vehicle-accounting/gps/internal/metrics"
)

// Publisher is the broker producer the service publishes through. Publish
// must block until the broker acknowledges.
type Publisher interface {
	Publish(topic string, payload any) error
}

// Broadcaster pushes accepted readings to live dashboard clients. Best
// effort; it must never block the ingest path.
type Broadcaster interface {
	BroadcastPosition(ev domain.PositionEvent)
}

// Result is what the HTTP layer reports back to the device.
type Result struct {
	Speed float64
	Alert bool
}

// Service turns raw readings into position events and speed alerts. The
// observation timestamp is assigned server-side; devices never supply it.
type Service struct {
	cache      *cache.LastPositionCache
	pub        Publisher
	broadcast  Broadcaster
	speedLimit float64
	now        func() time.Time
	log        zerolog.Logger
}

type Option func(*Service)

// WithBroadcaster attaches a live feed for accepted readings.
func WithBroadcaster(b Broadcaster) Option {
	return func(s *Service) { s.broadcast = b }
}

// WithClock overrides the time source. Tests use this to control
// observation timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(c *cache.LastPositionCache, pub Publisher, speedLimit float64, log zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		cache:      c,
		pub:        pub,
		speedLimit: speedLimit,
		now:        time.Now,
		log:        log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ingest computes the reading's speed against the vehicle's last-known
// position, publishes the position event (and an alert when the speed
// strictly exceeds the limit), then overwrites the cached position. The
// whole sequence is serialized per vehicle; unrelated vehicles proceed in
// parallel. A publish failure aborts the request and leaves the cache
// untouched.
func (s *Service) Ingest(ctx context.Context, vehicleID int64, latitude, longitude float64) (Result, error) {
	var res Result

	err := s.cache.Update(vehicleID, func(prev domain.Position, ok bool) (domain.Position, error) {
		now := s.now()

		speed := 0.0
		if ok {
			speed = geo.Speed(
				prev.Latitude, prev.Longitude, prev.ObservedAt,
				latitude, longitude, now,
			)
		}

		ev := domain.PositionEvent{
			VehicleID:       vehicleID,
			Latitude:        latitude,
			Longitude:       longitude,
			Timestamp:       now,
			CalculatedSpeed: speed,
		}
		if err := s.pub.Publish(bus.TopicPositions, ev); err != nil {
			metrics.PublishFailures.Inc()
			return domain.Position{}, err
		}

		if speed > s.speedLimit {
			alert := domain.SpeedAlert{
				VehicleID:    vehicleID,
				CurrentSpeed: speed,
				SpeedLimit:   s.speedLimit,
				Location:     domain.Location{Latitude: latitude, Longitude: longitude},
				Timestamp:    now,
			}
			if err := s.pub.Publish(bus.TopicAlerts, alert); err != nil {
				metrics.PublishFailures.Inc()
				return domain.Position{}, err
			}
			metrics.AlertsPublished.Inc()
			res.Alert = true

			s.log.Warn().
				Int64("vehicle_id", vehicleID).
				Float64("speed_kmh", speed).
				Float64("limit_kmh", s.speedLimit).
				Msg("speed alert published")
		}

		if s.broadcast != nil {
			s.broadcast.BroadcastPosition(ev)
		}

		metrics.ReadingsReceived.Inc()
		res.Speed = speed

		return domain.Position{Latitude: latitude, Longitude: longitude, ObservedAt: now}, nil
	})
	if err != nil {
		return Result{}, err
	}
	return res, nil
}
