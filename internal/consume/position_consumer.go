package consume

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"vehicle-accounting/gps/internal/domain"
	"vehicle-accounting/gps/internal/metrics"
	"vehicle-accounting/gps/internal/store"
)

// PositionConsumer persists position-topic messages one at a time. Unknown
// vehicles and storage errors are logged and skipped so a single bad
// message never stalls the stream.
type PositionConsumer struct {
	vehicles store.VehicleResolver
	points   store.PointWriter
	log      zerolog.Logger
}

func NewPositionConsumer(vehicles store.VehicleResolver, points store.PointWriter, log zerolog.Logger) *PositionConsumer {
	return &PositionConsumer{
		vehicles: vehicles,
		points:   points,
		log:      log,
	}
}

// Handle processes one position message. It returns an error only for the
// consume loop to log; the message is acked regardless.
func (c *PositionConsumer) Handle(ctx context.Context, payload []byte) error {
	var ev domain.PositionEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return fmt.Errorf("decode position event: %w", err)
	}

	vehicle, err := c.vehicles.GetVehicle(ctx, ev.VehicleID)
	if err != nil {
		if errors.Is(err, store.ErrVehicleNotFound) {
			metrics.UnknownVehicleSkips.Inc()
			c.log.Warn().Int64("vehicle_id", ev.VehicleID).Msg("vehicle not found, skipping point")
			return nil
		}
		metrics.PersistFailures.Inc()
		return fmt.Errorf("resolve vehicle %d: %w", ev.VehicleID, err)
	}

	if err := c.points.CreatePoint(ctx, vehicle.ID, ev.Latitude, ev.Longitude, ev.Timestamp); err != nil {
		metrics.PersistFailures.Inc()
		return fmt.Errorf("save gps point for vehicle %d: %w", vehicle.ID, err)
	}

	metrics.PointsPersisted.Inc()
	c.log.Debug().Int64("vehicle_id", vehicle.ID).Msg("gps point saved")
	return nil
}
