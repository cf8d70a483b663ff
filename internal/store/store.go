package store

import (
	"context"
	"errors"
	"time"

	"vehicle-accounting/gps/internal/domain"
)

// ErrVehicleNotFound reports a vehicle id unknown to the fleet database.
// Consumers skip such messages instead of retrying: an unknown reference
// will not become valid without manual intervention.
var ErrVehicleNotFound = errors.New("vehicle not found")

// VehicleResolver looks up vehicles in the fleet database.
type VehicleResolver interface {
	GetVehicle(ctx context.Context, id int64) (*domain.Vehicle, error)
}

// PointWriter persists GPS points for a vehicle.
type PointWriter interface {
	CreatePoint(ctx context.Context, vehicleID int64, latitude, longitude float64, observedAt time.Time) error
}
