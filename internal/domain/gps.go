package domain

import "time"

// Position is a vehicle's last-known location sample. It lives only in the
// ingest service's in-process cache; a restart loses it, so the first
// reading per vehicle after a restart reports speed 0.
type Position struct {
	Latitude   float64
	Longitude  float64
	ObservedAt time.Time
}

// PositionEvent is the wire form published to the position topic. Timestamp
// is assigned by the ingest service, never by the device.
type PositionEvent struct {
	VehicleID       int64     `json:"vehicle_id"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	Timestamp       time.Time `json:"timestamp"`
	CalculatedSpeed float64   `json:"calculated_speed"`
}

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SpeedAlert is published to the alert topic when a computed speed exceeds
// the configured limit. It is fan-out only and never persisted here.
type SpeedAlert struct {
	VehicleID    int64     `json:"vehicle_id"`
	CurrentSpeed float64   `json:"current_speed"`
	SpeedLimit   float64   `json:"speed_limit"`
	Location     Location  `json:"location"`
	Timestamp    time.Time `json:"timestamp"`
}

// Vehicle is the slice of the fleet database record the pipeline needs.
type Vehicle struct {
	ID                 int64
	RegistrationNumber string
}
