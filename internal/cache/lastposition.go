package cache

import "vehicle-accounting/gps/internal/domain"

// LastPositionCache holds each vehicle's most recent position. State is
// process-wide and not persisted: after a restart the first reading per
// vehicle computes speed 0. There is no eviction; the map is bounded by the
// fleet size.
type LastPositionCache struct {
	m *Map[domain.Position]
}

func NewLastPositionCache() *LastPositionCache {
	return &LastPositionCache{m: NewMap[domain.Position]()}
}

func (c *LastPositionCache) Get(vehicleID int64) (domain.Position, bool) {
	return c.m.Get(vehicleID)
}

// Set overwrites the vehicle's entry unconditionally, regardless of any
// ordering between the old and new observation times.
func (c *LastPositionCache) Set(vehicleID int64, p domain.Position) {
	c.m.Set(vehicleID, p)
}

// Update serializes a read-compute-overwrite sequence for one vehicle.
// Readings for other vehicles proceed in parallel. If fn returns an error
// the cached entry is not touched.
func (c *LastPositionCache) Update(vehicleID int64, fn func(prev domain.Position, ok bool) (domain.Position, error)) error {
	return c.m.Update(vehicleID, fn)
}

func (c *LastPositionCache) Len() int {
	return c.m.Len()
}
