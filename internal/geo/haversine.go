package geo

import (
	"math"
	"time"
)

// Mean Earth radius in kilometers.
const earthRadiusKm = 6371.0

// Distance returns the great-circle distance between two coordinates in
// kilometers, using the haversine formula.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lon1Rad := lon1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	lon2Rad := lon2 * math.Pi / 180

	dLat := lat2Rad - lat1Rad
	dLon := lon2Rad - lon1Rad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// Speed returns the speed in km/h between two timestamped samples, rounded
// to two decimals. Non-monotonic or duplicate timestamps yield 0.0; callers
// must not treat that as an error.
func Speed(lat1, lon1 float64, t1 time.Time, lat2, lon2 float64, t2 time.Time) float64 {
	elapsed := t2.Sub(t1).Seconds()
	if elapsed <= 0 {
		return 0.0
	}

	distanceKm := Distance(lat1, lon1, lat2, lon2)
	speedKmh := distanceKm / (elapsed / 3600)

	return math.Round(speedKmh*100) / 100
}
