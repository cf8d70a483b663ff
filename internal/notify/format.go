package notify

import (
	"fmt"
	"strings"
	"time"

	"vehicle-accounting/gps/internal/domain"
)

// FormatAlert renders a speed alert for chat delivery.
func FormatAlert(a domain.SpeedAlert) string {
	over := a.CurrentSpeed - a.SpeedLimit

	var b strings.Builder
	fmt.Fprintf(&b, "🚨 Speed alert: vehicle %d\n", a.VehicleID)
	fmt.Fprintf(&b, "Speed: %.2f km/h (limit %.0f km/h, %.2f over)\n", a.CurrentSpeed, a.SpeedLimit, over)
	fmt.Fprintf(&b, "Location: %.6f, %.6f\n", a.Location.Latitude, a.Location.Longitude)
	fmt.Fprintf(&b, "Map: https://maps.google.com/?q=%.6f,%.6f\n", a.Location.Latitude, a.Location.Longitude)
	fmt.Fprintf(&b, "Time: %s", a.Timestamp.Format(time.RFC3339))
	return b.String()
}

type mileagePeriod struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

type mileageVehicle struct {
	Name    string                   `json:"name"`
	Periods map[string]mileagePeriod `json:"periods"`
	Total   float64                  `json:"total"`
}

type mileageReport struct {
	Title  string                    `json:"title"`
	Data   map[string]mileageVehicle `json:"data"`
	Totals struct {
		MileageKm float64 `json:"mileage_km"`
	} `json:"totals"`
}

func formatMileageReport(r *mileageReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🚗 %s\n\n", r.Title)

	for _, vehicle := range r.Data {
		fmt.Fprintf(&b, "🚙 %s\n", vehicle.Name)
		b.WriteString("📊 By period:\n")
		for _, period := range vehicle.Periods {
			fmt.Fprintf(&b, "  • %s: %.2f km\n", period.Label, period.Value)
		}
		fmt.Fprintf(&b, "\n📈 Vehicle total: %.2f km\n\n", vehicle.Total)
	}

	fmt.Fprintf(&b, "🏁 Fleet total: %.2f km", r.Totals.MileageKm)
	return b.String()
}
