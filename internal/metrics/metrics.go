package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReadingsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gps_readings_received_total",
		Help: "GPS readings accepted by the ingest endpoint.",
	})
	PublishFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gps_publish_failures_total",
		Help: "Broker publish failures surfaced to ingest callers.",
	})
	AlertsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gps_speed_alerts_total",
		Help: "Speed alerts published to the alert topic.",
	})

	PointsPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gps_points_persisted_total",
		Help: "GPS points written to durable storage by the consumer.",
	})
	UnknownVehicleSkips = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gps_unknown_vehicle_skips_total",
		Help: "Position messages skipped because the vehicle does not exist.",
	})
	PersistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "gps_persist_failures_total",
		Help: "Position messages skipped because of a storage error.",
	})

	AlertDeliveries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alert_deliveries_total",
		Help: "Alert messages delivered to chat subscribers.",
	})
	AlertDeliveryFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "alert_delivery_failures_total",
		Help: "Per-subscriber alert delivery failures.",
	})
)
