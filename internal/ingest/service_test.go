package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vehicle-accounting/gps/internal/bus"
	"vehicle-accounting/gps/internal/cache"
	"vehicle-accounting/gps/internal/domain"
	"vehicle-accounting/gps/internal/geo"
)

type published struct {
	topic   string
	payload any
}

type fakePublisher struct {
	published []published
	failOn    string
}

func (f *fakePublisher) Publish(topic string, payload any) error {
	if f.failOn != "" && topic == f.failOn {
		return errors.New("broker unavailable")
	}
	f.published = append(f.published, published{topic: topic, payload: payload})
	return nil
}

func (f *fakePublisher) byTopic(topic string) []published {
	var out []published
	for _, p := range f.published {
		if p.topic == topic {
			out = append(out, p)
		}
	}
	return out
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestFirstReadingReportsZeroSpeed(t *testing.T) {
	pub := &fakePublisher{}
	c := cache.NewLastPositionCache()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc := NewService(c, pub, 90, zerolog.Nop(), WithClock(fixedClock(now)))

	res, err := svc.Ingest(context.Background(), 1, 55.7558, 37.6176)
	require.NoError(t, err)

	assert.Equal(t, 0.0, res.Speed)
	assert.False(t, res.Alert)

	positions := pub.byTopic(bus.TopicPositions)
	require.Len(t, positions, 1)
	ev := positions[0].payload.(domain.PositionEvent)
	assert.Equal(t, int64(1), ev.VehicleID)
	assert.Equal(t, 0.0, ev.CalculatedSpeed)
	assert.Equal(t, now, ev.Timestamp)

	assert.Empty(t, pub.byTopic(bus.TopicAlerts))

	got, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, domain.Position{Latitude: 55.7558, Longitude: 37.6176, ObservedAt: now}, got)
}

func TestSecondReadingComputesSpeed(t *testing.T) {
	pub := &fakePublisher{}
	c := cache.NewLastPositionCache()

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c.Set(1, domain.Position{Latitude: 55.7558, Longitude: 37.6176, ObservedAt: start})

	now := start.Add(10 * time.Second)
	svc := NewService(c, pub, 90, zerolog.Nop(), WithClock(fixedClock(now)))

	res, err := svc.Ingest(context.Background(), 1, 55.7568, 37.6176)
	require.NoError(t, err)

	want := geo.Speed(55.7558, 37.6176, start, 55.7568, 37.6176, now)
	assert.Equal(t, want, res.Speed)
	assert.InDelta(t, 40.03, res.Speed, 0.1)
	assert.False(t, res.Alert)
}

func TestAlertStrictlyAboveLimit(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := start.Add(time.Second)
	speed := geo.Speed(0, 0, start, 0, 0.01, now)

	t.Run("speed equal to limit does not alert", func(t *testing.T) {
		pub := &fakePublisher{}
		c := cache.NewLastPositionCache()
		c.Set(1, domain.Position{Latitude: 0, Longitude: 0, ObservedAt: start})
		svc := NewService(c, pub, speed, zerolog.Nop(), WithClock(fixedClock(now)))

		res, err := svc.Ingest(context.Background(), 1, 0, 0.01)
		require.NoError(t, err)
		assert.False(t, res.Alert)
		assert.Empty(t, pub.byTopic(bus.TopicAlerts))
	})

	t.Run("speed just above limit alerts", func(t *testing.T) {
		pub := &fakePublisher{}
		c := cache.NewLastPositionCache()
		c.Set(1, domain.Position{Latitude: 0, Longitude: 0, ObservedAt: start})
		svc := NewService(c, pub, speed-0.01, zerolog.Nop(), WithClock(fixedClock(now)))

		res, err := svc.Ingest(context.Background(), 1, 0, 0.01)
		require.NoError(t, err)
		assert.True(t, res.Alert)

		alerts := pub.byTopic(bus.TopicAlerts)
		require.Len(t, alerts, 1)
		alert := alerts[0].payload.(domain.SpeedAlert)
		assert.Equal(t, int64(1), alert.VehicleID)
		assert.Equal(t, speed, alert.CurrentSpeed)
		assert.Equal(t, speed-0.01, alert.SpeedLimit)
		assert.Equal(t, domain.Location{Latitude: 0, Longitude: 0.01}, alert.Location)
	})
}

func TestPublishFailureFailsRequestAndSkipsCacheWrite(t *testing.T) {
	pub := &fakePublisher{failOn: bus.TopicPositions}
	c := cache.NewLastPositionCache()
	svc := NewService(c, pub, 90, zerolog.Nop())

	_, err := svc.Ingest(context.Background(), 5, 10, 20)
	require.Error(t, err)

	_, ok := c.Get(5)
	assert.False(t, ok, "a lost reading must not become the last-known position")
}

func TestAlertPublishFailureKeepsPreviousPosition(t *testing.T) {
	pub := &fakePublisher{failOn: bus.TopicAlerts}
	c := cache.NewLastPositionCache()

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	prev := domain.Position{Latitude: 0, Longitude: 0, ObservedAt: start}
	c.Set(1, prev)

	svc := NewService(c, pub, 90, zerolog.Nop(), WithClock(fixedClock(start.Add(time.Second))))

	_, err := svc.Ingest(context.Background(), 1, 0, 0.01)
	require.Error(t, err)

	got, ok := c.Get(1)
	require.True(t, ok)
	assert.Equal(t, prev, got)
}

func TestPositionEventWireFormat(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ev := domain.PositionEvent{
		VehicleID:       1,
		Latitude:        55.7558,
		Longitude:       37.6176,
		Timestamp:       now,
		CalculatedSpeed: 40.03,
	}

	data, err := json.Marshal(ev)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, float64(1), decoded["vehicle_id"])
	assert.Equal(t, 40.03, decoded["calculated_speed"])
	assert.Equal(t, "2026-03-01T12:00:00Z", decoded["timestamp"])
}
