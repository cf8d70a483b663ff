package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8001", cfg.HTTP.Port)
	assert.Equal(t, "nats://localhost:4222", cfg.Broker.URL)
	assert.Equal(t, 5*time.Second, cfg.Broker.RetryDelay)
	assert.Equal(t, uint64(1000), cfg.Broker.ProducerAttempts)
	assert.Equal(t, uint64(10), cfg.Broker.ConsumerAttempts)
	assert.Equal(t, 90.0, cfg.Speed.LimitKmh)
	assert.Equal(t, "vehicle_accounting", cfg.DB.Name)
	assert.Equal(t, int32(15), cfg.DB.MaxConns)
	assert.Empty(t, cfg.Redis.Addr)
	assert.Equal(t, "http://localhost:8081/api/", cfg.Auth.APIURL)
	assert.Equal(t, 30*time.Second, cfg.Telegram.PollTimeout)
	assert.Empty(t, cfg.Ingest.APIKeys)
	assert.Equal(t, 5*time.Minute, cfg.Ingest.AuthCacheTTL)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("HTTP_PORT", "9000")
	t.Setenv("SPEED_LIMIT_KMH", "110")
	t.Setenv("BROKER_RETRY_DELAY", "2s")
	t.Setenv("BROKER_CONSUMER_ATTEMPTS", "3")
	t.Setenv("DB_NAME", "fleet_test")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.HTTP.Port)
	assert.Equal(t, 110.0, cfg.Speed.LimitKmh)
	assert.Equal(t, 2*time.Second, cfg.Broker.RetryDelay)
	assert.Equal(t, uint64(3), cfg.Broker.ConsumerAttempts)
	assert.Equal(t, "fleet_test", cfg.DB.Name)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)

	// Untouched keys keep their defaults.
	assert.Equal(t, uint64(1000), cfg.Broker.ProducerAttempts)
}

func TestLoadAPIKeyList(t *testing.T) {
	t.Setenv("INGEST_API_KEYS", "key-one,key-two")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"key-one", "key-two"}, cfg.Ingest.APIKeys)
}

func TestEnvKeyMapping(t *testing.T) {
	assert.Equal(t, "broker.retry_delay", envKey("BROKER_RETRY_DELAY"))
	assert.Equal(t, "http.port", envKey("HTTP_PORT"))
	assert.Equal(t, "ingest.api_keys", envKey("INGEST_API_KEYS"))
}

func TestEnvValueSplitsOnlySliceKeys(t *testing.T) {
	key, val := envValue("INGEST_API_KEYS", "key-one,key-two")
	assert.Equal(t, "ingest.api_keys", key)
	assert.Equal(t, []string{"key-one", "key-two"}, val)

	// Scalar values keep their commas.
	key, val = envValue("DB_PASSWORD", "pass,word")
	assert.Equal(t, "db.password", key)
	assert.Equal(t, "pass,word", val)
}
