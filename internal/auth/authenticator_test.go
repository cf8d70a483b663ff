package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"vehicle-accounting/gps/internal/config"
)

type fakeLookup struct {
	keys  map[string]string
	err   error
	calls int
}

func (f *fakeLookup) GetAPIKey(ctx context.Context, apiKey string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.keys[apiKey], nil
}

func testConfig(staticKeys []string, ttl time.Duration) *config.Config {
	cfg := &config.Config{}
	cfg.Ingest.APIKeys = staticKeys
	cfg.Ingest.AuthCacheTTL = ttl
	return cfg
}

func TestDisabledWithoutKeySources(t *testing.T) {
	a := NewAuthenticator(testConfig(nil, time.Minute), nil)
	assert.False(t, a.Enabled())
}

func TestStaticKeys(t *testing.T) {
	a := NewAuthenticator(testConfig([]string{"key-a", "key-b"}, time.Minute), nil)

	assert.True(t, a.Enabled())
	assert.True(t, a.Validate(context.Background(), "key-a"))
	assert.True(t, a.Validate(context.Background(), "key-b"))
	assert.False(t, a.Validate(context.Background(), "unknown"))
}

func TestExternalLookupCached(t *testing.T) {
	lookup := &fakeLookup{keys: map[string]string{"device-key": "1"}}
	a := NewAuthenticator(testConfig(nil, time.Minute), lookup)

	assert.True(t, a.Validate(context.Background(), "device-key"))
	assert.True(t, a.Validate(context.Background(), "device-key"))
	assert.Equal(t, 1, lookup.calls, "second validation must hit the local cache")
}

func TestExternalLookupUnknownKey(t *testing.T) {
	lookup := &fakeLookup{keys: map[string]string{}}
	a := NewAuthenticator(testConfig(nil, time.Minute), lookup)

	assert.False(t, a.Validate(context.Background(), "unknown"))
	assert.False(t, a.Validate(context.Background(), "unknown"))
	assert.Equal(t, 2, lookup.calls, "misses are not cached")
}

func TestExternalLookupError(t *testing.T) {
	lookup := &fakeLookup{err: errors.New("redis down")}
	a := NewAuthenticator(testConfig(nil, time.Minute), lookup)

	assert.False(t, a.Validate(context.Background(), "device-key"))
}

func TestCacheEntryExpires(t *testing.T) {
	lookup := &fakeLookup{keys: map[string]string{"device-key": "1"}}
	a := NewAuthenticator(testConfig(nil, time.Millisecond), lookup)

	assert.True(t, a.Validate(context.Background(), "device-key"))
	time.Sleep(5 * time.Millisecond)
	assert.True(t, a.Validate(context.Background(), "device-key"))
	assert.Equal(t, 2, lookup.calls, "expired entry falls through to the lookup")
}
