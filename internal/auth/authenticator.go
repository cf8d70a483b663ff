package auth

import (
	"context"
	"sync"
	"time"

	"vehicle-accounting/gps/internal/config"
)

// KeyLookup resolves a device API key to a vehicle id in an external
// store. A nil lookup disables that level.
type KeyLookup interface {
	GetAPIKey(ctx context.Context, apiKey string) (string, error)
}

type cacheEntry struct {
	vehicleID string
	expiresAt time.Time
}

// Authenticator validates device API keys on the ingest endpoint. Keys
// come either from static config or from the external lookup, with a
// local TTL cache in front of the latter. When neither is configured the
// endpoint stays open.
type Authenticator struct {
	localCache sync.Map
	keys       KeyLookup
	ttl        time.Duration
	staticKeys map[string]bool
}

func NewAuthenticator(cfg *config.Config, keys KeyLookup) *Authenticator {
	staticKeys := make(map[string]bool, len(cfg.Ingest.APIKeys))
	for _, k := range cfg.Ingest.APIKeys {
		if k != "" {
			staticKeys[k] = true
		}
	}

	return &Authenticator{
		keys:       keys,
		ttl:        cfg.Ingest.AuthCacheTTL,
		staticKeys: staticKeys,
	}
}

// Enabled reports whether any key source is configured.
func (a *Authenticator) Enabled() bool {
	return len(a.staticKeys) > 0 || a.keys != nil
}

func (a *Authenticator) Validate(ctx context.Context, apiKey string) bool {
	// Level 0: static config keys
	if a.staticKeys[apiKey] {
		return true
	}

	// Level 1: in-memory cache
	if raw, ok := a.localCache.Load(apiKey); ok {
		entry := raw.(cacheEntry)
		if time.Now().Before(entry.expiresAt) {
			return true
		}
		a.localCache.Delete(apiKey)
	}

	// Level 2: external lookup
	if a.keys == nil {
		return false
	}
	vehicleID, err := a.keys.GetAPIKey(ctx, apiKey)
	if err != nil || vehicleID == "" {
		return false
	}

	a.localCache.Store(apiKey, cacheEntry{
		vehicleID: vehicleID,
		expiresAt: time.Now().Add(a.ttl),
	})

	return true
}
