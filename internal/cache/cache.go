package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// keyPrefix namespaces entries in shared memcached/redis deployments.
const keyPrefix = "binsim:"

// staleRetention is how long past its TTL an entry stays retrievable via
// GetStale. Backends keep the physical entry alive for TTL + staleRetention.
const staleRetention = 24 * time.Hour

// Cache stores computed comparison payloads (rankings, matrices) as opaque
// bytes. Get returns only fresh entries; GetStale also returns entries past
// their TTL but stored within maxAge, for serving when the store is down.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	GetStale(ctx context.Context, key string, maxAge time.Duration) ([]byte, time.Time, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// envelope is the stored form in remote backends. Wrapping the payload with
// its write time lets GetStale work without a second round trip.
type envelope struct {
	Value    []byte        `json:"v"`
	StoredAt time.Time     `json:"t"`
	TTL      time.Duration `json:"ttl"`
}

func (e envelope) fresh(now time.Time) bool {
	return now.Sub(e.StoredAt) <= e.TTL
}

func encodeEnvelope(value []byte, ttl time.Duration) ([]byte, error) {
	return json.Marshal(envelope{Value: value, StoredAt: time.Now().UTC(), TTL: ttl})
}

func decodeEnvelope(raw []byte) (envelope, error) {
	var e envelope
	err := json.Unmarshal(raw, &e)
	return e, err
}

// physicalTTL is the backend-side expiry: the freshness window plus the
// stale window. Invalid TTLs fall back to one hour of freshness.
func physicalTTL(ttl time.Duration) time.Duration {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return ttl + staleRetention
}

// sweepEveryWrites is how many Sets pass between sweeps of entries whose
// stale window has closed. Revision-scoped keys are never written again
// after a catalog mutation, so without the sweep they would sit in the map
// until process exit.
const sweepEveryWrites = 256

// InMemoryCache implements Cache with a mutex-guarded map. Entries past
// their TTL are kept for GetStale and dropped once older than TTL +
// staleRetention, either on access or by the periodic write-driven sweep.
// Safe for concurrent use.
type InMemoryCache struct {
	mu     sync.RWMutex
	data   map[string]memEntry
	writes int
}

type memEntry struct {
	value     []byte
	storedAt  time.Time
	expiresAt time.Time
}

// NewInMemoryCache creates a new in-memory cache instance.
func NewInMemoryCache() *InMemoryCache {
	return &InMemoryCache{
		data: make(map[string]memEntry),
	}
}

// Get retrieves the payload for key if present and not expired.
// Returns (value, true, nil) on cache hit, (nil, false, nil) on miss or
// expiration. Entries beyond the stale window are removed on access.
func (c *InMemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	now := time.Now()

	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false, nil
	}

	if now.After(entry.expiresAt) {
		if now.After(entry.expiresAt.Add(staleRetention)) {
			c.mu.Lock()
			delete(c.data, key)
			c.mu.Unlock()
		}
		return nil, false, nil
	}

	return entry.value, true, nil
}

// GetStale retrieves the payload for key if it was stored within maxAge,
// expired or not. Returns the store time so callers can report staleness.
func (c *InMemoryCache) GetStale(ctx context.Context, key string, maxAge time.Duration) ([]byte, time.Time, bool, error) {
	c.mu.RLock()
	entry, ok := c.data[key]
	c.mu.RUnlock()
	if !ok {
		return nil, time.Time{}, false, nil
	}

	if time.Since(entry.storedAt) > maxAge {
		return nil, time.Time{}, false, nil
	}

	return entry.value, entry.storedAt, true, nil
}

// Set stores a payload with the given TTL.
func (c *InMemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	now := time.Now()
	c.mu.Lock()
	c.data[key] = memEntry{
		value:     value,
		storedAt:  now,
		expiresAt: now.Add(ttl),
	}
	c.writes++
	if c.writes%sweepEveryWrites == 0 {
		c.sweepLocked(now)
	}
	c.mu.Unlock()
	return nil
}

// sweepLocked drops every entry whose stale window has closed. Caller holds mu.
func (c *InMemoryCache) sweepLocked(now time.Time) {
	for key, entry := range c.data {
		if now.After(entry.expiresAt.Add(staleRetention)) {
			delete(c.data, key)
		}
	}
}
