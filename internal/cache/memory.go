package cache

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"visaocr/internal/metrics"
	"visaocr/internal/response"
)

const tierMemory = "memory"

// Memory is a bounded in-process store. Entries expire a fixed TTL after insertion
// and the least recently used entry is evicted once capacity is reached.
type Memory struct {
	cache *ttlcache.Cache[string, *response.Response]
}

// NewMemory creates a store and starts its expiry loop. Call Close to stop it.
func NewMemory(maxEntries uint64, ttl time.Duration) *Memory {
	if maxEntries == 0 {
		maxEntries = DefaultMaxEntries
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	c := ttlcache.New(
		ttlcache.WithTTL[string, *response.Response](ttl),
		ttlcache.WithCapacity[string, *response.Response](maxEntries),
		ttlcache.WithDisableTouchOnHit[string, *response.Response](),
	)
	go c.Start()

	return &Memory{cache: c}
}

// Get implements Store.
func (m *Memory) Get(_ context.Context, key string) (*response.Response, bool) {
	item := m.cache.Get(key)
	if item == nil {
		metrics.RecordCacheMiss(tierMemory)
		return nil, false
	}
	metrics.RecordCacheHit(tierMemory)
	return item.Value(), true
}

// Set implements Store.
func (m *Memory) Set(_ context.Context, key string, resp *response.Response) {
	m.cache.Set(key, resp, ttlcache.DefaultTTL)
}

// Len returns the number of live entries.
func (m *Memory) Len() int {
	return m.cache.Len()
}

// Close stops the expiry loop.
func (m *Memory) Close() {
	m.cache.Stop()
}
