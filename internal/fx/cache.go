package fx

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Fetcher is what the cache wraps; *Client satisfies it.
type Fetcher interface {
	FetchRates(ctx context.Context, base string) (map[string]float64, error)
}

// Cache keeps one rate table per base currency with a TTL (default 12h).
// An expired entry is kept as a stale fallback when the refresh fails.
type Cache struct {
	fetcher Fetcher
	ttl     time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry

	now func() time.Time
}

type cacheEntry struct {
	rates     map[string]float64
	fetchedAt time.Time
}

func NewCache(fetcher Fetcher, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &Cache{
		fetcher: fetcher,
		ttl:     ttl,
		entries: map[string]cacheEntry{},
		now:     time.Now,
	}
}

// GetRates satisfies normalize.RateSource.
func (c *Cache) GetRates(ctx context.Context, base string) (map[string]float64, error) {
	base = strings.ToUpper(strings.TrimSpace(base))

	c.mu.Lock()
	entry, ok := c.entries[base]
	c.mu.Unlock()
	if ok && c.now().Sub(entry.fetchedAt) < c.ttl {
		return entry.rates, nil
	}

	rates, err := c.fetcher.FetchRates(ctx, base)
	if err != nil {
		if ok {
			// Stale reads are acceptable, better than losing currency
			// conversion for the whole batch.
			return entry.rates, nil
		}
		return nil, err
	}

	c.mu.Lock()
	c.entries[base] = cacheEntry{rates: rates, fetchedAt: c.now()}
	c.mu.Unlock()
	return rates, nil
}
