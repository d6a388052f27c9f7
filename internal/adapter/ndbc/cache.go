package ndbc

import (
	"context"
	"time"

	"github.com/couchcryptid/great-lakes-hab-etl/internal/domain"
	"github.com/couchcryptid/great-lakes-hab-etl/internal/observability"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// CachedClient wraps a Fetcher with an expiring LRU cache. NDBC updates
// feeds every ten minutes or so, so readings are served from memory until
// the TTL lapses.
type CachedClient struct {
	inner   Fetcher
	cache   *expirable.LRU[string, domain.Reading]
	metrics *observability.Metrics
}

// NewCachedClient creates a cache decorator around a fetcher.
func NewCachedClient(inner Fetcher, maxEntries int, ttl time.Duration, metrics *observability.Metrics) *CachedClient {
	return &CachedClient{
		inner:   inner,
		cache:   expirable.NewLRU[string, domain.Reading](maxEntries, nil, ttl),
		metrics: metrics,
	}
}

func (c *CachedClient) Fetch(ctx context.Context, station string) (domain.Reading, error) {
	if reading, ok := c.cache.Get(station); ok {
		c.metrics.BuoyCache.WithLabelValues("hit").Inc()
		return reading, nil
	}
	c.metrics.BuoyCache.WithLabelValues("miss").Inc()

	reading, err := c.inner.Fetch(ctx, station)
	if err != nil {
		// Failures are not cached so the next request retries upstream.
		return reading, err
	}
	c.cache.Add(station, reading)
	return reading, nil
}
