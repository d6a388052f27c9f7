package api

import (
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/couchcryptid/great-lakes-hab-etl/internal/domain"
	"github.com/couchcryptid/great-lakes-hab-etl/internal/geoindex"
	"github.com/couchcryptid/great-lakes-hab-etl/internal/observability"
)

// artifact is a decoded artifact plus its spatial index, built lazily.
type artifact struct {
	samples []domain.Sample
	index   *geoindex.Index
}

// artifactCache keeps recently served artifacts in memory. Artifacts are
// never rewritten once created, so entries need no invalidation. Misses
// (including not-found) always go to the store, since the job may create
// the file later.
type artifactCache struct {
	store   ArtifactReader
	cache   *lru.Cache[string, *artifact]
	metrics *observability.Metrics
}

func newArtifactCache(store ArtifactReader, size int, metrics *observability.Metrics) (*artifactCache, error) {
	if size <= 0 {
		size = 128
	}
	cache, err := lru.New[string, *artifact](size)
	if err != nil {
		return nil, fmt.Errorf("create artifact cache: %w", err)
	}
	return &artifactCache{store: store, cache: cache, metrics: metrics}, nil
}

func (c *artifactCache) get(region domain.Region, month domain.MonthKey) (*artifact, error) {
	key := region.Name + "/" + month.String()
	if a, ok := c.cache.Get(key); ok {
		c.metrics.ArtifactCache.WithLabelValues("hit").Inc()
		return a, nil
	}
	c.metrics.ArtifactCache.WithLabelValues("miss").Inc()

	samples, err := c.store.Read(region.Name, month)
	if err != nil {
		return nil, err
	}
	a := &artifact{
		samples: domain.FilterFinite(samples),
	}
	a.index = geoindex.New(a.samples)
	c.cache.Add(key, a)
	return a, nil
}
