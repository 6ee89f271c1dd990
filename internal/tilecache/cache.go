// Package tilecache layers an in-memory map and a persistent store in front
// of the network tile fetcher, with per-key fetch deduplication and hit/miss
// accounting.
package tilecache

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"coverage-route-service/internal/domain"
	"coverage-route-service/internal/metrics"
	"coverage-route-service/internal/ports"
)

// Cache is safe for concurrent use. Counters reset only when a new instance
// is constructed.
//
// The persistent store is best-effort: any store error downgrades that read
// or write to memory-only and is logged, never surfaced. Running without a
// store at all (nil) is supported.
type Cache struct {
	fetcher ports.TileFetcher
	store   ports.TileStore
	zoom    int
	version string

	mu  sync.Mutex
	mem map[string][]byte

	group singleflight.Group

	tilesFetched   atomic.Int64
	tilesFromCache atomic.Int64
}

// New builds a cache for one zoom level and cache-busting version. Changing
// the version orphans all previously stored tiles; no explicit migration
// runs.
func New(fetcher ports.TileFetcher, store ports.TileStore, zoom int, version string) *Cache {
	return &Cache{
		fetcher: fetcher,
		store:   store,
		zoom:    zoom,
		version: version,
		mem:     make(map[string][]byte),
	}
}

// Key builds the composite cache key for a tile.
func (c *Cache) Key(op domain.Operator, x, y int) string {
	return fmt.Sprintf("%s-%d-%d-%d-v%s", op, c.zoom, x, y, c.version)
}

// Fetch returns the tile bytes for (operator, x, y) at the cache's zoom,
// consulting memory, then the persistent store, then the network. Exactly
// one network fetch runs per key even under concurrent callers; late
// arrivals share the in-flight result.
func (c *Cache) Fetch(ctx context.Context, op domain.Operator, x, y int) ([]byte, error) {
	key := c.Key(op, x, y)

	c.mu.Lock()
	data, ok := c.mem[key]
	c.mu.Unlock()
	if ok {
		c.tilesFromCache.Add(1)
		metrics.TileCacheHitsTotal.WithLabelValues("memory").Inc()
		return data, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// Re-check memory: another caller may have completed while this
		// one waited on the flight group.
		c.mu.Lock()
		data, ok := c.mem[key]
		c.mu.Unlock()
		if ok {
			c.tilesFromCache.Add(1)
			metrics.TileCacheHitsTotal.WithLabelValues("memory").Inc()
			return data, nil
		}

		if c.store != nil {
			data, found, err := c.store.GetTile(ctx, key)
			if err != nil {
				log.Printf("tile store read failed, memory-only for %s: %v", key, err)
			} else if found {
				c.mu.Lock()
				c.mem[key] = data
				c.mu.Unlock()
				c.tilesFromCache.Add(1)
				metrics.TileCacheHitsTotal.WithLabelValues("persistent").Inc()
				return data, nil
			}
		}

		data, err := c.fetcher.FetchTile(ctx, op, c.zoom, x, y)
		if err != nil {
			return nil, err
		}
		c.tilesFetched.Add(1)

		c.mu.Lock()
		c.mem[key] = data
		c.mu.Unlock()

		if c.store != nil {
			if err := c.store.PutTile(ctx, key, data); err != nil {
				log.Printf("tile store write failed for %s: %v", key, err)
			}
		}

		return data, nil
	})
	if err != nil {
		return nil, err
	}

	return v.([]byte), nil
}

// Clear empties the in-memory tier and the persistent tile collection.
// Settings in the persistent store are untouched. Store failures degrade to
// clearing memory only.
func (c *Cache) Clear(ctx context.Context) {
	c.mu.Lock()
	c.mem = make(map[string][]byte)
	c.mu.Unlock()

	if c.store != nil {
		if err := c.store.ClearTiles(ctx); err != nil {
			log.Printf("tile store clear failed: %v", err)
		}
	}
}

// Stats returns the lifetime fetch/hit counters for this instance.
func (c *Cache) Stats() domain.CacheStats {
	return domain.CacheStats{
		TilesFetched:   c.tilesFetched.Load(),
		TilesFromCache: c.tilesFromCache.Load(),
	}
}
