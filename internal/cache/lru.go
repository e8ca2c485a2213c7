package cache

/*
 Copyright 2019 - 2025 Crunchy Data Solutions, Inc.
 Licensed under the Apache License, Version 2.0 (the "License");
 you may not use this file except in compliance with the License.
 You may obtain a copy of the License at
      http://www.apache.org/licenses/LICENSE-2.0
 Unless required by applicable law or agreed to in writing, software
 distributed under the License is distributed on an "AS IS" BASIS,
 WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 See the License for the specific language governing permissions and
 limitations under the License.
*/

import (
	"context"
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	log "github.com/sirupsen/logrus"
)

// MemoryCache is the in-process LRU tier of the tile cache, keyed by request
// fingerprint.
type MemoryCache struct {
	cache       *lru.Cache[string, []byte]
	enabled     bool
	maxMemoryMB int64

	// Metrics (atomic counters for thread-safety)
	hits         atomic.Int64
	misses       atomic.Int64
	evictions    atomic.Int64
	currentSize  atomic.Int64
	currentBytes atomic.Int64
}

// Stats represents cache statistics
type Stats struct {
	Hits        int64   `json:"hits"`
	Misses      int64   `json:"misses"`
	Evictions   int64   `json:"evictions"`
	Size        int     `json:"size"` // Number of items
	MemoryBytes int64   `json:"memory_bytes"`
	HitRate     float64 `json:"hit_rate"` // Percentage
}

// NewMemoryCache creates a new LRU tile cache tier
func NewMemoryCache(maxItems int, maxMemoryMB int) (*MemoryCache, error) {
	if maxItems <= 0 {
		return nil, fmt.Errorf("maxItems must be positive, got %d", maxItems)
	}

	mc := &MemoryCache{
		enabled:     true,
		maxMemoryMB: int64(maxMemoryMB),
	}

	// Create LRU cache with eviction callback
	cache, err := lru.NewWithEvict(maxItems, mc.onEvict)
	if err != nil {
		return nil, err
	}
	mc.cache = cache

	log.Infof("Initialized tile cache: max_items=%d max_memory=%dMB", maxItems, maxMemoryMB)
	return mc, nil
}

// NewDisabledMemoryCache returns a memory tier that's disabled (always misses)
func NewDisabledMemoryCache() *MemoryCache {
	return &MemoryCache{enabled: false}
}

// Get retrieves a tile from cache
func (mc *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if !mc.enabled {
		return nil, false
	}

	tile, ok := mc.cache.Get(key)
	if ok {
		mc.hits.Add(1)
		log.Debugf("Cache HIT: %s", key)
		return tile, true
	}

	mc.misses.Add(1)
	log.Debugf("Cache MISS: %s", key)
	return nil, false
}

// Set stores a tile in cache
func (mc *MemoryCache) Set(ctx context.Context, key string, data []byte) {
	if !mc.enabled || len(data) == 0 {
		return
	}

	tileSize := int64(len(data))

	// Check memory limit before adding, evicting least-recently-used items
	// until the new tile fits
	if mc.maxMemoryMB > 0 {
		limitBytes := mc.maxMemoryMB * 1024 * 1024
		for mc.cache.Len() > 0 && mc.currentBytes.Load()+tileSize > limitBytes {
			log.Debugf("Cache memory limit reached, evicting to make space")
			mc.cache.RemoveOldest()
		}
	}

	// Make a copy to avoid referencing request data
	tileCopy := make([]byte, len(data))
	copy(tileCopy, data)

	mc.cache.Add(key, tileCopy)
	mc.currentBytes.Add(tileSize)
	mc.currentSize.Add(1)

	log.Debugf("Cache SET: %s (%d bytes)", key, tileSize)
}

// onEvict is called when an item is evicted from the LRU cache
func (mc *MemoryCache) onEvict(key string, value []byte) {
	mc.evictions.Add(1)
	mc.currentSize.Add(-1)
	mc.currentBytes.Add(-int64(len(value)))
	log.Debugf("Cache EVICT: %s", key)
}

// Clear removes all items from cache
func (mc *MemoryCache) Clear() {
	if !mc.enabled {
		return
	}

	mc.cache.Purge()
	mc.currentSize.Store(0)
	mc.currentBytes.Store(0)
	log.Info("Cache cleared")
}

// Stats returns current cache statistics
func (mc *MemoryCache) Stats() Stats {
	if !mc.enabled {
		return Stats{}
	}

	hits := mc.hits.Load()
	misses := mc.misses.Load()
	total := hits + misses

	hitRate := 0.0
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100.0
	}

	return Stats{
		Hits:        hits,
		Misses:      misses,
		Evictions:   mc.evictions.Load(),
		Size:        mc.cache.Len(),
		MemoryBytes: mc.currentBytes.Load(),
		HitRate:     hitRate,
	}
}

// Enabled returns whether this tier is enabled
func (mc *MemoryCache) Enabled() bool {
	return mc.enabled
}
