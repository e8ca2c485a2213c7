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
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	log "github.com/sirupsen/logrus"
)

// TileCache maps a request fingerprint to encoded tile bytes through two
// tiers: an in-process LRU and an optional remote Redis store. Get and Set
// are total — tier failures degrade to miss/no-op, never to a request error.
type TileCache struct {
	local  *MemoryCache
	remote *RedisCache
}

// TileCacheStats reports the local tier's counters plus whether a remote
// tier is attached.
type TileCacheStats struct {
	Local      Stats `json:"local"`
	RemoteTier bool  `json:"remote_tier"`
}

// New builds the tile cache. remoteURL may be empty, in which case only the
// in-process tier is used; if the remote store cannot be configured the
// cache degrades to local-only rather than failing startup.
func New(localMaxItems, localMaxMemoryMB int, remoteURL string) *TileCache {
	local, err := NewMemoryCache(localMaxItems, localMaxMemoryMB)
	if err != nil {
		log.Warnf("Local tile cache disabled: %v", err)
		local = NewDisabledMemoryCache()
	}

	var remote *RedisCache
	if remoteURL != "" {
		remote, err = NewRedisCache(remoteURL)
		if err != nil {
			log.Warnf("Remote tile cache disabled: %v", err)
			remote = nil
		}
	}

	return &TileCache{local: local, remote: remote}
}

// NewDisabled returns a cache where every Get misses and every Set is a no-op.
func NewDisabled() *TileCache {
	return &TileCache{local: NewDisabledMemoryCache()}
}

// Get looks a fingerprint up in the local tier first, then the remote tier.
// A remote hit is promoted into the local tier.
func (tc *TileCache) Get(ctx context.Context, fingerprint string) ([]byte, bool) {
	if data, ok := tc.local.Get(ctx, fingerprint); ok {
		return data, true
	}
	if tc.remote != nil {
		if data, ok := tc.remote.Get(ctx, fingerprint); ok {
			tc.local.Set(ctx, fingerprint, data)
			return data, true
		}
	}
	return nil, false
}

// Set stores encoded tile bytes in every configured tier.
func (tc *TileCache) Set(ctx context.Context, fingerprint string, data []byte) {
	tc.local.Set(ctx, fingerprint, data)
	if tc.remote != nil {
		tc.remote.Set(ctx, fingerprint, data)
	}
}

// Clear drops all entries from every configured tier.
func (tc *TileCache) Clear(ctx context.Context) {
	tc.local.Clear()
	if tc.remote != nil {
		tc.remote.Clear(ctx)
	}
}

// Stats returns the combined cache statistics.
func (tc *TileCache) Stats() TileCacheStats {
	return TileCacheStats{Local: tc.local.Stats(), RemoteTier: tc.remote != nil}
}

// Enabled reports whether any tier can serve hits.
func (tc *TileCache) Enabled() bool {
	return tc.local.Enabled() || tc.remote != nil
}

// RemoteReachable pings the remote tier, for health reporting. Returns false
// when no remote tier is configured.
func (tc *TileCache) RemoteReachable(ctx context.Context) bool {
	return tc.remote != nil && tc.remote.Ping(ctx)
}

// Fingerprint derives the cache key for a tile request: the hex-encoded
// SHA-256 of a canonical rendering of the coordinates and query. The same
// logical request always hashes identically; any difference in coordinates,
// query text, geometry column, or SRID produces a different key.
func Fingerprint(x, y, z int, query, geoCol, srid string) string {
	canonical := fmt.Sprintf(
		"TileCoordinate { x: %d, y: %d, z: %d } TileQuery { query: %q, geo_col: %q, srid: %q }",
		x, y, z, query, geoCol, srid,
	)
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}
