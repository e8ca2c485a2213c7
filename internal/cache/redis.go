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

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// RedisCache is the optional remote tier of the tile cache, enabled when a
// cache URL is configured. Both operations are total: a failure to reach the
// backing store is a miss on Get and a no-op on Set — the cache is an
// optimization, never authoritative.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects a remote cache tier. The URL uses the standard
// redis:// DSN form.
func NewRedisCache(url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	log.Infof("Initialized remote tile cache: %s", opts.Addr)
	return &RedisCache{client: client}, nil
}

// Get retrieves a tile from the remote store. Any backend error is a miss.
func (rc *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := rc.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Debugf("Remote cache GET failed for %s: %v", key, err)
		}
		return nil, false
	}
	return data, true
}

// Set stores a tile in the remote store. Errors are swallowed. No TTL is set
// at the application level; the backing store may apply its own policy.
func (rc *RedisCache) Set(ctx context.Context, key string, data []byte) {
	if err := rc.client.Set(ctx, key, data, 0).Err(); err != nil {
		log.Debugf("Remote cache SET failed for %s: %v", key, err)
	}
}

// Clear flushes the remote store.
func (rc *RedisCache) Clear(ctx context.Context) {
	if err := rc.client.FlushDB(ctx).Err(); err != nil {
		log.Warnf("Remote cache clear failed: %v", err)
	}
}

// Ping reports whether the remote store is reachable.
func (rc *RedisCache) Ping(ctx context.Context) bool {
	return rc.client.Ping(ctx).Err() == nil
}
