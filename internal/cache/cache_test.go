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
	"bytes"
	"context"
	"testing"
)

func TestFingerprintDeterministic(t *testing.T) {
	a := Fingerprint(1, 2, 3, "SELECT geom FROM t", "geom", "4326")
	b := Fingerprint(1, 2, 3, "SELECT geom FROM t", "geom", "4326")
	if a != b {
		t.Fatalf("same request must hash identically: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected hex-encoded SHA-256 (64 chars), got %d", len(a))
	}
}

func TestFingerprintDistinguishesRequests(t *testing.T) {
	base := Fingerprint(1, 2, 3, "SELECT geom FROM t", "geom", "4326")
	variants := []string{
		Fingerprint(0, 2, 3, "SELECT geom FROM t", "geom", "4326"),
		Fingerprint(1, 0, 3, "SELECT geom FROM t", "geom", "4326"),
		Fingerprint(1, 2, 4, "SELECT geom FROM t", "geom", "4326"),
		Fingerprint(1, 2, 3, "SELECT geom FROM u", "geom", "4326"),
		Fingerprint(1, 2, 3, "SELECT geom FROM t", "the_geom", "4326"),
		Fingerprint(1, 2, 3, "SELECT geom FROM t", "geom", "3857"),
	}
	for i, v := range variants {
		if v == base {
			t.Fatalf("variant %d must produce a different fingerprint", i)
		}
	}
}

func TestTileCacheSetGetRoundTrip(t *testing.T) {
	tc := New(16, 8, "")
	ctx := context.Background()

	key := Fingerprint(0, 0, 0, "SELECT 1", "geom", "4326")
	tile := []byte{0x1a, 0x05, 0x78}

	tc.Set(ctx, key, tile)
	got, ok := tc.Get(ctx, key)
	if !ok {
		t.Fatal("expected hit after set")
	}
	if !bytes.Equal(got, tile) {
		t.Fatalf("expected %v, got %v", tile, got)
	}

	if _, ok := tc.Get(ctx, "unseen"); ok {
		t.Fatal("expected miss for unseen key")
	}
}

func TestDisabledCacheAlwaysMisses(t *testing.T) {
	tc := NewDisabled()
	ctx := context.Background()

	tc.Set(ctx, "k", []byte("v"))
	if _, ok := tc.Get(ctx, "k"); ok {
		t.Fatal("disabled cache must never hit")
	}
	if tc.Enabled() {
		t.Fatal("disabled cache must report Enabled() == false")
	}
}

func TestMemoryCacheStats(t *testing.T) {
	mc, err := NewMemoryCache(4, 1)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	mc.Set(ctx, "a", []byte("tile-a"))
	mc.Get(ctx, "a")
	mc.Get(ctx, "b")

	stats := mc.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Fatalf("expected 1 hit / 1 miss, got %+v", stats)
	}
	if stats.Size != 1 {
		t.Fatalf("expected 1 item, got %+v", stats)
	}
}
