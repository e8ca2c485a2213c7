package service

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
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/tobilg/mvt-tileserver/internal/cache"
	"github.com/tobilg/mvt-tileserver/internal/conf"
	"github.com/tobilg/mvt-tileserver/internal/mvtenc"
)

func init() {
	// Initialize minimal config for testing
	conf.Configuration.Cache.ControlHeader = "private, max-age=300"
	conf.Configuration.Cache.DisableApi = false
}

// stubBuilder returns canned tile bytes or a canned error, counting calls.
type stubBuilder struct {
	calls int
	data  []byte
	err   *mvtenc.TileError
}

func (s *stubBuilder) BuildTile(ctx context.Context, x, y, z int, query, geoCol, srid string) ([]byte, *mvtenc.TileError) {
	s.calls++
	return s.data, s.err
}

func setupTestService(builder TileBuilder, tileCache *cache.TileCache) http.Handler {
	serviceInstance = &Service{
		tiles: builder,
		cache: tileCache,
	}
	return initRouter("")
}

func tileURL(query, geoCol string) string {
	v := url.Values{}
	v.Set("query", query)
	v.Set("geoCol", geoCol)
	return "/mvt/0/0/0?" + v.Encode()
}

func TestHandleTileSuccess(t *testing.T) {
	builder := &stubBuilder{data: []byte{0x1a, 0x02, 0x00, 0x00}}
	router := setupTestService(builder, cache.NewDisabled())

	req := httptest.NewRequest("GET", tileURL("SELECT ST_Point(0,0,4326) as geom", "geom"), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != ContentTypeProtobuf {
		t.Fatalf("expected %s, got %s", ContentTypeProtobuf, ct)
	}
	if cc := rr.Header().Get("Cache-Control"); cc != "private, max-age=300" {
		t.Fatalf("expected configured Cache-Control, got %q", cc)
	}
	if builder.calls != 1 {
		t.Fatalf("expected 1 build call, got %d", builder.calls)
	}
}

func TestHandleTileErrorIs404WithEmptyBody(t *testing.T) {
	builder := &stubBuilder{err: mvtenc.DatabaseError("relation does not exist")}
	router := setupTestService(builder, cache.NewDisabled())

	req := httptest.NewRequest("GET", tileURL("SELECT 1", "geom"), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
	if rr.Body.Len() != 0 {
		t.Fatalf("expected empty body, got %q", rr.Body.String())
	}
}

func TestHandleTileMissingQueryParam(t *testing.T) {
	builder := &stubBuilder{data: []byte{0x00}}
	router := setupTestService(builder, cache.NewDisabled())

	req := httptest.NewRequest("GET", "/mvt/0/0/0?geoCol=geom", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if builder.calls != 0 {
		t.Fatalf("builder must not run without a query, got %d calls", builder.calls)
	}
}

func TestHandleTileCoordinateOutOfRange(t *testing.T) {
	builder := &stubBuilder{data: []byte{0x00}}
	router := setupTestService(builder, cache.NewDisabled())

	// x = 4 is out of range at z = 1
	req := httptest.NewRequest("GET", "/mvt/4/0/1?query=SELECT+1&geoCol=geom", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestTileCacheMiddlewareServesFromCache(t *testing.T) {
	builder := &stubBuilder{data: []byte{0x0b, 0x0e, 0x0e, 0x0f}}
	tileCache := cache.New(16, 8, "")
	router := setupTestService(builder, tileCache)

	query := "SELECT ST_Point(0,0,4326) as geom"
	cached := []byte{0xca, 0xfe}
	tileCache.Set(context.Background(), cache.Fingerprint(0, 0, 0, query, "geom", "4326"), cached)

	req := httptest.NewRequest("GET", tileURL(query, "geom"), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Header().Get("X-Cache") != "HIT" {
		t.Fatalf("expected cache hit, got %q", rr.Header().Get("X-Cache"))
	}
	if builder.calls != 0 {
		t.Fatalf("builder must not run on a cache hit, got %d calls", builder.calls)
	}
	if rr.Body.String() != string(cached) {
		t.Fatalf("expected cached bytes, got %v", rr.Body.Bytes())
	}
}

func TestTileCacheMiddlewareMissRunsBuilder(t *testing.T) {
	builder := &stubBuilder{data: []byte{0x1a, 0x00}}
	router := setupTestService(builder, cache.New(16, 8, ""))

	req := httptest.NewRequest("GET", tileURL("SELECT geom FROM roads", "geom"), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("expected cache miss, got %q", rr.Header().Get("X-Cache"))
	}
	if builder.calls != 1 {
		t.Fatalf("expected 1 build call, got %d", builder.calls)
	}
}

func TestCacheAuthMiddleware(t *testing.T) {
	router := setupTestService(&stubBuilder{}, cache.New(16, 8, ""))

	conf.Configuration.Cache.ApiKey = "secret"
	defer func() { conf.Configuration.Cache.ApiKey = "" }()

	// Missing key
	req := httptest.NewRequest("GET", "/cache/stats", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", rr.Code)
	}

	// Wrong key
	req = httptest.NewRequest("GET", "/cache/stats", nil)
	req.Header.Set(headerAPIKey, "wrong")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Fatalf("expected 403 with wrong key, got %d", rr.Code)
	}

	// Correct key
	req = httptest.NewRequest("GET", "/cache/stats", nil)
	req.Header.Set(headerAPIKey, "secret")
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with correct key, got %d", rr.Code)
	}
}
