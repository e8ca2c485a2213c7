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
	"bytes"
	"context"
	"net/http"
)

// tileCacheMiddleware wraps the tile handler with the fingerprint cache:
// read-through on the way in, write-behind on the way out. A cancelled
// request never writes a cache entry.
func (s *Service) tileCacheMiddleware(next appHandler) appHandler {
	return func(w http.ResponseWriter, r *http.Request) *appError {
		// Skip cache if service or cache is not initialized
		if s == nil || s.cache == nil || !s.cache.Enabled() {
			return next(w, r)
		}

		req, appErr := parseTileRequest(r)
		if appErr != nil {
			return appErr
		}

		// Try cache first
		if cachedTile, found := s.cache.Get(r.Context(), req.fingerprint); found {
			w.Header().Set("X-Cache", "HIT")
			return writeTile(w, cachedTile)
		}

		// Cache miss - set header before calling next handler
		w.Header().Set("X-Cache", "MISS")

		// Capture the response to store it
		recorder := &responseCapturer{
			ResponseWriter: w,
			body:           &bytes.Buffer{},
		}

		// Call original handler
		appErr = next(recorder, r)

		// If successful, store in cache (async to not block response).
		// Detached from the request context so a completed response still
		// gets stored; an aborted request never reaches this point with 200.
		if appErr == nil && recorder.statusCode == http.StatusOK && r.Context().Err() == nil {
			tileData := recorder.body.Bytes()
			go s.cache.Set(context.Background(), req.fingerprint, tileData)
		}

		return appErr
	}
}

// responseCapturer captures the response body to store in cache
type responseCapturer struct {
	http.ResponseWriter
	body       *bytes.Buffer
	statusCode int
}

func (rc *responseCapturer) Write(b []byte) (int, error) {
	// If WriteHeader wasn't called explicitly, assume 200 OK
	if rc.statusCode == 0 {
		rc.statusCode = http.StatusOK
	}

	// Capture body
	rc.body.Write(b)

	// Write to original response
	return rc.ResponseWriter.Write(b)
}

func (rc *responseCapturer) WriteHeader(statusCode int) {
	rc.statusCode = statusCode
	rc.ResponseWriter.WriteHeader(statusCode)
}
