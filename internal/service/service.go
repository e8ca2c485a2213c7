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
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"github.com/theckman/httpforwarded"
	"github.com/tobilg/mvt-tileserver/internal/cache"
	"github.com/tobilg/mvt-tileserver/internal/conf"
	"github.com/tobilg/mvt-tileserver/internal/mvtenc"
)

// TileBuilder is the tile-construction collaborator behind the MVT route.
type TileBuilder interface {
	BuildTile(ctx context.Context, x, y, z int, query, geoCol, srid string) ([]byte, *mvtenc.TileError)
}

// Service holds the shared per-process collaborators: the DB pool, the tile
// builder, and the tile cache.
type Service struct {
	pool  *pgxpool.Pool
	tiles TileBuilder
	cache *cache.TileCache
}

var serviceInstance *Service

// Initialize wires the service collaborators before Serve
func Initialize(pool *pgxpool.Pool, tiles TileBuilder, tileCache *cache.TileCache) {
	serviceInstance = &Service{
		pool:  pool,
		tiles: tiles,
		cache: tileCache,
	}
}

// Serve starts the HTTP listener and blocks until it exits
func Serve() error {
	router := initRouter(conf.Configuration.Server.BasePath)

	corsOrigins := handlers.AllowedOrigins(conf.Configuration.CORS.AllowedOrigins)
	corsMethods := handlers.AllowedMethods([]string{"GET", "DELETE", "OPTIONS"})
	corsHeaders := handlers.AllowedHeaders([]string{"Content-Type", headerAPIKey})

	var handler http.Handler = handlers.CORS(corsOrigins, corsMethods, corsHeaders)(router)
	if !conf.Configuration.Compression.DisableGzip {
		handler = handlers.CompressHandler(handler)
	}

	addr := fmt.Sprintf(":%d", conf.Configuration.Server.HTTPPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	log.Infof("Listening on %s", addr)
	return server.ListenAndServe()
}

// appError carries a handler failure and the HTTP status to surface it with
type appError struct {
	Error   error
	Message string
	Code    int
}

// appHandler is an http.Handler whose funcs return an *appError instead of
// writing error responses themselves
type appHandler func(http.ResponseWriter, *http.Request) *appError

func (fn appHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if e := fn(w, r); e != nil {
		if e.Error != nil {
			log.Warnf("%s %s: %s: %v", r.Method, r.URL.Path, e.Message, e.Error)
		} else {
			log.Warnf("%s %s: %s", r.Method, r.URL.Path, e.Message)
		}
		http.Error(w, e.Message, e.Code)
	}
}

func appErrorBadRequest(err error, message string) *appError {
	return &appError{Error: err, Message: message, Code: http.StatusBadRequest}
}

func appErrorNotFound(err error, message string) *appError {
	return &appError{Error: err, Message: message, Code: http.StatusNotFound}
}

func appErrorInternal(err error, message string) *appError {
	return &appError{Error: err, Message: message, Code: http.StatusInternalServerError}
}

func appErrorUnauthorized(err error, message string) *appError {
	return &appError{Error: err, Message: message, Code: http.StatusUnauthorized}
}

func appErrorForbidden(err error, message string) *appError {
	return &appError{Error: err, Message: message, Code: http.StatusForbidden}
}

// writeJSON marshals content and writes it with the given content type
func writeJSON(w http.ResponseWriter, contentType string, content interface{}) *appError {
	encoded, err := json.Marshal(content)
	if err != nil {
		return appErrorInternal(err, "Error marshalling JSON response")
	}
	w.Header().Set("Content-Type", contentType)
	if _, err := w.Write(encoded); err != nil {
		return appErrorInternal(err, "Error writing JSON response")
	}
	return nil
}

// serveURLBase derives the externally visible base URL of the service,
// honoring RFC 7239 Forwarded and the legacy X-Forwarded-* headers set by
// reverse proxies.
func serveURLBase(r *http.Request) string {
	baseHost := r.Host
	baseScheme := "http"
	if r.TLS != nil {
		baseScheme = "https"
	}

	if fwd, err := httpforwarded.Parse(r.Header["Forwarded"]); err == nil && len(fwd) > 0 {
		if v, ok := fwd["host"]; ok && len(v) > 0 {
			baseHost = v[0]
		}
		if v, ok := fwd["proto"]; ok && len(v) > 0 {
			baseScheme = v[0]
		}
	} else {
		if v := r.Header.Get("X-Forwarded-Host"); v != "" {
			baseHost = v
		}
		if v := r.Header.Get("X-Forwarded-Proto"); v != "" {
			baseScheme = v
		}
	}

	return fmt.Sprintf("%s://%s%s", baseScheme, baseHost, conf.Configuration.Server.BasePath)
}
