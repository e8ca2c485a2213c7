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
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
	"github.com/tobilg/mvt-tileserver/internal/cache"
	"github.com/tobilg/mvt-tileserver/internal/conf"
)

const defaultSRID = "4326"

// tileRequest is a fully parsed MVT request: coordinates, query, and the
// cache fingerprint derived from both.
type tileRequest struct {
	x, y, z     int
	query       string
	geoCol      string
	srid        string
	fingerprint string
}

// parseTileRequest extracts and validates the tile coordinates and query
// parameters of an MVT request
func parseTileRequest(r *http.Request) (*tileRequest, *appError) {
	vars := mux.Vars(r)

	x, err := strconv.Atoi(vars["x"])
	if err != nil {
		return nil, appErrorBadRequest(err, fmt.Sprintf("Invalid x coordinate: %s", vars["x"]))
	}
	y, err := strconv.Atoi(vars["y"])
	if err != nil {
		return nil, appErrorBadRequest(err, fmt.Sprintf("Invalid y coordinate: %s", vars["y"]))
	}
	z, err := strconv.Atoi(vars["z"])
	if err != nil {
		return nil, appErrorBadRequest(err, fmt.Sprintf("Invalid zoom level: %s", vars["z"]))
	}

	if z < 0 || z > 22 {
		return nil, appErrorBadRequest(nil, fmt.Sprintf("Zoom level out of range: %d", z))
	}
	maxCoord := 1 << uint(z) // 2^z
	if x < 0 || x >= maxCoord {
		return nil, appErrorBadRequest(nil, fmt.Sprintf("X coordinate out of range: %d (max: %d)", x, maxCoord-1))
	}
	if y < 0 || y >= maxCoord {
		return nil, appErrorBadRequest(nil, fmt.Sprintf("Y coordinate out of range: %d (max: %d)", y, maxCoord-1))
	}

	params := r.URL.Query()
	query := params.Get("query")
	if query == "" {
		return nil, appErrorBadRequest(nil, "Missing required parameter: query")
	}
	geoCol := params.Get("geoCol")
	if geoCol == "" {
		geoCol = params.Get("geo_col")
	}
	if geoCol == "" {
		return nil, appErrorBadRequest(nil, "Missing required parameter: geoCol")
	}
	srid := params.Get("srid")
	if srid == "" {
		srid = defaultSRID
	}

	return &tileRequest{
		x:           x,
		y:           y,
		z:           z,
		query:       query,
		geoCol:      geoCol,
		srid:        srid,
		fingerprint: cache.Fingerprint(x, y, z, query, geoCol, srid),
	}, nil
}

// handleTile serves an MVT tile built from the caller-supplied query. Any
// tile construction failure surfaces as 404 with an empty body.
func handleTile(w http.ResponseWriter, r *http.Request) *appError {
	req, appErr := parseTileRequest(r)
	if appErr != nil {
		return appErr
	}

	log.Debugf("Tile request: z=%d x=%d y=%d geoCol=%s", req.z, req.x, req.y, req.geoCol)

	tileData, tileErr := serviceInstance.tiles.BuildTile(r.Context(), req.x, req.y, req.z, req.query, req.geoCol, req.srid)
	if tileErr != nil {
		log.Warnf("Tile (%d,%d,%d) failed: %v", req.x, req.y, req.z, tileErr)
		w.WriteHeader(http.StatusNotFound)
		return nil
	}

	return writeTile(w, tileData)
}

// writeTile writes the encoded tile bytes with the protobuf content type and
// the configured Cache-Control header.
func writeTile(w http.ResponseWriter, tileData []byte) *appError {
	w.Header().Set("Content-Type", ContentTypeProtobuf)
	w.Header().Set("Cache-Control", conf.Configuration.Cache.ControlHeader)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(tileData); err != nil {
		return appErrorInternal(err, "Error writing tile data")
	}
	return nil
}
