// Package tileservice orchestrates tile construction for a single request:
// dynamic SQL generation, query execution, row decoding, and MVT layer
// assembly, returning the encoded tile bytes.
package tileservice

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"

	"github.com/tobilg/mvt-tileserver/internal/mvtenc"
	"github.com/tobilg/mvt-tileserver/internal/rowdecode"
	"github.com/tobilg/mvt-tileserver/internal/tilequery"
)

// LayerName is the single layer every tile carries.
const LayerName = "default"

// Columns emitted by the tile query. Postgres folds the unquoted
// h3ClusterCount identifier to lower case.
const (
	colProperties   = "properties"
	colClusterCount = "h3clustercount"
	colGeometryBin  = "__internal_geometry_bin__"
)

// Service builds tiles against a shared connection pool.
type Service struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// BuildTile runs the full pipeline for one tile request. A DB failure is a
// DatabaseError; rows with undecodable geometry are dropped locally; rows
// whose properties are not a JSON object are dropped silently. An empty
// result set is not an error — an empty, well-formed tile is returned.
func (s *Service) BuildTile(ctx context.Context, x, y, z int, query, geoCol, srid string) ([]byte, *mvtenc.TileError) {
	sql := tilequery.Build(x, y, z, query, geoCol, srid)
	log.Tracef("Tile query for (%d,%d,%d):\n%s", x, y, z, sql)

	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, mvtenc.DatabaseError("%v", err)
	}
	defer rows.Close()

	propsIdx, countIdx, geomIdx := -1, -1, -1
	for i, fd := range rows.FieldDescriptions() {
		switch fd.Name {
		case colProperties:
			propsIdx = i
		case colClusterCount:
			countIdx = i
		case colGeometryBin:
			geomIdx = i
		}
	}
	if propsIdx < 0 || countIdx < 0 || geomIdx < 0 {
		return nil, mvtenc.DatabaseError("tile query result is missing expected columns")
	}

	var features []mvtenc.Feature
	for rows.Next() {
		// The properties column is read raw so the JSON object's key order
		// survives into dictionary encoding; the json wire format is its text.
		propJSON := append([]byte(nil), rows.RawValues()[propsIdx]...)

		values, err := rows.Values()
		if err != nil {
			return nil, mvtenc.DatabaseError("%v", err)
		}

		wkbBytes, _ := values[geomIdx].([]byte)
		row := rowdecode.Row{
			GeometryWKB:    wkbBytes,
			H3ClusterCount: clusterCount(values[countIdx]),
			PropertiesJSON: propJSON,
		}

		feature, ok, err := rowdecode.Decode(row, geoCol)
		if err != nil {
			log.Warnf("Dropping row with undecodable geometry: %v", mvtenc.EncodingError("%v", err))
			continue
		}
		if !ok {
			continue
		}
		features = append(features, feature)
	}
	if err := rows.Err(); err != nil {
		return nil, mvtenc.DatabaseError("%v", err)
	}

	layer := mvtenc.NewLayer(LayerName)
	proj := mvtenc.NewTileProjection(x, y, z, mvtenc.DefaultExtent)
	layer.AddFeatures(features, proj)

	return mvtenc.EncodeTile([]*mvtenc.Layer{layer}), nil
}

// clusterCount coerces the h3ClusterCount column, which arrives as int8 from
// form A's CAST and as bigint from form B's window function.
func clusterCount(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int16:
		return int64(n)
	default:
		return 1
	}
}
