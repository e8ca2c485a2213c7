// Package tilequery builds the dynamic PostGIS SQL that wraps a caller-supplied
// query with bounding-box intersection, zoom-adaptive simplification, and
// optional H3 point clustering.
//
// The caller-supplied query, geometry column name, and SRID are embedded into
// the emitted SQL as raw text with no escaping. This service is therefore only
// safe behind a caller that is itself trusted, or behind an authorization
// layer that validates the SQL before it reaches here — see the open question
// recorded in DESIGN.md. Changing that contract is out of scope here.
package tilequery

import (
	"fmt"

	"github.com/tobilg/mvt-tileserver/internal/geo"
)

const fullResolution = 15

// Build emits a single SQL string selecting one row per feature with columns
// properties (json), h3ClusterCount (int8), and __internal_geometry_bin__ (bytea, WKB).
//
// Form A is used at full H3 resolution (z >= 15, no clustering); Form B splits
// shapes from points and clusters points into H3 cells otherwise.
func Build(x, y, z int, query, geoCol, srid string) string {
	bbox := geo.TileBBox(x, y, z)
	envelope := fmt.Sprintf(
		"ST_MakeEnvelope(%.8f, %.8f, %.8f, %.8f, %s)",
		bbox.Min.Lon, bbox.Min.Lat, bbox.Max.Lon, bbox.Max.Lat, srid,
	)

	h3Resolution := geo.ZoomToH3Resolution(z)

	if h3Resolution >= fullResolution {
		return buildFormA(query, geoCol, envelope, z)
	}
	return buildFormB(query, geoCol, envelope, z, h3Resolution)
}

func buildFormA(query, geoCol, envelope string, z int) string {
	return fmt.Sprintf(`
WITH geometry_type AS (
	SELECT
		row_to_json(t) as properties,
		t.%[1]s,
		ST_GeometryType(%[1]s) as __internal_geometry_type__,
		ROUND(0.7 / (2 ^ %[3]d)::numeric, 3) as __internal_geometry_simplify__
	FROM (%[2]s) t
	WHERE
		ST_INTERSECTS(%[4]s, %[1]s)
), setup AS (
	SELECT
		t.*,
		CASE
			WHEN __internal_geometry_type__ = 'ST_GeometryCollection'
				THEN ST_CollectionExtract(ST_Simplify(%[1]s, 0.7 / (2 ^ %[3]d), true))
			WHEN __internal_geometry_type__ = 'ST_Point'
				THEN %[1]s
			ELSE ST_Simplify(%[1]s, t.__internal_geometry_simplify__, true)
		END as __internal_geometry_mapped__,
		CAST(1 as int8) as h3ClusterCount
	FROM geometry_type t
) SELECT *, ST_AsBinary(__internal_geometry_mapped__) as __internal_geometry_bin__ FROM setup
`, geoCol, query, z, envelope)
}

func buildFormB(query, geoCol, envelope string, z, h3Resolution int) string {
	return fmt.Sprintf(`
WITH geometry_type AS (
	SELECT
		row_to_json(t) as properties,
		t.%[1]s,
		ST_GeometryType(%[1]s) as __internal_geometry_type__,
		ROUND(0.7 / (2 ^ %[3]d)::numeric, 3) as __internal_geometry_simplify__
	FROM (%[2]s) t
	WHERE
		ST_INTERSECTS(%[4]s, %[1]s)
), setup AS (
	SELECT
		t.*,
		CASE
			WHEN __internal_geometry_type__ = 'ST_GeometryCollection'
				THEN ST_CollectionExtract(ST_Simplify(%[1]s, 0.7 / (2 ^ %[3]d), true))
			WHEN __internal_geometry_type__ = 'ST_Point'
				THEN %[1]s
			ELSE ST_Simplify(%[1]s, t.__internal_geometry_simplify__, true)
		END as __internal_geometry_mapped__
	FROM geometry_type t
), shapes AS (
	SELECT
		CAST('1' as h3index) as __internal_h3_index__,
		*,
		CAST(1 as int8) as h3ClusterCount
	FROM setup
	WHERE __internal_geometry_type__ <> 'ST_Point' AND __internal_geometry_mapped__ IS NOT NULL
), points AS (
	(WITH data AS (
		SELECT * FROM setup WHERE __internal_geometry_type__ = 'ST_Point'
	), indexed AS (
		SELECT h3_lat_lng_to_cell(CAST(%[1]s as point), %[5]d) as __internal_h3_index__, * FROM data
	), counted_index AS (
		SELECT *, row_number() over (partition by __internal_h3_index__ ORDER BY __internal_h3_index__ DESC) as h3ClusterCount FROM indexed
	)
	SELECT
		distinct on(ci.__internal_h3_index__) ci.*
	FROM counted_index ci
	ORDER BY ci.__internal_h3_index__, ci.h3ClusterCount DESC)
)
SELECT
	*,
	ST_AsBinary(__internal_geometry_mapped__) as __internal_geometry_bin__
FROM shapes
UNION ALL
SELECT
	*,
	ST_AsBinary(__internal_geometry_mapped__) as __internal_geometry_bin__
FROM points
`, geoCol, query, z, envelope, h3Resolution)
}
