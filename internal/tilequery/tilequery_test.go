package tilequery

import (
	"strings"
	"testing"
)

func TestBuildFormASelectedAtFullResolution(t *testing.T) {
	sql := Build(0, 0, 15, "SELECT ST_Point(0,0) as geom", "geom", "4326")
	if strings.Contains(sql, "h3_lat_lng_to_cell") {
		t.Fatalf("form A must not reference H3 clustering, got:\n%s", sql)
	}
	if !strings.Contains(sql, "CAST(1 as int8) as h3ClusterCount") {
		t.Fatalf("form A must set h3ClusterCount = 1, got:\n%s", sql)
	}
}

func TestBuildFormBSelectedBelowFullResolution(t *testing.T) {
	sql := Build(0, 0, 14, "SELECT ST_Point(0,0) as geom", "geom", "4326")
	if !strings.Contains(sql, "h3_lat_lng_to_cell") {
		t.Fatalf("form B must cluster points via H3, got:\n%s", sql)
	}
	if !strings.Contains(sql, "UNION ALL") {
		t.Fatalf("form B must union shapes and points, got:\n%s", sql)
	}
}

func TestBuildEmbedsQueryVerbatim(t *testing.T) {
	query := "SELECT weird_column, ST_Point(1,2) as geom FROM t"
	sql := Build(1, 1, 1, query, "geom", "3857")
	if !strings.Contains(sql, query) {
		t.Fatalf("expected query to be embedded verbatim, got:\n%s", sql)
	}
	if !strings.Contains(sql, "3857") {
		t.Fatalf("expected srid to appear in envelope, got:\n%s", sql)
	}
}

func TestBuildUsesGeoColName(t *testing.T) {
	sql := Build(0, 0, 0, "SELECT 1", "the_geom", "4326")
	if !strings.Contains(sql, "ST_GeometryType(the_geom)") {
		t.Fatalf("expected geo_col substituted into ST_GeometryType, got:\n%s", sql)
	}
}
