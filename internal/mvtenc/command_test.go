package mvtenc

import (
	"testing"

	"github.com/paulmach/orb"
)

func testProj() TileProjection {
	return NewTileProjection(0, 0, 0, 4096)
}

func TestEncodeGeometryPoint(t *testing.T) {
	enc, err := EncodeGeometry(orb.Point{10, 10}, testProj())
	if err != nil {
		t.Fatal(err)
	}
	if enc.Type != GeomPoint {
		t.Fatalf("expected GeomPoint, got %v", enc.Type)
	}
	wantCmd := uint32((cmdMoveTo & 0x7) | (1 << 3))
	if enc.Geometry[0] != wantCmd {
		t.Fatalf("expected move-to command %d, got %d", wantCmd, enc.Geometry[0])
	}
	if len(enc.Geometry) != 3 {
		t.Fatalf("expected 1 command + 2 params, got %d values", len(enc.Geometry))
	}
}

func TestEncodeGeometryGeometryCollectionSkipped(t *testing.T) {
	enc, err := EncodeGeometry(orb.Collection{orb.Point{0, 0}}, testProj())
	if err != nil {
		t.Fatalf("geometry collection must not error, got %v", err)
	}
	if enc != nil {
		t.Fatalf("geometry collection must be skipped (nil result), got %+v", enc)
	}
}

func TestEncodeGeometryLineStringHasNoClosePath(t *testing.T) {
	ls := orb.LineString{{0, 0}, {1, 1}, {2, 2}}
	enc, err := EncodeGeometry(ls, testProj())
	if err != nil {
		t.Fatal(err)
	}
	// Walk command integers only, skipping each command's (dx, dy) parameters.
	stream := enc.Geometry
	for i := 0; i < len(stream); {
		cmdID := stream[i] & 0x7
		count := int(stream[i] >> 3)
		if cmdID == cmdClosePath {
			t.Fatalf("LineString must not emit ClosePath, got stream %v", enc.Geometry)
		}
		i += 1 + 2*count
	}
}

func TestEncodeGeometryPolygonWithHoleEmitsTwoRings(t *testing.T) {
	exterior := orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}
	interior := orb.Ring{{2, 2}, {4, 2}, {4, 4}, {2, 4}, {2, 2}}
	poly := orb.Polygon{exterior, interior}

	enc, err := EncodeGeometry(poly, testProj())
	if err != nil {
		t.Fatal(err)
	}
	if enc.Type != GeomPolygon {
		t.Fatalf("expected GeomPolygon, got %v", enc.Type)
	}

	moveToCount := 0
	closePathCount := 0
	for _, v := range enc.Geometry {
		cmdID := v & 0x7
		count := v >> 3
		if cmdID == cmdMoveTo && count == 1 {
			moveToCount++
		}
		if cmdID == cmdClosePath {
			closePathCount++
		}
	}
	if moveToCount != 2 {
		t.Fatalf("expected 2 MoveTo commands (exterior + hole), got %d", moveToCount)
	}
	if closePathCount != 2 {
		t.Fatalf("expected 2 ClosePath commands, got %d", closePathCount)
	}
}

func TestEncodeGeometryRingClosureDropsTrailingDuplicate(t *testing.T) {
	closedRing := orb.Ring{{0, 0}, {10, 0}, {10, 10}, {0, 0}}
	openRing := orb.Ring{{0, 0}, {10, 0}, {10, 10}}

	encClosed, err := EncodeGeometry(orb.Polygon{closedRing}, testProj())
	if err != nil {
		t.Fatal(err)
	}
	encOpen, err := EncodeGeometry(orb.Polygon{openRing}, testProj())
	if err != nil {
		t.Fatal(err)
	}
	if len(encClosed.Geometry) != len(encOpen.Geometry) {
		t.Fatalf("closed ring (with dup dropped) and open ring should encode the same number of values: %d vs %d", len(encClosed.Geometry), len(encOpen.Geometry))
	}
}

func TestEncodeGeometryUnsupportedType(t *testing.T) {
	_, err := EncodeGeometry(orb.Bound{}, testProj())
	if err == nil {
		t.Fatal("expected error for unsupported geometry type")
	}
}

func TestZigzagRoundTrip(t *testing.T) {
	cases := []int32{0, 1, -1, 2, -2, 4095, -4095}
	for _, n := range cases {
		z := zigzag(n)
		decoded := int32(z>>1) ^ -(int32(z & 1))
		if decoded != n {
			t.Fatalf("zigzag round trip failed for %d: got %d", n, decoded)
		}
	}
}
