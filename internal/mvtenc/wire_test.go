package mvtenc

import (
	"testing"

	"github.com/paulmach/orb"
)

// decodeVarints reads a packed repeated field's payload as a flat sequence of
// varints, mirroring how an independent MVT decoder would read the
// geometry/tags fields.
func decodeVarints(b []byte) []uint32 {
	var out []uint32
	i := 0
	for i < len(b) {
		var v uint32
		shift := uint(0)
		for {
			c := b[i]
			i++
			v |= uint32(c&0x7f) << shift
			if c&0x80 == 0 {
				break
			}
			shift += 7
		}
		out = append(out, v)
	}
	return out
}

func TestEncodeValueRoundTripTags(t *testing.T) {
	cases := []TypedValue{
		{Kind: ValueString, String: "hello"},
		{Kind: ValueInt, Int: -42},
		{Kind: ValueUint, Uint: 42},
		{Kind: ValueDouble, Double: 3.5},
		{Kind: ValueBool, Bool: true},
	}
	for _, v := range cases {
		b := EncodeValue(v)
		if len(b) == 0 {
			t.Fatalf("expected non-empty encoding for %+v", v)
		}
	}
}

func TestEncodeTileProducesNonEmptyBytesForFeatures(t *testing.T) {
	layer := NewLayer("default")
	proj := NewTileProjection(0, 0, 0, DefaultExtent)

	props := NewOrderedProperties()
	props.Set("name", "origin")
	layer.AddFeatures([]Feature{{Geometry: orb.Point{0, 0}, Properties: props}}, proj)

	tileBytes := EncodeTile([]*Layer{layer})
	if len(tileBytes) == 0 {
		t.Fatal("expected non-empty tile bytes")
	}
}

func TestEncodeTileEmptyLayerIsWellFormed(t *testing.T) {
	layer := NewLayer("default")
	tileBytes := EncodeTile([]*Layer{layer})

	if len(tileBytes) == 0 {
		t.Fatal("an empty layer must still serialize to a well-formed (non-empty, since name is still written) tile")
	}
}

func TestCommandStreamCursorReproducesProjectedPoints(t *testing.T) {
	proj := NewTileProjection(0, 0, 0, DefaultExtent)
	ls := orb.LineString{{0, 0}, {10, 10}, {20, 0}}

	enc, err := EncodeGeometry(ls, proj)
	if err != nil {
		t.Fatal(err)
	}

	wantPoints := make([][2]int32, len(ls))
	for i, pt := range ls {
		x, y := proj.Project(pt)
		wantPoints[i] = [2]int32{x, y}
	}

	var gotPoints [][2]int32
	var cx, cy int32
	stream := enc.Geometry
	i := 0
	for i < len(stream) {
		cmd := stream[i]
		i++
		cmdID := cmd & 0x7
		count := int(cmd >> 3)
		if cmdID == cmdClosePath {
			continue
		}
		for c := 0; c < count; c++ {
			dx := stream[i]
			dy := stream[i+1]
			i += 2
			x := int32(dx>>1) ^ -(int32(dx & 1))
			y := int32(dy>>1) ^ -(int32(dy & 1))
			cx += x
			cy += y
			gotPoints = append(gotPoints, [2]int32{cx, cy})
		}
	}

	if len(gotPoints) != len(wantPoints) {
		t.Fatalf("expected %d points, got %d", len(wantPoints), len(gotPoints))
	}
	for i := range wantPoints {
		if gotPoints[i] != wantPoints[i] {
			t.Fatalf("point %d: got %v, want %v", i, gotPoints[i], wantPoints[i])
		}
	}
}
