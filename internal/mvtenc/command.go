package mvtenc

import "github.com/paulmach/orb"

const (
	cmdMoveTo    = 1
	cmdLineTo    = 2
	cmdClosePath = 7
)

// GeomType mirrors the MVT Tile.GeomType enum (vector_tile.proto §4.3.4).
type GeomType int32

const (
	GeomUnknown GeomType = 0
	GeomPoint   GeomType = 1
	GeomLine    GeomType = 2
	GeomPolygon GeomType = 3
)

// commandEncoder builds the MVT geometry command/parameter integer stream for
// a single feature, per spec.md §4.5: command integers are
// (command_id & 0x7) | (count << 3); parameters are zigzag-encoded deltas
// from the running cursor.
type commandEncoder struct {
	proj   TileProjection
	prevX  int32
	prevY  int32
	data   []uint32
}

func newCommandEncoder(proj TileProjection) *commandEncoder {
	return &commandEncoder{proj: proj}
}

func (e *commandEncoder) moveTo(points []orb.Point) {
	e.data = append(e.data, uint32((cmdMoveTo&0x7)|(len(points)<<3)))
	e.pushPoints(points)
}

func (e *commandEncoder) lineTo(points []orb.Point) {
	e.data = append(e.data, uint32((cmdLineTo&0x7)|(len(points)<<3)))
	e.pushPoints(points)
}

func (e *commandEncoder) closePath() {
	e.data = append(e.data, uint32((cmdClosePath&0x7)|(1<<3)))
}

func (e *commandEncoder) pushPoints(points []orb.Point) {
	for _, pt := range points {
		x, y := e.proj.Project(pt)
		dx := x - e.prevX
		dy := y - e.prevY
		e.prevX = x
		e.prevY = y
		e.data = append(e.data, zigzag(dx), zigzag(dy))
	}
}

func zigzag(n int32) uint32 {
	return uint32((n << 1) ^ (n >> 31))
}

// EncodedGeometry is the output of encoding a single feature's geometry.
type EncodedGeometry struct {
	Type     GeomType
	Geometry []uint32
}

// EncodeGeometry converts a geometry into the MVT command/parameter stream,
// per the table in spec.md §4.5. GeometryCollection yields a nil result (not
// an error) — callers must skip the feature. Any other unsupported type is an
// error.
func EncodeGeometry(geom orb.Geometry, proj TileProjection) (*EncodedGeometry, error) {
	switch g := geom.(type) {
	case orb.Point:
		enc := newCommandEncoder(proj)
		enc.moveTo([]orb.Point{g})
		return &EncodedGeometry{Type: GeomPoint, Geometry: enc.data}, nil

	case orb.MultiPoint:
		enc := newCommandEncoder(proj)
		enc.moveTo([]orb.Point(g))
		return &EncodedGeometry{Type: GeomPoint, Geometry: enc.data}, nil

	case orb.LineString:
		enc := newCommandEncoder(proj)
		addLineOpen(enc, g)
		return &EncodedGeometry{Type: GeomLine, Geometry: enc.data}, nil

	case orb.MultiLineString:
		enc := newCommandEncoder(proj)
		for _, ls := range g {
			addLineOpen(enc, ls)
		}
		return &EncodedGeometry{Type: GeomLine, Geometry: enc.data}, nil

	case orb.Polygon:
		enc := newCommandEncoder(proj)
		addPolygon(enc, g)
		return &EncodedGeometry{Type: GeomPolygon, Geometry: enc.data}, nil

	case orb.MultiPolygon:
		enc := newCommandEncoder(proj)
		for _, poly := range g {
			addPolygon(enc, poly)
		}
		return &EncodedGeometry{Type: GeomPolygon, Geometry: enc.data}, nil

	case orb.Collection:
		return nil, nil

	default:
		return nil, EncodingError("unsupported geometry type")
	}
}

// addLine emits MoveTo(first point), LineTo(remaining points), ClosePath for
// a single ring/linestring. A ring explicitly closed (first point == last
// point) has its trailing duplicate dropped before LineTo so ClosePath alone
// closes it.
func addLine(enc *commandEncoder, ls orb.LineString) {
	if len(ls) == 0 {
		return
	}
	enc.moveTo(ls[:1])

	rest := ls[1:]
	if len(ls) > 1 && ls[0] == ls[len(ls)-1] {
		rest = ls[1 : len(ls)-1]
	}
	if len(rest) > 0 {
		enc.lineTo(rest)
	}
	enc.closePath()
}

// addLineOpen is the non-ring variant used by plain LineStrings/MultiLineStrings
// (no ClosePath — only rings close).
func addLineOpen(enc *commandEncoder, ls orb.LineString) {
	enc.moveTo(ls[:1])
	if len(ls) > 1 {
		enc.lineTo(ls[1:])
	}
}

func addPolygon(enc *commandEncoder, poly orb.Polygon) {
	for _, ring := range poly {
		addLine(enc, orb.LineString(ring))
	}
}
