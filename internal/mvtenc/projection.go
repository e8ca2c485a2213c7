package mvtenc

import (
	"math"
	"math/bits"

	"github.com/paulmach/orb"
	"github.com/tobilg/mvt-tileserver/internal/geo"
)

// TileProjection projects lon/lat points into tile-local integer pixel space
// at a tile's extent, per spec.md §4.4. The effective zoom z' = coords.z + n
// where extent == 2^n.
type TileProjection struct {
	zoomLevel int
	minX      float64
	minY      float64
}

// NewTileProjection builds a projector for the given tile coordinate and
// extent. extent must be a power of two.
func NewTileProjection(x, y, z int, extent uint32) TileProjection {
	n := bits.TrailingZeros32(extent)
	return TileProjection{
		zoomLevel: z + n,
		minX:      float64(uint64(x) << uint(n)),
		minY:      float64(uint64(y) << uint(n)),
	}
}

// Project converts a lon/lat point into tile-local pixel coordinates. Points
// outside the tile project to out-of-range integers and are not clipped.
func (p TileProjection) Project(pt orb.Point) (x, y int32) {
	px, py := geo.MercatorToTile(pt.X(), pt.Y(), p.zoomLevel)
	return int32(math.Floor(px - p.minX)), int32(math.Floor(py - p.minY))
}
