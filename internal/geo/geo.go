// Package geo provides the zoom/H3-resolution mapping and Web-Mercator tile
// math shared by the SQL constructor and the tile projector.
package geo

import (
	"math"

	"github.com/uber/h3-go/v4"
)

// Point is a longitude/latitude pair in degrees.
type Point struct {
	Lon float64
	Lat float64
}

// BoundingBox is a lon/lat rectangle, min being the southwest corner.
type BoundingBox struct {
	Min Point
	Max Point
}

// ZoomToH3Resolution maps a slippy-map zoom level to an H3 index resolution.
// At z >= 15 the finest resolution (15, no clustering) is always used.
func ZoomToH3Resolution(z int) int {
	if z >= h3.MaxResolution {
		return h3.MaxResolution
	}
	res := int(math.Floor((1.8/3.0)*float64(z) + 2.0))
	if res > h3.MaxResolution {
		return h3.MaxResolution
	}
	return res
}

// MercatorToTile converts a lon/lat point to real-valued Web-Mercator tile
// coordinates at zoom z.
func MercatorToTile(lon, lat float64, z int) (x, y float64) {
	n := math.Exp2(float64(z))
	latRad := lat * math.Pi / 180.0
	x = n * (lon + 180.0) / 360.0
	y = n * (1.0 - math.Log(math.Tan(latRad)+1.0/math.Cos(latRad))/math.Pi) / 2.0
	return x, y
}

// ToLonLat is the inverse of MercatorToTile.
func ToLonLat(x, y float64, z int) (lon, lat float64) {
	n := math.Exp2(float64(z))
	lon = 360.0 * (x/n - 0.5)
	lat = (180.0/math.Pi)*(2.0*math.Atan(math.Exp(math.Pi-2.0*math.Pi*y/n))) - 90.0
	return lon, lat
}

// TileBBox computes the lon/lat bounding box covered by tile (x, y, z).
func TileBBox(x, y, z int) BoundingBox {
	n := 1 << uint(z)

	minY := y
	if minY < 0 {
		minY = 0
	}
	maxY := y + 1
	if maxY > n {
		maxY = n
	}

	minLon, maxLat := ToLonLat(float64(x), float64(minY), z)
	maxLon, minLat := ToLonLat(float64(x+1), float64(maxY), z)

	return BoundingBox{
		Min: Point{Lon: minLon, Lat: minLat},
		Max: Point{Lon: maxLon, Lat: maxLat},
	}
}
