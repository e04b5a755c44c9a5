package osm2lanelet

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

const (
	earthRadiusMeters = 6371000.0
	pi180             = math.Pi / 180.0
	pi180Rev          = 180.0 / math.Pi

	// Vectors shorter than this normalize to the unit Y vector so the
	// offsets downstream stay finite.
	minVectorLength = 1e-10
)

// GeoPoint representation of point on Earth
type GeoPoint struct {
	Lat float64
	Lon float64
}

// String returns pretty printed value for GeoPoint
func (gp GeoPoint) String() string {
	return fmt.Sprintf("Lon: %f | Lat: %f", gp.Lon, gp.Lat)
}

// degreesToRadians deg = r * pi / 180
func degreesToRadians(d float64) float64 {
	return d * pi180
}

// radiansTodegrees r = deg  * 180 / pi
func radiansTodegrees(d float64) float64 {
	return d * pi180Rev
}

// equirectangular flattens geographic coordinates onto a local metric plane
// around the given origin. Lane widths are a few meters while extracts span
// a few kilometers, so the approximation error stays far below the lane
// scale. Offsets are computed on that plane and projected back at emit time.
type equirectangular struct {
	origin    GeoPoint
	cosOrigin float64
}

func newEquirectangular(origin GeoPoint) equirectangular {
	return equirectangular{origin: origin, cosOrigin: math.Cos(degreesToRadians(origin.Lat))}
}

// project returns the local metric XY for the given geographic point.
func (proj equirectangular) project(pt GeoPoint) orb.Point {
	x := degreesToRadians(pt.Lon-proj.origin.Lon) * earthRadiusMeters * proj.cosOrigin
	y := degreesToRadians(pt.Lat-proj.origin.Lat) * earthRadiusMeters
	return orb.Point{x, y}
}

// unproject returns geographic coordinates for the given local metric XY.
func (proj equirectangular) unproject(pt orb.Point) GeoPoint {
	lat := proj.origin.Lat + radiansTodegrees(pt[1]/earthRadiusMeters)
	lon := proj.origin.Lon + radiansTodegrees(pt[0]/(earthRadiusMeters*proj.cosOrigin))
	return GeoPoint{Lat: lat, Lon: lon}
}

// normalizeVector scales the vector to unit length
func normalizeVector(v orb.Point) orb.Point {
	d := math.Hypot(v[0], v[1])
	if d < minVectorLength {
		return orb.Point{0.0, 1.0}
	}
	return orb.Point{v[0] / d, v[1] / d}
}

// leftPerpendicular returns the unit vector 90 degrees to the left of the
// given direction
func leftPerpendicular(dir orb.Point) orb.Point {
	return normalizeVector(orb.Point{-dir[1], dir[0]})
}

// smoothedPerpendiculars returns the left perpendicular unit vector at every
// vertex of the line: the single segment direction at the endpoints, the
// normalized average of the adjacent segment directions at interior
// vertices. Averaging keeps the offset polylines from folding at bends.
// Note: the line must have at least 2 points.
func smoothedPerpendiculars(line orb.LineString) []orb.Point {
	perps := make([]orb.Point, len(line))
	for i := range line {
		sum := orb.Point{}
		dirsNum := 0.0
		if i > 0 {
			dir := normalizeVector(orb.Point{line[i][0] - line[i-1][0], line[i][1] - line[i-1][1]})
			sum[0] += dir[0]
			sum[1] += dir[1]
			dirsNum++
		}
		if i < len(line)-1 {
			dir := normalizeVector(orb.Point{line[i+1][0] - line[i][0], line[i+1][1] - line[i][1]})
			sum[0] += dir[0]
			sum[1] += dir[1]
			dirsNum++
		}
		avg := normalizeVector(orb.Point{sum[0] / dirsNum, sum[1] / dirsNum})
		perps[i] = leftPerpendicular(avg)
	}
	return perps
}
