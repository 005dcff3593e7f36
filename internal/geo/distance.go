// Package geo contains pure geographic helpers used by operator matching.
// Nothing here performs I/O; coordinates are always already resolved.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used for all great-circle distances.
const EarthRadiusKm = 6371.0

// Point is a WGS 84 coordinate in decimal degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the point lies within the legal latitude/longitude ranges.
func (p Point) Valid() bool {
	return p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180 &&
		!math.IsNaN(p.Lat) && !math.IsNaN(p.Lng)
}

// DistanceKm returns the haversine great-circle distance between a and b in
// kilometres. The result is non-negative, symmetric, and exactly zero when the
// two points are equal.
func DistanceKm(a, b Point) float64 {
	if a == b {
		return 0
	}

	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)
	rLat1 := toRadians(a.Lat)
	rLat2 := toRadians(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	// Rounding can push h a hair outside [0,1] for antipodal points.
	h = math.Min(1, math.Max(0, h))

	return 2 * EarthRadiusKm * math.Asin(math.Sqrt(h))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
