// internal/utils/geo.go
package utils

import (
	"math"
)

// EarthRadiusMiles is the radius used to turn a distance in miles into an
// angular radius in radians.
const EarthRadiusMiles = 3963.0

// RadiusFromMiles returns the angular radius, in radians, of a spherical cap
// whose surface distance from the center is miles.
func RadiusFromMiles(miles float64) float64 {
	return miles / EarthRadiusMiles
}

// CentralAngle returns the great-circle angle in radians between two points
// given in degrees (haversine formula).
func CentralAngle(lat1, lng1, lat2, lng2 float64) float64 {
	phi1 := degreesToRadians(lat1)
	phi2 := degreesToRadians(lat2)
	dPhi := degreesToRadians(lat2 - lat1)
	dLambda := degreesToRadians(lng2 - lng1)

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	if a > 1 {
		a = 1
	}
	return 2 * math.Asin(math.Sqrt(a))
}

// WithinCap reports whether (lat, lng) lies inside the spherical cap centered
// on (centerLat, centerLng) with the given angular radius.
func WithinCap(centerLat, centerLng, radius, lat, lng float64) bool {
	return CentralAngle(centerLat, centerLng, lat, lng) <= radius
}

type BoundingBox struct {
	MinLat, MaxLat float64
	MinLng, MaxLng float64
	// FullLongitude is set when the cap reaches a pole or wraps the
	// antimeridian; longitude then cannot narrow the search.
	FullLongitude bool
}

// CapBoundingBox returns a latitude/longitude box, in degrees, containing the
// whole cap. It is a prefilter only; use WithinCap for the exact test.
func CapBoundingBox(centerLat, centerLng, radius float64) BoundingBox {
	deltaLat := radiansToDegrees(radius)
	box := BoundingBox{
		MinLat: math.Max(centerLat-deltaLat, -90),
		MaxLat: math.Min(centerLat+deltaLat, 90),
	}

	if box.MinLat <= -90 || box.MaxLat >= 90 || radius >= math.Pi/2 {
		box.MinLng, box.MaxLng, box.FullLongitude = -180, 180, true
		return box
	}

	deltaLng := radiansToDegrees(math.Asin(math.Sin(radius) / math.Cos(degreesToRadians(centerLat))))
	box.MinLng = centerLng - deltaLng
	box.MaxLng = centerLng + deltaLng
	if box.MinLng < -180 || box.MaxLng > 180 {
		box.MinLng, box.MaxLng, box.FullLongitude = -180, 180, true
	}
	return box
}

func degreesToRadians(d float64) float64 {
	return d * math.Pi / 180
}

func radiansToDegrees(r float64) float64 {
	return r * 180 / math.Pi
}
