package geo

import (
	"math"

	"github.com/golang/geo/s2"
	"github.com/tidwall/geodesic"

	"country-atlas-service/internal/apperr"
	"country-atlas-service/internal/model"
)

// Point is a WGS84 coordinate in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PointOf converts a stored location. It reports false for a missing one.
func PointOf(loc *model.Location) (Point, bool) {
	if loc == nil {
		return Point{}, false
	}
	return Point{Lat: loc.Latitude, Lng: loc.Longitude}, true
}

// ValidatePoint rejects NaN and out of range coordinates.
func ValidatePoint(p Point) error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lng) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lng, 0) {
		return apperr.InvalidArgument("coordinates must be finite numbers")
	}
	if !s2.LatLngFromDegrees(p.Lat, p.Lng).IsValid() {
		return apperr.InvalidArgument("coordinates (%g, %g) out of range: lat must be in [-90, 90], lng in [-180, 180]", p.Lat, p.Lng)
	}
	return nil
}

// DistanceKm returns the geodesic distance between a and b on the WGS84
// ellipsoid, in kilometers.
func DistanceKm(a, b Point) float64 {
	if a == b {
		return 0
	}
	var meters float64
	geodesic.WGS84.Inverse(a.Lat, a.Lng, b.Lat, b.Lng, &meters, nil, nil)
	return meters / 1000
}
