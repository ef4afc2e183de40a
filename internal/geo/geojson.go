package geo

import (
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"country-atlas-service/internal/model"
)

// LocationPoint converts a stored location to a GeoJSON-ordered (lng, lat) point.
func LocationPoint(loc model.Location) *geom.Point {
	return geom.NewPoint(geom.XY).MustSetCoords(geom.Coord{loc.Longitude, loc.Latitude})
}

// NearbyFeatureCollection renders nearby results as point features, keeping their order.
func NearbyFeatureCollection(countries []model.NearbyCountry) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{
		Features: make([]*geojson.Feature, 0, len(countries)),
	}
	for _, c := range countries {
		var geometry geom.T
		if c.Location != nil {
			geometry = LocationPoint(*c.Location)
		}
		fc.Features = append(fc.Features, &geojson.Feature{
			ID:       c.ID,
			Geometry: geometry,
			Properties: map[string]interface{}{
				"name":        c.Name,
				"capital":     c.Capital,
				"region":      c.Region,
				"distance_km": c.DistanceKm,
			},
		})
	}
	return fc
}
