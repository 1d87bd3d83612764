package roi

import (
	"fmt"
	"math"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/terravista/terravista-research-poc/internal/properties"
)

const metersPerDegree = 111_000.0

// Site is a monitoring point carrying only the identity this workflow keeps.
// Any other properties on the input feature are dropped.
type Site struct {
	Name  string
	Point orb.Point
}

func regionFilePath(region string) string {
	return fmt.Sprintf("%s/data/geojsons/%s.geojson", properties.RootPath(), region)
}

func loadFeatureCollection(filePath string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GeoJSON %s: %w", filePath, err)
	}
	return fc, nil
}

// LoadRegion reads data/geojsons/<region>.geojson and merges every polygonal
// feature into one MultiPolygon used as the region of interest.
func LoadRegion(region string) (orb.MultiPolygon, error) {
	fc, err := loadFeatureCollection(regionFilePath(region))
	if err != nil {
		return nil, err
	}

	var mp orb.MultiPolygon
	for _, feature := range fc.Features {
		switch g := feature.Geometry.(type) {
		case orb.Polygon:
			mp = append(mp, g)
		case orb.MultiPolygon:
			mp = append(mp, g...)
		}
	}

	if len(mp) == 0 {
		return nil, fmt.Errorf("no polygon features found for region %s", region)
	}
	return mp, nil
}

// LoadSites reads the point features of data/geojsons/<sites>.geojson. Only
// the "name" property is carried through; a site without one keeps an empty
// name rather than an invented identity.
func LoadSites(sites string) ([]Site, error) {
	fc, err := loadFeatureCollection(regionFilePath(sites))
	if err != nil {
		return nil, err
	}

	var result []Site
	for _, feature := range fc.Features {
		point, ok := feature.Geometry.(orb.Point)
		if !ok {
			continue
		}
		name, _ := feature.Properties["name"].(string)
		if name == "" {
			fmt.Printf("Warning: site feature at (%f, %f) has no 'name' property\n", point.Lon(), point.Lat())
		}
		result = append(result, Site{Name: name, Point: point})
	}

	if len(result) == 0 {
		return nil, fmt.Errorf("no point features found in %s", sites)
	}
	return result, nil
}

// Centroid returns the area-weighted center of the geometry as (lat, lon).
func Centroid(geom orb.Geometry) (float64, float64) {
	center, _ := planar.CentroidArea(geom)
	return center.Lat(), center.Lon()
}

// BufferPoint approximates a disk of the given radius (meters) around a point
// as a 36-segment polygon, using the same flat meters-per-degree conversion
// the imagery client uses for pixel sizing.
func BufferPoint(p orb.Point, radiusMeters float64) orb.Polygon {
	const segments = 36
	radiusDeg := radiusMeters / metersPerDegree

	ring := make(orb.Ring, 0, segments+1)
	for i := 0; i <= segments; i++ {
		angle := 2 * math.Pi * float64(i) / segments
		ring = append(ring, orb.Point{
			p.Lon() + radiusDeg*math.Cos(angle),
			p.Lat() + radiusDeg*math.Sin(angle),
		})
	}
	return orb.Polygon{ring}
}

// Contains reports whether the point falls inside a polygonal geometry.
func Contains(geom orb.Geometry, p orb.Point) bool {
	switch g := geom.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, p)
	default:
		return false
	}
}
