package roi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

const regionGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"region": "valley"},
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[0, 0], [1, 0], [1, 1], [0, 1], [0, 0]]]
      }
    }
  ]
}`

const sitesGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"name": "well-3", "owner": "someone", "elevation": 512},
      "geometry": {"type": "Point", "coordinates": [0.5, 0.5]}
    },
    {
      "type": "Feature",
      "properties": {},
      "geometry": {"type": "Point", "coordinates": [0.2, 0.8]}
    }
  ]
}`

func writeGeoJSON(t *testing.T, name, content string) {
	t.Helper()
	dir := filepath.Join(os.Getenv("ROOT_PATH"), "data", "geojsons")
	assert.Nil(t, os.MkdirAll(dir, 0755))
	assert.Nil(t, os.WriteFile(filepath.Join(dir, name+".geojson"), []byte(content), 0644))
}

func TestLoadRegion(t *testing.T) {
	t.Setenv("ROOT_PATH", t.TempDir())
	writeGeoJSON(t, "valley", regionGeoJSON)

	mp, err := LoadRegion("valley")
	assert.Nil(t, err)
	assert.Len(t, mp, 1)
	assert.True(t, Contains(mp, orb.Point{0.5, 0.5}))
	assert.False(t, Contains(mp, orb.Point{2, 2}))
}

func TestLoadRegionMissingFile(t *testing.T) {
	t.Setenv("ROOT_PATH", t.TempDir())

	_, err := LoadRegion("nowhere")
	assert.NotNil(t, err)
}

func TestLoadSitesKeepsOnlyName(t *testing.T) {
	t.Setenv("ROOT_PATH", t.TempDir())
	writeGeoJSON(t, "wells", sitesGeoJSON)

	sites, err := LoadSites("wells")
	assert.Nil(t, err)
	assert.Len(t, sites, 2)
	assert.Equal(t, "well-3", sites[0].Name)
	assert.Equal(t, orb.Point{0.5, 0.5}, sites[0].Point)
	// A site without a name keeps an empty identity rather than a guess.
	assert.Equal(t, "", sites[1].Name)
}

func TestCentroid(t *testing.T) {
	square := orb.Polygon{orb.Ring{{0, 0}, {2, 0}, {2, 2}, {0, 2}, {0, 0}}}

	lat, lon := Centroid(square)
	assert.InDelta(t, 1.0, lat, 1e-9)
	assert.InDelta(t, 1.0, lon, 1e-9)
}

func TestBufferPoint(t *testing.T) {
	center := orb.Point{10, 20}
	disk := BufferPoint(center, 500)

	assert.True(t, Contains(disk, center))

	// A point just inside the radius is contained, one beyond is not.
	inside := orb.Point{10 + 400/metersPerDegree, 20}
	outside := orb.Point{10 + 600/metersPerDegree, 20}
	assert.True(t, Contains(disk, inside))
	assert.False(t, Contains(disk, outside))
}
