package landsat

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func TestClipMasksPixelsOutsideGeometry(t *testing.T) {
	grid := make([][]float64, 4)
	for y := range grid {
		grid[y] = []float64{1, 1, 1, 1}
	}
	img := &Image{
		Width:        4,
		Height:       4,
		GeoTransform: [6]float64{0, 0.001, 0, 1, 0, -0.001},
		Bands:        map[string][][]float64{"NDVI": grid},
	}

	// Covers the left two pixel columns only.
	leftHalf := orb.Polygon{{{0, 1}, {0.002, 1}, {0.002, 0.996}, {0, 0.996}, {0, 1}}}
	img.Clip("NDVI", leftHalf)

	for y := 0; y < 4; y++ {
		assert.Equal(t, 1.0, grid[y][0])
		assert.Equal(t, 1.0, grid[y][1])
		assert.True(t, math.IsNaN(grid[y][2]))
		assert.True(t, math.IsNaN(grid[y][3]))
	}
}

func TestClipUnknownBandIsNoop(t *testing.T) {
	img := &Image{Width: 1, Height: 1, Bands: map[string][][]float64{}}
	img.Clip("missing", orb.Polygon{})
}
