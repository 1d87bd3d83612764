package pipeline

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/terravista/terravista-research-poc/internal/index"
	"github.com/terravista/terravista-research-poc/internal/landsat"
)

func testImage(date time.Time, values ...float64) *landsat.Image {
	grid := make([][]float64, 1)
	grid[0] = values
	return &landsat.Image{
		Date:         date,
		Width:        len(values),
		Height:       1,
		GeoTransform: [6]float64{0, 0.001, 0, 1, 0, -0.001},
		Bands:        map[string][][]float64{"nir": grid},
	}
}

func TestCompositeMedian(t *testing.T) {
	images := map[time.Time]*landsat.Image{
		day(2020, 1, 5): testImage(day(2020, 1, 5), 0.1, 0.2),
		day(2020, 2, 5): testImage(day(2020, 2, 5), 0.3, 0.4),
		day(2020, 3, 5): testImage(day(2020, 3, 5), 0.5, 0.9),
	}

	out, err := Composite(images, []string{"nir"}, index.Median)
	assert.Nil(t, err)
	assert.InDelta(t, 0.3, out.Bands["nir"][0][0], 1e-9)
	assert.InDelta(t, 0.4, out.Bands["nir"][0][1], 1e-9)
}

func TestCompositeMedianEvenCount(t *testing.T) {
	images := map[time.Time]*landsat.Image{
		day(2020, 1, 5): testImage(day(2020, 1, 5), 0.2),
		day(2020, 2, 5): testImage(day(2020, 2, 5), 0.4),
	}

	out, err := Composite(images, []string{"nir"}, index.Median)
	assert.Nil(t, err)
	assert.InDelta(t, 0.3, out.Bands["nir"][0][0], 1e-9)
}

func TestCompositeMean(t *testing.T) {
	images := map[time.Time]*landsat.Image{
		day(2020, 7, 1): testImage(day(2020, 7, 1), 300.0),
		day(2020, 7, 9): testImage(day(2020, 7, 9), 310.0),
	}

	out, err := Composite(images, []string{"nir"}, index.Mean)
	assert.Nil(t, err)
	assert.InDelta(t, 305.0, out.Bands["nir"][0][0], 1e-9)
}

func TestCompositeSkipsMaskedSamples(t *testing.T) {
	images := map[time.Time]*landsat.Image{
		day(2020, 1, 5): testImage(day(2020, 1, 5), math.NaN()),
		day(2020, 2, 5): testImage(day(2020, 2, 5), 0.7),
	}

	out, err := Composite(images, []string{"nir"}, index.Median)
	assert.Nil(t, err)
	assert.InDelta(t, 0.7, out.Bands["nir"][0][0], 1e-9)
}

func TestCompositeAllMaskedStaysNaN(t *testing.T) {
	images := map[time.Time]*landsat.Image{
		day(2020, 1, 5): testImage(day(2020, 1, 5), math.NaN()),
		day(2020, 2, 5): testImage(day(2020, 2, 5), math.NaN()),
	}

	out, err := Composite(images, []string{"nir"}, index.Median)
	assert.Nil(t, err)
	assert.True(t, math.IsNaN(out.Bands["nir"][0][0]))
}

func TestCompositeMismatchedSizes(t *testing.T) {
	images := map[time.Time]*landsat.Image{
		day(2020, 1, 5): testImage(day(2020, 1, 5), 0.1),
		day(2020, 2, 5): testImage(day(2020, 2, 5), 0.1, 0.2),
	}

	_, err := Composite(images, []string{"nir"}, index.Median)
	assert.NotNil(t, err)
}

func TestCompositeEmptyStack(t *testing.T) {
	_, err := Composite(map[time.Time]*landsat.Image{}, []string{"nir"}, index.Median)
	assert.NotNil(t, err)
}
