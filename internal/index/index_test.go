package index

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/terravista/terravista-research-poc/internal/landsat"
)

func imageWithBands(bands map[string][]float64) *landsat.Image {
	width := 0
	wrapped := make(map[string][][]float64, len(bands))
	for name, values := range bands {
		width = len(values)
		wrapped[name] = [][]float64{values}
	}
	return &landsat.Image{
		Width:  width,
		Height: 1,
		Bands:  wrapped,
	}
}

func TestForKind(t *testing.T) {
	for _, kind := range []Kind{NDVI, EVI, LST} {
		strategy, err := ForKind(kind)
		assert.Nil(t, err)
		assert.Equal(t, string(kind), strategy.Name())
	}

	_, err := ForKind(Kind("NDWI"))
	assert.NotNil(t, err)
}

func TestCompositeMethods(t *testing.T) {
	ndvi, _ := ForKind(NDVI)
	evi, _ := ForKind(EVI)
	lst, _ := ForKind(LST)

	assert.Equal(t, Median, ndvi.Composite())
	assert.Equal(t, Median, evi.Composite())
	assert.Equal(t, Mean, lst.Composite())
}

func TestNDVIDerive(t *testing.T) {
	strategy, _ := ForKind(NDVI)
	img := imageWithBands(map[string][]float64{
		"red": {0.1, 0.0, 0.5},
		"nir": {0.5, 0.0, 0.5},
	})

	out, err := strategy.Derive(img)
	assert.Nil(t, err)
	assert.InDelta(t, (0.5-0.1)/(0.5+0.1), out[0][0], 1e-9)
	// Zero denominator yields 0, not a divide-by-zero artifact.
	assert.Equal(t, 0.0, out[0][1])
	assert.Equal(t, 0.0, out[0][2])

	for _, v := range out[0] {
		assert.GreaterOrEqual(t, v, -1.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestNDVIDerivePropagatesMask(t *testing.T) {
	strategy, _ := ForKind(NDVI)
	img := imageWithBands(map[string][]float64{
		"red": {math.NaN()},
		"nir": {0.5},
	})

	out, err := strategy.Derive(img)
	assert.Nil(t, err)
	assert.True(t, math.IsNaN(out[0][0]))
}

func TestEVIDeriveClamps(t *testing.T) {
	strategy, _ := ForKind(EVI)
	img := imageWithBands(map[string][]float64{
		// Raw formula gives 2.0 for the first pixel and -2.0 for the second;
		// both must come out clamped.
		"blue": {0.3, 0.7, 0.0},
		"red":  {0.2, 0.8, 0.0},
		"nir":  {0.8, 0.2, 0.0},
	})

	out, err := strategy.Derive(img)
	assert.Nil(t, err)
	assert.Equal(t, 1.0, out[0][0])
	assert.Equal(t, -1.0, out[0][1])
	// All-zero reflectance must not produce an unclamped artifact.
	assert.Equal(t, 0.0, out[0][2])

	for _, v := range out[0] {
		assert.GreaterOrEqual(t, v, -1.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestLSTDeriveKelvinToCelsius(t *testing.T) {
	strategy, _ := ForKind(LST)
	img := imageWithBands(map[string][]float64{
		"lst": {273.15, 300.0, 310.65},
	})

	out, err := strategy.Derive(img)
	assert.Nil(t, err)
	assert.Equal(t, 0.0, out[0][0])
	assert.Equal(t, 300.0-273.15, out[0][1])
	assert.Equal(t, 310.65-273.15, out[0][2])
}

func TestDeriveMissingBand(t *testing.T) {
	for _, kind := range []Kind{NDVI, EVI, LST} {
		strategy, _ := ForKind(kind)
		_, err := strategy.Derive(imageWithBands(map[string][]float64{"qa": {0}}))
		assert.NotNil(t, err)
	}
}
