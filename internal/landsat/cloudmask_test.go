package landsat

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsClear(t *testing.T) {
	assert.True(t, IsClear(0))
	// Snow (bit 5) and water (bit 7) are not rejected by this workflow.
	assert.True(t, IsClear(1<<5))
	assert.True(t, IsClear(1<<7))

	assert.False(t, IsClear(qaFill))
	assert.False(t, IsClear(qaDilatedCloud))
	assert.False(t, IsClear(qaCirrus))
	assert.False(t, IsClear(qaCloud))
	assert.False(t, IsClear(qaCloudShadow))
	assert.False(t, IsClear(math.NaN()))
}

func maskTestImage(qa []float64) *Image {
	width := len(qa)
	reflectance := make([]float64, width)
	for i := range reflectance {
		reflectance[i] = 0.5
	}
	return &Image{
		Width:  width,
		Height: 1,
		Bands: map[string][][]float64{
			"blue": {append([]float64(nil), reflectance...)},
			"red":  {append([]float64(nil), reflectance...)},
			"nir":  {append([]float64(nil), reflectance...)},
			"qa":   {qa},
		},
	}
}

func TestApplyCloudMask(t *testing.T) {
	img := maskTestImage([]float64{0, qaCloud, qaCloudShadow, 0})

	clear := ApplyCloudMask(img)
	assert.Equal(t, 2, clear)

	for _, band := range []string{"blue", "red", "nir"} {
		assert.False(t, math.IsNaN(img.Bands[band][0][0]))
		assert.True(t, math.IsNaN(img.Bands[band][0][1]))
		assert.True(t, math.IsNaN(img.Bands[band][0][2]))
		assert.False(t, math.IsNaN(img.Bands[band][0][3]))
	}
}

func TestApplyCloudMaskFullyMasked(t *testing.T) {
	img := maskTestImage([]float64{qaCloud, qaFill})

	clear := ApplyCloudMask(img)
	assert.Equal(t, 0, clear, "a fully masked acquisition contributes nothing")
}
