package report

import (
	"fmt"
	"math"

	"github.com/fogleman/gg"
	"github.com/terravista/terravista-research-poc/internal/landsat"
	"github.com/terravista/terravista-research-poc/internal/properties"
)

// maxLayerWidth caps quick-look layers; exports render at native size.
const maxLayerWidth = 1024

// RenderLayer writes the index band as a PNG using the fixed palette and
// stretch for that index. Masked pixels stay transparent. Display only; the
// stretch never affects computed statistics.
func RenderLayer(img *landsat.Image, band string, outPath string) error {
	return renderBand(img, band, outPath, maxLayerWidth)
}

func renderBand(img *landsat.Image, band string, outPath string, maxWidth int) error {
	grid, ok := img.Bands[band]
	if !ok {
		return fmt.Errorf("image has no band %q", band)
	}

	palette, ok := properties.Palettes[band]
	if !ok {
		return fmt.Errorf("no palette configured for %q", band)
	}

	step := 1
	if maxWidth > 0 && img.Width > maxWidth {
		step = (img.Width + maxWidth - 1) / maxWidth
	}
	outWidth := (img.Width + step - 1) / step
	outHeight := (img.Height + step - 1) / step

	dc := gg.NewContext(outWidth, outHeight)
	for y := 0; y < outHeight; y++ {
		for x := 0; x < outWidth; x++ {
			value := grid[y*step][x*step]
			if math.IsNaN(value) {
				continue
			}
			r, g, b := rampColor(palette, value)
			dc.SetRGB255(int(r), int(g), int(b))
			dc.SetPixel(x, y)
		}
	}

	if err := dc.SavePNG(outPath); err != nil {
		return fmt.Errorf("failed to save layer image: %v", err)
	}
	return nil
}

// rampColor maps a value onto the palette by linear interpolation between
// stops after applying the fixed stretch.
func rampColor(palette properties.Palette, value float64) (uint8, uint8, uint8) {
	t := (value - palette.Min) / (palette.Max - palette.Min)
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}

	scaled := t * float64(len(palette.Stops)-1)
	i := int(scaled)
	if i >= len(palette.Stops)-1 {
		last := palette.Stops[len(palette.Stops)-1]
		return last.R, last.G, last.B
	}
	frac := scaled - float64(i)
	a, b := palette.Stops[i], palette.Stops[i+1]
	return uint8(float64(a.R) + frac*float64(int(b.R)-int(a.R))),
		uint8(float64(a.G) + frac*float64(int(b.G)-int(a.G))),
		uint8(float64(a.B) + frac*float64(int(b.B)-int(a.B)))
}
