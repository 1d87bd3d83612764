package index

import (
	"fmt"
	"math"

	"github.com/terravista/terravista-research-poc/internal/landsat"
)

type Kind string

const (
	NDVI Kind = "NDVI"
	EVI  Kind = "EVI"
	LST  Kind = "LST"
)

// CompositeMethod selects how the per-window acquisition stack collapses into
// one image: median for reflectance indices, mean for temperature.
type CompositeMethod string

const (
	Median CompositeMethod = "median"
	Mean   CompositeMethod = "mean"
)

// Strategy derives a single index band from a composited acquisition stack.
// The three variants share the whole surrounding workflow and differ only
// here.
type Strategy interface {
	Name() string
	Composite() CompositeMethod
	// Bands lists the composite bands the derivation reads.
	Bands() []string
	Derive(img *landsat.Image) ([][]float64, error)
}

func ForKind(kind Kind) (Strategy, error) {
	switch kind {
	case NDVI:
		return ndviStrategy{}, nil
	case EVI:
		return eviStrategy{}, nil
	case LST:
		return lstStrategy{}, nil
	default:
		return nil, fmt.Errorf("unknown index kind: %s", kind)
	}
}

func safeDivide(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

type ndviStrategy struct{}

func (ndviStrategy) Name() string               { return string(NDVI) }
func (ndviStrategy) Composite() CompositeMethod { return Median }
func (ndviStrategy) Bands() []string            { return []string{"red", "nir"} }

func (ndviStrategy) Derive(img *landsat.Image) ([][]float64, error) {
	red, nir := img.Bands["red"], img.Bands["nir"]
	if red == nil || nir == nil {
		return nil, fmt.Errorf("composite is missing red or nir band")
	}

	out := make([][]float64, img.Height)
	for y := 0; y < img.Height; y++ {
		out[y] = make([]float64, img.Width)
		for x := 0; x < img.Width; x++ {
			if math.IsNaN(nir[y][x]) || math.IsNaN(red[y][x]) {
				out[y][x] = math.NaN()
				continue
			}
			out[y][x] = safeDivide(nir[y][x]-red[y][x], nir[y][x]+red[y][x])
		}
	}
	return out, nil
}

type eviStrategy struct{}

func (eviStrategy) Name() string               { return string(EVI) }
func (eviStrategy) Composite() CompositeMethod { return Median }
func (eviStrategy) Bands() []string            { return []string{"blue", "red", "nir"} }

func (eviStrategy) Derive(img *landsat.Image) ([][]float64, error) {
	blue, red, nir := img.Bands["blue"], img.Bands["red"], img.Bands["nir"]
	if blue == nil || red == nil || nir == nil {
		return nil, fmt.Errorf("composite is missing blue, red or nir band")
	}

	out := make([][]float64, img.Height)
	for y := 0; y < img.Height; y++ {
		out[y] = make([]float64, img.Width)
		for x := 0; x < img.Width; x++ {
			b, r, n := blue[y][x], red[y][x], nir[y][x]
			if math.IsNaN(b) || math.IsNaN(r) || math.IsNaN(n) {
				out[y][x] = math.NaN()
				continue
			}
			value := 2.5 * safeDivide(n-r, n+6*r-7.5*b+1)
			// The raw formula can blow past the valid range over water and
			// saturated pixels; the published index is clamped to [-1, 1].
			out[y][x] = clamp(value, -1, 1)
		}
	}
	return out, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

type lstStrategy struct{}

func (lstStrategy) Name() string               { return string(LST) }
func (lstStrategy) Composite() CompositeMethod { return Mean }
func (lstStrategy) Bands() []string            { return []string{"lst"} }

// Derive converts the composited Kelvin band to Celsius. The split-window
// retrieval itself happened on the temperature service.
func (lstStrategy) Derive(img *landsat.Image) ([][]float64, error) {
	kelvin := img.Bands["lst"]
	if kelvin == nil {
		return nil, fmt.Errorf("composite is missing lst band")
	}

	out := make([][]float64, img.Height)
	for y := 0; y < img.Height; y++ {
		out[y] = make([]float64, img.Width)
		for x := 0; x < img.Width; x++ {
			if math.IsNaN(kelvin[y][x]) {
				out[y][x] = math.NaN()
				continue
			}
			out[y][x] = kelvin[y][x] - 273.15
		}
	}
	return out, nil
}
