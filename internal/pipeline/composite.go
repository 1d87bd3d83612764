package pipeline

import (
	"errors"
	"math"
	"sort"
	"time"

	"github.com/terravista/terravista-research-poc/internal/index"
	"github.com/terravista/terravista-research-poc/internal/landsat"
	"github.com/terravista/terravista-research-poc/internal/utils"
)

// Composite collapses the per-window acquisition stack into one image,
// per pixel and per band, skipping masked (NaN) samples. Pixels with no valid
// sample in any acquisition stay NaN.
func Composite(images map[time.Time]*landsat.Image, bands []string, method index.CompositeMethod) (*landsat.Image, error) {
	if len(images) == 0 {
		return nil, errors.New("no images to composite")
	}

	dates := utils.GetSortedKeys(images, true)
	first := images[dates[0]]
	for _, date := range dates {
		if images[date].Width != first.Width || images[date].Height != first.Height {
			return nil, errors.New("different image size")
		}
	}

	out := &landsat.Image{
		Date:         dates[len(dates)-1],
		Width:        first.Width,
		Height:       first.Height,
		GeoTransform: first.GeoTransform,
		Bands:        make(map[string][][]float64, len(bands)),
	}

	samples := make([]float64, 0, len(dates))
	for _, name := range bands {
		grid := make([][]float64, first.Height)
		for y := 0; y < first.Height; y++ {
			grid[y] = make([]float64, first.Width)
			for x := 0; x < first.Width; x++ {
				samples = samples[:0]
				for _, date := range dates {
					band, ok := images[date].Bands[name]
					if !ok {
						continue
					}
					if v := band[y][x]; !math.IsNaN(v) {
						samples = append(samples, v)
					}
				}
				grid[y][x] = reduceSamples(samples, method)
			}
		}
		out.Bands[name] = grid
	}

	return out, nil
}

func reduceSamples(samples []float64, method index.CompositeMethod) float64 {
	if len(samples) == 0 {
		return math.NaN()
	}

	if method == index.Mean {
		sum := 0.0
		for _, v := range samples {
			sum += v
		}
		return sum / float64(len(samples))
	}

	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
