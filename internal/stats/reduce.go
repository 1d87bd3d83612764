package stats

import (
	"errors"
	"fmt"
	"math"

	montanaflynn "github.com/montanaflynn/stats"
	"github.com/paulmach/orb"
	"github.com/terravista/terravista-research-poc/internal/landsat"
	"github.com/terravista/terravista-research-poc/internal/roi"
)

const metersPerDegree = 111_000.0

// ErrResourceLimit is returned when a reduction would scan more pixels than
// the configured ceiling. The reduction fails outright; it never truncates.
var ErrResourceLimit = errors.New("reduction exceeds the maximum pixel count")

// Summary holds the three statistics every reduction in this workflow
// produces from a single scan of its input pixels.
type Summary struct {
	Min   float64
	Max   float64
	Mean  float64
	Count int
}

// RegionRecord is the per-year statistics row for the region of interest.
type RegionRecord struct {
	Index string  `csv:"index"`
	Year  int     `csv:"year"`
	Label string  `csv:"label"`
	Min   float64 `csv:"min"`
	Max   float64 `csv:"max"`
	Mean  float64 `csv:"mean"`
}

// SiteRecord carries a site's statistics for one year. Identity is the site's
// "name" property and nothing else from the input feature survives.
type SiteRecord struct {
	Name string
	Year int
	Min  float64
	Max  float64
	Mean float64
}

// Fields renders the record as the exact output shape of the workflow:
// {name, year, <index>_min, <index>_max, <index>_mean}.
func (r SiteRecord) Fields(indexName string) map[string]interface{} {
	return map[string]interface{}{
		"name":              r.Name,
		"year":              r.Year,
		indexName + "_min":  r.Min,
		indexName + "_max":  r.Max,
		indexName + "_mean": r.Mean,
	}
}

// Combined reduces one band of the image over a geometry at the given scale
// (meters), computing min, max and mean from a single pass over the pixels
// whose centers fall inside the geometry. A Count of zero means the geometry
// covered no valid pixels.
func Combined(img *landsat.Image, band string, geom orb.Geometry, scale float64, maxPixels int) (Summary, error) {
	grid, ok := img.Bands[band]
	if !ok {
		return Summary{}, fmt.Errorf("image has no band %q", band)
	}

	bbox := geom.Bound()
	if err := checkPixelBudget(bbox, scale, maxPixels); err != nil {
		return Summary{}, err
	}

	x0, y0, x1, y1 := pixelWindow(img, bbox)

	samples := make([]float64, 0, (x1-x0+1)*(y1-y0+1))
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			value := grid[y][x]
			if math.IsNaN(value) {
				continue
			}
			if !roi.Contains(geom, img.PixelCenter(x, y)) {
				continue
			}
			samples = append(samples, value)
		}
	}

	if len(samples) == 0 {
		return Summary{}, nil
	}

	min, err := montanaflynn.Min(samples)
	if err != nil {
		return Summary{}, err
	}
	max, err := montanaflynn.Max(samples)
	if err != nil {
		return Summary{}, err
	}
	mean, err := montanaflynn.Mean(samples)
	if err != nil {
		return Summary{}, err
	}

	return Summary{Min: min, Max: max, Mean: mean, Count: len(samples)}, nil
}

// PerSite buffers each site point and applies the identical combined reducer
// to the buffered disk. Sites whose buffer covers no valid pixel are skipped
// with a diagnostic instead of producing an empty record.
func PerSite(img *landsat.Image, band string, sites []roi.Site, bufferMeters float64, scale float64, maxPixels int, year int) ([]SiteRecord, error) {
	var records []SiteRecord
	for _, site := range sites {
		buffered := roi.BufferPoint(site.Point, bufferMeters)
		summary, err := Combined(img, band, buffered, scale, maxPixels)
		if err != nil {
			return nil, fmt.Errorf("site %q: %w", site.Name, err)
		}
		if summary.Count == 0 {
			fmt.Printf("Site %q has no valid pixels for %d, skipping\n", site.Name, year)
			continue
		}
		records = append(records, SiteRecord{
			Name: site.Name,
			Year: year,
			Min:  summary.Min,
			Max:  summary.Max,
			Mean: summary.Mean,
		})
	}
	return records, nil
}

func checkPixelBudget(bbox orb.Bound, scale float64, maxPixels int) error {
	widthMeters := (bbox.Max[0] - bbox.Min[0]) * metersPerDegree
	heightMeters := (bbox.Max[1] - bbox.Min[1]) * metersPerDegree
	requested := int(math.Ceil(widthMeters/scale)) * int(math.Ceil(heightMeters/scale))
	if maxPixels > 0 && requested > maxPixels {
		return fmt.Errorf("%w: %d pixels requested at %gm scale, ceiling is %d", ErrResourceLimit, requested, scale, maxPixels)
	}
	return nil
}

// pixelWindow clamps the geometry's bounding box to the image grid.
func pixelWindow(img *landsat.Image, bbox orb.Bound) (x0, y0, x1, y1 int) {
	gt := img.GeoTransform
	x0 = int(math.Floor((bbox.Min[0] - gt[0]) / gt[1]))
	x1 = int(math.Ceil((bbox.Max[0] - gt[0]) / gt[1]))
	// gt[5] is negative for north-up rasters; the max latitude maps to the
	// smallest row index.
	y0 = int(math.Floor((bbox.Max[1] - gt[3]) / gt[5]))
	y1 = int(math.Ceil((bbox.Min[1] - gt[3]) / gt[5]))

	x0 = clampInt(x0, 0, img.Width-1)
	x1 = clampInt(x1, 0, img.Width-1)
	y0 = clampInt(y0, 0, img.Height-1)
	y1 = clampInt(y1, 0, img.Height-1)
	return x0, y0, x1, y1
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
