package landsat

import (
	"fmt"
	"math"
	"time"

	"github.com/airbusgeo/godal"
	"github.com/paulmach/orb"
	"github.com/terravista/terravista-research-poc/internal/roi"
)

// StackBands is the band order of every stack returned by the process API:
// blue and red reflectance, near infrared, and the QA bitmask.
var StackBands = []string{"blue", "red", "nir", "qa"}

// Image is one decoded acquisition: named band grids indexed [row][col] plus
// the georeferencing needed to map pixels back to lon/lat.
type Image struct {
	Date         time.Time
	Width        int
	Height       int
	GeoTransform [6]float64
	Bands        map[string][][]float64
}

// PixelCenter returns the geographic center of pixel (x, y).
func (img *Image) PixelCenter(x, y int) orb.Point {
	lon := img.GeoTransform[0] + (float64(x)+0.5)*img.GeoTransform[1]
	lat := img.GeoTransform[3] + (float64(y)+0.5)*img.GeoTransform[5]
	return orb.Point{lon, lat}
}

// Resolution returns the pixel size in meters, derived from the degree-based
// geotransform with the same flat conversion used when sizing requests.
func (img *Image) Resolution() float64 {
	return math.Abs(img.GeoTransform[1]) * metersPerDegree
}

// Clip sets every pixel of the band whose center falls outside the geometry
// to NaN. Statistics later in the workflow only ever see pixels inside the
// region of interest.
func (img *Image) Clip(band string, geom orb.Geometry) {
	grid, ok := img.Bands[band]
	if !ok {
		return
	}
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			if !roi.Contains(geom, img.PixelCenter(x, y)) {
				grid[y][x] = math.NaN()
			}
		}
	}
}

// DecodeStack opens a GeoTIFF and reads its bands into float64 grids under
// the given names, in file band order.
func DecodeStack(path string, bandNames []string, date time.Time) (*Image, error) {
	ds, err := godal.Open(path, godal.ErrLogger(func(ec godal.ErrorCategory, code int, msg string) error {
		if ec == godal.CE_Warning {
			return nil
		}
		return fmt.Errorf("%s", msg)
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %v", path, err)
	}
	defer ds.Close()

	width := ds.Structure().SizeX
	height := ds.Structure().SizeY

	geoTransform, err := ds.GeoTransform()
	if err != nil {
		return nil, fmt.Errorf("failed to read geotransform of %s: %v", path, err)
	}

	bands := ds.Bands()
	if len(bands) < len(bandNames) {
		return nil, fmt.Errorf("%s has %d bands, expected %d", path, len(bands), len(bandNames))
	}

	img := &Image{
		Date:         date,
		Width:        width,
		Height:       height,
		GeoTransform: geoTransform,
		Bands:        make(map[string][][]float64, len(bandNames)),
	}

	for i, name := range bandNames {
		band := bands[i]
		data := make([][]float64, height)
		for y := 0; y < height; y++ {
			data[y] = make([]float64, width)
			if err := band.Read(0, y, data[y], width, 1); err != nil {
				return nil, fmt.Errorf("failed to read band %s of %s: %w", name, path, err)
			}
		}
		img.Bands[name] = data
	}

	return img, nil
}

// WriteGeoTIFF saves a single band grid as a Float64 GeoTIFF, keeping the
// source georeferencing. Staged exports use this to make the derived index
// raster available after the run.
func WriteGeoTIFF(path string, grid [][]float64, geoTransform [6]float64) error {
	height := len(grid)
	if height == 0 {
		return fmt.Errorf("empty grid")
	}
	width := len(grid[0])

	ds, err := godal.Create(godal.GTiff, path, 1, godal.Float64, width, height)
	if err != nil {
		return fmt.Errorf("failed to create %s: %v", path, err)
	}

	if err := ds.SetGeoTransform(geoTransform); err != nil {
		ds.Close()
		return fmt.Errorf("failed to set geotransform: %v", err)
	}

	band := ds.Bands()[0]
	for y := 0; y < height; y++ {
		if err := band.Write(0, y, grid[y], width, 1); err != nil {
			ds.Close()
			return fmt.Errorf("failed to write row %d: %v", y, err)
		}
	}

	return ds.Close()
}
