// Package lst talks to the external split-window land-surface-temperature
// service. The retrieval itself (brightness temperatures, emissivity, optional
// NDVI correction) happens entirely on the service side; this workflow only
// sees Kelvin rasters per acquisition.
package lst

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/terravista/terravista-research-poc/internal/cache"
	"github.com/terravista/terravista-research-poc/internal/landsat"
	"github.com/terravista/terravista-research-poc/internal/properties"
	"golang.org/x/sync/errgroup"
)

// KelvinBand is the single band name of every raster the service returns.
const KelvinBand = "lst"

type acquisition struct {
	Datetime string `json:"datetime"`
	URL      string `json:"url"`
}

type retrieveResponse struct {
	Acquisitions []acquisition `json:"acquisitions"`
}

// Retrieve asks the temperature service for per-acquisition Kelvin rasters
// over the geometry and window. sat selects the sensor ("L8", "L9"); useNDVI
// enables the service's NDVI-based emissivity correction. The acquisition
// listing is cached; rasters are kept on disk like any other imagery.
func Retrieve(geometry orb.Geometry, region string, startDate, endDate time.Time, sat string, useNDVI bool) (map[time.Time]*landsat.Image, error) {
	serviceURL := os.Getenv("LST_SERVICE_URL")
	if serviceURL == "" {
		return nil, fmt.Errorf("missing required environment variable: LST_SERVICE_URL")
	}

	listing, err := listAcquisitions(serviceURL, geometry, startDate, endDate, sat, useNDVI)
	if err != nil {
		return nil, err
	}

	imageDir := filepath.Join(properties.RootPath(), "data", "images", "lst_"+region)
	if err := os.MkdirAll(imageDir, os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create images directory: %v", err)
	}

	var (
		mu     sync.Mutex
		images = make(map[time.Time]*landsat.Image)
	)

	g := errgroup.Group{}
	g.SetLimit(4)

	for _, acquired := range listing {
		acquired := acquired
		g.Go(func() error {
			parsed, err := time.Parse(time.RFC3339, acquired.Datetime)
			if err != nil {
				return fmt.Errorf("failed to parse acquisition timestamp %q: %v", acquired.Datetime, err)
			}
			day := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)

			fileName := filepath.Join(imageDir, fmt.Sprintf("lst_%s_%s.tif", region, day.Format("2006-01-02")))
			if _, err := os.Stat(fileName); os.IsNotExist(err) {
				if err := downloadRaster(acquired.URL, fileName); err != nil {
					return err
				}
			}

			img, err := landsat.DecodeStack(fileName, []string{KelvinBand}, day)
			if err != nil {
				return err
			}

			mu.Lock()
			images[day] = img
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return images, nil
}

func listAcquisitions(serviceURL string, geometry orb.Geometry, startDate, endDate time.Time, sat string, useNDVI bool) ([]acquisition, error) {
	listingCache := cache.NewFileCacheTTL[[]acquisition]("lst", 24*time.Hour)
	bbox := geometry.Bound()
	cacheKey := listingCache.GenerateKey(
		bbox.Min[0], bbox.Min[1], bbox.Max[0], bbox.Max[1],
		startDate.Format("2006-01-02"), endDate.Format("2006-01-02"), sat, useNDVI,
	)
	if cached, ok := listingCache.Get(cacheKey); ok {
		return cached, nil
	}

	geomJSON, err := geojson.NewGeometry(geometry).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to export geometry to GeoJSON: %w", err)
	}

	payload := map[string]interface{}{
		"geometry":        json.RawMessage(geomJSON),
		"from":            startDate.Format(time.RFC3339),
		"to":              endDate.Format(time.RFC3339),
		"satellite":       sat,
		"ndvi_emissivity": useNDVI,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal retrieval request: %v", err)
	}

	retries := 3
	var resp *http.Response
	for attempt := 1; attempt <= retries; attempt++ {
		resp, err = http.Post(serviceURL+"/v1/retrieve", "application/json", bytes.NewBuffer(body))
		if err == nil && resp.StatusCode == http.StatusOK {
			break
		}
		if resp != nil {
			respBody, _ := io.ReadAll(resp.Body)
			resp.Body.Close()
			resp = nil
			fmt.Printf("Attempt %d failed: %s\n", attempt, string(respBody))
		} else {
			fmt.Printf("Attempt %d failed: %v\n", attempt, err)
		}
		time.Sleep(5 * time.Second)
	}
	if resp == nil {
		return nil, fmt.Errorf("temperature retrieval failed after %d attempts: %v", retries, err)
	}
	defer resp.Body.Close()

	var parsed retrieveResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse retrieval response: %v", err)
	}

	if err := listingCache.Set(cacheKey, parsed.Acquisitions); err != nil {
		fmt.Printf("Warning: failed to cache retrieval listing: %v\n", err)
	}

	return parsed.Acquisitions, nil
}

func downloadRaster(url, fileName string) error {
	resp, err := http.Get(url)
	if err != nil {
		return fmt.Errorf("failed to download %s: %v", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read raster body: %v", err)
	}
	return os.WriteFile(fileName, data, 0644)
}
