package landsat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"golang.org/x/oauth2/clientcredentials"
)

const metersPerDegree = 111_000.0

// nativeResolution is the Landsat spatial resolution in meters. Every request
// and reduction in this workflow runs at this fixed scale.
const nativeResolution = 30.0

func calculatePixels(distance float64, resolution float64) int {
	pixels := distance * (metersPerDegree / resolution)
	if pixels < 1 {
		return 1
	}
	return int(pixels)
}

func newPlatformClient() (*http.Client, error) {
	clientID := os.Getenv("PLATFORM_CLIENT_ID")
	clientSecret := os.Getenv("PLATFORM_CLIENT_SECRET")
	tokenURL := os.Getenv("PLATFORM_TOKEN_URL")

	if clientID == "" || clientSecret == "" || tokenURL == "" {
		return nil, fmt.Errorf("missing required environment variables: PLATFORM_CLIENT_ID, PLATFORM_CLIENT_SECRET, or PLATFORM_TOKEN_URL")
	}

	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     tokenURL,
	}
	return config.Client(context.Background()), nil
}

// requestStack asks the process API for a cloud-maskable Landsat Collection 2
// Level-2 band stack over the geometry and time range, returned as a FLOAT32
// GeoTIFF with surface-reflectance scale factors already applied.
func requestStack(startDate, endDate time.Time, geometry orb.Geometry) ([]byte, error) {
	startDateStr := startDate.Format(time.RFC3339)
	endDateStr := endDate.Format(time.RFC3339)

	bbox := geometry.Bound()

	widthPixels := calculatePixels(bbox.Max[0]-bbox.Min[0], nativeResolution)
	heightPixels := calculatePixels(bbox.Max[1]-bbox.Min[1], nativeResolution)
	// Clamp to allowed range (1-2500)
	if widthPixels > 2500 {
		widthPixels = 2500
	}
	if heightPixels > 2500 {
		heightPixels = 2500
	}

	evalscript := `
    //VERSION=3
    function setup() {
      return {
        input: ["SR_B2", "SR_B4", "SR_B5", "QA_PIXEL"],
        output: {
          id: "default",
          bands: 4,
          sampleType: SampleType.FLOAT32,
        },
      }
    }

    function evaluatePixel(sample) {
      // Collection 2 surface reflectance scaling; QA passes through raw.
      return [
        sample.SR_B2 * 0.0000275 - 0.2,
        sample.SR_B4 * 0.0000275 - 0.2,
        sample.SR_B5 * 0.0000275 - 0.2,
        sample.QA_PIXEL,
      ];
    }
  `

	geojsonMap, err := geometryToMap(geometry)
	if err != nil {
		return nil, err
	}

	requestPayload := map[string]interface{}{
		"input": map[string]interface{}{
			"bounds": map[string]interface{}{
				"geometry": geojsonMap,
			},
			"data": []map[string]interface{}{
				{
					"dataFilter": map[string]interface{}{
						"timeRange": map[string]string{
							"from": startDateStr,
							"to":   endDateStr,
						},
					},
					"type": "landsat-c2-l2",
				},
			},
		},
		"output": map[string]interface{}{
			"width":  widthPixels,
			"height": heightPixels,
			"responses": []map[string]interface{}{
				{
					"identifier": "default",
					"format": map[string]string{
						"type": "image/tiff",
					},
				},
			},
		},
		"evalscript": evalscript,
		"mosaicking": "mostRecent",
	}

	requestBody, err := json.Marshal(requestPayload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %v", err)
	}

	httpClient, err := newPlatformClient()
	if err != nil {
		return nil, err
	}

	url := os.Getenv("PLATFORM_PROCESS_URL")
	if url == "" {
		return nil, fmt.Errorf("missing required environment variable: PLATFORM_PROCESS_URL")
	}

	// Retry logic
	retries := 10
	var response *http.Response
	for attempt := 1; attempt <= retries; attempt++ {
		response, err = httpClient.Post(url, "application/json", bytes.NewBuffer(requestBody))
		if err == nil && response.StatusCode == http.StatusOK {
			break
		}

		if response != nil {
			body, _ := io.ReadAll(response.Body)
			bodyStr := string(body)
			response.Body.Close()
			response = nil
			if strings.Contains(bodyStr, "403") {
				return nil, fmt.Errorf("unauthorized access, check your client ID and secret")
			}
			if strings.Contains(bodyStr, "404") || strings.Contains(bodyStr, "No data found") {
				return nil, fmt.Errorf("image not found")
			}
			fmt.Printf("Attempt %d failed: %s\n", attempt, bodyStr)
		} else {
			fmt.Printf("Attempt %d failed: %v\n", attempt, err)
		}

		time.Sleep(5 * time.Second)
	}

	if response == nil {
		return nil, fmt.Errorf("failed to request image after %d attempts: %v", retries, err)
	}
	defer response.Body.Close()

	responseContent, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %v", err)
	}

	return responseContent, nil
}

func geometryToMap(geometry orb.Geometry) (map[string]interface{}, error) {
	raw, err := geojson.NewGeometry(geometry).MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to export geometry to GeoJSON: %w", err)
	}
	var geojsonMap map[string]interface{}
	if err := json.Unmarshal(raw, &geojsonMap); err != nil {
		return nil, fmt.Errorf("failed to parse GeoJSON: %w", err)
	}
	return geojsonMap, nil
}
