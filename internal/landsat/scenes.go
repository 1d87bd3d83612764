package landsat

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/paulmach/orb"
	"github.com/terravista/terravista-research-poc/internal/cache"
	"github.com/terravista/terravista-research-poc/internal/utils"
)

// searchPageLimit is the per-page feature cap of the catalog; multi-year
// ranges routinely exceed it and continue through next links.
const searchPageLimit = 500

// maxCatalogPages bounds the pagination loop against a catalog that keeps
// handing out next links.
const maxCatalogPages = 50

type sceneSearchResponse struct {
	Features []struct {
		Properties struct {
			Datetime string `json:"datetime"`
		} `json:"properties"`
	} `json:"features"`
	Links []struct {
		Rel  string                 `json:"rel"`
		Body map[string]interface{} `json:"body"`
	} `json:"links"`
}

func (r sceneSearchResponse) nextPageBody() map[string]interface{} {
	for _, link := range r.Links {
		if link.Rel == "next" {
			return link.Body
		}
	}
	return nil
}

// SearchScenes lists the acquisition days of scenes intersecting the geometry
// within [startDate, endDate), ascending and deduplicated to calendar days.
// Responses are cached for a day so repeated runs over the same window do not
// hit the catalog again.
func SearchScenes(geometry orb.Geometry, startDate, endDate time.Time) ([]time.Time, error) {
	sceneCache := cache.NewFileCacheTTL[[]string]("catalog", 24*time.Hour)
	bbox := geometry.Bound()
	cacheKey := sceneCache.GenerateKey(
		bbox.Min[0], bbox.Min[1], bbox.Max[0], bbox.Max[1],
		startDate.Format("2006-01-02"), endDate.Format("2006-01-02"),
	)

	if cached, ok := sceneCache.Get(cacheKey); ok {
		return parseAcquisitionDays(cached)
	}

	catalogURL := os.Getenv("PLATFORM_CATALOG_URL")
	if catalogURL == "" {
		return nil, fmt.Errorf("missing required environment variable: PLATFORM_CATALOG_URL")
	}

	payload := map[string]interface{}{
		"bbox":        []float64{bbox.Min[0], bbox.Min[1], bbox.Max[0], bbox.Max[1]},
		"datetime":    fmt.Sprintf("%s/%s", startDate.Format(time.RFC3339), endDate.Format(time.RFC3339)),
		"collections": []string{"landsat-c2-l2"},
		"limit":       searchPageLimit,
	}

	httpClient, err := newPlatformClient()
	if err != nil {
		return nil, err
	}

	var raw []string
	for page := 1; ; page++ {
		if page > maxCatalogPages {
			return nil, fmt.Errorf("catalog search did not terminate after %d pages", maxCatalogPages)
		}

		parsed, err := searchCatalogPage(httpClient, catalogURL, payload)
		if err != nil {
			return nil, err
		}
		for _, feature := range parsed.Features {
			raw = append(raw, feature.Properties.Datetime)
		}

		next := parsed.nextPageBody()
		if next == nil {
			// A full page with no next link means the catalog truncated the
			// result; dropped acquisitions would silently thin composites.
			if len(parsed.Features) == searchPageLimit {
				return nil, fmt.Errorf("catalog returned a full page of %d features without a next link", searchPageLimit)
			}
			break
		}
		for k, v := range next {
			payload[k] = v
		}
	}

	if err := sceneCache.Set(cacheKey, raw); err != nil {
		fmt.Printf("Warning: failed to cache catalog response: %v\n", err)
	}

	return parseAcquisitionDays(raw)
}

func searchCatalogPage(httpClient *http.Client, catalogURL string, payload map[string]interface{}) (*sceneSearchResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal catalog request: %v", err)
	}

	resp, err := httpClient.Post(catalogURL, "application/json", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("catalog search failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("catalog search returned status %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed sceneSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse catalog response: %v", err)
	}
	return &parsed, nil
}

func parseAcquisitionDays(timestamps []string) ([]time.Time, error) {
	seen := make(map[time.Time]struct{})
	for _, ts := range timestamps {
		parsed, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			return nil, fmt.Errorf("failed to parse acquisition timestamp %q: %v", ts, err)
		}
		day := time.Date(parsed.Year(), parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.UTC)
		seen[day] = struct{}{}
	}

	days := make([]time.Time, 0, len(seen))
	for day := range seen {
		days = append(days, day)
	}
	return utils.SortDates(days, true), nil
}
