package landsat

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
)

func catalogFeature(datetime string) map[string]interface{} {
	return map[string]interface{}{
		"properties": map[string]interface{}{"datetime": datetime},
	}
}

func nextLink(token string) map[string]interface{} {
	return map[string]interface{}{
		"rel":  "next",
		"body": map[string]interface{}{"next": token},
	}
}

func newCatalogServer(t *testing.T, search http.HandlerFunc) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"access_token":"test-token","token_type":"Bearer"}`)
	})
	mux.HandleFunc("/search", search)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	t.Setenv("ROOT_PATH", t.TempDir())
	t.Setenv("PLATFORM_CLIENT_ID", "id")
	t.Setenv("PLATFORM_CLIENT_SECRET", "secret")
	t.Setenv("PLATFORM_TOKEN_URL", server.URL+"/token")
	t.Setenv("PLATFORM_CATALOG_URL", server.URL+"/search")
	return server
}

func searchGeometry() orb.Polygon {
	return orb.Polygon{{{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0, 0}}}
}

func TestSearchScenesFollowsNextLinks(t *testing.T) {
	var requests []map[string]interface{}
	newCatalogServer(t, func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]interface{}
		assert.Nil(t, json.NewDecoder(r.Body).Decode(&payload))
		requests = append(requests, payload)

		w.Header().Set("Content-Type", "application/json")
		if payload["next"] == nil {
			json.NewEncoder(w).Encode(map[string]interface{}{
				"features": []map[string]interface{}{
					catalogFeature("2020-06-01T10:00:00Z"),
					catalogFeature("2020-06-01T10:00:30Z"),
				},
				"links": []map[string]interface{}{nextLink("page-2")},
			})
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"features": []map[string]interface{}{
				catalogFeature("2020-07-17T10:00:00Z"),
			},
		})
	})

	days, err := SearchScenes(searchGeometry(),
		time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, time.August, 1, 0, 0, 0, 0, time.UTC))
	assert.Nil(t, err)

	// Both pages contribute; the duplicate timestamp collapses to one day.
	assert.Equal(t, []time.Time{
		time.Date(2020, time.June, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2020, time.July, 17, 0, 0, 0, 0, time.UTC),
	}, days)

	assert.Len(t, requests, 2)
	assert.Equal(t, "page-2", requests[1]["next"], "next-link body must carry into the follow-up request")
}

func TestSearchScenesRejectsTruncatedResult(t *testing.T) {
	newCatalogServer(t, func(w http.ResponseWriter, r *http.Request) {
		features := make([]map[string]interface{}, searchPageLimit)
		for i := range features {
			features[i] = catalogFeature("2020-06-01T10:00:00Z")
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{"features": features})
	})

	_, err := SearchScenes(searchGeometry(),
		time.Date(2018, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC))
	assert.NotNil(t, err, "a full page without a next link means dropped acquisitions")
	assert.Contains(t, err.Error(), "full page")
}
