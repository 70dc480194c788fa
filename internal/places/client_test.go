package places

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/vivu-travel/internal/models"
)

func nearbyBody(names ...string) map[string]any {
	results := make([]map[string]any, 0, len(names))
	for _, name := range names {
		results = append(results, map[string]any{
			"name":     name,
			"vicinity": "Hải Châu, Đà Nẵng",
			"rating":   4.5,
			"geometry": map[string]any{
				"location": map[string]any{"lat": 16.06, "lng": 108.22},
			},
		})
	}
	return map[string]any{"status": "OK", "results": results}
}

func TestSearchNearby(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, nearbySearchPath, r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "vi", q.Get("language"))
		assert.Equal(t, "10000", q.Get("radius"))
		assert.Equal(t, "pho", q.Get("keyword"))
		assert.Empty(t, q.Get("type"), "keyword search does not send type")
		_ = json.NewEncoder(w).Encode(nearbyBody("Phở Bắc Hải", "Phở 29"))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, "vi", 10000, 5*time.Second)
	places, err := client.SearchNearby(context.Background(),
		models.Location{Lat: 16.06, Lng: 108.22}, "restaurant", "pho", 0)
	require.NoError(t, err)
	require.Len(t, places, 2)
	assert.Equal(t, "Phở Bắc Hải", places[0].Name)
	assert.Contains(t, places[0].MapURL, "google.com/maps")
}

func TestSearchNearbyFollowsPages(t *testing.T) {
	oldDelay := pageTokenDelay
	pageTokenDelay = time.Millisecond
	defer func() { pageTokenDelay = oldDelay }()

	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		switch r.URL.Query().Get("pagetoken") {
		case "":
			body := nearbyBody("Phở Bắc Hải")
			body["next_page_token"] = "page-2"
			_ = json.NewEncoder(w).Encode(body)
		case "page-2":
			_ = json.NewEncoder(w).Encode(nearbyBody("Phở 29"))
		default:
			t.Errorf("unexpected page token %q", r.URL.Query().Get("pagetoken"))
		}
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, "vi", 10000, 5*time.Second)
	places, err := client.SearchNearby(context.Background(),
		models.Location{Lat: 16.06, Lng: 108.22}, "restaurant", "pho", 0)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, places, 2)
	assert.Equal(t, "Phở Bắc Hải", places[0].Name)
	assert.Equal(t, "Phở 29", places[1].Name)
}

func TestSearchNearbyByCategory(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "cafe", q.Get("type"))
		assert.Empty(t, q.Get("keyword"))
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "ZERO_RESULTS"})
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, "vi", 10000, 5*time.Second)
	places, err := client.SearchNearby(context.Background(),
		models.Location{Lat: 16.06, Lng: 108.22}, "cafe", "", 500)
	require.NoError(t, err)
	assert.Empty(t, places)
}

func TestSearchNearbyAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "REQUEST_DENIED", "error_message": "bad key",
		})
	}))
	defer server.Close()

	client := NewClient("bad-key", server.URL, "vi", 10000, 5*time.Second)
	_, err := client.SearchNearby(context.Background(),
		models.Location{Lat: 16.06, Lng: 108.22}, "restaurant", "", 0)
	assert.ErrorContains(t, err, "REQUEST_DENIED")
}

func TestSearchNearbyCircuitBreakerOpens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, "vi", 10000, 5*time.Second)
	loc := models.Location{Lat: 16.06, Lng: 108.22}

	for range 5 {
		_, err := client.SearchNearby(context.Background(), loc, "restaurant", "", 0)
		require.Error(t, err)
	}

	// После пяти ошибок подряд выключатель открыт и запрос не уходит
	_, err := client.SearchNearby(context.Background(), loc, "restaurant", "", 0)
	assert.ErrorContains(t, err, "circuit breaker is open")
}

func TestReverseGeocode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, geocodePath, r.URL.Path)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "OK",
			"results": []map[string]any{
				{"formatted_address": "Đà Nẵng, Việt Nam"},
			},
		})
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, "vi", 10000, 5*time.Second)
	addr, err := client.ReverseGeocode(context.Background(), 16.06, 108.22)
	require.NoError(t, err)
	assert.Equal(t, "Đà Nẵng, Việt Nam", addr)
}
