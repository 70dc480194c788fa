// Package places реализует клиент Google Places API для поиска мест
// поблизости и обратного геокодирования. Вызовы внешнего API защищены
// автоматическим выключателем: после серии ошибок запросы ненадолго
// перестают уходить к провайдеру.
package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/magabrotheeeer/vivu-travel/internal/models"
)

const (
	nearbySearchPath = "/maps/api/place/nearbysearch/json"
	geocodePath      = "/maps/api/geocode/json"
)

// Client ищет места поблизости через Google Places API.
type Client struct {
	apiKey        string
	apiURL        string
	language      string
	defaultRadius int
	httpClient    *http.Client
	breaker       *gobreaker.CircuitBreaker[[]models.Place]
}

// NewClient создаёт клиент Places API. Пустой apiURL означает
// боевой адрес Google, таймаут задаётся конфигурацией.
func NewClient(apiKey, apiURL, language string, defaultRadius int, timeout time.Duration) *Client {
	if apiURL == "" {
		apiURL = "https://maps.googleapis.com"
	}
	if language == "" {
		language = "vi"
	}
	if defaultRadius <= 0 {
		defaultRadius = 10000
	}
	breaker := gobreaker.NewCircuitBreaker[[]models.Place](gobreaker.Settings{
		Name:        "google-places",
		MaxRequests: 2,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &Client{
		apiKey:        apiKey,
		apiURL:        apiURL,
		language:      language,
		defaultRadius: defaultRadius,
		httpClient:    &http.Client{Timeout: timeout},
		breaker:       breaker,
	}
}

type nearbyResponse struct {
	Status        string `json:"status"`
	ErrorMessage  string `json:"error_message"`
	NextPageToken string `json:"next_page_token"`
	Results       []struct {
		Name     string  `json:"name"`
		Vicinity string  `json:"vicinity"`
		Rating   float64 `json:"rating"`
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Google отдаёт не более 20 результатов на страницу и до 60 суммарно.
// Токен следующей страницы становится валидным с небольшой задержкой.
const maxNearbyPages = 3

// pageTokenDelay сокращается в тестах
var pageTokenDelay = 2 * time.Second

// SearchNearby ищет места около координат. Если задано ключевое слово,
// поиск идёт по нему, иначе по категории. Нулевой радиус заменяется
// радиусом по умолчанию. Постраничная выдача провайдера вычитывается
// целиком, до 60 результатов.
func (c *Client) SearchNearby(ctx context.Context, loc models.Location, category, keyword string, radius int) ([]models.Place, error) {
	const op = "places.Client.SearchNearby"

	if radius <= 0 {
		radius = c.defaultRadius
	}

	params := url.Values{}
	params.Set("location", fmt.Sprintf("%f,%f", loc.Lat, loc.Lng))
	params.Set("radius", fmt.Sprintf("%d", radius))
	params.Set("key", c.apiKey)
	params.Set("language", c.language)
	if keyword != "" {
		params.Set("keyword", keyword)
	} else {
		params.Set("type", category)
	}

	var all []models.Place
	for page := 0; page < maxNearbyPages; page++ {
		var nextToken string
		places, err := c.breaker.Execute(func() ([]models.Place, error) {
			res, token, err := c.doNearby(ctx, params)
			nextToken = token
			return res, err
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		all = append(all, places...)
		if nextToken == "" {
			break
		}
		params.Set("pagetoken", nextToken)
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(pageTokenDelay):
		}
	}
	return all, nil
}

func (c *Client) doNearby(ctx context.Context, params url.Values) ([]models.Place, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.apiURL+nearbySearchPath+"?"+params.Encode(), nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("unexpected status: %s", resp.Status)
	}

	var body nearbyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, "", err
	}
	if body.Status != "OK" && body.Status != "ZERO_RESULTS" {
		return nil, "", fmt.Errorf("places api error: %s %s", body.Status, body.ErrorMessage)
	}

	places := make([]models.Place, 0, len(body.Results))
	for _, r := range body.Results {
		places = append(places, models.Place{
			Name:     r.Name,
			Vicinity: r.Vicinity,
			Rating:   r.Rating,
			Lat:      r.Geometry.Location.Lat,
			Lng:      r.Geometry.Location.Lng,
			MapURL: fmt.Sprintf("https://www.google.com/maps/search/?api=1&query=%f,%f",
				r.Geometry.Location.Lat, r.Geometry.Location.Lng),
		})
	}
	return places, body.NextPageToken, nil
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
}

// ReverseGeocode возвращает адрес по координатам.
func (c *Client) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	const op = "places.Client.ReverseGeocode"

	params := url.Values{}
	params.Set("latlng", fmt.Sprintf("%f,%f", lat, lng))
	params.Set("key", c.apiKey)
	params.Set("language", c.language)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.apiURL+geocodePath+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	var body geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if body.Status != "OK" || len(body.Results) == 0 {
		return "", fmt.Errorf("%s: geocode error: %s", op, body.Status)
	}
	return body.Results[0].FormattedAddress, nil
}
