package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"pothole-service/models"
)

// Geocoder resolves a coordinate into structured address fields.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (models.PlaceInfo, error)
}

// NominatimClient is a reverse-geocoding client for a Nominatim-compatible
// endpoint.
type NominatimClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewNominatimClient creates a client against baseURL
// (e.g. https://nominatim.openstreetmap.org).
func NewNominatimClient(baseURL string, timeout time.Duration) *NominatimClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NominatimClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type nominatimResponse struct {
	Address struct {
		Road        string `json:"road"`
		Pedestrian  string `json:"pedestrian"`
		City        string `json:"city"`
		Town        string `json:"town"`
		Village     string `json:"village"`
		State       string `json:"state"`
		Region      string `json:"region"`
		Country     string `json:"country"`
	} `json:"address"`
	Error string `json:"error"`
}

// ReverseGeocode performs one reverse lookup.
func (c *NominatimClient) ReverseGeocode(ctx context.Context, lat, lon float64) (models.PlaceInfo, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("lat", fmt.Sprintf("%.6f", lat))
	q.Set("lon", fmt.Sprintf("%.6f", lon))

	reqURL := fmt.Sprintf("%s/reverse?%s", c.baseURL, q.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return models.PlaceInfo{}, fmt.Errorf("creating geocode request: %w", err)
	}
	// Nominatim's usage policy requires an identifying user agent.
	req.Header.Set("User-Agent", "pothole-service/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return models.PlaceInfo{}, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.PlaceInfo{}, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var body nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return models.PlaceInfo{}, fmt.Errorf("decoding geocode response: %w", err)
	}
	if body.Error != "" {
		return models.PlaceInfo{}, fmt.Errorf("geocoder error: %s", body.Error)
	}

	place := models.UnknownPlace()
	if s := firstNonEmpty(body.Address.Road, body.Address.Pedestrian); s != "" {
		place.Street = s
	}
	if s := firstNonEmpty(body.Address.City, body.Address.Town, body.Address.Village); s != "" {
		place.City = s
	}
	if s := firstNonEmpty(body.Address.State, body.Address.Region); s != "" {
		place.Region = s
	}
	if body.Address.Country != "" {
		place.Country = body.Address.Country
	}
	return place, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
