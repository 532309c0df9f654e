package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pesansayur/storefront/internal/domain"
	"golang.org/x/time/rate"
)

const (
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"
	userAgent           = "pesan-sayur-storefront/1.0"
)

// Nominatim reverse-geocodes through OpenStreetMap. Requests are limited to one
// per second, as the public usage policy asks.
type Nominatim struct {
	baseURL string
	client  *http.Client
	limiter *rate.Limiter
}

func NewNominatim(baseURL string, client *http.Client) *Nominatim {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &Nominatim{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
	}
}

type nominatimResponse struct {
	DisplayName string `json:"display_name"`
}

func (n *Nominatim) Address(ctx context.Context, p domain.Point) (string, error) {
	if err := n.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("nominatim rate limit: %w", err)
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", coord(p.Lat))
	q.Set("lon", coord(p.Lng))
	q.Set("zoom", "18")
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("nominatim request: %w", err)
	}
	req.Header.Set("Accept-Language", "id")
	req.Header.Set("User-Agent", userAgent)

	resp, err := n.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("nominatim request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("nominatim status %d", resp.StatusCode)
	}

	var body nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("nominatim decode: %w", err)
	}
	if strings.TrimSpace(body.DisplayName) == "" {
		return "", ErrNoAddress
	}
	return body.DisplayName, nil
}
