package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/pesansayur/storefront/internal/domain"
	"github.com/pesansayur/storefront/pkg/circuitbreaker"
)

const DefaultOSRMURL = "https://router.project-osrm.org"

// OSRMRouter measures the driving distance over the road network.
type OSRMRouter struct {
	baseURL string
	client  *http.Client
	breaker *circuitbreaker.Breaker
}

func NewOSRMRouter(baseURL string, client *http.Client, breaker *circuitbreaker.Breaker) *OSRMRouter {
	if baseURL == "" {
		baseURL = DefaultOSRMURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &OSRMRouter{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		breaker: breaker,
	}
}

type osrmResponse struct {
	Code   string `json:"code"`
	Routes []struct {
		Distance float64 `json:"distance"`
	} `json:"routes"`
}

func (o *OSRMRouter) Distance(ctx context.Context, from, to domain.Point) (float64, error) {
	var km float64
	call := func() error {
		var err error
		km, err = o.route(ctx, from, to)
		return err
	}
	if o.breaker != nil {
		return km, o.breaker.Execute(call)
	}
	return km, call()
}

func (o *OSRMRouter) route(ctx context.Context, from, to domain.Point) (float64, error) {
	url := fmt.Sprintf("%s/route/v1/driving/%s,%s;%s,%s?overview=false",
		o.baseURL, coord(from.Lng), coord(from.Lat), coord(to.Lng), coord(to.Lat))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("osrm request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("osrm request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("osrm status %d", resp.StatusCode)
	}

	var body osrmResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, fmt.Errorf("osrm decode: %w", err)
	}
	if body.Code != "Ok" || len(body.Routes) == 0 {
		return 0, fmt.Errorf("%w: osrm code %q", ErrRouteNotFound, body.Code)
	}

	return math.Round(body.Routes[0].Distance/100) / 10, nil
}

func coord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
