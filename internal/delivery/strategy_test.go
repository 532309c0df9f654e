package delivery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pesansayur/storefront/internal/domain"
	"github.com/pesansayur/storefront/pkg/circuitbreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	monas = domain.Point{Lat: -6.1754, Lng: 106.8272}
	bogor = domain.Point{Lat: -6.5971, Lng: 106.8060}
)

func TestHaversine(t *testing.T) {
	km, err := Haversine{}.Distance(context.Background(), monas, bogor)
	require.NoError(t, err)
	assert.Equal(t, 46.9, km)

	assert.Equal(t, 0.0, HaversineKm(monas, monas))
}

func TestCoordinateLabel(t *testing.T) {
	addr, err := CoordinateLabel{}.Address(context.Background(), domain.Point{Lat: -6.2, Lng: 106.816666})
	require.NoError(t, err)
	assert.Equal(t, "-6.200000, 106.816666", addr)
}

func TestOSRMRouter_Distance(t *testing.T) {
	var gotPath, gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		_ = json.NewEncoder(w).Encode(map[string]any{
			"code":   "Ok",
			"routes": []map[string]any{{"distance": 4249.7}},
		})
	}))
	defer srv.Close()

	router := NewOSRMRouter(srv.URL, srv.Client(), nil)
	km, err := router.Distance(context.Background(), domain.Point{Lat: -6.3686, Lng: 106.893}, domain.Point{Lat: -6.35, Lng: 106.9})
	require.NoError(t, err)

	assert.Equal(t, 4.2, km)
	assert.Equal(t, "/route/v1/driving/106.893,-6.3686;106.9,-6.35", gotPath)
	assert.Equal(t, "overview=false", gotQuery)
}

func TestOSRMRouter_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"no route", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"code":"NoRoute","routes":[]}`))
		}},
		{"ok without routes", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"code":"Ok","routes":[]}`))
		}},
		{"server error", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}},
		{"malformed", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			_, err := NewOSRMRouter(srv.URL, srv.Client(), nil).Distance(context.Background(), monas, bogor)
			assert.Error(t, err)
		})
	}
}

func TestOSRMRouter_BreakerStopsCalls(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	router := NewOSRMRouter(srv.URL, srv.Client(), circuitbreaker.New(2, time.Minute))
	for i := 0; i < 2; i++ {
		_, err := router.Distance(context.Background(), monas, bogor)
		require.Error(t, err)
	}

	_, err := router.Distance(context.Background(), monas, bogor)
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.Equal(t, int32(2), calls.Load())
}

func TestNominatim_Address(t *testing.T) {
	var got *http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Clone(context.Background())
		_, _ = w.Write([]byte(`{"display_name":"Jalan Merdeka, Gambir, Jakarta Pusat"}`))
	}))
	defer srv.Close()

	addr, err := NewNominatim(srv.URL, srv.Client()).Address(context.Background(), monas)
	require.NoError(t, err)
	assert.Equal(t, "Jalan Merdeka, Gambir, Jakarta Pusat", addr)

	require.NotNil(t, got)
	assert.Equal(t, "/reverse", got.URL.Path)
	q := got.URL.Query()
	assert.Equal(t, "json", q.Get("format"))
	assert.Equal(t, "-6.1754", q.Get("lat"))
	assert.Equal(t, "106.8272", q.Get("lon"))
	assert.Equal(t, "18", q.Get("zoom"))
	assert.Equal(t, "1", q.Get("addressdetails"))
	assert.Equal(t, "id", got.Header.Get("Accept-Language"))
	assert.NotEmpty(t, got.Header.Get("User-Agent"))
}

func TestNominatim_EmptyDisplayName(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":"Unable to geocode"}`))
	}))
	defer srv.Close()

	_, err := NewNominatim(srv.URL, srv.Client()).Address(context.Background(), monas)
	assert.ErrorIs(t, err, ErrNoAddress)
}

func TestNominatim_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"display_name":"x"}`))
	}))
	defer srv.Close()

	n := NewNominatim(srv.URL, srv.Client())
	_, err := n.Address(context.Background(), monas)
	require.NoError(t, err)

	// the second call inside the same second cannot get a token before the deadline
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = n.Address(ctx, monas)
	assert.Error(t, err)
}
