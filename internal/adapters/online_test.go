package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrprouting/vrp-service/internal/geo"
	"github.com/vrprouting/vrp-service/pkg/config"
)

func TestOnline_Compute_SubMatrixFromDenseResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body onlineRequestBody
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Coordinates, 2) // union of one origin and one distinct destination

		resp := onlineResponseBody{
			Distances: [][]float64{
				{0, 100},
				{100, 0},
			},
			Durations: [][]float64{
				{0, 10},
				{10, 0},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	o := NewOnline("test-provider", config.AdapterEndpoint{
		Enabled: true,
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
	}, config.RetryConfig{MaxAttempts: 1})

	a := Point{Geo: &geo.Coordinate{Lat: 1, Lon: 1}}
	b := Point{Geo: &geo.Coordinate{Lat: 2, Lon: 2}}

	req := &Request{Origins: []Point{a}, Destinations: []Point{b}, WantDurations: true}
	m, err := o.Compute(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, m.Distances, 1)
	assert.Equal(t, int64(100), m.Distances[0][0])
	assert.Equal(t, int64(10), m.Durations[0][0])
}

func TestOnline_Compute_DisabledAdapterFails(t *testing.T) {
	o := NewOnline("test-provider", config.AdapterEndpoint{Enabled: false}, config.RetryConfig{})
	req := &Request{
		Origins:      []Point{{Geo: &geo.Coordinate{Lat: 1, Lon: 1}}},
		Destinations: []Point{{Geo: &geo.Coordinate{Lat: 2, Lon: 2}}},
	}

	_, err := o.Compute(context.Background(), req)
	require.Error(t, err)
}

func TestOnline_Compute_RetriesOnFailureThenSucceeds(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 2 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		resp := onlineResponseBody{Distances: [][]float64{{0, 50}, {50, 0}}}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	o := NewOnline("test-provider", config.AdapterEndpoint{
		Enabled: true,
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
	}, config.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond})

	req := &Request{
		Origins:      []Point{{Geo: &geo.Coordinate{Lat: 1, Lon: 1}}},
		Destinations: []Point{{Geo: &geo.Coordinate{Lat: 2, Lon: 2}}},
	}

	m, err := o.Compute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(50), m.Distances[0][0])
	assert.Equal(t, 2, calls)
}

func TestOnline_Compute_ExhaustsRetriesAndFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	o := NewOnline("test-provider", config.AdapterEndpoint{
		Enabled: true,
		BaseURL: srv.URL,
		Timeout: 2 * time.Second,
	}, config.RetryConfig{MaxAttempts: 2, InitialBackoff: time.Millisecond})

	req := &Request{
		Origins:      []Point{{Geo: &geo.Coordinate{Lat: 1, Lon: 1}}},
		Destinations: []Point{{Geo: &geo.Coordinate{Lat: 2, Lon: 2}}},
	}

	_, err := o.Compute(context.Background(), req)
	require.Error(t, err)
}
