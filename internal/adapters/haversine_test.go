package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrprouting/vrp-service/internal/geo"
)

func TestHaversine_Compute_SFtoLA(t *testing.T) {
	h := NewHaversine()
	req := &Request{
		Origins:      []Point{{Geo: &geo.Coordinate{Lat: 37.7749, Lon: -122.4194}}}, // San Francisco
		Destinations: []Point{{Geo: &geo.Coordinate{Lat: 34.0522, Lon: -118.2437}}}, // Los Angeles
	}

	m, err := h.Compute(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, m.Distances, 1)
	assert.Greater(t, m.Distances[0][0], int64(500_000))
	assert.Less(t, m.Distances[0][0], int64(700_000))
	assert.Nil(t, m.Durations)
}

func TestHaversine_Compute_RejectsMissingGeo(t *testing.T) {
	h := NewHaversine()
	req := &Request{
		Origins:      []Point{{Planar: &geo.Planar{X: 1, Y: 1}}},
		Destinations: []Point{{Geo: &geo.Coordinate{Lat: 1, Lon: 1}}},
	}

	_, err := h.Compute(context.Background(), req)
	require.Error(t, err)
}

func TestHaversine_Compute_ZeroDistanceForSamePoint(t *testing.T) {
	h := NewHaversine()
	pt := Point{Geo: &geo.Coordinate{Lat: 10, Lon: 10}}
	req := &Request{Origins: []Point{pt}, Destinations: []Point{pt}}

	m, err := h.Compute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(0), m.Distances[0][0])
}
