package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrprouting/vrp-service/internal/geo"
)

func TestEuclidean_Compute(t *testing.T) {
	e := NewEuclidean(1.0)
	req := &Request{
		Origins:      []Point{{Planar: &geo.Planar{X: 0, Y: 0}}},
		Destinations: []Point{{Planar: &geo.Planar{X: 3, Y: 4}}},
	}

	m, err := e.Compute(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, m.Distances, 1)
	assert.Equal(t, int64(5), m.Distances[0][0])
	assert.Nil(t, m.Durations)
}

func TestEuclidean_Compute_ScalesByMetersPerUnit(t *testing.T) {
	e := NewEuclidean(10.0)
	req := &Request{
		Origins:      []Point{{Planar: &geo.Planar{X: 0, Y: 0}}},
		Destinations: []Point{{Planar: &geo.Planar{X: 3, Y: 4}}},
	}

	m, err := e.Compute(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(50), m.Distances[0][0])
}

func TestEuclidean_Compute_DefaultsMetersPerUnit(t *testing.T) {
	e := NewEuclidean(0)
	assert.Equal(t, 1.0, e.MetersPerUnit)
}

func TestEuclidean_Compute_RejectsMissingPlanar(t *testing.T) {
	e := NewEuclidean(1.0)
	req := &Request{
		Origins:      []Point{{Geo: &geo.Coordinate{Lat: 1, Lon: 1}}},
		Destinations: []Point{{Planar: &geo.Planar{X: 3, Y: 4}}},
	}

	_, err := e.Compute(context.Background(), req)
	require.Error(t, err)
}
