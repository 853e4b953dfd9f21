package adapters

import (
	"context"
	"math"

	"github.com/vrprouting/vrp-service/internal/geo"
)

// Haversine computes great-circle distances between geographic points.
// Durations are always nil — no travel-time model exists for a straight-line
// distance.
type Haversine struct{}

// NewHaversine constructs a Haversine adapter.
func NewHaversine() *Haversine {
	return &Haversine{}
}

// Compute implements Adapter.
func (h *Haversine) Compute(_ context.Context, req *Request) (*Matrix, error) {
	if err := req.FillAndCoerce(); err != nil {
		return nil, err
	}

	origins := make([]geo.Coordinate, len(req.Origins))
	for i, p := range req.Origins {
		c, err := p.RequireGeo()
		if err != nil {
			return nil, err
		}
		origins[i] = c
	}

	destinations := make([]geo.Coordinate, len(req.Destinations))
	for j, p := range req.Destinations {
		c, err := p.RequireGeo()
		if err != nil {
			return nil, err
		}
		destinations[j] = c
	}

	distances := make([][]int64, len(origins))
	for i, o := range origins {
		row := make([]int64, len(destinations))
		for j, d := range destinations {
			row[j] = int64(math.Round(geo.HaversineMeters(o, d)))
		}
		distances[i] = row
	}

	return &Matrix{Distances: distances}, nil
}
