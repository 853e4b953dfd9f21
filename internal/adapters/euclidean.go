package adapters

import (
	"context"
	"math"

	"github.com/vrprouting/vrp-service/internal/geo"
)

// Euclidean computes planar straight-line distances, scaled by
// MetersPerUnit. Durations are never returned (no speed model in solver
// space).
type Euclidean struct {
	MetersPerUnit float64
}

// NewEuclidean constructs an Euclidean adapter. metersPerUnit scales raw
// solver-space distance into meters; 1.0 treats solver-space units as
// already being meters.
func NewEuclidean(metersPerUnit float64) *Euclidean {
	if metersPerUnit <= 0 {
		metersPerUnit = 1.0
	}
	return &Euclidean{MetersPerUnit: metersPerUnit}
}

// Compute implements Adapter.
func (e *Euclidean) Compute(_ context.Context, req *Request) (*Matrix, error) {
	if err := req.FillAndCoerce(); err != nil {
		return nil, err
	}

	origins := make([]geo.Planar, len(req.Origins))
	for i, p := range req.Origins {
		pt, err := p.RequirePlanar()
		if err != nil {
			return nil, err
		}
		origins[i] = pt
	}

	destinations := make([]geo.Planar, len(req.Destinations))
	for j, p := range req.Destinations {
		pt, err := p.RequirePlanar()
		if err != nil {
			return nil, err
		}
		destinations[j] = pt
	}

	distances := make([][]int64, len(origins))
	for i, o := range origins {
		row := make([]int64, len(destinations))
		for j, d := range destinations {
			row[j] = int64(math.Round(geo.EuclideanDistance(o, d) * e.MetersPerUnit))
		}
		distances[i] = row
	}

	return &Matrix{Distances: distances}, nil
}
