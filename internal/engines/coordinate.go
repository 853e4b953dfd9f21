package engines

import (
	"context"
	"errors"
	"time"

	"github.com/katalvlaran/lvlath/matrix"
	"github.com/katalvlaran/lvlath/tsp"

	"github.com/vrprouting/vrp-service/internal/geo"
	"github.com/vrprouting/vrp-service/internal/vrp"
)

// Coordinate solves single-vehicle tours: given a depot and a set of stops,
// find the order that minimizes total distance and return it as one closed
// loop. It never assigns more than one vehicle and never drops a stop.
type Coordinate struct{}

// NewCoordinate constructs the coordinate-mode tour engine.
func NewCoordinate() *Coordinate {
	return &Coordinate{}
}

// Solve runs lvlath's TSP dispatcher over the request's matrix, treating it
// as asymmetric (distance matrices built from road networks or online
// providers rarely satisfy dist[i][j] == dist[j][i] exactly). When the
// request carries no matrix, one is built directly from its waypoints'
// coordinates (haversine over geo points, Euclidean over planar ones) so
// this engine also runs in pure coordinate mode, without a Matrix Facade
// call. If the two-opt search returns no tour at all — it was cut off by
// the time or node limit, or simply found none — a nearest-neighbor tour
// over the same matrix is returned instead of failing.
func (c *Coordinate) Solve(ctx context.Context, req *vrp.SolveRequest) (*vrp.Routes, error) {
	distances, durations, n, err := resolveCoordinateMatrix(req)
	if err != nil {
		return nil, err
	}
	if n < 2 {
		return nil, errEngine("coordinate", "at least two nodes are required for a tour")
	}
	if req.DepotIndex < 0 || req.DepotIndex >= n {
		return nil, errEngine("coordinate", "depot index out of range")
	}

	dense, err := toDense(distances)
	if err != nil {
		return nil, errEngine("coordinate", err.Error())
	}

	opts := tsp.DefaultOptions()
	opts.StartVertex = req.DepotIndex
	opts.Symmetric = false
	opts.Algo = tsp.TwoOptOnly
	opts.EnableLocalSearch = true
	if req.TimeLimitSeconds > 0 {
		opts.TimeLimit = time.Duration(req.TimeLimitSeconds * float64(time.Second))
	}

	result, solveErr := tsp.SolveWithMatrix(dense, nil, opts)

	var tour []int
	status := "optimal"
	switch {
	case solveErr == nil && len(result.Tour) > 0:
		tour = result.Tour
	case solveErr == nil || errors.Is(solveErr, tsp.ErrTimeLimit) || errors.Is(solveErr, tsp.ErrNodeLimit):
		tour = nearestNeighborTour(distances, req.DepotIndex)
		status = "feasible"
	default:
		return nil, errEngine("coordinate", solveErr.Error())
	}

	// result.Tour is a closed loop of length n+1 with Tour[0] == Tour[n] ==
	// StartVertex; the nearest-neighbor fallback builds the same shape.
	// Route.Stops keeps the full loop (depot at both ends) so the metrics
	// enricher can sum consecutive matrix edges directly.
	stops := make([]int, len(tour))
	copy(stops, tour)

	var totalDuration *int64
	if durations != nil {
		d := tourDuration(durations, tour)
		totalDuration = &d
	}

	vehicleID := "vehicle-1"
	if len(req.Fleet) > 0 {
		vehicleID = req.Fleet[0].ID
	}

	route := vrp.Route{
		VehicleID:     vehicleID,
		Stops:         stops,
		TotalDistance: tourDistance(distances, tour),
		TotalDuration: totalDuration,
	}

	return &vrp.Routes{
		Status:        status,
		VehiclesUsed:  1,
		Served:        n - 1,
		TotalDistance: route.TotalDistance,
		TotalDuration: derefOr(totalDuration, 0),
		Routes:        []vrp.Route{route},
	}, nil
}

// resolveCoordinateMatrix returns the request's matrix verbatim, or, when
// none is supplied, a matrix built directly from its waypoints' coordinates.
func resolveCoordinateMatrix(req *vrp.SolveRequest) (distances, durations [][]int64, n int, err error) {
	if req.Matrix != nil {
		return req.Matrix.Distances, req.Matrix.Durations, req.Matrix.Size(), nil
	}
	if len(req.Waypoints) < 2 {
		return nil, nil, 0, errEngine("coordinate", "request carries no distance matrix and fewer than two waypoints")
	}

	n = len(req.Waypoints)
	distances = make([][]int64, n)
	for i := range distances {
		distances[i] = make([]int64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d, derr := waypointDistance(req.Waypoints[i], req.Waypoints[j])
			if derr != nil {
				return nil, nil, 0, derr
			}
			distances[i][j] = d
			distances[j][i] = d
		}
	}
	return distances, nil, n, nil
}

// waypointDistance requires both waypoints to carry the same coordinate
// space; mixing geo and planar waypoints in one coordinate-mode request has
// no well-defined distance and is rejected rather than guessed at.
func waypointDistance(a, b vrp.Waypoint) (int64, error) {
	switch {
	case a.Geo != nil && b.Geo != nil:
		return int64(geo.HaversineMeters(*a.Geo, *b.Geo)), nil
	case a.Planar != nil && b.Planar != nil:
		return int64(geo.EuclideanDistance(*a.Planar, *b.Planar)), nil
	default:
		return 0, errEngine("coordinate", "waypoints must all carry the same coordinate space (geo or planar)")
	}
}

// nearestNeighborTour builds a closed loop starting and ending at depot by
// repeatedly stepping to the nearest unvisited node. Always produces a tour
// over every reachable node, used when the two-opt search above returns
// none at all.
func nearestNeighborTour(distances [][]int64, depot int) []int {
	n := len(distances)
	visited := make([]bool, n)
	visited[depot] = true
	tour := make([]int, 0, n+1)
	tour = append(tour, depot)

	cur := depot
	for range n - 1 {
		next := -1
		var best int64
		for j := 0; j < n; j++ {
			if visited[j] {
				continue
			}
			if next == -1 || distances[cur][j] < best {
				next = j
				best = distances[cur][j]
			}
		}
		if next == -1 {
			break
		}
		visited[next] = true
		tour = append(tour, next)
		cur = next
	}

	tour = append(tour, depot)
	return tour
}

func toDense(rows [][]int64) (*matrix.Dense, error) {
	n := len(rows)
	d, err := matrix.NewDense(n, n)
	if err != nil {
		return nil, err
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			if setErr := d.Set(i, j, float64(rows[i][j])); setErr != nil {
				return nil, setErr
			}
		}
	}
	return d, nil
}

func tourDistance(distances [][]int64, tour []int) int64 {
	var total int64
	for i := 0; i+1 < len(tour); i++ {
		total += distances[tour[i]][tour[i+1]]
	}
	return total
}

func tourDuration(durations [][]int64, tour []int) int64 {
	var total int64
	for i := 0; i+1 < len(tour); i++ {
		total += durations[tour[i]][tour[i+1]]
	}
	return total
}

func derefOr(v *int64, fallback int64) int64 {
	if v == nil {
		return fallback
	}
	return *v
}
