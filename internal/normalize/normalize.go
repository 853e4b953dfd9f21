// Package normalize implements the Input Normalizer (§4.6): it reconciles
// coordinate shapes, time units, and array lengths into the canonical
// vrp.SolveRequest shape before a solver engine ever sees it.
package normalize

import (
	"math"

	"github.com/vrprouting/vrp-service/internal/geo"
	"github.com/vrprouting/vrp-service/internal/vrp"
	"github.com/vrprouting/vrp-service/pkg/apperror"
)

// defaultWindowEnd is substituted for any missing time window end, wide
// enough to never bind in practice (10^9 seconds).
const defaultWindowEnd = int64(1_000_000_000)

// Options tunes normalization behavior.
type Options struct {
	// DurationScale overrides the heuristic duration-scale inference when
	// auto-building a Euclidean matrix (Open Question 1).
	DurationScale *float64
}

// Normalize reconciles a SolveRequest's matrix, arrays, and time units,
// returning a request safe to hand to any solver engine.
func Normalize(req *vrp.SolveRequest, waypoints []vrp.Waypoint, opts Options) (*vrp.SolveRequest, error) {
	out := *req

	if out.Matrix == nil {
		m, err := autoBuildMatrix(waypoints, opts)
		if err != nil {
			return nil, err
		}
		out.Matrix = m
	}

	n := out.Matrix.Size()
	if err := validateSquare(out.Matrix); err != nil {
		return nil, err
	}

	out.Demands = alignDemands(out.Demands, waypoints, n)
	out.ServiceTimes = alignServiceTimes(out.ServiceTimes, waypoints, n)
	out.NodeTimeWindows = alignWindows(out.NodeTimeWindows, waypoints, n)
	reconcileServiceTimeUnits(out.ServiceTimes)
	reconcileWindowUnits(out.NodeTimeWindows)
	swapInvertedWindows(out.NodeTimeWindows)

	if out.DepotIndex < 0 || out.DepotIndex >= n {
		return nil, apperror.NewWithField(apperror.CodeInputInvalid, "depot_index out of range", "depot_index")
	}

	if err := validateCapacity(out.Fleet, out.Demands); err != nil {
		return nil, err
	}
	if err := validateReachability(out.Matrix, out.NodeTimeWindows, out.DepotIndex); err != nil {
		return nil, err
	}

	return &out, nil
}

// autoBuildMatrix builds a Euclidean matrix from planar waypoints when no
// matrix is supplied, inferring a duration scale heuristically unless
// overridden.
func autoBuildMatrix(waypoints []vrp.Waypoint, opts Options) (*vrp.Matrix, error) {
	if len(waypoints) == 0 {
		return nil, apperror.New(apperror.CodeInputInvalid, "no matrix provided and no waypoints to build one from")
	}

	n := len(waypoints)
	distances := make([][]int64, n)
	maxWindowSpan := 0.0
	for i := 0; i < n; i++ {
		row := make([]int64, n)
		a, err := planarOf(waypoints[i])
		if err != nil {
			return nil, err
		}
		for j := 0; j < n; j++ {
			b, err := planarOf(waypoints[j])
			if err != nil {
				return nil, err
			}
			row[j] = int64(math.Round(geo.EuclideanDistance(a, b)))
		}
		distances[i] = row

		if waypoints[i].WindowStart != nil && waypoints[i].WindowEnd != nil {
			span := float64(*waypoints[i].WindowEnd - *waypoints[i].WindowStart)
			if span > maxWindowSpan {
				maxWindowSpan = span
			}
		}
	}

	scale := inferDurationScale(maxWindowSpan, opts)
	durations := make([][]int64, n)
	for i, row := range distances {
		durRow := make([]int64, len(row))
		for j, d := range row {
			durRow[j] = int64(math.Round(float64(d) * scale))
		}
		durations[i] = durRow
	}

	return &vrp.Matrix{Distances: distances, Durations: durations}, nil
}

func inferDurationScale(maxWindowSpan float64, opts Options) float64 {
	if opts.DurationScale != nil {
		return *opts.DurationScale
	}
	if maxWindowSpan >= 20_000 {
		return 60 // window spans this wide suggest seconds already
	}
	return 1 // suggests minutes; matrix is left in distance units
}

func planarOf(wp vrp.Waypoint) (geo.Planar, error) {
	if wp.Planar != nil {
		return *wp.Planar, nil
	}
	if wp.Geo != nil {
		return geo.Planar{X: wp.Geo.Lon, Y: wp.Geo.Lat}, nil
	}
	return geo.Planar{}, apperror.New(apperror.CodeInputInvalid, "waypoint has no coordinate to build a matrix from")
}

func validateSquare(m *vrp.Matrix) error {
	n := len(m.Distances)
	for i, row := range m.Distances {
		if len(row) != n {
			return apperror.NewWithField(apperror.CodeInputInvalid, "distance matrix is not square", "matrix")
		}
		if m.Distances[i][i] != 0 {
			return apperror.NewWithField(apperror.CodeInputInvalid, "distance matrix diagonal must be zero", "matrix")
		}
	}
	if m.Durations != nil {
		if len(m.Durations) != n {
			return apperror.NewWithField(apperror.CodeInputInvalid, "duration matrix shape does not match distance matrix", "matrix")
		}
		for _, row := range m.Durations {
			if len(row) != n {
				return apperror.NewWithField(apperror.CodeInputInvalid, "duration matrix shape does not match distance matrix", "matrix")
			}
		}
	}
	return nil
}

func alignDemands(demands [][]int64, waypoints []vrp.Waypoint, n int) [][]int64 {
	out := make([][]int64, n)
	for i := 0; i < n; i++ {
		switch {
		case i < len(demands):
			out[i] = demands[i]
		case i < len(waypoints) && waypoints[i].Demand != nil:
			out[i] = waypoints[i].Demand
		default:
			out[i] = []int64{0}
		}
	}
	return out
}

func alignServiceTimes(serviceTimes []int64, waypoints []vrp.Waypoint, n int) []int64 {
	out := make([]int64, n)
	for i := 0; i < n; i++ {
		switch {
		case i < len(serviceTimes):
			out[i] = serviceTimes[i]
		case i < len(waypoints):
			out[i] = waypoints[i].ServiceSeconds
		}
	}
	return out
}

func alignWindows(windows [][2]int64, waypoints []vrp.Waypoint, n int) [][2]int64 {
	out := make([][2]int64, n)
	for i := 0; i < n; i++ {
		switch {
		case i < len(windows):
			out[i] = windows[i]
		case i < len(waypoints) && waypoints[i].WindowStart != nil && waypoints[i].WindowEnd != nil:
			out[i] = [2]int64{*waypoints[i].WindowStart, *waypoints[i].WindowEnd}
		default:
			out[i] = [2]int64{0, defaultWindowEnd}
		}
	}
	return out
}

// swapInvertedWindows enforces start ≤ end as the final step, after unit
// reconciliation, so unit conversion can never reintroduce an inversion a
// swap already fixed.
func swapInvertedWindows(windows [][2]int64) {
	for i, w := range windows {
		if w[1] < w[0] {
			windows[i][0], windows[i][1] = w[1], w[0]
		}
	}
}

// reconcileServiceTimeUnits converts each service time to seconds in place,
// using the same thresholds as windows: hours if tiny, minutes if modest,
// seconds otherwise.
func reconcileServiceTimeUnits(serviceTimes []int64) {
	for i, s := range serviceTimes {
		serviceTimes[i] = ReconcileUnits(s)
	}
}

// reconcileWindowUnits converts each window to seconds in place, choosing
// one factor per window from max(start, end) so both ends scale alike.
func reconcileWindowUnits(windows [][2]int64) {
	for i, w := range windows {
		var factor int64
		switch hi := max(w[0], w[1]); {
		case hi <= 48:
			factor = 3600
		case hi <= 1440:
			factor = 60
		default:
			factor = 1
		}
		windows[i] = [2]int64{w[0] * factor, w[1] * factor}
	}
}

// ReconcileUnits applies the shared time-unit heuristic (SUPPLEMENTED
// FEATURES: the same rule governs both time windows and service times):
// values ≤ 48 are hours, ≤ 1440 are minutes, otherwise already seconds.
func ReconcileUnits(value int64) int64 {
	switch {
	case value <= 48:
		return value * 3600
	case value <= 1440:
		return value * 60
	default:
		return value
	}
}

func validateCapacity(fleet []vrp.Vehicle, demands [][]int64) error {
	var totalCapacity int64
	hasCapacity := false
	for _, v := range fleet {
		for _, c := range v.Capacity {
			totalCapacity += c
			hasCapacity = true
		}
	}
	if !hasCapacity {
		return nil
	}

	var totalDemand int64
	for _, d := range demands {
		for _, v := range d {
			totalDemand += v
		}
	}

	if totalDemand > totalCapacity {
		return apperror.New(apperror.CodeInfeasibleInstance, "total demand exceeds total fleet capacity")
	}
	return nil
}

func validateReachability(m *vrp.Matrix, windows [][2]int64, depotIndex int) error {
	if m.Durations == nil {
		return nil
	}
	for i, w := range windows {
		if i == depotIndex {
			continue
		}
		travel := m.Durations[depotIndex][i]
		if w[1] < travel {
			return apperror.New(apperror.CodeInfeasibleInstance,
				"node's latest arrival is earlier than the shortest travel time from the depot")
		}
	}
	return nil
}
