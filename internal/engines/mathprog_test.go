package engines

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrprouting/vrp-service/internal/vrp"
	"github.com/vrprouting/vrp-service/pkg/apperror"
)

func TestMathProg_Solve_RejectsMissingMatrix(t *testing.T) {
	eng := NewMathProg()
	req := &vrp.SolveRequest{Fleet: []vrp.Vehicle{{ID: "v1"}}}
	_, err := eng.Solve(context.Background(), req)
	require.Error(t, err)
}

func TestMathProg_Solve_RejectsSingleNode(t *testing.T) {
	eng := NewMathProg()
	req := &vrp.SolveRequest{
		Fleet:  []vrp.Vehicle{{ID: "v1"}},
		Matrix: &vrp.Matrix{Distances: [][]int64{{0}}},
	}
	_, err := eng.Solve(context.Background(), req)
	require.Error(t, err)
}

func TestMathProg_Solve_RejectsEmptyFleet(t *testing.T) {
	eng := NewMathProg()
	req := &vrp.SolveRequest{
		Matrix: &vrp.Matrix{Distances: [][]int64{{0, 1}, {1, 0}}},
	}
	_, err := eng.Solve(context.Background(), req)
	require.Error(t, err)
}

func TestVehicleCapacity_DefaultsWhenUnset(t *testing.T) {
	assert.Equal(t, float64(bigM), vehicleCapacity(vrp.Vehicle{}))
}

func TestVehicleCapacity_UsesFirstDimension(t *testing.T) {
	assert.Equal(t, 50.0, vehicleCapacity(vrp.Vehicle{Capacity: []int64{50, 10}}))
}

func TestNodeDemand_DefaultsToZero(t *testing.T) {
	assert.Equal(t, int64(0), nodeDemand(nil, 0))
	assert.Equal(t, int64(0), nodeDemand([][]int64{{}}, 0))
}

func TestNodeDemand_ReadsFirstDimension(t *testing.T) {
	assert.Equal(t, int64(7), nodeDemand([][]int64{{7, 1}}, 0))
}

func TestServiceTime_DefaultsToZero(t *testing.T) {
	assert.Equal(t, int64(0), serviceTime(nil, 0))
}

// The TestMathProg_Solve_* tests below exercise the four outcomes required
// by §4.7: optimal, feasible-but-stopped, infeasible, and error.

func TestMathProg_Solve_FindsOptimal(t *testing.T) {
	eng := NewMathProg()
	req := &vrp.SolveRequest{
		Fleet:      []vrp.Vehicle{{ID: "v1", Capacity: []int64{100}}},
		DepotIndex: 0,
		Matrix: &vrp.Matrix{
			Distances: [][]int64{{0, 10}, {10, 0}},
			Durations: [][]int64{{0, 60}, {60, 0}},
		},
		Demands:          [][]int64{{0}, {5}},
		Weights:          vrp.Weights{Distance: 1},
		TimeLimitSeconds: 5,
	}

	routes, err := eng.Solve(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, "optimal", routes.Status)
	require.Len(t, routes.Routes, 1)
	assert.Equal(t, []int{0, 1, 0}, routes.Routes[0].Stops)
}

func TestMathProg_Solve_ReportsInfeasibleWhenCapacityCannotBeMet(t *testing.T) {
	eng := NewMathProg()
	req := &vrp.SolveRequest{
		Fleet:      []vrp.Vehicle{{ID: "v1", Capacity: []int64{1}}},
		DepotIndex: 0,
		Matrix: &vrp.Matrix{
			Distances: [][]int64{{0, 10}, {10, 0}},
		},
		Demands:          [][]int64{{0}, {50}}, // exceeds the only vehicle's capacity
		AllowDrop:        false,                // dropping is forbidden, so this cannot be worked around
		Weights:          vrp.Weights{Distance: 1},
		TimeLimitSeconds: 5,
	}

	_, err := eng.Solve(context.Background(), req)

	require.Error(t, err)
	assert.Equal(t, apperror.CodeInfeasibleInstance, apperror.Code(err))
}

func TestMathProg_Solve_ReportsFeasibleButStoppedUnderATightTimeLimit(t *testing.T) {
	eng := NewMathProg()
	n := 10
	distances := make([][]int64, n)
	windows := make([][2]int64, n)
	demands := make([][]int64, n)
	for i := 0; i < n; i++ {
		distances[i] = make([]int64, n)
		for j := 0; j < n; j++ {
			if i != j {
				distances[i][j] = int64(10 + (i*7+j*13)%40)
			}
		}
		windows[i] = [2]int64{0, bigM}
		demands[i] = []int64{int64(i % 4)}
	}

	req := &vrp.SolveRequest{
		Fleet: []vrp.Vehicle{
			{ID: "v1", Capacity: []int64{20}},
			{ID: "v2", Capacity: []int64{20}},
		},
		DepotIndex:       0,
		Matrix:           &vrp.Matrix{Distances: distances, Durations: distances},
		Demands:          demands,
		NodeTimeWindows:  windows,
		Weights:          vrp.Weights{Distance: 1},
		TimeLimitSeconds: 0.05,
	}

	routes, err := eng.Solve(context.Background(), req)

	// Under a time budget this tight, the solver's heuristics are expected
	// to hand back an incumbent without proving it optimal; if the instance
	// solves to optimality before the limit anyway that's still a pass, but
	// the case this test is written to exercise is the "feasible" status.
	if err != nil {
		assert.True(t, apperror.Is(err, apperror.CodeTransientEngineStop))
		return
	}
	assert.Contains(t, []string{"optimal", "feasible"}, routes.Status)
}

func TestMathProg_Solve_ReportsErrorOnInvalidCapacityBound(t *testing.T) {
	eng := NewMathProg()
	req := &vrp.SolveRequest{
		Fleet:      []vrp.Vehicle{{ID: "v1", Capacity: []int64{-1}}},
		DepotIndex: 0,
		Matrix:     &vrp.Matrix{Distances: [][]int64{{0, 10}, {10, 0}}},
		Weights:    vrp.Weights{Distance: 1},
	}

	_, err := eng.Solve(context.Background(), req)

	require.Error(t, err)
	assert.Equal(t, apperror.CodeEngineInternal, apperror.Code(err))
}
