package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrprouting/vrp-service/internal/geo"
	"github.com/vrprouting/vrp-service/internal/vrp"
)

func planarWaypoints() []vrp.Waypoint {
	return []vrp.Waypoint{
		{ID: "0", Planar: &geo.Planar{X: 0, Y: 0}, Depot: true},
		{ID: "1", Planar: &geo.Planar{X: 3, Y: 4}},
		{ID: "2", Planar: &geo.Planar{X: 6, Y: 8}},
	}
}

func TestNormalize_AutoBuildsEuclideanMatrix(t *testing.T) {
	req := &vrp.SolveRequest{DepotIndex: 0, Fleet: []vrp.Vehicle{{ID: "v1"}}}
	out, err := Normalize(req, planarWaypoints(), Options{})
	require.NoError(t, err)

	require.NotNil(t, out.Matrix)
	assert.Equal(t, int64(0), out.Matrix.Distances[0][0])
	assert.Equal(t, int64(5), out.Matrix.Distances[0][1])
}

func TestNormalize_DurationScaleHeuristic_DefaultsToOne(t *testing.T) {
	req := &vrp.SolveRequest{DepotIndex: 0, Fleet: []vrp.Vehicle{{ID: "v1"}}}
	out, err := Normalize(req, planarWaypoints(), Options{})
	require.NoError(t, err)
	assert.Equal(t, out.Matrix.Distances[0][1], out.Matrix.Durations[0][1])
}

func TestNormalize_DurationScaleOverride(t *testing.T) {
	scale := 2.0
	req := &vrp.SolveRequest{DepotIndex: 0, Fleet: []vrp.Vehicle{{ID: "v1"}}}
	out, err := Normalize(req, planarWaypoints(), Options{DurationScale: &scale})
	require.NoError(t, err)
	assert.Equal(t, int64(10), out.Matrix.Durations[0][1])
}

func TestNormalize_RejectsNonSquareMatrix(t *testing.T) {
	req := &vrp.SolveRequest{
		DepotIndex: 0,
		Fleet:      []vrp.Vehicle{{ID: "v1"}},
		Matrix: &vrp.Matrix{Distances: [][]int64{
			{0, 1},
			{1, 0, 2},
		}},
	}
	_, err := Normalize(req, planarWaypoints()[:2], Options{})
	require.Error(t, err)
}

func TestNormalize_RejectsOutOfRangeDepot(t *testing.T) {
	req := &vrp.SolveRequest{
		DepotIndex: 5,
		Fleet:      []vrp.Vehicle{{ID: "v1"}},
		Matrix:     &vrp.Matrix{Distances: [][]int64{{0, 1}, {1, 0}}},
	}
	_, err := Normalize(req, planarWaypoints()[:2], Options{})
	require.Error(t, err)
}

func TestNormalize_AlignsDemandsToMatrixSize(t *testing.T) {
	waypoints := planarWaypoints()
	waypoints[1].Demand = []int64{5}
	req := &vrp.SolveRequest{DepotIndex: 0, Fleet: []vrp.Vehicle{{ID: "v1", Capacity: []int64{100}}}}

	out, err := Normalize(req, waypoints, Options{})
	require.NoError(t, err)
	require.Len(t, out.Demands, 3)
	assert.Equal(t, []int64{5}, out.Demands[1])
	assert.Equal(t, []int64{0}, out.Demands[0])
}

func TestNormalize_RejectsOverCapacityDemand(t *testing.T) {
	waypoints := planarWaypoints()
	waypoints[1].Demand = []int64{500}
	req := &vrp.SolveRequest{DepotIndex: 0, Fleet: []vrp.Vehicle{{ID: "v1", Capacity: []int64{10}}}}

	_, err := Normalize(req, waypoints, Options{})
	require.Error(t, err)
}

func TestReconcileUnits_Hours(t *testing.T) {
	assert.Equal(t, int64(3600), ReconcileUnits(1))
}

func TestReconcileUnits_Minutes(t *testing.T) {
	assert.Equal(t, int64(6000), ReconcileUnits(100))
}

func TestReconcileUnits_Seconds(t *testing.T) {
	assert.Equal(t, int64(5000), ReconcileUnits(5000))
}

func TestNormalize_DefaultsMissingTimeWindows(t *testing.T) {
	req := &vrp.SolveRequest{DepotIndex: 0, Fleet: []vrp.Vehicle{{ID: "v1"}}}
	out, err := Normalize(req, planarWaypoints(), Options{})
	require.NoError(t, err)
	require.Len(t, out.NodeTimeWindows, 3)
}

func TestNormalize_SwapsInvertedWindow(t *testing.T) {
	req := &vrp.SolveRequest{
		DepotIndex:      0,
		Fleet:           []vrp.Vehicle{{ID: "v1"}},
		NodeTimeWindows: [][2]int64{{0, 100000}, {50000, 1000}, {0, 100000}},
	}
	out, err := Normalize(req, planarWaypoints(), Options{})
	require.NoError(t, err)
	assert.LessOrEqual(t, out.NodeTimeWindows[1][0], out.NodeTimeWindows[1][1])
}
