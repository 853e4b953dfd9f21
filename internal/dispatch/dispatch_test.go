package dispatch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrprouting/vrp-service/internal/adapters"
	"github.com/vrprouting/vrp-service/internal/engines"
	"github.com/vrprouting/vrp-service/internal/geo"
	"github.com/vrprouting/vrp-service/internal/index"
	"github.com/vrprouting/vrp-service/internal/registry"
	"github.com/vrprouting/vrp-service/internal/vrp"
	"github.com/vrprouting/vrp-service/pkg/apperror"
	"github.com/vrprouting/vrp-service/pkg/config"
)

type fakeEngine struct {
	routes *vrp.Routes
	err    error
	panics bool
}

func (f *fakeEngine) Solve(ctx context.Context, req *vrp.SolveRequest) (*vrp.Routes, error) {
	if f.panics {
		panic("boom")
	}
	return f.routes, f.err
}

type fakeAdapter struct {
	calls int
	m     *adapters.Matrix
	err   error
}

func (f *fakeAdapter) Compute(ctx context.Context, req *adapters.Request) (*adapters.Matrix, error) {
	f.calls++
	return f.m, f.err
}

func testApp(t *testing.T, eng engines.Engine, adapter adapters.Adapter) (*App, *fakeAdapter) {
	t.Helper()
	cfg := &config.Config{}
	cfg.Engines.DefaultTimeLimit = 30 * time.Second
	cfg.Engines.MaxTimeLimit = 120 * time.Second
	cfg.Cache.DefaultTTL = time.Minute
	cfg.Cache.MaxEntries = 16

	engineReg := registry.New[engines.Engine]()
	require.NoError(t, engineReg.Register("fake", func() (engines.Engine, error) { return eng, nil }))

	fa, _ := adapter.(*fakeAdapter)
	adapterReg := registry.New[adapters.Adapter]()
	require.NoError(t, adapterReg.Register("fake", func() (adapters.Adapter, error) { return adapter, nil }))

	idx := index.New(t.TempDir(), nil)
	app := New(cfg, adapterReg, engineReg, idx, nil)
	return app, fa
}

func baseRequest() *vrp.SolveRequest {
	return &vrp.SolveRequest{
		EngineName: "fake",
		Fleet:      []vrp.Vehicle{{ID: "v1"}},
		DepotIndex: 0,
		Matrix: &vrp.Matrix{
			Distances: [][]int64{{0, 10}, {10, 0}},
		},
	}
}

func TestApp_Solve_HappyPath(t *testing.T) {
	want := &vrp.Routes{
		Status:       "optimal",
		VehiclesUsed: 1,
		Routes:       []vrp.Route{{VehicleID: "v1", Stops: []int{0, 1, 0}}},
	}
	app, _ := testApp(t, &fakeEngine{routes: want}, &fakeAdapter{})

	got, err := app.Solve(context.Background(), baseRequest(), nil)
	require.NoError(t, err)
	require.Len(t, got.Routes, 1)
	// enrichment recomputes totals from the matrix, not the engine's stub value
	assert.Equal(t, int64(20), got.Routes[0].TotalDistance)
}

func TestApp_Solve_RejectsMissingEngineName(t *testing.T) {
	app, _ := testApp(t, &fakeEngine{}, &fakeAdapter{})
	req := baseRequest()
	req.EngineName = ""
	_, err := app.Solve(context.Background(), req, nil)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeInputInvalid))
}

func TestApp_Solve_RejectsUnknownEngine(t *testing.T) {
	app, _ := testApp(t, &fakeEngine{}, &fakeAdapter{})
	req := baseRequest()
	req.EngineName = "does-not-exist"
	_, err := app.Solve(context.Background(), req, nil)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeResourceNotFound))
}

func TestApp_Solve_RecoversEnginePanicAsEngineInternal(t *testing.T) {
	app, _ := testApp(t, &fakeEngine{panics: true}, &fakeAdapter{})
	_, err := app.Solve(context.Background(), baseRequest(), nil)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeEngineInternal))
}

func TestApp_ComputeMatrix_CachesAcrossCalls(t *testing.T) {
	fa := &fakeAdapter{m: &adapters.Matrix{Distances: [][]int64{{0, 1}, {1, 0}}}}
	app, _ := testApp(t, &fakeEngine{}, fa)

	req := &adapters.Request{
		Origins:      []adapters.Point{{Geo: &geo.Coordinate{Lat: 1, Lon: 2}}},
		Destinations: []adapters.Point{{Geo: &geo.Coordinate{Lat: 3, Lon: 4}}},
	}

	m1, err := app.ComputeMatrix(context.Background(), "fake", req)
	require.NoError(t, err)
	m2, err := app.ComputeMatrix(context.Background(), "fake", req)
	require.NoError(t, err)

	assert.Equal(t, m1, m2)
	assert.Equal(t, 1, fa.calls, "adapter must be invoked at most once for the same fingerprint")
}

func TestApp_ComputeMatrix_RejectsUnknownAdapter(t *testing.T) {
	app, _ := testApp(t, &fakeEngine{}, &fakeAdapter{})
	req := &adapters.Request{Coordinates: []adapters.Point{{Geo: &geo.Coordinate{Lat: 1, Lon: 2}}}}
	_, err := app.ComputeMatrix(context.Background(), "nope", req)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.CodeResourceNotFound))
}
