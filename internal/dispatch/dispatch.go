// Package dispatch implements the Dispatch Facade and the Matrix Facade
// (§4.9, §2 flow): the one place that threads a request through Normalizer
// → Registry → Engine → Enricher on the solve side, and Registry → TTL
// Cache → Adapter on the matrix side. Nothing outside this package resolves
// an engine or adapter by name.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"github.com/vrprouting/vrp-service/internal/adapters"
	"github.com/vrprouting/vrp-service/internal/enrich"
	"github.com/vrprouting/vrp-service/internal/engines"
	"github.com/vrprouting/vrp-service/internal/index"
	"github.com/vrprouting/vrp-service/internal/normalize"
	"github.com/vrprouting/vrp-service/internal/registry"
	"github.com/vrprouting/vrp-service/internal/ttlcache"
	"github.com/vrprouting/vrp-service/internal/vrp"
	"github.com/vrprouting/vrp-service/pkg/apperror"
	pkgcache "github.com/vrprouting/vrp-service/pkg/cache"
	"github.com/vrprouting/vrp-service/pkg/config"
	"github.com/vrprouting/vrp-service/pkg/logger"
	"github.com/vrprouting/vrp-service/pkg/metrics"
)

// App is the single process-wide object that owns the two registries, the
// matrix TTL cache, and the configured data root. It is constructed once in
// main and threaded explicitly into every handler; nothing here is a
// package-level var.
type App struct {
	cfg      *config.Config
	adapters *registry.Registry[adapters.Adapter]
	engines  *registry.Registry[engines.Engine]
	index    *index.Index

	localCache *ttlcache.Cache[*adapters.Matrix]
	distCache  *pkgcache.MatrixCache // nil when distributed caching is disabled

	normalizeOpts normalize.Options
}

// New constructs the facade over already-populated registries. Adapters and
// engines are registered by the caller (cmd/vrpd's registerAdapters and
// registerEngines) before
// this is built; App never registers anything itself.
func New(cfg *config.Config, adapterRegistry *registry.Registry[adapters.Adapter], engineRegistry *registry.Registry[engines.Engine], idx *index.Index, dist *pkgcache.MatrixCache) *App {
	maxEntries := cfg.Cache.MaxEntries
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	return &App{
		cfg:        cfg,
		adapters:   adapterRegistry,
		engines:    engineRegistry,
		index:      idx,
		localCache: ttlcache.New[*adapters.Matrix](maxEntries),
		distCache:  dist,
	}
}

// AdapterNames lists the registered matrix adapter names, sorted.
func (a *App) AdapterNames() []string { return a.adapters.List() }

// EngineNames lists the registered solver engine names, sorted.
func (a *App) EngineNames() []string { return a.engines.List() }

// Index exposes the benchmark index to callers building /benchmarks
// handlers; it is read-only from the handler's perspective.
func (a *App) Index() *index.Index { return a.index }

// Solve runs the Dispatch Facade's state machine: RECEIVED → NORMALIZED →
// ENGINE-REQUIRED-CHECK → INVOKED → ENRICHED → RETURNED. Any panic inside
// the engine invocation is recovered and converted to EngineInternal,
// never silently swallowed, per §7.
func (a *App) Solve(ctx context.Context, req *vrp.SolveRequest, waypoints []vrp.Waypoint) (routes *vrp.Routes, err error) {
	// RECEIVED
	if req.EngineName == "" {
		return nil, apperror.ErrMissingEngine
	}
	engine, err := a.engines.Get(req.EngineName)
	if err != nil {
		return nil, apperror.New(apperror.CodeResourceNotFound, "unknown solver engine").WithDetails("engine", req.EngineName)
	}

	// NORMALIZED
	canonical, err := normalize.Normalize(req, waypoints, a.normalizeOpts)
	if err != nil {
		return nil, err
	}

	// ENGINE-REQUIRED-CHECK: normalize already guarantees a matrix whenever
	// it succeeds (auto-building one from waypoints if necessary), but the
	// facade re-asserts the invariant at its own boundary rather than
	// trusting an upstream component silently.
	if canonical.Matrix == nil {
		return nil, apperror.ErrMatrixRequired
	}
	canonical.TimeLimitSeconds = a.clampTimeLimit(canonical.TimeLimitSeconds)

	// INVOKED
	start := time.Now()
	routes, err = a.invoke(ctx, engine, canonical)
	duration := time.Since(start)
	if err != nil {
		if m := metrics.Get(); m != nil {
			m.RecordSolve(req.EngineName, false, duration, 0, 0, 0)
		}
		return nil, err
	}
	if m := metrics.Get(); m != nil {
		m.RecordSolve(req.EngineName, true, duration, routes.VehiclesUsed, float64(routes.TotalDistance), len(routes.Dropped))
	}

	// ENRICHED
	enrich.Enrich(routes, canonical.Matrix, canonical.Fleet)

	// RETURNED
	return routes, nil
}

// invoke calls the engine under a recover, converting any panic into a typed
// EngineInternal error instead of letting it escape the facade.
func (a *App) invoke(ctx context.Context, engine engines.Engine, req *vrp.SolveRequest) (routes *vrp.Routes, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("engine panicked", "engine", req.EngineName, "panic", r)
			err = apperror.AsAppError(fmt.Errorf("%s: panic: %v", req.EngineName, r))
			routes = nil
		}
	}()
	return engine.Solve(ctx, req)
}

func (a *App) clampTimeLimit(requested float64) float64 {
	def := a.cfg.Engines.DefaultTimeLimit.Seconds()
	maxLimit := a.cfg.Engines.MaxTimeLimit.Seconds()
	if requested <= 0 {
		requested = def
	}
	if maxLimit > 0 && requested > maxLimit {
		requested = maxLimit
	}
	return requested
}

// ComputeMatrix runs the Matrix Facade: resolve the adapter via the
// registry, consult the TTL cache by fingerprint, and on a miss invoke the
// adapter and store the result. Concurrent callers on the same fingerprint
// invoke the adapter at most once (ttlcache.Cache.GetOrCompute).
func (a *App) ComputeMatrix(ctx context.Context, adapterName string, req *adapters.Request) (*adapters.Matrix, error) {
	if adapterName == "" {
		return nil, apperror.NewWithField(apperror.CodeInputInvalid, "adapter name is required", "adapter")
	}
	if err := req.FillAndCoerce(); err != nil {
		return nil, err
	}

	adapter, err := a.adapters.Get(adapterName)
	if err != nil {
		return nil, apperror.New(apperror.CodeResourceNotFound, "unknown matrix adapter").WithDetails("adapter", adapterName)
	}

	fingerprint := fingerprintRequest(adapterName, req)
	ttl := a.cfg.Cache.DefaultTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	_, localHit := a.localCache.Get(fingerprint)
	computedFromAdapter := false

	start := time.Now()
	matrix, err := a.localCache.GetOrCompute(ctx, fingerprint, ttl, func(ctx context.Context) (*adapters.Matrix, error) {
		if a.distCache != nil {
			if cached, hit, derr := a.distCache.Get(ctx, fingerprint); derr == nil && hit {
				if m := fromCachedMatrix(cached); m != nil {
					return m, nil
				}
			}
		}

		computedFromAdapter = true
		m, err := adapter.Compute(ctx, req)
		if err != nil {
			return nil, err
		}

		if a.distCache != nil {
			_ = a.distCache.Set(ctx, fingerprint, toCachedMatrix(adapterName, m), ttl) //nolint:errcheck // best effort; local cache already holds the value
		}
		return m, nil
	})
	if m := metrics.Get(); m != nil {
		m.RecordMatrixCacheOutcome(localHit)
		if computedFromAdapter {
			m.RecordMatrixAdapterCall(adapterName, err == nil, time.Since(start), len(req.Origins)*len(req.Destinations))
		}
	}
	return matrix, err
}

func fingerprintRequest(adapter string, req *adapters.Request) string {
	return pkgcache.MatrixFingerprint(adapter, toWaypoints(req.Origins), toWaypoints(req.Destinations), req.Parameters)
}

func toWaypoints(points []adapters.Point) []pkgcache.Waypoint {
	out := make([]pkgcache.Waypoint, len(points))
	for i, p := range points {
		switch {
		case p.Geo != nil:
			out[i] = pkgcache.Waypoint{Lat: p.Geo.Lat, Lon: p.Geo.Lon}
		case p.Planar != nil:
			out[i] = pkgcache.Waypoint{Lat: p.Planar.Y, Lon: p.Planar.X}
		}
	}
	return out
}

func toCachedMatrix(adapterName string, m *adapters.Matrix) *pkgcache.CachedMatrix {
	return &pkgcache.CachedMatrix{
		Distances: toFloatRows(m.Distances),
		Durations: toFloatRows(m.Durations),
		Adapter:   adapterName,
	}
}

func fromCachedMatrix(c *pkgcache.CachedMatrix) *adapters.Matrix {
	if c == nil {
		return nil
	}
	return &adapters.Matrix{
		Distances: toIntRows(c.Distances),
		Durations: toIntRows(c.Durations),
	}
}

func toFloatRows(rows [][]int64) [][]float64 {
	if rows == nil {
		return nil
	}
	out := make([][]float64, len(rows))
	for i, row := range rows {
		out[i] = make([]float64, len(row))
		for j, v := range row {
			out[i][j] = float64(v)
		}
	}
	return out
}

func toIntRows(rows [][]float64) [][]int64 {
	if rows == nil {
		return nil
	}
	out := make([][]int64, len(rows))
	for i, row := range rows {
		out[i] = make([]int64, len(row))
		for j, v := range row {
			out[i][j] = int64(v)
		}
	}
	return out
}
