package adapters

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"

	lru "github.com/hashicorp/golang-lru"

	"github.com/vrprouting/vrp-service/internal/geo"
	"github.com/vrprouting/vrp-service/pkg/apperror"

	"github.com/katalvlaran/lvlath/core"
	"github.com/katalvlaran/lvlath/dijkstra"
)

// networkSpeedsKMH approximates travel speed by network type; used to turn
// a graph's length weight into a travel-time weight when no explicit speed
// data is available.
var networkSpeedsKMH = map[string]float64{
	"driving": 50.0,
	"walking": 5.0,
	"cycling": 15.0,
}

// builtGraph bundles the two weightings computed from one node set: length
// in meters and travel-time in seconds. Dijkstra is run twice, once per
// weighting, since lvlath's core.Graph carries a single weight per edge.
type builtGraph struct {
	length   *core.Graph
	duration *core.Graph
	ids      []string // node id per input point index
	points   []geo.Coordinate
}

// LocalGraph builds a road-like graph over the points of a single request
// (the union of origins and destinations) and computes shortest paths with
// lvlath's Dijkstra implementation. Built graphs are cached by
// (centroid-bucket, buffer, network-type) to amortize repeated construction
// for nearby requests, with a per-key lock preventing duplicate concurrent
// builds (§5, "the local-graph adapter shares a process-wide graph LRU").
// A cached graph is reused only when its point set equals the request's;
// otherwise the graph is rebuilt and replaces the cache entry.
//
// This implementation has no access to a real road network import (no OSM
// ingestion is wired into this module — see DESIGN.md); it builds a
// complete graph over the request's own points, weighted by haversine
// length and a network-type speed model. Points are used as given (no
// snapping to a network), and BufferMeters only takes part in the cache key.
type LocalGraph struct {
	BufferMeters float64
	NetworkType  string

	mu        sync.Mutex
	buildLock map[string]*sync.Mutex
	cache     *lru.Cache
}

// NewLocalGraph constructs a LocalGraph adapter with an LRU of cacheSize
// built graphs.
func NewLocalGraph(bufferMeters float64, networkType string, cacheSize int) (*LocalGraph, error) {
	if cacheSize <= 0 {
		cacheSize = 64
	}
	cache, err := lru.New(cacheSize)
	if err != nil {
		return nil, fmt.Errorf("local graph adapter: %w", err)
	}
	if networkType == "" {
		networkType = "driving"
	}
	return &LocalGraph{
		BufferMeters: bufferMeters,
		NetworkType:  networkType,
		buildLock:    make(map[string]*sync.Mutex),
		cache:        cache,
	}, nil
}

// centroidBucketKey quantizes a centroid to a coarse grid cell so nearby
// requests share a cache entry.
func centroidBucketKey(c geo.Coordinate, bufferMeters float64, networkType string) string {
	const cellDegrees = 0.01 // ~1.1km at the equator
	latCell := math.Round(c.Lat / cellDegrees)
	lonCell := math.Round(c.Lon / cellDegrees)
	return fmt.Sprintf("%g,%g|%g|%s", latCell, lonCell, bufferMeters, networkType)
}

func (l *LocalGraph) lockFor(key string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.buildLock[key]
	if !ok {
		m = &sync.Mutex{}
		l.buildLock[key] = m
	}
	return m
}

// Compute implements Adapter.
func (l *LocalGraph) Compute(_ context.Context, req *Request) (*Matrix, error) {
	if err := req.FillAndCoerce(); err != nil {
		return nil, err
	}

	points, originIdx, destIdx, err := l.mergeUnique(req.Origins, req.Destinations)
	if err != nil {
		return nil, err
	}

	key := centroidBucketKey(geo.Centroid(points), l.BufferMeters, l.NetworkType)

	keyLock := l.lockFor(key)
	keyLock.Lock()
	defer keyLock.Unlock()

	var bg *builtGraph
	if cached, ok := l.cache.Get(key); ok && slices.Equal(cached.(*builtGraph).points, points) {
		bg = cached.(*builtGraph)
	} else {
		bg, err = l.build(points)
		if err != nil {
			return nil, err
		}
		l.cache.Add(key, bg)
	}

	distances := make([][]int64, len(originIdx))
	var durations [][]int64
	if req.WantDurations {
		durations = make([][]int64, len(originIdx))
	}

	for oi, origIdx := range originIdx {
		distRow := make([]int64, len(destIdx))
		var durRow []int64
		if req.WantDurations {
			durRow = make([]int64, len(destIdx))
		}

		distDist, _, err := dijkstra.Dijkstra(bg.length, dijkstra.Source(bg.ids[origIdx]))
		if err != nil {
			return nil, apperror.Wrap(err, apperror.CodeMatrixProviderFailure, "local graph adapter: length dijkstra failed")
		}

		var distDur map[string]int64
		if req.WantDurations {
			distDur, _, err = dijkstra.Dijkstra(bg.duration, dijkstra.Source(bg.ids[origIdx]))
			if err != nil {
				return nil, apperror.Wrap(err, apperror.CodeMatrixProviderFailure, "local graph adapter: duration dijkstra failed")
			}
		}

		for di, dstIdx := range destIdx {
			d, ok := distDist[bg.ids[dstIdx]]
			if !ok || d == math.MaxInt64 {
				d = 1_000_000_000 // unreachable sentinel, clamped to 10^6 km in meters
			}
			distRow[di] = d

			if req.WantDurations {
				dur, ok := distDur[bg.ids[dstIdx]]
				if !ok || dur == math.MaxInt64 {
					dur = 10_000_000 // unreachable sentinel, 10^7 s
				}
				durRow[di] = dur
			}
		}

		distances[oi] = distRow
		if req.WantDurations {
			durations[oi] = durRow
		}
	}

	return &Matrix{Distances: distances, Durations: durations}, nil
}

// mergeUnique deduplicates origins/destinations into one point set (by
// geographic identity) and returns the index of each request point within
// it, preserving the row/column correspondence contract.
func (l *LocalGraph) mergeUnique(origins, destinations []Point) (points []geo.Coordinate, originIdx, destIdx []int, err error) {
	seen := make(map[geo.Coordinate]int)

	resolve := func(p Point) (int, error) {
		c, err := p.RequireGeo()
		if err != nil {
			return 0, err
		}
		if idx, ok := seen[c]; ok {
			return idx, nil
		}
		idx := len(points)
		seen[c] = idx
		points = append(points, c)
		return idx, nil
	}

	originIdx = make([]int, len(origins))
	for i, p := range origins {
		idx, e := resolve(p)
		if e != nil {
			return nil, nil, nil, e
		}
		originIdx[i] = idx
	}

	destIdx = make([]int, len(destinations))
	for j, p := range destinations {
		idx, e := resolve(p)
		if e != nil {
			return nil, nil, nil, e
		}
		destIdx[j] = idx
	}

	return points, originIdx, destIdx, nil
}

// build constructs a complete graph over points, weighted by haversine
// length and a network-type speed estimate for duration.
func (l *LocalGraph) build(points []geo.Coordinate) (*builtGraph, error) {
	speed := networkSpeedsKMH[l.NetworkType]
	if speed == 0 {
		speed = networkSpeedsKMH["driving"]
	}

	ids := make([]string, len(points))
	lengthGraph := core.NewGraph(core.WithWeighted())
	durationGraph := core.NewGraph(core.WithWeighted())

	for i := range points {
		ids[i] = fmt.Sprintf("n%d", i)
		if err := lengthGraph.AddVertex(ids[i]); err != nil {
			return nil, apperror.Wrap(err, apperror.CodeEngineInternal, "local graph adapter: add vertex")
		}
		if err := durationGraph.AddVertex(ids[i]); err != nil {
			return nil, apperror.Wrap(err, apperror.CodeEngineInternal, "local graph adapter: add vertex")
		}
	}

	for i := range points {
		for j := i + 1; j < len(points); j++ {
			lengthMeters := geo.HaversineMeters(points[i], points[j])
			durationSeconds := lengthMeters / 1000.0 / speed * 3600.0

			if _, err := lengthGraph.AddEdge(ids[i], ids[j], int64(math.Round(lengthMeters))); err != nil {
				return nil, apperror.Wrap(err, apperror.CodeEngineInternal, "local graph adapter: add edge")
			}
			if _, err := lengthGraph.AddEdge(ids[j], ids[i], int64(math.Round(lengthMeters))); err != nil {
				return nil, apperror.Wrap(err, apperror.CodeEngineInternal, "local graph adapter: add edge")
			}
			if _, err := durationGraph.AddEdge(ids[i], ids[j], int64(math.Round(durationSeconds))); err != nil {
				return nil, apperror.Wrap(err, apperror.CodeEngineInternal, "local graph adapter: add edge")
			}
			if _, err := durationGraph.AddEdge(ids[j], ids[i], int64(math.Round(durationSeconds))); err != nil {
				return nil, apperror.Wrap(err, apperror.CodeEngineInternal, "local graph adapter: add edge")
			}
		}
	}

	return &builtGraph{length: lengthGraph, duration: durationGraph, ids: ids, points: points}, nil
}
