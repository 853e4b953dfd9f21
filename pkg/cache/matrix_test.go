package cache

import (
	"context"
	"testing"
	"time"
)

func TestMatrixCache_SetGet(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()

	matrixCache := NewMatrixCache(memCache, 5*time.Minute)

	ctx := context.Background()
	fp := MatrixFingerprint("euclidean", []Waypoint{{Lat: 1, Lon: 1}}, []Waypoint{{Lat: 2, Lon: 2}}, nil)

	m := &CachedMatrix{
		Distances: [][]float64{{0, 100}, {100, 0}},
		Durations: [][]float64{{0, 10}, {10, 0}},
		Adapter:   "euclidean",
	}

	if err := matrixCache.Set(ctx, fp, m, 0); err != nil {
		t.Fatalf("failed to set: %v", err)
	}

	got, found, err := matrixCache.Get(ctx, fp)
	if err != nil {
		t.Fatalf("failed to get: %v", err)
	}
	if !found {
		t.Fatal("expected to find cached matrix")
	}
	if got.Adapter != "euclidean" {
		t.Errorf("expected adapter euclidean, got %s", got.Adapter)
	}
	if len(got.Distances) != 2 {
		t.Errorf("expected 2 rows, got %d", len(got.Distances))
	}
}

func TestMatrixCache_GetNotFound(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()

	matrixCache := NewMatrixCache(memCache, 5*time.Minute)

	ctx := context.Background()
	fp := MatrixFingerprint("haversine", []Waypoint{{Lat: 1, Lon: 1}}, nil, nil)

	result, found, err := matrixCache.Get(ctx, fp)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Error("expected not found")
	}
	if result != nil {
		t.Error("expected nil result")
	}
}

func TestMatrixCache_DifferentParamsDifferentKey(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()

	matrixCache := NewMatrixCache(memCache, 5*time.Minute)

	ctx := context.Background()
	origins := []Waypoint{{Lat: 1, Lon: 1}}
	fpA := MatrixFingerprint("local_graph", origins, nil, map[string]string{"network_type": "driving"})
	fpB := MatrixFingerprint("local_graph", origins, nil, map[string]string{"network_type": "walking"})

	matrixCache.Set(ctx, fpA, &CachedMatrix{Adapter: "local_graph"}, 0)

	_, found, _ := matrixCache.Get(ctx, fpB)
	if found {
		t.Error("different parameters should not share a cache key")
	}
}

func TestMatrixCache_Invalidate(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()

	matrixCache := NewMatrixCache(memCache, 5*time.Minute)

	ctx := context.Background()
	fp := MatrixFingerprint("euclidean", []Waypoint{{Lat: 0, Lon: 0}}, nil, nil)

	matrixCache.Set(ctx, fp, &CachedMatrix{Adapter: "euclidean"}, 0)

	if err := matrixCache.Invalidate(ctx, fp); err != nil {
		t.Fatalf("failed to invalidate: %v", err)
	}

	_, found, _ := matrixCache.Get(ctx, fp)
	if found {
		t.Error("expected cache to be invalidated")
	}
}

func TestMatrixCache_InvalidateAll(t *testing.T) {
	memCache := NewMemoryCache(nil)
	defer memCache.Close()

	matrixCache := NewMatrixCache(memCache, 5*time.Minute)

	ctx := context.Background()
	fp1 := MatrixFingerprint("euclidean", []Waypoint{{Lat: 0, Lon: 0}}, nil, nil)
	fp2 := MatrixFingerprint("haversine", []Waypoint{{Lat: 1, Lon: 1}}, nil, nil)

	matrixCache.Set(ctx, fp1, &CachedMatrix{Adapter: "euclidean"}, 0)
	matrixCache.Set(ctx, fp2, &CachedMatrix{Adapter: "haversine"}, 0)

	count, err := matrixCache.InvalidateAll(ctx)
	if err != nil {
		t.Fatalf("failed to invalidate all: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 invalidated, got %d", count)
	}
}
