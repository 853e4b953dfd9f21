package cache

import (
	"context"
	"encoding/json"
	"time"
)

// MatrixCache caches distance/duration matrices keyed by adapter fingerprint,
// avoiding repeat calls into rate-limited or paid online providers and
// avoiding rebuilding local road graphs across requests that share an origin
// set.
type MatrixCache struct {
	cache      Cache
	defaultTTL time.Duration
}

// CachedMatrix is the serialized form of a built distance/duration matrix.
type CachedMatrix struct {
	Distances  [][]float64 `json:"distances"`
	Durations  [][]float64 `json:"durations,omitempty"`
	Adapter    string      `json:"adapter"`
	ComputedAt time.Time   `json:"computed_at"`
}

// NewMatrixCache creates a cache wrapper for built matrices.
func NewMatrixCache(cache Cache, defaultTTL time.Duration) *MatrixCache {
	if defaultTTL <= 0 {
		defaultTTL = 10 * time.Minute
	}
	return &MatrixCache{cache: cache, defaultTTL: defaultTTL}
}

// Get looks up a previously built matrix by fingerprint.
func (mc *MatrixCache) Get(ctx context.Context, fingerprint string) (*CachedMatrix, bool, error) {
	key := BuildMatrixKey(fingerprint)

	data, err := mc.cache.Get(ctx, key)
	if err != nil {
		if err == ErrKeyNotFound {
			return nil, false, nil
		}
		return nil, false, err
	}

	var result CachedMatrix
	if err := json.Unmarshal(data, &result); err != nil {
		_ = mc.cache.Delete(ctx, key) //nolint:errcheck // best effort cleanup of corrupt entry
		return nil, false, nil
	}

	return &result, true, nil
}

// Set stores a built matrix under its fingerprint.
func (mc *MatrixCache) Set(ctx context.Context, fingerprint string, m *CachedMatrix, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = mc.defaultTTL
	}

	m.ComputedAt = time.Now()

	data, err := json.Marshal(m)
	if err != nil {
		return err
	}

	return mc.cache.Set(ctx, BuildMatrixKey(fingerprint), data, ttl)
}

// Invalidate removes the cached matrix for a fingerprint, if any.
func (mc *MatrixCache) Invalidate(ctx context.Context, fingerprint string) error {
	return mc.cache.Delete(ctx, BuildMatrixKey(fingerprint))
}

// InvalidateAll removes every cached matrix, e.g. after a local-graph
// network definition changes.
func (mc *MatrixCache) InvalidateAll(ctx context.Context) (int64, error) {
	return mc.cache.DeleteByPattern(ctx, "matrix:*")
}
