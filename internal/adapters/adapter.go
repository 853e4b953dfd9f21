// Package adapters implements the pluggable matrix-computation backends
// (§4.3): Euclidean, Haversine, local road graph, and online providers. All
// adapters share one contract — Compute(origins, destinations, mode,
// parameters) → Matrix — and return integer meters/seconds directly, never
// floats, per SPEC_FULL.md's Open Question 2 decision.
package adapters

import (
	"context"

	"github.com/vrprouting/vrp-service/internal/geo"
	"github.com/vrprouting/vrp-service/pkg/apperror"
)

// Point carries whichever coordinate space a waypoint arrived with — the
// geographic "display space" for Haversine/local-graph/online adapters, the
// planar "solver space" for the Euclidean adapter — mirroring the data
// model's Waypoint duality (§3, "Coordinate ambiguity" design note).
type Point struct {
	Geo    *geo.Coordinate
	Planar *geo.Planar
}

// RequireGeo returns the point's geographic coordinate, or InputInvalid if
// the point carries no geographic space.
func (p Point) RequireGeo() (geo.Coordinate, error) {
	if p.Geo == nil {
		return geo.Coordinate{}, apperror.New(apperror.CodeInputInvalid, "point has no geographic coordinate")
	}
	return *p.Geo, nil
}

// RequirePlanar returns the point's planar coordinate, or InputInvalid if
// the point carries no planar space.
func (p Point) RequirePlanar() (geo.Planar, error) {
	if p.Planar == nil {
		return geo.Planar{}, apperror.New(apperror.CodeInputInvalid, "point has no planar coordinate")
	}
	return *p.Planar, nil
}

// Mode is the travel mode requested of an adapter.
type Mode string

const (
	ModeDriving Mode = "driving"
	ModeWalking Mode = "walking"
	ModeCycling Mode = "cycling"
)

// Matrix is the adapter contract's output: integer meters and, when
// requested, integer seconds. Row i corresponds to Origins[i], column j to
// Destinations[j]; this correspondence survives any internal deduplication
// an adapter performs.
type Matrix struct {
	Distances [][]int64
	Durations [][]int64 // nil if durations were not requested/available
}

// Request is a matrix computation request. Matrix-request field defaulting
// (a SUPPLEMENTED FEATURE grounded on the original's
// MatrixRequest.fill_and_coerce): when Origins/Destinations are both empty
// but Coordinates is set, Coordinates is used for both.
type Request struct {
	Origins      []Point
	Destinations []Point
	Coordinates  []Point
	Mode         Mode
	// WantDurations requests the optional duration table.
	WantDurations bool
	// Parameters carries string key/value pairs that take part in the
	// dispatch cache fingerprint; none of the built-in adapters reads them.
	Parameters map[string]string
}

// FillAndCoerce applies the origins/destinations defaulting rule and
// validates non-emptiness.
func (r *Request) FillAndCoerce() error {
	if len(r.Origins) == 0 && len(r.Destinations) == 0 && len(r.Coordinates) > 0 {
		r.Origins = r.Coordinates
		r.Destinations = r.Coordinates
	}
	if len(r.Origins) == 0 {
		return apperror.NewWithField(apperror.CodeInputInvalid, "origins must not be empty", "origins")
	}
	if len(r.Destinations) == 0 {
		return apperror.NewWithField(apperror.CodeInputInvalid, "destinations must not be empty", "destinations")
	}
	if r.Mode == "" {
		r.Mode = ModeDriving
	}
	return nil
}

// Adapter computes a Matrix between a request's origins and destinations.
type Adapter interface {
	Compute(ctx context.Context, req *Request) (*Matrix, error)
}

// ErrMatrixRequest wraps an upstream adapter failure, preserving the
// upstream status text when safe (§7 MatrixProviderFailure).
func ErrMatrixRequest(adapter, detail string) *apperror.Error {
	return apperror.New(apperror.CodeMatrixProviderFailure, "matrix provider "+adapter+" failed: "+detail)
}
