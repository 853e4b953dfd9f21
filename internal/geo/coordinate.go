// Package geo canonicalizes the open-vocabulary coordinate shapes that
// arrive at the HTTP edge (two-element arrays, objects with aliased field
// names) into a single {Lat, Lon} representation, and carries the planar
// "solver space" alongside the geographic "display space" on a Waypoint.
package geo

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/vrprouting/vrp-service/pkg/apperror"
)

// Coordinate is a canonicalized geographic point in WGS84 degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Planar is a point in the unspecified Euclidean "solver space" used by
// planar benchmark instances.
type Planar struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// latAliases and lonAliases are tried in order; the first key present wins.
var (
	latAliases = []string{"lat", "latitude"}
	lonAliases = []string{"lon", "lng", "longitude"}
)

// CoerceCoordinate canonicalizes a raw JSON coordinate into a Coordinate.
// It accepts, in order of precedence:
//
//  1. a two-element array/tuple [a, b],
//  2. an object with one of the recognized lat/lon field-name aliases,
//
// then applies the ambiguous-shape disambiguation: if exactly one of the two
// values has |v| > 90 it is assumed to be the longitude regardless of
// position, swapping the pair. Anything else is rejected as InputInvalid
// rather than guessed at.
func CoerceCoordinate(raw json.RawMessage) (Coordinate, error) {
	if len(raw) == 0 {
		return Coordinate{}, apperror.NewWithField(apperror.CodeInputInvalid, "coordinate is required", "coordinate")
	}

	// Two-element array form: [a, b].
	var pair []float64
	if err := json.Unmarshal(raw, &pair); err == nil {
		if len(pair) != 2 {
			return Coordinate{}, apperror.NewWithField(apperror.CodeInputInvalid,
				fmt.Sprintf("coordinate array must have exactly 2 elements, got %d", len(pair)), "coordinate")
		}
		return disambiguate(pair[0], pair[1])
	}

	// Object form with aliased field names.
	var obj map[string]float64
	if err := json.Unmarshal(raw, &obj); err == nil {
		lat, latOK := firstPresent(obj, latAliases)
		lon, lonOK := firstPresent(obj, lonAliases)
		if latOK && lonOK {
			return disambiguate(lat, lon)
		}
		return Coordinate{}, apperror.NewWithField(apperror.CodeInputInvalid,
			"coordinate object missing recognized lat/lon field names", "coordinate")
	}

	return Coordinate{}, apperror.NewWithField(apperror.CodeInputInvalid,
		"coordinate must be a 2-element array or an object with lat/lon fields", "coordinate")
}

func firstPresent(obj map[string]float64, aliases []string) (float64, bool) {
	for _, key := range aliases {
		if v, ok := obj[key]; ok {
			return v, true
		}
	}
	return 0, false
}

// disambiguate resolves the swap ambiguity for a (a, b) pair assumed to be
// (lat, lon): if |a| > 90 and |b| <= 90, the pair is backwards and is
// swapped.
func disambiguate(a, b float64) (Coordinate, error) {
	lat, lon := a, b
	if math.Abs(a) > 90 && math.Abs(b) <= 90 {
		lat, lon = b, a
	}
	if math.Abs(lat) > 90 {
		return Coordinate{}, apperror.NewWithField(apperror.CodeInputInvalid,
			fmt.Sprintf("latitude %.6f out of range [-90, 90]", lat), "coordinate")
	}
	if math.Abs(lon) > 180 {
		return Coordinate{}, apperror.NewWithField(apperror.CodeInputInvalid,
			fmt.Sprintf("longitude %.6f out of range [-180, 180]", lon), "coordinate")
	}
	return Coordinate{Lat: lat, Lon: lon}, nil
}
