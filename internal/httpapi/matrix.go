package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/vrprouting/vrp-service/internal/adapters"
	"github.com/vrprouting/vrp-service/internal/geo"
)

// distanceMatrixRequest is the POST /distance-matrix body (§6): origins and
// destinations arrive in the open-vocabulary coordinate shape CoerceCoordinate
// accepts, not the canonical {lat,lon} object.
type distanceMatrixRequest struct {
	Adapter      string            `json:"adapter"`
	Origins      []json.RawMessage `json:"origins"`
	Destinations []json.RawMessage `json:"destinations"`
	Mode         string            `json:"mode"`
	Parameters   map[string]string `json:"parameters,omitempty"`
}

type matrixResponse struct {
	Distances [][]int64 `json:"distances"`
	Durations [][]int64 `json:"durations,omitempty"`
}

func (s *Server) handleDistanceMatrix(w http.ResponseWriter, r *http.Request) {
	var body distanceMatrixRequest
	if err := decodeJSON(r, &body); err != nil {
		writeError(w, err)
		return
	}

	origins, err := coercePoints(body.Origins)
	if err != nil {
		writeError(w, err)
		return
	}
	destinations, err := coercePoints(body.Destinations)
	if err != nil {
		writeError(w, err)
		return
	}

	req := &adapters.Request{
		Origins:       origins,
		Destinations:  destinations,
		Mode:          adapters.Mode(body.Mode),
		WantDurations: true,
		Parameters:    body.Parameters,
	}

	m, err := s.app.ComputeMatrix(r.Context(), body.Adapter, req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeData(w, map[string]any{
		"matrix": matrixResponse{Distances: m.Distances, Durations: m.Durations},
	})
}

func coercePoints(raw []json.RawMessage) ([]adapters.Point, error) {
	points := make([]adapters.Point, len(raw))
	for i, r := range raw {
		coord, err := geo.CoerceCoordinate(r)
		if err != nil {
			return nil, err
		}
		points[i] = adapters.Point{Geo: &coord}
	}
	return points, nil
}
