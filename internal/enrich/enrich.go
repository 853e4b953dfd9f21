// Package enrich implements the Metrics Enricher (§4.8): it recomputes each
// route's totals directly from the canonical matrix so downstream consumers
// see consistent units regardless of which engine produced the routes.
package enrich

import (
	"github.com/vrprouting/vrp-service/internal/vrp"
)

// Enrich recomputes total_distance, total_duration, and emissions for every
// route in routes, leaving all other fields (status, message, stops) as the
// engine returned them.
func Enrich(routes *vrp.Routes, m *vrp.Matrix, fleet []vrp.Vehicle) {
	if routes == nil || m == nil {
		return
	}

	fleetByID := make(map[string]vrp.Vehicle, len(fleet))
	for _, v := range fleet {
		fleetByID[v.ID] = v
	}

	var totalDistance, totalDuration int64
	for i := range routes.Routes {
		r := &routes.Routes[i]
		dist, dur := routeTotals(m, r.Stops)
		r.TotalDistance = dist
		if m.Durations != nil {
			r.TotalDuration = &dur
		}

		if veh, ok := fleetByID[r.VehicleID]; ok && veh.EmissionsPerKM != nil {
			kms := float64(dist) / 1000.0
			emissions := kms * *veh.EmissionsPerKM
			r.Emissions = &emissions
		}

		totalDistance += dist
		if m.Durations != nil {
			totalDuration += dur
		}
	}

	routes.TotalDistance = totalDistance
	routes.TotalDuration = totalDuration
}

// routeTotals sums matrix edges along a closed loop: depot (wherever the
// caller's stop sequence starts) through every stop and back. stops already
// includes the full sequence as the engine emitted it, so edges are summed
// consecutively without assuming a particular depot position.
func routeTotals(m *vrp.Matrix, stops []int) (distance, duration int64) {
	for i := 0; i+1 < len(stops); i++ {
		a, b := stops[i], stops[i+1]
		distance += m.Distances[a][b]
		if m.Durations != nil {
			duration += m.Durations[a][b]
		}
	}
	return distance, duration
}
