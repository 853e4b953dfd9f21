// Package vrp holds the canonical, engine-agnostic data shapes shared by
// parsers, the input normalizer, solver engines, the metrics enricher, and
// the dispatch facade: one instance shape in, one routes shape out,
// regardless of which parser or engine produced or consumed it.
package vrp

import "github.com/vrprouting/vrp-service/internal/geo"

// Vehicle is one unit of the fleet. StartIndex/EndIndex default to the
// instance's depot when nil.
type Vehicle struct {
	ID             string   `json:"id"`
	Capacity       []int64  `json:"capacity,omitempty"`
	StartIndex     *int     `json:"start_index,omitempty"`
	EndIndex       *int     `json:"end_index,omitempty"`
	WindowStart    *int64   `json:"window_start,omitempty"`
	WindowEnd      *int64   `json:"window_end,omitempty"`
	EmissionsPerKM *float64 `json:"emissions_per_km,omitempty"`
}

// Waypoint is one stop: an identifier, one or both coordinate spaces, a
// demand vector, a service duration, and an optional time window. A
// Waypoint must expose at least one usable coordinate space.
type Waypoint struct {
	ID             string          `json:"id"`
	Geo            *geo.Coordinate `json:"geo,omitempty"`
	Planar         *geo.Planar     `json:"planar,omitempty"`
	Demand         []int64         `json:"demand,omitempty"`
	ServiceSeconds int64           `json:"service_seconds,omitempty"`
	WindowStart    *int64          `json:"window_start,omitempty"`
	WindowEnd      *int64          `json:"window_end,omitempty"`
	Depot          bool            `json:"depot,omitempty"`
}

// PickupDeliveryPair couples two non-depot node indices that must be served
// by the same vehicle, pickup before delivery.
type PickupDeliveryPair struct {
	PickupIndex   int    `json:"pickup_index"`
	DeliveryIndex int    `json:"delivery_index"`
	Quantity      *int64 `json:"quantity,omitempty"`
}

// Matrix is the canonical distance/duration table at the engine boundary:
// integer meters and, when present, integer seconds. Unreachable pairs use
// a large finite sentinel rather than infinity.
type Matrix struct {
	Distances [][]int64 `json:"distances"`
	Durations [][]int64 `json:"durations,omitempty"` // nil when no duration data exists
}

// Size returns the matrix's row count, used as N throughout normalization.
func (m *Matrix) Size() int {
	if m == nil {
		return 0
	}
	return len(m.Distances)
}

// Weights scales the solver engines' arc cost: distance meters plus time
// (converted to hours) each contribute according to their weight.
type Weights struct {
	Distance float64 `json:"distance"`
	Time     float64 `json:"time"`
}

// Instance is the canonical output of every parser (§4.4): one shape
// regardless of source file format.
type Instance struct {
	EdgeWeightType   string            `json:"edge_weight_type,omitempty"`
	CoordinateSpaces []string          `json:"coordinate_spaces,omitempty"` // e.g. "planar", "geo"
	Waypoints        []Waypoint        `json:"waypoints"`
	Fleet            []Vehicle         `json:"fleet"`
	DepotIndex       int               `json:"depot_index"`
	Matrix           *Matrix           `json:"matrix,omitempty"` // present only when the source file embeds a precomputed matrix
	Meta             map[string]string `json:"meta,omitempty"`
}

// SolveRequest is the normalized input to a solver engine.
type SolveRequest struct {
	EngineName          string               `json:"engine_name"`
	Fleet               []Vehicle            `json:"fleet"`
	DepotIndex          int                  `json:"depot_index"`
	Matrix              *Matrix              `json:"matrix,omitempty"`
	Demands             [][]int64            `json:"demands,omitempty"`
	NodeTimeWindows     [][2]int64           `json:"node_time_windows,omitempty"`
	ServiceTimes        []int64              `json:"service_times,omitempty"`
	PickupDeliveryPairs []PickupDeliveryPair `json:"pickup_delivery_pairs,omitempty"`
	Weights             Weights              `json:"weights"`
	Waypoints           []Waypoint           `json:"waypoints,omitempty"` // coordinate-mode engines only
	AllowDrop           bool                 `json:"allow_drop,omitempty"`
	TimeLimitSeconds    float64              `json:"time_limit_seconds,omitempty"`
}

// Route is one vehicle's ordered stop sequence, starting and ending at its
// start/end node.
type Route struct {
	VehicleID     string            `json:"vehicle_id"`
	Stops         []int             `json:"stops"`
	TotalDistance int64             `json:"total_distance"`
	TotalDuration *int64            `json:"total_duration,omitempty"`
	Emissions     *float64          `json:"emissions,omitempty"`
	Meta          map[string]string `json:"meta,omitempty"`
}

// Routes is a solver engine's output: a status, a human-readable summary,
// aggregate counts, and the per-vehicle routes themselves. A non-depot node
// appears in at most one Route, or in Dropped when allowed to be skipped.
type Routes struct {
	Status        string  `json:"status"`
	Message       string  `json:"message,omitempty"`
	VehiclesUsed  int     `json:"vehicles_used"`
	Served        int     `json:"served"`
	Dropped       []int   `json:"dropped,omitempty"`
	TotalDistance int64   `json:"total_distance"`
	TotalDuration int64   `json:"total_duration"`
	Routes        []Route `json:"routes"`
}
