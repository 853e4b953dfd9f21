package engines

import (
	"context"
	"strconv"
	"time"

	"github.com/nextmv-io/sdk/route"
	"github.com/nextmv-io/sdk/store"

	"github.com/vrprouting/vrp-service/internal/vrp"
)

// defaultUnassignedPenalty is charged per dropped stop when AllowDrop is set
// and the caller supplied no stronger signal. It is large enough that the
// solver only drops a stop when genuinely infeasible to serve.
const defaultUnassignedPenalty = 100_000

// Metaheuristic solves multi-vehicle routing with capacity, time windows,
// and pickup/delivery precedence via nextmv's local-search Router.
//
// Vehicles are modeled with a single shared depot (req.DepotIndex): every
// non-depot matrix index becomes a stop, every vehicle starts and ends at
// the depot. Per-vehicle start/end overrides are not modeled here.
type Metaheuristic struct{}

// NewMetaheuristic constructs the metaheuristic routing engine.
func NewMetaheuristic() *Metaheuristic {
	return &Metaheuristic{}
}

func (e *Metaheuristic) Solve(ctx context.Context, req *vrp.SolveRequest) (*vrp.Routes, error) {
	if req.Matrix == nil {
		return nil, errEngine("metaheuristic", "request carries no distance matrix")
	}
	if len(req.Fleet) == 0 {
		return nil, errEngine("metaheuristic", "at least one vehicle is required")
	}

	n := req.Matrix.Size()
	stopIdx := make([]int, 0, n-1)
	for i := 0; i < n; i++ {
		if i != req.DepotIndex {
			stopIdx = append(stopIdx, i)
		}
	}
	nStops := len(stopIdx)
	matrixIdxOf := func(internal int) int {
		if internal < nStops {
			return stopIdx[internal]
		}
		return req.DepotIndex
	}

	arcCost := matrixArcCost{distances: req.Matrix.Distances, durations: req.Matrix.Durations, weights: req.Weights, resolve: matrixIdxOf}
	arcIndexed := route.ByIndex(arcCost)

	stops := make([]route.Stop, nStops)
	quantities := make([]int, nStops)
	stopDurations := make([]route.Service, nStops)
	windows := make([]route.Window, nStops)
	penalties := make([]int, nStops)
	hasWindow := false
	for s := 0; s < nStops; s++ {
		mi := stopIdx[s]
		stops[s] = route.Stop{ID: strconv.Itoa(mi)}
		if mi < len(req.Demands) && len(req.Demands[mi]) > 0 {
			quantities[s] = int(req.Demands[mi][0])
		}
		if mi < len(req.ServiceTimes) {
			stopDurations[s] = route.Service{ID: stops[s].ID, Duration: int(req.ServiceTimes[mi])}
		}
		if mi < len(req.NodeTimeWindows) {
			w := req.NodeTimeWindows[mi]
			if w[1] > 0 {
				windows[s] = route.Window{
					TimeWindow: route.TimeWindow{
						Start: time.Unix(w[0], 0),
						End:   time.Unix(w[1], 0),
					},
					MaxWait: -1,
				}
				hasWindow = true
			}
		}
		if req.AllowDrop {
			penalties[s] = defaultUnassignedPenalty
		}
	}

	vehicles := make([]string, len(req.Fleet))
	capacities := make([]int, len(req.Fleet))
	hasCapacity := false
	shifts := make([]route.TimeWindow, len(req.Fleet))
	starts := make([]route.Position, len(req.Fleet))
	ends := make([]route.Position, len(req.Fleet))
	timeMeasures := make([]route.ByIndex, len(req.Fleet))
	for v, veh := range req.Fleet {
		vehicles[v] = veh.ID
		if len(veh.Capacity) > 0 {
			capacities[v] = int(veh.Capacity[0])
			hasCapacity = true
		}
		if veh.WindowStart != nil && veh.WindowEnd != nil {
			shifts[v] = route.TimeWindow{Start: time.Unix(*veh.WindowStart, 0), End: time.Unix(*veh.WindowEnd, 0)}
		}
		timeMeasures[v] = arcIndexed
	}

	opts := []route.RouterOption{
		route.Starts(starts),
		route.Ends(ends),
		route.Services(stopDurations),
		route.ValueFunctionMeasures(timeMeasures),
		route.TravelTimeMeasures(timeMeasures),
	}
	if hasCapacity {
		opts = append(opts, route.Capacity(quantities, capacities))
	}
	if hasWindow {
		opts = append(opts, route.Windows(windows))
		opts = append(opts, route.Shifts(shifts))
	}
	if req.AllowDrop {
		opts = append(opts, route.Unassigned(penalties))
	}
	if len(req.PickupDeliveryPairs) > 0 {
		opts = append(opts, route.Constraint(pickupDeliveryConstraint{
			pairs:    req.PickupDeliveryPairs,
			stopIdx:  stopIdx,
			depotIdx: req.DepotIndex,
		}, vehicles))
	}

	router, err := route.NewRouter(stops, vehicles, opts...)
	if err != nil {
		return nil, errEngine("metaheuristic", "router construction: "+err.Error())
	}

	solverOpts := store.Options{}
	solverOpts.Diagram.Expansion.Limit = 1
	if req.TimeLimitSeconds > 0 {
		solverOpts.Limits.Duration = time.Duration(req.TimeLimitSeconds * float64(time.Second))
	} else {
		solverOpts.Limits.Duration = 10 * time.Second
	}

	solver, err := router.Solver(solverOpts)
	if err != nil {
		return nil, errEngine("metaheuristic", "solver construction: "+err.Error())
	}

	last := solver.Last(ctx)
	if last == nil {
		return nil, errTransientStop("metaheuristic", "solver produced no solution within the time limit")
	}

	output, err := router.Format(last)
	if err != nil {
		return nil, errEngine("metaheuristic", "formatting solution: "+err.Error())
	}

	return toRoutes(output, req), nil
}

// matrixArcCost implements route.ByIndex over a precomputed distance/duration
// matrix, weighting distance and (hour-scaled) duration per req.Weights.
type matrixArcCost struct {
	distances [][]int64
	durations [][]int64
	weights   vrp.Weights
	resolve   func(int) int
}

func (m matrixArcCost) Cost(from, to int) float64 {
	a, b := m.resolve(from), m.resolve(to)
	cost := m.weights.Distance * float64(m.distances[a][b])
	if m.durations != nil && m.weights.Time != 0 {
		cost += m.weights.Time * float64(m.durations[a][b]) / 3600.0
	}
	return cost
}

// pickupDeliveryConstraint rejects any partial route where a delivery stop
// is visited before its paired pickup, or where the pickup is assigned to a
// different vehicle than its eventual delivery.
type pickupDeliveryConstraint struct {
	pairs    []vrp.PickupDeliveryPair
	stopIdx  []int
	depotIdx int
}

func (c pickupDeliveryConstraint) Violated(vehicle route.PartialVehicle) (route.VehicleConstraint, bool) {
	visited := vehicle.Route()
	position := make(map[int]int, len(visited))
	for pos, internal := range visited {
		position[c.resolveMatrixIdx(internal)] = pos
	}
	for _, pair := range c.pairs {
		pickupPos, pickupOK := position[pair.PickupIndex]
		deliveryPos, deliveryOK := position[pair.DeliveryIndex]
		if pickupOK != deliveryOK {
			return c, true // one half of the pair is on this vehicle, the other isn't
		}
		if pickupOK && deliveryOK && deliveryPos < pickupPos {
			return c, true
		}
	}
	return c, false
}

func (c pickupDeliveryConstraint) resolveMatrixIdx(internal int) int {
	if internal < len(c.stopIdx) {
		return c.stopIdx[internal]
	}
	return c.depotIdx
}

// toRoutes converts a formatted router solution into the canonical Routes
// shape, recomputing totals from stop order since the router's own totals
// are expressed in the weighted arc-cost unit, not raw meters/seconds.
func toRoutes(output route.Output, req *vrp.SolveRequest) *vrp.Routes {
	routes := make([]vrp.Route, 0, len(output.Vehicles))
	served := 0
	var totalDistance, totalDuration int64
	for _, v := range output.Vehicles {
		stops := make([]int, 0, len(v.Route))
		for _, s := range v.Route {
			idx, err := strconv.Atoi(s.ID)
			if err != nil {
				continue
			}
			stops = append(stops, idx)
		}
		var dist, dur int64
		full := make([]int, 0, len(stops)+2)
		full = append(full, req.DepotIndex)
		full = append(full, stops...)
		full = append(full, req.DepotIndex)
		for i := 0; i+1 < len(full); i++ {
			dist += req.Matrix.Distances[full[i]][full[i+1]]
			if req.Matrix.Durations != nil {
				dur += req.Matrix.Durations[full[i]][full[i+1]]
			}
		}
		var durPtr *int64
		if req.Matrix.Durations != nil {
			durPtr = &dur
		}
		routes = append(routes, vrp.Route{
			VehicleID:     v.ID,
			Stops:         full,
			TotalDistance: dist,
			TotalDuration: durPtr,
		})
		served += len(stops)
		totalDistance += dist
		totalDuration += dur
	}

	dropped := make([]int, 0, len(output.Unassigned))
	for _, s := range output.Unassigned {
		if idx, err := strconv.Atoi(s.ID); err == nil {
			dropped = append(dropped, idx)
		}
	}

	status := "optimal"
	if len(dropped) > 0 {
		status = "feasible"
	}

	return &vrp.Routes{
		Status:        status,
		VehiclesUsed:  len(routes),
		Served:        served,
		Dropped:       dropped,
		TotalDistance: totalDistance,
		TotalDuration: totalDuration,
		Routes:        routes,
	}
}
