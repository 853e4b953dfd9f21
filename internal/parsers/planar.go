// Package parsers turns benchmark instance files (planar TSPLIB-style,
// Solomon-style, XML) into the canonical vrp.Instance shape (§4.4).
package parsers

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/vrprouting/vrp-service/internal/geo"
	"github.com/vrprouting/vrp-service/internal/vrp"
	"github.com/vrprouting/vrp-service/pkg/apperror"
)

// Planar parses TSPLIB-style .vrp files: header fields followed by
// NODE_COORD_SECTION, DEMAND_SECTION, DEPOT_SECTION, and optionally
// TIME_WINDOW_SECTION, SERVICE_TIME_SECTION, EDGE_WEIGHT_SECTION.
type Planar struct{}

// NewPlanar constructs a Planar parser.
func NewPlanar() *Planar {
	return &Planar{}
}

// Parse reads a TSPLIB-style instance. Node ids in the file are 1-based;
// the returned Instance's DepotIndex and all node indices are 0-based.
func (p *Planar) Parse(r io.Reader) (*vrp.Instance, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	header := make(map[string]string)
	coords := make(map[int]geo.Planar)
	demands := make(map[int]int64)
	windows := make(map[int][2]int64)
	serviceTimes := make(map[int]int64)
	var edgeWeights [][]int64
	depotIDs := []int{}
	capacity := int64(0)
	vehicleCount := 0

	var section string
	var edgeWeightRow []int64
	dimension := 0

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line == "EOF" {
			continue
		}

		if strings.Contains(line, ":") && !isSectionHeader(line) {
			parts := strings.SplitN(line, ":", 2)
			key := strings.TrimSpace(parts[0])
			val := strings.TrimSpace(parts[1])
			header[key] = val
			switch key {
			case "DIMENSION":
				dimension, _ = strconv.Atoi(val)
			case "CAPACITY":
				capacity, _ = strconv.ParseInt(val, 10, 64)
			case "VEHICLES":
				vehicleCount, _ = strconv.Atoi(val)
			}
			continue
		}

		if isSectionHeader(line) {
			section = strings.TrimSuffix(strings.TrimSpace(line), ":")
			edgeWeightRow = nil
			continue
		}

		fields := strings.Fields(line)
		switch section {
		case "NODE_COORD_SECTION":
			if len(fields) < 3 {
				continue
			}
			id, _ := strconv.Atoi(fields[0])
			x, _ := strconv.ParseFloat(fields[1], 64)
			y, _ := strconv.ParseFloat(fields[2], 64)
			coords[id] = geo.Planar{X: x, Y: y}
		case "DEMAND_SECTION":
			if len(fields) < 2 {
				continue
			}
			id, _ := strconv.Atoi(fields[0])
			d, _ := strconv.ParseInt(fields[1], 10, 64)
			demands[id] = d
		case "DEPOT_SECTION":
			id, err := strconv.Atoi(fields[0])
			if err == nil && id > 0 {
				depotIDs = append(depotIDs, id)
			}
		case "TIME_WINDOW_SECTION":
			if len(fields) < 3 {
				continue
			}
			id, _ := strconv.Atoi(fields[0])
			start, _ := strconv.ParseInt(fields[1], 10, 64)
			end, _ := strconv.ParseInt(fields[2], 10, 64)
			if end < start {
				start, end = end, start
			}
			windows[id] = [2]int64{start, end}
		case "SERVICE_TIME_SECTION":
			if len(fields) < 2 {
				continue
			}
			id, _ := strconv.Atoi(fields[0])
			s, _ := strconv.ParseInt(fields[1], 10, 64)
			serviceTimes[id] = s
		case "EDGE_WEIGHT_SECTION":
			for _, f := range fields {
				v, err := strconv.ParseFloat(f, 64)
				if err != nil {
					continue
				}
				edgeWeightRow = append(edgeWeightRow, int64(math.Round(v)))
			}
			if dimension > 0 && len(edgeWeightRow) >= dimension {
				edgeWeights = append(edgeWeights, edgeWeightRow[:dimension])
				edgeWeightRow = edgeWeightRow[dimension:]
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInputInvalid, "planar parser: scan instance")
	}

	if len(coords) == 0 {
		return nil, apperror.New(apperror.CodeInputInvalid, "planar parser: missing NODE_COORD_SECTION")
	}

	ids := sortedKeys(coords)
	idToIndex := make(map[int]int, len(ids))
	for idx, id := range ids {
		idToIndex[id] = idx
	}

	waypoints := make([]vrp.Waypoint, len(ids))
	for idx, id := range ids {
		c := coords[id]
		wp := vrp.Waypoint{
			ID:     strconv.Itoa(id),
			Planar: &geo.Planar{X: c.X, Y: c.Y},
			Geo:    &geo.Coordinate{Lat: c.X, Lon: c.Y}, // legacy (x,y)-as-(lat,lon), per §4.4
		}
		if d, ok := demands[id]; ok {
			wp.Demand = []int64{d}
		}
		if s, ok := serviceTimes[id]; ok {
			wp.ServiceSeconds = s
		}
		if w, ok := windows[id]; ok {
			start, end := w[0], w[1]
			wp.WindowStart = &start
			wp.WindowEnd = &end
		}
		waypoints[idx] = wp
	}

	depotIndex := 0
	if len(depotIDs) > 0 {
		if idx, ok := idToIndex[depotIDs[0]]; ok {
			depotIndex = idx
		}
	}
	waypoints[depotIndex].Depot = true
	widenDepotWindow(waypoints, depotIndex)

	if vehicleCount <= 0 {
		total := int64(0)
		for _, d := range demands {
			total += d
		}
		if capacity > 0 {
			vehicleCount = int(math.Ceil(float64(total) / float64(capacity)))
		}
		if vehicleCount < 1 {
			vehicleCount = 1
		}
		if vehicleCount > len(waypoints) {
			vehicleCount = len(waypoints)
		}
	}

	fleet := make([]vrp.Vehicle, vehicleCount)
	for i := range fleet {
		v := vrp.Vehicle{ID: fmt.Sprintf("vehicle-%d", i+1)}
		if capacity > 0 {
			v.Capacity = []int64{capacity}
		}
		fleet[i] = v
	}

	inst := &vrp.Instance{
		EdgeWeightType:   header["EDGE_WEIGHT_TYPE"],
		CoordinateSpaces: []string{"planar"},
		Waypoints:        waypoints,
		Fleet:            fleet,
		DepotIndex:       depotIndex,
		Meta:             header,
	}
	if len(edgeWeights) == dimension && dimension > 0 {
		inst.Matrix = &vrp.Matrix{Distances: edgeWeights}
	}
	return inst, nil
}

func isSectionHeader(line string) bool {
	trimmed := strings.TrimSuffix(line, ":")
	if trimmed == "" {
		return false
	}
	return strings.HasSuffix(trimmed, "SECTION") && strings.ToUpper(trimmed) == trimmed
}

func sortedKeys(m map[int]geo.Planar) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
