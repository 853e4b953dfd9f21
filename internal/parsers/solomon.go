package parsers

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vrprouting/vrp-service/internal/geo"
	"github.com/vrprouting/vrp-service/internal/vrp"
	"github.com/vrprouting/vrp-service/pkg/apperror"
)

// Solomon parses Solomon-style .txt instances: a VEHICLE header (count,
// capacity) followed by a CUSTOMER table (id, x, y, demand, ready, due,
// service). File units are minutes; every time field is converted to
// seconds (×60) so downstream components never see minute-scale values.
type Solomon struct{}

// NewSolomon constructs a Solomon parser.
func NewSolomon() *Solomon {
	return &Solomon{}
}

const minutesToSeconds = 60

// Parse reads a Solomon-style instance.
func (s *Solomon) Parse(r io.Reader) (*vrp.Instance, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var vehicleCount int
	var capacity int64
	var waypoints []vrp.Waypoint

	section := ""
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		upper := strings.ToUpper(line)
		switch {
		case upper == "VEHICLE":
			section = "VEHICLE_HEADER"
			continue
		case strings.HasPrefix(upper, "NUMBER") && strings.Contains(upper, "CAPACITY"):
			continue // column header row under VEHICLE
		case upper == "CUSTOMER":
			section = "CUSTOMER_HEADER"
			continue
		case strings.HasPrefix(upper, "CUST") && strings.Contains(upper, "XCOORD"):
			section = "CUSTOMER"
			continue
		}

		fields := strings.Fields(line)

		switch section {
		case "VEHICLE_HEADER":
			if len(fields) < 2 {
				continue
			}
			vehicleCount, _ = strconv.Atoi(fields[0])
			cap64, _ := strconv.ParseInt(fields[1], 10, 64)
			capacity = cap64
			section = ""
		case "CUSTOMER":
			if len(fields) < 7 {
				continue
			}
			id := fields[0]
			x, _ := strconv.ParseFloat(fields[1], 64)
			y, _ := strconv.ParseFloat(fields[2], 64)
			demand, _ := strconv.ParseInt(fields[3], 10, 64)
			readyMin, _ := strconv.ParseFloat(fields[4], 64)
			dueMin, _ := strconv.ParseFloat(fields[5], 64)
			serviceMin, _ := strconv.ParseFloat(fields[6], 64)

			if dueMin < readyMin {
				readyMin, dueMin = dueMin, readyMin
			}
			start := int64(readyMin * minutesToSeconds)
			end := int64(dueMin * minutesToSeconds)

			waypoints = append(waypoints, vrp.Waypoint{
				ID:             id,
				Planar:         &geo.Planar{X: x, Y: y},
				Demand:         []int64{demand},
				ServiceSeconds: int64(serviceMin * minutesToSeconds),
				WindowStart:    &start,
				WindowEnd:      &end,
			})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInputInvalid, "solomon parser: scan instance")
	}

	if len(waypoints) == 0 {
		return nil, apperror.New(apperror.CodeInputInvalid, "solomon parser: no customer rows found")
	}

	depotIndex := -1
	for i, wp := range waypoints {
		if wp.ID == "0" {
			depotIndex = i
			break
		}
	}
	if depotIndex == -1 {
		depotIndex = NewXML().smallestIDIndex(waypoints)
	}
	waypoints[depotIndex].Depot = true
	widenDepotWindow(waypoints, depotIndex)

	if vehicleCount <= 0 {
		vehicleCount = 1
	}
	fleet := make([]vrp.Vehicle, vehicleCount)
	for i := range fleet {
		v := vrp.Vehicle{ID: fmt.Sprintf("vehicle-%d", i+1)}
		if capacity > 0 {
			v.Capacity = []int64{capacity}
		}
		fleet[i] = v
	}

	return &vrp.Instance{
		EdgeWeightType:   "EUC_2D",
		CoordinateSpaces: []string{"planar"},
		Waypoints:        waypoints,
		Fleet:            fleet,
		DepotIndex:       depotIndex,
		Meta:             map[string]string{"format": "solomon"},
	}, nil
}
