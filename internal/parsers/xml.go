package parsers

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/vrprouting/vrp-service/internal/geo"
	"github.com/vrprouting/vrp-service/internal/vrp"
	"github.com/vrprouting/vrp-service/pkg/apperror"
)

// xmlNode is a generic XML element: enough structure to walk an unknown
// schema looking for known tag names at any nesting depth.
type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Content  string     `xml:",chardata"`
	Children []xmlNode  `xml:",any"`
}

func (n *xmlNode) attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if strings.EqualFold(a.Name.Local, name) {
			return a.Value, true
		}
	}
	return "", false
}

func (n *xmlNode) childrenNamed(names ...string) []xmlNode {
	var out []xmlNode
	for _, c := range n.Children {
		for _, want := range names {
			if strings.EqualFold(c.XMLName.Local, want) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

// findContainer searches, breadth-first, for the first descendant whose tag
// matches one of names, optionally nested under any of the wrapper names.
func findContainer(root *xmlNode, wrappers, names []string) *xmlNode {
	queue := []*xmlNode{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if matches(cur.XMLName.Local, names) {
			return cur
		}
		if matches(cur.XMLName.Local, wrappers) || cur == root {
			for i := range cur.Children {
				queue = append(queue, &cur.Children[i])
			}
		}
	}
	return nil
}

func matches(name string, candidates []string) bool {
	for _, c := range candidates {
		if strings.EqualFold(name, c) {
			return true
		}
	}
	return false
}

// XML parses tolerant, loosely-schematized VRP instance documents: nodes
// live under a nodes|customers|vertices container, possibly nested in
// network|graph|data|instance; fleet lives under fleet|vehicles|vehicleInfo.
type XML struct{}

// NewXML constructs an XML parser.
func NewXML() *XML {
	return &XML{}
}

var containerWrappers = []string{"network", "graph", "data", "instance"}
var nodeContainerNames = []string{"nodes", "customers", "vertices"}
var nodeElementNames = []string{"node", "customer", "vertex"}
var fleetContainerNames = []string{"fleet", "vehicles", "vehicleInfo"}
var vehicleElementNames = []string{"vehicle", "vehicleProfile"}

// Parse reads a tolerant XML instance document.
func (x *XML) Parse(r io.Reader) (*vrp.Instance, error) {
	var root xmlNode
	if err := xml.NewDecoder(r).Decode(&root); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInputInvalid, "xml parser: decode document")
	}

	nodeContainer := findContainer(&root, containerWrappers, nodeContainerNames)
	if nodeContainer == nil {
		return nil, apperror.New(apperror.CodeInputInvalid, "xml parser: no nodes/customers/vertices container found")
	}

	nodeElements := nodeContainer.childrenNamed(nodeElementNames...)
	if len(nodeElements) == 0 {
		nodeElements = nodeContainer.Children
	}

	waypoints := make([]vrp.Waypoint, 0, len(nodeElements))
	depotIndex := -1

	for i, el := range nodeElements {
		wp, isDepot, err := x.parseWaypoint(&el, i)
		if err != nil {
			return nil, err
		}
		waypoints = append(waypoints, wp)
		if isDepot && depotIndex == -1 {
			depotIndex = i
		}
	}

	if len(waypoints) == 0 {
		return nil, apperror.New(apperror.CodeInputInvalid, "xml parser: node container had no recognizable node elements")
	}
	if depotIndex == -1 {
		depotIndex = x.smallestIDIndex(waypoints)
	}
	waypoints[depotIndex].Depot = true
	widenDepotWindow(waypoints, depotIndex)

	fleet := x.parseFleet(&root)
	if len(fleet) == 0 {
		fleet = []vrp.Vehicle{{ID: "vehicle-1"}}
	}

	return &vrp.Instance{
		EdgeWeightType:   "EUC_2D",
		CoordinateSpaces: []string{"planar", "geo"},
		Waypoints:        waypoints,
		Fleet:            fleet,
		DepotIndex:       depotIndex,
		Meta:             map[string]string{"format": "xml"},
	}, nil
}

func (x *XML) parseWaypoint(el *xmlNode, fallbackIdx int) (vrp.Waypoint, bool, error) {
	id, ok := el.attr("id")
	if !ok {
		id = fmt.Sprintf("%d", fallbackIdx)
	}

	wp := vrp.Waypoint{ID: id}

	if xEl := firstChild(el, "cx", "x", "lon", "longitude"); xEl != nil {
		if yEl := firstChild(el, "cy", "y", "lat", "latitude"); yEl != nil {
			xVal, err1 := strconv.ParseFloat(strings.TrimSpace(xEl.Content), 64)
			yVal, err2 := strconv.ParseFloat(strings.TrimSpace(yEl.Content), 64)
			if err1 == nil && err2 == nil {
				wp.Planar = &geo.Planar{X: xVal, Y: yVal}
				wp.Geo = &geo.Coordinate{Lat: yVal, Lon: xVal}
			}
		}
	}

	if demandEl := firstChild(el, "demand", "request"); demandEl != nil {
		if d, err := strconv.ParseInt(strings.TrimSpace(demandEl.Content), 10, 64); err == nil {
			wp.Demand = []int64{d}
		}
	}

	if serviceEl := firstChild(el, "service_time", "serviceTime", "duration"); serviceEl != nil {
		if s, err := strconv.ParseInt(strings.TrimSpace(serviceEl.Content), 10, 64); err == nil {
			wp.ServiceSeconds = s
		}
	}

	if twEl := firstChild(el, "time_window", "timeWindow"); twEl != nil {
		startEl := firstChild(twEl, "start", "open", "ready")
		endEl := firstChild(twEl, "end", "close", "due")
		if startEl != nil && endEl != nil {
			start, err1 := strconv.ParseInt(strings.TrimSpace(startEl.Content), 10, 64)
			end, err2 := strconv.ParseInt(strings.TrimSpace(endEl.Content), 10, 64)
			if err1 == nil && err2 == nil {
				if end < start {
					start, end = end, start
				}
				wp.WindowStart = &start
				wp.WindowEnd = &end
			}
		}
	}

	isDepot := false
	if typ, ok := el.attr("type"); ok && strings.EqualFold(typ, "depot") {
		isDepot = true
	}
	if _, ok := el.attr("isDepot"); ok {
		isDepot = true
	}
	if firstChild(el, "depot") != nil {
		isDepot = true
	}

	return wp, isDepot, nil
}

func (x *XML) parseFleet(root *xmlNode) []vrp.Vehicle {
	container := findContainer(root, containerWrappers, fleetContainerNames)
	if container == nil {
		return nil
	}

	elements := container.childrenNamed(vehicleElementNames...)
	if len(elements) == 0 {
		elements = container.Children
	}

	fleet := make([]vrp.Vehicle, 0, len(elements))
	for i, el := range elements {
		v := vrp.Vehicle{ID: fmt.Sprintf("vehicle-%d", i+1)}
		if id, ok := el.attr("id"); ok {
			v.ID = id
		}
		if capEl := firstChild(&el, "capacity"); capEl != nil {
			if c, err := strconv.ParseInt(strings.TrimSpace(capEl.Content), 10, 64); err == nil {
				v.Capacity = []int64{c}
			}
		}
		fleet = append(fleet, v)
	}
	return fleet
}

func (x *XML) smallestIDIndex(waypoints []vrp.Waypoint) int {
	best := 0
	bestNum, bestOK := strconv.ParseInt(waypoints[0].ID, 10, 64)
	bestHasNum := bestOK == nil
	for i := 1; i < len(waypoints); i++ {
		n, err := strconv.ParseInt(waypoints[i].ID, 10, 64)
		if err != nil {
			continue
		}
		if !bestHasNum || n < bestNum {
			best = i
			bestNum = n
			bestHasNum = true
		}
	}
	return best
}

func firstChild(n *xmlNode, names ...string) *xmlNode {
	for i := range n.Children {
		if matches(n.Children[i].XMLName.Local, names) {
			return &n.Children[i]
		}
	}
	return nil
}
