package parsers

import "github.com/vrprouting/vrp-service/internal/vrp"

// widenDepotWindow sets the depot's time window to cover the widest extent
// seen across all waypoints (ready=min, due=max), per §4.4's tie-break rule.
func widenDepotWindow(waypoints []vrp.Waypoint, depotIndex int) {
	if depotIndex < 0 || depotIndex >= len(waypoints) {
		return
	}

	var min, max int64
	found := false
	for _, wp := range waypoints {
		if wp.WindowStart == nil || wp.WindowEnd == nil {
			continue
		}
		if !found {
			min, max = *wp.WindowStart, *wp.WindowEnd
			found = true
			continue
		}
		if *wp.WindowStart < min {
			min = *wp.WindowStart
		}
		if *wp.WindowEnd > max {
			max = *wp.WindowEnd
		}
	}
	if !found {
		return
	}
	waypoints[depotIndex].WindowStart = &min
	waypoints[depotIndex].WindowEnd = &max
}
