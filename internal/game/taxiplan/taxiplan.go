package taxiplan

import (
	"taxi-simulator/internal/game/spline"
	"taxi-simulator/pkg/types"
)

// TaxiPlan is one taxi clearance: the routed nodes and the smoothed path
// derived from them. A plan is never edited; re-routing builds a new one.
type TaxiPlan struct {
	Origin              types.NodeID
	Destination         types.NodeID
	DestinationPosition types.Vec2
	Route               types.Route
	Path                spline.Path
	Cost                float64
}

// NextNode is the node the aircraft enters at the end of the segment that
// contains path point i.
func (tp *TaxiPlan) NextNode(i int) (types.NodeID, bool) {
	j := tp.Path.Segment(i)
	if j+1 >= len(tp.Route) {
		return "", false
	}
	return tp.Route[j+1], true
}

// LastPassed is the node at the start of the segment containing point i.
func (tp *TaxiPlan) LastPassed(i int) types.NodeID {
	if len(tp.Route) == 0 {
		return ""
	}
	return tp.Route[types.Clamp(tp.Path.Segment(i), 0, len(tp.Route)-1)]
}
