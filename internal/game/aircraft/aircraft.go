package aircraft

import (
	"fmt"

	"taxi-simulator/internal/game/stopbar"
	"taxi-simulator/internal/game/taxiplan"
	"taxi-simulator/pkg/types"
)

type Status int

const (
	AT_STAND Status = iota
	TAXIING
	HOLDING
	ARRIVED
)

var StatusStringMap = map[Status]string{
	AT_STAND: "AT_STAND",
	TAXIING:  "TAXIING",
	HOLDING:  "HOLDING",
	ARRIVED:  "ARRIVED",
}

func (s Status) String() string {
	if str, ok := StatusStringMap[s]; ok {
		return str
	}
	return "UNKNOWN"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(b []byte) error {
	for st, str := range StatusStringMap {
		if str == string(b) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown aircraft status %q", b)
}

type Aircraft struct {
	Callsign types.Callsign
	Node     types.NodeID // last node reached
	Position types.Vec2
	Heading  float64

	Plan   *taxiplan.TaxiPlan
	Cursor float64 // index into Plan.Path.Points

	Holding   bool
	HoldingAt types.NodeID

	Status Status
}

func NewAircraft(callsign types.Callsign, node types.NodeID, pos types.Vec2) *Aircraft {
	return &Aircraft{
		Callsign: callsign,
		Node:     node,
		Position: pos,
		Status:   AT_STAND,
	}
}

// AssignPlan replaces any current plan and starts taxiing from the
// beginning of the new path.
func (ac *Aircraft) AssignPlan(plan *taxiplan.TaxiPlan) {
	ac.Plan = plan
	ac.Cursor = 0
	ac.Holding = false
	ac.HoldingAt = ""
	ac.Node = plan.Origin
	if plan.Path.Len() > 0 {
		ac.Position = plan.Path.Points[0]
	}
	ac.Status = TAXIING
}

// Advance moves a taxiing aircraft one step of speed path points. It
// returns true if the status changed.
func (ac *Aircraft) Advance(speed float64, bars stopbar.Checker) bool {
	if ac.Status != TAXIING || ac.Plan == nil {
		return false
	}

	pts := ac.Plan.Path.Points
	if len(pts) == 0 || ac.Cursor >= float64(len(pts)-1) {
		ac.arrive()
		return true
	}

	idx := int(ac.Cursor)
	if next, ok := ac.Plan.NextNode(idx); ok && bars != nil && bars.IsActive(next) {
		ac.Holding = true
		ac.HoldingAt = next
		ac.Status = HOLDING
		return true
	}

	cur, nxt := pts[idx], pts[min(idx+1, len(pts)-1)]
	if cur != nxt {
		ac.Heading = cur.HeadingTo(nxt)
	}
	ac.Position = cur
	ac.Node = ac.Plan.LastPassed(idx)
	ac.Cursor = ac.stopShortOfBars(idx, ac.Cursor+speed, bars)
	return false
}

// stopShortOfBars clamps a move from point idx to target so that it does
// not skip a whole segment whose end node is barred. The aircraft is left
// at the first point of that segment and holds on the next tick.
func (ac *Aircraft) stopShortOfBars(idx int, target float64, bars stopbar.Checker) float64 {
	if bars == nil {
		return target
	}
	path := ac.Plan.Path
	last := path.Len() - 1

	// Segments before the one the move lands in are never seen by the
	// per-tick check. Landing at or past the last point means arrival,
	// which is checked before any bar.
	landing := len(ac.Plan.Route) - 1
	if target < float64(last) {
		landing = path.Segment(int(target))
	}

	for i := idx + 1; i <= last && float64(i) <= target; i++ {
		seg := path.Segment(i)
		if seg >= landing {
			break
		}
		if seg == path.Segment(i-1) {
			continue
		}
		if next, ok := ac.Plan.NextNode(i); ok && bars.IsActive(next) {
			return float64(i)
		}
	}
	return target
}

// Resume releases an aircraft holding for the bar at node. The cursor is
// left where the hold began.
func (ac *Aircraft) Resume(node types.NodeID) bool {
	if ac.Status != HOLDING || ac.HoldingAt != node {
		return false
	}
	ac.Holding = false
	ac.HoldingAt = ""
	ac.Status = TAXIING
	return true
}

// The smoothed path stops short of the goal node, so arrival snaps to it.
func (ac *Aircraft) arrive() {
	ac.Node = ac.Plan.Destination
	ac.Position = ac.Plan.DestinationPosition
	ac.Holding = false
	ac.HoldingAt = ""
	ac.Status = ARRIVED
}
