package simulation

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"unicode"

	"github.com/brunoga/deep"
	"github.com/labstack/gommon/log"

	"taxi-simulator/internal/game/aircraft"
	"taxi-simulator/internal/game/router"
	"taxi-simulator/internal/game/spline"
	"taxi-simulator/internal/game/stopbar"
	"taxi-simulator/internal/game/taxiplan"
	"taxi-simulator/internal/game/topology"
	"taxi-simulator/pkg/types"
)

// Simulation is the taxi kernel: the aircraft directory, the motion
// scheduler and the stop-bars. All exported methods are safe for
// concurrent use; a tick and an operator action never interleave.
type Simulation struct {
	mu sync.Mutex

	airport  *topology.Airport
	router   *router.Router
	stopBars *stopbar.Registry
	config   Config

	aircraft map[types.Callsign]*aircraft.Aircraft
	order    []types.Callsign // insertion order

	ticks           uint64
	radioLog        []RadioMessage
	maxRadioLogSize int
}

// Transition records an aircraft status change during a tick.
type Transition struct {
	Callsign types.Callsign
	From     aircraft.Status
	To       aircraft.Status
	Node     types.NodeID
}

// Entry is the read-only view of one aircraft handed to presentation
// layers.
type Entry struct {
	Callsign    types.Callsign  `json:"callsign" msgpack:"callsign"`
	Node        types.NodeID    `json:"node" msgpack:"node"`
	Status      aircraft.Status `json:"status" msgpack:"status"`
	X           float64         `json:"x" msgpack:"x"`
	Y           float64         `json:"y" msgpack:"y"`
	Heading     float64         `json:"heading" msgpack:"heading"`
	Cursor      float64         `json:"cursor" msgpack:"cursor"`
	HoldingAt   types.NodeID    `json:"holding_at,omitempty" msgpack:"holding_at,omitempty"`
	Destination types.NodeID    `json:"destination,omitempty" msgpack:"destination,omitempty"`
	Route       types.Route     `json:"route,omitempty" msgpack:"route,omitempty"`
}

func (e Entry) Position() types.Vec2 {
	return types.NewVec2(e.X, e.Y)
}

func NewSimulation(airport *topology.Airport, config Config) (*Simulation, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Simulation{
		airport:         airport,
		router:          router.New(airport.Graph, config.RouteCacheSize),
		stopBars:        stopbar.NewRegistry(airport.Graph),
		config:          config,
		aircraft:        make(map[types.Callsign]*aircraft.Aircraft),
		maxRadioLogSize: config.MaxRadioLogSize,
	}
	s.stopBars.OnRelease(s.releaseHolding)

	log.Infof("Simulation ready at %s: %d nodes, %d stands, speed %.1f, %d samples/segment",
		airport.ICAO, airport.Graph.Len(), len(airport.Stands), config.Speed, config.SamplesPerSegment)
	return s, nil
}

func (s *Simulation) Airport() *topology.Airport {
	return s.airport
}

func (s *Simulation) Config() Config {
	return s.config
}

// AddAircraft places a new aircraft at node. The callsign is trimmed and
// upper-cased.
func (s *Simulation) AddAircraft(callsign string, node types.NodeID) (aircraft.Aircraft, error) {
	cs := types.NormalizeCallsign(callsign)
	if cs == "" || strings.IndexFunc(string(cs), unicode.IsSpace) >= 0 {
		return aircraft.Aircraft{}, fmt.Errorf("%w: %q", ErrInvalidCallsign, callsign)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.aircraft[cs]; ok {
		return aircraft.Aircraft{}, fmt.Errorf("%w: %s", ErrDuplicateCallsign, cs)
	}
	pos, err := s.airport.Graph.Position(node)
	if err != nil {
		return aircraft.Aircraft{}, err
	}

	ac := aircraft.NewAircraft(cs, node, pos)
	s.aircraft[cs] = ac
	s.order = append(s.order, cs)

	log.Infof("Added aircraft %s at %s", cs, node)
	return deep.MustCopy(*ac), nil
}

// RemoveAircraft deletes an aircraft between ticks.
func (s *Simulation) RemoveAircraft(callsign string) error {
	cs := types.NormalizeCallsign(callsign)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.aircraft[cs]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAircraft, cs)
	}
	delete(s.aircraft, cs)
	s.order = slices.DeleteFunc(s.order, func(c types.Callsign) bool { return c == cs })

	log.Infof("Removed aircraft %s", cs)
	return nil
}

// Aircraft returns a copy of the named aircraft's state.
func (s *Simulation) Aircraft(callsign string) (aircraft.Aircraft, error) {
	cs := types.NormalizeCallsign(callsign)

	s.mu.Lock()
	defer s.mu.Unlock()

	ac, ok := s.aircraft[cs]
	if !ok {
		return aircraft.Aircraft{}, fmt.Errorf("%w: %s", ErrUnknownAircraft, cs)
	}
	return deep.MustCopy(*ac), nil
}

// Taxi routes the aircraft from its current node to dest and starts it
// moving. On any error the aircraft is left untouched.
func (s *Simulation) Taxi(callsign string, dest types.NodeID) error {
	cs := types.NormalizeCallsign(callsign)

	s.mu.Lock()
	defer s.mu.Unlock()

	ac, ok := s.aircraft[cs]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownAircraft, cs)
	}
	destPos, err := s.airport.Graph.Position(dest)
	if err != nil {
		return err
	}

	route, ok := s.router.ShortestPath(ac.Node, dest)
	if !ok {
		return fmt.Errorf("%w: %s to %s", ErrNoRoute, ac.Node, dest)
	}
	path, err := spline.Build(s.airport.Graph, route, s.config.SamplesPerSegment)
	if err != nil {
		return err
	}
	cost, err := s.router.Cost(route)
	if err != nil {
		return err
	}

	if ac.Status == aircraft.TAXIING || ac.Status == aircraft.HOLDING {
		log.Infof("%s re-routed from %s, previous destination %s discarded", cs, ac.Node, ac.Plan.Destination)
	}
	ac.AssignPlan(&taxiplan.TaxiPlan{
		Origin:              route.First(),
		Destination:         dest,
		DestinationPosition: destPos,
		Route:               route,
		Path:                path,
		Cost:                cost,
	})

	s.addRadioMessage(cs, fmt.Sprintf("Taxi to %s via %s", dest, formatRoute(route)), false)
	log.Infof("%s cleared to %s: %d nodes, %d path points, %.0f px", cs, dest, len(route), path.Len(), cost)
	return nil
}

// Tick advances every taxiing aircraft by one step, in the order they
// were added, and returns the status changes that resulted.
func (s *Simulation) Tick() []Transition {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ticks++
	var transitions []Transition
	for _, cs := range s.order {
		ac := s.aircraft[cs]
		if ac.Status != aircraft.TAXIING {
			continue
		}
		prev := ac.Status
		ac.Advance(s.config.Speed, s.stopBars)
		if ac.Status != prev {
			transitions = append(transitions, Transition{Callsign: cs, From: prev, To: ac.Status, Node: ac.Node})
			s.reportTransition(ac)
		}
	}
	return transitions
}

func (s *Simulation) Ticks() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

func (s *Simulation) reportTransition(ac *aircraft.Aircraft) {
	switch ac.Status {
	case aircraft.HOLDING:
		s.addRadioMessage(ac.Callsign, fmt.Sprintf("Holding short of %s", ac.HoldingAt), true)
		log.Infof("%s holding for stop-bar at %s (cursor %.1f)", ac.Callsign, ac.HoldingAt, ac.Cursor)
	case aircraft.ARRIVED:
		s.addRadioMessage(ac.Callsign, fmt.Sprintf("Arrived at %s", ac.Node), false)
		log.Infof("%s arrived at %s", ac.Callsign, ac.Node)
	}
}

// ToggleStopBar flips the bar at node and returns its new state.
func (s *Simulation) ToggleStopBar(node types.NodeID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	on, err := s.stopBars.Toggle(node)
	if err != nil {
		return false, err
	}
	log.Infof("Stop-bar %s %s", node, map[bool]string{true: "ON", false: "OFF"}[on])
	return on, nil
}

// ClearStopBar switches the bar at node off and releases aircraft holding
// for it. Clearing an unlit bar is a no-op.
func (s *Simulation) ClearStopBar(node types.NodeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed, err := s.stopBars.Clear(node)
	if err != nil {
		return err
	}
	if changed {
		log.Infof("Stop-bar %s cleared", node)
	}
	return nil
}

// releaseHolding is the registry's release listener. The registry is only
// mutated from ToggleStopBar and ClearStopBar, so s.mu is already held.
func (s *Simulation) releaseHolding(node types.NodeID) {
	for _, cs := range s.order {
		ac := s.aircraft[cs]
		if ac.Resume(node) {
			s.addRadioMessage(cs, fmt.Sprintf("Crossing %s, continuing to %s", node, ac.Plan.Destination), false)
			log.Infof("%s released at %s, resuming at cursor %.1f", cs, node, ac.Cursor)
		}
	}
}

// StopBars returns the lit stop-bars, sorted by node.
func (s *Simulation) StopBars() []types.NodeID {
	return s.stopBars.Active()
}

func (s *Simulation) StopBarActive(node types.NodeID) bool {
	return s.stopBars.IsActive(node)
}

// Snapshot returns the state of every aircraft in insertion order.
func (s *Simulation) Snapshot() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make([]Entry, 0, len(s.order))
	for _, cs := range s.order {
		ac := s.aircraft[cs]
		e := Entry{
			Callsign:  ac.Callsign,
			Node:      ac.Node,
			Status:    ac.Status,
			X:         ac.Position.X,
			Y:         ac.Position.Y,
			Heading:   ac.Heading,
			Cursor:    ac.Cursor,
			HoldingAt: ac.HoldingAt,
		}
		if ac.Plan != nil {
			e.Destination = ac.Plan.Destination
			e.Route = ac.Plan.Route.Clone()
		}
		entries = append(entries, e)
	}
	return entries
}

func formatRoute(route types.Route) string {
	parts := make([]string, len(route))
	for i, id := range route {
		parts[i] = string(id)
	}
	return strings.Join(parts, " ")
}
