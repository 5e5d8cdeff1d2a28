package simulation

import (
	"errors"
	"math"
	"os"
	"reflect"
	"sync"
	"testing"

	"github.com/labstack/gommon/log"

	"taxi-simulator/internal/game/aircraft"
	"taxi-simulator/internal/game/topology"
	"taxi-simulator/pkg/types"
)

func TestMain(m *testing.M) {
	log.SetLevel(log.OFF)
	os.Exit(m.Run())
}

func newSim(t *testing.T) *Simulation {
	t.Helper()
	s, err := NewSimulation(topology.EGNX(), DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return s
}

func mustGet(t *testing.T, s *Simulation, cs string) aircraft.Aircraft {
	t.Helper()
	ac, err := s.Aircraft(cs)
	if err != nil {
		t.Fatalf("%s: %v", cs, err)
	}
	return ac
}

func TestAddAircraft(t *testing.T) {
	s := newSim(t)

	ac, err := s.AddAircraft(" ba1 ", "STAND1a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ac.Callsign != "BA1" || ac.Status != aircraft.AT_STAND || ac.Position != types.NewVec2(846, 200) {
		t.Errorf("got %+v", ac)
	}

	if _, err := s.AddAircraft("BA1", "STAND2a"); !errors.Is(err, ErrDuplicateCallsign) {
		t.Errorf("got %v, expected ErrDuplicateCallsign", err)
	}
	if _, err := s.AddAircraft("Ba1", "STAND2a"); !errors.Is(err, ErrDuplicateCallsign) {
		t.Errorf("callsigns must be case-normalized: got %v", err)
	}
	if _, err := s.AddAircraft("EZY2", "NOWHERE"); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("got %v, expected ErrUnknownNode", err)
	}
	for _, bad := range []string{"", "   ", "BA 1", "BA\t1", "BA\n1", "BA\u00a01"} {
		if _, err := s.AddAircraft(bad, "STAND2a"); !errors.Is(err, ErrInvalidCallsign) {
			t.Errorf("%q: got %v, expected ErrInvalidCallsign", bad, err)
		}
	}
	if n := len(s.Snapshot()); n != 1 {
		t.Errorf("failed adds mutated the directory: %d aircraft", n)
	}

	// The returned value is a copy.
	ac.Node = "MUTATED"
	if mustGet(t, s, "BA1").Node != "STAND1a" {
		t.Errorf("AddAircraft returned internal state")
	}
}

// Taxi from a stand to a runway entry and tick until arrival.
func TestTaxiToArrival(t *testing.T) {
	s := newSim(t)
	s.AddAircraft("BA1", "STAND1a")

	if err := s.Taxi("BA1", "RWY27_A1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ac := mustGet(t, s, "BA1")
	if ac.Status != aircraft.TAXIING || ac.Cursor != 0 {
		t.Fatalf("got %s/%f, expected TAXIING/0", ac.Status, ac.Cursor)
	}
	if ac.Plan.Route.First() != "STAND1a" || ac.Plan.Route.Last() != "RWY27_A1" {
		t.Errorf("got route %v", ac.Plan.Route)
	}

	last := -1.0
	for i := 0; i < 10000; i++ {
		ac = mustGet(t, s, "BA1")
		if ac.Status != aircraft.TAXIING {
			break
		}
		if ac.Cursor <= last {
			t.Fatalf("cursor did not increase: %f after %f", ac.Cursor, last)
		}
		last = ac.Cursor
		s.Tick()
	}

	if ac.Status != aircraft.ARRIVED {
		t.Fatalf("got %s, expected ARRIVED", ac.Status)
	}
	dest, _ := s.Airport().Graph.Position("RWY27_A1")
	if ac.Node != "RWY27_A1" || ac.Position != dest {
		t.Errorf("arrived at %s %v, expected RWY27_A1 %v", ac.Node, ac.Position, dest)
	}

	msgs := s.RadioMessages()
	if len(msgs) != 2 || msgs[1].Message != "Arrived at RWY27_A1" {
		t.Errorf("got radio log %+v", msgs)
	}
}

func TestTickReportsTransitions(t *testing.T) {
	s := newSim(t)
	s.AddAircraft("BA1", "STAND1a")
	s.AddAircraft("EZY2", "STAND2a")
	s.Taxi("BA1", "STAND1a")

	tr := s.Tick()
	want := []Transition{{Callsign: "BA1", From: aircraft.TAXIING, To: aircraft.ARRIVED, Node: "STAND1a"}}
	if !reflect.DeepEqual(tr, want) {
		t.Errorf("got %+v, expected %+v", tr, want)
	}
	if tr := s.Tick(); len(tr) != 0 {
		t.Errorf("got %+v on a quiet tick", tr)
	}
	if s.Ticks() != 2 {
		t.Errorf("got %d ticks, expected 2", s.Ticks())
	}
}

// Light the bar just ahead, hold, clear, and resume from the same cursor.
func TestStopBarHoldAndResume(t *testing.T) {
	s := newSim(t)
	s.AddAircraft("BA1", "STAND1a")
	s.Taxi("BA1", "RWY27_A1")
	s.Tick()

	ac := mustGet(t, s, "BA1")
	next, ok := ac.Plan.NextNode(int(ac.Cursor))
	if !ok {
		t.Fatalf("no next node on route %v", ac.Plan.Route)
	}
	if on, err := s.ToggleStopBar(next); err != nil || !on {
		t.Fatalf("toggle %s: %v/%v", next, on, err)
	}

	tr := s.Tick()
	held := mustGet(t, s, "BA1")
	if held.Status != aircraft.HOLDING || !held.Holding || held.HoldingAt != next {
		t.Fatalf("got %s holding at %q, expected HOLDING at %s", held.Status, held.HoldingAt, next)
	}
	if held.Cursor != ac.Cursor || held.Position != ac.Position {
		t.Errorf("aircraft moved while entering the hold")
	}
	if len(tr) != 1 || tr[0].To != aircraft.HOLDING {
		t.Errorf("got transitions %+v", tr)
	}

	// Still held while the bar is lit.
	for i := 0; i < 5; i++ {
		s.Tick()
	}
	if got := mustGet(t, s, "BA1"); got.Cursor != held.Cursor || got.Status != aircraft.HOLDING {
		t.Errorf("held aircraft advanced: %s %f", got.Status, got.Cursor)
	}

	if err := s.ClearStopBar(next); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resumed := mustGet(t, s, "BA1")
	if resumed.Status != aircraft.TAXIING || resumed.Cursor != held.Cursor {
		t.Fatalf("got %s at cursor %f, expected TAXIING at %f", resumed.Status, resumed.Cursor, held.Cursor)
	}

	s.Tick()
	if got := mustGet(t, s, "BA1"); got.Cursor != held.Cursor+s.Config().Speed {
		t.Errorf("got cursor %f, expected %f", got.Cursor, held.Cursor+s.Config().Speed)
	}
}

func TestFastTaxiHoldsAtSkippedBar(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Speed = 40 // more than two segments of 15 points per tick
	s, err := NewSimulation(topology.EGNX(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s.AddAircraft("BA1", "STAND1a")
	if err := s.Taxi("BA1", "RWY27_A1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	route := mustGet(t, s, "BA1").Plan.Route
	if route[2] != "STAND1N" {
		t.Fatalf("unexpected route %v", route)
	}
	s.ToggleStopBar("STAND1N")

	for i := 0; i < 50; i++ {
		s.Tick()
	}
	ac := mustGet(t, s, "BA1")
	if ac.Status != aircraft.HOLDING || ac.HoldingAt != "STAND1N" {
		t.Fatalf("got %s holding at %q, expected HOLDING at STAND1N", ac.Status, ac.HoldingAt)
	}
	if ac.Cursor != 15 {
		t.Errorf("got cursor %f, expected 15 (first point of STAND1b->STAND1N)", ac.Cursor)
	}

	s.ClearStopBar("STAND1N")
	for i := 0; i < 50; i++ {
		s.Tick()
	}
	if ac := mustGet(t, s, "BA1"); ac.Status != aircraft.ARRIVED || ac.Node != "RWY27_A1" {
		t.Errorf("got %s at %s, expected ARRIVED at RWY27_A1", ac.Status, ac.Node)
	}
}

func TestToggleOffReleases(t *testing.T) {
	s := newSim(t)
	s.AddAircraft("BA1", "STAND1a")
	s.Taxi("BA1", "RWY27_A1")
	s.ToggleStopBar("STAND1b")
	s.Tick()
	if mustGet(t, s, "BA1").Status != aircraft.HOLDING {
		t.Fatalf("expected HOLDING")
	}
	if on, _ := s.ToggleStopBar("STAND1b"); on {
		t.Fatalf("second toggle should switch the bar off")
	}
	if got := mustGet(t, s, "BA1").Status; got != aircraft.TAXIING {
		t.Errorf("got %s, expected TAXIING after the bar went off", got)
	}
}

func TestClearOnlyReleasesMatchingHolds(t *testing.T) {
	s := newSim(t)
	s.AddAircraft("BA1", "STAND1a")
	s.AddAircraft("EZY2", "STAND2a")
	s.Taxi("BA1", "RWY27_A1")
	s.Taxi("EZY2", "RWY27_A1")
	s.ToggleStopBar("STAND1b")
	s.ToggleStopBar("STAND2b")
	s.Tick()

	s.ClearStopBar("STAND1b")
	if got := mustGet(t, s, "BA1").Status; got != aircraft.TAXIING {
		t.Errorf("BA1: got %s, expected TAXIING", got)
	}
	if got := mustGet(t, s, "EZY2").Status; got != aircraft.HOLDING {
		t.Errorf("EZY2: got %s, expected HOLDING", got)
	}
}

func TestClearStopBarIdempotent(t *testing.T) {
	s := newSim(t)
	before := s.Snapshot()
	for i := 0; i < 2; i++ {
		if err := s.ClearStopBar("NS"); err != nil {
			t.Errorf("clear %d: %v", i, err)
		}
		if len(s.StopBars()) != 0 {
			t.Errorf("clear %d lit a bar", i)
		}
	}
	if !reflect.DeepEqual(before, s.Snapshot()) {
		t.Errorf("clearing an inactive bar changed state")
	}
	if err := s.ClearStopBar("NOWHERE"); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("got %v, expected ErrUnknownNode", err)
	}
	if _, err := s.ToggleStopBar("NOWHERE"); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("got %v, expected ErrUnknownNode", err)
	}
}

func TestTaxiErrorsLeaveStateUnchanged(t *testing.T) {
	s := newSim(t)
	s.AddAircraft("BA1", "STAND1a")
	s.Taxi("BA1", "RWY27_A1")
	s.Tick()
	before := s.Snapshot()

	if err := s.Taxi("UNKNOWN_CALLSIGN", "RWY27_A1"); !errors.Is(err, ErrUnknownAircraft) {
		t.Errorf("got %v, expected ErrUnknownAircraft", err)
	}
	if err := s.Taxi("BA1", "NOWHERE"); !errors.Is(err, ErrUnknownNode) {
		t.Errorf("got %v, expected ErrUnknownNode", err)
	}
	if !reflect.DeepEqual(before, s.Snapshot()) {
		t.Errorf("failed taxi commands changed state")
	}
}

func TestTaxiNoRoute(t *testing.T) {
	g := topology.MustBuild([]topology.Node{
		{ID: "S1", Position: types.NewVec2(0, 0)},
		{ID: "J", Position: types.NewVec2(10, 0)},
		{ID: "ISLAND", Position: types.NewVec2(50, 50)},
	}, []topology.Edge{{A: "S1", B: "J"}})
	ap, err := topology.NewAirport("TEST", "Test", g, []types.NodeID{"S1"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s, _ := NewSimulation(ap, DefaultConfig())
	s.AddAircraft("BA1", "S1")
	before := mustGet(t, s, "BA1")

	if err := s.Taxi("BA1", "ISLAND"); !errors.Is(err, ErrNoRoute) {
		t.Errorf("got %v, expected ErrNoRoute", err)
	}
	if after := mustGet(t, s, "BA1"); !reflect.DeepEqual(before, after) {
		t.Errorf("aircraft changed after a failed taxi: %+v", after)
	}
}

func TestReroute(t *testing.T) {
	s := newSim(t)
	s.AddAircraft("BA1", "STAND1a")
	s.Taxi("BA1", "RWY27_A1")
	for i := 0; i < 20; i++ {
		s.Tick()
	}
	mid := mustGet(t, s, "BA1")

	if err := s.Taxi("BA1", "RWY09_E1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ac := mustGet(t, s, "BA1")
	if ac.Cursor != 0 || ac.Status != aircraft.TAXIING {
		t.Errorf("got %s/%f, expected TAXIING/0", ac.Status, ac.Cursor)
	}
	if ac.Plan.Route.First() != mid.Node || ac.Plan.Destination != "RWY09_E1" {
		t.Errorf("new route %v should start at %s", ac.Plan.Route, mid.Node)
	}
}

func TestSnapshotOrderAndRemove(t *testing.T) {
	s := newSim(t)
	for _, cs := range []string{"ZZ9", "AA1", "MM5"} {
		s.AddAircraft(cs, "STAND3a")
	}
	var got []types.Callsign
	for _, e := range s.Snapshot() {
		got = append(got, e.Callsign)
	}
	if !reflect.DeepEqual(got, []types.Callsign{"ZZ9", "AA1", "MM5"}) {
		t.Errorf("got order %v", got)
	}

	if err := s.RemoveAircraft("aa1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.RemoveAircraft("AA1"); !errors.Is(err, ErrUnknownAircraft) {
		t.Errorf("got %v, expected ErrUnknownAircraft", err)
	}
	if snap := s.Snapshot(); len(snap) != 2 || snap[1].Callsign != "MM5" {
		t.Errorf("got %+v after remove", snap)
	}
	if _, err := s.AddAircraft("AA1", "STAND3a"); err != nil {
		t.Errorf("callsign should be reusable after removal: %v", err)
	}
}

func TestRadioLogTrimmed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxRadioLogSize = 3
	s, _ := NewSimulation(topology.EGNX(), cfg)
	s.AddAircraft("BA1", "STAND1a")
	for i := 0; i < 5; i++ {
		s.Taxi("BA1", "STAND1a")
	}
	if n := len(s.RadioMessages()); n != 3 {
		t.Errorf("got %d radio messages, expected 3", n)
	}
}

func TestConfigValidate(t *testing.T) {
	for _, cfg := range []Config{
		{Speed: 0, SamplesPerSegment: 15},
		{Speed: 2, SamplesPerSegment: 0},
		{Speed: 2, SamplesPerSegment: 15, MaxRadioLogSize: -1},
		{Speed: math.NaN(), SamplesPerSegment: 15},
		{Speed: math.Inf(1), SamplesPerSegment: 15},
		{Speed: -math.Inf(1), SamplesPerSegment: 15},
	} {
		if _, err := NewSimulation(topology.EGNX(), cfg); err == nil {
			t.Errorf("%+v: no error was returned for invalid config", cfg)
		}
	}
}

func TestConcurrentOperators(t *testing.T) {
	s := newSim(t)
	stands := s.Airport().Stands
	for i, st := range stands {
		cs := string(rune('A'+i)) + "1"
		s.AddAircraft(cs, st)
		s.Taxi(cs, "RWY09_E1")
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			s.Tick()
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			s.ToggleStopBar("NS")
			s.Snapshot()
		}
		s.ClearStopBar("NS")
	}()
	wg.Wait()

	for i := 0; i < 5000; i++ {
		s.Tick()
	}
	for _, e := range s.Snapshot() {
		if e.Status != aircraft.ARRIVED {
			t.Errorf("%s: got %s at %s, expected ARRIVED", e.Callsign, e.Status, e.Node)
		}
	}
}
