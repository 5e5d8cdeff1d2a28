package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/labstack/gommon/log"
	"github.com/vmihailenco/msgpack/v5"

	"taxi-simulator/internal/game/simulation"
	"taxi-simulator/internal/game/topology"
	"taxi-simulator/pkg/types"
)

// Server exposes the kernel to remote presentation layers.
type Server struct {
	sim *simulation.Simulation
	hub *hub
}

// State is the body of GET /state and of each websocket frame.
type State struct {
	Tick     uint64                    `json:"tick" msgpack:"tick"`
	Aircraft []simulation.Entry        `json:"aircraft" msgpack:"aircraft"`
	StopBars []types.NodeID            `json:"stop_bars" msgpack:"stop_bars"`
	Radio    []simulation.RadioMessage `json:"radio,omitempty" msgpack:"radio,omitempty"`
}

type nodeJSON struct {
	ID types.NodeID `json:"id"`
	X  float64      `json:"x"`
	Y  float64      `json:"y"`
}

type topologyJSON struct {
	ICAO    string            `json:"icao"`
	Name    string            `json:"name"`
	Nodes   []nodeJSON        `json:"nodes"`
	Edges   [][2]types.NodeID `json:"edges"`
	Stands  []types.NodeID    `json:"stands"`
	Runways []topology.Runway `json:"runways"`
}

func NewServer(sim *simulation.Simulation) *Server {
	return &Server{sim: sim, hub: newHub(writeWait)}
}

// Handler builds the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok\n"))
	})
	r.Get("/topology", s.handleTopology)
	r.Get("/state", s.handleState)
	r.Get("/stream", s.hub.handle)

	r.Post("/aircraft", s.handleAddAircraft)
	r.Get("/aircraft/{callsign}", s.handleGetAircraft)
	r.Delete("/aircraft/{callsign}", s.handleRemoveAircraft)
	r.Post("/aircraft/{callsign}/taxi", s.handleTaxi)

	r.Get("/stopbars", s.handleStopBars)
	r.Post("/stopbars/{node}/toggle", s.handleToggleStopBar)
	r.Delete("/stopbars/{node}", s.handleClearStopBar)

	r.Post("/tick", s.handleTick)
	return r
}

func (s *Server) state() State {
	return State{
		Tick:     s.sim.Ticks(),
		Aircraft: s.sim.Snapshot(),
		StopBars: s.sim.StopBars(),
	}
}

func (s *Server) handleTopology(w http.ResponseWriter, r *http.Request) {
	ap := s.sim.Airport()
	t := topologyJSON{
		ICAO:    ap.ICAO,
		Name:    ap.Name,
		Stands:  ap.Stands,
		Runways: ap.Runways,
	}
	for _, id := range ap.Graph.Nodes() {
		p, _ := ap.Graph.Position(id)
		t.Nodes = append(t.Nodes, nodeJSON{ID: id, X: p.X, Y: p.Y})
	}
	for _, e := range ap.Graph.Edges() {
		t.Edges = append(t.Edges, [2]types.NodeID{e.A, e.B})
	}
	writeJSON(w, http.StatusOK, t)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	st := s.state()
	if r.URL.Query().Has("radio") {
		st.Radio = s.sim.RadioMessages()
	}

	if strings.EqualFold(r.URL.Query().Get("format"), "msgpack") {
		b, err := msgpack.Marshal(st)
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/msgpack")
		w.Write(b)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleAddAircraft(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Callsign string       `json:"callsign"`
		Stand    types.NodeID `json:"stand"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}

	ac, err := s.sim.AddAircraft(req.Callsign, req.Stand)
	if err != nil {
		writeKernelError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"callsign": ac.Callsign,
		"node":     ac.Node,
		"status":   ac.Status,
	})
}

func (s *Server) handleGetAircraft(w http.ResponseWriter, r *http.Request) {
	cs := types.NormalizeCallsign(chi.URLParam(r, "callsign"))
	for _, e := range s.sim.Snapshot() {
		if e.Callsign == cs {
			writeJSON(w, http.StatusOK, e)
			return
		}
	}
	writeKernelError(w, simulation.ErrUnknownAircraft)
}

func (s *Server) handleRemoveAircraft(w http.ResponseWriter, r *http.Request) {
	if err := s.sim.RemoveAircraft(chi.URLParam(r, "callsign")); err != nil {
		writeKernelError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTaxi(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Destination types.NodeID `json:"destination"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid json")
		return
	}

	cs := chi.URLParam(r, "callsign")
	if err := s.sim.Taxi(cs, req.Destination); err != nil {
		writeKernelError(w, err)
		return
	}
	ac, err := s.sim.Aircraft(cs)
	if err != nil {
		writeKernelError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"callsign":    ac.Callsign,
		"status":      ac.Status,
		"route":       ac.Plan.Route,
		"cost":        ac.Plan.Cost,
		"path_points": ac.Plan.Path.Len(),
	})
}

func (s *Server) handleStopBars(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"active": s.sim.StopBars()})
}

func (s *Server) handleToggleStopBar(w http.ResponseWriter, r *http.Request) {
	node := types.NodeID(chi.URLParam(r, "node"))
	on, err := s.sim.ToggleStopBar(node)
	if err != nil {
		writeKernelError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"node": node, "active": on})
}

func (s *Server) handleClearStopBar(w http.ResponseWriter, r *http.Request) {
	node := types.NodeID(chi.URLParam(r, "node"))
	if err := s.sim.ClearStopBar(node); err != nil {
		writeKernelError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"node": node, "active": false})
}

// handleTick steps the kernel by hand, for servers started with the
// ticker disabled.
func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	transitions := s.sim.Tick()
	st := s.state()
	s.hub.publish(st)
	writeJSON(w, http.StatusOK, map[string]any{"state": st, "transitions": transitions})
}

func writeKernelError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, simulation.ErrUnknownAircraft), errors.Is(err, simulation.ErrUnknownNode):
		status = http.StatusNotFound
	case errors.Is(err, simulation.ErrDuplicateCallsign):
		status = http.StatusConflict
	case errors.Is(err, simulation.ErrNoRoute):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, simulation.ErrInvalidCallsign):
		status = http.StatusBadRequest
	default:
		log.Errorf("unexpected kernel error: %v", err)
	}
	writeJSONError(w, status, err.Error())
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
