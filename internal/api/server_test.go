package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/gommon/log"
	"github.com/vmihailenco/msgpack/v5"

	"taxi-simulator/internal/game/simulation"
	"taxi-simulator/internal/game/topology"
	"taxi-simulator/pkg/types"
)

func TestMain(m *testing.M) {
	log.SetLevel(log.OFF)
	os.Exit(m.Run())
}

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	sim, err := simulation.NewSimulation(topology.EGNX(), simulation.DefaultConfig())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	s := NewServer(sim)
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		ts.Close()
		s.hub.close()
	})
	return s, ts
}

func do(t *testing.T, method, url, body string) (int, string) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(b)
}

func TestEndpoints(t *testing.T) {
	_, ts := newTestServer(t)

	for _, tc := range []struct {
		method, path, body string
		status             int
		contains           string
	}{
		{"GET", "/health", "", 200, "ok"},
		{"GET", "/topology", "", 200, `"RWY27_A1"`},
		{"POST", "/aircraft", `{"callsign":"ba1","stand":"STAND1a"}`, 201, `"AT_STAND"`},
		{"POST", "/aircraft", `{"callsign":"BA1","stand":"STAND2a"}`, 409, "already exists"},
		{"POST", "/aircraft", `{"callsign":"EZY2","stand":"NOWHERE"}`, 404, "unknown node"},
		{"POST", "/aircraft", `{"callsign":"","stand":"STAND2a"}`, 400, "invalid callsign"},
		{"POST", "/aircraft", `not json`, 400, "invalid json"},
		{"POST", "/aircraft/UNKNOWN_CALLSIGN/taxi", `{"destination":"RWY27_A1"}`, 404, "no aircraft"},
		{"POST", "/aircraft/BA1/taxi", `{"destination":"RWY27_A1"}`, 200, `"TAXIING"`},
		{"GET", "/aircraft/ba1", "", 200, `"destination":"RWY27_A1"`},
		{"POST", "/stopbars/NS/toggle", "", 200, `"active":true`},
		{"GET", "/stopbars", "", 200, `"NS"`},
		{"DELETE", "/stopbars/NS", "", 200, `"active":false`},
		{"DELETE", "/stopbars/NS", "", 200, `"active":false`},
		{"POST", "/stopbars/NOWHERE/toggle", "", 404, "unknown node"},
		{"POST", "/tick", "", 200, `"tick":1`},
		{"GET", "/state", "", 200, `"callsign":"BA1"`},
		{"DELETE", "/aircraft/BA1", "", 204, ""},
		{"DELETE", "/aircraft/BA1", "", 404, "no aircraft"},
	} {
		status, body := do(t, tc.method, ts.URL+tc.path, tc.body)
		if status != tc.status {
			t.Errorf("%s %s: got status %d, expected %d (%s)", tc.method, tc.path, status, tc.status, body)
		}
		if !strings.Contains(body, tc.contains) {
			t.Errorf("%s %s: body %q does not contain %q", tc.method, tc.path, body, tc.contains)
		}
	}
}

func TestNoRouteStatus(t *testing.T) {
	g := topology.MustBuild([]topology.Node{
		{ID: "S1", Position: types.NewVec2(0, 0)},
		{ID: "ISLAND", Position: types.NewVec2(50, 0)},
	}, nil)
	ap, _ := topology.NewAirport("TEST", "Test", g, nil, nil)
	sim, _ := simulation.NewSimulation(ap, simulation.DefaultConfig())
	s := NewServer(sim)
	defer s.hub.close()
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	do(t, "POST", ts.URL+"/aircraft", `{"callsign":"BA1","stand":"S1"}`)
	if status, body := do(t, "POST", ts.URL+"/aircraft/BA1/taxi", `{"destination":"ISLAND"}`); status != http.StatusUnprocessableEntity {
		t.Errorf("got %d (%s), expected 422", status, body)
	}
}

func TestStateMsgpack(t *testing.T) {
	s, ts := newTestServer(t)
	s.sim.AddAircraft("BA1", "STAND1a")

	resp, err := http.Get(ts.URL + "/state?format=msgpack")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "application/msgpack" {
		t.Errorf("got content type %q", ct)
	}

	var st struct {
		Aircraft []struct {
			Callsign string  `msgpack:"callsign"`
			Node     string  `msgpack:"node"`
			X        float64 `msgpack:"x"`
		} `msgpack:"aircraft"`
	}
	if err := msgpack.NewDecoder(resp.Body).Decode(&st); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(st.Aircraft) != 1 || st.Aircraft[0].Callsign != "BA1" || st.Aircraft[0].X != 846 {
		t.Errorf("got %+v", st)
	}
}

func TestStreamAndRun(t *testing.T) {
	s, ts := newTestServer(t)
	s.sim.AddAircraft("BA1", "STAND1a")
	s.sim.Taxi("BA1", "RWY27_A1")

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/stream", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, 5*time.Millisecond) }()

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		var st State
		if err := json.Unmarshal(msg, &st); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(st.Aircraft) == 1 && st.Aircraft[0].Cursor > 0 {
			break
		}
	}

	cancel()
	if err := <-done; !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, expected context.Canceled", err)
	}
}
