package topology

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/iancoleman/orderedmap"

	"taxi-simulator/pkg/types"
)

// airportFile is the on-disk topology format:
//
//	{
//	  "icao": "EGNX", "name": "East Midlands",
//	  "nodes": {"STAND1a": [846, 200], ...},
//	  "edges": {"STAND1a": ["STAND1b"], ...},
//	  "stands": ["STAND1a"],
//	  "runways": {"27": ["RWY27_A1"]}
//	}
//
// Edges may be listed from either end. Node and runway order follows the
// file.
type airportFile struct {
	ICAO    string          `json:"icao"`
	Name    string          `json:"name"`
	Nodes   json.RawMessage `json:"nodes"`
	Edges   json.RawMessage `json:"edges"`
	Stands  []string        `json:"stands"`
	Runways json.RawMessage `json:"runways"`
}

func LoadFile(path string) (*Airport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	ap, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ap, nil
}

func Parse(data []byte) (*Airport, error) {
	var f airportFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	nodeMap, err := decodeOrdered(f.Nodes, "nodes")
	if err != nil {
		return nil, err
	}
	var nodes []Node
	for _, key := range nodeMap.Keys() {
		v, _ := nodeMap.Get(key)
		pos, ok := v.([]interface{})
		if !ok || len(pos) != 2 {
			return nil, fmt.Errorf("node %q: position must be [x, y]", key)
		}
		x, okx := pos[0].(float64)
		y, oky := pos[1].(float64)
		if !okx || !oky {
			return nil, fmt.Errorf("node %q: position must be numeric", key)
		}
		nodes = append(nodes, Node{ID: types.NodeID(key), Position: types.NewVec2(x, y)})
	}

	edgeMap, err := decodeOrdered(f.Edges, "edges")
	if err != nil {
		return nil, err
	}
	var edges []Edge
	for _, key := range edgeMap.Keys() {
		v, _ := edgeMap.Get(key)
		ids, err := stringList(v)
		if err != nil {
			return nil, fmt.Errorf("edges %q: %w", key, err)
		}
		for _, nb := range ids {
			edges = append(edges, Edge{types.NodeID(key), nb})
		}
	}

	g, err := Build(nodes, edges)
	if err != nil {
		return nil, err
	}

	var stands []types.NodeID
	for _, s := range f.Stands {
		stands = append(stands, types.NodeID(s))
	}

	var runways []Runway
	if len(f.Runways) > 0 {
		rwyMap, err := decodeOrdered(f.Runways, "runways")
		if err != nil {
			return nil, err
		}
		for _, key := range rwyMap.Keys() {
			v, _ := rwyMap.Get(key)
			entries, err := stringList(v)
			if err != nil {
				return nil, fmt.Errorf("runway %q: %w", key, err)
			}
			runways = append(runways, Runway{Name: key, Entries: entries})
		}
	}

	return NewAirport(f.ICAO, f.Name, g, stands, runways)
}

func decodeOrdered(raw json.RawMessage, what string) (*orderedmap.OrderedMap, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("missing %q", what)
	}
	m := orderedmap.New()
	if err := json.Unmarshal(raw, m); err != nil {
		return nil, fmt.Errorf("%s: %w", what, err)
	}
	return m, nil
}

func stringList(v interface{}) ([]types.NodeID, error) {
	list, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("expected a list of node ids")
	}
	ids := make([]types.NodeID, 0, len(list))
	for _, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("expected a list of node ids")
		}
		ids = append(ids, types.NodeID(s))
	}
	return ids, nil
}
