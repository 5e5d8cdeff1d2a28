package topology

import (
	"fmt"
	"slices"

	"taxi-simulator/pkg/types"
)

// Runway lists the holding/entry nodes aircraft can be cleared to.
type Runway struct {
	Name    string
	Entries []types.NodeID
}

type Airport struct {
	ICAO    string
	Name    string
	Graph   *Graph
	Stands  []types.NodeID
	Runways []Runway
}

// NewAirport checks that every stand and runway entry exists in the graph.
func NewAirport(icao, name string, g *Graph, stands []types.NodeID, runways []Runway) (*Airport, error) {
	for _, s := range stands {
		if !g.Has(s) {
			return nil, &IntegrityError{Node: s, Reason: "stand is not a graph node"}
		}
	}
	for _, rwy := range runways {
		for _, e := range rwy.Entries {
			if !g.Has(e) {
				return nil, &IntegrityError{Node: e, Reason: fmt.Sprintf("runway %s entry is not a graph node", rwy.Name)}
			}
		}
	}
	return &Airport{
		ICAO:    icao,
		Name:    name,
		Graph:   g,
		Stands:  stands,
		Runways: runways,
	}, nil
}

func (ap *Airport) IsStand(id types.NodeID) bool {
	return slices.Contains(ap.Stands, id)
}

// RunwayEntries returns every runway entry node, runway by runway.
func (ap *Airport) RunwayEntries() []types.NodeID {
	var entries []types.NodeID
	for _, rwy := range ap.Runways {
		entries = append(entries, rwy.Entries...)
	}
	return entries
}
