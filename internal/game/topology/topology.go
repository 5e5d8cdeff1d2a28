package topology

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"taxi-simulator/pkg/types"
)

var (
	ErrUnknownNode = errors.New("unknown node")
	ErrIntegrity   = errors.New("topology integrity violation")
)

// IntegrityError reports a defect in static topology data. These are
// configuration errors and abort initialization.
type IntegrityError struct {
	Node   types.NodeID
	Reason string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("topology: node %q: %s", e.Node, e.Reason)
}

func (e *IntegrityError) Unwrap() error { return ErrIntegrity }

type Node struct {
	ID       types.NodeID
	Position types.Vec2
}

// Edge is an undirected connection between two nodes.
type Edge struct {
	A, B types.NodeID
}

// Graph is the immutable taxiway/stand/runway topology.
type Graph struct {
	nodes     map[types.NodeID]Node
	order     []types.NodeID
	adjacency map[types.NodeID][]types.NodeID
}

// New validates and builds a graph from a node list and a full adjacency
// table. Adjacency must already be symmetric; use Build for an undirected
// edge list.
func New(nodes []Node, adjacency map[types.NodeID][]types.NodeID) (*Graph, error) {
	g := &Graph{
		nodes:     make(map[types.NodeID]Node, len(nodes)),
		order:     make([]types.NodeID, 0, len(nodes)),
		adjacency: make(map[types.NodeID][]types.NodeID, len(nodes)),
	}

	for _, n := range nodes {
		if n.ID == "" {
			return nil, &IntegrityError{Node: n.ID, Reason: "empty node id"}
		}
		if _, ok := g.nodes[n.ID]; ok {
			return nil, &IntegrityError{Node: n.ID, Reason: "duplicate node id"}
		}
		g.nodes[n.ID] = n
		g.order = append(g.order, n.ID)
	}

	for id, nbrs := range adjacency {
		if _, ok := g.nodes[id]; !ok {
			return nil, &IntegrityError{Node: id, Reason: "adjacency entry for undeclared node"}
		}
		for _, nb := range nbrs {
			if nb == id {
				return nil, &IntegrityError{Node: id, Reason: "self loop"}
			}
			if _, ok := g.nodes[nb]; !ok {
				return nil, &IntegrityError{Node: id, Reason: fmt.Sprintf("dangling neighbor %q", nb)}
			}
			if !slices.Contains(g.adjacency[id], nb) {
				g.adjacency[id] = append(g.adjacency[id], nb)
			}
		}
	}

	for id, nbrs := range g.adjacency {
		for _, nb := range nbrs {
			if !slices.Contains(g.adjacency[nb], id) {
				return nil, &IntegrityError{Node: id, Reason: fmt.Sprintf("asymmetric edge to %q", nb)}
			}
		}
	}

	return g, nil
}

// Build symmetrizes an undirected edge list and validates the result.
// Neighbor order follows the order edges are declared.
func Build(nodes []Node, edges []Edge) (*Graph, error) {
	adjacency := make(map[types.NodeID][]types.NodeID)
	link := func(a, b types.NodeID) {
		if !slices.Contains(adjacency[a], b) {
			adjacency[a] = append(adjacency[a], b)
		}
	}
	for _, e := range edges {
		link(e.A, e.B)
		link(e.B, e.A)
	}
	return New(nodes, adjacency)
}

// MustBuild is Build for compiled-in tables; it panics on bad data.
func MustBuild(nodes []Node, edges []Edge) *Graph {
	g, err := Build(nodes, edges)
	if err != nil {
		panic(err)
	}
	return g
}

func (g *Graph) Has(id types.NodeID) bool {
	_, ok := g.nodes[id]
	return ok
}

func (g *Graph) Position(id types.NodeID) (types.Vec2, error) {
	n, ok := g.nodes[id]
	if !ok {
		return types.Vec2{}, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	return n.Position, nil
}

// Neighbors returns a copy of the node's ordered neighbor set.
func (g *Graph) Neighbors(id types.NodeID) ([]types.NodeID, error) {
	if !g.Has(id) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	return slices.Clone(g.adjacency[id]), nil
}

// Adjacent reports whether a and b share an edge.
func (g *Graph) Adjacent(a, b types.NodeID) bool {
	return slices.Contains(g.adjacency[a], b)
}

// Nodes returns all node ids in declaration order.
func (g *Graph) Nodes() []types.NodeID {
	return slices.Clone(g.order)
}

func (g *Graph) Len() int {
	return len(g.order)
}

// Edges returns every undirected edge once, ordered by the declaration
// order of its first endpoint.
func (g *Graph) Edges() []Edge {
	var edges []Edge
	seen := make(map[Edge]bool)
	for _, id := range g.order {
		for _, nb := range g.adjacency[id] {
			if seen[Edge{nb, id}] {
				continue
			}
			seen[Edge{id, nb}] = true
			edges = append(edges, Edge{id, nb})
		}
	}
	return edges
}

// Distance is the Euclidean distance between two nodes.
func (g *Graph) Distance(a, b types.NodeID) (float64, error) {
	pa, err := g.Position(a)
	if err != nil {
		return 0, err
	}
	pb, err := g.Position(b)
	if err != nil {
		return 0, err
	}
	return pa.DistanceTo(pb), nil
}

// Nearest returns the node closest to p if it lies within maxDist.
func (g *Graph) Nearest(p types.Vec2, maxDist float64) (types.NodeID, bool) {
	var best types.NodeID
	bestDist := math.Inf(1)
	for _, id := range g.order {
		if d := g.nodes[id].Position.DistanceTo(p); d < bestDist {
			best, bestDist = id, d
		}
	}
	if best == "" || bestDist > maxDist {
		return "", false
	}
	return best, true
}
