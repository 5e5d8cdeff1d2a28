// Package spline turns discrete node routes into dense Catmull-Rom
// trajectories that aircraft follow point by point.
package spline

import (
	"errors"
	"fmt"

	"taxi-simulator/pkg/types"
)

var ErrInvalidSamples = errors.New("samples per segment must be at least 1")

// Positioner resolves node ids to map positions; *topology.Graph
// satisfies it.
type Positioner interface {
	Position(id types.NodeID) (types.Vec2, error)
}

// Path is a smoothed trajectory. Segments[i] is the route index j such
// that Points[i] lies on the motion from route[j] to route[j+1].
type Path struct {
	Points   []types.Vec2
	Segments []int
}

func (p Path) Len() int {
	return len(p.Points)
}

// Segment returns the route segment for point i, clamped to the path.
func (p Path) Segment(i int) int {
	if len(p.Segments) == 0 {
		return 0
	}
	return p.Segments[types.Clamp(i, 0, len(p.Segments)-1)]
}

// CatmullRom evaluates the uniform Catmull-Rom segment between p1 and p2
// at t in [0, 1].
func CatmullRom(p0, p1, p2, p3 types.Vec2, t float64) types.Vec2 {
	t2 := t * t
	t3 := t2 * t
	axis := func(a0, a1, a2, a3 float64) float64 {
		return 0.5 * ((2 * a1) +
			(-a0+a2)*t +
			(2*a0-5*a1+4*a2-a3)*t2 +
			(-a0+3*a1-3*a2+a3)*t3)
	}
	return types.NewVec2(axis(p0.X, p1.X, p2.X, p3.X), axis(p0.Y, p1.Y, p2.Y, p3.Y))
}

// Build samples samplesPerSegment points per route segment at
// t = k/samplesPerSegment, k in [0, samplesPerSegment). The route's end
// points are used as their own outer control points. The goal node itself
// is not sampled; the last point only approaches it.
func Build(positions Positioner, route types.Route, samplesPerSegment int) (Path, error) {
	if samplesPerSegment < 1 {
		return Path{}, ErrInvalidSamples
	}
	if len(route) == 0 {
		return Path{}, nil
	}

	pts := make([]types.Vec2, len(route))
	for i, id := range route {
		p, err := positions.Position(id)
		if err != nil {
			return Path{}, fmt.Errorf("route index %d: %w", i, err)
		}
		pts[i] = p
	}

	if len(route) == 1 {
		return Path{Points: []types.Vec2{pts[0]}, Segments: []int{0}}, nil
	}

	n := len(route) - 1
	path := Path{
		Points:   make([]types.Vec2, 0, n*samplesPerSegment),
		Segments: make([]int, 0, n*samplesPerSegment),
	}
	for i := 0; i < n; i++ {
		p0 := pts[max(i-1, 0)]
		p1, p2 := pts[i], pts[i+1]
		p3 := pts[min(i+2, len(pts)-1)]
		for k := 0; k < samplesPerSegment; k++ {
			t := float64(k) / float64(samplesPerSegment)
			path.Points = append(path.Points, CatmullRom(p0, p1, p2, p3, t))
			path.Segments = append(path.Segments, i)
		}
	}
	return path, nil
}
