package types

import (
	"math"
	"strings"

	"golang.org/x/exp/constraints"
)

type Callsign string

// NormalizeCallsign trims and upper-cases operator input.
func NormalizeCallsign(s string) Callsign {
	return Callsign(strings.ToUpper(strings.TrimSpace(s)))
}

type NodeID string

// Route is an ordered node sequence, start to goal inclusive.
type Route []NodeID

func (r Route) First() NodeID {
	if len(r) == 0 {
		return ""
	}
	return r[0]
}

func (r Route) Last() NodeID {
	if len(r) == 0 {
		return ""
	}
	return r[len(r)-1]
}

func (r Route) Clone() Route {
	if r == nil {
		return nil
	}
	return append(Route(nil), r...)
}

type Vec2 struct {
	X float64
	Y float64
}

func NewVec2(x, y float64) Vec2 {
	return Vec2{x, y}
}

func (v1 Vec2) DistanceTo(v2 Vec2) float64 {
	dx := v1.X - v2.X
	dy := v1.Y - v2.Y
	return math.Sqrt(dx*dx + dy*dy)
}

// HeadingTo returns the bearing from v1 to v2 in degrees [0, 360), with 0
// pointing up the screen (negative Y) and angles increasing clockwise.
func (v1 Vec2) HeadingTo(v2 Vec2) float64 {
	dx := v2.X - v1.X
	dy := v2.Y - v1.Y
	hdg := math.Atan2(dx, -dy) * 180.0 / math.Pi
	return math.Mod(hdg+360, 360)
}

func Clamp[T constraints.Integer | constraints.Float](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
