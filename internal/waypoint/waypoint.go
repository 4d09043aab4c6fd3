// Package waypoint defines the reference path model: waypoints with a 3D
// position and a nominal speed, and the immutable Path that holds them.
package waypoint

import (
	"errors"
	"fmt"
	"math"
)

// ErrEmptyPath is returned when a path is constructed with no waypoints.
var ErrEmptyPath = errors.New("reference path has no waypoints")

// Waypoint is a single point on the reference path. Speed is the nominal
// cruise speed (speed limit) at the point in m/s.
type Waypoint struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Z     float64 `json:"z"`
	Speed float64 `json:"speed"`
}

// DistanceTo returns the Euclidean 3D distance between two waypoints.
func (w Waypoint) DistanceTo(o Waypoint) float64 {
	dx := o.X - w.X
	dy := o.Y - w.Y
	dz := o.Z - w.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Position is the vehicle's current 2D position in the path frame.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Path is an ordered, immutable sequence of waypoints. A waypoint's identity
// is its index. Path values are safe for concurrent reads.
type Path struct {
	points []Waypoint
}

// NewPath validates and copies points into a Path.
func NewPath(points []Waypoint) (*Path, error) {
	if len(points) == 0 {
		return nil, ErrEmptyPath
	}
	for i, p := range points {
		if !finite(p.X) || !finite(p.Y) || !finite(p.Z) {
			return nil, fmt.Errorf("waypoint %d: non-finite position (%f, %f, %f)", i, p.X, p.Y, p.Z)
		}
		if !finite(p.Speed) || p.Speed < 0 {
			return nil, fmt.Errorf("waypoint %d: speed must be a non-negative finite value, got %f", i, p.Speed)
		}
	}
	cp := make([]Waypoint, len(points))
	copy(cp, points)
	return &Path{points: cp}, nil
}

// Len returns the number of waypoints.
func (p *Path) Len() int { return len(p.points) }

// At returns the waypoint at index i.
func (p *Path) At(i int) Waypoint { return p.points[i] }

// Waypoints returns a copy of all waypoints.
func (p *Path) Waypoints() []Waypoint {
	cp := make([]Waypoint, len(p.points))
	copy(cp, p.points)
	return cp
}

// Slice returns copies of the waypoints in [start, end).
func (p *Path) Slice(start, end int) []Waypoint {
	cp := make([]Waypoint, end-start)
	copy(cp, p.points[start:end])
	return cp
}

// Length returns the total arc length of the path.
func (p *Path) Length() float64 {
	return ArcLength(p.points, 0, len(p.points)-1)
}

// ArcLength returns the distance travelled along points walking forward from
// index from to index to inclusive, summing consecutive 3D segment lengths.
// When from >= to the walk covers no segments and the result is zero.
func ArcLength(points []Waypoint, from, to int) float64 {
	dist := 0.0
	for i := from + 1; i <= to; i++ {
		dist += points[i-1].DistanceTo(points[i])
	}
	return dist
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
