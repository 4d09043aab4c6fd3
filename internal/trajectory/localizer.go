package trajectory

import (
	"sync/atomic"

	"github.com/banshee-data/waypoint-updater/internal/spatial"
	"github.com/banshee-data/waypoint-updater/internal/waypoint"
)

// Localizer finds the waypoint immediately ahead of the vehicle. Results are
// monotonic within a lap: a nearest-neighbour answer below the last reported
// index is clamped up to it.
type Localizer struct {
	path  *waypoint.Path
	index *spatial.Index
	last  atomic.Int64
}

// NewLocalizer returns a Localizer over path using a prebuilt index of the
// same path.
func NewLocalizer(path *waypoint.Path, index *spatial.Index) *Localizer {
	l := &Localizer{path: path, index: index}
	l.last.Store(-1)
	return l
}

// Localize returns the index of the waypoint ahead of pos and records it as
// the last localized index.
func (l *Localizer) Localize(pos waypoint.Position) int {
	n := l.path.Len()
	c := l.index.Nearest(pos.X, pos.Y)
	if last := int(l.last.Load()); last > c {
		c = last
	}

	// The hyperplane through waypoint c, normal to the path tangent, splits
	// "approaching c" from "already past c".
	prev := (c - 1 + n) % n
	cur := l.path.At(c)
	before := l.path.At(prev)
	tx, ty := cur.X-before.X, cur.Y-before.Y
	ox, oy := pos.X-cur.X, pos.Y-cur.Y
	if tx*ox+ty*oy > 0 {
		c = (c + 1) % n
	}

	l.last.Store(int64(c))
	return c
}

// Last returns the last localized index, or -1 before the first call.
func (l *Localizer) Last() int {
	return int(l.last.Load())
}

// Reset forgets the last localized index.
func (l *Localizer) Reset() {
	l.last.Store(-1)
}
