// Package trajectory turns a localized vehicle position into the forward
// window of waypoints handed to the controller: localization against the
// reference path, window extraction and the stop-line braking profile.
package trajectory

import (
	"github.com/banshee-data/waypoint-updater/internal/waypoint"
)

// NoStop is the stop-index sentinel for "no stop line pending".
const NoStop = -1

// DefaultLookahead is the number of waypoints published per window.
const DefaultLookahead = 200

// Window is the forward slice of the reference path produced on one planner
// tick. Waypoints are copies; their Speed carries the target speed, which may
// be lower than the reference speed when braking.
type Window struct {
	Seq            uint64              `json:"seq"`
	TimestampNanos int64               `json:"timestamp_ns"`
	StartIndex     int                 `json:"start_index"`
	StopIndex      int                 `json:"stop_index"`
	Braking        bool                `json:"braking"`
	Waypoints      []waypoint.Waypoint `json:"waypoints"`
}

// Len returns the number of waypoints in the window.
func (w *Window) Len() int { return len(w.Waypoints) }

// Speeds returns the target speed of every waypoint in order.
func (w *Window) Speeds() []float64 {
	s := make([]float64, len(w.Waypoints))
	for i, p := range w.Waypoints {
		s[i] = p.Speed
	}
	return s
}

// ExtractWindow returns copies of up to n waypoints starting at start. The
// window is truncated at the end of the path and never wraps around to the
// start of a closed loop. A start outside the path yields an empty window.
func ExtractWindow(path *waypoint.Path, start, n int) []waypoint.Waypoint {
	if path == nil || start < 0 || start >= path.Len() || n <= 0 {
		return []waypoint.Waypoint{}
	}
	end := start + n
	if end > path.Len() {
		end = path.Len()
	}
	return path.Slice(start, end)
}
