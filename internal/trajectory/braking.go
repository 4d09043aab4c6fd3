package trajectory

import (
	"fmt"
	"math"

	"github.com/banshee-data/waypoint-updater/internal/waypoint"
)

// Braking defaults.
const (
	DefaultMaxDecel   = 0.5 // m/s²
	DefaultStopBuffer = 2   // waypoints short of the stop line
	DefaultSnapSpeed  = 1.0 // m/s; lower targets are commanded as 0
)

// BrakingParams configures the stop-line deceleration profile.
type BrakingParams struct {
	MaxDecel   float64 `json:"max_decel"`
	StopBuffer int     `json:"stop_buffer"`
	SnapSpeed  float64 `json:"snap_speed"`
}

// DefaultBrakingParams returns the stock profile parameters.
func DefaultBrakingParams() BrakingParams {
	return BrakingParams{
		MaxDecel:   DefaultMaxDecel,
		StopBuffer: DefaultStopBuffer,
		SnapSpeed:  DefaultSnapSpeed,
	}
}

// Validate rejects parameters for which the profile is undefined.
func (p BrakingParams) Validate() error {
	if !(p.MaxDecel > 0) || math.IsInf(p.MaxDecel, 0) {
		return fmt.Errorf("max_decel must be a positive finite value, got %f", p.MaxDecel)
	}
	if p.StopBuffer < 0 {
		return fmt.Errorf("stop_buffer must be non-negative, got %d", p.StopBuffer)
	}
	if p.SnapSpeed < 0 || math.IsNaN(p.SnapSpeed) {
		return fmt.Errorf("snap_speed must be non-negative, got %f", p.SnapSpeed)
	}
	return nil
}

// ShouldBrake reports whether stopIndex falls inside a window of windowLen
// waypoints starting at localizedIndex.
func ShouldBrake(localizedIndex, stopIndex, windowLen int) bool {
	return stopIndex != NoStop && stopIndex >= 0 && stopIndex < localizedIndex+windowLen
}

// StopOffset returns the window index at which the vehicle must be at rest:
// StopBuffer waypoints short of the stop line, never before the window start.
func StopOffset(localizedIndex, stopIndex int, p BrakingParams) int {
	offset := stopIndex - localizedIndex - p.StopBuffer
	if offset < 0 {
		return 0
	}
	return offset
}

// ApplyBraking returns a copy of window whose speeds bring the vehicle to rest
// at the stop offset under constant deceleration p.MaxDecel. Each target is
// min(sqrt(2·a·d), reference speed), with d the forward arc length to the stop
// offset, and targets below p.SnapSpeed are zeroed. Waypoints at or past the
// stop offset walk no distance and get 0. When the stop line is outside the
// window the copy is returned unchanged.
//
// Speeds are derived from positions and the incoming speeds act only as a
// ceiling, so applying the profile to an already braked window is a no-op.
func ApplyBraking(window []waypoint.Waypoint, localizedIndex, stopIndex int, p BrakingParams) []waypoint.Waypoint {
	out := make([]waypoint.Waypoint, len(window))
	copy(out, window)
	if len(window) == 0 || !ShouldBrake(localizedIndex, stopIndex, len(window)) {
		return out
	}

	stop := StopOffset(localizedIndex, stopIndex, p)
	if stop > len(window)-1 {
		stop = len(window) - 1
	}

	// Walk backwards from the stop offset so each arc length is O(1).
	remaining := 0.0
	for i := len(window) - 1; i >= 0; i-- {
		dist := 0.0
		if i < stop {
			remaining += window[i].DistanceTo(window[i+1])
			dist = remaining
		}
		v := math.Sqrt(2 * p.MaxDecel * dist)
		if v < p.SnapSpeed {
			v = 0
		}
		out[i].Speed = math.Min(v, window[i].Speed)
	}
	return out
}

// StoppingDistance returns the distance needed to stop from speed v at a
// constant deceleration of maxDecel.
func StoppingDistance(v, maxDecel float64) float64 {
	if maxDecel <= 0 {
		return math.Inf(1)
	}
	return (v * v) / (2 * maxDecel)
}
