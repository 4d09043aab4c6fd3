// Package planner owns the shared vehicle state and the fixed-cadence tick
// that turns it into trajectory windows.
package planner

import (
	"errors"
	"fmt"
	"sync"

	"github.com/banshee-data/waypoint-updater/internal/monitoring"
	"github.com/banshee-data/waypoint-updater/internal/spatial"
	"github.com/banshee-data/waypoint-updater/internal/trajectory"
	"github.com/banshee-data/waypoint-updater/internal/waypoint"
)

// ErrInvalidStopIndex is returned for stop indices below NoStop.
var ErrInvalidStopIndex = errors.New("stop index must be -1 or a path index")

// Phase is the planner lifecycle state.
type Phase int

const (
	// PhaseWaitingForInputs: no position or no path seen yet.
	PhaseWaitingForInputs Phase = iota
	// PhaseReady: both seen. Never reverts.
	PhaseReady
)

func (p Phase) String() string {
	switch p {
	case PhaseWaitingForInputs:
		return "waiting_for_inputs"
	case PhaseReady:
		return "ready"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// State is the container written by the input handlers and read by the
// planner tick. Handlers only store values here; all computation happens on
// the tick.
type State struct {
	mu          sync.RWMutex
	position    waypoint.Position
	hasPosition bool
	stopIndex   int
	obstacle    int

	// Published once by LoadPath and read-only afterwards.
	path      *waypoint.Path
	index     *spatial.Index
	localizer *trajectory.Localizer
}

// NewState returns an empty container with no stop line pending.
func NewState() *State {
	return &State{stopIndex: trajectory.NoStop, obstacle: trajectory.NoStop}
}

// Snapshot is a consistent copy of State taken at the start of a tick.
type Snapshot struct {
	Position    waypoint.Position
	HasPosition bool
	StopIndex   int
	Path        *waypoint.Path
	Localizer   *trajectory.Localizer
}

// Ready reports whether the snapshot carries both a position and a path.
func (s Snapshot) Ready() bool {
	return s.HasPosition && s.Path != nil
}

// SetPosition records the latest vehicle position. Last write wins.
func (s *State) SetPosition(pos waypoint.Position) {
	s.mu.Lock()
	s.position = pos
	s.hasPosition = true
	s.mu.Unlock()
}

// SetStopIndex records the latest stop line index, or trajectory.NoStop.
func (s *State) SetStopIndex(index int) error {
	if index < trajectory.NoStop {
		return fmt.Errorf("%w: got %d", ErrInvalidStopIndex, index)
	}
	s.mu.Lock()
	s.stopIndex = index
	s.mu.Unlock()
	return nil
}

// SetObstacleIndex accepts obstacle updates. They do not affect planning.
func (s *State) SetObstacleIndex(index int) {
	s.mu.Lock()
	s.obstacle = index
	s.mu.Unlock()
	monitoring.Debugf("[Planner] obstacle update %d ignored", index)
}

// LoadPath installs the reference path and builds its spatial index. Only
// the first call has any effect; later calls return false.
func (s *State) LoadPath(path *waypoint.Path) (bool, error) {
	if path == nil || path.Len() == 0 {
		return false, waypoint.ErrEmptyPath
	}

	s.mu.RLock()
	loaded := s.path != nil
	s.mu.RUnlock()
	if loaded {
		return false, nil
	}

	index, err := spatial.NewPathIndex(path)
	if err != nil {
		return false, fmt.Errorf("failed to index path: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.path != nil {
		return false, nil
	}
	s.path = path
	s.index = index
	s.localizer = trajectory.NewLocalizer(path, index)
	monitoring.Logf("[Planner] reference path loaded: %d waypoints, %.1f m", path.Len(), path.Length())
	return true, nil
}

// Snapshot returns a consistent copy of the current inputs.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Position:    s.position,
		HasPosition: s.hasPosition,
		StopIndex:   s.stopIndex,
		Path:        s.path,
		Localizer:   s.localizer,
	}
}

// Phase returns the lifecycle state.
func (s *State) Phase() Phase {
	if s.Snapshot().Ready() {
		return PhaseReady
	}
	return PhaseWaitingForInputs
}

// StopIndex returns the latest stop line index.
func (s *State) StopIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stopIndex
}

// ObstacleIndex returns the latest obstacle index.
func (s *State) ObstacleIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.obstacle
}

// Path returns the loaded reference path, or nil.
func (s *State) Path() *waypoint.Path {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.path
}
