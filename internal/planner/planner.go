package planner

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/banshee-data/waypoint-updater/internal/config"
	"github.com/banshee-data/waypoint-updater/internal/monitoring"
	"github.com/banshee-data/waypoint-updater/internal/timeutil"
	"github.com/banshee-data/waypoint-updater/internal/trajectory"
)

// Config holds the effective planner settings.
type Config struct {
	Lookahead    int
	TickInterval time.Duration
	Braking      trajectory.BrakingParams
}

// DefaultConfig returns the stock settings: 200 waypoints at 50 Hz.
func DefaultConfig() Config {
	return Config{
		Lookahead:    trajectory.DefaultLookahead,
		TickInterval: 20 * time.Millisecond,
		Braking:      trajectory.DefaultBrakingParams(),
	}
}

// ConfigFromPlannerConfig resolves a loaded PlannerConfig into effective
// settings.
func ConfigFromPlannerConfig(c *config.PlannerConfig) Config {
	return Config{
		Lookahead:    c.GetLookaheadWaypoints(),
		TickInterval: c.GetTickInterval(),
		Braking: trajectory.BrakingParams{
			MaxDecel:   c.GetMaxDecel(),
			StopBuffer: c.GetStopBuffer(),
			SnapSpeed:  c.GetSnapSpeed(),
		},
	}
}

// Validate rejects settings the planner cannot run with.
func (c Config) Validate() error {
	if c.Lookahead <= 0 {
		return fmt.Errorf("lookahead must be positive, got %d", c.Lookahead)
	}
	if c.TickInterval <= 0 {
		return fmt.Errorf("tick interval must be positive, got %v", c.TickInterval)
	}
	return c.Braking.Validate()
}

// Sink receives every emitted window. Publish must not block the tick.
type Sink interface {
	Publish(w *trajectory.Window)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(w *trajectory.Window)

// Publish calls f(w).
func (f SinkFunc) Publish(w *trajectory.Window) { f(w) }

// Planner turns State snapshots into windows on a fixed cadence.
type Planner struct {
	cfg    Config
	state  *State
	clock  timeutil.Clock
	sinks  []Sink
	seq    atomic.Uint64
	latest atomic.Pointer[trajectory.Window]
}

// New returns a Planner. The configuration is validated here so that an
// invalid setting is fatal before the loop starts.
func New(cfg Config, state *State, clock timeutil.Clock, sinks ...Sink) (*Planner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid planner config: %w", err)
	}
	if state == nil {
		return nil, fmt.Errorf("planner requires a state container")
	}
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &Planner{cfg: cfg, state: state, clock: clock, sinks: sinks}, nil
}

// Tick runs one planning cycle. It returns false, and publishes nothing,
// while the planner is still waiting for a position or a path.
func (p *Planner) Tick() (*trajectory.Window, bool) {
	snap := p.state.Snapshot()
	if !snap.Ready() {
		ticksTotal.WithLabelValues("not_ready").Inc()
		return nil, false
	}
	start := time.Now()

	idx := snap.Localizer.Localize(snap.Position)
	points := trajectory.ExtractWindow(snap.Path, idx, p.cfg.Lookahead)
	braking := len(points) > 0 && trajectory.ShouldBrake(idx, snap.StopIndex, len(points))
	if braking {
		points = trajectory.ApplyBraking(points, idx, snap.StopIndex, p.cfg.Braking)
	}

	w := &trajectory.Window{
		Seq:            p.seq.Add(1),
		TimestampNanos: p.clock.Now().UnixNano(),
		StartIndex:     idx,
		StopIndex:      snap.StopIndex,
		Braking:        braking,
		Waypoints:      points,
	}
	p.latest.Store(w)

	for _, s := range p.sinks {
		s.Publish(w)
	}

	ticksTotal.WithLabelValues("emitted").Inc()
	if braking {
		brakingWindowsTotal.Inc()
	}
	localizedIndex.Set(float64(idx))
	tickDuration.Observe(time.Since(start).Seconds())
	monitoring.Debugf("[Planner] seq=%d start=%d stop=%d braking=%v points=%d",
		w.Seq, idx, snap.StopIndex, braking, len(points))
	return w, true
}

// Run ticks at the configured interval until ctx is cancelled.
func (p *Planner) Run(ctx context.Context) error {
	ticker := p.clock.NewTicker(p.cfg.TickInterval)
	defer ticker.Stop()

	monitoring.Logf("[Planner] running: lookahead=%d interval=%v max_decel=%.2f",
		p.cfg.Lookahead, p.cfg.TickInterval, p.cfg.Braking.MaxDecel)

	waiting := true
	for {
		select {
		case <-ctx.Done():
			monitoring.Logf("[Planner] stopped after %d windows", p.seq.Load())
			return ctx.Err()
		case <-ticker.C():
			if _, ok := p.Tick(); ok && waiting {
				waiting = false
				monitoring.Logf("[Planner] ready, emitting windows")
			}
		}
	}
}

// Latest returns the most recently emitted window, or nil.
func (p *Planner) Latest() *trajectory.Window {
	return p.latest.Load()
}

// Emitted returns the number of windows emitted so far.
func (p *Planner) Emitted() uint64 {
	return p.seq.Load()
}

// Config returns the effective settings.
func (p *Planner) Config() Config {
	return p.cfg
}

// State returns the container the planner reads from.
func (p *Planner) State() *State {
	return p.state
}
