package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/banshee-data/waypoint-updater/internal/monitoring"
	"github.com/banshee-data/waypoint-updater/internal/waypoint"
)

var (
	// linesTotal counts ingest lines by kind and result
	linesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "waypoint_ingest_lines_total",
		Help: "Input lines by message kind and result (applied, rejected)",
	}, []string{"kind", "result"})
)

// Applier receives decoded updates. planner.State implements it.
type Applier interface {
	SetPosition(waypoint.Position)
	SetStopIndex(int) error
	SetObstacleIndex(int)
	LoadPath(*waypoint.Path) (bool, error)
}

// Source delivers raw lines. serialmux.SerialMuxInterface implements it.
type Source interface {
	Subscribe() (string, chan string)
	Unsubscribe(string)
}

// Apply writes m into a.
func Apply(a Applier, m Message) error {
	switch m.Kind {
	case KindPose:
		a.SetPosition(m.Position)
	case KindStop:
		return a.SetStopIndex(m.Index)
	case KindObstacle:
		a.SetObstacleIndex(m.Index)
	case KindPath:
		path, err := waypoint.NewPath(m.Waypoints)
		if err != nil {
			return fmt.Errorf("invalid path message: %w", err)
		}
		loaded, err := a.LoadPath(path)
		if err != nil {
			return err
		}
		if !loaded {
			monitoring.Debugf("[Ingest] path message ignored, path already loaded")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, m.Kind)
	}
	return nil
}

// Stats counts dispatched lines.
type Stats struct {
	Applied  uint64 `json:"applied"`
	Rejected uint64 `json:"rejected"`
	Skipped  uint64 `json:"skipped"`
}

// Dispatcher feeds lines from a Source into an Applier.
type Dispatcher struct {
	source     Source
	applier    Applier
	subscribed chan struct{}
	subOnce    sync.Once

	applied  atomic.Uint64
	rejected atomic.Uint64
	skipped  atomic.Uint64
}

// NewDispatcher returns a Dispatcher reading from source.
func NewDispatcher(source Source, applier Applier) *Dispatcher {
	return &Dispatcher{source: source, applier: applier, subscribed: make(chan struct{})}
}

// Subscribed is closed once Run has subscribed to the source. Callers start
// the source's read loop after it so no early lines are missed.
func (d *Dispatcher) Subscribed() <-chan struct{} {
	return d.subscribed
}

// Run subscribes to the source and applies every line until ctx is cancelled
// or the source closes the subscription. Bad lines are logged and counted.
func (d *Dispatcher) Run(ctx context.Context) error {
	id, lines := d.source.Subscribe()
	defer d.source.Unsubscribe(id)
	d.subOnce.Do(func() { close(d.subscribed) })

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				monitoring.Logf("[Ingest] input closed")
				return nil
			}
			d.Handle(line)
		}
	}
}

// Handle parses and applies a single line.
func (d *Dispatcher) Handle(line string) {
	msg, err := ParseLine(line)
	if errors.Is(err, ErrSkip) {
		d.skipped.Add(1)
		return
	}
	if err != nil {
		d.rejected.Add(1)
		linesTotal.WithLabelValues("unknown", "rejected").Inc()
		monitoring.Logf("[Ingest] rejected line %q: %v", truncate(line, 120), err)
		return
	}
	if err := Apply(d.applier, msg); err != nil {
		d.rejected.Add(1)
		linesTotal.WithLabelValues(string(msg.Kind), "rejected").Inc()
		monitoring.Logf("[Ingest] failed to apply %s update: %v", msg.Kind, err)
		return
	}
	d.applied.Add(1)
	linesTotal.WithLabelValues(string(msg.Kind), "applied").Inc()
}

// Stats returns the line counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Applied:  d.applied.Load(),
		Rejected: d.rejected.Load(),
		Skipped:  d.skipped.Load(),
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
