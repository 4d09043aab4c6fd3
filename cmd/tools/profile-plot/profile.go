package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/banshee-data/waypoint-updater/internal/config"
	"github.com/banshee-data/waypoint-updater/internal/db"
	"github.com/banshee-data/waypoint-updater/internal/monitor"
	"github.com/banshee-data/waypoint-updater/internal/planner"
	"github.com/banshee-data/waypoint-updater/internal/security"
	"github.com/banshee-data/waypoint-updater/internal/timeutil"
	"github.com/banshee-data/waypoint-updater/internal/trajectory"
	"github.com/banshee-data/waypoint-updater/internal/waypoint"
)

// ProfileOptions selects a path, a vehicle position and a stop line.
type ProfileOptions struct {
	DBPath     string
	PathName   string
	CSVPath    string
	SpeedUnits string
	ConfigPath string
	X, Y       float64
	StopIndex  int
	OutPNG     string
}

func loadPath(opts ProfileOptions) (*waypoint.Path, error) {
	switch {
	case opts.CSVPath != "":
		f, err := os.Open(opts.CSVPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open csv: %w", err)
		}
		defer f.Close()
		points, err := waypoint.ReadCSV(f, opts.SpeedUnits)
		if err != nil {
			return nil, err
		}
		return waypoint.NewPath(points)
	case opts.PathName != "":
		store, err := db.NewDB(opts.DBPath)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return store.LoadPath(opts.PathName)
	default:
		return nil, errors.New("either a csv file or a stored path name is required")
	}
}

// RunProfile computes the window a planner would emit for the given inputs
// and optionally renders it to a PNG.
func RunProfile(opts ProfileOptions) (*trajectory.Window, []monitor.ProfilePoint, error) {
	cfg := config.DefaultPlannerConfig()
	if opts.ConfigPath != "" {
		var err error
		if cfg, err = config.LoadPlannerConfig(opts.ConfigPath); err != nil {
			return nil, nil, err
		}
	}

	path, err := loadPath(opts)
	if err != nil {
		return nil, nil, err
	}

	state := planner.NewState()
	if _, err := state.LoadPath(path); err != nil {
		return nil, nil, err
	}
	if err := state.SetStopIndex(opts.StopIndex); err != nil {
		return nil, nil, err
	}
	state.SetPosition(waypoint.Position{X: opts.X, Y: opts.Y})

	p, err := planner.New(planner.ConfigFromPlannerConfig(cfg), state, timeutil.NewMockClock(time.Now()))
	if err != nil {
		return nil, nil, err
	}
	w, ok := p.Tick()
	if !ok {
		return nil, nil, errors.New("planner produced no window")
	}

	profile := monitor.BuildProfile(path, w)
	if opts.OutPNG != "" {
		if err := security.ValidateOutputPath(opts.OutPNG); err != nil {
			return nil, nil, err
		}
		title := fmt.Sprintf("start %d, stop %d", w.StartIndex, w.StopIndex)
		if err := monitor.NewProfilePlotter().SavePNG(opts.OutPNG, profile, title); err != nil {
			return nil, nil, fmt.Errorf("failed to write plot: %w", err)
		}
	}
	return w, profile, nil
}

// PrintProfile writes the profile as an aligned table.
func PrintProfile(out io.Writer, w *trajectory.Window, profile []monitor.ProfilePoint) error {
	fmt.Fprintf(out, "start=%d stop=%d braking=%v points=%d\n", w.StartIndex, w.StopIndex, w.Braking, w.Len())
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "index\tdistance_m\treference_mps\ttarget_mps\t")
	for _, pt := range profile {
		fmt.Fprintf(tw, "%d\t%.2f\t%.2f\t%.2f\t\n", pt.Index, pt.Distance, pt.Reference, pt.Target)
	}
	return tw.Flush()
}

// DefaultOutputName derives a PNG file name from the path source and stop.
func DefaultOutputName(opts ProfileOptions) string {
	name := opts.PathName
	if opts.CSVPath != "" {
		name = strings.TrimSuffix(filepath.Base(opts.CSVPath), filepath.Ext(opts.CSVPath))
	}
	return fmt.Sprintf("profile-%s-stop%d.png", security.SanitizeFilename(name), opts.StopIndex)
}
