package monitor

import (
	"fmt"
	"image/color"
	"io"
	"os"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/waypoint-updater/internal/trajectory"
	"github.com/banshee-data/waypoint-updater/internal/waypoint"
)

// ProfilePoint is one waypoint of a window's speed profile.
type ProfilePoint struct {
	Index     int     `json:"index"`     // path index
	Distance  float64 `json:"distance"`  // arc length from the window start (m)
	Reference float64 `json:"reference"` // path speed (m/s)
	Target    float64 `json:"target"`    // commanded speed (m/s)
}

// BuildProfile pairs each window waypoint with its reference speed on path.
func BuildProfile(path *waypoint.Path, w *trajectory.Window) []ProfilePoint {
	if w == nil {
		return nil
	}
	out := make([]ProfilePoint, len(w.Waypoints))
	dist := 0.0
	for i, p := range w.Waypoints {
		if i > 0 {
			dist += w.Waypoints[i-1].DistanceTo(p)
		}
		ref := p.Speed
		idx := w.StartIndex + i
		if path != nil && idx < path.Len() {
			ref = path.At(idx).Speed
		}
		out[i] = ProfilePoint{Index: idx, Distance: dist, Reference: ref, Target: p.Speed}
	}
	return out
}

// ProfilePlotter renders speed profiles as images.
type ProfilePlotter struct {
	Width  vg.Length
	Height vg.Length
}

// NewProfilePlotter returns a plotter with a 10x4 inch canvas.
func NewProfilePlotter() *ProfilePlotter {
	return &ProfilePlotter{Width: 10 * vg.Inch, Height: 4 * vg.Inch}
}

func (pp *ProfilePlotter) build(profile []ProfilePoint, title string) (*plot.Plot, error) {
	if len(profile) == 0 {
		return nil, fmt.Errorf("empty profile")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Distance (m)"
	p.Y.Label.Text = "Speed (m/s)"
	p.Y.Min = 0

	refPts := make(plotter.XYs, len(profile))
	tgtPts := make(plotter.XYs, len(profile))
	for i, pt := range profile {
		refPts[i] = plotter.XY{X: pt.Distance, Y: pt.Reference}
		tgtPts[i] = plotter.XY{X: pt.Distance, Y: pt.Target}
	}

	refLine, err := plotter.NewLine(refPts)
	if err != nil {
		return nil, err
	}
	refLine.Color = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	refLine.Width = vg.Points(1)
	refLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}

	tgtLine, err := plotter.NewLine(tgtPts)
	if err != nil {
		return nil, err
	}
	tgtLine.Color = color.RGBA{R: 31, G: 119, B: 180, A: 255}
	tgtLine.Width = vg.Points(1.5)

	p.Add(plotter.NewGrid(), refLine, tgtLine)
	p.Legend.Add("reference", refLine)
	p.Legend.Add("target", tgtLine)
	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	return p, nil
}

// WritePNG writes the profile as a PNG image to w.
func (pp *ProfilePlotter) WritePNG(w io.Writer, profile []ProfilePoint, title string) error {
	p, err := pp.build(profile, title)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(pp.Width, pp.Height, "png")
	if err != nil {
		return fmt.Errorf("failed to render plot: %w", err)
	}
	_, err = wt.WriteTo(w)
	return err
}

// SavePNG writes the profile as a PNG file.
func (pp *ProfilePlotter) SavePNG(file string, profile []ProfilePoint, title string) error {
	f, err := os.Create(file)
	if err != nil {
		return err
	}
	if err := pp.WritePNG(f, profile, title); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
