// Package monitor serves the planner's status API, speed profile charts and
// Prometheus metrics.
package monitor

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gonum.org/v1/gonum/floats"

	"github.com/banshee-data/waypoint-updater/internal/httputil"
	"github.com/banshee-data/waypoint-updater/internal/planner"
	"github.com/banshee-data/waypoint-updater/internal/trajectory"
	"github.com/banshee-data/waypoint-updater/internal/version"
	"github.com/banshee-data/waypoint-updater/internal/waypoint"
)

// WebServer exposes planner state over HTTP.
type WebServer struct {
	planner *planner.Planner
	plotter *ProfilePlotter
	started time.Time

	statsMu sync.RWMutex
	stats   map[string]func() any
}

// NewWebServer returns a WebServer reporting on p.
func NewWebServer(p *planner.Planner) *WebServer {
	return &WebServer{
		planner: p,
		plotter: NewProfilePlotter(),
		started: time.Now(),
		stats:   make(map[string]func() any),
	}
}

// AddStats includes f's result under name in the status response.
func (ws *WebServer) AddStats(name string, f func() any) {
	ws.statsMu.Lock()
	defer ws.statsMu.Unlock()
	ws.stats[name] = f
}

// RegisterRoutes mounts the monitor endpoints on mux.
func (ws *WebServer) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/status", ws.handleStatus)
	mux.HandleFunc("/api/window", ws.handleWindow)
	mux.HandleFunc("/debug/profile", ws.handleProfileChart)
	mux.HandleFunc("/debug/profile.png", ws.handleProfilePNG)
	mux.Handle("/metrics", promhttp.Handler())
}

// WindowSummary condenses a window for the status response.
type WindowSummary struct {
	Seq        uint64  `json:"seq"`
	Timestamp  string  `json:"timestamp"`
	StartIndex int     `json:"start_index"`
	StopIndex  int     `json:"stop_index"`
	Braking    bool    `json:"braking"`
	Points     int     `json:"points"`
	MinSpeed   float64 `json:"min_speed"`
	MaxSpeed   float64 `json:"max_speed"`
}

// Status is the /api/status response.
type Status struct {
	Version          version.Info   `json:"version"`
	Phase            string         `json:"phase"`
	Uptime           string         `json:"uptime"`
	PathWaypoints    int            `json:"path_waypoints"`
	LastIndex        int            `json:"last_index"`
	StopIndex        int            `json:"stop_index"`
	ObstacleIndex    int            `json:"obstacle_index"`
	Emitted          uint64         `json:"emitted"`
	Window           *WindowSummary `json:"window,omitempty"`
	StoppingDistance *float64       `json:"stopping_distance_m,omitempty"`
	DistanceToStop   *float64       `json:"distance_to_stop_m,omitempty"`
	Components       map[string]any `json:"components,omitempty"`
}

// Snapshot assembles the current status.
func (ws *WebServer) Snapshot() Status {
	state := ws.planner.State()
	snap := state.Snapshot()

	st := Status{
		Version:       version.Get(),
		Phase:         state.Phase().String(),
		Uptime:        time.Since(ws.started).Round(time.Second).String(),
		LastIndex:     -1,
		StopIndex:     snap.StopIndex,
		ObstacleIndex: state.ObstacleIndex(),
		Emitted:       ws.planner.Emitted(),
	}
	if snap.Path != nil {
		st.PathWaypoints = snap.Path.Len()
	}
	if snap.Localizer != nil {
		st.LastIndex = snap.Localizer.Last()
	}

	if w := ws.planner.Latest(); w != nil {
		st.Window = summarize(w)
		if snap.Path != nil && w.StartIndex < snap.Path.Len() {
			v := snap.Path.At(w.StartIndex).Speed
			d := trajectory.StoppingDistance(v, ws.planner.Config().Braking.MaxDecel)
			st.StoppingDistance = &d
			if snap.StopIndex >= w.StartIndex && snap.StopIndex < snap.Path.Len() {
				seg := snap.Path.Slice(w.StartIndex, snap.StopIndex+1)
				ds := waypoint.ArcLength(seg, 0, len(seg)-1)
				st.DistanceToStop = &ds
			}
		}
	}

	ws.statsMu.RLock()
	if len(ws.stats) > 0 {
		st.Components = make(map[string]any, len(ws.stats))
		names := make([]string, 0, len(ws.stats))
		for name := range ws.stats {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			st.Components[name] = ws.stats[name]()
		}
	}
	ws.statsMu.RUnlock()
	return st
}

func summarize(w *trajectory.Window) *WindowSummary {
	s := &WindowSummary{
		Seq:        w.Seq,
		Timestamp:  time.Unix(0, w.TimestampNanos).UTC().Format(time.RFC3339Nano),
		StartIndex: w.StartIndex,
		StopIndex:  w.StopIndex,
		Braking:    w.Braking,
		Points:     w.Len(),
	}
	if speeds := w.Speeds(); len(speeds) > 0 {
		s.MinSpeed = floats.Min(speeds)
		s.MaxSpeed = floats.Max(speeds)
	}
	return s
}

func (ws *WebServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	httputil.WriteJSONOK(w, ws.Snapshot())
}

// handleWindow returns the latest window in full.
func (ws *WebServer) handleWindow(w http.ResponseWriter, r *http.Request) {
	if !httputil.RequireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	win := ws.planner.Latest()
	if win == nil {
		httputil.NotFound(w, "no window emitted yet")
		return
	}
	httputil.WriteJSONOK(w, win)
}

// handleProfileChart renders the latest window's reference and target speeds
// as an echarts line chart.
func (ws *WebServer) handleProfileChart(w http.ResponseWriter, r *http.Request) {
	win := ws.planner.Latest()
	if win == nil {
		httputil.NotFound(w, "no window emitted yet")
		return
	}
	profile := BuildProfile(ws.planner.State().Path(), win)

	x := make([]string, len(profile))
	ref := make([]opts.LineData, len(profile))
	tgt := make([]opts.LineData, len(profile))
	for i, pt := range profile {
		x[i] = strconv.FormatFloat(pt.Distance, 'f', 1, 64)
		ref[i] = opts.LineData{Value: pt.Reference}
		tgt[i] = opts.LineData{Value: pt.Target}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Speed Profile", Width: "100%", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Window Speed Profile",
			Subtitle: fmt.Sprintf("seq=%d start=%d stop=%d braking=%v", win.Seq, win.StartIndex, win.StopIndex, win.Braking),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Distance (m)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Speed (m/s)", Min: 0}),
	)
	line.SetXAxis(x).
		AddSeries("reference", ref).
		AddSeries("target", tgt, charts.WithLineChartOpts(opts.LineChart{Step: "end"}))

	page := components.NewPage()
	page.AddCharts(line)

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("render error: %v", err))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

// handleProfilePNG renders the latest window's profile with gonum/plot.
func (ws *WebServer) handleProfilePNG(w http.ResponseWriter, r *http.Request) {
	win := ws.planner.Latest()
	if win == nil {
		httputil.NotFound(w, "no window emitted yet")
		return
	}
	profile := BuildProfile(ws.planner.State().Path(), win)

	var buf bytes.Buffer
	title := fmt.Sprintf("Window %d (start %d, stop %d)", win.Seq, win.StartIndex, win.StopIndex)
	if err := ws.plotter.WritePNG(&buf, profile, title); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("render error: %v", err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}
