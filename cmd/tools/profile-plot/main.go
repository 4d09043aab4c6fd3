// Command profile-plot shows the speed profile the planner would command for a
// given vehicle position and stop line.
package main

import (
	"flag"
	"log"
	"os"

	"github.com/banshee-data/waypoint-updater/internal/trajectory"
	"github.com/banshee-data/waypoint-updater/internal/units"
)

func main() {
	dbPath := flag.String("db", "waypoints.db", "path to sqlite DB file")
	pathName := flag.String("path-name", "", "stored path to load")
	csvPath := flag.String("csv", "", "load the path from a CSV file instead of the DB")
	speedUnits := flag.String("units", units.MPS, "speed units used in the CSV")
	configPath := flag.String("config", "", "planner config JSON (defaults when empty)")
	x := flag.Float64("x", 0, "vehicle x position")
	y := flag.Float64("y", 0, "vehicle y position")
	stop := flag.Int("stop", trajectory.NoStop, "stop line waypoint index (-1 for none)")
	out := flag.String("out", "", `write the profile plot to this PNG file ("auto" derives a name)`)
	flag.Parse()

	opts := ProfileOptions{
		DBPath:     *dbPath,
		PathName:   *pathName,
		CSVPath:    *csvPath,
		SpeedUnits: *speedUnits,
		ConfigPath: *configPath,
		X:          *x,
		Y:          *y,
		StopIndex:  *stop,
		OutPNG:     *out,
	}
	if opts.OutPNG == "auto" {
		opts.OutPNG = DefaultOutputName(opts)
	}

	w, profile, err := RunProfile(opts)
	if err != nil {
		log.Fatalf("profile failed: %v", err)
	}
	if err := PrintProfile(os.Stdout, w, profile); err != nil {
		log.Fatalf("print failed: %v", err)
	}
	if opts.OutPNG != "" {
		log.Printf("wrote %s", opts.OutPNG)
	}
}
