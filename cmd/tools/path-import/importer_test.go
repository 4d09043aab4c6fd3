package main

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/banshee-data/waypoint-updater/internal/db"
)

func writeCSV(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	return p
}

func TestRunImport(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeCSV(t, dir, "loop.csv", "x,y,z,speed\n0,0,0,36\n1,0,0,36\n2,0,0,18\n")
	dbPath := filepath.Join(dir, "waypoints.db")

	id, n, err := RunImport(ImportOptions{CSVPath: csvPath, DBPath: dbPath, Name: "loop", Units: "kmph"})
	if err != nil {
		t.Fatalf("RunImport: %v", err)
	}
	if id == "" {
		t.Error("expected a path id")
	}
	if n != 3 {
		t.Errorf("waypoints = %d, want 3", n)
	}

	store, err := db.OpenDB(dbPath)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer store.Close()

	path, err := store.LoadPath("loop")
	if err != nil {
		t.Fatalf("LoadPath: %v", err)
	}
	if got := path.At(0).Speed; math.Abs(got-10) > 1e-9 {
		t.Errorf("speed[0] = %v, want 10 m/s", got)
	}
	if got := path.At(2).Speed; math.Abs(got-5) > 1e-9 {
		t.Errorf("speed[2] = %v, want 5 m/s", got)
	}
}

func TestRunImport_Replace(t *testing.T) {
	dir := t.TempDir()
	csvPath := writeCSV(t, dir, "track.csv", "0,0,0,1\n1,0,0,1\n")
	dbPath := filepath.Join(dir, "waypoints.db")
	opts := ImportOptions{CSVPath: csvPath, DBPath: dbPath, Name: "track", Units: "mps"}

	if _, _, err := RunImport(opts); err != nil {
		t.Fatalf("first import: %v", err)
	}
	if _, _, err := RunImport(opts); !errors.Is(err, db.ErrPathExists) {
		t.Fatalf("second import err = %v, want ErrPathExists", err)
	}

	opts.Replace = true
	if _, _, err := RunImport(opts); err != nil {
		t.Fatalf("replace import: %v", err)
	}
}

func TestRunImport_Errors(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "waypoints.db")

	tests := []struct {
		name string
		opts ImportOptions
	}{
		{"missing name", ImportOptions{CSVPath: writeCSV(t, dir, "a.csv", "0,0,0,1\n"), DBPath: dbPath, Units: "mps"}},
		{"missing file", ImportOptions{CSVPath: filepath.Join(dir, "nope.csv"), DBPath: dbPath, Name: "a", Units: "mps"}},
		{"empty csv", ImportOptions{CSVPath: writeCSV(t, dir, "empty.csv", "x,y,z,speed\n"), DBPath: dbPath, Name: "b", Units: "mps"}},
		{"bad units", ImportOptions{CSVPath: writeCSV(t, dir, "c.csv", "0,0,0,1\n"), DBPath: dbPath, Name: "c", Units: "furlongs"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := RunImport(tt.opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}
