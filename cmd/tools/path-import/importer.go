package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/banshee-data/waypoint-updater/internal/db"
	"github.com/banshee-data/waypoint-updater/internal/waypoint"
)

// ImportOptions controls a single CSV import.
type ImportOptions struct {
	CSVPath string
	DBPath  string
	Name    string
	Units   string
	Replace bool
}

// RunImport reads a CSV path file and stores it in the database under
// opts.Name. It returns the new path ID and the number of waypoints stored.
func RunImport(opts ImportOptions) (string, int, error) {
	if opts.Name == "" {
		return "", 0, errors.New("path name is required")
	}

	f, err := os.Open(opts.CSVPath)
	if err != nil {
		return "", 0, fmt.Errorf("failed to open csv: %w", err)
	}
	defer f.Close()

	points, err := waypoint.ReadCSV(f, opts.Units)
	if err != nil {
		return "", 0, fmt.Errorf("failed to read csv: %w", err)
	}
	path, err := waypoint.NewPath(points)
	if err != nil {
		return "", 0, err
	}

	store, err := db.OpenDB(opts.DBPath)
	if err != nil {
		return "", 0, err
	}
	defer store.Close()

	if opts.Replace {
		if err := store.DeletePath(opts.Name); err != nil && !errors.Is(err, db.ErrPathNotFound) {
			return "", 0, err
		}
	}

	id, err := store.SavePath(opts.Name, path, opts.Units)
	if err != nil {
		return "", 0, err
	}
	return id, path.Len(), nil
}
