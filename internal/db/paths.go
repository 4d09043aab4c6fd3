package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/waypoint-updater/internal/units"
	"github.com/banshee-data/waypoint-updater/internal/waypoint"
)

var (
	// ErrPathNotFound is returned when no path has the requested name.
	ErrPathNotFound = errors.New("path not found")
	// ErrPathExists is returned when saving under a name already in use.
	ErrPathExists = errors.New("path already exists")
)

// PathInfo summarises a stored path.
type PathInfo struct {
	PathID     string    `json:"path_id"`
	Name       string    `json:"name"`
	SpeedUnits string    `json:"speed_units"`
	Waypoints  int       `json:"waypoints"`
	CreatedAt  time.Time `json:"created_at"`
}

// SavePath stores path under name. Speeds are stored in m/s; sourceUnits
// records the units of the file the path was imported from.
func (db *DB) SavePath(name string, path *waypoint.Path, sourceUnits string) (string, error) {
	if path == nil || path.Len() == 0 {
		return "", waypoint.ErrEmptyPath
	}
	if sourceUnits == "" {
		sourceUnits = units.MPS
	}

	tx, err := db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existing int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM paths WHERE name = ?`, name).Scan(&existing); err != nil {
		return "", fmt.Errorf("failed to check path name: %w", err)
	}
	if existing > 0 {
		return "", fmt.Errorf("%w: %q", ErrPathExists, name)
	}

	pathID := uuid.NewString()
	if _, err := tx.Exec(
		`INSERT INTO paths (path_id, name, speed_units, created_at) VALUES (?, ?, ?, ?)`,
		pathID, name, sourceUnits, time.Now().Unix(),
	); err != nil {
		return "", fmt.Errorf("failed to insert path: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO waypoints (path_id, seq, x, y, z, speed) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("failed to prepare waypoint insert: %w", err)
	}
	defer stmt.Close()

	for i, p := range path.Waypoints() {
		if _, err := stmt.Exec(pathID, i, p.X, p.Y, p.Z, p.Speed); err != nil {
			return "", fmt.Errorf("failed to insert waypoint %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit path: %w", err)
	}
	return pathID, nil
}

// LoadPath reads the path stored under name.
func (db *DB) LoadPath(name string) (*waypoint.Path, error) {
	var pathID string
	err := db.QueryRow(`SELECT path_id FROM paths WHERE name = ?`, name).Scan(&pathID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrPathNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up path: %w", err)
	}

	rows, err := db.Query(`SELECT x, y, z, speed FROM waypoints WHERE path_id = ? ORDER BY seq`, pathID)
	if err != nil {
		return nil, fmt.Errorf("failed to query waypoints: %w", err)
	}
	defer rows.Close()

	var points []waypoint.Waypoint
	for rows.Next() {
		var p waypoint.Waypoint
		if err := rows.Scan(&p.X, &p.Y, &p.Z, &p.Speed); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return waypoint.NewPath(points)
}

// DeletePath removes the path stored under name and its waypoints.
func (db *DB) DeletePath(name string) error {
	res, err := db.Exec(`DELETE FROM paths WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete path: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %q", ErrPathNotFound, name)
	}
	return nil
}

// ListPaths returns every stored path, newest first.
func (db *DB) ListPaths() ([]PathInfo, error) {
	rows, err := db.Query(`
		SELECT p.path_id, p.name, p.speed_units, p.created_at, COUNT(w.seq)
		  FROM paths p
		  LEFT JOIN waypoints w ON w.path_id = p.path_id
		 GROUP BY p.path_id
		 ORDER BY p.created_at DESC, p.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PathInfo
	for rows.Next() {
		var info PathInfo
		var created int64
		if err := rows.Scan(&info.PathID, &info.Name, &info.SpeedUnits, &created, &info.Waypoints); err != nil {
			return nil, err
		}
		info.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, info)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
