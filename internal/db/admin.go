package db

import (
	"compress/gzip"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/tailscale/tailsql/server/tailsql"
	"tailscale.com/tsweb"

	"github.com/banshee-data/waypoint-updater/internal/httputil"
	"github.com/banshee-data/waypoint-updater/internal/monitoring"
)

// AttachAdminRoutes mounts the SQL console, a backup download and JSON views
// of the stored paths and window log under /debug/.
func (db *DB) AttachAdminRoutes(mux *http.ServeMux) error {
	debug := tsweb.Debugger(mux)

	tsql, err := tailsql.NewServer(tailsql.Options{
		RoutePrefix: "/debug/tailsql/",
	})
	if err != nil {
		return fmt.Errorf("failed to create tailsql server: %w", err)
	}
	tsql.SetDB("sqlite://waypoints.db", db.DB, &tailsql.DBOptions{
		Label: "Waypoint DB",
	})
	debug.Handle("tailsql/", "SQL live debugging", tsql.NewMux())

	debug.Handle("paths", "Stored reference paths", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths, err := db.ListPaths()
		if err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("failed to list paths: %v", err))
			return
		}
		httputil.WriteJSONOK(w, paths)
	}))

	debug.Handle("windows", "Recent window log rows (?run_id=&limit=)", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		rows, err := db.RecentWindows(r.URL.Query().Get("run_id"), limit)
		if err != nil {
			httputil.InternalServerError(w, fmt.Sprintf("failed to query windows: %v", err))
			return
		}
		httputil.WriteJSONOK(w, rows)
	}))

	debug.Handle("backup", "Create and download a backup of the database now", http.HandlerFunc(db.serveBackup))
	return nil
}

func (db *DB) serveBackup(w http.ResponseWriter, r *http.Request) {
	backupName := fmt.Sprintf("backup-%d.db", time.Now().UnixNano())
	backupPath := filepath.Join(os.TempDir(), backupName)
	if _, err := db.DB.Exec("VACUUM INTO ?", backupPath); err != nil {
		http.Error(w, fmt.Sprintf("Failed to create backup: %v", err), http.StatusInternalServerError)
		return
	}
	defer func() {
		if err := os.Remove(backupPath); err != nil {
			monitoring.Logf("Failed to remove backup file: %v", err)
		}
	}()

	backupFile, err := os.Open(backupPath)
	if err != nil {
		http.Error(w, fmt.Sprintf("Failed to open backup file: %v", err), http.StatusInternalServerError)
		return
	}
	defer backupFile.Close()

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s.gz", backupName))
	w.Header().Set("Content-Type", "application/gzip")

	gzipWriter := gzip.NewWriter(w)
	defer gzipWriter.Close()
	if _, err := io.Copy(gzipWriter, backupFile); err != nil {
		monitoring.Logf("Failed to stream backup: %v", err)
	}
}
