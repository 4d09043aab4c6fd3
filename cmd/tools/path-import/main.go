// Command path-import loads a reference path from a CSV file into the
// waypoint database.
package main

import (
	"flag"
	"log"

	"github.com/banshee-data/waypoint-updater/internal/units"
)

func main() {
	csvPath := flag.String("csv", "", "path to x,y,z,speed CSV file")
	dbPath := flag.String("db", "waypoints.db", "path to sqlite DB file")
	name := flag.String("name", "", "name to store the path under")
	speedUnits := flag.String("units", units.MPS, "speed units used in the CSV (mps, kmph, mph)")
	replace := flag.Bool("replace", false, "replace an existing path with the same name")
	flag.Parse()

	if *csvPath == "" || *name == "" {
		flag.Usage()
		log.Fatal("-csv and -name are required")
	}
	if !units.IsValid(*speedUnits) {
		log.Fatalf("invalid -units %q", *speedUnits)
	}

	id, n, err := RunImport(ImportOptions{
		CSVPath: *csvPath,
		DBPath:  *dbPath,
		Name:    *name,
		Units:   *speedUnits,
		Replace: *replace,
	})
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}
	log.Printf("imported %d waypoints as %q (path_id=%s)", n, *name, id)
}
