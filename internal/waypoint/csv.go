package waypoint

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/banshee-data/waypoint-updater/internal/units"
)

// ReadCSV parses waypoints from rows of "x,y,z,speed". A leading header row
// (first field not numeric) is skipped. Speeds are converted from speedUnits
// to m/s.
func ReadCSV(r io.Reader, speedUnits string) ([]Waypoint, error) {
	if !units.IsValid(speedUnits) {
		return nil, fmt.Errorf("invalid speed units %q (valid: %v)", speedUnits, units.ValidUnits)
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 4
	reader.TrimLeadingSpace = true
	reader.Comment = '#'

	var points []Waypoint
	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read waypoint CSV: %w", err)
		}
		line++

		if line == 1 && isHeader(record) {
			continue
		}

		var vals [4]float64
		for i, field := range record {
			v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", line, i+1, err)
			}
			vals[i] = v
		}

		speed, err := units.ToMPS(vals[3], speedUnits)
		if err != nil {
			return nil, err
		}
		points = append(points, Waypoint{X: vals[0], Y: vals[1], Z: vals[2], Speed: speed})
	}

	if len(points) == 0 {
		return nil, ErrEmptyPath
	}
	return points, nil
}

// WriteCSV writes waypoints as "x,y,z,speed" rows in m/s with a header.
func WriteCSV(w io.Writer, points []Waypoint) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"x", "y", "z", "speed"}); err != nil {
		return err
	}
	for _, p := range points {
		row := []string{
			strconv.FormatFloat(p.X, 'f', -1, 64),
			strconv.FormatFloat(p.Y, 'f', -1, 64),
			strconv.FormatFloat(p.Z, 'f', -1, 64),
			strconv.FormatFloat(p.Speed, 'f', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func isHeader(record []string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(record[0]), 64)
	return err != nil
}
