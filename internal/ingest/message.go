// Package ingest parses the vehicle bridge line protocol and applies each
// update to the planner state.
//
// Two encodings are accepted on the same stream:
//
//	pose,<x>,<y>
//	stop,<index>
//	obstacle,<index>
//	{"type":"pose","x":1.5,"y":-2}
//	{"type":"stop","index":120}
//	{"type":"obstacle","index":-1}
//	{"type":"path","waypoints":[{"x":0,"y":0,"z":0,"speed":4.4}, ...]}
//
// Blank lines and lines starting with "#" are ignored.
package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/banshee-data/waypoint-updater/internal/trajectory"
	"github.com/banshee-data/waypoint-updater/internal/waypoint"
)

// Kind identifies the update carried by a line.
type Kind string

const (
	KindPose     Kind = "pose"
	KindStop     Kind = "stop"
	KindObstacle Kind = "obstacle"
	KindPath     Kind = "path"
)

var (
	// ErrSkip is returned for blank and comment lines.
	ErrSkip = errors.New("line carries no update")
	// ErrUnknownKind is returned for a well-formed line of an unknown type.
	ErrUnknownKind = errors.New("unknown message type")
	// ErrMalformed is returned when a line cannot be decoded.
	ErrMalformed = errors.New("malformed message")
)

// Message is one decoded update.
type Message struct {
	Kind      Kind
	Position  waypoint.Position
	Index     int
	Waypoints []waypoint.Waypoint
}

type jsonMessage struct {
	Type      string              `json:"type"`
	X         *float64            `json:"x"`
	Y         *float64            `json:"y"`
	Index     *int                `json:"index"`
	Waypoints []waypoint.Waypoint `json:"waypoints"`
}

// ParseLine decodes a single protocol line.
func ParseLine(line string) (Message, error) {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return Message{}, ErrSkip
	}
	if strings.HasPrefix(line, "{") {
		return parseJSON(line)
	}
	return parseCSV(line)
}

func parseCSV(line string) (Message, error) {
	fields := strings.Split(line, ",")
	for i := range fields {
		fields[i] = strings.TrimSpace(fields[i])
	}
	kind := Kind(strings.ToLower(fields[0]))

	switch kind {
	case KindPose:
		if len(fields) != 3 {
			return Message{}, fmt.Errorf("%w: pose needs x,y, got %d fields", ErrMalformed, len(fields)-1)
		}
		x, err := parseCoord(fields[1])
		if err != nil {
			return Message{}, err
		}
		y, err := parseCoord(fields[2])
		if err != nil {
			return Message{}, err
		}
		return Message{Kind: kind, Position: waypoint.Position{X: x, Y: y}}, nil

	case KindStop, KindObstacle:
		if len(fields) != 2 {
			return Message{}, fmt.Errorf("%w: %s needs one index, got %d fields", ErrMalformed, kind, len(fields)-1)
		}
		idx, err := strconv.Atoi(fields[1])
		if err != nil {
			return Message{}, fmt.Errorf("%w: bad index %q", ErrMalformed, fields[1])
		}
		return indexMessage(kind, idx)

	case KindPath:
		return Message{}, fmt.Errorf("%w: path messages must be JSON", ErrMalformed)

	default:
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownKind, fields[0])
	}
}

func parseJSON(line string) (Message, error) {
	var m jsonMessage
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	kind := Kind(strings.ToLower(m.Type))

	switch kind {
	case KindPose:
		if m.X == nil || m.Y == nil {
			return Message{}, fmt.Errorf("%w: pose needs x and y", ErrMalformed)
		}
		if !finite(*m.X) || !finite(*m.Y) {
			return Message{}, fmt.Errorf("%w: non-finite pose", ErrMalformed)
		}
		return Message{Kind: kind, Position: waypoint.Position{X: *m.X, Y: *m.Y}}, nil

	case KindStop, KindObstacle:
		if m.Index == nil {
			return Message{}, fmt.Errorf("%w: %s needs index", ErrMalformed, kind)
		}
		return indexMessage(kind, *m.Index)

	case KindPath:
		if len(m.Waypoints) == 0 {
			return Message{}, fmt.Errorf("%w: %v", ErrMalformed, waypoint.ErrEmptyPath)
		}
		return Message{Kind: kind, Waypoints: m.Waypoints}, nil

	default:
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownKind, m.Type)
	}
}

func indexMessage(kind Kind, idx int) (Message, error) {
	if idx < trajectory.NoStop {
		return Message{}, fmt.Errorf("%w: %s index %d below -1", ErrMalformed, kind, idx)
	}
	return Message{Kind: kind, Index: idx}, nil
}

func parseCoord(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !finite(v) {
		return 0, fmt.Errorf("%w: bad coordinate %q", ErrMalformed, s)
	}
	return v, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
