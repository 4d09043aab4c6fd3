package publisher

import (
	"fmt"
	"strconv"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/banshee-data/waypoint-updater/internal/trajectory"
	"github.com/banshee-data/waypoint-updater/internal/waypoint"
)

// WindowToStruct encodes w as a protobuf Struct. The timestamp travels as a
// decimal string because Struct numbers are doubles.
func WindowToStruct(w *trajectory.Window) (*structpb.Struct, error) {
	points := make([]any, len(w.Waypoints))
	for i, p := range w.Waypoints {
		points[i] = map[string]any{
			"x":     p.X,
			"y":     p.Y,
			"z":     p.Z,
			"speed": p.Speed,
		}
	}
	return structpb.NewStruct(map[string]any{
		"seq":          float64(w.Seq),
		"timestamp_ns": strconv.FormatInt(w.TimestampNanos, 10),
		"start_index":  w.StartIndex,
		"stop_index":   w.StopIndex,
		"braking":      w.Braking,
		"waypoints":    points,
	})
}

// WindowFromStruct decodes a Struct produced by WindowToStruct.
func WindowFromStruct(s *structpb.Struct) (*trajectory.Window, error) {
	f := s.GetFields()
	ts, err := strconv.ParseInt(f["timestamp_ns"].GetStringValue(), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("bad timestamp_ns: %w", err)
	}
	w := &trajectory.Window{
		Seq:            uint64(f["seq"].GetNumberValue()),
		TimestampNanos: ts,
		StartIndex:     int(f["start_index"].GetNumberValue()),
		StopIndex:      int(f["stop_index"].GetNumberValue()),
		Braking:        f["braking"].GetBoolValue(),
	}
	list := f["waypoints"].GetListValue().GetValues()
	w.Waypoints = make([]waypoint.Waypoint, len(list))
	for i, v := range list {
		pf := v.GetStructValue().GetFields()
		if pf == nil {
			return nil, fmt.Errorf("waypoint %d is not an object", i)
		}
		w.Waypoints[i] = waypoint.Waypoint{
			X:     pf["x"].GetNumberValue(),
			Y:     pf["y"].GetNumberValue(),
			Z:     pf["z"].GetNumberValue(),
			Speed: pf["speed"].GetNumberValue(),
		}
	}
	return w, nil
}
