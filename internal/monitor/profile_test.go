package monitor

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/waypoint-updater/internal/trajectory"
	"github.com/banshee-data/waypoint-updater/internal/waypoint"
)

func TestBuildProfile(t *testing.T) {
	path := straightPath(t, 6, 4)
	w := &trajectory.Window{
		StartIndex: 2,
		Waypoints: []waypoint.Waypoint{
			{X: 2, Speed: 2},
			{X: 3, Speed: 1},
			{X: 4, Speed: 0},
		},
	}

	got := BuildProfile(path, w)
	want := []ProfilePoint{
		{Index: 2, Distance: 0, Reference: 4, Target: 2},
		{Index: 3, Distance: 1, Reference: 4, Target: 1},
		{Index: 4, Distance: 2, Reference: 4, Target: 0},
	}
	assert.Equal(t, want, got)
}

func TestBuildProfile_NilInputs(t *testing.T) {
	assert.Nil(t, BuildProfile(nil, nil))

	w := &trajectory.Window{Waypoints: []waypoint.Waypoint{{Speed: 3}}}
	got := BuildProfile(nil, w)
	require.Len(t, got, 1)
	assert.Equal(t, 3.0, got[0].Reference, "reference falls back to the window speed")
}

func TestProfilePlotter(t *testing.T) {
	pp := NewProfilePlotter()
	profile := []ProfilePoint{
		{Index: 0, Distance: 0, Reference: 5, Target: 2},
		{Index: 1, Distance: 1, Reference: 5, Target: 1},
		{Index: 2, Distance: 2, Reference: 5, Target: 0},
	}

	var buf bytes.Buffer
	require.NoError(t, pp.WritePNG(&buf, profile, "test"))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")))

	file := filepath.Join(t.TempDir(), "profile.png")
	require.NoError(t, pp.SavePNG(file, profile, "test"))
	info, err := os.Stat(file)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestProfilePlotter_Empty(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, NewProfilePlotter().WritePNG(&buf, nil, "empty"))
}
